package scoring

import "github.com/roiscope/roiscope/pkg/model"

// Raw score scale.
const (
	ScaleMin = 1.0
	ScaleMax = 5.0
)

// weightEpsilon floors a dimension's weight sum.
const weightEpsilon = 1e-9

// ROI score blend: payback speed counts more than the absolute multiple.
const (
	PaybackBlend  = 0.6
	ROIRatioBlend = 0.4
)

// Defaults applied to steps missing from a dimension's result. They bias an
// incomplete step toward being gated out.
const (
	DefaultMissingReadiness   = 0.0
	DefaultMissingSuitability = 0.0
	DefaultMissingRisk        = 100.0
	DefaultMissingROI         = 0.0
)

// DefaultFallbackShiftRate applies to automation candidates not in the table.
const DefaultFallbackShiftRate = 0.30

// ShiftRates maps automation candidate labels to the share of handling work
// that can shift to automation.
type ShiftRates struct {
	Rates    map[string]float64
	Fallback float64
}

// DefaultShiftRates returns the standard shift-rate table.
func DefaultShiftRates() ShiftRates {
	return ShiftRates{
		Rates: map[string]float64{
			"Full":    0.70, // most of the work shifts to AI
			"Partial": 0.40,
			"Assist":  0.20, // AI helps, a human does most of it
		},
		Fallback: DefaultFallbackShiftRate,
	}
}

// Rate returns the base shift rate for a candidate and whether the fallback
// was used.
func (r ShiftRates) Rate(c model.AutomationCandidate) (float64, bool) {
	if v, ok := r.Rates[c.Raw]; ok {
		return v, false
	}
	return r.Fallback, true
}
