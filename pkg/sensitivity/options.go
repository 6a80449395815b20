package sensitivity

import (
	"fmt"
	"math"

	"github.com/roiscope/roiscope/pkg/scoring"
)

// WeightScheme is a named priority weight triple.
type WeightScheme struct {
	Name    string          `json:"name" yaml:"name"`
	Weights scoring.Weights `json:"weights" yaml:",inline"`
}

// Triangular is a triangular distribution over [Min, Max] peaking at Mode.
type Triangular struct {
	Min  float64 `json:"min" yaml:"min"`
	Mode float64 `json:"mode" yaml:"mode"`
	Max  float64 `json:"max" yaml:"max"`
}

// Sample maps a uniform draw u in [0,1) through the inverse CDF.
func (t Triangular) Sample(u float64) float64 {
	width := t.Max - t.Min
	if width <= 0 {
		return t.Min
	}
	c := (t.Mode - t.Min) / width
	if u < c {
		return t.Min + math.Sqrt(u*width*(t.Mode-t.Min))
	}
	return t.Max - math.Sqrt((1-u)*width*(t.Max-t.Mode))
}

func (t Triangular) valid() bool {
	return t.Min <= t.Mode && t.Mode <= t.Max
}

// DefaultSeed seeds the Monte Carlo draws when no seed is given.
const DefaultSeed uint64 = 42

// SeedOrDefault maps the zero seed to DefaultSeed.
func SeedOrDefault(seed uint64) uint64 {
	if seed == 0 {
		return DefaultSeed
	}
	return seed
}

// MonteCarloOptions configures the randomized resampling analysis.
type MonteCarloOptions struct {
	Trials int
	Seed   uint64
	// Workers bounds parallel trial evaluation. Zero or less means no limit.
	Workers int

	WReadiness Triangular
	WROI       Triangular
	WRisk      Triangular
	Adoption   Triangular
	AgentCost  Triangular
}

// Options configures all four analyses.
type Options struct {
	// SweepGates apply to the weight sweep, cost sweep and Monte Carlo.
	SweepGates scoring.Gates
	// BaselineWeights apply to the gate and cost sweeps.
	BaselineWeights scoring.Weights
	Schemes         []WeightScheme

	ReadinessGates []float64
	RiskGates      []float64

	AgentCosts      []float64
	ImplMultipliers []float64

	MonteCarlo MonteCarloOptions
}

// DefaultOptions returns the standard sweep grids and distributions.
func DefaultOptions() Options {
	return Options{
		SweepGates:      scoring.Gates{MinReadiness: 50, MaxRisk: 70},
		BaselineWeights: scoring.Weights{Readiness: 0.35, ROI: 0.45, Risk: 0.20},
		Schemes:         DefaultSchemes(),
		ReadinessGates:  []float64{40, 50, 60, 70},
		RiskGates:       []float64{55, 65, 70, 75, 80},
		AgentCosts:      []float64{20, 25, 28, 32, 40, 50},
		ImplMultipliers: []float64{0.5, 0.75, 1.0, 1.25, 1.5},
		MonteCarlo: MonteCarloOptions{
			Trials:     500,
			Seed:       DefaultSeed,
			WReadiness: Triangular{0.25, 0.35, 0.45},
			WROI:       Triangular{0.35, 0.45, 0.55},
			WRisk:      Triangular{0.10, 0.20, 0.30},
			Adoption:   Triangular{0.60, 0.80, 0.95},
			AgentCost:  Triangular{22, 28, 35},
		},
	}
}

// DefaultSchemes returns the standard weight schemes, baseline first.
func DefaultSchemes() []WeightScheme {
	return []WeightScheme{
		{"Baseline", scoring.Weights{Readiness: 0.35, ROI: 0.45, Risk: 0.20}},
		{"ROI Heavy", scoring.Weights{Readiness: 0.20, ROI: 0.60, Risk: 0.20}},
		{"Risk Averse", scoring.Weights{Readiness: 0.30, ROI: 0.30, Risk: 0.40}},
		{"Readiness First", scoring.Weights{Readiness: 0.50, ROI: 0.35, Risk: 0.15}},
		{"Equal Weights", scoring.Weights{Readiness: 0.33, ROI: 0.34, Risk: 0.33}},
		{"Extreme ROI", scoring.Weights{Readiness: 0.15, ROI: 0.70, Risk: 0.15}},
		{"Extreme Risk", scoring.Weights{Readiness: 0.25, ROI: 0.25, Risk: 0.50}},
	}
}

// Validate checks that the options describe runnable analyses.
func (o Options) Validate() error {
	if len(o.Schemes) == 0 {
		return fmt.Errorf("at least one weight scheme is required")
	}
	if len(o.ReadinessGates) == 0 || len(o.RiskGates) == 0 {
		return fmt.Errorf("gate sweep grids must not be empty")
	}
	if len(o.AgentCosts) == 0 || len(o.ImplMultipliers) == 0 {
		return fmt.Errorf("cost sweep grids must not be empty")
	}
	mc := o.MonteCarlo
	if mc.Trials <= 0 {
		return fmt.Errorf("monte carlo trials must be positive, got %d", mc.Trials)
	}
	ranges := []struct {
		name string
		t    Triangular
	}{
		{"w_readiness", mc.WReadiness},
		{"w_roi", mc.WROI},
		{"w_risk", mc.WRisk},
		{"adoption", mc.Adoption},
		{"agent_cost", mc.AgentCost},
	}
	for _, r := range ranges {
		if !r.t.valid() {
			return fmt.Errorf("monte carlo range %s: need min <= mode <= max, got %v/%v/%v", r.name, r.t.Min, r.t.Mode, r.t.Max)
		}
	}
	return nil
}
