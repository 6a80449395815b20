// Package scoring implements the roiscope automation-priority engine.
// It turns raw metric scores and scenario parameters into gated, ranked,
// explainable priority scores with ROI projections.
package scoring

import (
	"encoding/json"
	"math"

	"github.com/roiscope/roiscope/pkg/model"
)

// Result is the complete output of one scenario run.
// Immutable once computed.
type Result struct {
	ScenarioID   string         `json:"scenario_id"`
	ScenarioName string         `json:"scenario_name"`
	CompanyID    string         `json:"company_id"`
	Scenario     model.Scenario `json:"parameters"`
	Steps        []ScoredStep   `json:"steps"` // sorted by priority, highest first
	Summary      Summary        `json:"summary"`
}

// Prioritized returns the steps with a positive priority, in rank order.
func (r *Result) Prioritized() []ScoredStep {
	var out []ScoredStep
	for _, s := range r.Steps {
		if !s.Gated() {
			out = append(out, s)
		}
	}
	return out
}

// Gated returns the steps that did not earn a positive priority.
func (r *Result) Gated() []ScoredStep {
	var out []ScoredStep
	for _, s := range r.Steps {
		if s.Gated() {
			out = append(out, s)
		}
	}
	return out
}

// ScoredStep is a process step joined with every derived score.
type ScoredStep struct {
	StepID              string  `json:"step_id"`
	StepName            string  `json:"step_name"`
	ProcessArea         string  `json:"process_area"`
	AutomationCandidate string  `json:"automation_candidate"`
	VolumeShare         float64 `json:"volume_share"`

	Readiness   float64 `json:"readiness_score_0_100"`
	Suitability float64 `json:"suitability_score_0_100"`
	Risk        float64 `json:"risk_score_0_100"`

	MonthlyVolume      float64 `json:"monthly_volume"`
	MonthlyManualCost  float64 `json:"monthly_manual_cost"`
	EffectiveShiftRate float64 `json:"effective_shift_rate"`
	MonthlySavings     float64 `json:"monthly_savings_est"`
	AnnualSavings      float64 `json:"annual_savings_est"`
	ImplementationCost float64 `json:"implementation_cost_est"`
	PaybackMonths      Months  `json:"payback_months"`
	ROIRatio           float64 `json:"roi_ratio"`
	ROIScore           float64 `json:"roi_score_0_100"`

	Priority       float64        `json:"priority_score_0_100"`
	Recommendation Recommendation `json:"recommendation"`

	// Defaulted lists the dimensions that had no scores for this step and
	// took their default value.
	Defaulted []string `json:"defaulted,omitempty"`
	// FallbackShiftRate is set when the automation candidate was not in the
	// shift-rate table.
	FallbackShiftRate bool `json:"fallback_shift_rate,omitempty"`

	ScenarioID string `json:"scenario_id"`
	CompanyID  string `json:"company_id"`
}

// Gated reports a step left out of the ranking: it failed a gate, or
// negative weights drove its priority to zero or below.
func (s ScoredStep) Gated() bool { return s.Priority <= 0 }

// Summary aggregates the financials of the prioritized steps.
type Summary struct {
	StepCount               int     `json:"step_count"`
	PrioritizedCount        int     `json:"prioritized_count"`
	GatedCount              int     `json:"gated_count"`
	TotalAnnualSavings      float64 `json:"total_annual_savings"`
	TotalImplementationCost float64 `json:"total_implementation_cost"`
	ROIRatio                float64 `json:"roi_ratio"`
	AggregatePaybackMonths  Months  `json:"aggregate_payback_months"`
}

// Months is a duration in months. +Inf means "never pays back" and encodes
// as JSON null.
type Months float64

// Infinite reports whether the value is the never-pays-back sentinel.
func (m Months) Infinite() bool { return math.IsInf(float64(m), 1) }

// MarshalJSON encodes non-finite values as null.
func (m Months) MarshalJSON() ([]byte, error) {
	f := float64(m)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON decodes null as +Inf.
func (m *Months) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Months(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*m = Months(f)
	return nil
}

// Lookup is the outcome of a lookup-or-default: either a scored value or the
// declared default for a missing key.
type Lookup struct {
	Value     float64
	Defaulted bool
}

// LookupOrDefault returns m[key] when present and def otherwise, recording
// which one it was.
func LookupOrDefault(m map[string]float64, key string, def float64) Lookup {
	if v, ok := m[key]; ok {
		return Lookup{Value: v}
	}
	return Lookup{Value: def, Defaulted: true}
}
