// Package model defines the tabular data model for roiscope: process steps,
// scoring metrics, sparse step scores and scenario parameters.
// These types are the shared vocabulary across the scoring, sensitivity and
// presentation packages. Values are immutable once loaded.
package model

import "strings"

// Dimension names used by the scoring metrics table.
const (
	DimensionReadiness   = "Readiness"
	DimensionSuitability = "Suitability"
	DimensionRisk        = "Risk"
)

// Direction says whether a higher raw score means more or less of the
// measured quality.
type Direction int

const (
	DirectionUnknown Direction = iota
	HigherBetter
	HigherWorse
)

// ParseDirection parses a direction case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "higherbetter":
		return HigherBetter, true
	case "higherworse":
		return HigherWorse, true
	default:
		return DirectionUnknown, false
	}
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d Direction) String() string {
	switch d {
	case HigherBetter:
		return "HigherBetter"
	case HigherWorse:
		return "HigherWorse"
	default:
		return "Unknown"
	}
}

// CandidateKind classifies how much of a step can be automated.
type CandidateKind int

const (
	CandidateOther CandidateKind = iota
	CandidateFull
	CandidatePartial
	CandidateAssist
)

// AutomationCandidate is a closed set of known categories plus Other, which
// keeps the raw label so unknown categories survive a round trip.
type AutomationCandidate struct {
	Kind CandidateKind
	Raw  string
}

// ParseAutomationCandidate maps a raw label to a candidate. Matching is exact,
// so "full" is an Other category.
func ParseAutomationCandidate(s string) AutomationCandidate {
	raw := strings.TrimSpace(s)
	switch raw {
	case "Full":
		return AutomationCandidate{Kind: CandidateFull, Raw: raw}
	case "Partial":
		return AutomationCandidate{Kind: CandidatePartial, Raw: raw}
	case "Assist":
		return AutomationCandidate{Kind: CandidateAssist, Raw: raw}
	default:
		return AutomationCandidate{Kind: CandidateOther, Raw: raw}
	}
}

// Known reports whether the candidate is one of the closed categories.
func (c AutomationCandidate) Known() bool { return c.Kind != CandidateOther }

func (c AutomationCandidate) String() string { return c.Raw }

// MarshalText encodes the candidate as its raw label.
func (c AutomationCandidate) MarshalText() ([]byte, error) { return []byte(c.Raw), nil }

// UnmarshalText parses a raw label.
func (c *AutomationCandidate) UnmarshalText(b []byte) error {
	*c = ParseAutomationCandidate(string(b))
	return nil
}

// ProcessStep is one candidate support scenario.
type ProcessStep struct {
	ID                  string              `json:"step_id" validate:"required"`
	Name                string              `json:"step_name"`
	ProcessArea         string              `json:"process_area"`
	VolumeShare         float64             `json:"volume_share" validate:"gte=0"`
	AvgHandleTimeMin    float64             `json:"avg_handle_time_min" validate:"gte=0"`
	AutomationCandidate AutomationCandidate `json:"automation_candidate"`
}

// ScoringMetric is static reference data describing one scored metric.
type ScoringMetric struct {
	ID        string    `json:"metric_id" validate:"required"`
	Dimension string    `json:"dimension" validate:"required"`
	Name      string    `json:"metric_name"`
	Weight    float64   `json:"weight" validate:"gte=0"`
	Direction Direction `json:"direction"`
}

// StepScore is a raw 1–5 score of a step on a metric. The range is nominal
// and not enforced.
type StepScore struct {
	StepID   string  `json:"step_id" validate:"required"`
	MetricID string  `json:"metric_id" validate:"required"`
	Score    float64 `json:"score"`
}

// BusinessParams are the operational cost parameters of a scenario.
type BusinessParams struct {
	ScenarioID             string  `json:"scenario_id" validate:"required"`
	ScenarioName           string  `json:"scenario_name"`
	TicketVolumeMonthly    float64 `json:"ticket_volume_monthly" validate:"gte=0"`
	AgentCostPerHour       float64 `json:"agent_cost_per_hour" validate:"gte=0"`
	ImplementationBudget   float64 `json:"implementation_budget"`
	OverheadMultiplier     float64 `json:"overhead_multiplier"`
	PeakMultiplier         float64 `json:"peak_multiplier"`
	BaseImplementationCost float64 `json:"base_implementation_cost"`
	AutomationAdoptionRate float64 `json:"automation_adoption_rate"`
}

// StrategyParams are the prioritization weights, gates and ROI targets of a
// scenario.
type StrategyParams struct {
	ScenarioID          string  `json:"scenario_id" validate:"required"`
	WReadiness          float64 `json:"w_readiness"`
	WROI                float64 `json:"w_roi"`
	WRisk               float64 `json:"w_risk"`
	MinReadinessGate    float64 `json:"min_readiness_gate"`
	MaxRiskGate         float64 `json:"max_risk_gate"`
	TargetPaybackMonths float64 `json:"target_payback_months"`
	TargetROIRatio      float64 `json:"target_roi_ratio"`
	ROIPreference       string  `json:"roi_preference,omitempty"`
}

// WeightSum returns w_readiness + w_roi + w_risk.
func (s StrategyParams) WeightSum() float64 {
	return s.WReadiness + s.WROI + s.WRisk
}

// Scenario is one complete, independent parameter set.
type Scenario struct {
	Business BusinessParams `json:"business"`
	Strategy StrategyParams `json:"strategy"`
}

// ID returns the scenario identifier.
func (s Scenario) ID() string { return s.Business.ScenarioID }

// Defaults for optional scenario columns.
const (
	DefaultScenarioName           = "Unnamed"
	DefaultOverheadMultiplier     = 1.15
	DefaultPeakMultiplier         = 1.0
	DefaultBaseImplementationCost = 25000.0
	DefaultAutomationAdoptionRate = 0.80
	DefaultTargetPaybackMonths    = 12.0
	DefaultTargetROIRatio         = 2.0
	DefaultROIPreference          = "Balanced"
)

// Dataset holds the five reference tables of one invocation.
type Dataset struct {
	Steps    []ProcessStep
	Metrics  []ScoringMetric
	Scores   []StepScore
	Business []BusinessParams
	Strategy []StrategyParams
}

// ScenarioIDs returns the scenario ids of the business table in file order,
// without duplicates.
func (d *Dataset) ScenarioIDs() []string {
	seen := make(map[string]bool, len(d.Business))
	var ids []string
	for _, b := range d.Business {
		if seen[b.ScenarioID] {
			continue
		}
		seen[b.ScenarioID] = true
		ids = append(ids, b.ScenarioID)
	}
	return ids
}

// Scenario assembles the parameters of one scenario. The first matching row
// of each table wins.
func (d *Dataset) Scenario(id string) (Scenario, error) {
	var sc Scenario
	found := false
	for _, b := range d.Business {
		if b.ScenarioID == id {
			sc.Business = b
			found = true
			break
		}
	}
	if !found {
		return Scenario{}, &Error{Kind: KindUnknownScenario, Op: "scenario", Table: TableBusinessParams,
			Message: "scenario '" + id + "' not found in BusinessParams"}
	}

	found = false
	for _, s := range d.Strategy {
		if s.ScenarioID == id {
			sc.Strategy = s
			found = true
			break
		}
	}
	if !found {
		return Scenario{}, &Error{Kind: KindUnknownScenario, Op: "scenario", Table: TableStrategyParams,
			Message: "scenario '" + id + "' not found in StrategyParams"}
	}
	return sc, nil
}

// StrategyFor returns the strategy row of a scenario, if any.
func (d *Dataset) StrategyFor(id string) (StrategyParams, bool) {
	for _, s := range d.Strategy {
		if s.ScenarioID == id {
			return s, true
		}
	}
	return StrategyParams{}, false
}
