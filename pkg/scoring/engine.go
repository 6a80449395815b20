package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/roiscope/roiscope/pkg/model"
)

// Options configures an Engine.
type Options struct {
	// ShiftRates overrides the automation shift-rate table. A zero value
	// uses DefaultShiftRates.
	ShiftRates ShiftRates
	// CompanyID is stamped on every output row.
	CompanyID string
}

// Engine runs the scoring pipeline for one scenario at a time. It holds no
// per-run state and is safe for concurrent use.
type Engine struct {
	readiness   DimensionScorer
	suitability DimensionScorer
	risk        DimensionScorer
	rates       ShiftRates
	companyID   string
}

// NewEngine creates a scoring engine with the standard dimension scorers.
func NewEngine(opts Options) *Engine {
	rates := opts.ShiftRates
	if rates.Rates == nil {
		rates = DefaultShiftRates()
	}
	return &Engine{
		readiness:   Dimension{Name: model.DimensionReadiness},
		suitability: Dimension{Name: model.DimensionSuitability},
		risk:        RiskDimension{},
		rates:       rates,
		companyID:   opts.CompanyID,
	}
}

// CompanyID returns the company stamped on results.
func (e *Engine) CompanyID() string { return e.companyID }

// ShiftRates returns the shift-rate table in use.
func (e *Engine) ShiftRates() ShiftRates { return e.rates }

// RunByID resolves a scenario from the dataset and runs it.
func (e *Engine) RunByID(ds *model.Dataset, scenarioID string) (*Result, error) {
	sc, err := ds.Scenario(scenarioID)
	if err != nil {
		return nil, err
	}
	return e.Run(ds, sc)
}

// Run scores every step of the dataset under one scenario. The dataset is
// not modified.
func (e *Engine) Run(ds *model.Dataset, sc model.Scenario) (*Result, error) {
	if ds == nil {
		return nil, fmt.Errorf("dataset is nil")
	}

	readiness := e.readiness.Score(ds.Scores, ds.Metrics)
	suitability := e.suitability.Score(ds.Scores, ds.Metrics)
	risk := e.risk.Score(ds.Scores, ds.Metrics)
	rois := EstimateAll(ds.Steps, sc.Business, e.rates)

	strat := sc.Strategy
	weights := WeightsOf(strat)
	gates := GatesOf(strat)

	result := &Result{
		ScenarioID:   sc.ID(),
		ScenarioName: sc.Business.ScenarioName,
		CompanyID:    e.companyID,
		Scenario:     sc,
		Steps:        make([]ScoredStep, 0, len(ds.Steps)),
	}

	for _, step := range ds.Steps {
		ss := ScoredStep{
			StepID:              step.ID,
			StepName:            step.Name,
			ProcessArea:         step.ProcessArea,
			AutomationCandidate: step.AutomationCandidate.String(),
			VolumeShare:         step.VolumeShare,
			ScenarioID:          sc.ID(),
			CompanyID:           e.companyID,
		}

		r := LookupOrDefault(readiness, step.ID, DefaultMissingReadiness)
		s := LookupOrDefault(suitability, step.ID, DefaultMissingSuitability)
		k := LookupOrDefault(risk, step.ID, DefaultMissingRisk)
		ss.Readiness, ss.Suitability, ss.Risk = r.Value, s.Value, k.Value
		if r.Defaulted {
			ss.Defaulted = append(ss.Defaulted, model.DimensionReadiness)
		}
		if s.Defaulted {
			ss.Defaulted = append(ss.Defaulted, model.DimensionSuitability)
		}
		if k.Defaulted {
			ss.Defaulted = append(ss.Defaulted, model.DimensionRisk)
		}

		roi, ok := rois[step.ID]
		if ok {
			ss.MonthlyVolume = roi.MonthlyVolume
			ss.MonthlyManualCost = roi.MonthlyManualCost
			ss.EffectiveShiftRate = roi.EffectiveShiftRate
			ss.MonthlySavings = roi.MonthlySavings
			ss.AnnualSavings = roi.AnnualSavings
			ss.ImplementationCost = roi.ImplementationCost
			ss.PaybackMonths = roi.PaybackMonths
			ss.ROIRatio = roi.ROIRatio
			ss.FallbackShiftRate = roi.FallbackShiftRate
			ss.ROIScore = ROIScore(roi.PaybackMonths, roi.ROIRatio, strat.TargetPaybackMonths, strat.TargetROIRatio)
		} else {
			ss.PaybackMonths = Months(math.Inf(1))
			ss.ROIScore = DefaultMissingROI
			ss.Defaulted = append(ss.Defaulted, "ROI")
		}

		ss.Priority = PriorityScore(ss.Readiness, ss.ROIScore, ss.Risk, weights, gates)
		ss.Recommendation = Recommend(ss.Priority, ss.Readiness, ss.Risk)

		result.Steps = append(result.Steps, ss)
	}

	sort.SliceStable(result.Steps, func(i, j int) bool {
		return result.Steps[i].Priority > result.Steps[j].Priority
	})

	result.Summary = Summarize(result.Steps)
	return result, nil
}

// WeightsOf returns the priority weights of a strategy.
func WeightsOf(s model.StrategyParams) Weights {
	return Weights{Readiness: s.WReadiness, ROI: s.WROI, Risk: s.WRisk}
}

// GatesOf returns the priority gates of a strategy.
func GatesOf(s model.StrategyParams) Gates {
	return Gates{MinReadiness: s.MinReadinessGate, MaxRisk: s.MaxRiskGate}
}

// Summarize aggregates the financials of the prioritized steps. Aggregate
// payback is implementation cost over monthly savings, +Inf without savings.
func Summarize(steps []ScoredStep) Summary {
	sum := Summary{StepCount: len(steps)}
	for _, s := range steps {
		if s.Gated() {
			sum.GatedCount++
			continue
		}
		sum.PrioritizedCount++
		sum.TotalAnnualSavings += s.AnnualSavings
		sum.TotalImplementationCost += s.ImplementationCost
	}
	if sum.TotalImplementationCost > 0 {
		sum.ROIRatio = sum.TotalAnnualSavings / sum.TotalImplementationCost
	}
	if monthly := sum.TotalAnnualSavings / 12.0; monthly > 0 {
		sum.AggregatePaybackMonths = Months(sum.TotalImplementationCost / monthly)
	} else {
		sum.AggregatePaybackMonths = Months(math.Inf(1))
	}
	return sum
}
