// Package sensitivity re-runs the scoring pipeline under perturbed weights,
// gates, costs and randomized parameter draws to show how stable the
// priority ranking and savings estimates are.
package sensitivity

import (
	"context"
	"fmt"
	"sort"

	"code.cloudfoundry.org/lager/v3"

	"github.com/roiscope/roiscope/pkg/model"
	"github.com/roiscope/roiscope/pkg/scoring"
)

// GatedRank is the rank recorded for a step gated out of a scheme.
const GatedRank = 99

// Harness runs sensitivity analyses around one base scenario. The dataset
// and base scenario are never modified; every perturbation works on a copy.
type Harness struct {
	logger lager.Logger
	engine *scoring.Engine
	ds     *model.Dataset
	base   model.Scenario
	opts   Options
	names  map[string]string
}

// NewHarness creates a harness around a base scenario.
func NewHarness(logger lager.Logger, engine *scoring.Engine, ds *model.Dataset, base model.Scenario, opts Options) (*Harness, error) {
	if ds == nil {
		return nil, fmt.Errorf("dataset is nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sensitivity options: %w", err)
	}
	names := make(map[string]string, len(ds.Steps))
	for _, s := range ds.Steps {
		names[s.ID] = s.Name
	}
	return &Harness{
		logger: logger.Session("sensitivity", lager.Data{"scenario_id": base.ID()}),
		engine: engine,
		ds:     ds,
		base:   base,
		opts:   opts,
		names:  names,
	}, nil
}

// Report bundles the output of all four analyses.
type Report struct {
	ScenarioID string            `json:"scenario_id"`
	Weights    *WeightSweep      `json:"weight_sweep"`
	Gates      *GateSweep        `json:"gate_sweep"`
	Costs      *CostSweep        `json:"cost_sweep"`
	MonteCarlo *MonteCarloResult `json:"monte_carlo"`
}

// Run executes every analysis in turn.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	report := &Report{ScenarioID: h.base.ID()}
	var err error

	if report.Weights, err = h.WeightSweep(ctx); err != nil {
		return nil, fmt.Errorf("weight sweep: %w", err)
	}
	if report.Gates, err = h.GateSweep(ctx); err != nil {
		return nil, fmt.Errorf("gate sweep: %w", err)
	}
	if report.Costs, err = h.CostSweep(ctx); err != nil {
		return nil, fmt.Errorf("cost sweep: %w", err)
	}
	if report.MonteCarlo, err = h.MonteCarlo(ctx); err != nil {
		return nil, fmt.Errorf("monte carlo: %w", err)
	}
	return report, nil
}

// RankedStep is one prioritized step in a scheme's ranking.
type RankedStep struct {
	Rank          int     `json:"rank"`
	StepID        string  `json:"step_id"`
	StepName      string  `json:"step_name"`
	Priority      float64 `json:"priority_score_0_100"`
	AnnualSavings float64 `json:"annual_savings_est"`
}

// SchemeRanking is the ordered list of prioritized steps under one scheme.
type SchemeRanking struct {
	Scheme  WeightScheme `json:"scheme"`
	Ranking []RankedStep `json:"ranking"`
}

// Top returns up to n leading steps.
func (s SchemeRanking) Top(n int) []RankedStep {
	if len(s.Ranking) < n {
		return s.Ranking
	}
	return s.Ranking[:n]
}

// StepStability summarizes a step's rank across all weight schemes.
// Gated schemes count as GatedRank; MaxRank and AvgRank cover only the
// schemes where the step was ranked, and are GatedRank when it never was.
type StepStability struct {
	StepID     string  `json:"step_id"`
	StepName   string  `json:"step_name"`
	MinRank    int     `json:"min_rank"`
	MaxRank    int     `json:"max_rank"`
	Range      int     `json:"range"`
	TimesGated int     `json:"times_gated"`
	AvgRank    float64 `json:"avg_rank"`
	Schemes    int     `json:"schemes"`
}

// Stable reports a step ranked within 3 positions and never gated.
func (s StepStability) Stable() bool { return s.Range <= 3 && s.TimesGated == 0 }

// Sensitive reports a step whose rank moves by more than 3 positions.
func (s StepStability) Sensitive() bool { return s.Range > 3 && s.TimesGated < s.Schemes }

// SometimesGated reports a step gated in some but not all schemes.
func (s StepStability) SometimesGated() bool { return s.TimesGated > 0 && s.TimesGated < s.Schemes }

// AlwaysGated reports a step gated in every scheme.
func (s StepStability) AlwaysGated() bool { return s.TimesGated == s.Schemes }

// WeightSweep is the result of re-ranking under each weight scheme.
type WeightSweep struct {
	Gates     scoring.Gates   `json:"gates"`
	Rankings  []SchemeRanking `json:"rankings"`
	Stability []StepStability `json:"stability"` // ordered by (range, avg_rank)
}

// WeightSweep re-runs the pipeline once per weight scheme at the sweep gates.
func (h *Harness) WeightSweep(ctx context.Context) (*WeightSweep, error) {
	logger := h.logger.Session("weight-sweep", lager.Data{"schemes": len(h.opts.Schemes)})
	logger.Debug("starting")

	out := &WeightSweep{Gates: h.opts.SweepGates}
	for _, scheme := range h.opts.Schemes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sc := h.scenario(scheme.Weights, h.opts.SweepGates)
		result, err := h.engine.Run(h.ds, sc)
		if err != nil {
			return nil, fmt.Errorf("scheme %q: %w", scheme.Name, err)
		}
		out.Rankings = append(out.Rankings, SchemeRanking{Scheme: scheme, Ranking: rank(result)})
	}

	out.Stability = h.stability(out.Rankings)
	logger.Info("finished", lager.Data{"steps": len(out.Stability)})
	return out, nil
}

func (h *Harness) stability(rankings []SchemeRanking) []StepStability {
	ranks := make([]map[string]int, len(rankings))
	for i, r := range rankings {
		ranks[i] = make(map[string]int, len(r.Ranking))
		for _, rs := range r.Ranking {
			ranks[i][rs.StepID] = rs.Rank
		}
	}

	out := make([]StepStability, 0, len(h.ds.Steps))
	for _, step := range h.ds.Steps {
		st := StepStability{StepID: step.ID, StepName: step.Name, MinRank: GatedRank, Schemes: len(rankings)}
		var ranked []int
		for _, m := range ranks {
			r, ok := m[step.ID]
			if !ok {
				st.TimesGated++
				continue
			}
			ranked = append(ranked, r)
		}

		if len(ranked) == 0 {
			st.MaxRank = GatedRank
			st.AvgRank = GatedRank
		} else {
			total := 0
			for _, r := range ranked {
				st.MinRank = min(st.MinRank, r)
				st.MaxRank = max(st.MaxRank, r)
				total += r
			}
			st.Range = st.MaxRank - st.MinRank
			st.AvgRank = float64(total) / float64(len(ranked))
		}
		out = append(out, st)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range != out[j].Range {
			return out[i].Range < out[j].Range
		}
		return out[i].AvgRank < out[j].AvgRank
	})
	return out
}

// GateCell is one combination of the gate sweep.
type GateCell struct {
	MinReadiness     float64 `json:"min_readiness"`
	MaxRisk          float64 `json:"max_risk"`
	Prioritized      int     `json:"prioritized"`
	Gated            int     `json:"gated"`
	PotentialSavings float64 `json:"potential_savings"`
}

// GateSweep is the grid of gate combinations at the baseline weights.
type GateSweep struct {
	Weights        scoring.Weights `json:"weights"`
	ReadinessGates []float64       `json:"readiness_gates"`
	RiskGates      []float64       `json:"risk_gates"`
	Cells          []GateCell      `json:"cells"` // readiness-major
}

// Cell returns the cell for a gate pair.
func (g *GateSweep) Cell(minReadiness, maxRisk float64) (GateCell, bool) {
	for _, c := range g.Cells {
		if c.MinReadiness == minReadiness && c.MaxRisk == maxRisk {
			return c, true
		}
	}
	return GateCell{}, false
}

// GateSweep re-runs the pipeline for every readiness × risk gate pair.
func (h *Harness) GateSweep(ctx context.Context) (*GateSweep, error) {
	logger := h.logger.Session("gate-sweep", lager.Data{
		"cells": len(h.opts.ReadinessGates) * len(h.opts.RiskGates),
	})
	logger.Debug("starting")

	out := &GateSweep{
		Weights:        h.opts.BaselineWeights,
		ReadinessGates: h.opts.ReadinessGates,
		RiskGates:      h.opts.RiskGates,
	}
	for _, minR := range h.opts.ReadinessGates {
		for _, maxRisk := range h.opts.RiskGates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			gates := scoring.Gates{MinReadiness: minR, MaxRisk: maxRisk}
			result, err := h.engine.Run(h.ds, h.scenario(h.opts.BaselineWeights, gates))
			if err != nil {
				return nil, fmt.Errorf("gates %v/%v: %w", minR, maxRisk, err)
			}
			out.Cells = append(out.Cells, GateCell{
				MinReadiness:     minR,
				MaxRisk:          maxRisk,
				Prioritized:      result.Summary.PrioritizedCount,
				Gated:            result.Summary.GatedCount,
				PotentialSavings: result.Summary.TotalAnnualSavings,
			})
		}
	}

	logger.Info("finished")
	return out, nil
}

// CostCell is one combination of the cost sweep.
type CostCell struct {
	AgentCost      float64 `json:"agent_cost"`
	ImplMultiplier float64 `json:"impl_multiplier"`
	Prioritized    int     `json:"prioritized"`
	TotalSavings   float64 `json:"total_savings"`
	ImplCost       float64 `json:"impl_cost"`
	ROIRatio       float64 `json:"roi_ratio"`
}

// CostSweep is the grid of agent cost × implementation cost multipliers.
type CostSweep struct {
	BaseImplementationCost float64    `json:"base_implementation_cost"`
	AgentCosts             []float64  `json:"agent_costs"`
	ImplMultipliers        []float64  `json:"impl_multipliers"`
	Cells                  []CostCell `json:"cells"` // agent-cost-major
}

// BreakEven returns the number of cells with an ROI ratio of at least 1.
func (c *CostSweep) BreakEven() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.ROIRatio >= 1 {
			n++
		}
	}
	return n
}

// BelowBreakEven returns the cells with an ROI ratio under 1.
func (c *CostSweep) BelowBreakEven() []CostCell {
	var out []CostCell
	for _, cell := range c.Cells {
		if cell.ROIRatio < 1 {
			out = append(out, cell)
		}
	}
	return out
}

// CostSweep re-runs the pipeline for every agent cost and implementation
// cost multiplier. The implementation cost of a cell is the flat
// base_implementation_cost × multiplier × prioritized count.
func (h *Harness) CostSweep(ctx context.Context) (*CostSweep, error) {
	logger := h.logger.Session("cost-sweep", lager.Data{
		"cells": len(h.opts.AgentCosts) * len(h.opts.ImplMultipliers),
	})
	logger.Debug("starting")

	baseImpl := h.base.Business.BaseImplementationCost
	out := &CostSweep{
		BaseImplementationCost: baseImpl,
		AgentCosts:             h.opts.AgentCosts,
		ImplMultipliers:        h.opts.ImplMultipliers,
	}
	for _, cost := range h.opts.AgentCosts {
		for _, mult := range h.opts.ImplMultipliers {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sc := h.scenario(h.opts.BaselineWeights, h.opts.SweepGates)
			sc.Business.AgentCostPerHour = cost
			sc.Business.BaseImplementationCost = baseImpl * mult

			result, err := h.engine.Run(h.ds, sc)
			if err != nil {
				return nil, fmt.Errorf("cost %v × %v: %w", cost, mult, err)
			}

			cell := CostCell{
				AgentCost:      cost,
				ImplMultiplier: mult,
				Prioritized:    result.Summary.PrioritizedCount,
				TotalSavings:   result.Summary.TotalAnnualSavings,
				ImplCost:       baseImpl * mult * float64(result.Summary.PrioritizedCount),
			}
			if cell.Prioritized > 0 && cell.ImplCost > 0 {
				cell.ROIRatio = cell.TotalSavings / cell.ImplCost
			}
			out.Cells = append(out.Cells, cell)
		}
	}

	logger.Info("finished", lager.Data{"break_even": out.BreakEven()})
	return out, nil
}

// scenario copies the base scenario with new weights and gates.
func (h *Harness) scenario(w scoring.Weights, g scoring.Gates) model.Scenario {
	sc := h.base
	sc.Strategy.WReadiness = w.Readiness
	sc.Strategy.WROI = w.ROI
	sc.Strategy.WRisk = w.Risk
	sc.Strategy.MinReadinessGate = g.MinReadiness
	sc.Strategy.MaxRiskGate = g.MaxRisk
	return sc
}

func rank(result *scoring.Result) []RankedStep {
	prioritized := result.Prioritized()
	out := make([]RankedStep, 0, len(prioritized))
	for i, s := range prioritized {
		out = append(out, RankedStep{
			Rank:          i + 1,
			StepID:        s.StepID,
			StepName:      s.StepName,
			Priority:      s.Priority,
			AnnualSavings: s.AnnualSavings,
		})
	}
	return out
}
