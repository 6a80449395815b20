package sensitivity

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"code.cloudfoundry.org/lager/v3"
	"golang.org/x/sync/errgroup"

	"github.com/roiscope/roiscope/pkg/scoring"
)

// TrialParams are the parameters drawn for one Monte Carlo trial.
type TrialParams struct {
	Weights   scoring.Weights `json:"weights"` // renormalized to sum to 1
	Adoption  float64         `json:"automation_adoption_rate"`
	AgentCost float64         `json:"agent_cost_per_hour"`
}

// Trial is the outcome of one Monte Carlo trial.
type Trial struct {
	Params       TrialParams `json:"params"`
	TotalSavings float64     `json:"total_savings"`
	TopStepID    string      `json:"top_step_id,omitempty"` // empty when nothing is prioritized
}

// TopCount is how often a step ranked first.
type TopCount struct {
	StepID   string  `json:"step_id"`
	StepName string  `json:"step_name"`
	Count    int     `json:"count"`
	Share    float64 `json:"share"`
}

// MonteCarloResult is the savings distribution and top-1 frequency table.
type MonteCarloResult struct {
	Trials  int          `json:"trials"`
	Seed    uint64       `json:"seed"`
	Savings Distribution `json:"savings"`
	Top     []TopCount   `json:"top"` // most frequent first
	Runs    []Trial      `json:"-"`
}

// DrawTrials draws every trial's parameters sequentially from one PCG
// source seeded with seed. The draw order per trial is w_readiness, w_roi,
// w_risk, adoption, agent cost.
func DrawTrials(opts MonteCarloOptions) []TrialParams {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	out := make([]TrialParams, opts.Trials)
	for i := range out {
		wr := opts.WReadiness.Sample(rng.Float64())
		wroi := opts.WROI.Sample(rng.Float64())
		wrisk := opts.WRisk.Sample(rng.Float64())
		total := wr + wroi + wrisk
		if total > 0 {
			wr, wroi, wrisk = wr/total, wroi/total, wrisk/total
		}
		out[i] = TrialParams{
			Weights:   scoring.Weights{Readiness: wr, ROI: wroi, Risk: wrisk},
			Adoption:  opts.Adoption.Sample(rng.Float64()),
			AgentCost: opts.AgentCost.Sample(rng.Float64()),
		}
	}
	return out
}

// MonteCarlo resamples weights, adoption rate and agent cost and re-runs the
// pipeline at the sweep gates. Trials are evaluated in parallel; each writes
// only its own slot, so the result depends only on the seed and inputs.
func (h *Harness) MonteCarlo(ctx context.Context) (*MonteCarloResult, error) {
	mc := h.opts.MonteCarlo
	logger := h.logger.Session("monte-carlo", lager.Data{"trials": mc.Trials, "seed": mc.Seed})
	logger.Info("starting")

	params := DrawTrials(mc)
	trials := make([]Trial, len(params))

	g, gctx := errgroup.WithContext(ctx)
	if mc.Workers > 0 {
		g.SetLimit(mc.Workers)
	}
	for i, p := range params {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sc := h.scenario(p.Weights, h.opts.SweepGates)
			sc.Business.AutomationAdoptionRate = p.Adoption
			sc.Business.AgentCostPerHour = p.AgentCost

			result, err := h.engine.Run(h.ds, sc)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			t := Trial{Params: p, TotalSavings: result.Summary.TotalAnnualSavings}
			if top := result.Prioritized(); len(top) > 0 {
				t.TopStepID = top[0].StepID
			}
			trials[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("failed", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	savings := make([]float64, len(trials))
	counts := make(map[string]int)
	for i, t := range trials {
		savings[i] = t.TotalSavings
		if t.TopStepID != "" {
			counts[t.TopStepID]++
		}
	}

	out := &MonteCarloResult{
		Trials:  len(trials),
		Seed:    mc.Seed,
		Savings: Describe(savings),
		Runs:    trials,
	}
	for id, n := range counts {
		out.Top = append(out.Top, TopCount{
			StepID:   id,
			StepName: h.names[id],
			Count:    n,
			Share:    float64(n) / float64(len(trials)),
		})
	}
	sort.Slice(out.Top, func(i, j int) bool {
		if out.Top[i].Count != out.Top[j].Count {
			return out.Top[i].Count > out.Top[j].Count
		}
		return out.Top[i].StepID < out.Top[j].StepID
	})

	logger.Info("finished", lager.Data{"mean_savings": out.Savings.Mean})
	return out, nil
}
