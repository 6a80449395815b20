package scoring

import (
	"strings"

	"github.com/roiscope/roiscope/pkg/model"
)

// DimensionScorer aggregates raw metric scores into one 0–100 score per step.
type DimensionScorer interface {
	// Key returns the output column name, e.g. "readiness_score_0_100".
	Key() string
	// Score returns a score for every step with at least one matching metric
	// score. Steps without one are absent and must be defaulted by the caller.
	Score(scores []model.StepScore, metrics []model.ScoringMetric) map[string]float64
}

// Normalize maps a raw 1–5 score onto [0,1], clipping out-of-range input.
func Normalize(score float64) float64 {
	return clip((score-ScaleMin)/(ScaleMax-ScaleMin), 0, 1)
}

// Invert flips a normalized value. Invert(Invert(x)) == x.
func Invert(norm float64) float64 {
	return 1 - norm
}

// Dimension scores a "goodness" dimension such as Readiness or Suitability:
// higher output is better, and HigherWorse metrics are inverted.
type Dimension struct {
	Name string
}

func (d Dimension) Key() string { return strings.ToLower(d.Name) + "_score_0_100" }

func (d Dimension) Score(scores []model.StepScore, metrics []model.ScoringMetric) map[string]float64 {
	return weightedScores(scores, metrics, d.Name, func(dir model.Direction) bool {
		return dir == model.HigherWorse
	})
}

// RiskDimension scores the Risk dimension with reversed polarity: higher
// output is riskier, so HigherBetter metrics are inverted and HigherWorse
// metrics pass through.
type RiskDimension struct{}

func (RiskDimension) Key() string { return "risk_score_0_100" }

func (RiskDimension) Score(scores []model.StepScore, metrics []model.ScoringMetric) map[string]float64 {
	return weightedScores(scores, metrics, model.DimensionRisk, func(dir model.Direction) bool {
		return dir == model.HigherBetter
	})
}

// weightedScores computes 100 * Σ(norm·w) / max(Σw, ε) per step over the
// metrics of one dimension.
func weightedScores(scores []model.StepScore, metrics []model.ScoringMetric, dimension string, invert func(model.Direction) bool) map[string]float64 {
	dimMetrics := make(map[string]model.ScoringMetric)
	for _, m := range metrics {
		if m.Dimension == dimension {
			dimMetrics[m.ID] = m
		}
	}

	type acc struct{ weighted, weight float64 }
	sums := make(map[string]*acc)
	for _, s := range scores {
		m, ok := dimMetrics[s.MetricID]
		if !ok {
			continue
		}
		norm := Normalize(s.Score)
		if invert(m.Direction) {
			norm = Invert(norm)
		}
		a, ok := sums[s.StepID]
		if !ok {
			a = &acc{}
			sums[s.StepID] = a
		}
		a.weighted += norm * m.Weight
		a.weight += m.Weight
	}

	out := make(map[string]float64, len(sums))
	for stepID, a := range sums {
		out[stepID] = 100.0 * a.weighted / max(a.weight, weightEpsilon)
	}
	return out
}

// clip constrains v to [lo, hi]. NaN clips to lo.
func clip(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
