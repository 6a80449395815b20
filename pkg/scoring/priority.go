package scoring

// Weights are the blend weights of the priority score. They are not
// renormalized, so a sum above 1 can push scores past 100.
type Weights struct {
	Readiness float64 `json:"w_readiness" yaml:"w_readiness"`
	ROI       float64 `json:"w_roi" yaml:"w_roi"`
	Risk      float64 `json:"w_risk" yaml:"w_risk"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 { return w.Readiness + w.ROI + w.Risk }

// Gates are the hard admission thresholds of the priority score.
type Gates struct {
	MinReadiness float64 `json:"min_readiness_gate" yaml:"min_readiness"`
	MaxRisk      float64 `json:"max_risk_gate" yaml:"max_risk"`
}

// Pass reports whether a step is data-ready and acceptably safe.
func (g Gates) Pass(readiness, risk float64) bool {
	return readiness >= g.MinReadiness && risk <= g.MaxRisk
}

// PriorityScore blends readiness, ROI and safety (100 - risk). A step failing
// either gate scores exactly 0 whatever the weights.
func PriorityScore(readiness, roi, risk float64, w Weights, g Gates) float64 {
	if !g.Pass(readiness, risk) {
		return 0
	}
	safety := 100.0 - risk
	return w.Readiness*readiness + w.ROI*roi + w.Risk*safety
}

// Recommendation is the qualitative action label of a scored step.
type Recommendation string

const (
	RecommendNotReady       Recommendation = "NOT READY - Improve data/process standardization first"
	RecommendHighRisk       Recommendation = "HIGH RISK - Keep human-operated, monitor for changes"
	RecommendFullAutomation Recommendation = "PRIORITY 1 - Strong candidate for full automation"
	RecommendHumanInLoop    Recommendation = "PRIORITY 1 - Implement with human-in-loop safeguards"
	RecommendAssisted       Recommendation = "PRIORITY 2 - Good candidate for AI-assisted workflow"
	RecommendPhase2         Recommendation = "PRIORITY 3 - Consider for Phase 2 implementation"
	RecommendDefer          Recommendation = "LOW PRIORITY - Defer or keep manual"
)

// Recommend derives the recommendation; the first matching rule wins.
func Recommend(priority, readiness, risk float64) Recommendation {
	switch {
	case priority == 0 && readiness < 50:
		return RecommendNotReady
	case priority == 0:
		return RecommendHighRisk
	case priority >= 70 && risk < 40:
		return RecommendFullAutomation
	case priority >= 70:
		return RecommendHumanInLoop
	case priority >= 50:
		return RecommendAssisted
	case priority >= 30:
		return RecommendPhase2
	default:
		return RecommendDefer
	}
}
