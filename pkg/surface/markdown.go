package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/roiscope/roiscope/pkg/scoring"
)

// MarkdownRenderer produces a Markdown report of a Result, suitable for
// pasting into tickets and pull requests.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, result *scoring.Result) error {
	_, err := io.WriteString(w, buildMarkdownSummary(result))
	return err
}

func buildMarkdownSummary(result *scoring.Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## roiscope: %s (%s)\n\n", result.ScenarioID, result.ScenarioName))

	sum := result.Summary
	sb.WriteString("### Summary\n\n")
	sb.WriteString("| Metric | Value |\n|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Prioritized steps | %d |\n", sum.PrioritizedCount))
	sb.WriteString(fmt.Sprintf("| Gated steps | %d |\n", sum.GatedCount))
	sb.WriteString(fmt.Sprintf("| Annual savings | %s |\n", money(sum.TotalAnnualSavings)))
	sb.WriteString(fmt.Sprintf("| Implementation cost | %s |\n", money(sum.TotalImplementationCost)))
	sb.WriteString(fmt.Sprintf("| ROI ratio | %.2fx |\n", sum.ROIRatio))
	sb.WriteString(fmt.Sprintf("| Aggregate payback | %s |\n", months(sum.AggregatePaybackMonths)))
	sb.WriteString("\n")

	sb.WriteString("### Priorities\n\n")
	prioritized := result.Prioritized()
	if len(prioritized) == 0 {
		sb.WriteString("_No steps passed the gates._\n\n")
	} else {
		sb.WriteString("| # | Step | Priority | Readiness | Risk | Annual savings | Recommendation |\n")
		sb.WriteString("|---|------|----------|-----------|------|----------------|----------------|\n")
		for i, s := range prioritized {
			sb.WriteString(fmt.Sprintf("| %d | %s %s | %.1f | %.1f | %.1f | %s | %s %s |\n",
				i+1, s.StepName, "`"+s.StepID+"`", s.Priority, s.Readiness, s.Risk,
				money(s.AnnualSavings), recommendationIcon(s.Recommendation), s.Recommendation))
		}
		sb.WriteString("\n")
	}

	if gated := result.Gated(); len(gated) > 0 {
		sb.WriteString("### Gated out\n\n")
		for _, s := range gated {
			sb.WriteString(fmt.Sprintf("- %s **%s**: %s\n", recommendationIcon(s.Recommendation), s.StepName, s.Recommendation))
		}
	}

	return sb.String()
}

func recommendationIcon(rec scoring.Recommendation) string {
	switch rec {
	case scoring.RecommendFullAutomation, scoring.RecommendHumanInLoop:
		return ":green_circle:"
	case scoring.RecommendAssisted:
		return ":yellow_circle:"
	case scoring.RecommendPhase2:
		return ":orange_circle:"
	case scoring.RecommendNotReady, scoring.RecommendHighRisk:
		return ":red_circle:"
	default:
		return ":white_circle:"
	}
}
