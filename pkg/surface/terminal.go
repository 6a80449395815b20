package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/roiscope/roiscope/pkg/scoring"
)

// TerminalRenderer renders a Result as a colored run summary.
type TerminalRenderer struct {
	// Top is the number of priorities listed. Zero means 5.
	Top int
}

// palette holds the colors of one render; all are plain under NO_COLOR.
type palette struct {
	bold, dim, green, yellow, red *color.Color
}

func newPalette() palette {
	p := palette{
		bold:   color.New(color.Bold),
		dim:    color.New(color.Faint),
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.bold, p.dim, p.green, p.yellow, p.red} {
		if noColor() {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return p
}

func (p palette) recommendation(rec scoring.Recommendation) *color.Color {
	switch rec {
	case scoring.RecommendFullAutomation, scoring.RecommendHumanInLoop:
		return p.green
	case scoring.RecommendAssisted, scoring.RecommendPhase2:
		return p.yellow
	case scoring.RecommendNotReady, scoring.RecommendHighRisk:
		return p.red
	default:
		return p.dim
	}
}

func (r *TerminalRenderer) Render(w io.Writer, result *scoring.Result) error {
	p := newPalette()
	top := r.Top
	if top <= 0 {
		top = 5
	}

	biz := result.Scenario.Business
	strat := result.Scenario.Strategy

	// Header
	fmt.Fprintf(w, "%s\n\n", p.bold.Sprintf("roiscope: %s (%s) for %s",
		result.ScenarioID, result.ScenarioName, result.CompanyID))

	fmt.Fprintf(w, "Volume: %s tickets/month | Agent cost: %s/hour | Budget: %s\n",
		humanInt(biz.TicketVolumeMonthly), money(biz.AgentCostPerHour), money(biz.ImplementationBudget))
	fmt.Fprintf(w, "Weights: readiness=%.2f roi=%.2f risk=%.2f | Gates: readiness >= %.0f, risk <= %.0f\n\n",
		strat.WReadiness, strat.WROI, strat.WRisk, strat.MinReadinessGate, strat.MaxRiskGate)

	// Top priorities
	prioritized := result.Prioritized()
	if len(prioritized) == 0 {
		fmt.Fprintln(w, "No steps passed the gates.")
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "Top %d automation priorities:\n", min(top, len(prioritized)))
		for i, s := range prioritized {
			if i >= top {
				break
			}
			fmt.Fprintf(w, "  %d. %s %s\n", i+1, p.bold.Sprint(s.StepName), p.dim.Sprintf("(%s)", s.StepID))
			fmt.Fprintf(w, "     Priority: %.0f | Readiness: %.0f | Risk: %.0f\n", s.Priority, s.Readiness, s.Risk)
			fmt.Fprintf(w, "     Annual savings: %s | Payback: %s\n", money(s.AnnualSavings), months(s.PaybackMonths))
			fmt.Fprintf(w, "     → %s\n", p.recommendation(s.Recommendation).Sprint(s.Recommendation))
		}
		fmt.Fprintln(w)
	}

	// Gated out
	if gated := result.Gated(); len(gated) > 0 {
		fmt.Fprintf(w, "Gated out (%d):\n", len(gated))
		for _, s := range gated {
			line := fmt.Sprintf("  %s: %s", s.StepName, p.recommendation(s.Recommendation).Sprint(s.Recommendation))
			if len(s.Defaulted) > 0 {
				line += p.dim.Sprintf(" [no scores: %s]", strings.Join(s.Defaulted, ", "))
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}

	// Totals
	sum := result.Summary
	fmt.Fprintln(w, "Financial summary (prioritized steps only):")
	fmt.Fprintf(w, "  Total annual savings: %s\n", money(sum.TotalAnnualSavings))
	fmt.Fprintf(w, "  Total implementation cost: %s\n", money(sum.TotalImplementationCost))
	if sum.TotalImplementationCost > 0 {
		fmt.Fprintf(w, "  Overall ROI ratio: %.2fx\n", sum.ROIRatio)
		fmt.Fprintf(w, "  Aggregate payback: %s\n", months(sum.AggregatePaybackMonths))
	}

	return nil
}

func humanInt(v float64) string {
	return strings.TrimPrefix(money(v), "$")
}
