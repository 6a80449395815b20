package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/roiscope/roiscope/pkg/sensitivity"
)

// SensitivityRenderer renders a sensitivity Report as plain-text tables.
type SensitivityRenderer struct{}

func (r *SensitivityRenderer) Render(w io.Writer, report *sensitivity.Report) error {
	p := newPalette()
	fmt.Fprintf(w, "%s\n\n", p.bold.Sprintf("Sensitivity analysis: %s", report.ScenarioID))

	if report.Weights != nil {
		renderWeightSweep(w, p, report.Weights)
	}
	if report.Gates != nil {
		renderGateSweep(w, p, report.Gates)
	}
	if report.Costs != nil {
		renderCostSweep(w, p, report.Costs)
	}
	if report.MonteCarlo != nil {
		renderMonteCarlo(w, p, report.MonteCarlo)
	}
	return nil
}

func renderWeightSweep(w io.Writer, p palette, ws *sensitivity.WeightSweep) {
	fmt.Fprintln(w, p.bold.Sprint("1. Weight sensitivity"))
	fmt.Fprintf(w, "Gates: readiness >= %.0f, risk <= %.0f\n\n", ws.Gates.MinReadiness, ws.Gates.MaxRisk)

	for _, sr := range ws.Rankings {
		fmt.Fprintf(w, "%s (%.0f/%.0f/%.0f):\n", sr.Scheme.Name,
			sr.Scheme.Weights.Readiness*100, sr.Scheme.Weights.ROI*100, sr.Scheme.Weights.Risk*100)
		top := sr.Top(5)
		if len(top) == 0 {
			fmt.Fprintln(w, "  (nothing prioritized)")
		}
		for _, rs := range top {
			fmt.Fprintf(w, "  %d. %s (%.1f)\n", rs.Rank, rs.StepName, rs.Priority)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Rank stability:")
	var stable, sensitive, sometimes, always []string
	for _, s := range ws.Stability {
		switch {
		case s.AlwaysGated():
			always = append(always, s.StepName)
		case s.Stable():
			stable = append(stable, fmt.Sprintf("%s (ranks %d-%d)", s.StepName, s.MinRank, s.MaxRank))
		case s.Sensitive():
			sensitive = append(sensitive, fmt.Sprintf("%s (ranks %d-%d)", s.StepName, s.MinRank, s.MaxRank))
		}
		if s.SometimesGated() {
			sometimes = append(sometimes, fmt.Sprintf("%s (gated %d/%d)", s.StepName, s.TimesGated, s.Schemes))
		}
	}
	stabilityLine(w, p.green.Sprint("Stable"), stable)
	stabilityLine(w, p.yellow.Sprint("Sensitive"), sensitive)
	stabilityLine(w, p.yellow.Sprint("Sometimes gated"), sometimes)
	stabilityLine(w, p.red.Sprint("Always gated"), always)
	fmt.Fprintln(w)
}

func stabilityLine(w io.Writer, label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s: %s\n", label, strings.Join(names, ", "))
}

func renderGateSweep(w io.Writer, p palette, gs *sensitivity.GateSweep) {
	fmt.Fprintln(w, p.bold.Sprint("2. Gate sensitivity"))
	fmt.Fprintf(w, "Weights: %.2f/%.2f/%.2f\n\n", gs.Weights.Readiness, gs.Weights.ROI, gs.Weights.Risk)

	gateMatrix(w, "Prioritized steps (rows: min readiness, cols: max risk)", gs, func(c sensitivity.GateCell) string {
		return fmt.Sprintf("%d", c.Prioritized)
	})
	gateMatrix(w, "Potential annual savings", gs, func(c sensitivity.GateCell) string {
		return kilo(c.PotentialSavings)
	})
}

func gateMatrix(w io.Writer, title string, gs *sensitivity.GateSweep, cell func(sensitivity.GateCell) string) {
	fmt.Fprintf(w, "%s:\n", title)
	fmt.Fprintf(w, "%8s", "")
	for _, k := range gs.RiskGates {
		fmt.Fprintf(w, "%8.0f", k)
	}
	fmt.Fprintln(w)
	for _, r := range gs.ReadinessGates {
		fmt.Fprintf(w, "%8.0f", r)
		for _, k := range gs.RiskGates {
			c, _ := gs.Cell(r, k)
			fmt.Fprintf(w, "%8s", cell(c))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func renderCostSweep(w io.Writer, p palette, cs *sensitivity.CostSweep) {
	fmt.Fprintln(w, p.bold.Sprint("3. Cost sensitivity"))
	fmt.Fprintf(w, "Base implementation cost: %s per step\n\n", money(cs.BaseImplementationCost))

	fmt.Fprintln(w, "ROI ratio (rows: agent $/hr, cols: impl cost multiplier):")
	fmt.Fprintf(w, "%8s", "")
	for _, m := range cs.ImplMultipliers {
		fmt.Fprintf(w, "%8s", fmt.Sprintf("%gx", m))
	}
	fmt.Fprintln(w)
	for i, cost := range cs.AgentCosts {
		fmt.Fprintf(w, "%8s", money(cost))
		for j := range cs.ImplMultipliers {
			k := i*len(cs.ImplMultipliers) + j
			if k >= len(cs.Cells) {
				break
			}
			fmt.Fprintf(w, "%8s", fmt.Sprintf("%.2fx", cs.Cells[k].ROIRatio))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Break-even (ROI >= 1): %d of %d combinations\n", cs.BreakEven(), len(cs.Cells))
	if below := cs.BelowBreakEven(); len(below) > 0 {
		fmt.Fprintln(w, p.red.Sprint("Below break-even:"))
		for _, c := range below {
			fmt.Fprintf(w, "  %s/hr at %gx: %.2fx\n", money(c.AgentCost), c.ImplMultiplier, c.ROIRatio)
		}
	}
	fmt.Fprintln(w)
}

func renderMonteCarlo(w io.Writer, p palette, mc *sensitivity.MonteCarloResult) {
	fmt.Fprintln(w, p.bold.Sprint("4. Monte Carlo"))
	fmt.Fprintf(w, "%d trials, seed %d\n\n", mc.Trials, mc.Seed)

	d := mc.Savings
	fmt.Fprintln(w, "Total annual savings:")
	fmt.Fprintf(w, "  Mean:    %s\n", money(d.Mean))
	fmt.Fprintf(w, "  Median:  %s\n", money(d.Median))
	fmt.Fprintf(w, "  Std dev: %s\n", money(d.StdDev))
	fmt.Fprintf(w, "  P5-P95:  %s - %s\n", money(d.P5), money(d.P95))
	fmt.Fprintf(w, "  Range:   %s - %s\n\n", money(d.Min), money(d.Max))

	fmt.Fprintln(w, "Top priority frequency:")
	for _, tc := range mc.Top {
		fmt.Fprintf(w, "  %s: %d (%.1f%%)\n", tc.StepName, tc.Count, tc.Share*100)
	}
}
