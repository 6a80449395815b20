package surface

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/roiscope/roiscope/pkg/model"
	"github.com/roiscope/roiscope/pkg/scoring"
)

// ScenarioListRenderer lists the scenarios defined in a dataset.
type ScenarioListRenderer struct{}

func (r *ScenarioListRenderer) Render(w io.Writer, ds *model.Dataset) error {
	ids := ds.ScenarioIDs()
	if len(ids) == 0 {
		_, err := fmt.Fprintln(w, "No scenarios defined.")
		return err
	}

	fmt.Fprintln(w, "Available scenarios:")
	for _, b := range ds.Business {
		fmt.Fprintf(w, "\n  %s: %s\n", b.ScenarioID, b.ScenarioName)
		fmt.Fprintf(w, "    Volume: %s tickets/month\n", humanInt(b.TicketVolumeMonthly))
		fmt.Fprintf(w, "    Agent cost: %s/hour\n", money(b.AgentCostPerHour))
		fmt.Fprintf(w, "    Budget: %s\n", money(b.ImplementationBudget))
		s, ok := ds.StrategyFor(b.ScenarioID)
		if !ok {
			fmt.Fprintln(w, "    Strategy: none")
			continue
		}
		fmt.Fprintf(w, "    Weights: readiness=%g, roi=%g, risk=%g\n", s.WReadiness, s.WROI, s.WRisk)
		fmt.Fprintf(w, "    Strategy: %s (gates %g/%g)\n", s.ROIPreference, s.MinReadinessGate, s.MaxRiskGate)
	}
	return nil
}

// ComparisonRenderer prints one summary row per scenario result.
type ComparisonRenderer struct{}

func (r *ComparisonRenderer) Render(w io.Writer, results []*scoring.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tNAME\tPRIORITIZED\tGATED\tANNUAL SAVINGS\tIMPL COST\tROI\tPAYBACK\tTOP STEP")
	for _, res := range results {
		top := "-"
		if p := res.Prioritized(); len(p) > 0 {
			top = p[0].StepName
		}
		s := res.Summary
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%.2fx\t%s\t%s\n",
			res.ScenarioID, res.ScenarioName, s.PrioritizedCount, s.GatedCount,
			kilo(s.TotalAnnualSavings), kilo(s.TotalImplementationCost), s.ROIRatio,
			months(s.AggregatePaybackMonths), top)
	}
	return tw.Flush()
}
