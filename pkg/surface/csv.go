package surface

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/roiscope/roiscope/pkg/scoring"
)

// OutputColumns is the column order of the model output table.
var OutputColumns = []string{
	"step_id",
	"step_name",
	"process_area",
	"automation_candidate",
	"volume_share",
	"readiness_score_0_100",
	"suitability_score_0_100",
	"risk_score_0_100",
	"monthly_volume",
	"monthly_manual_cost",
	"effective_shift_rate",
	"monthly_savings_est",
	"annual_savings_est",
	"implementation_cost_est",
	"payback_months",
	"roi_ratio",
	"roi_score_0_100",
	"priority_score_0_100",
	"recommendation",
	"defaulted",
	"scenario_id",
	"company_id",
}

// CSVRenderer writes the model output table: one row per step in rank
// order, numbers rounded to 2 decimals, infinite payback as "inf".
type CSVRenderer struct{}

// OutputFileName returns the output file name for a scenario.
func OutputFileName(scenarioID string) string {
	return "ModelOutput_" + scenarioID + ".csv"
}

func (r *CSVRenderer) Render(w io.Writer, result *scoring.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(OutputColumns); err != nil {
		return err
	}
	for _, s := range result.Steps {
		row := []string{
			s.StepID,
			s.StepName,
			s.ProcessArea,
			s.AutomationCandidate,
			num(s.VolumeShare),
			num(s.Readiness),
			num(s.Suitability),
			num(s.Risk),
			num(s.MonthlyVolume),
			num(s.MonthlyManualCost),
			num(s.EffectiveShiftRate),
			num(s.MonthlySavings),
			num(s.AnnualSavings),
			num(s.ImplementationCost),
			num(float64(s.PaybackMonths)),
			num(s.ROIRatio),
			num(s.ROIScore),
			num(s.Priority),
			string(s.Recommendation),
			strings.Join(s.Defaulted, ";"),
			s.ScenarioID,
			s.CompanyID,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// num rounds to 2 decimals. Infinities render as "inf" / "-inf".
func num(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return ""
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
