package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Input file names inside a data directory.
const (
	FileProcessSteps   = "ProcessSteps.csv"
	FileScoringMetrics = "ScoringMetrics.csv"
	FileStepScores     = "StepScores.csv"
	FileBusinessParams = "BusinessParams.csv"
	FileStrategyParams = "StrategyParams.csv"
)

// Required columns per table. Loading fails if any is absent.
var (
	RequiredStepColumns     = []string{"step_id", "step_name", "volume_share", "avg_handle_time_min", "automation_candidate"}
	RequiredMetricColumns   = []string{"metric_id", "dimension", "metric_name", "weight", "direction"}
	RequiredScoreColumns    = []string{"step_id", "metric_id", "score"}
	RequiredBusinessColumns = []string{"scenario_id", "ticket_volume_monthly", "agent_cost_per_hour", "implementation_budget"}
	RequiredStrategyColumns = []string{"scenario_id", "w_readiness", "w_roi", "w_risk", "min_readiness_gate", "max_risk_gate"}
)

// LoadDataset reads and validates all five tables from dir. It either
// returns every table or an error; there is no partial load.
func LoadDataset(dir string) (*Dataset, error) {
	ds := &Dataset{}
	var err error

	if ds.Steps, err = LoadSteps(filepath.Join(dir, FileProcessSteps)); err != nil {
		return nil, err
	}
	if ds.Metrics, err = LoadMetrics(filepath.Join(dir, FileScoringMetrics)); err != nil {
		return nil, err
	}
	if ds.Scores, err = LoadScores(filepath.Join(dir, FileStepScores)); err != nil {
		return nil, err
	}
	if ds.Business, err = LoadBusinessParams(filepath.Join(dir, FileBusinessParams)); err != nil {
		return nil, err
	}
	if ds.Strategy, err = LoadStrategyParams(filepath.Join(dir, FileStrategyParams)); err != nil {
		return nil, err
	}

	if err := ValidateDataset(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// LoadSteps reads the ProcessSteps table.
func LoadSteps(path string) ([]ProcessStep, error) {
	t, err := readTable(path, TableProcessSteps, RequiredStepColumns)
	if err != nil {
		return nil, err
	}
	steps := make([]ProcessStep, 0, len(t.rows))
	for i := range t.rows {
		var s ProcessStep
		s.ID = t.str(i, "step_id")
		s.Name = t.str(i, "step_name")
		s.ProcessArea = t.str(i, "process_area")
		s.AutomationCandidate = ParseAutomationCandidate(t.str(i, "automation_candidate"))
		if s.VolumeShare, err = t.float(i, "volume_share"); err != nil {
			return nil, err
		}
		if s.AvgHandleTimeMin, err = t.float(i, "avg_handle_time_min"); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

// LoadMetrics reads the ScoringMetrics table. Directions must be
// HigherBetter or HigherWorse, compared case-insensitively.
func LoadMetrics(path string) ([]ScoringMetric, error) {
	t, err := readTable(path, TableScoringMetrics, RequiredMetricColumns)
	if err != nil {
		return nil, err
	}
	metrics := make([]ScoringMetric, 0, len(t.rows))
	for i := range t.rows {
		var m ScoringMetric
		m.ID = t.str(i, "metric_id")
		m.Dimension = t.str(i, "dimension")
		m.Name = t.str(i, "metric_name")
		if m.Weight, err = t.float(i, "weight"); err != nil {
			return nil, err
		}
		raw := t.str(i, "direction")
		dir, ok := ParseDirection(raw)
		if !ok {
			return nil, t.invalid(i, fmt.Sprintf("column direction: %q is not HigherBetter or HigherWorse", raw), nil)
		}
		m.Direction = dir
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// LoadScores reads the sparse StepScores table.
func LoadScores(path string) ([]StepScore, error) {
	t, err := readTable(path, TableStepScores, RequiredScoreColumns)
	if err != nil {
		return nil, err
	}
	scores := make([]StepScore, 0, len(t.rows))
	for i := range t.rows {
		var s StepScore
		s.StepID = t.str(i, "step_id")
		s.MetricID = t.str(i, "metric_id")
		if s.Score, err = t.float(i, "score"); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, nil
}

// LoadBusinessParams reads the BusinessParams table, filling optional
// columns with their defaults when absent or blank.
func LoadBusinessParams(path string) ([]BusinessParams, error) {
	t, err := readTable(path, TableBusinessParams, RequiredBusinessColumns)
	if err != nil {
		return nil, err
	}
	out := make([]BusinessParams, 0, len(t.rows))
	for i := range t.rows {
		b := BusinessParams{
			ScenarioID:   t.str(i, "scenario_id"),
			ScenarioName: t.strOr(i, "scenario_name", DefaultScenarioName),
		}
		fields := []struct {
			col string
			dst *float64
			def *float64
		}{
			{"ticket_volume_monthly", &b.TicketVolumeMonthly, nil},
			{"agent_cost_per_hour", &b.AgentCostPerHour, nil},
			{"implementation_budget", &b.ImplementationBudget, nil},
			{"overhead_multiplier", &b.OverheadMultiplier, ptr(DefaultOverheadMultiplier)},
			{"peak_multiplier", &b.PeakMultiplier, ptr(DefaultPeakMultiplier)},
			{"base_implementation_cost", &b.BaseImplementationCost, ptr(DefaultBaseImplementationCost)},
			{"automation_adoption_rate", &b.AutomationAdoptionRate, ptr(DefaultAutomationAdoptionRate)},
		}
		for _, f := range fields {
			if err := t.fill(i, f.col, f.dst, f.def); err != nil {
				return nil, err
			}
		}
		out = append(out, b)
	}
	return out, nil
}

// LoadStrategyParams reads the StrategyParams table, filling optional
// columns with their defaults when absent or blank.
func LoadStrategyParams(path string) ([]StrategyParams, error) {
	t, err := readTable(path, TableStrategyParams, RequiredStrategyColumns)
	if err != nil {
		return nil, err
	}
	out := make([]StrategyParams, 0, len(t.rows))
	for i := range t.rows {
		s := StrategyParams{
			ScenarioID:    t.str(i, "scenario_id"),
			ROIPreference: t.strOr(i, "roi_preference", DefaultROIPreference),
		}
		fields := []struct {
			col string
			dst *float64
			def *float64
		}{
			{"w_readiness", &s.WReadiness, nil},
			{"w_roi", &s.WROI, nil},
			{"w_risk", &s.WRisk, nil},
			{"min_readiness_gate", &s.MinReadinessGate, nil},
			{"max_risk_gate", &s.MaxRiskGate, nil},
			{"target_payback_months", &s.TargetPaybackMonths, ptr(DefaultTargetPaybackMonths)},
			{"target_roi_ratio", &s.TargetROIRatio, ptr(DefaultTargetROIRatio)},
		}
		for _, f := range fields {
			if err := t.fill(i, f.col, f.dst, f.def); err != nil {
				return nil, err
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func ptr(v float64) *float64 { return &v }

// table is a parsed CSV file with a header index.
type table struct {
	name   string
	header map[string]int
	rows   [][]string
}

func readTable(path, name string, required []string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Kind: KindMissingInput, Op: "load", Table: name, Message: "missing file: " + path}
		}
		return nil, &Error{Kind: KindMissingInput, Op: "load", Table: name, Message: "opening " + path, Err: err}
	}
	defer f.Close()

	t, err := parseTable(f, name)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &Error{Kind: KindMissingInput, Op: "load", Table: name,
			Message: fmt.Sprintf("%s missing required columns: %v", name, missing)}
	}
	return t, nil
}

func parseTable(r io.Reader, name string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &Error{Kind: KindMissingInput, Op: "load", Table: name, Message: name + " is empty"}
		}
		return nil, &Error{Kind: KindInvalidInput, Op: "load", Table: name, Message: "reading header", Err: err}
	}

	t := &table{name: name, header: make(map[string]int, len(head))}
	for i, col := range head {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		col = strings.TrimSpace(col)
		if _, dup := t.header[col]; !dup {
			t.header[col] = i
		}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &Error{Kind: KindInvalidInput, Op: "load", Table: name, Message: "reading rows", Err: err}
		}
		if isBlank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (t *table) str(i int, col string) string {
	idx, ok := t.header[col]
	if !ok || idx >= len(t.rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.rows[i][idx])
}

func (t *table) strOr(i int, col, def string) string {
	if v := t.str(i, col); v != "" {
		return v
	}
	return def
}

func (t *table) float(i int, col string) (float64, error) {
	raw := t.str(i, col)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, t.invalid(i, fmt.Sprintf("column %s: %q is not a number", col, raw), nil)
	}
	return v, nil
}

// fill parses col into dst. Blank cells of optional columns take def; a nil
// def marks the column required.
func (t *table) fill(i int, col string, dst, def *float64) error {
	if def != nil && t.str(i, col) == "" {
		*dst = *def
		return nil
	}
	v, err := t.float(i, col)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (t *table) invalid(i int, msg string, err error) error {
	return &Error{Kind: KindInvalidInput, Op: "load", Table: t.name, Row: i + 1, Message: msg, Err: err}
}
