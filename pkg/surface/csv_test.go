package surface_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/roiscope/roiscope/pkg/surface"
)

func TestCSVRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&surface.CSVRenderer{}).Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(surface.OutputColumns, ",") {
		t.Errorf("header = %v", rows[0])
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}

	first := rows[1]
	tests := []struct {
		column, want string
	}{
		{"step_id", "S01"},
		{"readiness_score_0_100", "93.75"},
		{"priority_score_0_100", "95.31"},
		{"payback_months", "2.94"},
		{"roi_ratio", "4.08"},
		{"annual_savings_est", "96600"},
		{"scenario_id", "SCN_BASE"},
		{"company_id", "DEMO_CO"},
		{"defaulted", ""},
	}
	for _, tt := range tests {
		if got := first[col[tt.column]]; got != tt.want {
			t.Errorf("%s = %q, want %q", tt.column, got, tt.want)
		}
	}

	last := rows[3]
	if got := last[col["payback_months"]]; got != "inf" {
		t.Errorf("infinite payback = %q, want inf", got)
	}
	if got := last[col["defaulted"]]; got != "Readiness;Suitability;Risk" {
		t.Errorf("defaulted = %q", got)
	}
}

func TestOutputFileName(t *testing.T) {
	if got := surface.OutputFileName("SCN_BASE"); got != "ModelOutput_SCN_BASE.csv" {
		t.Errorf("OutputFileName() = %q", got)
	}
}

func TestJSONRenderer_InfinitePaybackIsNull(t *testing.T) {
	var buf bytes.Buffer
	if err := (&surface.JSONRenderer{}).Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	var decoded struct {
		ScenarioID string `json:"scenario_id"`
		Steps      []struct {
			StepID        string   `json:"step_id"`
			PaybackMonths *float64 `json:"payback_months"`
		} `json:"steps"`
		Summary struct {
			PrioritizedCount int `json:"prioritized_count"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.ScenarioID != "SCN_BASE" {
		t.Errorf("scenario_id = %q", decoded.ScenarioID)
	}
	if decoded.Steps[0].PaybackMonths == nil {
		t.Error("finite payback decoded as null")
	}
	if decoded.Steps[2].PaybackMonths != nil {
		t.Errorf("infinite payback = %v, want null", *decoded.Steps[2].PaybackMonths)
	}
	if decoded.Summary.PrioritizedCount != 1 {
		t.Errorf("prioritized_count = %d, want 1", decoded.Summary.PrioritizedCount)
	}
}

func TestMarkdownRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&surface.MarkdownRenderer{}).Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"## roiscope: SCN_BASE (Baseline)",
		"| Prioritized steps | 1 |",
		"| Annual savings | $96,600 |",
		"| 1 | Password Reset `S01` | 95.3 |",
		"### Gated out",
		":red_circle: **Escalate**",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}
