package surface_test

import (
	"bytes"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/roiscope/roiscope/pkg/model"
	"github.com/roiscope/roiscope/pkg/scoring"
	"github.com/roiscope/roiscope/pkg/surface"
)

func sampleResult() *scoring.Result {
	steps := []scoring.ScoredStep{
		{
			StepID:              "S01",
			StepName:            "Password Reset",
			ProcessArea:         "Account",
			AutomationCandidate: "Full",
			VolumeShare:         0.25,
			Readiness:           93.75,
			Suitability:         100,
			Risk:                12.5,
			MonthlyVolume:       2500,
			MonthlyManualCost:   14375,
			EffectiveShiftRate:  0.56,
			MonthlySavings:      8050,
			AnnualSavings:       96600,
			ImplementationCost:  23700,
			PaybackMonths:       scoring.Months(23700.0 / 8050.0),
			ROIRatio:            96600.0 / 23700.0,
			ROIScore:            100,
			Priority:            95.3125,
			Recommendation:      scoring.RecommendFullAutomation,
			ScenarioID:          "SCN_BASE",
			CompanyID:           "DEMO_CO",
		},
		{
			StepID:         "S06",
			StepName:       "Refund Dispute",
			Readiness:      18.75,
			Risk:           60,
			PaybackMonths:  scoring.Months(14.2),
			Priority:       0,
			Recommendation: scoring.RecommendNotReady,
			ScenarioID:     "SCN_BASE",
			CompanyID:      "DEMO_CO",
		},
		{
			StepID:         "S08",
			StepName:       "Escalate",
			Readiness:      0,
			Suitability:    0,
			Risk:           100,
			PaybackMonths:  scoring.Months(math.Inf(1)),
			Priority:       0,
			Recommendation: scoring.RecommendNotReady,
			Defaulted:      []string{"Readiness", "Suitability", "Risk"},
			ScenarioID:     "SCN_BASE",
			CompanyID:      "DEMO_CO",
		},
	}
	return &scoring.Result{
		ScenarioID:   "SCN_BASE",
		ScenarioName: "Baseline",
		CompanyID:    "DEMO_CO",
		Scenario: model.Scenario{
			Business: model.BusinessParams{
				ScenarioID:           "SCN_BASE",
				ScenarioName:         "Baseline",
				TicketVolumeMonthly:  10000,
				AgentCostPerHour:     25,
				ImplementationBudget: 150000,
			},
			Strategy: model.StrategyParams{
				ScenarioID:       "SCN_BASE",
				WReadiness:       0.35,
				WROI:             0.45,
				WRisk:            0.20,
				MinReadinessGate: 50,
				MaxRiskGate:      70,
			},
		},
		Steps:   steps,
		Summary: scoring.Summarize(steps),
	}
}

func TestTerminalRenderer_BasicOutput(t *testing.T) {
	// Set NO_COLOR to avoid ANSI codes in test comparison
	t.Setenv("NO_COLOR", "1")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer

	if err := r.Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	output := buf.String()

	for _, want := range []string{
		"roiscope: SCN_BASE (Baseline) for DEMO_CO",
		"Volume: 10,000 tickets/month",
		"Agent cost: $25/hour",
		"Budget: $150,000",
		"Gates: readiness >= 50, risk <= 70",
		"Top 1 automation priorities:",
		"1. Password Reset (S01)",
		"Priority: 95 | Readiness: 94 | Risk: 12",
		"Annual savings: $96,600 | Payback: 2.9 mo",
		string(scoring.RecommendFullAutomation),
		"Gated out (2):",
		"Refund Dispute: " + string(scoring.RecommendNotReady),
		"[no scores: Readiness, Suitability, Risk]",
		"Total annual savings: $96,600",
		"Total implementation cost: $23,700",
		"Overall ROI ratio: 4.08x",
		"Aggregate payback: 2.9 mo",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}

	if strings.Contains(output, "\033[") {
		t.Error("expected no ANSI codes with NO_COLOR set")
	}
}

func TestTerminalRenderer_NothingPrioritized(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	res := sampleResult()
	res.Steps = res.Steps[1:]
	res.Summary = scoring.Summarize(res.Steps)

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, res); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "No steps passed the gates.") {
		t.Errorf("expected empty-priorities message, got:\n%s", output)
	}
	if strings.Contains(output, "Overall ROI ratio") {
		t.Error("ROI ratio should be omitted without implementation cost")
	}
}

func TestTerminalRenderer_TopLimit(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	res := sampleResult()
	extra := res.Steps[0]
	extra.StepID, extra.StepName, extra.Priority = "S02", "Order Status", 86.25
	res.Steps = []scoring.ScoredStep{res.Steps[0], extra}

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{Top: 1}).Render(&buf, res); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if strings.Contains(buf.String(), "Order Status") {
		t.Error("expected only the first priority with Top: 1")
	}
}

func TestTerminalRenderer_WithColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).Render(&buf, sampleResult()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[") {
		t.Error("expected ANSI codes in colored output")
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    any
		wantErr bool
	}{
		{"", &surface.TerminalRenderer{}, false},
		{"text", &surface.TerminalRenderer{}, false},
		{"json", &surface.JSONRenderer{}, false},
		{"csv", &surface.CSVRenderer{}, false},
		{"md", &surface.MarkdownRenderer{}, false},
		{"markdown", &surface.MarkdownRenderer{}, false},
		{"xml", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := surface.ForFormat(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ForFormat(%q) error: %v", tt.format, err)
			}
			if got, want := typeName(r), typeName(tt.want); got != want {
				t.Errorf("ForFormat(%q) = %s, want %s", tt.format, got, want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *surface.TerminalRenderer:
		return "terminal"
	case *surface.JSONRenderer:
		return "json"
	case *surface.CSVRenderer:
		return "csv"
	case *surface.MarkdownRenderer:
		return "markdown"
	default:
		return "unknown"
	}
}
