package scoring_test

import (
	"math"
	"reflect"
	"slices"
	"testing"

	"github.com/roiscope/roiscope/pkg/model"
	"github.com/roiscope/roiscope/pkg/scoring"
)

func loadFixtures(t *testing.T) *model.Dataset {
	t.Helper()
	ds, err := model.LoadDataset("../../testdata/data")
	if err != nil {
		t.Fatalf("loading dataset: %v", err)
	}
	return ds
}

func stepByID(t *testing.T, r *scoring.Result, id string) scoring.ScoredStep {
	t.Helper()
	for _, s := range r.Steps {
		if s.StepID == id {
			return s
		}
	}
	t.Fatalf("step %s not in result", id)
	return scoring.ScoredStep{}
}

func TestEngineRunWithFixtures(t *testing.T) {
	ds := loadFixtures(t)
	engine := scoring.NewEngine(scoring.Options{CompanyID: "acme"})

	result, err := engine.RunByID(ds, "SCN_BASE")
	if err != nil {
		t.Fatalf("RunByID() error: %v", err)
	}

	if len(result.Steps) != len(ds.Steps) {
		t.Fatalf("expected %d steps, got %d", len(ds.Steps), len(result.Steps))
	}
	if result.ScenarioName != "Baseline" {
		t.Errorf("expected scenario name Baseline, got %q", result.ScenarioName)
	}

	var order []string
	for i, s := range result.Steps {
		order = append(order, s.StepID)
		if s.ScenarioID != "SCN_BASE" || s.CompanyID != "acme" {
			t.Errorf("step %s: unexpected identity %s/%s", s.StepID, s.ScenarioID, s.CompanyID)
		}
		if i > 0 && s.Priority > result.Steps[i-1].Priority {
			t.Errorf("steps not sorted descending at %d", i)
		}
	}
	// Ties keep file order.
	wantOrder := []string{"S01", "S02", "S03", "S04", "S05", "S06", "S07", "S08"}
	if !slices.Equal(order, wantOrder) {
		t.Errorf("expected order %v, got %v", wantOrder, order)
	}

	top := result.Steps[0]
	if !approx(top.Readiness, 93.75) || !approx(top.Risk, 12.5) || !approx(top.Suitability, 100) {
		t.Errorf("S01 dimension scores: readiness=%v suitability=%v risk=%v", top.Readiness, top.Suitability, top.Risk)
	}
	if math.Abs(top.Priority-95.3125) > 1e-9 {
		t.Errorf("expected S01 priority 95.3125, got %v", top.Priority)
	}
	if top.Recommendation != scoring.RecommendFullAutomation {
		t.Errorf("expected full automation for S01, got %q", top.Recommendation)
	}

	if got := len(result.Prioritized()); got != 3 {
		t.Errorf("expected 3 prioritized steps, got %d", got)
	}
	if got := len(result.Gated()); got != 5 {
		t.Errorf("expected 5 gated steps, got %d", got)
	}
}

func TestEngineMissingScoresDefault(t *testing.T) {
	ds := loadFixtures(t)
	result, err := scoring.NewEngine(scoring.Options{}).RunByID(ds, "SCN_BASE")
	if err != nil {
		t.Fatalf("RunByID() error: %v", err)
	}

	s07 := stepByID(t, result, "S07")
	if s07.Risk != scoring.DefaultMissingRisk {
		t.Errorf("expected defaulted risk 100 for S07, got %v", s07.Risk)
	}
	if !slices.Equal(s07.Defaulted, []string{model.DimensionRisk}) {
		t.Errorf("expected only Risk defaulted for S07, got %v", s07.Defaulted)
	}
	if s07.Priority != 0 || s07.Recommendation != scoring.RecommendHighRisk {
		t.Errorf("expected S07 gated as high risk, got %v %q", s07.Priority, s07.Recommendation)
	}

	s08 := stepByID(t, result, "S08")
	if len(s08.Defaulted) != 3 {
		t.Errorf("expected three defaulted dimensions for S08, got %v", s08.Defaulted)
	}
	if !s08.FallbackShiftRate {
		t.Error("expected S08 to use the fallback shift rate")
	}
	if s08.Recommendation != scoring.RecommendNotReady {
		t.Errorf("expected S08 not ready, got %q", s08.Recommendation)
	}
}

func TestEngineGateEnforcement(t *testing.T) {
	ds := loadFixtures(t)
	engine := scoring.NewEngine(scoring.Options{})

	for _, id := range ds.ScenarioIDs() {
		result, err := engine.RunByID(ds, id)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		strat := result.Scenario.Strategy
		for _, s := range result.Steps {
			if (s.Readiness < strat.MinReadinessGate || s.Risk > strat.MaxRiskGate) && s.Priority != 0 {
				t.Errorf("%s/%s: gated step has priority %v", id, s.StepID, s.Priority)
			}
			if s.Readiness < 0 || s.Readiness > 100 || s.Risk < 0 || s.Risk > 100 {
				t.Errorf("%s/%s: scores out of range", id, s.StepID)
			}
		}
	}
}

func TestEngineScenarioIsolation(t *testing.T) {
	ds := loadFixtures(t)

	alone, err := scoring.NewEngine(scoring.Options{}).RunByID(ds, "SCN_BASE")
	if err != nil {
		t.Fatalf("RunByID() error: %v", err)
	}

	engine := scoring.NewEngine(scoring.Options{})
	for _, id := range []string{"SCN_COST", "SCN_CONSERVATIVE"} {
		if _, err := engine.RunByID(ds, id); err != nil {
			t.Fatalf("%s: %v", id, err)
		}
	}
	after, err := engine.RunByID(ds, "SCN_BASE")
	if err != nil {
		t.Fatalf("RunByID() error: %v", err)
	}

	if !reflect.DeepEqual(alone, after) {
		t.Error("SCN_BASE result changed after running other scenarios")
	}
}

func TestEngineUnknownScenario(t *testing.T) {
	ds := loadFixtures(t)
	_, err := scoring.NewEngine(scoring.Options{}).RunByID(ds, "SCN_NOPE")
	if err == nil {
		t.Fatal("expected error for unknown scenario")
	}
	if model.KindOf(err) != model.KindUnknownScenario {
		t.Errorf("expected unknown-scenario error, got %v", err)
	}
}

func TestEngineCustomShiftRates(t *testing.T) {
	ds := loadFixtures(t)
	rates := scoring.ShiftRates{Rates: map[string]float64{"Full": 0.5, "Partial": 0.4, "Assist": 0.2, "Escalate": 0.1}, Fallback: 0.3}

	result, err := scoring.NewEngine(scoring.Options{ShiftRates: rates}).RunByID(ds, "SCN_BASE")
	if err != nil {
		t.Fatalf("RunByID() error: %v", err)
	}
	s08 := stepByID(t, result, "S08")
	if s08.FallbackShiftRate {
		t.Error("S08 should match the configured Escalate rate")
	}
	if !approx(s08.EffectiveShiftRate, 0.08) {
		t.Errorf("expected effective shift rate 0.08, got %v", s08.EffectiveShiftRate)
	}
	s01 := stepByID(t, result, "S01")
	if !approx(s01.EffectiveShiftRate, 0.4) {
		t.Errorf("expected effective shift rate 0.4, got %v", s01.EffectiveShiftRate)
	}
}

func TestSummarize(t *testing.T) {
	steps := []scoring.ScoredStep{
		{Priority: 80, AnnualSavings: 120000, ImplementationCost: 20000},
		{Priority: 55, AnnualSavings: 24000, ImplementationCost: 10000},
		{Priority: 0, AnnualSavings: 50000, ImplementationCost: 5000},
	}
	sum := scoring.Summarize(steps)
	if sum.PrioritizedCount != 2 || sum.GatedCount != 1 || sum.StepCount != 3 {
		t.Errorf("unexpected counts %+v", sum)
	}
	if !approx(sum.TotalAnnualSavings, 144000) || !approx(sum.TotalImplementationCost, 30000) {
		t.Errorf("unexpected totals %+v", sum)
	}
	if !approx(sum.ROIRatio, 4.8) {
		t.Errorf("expected ROI ratio 4.8, got %v", sum.ROIRatio)
	}
	if !approx(float64(sum.AggregatePaybackMonths), 2.5) {
		t.Errorf("expected payback 2.5 months, got %v", sum.AggregatePaybackMonths)
	}

	empty := scoring.Summarize(steps[2:])
	if empty.ROIRatio != 0 || !empty.AggregatePaybackMonths.Infinite() {
		t.Errorf("expected zero ROI and infinite payback with nothing prioritized, got %+v", empty)
	}
}

func TestEngineNegativePriorityIsGated(t *testing.T) {
	ds := loadFixtures(t)
	sc, err := ds.Scenario("SCN_BASE")
	if err != nil {
		t.Fatalf("Scenario() error: %v", err)
	}
	sc.Strategy.WReadiness, sc.Strategy.WROI, sc.Strategy.WRisk = 0, 0, -1

	result, err := scoring.NewEngine(scoring.Options{}).Run(ds, sc)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if s01 := stepByID(t, result, "S01"); s01.Priority >= 0 || !s01.Gated() {
		t.Errorf("expected S01 to pass the gates with a negative priority, got %v", s01.Priority)
	}

	prioritized, gated := result.Prioritized(), result.Gated()
	if len(prioritized) != 0 {
		t.Errorf("expected nothing prioritized, got %d steps", len(prioritized))
	}
	if len(prioritized)+len(gated) != len(result.Steps) {
		t.Errorf("prioritized %d + gated %d do not cover %d steps", len(prioritized), len(gated), len(result.Steps))
	}
	if result.Summary.GatedCount != len(gated) || result.Summary.PrioritizedCount != len(prioritized) {
		t.Errorf("summary counts %+v disagree with the gated list (%d)", result.Summary, len(gated))
	}
}
