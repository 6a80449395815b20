package scoring_test

import (
	"testing"

	"github.com/roiscope/roiscope/pkg/scoring"
)

func TestPriorityGateEnforcement(t *testing.T) {
	gates := scoring.Gates{MinReadiness: 50, MaxRisk: 70}
	weightSets := []scoring.Weights{
		{Readiness: 0.35, ROI: 0.45, Risk: 0.20},
		{Readiness: 1, ROI: 1, Risk: 1},
		{Readiness: 10, ROI: 0, Risk: 0},
	}
	tests := []struct {
		name            string
		readiness, risk float64
		wantGated       bool
	}{
		{"below readiness gate", 49.99, 10, true},
		{"above risk gate", 90, 70.01, true},
		{"both failing", 0, 100, true},
		{"exactly at gates", 50, 70, false},
		{"comfortably inside", 80, 20, false},
	}
	for _, tt := range tests {
		for _, w := range weightSets {
			got := scoring.PriorityScore(tt.readiness, 100, tt.risk, w, gates)
			if tt.wantGated && got != 0 {
				t.Errorf("%s with %+v: expected 0, got %v", tt.name, w, got)
			}
			if !tt.wantGated && got <= 0 {
				t.Errorf("%s with %+v: expected positive priority, got %v", tt.name, w, got)
			}
		}
	}
}

func TestPriorityScoreBlend(t *testing.T) {
	w := scoring.Weights{Readiness: 0.35, ROI: 0.45, Risk: 0.20}
	got := scoring.PriorityScore(80, 60, 30, w, scoring.Gates{MinReadiness: 50, MaxRisk: 70})
	want := 0.35*80 + 0.45*60 + 0.20*70
	if !approx(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if !approx(w.Sum(), 1) {
		t.Errorf("expected weight sum 1, got %v", w.Sum())
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		priority, readiness, risk float64
		want                      scoring.Recommendation
	}{
		{0, 30, 10, scoring.RecommendNotReady},
		{0, 80, 90, scoring.RecommendHighRisk},
		{85, 90, 20, scoring.RecommendFullAutomation},
		{70, 90, 40, scoring.RecommendHumanInLoop},
		{55, 60, 20, scoring.RecommendAssisted},
		{30, 60, 20, scoring.RecommendPhase2},
		{29.99, 60, 20, scoring.RecommendDefer},
	}
	for _, tt := range tests {
		if got := scoring.Recommend(tt.priority, tt.readiness, tt.risk); got != tt.want {
			t.Errorf("Recommend(%v, %v, %v) = %q, want %q", tt.priority, tt.readiness, tt.risk, got, tt.want)
		}
	}
}
