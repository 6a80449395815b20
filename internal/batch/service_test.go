package batch_test

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"code.cloudfoundry.org/lager/v3/lagertest"

	"github.com/roiscope/roiscope/internal/batch"
	"github.com/roiscope/roiscope/internal/storage"
	"github.com/roiscope/roiscope/pkg/model"
	"github.com/roiscope/roiscope/pkg/scoring"
	"github.com/roiscope/roiscope/pkg/surface"
)

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func loadFixtures(t *testing.T) *model.Dataset {
	t.Helper()
	ds, err := model.LoadDataset("../../testdata/data")
	if err != nil {
		t.Fatalf("loading dataset: %v", err)
	}
	return ds
}

func newService(t *testing.T, workers int) (*batch.Service, *storage.LocalStore, *lagertest.TestLogger) {
	t.Helper()
	logger := lagertest.NewTestLogger("test")
	store := storage.NewLocalStore(t.TempDir())
	engine := scoring.NewEngine(scoring.Options{CompanyID: "DEMO_CO"})
	svc := batch.NewService(logger, store, engine, batch.Options{
		Workers:  workers,
		Now:      func() time.Time { return fixedTime },
		NewRunID: func() string { return "run-1" },
	})
	return svc, store, logger
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func hasMessage(logger *lagertest.TestLogger, suffix string) bool {
	for _, m := range logger.LogMessages() {
		if strings.HasSuffix(m, suffix) {
			return true
		}
	}
	return false
}

func TestRunScenario(t *testing.T) {
	svc, store, logger := newService(t, 0)
	ds := loadFixtures(t)

	run, err := svc.RunScenario(context.Background(), ds, "SCN_BASE")
	if err != nil {
		t.Fatalf("RunScenario() error: %v", err)
	}
	if len(run.Results) != 1 || run.Results[0].ScenarioID != "SCN_BASE" {
		t.Fatalf("unexpected results: %+v", run.Results)
	}

	rows := readCSV(t, filepath.Join(store.BaseDir, surface.OutputFileName("SCN_BASE")))
	if len(rows) != len(ds.Steps)+1 {
		t.Fatalf("got %d rows, want %d", len(rows), len(ds.Steps)+1)
	}
	if rows[1][0] != "S01" {
		t.Errorf("first ranked step = %s, want S01", rows[1][0])
	}
	if got := rows[1][len(rows[1])-1]; got != "DEMO_CO" {
		t.Errorf("company_id = %q, want DEMO_CO", got)
	}

	m, err := batch.LoadManifest(context.Background(), store, "DEMO_CO", "run-1")
	if err != nil {
		t.Fatalf("LoadManifest() error: %v", err)
	}
	if m.RunID != "run-1" || m.CompanyID != "DEMO_CO" || !m.CreatedAt.Equal(fixedTime) {
		t.Errorf("manifest header = %+v", m)
	}
	if len(m.Scenarios) != 1 || m.Scenarios[0].Status != batch.StatusCompleted {
		t.Fatalf("manifest scenarios = %+v", m.Scenarios)
	}
	if m.Scenarios[0].Summary == nil || m.Scenarios[0].Summary.PrioritizedCount != 3 {
		t.Errorf("manifest summary = %+v", m.Scenarios[0].Summary)
	}

	if !hasMessage(logger, "fallback-shift-rate") {
		t.Error("expected fallback-shift-rate log for the Escalate step")
	}
	if hasMessage(logger, "weights-do-not-sum-to-one") {
		t.Error("unexpected weight warning for normalized weights")
	}
}

func TestRunScenario_Unknown(t *testing.T) {
	svc, _, _ := newService(t, 0)

	run, err := svc.RunScenario(context.Background(), loadFixtures(t), "SCN_NOPE")
	if !errors.Is(err, model.ErrUnknownScenario) {
		t.Fatalf("expected ErrUnknownScenario, got %v", err)
	}
	if len(run.Results) != 0 {
		t.Errorf("expected no results, got %d", len(run.Results))
	}
	if got := run.Manifest.Scenarios[0].Status; got != batch.StatusFailed {
		t.Errorf("status = %s, want %s", got, batch.StatusFailed)
	}
}

func TestRunAll(t *testing.T) {
	for _, workers := range []int{0, 1, 3} {
		svc, store, _ := newService(t, workers)
		ds := loadFixtures(t)

		run, err := svc.RunAll(context.Background(), ds)
		if err != nil {
			t.Fatalf("workers=%d: RunAll() error: %v", workers, err)
		}

		ids := ds.ScenarioIDs()
		if len(run.Results) != len(ids) {
			t.Fatalf("workers=%d: got %d results, want %d", workers, len(run.Results), len(ids))
		}
		for i, id := range ids {
			if run.Results[i].ScenarioID != id {
				t.Errorf("workers=%d: result %d = %s, want %s", workers, i, run.Results[i].ScenarioID, id)
			}
			if _, err := os.Stat(filepath.Join(store.BaseDir, surface.OutputFileName(id))); err != nil {
				t.Errorf("workers=%d: missing output for %s: %v", workers, id, err)
			}
		}
	}
}

func TestRunAll_IsolatesFailures(t *testing.T) {
	svc, store, logger := newService(t, 0)
	ds := loadFixtures(t)
	ds.Business = append(ds.Business, model.BusinessParams{ScenarioID: "SCN_ORPHAN", ScenarioName: "No strategy"})

	run, err := svc.RunAll(context.Background(), ds)
	if !errors.Is(err, model.ErrUnknownScenario) {
		t.Fatalf("expected joined ErrUnknownScenario, got %v", err)
	}
	if len(run.Results) != 3 {
		t.Errorf("got %d results, want the 3 valid scenarios", len(run.Results))
	}
	if _, err := os.Stat(filepath.Join(store.BaseDir, surface.OutputFileName("SCN_ORPHAN"))); !os.IsNotExist(err) {
		t.Error("failed scenario should not be written")
	}

	var failed []string
	for _, s := range run.Manifest.Scenarios {
		if s.Status == batch.StatusFailed {
			failed = append(failed, s.ScenarioID)
		}
	}
	if len(failed) != 1 || failed[0] != "SCN_ORPHAN" {
		t.Errorf("failed scenarios = %v", failed)
	}
	if !hasMessage(logger, "scenario-failed") {
		t.Error("expected scenario-failed log")
	}
}

func TestRunAll_WeightWarning(t *testing.T) {
	svc, _, logger := newService(t, 0)
	ds := loadFixtures(t)
	ds.Strategy[0].WRisk = 0.5

	if _, err := svc.RunScenario(context.Background(), ds, ds.Strategy[0].ScenarioID); err != nil {
		t.Fatalf("RunScenario() error: %v", err)
	}
	if !hasMessage(logger, "weights-do-not-sum-to-one") {
		t.Error("expected weight warning")
	}
}

func TestRunAll_Cancelled(t *testing.T) {
	svc, _, _ := newService(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := svc.RunAll(ctx, loadFixtures(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(run.Results) != 0 {
		t.Errorf("expected no results after cancellation, got %d", len(run.Results))
	}
}

func TestRunAll_NoScenarios(t *testing.T) {
	svc, _, _ := newService(t, 0)
	if _, err := svc.RunAll(context.Background(), &model.Dataset{}); err == nil {
		t.Fatal("expected error for empty dataset")
	}
}
