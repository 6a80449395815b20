// Package batch runs scoring scenarios and publishes their outputs.
package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"code.cloudfoundry.org/lager/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/roiscope/roiscope/internal/storage"
	"github.com/roiscope/roiscope/pkg/model"
	"github.com/roiscope/roiscope/pkg/scoring"
	"github.com/roiscope/roiscope/pkg/surface"
)

// Scenario run status.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// ManifestName is the key of the run manifest within a run.
const ManifestName = "run.json"

// weightTolerance is how far a weight sum may drift from 1 before warning.
const weightTolerance = 1e-6

// ScenarioRun records the outcome of one scenario within a run.
type ScenarioRun struct {
	ScenarioID string           `json:"scenario_id"`
	Status     string           `json:"status"`
	Output     string           `json:"output,omitempty"`
	Error      string           `json:"error,omitempty"`
	Summary    *scoring.Summary `json:"summary,omitempty"`
}

// Manifest describes one batch run. It is published as run.json.
type Manifest struct {
	RunID     string        `json:"run_id"`
	CompanyID string        `json:"company_id"`
	CreatedAt time.Time     `json:"created_at"`
	Scenarios []ScenarioRun `json:"scenarios"`
}

// Run is the in-memory outcome of a batch: the manifest plus the results of
// the scenarios that completed, in scenario order.
type Run struct {
	Manifest Manifest
	Results  []*scoring.Result
}

// Options configures a Service.
type Options struct {
	// Workers bounds concurrent scenario runs. Zero means unbounded.
	Workers int
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// NewRunID returns a fresh run id. Defaults to a random UUID.
	NewRunID func() string
}

// Service orchestrates scenario runs and result publishing.
type Service struct {
	logger   lager.Logger
	store    storage.Store
	engine   *scoring.Engine
	renderer surface.Renderer
	opts     Options
}

// NewService creates a new batch Service.
func NewService(logger lager.Logger, store storage.Store, engine *scoring.Engine, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	return &Service{
		logger:   logger.Session("batch"),
		store:    store,
		engine:   engine,
		renderer: &surface.CSVRenderer{},
		opts:     opts,
	}
}

// RunScenario scores and publishes a single scenario.
func (s *Service) RunScenario(ctx context.Context, ds *model.Dataset, scenarioID string) (*Run, error) {
	return s.run(ctx, ds, []string{scenarioID})
}

// RunAll scores and publishes every scenario of the dataset. Scenarios run
// in parallel and in isolation: a failing scenario does not stop the others,
// and the failures are returned joined once every scenario has been tried.
func (s *Service) RunAll(ctx context.Context, ds *model.Dataset) (*Run, error) {
	ids := ds.ScenarioIDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("no scenarios defined")
	}
	return s.run(ctx, ds, ids)
}

func (s *Service) run(ctx context.Context, ds *model.Dataset, ids []string) (*Run, error) {
	runID := s.opts.NewRunID()
	logger := s.logger.Session("run", lager.Data{
		"run_id":     runID,
		"company_id": s.engine.CompanyID(),
		"scenarios":  len(ids),
	})
	logger.Info("starting")

	results := make([]*scoring.Result, len(ids))
	records := make([]ScenarioRun, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.Workers > 0 {
		g.SetLimit(s.opts.Workers)
	}
	for i, id := range ids {
		g.Go(func() error {
			records[i] = ScenarioRun{ScenarioID: id}
			if err := gctx.Err(); err != nil {
				errs[i] = err
			} else {
				results[i], records[i].Output, errs[i] = s.scenario(gctx, logger, ds, runID, id)
			}
			if errs[i] != nil {
				records[i].Status = StatusFailed
				records[i].Error = errs[i].Error()
				logger.Error("scenario-failed", errs[i], lager.Data{"scenario_id": id})
				return nil
			}
			records[i].Status = StatusCompleted
			records[i].Summary = &results[i].Summary
			return nil
		})
	}
	_ = g.Wait()

	run := &Run{
		Manifest: Manifest{
			RunID:     runID,
			CompanyID: s.engine.CompanyID(),
			CreatedAt: s.opts.Now().UTC(),
			Scenarios: records,
		},
	}
	for _, r := range results {
		if r != nil {
			run.Results = append(run.Results, r)
		}
	}

	if err := s.writeManifest(ctx, run.Manifest); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)
	if err != nil {
		logger.Error("finished-with-errors", err, lager.Data{"completed": len(run.Results)})
	} else {
		logger.Info("finished", lager.Data{"completed": len(run.Results)})
	}
	return run, err
}

// scenario runs one scenario and publishes its output table, returning the
// output location.
func (s *Service) scenario(ctx context.Context, logger lager.Logger, ds *model.Dataset, runID, id string) (*scoring.Result, string, error) {
	logger = logger.Session("scenario", lager.Data{"scenario_id": id})

	sc, err := ds.Scenario(id)
	if err != nil {
		return nil, "", err
	}
	if sum := sc.Strategy.WeightSum(); math.Abs(sum-1) > weightTolerance {
		logger.Info("weights-do-not-sum-to-one", lager.Data{"weight_sum": sum})
	}

	result, err := s.engine.Run(ds, sc)
	if err != nil {
		return nil, "", fmt.Errorf("scenario %s: %w", id, err)
	}
	for _, step := range result.Steps {
		if step.FallbackShiftRate {
			logger.Info("fallback-shift-rate", lager.Data{
				"step_id":              step.StepID,
				"automation_candidate": step.AutomationCandidate,
				"shift_rate":           s.engine.ShiftRates().Fallback,
			})
		}
		if len(step.Defaulted) > 0 {
			logger.Debug("defaulted-scores", lager.Data{"step_id": step.StepID, "dimensions": step.Defaulted})
		}
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, result); err != nil {
		return nil, "", fmt.Errorf("scenario %s: render: %w", id, err)
	}
	key := storage.RunKey(s.store, s.engine.CompanyID(), runID, surface.OutputFileName(id))
	if err := s.store.Put(ctx, key, buf.Bytes(), storage.ContentTypeCSV); err != nil {
		return nil, "", fmt.Errorf("scenario %s: %w", id, err)
	}

	logger.Info("completed", lager.Data{
		"prioritized": result.Summary.PrioritizedCount,
		"gated":       result.Summary.GatedCount,
	})
	return result, s.store.Location(key), nil
}

func (s *Service) writeManifest(ctx context.Context, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	key := storage.RunKey(s.store, m.CompanyID, m.RunID, ManifestName)
	if err := s.store.Put(ctx, key, data, storage.ContentTypeJSON); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a published run manifest.
func LoadManifest(ctx context.Context, store storage.Store, companyID, runID string) (*Manifest, error) {
	data, err := store.Get(ctx, storage.RunKey(store, companyID, runID, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
