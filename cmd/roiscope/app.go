package main

import (
	"context"
	"fmt"
	"os"

	"code.cloudfoundry.org/lager/v3"
	"github.com/spf13/cobra"

	"github.com/roiscope/roiscope/internal/logging"
	"github.com/roiscope/roiscope/internal/storage"
	"github.com/roiscope/roiscope/pkg/config"
	"github.com/roiscope/roiscope/pkg/model"
	"github.com/roiscope/roiscope/pkg/scoring"
)

// globalOpts are the persistent flags shared by every command.
type globalOpts struct {
	configPath string
	dataDir    string
	outputDir  string
	company    string
	logLevel   string
}

// app is the wiring shared by the scoring commands.
type app struct {
	cfg    *config.Config
	logger lager.Logger
	engine *scoring.Engine
}

// setup resolves configuration (defaults, file, environment, flags), builds
// the logger and the scoring engine.
func (o *globalOpts) setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.DataDir = firstNonEmpty(o.dataDir, cfg.DataDir)
	cfg.OutputDir = firstNonEmpty(o.outputDir, cfg.OutputDir)
	cfg.Company = firstNonEmpty(o.company, cfg.Company)
	cfg.LogLevel = firstNonEmpty(o.logLevel, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New("roiscope", cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		engine: scoring.NewEngine(scoring.Options{
			ShiftRates: cfg.ShiftRates(),
			CompanyID:  cfg.Company,
		}),
	}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return config.Load(path)
	}
	if wd, err := os.Getwd(); err == nil {
		if found := config.FindConfigFile(wd); found != "" {
			return config.Load(found)
		}
	}
	return config.DefaultConfig(), nil
}

// loadDataset reads the five input tables from the configured data dir.
func (a *app) loadDataset() (*model.Dataset, error) {
	logger := a.logger.Session("loading-dataset", lager.Data{"data_dir": a.cfg.DataDir})
	ds, err := model.LoadDataset(a.cfg.DataDir)
	if err != nil {
		logger.Error("failed", err)
		return nil, err
	}
	logger.Info("loaded", lager.Data{
		"steps":     len(ds.Steps),
		"metrics":   len(ds.Metrics),
		"scores":    len(ds.Scores),
		"scenarios": len(ds.ScenarioIDs()),
	})
	return ds, nil
}

// store opens the configured output store.
func (a *app) store(ctx context.Context) (storage.Store, error) {
	s := a.cfg.Storage
	return storage.New(ctx, storage.Config{
		Backend:   s.Backend,
		Dir:       a.cfg.OutputDir,
		Bucket:    s.Bucket,
		Prefix:    s.Prefix,
		Region:    s.Region,
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
