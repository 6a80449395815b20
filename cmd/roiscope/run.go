package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roiscope/roiscope/internal/batch"
	"github.com/roiscope/roiscope/pkg/scoring"
	"github.com/roiscope/roiscope/pkg/surface"
)

func newRunCmd(global *globalOpts) *cobra.Command {
	var (
		scenarioID string
		all        bool
		outputFmt  string
		dryRun     bool
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Score one scenario or all scenarios",
		Long: `Scores every process step under a scenario, writes ModelOutput_<scenario>.csv
and a run manifest to the configured store, and prints a summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if scenarioID == "" && !all {
				return fmt.Errorf("specify --scenario or --all (see 'roiscope scenarios')")
			}
			if scenarioID != "" && all {
				return fmt.Errorf("--scenario and --all are mutually exclusive")
			}
			renderer, err := surface.ForFormat(outputFmt)
			if err != nil {
				return err
			}
			a, err := global.setup(cmd)
			if err != nil {
				return err
			}
			return runScenarios(cmd.Context(), a, runOpts{
				scenarioID: scenarioID,
				all:        all,
				dryRun:     dryRun,
				workers:    workers,
				renderer:   renderer,
				compare:    all && (outputFmt == "" || outputFmt == "text" || outputFmt == "terminal"),
				out:        cmd.OutOrStdout(),
				status:     cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringVar(&scenarioID, "scenario", "", "Scenario ID to run (e.g. SCN_BASE)")
	cmd.Flags().BoolVar(&all, "all", false, "Run every scenario")
	cmd.Flags().StringVar(&outputFmt, "format", "text", "Output format: text, json, csv or markdown")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Score without writing outputs")
	cmd.Flags().IntVar(&workers, "workers", 0, "Maximum scenarios scored in parallel (0: unbounded)")

	return cmd
}

type runOpts struct {
	scenarioID string
	all        bool
	dryRun     bool
	workers    int
	renderer   surface.Renderer
	compare    bool
	out        io.Writer
	status     io.Writer
}

func runScenarios(ctx context.Context, a *app, opts runOpts) error {
	ds, err := a.loadDataset()
	if err != nil {
		return err
	}

	var (
		results []*scoring.Result
		runErr  error
	)
	if opts.dryRun {
		ids := []string{opts.scenarioID}
		if opts.all {
			ids = ds.ScenarioIDs()
		}
		var errs []error
		for _, id := range ids {
			res, err := a.engine.RunByID(ds, id)
			if err != nil {
				errs = append(errs, fmt.Errorf("scenario %s: %w", id, err))
				continue
			}
			results = append(results, res)
		}
		runErr = errors.Join(errs...)
	} else {
		store, err := a.store(ctx)
		if err != nil {
			return err
		}
		svc := batch.NewService(a.logger, store, a.engine, batch.Options{Workers: opts.workers})

		var run *batch.Run
		if opts.all {
			run, runErr = svc.RunAll(ctx, ds)
		} else {
			run, runErr = svc.RunScenario(ctx, ds, opts.scenarioID)
		}
		if run == nil {
			return runErr
		}
		results = run.Results
		for _, s := range run.Manifest.Scenarios {
			if s.Status == batch.StatusCompleted {
				fmt.Fprintf(opts.status, "Saved: %s\n", s.Output)
			}
		}
	}

	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(opts.out)
		}
		if err := opts.renderer.Render(opts.out, res); err != nil {
			return fmt.Errorf("rendering %s: %w", res.ScenarioID, err)
		}
	}
	if opts.compare && len(results) > 1 {
		fmt.Fprintln(opts.out)
		if err := (&surface.ComparisonRenderer{}).Render(opts.out, results); err != nil {
			return fmt.Errorf("rendering comparison: %w", err)
		}
	}
	return runErr
}
