package main

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roiscope/roiscope/internal/storage"
	"github.com/roiscope/roiscope/pkg/sensitivity"
	"github.com/roiscope/roiscope/pkg/surface"
)

func newSensitivityCmd(global *globalOpts) *cobra.Command {
	var (
		baseID    string
		trials    int
		seed      uint64
		workers   int
		outputFmt string
		save      bool
	)

	cmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Analyze how stable the priorities are",
		Long: `Re-runs the scoring pipeline around a base scenario under alternative weight
schemes, a grid of gates, a grid of agent and implementation costs, and a
seeded Monte Carlo resampling of weights, adoption rate and agent cost.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFmt != "text" && outputFmt != "json" {
				return fmt.Errorf("unknown output format %q (want text or json)", outputFmt)
			}
			a, err := global.setup(cmd)
			if err != nil {
				return err
			}

			opts := a.cfg.SensitivityOptions()
			if cmd.Flags().Changed("trials") {
				opts.MonteCarlo.Trials = trials
			}
			if cmd.Flags().Changed("seed") {
				opts.MonteCarlo.Seed = sensitivity.SeedOrDefault(seed)
			}
			if cmd.Flags().Changed("workers") {
				opts.MonteCarlo.Workers = workers
			}
			baseID = firstNonEmpty(baseID, a.cfg.Sensitivity.BaseScenario)

			ds, err := a.loadDataset()
			if err != nil {
				return err
			}
			base, err := ds.Scenario(baseID)
			if err != nil {
				return err
			}

			h, err := sensitivity.NewHarness(a.logger, a.engine, ds, base, opts)
			if err != nil {
				return err
			}
			report, err := h.Run(cmd.Context())
			if err != nil {
				return err
			}

			if save {
				store, err := a.store(cmd.Context())
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := surface.WriteJSON(&buf, report); err != nil {
					return err
				}
				key := storage.RunKey(store, a.cfg.Company, uuid.NewString(), "Sensitivity_"+baseID+".json")
				if err := store.Put(cmd.Context(), key, buf.Bytes(), storage.ContentTypeJSON); err != nil {
					return fmt.Errorf("saving report: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved: %s\n", store.Location(key))
			}

			if outputFmt == "json" {
				return surface.WriteJSON(cmd.OutOrStdout(), report)
			}
			return (&surface.SensitivityRenderer{}).Render(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&baseID, "base", "", "Base scenario ID (default: sensitivity.base_scenario from config)")
	cmd.Flags().IntVar(&trials, "trials", 0, "Monte Carlo trials (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Monte Carlo seed (default from config; 0 selects 42)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel Monte Carlo workers (0: unbounded)")
	cmd.Flags().StringVar(&outputFmt, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&save, "save", false, "Also write the report as JSON to the configured store")

	return cmd
}
