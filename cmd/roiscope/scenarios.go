package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roiscope/roiscope/pkg/scoring"
	"github.com/roiscope/roiscope/pkg/surface"
)

func newScenariosCmd(global *globalOpts) *cobra.Command {
	var compare bool

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the scenarios in the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := global.setup(cmd)
			if err != nil {
				return err
			}
			ds, err := a.loadDataset()
			if err != nil {
				return err
			}

			if !compare {
				return (&surface.ScenarioListRenderer{}).Render(cmd.OutOrStdout(), ds)
			}

			var (
				results []*scoring.Result
				errs    []error
			)
			for _, id := range ds.ScenarioIDs() {
				res, err := a.engine.RunByID(ds, id)
				if err != nil {
					errs = append(errs, fmt.Errorf("scenario %s: %w", id, err))
					continue
				}
				results = append(results, res)
			}
			if len(results) > 0 {
				if err := (&surface.ComparisonRenderer{}).Render(cmd.OutOrStdout(), results); err != nil {
					return fmt.Errorf("rendering comparison: %w", err)
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&compare, "compare", false, "Score every scenario and print a comparison table")

	return cmd
}
