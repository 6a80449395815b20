package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roiscope/roiscope/pkg/prep"
)

func newDeriveStepsCmd() *cobra.Command {
	var (
		ticketsPath string
		outPath     string
	)

	cmd := &cobra.Command{
		Use:   "derive-steps",
		Short: "Derive ProcessSteps.csv from a support-ticket export",
		RunE: func(cmd *cobra.Command, args []string) error {
			tickets, err := prep.ReadTicketsFile(ticketsPath)
			if err != nil {
				return err
			}
			steps := prep.DeriveSteps(tickets, nil)

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating output: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := prep.WriteSteps(w, steps); err != nil {
				return fmt.Errorf("writing steps: %w", err)
			}
			if outPath != "" && outPath != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Derived %d steps from %d tickets: %s\n", len(steps), len(tickets), outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ticketsPath, "tickets", "", "Path to the ticket export CSV (required)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output path (default: stdout)")
	_ = cmd.MarkFlagRequired("tickets")

	return cmd
}
