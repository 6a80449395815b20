// Package main provides the roiscope CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	rootCmd := &cobra.Command{
		Use:   "roiscope",
		Short: "AI automation readiness and ROI scoring",
		Long: `roiscope scores support process steps for AI-automation readiness,
projects their ROI, and ranks them into a gated priority list per scenario.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Path to config file (default: .roiscope/config.yaml in a parent directory)")
	f.StringVar(&opts.dataDir, "data-dir", "", "Directory holding the input tables")
	f.StringVar(&opts.outputDir, "out-dir", "", "Directory for local outputs")
	f.StringVar(&opts.company, "company", "", "Company ID stamped on outputs")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, error or fatal")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newScenariosCmd(opts),
		newSensitivityCmd(opts),
		newDeriveStepsCmd(),
	)
	return rootCmd
}
