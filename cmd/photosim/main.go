// Command photosim builds photonic circuit documents and drives the external
// simulation engine over single runs, scans, orthogonal designs and
// coordinate-wise optimizations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/photonic-sim/internal/sweep"
	"github.com/GoSim-25-26J-441/photonic-sim/pkg/logger"
)

var version = "dev"

// cli holds the flags shared by every subcommand
type cli struct {
	configPath string
	logLevel   string
	logFormat  string
	workers    int

	// newEngine builds the engine for a project; tests swap in a fake
	newEngine func(binary string) sweep.Engine
}

func newRootCmd() *cobra.Command {
	c := &cli{
		newEngine: func(binary string) sweep.Engine { return sweep.NewExecEngine(binary) },
	}
	return c.rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "photosim",
		Short:         "Photonic circuit simulation orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("log-level") || cmd.Flags().Changed("log-format") {
				logger.SetDefault(logger.NewWithFormat(c.logFormat, c.logLevel, cmd.ErrOrStderr()))
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "photosim.yaml", "project file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "json", "log format (json, text)")
	root.PersistentFlags().IntVarP(&c.workers, "workers", "w", 0, "concurrent engine runs (overrides the project file)")

	root.AddCommand(
		c.buildCmd(),
		c.simCmd(),
		c.scanCmd(),
		c.oedCmd(),
		c.optimizeCmd(),
		c.reportCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the photosim version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "photosim %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
