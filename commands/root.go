// Package commands implements the riserroute command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"riserroute/config"
	"riserroute/export"
	"riserroute/planner"
)

var (
	configPath string
	verbose    bool
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "riserroute",
		Short: "Route building services through wall and floor cavities",
		Long: `riserroute plans pipe, duct and conduit routes for building services.

Connectors (fixtures and devices) are routed to risers and convergence points
through planar routing domains: wall cavities, floor and ceiling plenums and
shafts. Trades are routed one at a time in priority order, drains first, and
every committed route becomes an obstacle for the routes after it.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	cmd.AddCommand(NewPlanCmd())
	cmd.AddCommand(NewViewCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// Execute runs the root command. An interrupt cancels the running plan.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// setup loads the configuration and builds a logger writing to the command's stderr.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.NewLogger(cmd.ErrOrStderr()), nil
}

// readInput decodes an input document, picking the format from the file extension.
func readInput(path string) (*export.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return export.DecodeInput(data, export.FormatForPath(path))
}

// runPlan plans the routes of one input file.
func runPlan(cmd *cobra.Command, path string, sanitary bool) (*planner.Result, error) {
	cfg, log, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	in, err := readInput(path)
	if err != nil {
		return nil, err
	}
	p := planner.New(cfg, log)
	if sanitary {
		p.EnableSanitary()
	}
	return p.Plan(cmd.Context(), in)
}
