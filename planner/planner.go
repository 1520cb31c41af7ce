// Package planner runs the full routing pipeline on a boundary input document.
package planner

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"riserroute/config"
	"riserroute/core"
	"riserroute/export"
	"riserroute/orchestrator"
	"riserroute/preview"
	"riserroute/sanitary"
	"riserroute/spatial"
	"riserroute/validation"
)

// Planner coordinates orchestration, sanitary post-processing and output assembly.
type Planner struct {
	cfg      *config.Config
	log      *slog.Logger
	sanitary bool
}

// New creates a planner. A nil config means config.Defaults().
func New(cfg *config.Config, log *slog.Logger) *Planner {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{cfg: cfg, log: log}
}

// EnableSanitary turns on slope assignment and offset substitution for gravity routes.
func (p *Planner) EnableSanitary() {
	p.sanitary = true
}

// Result is one planning run.
type Result struct {
	Problem orchestrator.Input
	Run     *orchestrator.OrchestrationResult
	// Routes are the final routes, post-processed when sanitary processing is enabled.
	Routes      []core.Route
	Diagnostics []sanitary.Diagnostic
	Output      *export.Output
}

// Plan converts the input, routes it and builds the output document. A config block in the input
// is merged over the planner's configuration for this call only.
func (p *Planner) Plan(ctx context.Context, in *export.Input) (*Result, error) {
	cfg, err := p.cfg.Merge(in.Config)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	problem, err := in.Problem()
	if err != nil {
		return nil, err
	}
	if len(problem.Prior) > 0 {
		byID := make(map[string]*spatial.RoutingDomain, len(problem.Domains))
		for _, d := range problem.Domains {
			byID[d.ID] = d
		}
		if errs := validation.NewRouteValidator(byID).ValidateAll(problem.Prior); len(errs) > 0 {
			return nil, fmt.Errorf("planner: prior %w (%d problems)", errs[0], len(errs))
		}
	}
	run, err := orchestrator.New(cfg.OrchestratorOptions(p.log)).Run(ctx, problem)
	if err != nil {
		return nil, err
	}

	res := &Result{Problem: problem, Run: run, Routes: run.AllRoutes()}
	if p.sanitary {
		proc := sanitary.NewProcessor(cfg.SanitaryOptions(run.Occupancy, p.log))
		res.Routes, res.Diagnostics = proc.Process(res.Routes, run.Domains)
	}
	res.Output = export.NewOutput(run, res.Routes, res.Diagnostics)
	return res, nil
}

// Scene returns the drawable contents of a result.
func (r *Result) Scene() preview.Scene {
	return preview.Scene{
		Domains:    r.Problem.Domains,
		Routes:     r.Routes,
		Connectors: r.Problem.Connectors,
		Targets:    r.Run.Targets,
	}
}
