// Package mcpserver exposes the route planner as MCP tools over stdio.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"riserroute/planner"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every tool registered. newPlanner is called once per tool call.
func New(newPlanner func() *planner.Planner) *server.MCPServer {
	s := server.NewMCPServer(
		"riserroute",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	planTool := NewPlanTool(newPlanner)
	s.AddTool(planTool.Definition(), planTool.Handle)

	previewTool := NewPreviewTool(newPlanner)
	s.AddTool(previewTool.Definition(), previewTool.Handle)

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = `riserroute plans building-services routes through wall, floor and ceiling cavities.

Call plan_routes with an input document describing routing domains (planar surfaces with
obstacles and a transform to world space), connectors (fixtures and devices, one per route) and
targets (risers or convergence points that accept given system types). Connectors that cannot be
routed are reported with a reason code, never as an error. Routes are committed greedily in trade
priority order, so results are not globally optimal.

Call preview_domain to see one domain as a character grid after planning.`
