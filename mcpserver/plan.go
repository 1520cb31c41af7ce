package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"riserroute/export"
	"riserroute/planner"
)

// PlanTool handles the plan_routes MCP tool.
type PlanTool struct {
	newPlanner func() *planner.Planner
}

// NewPlanTool creates a PlanTool that builds a fresh planner per call.
func NewPlanTool(newPlanner func() *planner.Planner) *PlanTool {
	return &PlanTool{newPlanner: newPlanner}
}

// Definition returns the MCP tool definition for plan_routes.
func (t *PlanTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_routes",
		mcp.WithDescription(
			"Route building-services connectors (drains, vents, supply, power, data) to risers "+
				"through wall, floor and ceiling cavities. Returns committed routes, failed connectors "+
				"with reason codes, remaining target capacity and a run summary.",
		),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("Input document with domains, connectors, targets, optional prior routes and an optional config block of overrides"),
		),
		mcp.WithString("input_format",
			mcp.Description("Format of the input document: json (default) or yaml"),
			mcp.Enum("json", "yaml"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json (default), yaml or text"),
			mcp.Enum("json", "yaml", "text"),
		),
		mcp.WithBoolean("sanitary",
			mcp.Description("Slope gravity drains and soften offset jogs (default: false)"),
		),
	)
}

// Handle processes the plan_routes tool call.
func (t *PlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := req.GetString("input", "")
	if doc == "" {
		return mcp.NewToolResultError("input is required"), nil
	}
	inFormat, err := export.ParseFormat(req.GetString("input_format", "json"))
	if err != nil || inFormat == export.FormatText {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported input_format %q", req.GetString("input_format", ""))), nil
	}
	outFormat, err := export.ParseFormat(req.GetString("format", "json"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exporter, err := export.NewExporter(outFormat)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in, err := export.DecodeInput([]byte(doc), inFormat)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := t.newPlanner()
	if boolArg(req, "sanitary", false) {
		p.EnableSanitary()
	}
	res, err := p.Plan(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("planning failed: %v", err)), nil
	}

	text, err := exporter.Export(res.Output)
	if err != nil {
		return nil, fmt.Errorf("exporting result: %w", err)
	}
	return mcp.NewToolResultText(text), nil
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}
