package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"riserroute/export"
	"riserroute/planner"
	"riserroute/preview"
)

// PreviewTool handles the preview_domain MCP tool.
type PreviewTool struct {
	newPlanner func() *planner.Planner
}

// NewPreviewTool creates a PreviewTool.
func NewPreviewTool(newPlanner func() *planner.Planner) *PreviewTool {
	return &PreviewTool{newPlanner: newPlanner}
}

// Definition returns the MCP tool definition for preview_domain.
func (t *PreviewTool) Definition() mcp.Tool {
	return mcp.NewTool("preview_domain",
		mcp.WithDescription(
			"Plan the routes of an input document and draw one routing domain as a character grid. "+
				"'#' is a non-penetrable obstacle, '+' a penetrable one, 'o' a connector, '@' a target, "+
				"letters are routes by trade.",
		),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("Input document with domains, connectors and targets"),
		),
		mcp.WithString("input_format",
			mcp.Description("Format of the input document: json (default) or yaml"),
			mcp.Enum("json", "yaml"),
		),
		mcp.WithString("domain",
			mcp.Required(),
			mcp.Description("Id of the domain to draw"),
		),
		mcp.WithNumber("cells_per_unit",
			mcp.Description("Character cells per foot (default: 1)"),
		),
	)
}

// Handle processes the preview_domain tool call.
func (t *PreviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain := req.GetString("domain", "")
	if domain == "" {
		return mcp.NewToolResultError("domain is required"), nil
	}
	format, err := export.ParseFormat(req.GetString("input_format", "json"))
	if err != nil || format == export.FormatText {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported input_format %q", req.GetString("input_format", ""))), nil
	}
	in, err := export.DecodeInput([]byte(req.GetString("input", "")), format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.newPlanner().Plan(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("planning failed: %v", err)), nil
	}

	opts := preview.Options{CellsPerUnit: req.GetFloat("cells_per_unit", 1)}
	for _, page := range preview.Pages(res.Scene(), opts) {
		if page.DomainID != domain {
			continue
		}
		var sb strings.Builder
		sb.WriteString("## " + page.Title + "\n\n```\n")
		sb.WriteString(page.Matrix.String())
		sb.WriteString("\n```\n")
		return mcp.NewToolResultText(sb.String()), nil
	}
	return mcp.NewToolResultError(fmt.Sprintf("domain %s not found", domain)), nil
}
