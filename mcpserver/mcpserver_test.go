package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"riserroute/export"
	"riserroute/planner"
)

const input = `{
  "domains": [{"id": "W1", "kind": "wall", "level": 0, "bounds": [0, 0, 12, 9], "depth": 0.29}],
  "connectors": [
    {"id": "RC1", "system_type": "power", "domain_id": "W1", "position": [2, 1.5], "diameter": 0.05},
    {"id": "AH1", "system_type": "hvac_supply", "domain_id": "W1", "position": [6, 8], "diameter": 0.5}
  ],
  "targets": [{"id": "P1", "domain_id": "W1", "position": [10, 8], "systems": ["power"]}]
}`

func newPlanner() *planner.Planner { return planner.New(nil, nil) }

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestPlanTool_Definition(t *testing.T) {
	def := NewPlanTool(newPlanner).Definition()
	if def.Name != "plan_routes" {
		t.Errorf("Name = %q", def.Name)
	}
	if len(def.InputSchema.Required) != 1 || def.InputSchema.Required[0] != "input" {
		t.Errorf("Required = %v", def.InputSchema.Required)
	}
}

func TestPlanTool_Handle(t *testing.T) {
	tool := NewPlanTool(newPlanner)
	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"input": input}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}

	var out export.Output
	if err := json.Unmarshal([]byte(resultText(res)), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(out.Routes) != 1 || out.Routes[0].ConnectorID != "RC1" {
		t.Errorf("routes = %+v", out.Routes)
	}
	if len(out.Failed) != 1 || out.Failed[0].ConnectorID != "AH1" {
		t.Errorf("failed = %+v", out.Failed)
	}
}

func TestPlanTool_HandleErrors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing input", map[string]interface{}{}, "input is required"},
		{"bad input format", map[string]interface{}{"input": input, "input_format": "text"}, "unsupported input_format"},
		{"bad output format", map[string]interface{}{"input": input, "format": "svg"}, "unknown format"},
		{"malformed document", map[string]interface{}{"input": "{"}, "decode json input"},
		{"duplicate ids", map[string]interface{}{"input": strings.Replace(input, `"AH1"`, `"RC1"`, 1)}, "planning failed"},
	}
	tool := NewPlanTool(newPlanner)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tool.Handle(context.Background(), makeReq(tt.args))
			if err != nil {
				t.Fatalf("Handle returned protocol error: %v", err)
			}
			if !res.IsError || !strings.Contains(resultText(res), tt.want) {
				t.Errorf("result = %v %q, want error containing %q", res.IsError, resultText(res), tt.want)
			}
		})
	}
}

func TestPlanTool_TextFormat(t *testing.T) {
	res, err := NewPlanTool(newPlanner).Handle(context.Background(), makeReq(map[string]interface{}{
		"input": input, "format": "text", "sanitary": true,
	}))
	if err != nil || res.IsError {
		t.Fatalf("Handle: %v %s", err, resultText(res))
	}
	if text := resultText(res); !strings.Contains(text, "Routes committed: 1 of 2 attempted") {
		t.Errorf("text = %q", text)
	}
}

func TestPreviewTool_Handle(t *testing.T) {
	tool := NewPreviewTool(newPlanner)
	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"input": input, "domain": "W1"}))
	if err != nil || res.IsError {
		t.Fatalf("Handle: %v %s", err, resultText(res))
	}
	text := resultText(res)
	for _, want := range []string{"W1 (wall, level 0)", "@", "o", "P"} {
		if !strings.Contains(text, want) {
			t.Errorf("preview missing %q:\n%s", want, text)
		}
	}

	res, _ = tool.Handle(context.Background(), makeReq(map[string]interface{}{"input": input, "domain": "F9"}))
	if !res.IsError {
		t.Error("unknown domain should be a tool error")
	}
}

func TestNew(t *testing.T) {
	if New(newPlanner) == nil {
		t.Fatal("New returned nil")
	}
}
