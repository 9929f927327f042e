package mcp

import (
	"testing"
)

func TestArgumentsFromInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{"json object", `{"query": "weather", "limit": 3}`, map[string]any{"query": "weather", "limit": float64(3)}},
		{"padded json", "\n {\"q\": \"x\"} ", map[string]any{"q": "x"}},
		{"plain text", "weather today", map[string]any{"input": "weather today"}},
		{"broken json", `{"q": `, map[string]any{"input": `{"q": `}},
		{"json array", `[1, 2]`, map[string]any{"input": `[1, 2]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ArgumentsFromInput(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("key %s: got %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestToolNameIsServerQualified(t *testing.T) {
	tool := &MCPTool{serverName: "gopls", toolName: "definition", description: "Find a definition."}
	if tool.Name() != "gopls.definition" {
		t.Errorf("unexpected name %q", tool.Name())
	}
	c := &MCPClient{tools: map[string]*MCPTool{
		"references": {serverName: "gopls", toolName: "references"},
		"definition": tool,
	}}
	got := c.Tools()
	if len(got) != 2 || got[0].toolName != "definition" || got[1].toolName != "references" {
		t.Errorf("tools not sorted: %v", got)
	}
	if found, ok := c.GetTool("definition"); !ok || found != tool {
		t.Error("GetTool failed")
	}
}
