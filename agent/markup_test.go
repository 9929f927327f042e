package agent

import (
	"testing"

	"github.com/FellowTraveler/opengpts/errors"
)

func TestShouldContinue(t *testing.T) {
	tests := []struct {
		content string
		want    Decision
	}{
		{"<tool>search</tool><tool_input>weather", Continue},
		{"The answer is 42.", End},
		{"<tool>search", End},
		{"", End},
		{"thinking... </tool>", Continue},
	}
	for _, tt := range tests {
		if got := ShouldContinue(tt.content); got != tt.want {
			t.Errorf("ShouldContinue(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Directive
	}{
		{
			name:    "truncated input",
			content: "<tool>search</tool><tool_input>weather today",
			want:    Directive{ToolName: "search", ToolInput: "weather today"},
		},
		{
			name:    "explicit closing marker",
			content: "<tool>calc</tool><tool_input>2+2</tool_input>extra",
			want:    Directive{ToolName: "calc", ToolInput: "2+2"},
		},
		{
			name:    "reasoning before the call",
			content: "I should look this up.\n<tool>search</tool><tool_input>weather in SF",
			want:    Directive{ToolName: "search", ToolInput: "weather in SF"},
		},
		{
			name:    "input kept verbatim",
			content: "<tool>write_file</tool><tool_input>notes.txt\n  indented\n",
			want:    Directive{ToolName: "write_file", ToolInput: "notes.txt\n  indented\n"},
		},
		{
			name:    "empty input",
			content: "<tool>now</tool><tool_input>",
			want:    Directive{ToolName: "now", ToolInput: ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDirective(tt.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseDirectiveMissingMarkers(t *testing.T) {
	for _, content := range []string{
		"The answer is 42.",
		"search</tool><tool_input>x",
		"<tool></tool><tool_input>x",
		"<tool>search</tool> no input tag",
	} {
		_, err := ParseDirective(content)
		if !errors.Is(err, errors.ErrMalformedHistory) {
			t.Errorf("ParseDirective(%q) error = %v, want ErrMalformedHistory", content, err)
		}
	}
}
