package agent

import (
	"testing"

	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/session"
)

func TestCollapseSingleHuman(t *testing.T) {
	in := []session.Message{session.Human("hello")}
	out, err := CollapseHistory(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("expected the human message unchanged, got %+v", out)
	}
}

func TestCollapseEmpty(t *testing.T) {
	out, err := CollapseHistory(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("expected nothing, got %+v", out)
	}
}

func TestCollapsePairsAndFinal(t *testing.T) {
	in := []session.Message{
		session.Human("What's the weather, and 2+2?"),
		session.ModelOutput("<tool>search</tool><tool_input>weather"),
		session.ToolResult("sunny", "search"),
		session.ModelOutput("<tool>calc</tool><tool_input>2+2"),
		session.ToolResult("4", "calc"),
		session.ModelOutput("Sunny, and 4."),
	}
	out, err := CollapseHistory(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out))
	}
	want := "<tool>search</tool><tool_input>weather<observation>sunny</observation>" +
		"<tool>calc</tool><tool_input>2+2<observation>4</observation>" +
		"Sunny, and 4."
	if out[1].Role != session.RoleAssistant || out[1].Content != want {
		t.Errorf("got %q, want %q", out[1].Content, want)
	}
}

func TestCollapseWithoutFinal(t *testing.T) {
	out, err := CollapseHistory([]session.Message{
		session.Human("q"),
		session.ModelOutput("<tool>calc</tool><tool_input>2+2"),
		session.ToolResult("4", "calc"),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "<tool>calc</tool><tool_input>2+2<observation>4</observation>"
	if out[1].Content != want {
		t.Errorf("got %q, want %q", out[1].Content, want)
	}
}

// TestCollapseMultipleTurns checks that each run is paired from its own
// start, not from the start of the whole conversation.
func TestCollapseMultipleTurns(t *testing.T) {
	in := []session.Message{
		session.Human("first"),
		session.ModelOutput("<tool>a</tool><tool_input>1"),
		session.ToolResult("A", "a"),
		session.ModelOutput("done one"),
		session.Human("second"),
		session.ModelOutput("<tool>b</tool><tool_input>2"),
		session.ToolResult("B", "b"),
		session.ModelOutput("done two"),
	}
	out, err := CollapseHistory(in)
	if err != nil {
		t.Fatal(err)
	}
	want := []session.Message{
		session.Human("first"),
		session.ModelOutput("<tool>a</tool><tool_input>1<observation>A</observation>done one"),
		session.Human("second"),
		session.ModelOutput("<tool>b</tool><tool_input>2<observation>B</observation>done two"),
	}
	if len(out) != len(want) {
		t.Fatalf("got %d messages, want %d: %+v", len(out), len(want), out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("message %d: got %+v, want %+v", i, out[i], want[i])
		}
	}
}

func TestCollapseOddScratchpadFails(t *testing.T) {
	tests := map[string][]session.Message{
		"lone action before human": {
			session.Human("q"),
			session.ModelOutput("<tool>calc</tool><tool_input>2+2"),
			session.ModelOutput("<tool>calc</tool><tool_input>3+3"),
			session.Human("next"),
		},
		"lone observation": {
			session.Human("q"),
			session.ToolResult("4", "calc"),
		},
		"three before final": {
			session.ModelOutput("<tool>a</tool><tool_input>"),
			session.ToolResult("x", "a"),
			session.ToolResult("y", "a"),
			session.ModelOutput("end"),
		},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := CollapseHistory(in)
			if !errors.Is(err, errors.ErrMalformedHistory) {
				t.Fatalf("expected ErrMalformedHistory, got %v", err)
			}
			if out != nil {
				t.Errorf("expected no output on failure, got %+v", out)
			}
		})
	}
}

func TestCollapseRejectsMisorderedPair(t *testing.T) {
	_, err := CollapseHistory([]session.Message{
		session.Human("q"),
		session.ToolResult("4", "calc"),
		session.ModelOutput("<tool>calc</tool><tool_input>2+2"),
		session.ModelOutput("final"),
	})
	if !errors.Is(err, errors.ErrMalformedHistory) {
		t.Fatalf("expected ErrMalformedHistory, got %v", err)
	}
}

func TestCollapseIsDeterministic(t *testing.T) {
	in := []session.Message{
		session.Human("q"),
		session.ModelOutput("<tool>calc</tool><tool_input>2+2"),
		session.ToolResult("4", "calc"),
	}
	a, err := CollapseHistory(in)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := CollapseHistory(in)
	if len(a) != len(b) || a[1] != b[1] {
		t.Errorf("collapse not deterministic: %+v vs %+v", a, b)
	}
	if in[1].Content != "<tool>calc</tool><tool_input>2+2" {
		t.Error("input was mutated")
	}
}
