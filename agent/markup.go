package agent

import (
	"strings"

	"github.com/FellowTraveler/opengpts/errors"
)

// Markup the model is instructed to emit, and the wrapper used to feed tool
// output back to it. The format is bit-exact:
//
//	<tool>NAME</tool><tool_input>INPUT</tool_input>
//	<observation>TEXT</observation>
const (
	ToolOpen         = "<tool>"
	ToolClose        = "</tool>"
	ToolInputOpen    = "<tool_input>"
	ToolInputClose   = "</tool_input>"
	ObservationOpen  = "<observation>"
	ObservationClose = "</observation>"
)

// Decision is the outcome of ShouldContinue.
type Decision int

const (
	End Decision = iota
	Continue
)

func (d Decision) String() string {
	if d == Continue {
		return "continue"
	}
	return "end"
}

// ShouldContinue reports whether a model output asks for a tool call. A
// closed tool-name tag is the signal: generation stops before
// </tool_input>, so the input tag is never closed.
func ShouldContinue(content string) Decision {
	if strings.Contains(content, ToolClose) {
		return Continue
	}
	return End
}

// Directive is a tool call parsed out of a model output.
type Directive struct {
	ToolName  string
	ToolInput string
}

// ParseDirective extracts the tool call from content. The input runs to the
// end of content unless a </tool_input> happens to be present, in which case
// everything after it is dropped.
func ParseDirective(content string) (Directive, error) {
	toolSection, inputSection, ok := strings.Cut(content, ToolClose)
	if !ok {
		return Directive{}, errors.Wrapf(errors.ErrMalformedHistory, "action has no %s marker", ToolClose)
	}

	i := strings.LastIndex(toolSection, ToolOpen)
	if i < 0 {
		return Directive{}, errors.Wrapf(errors.ErrMalformedHistory, "action has no %s marker", ToolOpen)
	}
	name := strings.TrimSpace(toolSection[i+len(ToolOpen):])
	if name == "" {
		return Directive{}, errors.Wrapf(errors.ErrMalformedHistory, "action names no tool")
	}

	_, input, ok := strings.Cut(inputSection, ToolInputOpen)
	if !ok {
		return Directive{}, errors.Wrapf(errors.ErrMalformedHistory, "action for tool %q has no %s marker", name, ToolInputOpen)
	}
	input, _, _ = strings.Cut(input, ToolInputClose)

	return Directive{ToolName: name, ToolInput: input}, nil
}

// observation wraps tool output the way it is replayed to the model.
func observation(text string) string {
	return ObservationOpen + text + ObservationClose
}
