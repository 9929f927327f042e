package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/FellowTraveler/opengpts/agent"
	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/session"
)

// Mode controls whether tool calls need confirmation.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModePrompt Mode = "prompt"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAuto, ModePrompt:
		return m, nil
	}
	return "", errors.New("invalid mode '%s'. Must be 'auto' or 'prompt'", s)
}

// Verbosity controls how much of each tool call is printed.
type Verbosity string

const (
	VerbosityNone Verbosity = "none"
	VerbosityInfo Verbosity = "info"
	VerbosityAll  Verbosity = "all"
)

// ParseVerbosity validates a verbosity name.
func ParseVerbosity(s string) (Verbosity, error) {
	switch v := Verbosity(s); v {
	case VerbosityNone, VerbosityInfo, VerbosityAll:
		return v, nil
	}
	return "", errors.New("invalid tool verbosity '%s'. Must be 'none', 'info', or 'all'", s)
}

// Terminal handles the terminal/CLI interaction mode for the agent
type Terminal struct {
	exec           *agent.Executor
	conversationID string
	mode           Mode
	verbosity      Verbosity

	in  *bufio.Scanner
	out io.Writer
}

// New creates a Terminal bound to one conversation.
func New(exec *agent.Executor, conversationID string, mode Mode, verbosity Verbosity, in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		exec:           exec,
		conversationID: conversationID,
		mode:           mode,
		verbosity:      verbosity,
		in:             bufio.NewScanner(in),
		out:            out,
	}
}

// Run starts the interactive terminal session
func (t *Terminal) Run(ctx context.Context, initialPrompt string) error {
	if initialPrompt != "" {
		t.report(t.processTurn(ctx, initialPrompt))
	}

	for {
		fmt.Fprint(t.out, "You: ")
		if !t.in.Scan() {
			// EOF or read error ends the session
			fmt.Fprintln(t.out)
			break
		}

		userInput := strings.TrimSpace(t.in.Text())
		switch userInput {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/resume":
			t.Resume(ctx)
		case "/history":
			t.report(t.history(ctx))
		default:
			t.report(t.processTurn(ctx, userInput))
		}
	}

	return t.in.Err()
}

func (t *Terminal) processTurn(ctx context.Context, userInput string) error {
	_, err := t.exec.Submit(ctx, t.conversationID, userInput, t.callbacks())
	return err
}

// Resume continues the conversation from its last checkpoint and prints
// the outcome.
func (t *Terminal) Resume(ctx context.Context) {
	_, err := t.exec.Resume(ctx, t.conversationID, t.callbacks())
	t.report(err)
}

func (t *Terminal) history(ctx context.Context) error {
	conv, err := t.exec.Conversation(ctx, t.conversationID)
	if err != nil {
		return err
	}
	for _, m := range conv.Messages {
		fmt.Fprintf(t.out, "[%s] %s\n", m.Role, m.Content)
	}
	return nil
}

// report prints a turn error with a hint where the conversation can go on.
func (t *Terminal) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrToolDeclined):
		fmt.Fprintln(t.out, "Tool call declined. Type /resume to be asked again.")
	case errors.Is(err, errors.ErrPendingToolCall):
		fmt.Fprintln(t.out, "The last tool call has not run yet. Type /resume to continue.")
	default:
		fmt.Fprintf(t.out, "Error: %v\n", err)
	}
}

func (t *Terminal) callbacks() agent.Callbacks {
	return agent.Callbacks{
		OnModelOutput: func(msg session.Message) {
			if agent.ShouldContinue(msg.Content) == agent.End {
				fmt.Fprintf(t.out, "OpenGPTs: %s\n", msg.Content)
			}
		},
		OnToolCall: func(d agent.Directive) {
			switch t.verbosity {
			case VerbosityAll:
				fmt.Fprintf(t.out, "Calling tool `%s` with input: %s\n", d.ToolName, d.ToolInput)
			case VerbosityInfo:
				fmt.Fprintf(t.out, "Calling tool `%s`\n", d.ToolName)
			}
		},
		OnToolResult: func(msg session.Message) {
			if t.verbosity == VerbosityAll {
				fmt.Fprintf(t.out, "Tool `%s` output: %s\n", msg.ToolName, msg.Content)
			}
		},
		ShouldInvokeTool: func(d agent.Directive) bool {
			if t.mode != ModePrompt {
				return true
			}
			fmt.Fprintf(t.out, "OpenGPTs wants to call tool `%s` with input: %s\n", d.ToolName, d.ToolInput)
			fmt.Fprint(t.out, "Do you want to allow this? (y/n): ")
			if !t.in.Scan() {
				return false
			}
			return strings.TrimSpace(strings.ToLower(t.in.Text())) == "y"
		},
	}
}
