package errors

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// Error kinds surfaced by the agent loop. Match them with Is.
var (
	// ErrMalformedHistory reports a conversation whose action/observation
	// pairing is broken, or an action routed to a tool call without the
	// markup needed to parse it. Retrying does not help.
	ErrMalformedHistory = stderrors.New("malformed history")

	// ErrUnknownTool reports a directive naming a tool that is not in the catalog.
	ErrUnknownTool = stderrors.New("unknown tool")

	// ErrConversationBusy reports a step issued while another step on the
	// same conversation is still running.
	ErrConversationBusy = stderrors.New("conversation busy")

	// ErrConversationNotFound reports a step on a conversation the checkpoint store has never seen.
	ErrConversationNotFound = stderrors.New("conversation not found")

	// ErrStepLimit reports a run that did not reach a final answer within its step budget.
	ErrStepLimit = stderrors.New("step limit reached")

	// ErrToolDeclined reports a tool call that was not approved.
	ErrToolDeclined = stderrors.New("tool call declined")

	// ErrPendingToolCall reports human input sent to a conversation whose
	// last model output still waits for its tool result. Resume it first.
	ErrPendingToolCall = stderrors.New("pending tool call")
)

// New creates a new error with file and line number information.
func New(format string, a ...interface{}) error {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file = "???"
		line = 0
	} else {
		file = filepath.Base(file)
	}
	return fmt.Errorf("[%s:%d] %s", file, line, fmt.Sprintf(format, a...))
}

// Wrapf adds context (including file and line number) to an existing error.
// If the provided error is nil, Wrapf returns nil.
func Wrapf(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file = "???"
		line = 0
	} else {
		file = filepath.Base(file)
	}
	return fmt.Errorf("[%s:%d] %s: %w", file, line, fmt.Sprintf(format, a...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }
