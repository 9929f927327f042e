package agent

import (
	"context"

	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/session"
	"github.com/FellowTraveler/opengpts/tools"
)

// Invoker runs the tool call found in a model output.
type Invoker struct {
	catalog *tools.Catalog
}

func NewInvoker(catalog *tools.Catalog) *Invoker {
	return &Invoker{catalog: catalog}
}

// Resolve parses msg and looks up the tool it names. A name missing from
// the catalog is fatal: no other tool is tried in its place.
func (iv *Invoker) Resolve(msg session.Message) (Directive, tools.Tool, error) {
	d, err := ParseDirective(msg.Content)
	if err != nil {
		return Directive{}, nil, err
	}
	tool, ok := iv.catalog.Lookup(d.ToolName)
	if !ok {
		return d, nil, errors.Wrapf(errors.ErrUnknownTool, "%q (available: %v)", d.ToolName, iv.catalog.Names())
	}
	return d, tool, nil
}

// Invoke resolves and calls the tool, wrapping its output as a tool result.
// cb may veto the call through ShouldInvokeTool. Tool errors are returned
// as they are.
func (iv *Invoker) Invoke(ctx context.Context, msg session.Message, cb Callbacks) (session.Message, error) {
	d, tool, err := iv.Resolve(msg)
	if err != nil {
		return session.Message{}, err
	}
	if cb.ShouldInvokeTool != nil && !cb.ShouldInvokeTool(d) {
		return session.Message{}, errors.Wrapf(errors.ErrToolDeclined, "%s", d.ToolName)
	}
	if cb.OnToolCall != nil {
		cb.OnToolCall(d)
	}

	out, err := tool.Invoke(ctx, d.ToolInput)
	if err != nil {
		return session.Message{}, err
	}
	return session.ToolResult(out, d.ToolName), nil
}
