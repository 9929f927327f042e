// Package agent runs the OpenGPTs tool-calling loop.
//
// The model calls tools through text markup rather than a native function
// calling API. A tool call is a model output of the form
//
//	<tool>search</tool><tool_input>weather in SF
//
// Generation stops at the closing </tool_input> tag, the named tool runs on
// the input, and its output is fed back inside <observation></observation>
// tags on the next generation.
//
// # Architecture
//
// A conversation is a flat list of session.Message values kept in a
// checkpoint.Store. The loop has two working nodes:
//
//   - Generate: collapse the history, prepend the system instruction and ask the model for one output
//   - Invoke: parse the tool call from the last output, run it and append the result
//
// Which node runs next is derived from the last message (see NextNode), so
// nothing but the conversation itself is persisted. Each step loads the
// conversation, computes exactly one message, appends it and saves. A run
// that fails in the middle leaves the last saved state untouched and can be
// continued with Executor.Resume.
//
// # History Collapsing
//
// Before every generation the tool calls and results that follow each human
// message are folded into a single model message (see CollapseHistory). The
// model always sees alternating human and model turns, with its own earlier
// calls and their observations inline.
//
// # Usage
//
//	exec, err := agent.Run(catalog, client, "You are a helpful assistant.", store)
//	if err != nil {
//	    // handle error
//	}
//
//	conv, err := exec.Submit(ctx, "conversation-id", "What's 2+2?", agent.Callbacks{
//	    OnToolCall: func(d agent.Directive) {
//	        fmt.Printf("calling %s\n", d.ToolName)
//	    },
//	})
//
// # Subpackages
//
// agent/terminal: an interactive command-line front end with tool call
// confirmation and configurable verbosity.
package agent
