// Package terminal implements the command-line interaction mode for OpenGPTs.
//
// A Terminal reads lines from an input stream, submits each one to an
// agent.Executor under a single conversation id, and prints the final
// answers. The conversation is checkpointed after every step, so a session
// can be closed and picked up later with the same id.
//
// # Usage
//
//	exec, err := agent.Run(catalog, client, cfg.SystemMessage, store)
//	if err != nil {
//	    // handle error
//	}
//
//	term := terminal.New(exec, "my-conversation", terminal.ModePrompt, terminal.VerbosityInfo, os.Stdin, os.Stdout)
//	err = term.Run(ctx, initialPrompt)
//
// # Commands
//
//   - /quit, /exit: end the session
//   - /resume: continue a conversation stopped on a declined or failed tool call
//   - /history: print the stored messages
//
// # Modes
//
//   - Auto mode: tools run without confirmation
//   - Prompt mode: each tool call is confirmed on the input stream first
//
// # Verbosity Levels
//
//   - None: no tool information is printed
//   - Info: tool names are printed when called
//   - All: tool names, inputs and outputs are printed
package terminal
