package agent

import (
	"context"

	"github.com/FellowTraveler/opengpts/llm"
	"github.com/FellowTraveler/opengpts/session"
)

// GenerationConfig configures the model call of the generate step.
type GenerationConfig struct {
	// StopMarkers end generation as soon as one would be produced.
	StopMarkers []string
}

// DefaultGenerationConfig stops at the closing tool-input tag, so a tool
// call always ends right after its input.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{StopMarkers: []string{ToolInputClose}}
}

// Generator produces the next model output for a conversation.
type Generator struct {
	client llm.LLMClient
	system session.Message
	config GenerationConfig
}

func NewGenerator(client llm.LLMClient, system session.Message, config GenerationConfig) *Generator {
	return &Generator{client: client, system: system, config: config}
}

// Prompt returns the messages sent to the model: the system instruction
// followed by the collapsed history.
func (g *Generator) Prompt(history []session.Message) ([]session.Message, error) {
	collapsed, err := CollapseHistory(history)
	if err != nil {
		return nil, err
	}
	return append([]session.Message{g.system}, collapsed...), nil
}

// Generate calls the model once. Model errors are returned as they are.
func (g *Generator) Generate(ctx context.Context, history []session.Message) (session.Message, error) {
	prompt, err := g.Prompt(history)
	if err != nil {
		return session.Message{}, err
	}

	out, err := g.client.Complete(ctx, prompt, llm.CompletionOptions{StopSequences: g.config.StopMarkers})
	if err != nil {
		return session.Message{}, err
	}

	return session.ModelOutput(llm.TruncateAtStop(out.Content, g.config.StopMarkers)), nil
}
