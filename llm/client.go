package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/session"
)

// CompletionOptions configures a single completion request.
type CompletionOptions struct {
	// StopSequences halt generation at the first occurrence of any of them.
	// The sequence itself is not part of the returned content.
	StopSequences []string
}

// LLMClient is the interface for interacting with a Large Language Model.
// Messages arrive in prompt order; a system message, if present, comes first.
type LLMClient interface {
	Complete(ctx context.Context, messages []session.Message, opts CompletionOptions) (*session.Message, error)
}

// NewClient builds the client named by provider ("anthropic", "openai",
// "gemini", "bedrock"). An empty provider or "mock" yields MockLLMClient.
func NewClient(ctx context.Context, provider, model string) (LLMClient, error) {
	switch provider {
	case "anthropic":
		return NewAnthropicLLMClient(ctx, model)
	case "openai":
		return NewOpenAILLMClient(ctx, model)
	case "gemini":
		return NewGeminiLLMClient(ctx, model)
	case "bedrock":
		return NewBedrockLLMClient(ctx, model)
	case "", "mock":
		return &MockLLMClient{}, nil
	default:
		return nil, errors.New("unknown llm provider %q", provider)
	}
}

// TruncateAtStop cuts content at the earliest occurrence of any stop
// sequence. Providers are asked to stop there already; this keeps the
// contract even when one echoes the sequence back.
func TruncateAtStop(content string, stops []string) string {
	cut := len(content)
	for _, s := range stops {
		if s == "" {
			continue
		}
		if i := strings.Index(content, s); i >= 0 && i < cut {
			cut = i
		}
	}
	return content[:cut]
}

// splitSystem separates the system prompt from the conversational messages.
// The last system message wins.
func splitSystem(messages []session.Message) (string, []session.Message) {
	var system string
	rest := make([]session.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == session.RoleSystem {
			system = m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}

// MockLLMClient is used when no provider is configured. It never requests a
// tool; it parrots the last human message back.
type MockLLMClient struct{}

func (m *MockLLMClient) Complete(ctx context.Context, messages []session.Message, opts CompletionOptions) (*session.Message, error) {
	lastUserMessage := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsHuman() {
			lastUserMessage = messages[i].Content
			break
		}
	}
	out := session.ModelOutput(fmt.Sprintf("I am a mock LLM. You said: '%s'. I cannot use tools yet.", lastUserMessage))
	return &out, nil
}
