package llm

import (
	"context"
	"os"
	"strings"

	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/session"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicLLMClient is a client for the Anthropic API.
type AnthropicLLMClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicLLMClient creates a new AnthropicLLMClient.
// It requires the ANTHROPIC_API_KEY environment variable to be set.
func NewAnthropicLLMClient(ctx context.Context, modelName string) (*AnthropicLLMClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &AnthropicLLMClient{
		client: &client,
		model:  modelName,
	}, nil
}

// Complete sends the prompt to the Anthropic Messages API. A trailing
// assistant message acts as a prefill the model continues from.
func (a *AnthropicLLMClient) Complete(ctx context.Context, messages []session.Message, opts CompletionOptions) (*session.Message, error) {
	anthropicMessages, systemPrompt := convertMessagesToAnthropicMessages(messages)

	params := anthropic.MessageNewParams{
		Model:         anthropic.Model(a.model),
		MaxTokens:     4096,
		Messages:      anthropicMessages,
		StopSequences: opts.StopSequences,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to Anthropic")
	}

	return processAnthropicResponse(resp), nil
}

// convertMessagesToAnthropicMessages converts our internal message format to Anthropic's format.
func convertMessagesToAnthropicMessages(messages []session.Message) ([]anthropic.MessageParam, string) {
	systemPrompt, rest := splitSystem(messages)
	var anthropicMessages []anthropic.MessageParam

	for i, msg := range rest {
		content := msg.Content
		switch msg.Role {
		case session.RoleAssistant:
			// The API rejects a final assistant turn ending in whitespace.
			if i == len(rest)-1 {
				content = strings.TrimRight(content, " \t\r\n")
			}
			if content == "" {
				continue
			}
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(content),
			))
		default:
			// Tool results are folded into assistant text before prompting;
			// any stray one is shown to the model as user-side text.
			if content == "" {
				continue
			}
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(content),
			))
		}
	}

	return anthropicMessages, systemPrompt
}

// processAnthropicResponse concatenates the text blocks of a response.
func processAnthropicResponse(resp *anthropic.Message) *session.Message {
	var responseContent strings.Builder
	for _, content := range resp.Content {
		switch c := content.AsAny().(type) {
		case anthropic.TextBlock:
			responseContent.WriteString(c.Text)
		}
	}
	out := session.ModelOutput(responseContent.String())
	return &out
}
