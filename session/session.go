package session

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"      // human input
	RoleAssistant Role = "assistant" // model output
	RoleTool      Role = "tool"      // tool result
	RoleSystem    Role = "system"    // system instruction, never persisted
)

// Message is a single conversation unit. Treat it as immutable once created.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolName records which tool produced a tool result.
	ToolName string `json:"tool_name,omitempty"`
}

func Human(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func ModelOutput(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func ToolResult(content, toolName string) Message {
	return Message{Role: RoleTool, Content: content, ToolName: toolName}
}

func SystemInstruction(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// IsHuman reports whether m is human input.
func (m Message) IsHuman() bool { return m.Role == RoleUser }

// IsModelOutput reports whether m was produced by the model.
func (m Message) IsModelOutput() bool { return m.Role == RoleAssistant }

// Conversation is the ordered, append-only message history of one session.
// It is the unit of checkpointing.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an empty conversation. An empty id gets a fresh one.
func New(id string) *Conversation {
	if id == "" {
		id = NewID()
	}
	now := time.Now().UTC()
	return &Conversation{
		ID:        id,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewID returns a time-ordered conversation id.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Append returns a copy of c with msg added at the end. The receiver is
// left untouched and the copy shares no backing array with it, so a step
// that fails after computing the copy never leaks into the original.
func (c *Conversation) Append(msg Message) *Conversation {
	msgs := make([]Message, len(c.Messages), len(c.Messages)+1)
	copy(msgs, c.Messages)
	return &Conversation{
		ID:        c.ID,
		Messages:  append(msgs, msg),
		CreatedAt: c.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
}

// Last returns the most recent message, if any.
func (c *Conversation) Last() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}
