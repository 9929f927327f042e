package agent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/FellowTraveler/opengpts/checkpoint"
	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/llm"
	"github.com/FellowTraveler/opengpts/session"
	"github.com/FellowTraveler/opengpts/tools"
)

// DefaultMaxSteps bounds a single Submit or Resume unless WithMaxSteps says otherwise.
const DefaultMaxSteps = 25

// Node is a state of the agent loop.
type Node string

const (
	NodeGenerate Node = "generate" // entry: ask the model for the next output
	NodeInvoke   Node = "invoke"   // run the tool named by the last output
	NodeEnd      Node = "end"      // final answer reached
)

// NextNode derives where a conversation stands from its last message, so
// the state never needs to be stored beside the conversation.
func NextNode(conv *session.Conversation) Node {
	last, ok := conv.Last()
	if !ok {
		return NodeEnd
	}
	switch last.Role {
	case session.RoleAssistant:
		if ShouldContinue(last.Content) == Continue {
			return NodeInvoke
		}
		return NodeEnd
	default:
		return NodeGenerate
	}
}

// Callbacks observe a run. All fields are optional.
type Callbacks struct {
	OnModelOutput func(msg session.Message)
	OnToolCall    func(d Directive)
	OnToolResult  func(msg session.Message)
	// ShouldInvokeTool can veto a tool call; the run then stops with
	// ErrToolDeclined and the conversation stays resumable.
	ShouldInvokeTool func(d Directive) bool
}

// Executor drives conversations through the generate/invoke loop, saving to
// the checkpoint store after every step.
type Executor struct {
	generator *Generator
	invoker   *Invoker
	store     checkpoint.Store
	log       *slog.Logger
	maxSteps  int

	template string
	genCfg   GenerationConfig

	mu      sync.Mutex
	running map[string]bool
}

// Option customizes an Executor.
type Option func(*Executor)

func WithLogger(log *slog.Logger) Option {
	return func(e *Executor) { e.log = log }
}

// WithMaxSteps bounds the steps a single Submit or Resume may take. Zero
// means unbounded.
func WithMaxSteps(n int) Option {
	return func(e *Executor) { e.maxSteps = n }
}

// WithTemplate replaces DefaultTemplate.
func WithTemplate(template string) Option {
	return func(e *Executor) { e.template = template }
}

func WithGenerationConfig(cfg GenerationConfig) Option {
	return func(e *Executor) { e.genCfg = cfg }
}

// Run wires the catalog, the model and the checkpoint store into an
// executor. The system prompt is assembled once here and prepended to
// every generation; it is never stored in a conversation.
func Run(catalog *tools.Catalog, client llm.LLMClient, systemMessage string, store checkpoint.Store, opts ...Option) (*Executor, error) {
	if catalog == nil || client == nil || store == nil {
		return nil, errors.New("agent needs a tool catalog, a model client and a checkpoint store")
	}
	e := &Executor{
		store:    store,
		log:      slog.Default(),
		genCfg:   DefaultGenerationConfig(),
		running:  make(map[string]bool),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.maxSteps < 0 {
		return nil, errors.New("max steps must not be negative, got %d", e.maxSteps)
	}

	system := AssembleSystemMessage(e.template, systemMessage, catalog)
	e.generator = NewGenerator(client, system, e.genCfg)
	e.invoker = NewInvoker(catalog)
	return e, nil
}

// Conversation loads a conversation for inspection.
func (e *Executor) Conversation(ctx context.Context, id string) (*session.Conversation, error) {
	conv, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load conversation %s", id)
	}
	if conv == nil {
		return nil, errors.Wrapf(errors.ErrConversationNotFound, "%s", id)
	}
	return conv, nil
}

// Submit appends the human input to the conversation, creating it if
// needed, and runs until the model gives a final answer. A conversation
// stopped on a tool call must be resumed instead.
func (e *Executor) Submit(ctx context.Context, id, input string, cb Callbacks) (*session.Conversation, error) {
	if err := e.acquire(id); err != nil {
		return nil, err
	}
	defer e.release(id)

	conv, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load conversation %s", id)
	}
	if conv == nil {
		conv = session.New(id)
	}
	if NextNode(conv) == NodeInvoke {
		return nil, errors.Wrapf(errors.ErrPendingToolCall, "%s", id)
	}
	conv = conv.Append(session.Human(input))
	if err := e.store.Save(ctx, conv); err != nil {
		return nil, errors.Wrapf(err, "failed to save conversation %s", id)
	}
	e.log.Debug("human input appended", "conversation", id, "messages", len(conv.Messages))

	return e.drive(ctx, id, cb)
}

// Resume continues a paused conversation from its last checkpoint.
func (e *Executor) Resume(ctx context.Context, id string, cb Callbacks) (*session.Conversation, error) {
	if err := e.acquire(id); err != nil {
		return nil, err
	}
	defer e.release(id)
	return e.drive(ctx, id, cb)
}

// Step advances a conversation by exactly one node and returns the node
// that comes next. Stepping an ended conversation is a no-op.
func (e *Executor) Step(ctx context.Context, id string, cb Callbacks) (Node, error) {
	if err := e.acquire(id); err != nil {
		return "", err
	}
	defer e.release(id)
	_, next, err := e.step(ctx, id, cb)
	return next, err
}

func (e *Executor) drive(ctx context.Context, id string, cb Callbacks) (*session.Conversation, error) {
	for steps := 0; ; steps++ {
		if e.maxSteps > 0 && steps >= e.maxSteps {
			e.log.Warn("step limit reached", "conversation", id, "steps", steps)
			return nil, errors.Wrapf(errors.ErrStepLimit, "conversation %s after %d steps", id, steps)
		}
		conv, next, err := e.step(ctx, id, cb)
		if err != nil {
			return nil, err
		}
		if next == NodeEnd {
			e.log.Info("conversation finished", "conversation", id, "steps", steps+1, "messages", len(conv.Messages))
			return conv, nil
		}
	}
}

// step loads the conversation, computes one message, appends it and saves.
// Nothing is saved when any part fails.
func (e *Executor) step(ctx context.Context, id string, cb Callbacks) (*session.Conversation, Node, error) {
	conv, err := e.Conversation(ctx, id)
	if err != nil {
		return nil, "", err
	}

	node := NextNode(conv)
	var msg session.Message
	switch node {
	case NodeEnd:
		return conv, NodeEnd, nil
	case NodeGenerate:
		msg, err = e.generator.Generate(ctx, conv.Messages)
	case NodeInvoke:
		last, _ := conv.Last()
		msg, err = e.invoker.Invoke(ctx, last, cb)
	}
	if err != nil {
		return nil, "", err
	}

	conv = conv.Append(msg)
	if err := e.store.Save(ctx, conv); err != nil {
		return nil, "", errors.Wrapf(err, "failed to save conversation %s", id)
	}

	switch {
	case node == NodeGenerate && cb.OnModelOutput != nil:
		cb.OnModelOutput(msg)
	case node == NodeInvoke && cb.OnToolResult != nil:
		cb.OnToolResult(msg)
	}

	next := NextNode(conv)
	e.log.Debug("step complete", "conversation", id, "node", node, "next", next)
	return conv, next, nil
}

// acquire rejects an empty id and a second concurrent run on the same
// conversation.
func (e *Executor) acquire(id string) error {
	if id == "" {
		return errors.New("conversation id must not be empty")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running[id] {
		return errors.Wrapf(errors.ErrConversationBusy, "%s", id)
	}
	e.running[id] = true
	return nil
}

func (e *Executor) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, id)
}
