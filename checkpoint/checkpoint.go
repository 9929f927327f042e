// Package checkpoint persists conversations between agent steps so a run can
// be paused and resumed.
package checkpoint

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"sync"

	"github.com/FellowTraveler/opengpts/config"
	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/session"
)

// Store loads and saves whole conversations. Save replaces the stored
// conversation atomically: a reader sees either the old or the new one.
type Store interface {
	// Load returns (nil, nil) when the conversation has never been saved.
	Load(ctx context.Context, id string) (*session.Conversation, error)
	Save(ctx context.Context, conv *session.Conversation) error
}

// Open builds the store selected by cfg. db is used by the sqlite backend
// and may be nil otherwise.
func Open(cfg config.Checkpoint, db *sql.DB) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if db == nil {
			return nil, errors.New("sqlite checkpoint backend needs a database")
		}
		return NewSQLiteStore(db)
	case "", "file":
		dir := cfg.Path
		if dir == "" {
			dir = filepath.Join(config.Dir, "checkpoints")
		}
		return NewFileStore(dir)
	default:
		return nil, errors.New("unknown checkpoint backend %q", cfg.Backend)
	}
}

// MemoryStore keeps conversations in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*session.Conversation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]*session.Conversation)}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*session.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[id]
	if !ok {
		return nil, nil
	}
	return clone(conv), nil
}

func (s *MemoryStore) Save(ctx context.Context, conv *session.Conversation) error {
	if conv == nil || conv.ID == "" {
		return errors.New("cannot save a conversation without an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[conv.ID] = clone(conv)
	return nil
}

// List returns the ids of every stored conversation, sorted.
func (s *MemoryStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.convs))
	for id := range s.convs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func clone(c *session.Conversation) *session.Conversation {
	cp := *c
	cp.Messages = make([]session.Message, len(c.Messages))
	copy(cp.Messages, c.Messages)
	return &cp
}
