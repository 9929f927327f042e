package checkpoint

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"testing"

	"github.com/FellowTraveler/opengpts/config"
	"github.com/FellowTraveler/opengpts/session"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "checkpoints.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	got, err := s.Load(ctx, "missing")
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing conversation, got %+v", got)
	}

	conv := session.New("conv-1").
		Append(session.Human("What's 2+2?")).
		Append(session.ModelOutput("<tool>calc</tool><tool_input>2+2")).
		Append(session.ToolResult("4", "calc"))
	if err := s.Save(ctx, conv); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil || len(loaded.Messages) != 3 {
		t.Fatalf("unexpected loaded conversation %+v", loaded)
	}
	if loaded.Messages[2].ToolName != "calc" || loaded.Messages[2].Role != session.RoleTool {
		t.Errorf("tool result not preserved: %+v", loaded.Messages[2])
	}
	if !loaded.CreatedAt.Equal(conv.CreatedAt) {
		t.Errorf("created_at changed: %v vs %v", loaded.CreatedAt, conv.CreatedAt)
	}

	// Saving a longer version replaces the old one.
	longer := loaded.Append(session.ModelOutput("The answer is 4."))
	if err := s.Save(ctx, longer); err != nil {
		t.Fatal(err)
	}
	loaded, err = s.Load(ctx, "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Messages) != 4 || loaded.Messages[3].Content != "The answer is 4." {
		t.Errorf("expected replaced conversation, got %+v", loaded.Messages)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	storeContract(t, s)
	if ids := s.List(); len(ids) != 1 || ids[0] != "conv-1" {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	conv := session.New("c").Append(session.Human("hi"))
	if err := s.Save(ctx, conv); err != nil {
		t.Fatal(err)
	}
	conv.Messages[0] = session.Human("changed")

	loaded, _ := s.Load(ctx, "c")
	if loaded.Messages[0].Content != "hi" {
		t.Error("store must not alias the caller's slice")
	}
	if err := s.Save(ctx, &session.Conversation{}); err == nil {
		t.Error("expected error for conversation without id")
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "checkpoints"))
	if err != nil {
		t.Fatal(err)
	}
	storeContract(t, s)

	if err := s.Save(context.Background(), session.New("conv-2")); err != nil {
		t.Fatal(err)
	}
	ids, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "conv-1" || ids[1] != "conv-2" {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestFileStoreRejectsPathIDs(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		if _, err := s.Load(context.Background(), id); err == nil {
			t.Errorf("expected error for id %q", id)
		}
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(openTestDB(t))
	if err != nil {
		t.Fatal(err)
	}
	storeContract(t, s)

	n, err := s.Revisions(context.Background(), "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 revisions, got %d", n)
	}
}

func TestSQLiteStoreMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if _, err := NewSQLiteStore(db); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSQLiteStore(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestOpen(t *testing.T) {
	if s, err := Open(config.Checkpoint{Backend: "memory"}, nil); err != nil {
		t.Fatal(err)
	} else if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("expected MemoryStore, got %T", s)
	}

	if s, err := Open(config.Checkpoint{Backend: "file", Path: t.TempDir()}, nil); err != nil {
		t.Fatal(err)
	} else if _, ok := s.(*FileStore); !ok {
		t.Errorf("expected FileStore, got %T", s)
	}

	if _, err := Open(config.Checkpoint{Backend: "sqlite"}, nil); err == nil {
		t.Error("expected error for sqlite without a database")
	}
	if s, err := Open(config.Checkpoint{Backend: "sqlite"}, openTestDB(t)); err != nil {
		t.Fatal(err)
	} else if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("expected SQLiteStore, got %T", s)
	}

	if _, err := Open(config.Checkpoint{Backend: "etcd"}, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}
