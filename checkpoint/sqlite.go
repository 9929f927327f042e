package checkpoint

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/FellowTraveler/opengpts/session"
	"github.com/google/uuid"
)

// SQLiteStore keeps each conversation as a gzip-compressed JSON snapshot in
// a single row. Every save also records a revision row for auditing.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the schema if needed. The caller owns db and picks
// the driver.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			message_count INTEGER NOT NULL,
			state_gz BLOB NOT NULL
		);

		CREATE TABLE IF NOT EXISTS conversation_revisions (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			saved_at TEXT NOT NULL,
			message_count INTEGER NOT NULL,
			byte_size INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_revisions_conversation
			ON conversation_revisions(conversation_id, saved_at);
	`)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*session.Conversation, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state_gz FROM conversations WHERE id = ?`, id,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	conv, err := decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return conv, nil
}

// Save upserts the snapshot and its revision row in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, conv *session.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("cannot save a conversation without an id")
	}
	blob, err := compress(conv)
	if err != nil {
		return err
	}
	revID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, created_at, updated_at, message_count, state_gz)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			message_count = excluded.message_count,
			state_gz = excluded.state_gz
	`, conv.ID, conv.CreatedAt.UTC().Format(time.RFC3339Nano), now, len(conv.Messages), blob)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversation_revisions (id, conversation_id, saved_at, message_count, byte_size)
		VALUES (?, ?, ?, ?, ?)
	`, revID.String(), conv.ID, now, len(conv.Messages), len(blob))
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Revisions returns how many times a conversation has been saved.
func (s *SQLiteStore) Revisions(ctx context.Context, id string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_revisions WHERE conversation_id = ?`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func compress(conv *session.Conversation) ([]byte, error) {
	raw, err := json.Marshal(conv)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("close gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(blob []byte) (*session.Conversation, error) {
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close()
	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	var conv session.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return &conv, nil
}
