package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/session"
)

// FileStore keeps one JSON file per conversation under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "could not create checkpoint directory")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Load(ctx context.Context, id string) (*session.Conversation, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read checkpoint file %s", path)
	}

	var conv session.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, errors.Wrapf(err, "could not parse checkpoint file %s", path)
	}
	return &conv, nil
}

// Save writes to a temporary file and renames it over the old one, so a
// crash mid-write never leaves a truncated checkpoint behind.
func (s *FileStore) Save(ctx context.Context, conv *session.Conversation) error {
	if conv == nil {
		return errors.New("cannot save a nil conversation")
	}
	path, err := s.path(conv.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to serialize conversation")
	}

	tmp, err := os.CreateTemp(s.dir, "."+conv.ID+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "could not create temporary checkpoint")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "could not write checkpoint")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "could not write checkpoint")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "could not replace checkpoint %s", path)
	}
	return nil
}

// List returns the ids of every stored conversation.
func (s *FileStore) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "could not list checkpoints in %s", s.dir)
	}
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	return ids, nil
}

func (s *FileStore) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", errors.New("invalid conversation id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}
