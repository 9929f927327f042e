package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FellowTraveler/opengpts/config"
	"github.com/FellowTraveler/opengpts/errors"
)

// checkAccess applies the hidden and read-only globs to path.
func checkAccess(fsAccess *config.FilesystemAccess, path string, write bool) error {
	if fsAccess == nil {
		return nil
	}
	hidden, err := isPathRestricted(path, fsAccess.Hidden)
	if err != nil {
		return err
	}
	if hidden {
		return errors.New("access denied: path '%s' is hidden", path)
	}
	if !write {
		return nil
	}
	readOnly, err := isPathRestricted(path, fsAccess.ReadOnly)
	if err != nil {
		return err
	}
	if readOnly {
		return errors.New("access denied: path '%s' is read-only", path)
	}
	return nil
}

// ReadFileTool returns a file's content, or the entries of a directory.
type ReadFileTool struct {
	fsAccess *config.FilesystemAccess
}

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Reads a file and returns its content, or lists a directory. Input: the path."
}

func (t *ReadFileTool) Invoke(ctx context.Context, input string) (string, error) {
	path := strings.TrimSpace(input)
	if path == "" {
		return "", errors.New("missing file path")
	}
	if err := checkAccess(t.fsAccess, path, false); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to stat '%s'", path)
	}
	if info.IsDir() {
		return t.list(path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read file '%s'", path)
	}
	return string(content), nil
}

// list renders one entry per line, directories with a trailing slash.
// Hidden entries are left out.
func (t *ReadFileTool) list(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to list directory '%s'", dir)
	}
	var b strings.Builder
	for _, e := range entries {
		if checkAccess(t.fsAccess, filepath.Join(dir, e.Name()), false) != nil {
			continue
		}
		b.WriteString(e.Name())
		if e.IsDir() {
			b.WriteString("/")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// WriteFileTool replaces a file's content. The model cannot send structured
// arguments, so the path rides on the first line of the input.
type WriteFileTool struct {
	fsAccess *config.FilesystemAccess
}

func (t *WriteFileTool) Name() string { return "write_file" }
func (t *WriteFileTool) Description() string {
	return "Writes content to a file, replacing it entirely and creating missing directories. Input: the file path on the first line, the content on the following lines."
}

func (t *WriteFileTool) Invoke(ctx context.Context, input string) (string, error) {
	path, content, ok := strings.Cut(strings.TrimLeft(input, "\r\n"), "\n")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return "", errors.New("input must be a path line followed by the content")
	}
	if err := checkAccess(t.fsAccess, path, true); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create parent directory of '%s'", path)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write to file '%s'", path)
	}
	lines := strings.Count(content, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		lines++
	}
	return fmt.Sprintf("Wrote %d bytes (%d lines) to %s", len(content), lines, path), nil
}
