// Package publish writes canonical artifacts so that readers only ever see a
// complete previous artifact or a complete new one.
package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"earnings-dedup-go/internal/types"
)

// Artifact is everything a run publishes.
type Artifact struct {
	RunID  string                     `json:"run_id"`
	Report types.Report               `json:"report"`
	Events []types.EventRecord        `json:"events"`
	Rows   []types.CanonicalComponent `json:"components"`
}

type Publisher interface {
	Publish(ctx context.Context, a Artifact) error
	Path() string
}

// ForPath picks a publisher from the target's extension.
func ForPath(path string) (Publisher, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return &JSONPublisher{path: path}, nil
	case ".jsonl", ".ndjson":
		return &JSONLPublisher{path: path}, nil
	case ".xlsx":
		return &XLSXPublisher{path: path}, nil
	case ".db", ".sqlite", ".sqlite3":
		return &SQLitePublisher{path: path}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", ext)
	}
}

// writeAtomic writes to a temp file next to path and renames it into place.
// On any failure the temp file is removed and path is left untouched.
func writeAtomic(path string, write func(w io.Writer) error) error {
	tmp, err := stageFile(path, write)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish %s: %w", path, err)
	}
	return nil
}

// stageFile writes a synced temp file next to path and returns its name.
// The caller owns the file and must rename or remove it.
func stageFile(path string, write func(w io.Writer) error) (name string, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return "", err
	}
	if err = tmp.Sync(); err != nil {
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), nil
}
