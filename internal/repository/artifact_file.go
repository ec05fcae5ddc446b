package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
)

// FileArtifactWriter writes the artifact as a JSON document. The file is
// replaced atomically so readers never observe a partial document.
type FileArtifactWriter struct {
	path   string
	pretty bool
}

var _ domrepo.ArtifactWriter = (*FileArtifactWriter)(nil)

// NewFileArtifactWriter creates a writer for path.
func NewFileArtifactWriter(path string, pretty bool) *FileArtifactWriter {
	return &FileArtifactWriter{path: path, pretty: pretty}
}

// Path returns the destination file.
func (w *FileArtifactWriter) Path() string { return w.path }

func (w *FileArtifactWriter) Write(ctx context.Context, a *models.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		b   []byte
		err error
	)
	if w.pretty {
		b, err = json.MarshalIndent(a, "", "  ")
	} else {
		b, err = json.Marshal(a)
	}
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace %s: %w", w.path, err)
	}
	return nil
}
