package document

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Renderer lays a document tree out into a binary format.
type Renderer interface {
	Name() string
	ContentType() string
	// Extension is the file extension without the leading dot.
	Extension() string
	Render(ctx context.Context, doc *Document) ([]byte, error)
}

// Merger joins two rendered documents, cover pages first. Inputs that are
// not valid documents yield a *form.ParseError.
type Merger interface {
	Merge(ctx context.Context, cover, body []byte) ([]byte, error)
}

// Artifact is a finished download.
type Artifact struct {
	Name        string
	ContentType string
	DocumentID  string
	Data        []byte
}

// Save writes the artifact into dir and returns the file path.
func (a *Artifact) Save(fs afero.Fs, dir string) (string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("document: create output dir: %w", err)
	}
	path := filepath.Join(dir, a.Name)
	if err := afero.WriteFile(fs, path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("document: write %s: %w", a.Name, err)
	}
	return path, nil
}
