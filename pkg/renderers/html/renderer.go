// Package html renders document trees as a standalone HTML page, used as a
// preview of what the PDF renderer prints.
package html

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-iedform/pkg/document"
)

const (
	name         = "html"
	contentType  = "text/html; charset=utf-8"
	rootTemplate = "templates/document.tmpl"
)

type Option func(*config)

type config struct {
	templateFS fs.FS
}

// WithTemplatesFS supplies an alternate template bundle. It must provide
// templates/document.tmpl, the block partials and templates/document.css.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templateFS = files
		}
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

type Renderer struct {
	set        *pongo2.TemplateSet
	stylesheet string

	mu   sync.Mutex
	root *pongo2.Template
}

// New constructs the renderer and checks the bundle can be loaded.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	css, err := fs.ReadFile(cfg.templateFS, StylesheetName)
	if err != nil {
		return nil, fmt.Errorf("html renderer: read stylesheet: %w", err)
	}
	r := &Renderer{
		set:        pongo2.NewSet("iedform-html", pongo2.NewFSLoader(cfg.templateFS)),
		stylesheet: string(css),
	}
	if _, err := r.template(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) Name() string        { return name }
func (r *Renderer) ContentType() string { return contentType }
func (r *Renderer) Extension() string   { return "html" }

// Render executes the page template over doc.
func (r *Renderer) Render(ctx context.Context, doc *document.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("html renderer: document is nil")
	}
	tmpl, err := r.template()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	viewCtx := pongo2.Context{
		"document":   newView(doc),
		"stylesheet": r.stylesheet,
	}
	if err := tmpl.ExecuteWriter(viewCtx, &buf); err != nil {
		return nil, fmt.Errorf("html renderer: execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) template() (*pongo2.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.root != nil {
		return r.root, nil
	}
	tmpl, err := r.set.FromFile(rootTemplate)
	if err != nil {
		return nil, fmt.Errorf("html renderer: load template %q: %w", rootTemplate, err)
	}
	r.root = tmpl
	return tmpl, nil
}
