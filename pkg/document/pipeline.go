package document

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goliatone/go-iedform/pkg/form"
)

// Renderer names registered by the bundled renderers.
const (
	RendererPDF  = "pdf"
	RendererXLSX = "xlsx"
	RendererHTML = "html"
)

var (
	// ErrMissingAttachment is the cause of an approval submitted without a
	// document to merge the cover into.
	ErrMissingAttachment = errors.New("document: attachment is required")
	// ErrNoMerger is the cause of an approval submitted to a pipeline that
	// cannot merge documents.
	ErrNoMerger = errors.New("document: no merger configured")
)

// Pipeline assembles document trees and renders them into artifacts. It only
// reads the forms it is given.
type Pipeline struct {
	assembler   *Assembler
	registry    *Registry
	merger      Merger
	namer       *Namer
	renderer    string
	spreadsheet string
	logger      *zap.Logger
}

// PipelineOption customises a Pipeline.
type PipelineOption func(*Pipeline)

// WithAssembler replaces the default assembler.
func WithAssembler(a *Assembler) PipelineOption {
	return func(p *Pipeline) {
		if a != nil {
			p.assembler = a
		}
	}
}

// WithMerger sets the merger used by Approval.
func WithMerger(m Merger) PipelineOption {
	return func(p *Pipeline) {
		p.merger = m
	}
}

// WithNamer replaces the default filename templates.
func WithNamer(n *Namer) PipelineOption {
	return func(p *Pipeline) {
		if n != nil {
			p.namer = n
		}
	}
}

// WithRenderer selects the renderer for Request and Approval.
func WithRenderer(name string) PipelineOption {
	return func(p *Pipeline) {
		if name != "" {
			p.renderer = name
		}
	}
}

// WithSpreadsheetRenderer selects the renderer for Spreadsheet.
func WithSpreadsheetRenderer(name string) PipelineOption {
	return func(p *Pipeline) {
		if name != "" {
			p.spreadsheet = name
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline wires a pipeline over registry.
func NewPipeline(registry *Registry, opts ...PipelineOption) (*Pipeline, error) {
	if registry == nil {
		return nil, errors.New("document: registry is required")
	}
	p := &Pipeline{
		registry:    registry,
		renderer:    RendererPDF,
		spreadsheet: RendererXLSX,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.assembler == nil {
		p.assembler = NewAssembler()
	}
	if p.namer == nil {
		namer, err := NewNamer("", "")
		if err != nil {
			return nil, err
		}
		p.namer = namer
	}
	return p, nil
}

// Request renders the application request document.
func (p *Pipeline) Request(ctx context.Context, r form.RequestForm, comment string) (*Artifact, error) {
	return p.request(ctx, p.renderer, r, comment)
}

// Spreadsheet renders the application request with the spreadsheet renderer.
func (p *Pipeline) Spreadsheet(ctx context.Context, r form.RequestForm, comment string) (*Artifact, error) {
	return p.request(ctx, p.spreadsheet, r, comment)
}

// RequestAs renders the application request with any registered renderer.
func (p *Pipeline) RequestAs(ctx context.Context, rendererName string, r form.RequestForm, comment string) (*Artifact, error) {
	return p.request(ctx, rendererName, r, comment)
}

func (p *Pipeline) request(ctx context.Context, rendererName string, r form.RequestForm, comment string) (*Artifact, error) {
	renderer, err := p.registry.Get(rendererName)
	if err != nil {
		return nil, &form.AssemblyError{Stage: "render", Err: err}
	}
	doc := p.assembler.Request(r, comment)
	data, err := renderer.Render(ctx, doc)
	if err != nil {
		return nil, &form.AssemblyError{Stage: "render", Err: err}
	}
	name, err := p.namer.Request(r, renderer.Extension())
	if err != nil {
		return nil, &form.AssemblyError{Stage: "filename", Err: err}
	}
	p.logger.Info("request document rendered",
		zap.String("id", doc.Meta.ID),
		zap.String("renderer", rendererName),
		zap.String("name", name),
	)
	return &Artifact{Name: name, ContentType: renderer.ContentType(), DocumentID: doc.Meta.ID, Data: data}, nil
}

// Approval renders the cover for f and merges it ahead of attachment. A
// missing attachment fails before anything is rendered; an attachment that
// is not a valid document fails with a cause matching form.ErrParse.
func (p *Pipeline) Approval(ctx context.Context, f form.ApprovalForm, attachment []byte) (*Artifact, error) {
	if len(attachment) == 0 {
		return nil, &form.AssemblyError{Stage: "attachment", Err: ErrMissingAttachment}
	}
	if p.merger == nil {
		return nil, &form.AssemblyError{Stage: "merge", Err: ErrNoMerger}
	}
	renderer, err := p.registry.Get(p.renderer)
	if err != nil {
		return nil, &form.AssemblyError{Stage: "render", Err: err}
	}

	doc := p.assembler.ApprovalCover(f)
	cover, err := renderer.Render(ctx, doc)
	if err != nil {
		return nil, &form.AssemblyError{Stage: "render", Err: err}
	}
	merged, err := p.merger.Merge(ctx, cover, attachment)
	if err != nil {
		p.logger.Warn("approval merge failed", zap.String("id", doc.Meta.ID), zap.Error(err))
		return nil, &form.AssemblyError{Stage: "merge", Err: err}
	}
	name, err := p.namer.Approval(f, renderer.Extension())
	if err != nil {
		return nil, &form.AssemblyError{Stage: "filename", Err: err}
	}
	p.logger.Info("approval document rendered",
		zap.String("id", doc.Meta.ID),
		zap.String("name", name),
		zap.Int("attachment_bytes", len(attachment)),
	)
	return &Artifact{Name: name, ContentType: renderer.ContentType(), DocumentID: doc.Meta.ID, Data: merged}, nil
}
