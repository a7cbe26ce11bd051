package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/goliatone/go-iedform/pkg/catalog"
	"github.com/goliatone/go-iedform/pkg/document"
	"github.com/goliatone/go-iedform/pkg/form"
	"github.com/goliatone/go-iedform/pkg/options"
	"github.com/goliatone/go-iedform/pkg/store"
	"github.com/goliatone/go-iedform/pkg/validation"
)

// ApprovalSubmitter turns an approval form and its attachment into a merged
// artifact. *document.Pipeline satisfies it.
type ApprovalSubmitter interface {
	Approval(ctx context.Context, f form.ApprovalForm, attachment []byte) (*document.Artifact, error)
}

// ApprovalRunner drives the homologation request flow.
type ApprovalRunner struct {
	catalog   *catalog.Catalog
	validator *validation.Validator
	session   *store.Session[form.ApprovalForm]
	submitter ApprovalSubmitter
	p         prompter
	cfg       settings
}

// NewApprovalRunner builds an ApprovalRunner persisting drafts on backend.
func NewApprovalRunner(c *catalog.Catalog, backend store.Backend, submitter ApprovalSubmitter, opts ...Option) (*ApprovalRunner, error) {
	if c == nil {
		return nil, errors.New("tui: catalog is required")
	}
	if backend == nil {
		return nil, errors.New("tui: session backend is required")
	}
	if submitter == nil {
		return nil, errors.New("tui: approval submitter is required")
	}
	cfg := applyOptions(opts)
	return &ApprovalRunner{
		catalog:   c,
		validator: validation.New(c),
		session:   store.NewSession[form.ApprovalForm](backend, store.ApprovalKey),
		submitter: submitter,
		p:         prompter{driver: cfg.driver, theme: cfg.theme},
		cfg:       cfg,
	}, nil
}

// Run asks for the approval fields until they validate, then merges the cover
// with the attachment read from attachmentPath and saves the result.
func (a *ApprovalRunner) Run(ctx context.Context, attachmentPath string) (*document.Artifact, string, error) {
	attachment, err := afero.ReadFile(a.cfg.fs, attachmentPath)
	if err != nil {
		return nil, "", &form.AssemblyError{Stage: "attachment", Err: err}
	}

	draft, ok, err := a.session.Load(ctx)
	if err != nil {
		a.cfg.logger.Warn("ignoring unreadable approval draft", zap.Error(err))
	}
	if !ok || err != nil {
		draft = form.EmptyApproval()
	}

	for {
		if draft, err = a.ask(ctx, draft); err != nil {
			return nil, "", err
		}
		if err := a.session.Save(ctx, draft); err != nil {
			return nil, "", err
		}
		verr := a.validator.Approval(draft)
		if verr == nil {
			break
		}
		if err := a.p.failure(ctx, verr); err != nil {
			return nil, "", err
		}
	}

	artifact, err := a.submitter.Approval(ctx, draft, attachment)
	if err != nil {
		return nil, "", err
	}
	path, err := artifact.Save(a.cfg.fs, a.cfg.outputDir)
	if err != nil {
		return nil, "", err
	}
	a.cfg.logger.Info("approval saved",
		zap.String("path", path),
		zap.String("document_id", artifact.DocumentID),
	)
	if err := a.p.info(ctx, "Documento salvo em "+path); err != nil {
		return nil, "", err
	}
	return artifact, path, nil
}

func (a *ApprovalRunner) ask(ctx context.Context, f form.ApprovalForm) (form.ApprovalForm, error) {
	var err error
	if f.Approval, err = a.p.choose(ctx, "Tipo de requisição", a.catalog.ApprovalKinds, f.Approval); err != nil {
		return f, err
	}
	if f.Requester, err = a.p.choose(ctx, "Requerente", a.catalog.RequesterNames(), f.Requester); err != nil {
		return f, err
	}
	f.Email, f.Department = options.ResolveRequester(a.catalog, f.Requester)
	if f.Email != "" {
		if err := a.p.info(ctx, fmt.Sprintf("%s, %s", f.Email, f.Department)); err != nil {
			return f, err
		}
	}

	fields := []struct {
		label string
		dst   *string
	}{
		{"Cliente", &f.Client},
		{"Fabricante", &f.Manufacturer},
		{"Site de acesso", &f.URL},
		{"Nome do equipamento", &f.Name},
		{"Tipo do equipamento", &f.Type},
		{"Documento anexado", &f.DocumentType},
	}
	for _, field := range fields {
		if *field.dst, err = a.p.input(ctx, field.label, *field.dst); err != nil {
			return f, err
		}
	}

	if f.Protocols, err = a.p.choose(ctx, "Protocolos", a.catalog.ApprovalProtocols, f.Protocols); err != nil {
		return f, err
	}
	comments, err := a.p.driver.TextArea(ctx, TextAreaConfig{Message: "Comentários", Default: f.Comments})
	if err != nil {
		return f, err
	}
	f.Comments = comments
	return f, nil
}
