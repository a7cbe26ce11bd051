package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/goliatone/go-iedform/internal/config"
	"github.com/goliatone/go-iedform/pkg/catalog"
	"github.com/goliatone/go-iedform/pkg/document"
	"github.com/goliatone/go-iedform/pkg/form"
	"github.com/goliatone/go-iedform/pkg/renderers/html"
	"github.com/goliatone/go-iedform/pkg/renderers/pdf"
	"github.com/goliatone/go-iedform/pkg/renderers/tui"
	"github.com/goliatone/go-iedform/pkg/renderers/xlsx"
	"github.com/goliatone/go-iedform/pkg/store"
	"github.com/goliatone/go-iedform/pkg/validation"
	"github.com/goliatone/go-iedform/pkg/wizard"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: iedform <command> [flags]

commands:
  request    fill the application request interactively
  approval   fill a homologation request and merge it with -attachment
  render     render the stored request without prompting
  export     print the stored request as JSON
  import     merge a JSON file into the stored request
  clear      drop the stored request and approval drafts

every command accepts -config <file>
`)
}

// app holds the collaborators shared by every command.
type app struct {
	cfg      *config.Config
	fs       afero.Fs
	logger   *zap.Logger
	catalog  *catalog.Catalog
	backend  store.Backend
	registry *document.Registry
	pipeline *document.Pipeline
	out      io.Writer
}

var commands = map[string]bool{
	"request":  true,
	"approval": true,
	"render":   true,
	"export":   true,
	"import":   true,
	"clear":    true,
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	command, rest := args[0], args[1:]
	if !commands[command] {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	flags := flag.NewFlagSet(command, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	configPath := flags.String("config", "", "YAML configuration file")
	attachment := flags.String("attachment", "", "document appended to the approval cover (approval)")
	input := flags.String("file", "", "JSON file to import, or output file for export")
	format := flags.String("format", "", "renderer override: pdf, xlsx or html (request, render)")
	if err := flags.Parse(rest); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *format != "" {
		cfg.Output.Renderer = *format
	}
	a, err := newApp(cfg, afero.NewOsFs(), out)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	switch command {
	case "request":
		return a.request(ctx)
	case "approval":
		return a.approval(ctx, *attachment)
	case "render":
		return a.render(ctx)
	case "export":
		return a.export(ctx, *input)
	case "import":
		return a.importFile(ctx, *input)
	case "clear":
		return a.clear(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func newApp(cfg *config.Config, fs afero.Fs, out io.Writer) (*app, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		if cat, err = catalog.LoadFile(cfg.Catalog.Path); err != nil {
			return nil, err
		}
	}

	sessionID := cfg.Session.ID
	if sessionID == "" {
		// One session per terminal: the shell is the parent process.
		sessionID = strconv.Itoa(os.Getppid())
	}
	backend, err := store.NewFileBackend(fs, store.SessionDir(cfg.Session.Dir, sessionID))
	if err != nil {
		return nil, err
	}

	registry := document.NewRegistry()
	registry.MustRegister(pdf.New())
	registry.MustRegister(xlsx.New())
	if cfg.Output.Renderer == document.RendererHTML {
		preview, err := html.New()
		if err != nil {
			return nil, err
		}
		registry.MustRegister(preview)
	}
	if !registry.Has(cfg.Output.Renderer) {
		return nil, fmt.Errorf("unknown renderer %q", cfg.Output.Renderer)
	}
	namer, err := document.NewNamer(cfg.Filenames.Request, cfg.Filenames.Approval)
	if err != nil {
		return nil, err
	}
	pipeline, err := document.NewPipeline(registry,
		document.WithAssembler(document.NewAssembler(document.WithCatalog(cat))),
		document.WithMerger(pdf.NewMerger()),
		document.WithNamer(namer),
		document.WithLogger(logger.Named("document")),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug("session ready",
		zap.String("dir", backend.Dir()),
		zap.String("renderer", cfg.Output.Renderer),
	)
	return &app{
		cfg:      cfg,
		fs:       fs,
		logger:   logger,
		catalog:  cat,
		backend:  backend,
		registry: registry,
		pipeline: pipeline,
		out:      out,
	}, nil
}

// submitter renders with the configured request renderer.
func (a *app) submitter() wizard.Submitter {
	return rendererSubmitter{pipeline: a.pipeline, renderer: a.cfg.Output.Renderer}
}

type rendererSubmitter struct {
	pipeline *document.Pipeline
	renderer string
}

func (s rendererSubmitter) Request(ctx context.Context, r form.RequestForm, comment string) (*document.Artifact, error) {
	return s.pipeline.RequestAs(ctx, s.renderer, r, comment)
}

func (a *app) store(ctx context.Context) (*store.Store, error) {
	return store.New(ctx, a.backend, store.WithLogger(a.logger.Named("store")))
}

func (a *app) tuiOptions() []tui.Option {
	return []tui.Option{
		tui.WithFs(a.fs),
		tui.WithOutputDir(a.cfg.Output.Dir),
		tui.WithLogger(a.logger.Named("tui")),
	}
}

func (a *app) request(ctx context.Context) error {
	st, err := a.store(ctx)
	if err != nil {
		return err
	}
	ctrl := wizard.New(st,
		wizard.WithCatalog(a.catalog),
		wizard.WithValidator(validation.New(a.catalog)),
		wizard.WithSubmitter(a.submitter()),
		wizard.WithLogger(a.logger.Named("wizard")),
	)
	runner, err := tui.NewRunner(ctrl, a.tuiOptions()...)
	if err != nil {
		return err
	}
	_, _, err = runner.Run(ctx)
	return err
}

func (a *app) approval(ctx context.Context, attachment string) error {
	if attachment == "" {
		return fmt.Errorf("%w: approval needs -attachment", errUsage)
	}
	runner, err := tui.NewApprovalRunner(a.catalog, a.backend, a.pipeline, a.tuiOptions()...)
	if err != nil {
		return err
	}
	_, _, err = runner.Run(ctx, attachment)
	return err
}

// render produces the document for the stored request after checking every
// section, the same way the last wizard step does.
func (a *app) render(ctx context.Context) error {
	st, err := a.store(ctx)
	if err != nil {
		return err
	}
	state := st.State()
	v := validation.New(a.catalog)
	for _, section := range []validation.Section{validation.SectionGeneral, validation.SectionInputs, validation.SectionOutputs} {
		if err := v.Section(section, state); err != nil {
			return err
		}
	}
	artifact, err := a.submitter().Request(ctx, state, state.Comments)
	if err != nil {
		return err
	}
	path, err := artifact.Save(a.fs, a.cfg.Output.Dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, path)
	return nil
}

func (a *app) export(ctx context.Context, path string) error {
	st, err := a.store(ctx)
	if err != nil {
		return err
	}
	data, err := st.Export()
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Fprintln(a.out, string(data))
		return err
	}
	return afero.WriteFile(a.fs, path, data, 0o644)
}

func (a *app) importFile(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("%w: import needs -file", errUsage)
	}
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return err
	}
	st, err := a.store(ctx)
	if err != nil {
		return err
	}
	return st.Import(ctx, data)
}

func (a *app) clear(ctx context.Context) error {
	st, err := a.store(ctx)
	if err != nil {
		return err
	}
	if err := st.Reset(ctx); err != nil {
		return err
	}
	return store.NewSession[form.ApprovalForm](a.backend, store.ApprovalKey).Clear(ctx)
}
