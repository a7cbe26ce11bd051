// Package wizard drives the four-step request wizard. The Controller keeps a
// working copy of the form for the visible step, gates forward moves with the
// step validators and commits each step's fields to the store before the next
// step is shown.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-iedform/pkg/catalog"
	"github.com/goliatone/go-iedform/pkg/document"
	"github.com/goliatone/go-iedform/pkg/form"
	"github.com/goliatone/go-iedform/pkg/options"
	"github.com/goliatone/go-iedform/pkg/store"
	"github.com/goliatone/go-iedform/pkg/validation"
)

// Submitter turns a finished request into a downloadable artifact.
type Submitter interface {
	Request(ctx context.Context, r form.RequestForm, comment string) (*document.Artifact, error)
}

// ErrNoSubmitter is returned by Submit when no Submitter was configured.
var ErrNoSubmitter = errors.New("wizard: no submitter configured")

// Controller is the wizard state machine.
type Controller struct {
	mu        sync.Mutex
	store     *store.Store
	catalog   *catalog.Catalog
	validator *validation.Validator
	submitter Submitter
	logger    *zap.Logger

	step  Step
	draft form.RequestForm
	// seed is the default output shown on Outputs while nothing is stored.
	seed []form.Connection
}

// Option customises a Controller.
type Option func(*Controller)

// WithCatalog sets the reference catalog. Defaults to catalog.Default.
func WithCatalog(c *catalog.Catalog) Option {
	return func(ctrl *Controller) {
		if c != nil {
			ctrl.catalog = c
		}
	}
}

// WithValidator overrides the step validator built from the catalog.
func WithValidator(v *validation.Validator) Option {
	return func(ctrl *Controller) {
		ctrl.validator = v
	}
}

// WithSubmitter sets the document pipeline used by Submit.
func WithSubmitter(s Submitter) Option {
	return func(ctrl *Controller) {
		ctrl.submitter = s
	}
}

// WithLogger sets the logger for transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(ctrl *Controller) {
		if logger != nil {
			ctrl.logger = logger
		}
	}
}

// New starts a wizard on the General step over st.
func New(st *store.Store, opts ...Option) *Controller {
	ctrl := &Controller{
		store:  st,
		logger: zap.NewNop(),
		step:   General,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ctrl)
		}
	}
	if ctrl.catalog == nil {
		ctrl.catalog = catalog.Default()
	}
	if ctrl.validator == nil {
		ctrl.validator = validation.New(ctrl.catalog)
	}
	ctrl.enter(General)
	return ctrl
}

// Step returns the visible step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Draft returns a copy of the working form of the visible step.
func (c *Controller) Draft() form.RequestForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// Catalog returns the reference catalog in use.
func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

// Options derives the choice sets for the working form.
func (c *Controller) Options() options.Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return options.Derive(c.catalog, c.draft)
}

// Validate runs the visible step's rules against the working form.
func (c *Controller) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validator.Section(c.step.Section(), c.draft)
}

// Next validates the visible step, commits its fields and advances. On a
// validation failure the step stays active and the store is not touched.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	to := c.step + 1
	if !isAllowedTransition(c.step, to) {
		return &TransitionError{From: c.step, To: to, Reason: "already on the last step"}
	}
	if err := c.validator.Section(c.step.Section(), c.draft); err != nil {
		c.logger.Debug("step rejected", zap.Stringer("step", c.step), zap.Error(err))
		return err
	}
	return c.move(ctx, to)
}

// Prev commits the visible step's fields without validating them and moves
// back one step.
func (c *Controller) Prev(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	to := c.step - 1
	if !isAllowedTransition(c.step, to) {
		return &TransitionError{From: c.step, To: to, Reason: "already on the first step"}
	}
	return c.move(ctx, to)
}

// CanSkipToEnd reports whether the store already holds outputs.
func (c *Controller) CanSkipToEnd() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSkip()
}

func (c *Controller) canSkip() bool {
	return c.step != Comments && c.store.State().HasOutputs()
}

// SkipToEnd jumps to the Comments step once a previous pass stored outputs.
func (c *Controller) SkipToEnd(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !isAllowedTransition(c.step, Comments) || !c.canSkip() {
		return &TransitionError{From: c.step, To: Comments, Reason: "no outputs stored yet"}
	}
	return c.move(ctx, Comments)
}

// Clear resets the store to the empty template and restarts on General.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Reset(ctx); err != nil {
		return err
	}
	c.logger.Info("wizard cleared", zap.Stringer("from", c.step))
	c.enter(General)
	return nil
}

// Submit stores the final comment and hands the stored form to the
// submitter. Every section is checked again so a form reached through
// SkipToEnd still satisfies the step rules. The wizard stays on Comments.
func (c *Controller) Submit(ctx context.Context, comment string) (*document.Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != Comments {
		return nil, &TransitionError{From: c.step, To: Comments, Reason: "submit is only available on the last step"}
	}
	if c.submitter == nil {
		return nil, ErrNoSubmitter
	}
	c.draft.Comments = comment
	if err := c.store.SetData(ctx, form.CommentsPatch(comment)); err != nil {
		return nil, err
	}

	final := c.store.State()
	for _, s := range []Step{General, Inputs, Outputs} {
		if err := c.validator.Section(s.Section(), final); err != nil {
			return nil, err
		}
	}

	artifact, err := c.submitter.Request(ctx, final, comment)
	if err != nil {
		c.logger.Error("request assembly failed", zap.Error(err))
		return nil, err
	}
	c.logger.Info("request submitted",
		zap.String("artifact", artifact.Name),
		zap.Int("bytes", len(artifact.Data)),
	)
	return artifact, nil
}

// move commits the visible step and shows to. Callers hold c.mu. Leaving
// Outputs backwards with the seed untouched commits nothing.
func (c *Controller) move(ctx context.Context, to Step) error {
	if !(to < c.step && c.untouchedSeed()) {
		if err := c.store.SetData(ctx, c.step.patch(c.draft)); err != nil {
			return fmt.Errorf("wizard: commit %s: %w", c.step, err)
		}
	}
	c.logger.Debug("step changed", zap.Stringer("from", c.step), zap.Stringer("to", to))
	c.enter(to)
	return nil
}

// enter reloads the working copy from the store. The outputs step starts
// with one default connection carrying every input device when nothing was
// stored for it yet.
func (c *Controller) enter(s Step) {
	c.step = s
	c.draft = c.store.State()
	c.seed = nil
	if s == Outputs && len(c.draft.Saidas) == 0 {
		c.draft.Saidas = []form.Connection{c.defaultOutput()}
		c.seed = []form.Connection{c.draft.Saidas[0].Clone()}
	}
}

func (c *Controller) untouchedSeed() bool {
	return c.step == Outputs && c.seed != nil && reflect.DeepEqual(c.draft.Saidas, c.seed)
}

func (c *Controller) defaultOutput() form.Connection {
	def := c.catalog.OutputDefault
	offered := options.OutputTypeOptions(c.catalog, c.draft)
	connType := def.Type
	if !contains(offered, connType) && len(offered) > 0 {
		connType = offered[0]
	}
	conn := form.NewConnection(def.Protocol, connType)
	if conn.IsTCP() {
		conn.IP = def.IP
		conn.Port = def.Port
	}
	conn.IEDs = options.ReplicateInputs(c.draft)
	return conn
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
