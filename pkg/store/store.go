package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-iedform/pkg/form"
)

const importSource = "import"

// Store is the single source of truth for the request form. Every change is
// persisted before it becomes visible to readers.
type Store struct {
	mu      sync.RWMutex
	state   form.RequestForm
	session *Session[form.RequestForm]
	logger  *zap.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New restores the last snapshot from backend, or starts from an empty form.
// A snapshot that cannot be decoded is logged and ignored; it is overwritten
// by the next change.
func New(ctx context.Context, backend Backend, options ...Option) (*Store, error) {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	s := &Store{
		state:   form.Empty(),
		session: NewSession[form.RequestForm](backend, RequestKey),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	restored, ok, err := s.session.Load(ctx)
	switch {
	case errors.Is(err, form.ErrParse):
		s.logger.Warn("discarding unreadable request snapshot", zap.Error(err))
	case err != nil:
		return nil, err
	case ok:
		s.state = restored
		s.logger.Debug("restored request snapshot",
			zap.Int("inputs", len(restored.Entradas)),
			zap.Int("outputs", len(restored.Saidas)),
		)
	}
	return s, nil
}

// State returns a copy of the current form.
func (s *Store) State() form.RequestForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// SetData merges p into the form and persists the result. When persisting
// fails the in-memory form is left unchanged.
func (s *Store) SetData(ctx context.Context, p form.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := p.Apply(s.state)
	if err := s.session.Save(ctx, next); err != nil {
		return fmt.Errorf("store: persist request: %w", err)
	}
	s.state = next
	s.logger.Debug("request updated", zap.Bool("empty_patch", p.IsEmpty()))
	return nil
}

// Reset replaces the form with an empty one and persists it.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	empty := form.Empty()
	if err := s.session.Save(ctx, empty); err != nil {
		return fmt.Errorf("store: persist reset: %w", err)
	}
	s.state = empty
	s.logger.Info("request cleared")
	return nil
}

// Export returns the form wrapped in the persistence envelope.
func (s *Store) Export() ([]byte, error) {
	return encode(s.State())
}

// Import merges a JSON payload into the form. The payload is either a bare
// form object or an envelope with a "state" key. Malformed payloads yield a
// *form.ParseError and leave the form untouched.
func (s *Store) Import(ctx context.Context, data []byte) error {
	patch, err := DecodePatch(data)
	if err != nil {
		return err
	}
	if err := s.SetData(ctx, patch); err != nil {
		return err
	}
	s.logger.Info("request imported")
	return nil
}

// DecodePatch parses an import payload into a patch holding only the keys
// present in the payload.
func DecodePatch(data []byte) (form.Patch, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return form.Patch{}, &form.ParseError{Source: importSource, Err: err}
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return form.Patch{}, &form.ParseError{Source: importSource, Err: errors.New("payload must be a JSON object")}
	}
	if state, ok := obj["state"].(map[string]any); ok {
		obj = state
	}
	if err := RequestSchema().Validate(obj); err != nil {
		return form.Patch{}, &form.ParseError{Source: importSource, Err: schemaError(err)}
	}

	normalized, err := json.Marshal(obj)
	if err != nil {
		return form.Patch{}, &form.ParseError{Source: importSource, Err: err}
	}
	var patch form.Patch
	if err := json.Unmarshal(normalized, &patch); err != nil {
		return form.Patch{}, &form.ParseError{Source: importSource, Err: err}
	}
	return patch, nil
}
