package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-iedform/pkg/form"
)

// Storage keys of the two flows.
const (
	RequestKey  = "request-form-storage"
	ApprovalKey = "approval-form-storage"
)

const envelopeVersion = 0

type envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

// Session persists a single value of T under a fixed key, wrapped in the
// {"state": ..., "version": n} envelope.
type Session[T any] struct {
	backend Backend
	key     string
}

// NewSession binds a key on backend.
func NewSession[T any](backend Backend, key string) *Session[T] {
	return &Session[T]{backend: backend, key: key}
}

// Load returns the stored value. ok is false when nothing was stored yet.
// A snapshot that cannot be decoded yields a *form.ParseError.
func (s *Session[T]) Load(ctx context.Context) (value T, ok bool, err error) {
	data, err := s.backend.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return value, false, &form.ParseError{Source: s.key, Err: err}
	}
	return env.State, true, nil
}

// Save replaces the stored value.
func (s *Session[T]) Save(ctx context.Context, value T) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	return s.backend.Save(ctx, s.key, data)
}

// Clear removes the stored value.
func (s *Session[T]) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, s.key)
}

func encode[T any](value T) ([]byte, error) {
	data, err := json.MarshalIndent(envelope[T]{State: value, Version: envelopeVersion}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: encode snapshot: %w", err)
	}
	return data, nil
}
