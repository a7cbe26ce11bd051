package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-iedform/pkg/form"
)

// prompter wraps a driver with the helpers both flows share.
type prompter struct {
	driver PromptDriver
	theme  Theme
}

func (p prompter) input(ctx context.Context, message, current string) (string, error) {
	out, err := p.driver.Input(ctx, InputConfig{Message: message, Default: current})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// choose asks for one of options and returns the chosen value. The current
// value is preselected when present.
func (p prompter) choose(ctx context.Context, message string, options []string, current string) (string, error) {
	idx, err := p.driver.Select(ctx, SelectConfig{
		Message:      message,
		Options:      options,
		DefaultIndex: indexOf(options, current),
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) {
		return "", fmt.Errorf("%w: %q", ErrInvalidChoice, message)
	}
	return options[idx], nil
}

func (p prompter) info(ctx context.Context, msg string) error {
	return p.driver.Info(ctx, p.theme.InfoPrefix+msg)
}

// failure prints err. Validation errors list every failing field.
func (p prompter) failure(ctx context.Context, err error) error {
	var vErr *form.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 1 {
		for _, field := range vErr.FieldNames() {
			for _, msg := range vErr.Fields[field] {
				if perr := p.driver.Info(ctx, p.theme.ErrorPrefix+msg); perr != nil {
					return perr
				}
			}
		}
		return nil
	}
	return p.driver.Info(ctx, p.theme.ErrorPrefix+err.Error())
}
