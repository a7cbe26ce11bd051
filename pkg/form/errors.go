package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidation marks a step or form that failed its rules.
	ErrValidation = errors.New("validation failed")
	// ErrParse marks malformed JSON imports or unreadable attachments.
	ErrParse = errors.New("parse failed")
	// ErrAssembly marks a document that could not be produced.
	ErrAssembly = errors.New("assembly failed")
)

// ValidationError reports the first rule a step broke. Connection and Device
// are 1-based positions; zero means the error is not tied to one.
type ValidationError struct {
	Section    string
	Connection int
	Device     int
	Field      string
	Message    string
	// Fields holds every failing field when a step checks several at once.
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return ErrValidation.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ScrollTarget returns the 0-based connection index the UI should bring into
// view, if the failure is tied to a connection.
func (e *ValidationError) ScrollTarget() (int, bool) {
	if e == nil || e.Connection <= 0 {
		return 0, false
	}
	return e.Connection - 1, true
}

// FieldNames lists the failing fields in a stable order.
func (e *ValidationError) FieldNames() []string {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddField records a message against a field, skipping blanks and repeats.
func (e *ValidationError) AddField(field, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	for _, existing := range e.Fields[field] {
		if existing == message {
			return
		}
	}
	e.Fields[field] = append(e.Fields[field], message)
	if e.Message == "" {
		e.Message = message
		e.Field = field
	}
}

// ParseError wraps a decoding failure of an import payload or attachment.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrParse.Error(), e.Source)
	}
	return fmt.Sprintf("%s: %s: %v", ErrParse.Error(), e.Source, e.Err)
}

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// AssemblyError wraps a failure while producing a document artifact.
type AssemblyError struct {
	Stage string
	Err   error
}

func (e *AssemblyError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrAssembly.Error(), e.Stage)
	}
	return fmt.Sprintf("%s: %s: %v", ErrAssembly.Error(), e.Stage, e.Err)
}

// Is matches ErrAssembly.
func (e *AssemblyError) Is(target error) bool { return target == ErrAssembly }

func (e *AssemblyError) Unwrap() error { return e.Err }

// Assemblyf builds an AssemblyError for stage with a formatted cause.
func Assemblyf(stage, format string, args ...any) error {
	return &AssemblyError{Stage: stage, Err: fmt.Errorf(format, args...)}
}
