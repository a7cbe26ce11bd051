package store

import (
	"errors"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaIssue is one schema violation of an import payload.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// SchemaError lists every violation found in an import payload. It is the
// cause of the *form.ParseError Import returns.
type SchemaError struct {
	Issues []SchemaIssue
}

func (e *SchemaError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "payload does not match the request schema"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Field == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return strings.Join(parts, "; ")
}

// schemaError flattens a jsonschema failure into leaf issues sorted by path.
func schemaError(err error) *SchemaError {
	var vErr *jsonschema.ValidationError
	if !errors.As(err, &vErr) {
		return &SchemaError{Issues: []SchemaIssue{{Message: strings.TrimSpace(err.Error())}}}
	}
	var issues []SchemaIssue
	collectIssues(vErr, &issues)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return &SchemaError{Issues: issues}
}

func collectIssues(vErr *jsonschema.ValidationError, out *[]SchemaIssue) {
	if len(vErr.Causes) == 0 {
		*out = append(*out, SchemaIssue{
			Path:    vErr.InstanceLocation,
			Field:   fieldPathFromPointer(vErr.InstanceLocation),
			Message: strings.TrimSpace(vErr.Message),
		})
		return
	}
	for _, cause := range vErr.Causes {
		collectIssues(cause, out)
	}
}

// fieldPathFromPointer turns "/entradas/0/ieds/1/address" into
// "entradas[0].ieds[1].address".
func fieldPathFromPointer(pointer string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pointer), "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}
	var b strings.Builder
	for _, part := range strings.Split(trimmed, "/") {
		segment := strings.ReplaceAll(part, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		if segment == "" {
			continue
		}
		if isNumeric(segment) {
			b.WriteString("[" + segment + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segment)
	}
	return b.String()
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
