package document

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/goliatone/go-iedform/pkg/form"
)

// Default filename templates. The extension is appended by the pipeline.
const (
	DefaultRequestFilename  = "{{ client|filename }}-requisicao"
	DefaultApprovalFilename = "{{ name|filename }}-{{ approval|filename }}"
)

const filenameFilter = "filename"

var registerFilterOnce sync.Once

// Slug folds accents, lowercases and collapses everything outside [a-z0-9]
// into single dashes.
func Slug(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func registerFilenameFilter() {
	registerFilterOnce.Do(func() {
		if pongo2.FilterExists(filenameFilter) {
			return
		}
		filter := func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			return pongo2.AsValue(Slug(in.String())), nil
		}
		if err := pongo2.RegisterFilter(filenameFilter, filter); err != nil {
			panic("document: register filename filter: " + err.Error())
		}
	})
}

// Namer derives deterministic download names from form content.
type Namer struct {
	request  *pongo2.Template
	approval *pongo2.Template
}

// NewNamer compiles the two filename templates. Empty strings select the
// defaults.
func NewNamer(requestTemplate, approvalTemplate string) (*Namer, error) {
	registerFilenameFilter()
	if strings.TrimSpace(requestTemplate) == "" {
		requestTemplate = DefaultRequestFilename
	}
	if strings.TrimSpace(approvalTemplate) == "" {
		approvalTemplate = DefaultApprovalFilename
	}
	request, err := pongo2.FromString(requestTemplate)
	if err != nil {
		return nil, fmt.Errorf("document: parse request filename: %w", err)
	}
	approval, err := pongo2.FromString(approvalTemplate)
	if err != nil {
		return nil, fmt.Errorf("document: parse approval filename: %w", err)
	}
	return &Namer{request: request, approval: approval}, nil
}

// Request names a request artifact.
func (n *Namer) Request(r form.RequestForm, ext string) (string, error) {
	return execute(n.request, pongo2.Context{
		"requester":     r.Requester,
		"client":        r.Client,
		"project":       r.Project,
		"invoiceNumber": r.InvoiceNumber,
		"clientNumber":  r.ClientNumber,
		"gateway":       r.Gateway,
	}, "requisicao", ext)
}

// Approval names an approval artifact.
func (n *Namer) Approval(f form.ApprovalForm, ext string) (string, error) {
	return execute(n.approval, pongo2.Context{
		"approval":     f.Approval,
		"requester":    f.Requester,
		"client":       f.Client,
		"manufacturer": f.Manufacturer,
		"name":         f.Name,
		"type":         f.Type,
	}, Slug(f.Approval), ext)
}

func execute(tpl *pongo2.Template, ctx pongo2.Context, fallback, ext string) (string, error) {
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("document: render filename: %w", err)
	}
	base := strings.Trim(strings.TrimSpace(out), "-.")
	if strings.ContainsAny(base, `/\`) {
		return "", errors.New("document: filename must not contain path separators")
	}
	if base == "" {
		base = fallback
	}
	if base == "" {
		base = "documento"
	}
	if ext == "" {
		return base, nil
	}
	return base + "." + ext, nil
}
