// Package validation gates the wizard's forward transitions. Each check reads
// a form snapshot and reports the first broken rule as a
// *form.ValidationError; nothing is modified.
package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-iedform/pkg/catalog"
	"github.com/goliatone/go-iedform/pkg/form"
)

// Section names the part of a form a rule belongs to.
type Section string

const (
	SectionGeneral  Section = "general"
	SectionInputs   Section = "inputs"
	SectionOutputs  Section = "outputs"
	SectionComments Section = "comments"
	SectionApproval Section = "approval"
)

const minNameLength = 3

// Validator applies the step rules against a reference catalog.
type Validator struct {
	catalog *catalog.Catalog
}

// New builds a Validator. A nil catalog falls back to the bundled one.
func New(c *catalog.Catalog) *Validator {
	if c == nil {
		c = catalog.Default()
	}
	return &Validator{catalog: c}
}

// Section validates the part of r that belongs to s.
func (v *Validator) Section(s Section, r form.RequestForm) error {
	switch s {
	case SectionGeneral:
		return v.General(r)
	case SectionInputs:
		return v.Inputs(r)
	case SectionOutputs:
		return v.Outputs(r)
	case SectionComments:
		return v.Comments(r)
	default:
		return fmt.Errorf("validation: unknown section %q", s)
	}
}

// General checks the identification fields. An unknown requester leaves email
// and department empty but is not itself an error.
func (v *Validator) General(r form.RequestForm) error {
	vErr := &form.ValidationError{Section: string(SectionGeneral)}

	requester := strings.TrimSpace(r.Requester)
	switch {
	case requester == "":
		vErr.AddField("requester", "requester is required")
	case utf8.RuneCountInString(requester) < minNameLength:
		vErr.AddField("requester", "requester must have at least 3 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(r.Client)) < minNameLength {
		vErr.AddField("client", "client must have at least 3 characters")
	}
	required(vErr, "project", r.Project)
	required(vErr, "invoiceNumber", r.InvoiceNumber)
	required(vErr, "clientNumber", r.ClientNumber)

	if len(vErr.Fields) > 0 {
		return vErr
	}
	return nil
}

// Inputs checks the input connections and their devices.
func (v *Validator) Inputs(r form.RequestForm) error {
	if len(r.Entradas) == 0 {
		return &form.ValidationError{
			Section: string(SectionInputs),
			Message: "no inputs: add at least one input connection",
		}
	}
	claimed := make(map[string]int)
	for i, conn := range r.Entradas {
		if err := v.connection(SectionInputs, "input", i, conn); err != nil {
			return err
		}
		if !v.catalog.IsRestricted(conn.Type) {
			continue
		}
		if owner, taken := claimed[conn.Type]; taken {
			return &form.ValidationError{
				Section:    string(SectionInputs),
				Connection: i + 1,
				Field:      "type",
				Message:    fmt.Sprintf("input %d: connection type %q is already used by input %d", i+1, conn.Type, owner),
			}
		}
		claimed[conn.Type] = i + 1
	}
	return nil
}

// Outputs checks the output connections with the same device rules as the
// inputs, plus the rule that outputs never reuse an input's type.
func (v *Validator) Outputs(r form.RequestForm) error {
	if len(r.Saidas) == 0 {
		return &form.ValidationError{
			Section: string(SectionOutputs),
			Message: "no outputs: add at least one output connection",
		}
	}
	used := make(map[string]struct{}, len(r.Entradas))
	for _, in := range r.Entradas {
		used[in.Type] = struct{}{}
	}
	for i, conn := range r.Saidas {
		if err := v.connection(SectionOutputs, "output", i, conn); err != nil {
			return err
		}
		if _, taken := used[conn.Type]; taken && conn.Type != "" {
			return &form.ValidationError{
				Section:    string(SectionOutputs),
				Connection: i + 1,
				Field:      "type",
				Message:    fmt.Sprintf("output %d: connection type %q is already used by an input", i+1, conn.Type),
			}
		}
	}
	return nil
}

// Comments accepts any text.
func (v *Validator) Comments(form.RequestForm) error {
	return nil
}

func (v *Validator) connection(section Section, label string, index int, conn form.Connection) error {
	position := index + 1
	if len(conn.IEDs) == 0 {
		return &form.ValidationError{
			Section:    string(section),
			Connection: position,
			Field:      "ieds",
			Message:    fmt.Sprintf("%s %d: add at least one IED", label, position),
		}
	}
	for j, dev := range conn.IEDs {
		if err := v.device(section, label, position, j+1, dev); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) device(section Section, label string, conn, position int, dev form.Device) error {
	fail := func(field, what string) error {
		name := ""
		if dev.Name != "" {
			name = fmt.Sprintf(" %q", dev.Name)
		}
		return &form.ValidationError{
			Section:    string(section),
			Connection: conn,
			Device:     position,
			Field:      field,
			Message:    fmt.Sprintf("%s %d, IED %d%s: %s", label, conn, position, name, what),
		}
	}
	if strings.TrimSpace(dev.Name) == "" {
		return fail("name", "name is required")
	}
	if strings.TrimSpace(dev.Manufacturer) == "" {
		return fail("manufacturer", "manufacturer is required")
	}
	if v.catalog.RequiresModules(dev.Name) && strings.TrimSpace(dev.Modules.String()) == "" {
		return fail("modules", "modules are required for this IED")
	}
	return nil
}

// Approval checks the homologation request fields.
func (v *Validator) Approval(a form.ApprovalForm) error {
	vErr := &form.ValidationError{Section: string(SectionApproval)}

	minLength(vErr, "requester", a.Requester, 3, "requester must have at least 3 characters")
	minLength(vErr, "client", a.Client, 3, "client must have at least 3 characters")
	minLength(vErr, "manufacturer", a.Manufacturer, 3, "manufacturer must have at least 3 characters")
	if !isURL(a.URL) {
		vErr.AddField("url", "url must be a valid address")
	}
	minLength(vErr, "name", a.Name, 2, "IED name must have at least 2 characters")
	minLength(vErr, "type", a.Type, 3, "IED type must have at least 3 characters")
	minLength(vErr, "documentType", a.DocumentType, 3, "document type must have at least 3 characters")
	required(vErr, "protocols", a.Protocols)

	if len(vErr.Fields) > 0 {
		return vErr
	}
	return nil
}

func required(vErr *form.ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		vErr.AddField(field, field+" is required")
	}
}

func minLength(vErr *form.ValidationError, field, value string, n int, message string) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		vErr.AddField(field, message)
	}
}

func isURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
