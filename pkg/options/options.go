// Package options computes the choice sets later wizard steps offer, derived
// from the reference catalog and what earlier steps already hold. Every
// function is pure: the same catalog and form always give the same answer,
// and neither argument is modified.
package options

import (
	"sort"

	"github.com/goliatone/go-iedform/pkg/catalog"
	"github.com/goliatone/go-iedform/pkg/form"
)

// Options bundles every derived view for one form snapshot.
type Options struct {
	Email        string
	Department   string
	InputTypes   []string
	OutputTypes  []string
	Pool         []catalog.Model
	Home         []catalog.Model
	ThirdParty   []catalog.Model
	InputUsage   []string
	OutputUsage  []string
	CanSkipToEnd bool
}

// Derive computes the options for r. Input types are the ones a new input
// connection could take.
func Derive(c *catalog.Catalog, r form.RequestForm) Options {
	email, department := ResolveRequester(c, r.Requester)
	pool := DevicePool(c, r)
	home, third := GroupPool(c, pool)
	return Options{
		Email:        email,
		Department:   department,
		InputTypes:   InputTypeOptions(c, r, -1),
		OutputTypes:  OutputTypeOptions(c, r),
		Pool:         pool,
		Home:         home,
		ThirdParty:   third,
		InputUsage:   DistinctProtocols(r.Entradas),
		OutputUsage:  DistinctProtocols(r.Saidas),
		CanSkipToEnd: r.HasOutputs(),
	}
}

// ResolveRequester returns the email and department for an exact requester
// name, or empty strings when the name is unknown.
func ResolveRequester(c *catalog.Catalog, name string) (email, department string) {
	r, ok := c.Requester(name)
	if !ok {
		return "", ""
	}
	return r.Email, r.Department
}

// Manufacturer resolves a device name against the catalog first and then
// against devices already entered on the inputs.
func Manufacturer(c *catalog.Catalog, r form.RequestForm, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if c != nil {
		if m, ok := c.Model(name); ok {
			return m.Manufacturer, true
		}
	}
	for _, conn := range r.Entradas {
		for _, dev := range conn.IEDs {
			if dev.Name == name && dev.Manufacturer != "" {
				return dev.Manufacturer, true
			}
		}
	}
	return "", false
}

// InputTypeOptions lists the connection types input connection index may
// take. Restricted types claimed by another input are left out; pass -1 for a
// connection that does not exist yet.
func InputTypeOptions(c *catalog.Catalog, r form.RequestForm, index int) []string {
	if c == nil {
		return nil
	}
	claimed := make(map[string]struct{})
	for i, conn := range r.Entradas {
		if i == index {
			continue
		}
		if c.IsRestricted(conn.Type) {
			claimed[conn.Type] = struct{}{}
		}
	}
	out := make([]string, 0, len(c.InputTypes))
	for _, t := range c.InputTypes {
		if _, taken := claimed[t]; taken {
			continue
		}
		out = append(out, t)
	}
	return catalog.Sorted(out)
}

// OutputTypeOptions lists the connection types an output may take: the
// catalog list minus every type used by any input.
func OutputTypeOptions(c *catalog.Catalog, r form.RequestForm) []string {
	if c == nil {
		return nil
	}
	used := make(map[string]struct{}, len(r.Entradas))
	for _, conn := range r.Entradas {
		used[conn.Type] = struct{}{}
	}
	out := make([]string, 0, len(c.OutputTypes))
	for _, t := range c.OutputTypes {
		if _, taken := used[t]; taken {
			continue
		}
		out = append(out, t)
	}
	return catalog.Sorted(out)
}

// DevicePool returns the devices outputs may pick from: every distinct
// name+manufacturer pair entered on the inputs, or the whole catalog while no
// input exists.
func DevicePool(c *catalog.Catalog, r form.RequestForm) []catalog.Model {
	if len(r.Entradas) == 0 {
		if c == nil {
			return nil
		}
		return c.Models()
	}
	type key struct{ name, manufacturer string }
	seen := make(map[key]struct{})
	var out []catalog.Model
	for _, conn := range r.Entradas {
		for _, dev := range conn.IEDs {
			k := key{dev.Name, dev.Manufacturer}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, catalog.Model{Name: dev.Name, Manufacturer: dev.Manufacturer})
		}
	}
	return out
}

// GroupPool splits a pool into house-brand and third-party models, each in
// display order.
func GroupPool(c *catalog.Catalog, pool []catalog.Model) (home, third []catalog.Model) {
	for _, m := range pool {
		if c.IsHome(m.Manufacturer) {
			home = append(home, m)
		} else {
			third = append(third, m)
		}
	}
	sortModels(home)
	sortModels(third)
	return home, third
}

// ThirdPartyDevices lists the distinct non house-brand devices across all
// inputs, sorted by name.
func ThirdPartyDevices(c *catalog.Catalog, r form.RequestForm) []catalog.Model {
	if len(r.Entradas) == 0 {
		return nil
	}
	_, third := GroupPool(c, DevicePool(c, r))
	return third
}

// DefaultPort is the port an output connection gets when its protocol is
// chosen; unknown protocols give an empty port.
func DefaultPort(c *catalog.Catalog, protocol string) string {
	port, _ := c.OutputPort(protocol)
	return port
}

// DistinctProtocols lists protocols in first-seen order without repeats.
func DistinctProtocols(conns []form.Connection) []string {
	seen := make(map[string]struct{}, len(conns))
	var out []string
	for _, conn := range conns {
		if conn.Protocol == "" {
			continue
		}
		if _, dup := seen[conn.Protocol]; dup {
			continue
		}
		seen[conn.Protocol] = struct{}{}
		out = append(out, conn.Protocol)
	}
	return out
}

func sortModels(models []catalog.Model) {
	sort.SliceStable(models, func(i, j int) bool {
		return catalog.Less(models[i].Name, models[j].Name)
	})
}
