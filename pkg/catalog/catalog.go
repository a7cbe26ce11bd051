// Package catalog holds the static reference data the wizard offers as
// choices: requesters, gateways, protocols, connection types and IED models.
package catalog

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Requester is an entry of the requester directory.
type Requester struct {
	Name       string `yaml:"name" json:"name"`
	Email      string `yaml:"email" json:"email"`
	Department string `yaml:"departament" json:"departament"`
}

// Model is a known IED model.
type Model struct {
	Name         string `yaml:"nome" json:"nome"`
	Manufacturer string `yaml:"fabricante" json:"fabricante"`
}

// ConnectionDefaults seeds a new output connection.
type ConnectionDefaults struct {
	Protocol string `yaml:"protocolo"`
	Type     string `yaml:"type"`
	IP       string `yaml:"ip"`
	Port     string `yaml:"port"`
}

// Catalog is read-only once loaded; lookups never mutate it.
type Catalog struct {
	HomeManufacturer  string             `yaml:"home_manufacturer"`
	Requesters        []Requester        `yaml:"requester"`
	Gateways          []string           `yaml:"sd"`
	SigmaModes        []string           `yaml:"sigma"`
	InputProtocols    []string           `yaml:"protocolos_entrada"`
	OutputProtocols   []string           `yaml:"protocolos_saida"`
	InputTypes        []string           `yaml:"entradas"`
	OutputTypes       []string           `yaml:"saidas"`
	RestrictedTypes   []string           `yaml:"restricted"`
	ModulesRequired   []string           `yaml:"modules_required"`
	OutputPorts       map[string]string  `yaml:"portas_saida"`
	OutputDefault     ConnectionDefaults `yaml:"saida_padrao"`
	HomeModels        []Model            `yaml:"ied"`
	ThirdPartyModels  []Model            `yaml:"ied_terceiros"`
	ApprovalKinds     []string           `yaml:"approval"`
	ApprovalProtocols []string           `yaml:"protocolos_homologacao"`
}

// Requester finds a requester by exact name.
func (c *Catalog) Requester(name string) (Requester, bool) {
	if c == nil || name == "" {
		return Requester{}, false
	}
	for _, r := range c.Requesters {
		if r.Name == name {
			return r, true
		}
	}
	return Requester{}, false
}

// RequesterNames lists requester names in display order.
func (c *Catalog) RequesterNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Requesters))
	for _, r := range c.Requesters {
		names = append(names, r.Name)
	}
	return Sorted(names)
}

// Models returns home models followed by third-party models.
func (c *Catalog) Models() []Model {
	if c == nil {
		return nil
	}
	out := make([]Model, 0, len(c.HomeModels)+len(c.ThirdPartyModels))
	out = append(out, c.HomeModels...)
	out = append(out, c.ThirdPartyModels...)
	return out
}

// Model finds a catalog model by exact name.
func (c *Catalog) Model(name string) (Model, bool) {
	if name == "" {
		return Model{}, false
	}
	for _, m := range c.Models() {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// IsHome reports whether manufacturer is the house brand.
func (c *Catalog) IsHome(manufacturer string) bool {
	return c != nil && manufacturer != "" && manufacturer == c.HomeManufacturer
}

// IsRestricted reports whether a connection type may be claimed by a single
// input connection only.
func (c *Catalog) IsRestricted(connType string) bool {
	return c != nil && contains(c.RestrictedTypes, connType)
}

// RequiresModules reports whether a device name needs its modules filled in.
func (c *Catalog) RequiresModules(name string) bool {
	return c != nil && contains(c.ModulesRequired, name)
}

// OutputPort returns the default port for an output protocol.
func (c *Catalog) OutputPort(protocol string) (string, bool) {
	if c == nil || len(c.OutputPorts) == 0 {
		return "", false
	}
	port, ok := c.OutputPorts[protocol]
	return port, ok
}

// Sorted returns a copy of values in pt-BR collation order.
func Sorted(values []string) []string {
	out := append([]string(nil), values...)
	collate.New(language.BrazilianPortuguese).SortStrings(out)
	return out
}

// Less compares two strings in pt-BR collation order.
func Less(a, b string) bool {
	return collate.New(language.BrazilianPortuguese).CompareString(a, b) < 0
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
