package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the catalog bundled with the module.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		// The embedded file is part of the build, so failing here is a
		// programming error.
		panic(err)
	}
	return c
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("catalog: path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// Load decodes a YAML catalog and checks the fields the wizard relies on.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.InputTypes) == 0 {
		return errors.New("catalog: entradas must list at least one connection type")
	}
	if len(c.OutputTypes) == 0 {
		return errors.New("catalog: saidas must list at least one connection type")
	}
	for _, restricted := range c.RestrictedTypes {
		if !contains(c.InputTypes, restricted) {
			return fmt.Errorf("catalog: restricted type %q is not an input type", restricted)
		}
	}
	seen := make(map[string]struct{})
	for _, m := range c.Models() {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Manufacturer) == "" {
			return fmt.Errorf("catalog: model entries need nome and fabricante (got %+v)", m)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("catalog: duplicate model %q", m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}
