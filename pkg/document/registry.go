package document

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownRenderer is returned for names nothing was registered under.
var ErrUnknownRenderer = errors.New("document: unknown renderer")

// Registry maps renderer names, and the file extensions they produce, to
// renderers. Each name and each extension belongs to a single renderer.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Renderer
	byExt  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Renderer),
		byExt:  make(map[string]string),
	}
}

// Register adds renderer under its Name and Extension.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return errors.New("document: nil renderer")
	}
	name := renderer.Name()
	if name == "" {
		return errors.New("document: renderer without a name")
	}
	ext := normalizeExt(renderer.Extension())

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[name]; taken {
		return fmt.Errorf("document: renderer %q registered twice", name)
	}
	if owner, taken := r.byExt[ext]; taken && ext != "" {
		return fmt.Errorf("document: extension %q already produced by %q", ext, owner)
	}
	r.byName[name] = renderer
	if ext != "" {
		r.byExt[ext] = name
	}
	return nil
}

// MustRegister is Register for wiring code that cannot recover.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get returns the renderer registered as name. An extension such as ".pdf"
// is accepted too.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if renderer, ok := r.byName[name]; ok {
		return renderer, nil
	}
	if owner, ok := r.byExt[normalizeExt(name)]; ok {
		return r.byName[owner], nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownRenderer, name)
}

// Has reports whether Get would succeed for name.
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// List returns the registered names in order.
func (r *Registry) List() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
