// Package elements is the catalog of element and content block types a
// layout may contain. The migrator, the renderer and the admin endpoints all
// ask the same Registry instance.
package elements

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"layout-builder/internal/domain/layout"
)

var ErrUnknownType = errors.New("unknown element type")

// Spec describes one element type.
type Spec struct {
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Defaults   layout.Options `json:"defaults"`
	Deprecated bool           `json:"deprecated,omitempty"`
}

// Paginated types compete for the page's primary query.
func (s Spec) Paginated() bool { return IsPaginated(s.Type) }

// Columns reports whether elements of this type hold content blocks.
func (s Spec) Columns() bool {
	return s.Type == layout.TypeColumns || s.Type == layout.TypeContent
}

// IsPaginated reports whether a type tag is a paginated variant.
func IsPaginated(typ string) bool { return strings.HasSuffix(typ, "_paginated") }

// Registry holds the element and block types known for this process.
type Registry struct {
	mu     sync.RWMutex
	specs  map[string]Spec
	blocks map[string]Spec
}

// NewEmptyRegistry returns a registry with nothing registered.
func NewEmptyRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec), blocks: make(map[string]Spec)}
}

// NewRegistry returns a registry holding the built-in element and block types.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	for _, s := range builtinElements() {
		r.Register(s)
	}
	for _, s := range builtinBlocks() {
		r.RegisterBlock(s)
	}
	return r
}

// Register adds or replaces an element type.
func (r *Registry) Register(s Spec) {
	if s.Type == "" {
		return
	}
	if s.Defaults == nil {
		s.Defaults = layout.Options{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[s.Type] = s
}

// Unregister removes an element type.
func (r *Registry) Unregister(typ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.specs, typ)
}

// IsElement reports whether typ is a registered element type.
func (r *Registry) IsElement(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.specs[typ]
	return ok
}

// Get returns the spec of typ.
func (r *Registry) Get(typ string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[typ]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	return s, nil
}

// Elements lists the registered element types ordered by type tag.
func (r *Registry) Elements() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Defaults returns a fresh copy of the default options of typ.
func (r *Registry) Defaults(typ string) (layout.Options, error) {
	s, err := r.Get(typ)
	if err != nil {
		return nil, err
	}
	return s.Defaults.Clone(), nil
}

// RegisterBlock adds or replaces a content block type.
func (r *Registry) RegisterBlock(s Spec) {
	if s.Type == "" {
		return
	}
	if s.Defaults == nil {
		s.Defaults = layout.Options{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[s.Type] = s
}

// IsBlock reports whether typ is a registered content block type.
func (r *Registry) IsBlock(typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.blocks[typ]
	return ok
}

// BlockDefaults returns a fresh copy of the default options of block type typ.
func (r *Registry) BlockDefaults(typ string) (layout.Options, error) {
	r.mu.RLock()
	s, ok := r.blocks[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: block %s", ErrUnknownType, typ)
	}
	return s.Defaults.Clone(), nil
}

// Blocks lists the registered content block types.
func (r *Registry) Blocks() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.blocks))
	for _, s := range r.blocks {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
