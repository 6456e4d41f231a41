package scoring

import (
	"sort"
	"strings"
	"sync"
)

// Registry resolves scheme slugs. Built-in schemes are always available so a
// broken or missing override never leaves a series unscorable.
type Registry struct {
	mu      sync.RWMutex
	schemes map[string]Scheme
}

// NewRegistry seeds the registry with the built-ins and applies overrides.
func NewRegistry(overrides ...Scheme) *Registry {
	r := &Registry{schemes: map[string]Scheme{}}
	for _, s := range DefaultSchemes() {
		r.schemes[s.Slug] = s
	}
	for _, s := range overrides {
		r.Put(s)
	}
	return r
}

// Put adds or replaces a scheme. Schemes without a slug or rules are ignored.
func (r *Registry) Put(s Scheme) bool {
	s.Slug = strings.ToLower(strings.TrimSpace(s.Slug))
	if s.Slug == "" || len(s.Rules) == 0 {
		return false
	}
	if s.Label == "" {
		s.Label = s.Slug
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemes[s.Slug] = s
	return true
}

// Resolve returns the scheme for slug, falling back to the default scheme.
func (r *Registry) Resolve(slug string) Scheme {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.schemes[strings.ToLower(strings.TrimSpace(slug))]; ok {
		return s
	}
	return r.schemes[DefaultSchemeSlug]
}

// Lookup reports whether slug is registered.
func (r *Registry) Lookup(slug string) (Scheme, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemes[strings.ToLower(strings.TrimSpace(slug))]
	return s, ok
}

// List returns all schemes ordered by slug.
func (r *Registry) List() []Scheme {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scheme, 0, len(r.schemes))
	for _, s := range r.schemes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
