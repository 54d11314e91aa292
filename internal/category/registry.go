package category

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a read-mostly lookup from category ID to its pack. It is safe
// for concurrent use; packs are copied on the way in and out.
type Registry struct {
	mu    sync.RWMutex
	packs map[string]Category
}

// NewRegistry returns a registry pre-populated with the built-in packs.
func NewRegistry() *Registry {
	r := &Registry{packs: make(map[string]Category)}
	for _, c := range Builtin() {
		r.packs[c.ID] = c
	}
	return r
}

// Add validates c and registers it, replacing any pack with the same ID.
// Custom packs loaded from YAML may shadow built-ins on purpose.
func (r *Registry) Add(c Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.Words = append([]string(nil), c.Words...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.packs[c.ID] = c
	return nil
}

// Get returns the pack registered under id. Returns [ErrUnknown] when no
// such pack exists.
func (r *Registry) Get(id string) (Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.packs[id]
	if !ok {
		return Category{}, fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	c.Words = append([]string(nil), c.Words...)
	return c, nil
}

// All returns every registered pack sorted by ID for stable listings.
func (r *Registry) All() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Category, 0, len(r.packs))
	for _, c := range r.packs {
		c.Words = append([]string(nil), c.Words...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
