package work

import (
	"sort"
	"sync"
)

// Registry is the catalog of work types known to the processor. Lookup is
// by ID; scheduling order comes from ByPriority.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*WorkType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*WorkType)}
}

// Register adds a work type, replacing any previous registration with the
// same ID.
func (r *Registry) Register(wt *WorkType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[wt.ID] = wt
}

// Get returns the work type with the given ID, or nil.
func (r *Registry) Get(id string) *WorkType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.types[id]
}

// Has reports whether a work type with the given ID is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.types[id]
	return ok
}

// ByPriority returns the registered work types sorted by priority, highest
// first, with ties broken alphabetically by ID. The returned slice is a
// fresh copy; the registry is small enough to sort on every call.
func (r *Registry) ByPriority() []*WorkType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := make([]*WorkType, 0, len(r.types))
	for _, wt := range r.types {
		ordered = append(ordered, wt)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

// Count returns the number of registered work types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.types)
}

// Remove deletes a work type from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.types, id)
}

// IDs returns the registered IDs in alphabetical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
