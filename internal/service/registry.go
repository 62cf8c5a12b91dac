package service

import "sync"

// TypeRegistry accumulates type names as layer data arrives. Registration
// appends; duplicate ids are kept and lookups return the first registered
// entry.
type TypeRegistry struct {
	mu      sync.RWMutex
	entries []TypeEntry
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{}
}

// Register appends an entry.
func (r *TypeRegistry) Register(id int, name string) {
	r.mu.Lock()
	r.entries = append(r.entries, TypeEntry{ID: id, Name: name})
	r.mu.Unlock()
}

// NameOf returns the name of the first entry registered for id.
func (r *TypeRegistry) NameOf(id int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.ID == id {
			return e.Name, true
		}
	}
	return "", false
}

// Entries returns a copy of all entries in registration order.
func (r *TypeRegistry) Entries() []TypeEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TypeEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
