package service

import (
	"strings"
	"sync"
)

// LayerStore owns the normalized layers fetched during a widget session.
// Names are not checked for uniqueness; ByName returns the first match.
type LayerStore struct {
	mu     sync.RWMutex
	layers []Layer
}

// NewLayerStore creates an empty store.
func NewLayerStore() *LayerStore {
	return &LayerStore{}
}

// Add appends a layer.
func (s *LayerStore) Add(layer Layer) {
	s.mu.Lock()
	s.layers = append(s.layers, layer)
	s.mu.Unlock()
}

// ByName returns the first layer with the given name.
func (s *LayerStore) ByName(name string) (Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// List returns the layers in the order they were added.
func (s *LayerStore) List() []Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Len returns the number of stored layers.
func (s *LayerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// Slug creates a URL-safe, class-name-safe identifier from a name.
func Slug(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	// Remove any characters that aren't alphanumeric or underscore
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
