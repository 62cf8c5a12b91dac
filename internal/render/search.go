package render

import (
	"strings"
	"sync"

	"github.com/google/btree"
)

type searchEntry struct {
	key string
	id  string
	p   *Primitive
}

func lessEntry(a, b searchEntry) bool {
	if a.key != b.key {
		return a.key < b.key
	}
	return a.id < b.id
}

// SearchIndex is the shared search collection. Primitives are ordered by
// their lowercased search key for prefix lookups.
type SearchIndex struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[searchEntry]
	byID map[string]searchEntry
}

// NewSearchIndex creates an empty index.
func NewSearchIndex() *SearchIndex {
	return &SearchIndex{
		tree: btree.NewG(8, lessEntry),
		byID: make(map[string]searchEntry),
	}
}

// Add indexes p under p.SearchKey, falling back to its title.
func (s *SearchIndex) Add(p *Primitive) {
	key := p.SearchKey
	if key == "" {
		key = p.Title
	}
	e := searchEntry{key: strings.ToLower(key), id: p.ID, p: p}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byID[p.ID]; ok {
		s.tree.Delete(old)
	}
	s.tree.ReplaceOrInsert(e)
	s.byID[p.ID] = e
}

// Remove drops the primitive with the given id.
func (s *SearchIndex) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.byID[id]; ok {
		s.tree.Delete(e)
		delete(s.byID, id)
	}
}

// Len returns the number of indexed primitives.
func (s *SearchIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// Search returns primitives whose key starts with prefix (case-insensitive),
// ordered by key, skipping offset matches and returning at most limit. The
// total number of matches is returned as well. limit <= 0 means no limit.
func (s *SearchIndex) Search(prefix string, offset, limit int) ([]*Primitive, int) {
	prefix = strings.ToLower(prefix)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Primitive
	total := 0
	s.tree.AscendGreaterOrEqual(searchEntry{key: prefix}, func(e searchEntry) bool {
		if !strings.HasPrefix(e.key, prefix) {
			return false
		}
		if total >= offset && (limit <= 0 || len(out) < limit) {
			out = append(out, e.p)
		}
		total++
		return true
	})
	return out, total
}
