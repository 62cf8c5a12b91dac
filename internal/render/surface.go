package render

import "sync"

// TileLayer is a named vector tile layer drawn beneath the primitives.
type TileLayer struct {
	Name string `json:"name" doc:"Tile layer name"`
	URL  string `json:"url" doc:"Tile URL template with {z}/{x}/{y}"`
}

// View is the map's anchor and initial viewport.
type View struct {
	Anchor string     `json:"anchor" doc:"CSS selector of the map container" example:"#map"`
	Center [2]float64 `json:"center" doc:"Latitude, longitude"`
	Zoom   int        `json:"zoom" doc:"Initial zoom level"`
}

// State is a snapshot of the surface.
type State struct {
	View       View        `json:"view"`
	TileLayers []TileLayer `json:"tileLayers"`
	Groups     []*Group    `json:"groups"`
}

// Surface is the live map state: its active-layers collection and the
// vector tile layers beneath it.
type Surface struct {
	mu     sync.RWMutex
	view   View
	tiles  []TileLayer
	groups []*Group
}

// NewSurface creates a surface bound to view.
func NewSurface(view View) *Surface {
	return &Surface{view: view}
}

// AddGroup attaches a group to the active-layers collection.
func (s *Surface) AddGroup(g *Group) {
	s.mu.Lock()
	s.groups = append(s.groups, g)
	s.mu.Unlock()
}

// RemoveGroups detaches every group tagged with layer and returns them.
func (s *Surface) RemoveGroups(layer string) []*Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*Group
	kept := s.groups[:0]
	for _, g := range s.groups {
		if g.Layer == layer {
			removed = append(removed, g)
			continue
		}
		kept = append(kept, g)
	}
	for i := len(kept); i < len(s.groups); i++ {
		s.groups[i] = nil
	}
	s.groups = kept
	return removed
}

// Groups returns the active groups in activation order.
func (s *Surface) Groups() []*Group {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Active reports whether any group is tagged with layer.
func (s *Surface) Active(layer string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.Layer == layer {
			return true
		}
	}
	return false
}

// PrimitiveCount counts primitives of layer currently on the surface.
func (s *Surface) PrimitiveCount(layer string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, g := range s.groups {
		if g.Layer == layer {
			n += len(g.Primitives)
		}
	}
	return n
}

// AddTileLayer adds or replaces a named vector tile layer.
func (s *Surface) AddTileLayer(t TileLayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.tiles {
		if existing.Name == t.Name {
			s.tiles[i] = t
			return
		}
	}
	s.tiles = append(s.tiles, t)
}

// RemoveTileLayer removes a named vector tile layer.
func (s *Surface) RemoveTileLayer(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tiles {
		if t.Name == name {
			s.tiles = append(s.tiles[:i:i], s.tiles[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns the current state.
func (s *Surface) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		View:       s.view,
		TileLayers: make([]TileLayer, len(s.tiles)),
		Groups:     make([]*Group, len(s.groups)),
	}
	copy(st.TileLayers, s.tiles)
	copy(st.Groups, s.groups)
	return st
}
