// Package render materializes layers as map primitives and tracks which
// layers are currently shown on the map surface.
package render

import (
	"fmt"

	"github.com/joeblew999/geo-widget/internal/geometry"
)

// Kind is the map primitive constructed for an object.
type Kind string

const (
	Marker   Kind = "marker"
	Polyline Kind = "polyline"
	Polygon  Kind = "polygon"
)

// KindFor maps a geometry type onto the primitive that draws it.
func KindFor(t geometry.Type) (Kind, error) {
	switch t {
	case geometry.Point:
		return Marker, nil
	case geometry.LineString:
		return Polyline, nil
	case geometry.Polygon:
		return Polygon, nil
	}
	return "", fmt.Errorf("no primitive for geometry type %q", t)
}

// Primitive is one drawable map object with its style class and popup.
// LatLngs is in render order (latitude first), ready for the map surface.
type Primitive struct {
	ID        string          `json:"id" doc:"Primitive identifier, unique per activation"`
	Kind      Kind            `json:"kind" enum:"marker,polyline,polygon" doc:"Primitive type"`
	Layer     string          `json:"layer" doc:"Layer the primitive belongs to"`
	Title     string          `json:"title" doc:"Object name"`
	LatLngs   geometry.Coords `json:"latlngs" doc:"Coordinates in latitude, longitude order"`
	ClassName string          `json:"className" doc:"Space separated style classes"`
	Popup     string          `json:"popup" doc:"Popup HTML"`
	SearchKey string          `json:"-"`
}

// Group is the set of primitives shown for one active layer.
type Group struct {
	ID         string       `json:"id" doc:"Activation identifier"`
	Layer      string       `json:"layer" doc:"Layer name"`
	Primitives []*Primitive `json:"primitives" doc:"Primitives in object order"`
}
