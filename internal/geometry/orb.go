package geometry

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// Type is the geometry type of a layer object.
type Type string

const (
	Point      Type = "point"
	LineString Type = "linestring"
	Polygon    Type = "polygon"
)

// ParseType accepts GeoJSON-style ("LineString") or lowercase names.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Point:
		return Point, nil
	case LineString:
		return LineString, nil
	case Polygon:
		return Polygon, nil
	}
	return "", fmt.Errorf("unsupported geometry type %q", s)
}

// ToOrb builds an orb geometry, reading each leaf as (x, y). Pass source
// ordered coordinates (longitude first) to get a GeoJSON compatible result.
func ToOrb(t Type, c Coords) (orb.Geometry, error) {
	switch t {
	case Point:
		leaf, ok := c.(Leaf)
		if !ok {
			return nil, fmt.Errorf("point needs a coordinate pair, got depth %d", Depth(c))
		}
		return toPoint(leaf)
	case LineString:
		pts, err := toPoints(c)
		if err != nil {
			return nil, err
		}
		return orb.LineString(pts), nil
	case Polygon:
		seq, ok := c.(Sequence)
		if !ok {
			return nil, fmt.Errorf("polygon needs a sequence of rings")
		}
		poly := make(orb.Polygon, 0, len(seq))
		for i, ring := range seq {
			pts, err := toPoints(ring)
			if err != nil {
				return nil, fmt.Errorf("ring %d: %w", i, err)
			}
			poly = append(poly, orb.Ring(pts))
		}
		return poly, nil
	}
	return nil, fmt.Errorf("unsupported geometry type %q", t)
}

func toPoints(c Coords) ([]orb.Point, error) {
	seq, ok := c.(Sequence)
	if !ok {
		return nil, fmt.Errorf("expected a sequence of points, got depth %d", Depth(c))
	}
	pts := make([]orb.Point, 0, len(seq))
	for i, e := range seq {
		leaf, ok := e.(Leaf)
		if !ok {
			return nil, fmt.Errorf("element %d is not a coordinate pair", i)
		}
		p, err := toPoint(leaf)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func toPoint(l Leaf) (orb.Point, error) {
	if len(l) < 2 {
		return orb.Point{}, fmt.Errorf("coordinate has %d components", len(l))
	}
	return orb.Point{l[0], l[1]}, nil
}

// Validate checks that c has the nesting depth t requires.
func Validate(t Type, c Coords) error {
	_, err := ToOrb(t, c)
	return err
}

// FromNormalized converts axis-corrected coordinates back to an orb geometry
// in longitude, latitude order. Normalize is its own inverse.
func FromNormalized(t Type, c Coords) (orb.Geometry, error) {
	return ToOrb(t, Normalize(c))
}

// WKT renders axis-corrected coordinates as well-known text.
func WKT(t Type, c Coords) (string, error) {
	g, err := FromNormalized(t, c)
	if err != nil {
		return "", err
	}
	return wkt.MarshalString(g), nil
}
