// Package geometry holds the coordinate model for layer objects and the
// axis-order correction applied when records are ingested.
//
// The remote source delivers coordinates as (longitude, latitude), or nested
// collections of them for lines and polygons. The map surface expects
// (latitude, longitude). Coordinates are modelled as a tagged union of
// [Leaf] and [Sequence] so that [Normalize] can be a pure function.
package geometry

import (
	"encoding/json"
	"fmt"
)

// Coords is either a Leaf or a Sequence.
type Coords interface {
	isCoords()
}

// Leaf is a single coordinate tuple, usually a pair.
type Leaf []float64

// Sequence is an ordered collection of nested coordinate structures.
type Sequence []Coords

func (Leaf) isCoords()     {}
func (Sequence) isCoords() {}

// Normalize converts source axis order into render order.
//
// A leaf has its elements reversed. A sequence has the order of its children
// reversed and each child normalized recursively. The input is never
// modified. Normalize is its own inverse: Normalize(Normalize(c)) equals c.
func Normalize(c Coords) Coords {
	switch v := c.(type) {
	case Leaf:
		out := make(Leaf, len(v))
		for i, f := range v {
			out[len(v)-1-i] = f
		}
		return out
	case Sequence:
		out := make(Sequence, len(v))
		for i, child := range v {
			out[len(v)-1-i] = Normalize(child)
		}
		return out
	default:
		return nil
	}
}

// Depth returns the nesting depth: 0 for a leaf, 1 for a sequence of leaves.
// An empty sequence has depth 1.
func Depth(c Coords) int {
	switch v := c.(type) {
	case Leaf:
		return 0
	case Sequence:
		if len(v) == 0 {
			return 1
		}
		return Depth(v[0]) + 1
	default:
		return -1
	}
}

// Parse decodes a JSON coordinate structure.
func Parse(raw json.RawMessage) (Coords, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding coordinates: %w", err)
	}
	return FromAny(v)
}

// FromAny converts a decoded JSON value ([]any of float64 or json.Number)
// into Coords. An array whose first element is a number is a leaf.
func FromAny(v any) (Coords, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("coordinates must be an array, got %T", v)
	}
	if len(arr) > 0 {
		if _, isNum := number(arr[0]); isNum {
			leaf := make(Leaf, len(arr))
			for i, e := range arr {
				f, ok := number(e)
				if !ok {
					return nil, fmt.Errorf("coordinate component %d is %T, not a number", i, e)
				}
				leaf[i] = f
			}
			return leaf, nil
		}
	}
	seq := make(Sequence, len(arr))
	for i, e := range arr {
		child, err := FromAny(e)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		seq[i] = child
	}
	return seq, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
