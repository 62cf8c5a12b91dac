// Package tiles builds Mapbox Vector Tiles from stored layers so a loaded
// layer can be shown as a named vector tile layer.
//
// Layer objects are kept in latitude, longitude order for the map surface;
// everything here works in GeoJSON order (longitude first).
package tiles

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/joeblew999/geo-widget/internal/geometry"
	"github.com/joeblew999/geo-widget/internal/service"
)

// MaxZoom is the deepest zoom level tiles are generated for.
const MaxZoom = 22

// ErrInvalidTile is returned for coordinates outside the tile pyramid.
var ErrInvalidTile = errors.New("invalid tile coordinates")

// TypeNamer resolves object type ids.
type TypeNamer interface {
	NameOf(id int) (string, bool)
}

// Collection converts a layer to a GeoJSON feature collection. Each feature
// carries the object name, type id and name, and its attribute values.
func Collection(layer service.Layer, types TypeNamer) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for i, obj := range layer.Objects {
		g, err := geometry.FromNormalized(obj.Type, obj.Geometry)
		if err != nil {
			return nil, fmt.Errorf("object %d (%q): %w", i, obj.Name, err)
		}
		f := geojson.NewFeature(g)
		f.Properties["name"] = obj.Name
		f.Properties["type_id"] = obj.TypeID
		if types != nil {
			if name, ok := types.NameOf(obj.TypeID); ok {
				f.Properties["type"] = name
			}
		}
		for _, a := range obj.Attributes {
			// mvt cannot encode null values
			if a.Value == nil {
				continue
			}
			if _, taken := f.Properties[a.Name]; !taken {
				f.Properties[a.Name] = a.Value
			}
		}
		fc.Append(f)
	}
	return fc, nil
}

// Bound returns the extent of all features, or an empty bound.
func Bound(fc *geojson.FeatureCollection) orb.Bound {
	var b orb.Bound
	for i, f := range fc.Features {
		if i == 0 {
			b = f.Geometry.Bound()
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b
}

// Tile validates z/x/y and returns the maptile.
func Tile(z, x, y int) (maptile.Tile, error) {
	if z < 0 || z > MaxZoom || x < 0 || y < 0 {
		return maptile.Tile{}, ErrInvalidTile
	}
	n := 1 << uint(z)
	if x >= n || y >= n {
		return maptile.Tile{}, ErrInvalidTile
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}

// Build encodes the features intersecting tile as a gzipped MVT with a single
// layer called name. It returns nil when nothing remains after clipping.
func Build(fc *geojson.FeatureCollection, name string, tile maptile.Tile) ([]byte, error) {
	out := geojson.NewFeatureCollection()
	tileBound := tile.Bound()

	for _, f := range fc.Features {
		if !intersects(f.Geometry, tileBound) {
			continue
		}
		// Clip and ProjectToTile mutate geometry in place.
		clone := geojson.NewFeature(orb.Clone(f.Geometry))
		for k, v := range f.Properties {
			clone.Properties[k] = v
		}
		out.Append(clone)
	}
	if len(out.Features) == 0 {
		return nil, nil
	}

	layer := mvt.NewLayer(name, out)
	if epsilon := simplifyEpsilon(tile.Z); epsilon > 0 {
		layer.Simplify(simplify.DouglasPeucker(epsilon))
	}
	layer.Clip(tileBound)
	layer.ProjectToTile(tile)
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil, nil
	}

	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil, fmt.Errorf("encoding tile %d/%d/%d: %w", tile.Z, tile.X, tile.Y, err)
	}
	return data, nil
}

// intersects refines the bounding box check for points and polygons.
func intersects(g orb.Geometry, b orb.Bound) bool {
	if !g.Bound().Intersects(b) {
		return false
	}

	switch g := g.(type) {
	case orb.Point:
		return b.Contains(g)
	case orb.Polygon:
		for _, ring := range g {
			for _, p := range ring {
				if b.Contains(p) {
					return true
				}
			}
		}
		corners := []orb.Point{
			b.Min, {b.Max[0], b.Min[1]}, b.Max, {b.Min[0], b.Max[1]}, b.Center(),
		}
		for _, p := range corners {
			if planar.PolygonContains(g, p) {
				return true
			}
		}
		return false
	default:
		// lines crossing the tile without a vertex inside still count
		return true
	}
}

// simplifyEpsilon returns the Douglas-Peucker tolerance in degrees.
func simplifyEpsilon(zoom maptile.Zoom) float64 {
	switch {
	case zoom >= 16:
		return 0
	case zoom >= 12:
		return 0.00001
	case zoom >= 8:
		return 0.0001
	default:
		return 0.001
	}
}
