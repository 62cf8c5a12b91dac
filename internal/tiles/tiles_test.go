package tiles

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/maptile"

	"github.com/joeblew999/geo-widget/internal/attribute"
	"github.com/joeblew999/geo-widget/internal/geometry"
	"github.com/joeblew999/geo-widget/internal/service"
)

type names map[int]string

func (n names) NameOf(id int) (string, bool) {
	s, ok := n[id]
	return s, ok
}

// Amsterdam, stored the way the widget keeps it (latitude first).
func trees() service.Layer {
	return service.Layer{Name: "Trees", Objects: []service.GeoObject{
		{
			Name: "Oak", Type: geometry.Point, TypeID: 1,
			Geometry: geometry.Leaf{52.37, 4.89},
			Attributes: []attribute.Attribute{
				{ID: 1, Name: "height", Kind: attribute.Integer, Value: int64(14)},
				{ID: 2, Name: "planted", Kind: attribute.String},
			},
		},
		{
			Name: "Lane", Type: geometry.LineString, TypeID: 2,
			Geometry: geometry.Normalize(geometry.Sequence{geometry.Leaf{4.88, 52.36}, geometry.Leaf{4.90, 52.38}}),
		},
	}}
}

func TestCollection(t *testing.T) {
	fc, err := Collection(trees(), names{1: "Tree"})
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d", len(fc.Features))
	}

	oak := fc.Features[0]
	if oak.Geometry != (orb.Point{4.89, 52.37}) {
		t.Errorf("oak geometry = %v, want lon/lat", oak.Geometry)
	}
	if oak.Properties["name"] != "Oak" || oak.Properties["type"] != "Tree" || oak.Properties["height"] != int64(14) {
		t.Errorf("oak properties = %v", oak.Properties)
	}
	if _, ok := oak.Properties["planted"]; ok {
		t.Error("null attribute should be left out")
	}
	if _, ok := fc.Features[1].Properties["type"]; ok {
		t.Error("unregistered type should have no name")
	}

	lane := fc.Features[1].Geometry.(orb.LineString)
	if lane[0] != (orb.Point{4.88, 52.36}) {
		t.Errorf("lane start = %v", lane[0])
	}

	b := Bound(fc)
	if b.Min != (orb.Point{4.88, 52.36}) || b.Max != (orb.Point{4.90, 52.38}) {
		t.Errorf("bound = %v", b)
	}
}

func TestTile(t *testing.T) {
	tests := []struct {
		z, x, y int
		ok      bool
	}{
		{0, 0, 0, true},
		{14, 8414, 5384, true},
		{1, 2, 0, false},
		{-1, 0, 0, false},
		{23, 0, 0, false},
		{3, 0, -1, false},
	}
	for _, tt := range tests {
		_, err := Tile(tt.z, tt.x, tt.y)
		if (err == nil) != tt.ok {
			t.Errorf("Tile(%d,%d,%d) err = %v", tt.z, tt.x, tt.y, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidTile) {
			t.Errorf("err = %v, want ErrInvalidTile", err)
		}
	}
}

func TestBuild(t *testing.T) {
	fc, err := Collection(trees(), nil)
	if err != nil {
		t.Fatal(err)
	}

	tile := maptile.At(orb.Point{4.89, 52.37}, 14)
	data, err := Build(fc, "Trees", tile)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected tile data")
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	layers, err := mvt.Unmarshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(layers) != 1 || layers[0].Name != "Trees" {
		t.Fatalf("layers = %v", layers)
	}
	if len(layers[0].Features) == 0 {
		t.Error("no features in tile")
	}

	// Source features are not modified by clipping.
	if fc.Features[0].Geometry != (orb.Point{4.89, 52.37}) {
		t.Errorf("source mutated: %v", fc.Features[0].Geometry)
	}

	far := maptile.At(orb.Point{-70, -40}, 14)
	data, err = Build(fc, "Trees", far)
	if err != nil || data != nil {
		t.Errorf("far tile = %d bytes, %v", len(data), err)
	}
}
