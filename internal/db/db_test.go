package db

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/joeblew999/geo-widget/internal/attribute"
	"github.com/joeblew999/geo-widget/internal/geometry"
	"github.com/joeblew999/geo-widget/internal/service"
)

type names map[int]string

func (n names) NameOf(id int) (string, bool) {
	s, ok := n[id]
	return s, ok
}

func openTest(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), Config{DataDir: t.TempDir()}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestArchive(t *testing.T) {
	d := openTest(t)
	ctx := context.Background()

	layer := service.Layer{Name: "Trees", Objects: []service.GeoObject{
		{
			Name: "Oak", Type: geometry.Point, TypeID: 1,
			Geometry:   geometry.Leaf{52.37, 4.89},
			Attributes: []attribute.Attribute{{ID: 1, Name: "height", Kind: attribute.Integer, Value: int64(14)}},
		},
		{Name: "Elm", Type: geometry.Point, TypeID: 9, Geometry: geometry.Leaf{52.0, 4.0}},
	}}

	n, err := d.Archive(ctx, layer, names{1: "Tree"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("archived %d rows", n)
	}

	// Archiving again replaces rather than duplicates.
	if _, err := d.Archive(ctx, layer, names{1: "Tree"}); err != nil {
		t.Fatal(err)
	}

	res, err := d.Query(ctx, "SELECT name, type_name, wkt, attributes FROM geo_objects WHERE layer = ? ORDER BY idx", "Trees")
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 2 {
		t.Fatalf("rows = %d, want 2", res.Count)
	}
	oak := res.Rows[0]
	if oak["name"] != "Oak" || oak["type_name"] != "Tree" {
		t.Errorf("oak = %v", oak)
	}
	if wkt, _ := oak["wkt"].(string); !strings.HasPrefix(wkt, "POINT") || !strings.Contains(wkt, "4.89 52.37") {
		t.Errorf("wkt = %v", oak["wkt"])
	}
	if oak["attributes"] != `{"height":14}` {
		t.Errorf("attributes = %v", oak["attributes"])
	}
	if res.Rows[1]["type_name"] != nil {
		t.Errorf("unknown type name = %v, want NULL", res.Rows[1]["type_name"])
	}
}

func TestTables(t *testing.T) {
	d := openTest(t)
	tables, err := d.Tables(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(tables, Table) {
		t.Errorf("tables = %v", tables)
	}
}

func TestQueryError(t *testing.T) {
	d := openTest(t)
	if _, err := d.Query(context.Background(), "SELECT * FROM nope"); err == nil {
		t.Fatal("expected error for missing table")
	}
}
