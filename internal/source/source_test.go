package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/joeblew999/geo-widget/internal/geometry"
	"github.com/joeblew999/geo-widget/internal/service"
)

const treesPayload = `{
  "data": [
    {"name": "Oak 12", "type_id": 1,
     "geometry": {"type": "Point", "coordinates": [4.89, 52.37]},
     "attributes": [
       {"id": 1, "name": "height", "type": "integer", "value": 14},
       {"id": 2, "name": "protected", "type": "boolean", "value": true}
     ]},
    {"name": "Lane", "type_id": 2,
     "geometry": {"type": "LineString", "coordinates": [[4.0, 52.0], [4.1, 52.1]]}}
  ],
  "meta": {"2": "Path", "1": "Tree"}
}`

func TestIngest(t *testing.T) {
	p, err := Decode([]byte(treesPayload))
	if err != nil {
		t.Fatal(err)
	}
	reg := service.NewTypeRegistry()
	layer, err := Ingest("trees", p, reg)
	if err != nil {
		t.Fatal(err)
	}

	if layer.Name != "trees" || len(layer.Objects) != 2 {
		t.Fatalf("layer = %+v", layer)
	}
	oak := layer.Objects[0]
	if oak.Type != geometry.Point || oak.TypeID != 1 {
		t.Fatalf("oak = %+v", oak)
	}
	if !reflect.DeepEqual(oak.Geometry, geometry.Leaf{52.37, 4.89}) {
		t.Fatalf("oak geometry = %v, want lat/lon order", oak.Geometry)
	}
	if oak.Attributes[0].Value != int64(14) || oak.Attributes[1].Value != true {
		t.Fatalf("oak attributes = %+v", oak.Attributes)
	}
	lane := layer.Objects[1]
	want := geometry.Sequence{geometry.Leaf{52.1, 4.1}, geometry.Leaf{52.0, 4.0}}
	if !reflect.DeepEqual(lane.Geometry, want) {
		t.Fatalf("lane geometry = %v, want %v", lane.Geometry, want)
	}
	if len(lane.Attributes) != 0 {
		t.Fatalf("lane attributes = %+v", lane.Attributes)
	}

	entries := reg.Entries()
	if len(entries) != 2 || entries[0].ID != 1 || entries[1].Name != "Path" {
		t.Fatalf("registered types = %+v", entries)
	}
}

func TestIngestRejectsWithoutRegistering(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad geometry type", `{"data":[{"name":"x","geometry":{"type":"Circle","coordinates":[1,2]}}],"meta":{"1":"A"}}`},
		{"bad depth", `{"data":[{"name":"x","geometry":{"type":"Polygon","coordinates":[1,2]}}],"meta":{"1":"A"}}`},
		{"bad meta key", `{"data":[],"meta":{"one":"A"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode([]byte(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			reg := service.NewTypeRegistry()
			if _, err := Ingest("x", p, reg); !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
			if n := len(reg.Entries()); n != 0 {
				t.Fatalf("registered %d types for a rejected payload", n)
			}
		})
	}
}

func TestIngestUnusableAttributeValue(t *testing.T) {
	p, err := Decode([]byte(`{"data":[
		{"name":"a","type_id":1,"geometry":{"type":"Point","coordinates":[1,2]},
		 "attributes":[{"id":1,"name":"lit","type":"boolean","value":true}]},
		{"name":"b","type_id":1,"geometry":{"type":"Point","coordinates":[3,4]},
		 "attributes":[{"id":1,"name":"lit","type":"boolean","value":1},
		               {"id":2,"name":"n","type":"integer","value":"abc"}]}
	],"meta":{"1":"Lamp"}}`))
	if err != nil {
		t.Fatal(err)
	}
	reg := service.NewTypeRegistry()
	layer, err := Ingest("lamps", p, reg)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(layer.Objects) != 2 {
		t.Fatalf("objects = %d, want 2", len(layer.Objects))
	}
	if v := layer.Objects[0].Attributes[0].Value; v != true {
		t.Errorf("a.lit = %#v, want true", v)
	}
	for i, a := range layer.Objects[1].Attributes {
		if a.Value != nil {
			t.Errorf("b attribute %d = %#v, want nil", i, a.Value)
		}
	}
	if name, ok := reg.NameOf(1); !ok || name != "Lamp" {
		t.Errorf("NameOf(1) = %q, %v", name, ok)
	}
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trees":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(treesPayload))
		case "/broken":
			w.Write([]byte(`{"data": [`))
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(200*time.Millisecond, zerolog.Nop())
	ctx := context.Background()

	p, err := c.Fetch(ctx, srv.URL+"/trees")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Data) != 2 || p.Meta["1"] != "Tree" {
		t.Fatalf("payload = %+v", p)
	}

	var fe *FetchError
	_, err = c.Fetch(ctx, srv.URL+"/missing")
	if !errors.As(err, &fe) || fe.Status != http.StatusNotFound {
		t.Fatalf("missing: err = %v", err)
	}

	_, err = c.Fetch(ctx, srv.URL+"/broken")
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("broken: err = %v, want ErrMalformed", err)
	}

	_, err = c.Fetch(ctx, srv.URL+"/slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("slow: err = %v, want deadline exceeded", err)
	}
}
