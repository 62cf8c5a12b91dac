package service

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTypeRegistryFirstWins(t *testing.T) {
	r := NewTypeRegistry()
	r.Register(1, "Tree")
	r.Register(1, "Shrub")
	r.Register(2, "Bench")

	if name, ok := r.NameOf(1); !ok || name != "Tree" {
		t.Fatalf("NameOf(1) = %q, %v; want Tree", name, ok)
	}
	if name, ok := r.NameOf(2); !ok || name != "Bench" {
		t.Fatalf("NameOf(2) = %q, %v; want Bench", name, ok)
	}
	if _, ok := r.NameOf(99); ok {
		t.Fatal("NameOf(99) should not resolve")
	}
	if n := len(r.Entries()); n != 3 {
		t.Fatalf("entries = %d, want 3 (duplicates accumulate)", n)
	}
}

func TestLayerStoreByName(t *testing.T) {
	s := NewLayerStore()
	s.Add(Layer{Name: "trees", Objects: []GeoObject{{Name: "oak"}}})
	s.Add(Layer{Name: "roads"})
	s.Add(Layer{Name: "trees", Objects: []GeoObject{{Name: "elm"}}})

	l, ok := s.ByName("trees")
	if !ok {
		t.Fatal("trees not found")
	}
	if len(l.Objects) != 1 || l.Objects[0].Name != "oak" {
		t.Fatalf("ByName returned %+v, want the first trees layer", l)
	}
	if _, ok := s.ByName("rivers"); ok {
		t.Fatal("rivers should not resolve")
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d", s.Len())
	}
	if got := s.List()[1].Name; got != "roads" {
		t.Fatalf("List order broken: %q", got)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Street Trees", "street_trees"},
		{"Fietspaden (2024)", "fietspaden_2024"},
		{"already_ok", "already_ok"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEventBus(t *testing.T) {
	b := NewEventBus()
	ch := b.Subscribe()
	b.Publish(Event{Resource: ResourceLayers, Action: ActionLoaded, ID: "trees"})

	ev := <-ch
	if ev.ID != "trees" || ev.Action != ActionLoaded {
		t.Fatalf("unexpected event %+v", ev)
	}

	b.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Fatal("channel should be closed after Unsubscribe")
	}
	b.Unsubscribe(ch) // second call is a no-op

	ch2 := b.Subscribe()
	b.Close()
	if _, open := <-ch2; open {
		t.Fatal("channel should be closed after Close")
	}
	if _, open := <-b.Subscribe(); open {
		t.Fatal("subscribing to a closed bus should yield a closed channel")
	}
	b.Publish(Event{ID: "late"})
}

func TestLayerConfigServicePersists(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLayerConfigService(dir)
	if err != nil {
		t.Fatal(err)
	}

	created, err := s.Create(LayerConfig{Name: "Street Trees", URL: "/trees.json"})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "street_trees" {
		t.Fatalf("ID = %q", created.ID)
	}
	if _, err := s.Create(LayerConfig{Name: "Street Trees", URL: "/other.json"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := s.Create(LayerConfig{Name: "Roads", URL: "/roads.json"}); err != nil {
		t.Fatal(err)
	}

	reloaded, err := NewLayerConfigService(dir)
	if err != nil {
		t.Fatal(err)
	}
	layers := reloaded.List()
	if len(layers) != 2 || layers[0].Name != "Street Trees" || layers[1].URL != "/roads.json" {
		t.Fatalf("reloaded layers = %+v", layers)
	}

	if err := reloaded.Delete("street_trees"); err != nil {
		t.Fatal(err)
	}
	if _, ok := reloaded.Get("Street Trees"); ok {
		t.Fatal("deleted layer still present")
	}
	if err := reloaded.Delete("street_trees"); err == nil {
		t.Fatal("expected not found error")
	}
}

func TestLayerConfigServiceReadsYAML(t *testing.T) {
	dir := t.TempDir()
	data := "layers:\n  - name: Bomen\n    url: /bomen\n  - name: Wegen\n    url: /wegen\n"
	if err := os.WriteFile(filepath.Join(dir, "layers.yaml"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := NewLayerConfigService(dir)
	if err != nil {
		t.Fatal(err)
	}
	l, ok := s.Get("wegen")
	if !ok || l.URL != "/wegen" {
		t.Fatalf("Get(wegen) = %+v, %v", l, ok)
	}

	if err := os.WriteFile(filepath.Join(dir, "layers.yaml"), []byte("layers: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLayerConfigService(dir); err == nil {
		t.Fatal("expected parse error for malformed yaml")
	}
}
