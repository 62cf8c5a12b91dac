package panel

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/source"
	"github.com/joeblew999/geo-widget/internal/widget"
)

type stubFetcher map[string]*source.Payload

func (f stubFetcher) Fetch(ctx context.Context, url string) (*source.Payload, error) {
	if p, ok := f[url]; ok {
		return p, nil
	}
	return nil, &source.FetchError{URL: url, Status: http.StatusNotFound}
}

func newPanel(t *testing.T) (humatest.TestAPI, *widget.Controller) {
	t.Helper()
	trees := &source.Payload{Data: []source.RawObject{{
		Name:     "Oak",
		Geometry: source.RawGeometry{Type: "Point", Coordinates: []byte(`[4.89, 52.37]`)},
	}}}
	w := widget.New(widget.Config{
		Layers: []service.LayerConfig{{Name: "Trees", URL: "/trees"}, {Name: "Roads", URL: "/roads"}},
	}, zerolog.Nop(), widget.WithFetcher(stubFetcher{"/trees": trees}))
	t.Cleanup(w.Close)
	w.LoadLayers(context.Background())

	api := humatest.Wrap(t, humachi.New(chi.NewMux(), huma.DefaultConfig("test", "1.0.0")))
	New(w, zerolog.Nop()).RegisterRoutes(api)
	return api, w
}

func TestListLayers(t *testing.T) {
	api, _ := newPanel(t)

	resp := api.Get("/api/v1/panel/layers")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{"datastar-patch-elements", "#layer-panel", `id="layer-trees"`, `id="layer-roads"`, "disabled"} {
		if !strings.Contains(body, want) {
			t.Errorf("panel missing %q:\n%s", want, body)
		}
	}
}

func TestToggle(t *testing.T) {
	api, w := newPanel(t)

	resp := api.Post("/api/v1/panel/toggle", map[string]any{"layer": "Trees", "checked": true})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d %s", resp.Code, resp.Body.String())
	}
	if !w.Surface().Active("Trees") {
		t.Fatal("Trees not active")
	}
	body := resp.Body.String()
	if !strings.Contains(body, "map-changed") || !strings.Contains(body, "checked") {
		t.Errorf("toggle response:\n%s", body)
	}
	if !strings.Contains(body, `"success":"Laag getoond: Trees"`) {
		t.Errorf("expected success signal:\n%s", body)
	}

	resp = api.Post("/api/v1/panel/toggle", map[string]any{"layer": "Roads", "checked": true})
	if !strings.Contains(resp.Body.String(), `"error":"Laag is nog niet geladen: Roads"`) {
		t.Errorf("expected error signal:\n%s", resp.Body.String())
	}
	if w.Surface().Active("Roads") {
		t.Error("unloaded layer became active")
	}

	if resp := api.Post("/api/v1/panel/toggle", map[string]any{"checked": true}); resp.Code != http.StatusBadRequest {
		t.Errorf("missing layer status = %d", resp.Code)
	}
}

func TestRenderRowsEmpty(t *testing.T) {
	w := widget.New(widget.Config{}, zerolog.Nop(), widget.WithFetcher(stubFetcher{}))
	defer w.Close()
	h := New(w, zerolog.Nop())
	if got := h.renderRows("layer-row"); !strings.Contains(got, "Geen lagen") {
		t.Errorf("rows = %s", got)
	}
}
