package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/geo-widget/internal/render"
	"github.com/joeblew999/geo-widget/internal/tiles"
)

// TileHandler serves loaded layers as GeoJSON and vector tiles, and manages
// the tile layers shown on the map.
type TileHandler struct {
	svc *Services

	// Layers are immutable once stored and ByName is first-wins, so a
	// collection never goes stale.
	mu          sync.Mutex
	collections map[string]*geojson.FeatureCollection
}

func NewTileHandler(svc *Services) *TileHandler {
	return &TileHandler{svc: svc, collections: map[string]*geojson.FeatureCollection{}}
}

func (h *TileHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/layers/{name}/geojson", h.GetGeoJSON, huma.OperationTags("layers"))
	huma.Get(api, "/tiles/{layer}/{z}/{x}/{y}", h.GetTile, huma.OperationTags("tiles"))
	huma.Post(api, "/api/v1/map/tiles", h.AddTileLayer, huma.OperationTags("map"))
	huma.Delete(api, "/api/v1/map/tiles/{name}", h.DeleteTileLayer, huma.OperationTags("map"))
}

// collection returns the GeoJSON of the layer named or identified by key,
// and the layer name.
func (h *TileHandler) collection(key string) (*geojson.FeatureCollection, string, error) {
	name := h.svc.LayerName(key)
	h.mu.Lock()
	defer h.mu.Unlock()
	if fc, ok := h.collections[name]; ok {
		return fc, name, nil
	}
	layer, ok := h.svc.Widget.Store().ByName(name)
	if !ok {
		return nil, name, render.ErrLayerNotFound
	}
	fc, err := tiles.Collection(layer, h.svc.Widget.Types())
	if err != nil {
		return nil, name, err
	}
	h.collections[name] = fc
	return fc, name, nil
}

type GeoJSONOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func (h *TileHandler) GetGeoJSON(ctx context.Context, input *NameInput) (*GeoJSONOutput, error) {
	fc, _, err := h.collection(input.Name)
	if errors.Is(err, render.ErrLayerNotFound) {
		return nil, huma.Error404NotFound("layer not loaded")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to build collection", err)
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to encode collection", err)
	}
	return &GeoJSONOutput{ContentType: "application/geo+json", Body: data}, nil
}

type TileInput struct {
	Layer string `path:"layer" doc:"Layer name or ID" example:"street_trees"`
	Z     int    `path:"z" doc:"Zoom level"`
	X     int    `path:"x" doc:"Tile column"`
	Y     int    `path:"y" doc:"Tile row"`
}

type TileOutput struct {
	Status          int
	ContentType     string `header:"Content-Type"`
	ContentEncoding string `header:"Content-Encoding"`
	CacheControl    string `header:"Cache-Control"`
	Body            []byte
}

func (h *TileHandler) GetTile(ctx context.Context, input *TileInput) (*TileOutput, error) {
	tile, err := tiles.Tile(input.Z, input.X, input.Y)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	fc, name, err := h.collection(input.Layer)
	if errors.Is(err, render.ErrLayerNotFound) {
		return nil, huma.Error404NotFound("layer not loaded")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to build collection", err)
	}

	data, err := tiles.Build(fc, name, tile)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to build tile", err)
	}
	if data == nil {
		return &TileOutput{Status: http.StatusNoContent}, nil
	}
	return &TileOutput{
		Status:          http.StatusOK,
		ContentType:     "application/vnd.mapbox-vector-tile",
		ContentEncoding: "gzip",
		CacheControl:    "public, max-age=300",
		Body:            data,
	}, nil
}

func (h *TileHandler) AddTileLayer(ctx context.Context, input *struct{ Body render.TileLayer }) (*struct{ Body render.State }, error) {
	if input.Body.Name == "" || input.Body.URL == "" {
		return nil, huma.Error422UnprocessableEntity("tile layer needs a name and url")
	}
	if err := h.svc.Widget.AddTileLayer(input.Body); err != nil {
		return nil, huma.Error503ServiceUnavailable("widget closed")
	}
	return &struct{ Body render.State }{Body: h.svc.Widget.Surface().Snapshot()}, nil
}

func (h *TileHandler) DeleteTileLayer(ctx context.Context, input *struct {
	Name string `path:"name" doc:"Tile layer name"`
}) (*struct{ Body MessageBody }, error) {
	if !h.svc.Widget.RemoveTileLayer(input.Name) {
		return nil, huma.Error404NotFound("tile layer not found")
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Tile layer removed"}}, nil
}
