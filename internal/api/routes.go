// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-widget/internal/humastar"
	"github.com/joeblew999/geo-widget/internal/render"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/widget"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// Services holds the dependencies for API handlers.
type Services struct {
	Widget  *widget.Controller
	Configs *service.LayerConfigService
}

// LayerName resolves key, a configured layer ID or name, to the layer name.
// Unknown keys are returned unchanged.
func (s *Services) LayerName(key string) string {
	if s.Configs != nil {
		if lc, ok := s.Configs.Get(key); ok {
			return lc.Name
		}
	}
	return key
}

// Types

type NameInput struct {
	Name string `path:"name" doc:"Layer name or ID" example:"street_trees"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

// LayerBody is a configured layer with its loading state and the objects of
// the loaded data.
type LayerBody struct {
	widget.LayerStatus
	Data []service.GeoObject `json:"data" doc:"Normalized objects (latitude first)"`
}

var (
	activateAction   = humastar.ActionDef{Rel: "activate", Pattern: "/api/v1/layers/%s/active", Method: "PUT", Title: "Show layer"}
	deactivateAction = humastar.ActionDef{Rel: "deactivate", Pattern: "/api/v1/layers/%s/active", Method: "PUT", Title: "Hide layer"}
	geojsonAction    = humastar.ActionDef{Rel: "alternate", Pattern: "/api/v1/layers/%s/geojson", Method: "GET", Title: "GeoJSON"}
)

// Actions offers the toggle matching the current state.
func (b LayerBody) Actions() []humastar.Action {
	id := url.PathEscape(b.Name)
	if !b.Loaded {
		return nil
	}
	if b.Active {
		return humastar.ActionsFor(id, deactivateAction, geojsonAction)
	}
	return humastar.ActionsFor(id, activateAction, geojsonAction)
}

type ActiveInput struct {
	NameInput
	Body struct {
		Active bool `json:"active" doc:"Show (true) or hide (false) the layer"`
	}
}

type CreatedLayerBody struct {
	Layer   widget.LayerStatus `json:"layer" doc:"Created layer"`
	Error   string             `json:"error,omitempty" doc:"Fetch failure, if the layer could not be loaded"`
	Message string             `json:"message" doc:"Result message"`
}

type SearchInput struct {
	Query  string `query:"q" doc:"Case-insensitive prefix of the search key" example:"oak"`
	Offset int    `query:"offset" minimum:"0" default:"0" doc:"Items to skip"`
	Limit  int    `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Page size"`
}

// Handler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type Handler struct {
	svc *Services
}

func NewHandler(svc *Services) *Handler {
	return &Handler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *Handler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterLayers registers layer routes.
func (h *Handler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers", h.CreateLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{name}", h.GetLayer, huma.OperationTags("layers"))
	huma.Delete(api, "/api/v1/layers/{name}", h.DeleteLayer, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/{name}/active", h.PutActive, huma.OperationTags("layers"))
}

// RegisterMap registers map state and type routes.
func (h *Handler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/types", h.GetTypes, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/search", h.Search, huma.OperationTags("map"))
}

// Handlers

func (h *Handler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *Handler) GetLayers(ctx context.Context, input *struct{}) (*struct{ Body []widget.LayerStatus }, error) {
	return &struct{ Body []widget.LayerStatus }{Body: h.svc.Widget.Status()}, nil
}

// status resolves a layer by configured name or ID.
func (h *Handler) status(key string) (widget.LayerStatus, bool) {
	name := h.svc.LayerName(key)
	for _, st := range h.svc.Widget.Status() {
		if st.Name == name {
			return st, true
		}
	}
	return widget.LayerStatus{}, false
}

func (h *Handler) GetLayer(ctx context.Context, input *NameInput) (*struct{ Body LayerBody }, error) {
	st, ok := h.status(input.Name)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	body := LayerBody{LayerStatus: st, Data: []service.GeoObject{}}
	if l, ok := h.svc.Widget.Store().ByName(st.Name); ok {
		body.Data = l.Objects
	}
	return &struct{ Body LayerBody }{Body: body}, nil
}

func (h *Handler) CreateLayer(ctx context.Context, input *struct{ Body service.LayerConfig }) (*struct{ Body CreatedLayerBody }, error) {
	if h.svc.Configs == nil {
		return nil, huma.Error503ServiceUnavailable("layer configuration not available")
	}
	created, err := h.svc.Configs.Create(input.Body)
	if err != nil {
		return nil, huma.Error409Conflict(err.Error())
	}

	out := CreatedLayerBody{Message: "Layer created"}
	if err := h.svc.Widget.AddLayer(ctx, created); err != nil {
		if errors.Is(err, widget.ErrClosed) {
			return nil, huma.Error503ServiceUnavailable("widget closed")
		}
		out.Error = err.Error()
		out.Message = "Layer created, loading failed"
	}
	out.Layer, _ = h.status(created.Name)
	return &struct{ Body CreatedLayerBody }{Body: out}, nil
}

func (h *Handler) DeleteLayer(ctx context.Context, input *NameInput) (*struct{ Body MessageBody }, error) {
	st, ok := h.status(input.Name)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	if h.svc.Configs != nil {
		if lc, ok := h.svc.Configs.Get(st.Name); ok {
			if err := h.svc.Configs.Delete(lc.ID); err != nil {
				return nil, huma.Error500InternalServerError("failed to delete layer", err)
			}
		}
	}
	h.svc.Widget.RemoveLayer(st.Name)
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Layer deleted"}}, nil
}

func (h *Handler) PutActive(ctx context.Context, input *ActiveInput) (*struct{ Body LayerBody }, error) {
	st, ok := h.status(input.Name)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	if err := h.svc.Widget.OnToggle(st.Name, input.Body.Active); err != nil {
		switch {
		case errors.Is(err, render.ErrLayerNotFound):
			return nil, huma.Error409Conflict("layer is not loaded")
		case errors.Is(err, widget.ErrClosed):
			return nil, huma.Error503ServiceUnavailable("widget closed")
		}
		return nil, huma.Error500InternalServerError("toggle failed", err)
	}
	st, _ = h.status(st.Name)
	return &struct{ Body LayerBody }{Body: LayerBody{LayerStatus: st}}, nil
}

func (h *Handler) GetMap(ctx context.Context, input *struct{}) (*struct{ Body render.State }, error) {
	return &struct{ Body render.State }{Body: h.svc.Widget.Surface().Snapshot()}, nil
}

func (h *Handler) GetTypes(ctx context.Context, input *struct{}) (*struct{ Body []service.TypeEntry }, error) {
	return &struct{ Body []service.TypeEntry }{Body: h.svc.Widget.Types().Entries()}, nil
}

func (h *Handler) Search(ctx context.Context, input *SearchInput) (*struct {
	Body humastar.PageBody[*render.Primitive]
}, error) {
	items, total := h.svc.Widget.Search().Search(input.Query, input.Offset, input.Limit)
	if items == nil {
		items = []*render.Primitive{}
	}
	return &struct {
		Body humastar.PageBody[*render.Primitive]
	}{Body: humastar.PageBody[*render.Primitive]{
		Total: total, Offset: input.Offset, Limit: input.Limit, Data: items,
	}}, nil
}
