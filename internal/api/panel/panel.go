// Package panel contains the Datastar SSE handlers for the layer panel: one
// checkbox row per configured layer, toggles and a live event stream.
package panel

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"

	"github.com/joeblew999/geo-widget/internal/humastar"
	"github.com/joeblew999/geo-widget/internal/render"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/widget"
)

// RowData feeds the layer row template.
type RowData struct {
	ID      string
	Name    string
	Checked bool
	Loaded  bool
	Objects int
}

// Handler serves the layer panel.
type Handler struct {
	humastar.Handler
	widget *widget.Controller
	log    zerolog.Logger
}

// New creates a panel handler for w.
func New(w *widget.Controller, log zerolog.Logger) *Handler {
	return &Handler{
		Handler: humastar.Handler{Templates: w.Templates()},
		widget:  w,
		log:     log.With().Str("component", "panel").Logger(),
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/panel/layers", h.ListLayers, huma.OperationTags("panel"))
	huma.Post(api, "/api/v1/panel/toggle", h.Toggle, huma.OperationTags("panel"))
	huma.Get(api, "/api/v1/panel/events", h.Events, huma.OperationTags("panel"))
}

// ListLayers renders every row into the panel.
func (h *Handler) ListLayers(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		h.patchRows(sse)
	}), nil
}

// Toggle handles a checkbox change. Datastar posts the {layer, checked}
// signals set by the row template.
func (h *Handler) Toggle(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	name := signals.String("layer")
	if name == "" {
		return nil, huma.Error400BadRequest("layer is required")
	}
	checked := signals.Bool("checked")

	return h.Stream(func(sse humastar.SSE) {
		if err := h.widget.OnToggle(name, checked); err != nil {
			switch {
			case errors.Is(err, render.ErrLayerNotFound):
				sse.Error("Laag is nog niet geladen: " + name)
			default:
				sse.Error(err.Error())
			}
			h.patchRows(sse)
			return
		}
		h.patchRows(sse)
		if checked {
			sse.Success("Laag getoond: " + name)
		} else {
			sse.Success("Laag verborgen: " + name)
		}
		sse.DispatchCustomEvent("map-changed", map[string]any{
			"layer": name, "active": checked,
		})
	}), nil
}

// Events streams widget events: row refreshes and map-changed events for
// layer changes, and a blocking alert for load failures.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		bus := h.widget.Bus()
		ch := bus.Subscribe()
		defer bus.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				h.send(sse, ev)
			}
		}
	}), nil
}

func (h *Handler) send(sse humastar.SSE, ev service.Event) {
	switch ev.Resource {
	case service.ResourceNotices:
		if ev.Action == service.ActionFailed {
			sse.Alert(ev.Message)
		}
	case service.ResourceLayers:
		h.patchRows(sse)
		sse.DispatchCustomEvent("map-changed", map[string]any{
			"layer": ev.ID, "action": ev.Action,
		})
	default:
		h.log.Debug().Str("resource", ev.Resource).Msg("event ignored")
	}
}

func (h *Handler) patchRows(sse humastar.SSE) {
	cfg := h.widget.Config()
	sse.Patch(h.renderRows(cfg.RowTemplate), cfg.PanelSelector)
}

func (h *Handler) renderRows(tmpl string) string {
	status := h.widget.Status()
	items := make([]any, 0, len(status))
	for _, st := range status {
		id := st.ID
		if id == "" {
			id = service.Slug(st.Name)
		}
		items = append(items, RowData{
			ID:      id,
			Name:    st.Name,
			Checked: st.Active,
			Loaded:  st.Loaded,
			Objects: st.Objects,
		})
	}
	return h.RenderList(tmpl, items, "Geen lagen", "Er zijn geen kaartlagen ingesteld.")
}
