package render

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joeblew999/geo-widget/internal/attribute"
	"github.com/joeblew999/geo-widget/internal/service"
)

// ErrLayerNotFound is returned when a toggle names a layer that has not been
// loaded.
var ErrLayerNotFound = errors.New("layer not found")

// LayerSource resolves layers by name.
type LayerSource interface {
	ByName(name string) (service.Layer, bool)
}

// TypeNamer resolves type identifiers to display names.
type TypeNamer interface {
	NameOf(id int) (string, bool)
}

// Options configures a Renderer.
type Options struct {
	// PropertyName selects the attribute used as search key. Empty or "name"
	// uses the object name.
	PropertyName string
	Popup        PopupBuilder
}

// Renderer turns stored layers into primitives on a Surface and keeps the
// shared SearchIndex in step.
type Renderer struct {
	layers  LayerSource
	types   TypeNamer
	surface *Surface
	search  *SearchIndex
	opts    Options
	log     zerolog.Logger
}

// NewRenderer wires a renderer to its collaborators.
func NewRenderer(layers LayerSource, types TypeNamer, surface *Surface, search *SearchIndex, opts Options, log zerolog.Logger) *Renderer {
	return &Renderer{
		layers:  layers,
		types:   types,
		surface: surface,
		search:  search,
		opts:    opts,
		log:     log.With().Str("component", "render").Logger(),
	}
}

// Activate shows the named layer. An already active layer is deactivated
// first so that at most one group per layer exists on the surface.
func (r *Renderer) Activate(name string) (*Group, error) {
	layer, ok := r.layers.ByName(name)
	if !ok {
		r.log.Warn().Str("layer", name).Msg("activate: layer not loaded")
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}

	r.Deactivate(name)

	g := &Group{ID: uuid.NewString(), Layer: name}
	for i, obj := range layer.Objects {
		p, err := r.primitive(g.ID, i, name, obj)
		if err != nil {
			r.log.Error().Err(err).Str("layer", name).Str("object", obj.Name).Msg("skipping object")
			continue
		}
		g.Primitives = append(g.Primitives, p)
		r.search.Add(p)
	}
	r.surface.AddGroup(g)

	r.log.Debug().Str("layer", name).Str("group", g.ID).Int("primitives", len(g.Primitives)).Msg("layer activated")
	return g, nil
}

// Deactivate removes every group of the named layer from the surface and
// its primitives from the search index. It returns the number of groups
// removed.
func (r *Renderer) Deactivate(name string) int {
	groups := r.surface.RemoveGroups(name)
	for _, g := range groups {
		for _, p := range g.Primitives {
			r.search.Remove(p.ID)
		}
	}
	if len(groups) > 0 {
		r.log.Debug().Str("layer", name).Int("groups", len(groups)).Msg("layer deactivated")
	}
	return len(groups)
}

// BaseClass is the leading class token for objects of one layer and type.
func BaseClass(layer string, typeID int) string {
	return service.Slug(layer) + "-" + strconv.Itoa(typeID)
}

func (r *Renderer) primitive(groupID string, idx int, layer string, obj service.GeoObject) (*Primitive, error) {
	kind, err := KindFor(obj.Type)
	if err != nil {
		return nil, err
	}

	typeName, _ := r.types.NameOf(obj.TypeID)
	popup, err := r.opts.Popup.Build(obj, typeName)
	if err != nil {
		return nil, fmt.Errorf("rendering popup: %w", err)
	}

	return &Primitive{
		ID:        groupID + "/" + strconv.Itoa(idx),
		Kind:      kind,
		Layer:     layer,
		Title:     obj.Name,
		LatLngs:   obj.Geometry,
		ClassName: attribute.ClassName(BaseClass(layer, obj.TypeID), obj.Attributes),
		Popup:     popup,
		SearchKey: r.searchKey(obj),
	}, nil
}

func (r *Renderer) searchKey(obj service.GeoObject) string {
	prop := r.opts.PropertyName
	if prop == "" || prop == "name" {
		return obj.Name
	}
	for _, a := range obj.Attributes {
		if a.Name == prop && a.Value != nil {
			return attribute.Format(a.Value)
		}
	}
	return obj.Name
}
