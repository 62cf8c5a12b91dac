package source

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/joeblew999/geo-widget/internal/attribute"
	"github.com/joeblew999/geo-widget/internal/geometry"
	"github.com/joeblew999/geo-widget/internal/service"
)

// Registrar receives the type names announced by a payload.
type Registrar interface {
	Register(id int, name string)
}

// Ingest converts a payload into a normalized layer and registers its type
// names. Nothing is registered when the payload is rejected.
func Ingest(name string, p *Payload, types Registrar) (service.Layer, error) {
	entries, err := metaEntries(p.Meta)
	if err != nil {
		return service.Layer{}, err
	}

	layer := service.Layer{Name: name, Objects: make([]service.GeoObject, 0, len(p.Data))}
	for i, raw := range p.Data {
		obj, err := ingestObject(raw)
		if err != nil {
			return service.Layer{}, fmt.Errorf("%w: object %d (%q): %v", ErrMalformed, i, raw.Name, err)
		}
		layer.Objects = append(layer.Objects, obj)
	}

	for _, e := range entries {
		types.Register(e.ID, e.Name)
	}
	return layer, nil
}

// metaEntries parses the id->name mapping, ordered by id so registration is
// deterministic.
func metaEntries(meta map[string]string) ([]service.TypeEntry, error) {
	entries := make([]service.TypeEntry, 0, len(meta))
	for k, v := range meta {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("%w: type id %q is not an integer", ErrMalformed, k)
		}
		entries = append(entries, service.TypeEntry{ID: id, Name: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func ingestObject(raw RawObject) (service.GeoObject, error) {
	typ, err := geometry.ParseType(raw.Geometry.Type)
	if err != nil {
		return service.GeoObject{}, err
	}
	coords, err := geometry.Parse(raw.Geometry.Coordinates)
	if err != nil {
		return service.GeoObject{}, err
	}
	if err := geometry.Validate(typ, coords); err != nil {
		return service.GeoObject{}, err
	}

	attrs := make([]attribute.Attribute, 0, len(raw.Attributes))
	for _, ra := range raw.Attributes {
		kind, _ := attribute.ParseKind(ra.Type)
		a, err := attribute.New(ra.ID, ra.Name, kind, ra.Value)
		if err != nil {
			// A value of the wrong JSON type reads as absent.
			a = attribute.Attribute{ID: ra.ID, Name: ra.Name, Kind: kind}
		}
		attrs = append(attrs, a)
	}

	return service.GeoObject{
		Name:       raw.Name,
		Type:       typ,
		Geometry:   geometry.Normalize(coords),
		TypeID:     raw.TypeID,
		Attributes: attrs,
	}, nil
}
