// Package service contains the layer data model and the stores that own it.
package service

import (
	"github.com/joeblew999/geo-widget/internal/attribute"
	"github.com/joeblew999/geo-widget/internal/geometry"
)

// LayerConfig is one configured layer: a display name and the path that is
// appended to the proxy URL when fetching its records.
type LayerConfig struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty" doc:"URL-safe layer identifier" example:"street_trees"`
	Name string `json:"name" yaml:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name, unique within a widget" example:"Street trees"`
	URL  string `json:"url" yaml:"url" required:"true" doc:"Path appended to the proxy URL" example:"/layers/trees.json"`
}

// GeoObject is one point, line or polygon with its attributes. Geometry is
// stored in render order (latitude first).
type GeoObject struct {
	Name       string                `json:"name" doc:"Object name"`
	Type       geometry.Type         `json:"type" enum:"point,linestring,polygon" doc:"Geometry type"`
	Geometry   geometry.Coords       `json:"geometry" doc:"Axis-corrected coordinates"`
	TypeID     int                   `json:"typeId" doc:"Object type identifier"`
	Attributes []attribute.Attribute `json:"attributes" doc:"Typed attributes in source order"`
}

// Layer is a named collection of objects from one fetch.
type Layer struct {
	Name    string      `json:"name" doc:"Layer name"`
	Objects []GeoObject `json:"objects" doc:"Objects in source order"`
}

// TypeEntry maps an object type identifier to its display name.
type TypeEntry struct {
	ID   int    `json:"id" doc:"Type identifier"`
	Name string `json:"name" doc:"Type display name"`
}
