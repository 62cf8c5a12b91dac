package render

import (
	"github.com/joeblew999/geo-widget/internal/attribute"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/templates"
)

// PopupFunc formats the popup title for an object.
type PopupFunc func(obj service.GeoObject) string

// DefaultPopup returns the object's name.
func DefaultPopup(obj service.GeoObject) string {
	return obj.Name
}

// PopupRow is one described attribute.
type PopupRow struct {
	Name  string
	Value string
}

// PopupData is passed to the "popup" template.
type PopupData struct {
	Title    string
	TypeName string
	Rows     []PopupRow
}

// PopupBuilder renders popup bodies from objects.
type PopupBuilder struct {
	Title     PopupFunc
	Describer attribute.Describer
	Templates *templates.Renderer
}

// Data assembles the popup content for obj.
func (b PopupBuilder) Data(obj service.GeoObject, typeName string) PopupData {
	title := b.Title
	if title == nil {
		title = DefaultPopup
	}
	d := PopupData{Title: title(obj), TypeName: typeName}
	for _, a := range obj.Attributes {
		d.Rows = append(d.Rows, PopupRow{Name: a.Name, Value: b.Describer.Describe(a.Kind, a.Value)})
	}
	return d
}

// Build renders the popup HTML for obj.
func (b PopupBuilder) Build(obj service.GeoObject, typeName string) (string, error) {
	tmpl := b.Templates
	if tmpl == nil {
		tmpl = templates.Default()
	}
	return tmpl.Render("popup", b.Data(obj, typeName))
}
