package widget

import (
	"time"

	"github.com/joeblew999/geo-widget/internal/render"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/source"
)

// Config holds the recognized widget options.
type Config struct {
	// Popup formats the popup title; defaults to the object name.
	Popup render.PopupFunc
	// ProxyURL is prefixed to every layer URL.
	ProxyURL string
	// Layers are loaded, in parallel, by LoadLayers.
	Layers []service.LayerConfig
	// PropertyName is the attribute used as search key.
	PropertyName string

	MapSelector   string
	PanelSelector string
	RowTemplate   string

	Center     [2]float64
	Zoom       int
	TileLayers []render.TileLayer

	FetchTimeout time.Duration
	Locale       string
}

// Defaults.
const (
	DefaultMapSelector   = "#map"
	DefaultPanelSelector = "#layer-panel"
	DefaultRowTemplate   = "layer-row"
	DefaultLocale        = "nl"
	DefaultZoom          = 13
)

func (c Config) withDefaults() Config {
	if c.Popup == nil {
		c.Popup = render.DefaultPopup
	}
	if c.MapSelector == "" {
		c.MapSelector = DefaultMapSelector
	}
	if c.PanelSelector == "" {
		c.PanelSelector = DefaultPanelSelector
	}
	if c.RowTemplate == "" {
		c.RowTemplate = DefaultRowTemplate
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = source.DefaultTimeout
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Zoom == 0 {
		c.Zoom = DefaultZoom
	}
	return c
}
