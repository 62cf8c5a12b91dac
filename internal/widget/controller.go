// Package widget orchestrates a map widget: it loads configured layers,
// routes visibility toggles to the renderer and owns all widget state.
package widget

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/joeblew999/geo-widget/internal/attribute"
	"github.com/joeblew999/geo-widget/internal/metrics"
	"github.com/joeblew999/geo-widget/internal/render"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/source"
	"github.com/joeblew999/geo-widget/internal/templates"
)

// ErrClosed is returned by operations on a torn down controller.
var ErrClosed = errors.New("widget closed")

// Fetcher retrieves the raw payload for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*source.Payload, error)
}

// Controller owns one widget instance: its layer store, type registry, map
// surface, search index and event bus. Mutations are serialized by mu.
type Controller struct {
	cfg      Config
	log      zerolog.Logger
	metrics  *metrics.Metrics
	fetcher  Fetcher
	tmpl     *templates.Renderer
	store    *service.LayerStore
	types    *service.TypeRegistry
	surface  *render.Surface
	search   *render.SearchIndex
	renderer *render.Renderer
	bus      *service.EventBus

	mu        sync.Mutex
	closed    bool
	observers map[int]func(service.Layer)
	nextObs   int
}

// Option customizes a Controller.
type Option func(*Controller)

// WithFetcher replaces the HTTP source client.
func WithFetcher(f Fetcher) Option {
	return func(c *Controller) { c.fetcher = f }
}

// WithMetrics records fetch and toggle metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithTemplates sets the fragment renderer used for popups and panel rows.
func WithTemplates(r *templates.Renderer) Option {
	return func(c *Controller) { c.tmpl = r }
}

// New creates a controller. Layers are not fetched until LoadLayers.
func New(cfg Config, log zerolog.Logger, opts ...Option) *Controller {
	cfg = cfg.withDefaults()
	cfg.Layers = slices.Clone(cfg.Layers)
	c := &Controller{
		cfg:       cfg,
		log:       log.With().Str("component", "widget").Logger(),
		store:     service.NewLayerStore(),
		types:     service.NewTypeRegistry(),
		search:    render.NewSearchIndex(),
		bus:       service.NewEventBus(),
		observers: make(map[int]func(service.Layer)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = source.NewClient(cfg.FetchTimeout, log)
	}
	if c.tmpl == nil {
		c.tmpl = templates.Default()
	}

	c.surface = render.NewSurface(render.View{
		Anchor: cfg.MapSelector,
		Center: cfg.Center,
		Zoom:   cfg.Zoom,
	})
	for _, t := range cfg.TileLayers {
		c.surface.AddTileLayer(t)
	}

	c.renderer = render.NewRenderer(c.store, c.types, c.surface, c.search, render.Options{
		PropertyName: cfg.PropertyName,
		Popup: render.PopupBuilder{
			Title:     cfg.Popup,
			Describer: attribute.ForLocale(cfg.Locale),
			Templates: c.tmpl,
		},
	}, log)
	return c
}

// LoadLayers fetches every configured layer in parallel. Each failure is
// reported to the user and logged; it never prevents other layers from
// loading. The returned error joins all failures for callers that want a
// summary.
func (c *Controller) LoadLayers(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	c.mu.Lock()
	layers := slices.Clone(c.cfg.Layers)
	c.mu.Unlock()

	p := pool.New()
	for _, lc := range layers {
		p.Go(func() {
			if err := c.LoadLayer(ctx, lc); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
	}
	p.Wait()
	return errors.Join(errs...)
}

// LoadLayer fetches, normalizes and stores one layer.
func (c *Controller) LoadLayer(ctx context.Context, lc service.LayerConfig) error {
	if c.isClosed() {
		return ErrClosed
	}
	url := c.cfg.ProxyURL + lc.URL
	log := c.log.With().Str("layer", lc.Name).Str("url", url).Logger()
	start := time.Now()

	payload, err := c.fetcher.Fetch(ctx, url)
	switch {
	case err != nil && c.isClosed():
		err = ErrClosed
	case err == nil:
		err = c.ingest(lc.Name, payload)
	}
	switch {
	case errors.Is(err, ErrClosed):
		log.Debug().Msg("widget closed during fetch, result discarded")
		c.metrics.ObserveFetch(lc.Name, metrics.OutcomeDiscarded, time.Since(start))
		return err
	case err != nil:
		log.Error().Err(err).Msg("layer fetch failed")
		c.metrics.ObserveFetch(lc.Name, metrics.OutcomeFailed, time.Since(start))
		c.notify(lc.Name, fmt.Sprintf("Laag %q kon niet worden geladen.", lc.Name))
		return fmt.Errorf("layer %q: %w", lc.Name, err)
	}

	c.metrics.ObserveFetch(lc.Name, metrics.OutcomeOK, time.Since(start))
	log.Info().Int("objects", len(payload.Data)).Dur("took", time.Since(start)).Msg("layer loaded")
	return nil
}

func (c *Controller) ingest(name string, p *source.Payload) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	layer, err := source.Ingest(name, p, c.types)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.store.Add(layer)
	observers := make([]func(service.Layer), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(layer)
	}
	c.bus.Publish(service.Event{Resource: service.ResourceLayers, Action: service.ActionLoaded, ID: name})
	return nil
}

// LayerStatus describes one configured layer.
type LayerStatus struct {
	service.LayerConfig
	Loaded  bool `json:"loaded" doc:"Whether the layer data was fetched"`
	Active  bool `json:"active" doc:"Whether the layer is shown on the map"`
	Objects int  `json:"objects" doc:"Number of objects in the layer"`
}

// Status reports every configured layer in configuration order.
func (c *Controller) Status() []LayerStatus {
	c.mu.Lock()
	layers := slices.Clone(c.cfg.Layers)
	c.mu.Unlock()

	out := make([]LayerStatus, 0, len(layers))
	for _, lc := range layers {
		st := LayerStatus{LayerConfig: lc, Active: c.surface.Active(lc.Name)}
		if l, ok := c.store.ByName(lc.Name); ok {
			st.Loaded = true
			st.Objects = len(l.Objects)
		}
		out = append(out, st)
	}
	return out
}

// AddLayer appends lc to the configured layers and loads it.
func (c *Controller) AddLayer(ctx context.Context, lc service.LayerConfig) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.cfg.Layers = append(c.cfg.Layers, lc)
	c.mu.Unlock()
	return c.LoadLayer(ctx, lc)
}

// RemoveLayer hides the named layer and drops it from the configured
// layers. Loaded data stays in the store. It reports whether the layer was
// configured.
func (c *Controller) RemoveLayer(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.cfg.Layers, func(lc service.LayerConfig) bool { return lc.Name == name })
	if i < 0 {
		return false
	}
	c.cfg.Layers = slices.Delete(c.cfg.Layers, i, i+1)
	if c.renderer.Deactivate(name) > 0 {
		c.metrics.SetActiveLayers(len(c.surface.Groups()))
		c.bus.Publish(service.Event{Resource: service.ResourceLayers, Action: service.ActionDeactivated, ID: name})
	}
	return true
}

// OnToggle shows or hides a layer in response to its checkbox.
func (c *Controller) OnToggle(name string, checked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	action := service.ActionDeactivated
	if checked {
		action = service.ActionActivated
		if _, err := c.renderer.Activate(name); err != nil {
			c.log.Warn().Err(err).Str("layer", name).Msg("toggle ignored")
			return err
		}
	} else {
		c.renderer.Deactivate(name)
	}

	c.metrics.IncToggle(action)
	c.metrics.SetActiveLayers(len(c.surface.Groups()))
	c.bus.Publish(service.Event{Resource: service.ResourceLayers, Action: action, ID: name})
	return nil
}

// AddTileLayer adds or replaces a named vector tile layer on the map.
func (c *Controller) AddTileLayer(t render.TileLayer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.surface.AddTileLayer(t)
	return nil
}

// RemoveTileLayer removes a named vector tile layer and reports whether it
// was present.
func (c *Controller) RemoveTileLayer(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface.RemoveTileLayer(name)
}

// OnLayerLoaded registers fn to run after each layer is stored. The returned
// func unregisters it. All observers are dropped on Close.
func (c *Controller) OnLayerLoaded(fn func(service.Layer)) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Close tears the widget down. Fetches still in flight complete, but their
// results are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	clear(c.observers)
	c.bus.Close()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) notify(layer, msg string) {
	c.bus.Publish(service.Event{
		Resource: service.ResourceNotices,
		Action:   service.ActionFailed,
		ID:       layer,
		Message:  msg,
	})
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg := c.cfg
	cfg.Layers = slices.Clone(c.cfg.Layers)
	return cfg
}

// Store returns the layer store.
func (c *Controller) Store() *service.LayerStore { return c.store }

// Types returns the type registry.
func (c *Controller) Types() *service.TypeRegistry { return c.types }

// Surface returns the map surface.
func (c *Controller) Surface() *render.Surface { return c.surface }

// Search returns the shared search index.
func (c *Controller) Search() *render.SearchIndex { return c.search }

// Bus returns the widget's event bus.
func (c *Controller) Bus() *service.EventBus { return c.bus }

// Templates returns the fragment renderer.
func (c *Controller) Templates() *templates.Renderer { return c.tmpl }
