// Package server assembles the chi router, the Huma API and the layer panel
// around one widget controller.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/joeblew999/geo-widget/internal/api"
	"github.com/joeblew999/geo-widget/internal/api/panel"
	"github.com/joeblew999/geo-widget/internal/db"
	"github.com/joeblew999/geo-widget/internal/humastar"
	"github.com/joeblew999/geo-widget/internal/metrics"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/widget"
)

// archiveTimeout bounds one layer write to the archive.
const archiveTimeout = 30 * time.Second

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	WebDir  string // Path to web/ directory with index.html and static/
}

// Deps are the components the server exposes. Configs, DB and Metrics are
// optional.
type Deps struct {
	Widget  *widget.Controller
	Configs *service.LayerConfigService
	DB      *db.DB
	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

// Server is the geo widget HTTP server.
type Server struct {
	config  Config
	deps    Deps
	log     zerolog.Logger
	router  *chi.Mux
	humaAPI huma.API
	links   *humastar.Links

	stopArchive func()
}

// New creates a new server.
func New(cfg Config, deps Deps) *Server {
	router := chi.NewRouter()
	s := &Server{
		config: cfg,
		deps:   deps,
		log:    deps.Log.With().Str("component", "server").Logger(),
		router: router,
		links:  &humastar.Links{},
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(s.accessLog)

	humaConfig := huma.DefaultConfig("geo-widget API", api.Version)
	humaConfig.Info.Description = "Map widget API: layer loading, visibility toggles, map primitives, search and vector tiles."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, s.links.Transformer())

	s.humaAPI = humachi.New(router, humaConfig)

	if deps.DB != nil {
		s.stopArchive = deps.Widget.OnLayerLoaded(s.archive)
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close stops archiving and closes the database.
func (s *Server) Close() error {
	if s.stopArchive != nil {
		s.stopArchive()
	}
	if s.deps.DB != nil {
		return s.deps.DB.Close()
	}
	return nil
}

func (s *Server) routes() {
	svc := &api.Services{Widget: s.deps.Widget, Configs: s.deps.Configs}
	huma.AutoRegister(s.humaAPI, api.NewHandler(svc))
	api.NewTileHandler(svc).RegisterRoutes(s.humaAPI)
	api.NewInfoHandler(s.config.DataDir, s.deps.DB != nil, s.deps.Widget).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.deps.DB).RegisterRoutes(s.humaAPI)
	panel.New(s.deps.Widget, s.deps.Log).RegisterRoutes(s.humaAPI)

	// Must run after every Huma route is registered.
	*s.links = *humastar.AutoLinks(s.humaAPI, "panel")

	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", s.deps.Metrics.Handler())
	}

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	s.router.Get("/", s.handleRoot)
}

// handleRoot serves the viewer page when the web directory has one, and a
// JSON status with entry point links otherwise.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if s.config.WebDir != "" {
		page := filepath.Join(s.config.WebDir, "index.html")
		if _, err := os.Stat(page); err == nil {
			http.ServeFile(w, r, page)
			return
		}
	}
	for _, link := range s.links.For("/health") {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "geo-widget",
		"status":  "running",
	})
}

func (s *Server) archive(layer service.Layer) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if _, err := s.deps.DB.Archive(ctx, layer, s.deps.Widget.Types()); err != nil {
		s.log.Error().Err(err).Str("layer", layer.Name).Msg("archiving layer failed")
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.deps.Metrics.ObserveHTTPRequest(r.Method, route, status, time.Since(start))

		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http_request")
	})
}
