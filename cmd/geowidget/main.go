package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/geo-widget/internal/attribute"
	"github.com/joeblew999/geo-widget/internal/db"
	"github.com/joeblew999/geo-widget/internal/logging"
	"github.com/joeblew999/geo-widget/internal/metrics"
	"github.com/joeblew999/geo-widget/internal/render"
	"github.com/joeblew999/geo-widget/internal/server"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/templates"
	"github.com/joeblew999/geo-widget/internal/widget"
)

// Options defines all CLI flags and env vars for the widget server.
// Flags: --host, --port, --data-dir, --web-dir, --proxy-url, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_PROXY_URL, ...
type Options struct {
	Host          string `doc:"Host to bind to" default:"0.0.0.0"`
	Port          int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir       string `doc:"Directory for layers.yaml and the object archive" default:".data"`
	WebDir        string `doc:"Path to web/ directory (index.html, static/, templates/fragments/)" default:"web"`
	ProxyURL      string `doc:"Prefix for every layer URL" default:""`
	PropertyName  string `doc:"Attribute used as search key (empty: object name)" default:""`
	PopupProperty string `doc:"Attribute shown next to the object name in popup titles" default:""`
	Locale        string `doc:"Locale for attribute descriptions" default:"nl"`
	FetchTimeout  string `doc:"Timeout per layer fetch" default:"10s"`
	LogLevel      string `doc:"Log level (trace, debug, info, warn, error)" default:"info"`
	Center        string `doc:"Initial map center as lat,lon" default:"52.3676,4.9041"`
	Zoom          int    `doc:"Initial zoom level" default:"13"`
	BaseTiles     string `doc:"Base map tile URL template (empty: none)" default:"https://tile.openstreetmap.org/{z}/{x}/{y}.png"`
	DB            bool   `doc:"Archive loaded layers in DuckDB" default:"true"`
}

func parseCenter(s string) ([2]float64, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return [2]float64{}, fmt.Errorf("center %q: want lat,lon", s)
	}
	var c [2]float64
	var err error
	if c[0], err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return c, fmt.Errorf("center latitude: %w", err)
	}
	if c[1], err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return c, fmt.Errorf("center longitude: %w", err)
	}
	return c, nil
}

func popupFor(prop string) render.PopupFunc {
	if prop == "" {
		return nil
	}
	return func(obj service.GeoObject) string {
		for _, a := range obj.Attributes {
			if a.Name == prop && a.Value != nil {
				return obj.Name + " (" + attribute.Format(a.Value) + ")"
			}
		}
		return obj.Name
	}
}

// app is one fully wired widget.
type app struct {
	log     zerolog.Logger
	widget  *widget.Controller
	configs *service.LayerConfigService
	metrics *metrics.Metrics
}

func newApp(opts *Options) (*app, error) {
	log := logging.New(opts.LogLevel)

	timeout, err := time.ParseDuration(opts.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("fetch timeout: %w", err)
	}
	center, err := parseCenter(opts.Center)
	if err != nil {
		return nil, err
	}
	configs, err := service.NewLayerConfigService(opts.DataDir)
	if err != nil {
		return nil, err
	}

	tmpl := templates.Default()
	if opts.WebDir != "" {
		fragmentsDir := filepath.Join(opts.WebDir, "templates", "fragments")
		if r, err := templates.New(fragmentsDir); err == nil {
			tmpl = r
		} else {
			log.Warn().Err(err).Str("dir", fragmentsDir).Msg("template overrides not loaded")
		}
	}

	var tileLayers []render.TileLayer
	if opts.BaseTiles != "" {
		tileLayers = append(tileLayers, render.TileLayer{Name: "base", URL: opts.BaseTiles})
	}

	m := metrics.New()
	w := widget.New(widget.Config{
		Popup:        popupFor(opts.PopupProperty),
		ProxyURL:     opts.ProxyURL,
		Layers:       configs.List(),
		PropertyName: opts.PropertyName,
		Center:       center,
		Zoom:         opts.Zoom,
		TileLayers:   tileLayers,
		FetchTimeout: timeout,
		Locale:       opts.Locale,
	}, log, widget.WithMetrics(m), widget.WithTemplates(tmpl))

	return &app{log: log, widget: w, configs: configs, metrics: m}, nil
}

func (a *app) server(opts *Options, archive *db.DB) *server.Server {
	return server.New(server.Config{
		Host:    opts.Host,
		Port:    strconv.Itoa(opts.Port),
		DataDir: opts.DataDir,
		WebDir:  opts.WebDir,
	}, server.Deps{
		Widget:  a.widget,
		Configs: a.configs,
		DB:      archive,
		Metrics: a.metrics,
		Log:     a.log,
	})
}

// shutdown closes the widget first: open panel event streams end when its
// bus closes, and hs waits for them.
func (a *app) shutdown(ctx context.Context, hs *http.Server, srv *server.Server) error {
	a.widget.Close()
	err := hs.Shutdown(ctx)
	return errors.Join(err, srv.Close())
}

// newHTTPServer has no write timeout so the panel event stream stays open.
func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var (
			a   *app
			srv *server.Server
			hs  *http.Server
		)

		hooks.OnStart(func() {
			var err error
			if a, err = newApp(opts); err != nil {
				fatal(err)
			}

			var archive *db.DB
			if opts.DB {
				archive, err = db.Open(context.Background(), db.Config{
					DataDir:    opts.DataDir,
					DBName:     "geowidget",
					Extensions: []string{"spatial"},
				}, a.log)
				if err != nil {
					a.log.Warn().Err(err).Msg("object archive disabled")
					archive = nil
				}
			}
			srv = a.server(opts, archive)

			go func() {
				if err := a.widget.LoadLayers(context.Background()); err != nil {
					a.log.Warn().Err(err).Msg("some layers failed to load")
				}
			}()

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("geo-widget server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", opts.DataDir)
			fmt.Printf("  Layers:  %d configured\n", len(a.configs.List()))
			fmt.Println()
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			hs = newHTTPServer(addr, srv)
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Fatal().Err(err).Msg("server error")
			}
		})

		hooks.OnStop(func() {
			if hs == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.shutdown(ctx, hs, srv); err != nil {
				a.log.Warn().Err(err).Msg("shutdown incomplete")
			}
		})
	})

	cli.Root().Use = "geowidget"
	cli.Root().Short = "Map widget server: layers, toggles, popups and search"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			a, err := newApp(opts)
			if err != nil {
				fatal(err)
			}
			defer a.widget.Close()
			spec := a.server(opts, nil).OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fatal(fmt.Errorf("marshaling spec: %w", err))
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// check subcommand: fetch every configured layer once
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Load every configured layer once and report the result",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			a, err := newApp(opts)
			if err != nil {
				fatal(err)
			}
			defer a.widget.Close()

			start := time.Now()
			loadErr := a.widget.LoadLayers(context.Background())
			failed := 0
			for _, st := range a.widget.Status() {
				if st.Loaded {
					fmt.Printf("  ok    %-30s %s objects\n", st.Name, humanize.Comma(int64(st.Objects)))
				} else {
					failed++
					fmt.Printf("  FAIL  %-30s %s\n", st.Name, opts.ProxyURL+st.URL)
				}
			}
			fmt.Printf("\n%d layers, %d failed, %d types, took %s\n",
				len(a.widget.Status()), failed, len(a.widget.Types().Entries()), time.Since(start).Round(time.Millisecond))
			if loadErr != nil {
				fmt.Fprintln(os.Stderr, loadErr)
				os.Exit(1)
			}
		}),
	}
	cli.Root().AddCommand(checkCmd)

	cli.Run()
}
