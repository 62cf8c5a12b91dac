package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geo-widget/internal/widget"
)

type InfoHandler struct {
	dataDir string
	dbOK    bool
	widget  *widget.Controller
}

func NewInfoHandler(dataDir string, dbOK bool, w *widget.Controller) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, dbOK: dbOK, widget: w}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	DB       bool     `json:"db" doc:"Whether the object archive is available"`
	Locale   string   `json:"locale" doc:"Locale of attribute descriptions"`
	Layers   int      `json:"layers" doc:"Number of loaded layers"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"layers", "search", "geojson", "mvt", "panel"}
	if h.dbOK {
		features = append(features, "duckdb")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "geo-widget",
		Version:  Version,
		DataDir:  h.dataDir,
		DB:       h.dbOK,
		Locale:   h.widget.Config().Locale,
		Layers:   h.widget.Store().Len(),
		Features: features,
	}}, nil
}
