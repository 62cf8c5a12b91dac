// Package templates handles HTML fragment rendering for popups and the layer
// panel.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"path/filepath"
	"sync"
)

//go:embed fragments/*.html
var embedded embed.FS

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
}

// Renderer manages HTML fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// Default returns a renderer over the built-in fragments.
func Default() *Renderer {
	tmpl := template.Must(template.New("").Funcs(funcMap).ParseFS(embedded, "fragments/*.html"))
	return &Renderer{templates: tmpl}
}

// New creates a renderer over the built-in fragments, then parses every
// *.html file in overrideDir on top so hosts can replace or add fragments
// (for example a custom row template). An empty overrideDir is allowed.
func New(overrideDir string) (*Renderer, error) {
	r := Default()
	if overrideDir == "" {
		return r, nil
	}
	matches, err := filepath.Glob(filepath.Join(overrideDir, "*.html"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return r, nil
	}
	tmpl, err := r.templates.ParseFiles(matches...)
	if err != nil {
		return nil, err
	}
	r.templates = tmpl
	return r, nil
}

// Has reports whether a template with the given name is defined.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates.Lookup(name) != nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(buf, name, data)
}

// Fragments exposes the built-in fragment files.
func Fragments() fs.FS {
	sub, _ := fs.Sub(embedded, "fragments")
	return sub
}
