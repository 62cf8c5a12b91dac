package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultFragments(t *testing.T) {
	r := Default()
	for _, name := range []string{"layer-row", "popup", "empty-state"} {
		if !r.Has(name) {
			t.Errorf("missing fragment %q", name)
		}
	}

	out, err := r.Render("popup", map[string]any{
		"Title":    "Oak <12>",
		"TypeName": "Tree",
		"Rows":     []map[string]string{{"Name": "height", "Value": "14"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Oak &lt;12&gt;") {
		t.Errorf("title not escaped: %s", out)
	}
	if !strings.Contains(out, "<dt>height</dt><dd>14</dd>") {
		t.Errorf("rows missing: %s", out)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	custom := `{{define "compact-row"}}<li>{{.Name}}</li>{{end}}`
	if err := os.WriteFile(filepath.Join(dir, "compact.html"), []byte(custom), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	out, err := r.Render("compact-row", map[string]string{"Name": "Bomen"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "<li>Bomen</li>" {
		t.Fatalf("compact-row = %q", out)
	}
	if !r.Has("popup") {
		t.Fatal("built-in fragments lost after override")
	}
}
