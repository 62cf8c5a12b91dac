package humastar

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"layer":"Trees","checked":true,"page":2,"legacy":"on"}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.String("layer") != "Trees" || !s.Bool("checked") || s.String("page") != "" {
		t.Errorf("signals = %v", s)
	}
	if !s.Bool("legacy") || s.Bool("missing") || s.Bool("page") {
		t.Errorf("bool coercion wrong: %v", s)
	}

	for _, bad := range []string{`null`, `[1]`, `{`} {
		if _, err := ParseSignals([]byte(bad)); err == nil {
			t.Errorf("ParseSignals(%s) should fail", bad)
		}
	}
}

func TestMustParseReturns400(t *testing.T) {
	in := &SignalsInput{RawBody: []byte("nope")}
	if _, err := in.MustParse(); err == nil {
		t.Fatal("expected error")
	}
}

func TestPaginationLinks(t *testing.T) {
	u, _ := url.Parse("/api/v1/search?q=oak&offset=10&limit=10")
	p := PageBody[string]{Total: 25, Offset: 10, Limit: 10}

	got := p.PaginationLinks(u)
	want := []string{
		`</api/v1/search?limit=10&offset=0&q=oak>; rel="first"`,
		`</api/v1/search?limit=10&offset=0&q=oak>; rel="prev"`,
		`</api/v1/search?limit=10&offset=20&q=oak>; rel="next"`,
		`</api/v1/search?limit=10&offset=20&q=oak>; rel="last"`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("links =\n%v\nwant\n%v", got, want)
	}

	empty := PageBody[string]{Limit: 10}
	if links := empty.PaginationLinks(u); len(links) != 2 {
		t.Errorf("empty page links = %v", links)
	}
}

func TestActionLinkHeader(t *testing.T) {
	actions := ActionsFor("Trees", ActionDef{Rel: "activate", Pattern: "/api/v1/layers/%s/active", Method: "PUT", Title: "Show layer"})
	got := actions[0].LinkHeader()
	want := `</api/v1/layers/Trees/active>; rel="activate"; method="PUT"; title="Show layer"`
	if got != want {
		t.Errorf("header = %s", got)
	}
}

func TestParseLinkHeader(t *testing.T) {
	rel, href := parseLinkHeader(`</health>; rel="up"`)
	if rel != "up" || href != "/health" {
		t.Errorf("rel = %q href = %q", rel, href)
	}
	if rel, _ := parseLinkHeader("garbage"); rel != "" {
		t.Errorf("rel = %q", rel)
	}
}
