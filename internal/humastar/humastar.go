// Package humastar serves Datastar SSE responses from Huma operations.
//
// Panel handlers embed [Handler], return [Handler.Stream] from their
// operation and drive the browser through the [SSE] helper:
//
//	func (h *Panel) Rows(ctx context.Context, _ *humastar.EmptyInput) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Patch(h.RenderList("layer-row", rows, "Geen lagen", ""), "#layer-panel")
//	    }), nil
//	}
//
// Requests carry Datastar signals as a flat JSON object; see [SignalsInput].
package humastar

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/geo-widget/internal/templates"
)

// Handler is embedded by Huma handlers that answer with Datastar events.
type Handler struct {
	Templates *templates.Renderer
}

// Stream runs fn against an SSE generator bound to the operation's response.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			fn(NewSSE(ctx))
		},
	}
}

// RenderList renders one fragment per item with tmpl.
func (h *Handler) RenderList(tmpl string, items []any, emptyTitle, emptyMsg string) string {
	return RenderList(h.Templates, tmpl, items, emptyTitle, emptyMsg)
}

// SSE is a Datastar event generator for one response.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE unwraps the chi request and writer behind ctx.
func NewSSE(ctx huma.Context) SSE {
	r, w := humachi.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch replaces the children of selector with html.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html,
		datastar.WithSelector(selector),
		datastar.WithModeInner(),
		datastar.WithViewTransitions(),
	)
}

// Error sets the error signal and clears success.
func (s SSE) Error(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"error": msg, "success": ""})
}

// Success sets the success signal and clears error.
func (s SSE) Success(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"success": msg, "error": ""})
}

// Alert shows a blocking browser alert with msg.
func (s SSE) Alert(msg string) {
	s.ExecuteScript("alert(" + strconv.Quote(msg) + ")")
}

// Signals is the decoded signal object of a Datastar request.
type Signals map[string]any

// ParseSignals decodes body, which must be a JSON object.
func ParseSignals(body []byte) (Signals, error) {
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	if signals == nil {
		return nil, errors.New("signals must be a JSON object")
	}
	return signals, nil
}

// String returns the string signal key, or "".
func (s Signals) String(key string) string {
	str, _ := s[key].(string)
	return str
}

// Bool reports whether key is true. The strings "true" and "on" count as
// true so plain form posts work too.
func (s Signals) Bool(key string) bool {
	switch v := s[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "on"
	}
	return false
}

// EmptyInput is the input of operations without parameters.
type EmptyInput struct{}

// SignalsInput receives the raw Datastar signal body.
type SignalsInput struct {
	RawBody []byte
}

// MustParse decodes the signals, failing with a 400.
func (i *SignalsInput) MustParse() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}

// RenderList renders items with tmpl, or the empty-state fragment when
// there are none.
func RenderList(r *templates.Renderer, tmpl string, items []any, emptyTitle, emptyMsg string) string {
	var buf bytes.Buffer
	if len(items) == 0 {
		r.RenderToBuffer(&buf, "empty-state", map[string]string{
			"Title": emptyTitle, "Message": emptyMsg,
		})
		return buf.String()
	}
	for _, item := range items {
		r.RenderToBuffer(&buf, tmpl, item)
	}
	return buf.String()
}
