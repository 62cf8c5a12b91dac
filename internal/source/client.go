// Package source fetches raw layer payloads from the remote data source and
// ingests them into the normalized layer model.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single fetch when the caller sets none.
const DefaultTimeout = 10 * time.Second

// maxPayload caps the body size read from the data source.
const maxPayload = 64 << 20

// ErrMalformed marks payloads that could not be decoded or ingested.
var ErrMalformed = errors.New("malformed layer payload")

// FetchError describes a failed retrieval.
type FetchError struct {
	URL    string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Payload is the body returned for one layer path.
type Payload struct {
	Data []RawObject      `json:"data"`
	Meta map[string]string `json:"meta"`
}

// RawObject is one record as delivered by the data source.
type RawObject struct {
	Name       string         `json:"name"`
	Geometry   RawGeometry    `json:"geometry"`
	TypeID     int            `json:"type_id"`
	Attributes []RawAttribute `json:"attributes,omitempty"`
}

// RawGeometry carries the geometry type and coordinates in source axis order.
type RawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// RawAttribute is an untyped attribute with its type tag.
type RawAttribute struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Client retrieves layer payloads over HTTP.
type Client struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	log        zerolog.Logger
}

// NewClient creates a client whose fetches are each bounded by timeout.
func NewClient(timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{},
		Timeout:    timeout,
		log:        log.With().Str("component", "source").Logger(),
	}
}

// Fetch retrieves and decodes the payload at url. Expiry of the per-fetch
// timeout is reported as a FetchError.
func (c *Client) Fetch(ctx context.Context, url string) (*Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &FetchError{URL: url, Err: fmt.Errorf("timed out after %s: %w", c.Timeout, context.DeadlineExceeded)}
		}
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	p, err := Decode(body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	c.log.Debug().
		Str("url", url).
		Str("size", humanize.Bytes(uint64(len(body)))).
		Int("objects", len(p.Data)).
		Dur("took", time.Since(start)).
		Msg("layer payload fetched")
	return p, nil
}

// Decode parses a payload body. Numbers are kept as json.Number so integer
// attributes survive without float rounding.
func Decode(body []byte) (*Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &p, nil
}
