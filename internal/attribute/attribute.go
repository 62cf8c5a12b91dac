// Package attribute models typed object attributes and derives their visual
// encoding (class tokens) and localized display text.
package attribute

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the declared type of an attribute value.
type Kind string

const (
	Integer Kind = "integer"
	Double  Kind = "double"
	Lookup  Kind = "lookup"
	String  Kind = "string"
	Boolean Kind = "boolean"
)

// ParseKind maps a source type tag onto a Kind. Unknown tags are reported
// with ok=false and read as String by callers.
func ParseKind(tag string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(tag))); k {
	case Integer, Double, Lookup, String, Boolean:
		return k, true
	}
	return String, false
}

// Attribute is one typed value attached to a geo object.
// Value holds int64, float64, string, bool or nil.
type Attribute struct {
	ID    int    `json:"id" doc:"Attribute identifier"`
	Name  string `json:"name" doc:"Attribute name" example:"speed"`
	Kind  Kind   `json:"type" enum:"integer,double,lookup,string,boolean" doc:"Declared value type"`
	Value any    `json:"value" doc:"Typed value, null when absent"`
}

// New builds an Attribute, coercing raw (as decoded from JSON with
// UseNumber) into the Go type matching kind.
func New(id int, name string, kind Kind, raw any) (Attribute, error) {
	v, err := coerce(kind, raw)
	if err != nil {
		return Attribute{}, fmt.Errorf("attribute %q: %w", name, err)
	}
	return Attribute{ID: id, Name: name, Kind: kind, Value: v}, nil
}

func coerce(kind Kind, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch kind {
	case Integer:
		switch n := raw.(type) {
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
			f, err := n.Float64()
			if err != nil {
				return nil, err
			}
			return f, nil
		case float64:
			if n == float64(int64(n)) {
				return int64(n), nil
			}
			return n, nil
		case string:
			i, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("integer value %q: %w", n, err)
			}
			return i, nil
		}
	case Double:
		switch n := raw.(type) {
		case json.Number:
			return n.Float64()
		case float64:
			return n, nil
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("double value %q: %w", n, err)
			}
			return f, nil
		}
	case Boolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("boolean value has type %T", raw)
	case Lookup, String:
		switch s := raw.(type) {
		case string:
			return s, nil
		case json.Number:
			return s.String(), nil
		case bool:
			return strconv.FormatBool(s), nil
		case float64:
			return Format(s), nil
		}
	}
	return nil, fmt.Errorf("%s value has type %T", kind, raw)
}

// Format renders a value in its natural string form. nil renders as "null".
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
