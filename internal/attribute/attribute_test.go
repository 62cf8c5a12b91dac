package attribute

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestClassName(t *testing.T) {
	attrs := []Attribute{
		{Name: "speed", Kind: Integer, Value: int64(50)},
		{Name: "active", Kind: Boolean, Value: true},
		{Name: "hidden", Kind: Boolean, Value: false},
	}
	if got := ClassName("p", attrs); got != "p speed speed-50 active" {
		t.Fatalf("ClassName = %q", got)
	}
}

func TestClassTokens(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		attrs  []Attribute
		want   []string
	}{
		{"empty", "roads-2", nil, []string{"roads-2"}},
		{"null boolean", "p", []Attribute{{Name: "lit", Kind: Boolean}}, []string{"p"}},
		{"double", "p", []Attribute{{Name: "width", Kind: Double, Value: 2.5}}, []string{"p", "width", "width-2.5"}},
		{"lookup keeps order and duplicates", "p", []Attribute{
			{Name: "surface", Kind: Lookup, Value: "gravel"},
			{Name: "surface", Kind: Lookup, Value: "gravel"},
		}, []string{"p", "surface", "surface-gravel", "surface", "surface-gravel"}},
		{"null string", "p", []Attribute{{Name: "note", Kind: String}}, []string{"p", "note", "note-null"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassTokens(tt.prefix, tt.attrs); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ClassTokens = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		kind Kind
		v    any
		want string
	}{
		{Boolean, true, "ja"},
		{Boolean, false, "nee"},
		{String, nil, "-"},
		{String, "x", "x"},
		{Integer, int64(7), "7"},
		{Double, 0.25, "0.25"},
	}
	for _, tt := range tests {
		if got := Describe(tt.kind, tt.v); got != tt.want {
			t.Errorf("Describe(%s, %v) = %q, want %q", tt.kind, tt.v, got, tt.want)
		}
	}
}

func TestForLocale(t *testing.T) {
	tests := []struct {
		locale string
		want   Table
	}{
		{"nl", Dutch},
		{"nl-BE", Dutch},
		{"en-GB", English},
		{"de", German},
		{"", Dutch},
		{"xx-unknown", Dutch},
	}
	for _, tt := range tests {
		if got := ForLocale(tt.locale).Table(); got != tt.want {
			t.Errorf("ForLocale(%q) = %+v, want %+v", tt.locale, got, tt.want)
		}
	}
	if got := ForLocale("en").Describe(Boolean, true); got != "yes" {
		t.Errorf("english true = %q", got)
	}
}

func TestCustomTable(t *testing.T) {
	d := NewDescriber(Table{True: "oui", False: "non", Null: "?"})
	if got := d.Describe(Boolean, false); got != "non" {
		t.Errorf("false = %q", got)
	}
	if got := d.Describe(Integer, nil); got != "?" {
		t.Errorf("nil = %q", got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		raw     any
		want    any
		wantErr bool
	}{
		{"integer", Integer, json.Number("50"), int64(50), false},
		{"integer with fraction", Integer, json.Number("1.5"), 1.5, false},
		{"double", Double, json.Number("2.25"), 2.25, false},
		{"lookup from number", Lookup, json.Number("3"), "3", false},
		{"boolean", Boolean, true, true, false},
		{"boolean from string", Boolean, "yes", nil, true},
		{"null", String, nil, nil, false},
		{"bad integer", Integer, "abc", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(1, "f", tt.kind, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && a.Value != tt.want {
				t.Fatalf("value = %#v, want %#v", a.Value, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("Boolean"); !ok || k != Boolean {
		t.Errorf("ParseKind(Boolean) = %q, %v", k, ok)
	}
	if k, ok := ParseKind("date"); ok || k != String {
		t.Errorf("ParseKind(date) = %q, %v", k, ok)
	}
}
