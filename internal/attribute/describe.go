package attribute

import (
	"golang.org/x/text/language"
)

// Table holds the locale-specific words used when describing values.
type Table struct {
	True  string
	False string
	Null  string
}

var (
	// Dutch is the default table.
	Dutch   = Table{True: "ja", False: "nee", Null: "-"}
	English = Table{True: "yes", False: "no", Null: "-"}
	German  = Table{True: "ja", False: "nein", Null: "-"}
)

// tables is ordered by preference; the first entry is the fallback.
var tables = []struct {
	tag   language.Tag
	table Table
}{
	{language.Dutch, Dutch},
	{language.English, English},
	{language.German, German},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(tables))
	for i, t := range tables {
		tags[i] = t.tag
	}
	return language.NewMatcher(tags)
}()

// Describer turns typed values into display text using a Table.
type Describer struct {
	table Table
}

// NewDescriber returns a Describer backed by table.
func NewDescriber(table Table) Describer {
	return Describer{table: table}
}

// ForLocale picks the best supported table for an Accept-Language style
// string such as "nl-BE" or "en-GB,en;q=0.8". Unknown locales fall back to
// Dutch.
func ForLocale(locale string) Describer {
	_, idx := language.MatchStrings(matcher, locale)
	return Describer{table: tables[idx].table}
}

// Table returns the table in use.
func (d Describer) Table() Table {
	if d.table == (Table{}) {
		return Dutch
	}
	return d.table
}

// Describe renders v for display. Booleans use the table words, nil renders
// as the table's null marker and everything else in its natural form.
func (d Describer) Describe(kind Kind, v any) string {
	t := d.Table()
	if v == nil {
		return t.Null
	}
	if b, ok := v.(bool); ok {
		if b {
			return t.True
		}
		return t.False
	}
	return Format(v)
}

// Describe uses the default Dutch table.
func Describe(kind Kind, v any) string {
	return Describer{}.Describe(kind, v)
}
