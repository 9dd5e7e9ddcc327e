package udir

import (
	"strings"
)

// Analysis summarizes the structure of a UDIR export so a column mapping
// can be written for it.
type Analysis struct {
	Format      Format
	Columns     []string
	Sample      map[string]string // first data row, by column
	RowCount    int
	Suggestions map[string][]string
	Mapping     ColumnMapping // suggested mapping, first candidate per field
}

// Suggestion fields, in display order.
var SuggestionFields = []string{"school_name", "municipality", "county", "english", "reading", "math"}

var suggestionKeywords = map[string][]string{
	"school_name":  {"skole", "school", "navn", "name", "enhet"},
	"municipality": {"kommune", "municipality"},
	"county":       {"fylke", "county"},
	"english":      {"engelsk", "english"},
	"reading":      {"lesing", "reading", "norsk", "norwegian"},
	"math":         {"regning", "matematikk", "math"},
}

// Analyze inspects a decoded table and suggests which columns hold which field.
func Analyze(t Table) Analysis {
	a := Analysis{
		Format:      t.Format,
		Columns:     t.Header,
		RowCount:    len(t.Rows),
		Sample:      map[string]string{},
		Suggestions: map[string][]string{},
	}
	if len(t.Rows) > 0 {
		for i, col := range t.Header {
			a.Sample[col] = cell(t.Rows[0], i)
		}
	}
	for _, col := range t.Header {
		lower := strings.ToLower(col)
		for _, field := range SuggestionFields {
			for _, kw := range suggestionKeywords[field] {
				if strings.Contains(lower, kw) {
					a.Suggestions[field] = append(a.Suggestions[field], col)
					break
				}
			}
		}
	}

	def := DefaultMapping()
	a.Mapping = ColumnMapping{
		Name:         pick(a.Suggestions["school_name"], def.Name),
		Municipality: pick(a.Suggestions["municipality"], def.Municipality),
		English:      pick(a.Suggestions["english"], def.English),
		Reading:      pick(a.Suggestions["reading"], def.Reading),
		Math:         pick(a.Suggestions["math"], def.Math),
	}
	return a
}

func pick(suggested, fallback []string) []string {
	if len(suggested) > 0 {
		return suggested[:1]
	}
	return fallback[:1]
}
