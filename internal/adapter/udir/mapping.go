package udir

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnMapping lists, per field, the header names that may carry it. The
// first name present in a file's header wins; matching ignores case.
type ColumnMapping struct {
	Name         []string `yaml:"name"`
	Municipality []string `yaml:"municipality"`
	English      []string `yaml:"english"`
	Reading      []string `yaml:"reading"`
	Math         []string `yaml:"math"`
	Lat          []string `yaml:"lat,omitempty"`
	Lng          []string `yaml:"lng,omitempty"`
}

// DefaultMapping matches the column names of current UDIR exports as well
// as the processed CSVs written by this package.
func DefaultMapping() ColumnMapping {
	return ColumnMapping{
		Name:         []string{"EnhetNavn", "Skole", "name"},
		Municipality: []string{"Kommune", "KommuneNavn", "kommune"},
		English:      []string{"Engelsk"},
		Reading:      []string{"Lesing"},
		Math:         []string{"Regning"},
		Lat:          []string{"lat"},
		Lng:          []string{"lng"},
	}
}

// LoadMapping reads a YAML column mapping. Fields left out of the file keep
// their default header names.
func LoadMapping(path string) (ColumnMapping, error) {
	m := DefaultMapping()
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read column mapping: %w", err)
	}
	var override ColumnMapping
	if err := yaml.Unmarshal(data, &override); err != nil {
		return m, fmt.Errorf("parse column mapping %s: %w", path, err)
	}
	merge(&m.Name, override.Name)
	merge(&m.Municipality, override.Municipality)
	merge(&m.English, override.English)
	merge(&m.Reading, override.Reading)
	merge(&m.Math, override.Math)
	merge(&m.Lat, override.Lat)
	merge(&m.Lng, override.Lng)
	return m, nil
}

func merge(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// columnIndex holds resolved header positions; -1 means absent.
type columnIndex struct {
	name, municipality, english, reading, math, lat, lng int
}

func (m ColumnMapping) resolve(header []string) (columnIndex, error) {
	idx := columnIndex{
		name:         find(header, m.Name),
		municipality: find(header, m.Municipality),
		english:      find(header, m.English),
		reading:      find(header, m.Reading),
		math:         find(header, m.Math),
		lat:          find(header, m.Lat),
		lng:          find(header, m.Lng),
	}
	if idx.name < 0 {
		return idx, fmt.Errorf("%w: no school name column (tried %s)", ErrMissingColumn, strings.Join(m.Name, ", "))
	}
	return idx, nil
}

func find(header, candidates []string) int {
	for _, c := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), c) {
				return i
			}
		}
	}
	return -1
}
