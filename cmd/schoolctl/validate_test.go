package main

import (
	"bytes"
	"testing"

	"github.com/couchcryptid/school-map-service/internal/adapter/udir"
	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDataset() *domain.Dataset {
	s := domain.School{
		Name: "Bekkestua skole", Municipality: "Bærum", Type: domain.Primary,
		Lat: 59.9185, Lng: 10.5893,
		Scores: domain.Scores{Math: domain.Score(53)},
		History: []domain.YearScores{
			{Year: "2023-24", Scores: domain.Scores{Math: domain.Score(49)}},
			{Year: "2024-25", Scores: domain.Scores{Math: domain.Score(51)}},
		},
	}
	s.Derive()
	return &domain.Dataset{
		Metadata:  &domain.Metadata{CurrentYear: "2025-26"},
		MapConfig: &domain.MapConfig{Center: [2]float64{59.9185, 10.5893}, Zoom: 11},
		Schools:   []domain.School{s},
	}
}

func failed(phases []*phase) map[string][]string {
	out := map[string][]string{}
	for _, p := range phases {
		if !p.passed() {
			out[p.name] = p.errors
		}
	}
	return out
}

func TestValidateDataset_Valid(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, report(&buf, validateDataset(validDataset())))
	assert.Contains(t, buf.String(), "PASS  classification")
}

func TestValidateDataset_Failures(t *testing.T) {
	ds := validDataset()
	dup := ds.Schools[0]
	dup.Lat, dup.Lng = 0, 0
	dup.Color = domain.DarkGreen
	dup.History = []domain.YearScores{{Year: "2025-26"}}
	ds.Schools = append(ds.Schools, dup)
	ds.MapConfig = nil

	got := failed(validateDataset(ds))

	require.Len(t, got["metadata"], 1)
	assert.Contains(t, got["unique keys"][0], "Bekkestua skole|Bærum")
	assert.Contains(t, got["coordinates"][0], "not geocoded")
	assert.Contains(t, got["classification"][0], "color darkgreen")
	assert.Contains(t, got["history"][0], "not before current year")

	var buf bytes.Buffer
	assert.False(t, report(&buf, validateDataset(ds)))
	assert.Contains(t, buf.String(), "FAIL  coordinates (1)")
}

func TestPrintAnalysis(t *testing.T) {
	table, err := udir.Parse([]byte("sep=;\nEnhetNavn;Kommune;Engelsk;Lesing;Regning\nBekkestua skole;Bærum;53;52;54\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printAnalysis(&buf, "export.csv", udir.Analyze(table)))

	out := buf.String()
	assert.Contains(t, out, "Delimiter: ';'")
	assert.Contains(t, out, "Rows:      1")
	assert.Contains(t, out, "school_name   EnhetNavn")
	assert.Contains(t, out, "county        (none found)")
}
