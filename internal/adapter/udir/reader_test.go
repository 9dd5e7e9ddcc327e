package udir

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const udirExport = "sep=\t\n" +
	"EnhetNavn\tKommune\tEngelsk\tLesing\tRegning\n" +
	"Bekkestua skole\tBærum\t52\t51\t*\n" +
	"\tBærum\t50\t50\t50\n" +
	"Ås skole\tÅs\t48,5\t-\t49\n"

func utf16WithBOM(t *testing.T, s string) []byte {
	t.Helper()
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func TestParse_UTF16WithSepLine(t *testing.T) {
	table, err := Parse(utf16WithBOM(t, udirExport))
	require.NoError(t, err)

	assert.Equal(t, EncodingUTF16LE, table.Format.Encoding)
	assert.Equal(t, '\t', table.Format.Delimiter)
	assert.True(t, table.Format.SepLine)
	assert.Equal(t, []string{"EnhetNavn", "Kommune", "Engelsk", "Lesing", "Regning"}, table.Header)
	assert.Len(t, table.Rows, 3)
}

func TestParse_Latin1Semicolon(t *testing.T) {
	src := "Skole;Kommune;Engelsk;Lesing;Regning\r\nÅsen skole;Lørenskog;50;51;52\r\n"
	data, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(src))
	require.NoError(t, err)

	table, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, EncodingLatin1, table.Format.Encoding)
	assert.Equal(t, ';', table.Format.Delimiter)
	assert.False(t, table.Format.SepLine)
	assert.Equal(t, "Åsen skole", table.Rows[0][0])
	assert.Equal(t, "Lørenskog", table.Rows[0][1])
}

func TestParse_UTF8Comma(t *testing.T) {
	table, err := Parse([]byte("\xEF\xBB\xBFSkole,Engelsk\nA,50\n"))
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, table.Format.Encoding)
	assert.Equal(t, ',', table.Format.Delimiter)
	assert.Equal(t, "Skole", table.Header[0])
}

func TestParse_NoDelimiter(t *testing.T) {
	_, err := Parse([]byte("just one column\n"))
	require.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestRecords_DefaultMapping(t *testing.T) {
	table, err := Parse(utf16WithBOM(t, udirExport))
	require.NoError(t, err)

	recs, err := table.Records(DefaultMapping())
	require.NoError(t, err)
	require.Len(t, recs, 2, "row without a name is skipped")

	assert.Equal(t, "Bekkestua skole", recs[0].Name)
	assert.Equal(t, "Bærum", recs[0].Municipality)
	assert.Equal(t, 52.0, *recs[0].English)
	assert.Nil(t, recs[0].Math, "suppressed value is missing")
	assert.False(t, recs[0].HasCoordinates())

	assert.Equal(t, 48.5, *recs[1].English)
	assert.Nil(t, recs[1].Reading)
}

func TestRecords_MissingNameColumn(t *testing.T) {
	table, err := Parse([]byte("Navn;Engelsk\nA;50\n"))
	require.NoError(t, err)

	_, err = table.Records(DefaultMapping())
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"50", domain.Score(50)},
		{" 47.5 ", domain.Score(47.5)},
		{"52,3", domain.Score(52.3)},
		{"", nil},
		{"*", nil},
		{"-", nil},
		{"n/a", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseScore(tt.in))
		})
	}
}

func TestLoadMapping_OverridesSomeFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [Skolenavn]\nmath: [Matematikk]\n"), 0o600))

	m, err := LoadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Skolenavn"}, m.Name)
	assert.Equal(t, []string{"Matematikk"}, m.Math)
	assert.Equal(t, DefaultMapping().English, m.English)
}

func TestLoadMapping_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o600))

	_, err := LoadMapping(path)
	require.Error(t, err)
}

func TestLoadMapping_EmptyPath(t *testing.T) {
	m, err := LoadMapping("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMapping(), m)
}

func TestWriteProcessed_RoundTripsThroughReader(t *testing.T) {
	in := []domain.ExamRecord{
		{Name: "Bekkestua skole", Municipality: "Bærum", Scores: domain.Scores{English: domain.Score(52), Reading: domain.Score(51)}, Lat: 59.9185, Lng: 10.5893},
		{Name: "Ukjent skole", Municipality: "Oslo", Scores: domain.Scores{Math: domain.Score(44)}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteProcessed(&buf, in))

	assert.Contains(t, buf.String(), "name;kommune;engelsk;lesing;regning;lat;lng\n")
	assert.Contains(t, buf.String(), "Bekkestua skole;Bærum;52;51;;59.9185;10.5893\n")
	assert.Contains(t, buf.String(), "Ukjent skole;Oslo;;;44;0;0\n")

	table, err := Parse(buf.Bytes())
	require.NoError(t, err)
	out, err := table.Records(DefaultMapping())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestClassifyFileName(t *testing.T) {
	tests := []struct {
		path   string
		year   string
		typ    domain.SchoolType
		wantOK bool
	}{
		{"processed-data/2024-25_20250115-0900_Nasjonale_proever_5._trinn.csv", "2024-25", domain.Primary, true},
		{"2023-24_Nasjonale_proever_ungdomstrinn.csv", "2023-24", domain.LowerSecondary, true},
		{"2022-23_barneskole.csv", "2022-23", domain.Primary, true},
		{"geocode-cache.csv", "", "", false},
		{"2022-23_unknown.csv", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			year, typ, ok := ClassifyFileName(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.year, year)
			assert.Equal(t, tt.typ, typ)
		})
	}
}

func TestProcessedResults(t *testing.T) {
	dir := t.TempDir()
	recs := []domain.ExamRecord{{Name: "A skole", Municipality: "Oslo", Lat: 59.9, Lng: 10.7}}
	require.NoError(t, WriteProcessedFile(filepath.Join(dir, "2024-25_5._trinn.csv"), recs))
	require.NoError(t, WriteProcessedFile(filepath.Join(dir, "2024-25_ungdomstrinn.csv"), recs))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("x;y\n"), 0o600))

	results, err := ProcessedResults(dir)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, domain.Primary, results[0].Type)
	assert.Equal(t, domain.LowerSecondary, results[1].Type)
	assert.Equal(t, "A skole", results[1].Records[0].Name)
}

func TestAnalyze_Suggestions(t *testing.T) {
	table, err := Parse([]byte("Fylke;Kommune;Skolenavn;Engelsk 5. trinn;Lesing 5. trinn;Regning 5. trinn\nViken;Asker;Hovenga skole;50;49;51\n"))
	require.NoError(t, err)

	a := Analyze(table)
	assert.Equal(t, 1, a.RowCount)
	assert.Equal(t, []string{"Fylke"}, a.Suggestions["county"])
	assert.Equal(t, []string{"Skolenavn"}, a.Suggestions["school_name"])
	assert.Equal(t, []string{"Engelsk 5. trinn"}, a.Mapping.English)
	assert.Equal(t, "Hovenga skole", a.Sample["Skolenavn"])
	assert.Equal(t, `';'`, a.Format.DelimiterName())
}

func TestFileSink_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "2024-25_5._trinn.csv")
	sink := FileSink{Path: path}

	err := sink.Write(context.Background(), []domain.GeocodedSchool{
		{Name: "A skole", Municipality: "Oslo", Scores: domain.Scores{English: domain.Score(50)}, Lat: 59.9, Lng: 10.7},
	})
	require.NoError(t, err)

	recs, err := ReadRecords(path, DefaultMapping())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A skole", recs[0].Name)
	assert.Equal(t, 59.9, recs[0].Lat)
}
