// Package udir reads exam result exports from the Norwegian Directorate for
// Education and Training (UDIR) and the processed CSVs derived from them.
package udir

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/school-map-service/internal/domain"
)

var (
	// ErrMissingColumn is returned when a required column is not in the header.
	ErrMissingColumn = errors.New("missing column")
	// ErrUnrecognizedFormat is returned when no delimiter yields a usable header.
	ErrUnrecognizedFormat = errors.New("unrecognized csv format")
)

// Format describes how a file was decoded.
type Format struct {
	Encoding  string
	Delimiter rune
	SepLine   bool // the file started with an Excel "sep=" declaration
}

// DelimiterName renders the delimiter for display.
func (f Format) DelimiterName() string {
	if f.Delimiter == '\t' {
		return "TAB"
	}
	return strconv.QuoteRune(f.Delimiter)
}

// Table is a decoded CSV file.
type Table struct {
	Format Format
	Header []string
	Rows   [][]string
}

// ReadFile reads and decodes a CSV file of any supported encoding and delimiter.
func ReadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return Table{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// Parse detects encoding and delimiter, skips a leading "sep=" line and
// splits the rest into header and rows.
func Parse(data []byte) (Table, error) {
	f := Format{Encoding: DetectEncoding(data)}
	text, err := DecodeUTF8(data, f.Encoding)
	if err != nil {
		return Table{}, err
	}
	text = bytes.ReplaceAll(text, []byte("\r\n"), []byte("\n"))

	first, rest, _ := bytes.Cut(text, []byte("\n"))
	if sep, ok := sepDeclaration(first); ok {
		f.SepLine = true
		f.Delimiter = sep
		text = rest
		first, _, _ = bytes.Cut(text, []byte("\n"))
	}
	if f.Delimiter == 0 {
		f.Delimiter = detectDelimiter(string(first))
	}
	if f.Delimiter == 0 {
		return Table{}, ErrUnrecognizedFormat
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = f.Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, ErrUnrecognizedFormat
		}
		return Table{}, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read rows: %w", err)
	}
	return Table{Format: f, Header: header, Rows: rows}, nil
}

func sepDeclaration(line []byte) (rune, bool) {
	s := strings.TrimSpace(strings.Trim(string(line), "\""))
	if !strings.HasPrefix(strings.ToLower(s), "sep=") {
		return 0, false
	}
	v := s[len("sep="):]
	switch {
	case v == "" || v == `\t`:
		return '\t', true
	default:
		return []rune(v)[0], true
	}
}

func detectDelimiter(header string) rune {
	for _, d := range []rune{'\t', ';', ','} {
		if strings.ContainsRune(header, d) {
			return d
		}
	}
	return 0
}

// Records maps table rows to exam records. Rows without a school name are
// skipped. Coordinates are read when the mapping names lat/lng columns
// present in the header; otherwise they stay at the (0, 0) sentinel.
func (t Table) Records(m ColumnMapping) ([]domain.ExamRecord, error) {
	idx, err := m.resolve(t.Header)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ExamRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		name := cell(row, idx.name)
		if name == "" {
			continue
		}
		rec := domain.ExamRecord{
			Name:         name,
			Municipality: cell(row, idx.municipality),
			Scores: domain.Scores{
				English: ParseScore(cell(row, idx.english)),
				Reading: ParseScore(cell(row, idx.reading)),
				Math:    ParseScore(cell(row, idx.math)),
			},
		}
		if lat := ParseScore(cell(row, idx.lat)); lat != nil {
			rec.Lat = *lat
		}
		if lng := ParseScore(cell(row, idx.lng)); lng != nil {
			rec.Lng = *lng
		}
		records = append(records, rec)
	}
	return records, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseScore parses a numeric cell. UDIR suppresses small groups with "*"
// and marks absent results with "-" or an empty cell; those and any other
// non-numeric value yield nil. A decimal comma is accepted.
func ParseScore(s string) *float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", "*", "-", "–":
		return nil
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ReadRecords reads a source or processed CSV file into exam records.
func ReadRecords(path string, m ColumnMapping) ([]domain.ExamRecord, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	recs, err := t.Records(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}
