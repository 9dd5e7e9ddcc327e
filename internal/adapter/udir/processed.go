package udir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/school-map-service/internal/domain"
)

// ProcessedHeader is the column layout of processed CSVs.
var ProcessedHeader = []string{"name", "kommune", "engelsk", "lesing", "regning", "lat", "lng"}

// WriteProcessed writes records as a semicolon separated UTF-8 CSV.
// Missing scores are written as empty cells.
func WriteProcessed(w io.Writer, records []domain.ExamRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(ProcessedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Name,
			r.Municipality,
			formatScore(r.English),
			formatScore(r.Reading),
			formatScore(r.Math),
			strconv.FormatFloat(r.Lat, 'f', -1, 64),
			strconv.FormatFloat(r.Lng, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteProcessedFile writes records to path, creating parent directories.
func WriteProcessedFile(path string, records []domain.ExamRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteProcessed(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// FileSink writes the schools of a geocode run to a processed CSV.
// It implements pipeline.Sink.
type FileSink struct {
	Path string
}

func (s FileSink) Write(_ context.Context, schools []domain.GeocodedSchool) error {
	records := make([]domain.ExamRecord, len(schools))
	for i, g := range schools {
		records[i] = domain.ExamRecord{
			Name:         g.Name,
			Municipality: g.Municipality,
			Scores:       g.Scores,
			Lat:          g.Lat,
			Lng:          g.Lng,
		}
	}
	return WriteProcessedFile(s.Path, records)
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

var yearPrefix = regexp.MustCompile(`^(\d{4}-\d{2})`)

// ClassifyFileName derives school year and type from a UDIR export file
// name such as "2024-25_20250115-0900_Nasjonale_proever_5._trinn.csv".
// Files whose name mentions "ungdom" hold lower secondary results; files
// naming 5th grade or "barne" hold primary results.
func ClassifyFileName(path string) (year string, typ domain.SchoolType, ok bool) {
	base := strings.ToLower(filepath.Base(path))
	m := yearPrefix.FindStringSubmatch(base)
	if m == nil {
		return "", "", false
	}
	switch {
	case strings.Contains(base, "ungdom"):
		return m[1], domain.LowerSecondary, true
	case strings.Contains(base, "5._trinn"), strings.Contains(base, "5_trinn"), strings.Contains(base, "barne"):
		return m[1], domain.Primary, true
	}
	return "", "", false
}

// ProcessedResults loads every recognizable processed CSV in dir.
func ProcessedResults(dir string) ([]domain.YearResults, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	var out []domain.YearResults
	for _, p := range paths {
		year, typ, ok := ClassifyFileName(p)
		if !ok {
			continue
		}
		recs, err := ReadRecords(p, DefaultMapping())
		if err != nil {
			return nil, err
		}
		out = append(out, domain.YearResults{Year: year, Type: typ, Records: recs})
	}
	return out, nil
}
