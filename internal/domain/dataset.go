package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
)

// yearRe matches a school year such as "2025-26".
var yearRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ErrNoCurrentYear is returned when BuildDataset receives no results at all.
var ErrNoCurrentYear = errors.New("no exam results to build from")

// ValidateYear checks the YYYY-YY school year format.
func ValidateYear(year string) error {
	if !yearRe.MatchString(year) {
		return fmt.Errorf("year must be in format YYYY-YY (e.g. 2026-27), got %q", year)
	}
	return nil
}

// YearResults holds the processed exam records of one school type for one year.
type YearResults struct {
	Year    string
	Type    SchoolType
	Records []ExamRecord
}

// BuildDataset assembles the map dataset. The newest year in results is the
// current year and provides the map entries; every earlier year is attached
// as history to the current-year school with the same key and type. Schools
// whose coordinates are still the (0, 0) sentinel are left off the map.
// The map center is the mean of the included coordinates.
func BuildDataset(results []YearResults, zoom int, logger *slog.Logger) (Dataset, error) {
	if len(results) == 0 {
		return Dataset{}, ErrNoCurrentYear
	}

	current := ""
	for _, r := range results {
		if err := ValidateYear(r.Year); err != nil {
			return Dataset{}, err
		}
		if !r.Type.Valid() {
			return Dataset{}, fmt.Errorf("year %s: unknown school type %q", r.Year, r.Type)
		}
		if r.Year > current {
			current = r.Year
		}
	}

	// Earlier years, oldest first, so history ends up in chronological order.
	past := make([]YearResults, 0, len(results))
	for _, r := range results {
		if r.Year != current {
			past = append(past, r)
		}
	}
	sort.SliceStable(past, func(i, j int) bool { return past[i].Year < past[j].Year })

	history := make(map[string][]YearScores)
	for _, r := range past {
		seen := make(map[string]bool, len(r.Records))
		for _, rec := range r.Records {
			k := historyKey(r.Type, rec.Name, rec.Municipality)
			if seen[k] {
				continue
			}
			seen[k] = true
			history[k] = append(history[k], YearScores{Year: r.Year, Scores: rec.Scores})
		}
	}

	var schools []School
	var sumLat, sumLng float64
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Year != current {
			continue
		}
		for _, rec := range r.Records {
			k := historyKey(r.Type, rec.Name, rec.Municipality)
			if seen[k] {
				logger.Warn("duplicate school in exam results", "school", rec.Name, "kommune", rec.Municipality, "year", r.Year)
				continue
			}
			seen[k] = true
			if !rec.HasCoordinates() {
				logger.Warn("school has no coordinates, left off the map", "school", rec.Name, "kommune", rec.Municipality)
				continue
			}
			s := School{
				Name:         rec.Name,
				Municipality: rec.Municipality,
				Type:         r.Type,
				Lat:          rec.Lat,
				Lng:          rec.Lng,
				Scores:       rec.Scores,
				History:      history[k],
			}
			s.Derive()
			schools = append(schools, s)
			sumLat += s.Lat
			sumLng += s.Lng
		}
	}

	ds := Dataset{
		Metadata: &Metadata{CurrentYear: current, GeneratedAt: clock.Now().UTC()},
		Schools:  schools,
	}
	if n := float64(len(schools)); n > 0 {
		ds.MapConfig = &MapConfig{Center: [2]float64{sumLat / n, sumLng / n}, Zoom: zoom}
	}
	return ds, nil
}

func historyKey(t SchoolType, name, municipality string) string {
	return string(t) + "|" + SchoolKey(name, municipality)
}
