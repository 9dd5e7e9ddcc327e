package domain

import (
	"context"
	"log/slog"
	"time"
)

// Norway bounding box used to reject geocoder hits in other countries.
const (
	norwayMinLat = 57.0
	norwayMaxLat = 72.0
	norwayMinLng = 4.0
	norwayMaxLng = 32.0
)

// GeoSource records how a school's coordinates were obtained.
type GeoSource string

const (
	GeoSourceGeocoded GeoSource = "geocoded"
	GeoSourceOriginal GeoSource = "original" // coordinates were already present
	GeoSourceFailed   GeoSource = "failed"   // sentinel (0, 0)
)

// InNorway reports whether the coordinate lies inside the Norway bounding box.
func InNorway(lat, lng float64) bool {
	return lat >= norwayMinLat && lat <= norwayMaxLat &&
		lng >= norwayMinLng && lng <= norwayMaxLng
}

// IsSentinel reports whether lat/lng is the (0, 0) placeholder written for
// schools that could not be geocoded.
func IsSentinel(lat, lng float64) bool {
	return lat == 0 && lng == 0
}

// GeocodeQueries returns the address strings tried for a school, most
// specific first.
func GeocodeQueries(name, municipality string) []string {
	queries := make([]string, 0, 4)
	if municipality != "" {
		queries = append(queries,
			name+", "+municipality+", Norway",
			name+", "+municipality+", Norge",
		)
	}
	return append(queries, name+", Norway", name+", Norge")
}

// ExamRecord is one row of a processed exam CSV: a school's results for one
// year together with its coordinates.
type ExamRecord struct {
	Name         string
	Municipality string
	Scores
	Lat float64
	Lng float64
}

// GeocodedSchool is the event emitted for each school processed by a
// geocode run.
type GeocodedSchool struct {
	RunID        string     `json:"run_id"`
	Year         string     `json:"year"`
	Type         SchoolType `json:"type"`
	Name         string     `json:"name"`
	Municipality string     `json:"kommune"`
	Scores
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Source     GeoSource `json:"source"`
	GeocodedAt time.Time `json:"geocoded_at"`
}

// Key returns the registry key of the school.
func (g GeocodedSchool) Key() string {
	return SchoolKey(g.Name, g.Municipality)
}

// HasCoordinates reports whether the record carries non-sentinel coordinates.
func (r ExamRecord) HasCoordinates() bool {
	return !IsSentinel(r.Lat, r.Lng)
}

// LocateSchool fills in the record's coordinates by trying each query from
// GeocodeQueries in turn. A hit outside Norway is skipped. When every query
// fails the record keeps the (0, 0) sentinel; failures are permanent and
// never retried here.
func LocateSchool(ctx context.Context, rec ExamRecord, geocoder Geocoder, logger *slog.Logger) (ExamRecord, GeoSource) {
	if rec.HasCoordinates() {
		return rec, GeoSourceOriginal
	}
	if geocoder == nil {
		return rec, GeoSourceFailed
	}

	for _, q := range GeocodeQueries(rec.Name, rec.Municipality) {
		if ctx.Err() != nil {
			break
		}
		result, err := geocoder.Geocode(ctx, q)
		if err != nil {
			logger.Warn("geocoding failed", "school", rec.Name, "query", q, "error", err)
			continue
		}
		if !result.Found() {
			continue
		}
		if !InNorway(result.Lat, result.Lng) {
			logger.Debug("geocoding hit outside Norway", "query", q, "lat", result.Lat, "lng", result.Lng)
			continue
		}
		rec.Lat = result.Lat
		rec.Lng = result.Lng
		return rec, GeoSourceGeocoded
	}

	logger.Warn("could not geocode school", "school", rec.Name, "kommune", rec.Municipality)
	rec.Lat, rec.Lng = 0, 0
	return rec, GeoSourceFailed
}
