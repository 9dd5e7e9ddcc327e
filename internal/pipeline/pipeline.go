package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/couchcryptid/school-map-service/internal/observability"
	"github.com/google/uuid"
)

// progressEvery is how often, in rows, a geocode run logs its progress.
const progressEvery = 20

// Sink receives the schools processed by a geocode run.
type Sink interface {
	Write(ctx context.Context, schools []domain.GeocodedSchool) error
}

// Result summarizes one geocode run.
type Result struct {
	RunID    string
	Records  []domain.ExamRecord
	Geocoded int
	Original int
	Failed   int
}

// Pipeline resolves coordinates for exam records and hands the results to
// its sinks.
type Pipeline struct {
	geocoder domain.Geocoder
	sinks    []Sink
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Pipeline. geocoder may be nil, in which case records without
// coordinates keep the (0, 0) sentinel.
func New(geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Pipeline {
	return &Pipeline{
		geocoder: geocoder,
		sinks:    sinks,
		logger:   logger,
		metrics:  metrics,
	}
}

// Geocode locates every record of one year and school type. Lookups that
// fail leave the record at the sentinel; they are not retried. A cancelled
// context stops the run and returns the context error.
func (p *Pipeline) Geocode(ctx context.Context, year string, typ domain.SchoolType, records []domain.ExamRecord) (Result, error) {
	res := Result{
		RunID:   uuid.NewString(),
		Records: make([]domain.ExamRecord, 0, len(records)),
	}
	logger := p.logger.With("run_id", res.RunID, "year", year, "type", typ)
	logger.Info("geocode run started", "schools", len(records))

	events := make([]domain.GeocodedSchool, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		located, source := domain.LocateSchool(ctx, rec, p.geocoder, logger)
		switch source {
		case domain.GeoSourceGeocoded:
			res.Geocoded++
		case domain.GeoSourceOriginal:
			res.Original++
		case domain.GeoSourceFailed:
			res.Failed++
		}
		p.metrics.SchoolsGeocoded.WithLabelValues(string(source)).Inc()
		res.Records = append(res.Records, located)
		events = append(events, domain.GeocodedSchool{
			RunID:        res.RunID,
			Year:         year,
			Type:         typ,
			Name:         located.Name,
			Municipality: located.Municipality,
			Scores:       located.Scores,
			Lat:          located.Lat,
			Lng:          located.Lng,
			Source:       source,
			GeocodedAt:   domain.Now().UTC(),
		})

		if (i+1)%progressEvery == 0 {
			logger.Info("geocode progress", "done", i+1, "total", len(records), "failed", res.Failed)
		}
	}

	for _, s := range p.sinks {
		if err := s.Write(ctx, events); err != nil {
			return res, fmt.Errorf("write geocoded schools: %w", err)
		}
	}

	logger.Info("geocode run finished",
		"geocoded", res.Geocoded,
		"original", res.Original,
		"failed", res.Failed,
	)
	return res, nil
}
