package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	kafkaadapter "github.com/couchcryptid/school-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/school-map-service/internal/adapter/nominatim"
	"github.com/couchcryptid/school-map-service/internal/adapter/sqlite"
	"github.com/couchcryptid/school-map-service/internal/adapter/udir"
	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/couchcryptid/school-map-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

// geocoderStack is the Nominatim client behind the request delay, the
// in-memory cache and the persistent SQLite cache.
type geocoderStack struct {
	domain.Geocoder
	store *sqlite.Store
}

func (e *env) openGeocoder(ctx context.Context) (*geocoderStack, error) {
	store, err := sqlite.Open(ctx, e.cfg.GeocodeCacheDB)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache: %w", err)
	}
	client := nominatim.NewClient(e.cfg.NominatimURL, e.cfg.NominatimUserAgent, e.cfg.NominatimTimeout, e.metrics, e.logger)
	throttled := pipeline.NewThrottle(client, e.cfg.GeocodeDelay, clockwork.NewRealClock())
	cached := nominatim.NewCachedGeocoder(throttled, e.cfg.GeocodeCacheSize, store, e.metrics, e.logger)

	if n, err := store.Len(ctx); err == nil {
		e.logger.Info("geocoder ready",
			"url", e.cfg.NominatimURL,
			"delay", e.cfg.GeocodeDelay,
			"cached", n,
		)
	}
	return &geocoderStack{Geocoder: cached, store: store}, nil
}

func (g *geocoderStack) Close() error {
	return g.store.Close()
}

func (e *env) mapping() (udir.ColumnMapping, error) {
	if e.mappingPath == "" {
		return udir.DefaultMapping(), nil
	}
	return udir.LoadMapping(e.mappingPath)
}

// job is one export to geocode into one processed file.
type job struct {
	src  string
	dst  string
	year string
	typ  domain.SchoolType
}

// geocodeJobs geocodes each export and writes the processed CSV, plus the
// Kafka topic when brokers are configured.
func (e *env) geocodeJobs(ctx context.Context, jobs []job) error {
	m, err := e.mapping()
	if err != nil {
		return err
	}
	geo, err := e.openGeocoder(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := geo.Close(); err != nil {
			e.logger.Error("geocode cache close error", "error", err)
		}
	}()

	var kafkaSink *kafkaadapter.Writer
	if e.cfg.KafkaEnabled() {
		kafkaSink = kafkaadapter.NewWriter(e.cfg, e.logger)
		defer func() {
			if err := kafkaSink.Close(); err != nil {
				e.logger.Error("kafka writer close error", "error", err)
			}
		}()
	}

	for _, j := range jobs {
		records, err := udir.ReadRecords(j.src, m)
		if err != nil {
			return fmt.Errorf("read %s: %w", j.src, err)
		}
		sinks := []pipeline.Sink{udir.FileSink{Path: j.dst}}
		if kafkaSink != nil {
			sinks = append(sinks, kafkaSink)
		}
		p := pipeline.New(geo, e.logger, e.metrics, sinks...)
		res, err := p.Geocode(ctx, j.year, j.typ, records)
		if err != nil {
			return fmt.Errorf("geocode %s: %w", j.src, err)
		}
		e.logger.Info("processed file written",
			"src", j.src,
			"dst", j.dst,
			"schools", len(res.Records),
			"failed", res.Failed,
		)
	}
	return nil
}

func (e *env) build() error {
	results, err := udir.ProcessedResults(e.processedDir)
	if err != nil {
		return fmt.Errorf("read processed results: %w", err)
	}
	_, err = pipeline.BuildDataset(results, e.cfg.DefaultZoom, e.datasetPath, e.logger)
	return err
}

func newGeocodeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode",
		Short: "Geocode every UDIR export in the raw data directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := filepath.Glob(filepath.Join(e.rawDir, "*.csv"))
			if err != nil {
				return err
			}
			var jobs []job
			for _, p := range paths {
				year, typ, ok := udir.ClassifyFileName(p)
				if !ok {
					e.logger.Warn("skipping unrecognized export", "path", p)
					continue
				}
				jobs = append(jobs, job{
					src:  p,
					dst:  filepath.Join(e.processedDir, filepath.Base(p)),
					year: year,
					typ:  typ,
				})
			}
			if len(jobs) == 0 {
				return fmt.Errorf("no UDIR exports found in %s", e.rawDir)
			}
			return e.geocodeJobs(cmd.Context(), jobs)
		},
	}
}

func newBuildCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the map dataset from the processed CSVs",
		RunE: func(_ *cobra.Command, _ []string) error {
			return e.build()
		},
	}
}

func newImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <YYYY-YY> <barneskole.csv> <ungdomsskole.csv>",
		Short: "Geocode a new school year and rebuild the dataset with it as current year",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := importJobs(e.processedDir, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if err := e.geocodeJobs(cmd.Context(), jobs); err != nil {
				return err
			}
			return e.build()
		},
	}
}

// importJobs checks the year and the two input files and names the
// processed files the new year is written to.
func importJobs(processedDir, year, primary, lower string) ([]job, error) {
	if err := domain.ValidateYear(year); err != nil {
		return nil, err
	}
	for _, p := range []string{primary, lower} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("file not found: %s", p)
			}
			return nil, err
		}
	}
	return []job{
		{src: primary, dst: filepath.Join(processedDir, year+"_barneskole.csv"), year: year, typ: domain.Primary},
		{src: lower, dst: filepath.Join(processedDir, year+"_ungdomsskole.csv"), year: year, typ: domain.LowerSecondary},
	}, nil
}

func newGeocodeOneCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode-one <address>",
		Short: "Geocode a single address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geo, err := e.openGeocoder(cmd.Context())
			if err != nil {
				return err
			}
			defer geo.Close() //nolint:errcheck // nothing written on this path

			r, err := geo.Geocode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !r.Found() {
				fmt.Fprintf(out, "no result for %q\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "%s\n%.6f, %.6f\n", r.DisplayName, r.Lat, r.Lng)
			if !domain.InNorway(r.Lat, r.Lng) {
				fmt.Fprintln(out, "warning: outside Norway")
			}
			return nil
		},
	}
}
