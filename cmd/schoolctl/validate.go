package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/couchcryptid/school-map-service/internal/dataset"
	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/spf13/cobra"
)

// phase tracks pass/fail for one group of dataset checks.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// errValidation is returned when any phase failed; details are printed.
var errValidation = errors.New("dataset validation failed")

func newValidateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dataset]",
		Short: "Check a built dataset for consistency",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := e.datasetPath
			if len(args) == 1 {
				src = args[0]
			}
			ds, err := loadDataset(cmd.Context(), src, e)
			if err != nil {
				return err
			}
			if !report(cmd.OutOrStdout(), validateDataset(ds)) {
				return errValidation
			}
			return nil
		},
	}
}

func loadDataset(ctx context.Context, src string, e *env) (*domain.Dataset, error) {
	data, err := dataset.Fetch(ctx, &http.Client{Timeout: e.cfg.FetchTimeout}, src)
	if err != nil {
		return nil, err
	}
	return dataset.Decode(data)
}

// validateDataset runs every check phase against ds.
func validateDataset(ds *domain.Dataset) []*phase {
	meta := &phase{name: "metadata"}
	if ds.CurrentYear() == "" {
		meta.errorf("current_year missing")
	} else if err := domain.ValidateYear(ds.CurrentYear()); err != nil {
		meta.errorf("%v", err)
	}
	if ds.MapConfig == nil {
		meta.errorf("map_config missing")
	}

	keys := &phase{name: "unique keys"}
	seen := make(map[string]bool, len(ds.Schools))
	for _, s := range ds.Schools {
		k := string(s.Type) + "|" + s.Key()
		if seen[k] {
			keys.errorf("duplicate school %s (%s)", s.Key(), s.Type)
		}
		seen[k] = true
	}

	coords := &phase{name: "coordinates"}
	for _, s := range ds.Schools {
		switch {
		case domain.IsSentinel(s.Lat, s.Lng):
			coords.errorf("%s: not geocoded", s.Key())
		case !domain.InNorway(s.Lat, s.Lng):
			coords.errorf("%s: %.4f,%.4f outside Norway", s.Key(), s.Lat, s.Lng)
		}
	}

	colors := &phase{name: "classification"}
	for _, s := range ds.Schools {
		if !s.Type.Valid() {
			colors.errorf("%s: unknown type %q", s.Key(), s.Type)
		}
		avg, n := domain.ComputeAverage(s.Scores)
		if n != s.ValidSubjects {
			colors.errorf("%s: valid_subjects %d, scores give %d", s.Key(), s.ValidSubjects, n)
		}
		if want := domain.Classify(avg); s.Color != want {
			colors.errorf("%s: color %s, average %s gives %s", s.Key(), s.Color, avg, want)
		}
	}

	history := &phase{name: "history"}
	for _, s := range ds.Schools {
		prev := ""
		for _, h := range s.History {
			if h.Year >= ds.CurrentYear() {
				history.errorf("%s: history year %s not before current year", s.Key(), h.Year)
			}
			if h.Year <= prev {
				history.errorf("%s: history not in chronological order at %s", s.Key(), h.Year)
			}
			prev = h.Year
		}
	}

	return []*phase{meta, keys, coords, colors, history}
}

// report prints each phase and returns whether all passed.
func report(w io.Writer, phases []*phase) bool {
	ok := true
	for _, p := range phases {
		if p.passed() {
			fmt.Fprintf(w, "PASS  %s\n", p.name)
			continue
		}
		ok = false
		fmt.Fprintf(w, "FAIL  %s (%d)\n", p.name, len(p.errors))
		for _, msg := range p.errors {
			fmt.Fprintf(w, "      %s\n", msg)
		}
	}
	return ok
}
