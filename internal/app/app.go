// Package app wires the loaded dataset into the components of the map
// service. The Context is built once at startup and is read-only afterwards.
package app

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/school-map-service/internal/cluster"
	"github.com/couchcryptid/school-map-service/internal/dataset"
	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/couchcryptid/school-map-service/internal/marker"
	"github.com/couchcryptid/school-map-service/internal/observability"
	"github.com/couchcryptid/school-map-service/internal/search"
	"golang.org/x/sync/errgroup"
)

// ErrNotLoaded is reported by CheckReadiness when the dataset failed to load.
var ErrNotLoaded = errors.New("school dataset not loaded")

// Context holds the state shared by every request handler.
type Context struct {
	Schools     []domain.School
	CurrentYear string
	MapConfig   domain.MapConfig
	Markers     *marker.Registry
	Clusters    *cluster.Index
	Search      *search.Matcher
	// Fragment is the auxiliary info panel; empty when it failed to load.
	Fragment template.HTML
	// LoadErr is the dataset failure, if any. Components above are nil then.
	LoadErr error
}

// Ready reports whether the dataset loaded.
func (c *Context) Ready() bool {
	return c.LoadErr == nil && c.Markers != nil
}

// CheckReadiness implements the readiness checker used by /readyz.
func (c *Context) CheckReadiness(_ context.Context) error {
	if !c.Ready() {
		if c.LoadErr != nil {
			return fmt.Errorf("%w: %v", ErrNotLoaded, c.LoadErr)
		}
		return ErrNotLoaded
	}
	return nil
}

// DatasetLoader fetches the school dataset.
type DatasetLoader interface {
	Load(ctx context.Context) (*domain.Dataset, error)
}

// Deps are the collaborators Bootstrap needs.
type Deps struct {
	Dataset      DatasetLoader
	FragmentURL  string // empty disables the fragment
	FetchTimeout time.Duration
	DefaultView  domain.MapConfig
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Bootstrap fetches the dataset and the UI fragment concurrently; neither
// waits for or cancels the other. A fragment failure is logged and leaves
// the fragment empty. A dataset failure is recorded in LoadErr and returned;
// markers, clusters and search are only built after the dataset loaded.
func Bootstrap(ctx context.Context, deps Deps) (*Context, error) {
	appCtx := &Context{MapConfig: deps.DefaultView}

	var (
		g        errgroup.Group
		ds       *domain.Dataset
		fragment template.HTML
	)
	g.Go(func() error {
		var err error
		ds, err = deps.Dataset.Load(ctx)
		return err
	})
	g.Go(func() error {
		fragment = loadFragment(ctx, deps)
		return nil
	})

	err := g.Wait()
	appCtx.Fragment = fragment
	if err != nil {
		deps.Metrics.DatasetLoads.WithLabelValues("error").Inc()
		deps.Metrics.DatasetLoaded.Set(0)
		deps.Logger.Error("failed to load school dataset", "error", err)
		appCtx.LoadErr = err
		return appCtx, err
	}

	appCtx.init(ds, deps.Logger)
	deps.Metrics.DatasetLoads.WithLabelValues("success").Inc()
	deps.Metrics.DatasetLoaded.Set(1)
	deps.Metrics.SchoolsLoaded.Set(float64(len(appCtx.Schools)))
	deps.Logger.Info("school dataset loaded",
		"schools", len(appCtx.Schools),
		"markers", appCtx.Markers.Len(),
		"current_year", appCtx.CurrentYear,
	)
	return appCtx, nil
}

// init builds the components from a loaded dataset. A missing map
// configuration keeps the default view.
func (c *Context) init(ds *domain.Dataset, logger *slog.Logger) {
	c.Schools = ds.Schools
	c.CurrentYear = ds.CurrentYear()
	if ds.MapConfig != nil {
		c.MapConfig = *ds.MapConfig
	}
	c.Markers = marker.NewFactory(c.CurrentYear, logger).Build(c.Schools)
	c.Clusters = cluster.NewIndex(c.Markers.Members())
	c.Search = search.NewMatcher(c.Schools)
}

func loadFragment(ctx context.Context, deps Deps) template.HTML {
	if deps.FragmentURL == "" {
		return ""
	}
	client := &http.Client{Timeout: deps.FetchTimeout}
	data, err := dataset.Fetch(ctx, client, deps.FragmentURL)
	if err != nil {
		deps.Metrics.FragmentLoads.WithLabelValues("error").Inc()
		deps.Logger.Warn("failed to load ui fragment", "url", deps.FragmentURL, "error", err)
		return ""
	}
	deps.Metrics.FragmentLoads.WithLabelValues("success").Inc()
	// The fragment is site-owned markup, served like a static file.
	return template.HTML(data) //nolint:gosec // trusted site content
}
