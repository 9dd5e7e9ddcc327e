// Package navigation moves the map to a selected school and opens its popup.
package navigation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/couchcryptid/school-map-service/internal/marker"
	"github.com/couchcryptid/school-map-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	// CloseZoom is the zoom level a selected school is shown at.
	CloseZoom = 16
	// SettleDelay lets the pan/zoom animation finish before the popup opens.
	SettleDelay = 500 * time.Millisecond
)

// ErrMarkerNotFound is returned when no marker matches the selection.
var ErrMarkerNotFound = errors.New("marker not found")

// View is the map surface navigation acts on.
type View interface {
	SetView(lat, lng float64, zoom int)
	// HasLayer reports whether the marker is rendered on its own rather
	// than absorbed into a cluster.
	HasLayer(m *marker.Marker) bool
	// ZoomToShowLayer zooms until the marker leaves its cluster, then calls done.
	ZoomToShowLayer(m *marker.Marker, done func())
	OpenPopup(m *marker.Marker)
}

// Controller resolves a (name, municipality) selection to its marker and
// drives the view to it.
type Controller struct {
	view     View
	registry *marker.Registry
	clock    clockwork.Clock
	settle   time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Controller that waits SettleDelay on clock between moving
// the view and opening the popup.
func New(view View, registry *marker.Registry, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	return &Controller{
		view:     view,
		registry: registry,
		clock:    clock,
		settle:   SettleDelay,
		logger:   logger,
		metrics:  metrics,
	}
}

// WithSettleDelay overrides the delay between SetView and opening the popup.
func (c *Controller) WithSettleDelay(d time.Duration) *Controller {
	c.settle = d
	return c
}

// Navigate centers the view on the school at CloseZoom and, once the view
// has settled, opens its popup. A marker hidden in a cluster is revealed
// first. Names are only unique within a municipality, so both are needed.
func (c *Controller) Navigate(ctx context.Context, name, municipality string) error {
	return c.NavigateTo(ctx, name, municipality, "")
}

// NavigateTo is Navigate for one school type, which tells apart the two
// markers of a school listed as both barneskole and ungdomsskole. An empty
// type picks the first marker of the school.
func (c *Controller) NavigateTo(ctx context.Context, name, municipality string, typ domain.SchoolType) error {
	m, ok := c.registry.LookupType(name, municipality, typ)
	if !ok {
		c.logger.Warn("navigation target not found", "school", name, "kommune", municipality, "type", typ)
		c.metrics.Navigations.WithLabelValues("not_found").Inc()
		return ErrMarkerNotFound
	}

	s := m.School()
	c.view.SetView(s.Lat, s.Lng, CloseZoom)

	if c.settle > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(c.settle):
		}
	}

	if c.view.HasLayer(m) {
		c.metrics.Navigations.WithLabelValues("direct").Inc()
		c.view.OpenPopup(m)
		return nil
	}
	c.metrics.Navigations.WithLabelValues("reveal").Inc()
	c.view.ZoomToShowLayer(m, func() { c.view.OpenPopup(m) })
	return nil
}
