package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Throttle spaces calls to the wrapped geocoder at least delay apart.
// Nominatim's usage policy allows one request per second.
type Throttle struct {
	inner domain.Geocoder
	delay time.Duration
	clock clockwork.Clock

	mu   sync.Mutex
	last time.Time
}

// NewThrottle wraps inner. A nil clock uses real time.
func NewThrottle(inner domain.Geocoder, delay time.Duration, clock clockwork.Clock) *Throttle {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Throttle{inner: inner, delay: delay, clock: clock}
}

func (t *Throttle) Geocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		wait := t.delay - t.clock.Since(t.last)
		if !sleepWithContext(ctx, t.clock, wait) {
			return domain.GeocodingResult{}, ctx.Err()
		}
	}
	result, err := t.inner.Geocode(ctx, query)
	t.last = t.clock.Now()
	return result, err
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
