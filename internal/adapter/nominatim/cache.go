package nominatim

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/couchcryptid/school-map-service/internal/observability"
)

// Store is a persistent geocoding cache consulted after the in-memory layer.
type Store interface {
	Get(ctx context.Context, query string) (domain.GeocodingResult, bool, error)
	Put(ctx context.Context, query string, result domain.GeocodingResult) error
}

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache and an optional
// persistent store, so repeated runs do not re-query the API.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	store   Store
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates a cache decorator around a geocoder. store may be nil.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, store Store, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	key := cacheKey(query)
	if result, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("memory", "hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("memory", "miss").Inc()

	if c.store != nil {
		result, ok, err := c.store.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("geocode cache read failed", "query", query, "error", err)
		case ok:
			c.metrics.GeocodeCache.WithLabelValues("disk", "hit").Inc()
			c.cache.put(key, result)
			return result, nil
		default:
			c.metrics.GeocodeCache.WithLabelValues("disk", "miss").Inc()
		}
	}

	result, err := c.inner.Geocode(ctx, query)
	if err != nil {
		return result, err
	}
	// Only cache hits so "not found" responses are retried on the next run.
	if !result.Found() {
		return result, nil
	}
	c.cache.put(key, result)
	if c.store != nil {
		if err := c.store.Put(ctx, key, result); err != nil {
			c.logger.Warn("geocode cache write failed", "query", query, "error", err)
		}
	}
	return result, nil
}

func cacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// lruCache is a thread-safe LRU cache of geocoding results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.GeocodingResult
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	c.promote(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.promote(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	for len(c.entries) > c.maxEntries && c.tail != nil {
		delete(c.entries, c.tail.key)
		c.unlink(c.tail)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) promote(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}
