package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the map
// service and the offline pipeline.
type Metrics struct {
	DatasetLoaded  prometheus.Gauge       // 1 once the dataset is loaded
	SchoolsLoaded  prometheus.Gauge       // schools in the loaded dataset
	DatasetLoads   *prometheus.CounterVec // labels: outcome={success,error}
	FragmentLoads  *prometheus.CounterVec // labels: outcome={success,error}
	SearchQueries  *prometheus.CounterVec // labels: result={cleared,empty,hits}
	Navigations    *prometheus.CounterVec // labels: outcome={direct,reveal,not_found}
	ClusterQueries prometheus.Histogram   // groups returned per clusters request

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: layer={memory,disk}, result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	SchoolsGeocoded    *prometheus.CounterVec // labels: source={geocoded,original,failed}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DatasetLoaded,
		m.SchoolsLoaded,
		m.DatasetLoads,
		m.FragmentLoads,
		m.SearchQueries,
		m.Navigations,
		m.ClusterQueries,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.SchoolsGeocoded,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "school_map",
			Name:      "dataset_loaded",
			Help:      "1 when the school dataset has been loaded, 0 otherwise.",
		}),
		SchoolsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "school_map",
			Name:      "schools_loaded",
			Help:      "Number of schools in the loaded dataset.",
		}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school_map",
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by outcome.",
		}, []string{"outcome"}),
		FragmentLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school_map",
			Name:      "fragment_loads_total",
			Help:      "UI fragment load attempts by outcome.",
		}, []string{"outcome"}),
		SearchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school_map",
			Name:      "search_queries_total",
			Help:      "Search queries by result kind.",
		}, []string{"result"}),
		Navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school_map",
			Name:      "navigations_total",
			Help:      "Navigation requests by outcome.",
		}, []string{"outcome"}),
		ClusterQueries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "school_map",
			Name:      "cluster_groups",
			Help:      "Number of clusters and single markers returned per request.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 3000},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school_map",
			Name:      "geocode_requests_total",
			Help:      "Nominatim requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school_map",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by layer and result.",
		}, []string{"layer", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "school_map",
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SchoolsGeocoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school_map",
			Name:      "schools_geocoded_total",
			Help:      "Schools processed by the geocode run, by coordinate source.",
		}, []string{"source"}),
	}
}
