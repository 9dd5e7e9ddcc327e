package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service and pipeline settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Dataset and UI fragment sources: an http(s) URL, a file:// URL or a path.
	DatasetURL   string
	FragmentURL  string
	FetchTimeout time.Duration

	// Default map view, used when the dataset carries no map configuration.
	DefaultCenterLat float64
	DefaultCenterLng float64
	DefaultZoom      int

	// Nominatim geocoding configuration.
	NominatimURL       string
	NominatimUserAgent string
	NominatimTimeout   time.Duration
	GeocodeDelay       time.Duration
	GeocodeCacheSize   int
	GeocodeCacheDB     string

	// Optional Kafka sink for geocoded records; disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string
}

// KafkaEnabled reports whether geocoded records are also published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	nominatimTimeout, err := parsePositiveDuration("NOMINATIM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	// Nominatim's usage policy allows at most one request per second.
	geocodeDelay, err := time.ParseDuration(sharedcfg.EnvOrDefault("GEOCODE_DELAY", "1s"))
	if err != nil || geocodeDelay < 0 {
		return nil, errors.New("invalid GEOCODE_DELAY")
	}

	lat, err := parseFloat("DEFAULT_CENTER_LAT", 59.9139)
	if err != nil {
		return nil, err
	}
	lng, err := parseFloat("DEFAULT_CENTER_LNG", 10.7522)
	if err != nil {
		return nil, err
	}

	zoom, err := strconv.Atoi(sharedcfg.EnvOrDefault("DEFAULT_ZOOM", "11"))
	if err != nil || zoom < 0 || zoom > 19 {
		return nil, errors.New("invalid DEFAULT_ZOOM: must be an integer between 0 and 19")
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetURL:   sharedcfg.EnvOrDefault("DATASET_URL", "static/js/school-data.json"),
		FragmentURL:  os.Getenv("FRAGMENT_URL"),
		FetchTimeout: fetchTimeout,

		DefaultCenterLat: lat,
		DefaultCenterLng: lng,
		DefaultZoom:      zoom,

		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "school-map-service"),
		NominatimTimeout:   nominatimTimeout,
		GeocodeDelay:       geocodeDelay,
		GeocodeCacheSize:   parseGeocodeCacheSize(),
		GeocodeCacheDB:     sharedcfg.EnvOrDefault("GEOCODE_CACHE_DB", "processed-data/geocode-cache.db"),

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "geocoded-schools"),
	}

	return cfg, nil
}

func parsePositiveDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return d, nil
}

func parseFloat(name string, def float64) (float64, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}

func parseGeocodeCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
