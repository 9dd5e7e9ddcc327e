package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat         float64
	Lng         float64
	DisplayName string
	Importance  float64 // provider ranking score, higher is better
}

// Found reports whether the provider returned a location.
func (r GeocodingResult) Found() bool {
	return r.Lat != 0 || r.Lng != 0
}

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (GeocodingResult, error)
}
