// Package geo holds the HTTP clients for the external location providers:
// IP geolocation, reverse geocoding, and postal pincode lookup.
package geo

import (
	"context"
	"net/http"

	"github.com/ogura/location-service/internal/domain"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// IPLocator resolves a coarse location from a client IP address.
type IPLocator interface {
	Locate(ctx context.Context, ip string) (*domain.GeoPlace, error)
}

// ReverseGeocoder resolves a place from GPS coordinates.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*domain.GeoPlace, error)
}

// PincodeResolver resolves city/state/country from a 6-digit postal pincode.
type PincodeResolver interface {
	Resolve(ctx context.Context, pincode string) (*domain.GeoPlace, error)
}
