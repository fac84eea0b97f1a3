// Package geocode resolves street addresses to coordinates.
package geocode

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/services/places/place"
)

// Provider names accepted by New.
const (
	ProviderStatic = "static"
	ProviderGoogle = "google"
)

// Geocoder resolves an address to a location.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (place.Coordinates, error)
}

// ErrAddressNotFound is returned when a provider has no match for an address.
var ErrAddressNotFound = apperrors.New(apperrors.CodeGeocodeFailed, "Could not find location for the specified address.")

// Options configures provider construction.
type Options struct {
	Provider     string
	GoogleAPIKey string
}

// New returns the geocoder selected by opts.Provider.
func New(opts Options) (Geocoder, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderStatic:
		return Static{}, nil
	case ProviderGoogle:
		if strings.TrimSpace(opts.GoogleAPIKey) == "" {
			return nil, apperrors.New(apperrors.CodeConfigInvalid, "PLACES_GOOGLE_API_KEY is required for the google geocoder")
		}
		return NewGoogleClient(opts.GoogleAPIKey), nil
	default:
		return nil, apperrors.New(apperrors.CodeConfigInvalid, fmt.Sprintf("unknown geocoder %q", opts.Provider))
	}
}

// Static resolves every non-blank address to the same coordinates.
type Static struct {
	Location place.Coordinates
}

// DefaultLocation is used by Static when no location is set.
var DefaultLocation = place.Coordinates{Lat: 40.7484474, Lng: -73.9871516}

// Resolve implements Geocoder.
func (s Static) Resolve(ctx context.Context, address string) (place.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return place.Coordinates{}, apperrors.Wrap(apperrors.CodeGeocodeFailed, "Could not find location for the specified address.", err)
	}
	if strings.TrimSpace(address) == "" {
		return place.Coordinates{}, ErrAddressNotFound
	}
	if s.Location == (place.Coordinates{}) {
		return DefaultLocation, nil
	}
	return s.Location, nil
}
