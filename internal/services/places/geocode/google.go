package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/platform/timeouts"
	"github.com/louisbranch/places/internal/services/places/place"
)

// DefaultGoogleBaseURL is the Google Geocoding JSON endpoint.
const DefaultGoogleBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleClient resolves addresses with the Google Geocoding API.
type GoogleClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewGoogleClient builds a client with the default endpoint and timeout.
func NewGoogleClient(apiKey string) *GoogleClient {
	return &GoogleClient{
		APIKey:     strings.TrimSpace(apiKey),
		BaseURL:    DefaultGoogleBaseURL,
		HTTPClient: &http.Client{Timeout: timeouts.Geocode},
	}
}

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Resolve implements Geocoder.
func (c *GoogleClient) Resolve(ctx context.Context, address string) (place.Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return place.Coordinates{}, ErrAddressNotFound
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultGoogleBaseURL
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	query := url.Values{}
	query.Set("address", address)
	query.Set("key", c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return place.Coordinates{}, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return place.Coordinates{}, apperrors.Wrap(apperrors.CodeGeocodeFailed, "Could not find location for the specified address.", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return place.Coordinates{}, apperrors.Wrap(apperrors.CodeGeocodeFailed, "Could not find location for the specified address.",
			fmt.Errorf("geocode http status %d", resp.StatusCode))
	}

	var payload googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return place.Coordinates{}, apperrors.Wrap(apperrors.CodeGeocodeFailed, "Could not find location for the specified address.", err)
	}
	if payload.Status != "OK" || len(payload.Results) == 0 {
		return place.Coordinates{}, apperrors.Wrap(apperrors.CodeGeocodeFailed, "Could not find location for the specified address.",
			fmt.Errorf("geocode status %q", payload.Status))
	}
	loc := payload.Results[0].Geometry.Location
	return place.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}
