package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/services/places/place"
)

func TestStaticResolve(t *testing.T) {
	t.Parallel()

	got, err := Static{}.Resolve(context.Background(), "20 W 34th St")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != DefaultLocation {
		t.Fatalf("location = %+v, want %+v", got, DefaultLocation)
	}

	custom := place.Coordinates{Lat: 1, Lng: 2}
	got, err = Static{Location: custom}.Resolve(context.Background(), "anywhere")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != custom {
		t.Fatalf("location = %+v, want %+v", got, custom)
	}
}

func TestStaticRejectsBlankAddress(t *testing.T) {
	t.Parallel()

	_, err := Static{}.Resolve(context.Background(), "  ")
	if !apperrors.HasCode(err, apperrors.CodeGeocodeFailed) {
		t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeGeocodeFailed)
	}
}

func TestGoogleClientResolve(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "20 W 34th St" {
			t.Errorf("address = %q, want 20 W 34th St", got)
		}
		if got := r.URL.Query().Get("key"); got != "api-key" {
			t.Errorf("key = %q, want api-key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":40.74,"lng":-73.98}}}]}`))
	}))
	defer server.Close()

	client := &GoogleClient{APIKey: "api-key", BaseURL: server.URL, HTTPClient: server.Client()}
	got, err := client.Resolve(context.Background(), " 20 W 34th St ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Lat != 40.74 || got.Lng != -73.98 {
		t.Fatalf("location = %+v, want 40.74/-73.98", got)
	}
}

func TestGoogleClientFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"zero results", http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`},
		{"ok without results", http.StatusOK, `{"status":"OK","results":[]}`},
		{"bad json", http.StatusOK, `{`},
		{"http error", http.StatusInternalServerError, `{}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := &GoogleClient{APIKey: "k", BaseURL: server.URL, HTTPClient: server.Client()}
			_, err := client.Resolve(context.Background(), "somewhere")
			if !apperrors.HasCode(err, apperrors.CodeGeocodeFailed) {
				t.Fatalf("code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeGeocodeFailed)
			}
			if apperrors.HTTPStatus(err) != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want %d", apperrors.HTTPStatus(err), http.StatusUnprocessableEntity)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	if g, err := New(Options{}); err != nil {
		t.Fatalf("default provider: %v", err)
	} else if _, ok := g.(Static); !ok {
		t.Fatalf("default provider = %T, want Static", g)
	}
	if g, err := New(Options{Provider: "Google", GoogleAPIKey: "k"}); err != nil {
		t.Fatalf("google provider: %v", err)
	} else if _, ok := g.(*GoogleClient); !ok {
		t.Fatalf("google provider = %T, want *GoogleClient", g)
	}
	if _, err := New(Options{Provider: ProviderGoogle}); !apperrors.HasCode(err, apperrors.CodeConfigInvalid) {
		t.Fatalf("missing key code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeConfigInvalid)
	}
	if _, err := New(Options{Provider: "bing"}); !apperrors.HasCode(err, apperrors.CodeConfigInvalid) {
		t.Fatalf("unknown provider code = %s, want %s", apperrors.CodeOf(err), apperrors.CodeConfigInvalid)
	}
}
