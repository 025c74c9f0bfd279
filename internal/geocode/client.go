// Package geocode wraps the Google Geocoding REST API behind a small client
// that normalizes its outcomes: resolved coordinates, address not found, or a
// transient upstream failure.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/your-org/landmark/internal/observability"
)

// ErrNotFound means the collaborator recognized the request but found no
// coordinates for the address. Everything else (transport, decode, quota,
// unexpected status) surfaces as an error wrapping ErrUnavailable.
var (
	ErrNotFound    = errors.New("address not found")
	ErrUnavailable = errors.New("geocoding service unavailable")
)

// Location is a resolved coordinate pair.
type Location struct {
	Lat float64
	Lng float64
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a geocoding client. httpClient may be nil, in which
// case a default client with the given timeout is used.
func NewClient(baseURL, apiKey string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Resolve converts an address into coordinates using the first result the
// API returns. It never panics on malformed responses; any unparseable body
// is reported as unavailable.
func (c *Client) Resolve(ctx context.Context, address string) (Location, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)
	u := c.baseURL + "/maps/api/geocode/json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Location{}, fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}

	t0 := time.Now()
	observability.GeocodeRequestsTotal.Inc()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.GeocodeFailuresTotal.Inc()
		slog.Error("geocode http error", "error", err)
		return Location{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var r geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		observability.GeocodeFailuresTotal.Inc()
		slog.Error("geocode decode error", "error", err)
		return Location{}, fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}

	observability.GeocodeDuration.Observe(time.Since(t0).Seconds())

	switch r.Status {
	case "OK":
		if len(r.Results) == 0 {
			observability.GeocodeFailuresTotal.Inc()
			return Location{}, fmt.Errorf("%w: status OK with empty results", ErrUnavailable)
		}
		loc := r.Results[0].Geometry.Location
		slog.Debug("geocode resolved", "address", address, "lat", loc.Lat, "lng", loc.Lng)
		return Location{Lat: loc.Lat, Lng: loc.Lng}, nil
	case "ZERO_RESULTS", "INVALID_REQUEST":
		slog.Debug("geocode no results", "address", address, "status", r.Status)
		return Location{}, ErrNotFound
	default:
		observability.GeocodeFailuresTotal.Inc()
		slog.Error("geocode error status", "status", r.Status, "message", r.ErrorMessage)
		return Location{}, fmt.Errorf("%w: status %s: %s", ErrUnavailable, r.Status, r.ErrorMessage)
	}
}
