// Package vision wraps the Google Vision images:annotate REST API for
// landmark detection over raw image bytes.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/your-org/landmark/internal/geo"
	"github.com/your-org/landmark/internal/observability"
)

// ErrUnavailable covers transport, decode, and API-level failures. A clean
// "no landmarks in this image" outcome is not an error; Detect returns
// (nil, nil) for it.
var ErrUnavailable = errors.New("vision service unavailable")

// Landmark is the highest-confidence detection for an image.
type Landmark struct {
	Name       string
	Confidence float64 // percent, 0-100, 2 decimals
	Lat        float64
	Lng        float64
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a landmark detection client. httpClient may be nil, in
// which case a default client with the given timeout is used.
func NewClient(baseURL, apiKey string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	Content string `json:"content"`
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateResponse struct {
	Responses []struct {
		LandmarkAnnotations []struct {
			Description string  `json:"description"`
			Score       float64 `json:"score"`
			Locations   []struct {
				LatLng struct {
					Latitude  float64 `json:"latitude"`
					Longitude float64 `json:"longitude"`
				} `json:"latLng"`
			} `json:"locations"`
		} `json:"landmarkAnnotations"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// Detect runs landmark detection on imageData. The API returns annotations
// in confidence order; the first one carrying a location wins. A response
// with no usable annotations yields (nil, nil).
func (c *Client) Detect(ctx context.Context, imageData []byte) (*Landmark, error) {
	body := annotateRequest{
		Requests: []annotateEntry{{
			Image:    annotateImage{Content: base64.StdEncoding.EncodeToString(imageData)},
			Features: []annotateFeature{{Type: "LANDMARK_DETECTION", MaxResults: 10}},
		}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", ErrUnavailable, err)
	}

	u := c.baseURL + "/v1/images:annotate?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	t0 := time.Now()
	observability.DetectRequestsTotal.Inc()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.DetectFailuresTotal.Inc()
		slog.Error("vision http error", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var r annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		observability.DetectFailuresTotal.Inc()
		slog.Error("vision decode error", "error", err)
		return nil, fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}

	observability.DetectDuration.Observe(time.Since(t0).Seconds())

	if len(r.Responses) == 0 {
		observability.DetectFailuresTotal.Inc()
		return nil, fmt.Errorf("%w: empty annotate response", ErrUnavailable)
	}
	first := r.Responses[0]
	if first.Error.Message != "" {
		observability.DetectFailuresTotal.Inc()
		slog.Error("vision api error", "message", first.Error.Message)
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, first.Error.Message)
	}

	for _, ann := range first.LandmarkAnnotations {
		if len(ann.Locations) == 0 {
			continue
		}
		ll := ann.Locations[0].LatLng
		lm := &Landmark{
			Name:       ann.Description,
			Confidence: geo.Round2(ann.Score * 100),
			Lat:        ll.Latitude,
			Lng:        ll.Longitude,
		}
		slog.Debug("landmark detected", "name", lm.Name, "confidence", lm.Confidence)
		return lm, nil
	}

	slog.Debug("no landmarks detected")
	return nil, nil
}
