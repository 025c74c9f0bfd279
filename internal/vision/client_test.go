package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "test-key", 2*time.Second, srv.Client()), srv
}

func TestDetectPicksFirstAnnotation(t *testing.T) {
	imageData := []byte("fake-image-bytes")

	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req annotateRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		require.Len(t, req.Requests, 1)
		assert.Equal(t, base64.StdEncoding.EncodeToString(imageData), req.Requests[0].Image.Content)
		assert.Equal(t, "LANDMARK_DETECTION", req.Requests[0].Features[0].Type)

		w.Write([]byte(`{"responses":[{"landmarkAnnotations":[
			{"description":"Eiffel Tower","score":0.97654,"locations":[{"latLng":{"latitude":48.8584,"longitude":2.2945}}]},
			{"description":"Tokyo Tower","score":0.41,"locations":[{"latLng":{"latitude":35.6586,"longitude":139.7454}}]}
		]}]}`))
	})
	defer srv.Close()

	lm, err := c.Detect(context.Background(), imageData)
	require.NoError(t, err)
	require.NotNil(t, lm)
	assert.Equal(t, "Eiffel Tower", lm.Name)
	assert.Equal(t, 97.65, lm.Confidence)
	assert.Equal(t, 48.8584, lm.Lat)
	assert.Equal(t, 2.2945, lm.Lng)
}

func TestDetectNoLandmarks(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{}]}`))
	})
	defer srv.Close()

	lm, err := c.Detect(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.Nil(t, lm)
}

func TestDetectSkipsAnnotationsWithoutLocations(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{"landmarkAnnotations":[
			{"description":"Unplaced","score":0.9,"locations":[]},
			{"description":"Sydney Opera House","score":0.8,"locations":[{"latLng":{"latitude":-33.8568,"longitude":151.2153}}]}
		]}]}`))
	})
	defer srv.Close()

	lm, err := c.Detect(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.NotNil(t, lm)
	assert.Equal(t, "Sydney Opera House", lm.Name)
}

func TestDetectAPIError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responses":[{"error":{"message":"invalid image"}}]}`))
	})
	defer srv.Close()

	_, err := c.Detect(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDetectMalformedBody(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	defer srv.Close()

	_, err := c.Detect(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDetectConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed on purpose

	c := NewClient(srv.URL, "test-key", time.Second, nil)
	_, err := c.Detect(context.Background(), []byte("img"))
	assert.ErrorIs(t, err, ErrUnavailable)
}
