package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsBoundaryDimensions(t *testing.T) {
	env := newTestEnv()

	vu, err := env.pipeline.validate(pngBytes(t, 200, 200), "image/png")
	require.NoError(t, err)
	assert.Equal(t, 200, vu.Width)
	assert.Equal(t, 200, vu.Height)
	assert.NotEmpty(t, vu.Hash)
}

func TestValidateRejectsBelowMinimum(t *testing.T) {
	env := newTestEnv()

	_, err := env.pipeline.validate(pngBytes(t, 199, 300), "image/png")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "too small")
}

func TestValidateRejectsAboveMaximum(t *testing.T) {
	env := newTestEnv()
	cfg := testUploadConfig()
	cfg.MaxDimension = 500
	env.pipeline = New(env.store, env.blobs, env.geocoder, env.detector, cfg)

	_, err := env.pipeline.validate(pngBytes(t, 600, 300), "image/png")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "too large")
}

func TestValidateRejectsUndecodableContent(t *testing.T) {
	env := newTestEnv()

	_, err := env.pipeline.validate([]byte("definitely not an image"), "image/png")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "decode")
}

func TestValidateAcceptsJPEGContentTypeVariants(t *testing.T) {
	env := newTestEnv()
	data := jpegBytes(t, 300, 300)

	for _, ct := range []string{"image/jpeg", "image/jpg"} {
		_, err := env.pipeline.validate(data, ct)
		assert.NoError(t, err, ct)
	}
}

func TestContentHashStable(t *testing.T) {
	data := []byte("same bytes")
	assert.Equal(t, ContentHash(data), ContentHash(data))
	assert.NotEqual(t, ContentHash(data), ContentHash([]byte("other bytes")))
	// MD5 hex digest of the full content.
	assert.Len(t, ContentHash(data), 32)
}
