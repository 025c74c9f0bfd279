package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/landmark/internal/geo"
	"github.com/your-org/landmark/internal/geocode"
	"github.com/your-org/landmark/internal/models"
	"github.com/your-org/landmark/internal/storage"
)

func TestUploadSuccess(t *testing.T) {
	env := newTestEnv()
	data := pngBytes(t, 300, 300)

	rec, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data:        data,
		Filename:    "tower.png",
		ContentType: "image/png",
		HomeAddress: "1 Main St, Toronto",
	})
	require.NoError(t, err)

	assert.Equal(t, ContentHash(data), rec.ContentHash)
	assert.Equal(t, "1 Main St, Toronto", rec.HomeAddress)
	assert.Equal(t, 43.7615, rec.Latitude)
	assert.Equal(t, -79.3585, rec.Longitude)
	assert.Equal(t, "Eiffel Tower", rec.LandmarkName)
	assert.Equal(t, 97.65, rec.LandmarkScore)
	assert.Equal(t, geo.DistanceKm(43.7615, -79.3585, 48.8584, 2.2945), rec.DistanceKm)
	assert.Equal(t, int64(len(data)), rec.SizeBytes)

	// Blob stored under the record's key, record persisted.
	assert.Equal(t, data, env.blobs.objects[rec.ObjectKey])
	assert.Len(t, env.store.records, 1)
}

func TestUploadUsesDefaultAddressWhenEmpty(t *testing.T) {
	env := newTestEnv()

	rec, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data:        pngBytes(t, 300, 300),
		Filename:    "tower.png",
		ContentType: "image/png",
	})
	require.NoError(t, err)

	assert.Equal(t, testUploadConfig().DefaultHomeAddress, env.geocoder.last)
	assert.Equal(t, testUploadConfig().DefaultHomeAddress, rec.HomeAddress)
}

func TestUploadDuplicateRejectedRegardlessOfAddress(t *testing.T) {
	env := newTestEnv()
	data := pngBytes(t, 300, 300)

	_, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data: data, Filename: "a.png", ContentType: "image/png", HomeAddress: "addr one",
	})
	require.NoError(t, err)

	geocodeCalls := env.geocoder.calls
	detectCalls := env.detector.calls

	_, err = env.pipeline.Upload(context.Background(), UploadInput{
		Data: data, Filename: "b.png", ContentType: "image/png", HomeAddress: "a completely different address",
	})
	assert.ErrorIs(t, err, ErrDuplicateContent)

	// Rejected at the dedup gate: no further external calls, nothing persisted.
	assert.Equal(t, geocodeCalls, env.geocoder.calls)
	assert.Equal(t, detectCalls, env.detector.calls)
	assert.Len(t, env.store.records, 1)
	assert.Len(t, env.blobs.objects, 1)
}

func TestUploadValidationRejectsBeforeExternalCalls(t *testing.T) {
	env := newTestEnv()

	_, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data: pngBytes(t, 100, 100), Filename: "small.png", ContentType: "image/png",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "too small")

	assert.Zero(t, env.geocoder.calls)
	assert.Zero(t, env.detector.calls)
	assert.Zero(t, env.store.findByHashCalls)
	assert.Empty(t, env.store.records)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	env := newTestEnv()
	cfg := testUploadConfig()
	cfg.MaxSizeBytes = 64
	env.pipeline = New(env.store, env.blobs, env.geocoder, env.detector, cfg)

	_, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data: pngBytes(t, 300, 300), Filename: "big.png", ContentType: "image/png",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "too large")
}

func TestUploadRejectsUnsupportedContentType(t *testing.T) {
	env := newTestEnv()

	_, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data: pngBytes(t, 300, 300), Filename: "anim.gif", ContentType: "image/gif",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "Unsupported file format")
}

func TestUploadAddressNotFoundAbortsWithoutPersisting(t *testing.T) {
	env := newTestEnv()
	env.geocoder.err = geocode.ErrNotFound

	_, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data: pngBytes(t, 300, 300), Filename: "x.png", ContentType: "image/png", HomeAddress: "nowhere",
	})

	var aerr *AddressError
	require.ErrorAs(t, err, &aerr)
	assert.ErrorIs(t, err, geocode.ErrNotFound)

	assert.Empty(t, env.store.records)
	assert.Empty(t, env.blobs.objects)
	assert.Zero(t, env.detector.calls)
}

func TestUploadTransientGeocodeFailureAborts(t *testing.T) {
	env := newTestEnv()
	env.geocoder.err = geocode.ErrUnavailable

	_, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data: pngBytes(t, 300, 300), Filename: "x.png", ContentType: "image/png", HomeAddress: "somewhere",
	})

	var aerr *AddressError
	require.ErrorAs(t, err, &aerr)
	assert.Empty(t, env.store.records)
}

func TestUploadNoLandmarkSucceedsWithZeroDistance(t *testing.T) {
	env := newTestEnv()
	env.detector.lm = nil

	rec, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data: pngBytes(t, 300, 300), Filename: "plain.png", ContentType: "image/png", HomeAddress: "1 Main St",
	})
	require.NoError(t, err)

	assert.Equal(t, models.UnknownLandmark, rec.LandmarkName)
	assert.Equal(t, 0.0, rec.DistanceKm)
	assert.Equal(t, 0.0, rec.LandmarkScore)
	assert.Len(t, env.store.records, 1)
}

func TestUploadDetectorFailureDegradesToNoMatch(t *testing.T) {
	env := newTestEnv()
	env.detector.err = assert.AnError

	rec, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data: pngBytes(t, 300, 300), Filename: "x.png", ContentType: "image/png", HomeAddress: "1 Main St",
	})
	require.NoError(t, err)

	assert.Equal(t, models.UnknownLandmark, rec.LandmarkName)
	assert.Equal(t, 0.0, rec.DistanceKm)
}

func TestUploadConstraintRaceTranslatesToDuplicate(t *testing.T) {
	env := newTestEnv()
	env.store.createErr = storage.ErrDuplicateHash

	_, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data: pngBytes(t, 300, 300), Filename: "x.png", ContentType: "image/png", HomeAddress: "1 Main St",
	})

	assert.ErrorIs(t, err, ErrDuplicateContent)
	// The staged blob must not leak when the insert loses the race.
	assert.Empty(t, env.blobs.objects)
}

func TestUploadAcceptsJPEG(t *testing.T) {
	env := newTestEnv()

	rec, err := env.pipeline.Upload(context.Background(), UploadInput{
		Data: jpegBytes(t, 640, 480), Filename: "photo.jpg", ContentType: "image/jpeg", HomeAddress: "1 Main St",
	})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", rec.ContentType)
}
