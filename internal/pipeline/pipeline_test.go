package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/your-org/landmark/internal/config"
	"github.com/your-org/landmark/internal/geocode"
	"github.com/your-org/landmark/internal/models"
	"github.com/your-org/landmark/internal/vision"
)

func testUploadConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxSizeBytes:       5 * 1024 * 1024,
		MinDimension:       200,
		MaxDimension:       4000,
		DefaultHomeAddress: "35 Davean Dr, North York, ON, Canada M2L 2R6",
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

// fakeStore is an in-memory RecordStore. Get and the hash lookups return
// copies so pipeline-side mutation never leaks back before Update commits.
type fakeStore struct {
	records   map[uuid.UUID]*models.LocationImage
	createErr error
	updateErr error

	findByHashCalls int
	cacheCalls      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[uuid.UUID]*models.LocationImage{}}
}

func (s *fakeStore) add(rec *models.LocationImage) {
	cp := *rec
	s.records[rec.ID] = &cp
}

func (s *fakeStore) Get(_ context.Context, id uuid.UUID) (*models.LocationImage, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) FindByHash(_ context.Context, hash string) (*models.LocationImage, error) {
	s.findByHashCalls++
	for _, rec := range s.records {
		if rec.ContentHash == hash {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByHashAndAddress(_ context.Context, hash, address string) (*models.LocationImage, error) {
	s.cacheCalls++
	for _, rec := range s.records {
		if rec.ContentHash == hash && rec.HomeAddress == address {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Create(_ context.Context, rec *models.LocationImage) error {
	if s.createErr != nil {
		return s.createErr
	}
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

func (s *fakeStore) Update(_ context.Context, rec *models.LocationImage) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

type fakeBlobs struct {
	objects map[string][]byte
	putErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (b *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.objects[key] = data
	return nil
}

func (b *fakeBlobs) Delete(_ context.Context, key string) error {
	delete(b.objects, key)
	return nil
}

type fakeGeocoder struct {
	loc   geocode.Location
	err   error
	calls int
	last  string
}

func (g *fakeGeocoder) Resolve(_ context.Context, address string) (geocode.Location, error) {
	g.calls++
	g.last = address
	if g.err != nil {
		return geocode.Location{}, g.err
	}
	return g.loc, nil
}

type fakeDetector struct {
	lm    *vision.Landmark
	err   error
	calls int
}

func (d *fakeDetector) Detect(_ context.Context, _ []byte) (*vision.Landmark, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.lm, nil
}

type testEnv struct {
	pipeline *Pipeline
	store    *fakeStore
	blobs    *fakeBlobs
	geocoder *fakeGeocoder
	detector *fakeDetector
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store:    newFakeStore(),
		blobs:    newFakeBlobs(),
		geocoder: &fakeGeocoder{loc: geocode.Location{Lat: 43.7615, Lng: -79.3585}},
		detector: &fakeDetector{lm: &vision.Landmark{
			Name: "Eiffel Tower", Confidence: 97.65, Lat: 48.8584, Lng: 2.2945,
		}},
	}
	env.pipeline = New(env.store, env.blobs, env.geocoder, env.detector, testUploadConfig())
	return env
}
