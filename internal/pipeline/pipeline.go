// Package pipeline contains the upload and update flows: structural
// validation, content-hash deduplication, geocoding, landmark detection,
// distance computation, and persistence.
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/your-org/landmark/internal/config"
	"github.com/your-org/landmark/internal/geocode"
	"github.com/your-org/landmark/internal/models"
	"github.com/your-org/landmark/internal/vision"
)

// Geocoder resolves an address to coordinates. Implementations report
// geocode.ErrNotFound for unresolvable addresses and any other error for
// transient failure.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (geocode.Location, error)
}

// Detector finds the highest-confidence landmark in raw image bytes,
// returning (nil, nil) when nothing is detected.
type Detector interface {
	Detect(ctx context.Context, imageData []byte) (*vision.Landmark, error)
}

// RecordStore is the persistence surface the pipelines need. Implementations
// return storage.ErrDuplicateHash from Create/Update when the content-hash
// uniqueness constraint fires.
type RecordStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.LocationImage, error)
	FindByHash(ctx context.Context, hash string) (*models.LocationImage, error)
	FindByHashAndAddress(ctx context.Context, hash, address string) (*models.LocationImage, error)
	Create(ctx context.Context, rec *models.LocationImage) error
	Update(ctx context.Context, rec *models.LocationImage) error
}

// BlobStore owns the binary image content.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Pipeline orchestrates uploads and updates over injected collaborators.
type Pipeline struct {
	store    RecordStore
	blobs    BlobStore
	geocoder Geocoder
	detector Detector
	cfg      config.UploadConfig
}

func New(store RecordStore, blobs BlobStore, geocoder Geocoder, detector Detector, cfg config.UploadConfig) *Pipeline {
	return &Pipeline{
		store:    store,
		blobs:    blobs,
		geocoder: geocoder,
		detector: detector,
		cfg:      cfg,
	}
}
