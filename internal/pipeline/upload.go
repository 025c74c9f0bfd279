package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/your-org/landmark/internal/geo"
	"github.com/your-org/landmark/internal/models"
	"github.com/your-org/landmark/internal/observability"
	"github.com/your-org/landmark/internal/storage"
)

// UploadInput is a raw upload: the image bytes plus the declared metadata
// from the multipart form. HomeAddress may be empty, in which case the
// configured default address applies.
type UploadInput struct {
	Data        []byte
	Filename    string
	ContentType string
	HomeAddress string
}

// Upload runs the full validation-and-enrichment sequence. Every gate before
// persistence is hard: a failure aborts with nothing written. A missing
// landmark is not a failure; the record persists with distance 0.0.
func (p *Pipeline) Upload(ctx context.Context, in UploadInput) (*models.LocationImage, error) {
	vu, err := p.validate(in.Data, in.ContentType)
	if err != nil {
		observability.UploadsTotal.WithLabelValues("validation_error").Inc()
		return nil, err
	}

	existing, err := p.store.FindByHash(ctx, vu.Hash)
	if err != nil {
		observability.UploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("dedup check: %w", err)
	}
	if existing != nil {
		observability.UploadsTotal.WithLabelValues("duplicate").Inc()
		return nil, ErrDuplicateContent
	}

	address := in.HomeAddress
	if address == "" {
		address = p.cfg.DefaultHomeAddress
	}

	home, err := p.geocoder.Resolve(ctx, address)
	if err != nil {
		observability.UploadsTotal.WithLabelValues("bad_address").Inc()
		return nil, &AddressError{Address: address, Err: err}
	}

	rec := &models.LocationImage{
		ID:           uuid.New(),
		ObjectKey:    objectKey(in.Filename),
		ContentHash:  vu.Hash,
		ContentType:  vu.ContentType,
		SizeBytes:    int64(len(vu.Data)),
		HomeAddress:  address,
		Latitude:     home.Lat,
		Longitude:    home.Lng,
		LandmarkName: models.UnknownLandmark,
	}

	p.detectAndEnrich(ctx, rec, vu.Data)

	if err := p.blobs.Put(ctx, rec.ObjectKey, vu.Data, vu.ContentType); err != nil {
		observability.UploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store image blob: %w", err)
	}

	if err := p.store.Create(ctx, rec); err != nil {
		if derr := p.blobs.Delete(ctx, rec.ObjectKey); derr != nil {
			slog.Warn("orphan blob after failed insert", "key", rec.ObjectKey, "error", derr)
		}
		if errors.Is(err, storage.ErrDuplicateHash) {
			// A concurrent upload won the race between our hash check
			// and the insert; same outcome as the application check.
			observability.UploadsTotal.WithLabelValues("duplicate").Inc()
			return nil, ErrDuplicateContent
		}
		observability.UploadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("persist record: %w", err)
	}

	observability.UploadsTotal.WithLabelValues("created").Inc()
	slog.Info("record created",
		"id", rec.ID, "hash", rec.ContentHash, "landmark", rec.LandmarkName, "distance_km", rec.DistanceKm)
	return rec, nil
}

// detectAndEnrich runs landmark detection and writes the result onto rec.
// Detector failures degrade to the no-match outcome; an unresolvable image
// is a business result here, never a request failure.
func (p *Pipeline) detectAndEnrich(ctx context.Context, rec *models.LocationImage, imageData []byte) {
	lm, err := p.detector.Detect(ctx, imageData)
	if err != nil {
		slog.Warn("landmark detection failed, proceeding without match", "error", err)
		lm = nil
	}

	if lm == nil {
		rec.LandmarkName = models.UnknownLandmark
		rec.LandmarkScore = 0
		rec.LandmarkLat = 0
		rec.LandmarkLng = 0
		rec.DistanceKm = 0
		return
	}

	rec.LandmarkName = lm.Name
	rec.LandmarkScore = lm.Confidence
	rec.LandmarkLat = lm.Lat
	rec.LandmarkLng = lm.Lng
	rec.DistanceKm = geo.DistanceKm(rec.Latitude, rec.Longitude, lm.Lat, lm.Lng)
}

func objectKey(filename string) string {
	return "uploads/" + uuid.New().String() + "_" + filepath.Base(filename)
}
