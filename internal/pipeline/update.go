package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/your-org/landmark/internal/geo"
	"github.com/your-org/landmark/internal/models"
	"github.com/your-org/landmark/internal/observability"
	"github.com/your-org/landmark/internal/storage"
)

// ImageInput is a replacement image on the update path.
type ImageInput struct {
	Data        []byte
	Filename    string
	ContentType string
}

// UpdateInput describes a partial update. Nil fields are left untouched;
// address-only updates never invoke the detector.
type UpdateInput struct {
	HomeAddress *string
	Image       *ImageInput
}

// Update re-runs the relevant pipeline stages for the changed fields of an
// existing record. A geocoding failure aborts before any mutation persists.
func (p *Pipeline) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.LocationImage, error) {
	rec, err := p.store.Get(ctx, id)
	if err != nil {
		observability.UpdatesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load record: %w", err)
	}
	if rec == nil {
		observability.UpdatesTotal.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}

	if in.HomeAddress != nil {
		if err := p.applyAddress(ctx, rec, *in.HomeAddress); err != nil {
			return nil, err
		}
	}

	oldKey := ""
	if in.Image != nil {
		replaced, err := p.applyImage(ctx, rec, in.Image)
		if err != nil {
			return nil, err
		}
		oldKey = replaced
	}

	if err := p.store.Update(ctx, rec); err != nil {
		if in.Image != nil {
			if derr := p.blobs.Delete(ctx, rec.ObjectKey); derr != nil {
				slog.Warn("orphan blob after failed update", "key", rec.ObjectKey, "error", derr)
			}
		}
		if errors.Is(err, storage.ErrDuplicateHash) {
			observability.UpdatesTotal.WithLabelValues("duplicate").Inc()
			return nil, ErrDuplicateContent
		}
		observability.UpdatesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("persist update: %w", err)
	}

	// The new row is committed; the superseded blob can go.
	if oldKey != "" && oldKey != rec.ObjectKey {
		if err := p.blobs.Delete(ctx, oldKey); err != nil {
			slog.Warn("delete superseded blob", "key", oldKey, "error", err)
		}
	}

	observability.UpdatesTotal.WithLabelValues("updated").Inc()
	slog.Info("record updated", "id", rec.ID, "landmark", rec.LandmarkName, "distance_km", rec.DistanceKm)
	return rec, nil
}

// applyAddress resolves a new home address onto rec. A record already seen
// with the same (hash, address) pair acts as a reuse cache: its coordinates
// and distance are copied without a geocode call.
func (p *Pipeline) applyAddress(ctx context.Context, rec *models.LocationImage, address string) error {
	if address == "" {
		address = p.cfg.DefaultHomeAddress
	}

	cached, err := p.store.FindByHashAndAddress(ctx, rec.ContentHash, address)
	if err != nil {
		observability.UpdatesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("reuse cache lookup: %w", err)
	}
	if cached != nil {
		rec.HomeAddress = address
		rec.Latitude = cached.Latitude
		rec.Longitude = cached.Longitude
		rec.DistanceKm = cached.DistanceKm
		slog.Debug("geocode reuse cache hit", "id", rec.ID, "source", cached.ID)
		return nil
	}

	home, err := p.geocoder.Resolve(ctx, address)
	if err != nil {
		observability.UpdatesTotal.WithLabelValues("bad_address").Inc()
		return &AddressError{Address: address, Err: err}
	}

	rec.HomeAddress = address
	rec.Latitude = home.Lat
	rec.Longitude = home.Lng
	if rec.HasLandmark() {
		rec.DistanceKm = geo.DistanceKm(rec.Latitude, rec.Longitude, rec.LandmarkLat, rec.LandmarkLng)
	} else {
		rec.DistanceKm = 0
	}
	return nil
}

// applyImage validates and stages a replacement image on rec, re-running
// detection and the distance computation. Returns the superseded object key
// so the caller can delete it once the update commits.
func (p *Pipeline) applyImage(ctx context.Context, rec *models.LocationImage, in *ImageInput) (string, error) {
	vu, err := p.validate(in.Data, in.ContentType)
	if err != nil {
		observability.UpdatesTotal.WithLabelValues("validation_error").Inc()
		return "", err
	}

	// Only cross-record collisions matter; re-uploading the record's own
	// image is legal.
	if vu.Hash != rec.ContentHash {
		existing, err := p.store.FindByHash(ctx, vu.Hash)
		if err != nil {
			observability.UpdatesTotal.WithLabelValues("error").Inc()
			return "", fmt.Errorf("dedup check: %w", err)
		}
		if existing != nil && existing.ID != rec.ID {
			observability.UpdatesTotal.WithLabelValues("duplicate").Inc()
			return "", ErrDuplicateContent
		}
	}

	newKey := objectKey(in.Filename)
	if err := p.blobs.Put(ctx, newKey, vu.Data, vu.ContentType); err != nil {
		observability.UpdatesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("store image blob: %w", err)
	}

	oldKey := rec.ObjectKey
	rec.ObjectKey = newKey
	rec.ContentHash = vu.Hash
	rec.ContentType = vu.ContentType
	rec.SizeBytes = int64(len(vu.Data))

	p.detectAndEnrich(ctx, rec, vu.Data)

	return oldKey, nil
}
