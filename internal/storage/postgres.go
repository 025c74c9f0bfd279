package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/landmark/internal/config"
	"github.com/your-org/landmark/internal/models"
)

// ErrDuplicateHash is returned when an insert or update trips the unique
// constraint on content_hash. The pipeline performs its own lookup first;
// the constraint closes the check-then-act window under concurrent uploads.
var ErrDuplicateHash = errors.New("content hash already exists")

const uniqueViolationCode = "23505"

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the location_images table and its indexes.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS location_images (
			id             UUID PRIMARY KEY,
			object_key     TEXT NOT NULL,
			content_hash   TEXT NOT NULL UNIQUE,
			content_type   TEXT NOT NULL,
			size_bytes     BIGINT NOT NULL,
			home_address   TEXT NOT NULL,
			latitude       DOUBLE PRECISION NOT NULL,
			longitude      DOUBLE PRECISION NOT NULL,
			distance_km    DOUBLE PRECISION NOT NULL DEFAULT 0,
			landmark_name  TEXT NOT NULL DEFAULT 'Unknown',
			landmark_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			landmark_lat   DOUBLE PRECISION NOT NULL DEFAULT 0,
			landmark_lng   DOUBLE PRECISION NOT NULL DEFAULT 0,
			uploaded_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_location_images_hash_address
			ON location_images (content_hash, home_address);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const recordColumns = `id, object_key, content_hash, content_type, size_bytes, home_address,
	latitude, longitude, distance_km, landmark_name, landmark_score, landmark_lat, landmark_lng,
	uploaded_at, updated_at`

func scanRecord(row pgx.Row) (*models.LocationImage, error) {
	rec := &models.LocationImage{}
	err := row.Scan(&rec.ID, &rec.ObjectKey, &rec.ContentHash, &rec.ContentType, &rec.SizeBytes,
		&rec.HomeAddress, &rec.Latitude, &rec.Longitude, &rec.DistanceKm,
		&rec.LandmarkName, &rec.LandmarkScore, &rec.LandmarkLat, &rec.LandmarkLng,
		&rec.UploadedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// Create inserts a new record. The id must already be set; uploaded_at and
// updated_at are assigned by the database and written back onto rec.
func (s *PostgresStore) Create(ctx context.Context, rec *models.LocationImage) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO location_images
			(id, object_key, content_hash, content_type, size_bytes, home_address,
			 latitude, longitude, distance_km, landmark_name, landmark_score, landmark_lat, landmark_lng)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING uploaded_at, updated_at`,
		rec.ID, rec.ObjectKey, rec.ContentHash, rec.ContentType, rec.SizeBytes, rec.HomeAddress,
		rec.Latitude, rec.Longitude, rec.DistanceKm,
		rec.LandmarkName, rec.LandmarkScore, rec.LandmarkLat, rec.LandmarkLng,
	).Scan(&rec.UploadedAt, &rec.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateHash
		}
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// Update persists the mutable fields of an existing record.
func (s *PostgresStore) Update(ctx context.Context, rec *models.LocationImage) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE location_images SET
			object_key = $2, content_hash = $3, content_type = $4, size_bytes = $5,
			home_address = $6, latitude = $7, longitude = $8, distance_km = $9,
			landmark_name = $10, landmark_score = $11, landmark_lat = $12, landmark_lng = $13,
			updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		rec.ID, rec.ObjectKey, rec.ContentHash, rec.ContentType, rec.SizeBytes,
		rec.HomeAddress, rec.Latitude, rec.Longitude, rec.DistanceKm,
		rec.LandmarkName, rec.LandmarkScore, rec.LandmarkLat, rec.LandmarkLng,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("update record %s: not found", rec.ID)
		}
		if isUniqueViolation(err) {
			return ErrDuplicateHash
		}
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// Get fetches a record by id. Returns (nil, nil) when no row matches.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*models.LocationImage, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM location_images WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// FindByHash looks up a record by its content hash alone — the global
// deduplication key. Returns (nil, nil) when no row matches.
func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*models.LocationImage, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM location_images WHERE content_hash = $1`, hash))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find by hash: %w", err)
	}
	return rec, nil
}

// FindByHashAndAddress looks up a record by content hash and home address,
// serving as the update path's geocode reuse cache.
func (s *PostgresStore) FindByHashAndAddress(ctx context.Context, hash, address string) (*models.LocationImage, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM location_images
		 WHERE content_hash = $1 AND home_address = $2
		 ORDER BY uploaded_at ASC LIMIT 1`, hash, address))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find by hash and address: %w", err)
	}
	return rec, nil
}

// List returns all records in insertion order.
func (s *PostgresStore) List(ctx context.Context) ([]models.LocationImage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM location_images ORDER BY uploaded_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []models.LocationImage
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM location_images`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Delete removes a record by id. Reports whether a row was actually removed.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM location_images WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAll removes every record and returns how many were deleted.
func (s *PostgresStore) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM location_images`)
	if err != nil {
		return 0, fmt.Errorf("delete all records: %w", err)
	}
	return tag.RowsAffected(), nil
}
