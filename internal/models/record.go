package models

import (
	"time"

	"github.com/google/uuid"
)

// UnknownLandmark is reported when detection produced no match for the image.
const UnknownLandmark = "Unknown"

// LocationImage is the persisted record for one uploaded photograph.
// ContentHash and UploadedAt are set once at creation and never change;
// the landmark columns cache the detection result that produced DistanceKm,
// so responses never need a second detection call.
type LocationImage struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ObjectKey     string    `json:"object_key" db:"object_key"`
	ContentHash   string    `json:"content_hash" db:"content_hash"`
	ContentType   string    `json:"content_type" db:"content_type"`
	SizeBytes     int64     `json:"size_bytes" db:"size_bytes"`
	HomeAddress   string    `json:"home_address" db:"home_address"`
	Latitude      float64   `json:"latitude" db:"latitude"`
	Longitude     float64   `json:"longitude" db:"longitude"`
	DistanceKm    float64   `json:"distance_km" db:"distance_km"`
	LandmarkName  string    `json:"landmark_name" db:"landmark_name"`
	LandmarkScore float64   `json:"landmark_score" db:"landmark_score"`
	LandmarkLat   float64   `json:"landmark_lat" db:"landmark_lat"`
	LandmarkLng   float64   `json:"landmark_lng" db:"landmark_lng"`
	UploadedAt    time.Time `json:"uploaded_at" db:"uploaded_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// HasLandmark reports whether a landmark was detected for the stored image.
func (r *LocationImage) HasLandmark() bool {
	return r.LandmarkName != "" && r.LandmarkName != UnknownLandmark
}
