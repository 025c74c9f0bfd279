package dto

import "github.com/google/uuid"

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ImageRecordResponse is the projection of a persisted record returned by
// every read and write endpoint. Landmark fields come from the detection
// cached at upload time, so they always match the stored distance.
type ImageRecordResponse struct {
	ID              uuid.UUID   `json:"id"`
	Address         string      `json:"address"`
	Latitude        float64     `json:"latitude"`
	Longitude       float64     `json:"longitude"`
	Landmark        string      `json:"landmark"`
	ConfidenceScore float64     `json:"confidence_score"`
	Coordinates     Coordinates `json:"coordinates"`
	DistanceKm      float64     `json:"distance_km"`
	ImageURL        string      `json:"image_url"`
	UploadedAt      string      `json:"uploaded_at"`
	UpdatedAt       string      `json:"updated_at"`
}

// ImageRecordListResponse wraps a listing in insertion order.
type ImageRecordListResponse struct {
	Records []ImageRecordResponse `json:"records"`
	Total   int                   `json:"total"`
}
