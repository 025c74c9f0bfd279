package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/landmark/internal/models"
	"github.com/your-org/landmark/internal/observability"
	"github.com/your-org/landmark/internal/pipeline"
	"github.com/your-org/landmark/internal/queue"
	"github.com/your-org/landmark/internal/storage"
	"github.com/your-org/landmark/pkg/dto"
)

type RecordHandler struct {
	db       *storage.PostgresStore
	blobs    *storage.MinIOStore
	pipe     *pipeline.Pipeline
	producer *queue.Producer
}

func NewRecordHandler(db *storage.PostgresStore, blobs *storage.MinIOStore, pipe *pipeline.Pipeline, producer *queue.Producer) *RecordHandler {
	return &RecordHandler{db: db, blobs: blobs, pipe: pipe, producer: producer}
}

func toResponse(rec *models.LocationImage) dto.ImageRecordResponse {
	return dto.ImageRecordResponse{
		ID:              rec.ID,
		Address:         rec.HomeAddress,
		Latitude:        rec.Latitude,
		Longitude:       rec.Longitude,
		Landmark:        rec.LandmarkName,
		ConfidenceScore: rec.LandmarkScore,
		Coordinates:     dto.Coordinates{Latitude: rec.LandmarkLat, Longitude: rec.LandmarkLng},
		DistanceKm:      rec.DistanceKm,
		ImageURL:        "/v1/images/" + rec.ID.String() + "/file",
		UploadedAt:      rec.UploadedAt.Format(time.RFC3339),
		UpdatedAt:       rec.UpdatedAt.Format(time.RFC3339),
	}
}

// writePipelineError maps the pipeline error taxonomy onto HTTP statuses:
// validation, duplicate, and address failures are 400; unknown ids are 404.
func writePipelineError(c *gin.Context, err error) {
	var verr *pipeline.ValidationError
	var aerr *pipeline.AddressError

	switch {
	case errors.Is(err, pipeline.ErrDuplicateContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
	case errors.As(err, &aerr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid home address: " + aerr.Address})
	case errors.Is(err, pipeline.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *RecordHandler) publishEvent(c *gin.Context, kind, evtType string, recordID uuid.UUID, data *dto.ImageRecordResponse) {
	event := dto.RecordEvent{Type: evtType, RecordID: recordID, Data: data}
	if err := h.producer.PublishRecordEvent(c.Request.Context(), kind, event); err != nil {
		slog.Warn("publish record event", "kind", kind, "error", err)
	}
}

// Upload accepts a multipart image plus an optional home address and runs
// the full upload pipeline.
func (h *RecordHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}

	rec, err := h.pipe.Upload(c.Request.Context(), pipeline.UploadInput{
		Data:        imageData,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		HomeAddress: c.PostForm("home_address"),
	})
	if err != nil {
		writePipelineError(c, err)
		return
	}

	resp := toResponse(rec)
	h.publishEvent(c, "created", dto.EventRecordCreated, rec.ID, &resp)
	c.JSON(http.StatusCreated, resp)
}

func (h *RecordHandler) List(c *gin.Context) {
	records, err := h.db.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.ImageRecordResponse, 0, len(records))
	for i := range records {
		resp = append(resp, toResponse(&records[i]))
	}

	c.JSON(http.StatusOK, dto.ImageRecordListResponse{Records: resp, Total: len(resp)})
}

func (h *RecordHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	rec, err := h.db.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	c.JSON(http.StatusOK, toResponse(rec))
}

// File streams the stored image blob.
func (h *RecordHandler) File(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	rec, err := h.db.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	data, err := h.blobs.Get(c.Request.Context(), rec.ObjectKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch image failed"})
		return
	}

	c.Data(http.StatusOK, rec.ContentType, data)
}

// Update applies a partial update: a new home address, a replacement image,
// or both, from a multipart form.
func (h *RecordHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	var in pipeline.UpdateInput

	file, header, err := c.Request.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		imageData, rerr := io.ReadAll(file)
		if rerr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
			return
		}
		in.Image = &pipeline.ImageInput{
			Data:        imageData,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
		}
	case errors.Is(err, http.ErrMissingFile):
		// image unchanged
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	if address, ok := c.GetPostForm("home_address"); ok {
		in.HomeAddress = &address
	}

	if in.HomeAddress == nil && in.Image == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	rec, err := h.pipe.Update(c.Request.Context(), id, in)
	if err != nil {
		writePipelineError(c, err)
		return
	}

	resp := toResponse(rec)
	h.publishEvent(c, "updated", dto.EventRecordUpdated, rec.ID, &resp)
	c.JSON(http.StatusOK, resp)
}

func (h *RecordHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	rec, err := h.db.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	if _, err := h.db.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.blobs.Delete(c.Request.Context(), rec.ObjectKey); err != nil {
		slog.Warn("delete blob for removed record", "key", rec.ObjectKey, "error", err)
	}

	observability.RecordsDeleted.Inc()
	h.publishEvent(c, "deleted", dto.EventRecordDeleted, id, nil)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// DeleteAll removes every record and its blob. Responds 404 when there is
// nothing to delete.
func (h *RecordHandler) DeleteAll(c *gin.Context) {
	records, err := h.db.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No images found to delete."})
		return
	}

	keys := make([]string, 0, len(records))
	for i := range records {
		keys = append(keys, records[i].ObjectKey)
	}

	deleted, err := h.db.DeleteAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.blobs.DeleteMany(c.Request.Context(), keys); err != nil {
		slog.Warn("delete blobs for removed records", "error", err)
	}

	observability.RecordsDeleted.Add(float64(deleted))
	h.publishEvent(c, "deleted", dto.EventRecordDeleted, uuid.Nil, nil)
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "count": deleted})
}
