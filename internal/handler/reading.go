package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/bp-insights/internal/service"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
)

// maxImportBytes bounds the body of an import request
const maxImportBytes = 10 << 20

// ReadingHandler implements reading API endpoints
type ReadingHandler struct {
	service *service.ReadingService
	logger  *zap.Logger
}

// NewReadingHandler creates a new ReadingHandler
func NewReadingHandler(service *service.ReadingService, logger *zap.Logger) *ReadingHandler {
	return &ReadingHandler{
		service: service,
		logger:  logger,
	}
}

// CreateReading adds a reading
func (h *ReadingHandler) CreateReading(c *gin.Context) {
	var req CreateReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		badRequest(c, "Invalid request body", err)
		return
	}

	reading := &model.Reading{
		Systolic:  req.Systolic,
		Diastolic: req.Diastolic,
		Pulse:     req.Pulse,
		TimeOfDay: req.TimeOfDay,
		Condition: req.Condition,
		Notes:     req.Notes,
	}
	if req.Timestamp != nil {
		reading.Timestamp = *req.Timestamp
	}

	if err := h.service.AddReading(c.Request.Context(), reading); err != nil {
		respondError(c, h.logger, err, "Failed to add reading")
		return
	}

	c.JSON(http.StatusCreated, reading)
}

// readingFilter builds a service filter from query parameters
func readingFilter(c *gin.Context) (service.ReadingFilter, error) {
	filter := service.ReadingFilter{
		TimeOfDay: model.TimeOfDay(c.Query("time_of_day")),
		Category:  model.Category(c.Query("category")),
	}
	if filter.TimeOfDay != "" && !filter.TimeOfDay.Valid() {
		return filter, fmt.Errorf("unknown time_of_day %q", filter.TimeOfDay)
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return filter, fmt.Errorf("unknown category %q", filter.Category)
	}

	start, err := parseTimeParam(c.Query("start"), false)
	if err != nil {
		return filter, err
	}
	end, err := parseTimeParam(c.Query("end"), true)
	if err != nil {
		return filter, err
	}
	if start != nil || end != nil {
		rng := model.TimeRange{End: time.Now()}
		if start != nil {
			rng.Start = *start
		}
		if end != nil {
			rng.End = *end
		}
		filter.Range = &rng
	}

	return filter, nil
}

// ListReadings lists readings newest first
func (h *ReadingHandler) ListReadings(c *gin.Context) {
	filter, err := readingFilter(c)
	if err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	readings, err := h.service.ListReadings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, "Failed to list readings")
		return
	}

	c.JSON(http.StatusOK, readings)
}

// GetReading returns one reading
func (h *ReadingHandler) GetReading(c *gin.Context) {
	reading, err := h.service.GetReading(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to get reading")
		return
	}

	c.JSON(http.StatusOK, reading)
}

// UpdateReading applies a partial update to a reading
func (h *ReadingHandler) UpdateReading(c *gin.Context) {
	var patch service.ReadingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		badRequest(c, "Invalid request body", err)
		return
	}

	reading, err := h.service.UpdateReading(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err, "Failed to update reading")
		return
	}

	c.JSON(http.StatusOK, reading)
}

// DeleteReading removes a reading
func (h *ReadingHandler) DeleteReading(c *gin.Context) {
	if err := h.service.DeleteReading(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "Failed to delete reading")
		return
	}

	c.Status(http.StatusNoContent)
}

// ImportReadings merges a JSON array of readings into the collection
func (h *ReadingHandler) ImportReadings(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		badRequest(c, "Failed to read request body", err)
		return
	}

	imported, err := h.service.ImportReadings(c.Request.Context(), raw)
	if err != nil {
		respondError(c, h.logger, err, "Failed to import readings")
		return
	}

	c.JSON(http.StatusOK, ImportResponse{Imported: imported})
}

// ExportReadings downloads the collection as a JSON attachment
func (h *ReadingHandler) ExportReadings(c *gin.Context) {
	data, err := h.service.ExportReadings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to export readings")
		return
	}

	filename := fmt.Sprintf("bp-readings-%s.json", time.Now().Format(dateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/json", data)
}

// ClearReadings removes every reading
func (h *ReadingHandler) ClearReadings(c *gin.Context) {
	if err := h.service.ClearReadings(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, "Failed to clear readings")
		return
	}

	c.Status(http.StatusNoContent)
}
