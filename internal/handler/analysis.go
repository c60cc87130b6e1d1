package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/bp-insights/internal/service"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
)

// AnalysisHandler implements classification and summary endpoints
type AnalysisHandler struct {
	service *service.AnalysisService
	logger  *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(service *service.AnalysisService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  logger,
	}
}

// Classify classifies the systolic/diastolic pair given as query parameters
func (h *AnalysisHandler) Classify(c *gin.Context) {
	systolic, err := strconv.Atoi(c.Query("systolic"))
	if err != nil {
		badRequest(c, "systolic must be an integer", nil)
		return
	}
	diastolic, err := strconv.Atoi(c.Query("diastolic"))
	if err != nil {
		badRequest(c, "diastolic must be an integer", nil)
		return
	}

	classification := h.service.Classify(systolic, diastolic)
	c.JSON(http.StatusOK, ClassifyResponse{
		Systolic:        systolic,
		Diastolic:       diastolic,
		Classification:  classification,
		Color:           classification.Category.Color(),
		Recommendations: classification.Category.Recommendations(),
	})
}

// summaryQuery builds a service query from query parameters
func summaryQuery(c *gin.Context) (service.SummaryQuery, error) {
	query := service.SummaryQuery{
		TimeOfDay: model.TimeOfDay(c.Query("time_of_day")),
		Category:  model.Category(c.Query("category")),
	}

	days, err := parseIntParam(c, "days")
	if err != nil {
		return query, err
	}
	query.Days = days

	if query.Start, err = parseTimeParam(c.Query("start"), false); err != nil {
		return query, err
	}
	if query.End, err = parseTimeParam(c.Query("end"), true); err != nil {
		return query, err
	}

	return query, nil
}

// Summary returns statistics and insights for a period
func (h *AnalysisHandler) Summary(c *gin.Context) {
	query, err := summaryQuery(c)
	if err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), query)
	if err != nil {
		respondError(c, h.logger, err, "Failed to compute summary")
		return
	}

	h.logger.Info("summary retrieved",
		zap.Int("days", summary.Days),
		zap.Int("readings_count", summary.Statistics.ReadingsCount),
	)

	c.JSON(http.StatusOK, summary)
}
