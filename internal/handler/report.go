package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/bp-insights/internal/export"
	"github.com/vcscsvcscs/bp-insights/internal/service"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
)

// ReportHandler implements report API endpoints
type ReportHandler struct {
	service *service.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger,
	}
}

// GenerateReport renders and stores a summary report
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		badRequest(c, "Invalid request body", err)
		return
	}

	if req.Start != nil && req.End != nil && req.Start.After(*req.End) {
		badRequest(c, "Start date must be before or equal to end date", nil)
		return
	}

	query := service.SummaryQuery{
		Days:      req.Days,
		Start:     req.Start,
		End:       req.End,
		TimeOfDay: req.TimeOfDay,
		Category:  req.Category,
	}

	report, err := h.service.GenerateReport(c.Request.Context(), query, req.Format)
	if err != nil {
		respondError(c, h.logger, err, "Failed to generate report")
		return
	}

	h.logger.Info("report generated",
		zap.String("report_id", report.ID),
		zap.String("format", string(report.Format)),
	)

	c.JSON(http.StatusCreated, report)
}

// ListReports lists reports generated since startup
func (h *ReportHandler) ListReports(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListReports())
}

// DownloadReport downloads a generated report
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	reportID := c.Param("id")

	report, data, err := h.service.GetReport(c.Request.Context(), reportID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to get report")
		return
	}

	contentType := export.ContentTypePDF
	if report.Format == model.ReportFormatXLSX {
		contentType = export.ContentTypeXLSX
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=bp_report_%s.%s", reportID, report.Format))
	c.Data(http.StatusOK, contentType, data)

	h.logger.Info("report downloaded",
		zap.String("report_id", reportID),
		zap.Int("size_bytes", len(data)),
	)
}
