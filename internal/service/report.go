package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vcscsvcscs/bp-insights/internal/audit"
	"github.com/vcscsvcscs/bp-insights/internal/export"
	"github.com/vcscsvcscs/bp-insights/internal/metrics"
	"github.com/vcscsvcscs/bp-insights/internal/pdf"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
)

// ReportService renders summary reports and keeps track of the stored files
type ReportService struct {
	analysis *AnalysisService
	pdfGen   *pdf.PDFGenerator
	xlsxGen  *export.XLSXGenerator
	sink     export.Sink
	audit    *audit.Logger
	logger   *zap.Logger

	mu      sync.RWMutex
	reports map[string]model.Report
}

// NewReportService creates a new ReportService
func NewReportService(
	analysisService *AnalysisService,
	pdfGen *pdf.PDFGenerator,
	xlsxGen *export.XLSXGenerator,
	sink export.Sink,
	auditLogger *audit.Logger,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		analysis: analysisService,
		pdfGen:   pdfGen,
		xlsxGen:  xlsxGen,
		sink:     sink,
		audit:    auditLogger,
		logger:   logger,
		reports:  make(map[string]model.Report),
	}
}

// Render builds the summary for query and renders it in format without storing it
func (s *ReportService) Render(ctx context.Context, query SummaryQuery, format model.ReportFormat) ([]byte, *model.Summary, error) {
	summary, err := s.analysis.Summary(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	var data []byte
	switch format {
	case model.ReportFormatPDF:
		data, err = s.pdfGen.Generate(summary)
	case model.ReportFormatXLSX:
		data, err = s.xlsxGen.Generate(summary)
	default:
		return nil, nil, fmt.Errorf("%w: unsupported report format %q", ErrInvalidQuery, format)
	}
	if err != nil {
		s.logger.Error("failed to render report",
			zap.Error(err),
			zap.String("format", string(format)),
		)
		return nil, nil, fmt.Errorf("failed to render %s report: %w", format, err)
	}

	return data, summary, nil
}

// GenerateReport renders a report and stores it through the configured sink
func (s *ReportService) GenerateReport(ctx context.Context, query SummaryQuery, format model.ReportFormat) (*model.Report, error) {
	if format == "" {
		format = model.ReportFormatPDF
	}

	data, summary, err := s.Render(ctx, query, format)
	if err != nil {
		return nil, err
	}

	reportID := uuid.New().String()
	filename := fmt.Sprintf("reports/%s_%s.%s", reportID, summary.GeneratedAt.Format("20060102"), format)

	location, err := s.sink.Upload(ctx, filename, data, contentTypeFor(format))
	if err != nil {
		s.logger.Error("failed to store report",
			zap.Error(err),
			zap.String("report_id", reportID),
		)
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	report := model.Report{
		ID:             reportID,
		Format:         format,
		DateRangeStart: summary.Range.Start,
		DateRangeEnd:   summary.Range.End,
		FilePath:       location,
		SizeBytes:      len(data),
		GeneratedAt:    time.Now(),
	}

	s.mu.Lock()
	s.reports[reportID] = report
	s.mu.Unlock()

	metrics.ReportsGeneratedTotal.WithLabelValues(string(format)).Inc()
	s.audit.Log(ctx, audit.AuditLog{
		OperationType: audit.OperationExport,
		ResourceType:  audit.ResourceReport,
		ResourceID:    reportID,
		Count:         summary.Statistics.ReadingsCount,
	})

	s.logger.Info("report generated successfully",
		zap.String("report_id", reportID),
		zap.String("format", string(format)),
		zap.String("location", location),
	)

	return &report, nil
}

// GetReport returns the metadata and stored bytes of a generated report
func (s *ReportService) GetReport(ctx context.Context, reportID string) (*model.Report, []byte, error) {
	s.mu.RLock()
	report, ok := s.reports[reportID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ErrReportNotFound
	}

	data, err := s.sink.Download(ctx, report.FilePath)
	if err != nil {
		s.logger.Error("failed to download report",
			zap.Error(err),
			zap.String("report_id", reportID),
			zap.String("location", report.FilePath),
		)
		return nil, nil, fmt.Errorf("failed to download report: %w", err)
	}

	return &report, data, nil
}

// ListReports returns the metadata of every report generated by this process, newest first
func (s *ReportService) ListReports() []model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]model.Report, 0, len(s.reports))
	for _, r := range s.reports {
		reports = append(reports, r)
	}
	sortReports(reports)
	return reports
}

func sortReports(reports []model.Report) {
	slices.SortFunc(reports, func(a, b model.Report) int {
		return b.GeneratedAt.Compare(a.GeneratedAt)
	})
}

func contentTypeFor(format model.ReportFormat) string {
	if format == model.ReportFormatXLSX {
		return export.ContentTypeXLSX
	}
	return export.ContentTypePDF
}
