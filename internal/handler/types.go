package handler

import (
	"time"

	"github.com/vcscsvcscs/bp-insights/pkg/model"
)

// Error codes used in ErrorResponse
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details *string           `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// CreateReadingRequest is the body of POST /api/v1/readings
type CreateReadingRequest struct {
	Systolic  int             `json:"systolic"`
	Diastolic int             `json:"diastolic"`
	Pulse     *int            `json:"pulse"`
	Timestamp *time.Time      `json:"timestamp"`
	TimeOfDay model.TimeOfDay `json:"timeOfDay"`
	Condition string          `json:"condition"`
	Notes     string          `json:"notes"`
}

// ImportResponse reports how many readings an import accepted
type ImportResponse struct {
	Imported int `json:"imported"`
}

// GenerateReportRequest is the body of POST /api/v1/reports
type GenerateReportRequest struct {
	Days      int                `json:"days"`
	Start     *time.Time         `json:"start"`
	End       *time.Time         `json:"end"`
	TimeOfDay model.TimeOfDay    `json:"timeOfDay"`
	Category  model.Category     `json:"category"`
	Format    model.ReportFormat `json:"format"`
}

// ClassifyResponse echoes the pair with its classification and display hints
type ClassifyResponse struct {
	Systolic        int                  `json:"systolic"`
	Diastolic       int                  `json:"diastolic"`
	Classification  model.Classification `json:"classification"`
	Color           string               `json:"color"`
	Recommendations []string             `json:"recommendations"`
}
