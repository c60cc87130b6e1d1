package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/bp-insights/internal/repository"
	"github.com/vcscsvcscs/bp-insights/internal/service"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// parseTimeParam parses an RFC 3339 timestamp or a plain date. A plain date
// used as a range end covers the whole day.
func parseTimeParam(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: expected RFC 3339 or YYYY-MM-DD", value)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

// parseIntParam parses an optional integer query parameter
func parseIntParam(c *gin.Context, name string) (int, error) {
	value := c.Query(name)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func badRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{
		Code:    CodeValidationError,
		Message: message,
	}
	if err != nil {
		resp.Details = stringPtr(err.Error())
	}
	c.JSON(http.StatusBadRequest, resp)
}

// respondError maps service and repository errors onto the standard error body
func respondError(c *gin.Context, logger *zap.Logger, err error, message string) {
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    CodeValidationError,
			Message: "Invalid reading",
			Details: stringPtr(err.Error()),
			Fields:  validationErr.Fields,
		})
	case errors.Is(err, service.ErrInvalidReading), errors.Is(err, service.ErrInvalidQuery):
		badRequest(c, message, err)
	case errors.Is(err, repository.ErrReadingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    CodeNotFound,
			Message: "Reading not found",
		})
	case errors.Is(err, service.ErrReportNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    CodeNotFound,
			Message: "Report not found",
		})
	default:
		logger.Error("request failed", zap.String("reason", message), zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    CodeInternalError,
			Message: message,
			Details: stringPtr(err.Error()),
		})
	}
}
