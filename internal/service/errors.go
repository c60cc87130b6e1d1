package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidReading marks readings rejected by boundary validation
	ErrInvalidReading = errors.New("invalid reading")
	// ErrInvalidQuery marks malformed analysis or report queries
	ErrInvalidQuery = errors.New("invalid query")
	// ErrReportNotFound is returned for unknown report IDs
	ErrReportNotFound = errors.New("report not found")
)

// ValidationError lists per-field validation failures. It matches
// ErrInvalidReading with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "invalid reading: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidReading
}
