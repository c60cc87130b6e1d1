package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OperationType represents the type of operation performed
type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
	OperationImport OperationType = "IMPORT"
	OperationExport OperationType = "EXPORT"
	OperationClear  OperationType = "CLEAR"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceReading    ResourceType = "blood_pressure_reading"
	ResourceCollection ResourceType = "reading_collection"
	ResourceReport     ResourceType = "report"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	OperationType OperationType
	ResourceType  ResourceType
	ResourceID    string
	Count         int
	Timestamp     time.Time
}

type requestIDKey struct{}

// WithRequestID attaches a request ID to ctx so audit entries can be correlated
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request ID attached to ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Logger writes the audit trail of reading mutations to a dedicated zap logger
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a new audit logger
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{
		logger: logger.Named("audit"),
	}
}

// Log records an audit log entry
func (l *Logger) Log(ctx context.Context, entry AuditLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	fields := []zap.Field{
		zap.String("operation", string(entry.OperationType)),
		zap.String("resource_type", string(entry.ResourceType)),
		zap.Time("timestamp", entry.Timestamp),
	}
	if entry.ResourceID != "" {
		fields = append(fields, zap.String("resource_id", entry.ResourceID))
	}
	if entry.Count > 0 {
		fields = append(fields, zap.Int("count", entry.Count))
	}
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}

	l.logger.Info("audit log entry", fields...)
}

// LogReading records a single-reading operation
func (l *Logger) LogReading(ctx context.Context, op OperationType, readingID string) {
	l.Log(ctx, AuditLog{
		OperationType: op,
		ResourceType:  ResourceReading,
		ResourceID:    readingID,
	})
}

// LogCollection records a bulk operation over the reading collection
func (l *Logger) LogCollection(ctx context.Context, op OperationType, count int) {
	l.Log(ctx, AuditLog{
		OperationType: op,
		ResourceType:  ResourceCollection,
		Count:         count,
	})
}
