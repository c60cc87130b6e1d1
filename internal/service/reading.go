package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vcscsvcscs/bp-insights/internal/analysis"
	"github.com/vcscsvcscs/bp-insights/internal/audit"
	"github.com/vcscsvcscs/bp-insights/internal/metrics"
	"github.com/vcscsvcscs/bp-insights/internal/repository"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
)

// Accepted ranges for manually entered readings
const (
	MinSystolic  = 50
	MaxSystolic  = 250
	MinDiastolic = 30
	MaxDiastolic = 150
	MinPulse     = 30
	MaxPulse     = 200
)

// ReadingService handles reading ingestion and maintenance of the collection
type ReadingService struct {
	repo   repository.ReadingRepository
	engine *analysis.Engine
	audit  *audit.Logger
	logger *zap.Logger
	now    func() time.Time
}

// NewReadingService creates a new ReadingService
func NewReadingService(repo repository.ReadingRepository, engine *analysis.Engine, auditLogger *audit.Logger, logger *zap.Logger) *ReadingService {
	return &ReadingService{
		repo:   repo,
		engine: engine,
		audit:  auditLogger,
		logger: logger,
		now:    time.Now,
	}
}

// ReadingPatch holds the fields of an update; nil fields are left unchanged
type ReadingPatch struct {
	Systolic  *int             `json:"systolic"`
	Diastolic *int             `json:"diastolic"`
	Pulse     *int             `json:"pulse"`
	Timestamp *time.Time       `json:"timestamp"`
	TimeOfDay *model.TimeOfDay `json:"timeOfDay"`
	Condition *string          `json:"condition"`
	Notes     *string          `json:"notes"`
}

// ReadingFilter narrows ListReadings. Zero values keep everything.
type ReadingFilter struct {
	Range     *model.TimeRange
	TimeOfDay model.TimeOfDay
	Category  model.Category
}

// ValidateReading checks the manual-entry boundary ranges
func ValidateReading(r *model.Reading) error {
	fields := make(map[string]string)

	if r.Systolic < MinSystolic || r.Systolic > MaxSystolic {
		fields["systolic"] = fmt.Sprintf("Systolic must be between %d and %d", MinSystolic, MaxSystolic)
	}
	if r.Diastolic < MinDiastolic || r.Diastolic > MaxDiastolic {
		fields["diastolic"] = fmt.Sprintf("Diastolic must be between %d and %d", MinDiastolic, MaxDiastolic)
	}
	if r.Pulse != nil && (*r.Pulse < MinPulse || *r.Pulse > MaxPulse) {
		fields["pulse"] = fmt.Sprintf("Pulse must be between %d and %d", MinPulse, MaxPulse)
	}
	if r.TimeOfDay != "" && !r.TimeOfDay.Valid() {
		fields["timeOfDay"] = fmt.Sprintf("Unknown time of day %q", r.TimeOfDay)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// prepare fills derived fields: timestamp, time of day and classification
func (s *ReadingService) prepare(r *model.Reading) {
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now()
	}
	if !r.TimeOfDay.Valid() {
		r.TimeOfDay = model.TimeOfDayAt(r.Timestamp)
	}
	classification := s.engine.Classifier().Classify(r.Systolic, r.Diastolic)
	r.Classification = &classification
}

// AddReading validates, classifies and stores a new reading
func (s *ReadingService) AddReading(ctx context.Context, reading *model.Reading) error {
	if err := ValidateReading(reading); err != nil {
		metrics.ReadingsRejectedTotal.WithLabelValues("manual").Inc()
		s.logger.Warn("rejected reading", zap.Error(err))
		return err
	}

	reading.ID = uuid.New().String()
	s.prepare(reading)

	if err := s.repo.Save(ctx, reading); err != nil {
		s.logger.Error("failed to save reading",
			zap.Error(err),
			zap.String("reading_id", reading.ID),
		)
		return fmt.Errorf("failed to save reading: %w", err)
	}

	metrics.ReadingsClassifiedTotal.WithLabelValues(string(reading.Classification.Category)).Inc()
	s.audit.LogReading(ctx, audit.OperationCreate, reading.ID)
	s.refreshGauge(ctx)

	s.logger.Info("reading added",
		zap.String("reading_id", reading.ID),
		zap.String("category", string(reading.Classification.Category)),
	)

	return nil
}

// GetReading returns one reading by ID
func (s *ReadingService) GetReading(ctx context.Context, id string) (*model.Reading, error) {
	reading, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reading: %w", err)
	}
	return reading, nil
}

// UpdateReading merges patch into the stored reading, then revalidates and reclassifies it
func (s *ReadingService) UpdateReading(ctx context.Context, id string, patch ReadingPatch) (*model.Reading, error) {
	reading, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reading: %w", err)
	}

	if patch.Systolic != nil {
		reading.Systolic = *patch.Systolic
	}
	if patch.Diastolic != nil {
		reading.Diastolic = *patch.Diastolic
	}
	if patch.Pulse != nil {
		reading.Pulse = patch.Pulse
	}
	if patch.Timestamp != nil {
		reading.Timestamp = *patch.Timestamp
		if patch.TimeOfDay == nil {
			reading.TimeOfDay = model.TimeOfDayAt(reading.Timestamp)
		}
	}
	if patch.TimeOfDay != nil {
		reading.TimeOfDay = *patch.TimeOfDay
	}
	if patch.Condition != nil {
		reading.Condition = *patch.Condition
	}
	if patch.Notes != nil {
		reading.Notes = *patch.Notes
	}

	if err := ValidateReading(reading); err != nil {
		metrics.ReadingsRejectedTotal.WithLabelValues("update").Inc()
		return nil, err
	}
	s.prepare(reading)

	if err := s.repo.Update(ctx, reading); err != nil {
		s.logger.Error("failed to update reading",
			zap.Error(err),
			zap.String("reading_id", id),
		)
		return nil, fmt.Errorf("failed to update reading: %w", err)
	}

	s.audit.LogReading(ctx, audit.OperationUpdate, id)
	return reading, nil
}

// DeleteReading removes a reading by ID
func (s *ReadingService) DeleteReading(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete reading",
			zap.Error(err),
			zap.String("reading_id", id),
		)
		return fmt.Errorf("failed to delete reading: %w", err)
	}

	s.audit.LogReading(ctx, audit.OperationDelete, id)
	s.refreshGauge(ctx)
	return nil
}

// ListReadings returns readings newest first, narrowed by filter
func (s *ReadingService) ListReadings(ctx context.Context, filter ReadingFilter) ([]model.Reading, error) {
	readings, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list readings", zap.Error(err))
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	if filter.Range != nil {
		readings = analysis.InRange(readings, *filter.Range)
	}
	readings = analysis.FilterByTimeOfDay(readings, filter.TimeOfDay)
	readings = analysis.FilterByCategory(s.engine.Classifier(), readings, filter.Category)
	if readings == nil {
		readings = []model.Reading{}
	}

	return readings, nil
}

// importRecord is the lenient shape accepted by ImportReadings
type importRecord struct {
	ID        string          `json:"id"`
	Systolic  int             `json:"systolic"`
	Diastolic int             `json:"diastolic"`
	Pulse     *int            `json:"pulse"`
	Timestamp *time.Time      `json:"timestamp"`
	TimeOfDay model.TimeOfDay `json:"timeOfDay"`
	Condition string          `json:"condition"`
	Notes     string          `json:"notes"`
}

// ImportReadings merges a JSON array of readings ahead of the stored ones.
// Elements that fail to decode or lack systolic, diastolic or timestamp are
// skipped. It returns the number of readings imported.
func (s *ReadingService) ImportReadings(ctx context.Context, raw []byte) (int, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return 0, fmt.Errorf("%w: import data must be a JSON array: %v", ErrInvalidReading, err)
	}

	candidates := make([]model.Reading, 0, len(elements))
	skipped := 0
	for _, element := range elements {
		var rec importRecord
		if err := json.Unmarshal(element, &rec); err != nil {
			skipped++
			continue
		}
		if rec.Systolic == 0 || rec.Diastolic == 0 || rec.Timestamp == nil || rec.Timestamp.IsZero() {
			skipped++
			continue
		}
		if rec.Pulse != nil && *rec.Pulse <= 0 {
			rec.Pulse = nil
		}

		reading := model.Reading{
			ID:        rec.ID,
			Systolic:  rec.Systolic,
			Diastolic: rec.Diastolic,
			Pulse:     rec.Pulse,
			Timestamp: *rec.Timestamp,
			TimeOfDay: rec.TimeOfDay,
			Condition: rec.Condition,
			Notes:     rec.Notes,
		}
		s.prepare(&reading)
		candidates = append(candidates, reading)
	}

	stored := 0
	if len(candidates) > 0 {
		err := s.repo.Mutate(ctx, func(existing []model.Reading) ([]model.Reading, error) {
			ids := make(map[string]bool, len(existing)+len(candidates))
			for _, r := range existing {
				ids[r.ID] = true
			}

			merged := make([]model.Reading, 0, len(candidates)+len(existing))
			for _, reading := range candidates {
				if reading.ID == "" || ids[reading.ID] {
					reading.ID = uuid.New().String()
				}
				ids[reading.ID] = true
				merged = append(merged, reading)
			}
			merged = append(merged, existing...)
			repository.SortNewestFirst(merged)
			stored = len(merged)
			return merged, nil
		})
		if err != nil {
			s.logger.Error("failed to store imported readings", zap.Error(err))
			return 0, fmt.Errorf("failed to store imported readings: %w", err)
		}
		metrics.StoredReadings.Set(float64(stored))
	}

	metrics.ReadingsImportedTotal.Add(float64(len(candidates)))
	metrics.ReadingsRejectedTotal.WithLabelValues("import").Add(float64(skipped))
	s.audit.LogCollection(ctx, audit.OperationImport, len(candidates))

	s.logger.Info("readings imported",
		zap.Int("imported", len(candidates)),
		zap.Int("skipped", skipped),
	)

	return len(candidates), nil
}

// ExportReadings returns the whole collection as indented JSON
func (s *ReadingService) ExportReadings(ctx context.Context) ([]byte, error) {
	readings, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list readings for export", zap.Error(err))
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	data, err := json.MarshalIndent(readings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode readings: %w", err)
	}

	s.audit.LogCollection(ctx, audit.OperationExport, len(readings))
	return data, nil
}

// ClearReadings removes every reading
func (s *ReadingService) ClearReadings(ctx context.Context) error {
	cleared := 0
	err := s.repo.Mutate(ctx, func(existing []model.Reading) ([]model.Reading, error) {
		cleared = len(existing)
		return nil, nil
	})
	if err != nil {
		s.logger.Error("failed to clear readings", zap.Error(err))
		return fmt.Errorf("failed to clear readings: %w", err)
	}

	metrics.StoredReadings.Set(0)
	s.audit.LogCollection(ctx, audit.OperationClear, cleared)
	s.logger.Info("readings cleared", zap.Int("count", cleared))
	return nil
}

func (s *ReadingService) refreshGauge(ctx context.Context) {
	readings, err := s.repo.List(ctx)
	if err != nil {
		return
	}
	metrics.StoredReadings.Set(float64(len(readings)))
}
