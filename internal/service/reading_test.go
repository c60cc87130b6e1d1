package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/bp-insights/internal/audit"
	"github.com/vcscsvcscs/bp-insights/internal/repository"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func newReadingService(repo repository.ReadingRepository) *ReadingService {
	logger := zap.NewNop()
	svc := NewReadingService(repo, defaultEngine(), audit.NewLogger(logger), logger)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func intPtr(v int) *int { return &v }

func TestReadingService_AddReading_Success(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()

	reading := &model.Reading{Systolic: 145, Diastolic: 85, Pulse: intPtr(72), Condition: "resting"}

	mockRepo.On("Save", ctx, reading).Return(nil)
	mockRepo.On("List", ctx).Return([]model.Reading{*reading}, nil)

	// Act
	err := svc.AddReading(ctx, reading)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, reading.ID)
	assert.Equal(t, fixedNow, reading.Timestamp)
	assert.Equal(t, model.TimeOfDayMorning, reading.TimeOfDay)
	require.NotNil(t, reading.Classification)
	assert.Equal(t, model.CategoryHypertensionStage1, reading.Classification.Category)
	mockRepo.AssertExpectations(t)
}

func TestReadingService_AddReading_KeepsSuppliedFields(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()

	ts := time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC)
	reading := &model.Reading{Systolic: 118, Diastolic: 76, Timestamp: ts, TimeOfDay: model.TimeOfDayEvening}

	mockRepo.On("Save", ctx, reading).Return(nil)
	mockRepo.On("List", ctx).Return([]model.Reading{*reading}, nil)

	// Act
	err := svc.AddReading(ctx, reading)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ts, reading.Timestamp)
	assert.Equal(t, model.TimeOfDayEvening, reading.TimeOfDay)
	assert.Equal(t, model.CategoryNormal, reading.Classification.Category)
}

func TestReadingService_AddReading_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		reading model.Reading
		field   string
		message string
	}{
		{
			name:    "systolic too low",
			reading: model.Reading{Systolic: 49, Diastolic: 80},
			field:   "systolic",
			message: "Systolic must be between 50 and 250",
		},
		{
			name:    "systolic too high",
			reading: model.Reading{Systolic: 251, Diastolic: 80},
			field:   "systolic",
			message: "Systolic must be between 50 and 250",
		},
		{
			name:    "diastolic too low",
			reading: model.Reading{Systolic: 120, Diastolic: 29},
			field:   "diastolic",
			message: "Diastolic must be between 30 and 150",
		},
		{
			name:    "diastolic too high",
			reading: model.Reading{Systolic: 120, Diastolic: 151},
			field:   "diastolic",
			message: "Diastolic must be between 30 and 150",
		},
		{
			name:    "pulse out of range",
			reading: model.Reading{Systolic: 120, Diastolic: 80, Pulse: intPtr(201)},
			field:   "pulse",
			message: "Pulse must be between 30 and 200",
		},
		{
			name:    "unknown time of day",
			reading: model.Reading{Systolic: 120, Diastolic: 80, TimeOfDay: "noon"},
			field:   "timeOfDay",
			message: `Unknown time of day "noon"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			mockRepo := new(MockReadingRepository)
			svc := newReadingService(mockRepo)
			reading := tt.reading

			// Act
			err := svc.AddReading(context.Background(), &reading)

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidReading)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.message, validationErr.Fields[tt.field])
			mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestReadingService_AddReading_BoundaryValuesAccepted(t *testing.T) {
	for _, r := range []model.Reading{
		{Systolic: 50, Diastolic: 30, Pulse: intPtr(30)},
		{Systolic: 250, Diastolic: 150, Pulse: intPtr(200)},
		{Systolic: 120, Diastolic: 80, Condition: "after coffee"},
	} {
		assert.NoError(t, ValidateReading(&r))
	}
}

func TestReadingService_AddReading_RepositoryError(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	core, logs := observer.New(zapcore.ErrorLevel)
	logger := zap.New(core)
	svc := NewReadingService(mockRepo, defaultEngine(), audit.NewLogger(zap.NewNop()), logger)
	ctx := context.Background()
	reading := &model.Reading{Systolic: 120, Diastolic: 80}

	mockRepo.On("Save", ctx, reading).Return(errors.New("disk full"))

	// Act
	err := svc.AddReading(ctx, reading)

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save reading")
	assert.Equal(t, 1, logs.FilterMessage("failed to save reading").Len())
}

func TestReadingService_UpdateReading(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()

	stored := &model.Reading{
		ID:        "reading-1",
		Systolic:  118,
		Diastolic: 76,
		Timestamp: fixedNow.Add(-time.Hour),
		TimeOfDay: model.TimeOfDayMorning,
	}
	mockRepo.On("FindByID", ctx, "reading-1").Return(stored, nil)
	mockRepo.On("Update", ctx, mock.AnythingOfType("*model.Reading")).Return(nil)

	// Act
	updated, err := svc.UpdateReading(ctx, "reading-1", ReadingPatch{
		Systolic: intPtr(160),
		Notes:    strPtr("after coffee"),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 160, updated.Systolic)
	assert.Equal(t, 76, updated.Diastolic)
	assert.Equal(t, "after coffee", updated.Notes)
	assert.Equal(t, model.CategoryHypertensionStage2, updated.Classification.Category)
	mockRepo.AssertExpectations(t)
}

func TestReadingService_UpdateReading_TimestampRederivesTimeOfDay(t *testing.T) {
	morning := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		patch ReadingPatch
		want  model.TimeOfDay
	}{
		{
			name:  "timestamp only",
			patch: ReadingPatch{Timestamp: &evening},
			want:  model.TimeOfDayEvening,
		},
		{
			name:  "explicit time of day wins",
			patch: ReadingPatch{Timestamp: &evening, TimeOfDay: func() *model.TimeOfDay { v := model.TimeOfDayNight; return &v }()},
			want:  model.TimeOfDayNight,
		},
		{
			name:  "unrelated field keeps bucket",
			patch: ReadingPatch{Notes: strPtr("rechecked")},
			want:  model.TimeOfDayMorning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			mockRepo := new(MockReadingRepository)
			svc := newReadingService(mockRepo)
			ctx := context.Background()

			stored := &model.Reading{
				ID:        "reading-1",
				Systolic:  118,
				Diastolic: 76,
				Timestamp: morning,
				TimeOfDay: model.TimeOfDayMorning,
			}
			mockRepo.On("FindByID", ctx, "reading-1").Return(stored, nil)
			mockRepo.On("Update", ctx, mock.AnythingOfType("*model.Reading")).Return(nil)

			// Act
			updated, err := svc.UpdateReading(ctx, "reading-1", tt.patch)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.want, updated.TimeOfDay)
		})
	}
}

func TestReadingService_UpdateReading_InvalidPatch(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()

	stored := &model.Reading{ID: "reading-1", Systolic: 118, Diastolic: 76, Timestamp: fixedNow}
	mockRepo.On("FindByID", ctx, "reading-1").Return(stored, nil)

	// Act
	_, err := svc.UpdateReading(ctx, "reading-1", ReadingPatch{Diastolic: intPtr(10)})

	// Assert
	assert.ErrorIs(t, err, ErrInvalidReading)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReadingService_UpdateReading_NotFound(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()

	mockRepo.On("FindByID", ctx, "missing").Return(nil, repository.ErrReadingNotFound)

	// Act
	_, err := svc.UpdateReading(ctx, "missing", ReadingPatch{})

	// Assert
	assert.ErrorIs(t, err, repository.ErrReadingNotFound)
}

func TestReadingService_DeleteReading(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()

	mockRepo.On("Delete", ctx, "reading-1").Return(nil)
	mockRepo.On("List", ctx).Return([]model.Reading{}, nil)
	mockRepo.On("Delete", ctx, "missing").Return(repository.ErrReadingNotFound)

	// Act & Assert
	assert.NoError(t, svc.DeleteReading(ctx, "reading-1"))
	assert.ErrorIs(t, svc.DeleteReading(ctx, "missing"), repository.ErrReadingNotFound)
}

func TestReadingService_ListReadings_Filters(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()

	readings := []model.Reading{
		{ID: "a", Systolic: 150, Diastolic: 95, Timestamp: fixedNow.Add(-time.Hour), TimeOfDay: model.TimeOfDayMorning},
		{ID: "b", Systolic: 115, Diastolic: 75, Timestamp: fixedNow.Add(-20 * time.Hour), TimeOfDay: model.TimeOfDayAfternoon},
		{ID: "c", Systolic: 155, Diastolic: 99, Timestamp: fixedNow.AddDate(0, 0, -10), TimeOfDay: model.TimeOfDayMorning},
	}
	mockRepo.On("List", ctx).Return(readings, nil)

	rng := model.TimeRange{Start: fixedNow.AddDate(0, 0, -7), End: fixedNow}

	// Act
	all, err := svc.ListReadings(ctx, ReadingFilter{})
	require.NoError(t, err)
	inRange, err := svc.ListReadings(ctx, ReadingFilter{Range: &rng})
	require.NoError(t, err)
	stage2Morning, err := svc.ListReadings(ctx, ReadingFilter{
		TimeOfDay: model.TimeOfDayMorning,
		Category:  model.CategoryHypertensionStage2,
	})
	require.NoError(t, err)

	// Assert
	assert.Len(t, all, 3)
	assert.Len(t, inRange, 2)
	require.Len(t, stage2Morning, 2)
	assert.Equal(t, "a", stage2Morning[0].ID)
	assert.Equal(t, "c", stage2Morning[1].ID)
}

func TestReadingService_ImportReadings(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()

	existing := []model.Reading{
		{ID: "existing-1", Systolic: 120, Diastolic: 80, Timestamp: fixedNow.Add(-48 * time.Hour)},
	}
	mockRepo.On("Mutate", ctx).Return(existing, nil)

	raw := []byte(`[
		{"id": "existing-1", "systolic": 140, "diastolic": 90, "timestamp": "2024-03-09T08:00:00Z"},
		{"systolic": 118, "diastolic": 75, "timestamp": "2024-03-10T07:00:00Z", "timeOfDay": "morning"},
		{"systolic": 130, "timestamp": "2024-03-10T07:00:00Z"},
		{"systolic": 130, "diastolic": 85},
		"not a reading",
		{"systolic": "high", "diastolic": 85, "timestamp": "2024-03-10T07:00:00Z"}
	]`)

	// Act
	count, err := svc.ImportReadings(ctx, raw)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	stored := mockRepo.Stored
	require.Len(t, stored, 3)

	assert.Equal(t, 118, stored[0].Systolic)
	assert.Equal(t, 140, stored[1].Systolic)
	assert.NotEqual(t, "existing-1", stored[1].ID)
	assert.Equal(t, "existing-1", stored[2].ID)
	for _, r := range stored[:2] {
		require.NotNil(t, r.Classification)
		assert.NotEmpty(t, r.ID)
	}
	assert.Equal(t, model.CategoryHypertensionStage2, stored[1].Classification.Category)
}

func TestReadingService_ImportReadings_NothingValid(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()

	// Act
	count, err := svc.ImportReadings(ctx, []byte(`[{"notes": "empty"}]`))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	mockRepo.AssertNotCalled(t, "Mutate", mock.Anything)
}

func TestReadingService_ImportReadings_KeepsConcurrentAdd(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := &interleavingRepository{MemoryReadingRepository: repository.NewMemoryReadingRepository(zap.NewNop())}
	svc := newReadingService(repo)
	repo.onFirstAccess = func() {
		require.NoError(t, svc.AddReading(ctx, &model.Reading{Systolic: 120, Diastolic: 80}))
	}

	// Act
	count, err := svc.ImportReadings(ctx, []byte(`[{"systolic": 135, "diastolic": 85, "timestamp": "2024-03-09T08:00:00Z"}]`))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	stored, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 120, stored[0].Systolic)
	assert.Equal(t, 135, stored[1].Systolic)
}

func TestReadingService_ImportReadings_ZeroPulseIsAbsent(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()
	mockRepo.On("Mutate", ctx).Return([]model.Reading{}, nil)

	raw := []byte(`[
		{"systolic": 120, "diastolic": 80, "pulse": 0, "timestamp": "2024-03-10T07:00:00Z"},
		{"systolic": 125, "diastolic": 82, "pulse": 64, "timestamp": "2024-03-10T08:00:00Z"}
	]`)

	// Act
	count, err := svc.ImportReadings(ctx, raw)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, mockRepo.Stored, 2)
	require.NotNil(t, mockRepo.Stored[0].Pulse)
	assert.Equal(t, 64, *mockRepo.Stored[0].Pulse)
	assert.Nil(t, mockRepo.Stored[1].Pulse)
	assert.Equal(t, 64, defaultEngine().Aggregate(mockRepo.Stored, fixedNow).AveragePulse)
}

func TestReadingService_ImportReadings_NotAnArray(t *testing.T) {
	// Arrange
	svc := newReadingService(new(MockReadingRepository))

	// Act
	_, err := svc.ImportReadings(context.Background(), []byte(`{"systolic": 120}`))

	// Assert
	assert.ErrorIs(t, err, ErrInvalidReading)
}

func TestReadingService_ExportReadings(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()
	readings := []model.Reading{
		{ID: "a", Systolic: 120, Diastolic: 80, Timestamp: fixedNow},
	}
	mockRepo.On("List", ctx).Return(readings, nil)

	// Act
	data, err := svc.ExportReadings(ctx)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"a\"")

	var decoded []model.Reading
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, readings, decoded)
}

func TestReadingService_ClearReadings(t *testing.T) {
	// Arrange
	mockRepo := new(MockReadingRepository)
	svc := newReadingService(mockRepo)
	ctx := context.Background()
	mockRepo.On("Mutate", ctx).Return([]model.Reading{{ID: "a"}, {ID: "b"}}, nil)

	// Act
	err := svc.ClearReadings(ctx)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, mockRepo.Stored)
	mockRepo.AssertExpectations(t)
}

// Property: export followed by import into an empty store keeps every reading
func TestProperty_ExportImportRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("imported count matches exported readings", prop.ForAll(
		func(systolic []int) bool {
			ctx := context.Background()
			source := repository.NewMemoryReadingRepository(zap.NewNop())
			for i, s := range systolic {
				r := model.Reading{
					ID:        fmt.Sprintf("reading-%d", i),
					Systolic:  s,
					Diastolic: 80,
					Timestamp: fixedNow.Add(-time.Duration(i) * time.Hour),
				}
				if err := source.Save(ctx, &r); err != nil {
					return false
				}
			}

			data, err := newReadingService(source).ExportReadings(ctx)
			if err != nil {
				return false
			}

			target := repository.NewMemoryReadingRepository(zap.NewNop())
			count, err := newReadingService(target).ImportReadings(ctx, data)
			if err != nil || count != len(systolic) {
				return false
			}
			stored, err := target.List(ctx)
			return err == nil && len(stored) == len(systolic)
		},
		gen.SliceOf(gen.IntRange(50, 250)),
	))

	properties.TestingRun(t)
}

func strPtr(s string) *string { return &s }
