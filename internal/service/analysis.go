package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vcscsvcscs/bp-insights/internal/analysis"
	"github.com/vcscsvcscs/bp-insights/internal/repository"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
)

// ValidPeriods are the accepted summary periods in days
var ValidPeriods = []int{7, 30, 90}

// SummaryQuery selects the readings a summary is computed over.
// Start and End take precedence over Days and must be given together.
type SummaryQuery struct {
	Days      int
	Start     *time.Time
	End       *time.Time
	TimeOfDay model.TimeOfDay
	Category  model.Category
}

// AnalysisService builds statistics and insights over stored readings
type AnalysisService struct {
	repo        repository.ReadingRepository
	engine      *analysis.Engine
	defaultDays int
	logger      *zap.Logger
	now         func() time.Time
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(repo repository.ReadingRepository, engine *analysis.Engine, defaultDays int, logger *zap.Logger) *AnalysisService {
	if !validPeriod(defaultDays) {
		defaultDays = 7
	}
	return &AnalysisService{
		repo:        repo,
		engine:      engine,
		defaultDays: defaultDays,
		logger:      logger,
		now:         time.Now,
	}
}

func validPeriod(days int) bool {
	for _, p := range ValidPeriods {
		if days == p {
			return true
		}
	}
	return false
}

// Classify classifies a single pair with the configured classifier
func (s *AnalysisService) Classify(systolic, diastolic int) model.Classification {
	return s.engine.Classifier().Classify(systolic, diastolic)
}

// resolveRange turns the query into an inclusive range and the period it covers
func (s *AnalysisService) resolveRange(query SummaryQuery, now time.Time) (model.TimeRange, int, error) {
	if query.Start != nil || query.End != nil {
		if query.Start == nil || query.End == nil {
			return model.TimeRange{}, 0, fmt.Errorf("%w: start and end must be given together", ErrInvalidQuery)
		}
		return model.TimeRange{Start: *query.Start, End: *query.End}, 0, nil
	}

	days := query.Days
	if !validPeriod(days) {
		if days != 0 {
			s.logger.Warn("invalid days parameter, defaulting",
				zap.Int("days", days),
				zap.Int("default_days", s.defaultDays),
			)
		}
		days = s.defaultDays
	}
	return analysis.TrailingRange(now, days), days, nil
}

// Summary computes statistics, engine insights and overview insights for the query
func (s *AnalysisService) Summary(ctx context.Context, query SummaryQuery) (*model.Summary, error) {
	if query.TimeOfDay != "" && !query.TimeOfDay.Valid() {
		return nil, fmt.Errorf("%w: unknown time of day %q", ErrInvalidQuery, query.TimeOfDay)
	}
	if query.Category != "" && !query.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, query.Category)
	}

	now := s.now()
	timeRange, days, err := s.resolveRange(query, now)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list readings for summary", zap.Error(err))
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	readings := analysis.InRange(all, timeRange)
	readings = analysis.FilterByTimeOfDay(readings, query.TimeOfDay)
	readings = analysis.FilterByCategory(s.engine.Classifier(), readings, query.Category)

	stats := s.engine.Aggregate(readings, now)
	summary := &model.Summary{
		Range:            timeRange,
		Days:             days,
		TimeOfDay:        query.TimeOfDay,
		Category:         query.Category,
		Statistics:       stats,
		Insights:         s.engine.DeriveInsights(readings, stats, now),
		OverviewInsights: analysis.OverviewInsights(stats),
		Readings:         readings,
		TodayCount:       analysis.CountOnDay(all, now),
		YesterdayCount:   analysis.CountOnDay(all, now.AddDate(0, 0, -1)),
		GeneratedAt:      now,
	}

	s.logger.Debug("summary computed",
		zap.Int("readings_count", stats.ReadingsCount),
		zap.Int("insights_count", len(summary.Insights)),
		zap.Time("start", timeRange.Start),
		zap.Time("end", timeRange.End),
	)

	return summary, nil
}
