package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vcscsvcscs/bp-insights/pkg/model"
)

// MaxInsights caps the number of insights returned by DeriveInsights.
// Rules are evaluated in priority order, so later rules drop first.
const MaxInsights = 4

const (
	trendMinReadings      = 3
	trendSystolicDelta    = 10
	trendDiastolicDelta   = 5
	highReadingShare      = 0.3
	timeOfDayMinSamples   = 3
	timeOfDaySystolicMax  = 135
	timeOfDayDiastolicMax = 85
	varianceMinReadings   = 5
	varianceMaxStdDev     = 15
)

// DeriveInsights derives insights with the default cascade
func DeriveInsights(readings []model.Reading, stats model.Statistics, now time.Time) []model.Insight {
	return defaultEngine.DeriveInsights(readings, stats, now)
}

// DeriveInsights returns at most MaxInsights observations about readings.
// stats must be the aggregate of the same readings.
func (e *Engine) DeriveInsights(readings []model.Reading, stats model.Statistics, now time.Time) []model.Insight {
	valid := validReadings(readings)
	if len(valid) == 0 {
		return []model.Insight{}
	}

	insights := make([]model.Insight, 0, MaxInsights)
	if insight, ok := trendInsight(valid, now); ok {
		insights = append(insights, insight)
	}
	if insight, ok := e.highFrequencyInsight(valid); ok {
		insights = append(insights, insight)
	}
	insights = append(insights, timeOfDayInsights(stats)...)
	if insight, ok := varianceInsight(valid, stats); ok {
		insights = append(insights, insight)
	}

	if len(insights) > MaxInsights {
		insights = insights[:MaxInsights]
	}
	return insights
}

// trendInsight compares the oldest and newest reading of the trailing week
func trendInsight(readings []model.Reading, now time.Time) (model.Insight, bool) {
	recent := InRange(readings, TrailingRange(now, TrendDays))
	if len(recent) < trendMinReadings {
		return model.Insight{}, false
	}

	oldest, newest := recent[0], recent[0]
	for _, r := range recent[1:] {
		if r.Timestamp.Before(oldest.Timestamp) {
			oldest = r
		}
		if r.Timestamp.After(newest.Timestamp) {
			newest = r
		}
	}

	systolicChange := newest.Systolic - oldest.Systolic
	diastolicChange := newest.Diastolic - oldest.Diastolic

	switch {
	case systolicChange > trendSystolicDelta || diastolicChange > trendDiastolicDelta:
		return model.Insight{
			Type:    model.InsightWarning,
			Title:   "BP Increasing",
			Message: "Your blood pressure shows an upward trend over the past week. Consider consulting your doctor.",
		}, true
	case systolicChange < -trendSystolicDelta || diastolicChange < -trendDiastolicDelta:
		return model.Insight{
			Type:    model.InsightInfo,
			Title:   "BP Decreasing",
			Message: "Your blood pressure shows improvement over the past week. Keep up the good work!",
		}, true
	}
	return model.Insight{}, false
}

func (e *Engine) highFrequencyInsight(readings []model.Reading) (model.Insight, bool) {
	high := 0
	for _, r := range readings {
		switch classificationOf(e.classifier, r).Severity {
		case model.SeverityHigh, model.SeverityModerate:
			high++
		}
	}

	if float64(high) <= float64(len(readings))*highReadingShare {
		return model.Insight{}, false
	}

	percent := roundMean(high*100, len(readings))
	return model.Insight{
		Type:    model.InsightAlert,
		Title:   "Frequent High Readings",
		Message: fmt.Sprintf("%d%% of your readings are elevated. Please consult your doctor.", percent),
	}, true
}

func timeOfDayInsights(stats model.Statistics) []model.Insight {
	var insights []model.Insight
	for _, bucket := range model.TimesOfDay {
		avg, ok := stats.TimeOfDayAverages[bucket]
		if !ok || avg.Count < timeOfDayMinSamples {
			continue
		}
		if avg.Systolic <= timeOfDaySystolicMax && avg.Diastolic <= timeOfDayDiastolicMax {
			continue
		}
		insights = append(insights, model.Insight{
			Type:  model.InsightWarning,
			Title: fmt.Sprintf("High %s Readings", titleCase(string(bucket))),
			Message: fmt.Sprintf("Your average BP in the %s is %d/%d. Consider monitoring your %s routine.",
				bucket, avg.Systolic, avg.Diastolic, bucket),
		})
	}
	return insights
}

// varianceInsight uses the population standard deviation of systolic values
// around the rounded overall average.
func varianceInsight(readings []model.Reading, stats model.Statistics) (model.Insight, bool) {
	if len(readings) < varianceMinReadings {
		return model.Insight{}, false
	}

	var squares float64
	for _, r := range readings {
		diff := float64(r.Systolic - stats.AverageSystolic)
		squares += diff * diff
	}
	stdDev := math.Sqrt(squares / float64(len(readings)))

	if stdDev <= varianceMaxStdDev {
		return model.Insight{}, false
	}
	return model.Insight{
		Type:    model.InsightInfo,
		Title:   "Inconsistent Readings",
		Message: "Your blood pressure readings vary significantly. Try taking readings at consistent times and conditions.",
	}, true
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
