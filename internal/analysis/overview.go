package analysis

import (
	"fmt"

	"github.com/vcscsvcscs/bp-insights/pkg/model"
)

// OverviewInsights summarizes control, daily variation and the recent daily
// trend from aggregate statistics alone. Unlike DeriveInsights it is not capped.
func OverviewInsights(stats model.Statistics) []model.Insight {
	insights := []model.Insight{}
	if stats.ReadingsCount == 0 {
		return insights
	}

	insights = append(insights, controlInsight(stats))
	if insight, ok := dailyVariationInsight(stats); ok {
		insights = append(insights, insight)
	}
	if insight, ok := recentTrendInsight(stats); ok {
		insights = append(insights, insight)
	}
	return insights
}

func controlInsight(stats model.Statistics) model.Insight {
	normal := stats.CategoryDistribution[model.CategoryNormal]
	share := float64(normal) / float64(stats.ReadingsCount) * 100
	percent := roundMean(normal*100, stats.ReadingsCount)

	switch {
	case share >= 70:
		return model.Insight{
			Type:    model.InsightGood,
			Title:   "Good Control",
			Message: fmt.Sprintf("%d%% of your readings are in the normal range. Keep it up!", percent),
		}
	case share >= 50:
		return model.Insight{
			Type:    model.InsightWarning,
			Title:   "Moderate Control",
			Message: fmt.Sprintf("%d%% of readings are normal. Consider lifestyle adjustments.", percent),
		}
	default:
		return model.Insight{
			Type:    model.InsightAlert,
			Title:   "Needs Attention",
			Message: fmt.Sprintf("Only %d%% of readings are normal. Please consult your doctor.", percent),
		}
	}
}

func dailyVariationInsight(stats model.Statistics) (model.Insight, bool) {
	if len(stats.TimeOfDayAverages) < 2 {
		return model.Insight{}, false
	}

	first := true
	var lo, hi int
	for _, avg := range stats.TimeOfDayAverages {
		if first {
			lo, hi = avg.Systolic, avg.Systolic
			first = false
			continue
		}
		lo = min(lo, avg.Systolic)
		hi = max(hi, avg.Systolic)
	}

	if hi-lo <= 20 {
		return model.Insight{}, false
	}
	return model.Insight{
		Type:    model.InsightInfo,
		Title:   "High Daily Variation",
		Message: "Your BP varies significantly throughout the day. Monitor patterns closely.",
	}, true
}

// recentTrendInsight compares the last three days of the daily trend that
// carry readings.
func recentTrendInsight(stats model.Statistics) (model.Insight, bool) {
	var days []int
	for _, point := range stats.DailyTrend {
		if point.Systolic != nil {
			days = append(days, *point.Systolic)
		}
	}
	if len(days) < 3 {
		return model.Insight{}, false
	}
	days = days[len(days)-3:]

	change := days[2] - days[0]
	switch {
	case change > 10:
		return model.Insight{
			Type:    model.InsightWarning,
			Title:   "Increasing Trend",
			Message: "Your BP shows an upward trend in recent days.",
		}, true
	case change < -10:
		return model.Insight{
			Type:    model.InsightGood,
			Title:   "Improving Trend",
			Message: "Your BP shows improvement in recent days.",
		}, true
	}
	return model.Insight{}, false
}
