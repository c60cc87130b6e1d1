package analysis

import (
	"math"
	"time"

	"github.com/vcscsvcscs/bp-insights/pkg/model"
)

// TrendDays is the length of the trailing window used for the daily trend
// series and the trend insight.
const TrendDays = 7

// Engine runs aggregation and insight derivation with a configured classifier.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	classifier *Classifier
}

// NewEngine creates an Engine. A nil classifier selects the default cascade.
func NewEngine(classifier *Classifier) *Engine {
	if classifier == nil {
		classifier = defaultClassifier
	}
	return &Engine{classifier: classifier}
}

// Classifier returns the engine's classifier
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

var defaultEngine = NewEngine(nil)

// Aggregate computes statistics with the default cascade
func Aggregate(readings []model.Reading, now time.Time) model.Statistics {
	return defaultEngine.Aggregate(readings, now)
}

// classificationOf prefers a classification attached at ingestion and falls
// back to classifying the pair.
func classificationOf(c *Classifier, r model.Reading) model.Classification {
	if r.Classification != nil && r.Classification.Category.Valid() {
		return *r.Classification
	}
	return c.Classify(r.Systolic, r.Diastolic)
}

// validReadings drops readings without a systolic/diastolic pair
func validReadings(readings []model.Reading) []model.Reading {
	out := make([]model.Reading, 0, len(readings))
	for _, r := range readings {
		if r.HasPressure() {
			out = append(out, r)
		}
	}
	return out
}

// roundMean is the round-half-up integer mean; n must be positive
func roundMean(sum, n int) int {
	return int(math.Floor(float64(sum)/float64(n) + 0.5))
}

type pressureSum struct {
	systolic  int
	diastolic int
	count     int
}

func (p pressureSum) add(r model.Reading) pressureSum {
	return pressureSum{
		systolic:  p.systolic + r.Systolic,
		diastolic: p.diastolic + r.Diastolic,
		count:     p.count + 1,
	}
}

// Aggregate computes summary statistics over readings. Readings are expected
// newest-first; the first valid reading supplies LatestCategory. Readings
// missing systolic or diastolic are ignored.
func (e *Engine) Aggregate(readings []model.Reading, now time.Time) model.Statistics {
	valid := validReadings(readings)

	stats := model.Statistics{
		LatestCategory:       model.CategoryNormal,
		CategoryDistribution: make(map[model.Category]int),
		TimeOfDayAverages:    make(map[model.TimeOfDay]model.TimeOfDayAverage),
		DailyTrend:           dailyTrend(valid, now),
	}
	if len(valid) == 0 {
		return stats
	}

	var total pressureSum
	var pulseSum, pulseCount int
	buckets := make(map[model.TimeOfDay]pressureSum)
	highest := model.PressurePair{Systolic: valid[0].Systolic, Diastolic: valid[0].Diastolic}
	lowest := highest

	for _, r := range valid {
		total = total.add(r)
		if r.Pulse != nil {
			pulseSum += *r.Pulse
			pulseCount++
		}
		buckets[r.Bucket()] = buckets[r.Bucket()].add(r)
		stats.CategoryDistribution[classificationOf(e.classifier, r).Category]++

		highest.Systolic = max(highest.Systolic, r.Systolic)
		highest.Diastolic = max(highest.Diastolic, r.Diastolic)
		lowest.Systolic = min(lowest.Systolic, r.Systolic)
		lowest.Diastolic = min(lowest.Diastolic, r.Diastolic)
	}

	stats.AverageSystolic = roundMean(total.systolic, total.count)
	stats.AverageDiastolic = roundMean(total.diastolic, total.count)
	if pulseCount > 0 {
		stats.AveragePulse = roundMean(pulseSum, pulseCount)
	}
	stats.ReadingsCount = total.count
	stats.LatestCategory = classificationOf(e.classifier, valid[0]).Category
	stats.Highest = highest
	stats.Lowest = lowest

	for bucket, sum := range buckets {
		stats.TimeOfDayAverages[bucket] = model.TimeOfDayAverage{
			Systolic:  roundMean(sum.systolic, sum.count),
			Diastolic: roundMean(sum.diastolic, sum.count),
			Count:     sum.count,
		}
	}

	return stats
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dailyTrend builds one point per calendar day for the TrendDays days ending
// on now's day, oldest first.
func dailyTrend(readings []model.Reading, now time.Time) []model.DailyTrendPoint {
	today := startOfDay(now)
	first := today.AddDate(0, 0, -(TrendDays - 1))

	sums := make([]pressureSum, TrendDays)
	for _, r := range readings {
		day := startOfDay(r.Timestamp.In(now.Location()))
		if day.Before(first) || day.After(today) {
			continue
		}
		idx := daysBetween(first, day)
		if idx < 0 || idx >= TrendDays {
			continue
		}
		sums[idx] = sums[idx].add(r)
	}

	points := make([]model.DailyTrendPoint, TrendDays)
	for i := range points {
		points[i] = model.DailyTrendPoint{Date: first.AddDate(0, 0, i)}
		if sums[i].count == 0 {
			continue
		}
		systolic := roundMean(sums[i].systolic, sums[i].count)
		diastolic := roundMean(sums[i].diastolic, sums[i].count)
		points[i].Systolic = &systolic
		points[i].Diastolic = &diastolic
		points[i].Count = sums[i].count
	}
	return points
}

// daysBetween counts calendar days from a to b, both at local midnight.
// Rounding absorbs DST shifts.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
