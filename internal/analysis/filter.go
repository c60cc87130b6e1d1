package analysis

import (
	"time"

	"github.com/vcscsvcscs/bp-insights/pkg/model"
)

// InRange returns the readings whose timestamp lies in [r.Start, r.End],
// preserving order. An inverted range yields an empty slice.
func InRange(readings []model.Reading, r model.TimeRange) []model.Reading {
	out := make([]model.Reading, 0, len(readings))
	if r.Start.After(r.End) {
		return out
	}
	for _, reading := range readings {
		if reading.Timestamp.Before(r.Start) || reading.Timestamp.After(r.End) {
			continue
		}
		out = append(out, reading)
	}
	return out
}

// TrailingRange returns the range of the given number of days ending at now
func TrailingRange(now time.Time, days int) model.TimeRange {
	return model.TimeRange{
		Start: now.AddDate(0, 0, -days),
		End:   now,
	}
}

// FilterByTimeOfDay keeps readings in the given bucket. An empty bucket keeps all.
func FilterByTimeOfDay(readings []model.Reading, bucket model.TimeOfDay) []model.Reading {
	if bucket == "" {
		return append([]model.Reading(nil), readings...)
	}
	out := make([]model.Reading, 0, len(readings))
	for _, reading := range readings {
		if reading.Bucket() == bucket {
			out = append(out, reading)
		}
	}
	return out
}

// FilterByCategory keeps readings classified into category using c.
// An empty category keeps all.
func FilterByCategory(c *Classifier, readings []model.Reading, category model.Category) []model.Reading {
	if category == "" {
		return append([]model.Reading(nil), readings...)
	}
	out := make([]model.Reading, 0, len(readings))
	for _, reading := range readings {
		if !reading.HasPressure() {
			continue
		}
		if classificationOf(c, reading).Category == category {
			out = append(out, reading)
		}
	}
	return out
}

// CountOnDay counts readings that fall on the calendar day of day,
// in day's location.
func CountOnDay(readings []model.Reading, day time.Time) int {
	y, m, d := day.Date()
	count := 0
	for _, reading := range readings {
		ry, rm, rd := reading.Timestamp.In(day.Location()).Date()
		if ry == y && rm == m && rd == d {
			count++
		}
	}
	return count
}
