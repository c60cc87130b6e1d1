package model

import "time"

// TimeOfDay is one of the four fixed parts of the day used for pattern analysis
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
	TimeOfDayNight     TimeOfDay = "night"
)

// TimesOfDay lists the buckets in their fixed reporting order
var TimesOfDay = []TimeOfDay{
	TimeOfDayMorning,
	TimeOfDayAfternoon,
	TimeOfDayEvening,
	TimeOfDayNight,
}

// Valid reports whether t is one of the four known buckets
func (t TimeOfDay) Valid() bool {
	switch t {
	case TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening, TimeOfDayNight:
		return true
	}
	return false
}

// TimeOfDayAt derives the bucket from the hour of ts:
// 5-11 morning, 12-16 afternoon, 17-21 evening, otherwise night.
func TimeOfDayAt(ts time.Time) TimeOfDay {
	hour := ts.Hour()
	switch {
	case hour >= 5 && hour < 12:
		return TimeOfDayMorning
	case hour >= 12 && hour < 17:
		return TimeOfDayAfternoon
	case hour >= 17 && hour < 22:
		return TimeOfDayEvening
	default:
		return TimeOfDayNight
	}
}

// Reading represents one timestamped blood pressure observation.
// A zero Systolic or Diastolic marks the measurement as missing.
type Reading struct {
	ID             string          `json:"id"`
	Systolic       int             `json:"systolic"`
	Diastolic      int             `json:"diastolic"`
	Pulse          *int            `json:"pulse,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	TimeOfDay      TimeOfDay       `json:"timeOfDay,omitempty"`
	Condition      string          `json:"condition,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
}

// HasPressure reports whether both systolic and diastolic values are present
func (r Reading) HasPressure() bool {
	return r.Systolic != 0 && r.Diastolic != 0
}

// Bucket returns the supplied time of day, or derives it from the timestamp
// when the supplied value is empty or unknown.
func (r Reading) Bucket() TimeOfDay {
	if r.TimeOfDay.Valid() {
		return r.TimeOfDay
	}
	return TimeOfDayAt(r.Timestamp)
}

// TimeRange is an inclusive [Start, End] interval
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Category is a blood pressure classification category
type Category string

const (
	CategoryHypotension        Category = "hypotension"
	CategoryNormal             Category = "normal"
	CategoryElevated           Category = "elevated"
	CategoryHypertensionStage1 Category = "hypertension_stage_1"
	CategoryHypertensionStage2 Category = "hypertension_stage_2"
	CategoryHypertensiveCrisis Category = "hypertensive_crisis"
	CategoryUnknown            Category = "unknown"
)

// Categories lists every category in ascending risk order, unknown last
var Categories = []Category{
	CategoryHypotension,
	CategoryNormal,
	CategoryElevated,
	CategoryHypertensionStage1,
	CategoryHypertensionStage2,
	CategoryHypertensiveCrisis,
	CategoryUnknown,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

var categoryColors = map[Category]string{
	CategoryHypotension:        "#2196f3",
	CategoryNormal:             "#4caf50",
	CategoryElevated:           "#ff9800",
	CategoryHypertensionStage1: "#ff5722",
	CategoryHypertensionStage2: "#f44336",
	CategoryHypertensiveCrisis: "#d32f2f",
	CategoryUnknown:            "#666666",
}

// Color returns the display color for the category
func (c Category) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[CategoryUnknown]
}

var categoryRecommendations = map[Category][]string{
	CategoryHypotension:        {"Increase fluid intake", "Review medications", "Avoid sudden position changes"},
	CategoryNormal:             {"Maintain healthy lifestyle", "Regular checkups"},
	CategoryElevated:           {"Reduce salt intake", "Increase physical activity", "Monitor regularly"},
	CategoryHypertensionStage1: {"Consult doctor", "Medication review", "Lifestyle changes"},
	CategoryHypertensionStage2: {"Immediate doctor consultation", "Medication adherence", "Regular monitoring"},
	CategoryHypertensiveCrisis: {"Seek emergency care immediately"},
}

// Recommendations returns lifestyle recommendations for the category
func (c Category) Recommendations() []string {
	if recs, ok := categoryRecommendations[c]; ok {
		out := make([]string, len(recs))
		copy(out, recs)
		return out
	}
	return []string{"No specific recommendations"}
}

// Severity is the ordinal risk tier of a classification
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
	SeverityUnknown  Severity = "unknown"
)

// Classification is the category/severity/advice tuple derived from a reading
type Classification struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
	Advice   string   `json:"advice"`
}

// PressurePair is a systolic/diastolic value pair
type PressurePair struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// TimeOfDayAverage holds rounded averages for one time-of-day bucket
type TimeOfDayAverage struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
	Count     int `json:"count"`
}

// DailyTrendPoint holds the averages for one calendar day.
// Systolic and Diastolic are nil for days without readings.
type DailyTrendPoint struct {
	Date      time.Time `json:"date"`
	Systolic  *int      `json:"systolic"`
	Diastolic *int      `json:"diastolic"`
	Count     int       `json:"count"`
}

// Statistics is the aggregate view over a set of readings
type Statistics struct {
	AverageSystolic      int                            `json:"averageSystolic"`
	AverageDiastolic     int                            `json:"averageDiastolic"`
	AveragePulse         int                            `json:"averagePulse"`
	ReadingsCount        int                            `json:"readingsCount"`
	LatestCategory       Category                       `json:"latestCategory"`
	Highest              PressurePair                   `json:"highest"`
	Lowest               PressurePair                   `json:"lowest"`
	CategoryDistribution map[Category]int               `json:"categoryDistribution"`
	TimeOfDayAverages    map[TimeOfDay]TimeOfDayAverage `json:"timeOfDayAverages"`
	DailyTrend           []DailyTrendPoint              `json:"dailyTrend"`
}

// InsightType is the tone of a derived insight
type InsightType string

const (
	InsightGood    InsightType = "good"
	InsightInfo    InsightType = "info"
	InsightWarning InsightType = "warning"
	InsightAlert   InsightType = "alert"
)

// Insight is a qualitative observation derived from recent history
type Insight struct {
	Type    InsightType `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
}

// ReportFormat is the file format of a generated report
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// Report represents a generated summary report
type Report struct {
	ID             string       `json:"id"`
	Format         ReportFormat `json:"format"`
	DateRangeStart time.Time    `json:"date_range_start"`
	DateRangeEnd   time.Time    `json:"date_range_end"`
	FilePath       string       `json:"file_path"`
	SizeBytes      int          `json:"size_bytes"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// Summary is the analysis result for one period: statistics, insights and
// the readings they were computed from, newest first.
type Summary struct {
	Range            TimeRange  `json:"range"`
	Days             int        `json:"days,omitempty"`
	TimeOfDay        TimeOfDay  `json:"timeOfDay,omitempty"`
	Category         Category   `json:"category,omitempty"`
	Statistics       Statistics `json:"statistics"`
	Insights         []Insight  `json:"insights"`
	OverviewInsights []Insight  `json:"overviewInsights"`
	Readings         []Reading  `json:"readings"`
	TodayCount       int        `json:"todayCount"`
	YesterdayCount   int        `json:"yesterdayCount"`
	GeneratedAt      time.Time  `json:"generatedAt"`
}

// Conditions lists the usual measurement circumstances. Condition itself is free-form.
var Conditions = []string{
	"before_meal",
	"after_meal",
	"before_medication",
	"after_medication",
	"resting",
	"active",
}
