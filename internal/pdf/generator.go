package pdf

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/vcscsvcscs/bp-insights/internal/analysis"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"go.uber.org/zap"
)

// maxReadings caps the reading table; the XLSX export carries the full list
const maxReadings = 60

// PDFGenerator renders blood pressure summary reports
type PDFGenerator struct {
	logger *zap.Logger
}

// NewPDFGenerator creates a new PDFGenerator
func NewPDFGenerator(logger *zap.Logger) *PDFGenerator {
	return &PDFGenerator{
		logger: logger,
	}
}

// Generate creates a PDF report from an analysis summary
func (g *PDFGenerator) Generate(summary *model.Summary) ([]byte, error) {
	g.logger.Info("generating PDF report",
		zap.Time("start", summary.Range.Start),
		zap.Time("end", summary.Range.End),
		zap.Int("readings_count", summary.Statistics.ReadingsCount),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	g.addTitle(pdf, summary)
	g.addOverview(pdf, summary.Statistics)
	g.addCategoryDistribution(pdf, summary.Statistics)
	g.addTimeOfDay(pdf, summary.Statistics)
	g.addDailyTrend(pdf, summary.Statistics.DailyTrend)
	g.addInsights(pdf, append(append([]model.Insight{}, summary.Insights...), summary.OverviewInsights...))
	g.addReadings(pdf, summary.Readings)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	g.logger.Info("PDF report generated successfully",
		zap.Int("size_bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

func (g *PDFGenerator) addTitle(pdf *gofpdf.Fpdf, summary *model.Summary) {
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, "Blood Pressure Report", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	period := fmt.Sprintf("%s to %s", summary.Range.Start.Format("2006-01-02"), summary.Range.End.Format("2006-01-02"))
	pdf.CellFormat(0, 8, fmt.Sprintf("Period: %s", period), "", 1, "L", false, 0, "")
	if summary.TimeOfDay != "" {
		pdf.CellFormat(0, 8, fmt.Sprintf("Time of day: %s", summary.TimeOfDay), "", 1, "L", false, 0, "")
	}
	if summary.Category != "" {
		pdf.CellFormat(0, 8, fmt.Sprintf("Category: %s", analysis.ClassificationFor(summary.Category).Label), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(8)
}

// addSectionHeader adds a section header
func (g *PDFGenerator) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
}

func (g *PDFGenerator) addOverview(pdf *gofpdf.Fpdf, stats model.Statistics) {
	g.addSectionHeader(pdf, "Overview")

	if stats.ReadingsCount == 0 {
		pdf.CellFormat(0, 8, "No blood pressure readings recorded during this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.CellFormat(0, 6, fmt.Sprintf("Average: %d/%d mmHg", stats.AverageSystolic, stats.AverageDiastolic), "", 1, "L", false, 0, "")
	if stats.AveragePulse > 0 {
		pdf.CellFormat(0, 6, fmt.Sprintf("Average pulse: %d bpm", stats.AveragePulse), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Total readings: %d", stats.ReadingsCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Highest: %d/%d mmHg, Lowest: %d/%d mmHg",
		stats.Highest.Systolic, stats.Highest.Diastolic, stats.Lowest.Systolic, stats.Lowest.Diastolic), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	latest := analysis.ClassificationFor(stats.LatestCategory)
	pdf.SetFont("Arial", "B", 10)
	setFillHex(pdf, stats.LatestCategory.Color())
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(60, 7, " Latest: "+latest.Label, "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, latest.Advice, "", "L", false)
	for _, rec := range stats.LatestCategory.Recommendations() {
		pdf.CellFormat(0, 5, fmt.Sprintf("  - %s", rec), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

func (g *PDFGenerator) addCategoryDistribution(pdf *gofpdf.Fpdf, stats model.Statistics) {
	if len(stats.CategoryDistribution) == 0 {
		return
	}
	g.addSectionHeader(pdf, "Category Distribution")

	for _, category := range model.Categories {
		count, ok := stats.CategoryDistribution[category]
		if !ok {
			continue
		}
		setFillHex(pdf, category.Color())
		pdf.CellFormat(4, 5, "", "", 0, "L", true, 0, "")
		pdf.CellFormat(70, 5, " "+analysis.ClassificationFor(category).Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("%d (%d%%)", count, count*100/stats.ReadingsCount), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

func (g *PDFGenerator) addTimeOfDay(pdf *gofpdf.Fpdf, stats model.Statistics) {
	if len(stats.TimeOfDayAverages) == 0 {
		return
	}
	g.addSectionHeader(pdf, "Time of Day")

	for _, bucket := range model.TimesOfDay {
		avg, ok := stats.TimeOfDayAverages[bucket]
		if !ok {
			continue
		}
		pdf.CellFormat(0, 5, fmt.Sprintf("%-10s %d/%d mmHg (%d readings)", bucket, avg.Systolic, avg.Diastolic, avg.Count), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

func (g *PDFGenerator) addDailyTrend(pdf *gofpdf.Fpdf, trend []model.DailyTrendPoint) {
	g.addSectionHeader(pdf, "Last 7 Days")

	for _, point := range trend {
		value := "-"
		if point.Systolic != nil && point.Diastolic != nil {
			value = fmt.Sprintf("%d/%d mmHg (%d)", *point.Systolic, *point.Diastolic, point.Count)
		}
		pdf.CellFormat(40, 5, point.Date.Format("Mon 2006-01-02"), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

func (g *PDFGenerator) addInsights(pdf *gofpdf.Fpdf, insights []model.Insight) {
	g.addSectionHeader(pdf, "Insights")

	if len(insights) == 0 {
		pdf.CellFormat(0, 8, "Not enough data for insights.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	for _, insight := range insights {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("[%s] %s", insight.Type, insight.Title), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, insight.Message, "", "L", false)
		pdf.Ln(2)
	}
	pdf.Ln(3)
}

func (g *PDFGenerator) addReadings(pdf *gofpdf.Fpdf, readings []model.Reading) {
	g.addSectionHeader(pdf, "Readings")

	if len(readings) == 0 {
		pdf.CellFormat(0, 8, "No readings recorded during this period.", "", 1, "L", false, 0, "")
		return
	}

	header := []string{"Date", "BP (mmHg)", "Pulse", "Time of day", "Category"}
	widths := []float64{38, 25, 17, 28, 62}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range header {
		pdf.CellFormat(widths[i], 6, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)

	for i, r := range readings {
		if i == maxReadings {
			pdf.CellFormat(0, 6, fmt.Sprintf("... and %d more", len(readings)-maxReadings), "", 1, "L", false, 0, "")
			break
		}
		pulse := "-"
		if r.Pulse != nil {
			pulse = strconv.Itoa(*r.Pulse)
		}
		label := "-"
		if r.Classification != nil {
			label = r.Classification.Label
		}
		cells := []string{
			r.Timestamp.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d/%d", r.Systolic, r.Diastolic),
			pulse,
			string(r.Bucket()),
			label,
		}
		for j, cell := range cells {
			pdf.CellFormat(widths[j], 5, cell, "", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// setFillHex sets the fill color from a #rrggbb string
func setFillHex(pdf *gofpdf.Fpdf, hex string) {
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		r, g, b = 102, 102, 102
	}
	pdf.SetFillColor(r, g, b)
}
