package export

import (
	"bytes"
	"fmt"

	"github.com/vcscsvcscs/bp-insights/internal/analysis"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	readingsSheet = "Readings"
	summarySheet  = "Summary"
)

// ReadingsHeader is the column layout of the readings sheet
var ReadingsHeader = []string{
	"ID",
	"Timestamp",
	"Systolic",
	"Diastolic",
	"Pulse",
	"Time of Day",
	"Category",
	"Condition",
	"Notes",
}

var readingsColumnWidths = []float64{38, 20, 10, 10, 8, 12, 22, 16, 40}

// XLSXGenerator renders readings and summaries as Excel workbooks
type XLSXGenerator struct {
	logger *zap.Logger
}

// NewXLSXGenerator creates a new XLSXGenerator
func NewXLSXGenerator(logger *zap.Logger) *XLSXGenerator {
	return &XLSXGenerator{logger: logger}
}

// GenerateReadings writes a workbook with a single readings sheet
func (g *XLSXGenerator) GenerateReadings(readings []model.Reading) ([]byte, error) {
	return g.write(func(f *excelize.File) error {
		return writeReadingsSheet(f, readings)
	})
}

// Generate writes a workbook with a summary sheet followed by the readings sheet
func (g *XLSXGenerator) Generate(summary *model.Summary) ([]byte, error) {
	g.logger.Info("generating XLSX report",
		zap.Time("start", summary.Range.Start),
		zap.Time("end", summary.Range.End),
		zap.Int("readings_count", len(summary.Readings)),
	)

	return g.write(func(f *excelize.File) error {
		if err := writeSummarySheet(f, summary); err != nil {
			return err
		}
		return writeReadingsSheet(f, summary.Readings)
	})
}

func (g *XLSXGenerator) write(fill func(*excelize.File) error) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := fill(f); err != nil {
		g.logger.Error("failed to build workbook", zap.Error(err))
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		g.logger.Error("failed to write workbook", zap.Error(err))
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}

	g.logger.Info("XLSX generated successfully", zap.Int("size_bytes", buf.Len()))
	return buf.Bytes(), nil
}

func headerStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6E6"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return style, nil
}

// categoryStyles builds one fill style per category color
func categoryStyles(f *excelize.File) (map[model.Category]int, error) {
	styles := make(map[model.Category]int, len(model.Categories))
	for _, category := range model.Categories {
		style, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Color: "#FFFFFF"},
			Fill: excelize.Fill{
				Type:    "pattern",
				Color:   []string{category.Color()},
				Pattern: 1,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create category style: %w", err)
		}
		styles[category] = style
	}
	return styles, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to set row %d: %w", row, err)
	}
	return nil
}

func writeReadingsSheet(f *excelize.File, readings []model.Reading) error {
	if _, err := f.NewSheet(readingsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	header := make([]any, len(ReadingsHeader))
	for i, h := range ReadingsHeader {
		header[i] = h
	}
	if err := setRow(f, readingsSheet, 1, header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(ReadingsHeader), 1)
	if err := f.SetCellStyle(readingsSheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range readingsColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(readingsSheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	styles, err := categoryStyles(f)
	if err != nil {
		return err
	}

	for i, r := range readings {
		row := i + 2
		var pulse any
		if r.Pulse != nil {
			pulse = *r.Pulse
		}
		category := model.CategoryUnknown
		label := ""
		if r.Classification != nil {
			category = r.Classification.Category
			label = r.Classification.Label
		}
		values := []any{
			r.ID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Systolic,
			r.Diastolic,
			pulse,
			string(r.Bucket()),
			label,
			r.Condition,
			r.Notes,
		}
		if err := setRow(f, readingsSheet, row, values); err != nil {
			return err
		}
		if label != "" {
			cell, _ := excelize.CoordinatesToCellName(7, row)
			if err := f.SetCellStyle(readingsSheet, cell, cell, styles[category]); err != nil {
				return fmt.Errorf("failed to set category style: %w", err)
			}
		}
	}

	if err := f.SetPanes(readingsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, summary *model.Summary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	stats := summary.Statistics
	rows := [][]any{
		{"Blood Pressure Summary"},
		{"Period start", summary.Range.Start.Format("2006-01-02 15:04")},
		{"Period end", summary.Range.End.Format("2006-01-02 15:04")},
		{"Readings", stats.ReadingsCount},
		{"Average systolic", stats.AverageSystolic},
		{"Average diastolic", stats.AverageDiastolic},
		{"Average pulse", stats.AveragePulse},
		{"Highest", fmt.Sprintf("%d/%d", stats.Highest.Systolic, stats.Highest.Diastolic)},
		{"Lowest", fmt.Sprintf("%d/%d", stats.Lowest.Systolic, stats.Lowest.Diastolic)},
		{"Latest category", analysis.ClassificationFor(stats.LatestCategory).Label},
		{},
		{"Category", "Count"},
	}
	headerRows := []int{1, 12}

	for _, category := range model.Categories {
		if count, ok := stats.CategoryDistribution[category]; ok {
			rows = append(rows, []any{analysis.ClassificationFor(category).Label, count})
		}
	}

	rows = append(rows, []any{}, []any{"Time of day", "Systolic", "Diastolic", "Count"})
	headerRows = append(headerRows, len(rows))
	for _, bucket := range model.TimesOfDay {
		if avg, ok := stats.TimeOfDayAverages[bucket]; ok {
			rows = append(rows, []any{string(bucket), avg.Systolic, avg.Diastolic, avg.Count})
		}
	}

	rows = append(rows, []any{}, []any{"Insight", "Type", "Message"})
	headerRows = append(headerRows, len(rows))
	for _, insight := range append(append([]model.Insight{}, summary.Insights...), summary.OverviewInsights...) {
		rows = append(rows, []any{insight.Title, string(insight.Type), insight.Message})
	}

	for i, values := range rows {
		if err := setRow(f, summarySheet, i+1, values); err != nil {
			return err
		}
	}
	for _, row := range headerRows {
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(4, row)
		if err := f.SetCellStyle(summarySheet, first, last, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return f.SetColWidth(summarySheet, "C", "C", 60)
}
