package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/bp-insights/internal/security"
	"github.com/vcscsvcscs/bp-insights/internal/service"
	"github.com/vcscsvcscs/bp-insights/pkg/model"
)

const dateLayout = "2006-01-02"

// parseDate accepts RFC 3339 or YYYY-MM-DD; a plain end date covers the whole day
func parseDate(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", value)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

// queryFlags are the period and filter flags shared by summary and export
type queryFlags struct {
	days      int
	start     string
	end       string
	timeOfDay string
	category  string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&q.days, "days", 0, "Period in days (7, 30 or 90)")
	cmd.Flags().StringVar(&q.start, "start", "", "Range start (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&q.end, "end", "", "Range end (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&q.timeOfDay, "time-of-day", "", "Only readings taken in this part of the day")
	cmd.Flags().StringVar(&q.category, "category", "", "Only readings in this category")
}

func (q *queryFlags) query() (service.SummaryQuery, error) {
	start, err := parseDate(q.start, false)
	if err != nil {
		return service.SummaryQuery{}, err
	}
	end, err := parseDate(q.end, true)
	if err != nil {
		return service.SummaryQuery{}, err
	}
	return service.SummaryQuery{
		Days:      q.days,
		Start:     start,
		End:       end,
		TimeOfDay: model.TimeOfDay(q.timeOfDay),
		Category:  model.Category(q.category),
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newClassifyCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <systolic> <diastolic>",
		Short: "Classify a single reading without storing it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			systolic, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("systolic must be an integer: %w", err)
			}
			diastolic, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("diastolic must be an integer: %w", err)
			}

			cl := c.app.Analysis.Classify(systolic, diastolic)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d/%d: %s (%s)\n", systolic, diastolic, cl.Label, cl.Severity)
			fmt.Fprintf(out, "%s\n", cl.Advice)
			for _, rec := range cl.Category.Recommendations() {
				fmt.Fprintf(out, "  - %s\n", rec)
			}
			return nil
		},
	}
}

type addCmd struct {
	cli       *cli
	systolic  int
	diastolic int
	pulse     int
	at        string
	timeOfDay string
	condition string
	notes     string
}

func newAddCmd(c *cli) *cobra.Command {
	ac := &addCmd{cli: c}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a reading",
		Args:  cobra.NoArgs,
		RunE:  ac.run,
	}

	cmd.Flags().IntVar(&ac.systolic, "systolic", 0, "Systolic pressure in mmHg")
	cmd.Flags().IntVar(&ac.diastolic, "diastolic", 0, "Diastolic pressure in mmHg")
	cmd.Flags().IntVar(&ac.pulse, "pulse", 0, "Pulse in beats per minute")
	cmd.Flags().StringVar(&ac.at, "at", "", "Time of measurement (default now)")
	cmd.Flags().StringVar(&ac.timeOfDay, "time-of-day", "", "morning, afternoon, evening or night (default from time)")
	cmd.Flags().StringVar(&ac.condition, "condition", "", "Measurement condition: "+strings.Join(model.Conditions, ", "))
	cmd.Flags().StringVar(&ac.notes, "notes", "", "Free-form notes")

	_ = cmd.MarkFlagRequired("systolic")
	_ = cmd.MarkFlagRequired("diastolic")

	return cmd
}

func (ac *addCmd) run(cmd *cobra.Command, _ []string) error {
	reading := &model.Reading{
		Systolic:  ac.systolic,
		Diastolic: ac.diastolic,
		TimeOfDay: model.TimeOfDay(ac.timeOfDay),
		Condition: ac.condition,
		Notes:     ac.notes,
	}
	if cmd.Flags().Changed("pulse") {
		pulse := ac.pulse
		reading.Pulse = &pulse
	}
	at, err := parseDate(ac.at, false)
	if err != nil {
		return err
	}
	if at != nil {
		reading.Timestamp = *at
	}

	if err := ac.cli.app.Readings.AddReading(cmd.Context(), reading); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d/%d at %s: %s\n",
		reading.Systolic, reading.Diastolic,
		reading.Timestamp.Format("2006-01-02 15:04"),
		reading.Classification.Label)
	return nil
}

func newListCmd(c *cli) *cobra.Command {
	var (
		q      queryFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored readings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := q.query()
			if err != nil {
				return err
			}
			filter := service.ReadingFilter{TimeOfDay: query.TimeOfDay, Category: query.Category}
			if query.Start != nil || query.End != nil {
				rng := model.TimeRange{End: c.now()}
				if query.Start != nil {
					rng.Start = *query.Start
				}
				if query.End != nil {
					rng.End = *query.End
				}
				filter.Range = &rng
			}

			readings, err := c.app.Readings.ListReadings(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), readings)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tBP\tPULSE\tPERIOD\tCATEGORY\tID")
			for _, r := range readings {
				pulse := "-"
				if r.Pulse != nil {
					pulse = strconv.Itoa(*r.Pulse)
				}
				label := c.app.Engine.Classifier().Classify(r.Systolic, r.Diastolic).Label
				if r.Classification != nil {
					label = r.Classification.Label
				}
				fmt.Fprintf(tw, "%s\t%d/%d\t%s\t%s\t%s\t%s\n",
					r.Timestamp.Format("2006-01-02 15:04"), r.Systolic, r.Diastolic,
					pulse, r.Bucket(), label, r.ID)
			}
			return tw.Flush()
		},
	}
	q.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newSummaryCmd(c *cli) *cobra.Command {
	var (
		q      queryFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show statistics and insights for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := q.query()
			if err != nil {
				return err
			}
			summary, err := c.app.Analysis.Summary(cmd.Context(), query)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	q.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full summary as JSON")
	return cmd
}

func printSummary(w io.Writer, s *model.Summary) {
	stats := s.Statistics
	fmt.Fprintf(w, "Period: %s to %s\n", s.Range.Start.Format(dateLayout), s.Range.End.Format(dateLayout))
	fmt.Fprintf(w, "Readings: %d (today %d, yesterday %d)\n", stats.ReadingsCount, s.TodayCount, s.YesterdayCount)
	if stats.ReadingsCount == 0 {
		fmt.Fprintln(w, "No readings in this period.")
		return
	}

	fmt.Fprintf(w, "Average: %d/%d", stats.AverageSystolic, stats.AverageDiastolic)
	if stats.AveragePulse > 0 {
		fmt.Fprintf(w, ", pulse %d", stats.AveragePulse)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Highest: %d/%d  Lowest: %d/%d\n",
		stats.Highest.Systolic, stats.Highest.Diastolic, stats.Lowest.Systolic, stats.Lowest.Diastolic)
	fmt.Fprintf(w, "Latest category: %s\n", stats.LatestCategory)

	fmt.Fprintln(w, "\nCategories:")
	for _, category := range model.Categories {
		if n := stats.CategoryDistribution[category]; n > 0 {
			fmt.Fprintf(w, "  %-22s %d\n", category, n)
		}
	}

	fmt.Fprintln(w, "\nTime of day:")
	for _, bucket := range model.TimesOfDay {
		if avg, ok := stats.TimeOfDayAverages[bucket]; ok {
			fmt.Fprintf(w, "  %-10s %d/%d (%d)\n", bucket, avg.Systolic, avg.Diastolic, avg.Count)
		}
	}

	insights := append(append([]model.Insight{}, s.Insights...), s.OverviewInsights...)
	if len(insights) > 0 {
		fmt.Fprintln(w, "\nInsights:")
		for _, in := range insights {
			fmt.Fprintf(w, "  [%s] %s: %s\n", in.Type, in.Title, in.Message)
		}
	}
}

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import readings from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			n, err := c.app.Readings.ImportReadings(cmd.Context(), raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d readings\n", n)
			return nil
		},
	}
}

type exportCmd struct {
	cli    *cli
	q      queryFlags
	format string
	out    string
}

func newExportCmd(c *cli) *cobra.Command {
	ec := &exportCmd{cli: c}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export readings as JSON, or a summary report as XLSX or PDF",
		Args:  cobra.NoArgs,
		RunE:  ec.run,
	}
	ec.q.register(cmd)
	cmd.Flags().StringVar(&ec.format, "format", "json", "json, xlsx or pdf")
	cmd.Flags().StringVarP(&ec.out, "out", "o", "", "Output file (default bp-readings-YYYY-MM-DD.<format>, - for stdout)")
	return cmd
}

func (ec *exportCmd) render(ctx context.Context) ([]byte, error) {
	if ec.format == "json" {
		return ec.cli.app.Readings.ExportReadings(ctx)
	}

	query, err := ec.q.query()
	if err != nil {
		return nil, err
	}
	data, _, err := ec.cli.app.Reports.Render(ctx, query, model.ReportFormat(ec.format))
	return data, err
}

func (ec *exportCmd) run(cmd *cobra.Command, _ []string) error {
	switch ec.format {
	case "json", string(model.ReportFormatXLSX), string(model.ReportFormatPDF):
	default:
		return fmt.Errorf("unsupported format %q: use json, xlsx or pdf", ec.format)
	}

	data, err := ec.render(cmd.Context())
	if err != nil {
		return err
	}

	if ec.out == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	out := ec.out
	if out == "" {
		out = fmt.Sprintf("bp-readings-%s.%s", ec.cli.now().Format(dateLayout), ec.format)
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, len(data))
	return nil
}

func newClearCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear readings without --yes")
			}
			if err := c.app.Readings.ClearReadings(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All readings cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a storage encryption key",
		Args:  cobra.NoArgs,
		// keygen needs no configuration or store
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := security.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
