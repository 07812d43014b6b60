package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"agencycrm/internal/core"
	"agencycrm/internal/services"
)

var (
	progressKind      string
	progressGroupBy   string
	progressPeriod    string
	progressStart     string
	progressEnd       string
	progressDateField string
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show sales progress against targets",
	Long:  "Aggregate the actor's visible records by country or author within a period and compare accepted sales with the sales targets of the matching profiles.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		actor, err := requireActor()
		if err != nil {
			return err
		}
		q, err := progressQuery()
		if err != nil {
			return err
		}

		result, cleanup, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := services.NewReportService(result.Store, result.Store).Progress(cmd.Context(), actor, q)
		if err != nil {
			return fmt.Errorf("progress: %w", err)
		}

		if outputFlag == "json" {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		return printProgress(cmd, report)
	},
}

func progressQuery() (services.ReportQuery, error) {
	q := services.ReportQuery{Grouping: progressGroupBy, Period: progressPeriod}
	if progressKind != "" {
		kind, err := parseKind(progressKind)
		if err != nil {
			return q, err
		}
		q.Kind = kind
	}
	field, err := services.ParseDateField(progressDateField)
	if err != nil {
		return q, err
	}
	q.DateField = field
	for _, d := range []struct {
		raw string
		dst *time.Time
	}{{progressStart, &q.Start}, {progressEnd, &q.End}} {
		if d.raw == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", d.raw)
		if err != nil {
			return q, fmt.Errorf("%w: bad date %q, want YYYY-MM-DD", core.ErrInvalidPeriod, d.raw)
		}
		*d.dst = t
	}
	return q, nil
}

func printProgress(cmd *cobra.Command, report services.ProgressReport) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s by %s, %s\n", report.Kind, report.Grouping, report.Period)
	if len(report.Groups) == 0 {
		fmt.Fprintln(out, "No records in this period.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tRECORDS\tSALES\tTARGET\tPROGRESS\tDUE\n", strings.ToUpper(report.Grouping))
	line := func(key string, g core.GroupSummary) {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.1f%%\t%s\n", key, g.Records,
			core.FormatAmount(g.Sales), core.FormatAmount(g.Target), g.Progress, core.FormatAmount(g.Totals.DueAmount))
	}
	for _, g := range report.Groups {
		key := g.Key
		if key == "" {
			key = "(unassigned)"
		}
		line(key, g)
	}
	line("TOTAL", report.Total)
	return tw.Flush()
}

func init() {
	f := progressCmd.Flags()
	f.StringVar(&progressKind, "kind", "", "record kind: leads or quotations (default quotations)")
	f.StringVar(&progressGroupBy, "group-by", services.ByCountry.Name, "grouping: country or author")
	f.StringVar(&progressPeriod, "period", services.PeriodAllTime, "last-week, last-month, last-quarter, last-year, all-time or custom")
	f.StringVar(&progressStart, "start", "", "custom period start (YYYY-MM-DD)")
	f.StringVar(&progressEnd, "end", "", "custom period end (YYYY-MM-DD)")
	f.StringVar(&progressDateField, "date-field", "", "date the period applies to: createdAt or updatedAt")
	rootCmd.AddCommand(progressCmd)
}
