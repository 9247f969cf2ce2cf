package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ev-risk/internal/model"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored reports",
	Long:  "Commands for listing, viewing, and summarizing stored Buy Confidence reports.",
}

// -- reports list --

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := model.ReportFilter{
			Status: model.ReportStatus(status),
			Limit:  limit,
		}
		if filter.Status != "" && !filter.Status.Valid() {
			return eris.Errorf("reports list: unknown status %q", status)
		}

		reports, err := st.ListReports(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "reports list")
		}

		if len(reports) == 0 {
			fmt.Fprintln(os.Stderr, "No reports found.")
			return nil
		}

		formatReportsList(cmd.OutOrStdout(), reports)
		return nil
	},
}

// -- reports show --

var reportsShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		r, err := st.GetReport(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "reports show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	},
}

// -- reports stats --

var reportsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show report and feedback analytics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var since time.Time
		if d, _ := cmd.Flags().GetDuration("since"); d > 0 {
			since = time.Now().Add(-d)
		}

		a, err := st.Analytics(ctx, since)
		if err != nil {
			return eris.Wrap(err, "reports stats")
		}

		formatReportStats(cmd.OutOrStdout(), a)
		return nil
	},
}

func init() {
	reportsListCmd.Flags().String("status", "", "filter by status (draft, paid, free)")
	reportsListCmd.Flags().Int("limit", 50, "max number of reports to display")

	reportsStatsCmd.Flags().Duration("since", 0, "time window for stats, e.g. 720h (default: all time)")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsStatsCmd)
	rootCmd.AddCommand(reportsCmd)
}

// formatReportsList writes a tabular list of reports to out.
func formatReportsList(out io.Writer, reports []model.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tVEHICLE\tSTATUS\tSCORE\tRATING\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t-----\t------\t-------")

	for _, r := range reports {
		vehicle := r.VehicleModel
		if r.VehicleYear != 0 {
			vehicle = fmt.Sprintf("%d %s", r.VehicleYear, r.VehicleModel)
		}
		if len(vehicle) > 30 {
			vehicle = vehicle[:27] + "..."
		}

		score, rating := "-", "-"
		if c := r.Payload.Confidence; c != nil {
			score = fmt.Sprint(c.OverallScore)
			rating = string(c.Rating)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			vehicle,
			r.Status,
			score,
			rating,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatReportStats writes an analytics summary to out.
func formatReportStats(out io.Writer, a *model.Analytics) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total reports:\t%d\n", a.TotalReports)
	_, _ = fmt.Fprintf(w, "  Paid:\t%d\n", a.PaidReports)
	_, _ = fmt.Fprintf(w, "  Free:\t%d\n", a.FreeReports)
	_, _ = fmt.Fprintf(w, "  Draft:\t%d\n", a.DraftReports)
	_, _ = fmt.Fprintf(w, "Unique customers:\t%d\n", a.UniqueCustomers)
	_, _ = fmt.Fprintf(w, "Conversion rate:\t%.2f%%\n", a.ConversionRate)
	_, _ = fmt.Fprintf(w, "Feedback:\t%d\n", a.TotalFeedback)
	if a.TotalFeedback > 0 {
		_, _ = fmt.Fprintf(w, "  Avg rating:\t%.2f\n", a.AvgRating)
		_, _ = fmt.Fprintf(w, "  Would recommend:\t%.2f%%\n", a.RecommendationRate)
	}
	_ = w.Flush()

	if len(a.TopVehicles) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "\nTop vehicles:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MODEL\tYEAR\tTOTAL\tPAID\tFREE")
	for _, v := range a.TopVehicles {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", v.Model, v.Year, v.Total, v.PaidCount, v.FreeCount)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
