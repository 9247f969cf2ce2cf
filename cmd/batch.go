package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ev-risk/internal/batch"
	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/refdata"
	"github.com/sells-group/ev-risk/internal/scoring"
	"github.com/sells-group/ev-risk/internal/store"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score a CSV of vehicles",
	Long: `Score every row of a CSV file and write the results as CSV or XLSX.

The input header names the columns model, year, current_mileage, zip_code,
daily_miles, home_charging and risk_tolerance. Rows that fail validation are
kept in the output with their error message.

Examples:
  batch --input lot.csv --output lot-scored.xlsx
  batch --input lot.csv --output lot-scored.csv --concurrency 4 --as-of 2025 --save`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.String("input", "", "input CSV path (required)")
	f.String("output", "", "output path ending in .csv or .xlsx (required)")
	f.Int("concurrency", 0, "parallel scorers (default from config)")
	f.Int("as-of", 0, "evaluation year (default from config, else current year)")
	f.Bool("save", false, "store each scored row as a free report")
	_ = batchCmd.MarkFlagRequired("input")
	_ = batchCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f := cmd.Flags()
	if c, _ := f.GetInt("concurrency"); c > 0 {
		cfg.Batch.Concurrency = c
	}
	if err := cfg.Validate("batch"); err != nil {
		return err
	}

	inPath, _ := f.GetString("input")
	outPath, _ := f.GetString("output")
	save, _ := f.GetBool("save")
	asOf, _ := f.GetInt("as-of")
	asOf = resolveAsOf(asOf)

	in, err := os.Open(inPath)
	if err != nil {
		return eris.Wrap(err, "batch: open input")
	}
	rows, err := batch.Read(in)
	_ = in.Close()
	if err != nil {
		return err
	}

	snap, err := refdata.NewProvider(cfg.Refdata.Dir).Snapshot(ctx)
	if err != nil {
		return err
	}

	items, err := batch.Run(ctx, scoring.NewEngine(snap), rows, batch.Options{
		Concurrency: cfg.Batch.Concurrency,
		AsOfYear:    asOf,
	})
	if err != nil {
		return err
	}

	if err := batch.WriteFile(outPath, items); err != nil {
		return err
	}

	if save {
		if err := cfg.Validate("migrate"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := saveBatchReports(ctx, st, items, time.Now())
		if err != nil {
			return err
		}
		zap.L().Info("batch reports saved", zap.Int64("reports", n))
	}

	var failed int
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Scored %d of %d rows (%d invalid) -> %s\n",
		len(items)-failed, len(items), failed, outPath)
	return nil
}

// saveBatchReports stores every scored item as a free report in one bulk write.
func saveBatchReports(ctx context.Context, st store.Store, items []batch.Item, now time.Time) (int64, error) {
	ts := now.UTC().Format(time.RFC3339)
	reports := make([]model.Report, 0, len(items))
	for _, it := range items {
		if it.Confidence == nil {
			continue
		}
		input := it.Input
		payload := model.ReportPayload{
			Success:    true,
			Input:      &input,
			Confidence: it.Confidence,
			Breakdown:  scoring.Breakdown(*it.Confidence),
			Timestamp:  ts,
		}
		r, err := store.NewReport(model.ReportStatusFree, payload, now)
		if err != nil {
			return 0, err
		}
		reports = append(reports, r)
	}
	if len(reports) == 0 {
		return 0, nil
	}
	return st.SaveReports(ctx, reports)
}
