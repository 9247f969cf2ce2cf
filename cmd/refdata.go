package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/ev-risk/internal/refdata"
)

var refdataCmd = &cobra.Command{
	Use:   "refdata",
	Short: "Inspect the scoring reference tables",
}

var refdataCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the reference tables and report row counts and integrity warnings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("refdata"); err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Refdata.Dir
		}

		snap, err := refdata.Load(cmd.Context(), dir)
		if err != nil {
			return err
		}

		formatRefdataReport(cmd.OutOrStdout(), snap.Version(), snap.Counts(), refdata.Check(snap))
		return nil
	},
}

func init() {
	refdataCheckCmd.Flags().String("dir", "", "directory holding the tables (default: embedded release)")
	refdataCmd.AddCommand(refdataCheckCmd)
	rootCmd.AddCommand(refdataCmd)
}

func formatRefdataReport(out io.Writer, version string, counts map[string]int, warnings []string) {
	_, _ = fmt.Fprintf(out, "Reference data %s\n\n", version)

	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tROWS")
	_, _ = fmt.Fprintln(w, "-----\t----")
	for _, t := range tables {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", t, counts[t])
	}
	_ = w.Flush()

	if len(warnings) == 0 {
		_, _ = fmt.Fprintln(out, "\nNo integrity warnings.")
		return
	}
	_, _ = fmt.Fprintf(out, "\n%d warning(s):\n", len(warnings))
	for _, msg := range warnings {
		_, _ = fmt.Fprintf(out, "  - %s\n", msg)
	}
}
