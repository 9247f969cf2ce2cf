package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/refdata"
	"github.com/sells-group/ev-risk/internal/scoring"
	"github.com/sells-group/ev-risk/internal/validate"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single used EV",
	Long: `Score one vehicle against the reference tables and print its Buy Confidence.

Examples:
  # Three-year-old Model 3 in Seattle with home charging
  score --model "Tesla Model 3" --year 2022 --mileage 36000 --zip 98101 --daily-miles 30 --home-charging

  # Same car for a cautious buyer, as YAML, pinned to 2025
  score --model "Tesla Model 3" --year 2022 --mileage 36000 --zip 98101 --tolerance conservative --as-of 2025 --format yaml`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("model", "", "vehicle model, e.g. \"Nissan Leaf\"")
	f.Int("year", 0, "model year")
	f.Int("mileage", 0, "current odometer reading")
	f.String("zip", "", "5-digit US ZIP code where the car will be driven")
	f.Int("daily-miles", 30, "typical miles driven per day")
	f.Bool("home-charging", false, "buyer can charge at home")
	f.String("tolerance", string(model.ToleranceModerate), "risk tolerance: conservative, moderate or aggressive")
	f.Int("as-of", 0, "evaluation year (default from config, else current year)")
	f.String("format", "table", "output format: table, json or yaml")

	rootCmd.AddCommand(scoreCmd)
}

// scoreResult is the printable outcome of one score run.
type scoreResult struct {
	Input      model.ScoringInput  `json:"input" yaml:"input"`
	Confidence model.BuyConfidence `json:"confidence" yaml:"confidence"`
	Breakdown  []string            `json:"breakdown" yaml:"breakdown"`
	AsOfYear   int                 `json:"as_of_year" yaml:"as_of_year"`
	Refdata    string              `json:"refdata_version" yaml:"refdata_version"`
}

func runScore(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate("score"); err != nil {
		return err
	}

	f := cmd.Flags()
	format, _ := f.GetString("format")
	if format != "table" && format != "json" && format != "yaml" {
		return eris.Errorf("score: unsupported format %q", format)
	}

	var in model.ScoringInput
	in.Model, _ = f.GetString("model")
	in.Year, _ = f.GetInt("year")
	in.CurrentMileage, _ = f.GetInt("mileage")
	in.ZipCode, _ = f.GetString("zip")
	in.DailyMiles, _ = f.GetInt("daily-miles")
	in.HomeCharging, _ = f.GetBool("home-charging")
	tol, _ := f.GetString("tolerance")
	in.RiskTolerance = model.RiskTolerance(strings.ToLower(strings.TrimSpace(tol)))

	asOf, _ := f.GetInt("as-of")
	asOf = resolveAsOf(asOf)

	valid, err := validate.Validate(validate.FromInput(in), asOf)
	if err != nil {
		return eris.Wrap(err, "score: invalid input")
	}

	snap, err := refdata.NewProvider(cfg.Refdata.Dir).Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	c := scoring.NewEngine(snap).Score(valid, asOf)
	zap.L().Debug("scored vehicle",
		zap.String("model", valid.Model),
		zap.Int("score", c.OverallScore),
		zap.String("rating", string(c.Rating)),
	)

	res := scoreResult{
		Input:      valid,
		Confidence: c,
		Breakdown:  scoring.Breakdown(c),
		AsOfYear:   asOf,
		Refdata:    snap.Version(),
	}
	return writeScoreResult(cmd.OutOrStdout(), res, format)
}

// resolveAsOf picks the flag value, then the configured year, then the clock.
func resolveAsOf(flag int) int {
	if flag > 0 {
		return flag
	}
	if cfg != nil && cfg.Scoring.AsOfYear > 0 {
		return cfg.Scoring.AsOfYear
	}
	return time.Now().Year()
}

func writeScoreResult(out io.Writer, res scoreResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res), "score: encode json")
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "score: encode yaml")
		}
		return eris.Wrap(enc.Close(), "score: encode yaml")
	default:
		formatScoreTable(out, res)
		return nil
	}
}

func formatScoreTable(out io.Writer, res scoreResult) {
	c := res.Confidence
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Vehicle:\t%d %s\n", res.Input.Year, res.Input.Model)
	_, _ = fmt.Fprintf(w, "ZIP:\t%s\n", res.Input.ZipCode)
	_, _ = fmt.Fprintf(w, "Buy Confidence:\t%d/100 %s %s\n", c.OverallScore, c.Emoji, c.Rating)
	_, _ = fmt.Fprintf(w, "Battery:\t%d/100\n", c.BatteryRisk.Score)
	_, _ = fmt.Fprintf(w, "Platform:\t%d/100\n", c.PlatformRisk.Score)
	_, _ = fmt.Fprintf(w, "Ownership:\t%d/100\n", c.OwnershipFit.Score)
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%s\n\n", c.Recommendation)
	for _, line := range res.Breakdown {
		_, _ = fmt.Fprintln(out, line)
	}
}
