// Package batch scores a file of vehicle scenarios in parallel and exports
// the results as CSV or XLSX.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/validate"
)

// DefaultConcurrency is used when Options.Concurrency is not positive.
const DefaultConcurrency = 8

// Row is one input line. Cells stay raw text so a bad cell fails only its
// own row.
type Row struct {
	Model          string `csv:"model"`
	Year           string `csv:"year"`
	CurrentMileage string `csv:"current_mileage"`
	ZipCode        string `csv:"zip_code"`
	DailyMiles     string `csv:"daily_miles"`
	HomeCharging   string `csv:"home_charging"`
	RiskTolerance  string `csv:"risk_tolerance"`
}

// Request converts the raw cells into a validation request. Blank or
// unparseable cells become missing fields.
func (r Row) Request() validate.Request {
	return validate.Request{
		Model:          text(r.Model),
		Year:           number(r.Year),
		CurrentMileage: number(r.CurrentMileage),
		ZipCode:        text(r.ZipCode),
		DailyMiles:     number(r.DailyMiles),
		HomeCharging:   boolean(r.HomeCharging),
		RiskTolerance:  text(strings.ToLower(strings.TrimSpace(r.RiskTolerance))),
	}
}

func text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func number(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func boolean(s string) *bool {
	var b bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		b = true
	case "false", "no", "n", "0":
		b = false
	default:
		return nil
	}
	return &b
}

// Read decodes a headered CSV of rows. Unknown columns are ignored; missing
// columns leave their field blank.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, eris.New("batch: input has no header row")
		}
		return nil, eris.Wrap(err, "batch: read header")
	}

	var rows []Row
	if err := dec.Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
		return nil, eris.Wrap(err, "batch: decode rows")
	}
	return rows, nil
}

// Scorer is the engine call the batch runs for each valid row.
type Scorer interface {
	Score(in model.ScoringInput, asOfYear int) model.BuyConfidence
}

// Options controls a batch run.
type Options struct {
	Concurrency int
	AsOfYear    int
}

// Item is the outcome of one row. Confidence is nil when Err is set.
type Item struct {
	Line       int
	Row        Row
	Input      model.ScoringInput
	Confidence *model.BuyConfidence
	Err        error
}

// Run validates and scores rows in parallel. Items come back in input order;
// invalid rows carry their validation error instead of failing the batch.
func Run(ctx context.Context, scorer Scorer, rows []Row, opts Options) ([]Item, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	log := zap.L().With(zap.String("component", "batch"))
	log.Info("scoring batch",
		zap.Int("rows", len(rows)),
		zap.Int("concurrency", concurrency),
		zap.Int("as_of_year", opts.AsOfYear),
	)

	items := make([]Item, len(rows))
	var scored, invalid atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Header is line 1.
			it := Item{Line: i + 2, Row: row}

			in, err := validate.Validate(row.Request(), opts.AsOfYear)
			if err != nil {
				it.Err = err
				invalid.Add(1)
				log.Debug("batch: invalid row", zap.Int("line", it.Line), zap.Error(err))
			} else {
				c := scorer.Score(in, opts.AsOfYear)
				it.Input = in
				it.Confidence = &c
				scored.Add(1)
			}
			items[i] = it
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch: run")
	}

	log.Info("batch complete",
		zap.Int64("scored", scored.Load()),
		zap.Int64("invalid", invalid.Load()),
	)
	return items, nil
}
