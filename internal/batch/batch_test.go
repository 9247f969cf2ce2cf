package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/refdata/refdatatest"
	"github.com/sells-group/ev-risk/internal/scoring"
	"github.com/sells-group/ev-risk/internal/validate"
)

const asOf = 2025

const inputCSV = `model,year,current_mileage,zip_code,daily_miles,home_charging,risk_tolerance
Tesla Model 3,2022,36000,98101,30,true,moderate
Nissan Leaf,2018,80000,85004,40,false,moderate
Kia EV6,1999,1000,10001,20,yes,moderate
Tesla Model 3,2022,36000,98101,30,TRUE,Conservative
`

func TestRead(t *testing.T) {
	t.Parallel()
	rows, err := Read(strings.NewReader(inputCSV))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Row{
		Model: "Tesla Model 3", Year: "2022", CurrentMileage: "36000", ZipCode: "98101",
		DailyMiles: "30", HomeCharging: "true", RiskTolerance: "moderate",
	}, rows[0])
}

func TestRead_MissingColumnLeavesBlank(t *testing.T) {
	t.Parallel()
	rows, err := Read(strings.NewReader("model,year,extra\nLeaf,2019,x\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Leaf", rows[0].Model)
	assert.Empty(t, rows[0].ZipCode)
}

func TestRead_Empty(t *testing.T) {
	t.Parallel()
	_, err := Read(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestRow_Request(t *testing.T) {
	t.Parallel()
	req := Row{
		Model: "Kia EV6", Year: " 2023 ", CurrentMileage: "abc", ZipCode: "10001",
		DailyMiles: "", HomeCharging: "No", RiskTolerance: " Aggressive ",
	}.Request()

	require.NotNil(t, req.Model)
	require.NotNil(t, req.Year)
	assert.Equal(t, 2023.0, *req.Year)
	assert.Nil(t, req.CurrentMileage)
	assert.Nil(t, req.DailyMiles)
	require.NotNil(t, req.HomeCharging)
	assert.False(t, *req.HomeCharging)
	require.NotNil(t, req.RiskTolerance)
	assert.Equal(t, "aggressive", *req.RiskTolerance)

	assert.Nil(t, Row{HomeCharging: "maybe"}.Request().HomeCharging)
	assert.Nil(t, Row{}.Request().Model)
}

func TestRun_ScoresInOrder(t *testing.T) {
	t.Parallel()
	rows, err := Read(strings.NewReader(inputCSV))
	require.NoError(t, err)

	engine := scoring.NewEngine(refdatatest.Snapshot())
	items, err := Run(context.Background(), engine, rows, Options{Concurrency: 2, AsOfYear: asOf})
	require.NoError(t, err)
	require.Len(t, items, 4)

	for i, it := range items {
		assert.Equal(t, i+2, it.Line)
	}

	require.NotNil(t, items[0].Confidence)
	assert.Equal(t, 86, items[0].Confidence.OverallScore)
	assert.Equal(t, model.RatingGreen, items[0].Confidence.Rating)

	require.NotNil(t, items[1].Confidence)
	assert.Equal(t, 29, items[1].Confidence.OverallScore)
	assert.Equal(t, model.RatingRed, items[1].Confidence.Rating)

	assert.Nil(t, items[2].Confidence)
	var verr *validate.Error
	require.ErrorAs(t, items[2].Err, &verr)
	assert.Equal(t, "year", verr.Field)

	require.NoError(t, items[3].Err)
	assert.Equal(t, model.ToleranceConservative, items[3].Input.RiskTolerance)
}

type countingScorer struct {
	calls atomic.Int64
}

func (c *countingScorer) Score(in model.ScoringInput, _ int) model.BuyConfidence {
	c.calls.Add(1)
	return model.BuyConfidence{OverallScore: in.DailyMiles, Rating: model.RatingYellow}
}

func TestRun_LargeBatchPreservesOrder(t *testing.T) {
	t.Parallel()
	var rows []Row
	for i := 0; i < 200; i++ {
		rows = append(rows, Row{
			Model: "Kia EV6", Year: "2023", CurrentMileage: "0", ZipCode: "10001",
			DailyMiles: strconv.Itoa(i), HomeCharging: "true", RiskTolerance: "moderate",
		})
	}

	sc := &countingScorer{}
	items, err := Run(context.Background(), sc, rows, Options{AsOfYear: asOf})
	require.NoError(t, err)
	assert.Equal(t, int64(200), sc.calls.Load())
	for i, it := range items {
		require.NotNil(t, it.Confidence)
		assert.Equal(t, i, it.Confidence.OverallScore)
	}
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []Row{{Model: "x"}, {Model: "y"}}
	_, err := Run(ctx, &countingScorer{}, rows, Options{Concurrency: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func scoredItems(t *testing.T) []Item {
	t.Helper()
	rows, err := Read(strings.NewReader(inputCSV))
	require.NoError(t, err)
	items, err := Run(context.Background(), scoring.NewEngine(refdatatest.Snapshot()), rows, Options{AsOfYear: asOf})
	require.NoError(t, err)
	return items
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, scoredItems(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)

	header := records[0]
	assert.Equal(t, "line", header[0])
	assert.Equal(t, "error", header[len(header)-1])

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}
	assert.Equal(t, "86", records[1][col("overall_score")])
	assert.Equal(t, "GREEN", records[1][col("rating")])
	assert.Equal(t, "RED", records[2][col("rating")])
	assert.Equal(t, validate.MsgYear, records[3][col("error")])
	assert.Equal(t, "1999", records[3][col("year")])
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, scoredItems(t)))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 5)
	assert.Equal(t, "line", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Tesla Model 3", sheet.Rows[1].Cells[1].String())
}

func TestWriteFile(t *testing.T) {
	t.Parallel()
	items := scoredItems(t)
	dir := t.TempDir()

	require.NoError(t, WriteFile(filepath.Join(dir, "out.csv"), items))
	require.NoError(t, WriteFile(filepath.Join(dir, "out.XLSX"), items))

	err := WriteFile(filepath.Join(dir, "out.json"), items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output extension")
}
