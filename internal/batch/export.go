package batch

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Record is the flat export row for one Item. Field order is column order.
type Record struct {
	Line               int     `csv:"line"`
	Model              string  `csv:"model"`
	Year               string  `csv:"year"`
	CurrentMileage     string  `csv:"current_mileage"`
	ZipCode            string  `csv:"zip_code"`
	DailyMiles         string  `csv:"daily_miles"`
	HomeCharging       string  `csv:"home_charging"`
	RiskTolerance      string  `csv:"risk_tolerance"`
	OverallScore       int     `csv:"overall_score"`
	Rating             string  `csv:"rating"`
	BatteryScore       int     `csv:"battery_score"`
	Chemistry          string  `csv:"chemistry"`
	DegradationPercent float64 `csv:"degradation_percent"`
	ReplacementCost    int     `csv:"replacement_cost"`
	PlatformScore      int     `csv:"platform_score"`
	CriticalRecalls    int     `csv:"critical_recalls"`
	TotalRecalls       int     `csv:"total_recalls"`
	OwnershipScore     int     `csv:"ownership_score"`
	ClimateImpact      string  `csv:"climate_impact"`
	RangeFit           string  `csv:"range_fit"`
	Recommendation     string  `csv:"recommendation"`
	Error              string  `csv:"error"`
}

// Record flattens the item for export. Input cells are echoed as given.
func (it Item) Record() Record {
	r := Record{
		Line:           it.Line,
		Model:          it.Row.Model,
		Year:           it.Row.Year,
		CurrentMileage: it.Row.CurrentMileage,
		ZipCode:        it.Row.ZipCode,
		DailyMiles:     it.Row.DailyMiles,
		HomeCharging:   it.Row.HomeCharging,
		RiskTolerance:  it.Row.RiskTolerance,
	}
	if it.Err != nil {
		r.Error = it.Err.Error()
		return r
	}
	if c := it.Confidence; c != nil {
		r.OverallScore = c.OverallScore
		r.Rating = string(c.Rating)
		r.BatteryScore = c.BatteryRisk.Score
		r.Chemistry = c.BatteryRisk.Chemistry
		r.DegradationPercent = c.BatteryRisk.DegradationPercent
		r.ReplacementCost = c.BatteryRisk.EstimatedReplacementCost
		r.PlatformScore = c.PlatformRisk.Score
		r.CriticalRecalls = c.PlatformRisk.CriticalRecalls
		r.TotalRecalls = c.PlatformRisk.TotalRecalls
		r.OwnershipScore = c.OwnershipFit.Score
		r.ClimateImpact = string(c.OwnershipFit.ClimateImpact)
		r.RangeFit = string(c.OwnershipFit.AnnualMilesFit)
		r.Recommendation = c.Recommendation
	}
	return r
}

func records(items []Item) []Record {
	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = it.Record()
	}
	return out
}

// WriteCSV writes items with a header row.
func WriteCSV(w io.Writer, items []Item) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(Record{}); err != nil {
		return eris.Wrap(err, "batch: encode csv header")
	}
	for _, r := range records(items) {
		if err := enc.Encode(r); err != nil {
			return eris.Wrapf(err, "batch: encode csv line %d", r.Line)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "batch: flush csv")
}

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Buy Confidence"

// WriteXLSX writes items to a single worksheet with a header row.
func WriteXLSX(w io.Writer, items []Item) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "batch: add sheet")
	}

	header, err := csvutil.Header(Record{}, "csv")
	if err != nil {
		return eris.Wrap(err, "batch: xlsx header")
	}
	sheet.AddRow().WriteSlice(&header, -1)

	for _, r := range records(items) {
		if n := sheet.AddRow().WriteStruct(&r, -1); n < 0 {
			return eris.Errorf("batch: write xlsx line %d", r.Line)
		}
	}

	return eris.Wrap(f.Write(w), "batch: write xlsx")
}

// WriteFile picks the format from the path extension (.csv or .xlsx).
func WriteFile(path string, items []Item) (err error) {
	var write func(io.Writer, []Item) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = WriteCSV
	case ".xlsx":
		write = WriteXLSX
	default:
		return eris.Errorf("batch: unsupported output extension %q (want .csv or .xlsx)", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "batch: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "batch: close %s", path)
		}
	}()
	return write(f, items)
}
