// Package validate checks raw scoring requests before they reach the engine.
package validate

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ev-risk/internal/model"
)

// Accepted ranges.
const (
	MinYear       = 2010
	MaxMileage    = 300000
	MaxDailyMiles = 500
)

// Error messages, one per field.
const (
	MsgModel          = "Invalid or missing 'model' field"
	MsgYear           = "Invalid or missing 'year' field (must be 2010-present)"
	MsgCurrentMileage = "Invalid or missing 'currentMileage' field (must be 0-300,000)"
	MsgZipCode        = "Invalid or missing 'zipCode' field (must be 5-digit US ZIP)"
	MsgDailyMiles     = "Invalid or missing 'dailyMiles' field (must be 0-500)"
	MsgHomeCharging   = "Invalid or missing 'homeCharging' field (must be boolean)"
	MsgRiskTolerance  = "Invalid or missing 'riskTolerance' field (must be 'conservative', 'moderate', or 'aggressive')"
)

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// Error names the first invalid field of a request.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Request is the raw scoring request body. A nil field was missing or had the
// wrong JSON type.
type Request struct {
	Model          *string  `json:"model"`
	Year           *float64 `json:"year"`
	CurrentMileage *float64 `json:"currentMileage"`
	ZipCode        *string  `json:"zipCode"`
	DailyMiles     *float64 `json:"dailyMiles"`
	HomeCharging   *bool    `json:"homeCharging"`
	RiskTolerance  *string  `json:"riskTolerance"`
}

// UnmarshalJSON decodes each field independently so a value of the wrong type
// leaves that field nil instead of failing the whole body.
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "validate: decode request")
	}

	*r = Request{
		Model:          field[string](raw, "model"),
		Year:           field[float64](raw, "year"),
		CurrentMileage: field[float64](raw, "currentMileage"),
		ZipCode:        field[string](raw, "zipCode"),
		DailyMiles:     field[float64](raw, "dailyMiles"),
		HomeCharging:   field[bool](raw, "homeCharging"),
		RiskTolerance:  field[string](raw, "riskTolerance"),
	}
	return nil
}

// field decodes raw[name] as T. Missing, null and mistyped values yield nil.
func field[T any](raw map[string]json.RawMessage, name string) *T {
	v, ok := raw[name]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return nil
	}
	return &out
}

// Validate checks req against the accepted ranges, with currentYear as the
// newest allowed model year, and returns the trimmed engine input. The
// returned error is a *Error for the first bad field.
func Validate(req Request, currentYear int) (model.ScoringInput, error) {
	if req.Model == nil || strings.TrimSpace(*req.Model) == "" {
		return model.ScoringInput{}, &Error{Field: "model", Message: MsgModel}
	}

	year, ok := wholeNumber(req.Year)
	if !ok || year < MinYear || year > currentYear {
		return model.ScoringInput{}, &Error{Field: "year", Message: MsgYear}
	}

	mileage, ok := wholeNumber(req.CurrentMileage)
	if !ok || mileage < 0 || mileage > MaxMileage {
		return model.ScoringInput{}, &Error{Field: "currentMileage", Message: MsgCurrentMileage}
	}

	if req.ZipCode == nil || !zipPattern.MatchString(*req.ZipCode) {
		return model.ScoringInput{}, &Error{Field: "zipCode", Message: MsgZipCode}
	}

	daily, ok := wholeNumber(req.DailyMiles)
	if !ok || daily < 0 || daily > MaxDailyMiles {
		return model.ScoringInput{}, &Error{Field: "dailyMiles", Message: MsgDailyMiles}
	}

	if req.HomeCharging == nil {
		return model.ScoringInput{}, &Error{Field: "homeCharging", Message: MsgHomeCharging}
	}

	if req.RiskTolerance == nil || !model.RiskTolerance(*req.RiskTolerance).Valid() {
		return model.ScoringInput{}, &Error{Field: "riskTolerance", Message: MsgRiskTolerance}
	}

	return model.ScoringInput{
		Model:          strings.TrimSpace(*req.Model),
		Year:           year,
		CurrentMileage: mileage,
		ZipCode:        *req.ZipCode,
		DailyMiles:     daily,
		HomeCharging:   *req.HomeCharging,
		RiskTolerance:  model.RiskTolerance(*req.RiskTolerance),
	}, nil
}

// wholeNumber accepts only finite integral values.
func wholeNumber(v *float64) (int, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v != math.Trunc(*v) {
		return 0, false
	}
	return int(*v), true
}

// FromInput builds a Request from already-typed values, as the CLI has them.
func FromInput(in model.ScoringInput) Request {
	year := float64(in.Year)
	mileage := float64(in.CurrentMileage)
	daily := float64(in.DailyMiles)
	tol := string(in.RiskTolerance)
	return Request{
		Model:          &in.Model,
		Year:           &year,
		CurrentMileage: &mileage,
		ZipCode:        &in.ZipCode,
		DailyMiles:     &daily,
		HomeCharging:   &in.HomeCharging,
		RiskTolerance:  &tol,
	}
}
