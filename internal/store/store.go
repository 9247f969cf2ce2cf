// Package store persists scored reports and buyer feedback.
package store

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ev-risk/internal/model"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("store: not found")

// Store defines report and feedback persistence.
type Store interface {
	// Reports
	CreateReport(ctx context.Context, status model.ReportStatus, payload model.ReportPayload) (*model.Report, error)
	SaveReports(ctx context.Context, reports []model.Report) (int64, error)
	GetReport(ctx context.Context, id string) (*model.Report, error)
	ListReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error)
	MarkPaid(ctx context.Context, id, sessionID, email string) error

	// Feedback
	AddFeedback(ctx context.Context, fb model.Feedback) (*model.Feedback, error)

	// Analytics summarizes activity created at or after since.
	Analytics(ctx context.Context, since time.Time) (*model.Analytics, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

const (
	defaultListLimit = 100
	topVehicleLimit  = 20
	unknownVehicle   = "Unknown"
)

// NewReport builds an unsaved report with a fresh id. Vehicle year and model
// are lifted out of the payload input for querying.
func NewReport(status model.ReportStatus, payload model.ReportPayload, now time.Time) (model.Report, error) {
	if status != model.ReportStatusDraft && status != model.ReportStatusFree {
		return model.Report{}, eris.Errorf("store: cannot create report with status %q", status)
	}
	if payload.Input == nil || payload.Confidence == nil {
		return model.Report{}, eris.New("store: report payload requires input and confidence")
	}

	r := model.Report{
		ID:           uuid.New().String(),
		Status:       status,
		Payload:      payload,
		VehicleYear:  payload.Input.Year,
		VehicleModel: strings.TrimSpace(payload.Input.Model),
		IsFree:       status == model.ReportStatusFree,
		CreatedAt:    now.UTC(),
	}
	if r.VehicleModel == "" {
		r.VehicleModel = unknownVehicle
	}
	return r, nil
}

func validateFeedback(fb model.Feedback) error {
	if fb.ReportID == "" {
		return eris.New("store: feedback requires a report id")
	}
	if fb.Rating != nil && (*fb.Rating < 1 || *fb.Rating > 5) {
		return eris.Errorf("store: feedback rating %d outside 1-5", *fb.Rating)
	}
	return nil
}

func listLimit(f model.ReportFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// percent returns part/whole*100 rounded to two decimals, or 0 for an empty whole.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
