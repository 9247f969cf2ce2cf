package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ReportStatus represents the lifecycle state of a stored report.
type ReportStatus string

const (
	ReportStatusDraft ReportStatus = "draft"
	ReportStatusPaid  ReportStatus = "paid"
	ReportStatusFree  ReportStatus = "free"
)

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusDraft, ReportStatusPaid, ReportStatusFree:
		return true
	}
	return false
}

// Unlocked reports whether the report's full content may be delivered.
func (s ReportStatus) Unlocked() bool {
	return s == ReportStatusPaid || s == ReportStatusFree
}

// ReportPayload is the scored result persisted with a report.
type ReportPayload struct {
	Success    bool           `json:"success,omitempty"`
	Input      *ScoringInput  `json:"input"`
	Confidence *BuyConfidence `json:"confidence"`
	Breakdown  []string       `json:"breakdown,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
}

// Report is a stored scoring result.
type Report struct {
	ID              string        `json:"id"`
	Status          ReportStatus  `json:"status"`
	Payload         ReportPayload `json:"payload"`
	VehicleYear     int           `json:"vehicle_year,omitempty"`
	VehicleModel    string        `json:"vehicle_model"`
	IsFree          bool          `json:"is_free"`
	StripeSessionID string        `json:"stripe_session_id,omitempty"`
	CustomerEmail   string        `json:"customer_email,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
}

// ReportFilter narrows ListReports.
type ReportFilter struct {
	Status ReportStatus
	Limit  int
	Offset int
}

// Feedback is a buyer's reaction to a report. Unset optional fields are nil.
type Feedback struct {
	ID             int64     `json:"id"`
	ReportID       string    `json:"reportId"`
	Rating         *int      `json:"rating,omitempty"`
	FeedbackText   *string   `json:"feedbackText,omitempty"`
	WouldRecommend *bool     `json:"wouldRecommend,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// VehicleCount is one row of the top-vehicles analytics table.
type VehicleCount struct {
	Model     string `json:"model"`
	Year      int    `json:"year"`
	Total     int    `json:"total_count"`
	PaidCount int    `json:"paid_count"`
	FreeCount int    `json:"free_count"`
}

// RatingCount is one bucket of the feedback rating distribution.
type RatingCount struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// Analytics summarizes report and feedback activity since a point in time.
type Analytics struct {
	Since           time.Time `json:"since"`
	TotalReports    int       `json:"total_reports"`
	FreeReports     int       `json:"free_reports"`
	PaidReports     int       `json:"paid_reports"`
	DraftReports    int       `json:"draft_reports"`
	UniqueCustomers int       `json:"unique_customers"`
	// ConversionRate is paid/total as a percentage with two decimals.
	ConversionRate float64 `json:"conversion_rate"`

	TopVehicles []VehicleCount `json:"top_vehicles"`

	TotalFeedback      int           `json:"total_feedback"`
	AvgRating          float64       `json:"avg_rating"`
	WouldRecommend     int           `json:"would_recommend"`
	WouldNotRecommend  int           `json:"would_not_recommend"`
	RecommendationRate float64       `json:"recommendation_rate"`
	RatingDistribution []RatingCount `json:"rating_distribution"`
}

// ReportSummary is the condensed projection used for PDF export.
type ReportSummary struct {
	ReportID       string   `json:"reportId"`
	Level          string   `json:"level"`
	Score          int      `json:"score"`
	VehicleYear    int      `json:"vehicleYear,omitempty"`
	VehicleModel   string   `json:"vehicleModel"`
	SummaryVerdict string   `json:"summaryVerdict"`
	Battery        []string `json:"batteryRiskExplanation"`
	Platform       []string `json:"platformRecallRisk"`
	Ownership      []string `json:"ownershipFit"`
	Filename       string   `json:"filename"`
}

var whitespace = regexp.MustCompile(`\s+`)

// Summarize projects a stored report into its PDF summary. money formats
// whole dollar amounts (e.g. 12000 as "$12,000").
func Summarize(r *Report, money func(int) string) ReportSummary {
	s := ReportSummary{
		ReportID:       r.ID,
		VehicleYear:    r.VehicleYear,
		VehicleModel:   r.VehicleModel,
		SummaryVerdict: "Unable to generate recommendation",
		Battery:        []string{"Battery risk data unavailable"},
		Platform:       []string{"Platform risk data unavailable"},
		Ownership:      []string{"Ownership fit data unavailable"},
	}

	year := "Unknown"
	if r.VehicleYear != 0 {
		year = fmt.Sprint(r.VehicleYear)
	}
	vehicle := r.VehicleModel
	if vehicle == "" {
		vehicle = "Unknown"
	}
	shortID := r.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	s.Filename = fmt.Sprintf("EV-Risk-%s-%s-%s.pdf", year, whitespace.ReplaceAllString(vehicle, "-"), shortID)

	c := r.Payload.Confidence
	if c == nil {
		s.Level = strings.ToLower(string(RatingRed))
		return s
	}

	s.Score = c.OverallScore
	s.Level = strings.ToLower(string(c.Rating))
	if c.Recommendation != "" {
		s.SummaryVerdict = c.Recommendation
	}
	s.Battery = []string{
		orDefault(c.BatteryRisk.Details, s.Battery[0]),
		fmt.Sprintf("Estimated degradation: %.1f%%", c.BatteryRisk.DegradationPercent),
		"Replacement cost estimate: " + money(c.BatteryRisk.EstimatedReplacementCost),
		fmt.Sprintf("Battery health score: %d/100", c.BatteryRisk.Score),
	}
	s.Platform = []string{
		orDefault(c.PlatformRisk.Details, s.Platform[0]),
		fmt.Sprintf("Total recalls: %d", c.PlatformRisk.TotalRecalls),
		fmt.Sprintf("Critical recalls: %d", c.PlatformRisk.CriticalRecalls),
		fmt.Sprintf("Platform reliability score: %d/100", c.PlatformRisk.Score),
	}
	s.Ownership = []string{
		orDefault(c.OwnershipFit.Details, s.Ownership[0]),
		"Climate impact: " + orDefault(string(c.OwnershipFit.ClimateImpact), "Unknown"),
		"Charger density: " + orDefault(c.OwnershipFit.ChargerDensity, "Unknown"),
		"Range adequacy: " + orDefault(string(c.OwnershipFit.AnnualMilesFit), "Unknown"),
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
