package model

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskToleranceValid(t *testing.T) {
	t.Parallel()

	assert.True(t, ToleranceConservative.Valid())
	assert.True(t, ToleranceModerate.Valid())
	assert.True(t, ToleranceAggressive.Valid())
	assert.False(t, RiskTolerance("reckless").Valid())
	assert.False(t, RiskTolerance("").Valid())
}

func TestRatingEmoji(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rating Rating
		want   string
	}{
		{RatingGreen, "🟢"},
		{RatingYellow, "🟡"},
		{RatingRed, "🔴"},
		{Rating("BLUE"), ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.rating), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.rating.Emoji())
		})
	}
}

func TestWeightsSumToOne(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1.0, BatteryWeight+PlatformWeight+OwnershipWeight)
}

func TestReportStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, ReportStatusDraft.Valid())
	assert.False(t, ReportStatus("void").Valid())

	assert.False(t, ReportStatusDraft.Unlocked())
	assert.True(t, ReportStatusPaid.Unlocked())
	assert.True(t, ReportStatusFree.Unlocked())
}

func TestScoringInputJSONFieldNames(t *testing.T) {
	t.Parallel()

	var in ScoringInput
	err := json.Unmarshal([]byte(`{"model":"Nissan Leaf","year":2018,"currentMileage":80000,
		"zipCode":"85004","dailyMiles":40,"homeCharging":false,"riskTolerance":"moderate"}`), &in)
	require.NoError(t, err)
	assert.Equal(t, ScoringInput{
		Model: "Nissan Leaf", Year: 2018, CurrentMileage: 80000, ZipCode: "85004",
		DailyMiles: 40, RiskTolerance: ToleranceModerate,
	}, in)
}

func testMoney(n int) string { return fmt.Sprintf("$%d", n) }

func TestSummarize(t *testing.T) {
	t.Parallel()

	r := &Report{
		ID:           "0b7c2f0e-1111-2222-3333-444455556666",
		Status:       ReportStatusPaid,
		VehicleYear:  2018,
		VehicleModel: "Nissan  Leaf SV",
		Payload: ReportPayload{Confidence: &BuyConfidence{
			OverallScore:   29,
			Rating:         RatingRed,
			Recommendation: "High Risk",
			BatteryRisk:    BatteryRisk{Score: 0, DegradationPercent: 40, EstimatedReplacementCost: 9500, Details: "battery"},
			PlatformRisk:   PlatformRisk{Score: 46, TotalRecalls: 1, Details: "platform"},
			OwnershipFit:   OwnershipFit{Score: 50, ClimateImpact: ClimateChallenging, ChargerDensity: "Good", AnnualMilesFit: RangeFitGood},
		}},
	}

	s := Summarize(r, testMoney)
	assert.Equal(t, "red", s.Level)
	assert.Equal(t, 29, s.Score)
	assert.Equal(t, "High Risk", s.SummaryVerdict)
	assert.Equal(t, "EV-Risk-2018-Nissan-Leaf-SV-0b7c2f0e.pdf", s.Filename)
	assert.Equal(t, []string{
		"battery",
		"Estimated degradation: 40.0%",
		"Replacement cost estimate: $9500",
		"Battery health score: 0/100",
	}, s.Battery)
	assert.Equal(t, "Total recalls: 1", s.Platform[1])
	assert.Equal(t, "Ownership fit data unavailable", s.Ownership[0])
	assert.Equal(t, "Range adequacy: Good", s.Ownership[3])
}

func TestSummarize_NoConfidence(t *testing.T) {
	t.Parallel()

	s := Summarize(&Report{ID: "abc"}, testMoney)
	assert.Equal(t, "EV-Risk-Unknown-Unknown-abc.pdf", s.Filename)
	assert.Equal(t, "Unable to generate recommendation", s.SummaryVerdict)
	assert.Equal(t, []string{"Battery risk data unavailable"}, s.Battery)
	assert.Equal(t, 0, s.Score)
}
