package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/refdata"
)

func zone(z refdata.ClimateZone) *refdata.ClimateZoneRecord {
	return &refdata.ClimateZoneRecord{Zone: z}
}

func charger(d refdata.DensityScore) *refdata.ChargerDensityRecord {
	return &refdata.ChargerDensityRecord{DensityScore: d}
}

func TestOwnership_Details(t *testing.T) {
	t.Parallel()

	got := Ownership(
		model.ScoringInput{DailyMiles: 30, HomeCharging: true},
		OwnershipInput{
			Climate: zone(refdata.ZoneModerate),
			Charger: charger(refdata.DensityModerate),
			Range:   &refdata.RangeDeltaRecord{RealWorldRangeMi: 312},
		},
	)
	assert.Equal(t, 95, got.Score)
	assert.Equal(t, model.ClimateFavorable, got.ClimateImpact)
	assert.Equal(t, "Moderate", got.ChargerDensity)
	assert.Equal(t, model.RangeFitGood, got.AnnualMilesFit)
	assert.Equal(t, "Favorable climate, Moderate charging infrastructure, good daily range fit (30 mi/day vs 312 mi range)", got.Details)
}

func TestOwnership_NoHomeChargingDetails(t *testing.T) {
	t.Parallel()

	got := Ownership(
		model.ScoringInput{DailyMiles: 40},
		OwnershipInput{
			Climate: zone(refdata.ZoneExtremeHot),
			Charger: charger(refdata.DensityGood),
			Range:   &refdata.RangeDeltaRecord{RealWorldRangeMi: 140},
		},
	)
	assert.Equal(t, 50, got.Score)
	assert.Equal(t, model.ClimateChallenging, got.ClimateImpact)
	assert.Equal(t, "Challenging climate, Good charging infrastructure (no home charging), good daily range fit (40 mi/day vs 140 mi range)", got.Details)
}

func TestOwnership_ChargerPenalties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		density refdata.DensityScore
		home    bool
		want    int
	}{
		{refdata.DensityPoor, false, 50},
		{refdata.DensityModerate, false, 65},
		{refdata.DensityGood, false, 75},
		{refdata.DensityExcellent, false, 80},
		{refdata.DensityUnknown, false, 70},
		{refdata.DensityPoor, true, 90},
		{refdata.DensityModerate, true, 95},
		{refdata.DensityGood, true, 100},
		{refdata.DensityExcellent, true, 100},
		{refdata.DensityUnknown, true, 97},
	}
	for _, tt := range tests {
		got := Ownership(model.ScoringInput{DailyMiles: 10, HomeCharging: tt.home},
			OwnershipInput{Charger: charger(tt.density)})
		assert.Equal(t, tt.want, got.Score, "%s home=%v", tt.density, tt.home)
	}
}

func TestOwnership_Defaults(t *testing.T) {
	t.Parallel()

	got := Ownership(model.ScoringInput{DailyMiles: 10, HomeCharging: true}, OwnershipInput{})
	assert.Equal(t, 95, got.Score, "unresolved charger density is treated as Moderate")
	assert.Equal(t, "Moderate", got.ChargerDensity)
	assert.Equal(t, model.ClimateFavorable, got.ClimateImpact)
	assert.Contains(t, got.Details, "vs 250 mi range")

	blank := Ownership(model.ScoringInput{DailyMiles: 10, HomeCharging: true},
		OwnershipInput{Charger: charger(""), Range: &refdata.RangeDeltaRecord{}})
	assert.Equal(t, got, blank)
}

func TestOwnership_ClimateAndUsage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		climate refdata.ClimateZone
		daily   int
		want    int
		wantFit model.RangeFit
	}{
		{"hot humid", refdata.ZoneHotHumid, 10, 80, model.RangeFitGood},
		{"extreme cold", refdata.ZoneExtremeCold, 10, 70, model.RangeFitGood},
		{"mild", refdata.ZoneMild, 10, 95, model.RangeFitGood},
		{"annual over 15k", refdata.ZoneMild, 45, 90, model.RangeFitGood},
		{"annual over 20k", refdata.ZoneMild, 60, 85, model.RangeFitGood},
		{"moderate range fit", refdata.ZoneMild, 130, 70, model.RangeFitModerate},
		{"ratio exactly half is good", refdata.ZoneMild, 125, 85, model.RangeFitGood},
		{"poor range fit", refdata.ZoneMild, 200, 55, model.RangeFitPoor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Ownership(model.ScoringInput{DailyMiles: tt.daily, HomeCharging: true},
				OwnershipInput{Climate: zone(tt.climate)})
			assert.Equal(t, tt.want, got.Score)
			assert.Equal(t, tt.wantFit, got.AnnualMilesFit)
		})
	}
}

func TestOwnership_ClampsAtZero(t *testing.T) {
	t.Parallel()

	got := Ownership(model.ScoringInput{DailyMiles: 300},
		OwnershipInput{Climate: zone(refdata.ZoneExtremeHot), Charger: charger(refdata.DensityPoor)})
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, model.RangeFitPoor, got.AnnualMilesFit)
}
