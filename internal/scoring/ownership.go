package scoring

import (
	"fmt"
	"strings"

	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/refdata"
)

const defaultRealWorldRange = 250

// Charger penalties keyed by density, with and without a home charger.
// Densities missing from a map carry no penalty.
var (
	publicOnlyPenalty = map[refdata.DensityScore]float64{
		refdata.DensityPoor:      50,
		refdata.DensityModerate:  35,
		refdata.DensityGood:      25,
		refdata.DensityExcellent: 20,
		refdata.DensityUnknown:   30,
	}
	homeChargingPenalty = map[refdata.DensityScore]float64{
		refdata.DensityPoor:     10,
		refdata.DensityModerate: 5,
		refdata.DensityUnknown:  3,
	}
)

// OwnershipInput carries the location and vehicle rows for ownership fit.
type OwnershipInput struct {
	Climate *refdata.ClimateZoneRecord
	Charger *refdata.ChargerDensityRecord
	Range   *refdata.RangeDeltaRecord
}

// Ownership scores how well the vehicle suits the buyer's climate, charging
// access and driving pattern.
func Ownership(in model.ScoringInput, oi OwnershipInput) model.OwnershipFit {
	score := 100.0

	impact := model.ClimateFavorable
	if oi.Climate != nil {
		switch {
		case oi.Climate.Zone.IsExtreme():
			impact = model.ClimateChallenging
			score -= 25
		case oi.Climate.Zone.IsHarsh():
			impact = model.ClimateModerate
			score -= 15
		}
	}

	density := refdata.DensityModerate
	if oi.Charger != nil && oi.Charger.DensityScore != "" {
		density = oi.Charger.DensityScore
	}
	if in.HomeCharging {
		score -= homeChargingPenalty[density]
	} else {
		score -= publicOnlyPenalty[density]
	}

	realWorld := defaultRealWorldRange
	if oi.Range != nil && oi.Range.RealWorldRangeMi > 0 {
		realWorld = oi.Range.RealWorldRangeMi
	}
	fit := model.RangeFitGood
	switch ratio := float64(in.DailyMiles) / float64(realWorld); {
	case ratio > 0.7:
		fit = model.RangeFitPoor
		score -= 30
	case ratio > 0.5:
		fit = model.RangeFitModerate
		score -= 15
	}

	switch annual := in.DailyMiles * 365; {
	case annual > 20000:
		score -= 10
	case annual > 15000:
		score -= 5
	}

	homeNote := ""
	if !in.HomeCharging {
		homeNote = " (no home charging)"
	}
	details := fmt.Sprintf("%s climate, %s charging infrastructure%s, %s daily range fit (%d mi/day vs %d mi range)",
		impact, density, homeNote, strings.ToLower(string(fit)), in.DailyMiles, realWorld)

	return model.OwnershipFit{
		Score:          roundHalfUp(clamp(score, 0, 100)),
		Weight:         model.OwnershipWeight,
		ClimateImpact:  impact,
		ChargerDensity: string(density),
		AnnualMilesFit: fit,
		Details:        details,
	}
}
