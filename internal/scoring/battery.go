// Package scoring turns resolved reference rows into the three weighted
// sub-scores and the final Buy Confidence verdict.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/refdata"
	"github.com/sells-group/ev-risk/internal/resolve"
)

const (
	expectedMilesPerYear = 12000
	excessMileageStep    = 50000 // +5% degradation per step of excess miles
	excessMileagePenalty = 5.0
	maxDegradation       = 40.0

	// Pre-2023 Leafs have air-cooled packs with no thermal management.
	airCooledLeafRate     = 3.0
	airCooledLeafLastYear = 2022

	defaultBatteryKWh      = 75
	defaultReplacementCost = 12000
)

// Fallback sub-score used when the chemistry has no degradation profile.
const (
	unknownChemistryScore       = 50
	unknownChemistryDegradation = 20.0
	unknownChemistryCost        = 12000
	unknownChemistryDetails     = "Battery chemistry unknown - using conservative estimates"
)

// BatteryInput carries what the battery calculator needs beyond the request.
type BatteryInput struct {
	Range   *refdata.RangeDeltaRecord
	Climate *refdata.ClimateZoneRecord
	Data    *refdata.BatteryData
}

// Battery estimates pack degradation from chemistry, age, excess mileage and
// climate, and maps it to a 0-100 score.
func Battery(in model.ScoringInput, asOfYear int, bi BatteryInput) model.BatteryRisk {
	chemistry := ""
	if bi.Range != nil {
		chemistry = bi.Range.Chemistry
	}
	if chemistry == "" {
		chemistry = resolve.InferChemistry(in.Model, in.Year)
	}

	profile, ok := bi.Data.Chemistry(chemistry)
	if !ok {
		return model.BatteryRisk{
			Score:                    unknownChemistryScore,
			Weight:                   model.BatteryWeight,
			DegradationPercent:       unknownChemistryDegradation,
			EstimatedReplacementCost: unknownChemistryCost,
			Chemistry:                "Unknown",
			ChemistryUnknown:         true,
			Details:                  unknownChemistryDetails,
		}
	}

	isLeaf := strings.Contains(resolve.Key(in.Model), "leaf")
	rate := profile.DegradationRatePerYear
	if isLeaf && in.Year <= airCooledLeafLastYear {
		rate = airCooledLeafRate
	}

	age := asOfYear - in.Year
	excess := math.Max(0, float64(in.CurrentMileage-age*expectedMilesPerYear))
	base := rate*float64(age) + excess/excessMileageStep*excessMileagePenalty

	modifier := climateModifier(bi.Climate, isLeaf)
	degradation := clamp(base*modifier, 0, maxDegradation)
	reported := math.Round(degradation*10) / 10

	kwh := defaultBatteryKWh
	if bi.Range != nil && bi.Range.BatteryKWh > 0 {
		kwh = bi.Range.BatteryKWh
	}

	details := fmt.Sprintf("%s chemistry, %d years old, %.1f%% estimated degradation", chemistry, age, reported)
	if modifier > 1 {
		details += fmt.Sprintf(" (%s climate accelerates wear)", bi.Climate.Zone)
	}

	return model.BatteryRisk{
		Score:                    roundHalfUp(clamp(degradationScore(degradation), 0, 100)),
		Weight:                   model.BatteryWeight,
		DegradationPercent:       reported,
		EstimatedReplacementCost: replacementCost(bi.Data, kwh),
		Chemistry:                chemistry,
		Details:                  details,
	}
}

func climateModifier(zone *refdata.ClimateZoneRecord, isLeaf bool) float64 {
	if zone == nil {
		return 1.0
	}
	switch {
	case zone.Zone == refdata.ZoneExtremeHot && isLeaf:
		return 2.0
	case zone.Zone.IsExtreme():
		return 1.7
	case zone.Zone.IsHarsh():
		return 1.35
	}
	return 1.0
}

// degradationScore is a piecewise-linear map: 0-12% spans 100-80, 12-20%
// spans 80-50, and each point above 20% costs 2.5.
func degradationScore(d float64) float64 {
	switch {
	case d <= 12:
		return 100 - (d/12)*20
	case d <= 20:
		return 80 - ((d-12)/8)*30
	default:
		return math.Max(0, 50-(d-20)*2.5)
	}
}

func replacementCost(data *refdata.BatteryData, kwh int) int {
	tier := refdata.TierPremium
	switch {
	case kwh < 60:
		tier = refdata.TierCompact
	case kwh < 80:
		tier = refdata.TierMidsize
	case kwh < 100:
		tier = refdata.TierLarge
	}
	if data == nil {
		return defaultReplacementCost
	}
	t, ok := data.ReplacementCosts[tier]
	if !ok {
		return defaultReplacementCost
	}
	return t.TypicalCost
}

// roundHalfUp rounds to the nearest integer with .5 going up.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
