package scoring

import "github.com/sells-group/ev-risk/internal/model"

// Rating thresholds on the adjusted score.
const (
	GreenThreshold  = 75
	YellowThreshold = 50
)

// The tolerance adjustment only applies inside [toleranceBandLow, toleranceBandHigh).
const (
	toleranceBandLow  = 60
	toleranceBandHigh = 75
	toleranceShift    = 10
)

const (
	RecommendationGreen  = "Low Risk - Good purchase candidate. Proceed with standard pre-purchase inspection."
	RecommendationYellow = "Moderate Risk - Consider carefully. Get detailed battery health report and extended warranty if available."
	RecommendationRed    = "High Risk - Proceed with caution. Budget for potential battery replacement or major repairs within 2-3 years."
)

// WeightedScore combines the sub-scores 40/30/30 and rounds half-up. The sum
// is computed in tenths so .5 boundaries are exact.
func WeightedScore(battery, platform, ownership int) int {
	return (4*battery + 3*platform + 3*ownership + 5) / 10
}

// AdjustForTolerance shifts borderline scores by the buyer's risk tolerance
// and clamps the result to [0, 100].
func AdjustForTolerance(score int, tol model.RiskTolerance) int {
	if score >= toleranceBandLow && score < toleranceBandHigh {
		switch tol {
		case model.ToleranceConservative:
			score -= toleranceShift
		case model.ToleranceAggressive:
			score += toleranceShift
		}
	}
	return max(0, min(100, score))
}

// RatingFor classifies an adjusted score and returns its recommendation.
func RatingFor(score int) (model.Rating, string) {
	switch {
	case score >= GreenThreshold:
		return model.RatingGreen, RecommendationGreen
	case score >= YellowThreshold:
		return model.RatingYellow, RecommendationYellow
	default:
		return model.RatingRed, RecommendationRed
	}
}

// Aggregate combines the three sub-scores into the final verdict.
func Aggregate(b model.BatteryRisk, p model.PlatformRisk, o model.OwnershipFit, tol model.RiskTolerance) model.BuyConfidence {
	weighted := WeightedScore(b.Score, p.Score, o.Score)
	adjusted := AdjustForTolerance(weighted, tol)
	rating, rec := RatingFor(adjusted)

	return model.BuyConfidence{
		OverallScore:   adjusted,
		WeightedScore:  weighted,
		Rating:         rating,
		Emoji:          rating.Emoji(),
		Recommendation: rec,
		BatteryRisk:    b,
		PlatformRisk:   p,
		OwnershipFit:   o,
	}
}
