package model

// RiskTolerance is the buyer's appetite for borderline purchases.
type RiskTolerance string

const (
	ToleranceConservative RiskTolerance = "conservative"
	ToleranceModerate     RiskTolerance = "moderate"
	ToleranceAggressive   RiskTolerance = "aggressive"
)

// Valid reports whether t is one of the three known tolerances.
func (t RiskTolerance) Valid() bool {
	switch t {
	case ToleranceConservative, ToleranceModerate, ToleranceAggressive:
		return true
	}
	return false
}

// Rating is the traffic-light classification of a Buy Confidence score.
type Rating string

const (
	RatingGreen  Rating = "GREEN"
	RatingYellow Rating = "YELLOW"
	RatingRed    Rating = "RED"
)

// Emoji returns the traffic-light glyph shown next to the rating.
func (r Rating) Emoji() string {
	switch r {
	case RatingGreen:
		return "🟢"
	case RatingYellow:
		return "🟡"
	case RatingRed:
		return "🔴"
	}
	return ""
}

// ClimateImpact grades how hard the local climate is on an EV.
type ClimateImpact string

const (
	ClimateFavorable   ClimateImpact = "Favorable"
	ClimateModerate    ClimateImpact = "Moderate"
	ClimateChallenging ClimateImpact = "Challenging"
)

// RangeFit grades how comfortably the daily commute fits the real-world range.
type RangeFit string

const (
	RangeFitGood     RangeFit = "Good"
	RangeFitModerate RangeFit = "Moderate"
	RangeFitPoor     RangeFit = "Poor"
)

// Sub-score weights. They sum to exactly 1.0.
const (
	BatteryWeight   = 0.4
	PlatformWeight  = 0.3
	OwnershipWeight = 0.3
)

// ScoringInput is a validated request to score one used EV.
type ScoringInput struct {
	Model          string        `json:"model" yaml:"model"`
	Year           int           `json:"year" yaml:"year"`
	CurrentMileage int           `json:"currentMileage" yaml:"current_mileage"`
	ZipCode        string        `json:"zipCode" yaml:"zip_code"`
	DailyMiles     int           `json:"dailyMiles" yaml:"daily_miles"`
	HomeCharging   bool          `json:"homeCharging" yaml:"home_charging"`
	RiskTolerance  RiskTolerance `json:"riskTolerance" yaml:"risk_tolerance"`
}

// BatteryRisk is the battery degradation sub-score.
type BatteryRisk struct {
	Score                    int     `json:"score" yaml:"score"`
	Weight                   float64 `json:"weight" yaml:"weight"`
	DegradationPercent       float64 `json:"degradation_percent" yaml:"degradation_percent"`
	EstimatedReplacementCost int     `json:"estimated_replacement_cost" yaml:"estimated_replacement_cost"`
	Chemistry                string  `json:"chemistry" yaml:"chemistry"`
	ChemistryUnknown         bool    `json:"chemistry_unknown,omitempty" yaml:"chemistry_unknown,omitempty"`
	Details                  string  `json:"details" yaml:"details"`
}

// PlatformRisk is the recall and owner-reliability sub-score.
type PlatformRisk struct {
	Score            int     `json:"score" yaml:"score"`
	Weight           float64 `json:"weight" yaml:"weight"`
	CriticalRecalls  int     `json:"critical_recalls" yaml:"critical_recalls"`
	TotalRecalls     int     `json:"total_recalls" yaml:"total_recalls"`
	ReliabilityScore float64 `json:"reliability_score" yaml:"reliability_score"`
	Details          string  `json:"details" yaml:"details"`
}

// OwnershipFit is the climate, charging and usage sub-score.
type OwnershipFit struct {
	Score          int           `json:"score" yaml:"score"`
	Weight         float64       `json:"weight" yaml:"weight"`
	ClimateImpact  ClimateImpact `json:"climate_impact" yaml:"climate_impact"`
	ChargerDensity string        `json:"charger_density" yaml:"charger_density"`
	AnnualMilesFit RangeFit      `json:"annual_miles_fit" yaml:"annual_miles_fit"`
	Details        string        `json:"details" yaml:"details"`
}

// BuyConfidence is the engine's final verdict. OverallScore is the
// tolerance-adjusted score the rating derives from; WeightedScore is the
// plain weighted sum before adjustment.
type BuyConfidence struct {
	OverallScore   int          `json:"overall_score" yaml:"overall_score"`
	WeightedScore  int          `json:"weighted_score" yaml:"weighted_score"`
	Rating         Rating       `json:"rating" yaml:"rating"`
	Emoji          string       `json:"emoji" yaml:"emoji"`
	Recommendation string       `json:"recommendation" yaml:"recommendation"`
	BatteryRisk    BatteryRisk  `json:"battery_risk" yaml:"battery_risk"`
	PlatformRisk   PlatformRisk `json:"platform_risk" yaml:"platform_risk"`
	OwnershipFit   OwnershipFit `json:"ownership_fit" yaml:"ownership_fit"`
}
