// Package refdata loads and indexes the immutable reference tables the
// scoring engine consults: battery chemistry profiles, range deltas, recalls,
// owner-issue clusters, climate zones and charger density.
package refdata

// Severity grades a recall or an owner-reported issue.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Rank orders severities from most (0) to least severe. Unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Frequency describes how often owners report an issue.
type Frequency string

const (
	FrequencyHigh   Frequency = "High"
	FrequencyMedium Frequency = "Medium"
	FrequencyLow    Frequency = "Low"
)

// ClimateZone is the climate classification of a ZIP prefix.
type ClimateZone string

const (
	ZoneExtremeHot  ClimateZone = "Extreme Hot"
	ZoneHot         ClimateZone = "Hot"
	ZoneHotHumid    ClimateZone = "Hot Humid"
	ZoneModerate    ClimateZone = "Moderate"
	ZoneMild        ClimateZone = "Mild"
	ZoneCold        ClimateZone = "Cold"
	ZoneExtremeCold ClimateZone = "Extreme Cold"
)

// IsExtreme reports whether the zone is Extreme Hot or Extreme Cold.
func (z ClimateZone) IsExtreme() bool {
	return z == ZoneExtremeHot || z == ZoneExtremeCold
}

// IsHarsh reports whether the zone is Hot, Hot Humid or Cold.
func (z ClimateZone) IsHarsh() bool {
	return z == ZoneHot || z == ZoneHotHumid || z == ZoneCold
}

// DensityScore grades public charging infrastructure around a ZIP prefix.
type DensityScore string

const (
	DensityExcellent DensityScore = "Excellent"
	DensityGood      DensityScore = "Good"
	DensityModerate  DensityScore = "Moderate"
	DensityPoor      DensityScore = "Poor"
	DensityUnknown   DensityScore = "Unknown"
)

// ChemistryProfile describes a battery chemistry and its typical aging.
type ChemistryProfile struct {
	ID                     string   `json:"-"`
	Name                   string   `json:"name"`
	Manufacturers          []string `json:"manufacturers"`
	DegradationRatePerYear float64  `json:"degradation_rate_per_year"`
	Description            string   `json:"description"`
}

// ReplacementCostTier is a battery size bucket with its typical pack cost.
type ReplacementCostTier struct {
	Name        string   `json:"-"`
	KWhRange    string   `json:"kwh_range"`
	TypicalCost int      `json:"typical_cost"`
	Examples    []string `json:"examples"`
}

// Replacement cost tier names.
const (
	TierCompact = "compact"
	TierMidsize = "midsize"
	TierLarge   = "large"
	TierPremium = "premium"
)

// DegradationThreshold is an informational band from the battery data file.
type DegradationThreshold struct {
	MinDegradationPercent float64 `json:"min_degradation_percent,omitempty"`
	MaxDegradationPercent float64 `json:"max_degradation_percent,omitempty"`
	Description           string  `json:"description"`
}

// WarrantyReference carries the generic warranty notes shipped with the data.
type WarrantyReference struct {
	StandardCoverage     string `json:"standard_coverage"`
	DegradationThreshold string `json:"degradation_threshold"`
	Note                 string `json:"note"`
}

// BatteryData is the decoded battery_degradation.json file.
type BatteryData struct {
	Chemistries       map[string]ChemistryProfile     `json:"chemistry_map"`
	Thresholds        map[string]DegradationThreshold `json:"thresholds"`
	ReplacementCosts  map[string]ReplacementCostTier  `json:"replacement_cost_estimates"`
	WarrantyReference WarrantyReference               `json:"warranty_reference"`
}

// Chemistry returns the profile for id.
func (b *BatteryData) Chemistry(id string) (ChemistryProfile, bool) {
	if b == nil {
		return ChemistryProfile{}, false
	}
	p, ok := b.Chemistries[id]
	return p, ok
}

// RangeDeltaRecord compares EPA and observed range for a model year.
type RangeDeltaRecord struct {
	Model            string  `csv:"model" json:"model"`
	Year             int     `csv:"year" json:"year"`
	EPARangeMi       int     `csv:"epa_range_mi" json:"epa_range_mi"`
	RealWorldRangeMi int     `csv:"real_world_range_mi" json:"real_world_range_mi"`
	DeltaPercent     float64 `csv:"delta_percent" json:"delta_percent"`
	Chemistry        string  `csv:"chemistry" json:"chemistry"`
	BatteryKWh       int     `csv:"battery_kwh" json:"battery_kwh"`
}

// RecallRecord is a single safety recall covering a span of model years.
type RecallRecord struct {
	Manufacturer  string   `csv:"manufacturer" json:"manufacturer"`
	Model         string   `csv:"model" json:"model"`
	YearStart     int      `csv:"year_start" json:"year_start"`
	YearEnd       int      `csv:"year_end" json:"year_end"`
	RecallID      string   `csv:"recall_id" json:"recall_id"`
	IssueType     string   `csv:"issue_type" json:"issue_type"`
	Severity      Severity `csv:"severity" json:"severity"`
	Description   string   `csv:"description" json:"description"`
	UnitsAffected int      `csv:"units_affected" json:"units_affected"`
}

// Covers reports whether year falls inside the recall's inclusive year span.
func (r RecallRecord) Covers(year int) bool {
	return year >= r.YearStart && year <= r.YearEnd
}

// OwnerIssue is one category of owner-reported problems for a model.
type OwnerIssue struct {
	Category   string    `json:"category"`
	Frequency  Frequency `json:"frequency"`
	Issues     []string  `json:"issues"`
	Severity   Severity  `json:"severity"`
	TypicalAge string    `json:"typical_age"`
}

// OwnerIssueCluster aggregates owner reports for one model.
type OwnerIssueCluster struct {
	CommonIssues     []OwnerIssue `json:"common_issues"`
	ReliabilityScore float64      `json:"reliability_score"`
}

// ClimateZoneRecord maps a 3-digit ZIP prefix to its climate.
type ClimateZoneRecord struct {
	ZipPrefix       string      `csv:"zip_prefix" json:"zip_prefix"`
	State           string      `csv:"state" json:"state"`
	City            string      `csv:"city" json:"city"`
	Zone            ClimateZone `csv:"zone" json:"zone"`
	AvgTempF        int         `csv:"avg_temp_f" json:"avg_temp_f"`
	ExtremeHeatDays int         `csv:"extreme_heat_days" json:"extreme_heat_days"`
	ExtremeColdDays int         `csv:"extreme_cold_days" json:"extreme_cold_days"`
	Description     string      `csv:"description" json:"description"`
}

// ChargerDensityRecord maps a 3-digit ZIP prefix to charging availability.
type ChargerDensityRecord struct {
	ZipPrefix    string       `csv:"zip_prefix" json:"zip_prefix"`
	State        string       `csv:"state" json:"state"`
	Region       string       `csv:"region" json:"region"`
	DCFCPer100k  int          `csv:"dcfc_per_100k_pop" json:"dcfc_per_100k_pop"`
	L2Per100k    int          `csv:"l2_per_100k_pop" json:"l2_per_100k_pop"`
	DensityScore DensityScore `csv:"density_score" json:"density_score"`
	Description  string       `csv:"description" json:"description"`
}
