// Package refdatatest builds small in-memory reference tables for tests.
package refdatatest

import "github.com/sells-group/ev-risk/internal/refdata"

// Tables returns a synthetic data set covering every fallback path the
// engine has: a model with explicit chemistry, one relying on inference,
// multiple generations, overlapping owner-issue keys, and ZIP prefixes for
// each climate class.
func Tables() refdata.Tables {
	return refdata.Tables{
		Battery: &refdata.BatteryData{
			Chemistries: map[string]refdata.ChemistryProfile{
				"LFP":    {Name: "Lithium Iron Phosphate", DegradationRatePerYear: 1.2},
				"NMC622": {Name: "Nickel Manganese Cobalt 6:2:2", DegradationRatePerYear: 2.0},
				"NMC811": {Name: "Nickel Manganese Cobalt 8:1:1", DegradationRatePerYear: 1.8},
				"NCA":    {Name: "Nickel Cobalt Aluminum", DegradationRatePerYear: 2.1},
			},
			ReplacementCosts: map[string]refdata.ReplacementCostTier{
				refdata.TierCompact: {KWhRange: "40-59", TypicalCost: 9500},
				refdata.TierMidsize: {KWhRange: "60-79", TypicalCost: 13500},
				refdata.TierLarge:   {KWhRange: "80-99", TypicalCost: 16500},
				refdata.TierPremium: {KWhRange: "100+", TypicalCost: 22000},
			},
		},
		Ranges: []refdata.RangeDeltaRecord{
			{Model: "Tesla Model 3 Long Range", Year: 2021, EPARangeMi: 353, RealWorldRangeMi: 310, Chemistry: "NMC811", BatteryKWh: 82},
			{Model: "Tesla Model 3 Long Range", Year: 2022, EPARangeMi: 358, RealWorldRangeMi: 312, Chemistry: "NMC811", BatteryKWh: 82},
			{Model: "Tesla Model 3 Standard Range", Year: 2022, EPARangeMi: 272, RealWorldRangeMi: 238, Chemistry: "LFP", BatteryKWh: 60},
			{Model: "Nissan Leaf", Year: 2018, EPARangeMi: 151, RealWorldRangeMi: 140, Chemistry: "NMC622", BatteryKWh: 40},
			{Model: "Nissan Leaf", Year: 2023, EPARangeMi: 149, RealWorldRangeMi: 141, Chemistry: "NMC622", BatteryKWh: 40},
			{Model: "Rivian R1T", Year: 2022, EPARangeMi: 314, RealWorldRangeMi: 277, Chemistry: "NMC811", BatteryKWh: 135},
			{Model: "Mystery EV", Year: 2020, EPARangeMi: 200, RealWorldRangeMi: 180, Chemistry: "", BatteryKWh: 0},
		},
		Recalls: []refdata.RecallRecord{
			{Manufacturer: "Tesla", Model: "Model 3", YearStart: 2017, YearEnd: 2020, RecallID: "20V-012", Severity: refdata.SeverityHigh},
			{Manufacturer: "Tesla", Model: "Model 3", YearStart: 2021, YearEnd: 2023, RecallID: "22V-037", Severity: refdata.SeverityMedium},
			{Manufacturer: "Nissan", Model: "Leaf", YearStart: 2018, YearEnd: 2019, RecallID: "19V-011", Severity: refdata.SeverityLow},
			{Manufacturer: "Rivian", Model: "R1T", YearStart: 2022, YearEnd: 2022, RecallID: "22V-781", Severity: refdata.SeverityHigh},
		},
		OwnerIssues: map[string]refdata.OwnerIssueCluster{
			"Tesla Model 3": {
				ReliabilityScore: 8.2,
				CommonIssues: []refdata.OwnerIssue{
					{Category: "Build Quality", Frequency: refdata.FrequencyMedium, Severity: refdata.SeverityLow},
					{Category: "Suspension", Frequency: refdata.FrequencyLow, Severity: refdata.SeverityMedium},
				},
			},
			"Tesla Model 3 Performance": {
				ReliabilityScore: 7.9,
			},
			"Nissan Leaf": {
				ReliabilityScore: 6.5,
				CommonIssues: []refdata.OwnerIssue{
					{Category: "Battery", Frequency: refdata.FrequencyHigh, Severity: refdata.SeverityCritical},
					{Category: "Infotainment", Frequency: refdata.FrequencyLow, Severity: refdata.SeverityLow},
				},
			},
		},
		Climate: []refdata.ClimateZoneRecord{
			{ZipPrefix: "850", State: "AZ", City: "Phoenix", Zone: refdata.ZoneExtremeHot},
			{ZipPrefix: "770", State: "TX", City: "Houston", Zone: refdata.ZoneHotHumid},
			{ZipPrefix: "981", State: "WA", City: "Seattle", Zone: refdata.ZoneModerate},
			{ZipPrefix: "941", State: "CA", City: "San Francisco", Zone: refdata.ZoneMild},
			{ZipPrefix: "606", State: "IL", City: "Chicago", Zone: refdata.ZoneCold},
			{ZipPrefix: "554", State: "MN", City: "Minneapolis", Zone: refdata.ZoneExtremeCold},
		},
		Chargers: []refdata.ChargerDensityRecord{
			{ZipPrefix: "850", Region: "Phoenix Metro", DensityScore: refdata.DensityGood},
			{ZipPrefix: "770", Region: "Houston Metro", DensityScore: refdata.DensityModerate},
			{ZipPrefix: "981", Region: "Seattle Metro", DensityScore: refdata.DensityModerate},
			{ZipPrefix: "941", Region: "San Francisco Bay Area", DensityScore: refdata.DensityExcellent},
			{ZipPrefix: "554", Region: "Minneapolis Metro", DensityScore: refdata.DensityPoor},
		},
	}
}

// Snapshot indexes Tables into a ready-to-use snapshot.
func Snapshot() *refdata.Snapshot {
	return refdata.New("test", Tables())
}
