package refdata

import (
	"fmt"
	"sort"
)

// Check scans a snapshot for rows the engine will silently fall back on.
// Findings are warnings; none of them prevent scoring.
func Check(s *Snapshot) []string {
	var warnings []string

	for _, r := range s.ranges {
		if _, ok := s.battery.Chemistries[r.Chemistry]; r.Chemistry != "" && !ok {
			warnings = append(warnings, fmt.Sprintf(
				"%s: %s %d references unknown chemistry %q", FileRangeDelta, r.Model, r.Year, r.Chemistry))
		}
		if r.BatteryKWh <= 0 {
			warnings = append(warnings, fmt.Sprintf(
				"%s: %s %d has no battery capacity", FileRangeDelta, r.Model, r.Year))
		}
	}

	for _, r := range s.recalls {
		if r.YearEnd < r.YearStart {
			warnings = append(warnings, fmt.Sprintf(
				"%s: %s has inverted year span %d-%d", FileRecalls, r.RecallID, r.YearStart, r.YearEnd))
		}
		if r.Severity.Rank() > SeverityLow.Rank() {
			warnings = append(warnings, fmt.Sprintf(
				"%s: %s has unknown severity %q", FileRecalls, r.RecallID, r.Severity))
		}
	}

	for _, key := range s.ownerKeys {
		c := s.ownerIssues[key]
		if c.ReliabilityScore < 0 || c.ReliabilityScore > 10 {
			warnings = append(warnings, fmt.Sprintf(
				"%s: %s reliability score %.1f outside 0-10", FileOwnerIssues, key, c.ReliabilityScore))
		}
	}

	for _, tier := range []string{TierCompact, TierMidsize, TierLarge, TierPremium} {
		if _, ok := s.battery.ReplacementCosts[tier]; !ok {
			warnings = append(warnings, fmt.Sprintf(
				"%s: missing replacement cost tier %q", FileBatteryDegradation, tier))
		}
	}

	for _, prefix := range sortedKeys(s.climate) {
		if !validPrefix(prefix) {
			warnings = append(warnings, fmt.Sprintf("%s: invalid ZIP prefix %q", FileClimateZones, prefix))
		}
	}
	for _, prefix := range sortedKeys(s.chargers) {
		if !validPrefix(prefix) {
			warnings = append(warnings, fmt.Sprintf("%s: invalid ZIP prefix %q", FileChargerDensity, prefix))
		}
	}

	return warnings
}

func validPrefix(p string) bool {
	if len(p) != 3 {
		return false
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
