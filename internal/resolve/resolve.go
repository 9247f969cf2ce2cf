// Package resolve maps a free-text vehicle description and a ZIP code onto
// rows of the reference tables.
package resolve

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/ev-risk/internal/refdata"
)

// Key canonicalizes a model string for matching: case-folded, trimmed, and
// with internal whitespace collapsed to single spaces.
func Key(model string) string {
	// A Caser carries state, so each call gets its own.
	return strings.Join(strings.Fields(cases.Fold().String(model)), " ")
}

// ZipPrefix returns the first three characters of zip after trimming
// surrounding whitespace, or "" when fewer remain.
func ZipPrefix(zip string) string {
	zip = strings.TrimSpace(zip)
	if len(zip) < 3 {
		return ""
	}
	return zip[:3]
}

// Match holds every reference row resolved for one vehicle and location.
// Nil pointers mean no row matched.
type Match struct {
	Range          *refdata.RangeDeltaRecord
	Recalls        []refdata.RecallRecord
	OwnerIssues    *refdata.OwnerIssueCluster
	ClimateZone    *refdata.ClimateZoneRecord
	ChargerDensity *refdata.ChargerDensityRecord
}

// Resolver answers lookups against a single snapshot.
type Resolver struct {
	snap *refdata.Snapshot
}

// New creates a Resolver over snap.
func New(snap *refdata.Snapshot) *Resolver {
	return &Resolver{snap: snap}
}

// Resolve runs every lookup needed to score one vehicle.
func (r *Resolver) Resolve(model string, year int, zip string) Match {
	return Match{
		Range:          r.Range(model, year),
		Recalls:        r.Recalls(model, year),
		OwnerIssues:    r.OwnerIssues(model),
		ClimateZone:    r.ClimateZone(zip),
		ChargerDensity: r.ChargerDensity(zip),
	}
}

// Range returns the range row for model in year. Rows match when their model
// contains the query. An exact-year row wins; otherwise the most recent year
// is taken as representative. Remaining ties go to the shortest model name,
// then lexicographic order.
func (r *Resolver) Range(model string, year int) *refdata.RangeDeltaRecord {
	q := Key(model)

	var best *refdata.RangeDeltaRecord
	var bestKey string
	for i := range r.snap.Ranges() {
		row := &r.snap.Ranges()[i]
		k := Key(row.Model)
		if !strings.Contains(k, q) {
			continue
		}
		if best == nil || rangeBetter(row, k, best, bestKey, year) {
			best, bestKey = row, k
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

func rangeBetter(a *refdata.RangeDeltaRecord, aKey string, b *refdata.RangeDeltaRecord, bKey string, year int) bool {
	aExact, bExact := a.Year == year, b.Year == year
	if aExact != bExact {
		return aExact
	}
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	return keyLess(aKey, bKey)
}

// keyLess orders candidate keys shortest first, then lexicographically.
func keyLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Recalls returns every recall whose model cross-matches the query (either
// string contains the other) and whose year span covers year. Results are
// ordered by severity, then recall id.
func (r *Resolver) Recalls(model string, year int) []refdata.RecallRecord {
	q := Key(model)

	var out []refdata.RecallRecord
	for _, rec := range r.snap.Recalls() {
		k := Key(rec.Model)
		if !(strings.Contains(k, q) || strings.Contains(q, k)) {
			continue
		}
		if !rec.Covers(year) {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank(); ri != rj {
			return ri < rj
		}
		return out[i].RecallID < out[j].RecallID
	})
	return out
}

// OwnerIssues returns the owner-issue cluster for model: an exact key hit
// first, then a case-insensitive key hit, then the shortest key containing
// the query (lexicographic on ties).
func (r *Resolver) OwnerIssues(model string) *refdata.OwnerIssueCluster {
	if c, ok := r.snap.OwnerIssues(model); ok {
		return &c
	}

	q := Key(model)
	var best string
	found := false
	for _, key := range r.snap.OwnerIssueKeys() {
		k := Key(key)
		if k == q {
			best, found = key, true
			break
		}
		if strings.Contains(k, q) && (!found || keyLess(k, Key(best))) {
			best, found = key, true
		}
	}
	if !found {
		return nil
	}
	c, _ := r.snap.OwnerIssues(best)
	return &c
}

// ClimateZone returns the climate row for the ZIP's 3-digit prefix.
func (r *Resolver) ClimateZone(zip string) *refdata.ClimateZoneRecord {
	c, ok := r.snap.ClimateZone(ZipPrefix(zip))
	if !ok {
		return nil
	}
	return &c
}

// ChargerDensity returns the charger row for the ZIP's 3-digit prefix.
func (r *Resolver) ChargerDensity(zip string) *refdata.ChargerDensityRecord {
	c, ok := r.snap.ChargerDensity(ZipPrefix(zip))
	if !ok {
		return nil
	}
	return &c
}
