package refdata

import (
	"context"
	"sort"
	"sync"
)

// Tables is the raw, unindexed content of the six reference tables. Tests
// build one directly to score against synthetic data.
type Tables struct {
	Battery     *BatteryData
	Ranges      []RangeDeltaRecord
	Recalls     []RecallRecord
	OwnerIssues map[string]OwnerIssueCluster
	Climate     []ClimateZoneRecord
	Chargers    []ChargerDensityRecord
}

// Snapshot is an indexed, read-only view of the reference tables. It is
// never mutated after New returns, so it is safe for concurrent readers.
type Snapshot struct {
	version     string
	battery     *BatteryData
	ranges      []RangeDeltaRecord
	recalls     []RecallRecord
	ownerIssues map[string]OwnerIssueCluster
	ownerKeys   []string
	climate     map[string]ClimateZoneRecord
	chargers    map[string]ChargerDensityRecord
}

// New indexes t into a Snapshot. When a ZIP prefix appears more than once,
// the first row wins.
func New(version string, t Tables) *Snapshot {
	s := &Snapshot{
		version:     version,
		battery:     &BatteryData{},
		ranges:      append([]RangeDeltaRecord(nil), t.Ranges...),
		recalls:     append([]RecallRecord(nil), t.Recalls...),
		ownerIssues: make(map[string]OwnerIssueCluster, len(t.OwnerIssues)),
		climate:     make(map[string]ClimateZoneRecord, len(t.Climate)),
		chargers:    make(map[string]ChargerDensityRecord, len(t.Chargers)),
	}
	if t.Battery != nil {
		*s.battery = *t.Battery
	}
	s.battery.Chemistries = make(map[string]ChemistryProfile, len(s.battery.Chemistries))
	s.battery.ReplacementCosts = make(map[string]ReplacementCostTier, len(s.battery.ReplacementCosts))
	if t.Battery != nil {
		for id, p := range t.Battery.Chemistries {
			p.ID = id
			s.battery.Chemistries[id] = p
		}
		for name, tier := range t.Battery.ReplacementCosts {
			tier.Name = name
			s.battery.ReplacementCosts[name] = tier
		}
	}

	for k, v := range t.OwnerIssues {
		s.ownerIssues[k] = v
		s.ownerKeys = append(s.ownerKeys, k)
	}
	sort.Strings(s.ownerKeys)

	for _, c := range t.Climate {
		if _, dup := s.climate[c.ZipPrefix]; !dup {
			s.climate[c.ZipPrefix] = c
		}
	}
	for _, c := range t.Chargers {
		if _, dup := s.chargers[c.ZipPrefix]; !dup {
			s.chargers[c.ZipPrefix] = c
		}
	}
	return s
}

// Version identifies the data release the snapshot was loaded from.
func (s *Snapshot) Version() string { return s.version }

// Battery returns the chemistry profiles and replacement cost tiers.
func (s *Snapshot) Battery() *BatteryData { return s.battery }

// Ranges returns every range delta row. Callers must not modify the slice.
func (s *Snapshot) Ranges() []RangeDeltaRecord { return s.ranges }

// Recalls returns every recall row. Callers must not modify the slice.
func (s *Snapshot) Recalls() []RecallRecord { return s.recalls }

// OwnerIssueKeys returns the owner-issue model keys in lexicographic order.
func (s *Snapshot) OwnerIssueKeys() []string { return s.ownerKeys }

// OwnerIssues returns the cluster stored under key exactly.
func (s *Snapshot) OwnerIssues(key string) (OwnerIssueCluster, bool) {
	c, ok := s.ownerIssues[key]
	return c, ok
}

// ClimateZone returns the climate row for a 3-digit ZIP prefix.
func (s *Snapshot) ClimateZone(prefix string) (ClimateZoneRecord, bool) {
	c, ok := s.climate[prefix]
	return c, ok
}

// ChargerDensity returns the charger row for a 3-digit ZIP prefix.
func (s *Snapshot) ChargerDensity(prefix string) (ChargerDensityRecord, bool) {
	c, ok := s.chargers[prefix]
	return c, ok
}

// Counts returns the number of rows per table, keyed by file name.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		FileBatteryDegradation: len(s.battery.Chemistries),
		FileRangeDelta:         len(s.ranges),
		FileRecalls:            len(s.recalls),
		FileOwnerIssues:        len(s.ownerIssues),
		FileClimateZones:       len(s.climate),
		FileChargerDensity:     len(s.chargers),
	}
}

// Provider loads a Snapshot once and hands the same instance to every caller.
type Provider struct {
	once sync.Once
	load func(ctx context.Context) (*Snapshot, error)
	snap *Snapshot
	err  error
}

// NewProvider returns a Provider that loads tables from dir on first use.
// An empty dir selects the embedded data release.
func NewProvider(dir string) *Provider {
	return &Provider{load: func(ctx context.Context) (*Snapshot, error) {
		return Load(ctx, dir)
	}}
}

// NewStaticProvider wraps an already built snapshot.
func NewStaticProvider(s *Snapshot) *Provider {
	p := &Provider{snap: s}
	p.once.Do(func() {})
	return p
}

// Snapshot returns the memoized snapshot. A load error is returned to every
// caller; the load is not retried.
func (p *Provider) Snapshot(ctx context.Context) (*Snapshot, error) {
	p.once.Do(func() {
		p.snap, p.err = p.load(ctx)
	})
	return p.snap, p.err
}
