package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ev-risk/internal/refdata"
	"github.com/sells-group/ev-risk/internal/refdata/refdatatest"
)

func newResolver() *Resolver {
	return New(refdatatest.Snapshot())
}

func TestKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Tesla Model 3", "tesla model 3"},
		{"  TESLA   Model\t3 ", "tesla model 3"},
		{"", ""},
		{"Mach-E", "mach-e"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Key(tt.in), tt.in)
	}
}

func TestZipPrefix(t *testing.T) {
	assert.Equal(t, "941", ZipPrefix("94105"))
	assert.Equal(t, "941", ZipPrefix(" 94105 "))
	assert.Equal(t, "", ZipPrefix("94"))
	assert.Equal(t, "", ZipPrefix(" 94  "))
}

func TestRange(t *testing.T) {
	r := newResolver()

	tests := []struct {
		name      string
		model     string
		year      int
		wantModel string
		wantYear  int
	}{
		{"exact year, shortest name wins", "Tesla Model 3", 2022, "Tesla Model 3 Long Range", 2022},
		{"exact year, specific trim", "model 3 standard", 2022, "Tesla Model 3 Standard Range", 2022},
		{"exact year, older generation", "Tesla Model 3", 2021, "Tesla Model 3 Long Range", 2021},
		{"missing year falls back to newest", "Nissan Leaf", 2020, "Nissan Leaf", 2023},
		{"case and spacing insensitive", "  NISSAN   leaf ", 2018, "Nissan Leaf", 2018},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Range(tt.model, tt.year)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantModel, got.Model)
			assert.Equal(t, tt.wantYear, got.Year)
		})
	}
}

func TestRange_NoMatch(t *testing.T) {
	assert.Nil(t, newResolver().Range("Polestar 2", 2022))
}

func TestRange_ReturnsCopy(t *testing.T) {
	r := newResolver()
	got := r.Range("Nissan Leaf", 2018)
	require.NotNil(t, got)
	got.BatteryKWh = 999

	again := r.Range("Nissan Leaf", 2018)
	assert.Equal(t, 40, again.BatteryKWh)
}

func TestRecalls(t *testing.T) {
	r := newResolver()

	got := r.Recalls("Tesla Model 3", 2019)
	require.Len(t, got, 1)
	assert.Equal(t, "20V-012", got[0].RecallID)

	got = r.Recalls("Tesla Model 3", 2022)
	require.Len(t, got, 1)
	assert.Equal(t, "22V-037", got[0].RecallID)

	// Inclusive bounds.
	assert.Len(t, r.Recalls("Tesla Model 3", 2017), 1)
	assert.Len(t, r.Recalls("Tesla Model 3", 2023), 1)
	assert.Empty(t, r.Recalls("Tesla Model 3", 2024))

	// Query shorter than the recall's model also matches.
	assert.Len(t, r.Recalls("r1t", 2022), 1)
}

func TestRecalls_NoMatch(t *testing.T) {
	got := newResolver().Recalls("zzzz qqq", 2020)
	assert.Empty(t, got)
}

func TestRecalls_OrderedBySeverity(t *testing.T) {
	snap := refdata.New("x", refdata.Tables{Recalls: []refdata.RecallRecord{
		{Model: "EV", YearStart: 2020, YearEnd: 2022, RecallID: "C", Severity: refdata.SeverityLow},
		{Model: "EV", YearStart: 2020, YearEnd: 2022, RecallID: "B", Severity: refdata.SeverityCritical},
		{Model: "EV", YearStart: 2020, YearEnd: 2022, RecallID: "A", Severity: refdata.SeverityLow},
	}})

	got := New(snap).Recalls("Acme EV", 2021)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{got[0].RecallID, got[1].RecallID, got[2].RecallID})
}

func TestOwnerIssues(t *testing.T) {
	r := newResolver()

	exact := r.OwnerIssues("Tesla Model 3")
	require.NotNil(t, exact)
	assert.InDelta(t, 8.2, exact.ReliabilityScore, 0.0001)

	folded := r.OwnerIssues("tesla model 3")
	require.NotNil(t, folded)
	assert.InDelta(t, 8.2, folded.ReliabilityScore, 0.0001, "case-insensitive equality beats longer keys")

	partial := r.OwnerIssues("model 3")
	require.NotNil(t, partial)
	assert.InDelta(t, 8.2, partial.ReliabilityScore, 0.0001, "shortest containing key wins")

	perf := r.OwnerIssues("performance")
	require.NotNil(t, perf)
	assert.InDelta(t, 7.9, perf.ReliabilityScore, 0.0001)

	assert.Nil(t, r.OwnerIssues("Nissan Leaf SV Plus"), "key must contain the query")
}

func TestOwnerIssues_TieBreakLexicographic(t *testing.T) {
	snap := refdata.New("x", refdata.Tables{OwnerIssues: map[string]refdata.OwnerIssueCluster{
		"Brand EV B": {ReliabilityScore: 2},
		"Brand EV A": {ReliabilityScore: 1},
	}})

	r := New(snap)
	for i := 0; i < 20; i++ {
		got := r.OwnerIssues("brand ev")
		require.NotNil(t, got)
		assert.InDelta(t, 1.0, got.ReliabilityScore, 0.0001)
	}
}

func TestClimateAndCharger(t *testing.T) {
	r := newResolver()

	zone := r.ClimateZone("85004")
	require.NotNil(t, zone)
	assert.Equal(t, refdata.ZoneExtremeHot, zone.Zone)

	charger := r.ChargerDensity("94105")
	require.NotNil(t, charger)
	assert.Equal(t, refdata.DensityExcellent, charger.DensityScore)

	assert.Nil(t, r.ClimateZone("00000"))
	assert.Nil(t, r.ChargerDensity("60601"), "Chicago has climate but no charger row")
	assert.Nil(t, r.ClimateZone("9"))
}

func TestResolve(t *testing.T) {
	m := newResolver().Resolve("Nissan Leaf", 2018, "85004")

	require.NotNil(t, m.Range)
	assert.Equal(t, 2018, m.Range.Year)
	require.Len(t, m.Recalls, 1)
	require.NotNil(t, m.OwnerIssues)
	require.NotNil(t, m.ClimateZone)
	require.NotNil(t, m.ChargerDensity)
}

func TestResolve_Garbage(t *testing.T) {
	m := newResolver().Resolve("zzzz qqq", 2020, "xx")

	assert.Nil(t, m.Range)
	assert.Empty(t, m.Recalls)
	assert.Nil(t, m.OwnerIssues)
	assert.Nil(t, m.ClimateZone)
	assert.Nil(t, m.ChargerDensity)
}
