package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/ev-risk/internal/refdata"
)

func recall(sev refdata.Severity) refdata.RecallRecord {
	return refdata.RecallRecord{RecallID: string(sev), Severity: sev}
}

func TestPlatform_Baseline(t *testing.T) {
	t.Parallel()

	got := Platform(nil, nil)
	assert.Equal(t, 70, got.Score)
	assert.Equal(t, 0, got.TotalRecalls)
	assert.InDelta(t, 7.0, got.ReliabilityScore, 0.0001)
	assert.Equal(t, "0 recall(s) (0 critical), reliability score 7/10", got.Details)
}

func TestPlatform_WithClusterAndRecall(t *testing.T) {
	t.Parallel()

	cluster := &refdata.OwnerIssueCluster{
		ReliabilityScore: 8.2,
		CommonIssues: []refdata.OwnerIssue{
			{Severity: refdata.SeverityLow, Frequency: refdata.FrequencyMedium},
			{Severity: refdata.SeverityMedium, Frequency: refdata.FrequencyLow},
		},
	}
	got := Platform([]refdata.RecallRecord{recall(refdata.SeverityMedium)}, cluster)

	assert.Equal(t, 70, got.Score)
	assert.Equal(t, 1, got.TotalRecalls)
	assert.Equal(t, 0, got.CriticalRecalls)
	assert.Equal(t, "1 recall(s) (0 critical), reliability score 8.2/10, 2 known issue categories", got.Details)
}

func TestPlatform_RecallPenalties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sev          refdata.Severity
		wantScore    int
		wantCritical int
	}{
		{refdata.SeverityCritical, 50, 1},
		{refdata.SeverityHigh, 60, 1},
		{refdata.SeverityMedium, 65, 0},
		{refdata.SeverityLow, 68, 0},
		{refdata.Severity("Informational"), 68, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.sev), func(t *testing.T) {
			t.Parallel()
			got := Platform([]refdata.RecallRecord{recall(tt.sev)}, nil)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantCritical, got.CriticalRecalls)
		})
	}
}

func TestIssuePenaltyMatrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sev  refdata.Severity
		freq refdata.Frequency
		want float64
	}{
		{refdata.SeverityCritical, refdata.FrequencyHigh, 15},
		{refdata.SeverityCritical, refdata.FrequencyMedium, 10},
		{refdata.SeverityCritical, refdata.FrequencyLow, 10},
		{refdata.SeverityLow, refdata.FrequencyHigh, 10},
		{refdata.SeverityHigh, refdata.FrequencyHigh, 10},
		{refdata.SeverityHigh, refdata.FrequencyMedium, 7},
		{refdata.SeverityHigh, refdata.FrequencyLow, 5},
		{refdata.SeverityMedium, refdata.FrequencyMedium, 5},
		{refdata.SeverityLow, refdata.FrequencyMedium, 5},
		{refdata.SeverityMedium, refdata.FrequencyLow, 2},
		{refdata.SeverityLow, refdata.FrequencyLow, 2},
	}
	for _, tt := range tests {
		got := issuePenaltyFor(refdata.OwnerIssue{Severity: tt.sev, Frequency: tt.freq})
		assert.InDelta(t, tt.want, got, 0.0001, "%s/%s", tt.sev, tt.freq)
	}
}

func TestPlatform_ClampsAtZero(t *testing.T) {
	t.Parallel()

	var recalls []refdata.RecallRecord
	for i := 0; i < 5; i++ {
		recalls = append(recalls, recall(refdata.SeverityCritical))
	}
	got := Platform(recalls, nil)
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, 5, got.CriticalRecalls)
}

func TestPlatform_ZeroReliabilityTreatedAsMissing(t *testing.T) {
	t.Parallel()

	got := Platform(nil, &refdata.OwnerIssueCluster{})
	assert.Equal(t, 70, got.Score)
	assert.Equal(t, "0 recall(s) (0 critical), reliability score 7/10, 0 known issue categories", got.Details)
}

func TestPlatform_CriticalRecallsNeverRaiseScore(t *testing.T) {
	t.Parallel()

	cluster := &refdata.OwnerIssueCluster{ReliabilityScore: 9.5}
	var recalls []refdata.RecallRecord
	prev := Platform(recalls, cluster).Score
	for i := 0; i < 8; i++ {
		recalls = append(recalls, recall(refdata.SeverityCritical))
		got := Platform(recalls, cluster).Score
		assert.LessOrEqual(t, got, prev)
		prev = got
	}
}
