package scoring

import (
	"fmt"
	"strconv"

	"github.com/sells-group/ev-risk/internal/model"
	"github.com/sells-group/ev-risk/internal/refdata"
)

// defaultReliability is the neutral 0-10 baseline for models without owner data.
const defaultReliability = 7.0

var recallPenalties = map[refdata.Severity]float64{
	refdata.SeverityCritical: 20,
	refdata.SeverityHigh:     10,
	refdata.SeverityMedium:   5,
}

const otherRecallPenalty = 2

// Platform scores recall exposure and owner-reported reliability.
func Platform(recalls []refdata.RecallRecord, cluster *refdata.OwnerIssueCluster) model.PlatformRisk {
	critical := 0
	var recallPenalty float64
	for _, r := range recalls {
		if r.Severity == refdata.SeverityCritical || r.Severity == refdata.SeverityHigh {
			critical++
		}
		p, ok := recallPenalties[r.Severity]
		if !ok {
			p = otherRecallPenalty
		}
		recallPenalty += p
	}

	reliability := defaultReliability
	var issuePenalty float64
	if cluster != nil {
		// A zero score is treated as missing.
		if cluster.ReliabilityScore != 0 {
			reliability = cluster.ReliabilityScore
		}
		for _, issue := range cluster.CommonIssues {
			issuePenalty += issuePenaltyFor(issue)
		}
	}

	score := clamp(reliability*10-recallPenalty-issuePenalty, 0, 100)

	details := fmt.Sprintf("%d recall(s) (%d critical), reliability score %s/10",
		len(recalls), critical, strconv.FormatFloat(reliability, 'f', -1, 64))
	if cluster != nil {
		details += fmt.Sprintf(", %d known issue categories", len(cluster.CommonIssues))
	}

	return model.PlatformRisk{
		Score:            roundHalfUp(score),
		Weight:           model.PlatformWeight,
		CriticalRecalls:  critical,
		TotalRecalls:     len(recalls),
		ReliabilityScore: reliability,
		Details:          details,
	}
}

// issuePenaltyFor applies the severity by frequency matrix. Rules are checked
// in order, so "or" rules only fire when the stronger "and" rule did not.
func issuePenaltyFor(issue refdata.OwnerIssue) float64 {
	sev, freq := issue.Severity, issue.Frequency
	switch {
	case sev == refdata.SeverityCritical && freq == refdata.FrequencyHigh:
		return 15
	case sev == refdata.SeverityCritical || freq == refdata.FrequencyHigh:
		return 10
	case sev == refdata.SeverityHigh && freq == refdata.FrequencyMedium:
		return 7
	case sev == refdata.SeverityHigh || freq == refdata.FrequencyMedium:
		return 5
	default:
		return 2
	}
}
