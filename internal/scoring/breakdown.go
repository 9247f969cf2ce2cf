package scoring

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/ev-risk/internal/model"
)

// FormatDollars renders whole dollars with US digit grouping, e.g. "$12,000".
func FormatDollars(n int) string {
	return message.NewPrinter(language.AmericanEnglish).Sprintf("$%d", n)
}

// Breakdown renders the per-sub-score report blocks. Each block is a header,
// detail bullets and a trailing blank line.
func Breakdown(c model.BuyConfidence) []string {
	b := c.BatteryRisk
	p := c.PlatformRisk
	o := c.OwnershipFit

	lines := []string{
		fmt.Sprintf("**Battery Risk (%d/100)** - Weight: 40%%", b.Score),
		"• " + b.Details,
		"• Estimated replacement cost: " + FormatDollars(b.EstimatedReplacementCost),
		"",
		fmt.Sprintf("**Platform Risk (%d/100)** - Weight: 30%%", p.Score),
		"• " + p.Details,
	}
	if p.CriticalRecalls > 0 {
		lines = append(lines, fmt.Sprintf("• ⚠️ %d critical recall(s) - verify completion with seller", p.CriticalRecalls))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("**Ownership Fit (%d/100)** - Weight: 30%%", o.Score),
		"• "+o.Details,
		"",
	)
	return lines
}
