package resolve

import "strings"

// DefaultChemistry is inferred for models no rule recognizes.
const DefaultChemistry = "NMC"

// chemistryRule maps a model pattern to a chemistry. All of the substrings
// in match must be present in the canonical model key.
type chemistryRule struct {
	match     []string
	minYear   int    // 0 = any year
	chemistry string // used when year >= minYear
	before    string // used when year < minYear; "" = rule does not apply
}

// chemistryRules are evaluated in order; the first applicable rule wins.
var chemistryRules = []chemistryRule{
	{match: []string{"tesla", "model 3", "standard"}, minYear: 2021, chemistry: "LFP", before: "NCA"},
	{match: []string{"tesla", "model 3"}, chemistry: "NMC811"},
	{match: []string{"tesla", "model y"}, chemistry: "NMC811"},
	{match: []string{"tesla", "model s"}, minYear: 2021, chemistry: "NMC811", before: "NCA"},
	{match: []string{"tesla", "model x"}, minYear: 2021, chemistry: "NMC811", before: "NCA"},
	{match: []string{"byd"}, chemistry: "LFP"},
	{match: []string{"rivian", "standard"}, chemistry: "LFP"},
	{match: []string{"lucid"}, chemistry: "NMC811"},
	{match: []string{"rivian", "max"}, chemistry: "NMC811"},
	{match: []string{"mach-e", "standard"}, minYear: 2023, chemistry: "LFP"},
}

// InferChemistry guesses a battery chemistry from the model name and year.
// It is only consulted when the range table has no explicit chemistry.
func InferChemistry(model string, year int) string {
	k := Key(model)
	for _, rule := range chemistryRules {
		if !containsAll(k, rule.match) {
			continue
		}
		if year >= rule.minYear {
			return rule.chemistry
		}
		if rule.before != "" {
			return rule.before
		}
	}
	return DefaultChemistry
}

// InferChemistry is the Resolver form of the package-level function.
func (r *Resolver) InferChemistry(model string, year int) string {
	return InferChemistry(model, year)
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
