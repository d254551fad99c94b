package card

import (
	"sort"
	"strings"
)

// ProcurementRule maps printings of a set (optionally narrowed by promo
// markers) to the ways the printing can be acquired.
type ProcurementRule struct {
	// Set is the uppercased set code the rule applies to.
	Set string
	// Promos, when non-empty, restricts the rule to printings carrying at
	// least one of these promo markers (compared case-insensitively).
	Promos []string
	// Methods are the acquisition labels added when the rule matches.
	Methods []string
}

// ProcurementRules is evaluated in order; every matching rule contributes its methods.
// Supporting a new set means appending rules here.
var ProcurementRules = []ProcurementRule{
	{Set: "FIN", Methods: []string{"Play Booster", "Collector Booster"}},
	{Set: "FCA", Methods: []string{"Play Booster (1-in-3 slot)", "Collector Booster"}},
	{Set: "FIC", Methods: []string{"Commander Deck"}},
	{
		Set:     "FIC",
		Promos:  []string{"extendedart", "borderless", "showcase"},
		Methods: []string{"Collector Booster", "Commander Deck Sample Pack"},
	},
}

// ProcurementMethods returns the sorted acquisition labels for a printing.
// Unknown sets yield an empty, non-nil slice.
func ProcurementMethods(set string, promos []string) []string {
	set = strings.ToUpper(strings.TrimSpace(set))
	seen := map[string]bool{}
	out := []string{}
	for _, rule := range ProcurementRules {
		if rule.Set != set || !rule.matchesPromos(promos) {
			continue
		}
		for _, m := range rule.Methods {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out
}

// KnownProcurementMethods lists every label the rule table can produce, sorted.
func KnownProcurementMethods() []string {
	seen := map[string]bool{}
	var out []string
	for _, rule := range ProcurementRules {
		for _, m := range rule.Methods {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (r ProcurementRule) matchesPromos(promos []string) bool {
	if len(r.Promos) == 0 {
		return true
	}
	for _, p := range promos {
		for _, want := range r.Promos {
			if strings.EqualFold(p, want) {
				return true
			}
		}
	}
	return false
}
