package deck

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/arcanaland/cardsync/internal/card"
)

// Searcher finds every printing of a card by exact name, optionally within one set.
type Searcher interface {
	SearchPrints(ctx context.Context, name, set string) ([]card.Raw, error)
}

// Resolution is a deck-list item with the printing chosen for it.
// Card is nil when nothing matched or the lookup failed (Err is set then).
type Resolution struct {
	Item
	Card *card.Card
	Err  error
}

// Resolved reports whether a printing was chosen.
func (r Resolution) Resolved() bool { return r.Card != nil }

// Tally counts the sets of the printings chosen so far in one deck.
type Tally struct {
	counts map[string]int
	order  []string
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{counts: map[string]int{}}
}

// Add records one more printing from set.
func (t *Tally) Add(set string) {
	set = strings.ToUpper(set)
	if _, ok := t.counts[set]; !ok {
		t.order = append(t.order, set)
	}
	t.counts[set]++
}

// Count returns how many chosen printings came from set.
func (t *Tally) Count(set string) int {
	return t.counts[strings.ToUpper(set)]
}

// Majority returns the most frequently chosen set. Ties go to the set that
// was recorded first.
func (t *Tally) Majority() (string, bool) {
	best, bestCount := "", 0
	for _, set := range t.order {
		if c := t.counts[set]; c > bestCount {
			best, bestCount = set, c
		}
	}
	return best, bestCount > 0
}

// Choose picks one printing: the newest printing from the tally's majority
// set when that set printed the card, otherwise the newest printing overall.
// Release dates are ISO strings, so the lexicographic maximum is the newest;
// ties keep the earlier candidate. Returns nil for no candidates.
func Choose(candidates []card.Raw, tally *Tally) *card.Raw {
	if tally != nil {
		if majority, ok := tally.Majority(); ok {
			var inSet []card.Raw
			for _, c := range candidates {
				if strings.EqualFold(c.Set, majority) {
					inSet = append(inSet, c)
				}
			}
			if chosen := newest(inSet); chosen != nil {
				return chosen
			}
		}
	}
	return newest(candidates)
}

func newest(candidates []card.Raw) *card.Raw {
	var best *card.Raw
	for i := range candidates {
		if best == nil || candidates[i].ReleasedAt > best.ReleasedAt {
			best = &candidates[i]
		}
	}
	return best
}

// setHintRE matches a trailing "(SET)" or "(SET) 123a" on a card name.
var setHintRE = regexp.MustCompile(`^(.+?)\s+\(([A-Za-z0-9]{2,6})\)(?:\s+(\S+))?$`)

// splitSetHint separates an MTG Arena style set hint from a card name.
func splitSetHint(name string) (base, set, collector string) {
	m := setHintRE.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return strings.TrimSpace(name), "", ""
	}
	return strings.TrimSpace(m[1]), strings.ToUpper(m[2]), m[3]
}

// Resolver maps deck-list items to printings.
type Resolver struct {
	search Searcher
	logger *log.Logger
}

// NewResolver creates a Resolver. A nil logger uses the default logger.
func NewResolver(search Searcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{search: search, logger: logger}
}

// Resolve resolves items in order with a fresh tally scoped to this call.
// Lookup failures are recorded on the item and do not stop the deck.
func (r *Resolver) Resolve(ctx context.Context, items []Item) []Resolution {
	tally := NewTally()
	out := make([]Resolution, 0, len(items))
	for _, it := range items {
		out = append(out, r.ResolveItem(ctx, it, tally))
	}
	return out
}

// ResolveItem resolves one item against tally and, on success, adds the
// chosen printing's set to it.
func (r *Resolver) ResolveItem(ctx context.Context, it Item, tally *Tally) Resolution {
	res := Resolution{Item: it}

	chosen, err := r.lookup(ctx, it.Name, tally)
	if err != nil {
		r.logger.Warn("card lookup failed", "name", it.Name, "err", err)
		res.Err = err
		return res
	}
	if chosen == nil {
		r.logger.Warn("no printing found", "name", it.Name)
		return res
	}

	c := card.Normalize(*chosen)
	tally.Add(c.Set)
	res.Card = &c
	r.logger.Debug("resolved", "name", it.Name, "set", c.Set, "cn", c.CollectorNumber)
	return res
}

func (r *Resolver) lookup(ctx context.Context, name string, tally *Tally) (*card.Raw, error) {
	base, set, collector := splitSetHint(name)
	if set != "" {
		prints, err := r.search.SearchPrints(ctx, base, set)
		if err != nil {
			return nil, err
		}
		if collector != "" {
			for i := range prints {
				if strings.EqualFold(prints[i].CollectorNumber, collector) {
					return &prints[i], nil
				}
			}
		}
		if chosen := Choose(prints, tally); chosen != nil {
			return chosen, nil
		}
	}

	prints, err := r.search.SearchPrints(ctx, base, "")
	if err != nil {
		return nil, err
	}
	return Choose(prints, tally), nil
}
