package reconcile

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/arcanaland/cardsync/internal/card"
	"github.com/arcanaland/cardsync/internal/deck"
	"github.com/arcanaland/cardsync/internal/workspace"
)

// DeckOptions configures a DeckLinker.
type DeckOptions struct {
	CardsCollectionID string
	CardsTitleField   string
	DecksCollectionID string
	DecksTitleField   string
	Style             card.TitleStyle
	// CreateMissing creates card records for resolved printings that are not
	// in the cards collection yet. Otherwise such cards are left unlinked.
	CreateMissing bool
}

// DeckResult summarizes one deck import.
type DeckResult struct {
	RecordID string
	Created  bool
	// Linked counts linked card records per section.
	Linked map[deck.Section]int
	// CardsCreated counts card records created for the deck.
	CardsCreated int
	// Missing lists keys of printings with no card record (CreateMissing off).
	Missing []string
	// Failed lists per-card errors; the deck record is written regardless.
	Failed []Change
}

// DeckLinker writes a resolved deck list as one deck record related to the
// card records of its printings.
type DeckLinker struct {
	store  workspace.Store
	opts   DeckOptions
	logger *log.Logger
	// card ID -> record ID, for the lifetime of the linker
	records map[string]string
}

func NewDeckLinker(store workspace.Store, opts DeckOptions, logger *log.Logger) *DeckLinker {
	if logger == nil {
		logger = log.Default()
	}
	if opts.CardsTitleField == "" {
		opts.CardsTitleField = "Name"
	}
	if opts.DecksTitleField == "" {
		opts.DecksTitleField = "Name"
	}
	if opts.Style == "" {
		opts.Style = card.StyleOracleAlt
	}
	return &DeckLinker{store: store, opts: opts, logger: logger, records: map[string]string{}}
}

var sectionFields = map[deck.Section]string{
	deck.SectionMain:      FieldMainboard,
	deck.SectionSideboard: FieldSideboard,
	deck.SectionCommand:   FieldCommand,
}

// Link ensures every resolved printing has a card record and upserts the deck
// record named name. Unresolved lines are ignored. Only a failure to write the
// deck record itself is returned as an error.
func (l *DeckLinker) Link(ctx context.Context, name string, resolutions []deck.Resolution) (*DeckResult, error) {
	res := &DeckResult{Linked: map[deck.Section]int{}}
	relations := map[deck.Section][]string{}
	seen := map[deck.Section]map[string]bool{}
	var listed []deck.Item
	total := 0

	for _, r := range resolutions {
		if !r.Resolved() {
			continue
		}
		c := *r.Card
		listed = append(listed, deck.Item{
			Count:   r.Count,
			Name:    fmt.Sprintf("%s (%s) %s", c.Name, c.Set, c.CollectorNumber),
			Section: r.Section,
		})
		total += r.Count

		recordID, err := l.cardRecord(ctx, c, res)
		if err != nil {
			res.Failed = append(res.Failed, Change{Action: ActionError, Key: c.Key(), Err: err})
			l.logger.Error("deck card failed", "key", c.Key(), "err", err)
			continue
		}
		if recordID == "" {
			continue
		}
		if seen[r.Section] == nil {
			seen[r.Section] = map[string]bool{}
		}
		if seen[r.Section][recordID] {
			continue
		}
		seen[r.Section][recordID] = true
		relations[r.Section] = append(relations[r.Section], recordID)
		res.Linked[r.Section]++
	}

	n := float64(total)
	fields := workspace.Fields{
		l.opts.DecksTitleField: workspace.Title(name),
		FieldDeckName:          workspace.Text(name),
		FieldDecklist:          workspace.Text(deck.Format(listed)),
		FieldCardCount:         workspace.Number(&n),
	}
	for section, field := range sectionFields {
		fields[field] = workspace.Relation(relations[section])
	}
	if err := DeckSchema(l.opts.CardsCollectionID).Validate(l.opts.DecksTitleField, fields); err != nil {
		return res, err
	}

	recordID, found, err := l.store.FindByExternalID(ctx, l.opts.DecksCollectionID, FieldDeckName, name)
	if err != nil {
		return res, fmt.Errorf("look up deck %q: %w", name, err)
	}
	if found {
		if err := l.store.UpdateRecord(ctx, recordID, fields); err != nil {
			return res, fmt.Errorf("update deck %q: %w", name, err)
		}
		res.RecordID = recordID
		l.logger.Info("updated deck", "name", name, "record", recordID)
		return res, nil
	}
	if res.RecordID, err = l.store.CreateRecord(ctx, l.opts.DecksCollectionID, fields); err != nil {
		return res, fmt.Errorf("create deck %q: %w", name, err)
	}
	res.Created = true
	l.logger.Info("created deck", "name", name, "record", res.RecordID)
	return res, nil
}

// cardRecord returns the record ID for c, creating the record when allowed.
// An empty ID with a nil error means the card was left out.
func (l *DeckLinker) cardRecord(ctx context.Context, c card.Card, res *DeckResult) (string, error) {
	if id, ok := l.records[c.ID]; ok {
		return id, nil
	}
	id, found, err := l.store.FindByExternalID(ctx, l.opts.CardsCollectionID, FieldCardID, c.ID)
	if err != nil {
		return "", err
	}
	if !found {
		if !l.opts.CreateMissing {
			res.Missing = append(res.Missing, c.Key())
			l.records[c.ID] = ""
			return "", nil
		}
		fields := FullFields(c, l.opts.CardsTitleField, c.Title(l.opts.Style))
		if id, err = l.store.CreateRecord(ctx, l.opts.CardsCollectionID, fields); err != nil {
			return "", err
		}
		res.CardsCreated++
	}
	l.records[c.ID] = id
	return id, nil
}
