// Package reconcile upserts normalized cards into a workspace collection.
//
// Each card is looked up by its printing ID. Existing records get a minimal
// update that leaves user-edited fields alone, new cards get the full
// payload, and a failure on one card is recorded without stopping the batch.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/arcanaland/cardsync/internal/card"
	"github.com/arcanaland/cardsync/internal/workspace"
)

// DefaultPreviewLimit caps the number of changes kept in a Report preview.
const DefaultPreviewLimit = 16

// Action is the outcome of reconciling one card.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionSkip   Action = "SKIP"
	ActionError  Action = "ERROR"
)

// Change describes what happened (or, in a dry run, would happen) to one card.
type Change struct {
	Action      Action
	Key         string
	Title       string
	Procurement []string
	Err         error
}

func (c Change) String() string {
	if c.Action == ActionError {
		return fmt.Sprintf("ERROR %s: %v", c.Key, c.Err)
	}
	return fmt.Sprintf("%s %s: %q | methods=[%s]", c.Action, c.Key, c.Title, strings.Join(c.Procurement, ", "))
}

// Report holds the counters and the bounded preview of one or more runs.
type Report struct {
	Created int
	Updated int
	Skipped int
	Failed  int
	Preview []Change

	limit int
}

// NewReport returns an empty report keeping at most limit preview entries
// (DefaultPreviewLimit when limit <= 0).
func NewReport(limit int) *Report {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	return &Report{limit: limit}
}

// Total is the number of cards processed.
func (r *Report) Total() int {
	return r.Created + r.Updated + r.Skipped + r.Failed
}

// Add counts ch and appends it to the preview while there is room.
// Skips are counted but not previewed.
func (r *Report) Add(ch Change) {
	switch ch.Action {
	case ActionCreate:
		r.Created++
	case ActionUpdate:
		r.Updated++
	case ActionSkip:
		r.Skipped++
		return
	case ActionError:
		r.Failed++
	}
	if len(r.Preview) < r.limit {
		r.Preview = append(r.Preview, ch)
	}
}

// Merge adds the counters of other and appends its preview up to the limit.
func (r *Report) Merge(other *Report) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	for _, ch := range other.Preview {
		if len(r.Preview) >= r.limit {
			break
		}
		r.Preview = append(r.Preview, ch)
	}
}

// Options configures an Engine.
type Options struct {
	CollectionID string
	// TitleField is the collection's title field name.
	TitleField     string
	Style          card.TitleStyle
	UpdateExisting bool
	// DryRun performs existence checks but no writes.
	DryRun       bool
	PreviewLimit int
	// Schema validates payloads before they are written. Defaults to CardSchema.
	Schema workspace.Schema
}

// Engine reconciles cards against one collection.
type Engine struct {
	store  workspace.Store
	opts   Options
	logger *log.Logger
}

// NewEngine creates an Engine writing through store.
func NewEngine(store workspace.Store, opts Options, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	if opts.TitleField == "" {
		opts.TitleField = "Name"
	}
	if opts.Style == "" {
		opts.Style = card.StyleOracleAlt
	}
	if opts.Schema == nil {
		opts.Schema = CardSchema()
	}
	return &Engine{store: store, opts: opts, logger: logger}
}

// Reconcile upserts cards in order and reports the outcome. A failure on one
// card is counted and previewed; processing stops early only when ctx ends.
func (e *Engine) Reconcile(ctx context.Context, cards []card.Card) *Report {
	report := NewReport(e.opts.PreviewLimit)
	for i, c := range cards {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("reconcile interrupted", "done", i, "remaining", len(cards)-i, "err", err)
			break
		}
		ch, _ := e.Upsert(ctx, c)
		report.Add(ch)
	}
	return report
}

// Upsert reconciles a single card: at most one existence check and one write.
// It returns the change and the ID of the record (empty in a dry run create,
// on skip, or on failure).
func (e *Engine) Upsert(ctx context.Context, c card.Card) (Change, string) {
	title := c.Title(e.opts.Style)
	ch := Change{Key: c.Key(), Title: title, Procurement: c.Procurement}

	fail := func(err error) (Change, string) {
		ch.Action = ActionError
		ch.Err = err
		e.logger.Error("card failed", "key", ch.Key, "id", c.ID, "err", err)
		return ch, ""
	}

	if c.ID == "" {
		return fail(fmt.Errorf("card has no ID"))
	}

	recordID, found, err := e.store.FindByExternalID(ctx, e.opts.CollectionID, FieldCardID, c.ID)
	if err != nil {
		return fail(err)
	}

	if found {
		if !e.opts.UpdateExisting {
			ch.Action = ActionSkip
			e.logger.Debug("skipping existing card", "key", ch.Key)
			return ch, recordID
		}
		ch.Action = ActionUpdate
		if e.opts.DryRun {
			return ch, recordID
		}
		fields := MinimalFields(c, e.opts.TitleField, title)
		if err := e.opts.Schema.Validate(e.opts.TitleField, fields); err != nil {
			return fail(err)
		}
		if err := e.store.UpdateRecord(ctx, recordID, fields); err != nil {
			return fail(err)
		}
		e.logger.Debug("updated card", "key", ch.Key, "record", recordID)
		return ch, recordID
	}

	ch.Action = ActionCreate
	if e.opts.DryRun {
		return ch, ""
	}
	fields := FullFields(c, e.opts.TitleField, title)
	if err := e.opts.Schema.Validate(e.opts.TitleField, fields); err != nil {
		return fail(err)
	}
	recordID, err = e.store.CreateRecord(ctx, e.opts.CollectionID, fields)
	if err != nil {
		return fail(err)
	}
	e.logger.Debug("created card", "key", ch.Key, "record", recordID)
	return ch, recordID
}
