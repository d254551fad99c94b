package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/arcanaland/cardsync/internal/deck"
	"github.com/arcanaland/cardsync/internal/reconcile"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	missStyle   = cellStyle.Foreground(lipgloss.Color("1"))
)

func actionColor(a reconcile.Action) *color.Color {
	switch a {
	case reconcile.ActionCreate:
		return okColor
	case reconcile.ActionUpdate:
		return warnColor
	case reconcile.ActionError:
		return errColor
	}
	return color.New(color.Reset)
}

// printSetSummary prints the one-line outcome of a single set.
func printSetSummary(w io.Writer, set string, r *reconcile.Report) {
	fmt.Fprintf(w, "%s: %d cards, created=%d updated=%d skipped=%d failed=%d\n",
		set, r.Total(), r.Created, r.Updated, r.Skipped, r.Failed)
}

// printReport prints the change preview followed by the totals.
func printReport(w io.Writer, r *reconcile.Report, dryRun bool) {
	if len(r.Preview) > 0 {
		fmt.Fprintln(w, "--- PREVIEW (first changes) ---")
		for _, ch := range r.Preview {
			actionColor(ch.Action).Fprintln(w, ch.String())
		}
	}
	prefix := ""
	if dryRun {
		prefix = "[dry run] "
	}
	totals := fmt.Sprintf("%screated=%d updated=%d skipped=%d failed=%d", prefix, r.Created, r.Updated, r.Skipped, r.Failed)
	if r.Failed > 0 {
		errColor.Fprintln(w, totals)
		return
	}
	okColor.Fprintln(w, totals)
}

// resolutionTable renders resolved deck lines. Unresolved lines are shown in red.
func resolutionTable(resolutions []deck.Resolution) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Qty", "Name", "Set", "CN", "Section", "Status")

	missing := map[int]bool{}
	for i, r := range resolutions {
		set, cn, status := "", "", "ok"
		name := r.Name
		if r.Resolved() {
			set, cn, name = r.Card.Set, r.Card.CollectorNumber, r.Card.Name
		} else {
			missing[i] = true
			status = "not found"
			if r.Err != nil {
				status = r.Err.Error()
			}
		}
		t.Row(strconv.Itoa(r.Count), name, set, cn, string(r.Section), status)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case missing[row]:
			return missStyle
		}
		return cellStyle
	})
	return t.String()
}

// itemTable renders parsed, unresolved deck lines.
func itemTable(items []deck.Item) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Qty", "Name", "Section").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, it := range items {
		t.Row(strconv.Itoa(it.Count), it.Name, string(it.Section))
	}
	return t.String()
}
