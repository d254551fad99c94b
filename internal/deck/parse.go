// Package deck parses plain-text deck lists and resolves each line to a
// concrete printing.
package deck

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Section is the part of a deck a line belongs to.
type Section string

const (
	SectionMain      Section = "main"
	SectionSideboard Section = "sideboard"
	SectionCommand   Section = "command"
)

// Item is one parsed deck-list line.
type Item struct {
	Count   int
	Name    string
	Section Section
}

var lineRE = regexp.MustCompile(`^(\d+)[xX]?\s+(.+)`)

// LineKind classifies a single deck-list line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineHeader
	LineCard
	LineIgnored
)

// ParseLine classifies one line. For LineHeader the returned item's Section
// is the section switched to; for LineCard the item has Count and Name set
// and no Section.
func ParseLine(line string) (LineKind, Item) {
	line = strings.TrimSpace(line)
	if line == "" {
		return LineBlank, Item{}
	}
	if strings.HasPrefix(line, "//") {
		return LineComment, Item{}
	}
	if next, ok := sectionHeader(line); ok {
		return LineHeader, Item{Section: next}
	}
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return LineIgnored, Item{}
	}
	count, err := strconv.Atoi(m[1])
	if err != nil {
		return LineIgnored, Item{}
	}
	return LineCard, Item{Count: count, Name: strings.TrimSpace(m[2])}
}

// Parse tokenizes a deck list. Blank lines and "//" comments are skipped,
// "Sideboard" and "Commander"/"Command"/"Companion" headers switch the
// current section, and "<count>[x] <name>" lines become items. Anything else
// is ignored.
func Parse(text string) []Item {
	var items []Item
	section := SectionMain

	for _, line := range Lines(text) {
		kind, it := ParseLine(line)
		switch kind {
		case LineHeader:
			section = it.Section
		case LineCard:
			it.Section = section
			items = append(items, it)
		}
	}
	return items
}

var lineBreakRE = regexp.MustCompile(`\r\n|\r|\n`)

// Lines splits text on any of "\r\n", "\r" or "\n". Lines have no length limit.
func Lines(text string) []string {
	return lineBreakRE.Split(text, -1)
}

func sectionHeader(line string) (Section, bool) {
	low := strings.ToLower(line)
	switch {
	case strings.HasPrefix(low, "sideboard"):
		return SectionSideboard, true
	case strings.HasPrefix(low, "commander"), strings.HasPrefix(low, "command"), strings.HasPrefix(low, "companion"):
		return SectionCommand, true
	}
	return "", false
}

var sectionHeaders = map[Section]string{
	SectionSideboard: "Sideboard",
	SectionCommand:   "Commander",
}

// Format renders items as a deck list that Parse reads back: main-deck lines
// first, then the sideboard and command sections under their headers.
func Format(items []Item) string {
	var b strings.Builder
	for _, section := range []Section{SectionMain, SectionSideboard, SectionCommand} {
		header := false
		for _, it := range items {
			if it.Section != section {
				continue
			}
			if !header && section != SectionMain {
				if b.Len() > 0 {
					b.WriteString("\n")
				}
				b.WriteString(sectionHeaders[section] + "\n")
			}
			header = true
			fmt.Fprintf(&b, "%d %s\n", it.Count, it.Name)
		}
	}
	return b.String()
}
