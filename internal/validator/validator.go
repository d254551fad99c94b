package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/arcanaland/cardsync/internal/card"
	"github.com/arcanaland/cardsync/internal/deck"
	"github.com/arcanaland/cardsync/internal/override"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// Validator checks an override file or a deck list before it is used.
// Both inputs degrade silently at sync time; the validator reports what
// would be ignored.
type Validator struct {
	Path    string
	Results ValidationResults
}

func NewValidator(path string) *Validator {
	return &Validator{
		Path:    path,
		Results: ValidationResults{},
	}
}

// IsOverrideFile reports whether path names an override file rather than a deck list.
func IsOverrideFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func (v *Validator) Validate() (ValidationResults, error) {
	data, err := os.ReadFile(v.Path)
	if err != nil {
		return v.Results, fmt.Errorf("error reading %s: %w", v.Path, err)
	}
	if IsOverrideFile(v.Path) {
		if err := v.validateOverrides(data); err != nil {
			return v.Results, err
		}
		return v.Results, nil
	}
	v.validateDeckList(data)
	return v.Results, nil
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

var compositeKeyRE = regexp.MustCompile(`^([A-Za-z0-9]{2,6})-(\S+)$`)

func (v *Validator) validateOverrides(data []byte) error {
	raw, err := override.Decode(v.Path, data)
	if err != nil {
		return fmt.Errorf("error parsing overrides file: %w", err)
	}
	if len(raw) == 0 {
		v.warnf("override file has no entries")
		return nil
	}

	known := map[string]bool{}
	for _, m := range card.KnownProcurementMethods() {
		known[m] = true
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v.validateOverrideKey(key)

		entry, ok := raw[key].(map[string]any)
		if !ok {
			v.errorf("%s: entry must be an object", key)
			continue
		}
		effective := false
		for field, value := range entry {
			switch field {
			case "title":
				effective = true
				s, ok := value.(string)
				if !ok {
					v.errorf("%s: title must be a string", key)
					continue
				}
				if strings.TrimSpace(s) == "" {
					v.warnf("%s: empty title override", key)
				}
			case "procurement":
				effective = true
				list, ok := value.([]any)
				if !ok {
					v.errorf("%s: procurement must be a list", key)
					continue
				}
				for _, item := range list {
					label, ok := item.(string)
					if !ok {
						v.warnf("%s: procurement entry %v is not a string", key, item)
						continue
					}
					if !known[label] {
						v.warnf("%s: unknown procurement label %q", key, label)
					}
				}
			default:
				v.warnf("%s: unknown field %q is ignored", key, field)
			}
		}
		if !effective {
			v.warnf("%s: entry has no title or procurement and does nothing", key)
		}
	}
	return nil
}

func (v *Validator) validateOverrideKey(key string) {
	if _, err := uuid.Parse(key); err == nil {
		if strings.ToLower(key) != key {
			v.warnf("%s: card IDs are matched in lower case", key)
		}
		return
	}
	m := compositeKeyRE.FindStringSubmatch(key)
	if m == nil {
		v.errorf("%s: key is neither SET-collector_number nor a card ID", key)
		return
	}
	if strings.ToUpper(m[1]) != m[1] {
		v.warnf("%s: set codes are matched in upper case (%s-%s)", key, strings.ToUpper(m[1]), m[2])
	}
}

func (v *Validator) validateDeckList(data []byte) {
	counts := map[deck.Section]int{}
	cards := 0
	section := deck.SectionMain

	for i, line := range deck.Lines(string(data)) {
		n := i + 1
		kind, item := deck.ParseLine(line)
		switch kind {
		case deck.LineHeader:
			section = item.Section
		case deck.LineIgnored:
			v.warnf("line %d is not a card line and is ignored: %q", n, strings.TrimSpace(line))
		case deck.LineCard:
			if item.Count <= 0 {
				v.errorf("line %d: count must be positive", n)
				continue
			}
			cards++
			counts[section] += item.Count
		}
	}
	if cards == 0 {
		v.errorf("no card lines found")
		return
	}
	if counts[deck.SectionSideboard] > 15 {
		v.warnf("sideboard has %d cards (more than 15)", counts[deck.SectionSideboard])
	}
}
