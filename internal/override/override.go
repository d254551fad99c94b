// Package override loads user-maintained per-card corrections and merges
// them onto normalized cards.
//
// An override file maps either a composite "SET-collector_number" key or a
// Scryfall printing ID to an entry:
//
//	{
//	  "FIN-101a": {"title": "Cloud — Ex-SOLDIER"},
//	  "1a2b...":  {"procurement": ["Collector Booster"]}
//	}
//
// JSON and YAML files are both accepted; the format follows the file extension.
package override

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arcanaland/cardsync/internal/card"
)

// DefaultFile is the override file looked up in the working directory.
const DefaultFile = "overrides.json"

// Entry is one override. Nil fields leave the card untouched.
type Entry struct {
	Title       *string
	Procurement []string // nil means "not overridden"; non-nil replaces the card's methods
}

// Set holds overrides keyed by composite key or printing ID.
type Set map[string]Entry

// Load reads the override file at path. A missing, unreadable or malformed
// file yields an empty Set; entries with wrongly typed fields are ignored field by field.
func Load(path string) Set {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}
	}
	raw, err := Decode(path, data)
	if err != nil {
		return Set{}
	}
	return FromMap(raw)
}

// Decode parses override file contents into a generic top-level mapping.
func Decode(path string, data []byte) (map[string]any, error) {
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	if raw == nil {
		return nil, errors.New("override file must contain an object at the top level")
	}
	return raw, nil
}

// FromMap converts a decoded mapping into a Set, skipping values that are not objects.
func FromMap(raw map[string]any) Set {
	set := make(Set, len(raw))
	for key, v := range raw {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		var e Entry
		if title, ok := obj["title"].(string); ok {
			e.Title = &title
		}
		if list, ok := obj["procurement"].([]any); ok {
			e.Procurement = normalizeMethods(list)
		}
		set[key] = e
	}
	return set
}

// Apply returns a copy of c with the matching overrides merged in. The
// composite key entry is applied first and the printing ID entry second, so
// ID-keyed values win when both are present. Applying twice equals applying once.
func (s Set) Apply(c card.Card) card.Card {
	out := c
	if e, ok := s[c.Key()]; ok {
		out = e.apply(out)
	}
	if c.ID != "" {
		if e, ok := s[c.ID]; ok {
			out = e.apply(out)
		}
	}
	return out
}

func (e Entry) apply(c card.Card) card.Card {
	if e.Procurement != nil {
		c.Procurement = append([]string{}, e.Procurement...)
	}
	if e.Title != nil {
		c.TitleOverride = *e.Title
	}
	return c
}

// normalizeMethods stringifies, deduplicates and sorts procurement labels.
func normalizeMethods(list []any) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range list {
		s := fmt.Sprint(v)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
