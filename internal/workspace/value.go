package workspace

import (
	"fmt"
	"sort"
)

// Kind is the type of a record field.
type Kind string

const (
	KindTitle       Kind = "title"
	KindText        Kind = "rich_text"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi_select"
	KindNumber      Kind = "number"
	KindURL         Kind = "url"
	KindDate        Kind = "date"
	KindFiles       Kind = "files"
	KindRelation    Kind = "relation"
)

// Value is a tagged field value. Which payload field is meaningful depends on Kind:
// Text for title, text, select, url and date; Items for multi-select names,
// file URLs and relation record IDs; Number for numbers.
// An empty Text or nil Number clears the field.
type Value struct {
	Kind   Kind
	Text   string
	Items  []string
	Number *float64
}

func Title(s string) Value  { return Value{Kind: KindTitle, Text: s} }
func Text(s string) Value   { return Value{Kind: KindText, Text: s} }
func Select(s string) Value { return Value{Kind: KindSelect, Text: s} }
func URL(s string) Value    { return Value{Kind: KindURL, Text: s} }

// Date holds an ISO-8601 date ("2023-01-01").
func Date(s string) Value { return Value{Kind: KindDate, Text: s} }

func Number(n *float64) Value { return Value{Kind: KindNumber, Number: n} }

func MultiSelect(names []string) Value {
	return Value{Kind: KindMultiSelect, Items: append([]string{}, names...)}
}

// Files references externally hosted files by URL.
func Files(urls []string) Value {
	return Value{Kind: KindFiles, Items: append([]string{}, urls...)}
}

// Relation links to other records by record ID.
func Relation(ids []string) Value {
	return Value{Kind: KindRelation, Items: append([]string{}, ids...)}
}

// Empty reports whether v carries no data.
func (v Value) Empty() bool {
	return v.Text == "" && len(v.Items) == 0 && v.Number == nil
}

// Fields is a record payload keyed by field name.
type Fields map[string]Value

// Names returns the field names in sorted order.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field describes one field of a collection schema. Target names the
// collection a relation field points at.
type Field struct {
	Name   string
	Kind   Kind
	Target string
}

// Schema is the ordered field list of a collection, excluding its title field.
type Schema []Field

// Lookup returns the field called name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks that fields holds exactly one title value, named
// titleField, and that every other value matches the schema's kind for its name.
func (s Schema) Validate(titleField string, fields Fields) error {
	titles := 0
	for _, name := range fields.Names() {
		v := fields[name]
		if v.Kind == KindTitle {
			if name != titleField {
				return fmt.Errorf("title value set on %q, want %q", name, titleField)
			}
			titles++
			continue
		}
		f, ok := s.Lookup(name)
		if !ok {
			return fmt.Errorf("field %q is not in the schema", name)
		}
		if f.Kind != v.Kind {
			return fmt.Errorf("field %q is %s, got %s value", name, f.Kind, v.Kind)
		}
	}
	if titles != 1 {
		return fmt.Errorf("payload must set the title field %q", titleField)
	}
	return nil
}
