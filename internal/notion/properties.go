package notion

import (
	"github.com/arcanaland/cardsync/internal/workspace"
)

// maxTextLen is Notion's limit for the content of a single text object.
const maxTextLen = 2000

func textObject(s string) map[string]any {
	return map[string]any{"type": "text", "text": map[string]any{"content": s}}
}

// richText splits s into text objects of at most maxTextLen characters.
func richText(s string) []any {
	out := []any{}
	runes := []rune(s)
	for len(runes) > 0 {
		n := min(len(runes), maxTextLen)
		out = append(out, textObject(string(runes[:n])))
		runes = runes[n:]
	}
	return out
}

// encodeValue renders a typed value as a Notion property value.
func encodeValue(v workspace.Value) map[string]any {
	switch v.Kind {
	case workspace.KindTitle:
		return map[string]any{"title": richText(v.Text)}
	case workspace.KindText:
		return map[string]any{"rich_text": richText(v.Text)}
	case workspace.KindSelect:
		if v.Text == "" {
			return map[string]any{"select": nil}
		}
		return map[string]any{"select": map[string]any{"name": v.Text}}
	case workspace.KindMultiSelect:
		opts := make([]any, 0, len(v.Items))
		for _, name := range v.Items {
			opts = append(opts, map[string]any{"name": name})
		}
		return map[string]any{"multi_select": opts}
	case workspace.KindNumber:
		if v.Number == nil {
			return map[string]any{"number": nil}
		}
		return map[string]any{"number": *v.Number}
	case workspace.KindURL:
		if v.Text == "" {
			return map[string]any{"url": nil}
		}
		return map[string]any{"url": v.Text}
	case workspace.KindDate:
		if v.Text == "" {
			return map[string]any{"date": nil}
		}
		return map[string]any{"date": map[string]any{"start": v.Text}}
	case workspace.KindFiles:
		files := make([]any, 0, len(v.Items))
		for _, u := range v.Items {
			files = append(files, map[string]any{
				"type":     "external",
				"name":     "image",
				"external": map[string]any{"url": u},
			})
		}
		return map[string]any{"files": files}
	case workspace.KindRelation:
		rel := make([]any, 0, len(v.Items))
		for _, id := range v.Items {
			rel = append(rel, map[string]any{"id": id})
		}
		return map[string]any{"relation": rel}
	}
	return map[string]any{}
}

func encodeFields(fields workspace.Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		out[name] = encodeValue(v)
	}
	return out
}

// schemaProperties renders schema fields as Notion property definitions.
func schemaProperties(schema workspace.Schema) map[string]any {
	out := make(map[string]any, len(schema))
	for _, f := range schema {
		if f.Kind == workspace.KindRelation {
			out[f.Name] = map[string]any{"relation": map[string]any{
				"database_id":     f.Target,
				"single_property": map[string]any{},
			}}
			continue
		}
		out[f.Name] = map[string]any{string(f.Kind): map[string]any{}}
	}
	return out
}
