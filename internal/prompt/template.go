// Package prompt renders user-authored prompt templates and composes the
// system instructions for generative columns.
package prompt

import "strings"

// FieldResolver maps a record to its named field values. Keys must be
// lowercased; lookup of a placeholder tries the lowercased identifier here
// first.
type FieldResolver func(record map[string]any) map[string]any

// Render substitutes {{identifier}} placeholders in template with values from
// the record. Resolution order per placeholder: the lowercased identifier in
// the resolver's field map, then the verbatim identifier as a raw record key,
// then the empty string. Placeholders are replaced in one left-to-right pass
// with no recursive expansion.
func Render(template string, record map[string]any, resolver FieldResolver) string {
	var fields map[string]any
	if resolver != nil {
		fields = resolver(record)
	}

	var b strings.Builder
	b.Grow(len(template))

	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			b.WriteString(rest)
			break
		}

		b.WriteString(rest[:start])
		ident := rest[start+2 : start+2+end]
		b.WriteString(lookup(ident, fields, record))
		rest = rest[start+2+end+2:]
	}

	return b.String()
}

func lookup(ident string, fields map[string]any, record map[string]any) string {
	if v, ok := fields[strings.ToLower(ident)]; ok {
		return stringify(v)
	}
	if v, ok := record[ident]; ok {
		return stringify(v)
	}
	return ""
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return toString(v)
	}
}
