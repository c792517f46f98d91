package export

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// RowsFromAny normalizes the JSON shapes models actually return into a
// header-plus-rows table:
//   - a list of objects becomes a table with the union-of-first-object keys
//     as header (sorted for determinism)
//   - a list of lists is taken as-is
//   - a flat object becomes Field/Value rows
//   - a string is re-parsed as JSON, or kept as a one-cell Text table
//
// Returns nil for shapes that cannot be tabled, so callers can fall back.
func RowsFromAny(data any) [][]string {
	if data == nil {
		return nil
	}

	if s, ok := data.(string); ok {
		txt := stripFences(s)
		if txt == "" {
			return nil
		}
		var parsed any
		if err := json.Unmarshal([]byte(txt), &parsed); err != nil {
			return [][]string{{"Text"}, {txt}}
		}
		data = parsed
	}

	switch v := data.(type) {
	case []any:
		if len(v) == 0 {
			return nil
		}
		switch v[0].(type) {
		case map[string]any:
			first := v[0].(map[string]any)
			headers := make([]string, 0, len(first))
			for k := range first {
				headers = append(headers, k)
			}
			sort.Strings(headers)

			rows := [][]string{headers}
			for _, item := range v {
				d, ok := item.(map[string]any)
				if !ok {
					continue
				}
				row := make([]string, len(headers))
				for i, h := range headers {
					row[i] = cellString(d[h])
				}
				rows = append(rows, row)
			}
			return rows
		case []any:
			rows := make([][]string, 0, len(v))
			for _, item := range v {
				inner, ok := item.([]any)
				if !ok {
					continue
				}
				row := make([]string, len(inner))
				for i, cell := range inner {
					row[i] = cellString(cell)
				}
				rows = append(rows, row)
			}
			return rows
		}
		return nil

	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := [][]string{{"Field", "Value"}}
		for _, k := range keys {
			rows = append(rows, []string{k, cellString(v[k])})
		}
		return rows
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) >= 2 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
	}
	return s
}

// cellString renders a JSON value as one table cell.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = cellString(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + cellString(t[k])
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}
