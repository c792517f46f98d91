// Package eval is the offline evaluation harness: completeness and
// propagation checks over exported plan documents, output-diversity
// measurement across repeated generations, and latency, token and cost
// accounting for the generation service.
package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// RequiredTags are the top-level sections every exported plan document must
// carry to count as complete.
var RequiredTags = []string{"Vision", "Outcomes", "Benefits", "Deliverables", "Tasks"}

// Document is a parsed plan export. Shapes vary between exporters, so it is
// kept schemaless and inspected with Textify.
type Document map[string]any

// ReadDocument parses a JSON plan export from disk.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Textify flattens any JSON value into a canonical comparable string:
// lists join with " | ", objects join "key:value" pairs with " ; " in key
// order. The same flattening on both sides of a comparison is what matters,
// not the exact separator choice.
func Textify(x any) string {
	switch v := x.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = Textify(item)
		}
		return strings.Join(parts, " | ")
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + Textify(v[k])
		}
		return strings.Join(parts, " ; ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// isEmptyValue reports whether a document value counts as missing: nil,
// empty string, or empty list.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}
	return false
}
