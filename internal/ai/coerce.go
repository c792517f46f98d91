package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Model output is JSON in theory and almost-JSON in practice: fenced in
// markdown, trailing commas, comments, or Python-literal syntax (single
// quotes, True/False/None). Parse runs a fixed strategy sequence and
// returns a typed ParseFailure when none of them yields valid JSON; it
// never panics across the package boundary.

var (
	// Fences with an optional language tag, at the edges or anywhere inside.
	fenceEdgeRegex = regexp.MustCompile("(?s)^`{3}(?:json|javascript|js|python)?\\s*\n?([\\s\\S]*?)\n?`{3}\\s*$")
	fenceAnyRegex  = regexp.MustCompile("(?s)`{3}(?:json|javascript|js|python)?\\s*\n?([\\s\\S]*?)\n?`{3}")

	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyRegex   = regexp.MustCompile(`([{,]\s*)([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	lineCommentRegex   = regexp.MustCompile(`(?m)//.*$`)
	blockCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// Greedy so nested structures are captured whole.
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	arrayRegex  = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
)

// maxParseInput caps input size to prevent pathological regexp work.
const maxParseInput = 10 * 1024 * 1024

// ParseFailure describes why model output could not be coerced into the
// requested type.
type ParseFailure struct {
	Reason  string
	Context string // caller-supplied label, e.g. "plan generation response"
	Snippet string // truncated original text for diagnostics
}

func (f *ParseFailure) Error() string {
	if f.Context != "" {
		return fmt.Sprintf("%s: %s", f.Context, f.Reason)
	}
	return f.Reason
}

// Parse coerces model output into T. Strategy sequence:
//
//  1. strip code fences
//  2. strict JSON parse
//  3. cleanup pass (trailing commas, unquoted keys, comments) and reparse
//  4. Python-literal rewrite (single quotes, True/False/None) and reparse
//  5. extract the outermost JSON object/array from mixed content and reparse
//
// The context string labels failures in errors and logs.
func Parse[T any](text, context string) (T, *ParseFailure) {
	var zero T

	if len(text) > maxParseInput {
		return zero, failure(context, fmt.Sprintf("input exceeds size limit (%d > %d bytes)", len(text), maxParseInput), text)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return zero, failure(context, "empty input", text)
	}

	unfenced := stripCodeFences(trimmed)
	if v, err := tryParse[T](unfenced); err == nil {
		return v, nil
	} else {
		slog.Debug("strict JSON parse failed, trying coercion strategies",
			"error", err.Error(), "context", context)
	}

	cleaned := cleanupJSON(unfenced)
	if v, err := tryParse[T](cleaned); err == nil {
		return v, nil
	}

	literal := rewritePythonLiteral(cleaned)
	if literal != cleaned {
		if v, err := tryParse[T](literal); err == nil {
			return v, nil
		}
	}

	if extracted := extractJSON(literal); extracted != "" {
		if v, err := tryParse[T](extracted); err == nil {
			return v, nil
		}
	}

	return zero, failure(context, "all JSON coercion strategies failed", text)
}

func tryParse[T any](text string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(text), &v)
	return v, err
}

func failure(context, reason, text string) *ParseFailure {
	snippet := text
	if len(snippet) > 500 {
		snippet = snippet[:500] + "..."
	}
	return &ParseFailure{Reason: reason, Context: context, Snippet: snippet}
}

// stripCodeFences removes markdown code fences, preferring a whole-string
// fence over one embedded in surrounding prose.
func stripCodeFences(text string) string {
	cleaned := fenceEdgeRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		cleaned = fenceAnyRegex.ReplaceAllString(text, "$1")
	}
	if strings.HasPrefix(cleaned, "`") && strings.HasSuffix(cleaned, "`") {
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "`"), "`")
	}
	return strings.TrimSpace(cleaned)
}

// cleanupJSON fixes trailing commas, unquoted keys, and comments. Single
// quotes are not touched here: that would corrupt valid JSON containing
// apostrophes. The Python-literal rewrite handles quoting separately with
// a real scanner.
func cleanupJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")
	cleaned = unquotedKeyRegex.ReplaceAllString(cleaned, `$1"$2":`)
	cleaned = lineCommentRegex.ReplaceAllString(cleaned, "")
	cleaned = blockCommentRegex.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// rewritePythonLiteral converts Python dict/list literal syntax to JSON:
// single-quoted strings become double-quoted (escaping embedded double
// quotes), and the bare constants True/False/None become true/false/null.
// Text inside double-quoted strings is left untouched.
func rewritePythonLiteral(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	const (
		code = iota
		inSingle
		inDouble
	)
	state := code

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch state {
		case code:
			switch ch {
			case '\'':
				state = inSingle
				b.WriteRune('"')
			case '"':
				state = inDouble
				b.WriteRune('"')
			case 'T', 'F', 'N':
				if word, ok := bareWordAt(runes, i); ok {
					switch word {
					case "True":
						b.WriteString("true")
						i += 3
						continue
					case "False":
						b.WriteString("false")
						i += 4
						continue
					case "None":
						b.WriteString("null")
						i += 3
						continue
					}
				}
				b.WriteRune(ch)
			default:
				b.WriteRune(ch)
			}
		case inSingle:
			switch ch {
			case '\\':
				if i+1 < len(runes) {
					next := runes[i+1]
					if next == '\'' {
						// \' inside a single-quoted string needs no escape in JSON
						b.WriteRune('\'')
					} else {
						b.WriteRune('\\')
						b.WriteRune(next)
					}
					i++
				} else {
					b.WriteRune('\\')
				}
			case '\'':
				state = code
				b.WriteRune('"')
			case '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(ch)
			}
		case inDouble:
			switch ch {
			case '\\':
				b.WriteRune('\\')
				if i+1 < len(runes) {
					b.WriteRune(runes[i+1])
					i++
				}
			case '"':
				state = code
				b.WriteRune('"')
			default:
				b.WriteRune(ch)
			}
		}
	}
	return b.String()
}

// bareWordAt reports the identifier starting at i when it is not part of a
// longer identifier.
func bareWordAt(runes []rune, i int) (string, bool) {
	if i > 0 && isIdentRune(runes[i-1]) {
		return "", false
	}
	j := i
	for j < len(runes) && isIdentRune(runes[j]) {
		j++
	}
	return string(runes[i:j]), true
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// extractJSON pulls the outermost JSON object or array out of mixed
// content. The first-character check keeps an array from being mistaken
// for its first element.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '[':
			if match := arrayRegex.FindString(text); match != "" {
				return match
			}
		case '{':
			if match := objectRegex.FindString(text); match != "" {
				return match
			}
		}
	}
	if match := objectRegex.FindString(text); match != "" {
		return match
	}
	return arrayRegex.FindString(text)
}
