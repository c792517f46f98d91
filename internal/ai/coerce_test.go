package ai

import (
	"testing"
)

type testPlan struct {
	Title    string   `json:"title"`
	Outcomes []string `json:"outcomes"`
	Ready    bool     `json:"ready"`
}

func TestParse_DirectJSON(t *testing.T) {
	input := `{"title": "Launch", "outcomes": ["a", "b"], "ready": true}`

	v, fail := Parse[testPlan](input, "test")
	if fail != nil {
		t.Fatalf("expected successful parse, got: %v", fail)
	}
	if v.Title != "Launch" || len(v.Outcomes) != 2 || !v.Ready {
		t.Errorf("unexpected result: %+v", v)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	_, fail := Parse[testPlan]("", "test")
	if fail == nil {
		t.Fatal("expected failure on empty input")
	}
	if fail.Reason != "empty input" {
		t.Errorf("expected 'empty input', got %q", fail.Reason)
	}
}

func TestParse_CodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"json fence", "```json\n{\"title\": \"Fenced\", \"outcomes\": []}\n```"},
		{"bare fence", "```\n{\"title\": \"Fenced\", \"outcomes\": []}\n```"},
		{"fence without newlines", "```json{\"title\": \"Fenced\", \"outcomes\": []}```"},
		{"fence in prose", "Here is the plan:\n```json\n{\"title\": \"Fenced\", \"outcomes\": []}\n```\nLet me know."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, fail := Parse[testPlan](tt.input, "test")
			if fail != nil {
				t.Fatalf("parse failed: %v", fail)
			}
			if v.Title != "Fenced" {
				t.Errorf("expected title 'Fenced', got %q", v.Title)
			}
		})
	}
}

func TestParse_TrailingCommasAndComments(t *testing.T) {
	input := `{
		// generated plan
		"title": "Messy",
		"outcomes": ["a", "b",],
	}`

	v, fail := Parse[testPlan](input, "test")
	if fail != nil {
		t.Fatalf("parse failed: %v", fail)
	}
	if v.Title != "Messy" || len(v.Outcomes) != 2 {
		t.Errorf("unexpected result: %+v", v)
	}
}

func TestParse_UnquotedKeys(t *testing.T) {
	input := `{title: "Keys", outcomes: []}`

	v, fail := Parse[testPlan](input, "test")
	if fail != nil {
		t.Fatalf("parse failed: %v", fail)
	}
	if v.Title != "Keys" {
		t.Errorf("expected title 'Keys', got %q", v.Title)
	}
}

func TestParse_PythonLiteral(t *testing.T) {
	input := `{'title': 'Pythonic', 'outcomes': ['first', 'second'], 'ready': True}`

	v, fail := Parse[testPlan](input, "test")
	if fail != nil {
		t.Fatalf("parse failed: %v", fail)
	}
	if v.Title != "Pythonic" || len(v.Outcomes) != 2 || !v.Ready {
		t.Errorf("unexpected result: %+v", v)
	}
}

func TestParse_PythonLiteralNoneAndEscapes(t *testing.T) {
	input := `{'title': 'It\'s a "plan"', 'outcomes': None}`

	v, fail := Parse[map[string]any](input, "test")
	if fail != nil {
		t.Fatalf("parse failed: %v", fail)
	}
	if v["title"] != `It's a "plan"` {
		t.Errorf("unexpected title: %q", v["title"])
	}
	if v["outcomes"] != nil {
		t.Errorf("expected nil outcomes, got %v", v["outcomes"])
	}
}

func TestRewritePythonLiteral_LeavesJSONStringsAlone(t *testing.T) {
	input := `{"note": "don't touch True or None in here"}`
	if got := rewritePythonLiteral(input); got != input {
		t.Errorf("double-quoted content was modified: %q", got)
	}
}

func TestParse_MixedContent(t *testing.T) {
	input := `The updated plan follows. {"title": "Embedded", "outcomes": ["x"]} Hope that helps!`

	v, fail := Parse[testPlan](input, "test")
	if fail != nil {
		t.Fatalf("parse failed: %v", fail)
	}
	if v.Title != "Embedded" {
		t.Errorf("expected title 'Embedded', got %q", v.Title)
	}
}

func TestParse_ArrayNotMistakenForElement(t *testing.T) {
	input := `[{"id": 1}, {"id": 2}]`

	v, fail := Parse[[]map[string]any](input, "test")
	if fail != nil {
		t.Fatalf("parse failed: %v", fail)
	}
	if len(v) != 2 {
		t.Errorf("expected 2 elements, got %d", len(v))
	}
}

func TestParse_HopelessInput(t *testing.T) {
	_, fail := Parse[testPlan]("I could not produce a plan for that vision.", "plan generation")
	if fail == nil {
		t.Fatal("expected failure")
	}
	if fail.Context != "plan generation" {
		t.Errorf("context not carried: %+v", fail)
	}
}
