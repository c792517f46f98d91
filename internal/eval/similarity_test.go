package eval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "project plan", "project plan", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "plan", "", 0.0},
		{"shifted overlap", "abcd", "bcde", 0.75},
		{"classic pair", "kitten", "sitting", 8.0 / 13.0},
		{"disjoint", "aaaa", "bbbb", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRatioPopularRunesOnLongInputs(t *testing.T) {
	// With 200+ runes in b, runes filling more than 1% of it no longer
	// anchor matches.
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{
			"popular rune cannot anchor",
			strings.Repeat("z", 100),
			"ab" + strings.Repeat("z", 198),
			0.0,
		},
		{
			"anchored match extends through popular runes",
			"az",
			"a" + strings.Repeat("z", 199),
			4.0 / 202.0,
		},
		{
			"zero-length anchor still extends",
			"x",
			strings.Repeat("x", 200),
			2.0 / 201.0,
		},
		{
			"below the length cutoff nothing is junked",
			strings.Repeat("z", 100),
			"ab" + strings.Repeat("z", 197),
			200.0 / 299.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRatioSymmetricScale(t *testing.T) {
	// A small edit to a long string stays close to 1.0.
	a := "Deliver a unified reporting pipeline across all regional teams"
	b := "Deliver a unified reporting pipeline across all regional teams."
	assert.Greater(t, Ratio(a, b), 0.95)
	assert.Less(t, Ratio(a, b), 1.0)
}

func TestTextify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"number", float64(3), "3"},
		{"bool", true, "true"},
		{"list", []any{"a", "b"}, "a | b"},
		{"dict sorted", map[string]any{"b": "2", "a": "1"}, "a:1 ; b:2"},
		{"nested", []any{map[string]any{"name": "t1", "duration": float64(5)}},
			"duration:5 ; name:t1"},
		{"list of lists", []any{[]any{"x"}, []any{"y", "z"}}, "x | y | z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Textify(tt.in))
		})
	}
}
