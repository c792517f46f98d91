package eval

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenRegex = regexp.MustCompile(`[a-z0-9]+`)

// tokenSet lowercases s and splits it into alphanumeric tokens.
func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range tokenRegex.FindAllString(strings.ToLower(s), -1) {
		out[tok] = struct{}{}
	}
	return out
}

// itemSet normalizes a list-valued section: each string item becomes its
// sorted token join, so wording order inside an item does not matter, while
// distinct items stay distinct set members.
func itemSet(items any) map[string]struct{} {
	out := make(map[string]struct{})
	list, ok := items.([]any)
	if !ok {
		return out
	}
	for _, item := range list {
		if s, ok := item.(string); ok {
			toks := make([]string, 0, 8)
			for t := range tokenSet(s) {
				toks = append(toks, t)
			}
			sort.Strings(toks)
			out[strings.Join(toks, " ")] = struct{}{}
		} else {
			out[Textify(item)] = struct{}{}
		}
	}
	return out
}

// Jaccard is set overlap: |a∩b| / |a∪b|. Two empty sets are identical.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Stats summarizes a list of similarity values. Valid is false when there
// were no values at all.
type Stats struct {
	Mean  float64
	Std   float64 // population standard deviation
	Min   float64
	Max   float64
	Valid bool
}

func summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	var sum float64
	min, max := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	var std float64
	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			d := v - mean
			sq += d * d
		}
		std = math.Sqrt(sq / float64(len(values)))
	}
	return Stats{Mean: mean, Std: std, Min: min, Max: max, Valid: true}
}

// BatchSimilarity holds per-section pairwise similarity across a batch of
// repeated generations for the same prompt.
type BatchSimilarity struct {
	Vision       Stats
	Outcomes     Stats
	Benefits     Stats
	Deliverables Stats
	Tasks        Stats
	Pairs        int
}

// CompareBatch measures output diversity over documents generated from
// identical prompts: every valid pair is compared section by section with
// Jaccard over normalized token sets. Nil entries (failed parses) are
// skipped. A batch with exactly one valid document is perfectly
// self-consistent and reports 1.0 across the board.
func CompareBatch(docs []Document) BatchSimilarity {
	var valid []Document
	for _, d := range docs {
		if d != nil {
			valid = append(valid, d)
		}
	}
	if len(valid) == 1 {
		perfect := Stats{Mean: 1.0, Std: 0.0, Min: 1.0, Max: 1.0, Valid: true}
		return BatchSimilarity{
			Vision: perfect, Outcomes: perfect, Benefits: perfect,
			Deliverables: perfect, Tasks: perfect,
		}
	}

	var vis, outs, bens, dels, tasks []float64
	for i := 0; i < len(valid); i++ {
		for j := i + 1; j < len(valid); j++ {
			a, b := valid[i], valid[j]
			vis = append(vis, Jaccard(tokenSet(Textify(a["vision"])), tokenSet(Textify(b["vision"]))))
			outs = append(outs, Jaccard(itemSet(a["outcomes"]), itemSet(b["outcomes"])))
			bens = append(bens, Jaccard(itemSet(a["benefits"]), itemSet(b["benefits"])))
			dels = append(dels, Jaccard(itemSet(a["deliverables"]), itemSet(b["deliverables"])))
			tasks = append(tasks, Jaccard(itemSet(a["tasks"]), itemSet(b["tasks"])))
		}
	}
	return BatchSimilarity{
		Vision:       summarize(vis),
		Outcomes:     summarize(outs),
		Benefits:     summarize(bens),
		Deliverables: summarize(dels),
		Tasks:        summarize(tasks),
		Pairs:        len(vis),
	}
}
