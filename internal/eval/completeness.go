package eval

import (
	"math"
	"path/filepath"
	"sort"
	"strings"
)

// CompletenessRow is one file's verdict in the completeness report.
type CompletenessRow struct {
	File        string
	Status      string // "OK", "MISSING", or "ERROR"
	MissingTags string // comma-joined tags, or the error message on ERROR
	Notes       string
}

// CompletenessResult summarizes a completeness run over a directory of
// exported plan documents.
type CompletenessResult struct {
	TotalFiles      int
	CompleteCount   int
	CompletenessPct float64
	Rows            []CompletenessRow
}

// CheckCompleteness reports whether a document carries every required tag
// with a non-empty value, and which tags are missing.
func CheckCompleteness(doc Document) (bool, []string) {
	var missing []string
	for _, tag := range RequiredTags {
		v, ok := doc[tag]
		if !ok || isEmptyValue(v) {
			missing = append(missing, tag)
		}
	}
	return len(missing) == 0, missing
}

// RunCompleteness checks every *.json file in outputDir. Unreadable files
// become ERROR rows rather than aborting the run.
func RunCompleteness(outputDir string) (*CompletenessResult, error) {
	paths, err := filepath.Glob(filepath.Join(outputDir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	result := &CompletenessResult{TotalFiles: len(paths)}
	for _, path := range paths {
		name := filepath.Base(path)
		doc, err := ReadDocument(path)
		if err != nil {
			result.Rows = append(result.Rows, CompletenessRow{File: name, Status: "ERROR", MissingTags: err.Error()})
			continue
		}
		ok, missing := CheckCompleteness(doc)
		if ok {
			result.CompleteCount++
			result.Rows = append(result.Rows, CompletenessRow{File: name, Status: "OK"})
		} else {
			result.Rows = append(result.Rows, CompletenessRow{
				File:        name,
				Status:      "MISSING",
				MissingTags: strings.Join(missing, ","),
			})
		}
	}
	if result.TotalFiles > 0 {
		result.CompletenessPct = round2(100.0 * float64(result.CompleteCount) / float64(result.TotalFiles))
	}
	return result, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
