package eval

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Similarity thresholds for the propagation check. An upstream edit counts
// as material when the before/after similarity of the edited section drops
// below the "changed" threshold; the check then requires the downstream
// sections to have moved as well.
const (
	visionChangedSimTh       = 0.80
	downstreamChangedSimTh   = 0.95
	tasksChangedSimTh        = 0.85
	deliverablesChangedSimTh = 0.95
)

// Edit pair kinds understood by the propagation check.
const (
	UpdateVisionEdit = "vision_edit"
	UpdateTasksEdit  = "tasks_edit"
)

// PropagationRow is one before/after pair's verdict.
type PropagationRow struct {
	ID         string
	UpdateType string
	Result     string // "PASS", "FAIL", or "ERROR"
	Error      string
	Metric1    string
	Metric2    string
	Metric3    string
}

// PropagationResult summarizes a propagation run.
type PropagationResult struct {
	PairsTotal int
	Passed     int
	PassedPct  float64
	DetailRows []PropagationRow
}

// RunPropagation evaluates the before/after document pairs listed in
// pairsCSV. The reader is deliberately forgiving: it strips BOMs, lowercases
// headers, trims whitespace, resolves relative paths against the CSV's
// directory and its parent, and turns per-row problems into ERROR rows
// instead of aborting. A missing pairs file yields an empty result.
func RunPropagation(pairsCSV string) (*PropagationResult, error) {
	f, err := os.Open(pairsCSV)
	if err != nil {
		if os.IsNotExist(err) {
			return &PropagationResult{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return runPropagation(f, filepath.Dir(pairsCSV))
}

func runPropagation(r io.Reader, baseDir string) (*PropagationResult, error) {
	result := &PropagationResult{}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[normalizeHeader(h)] = i
	}
	var missingCols []string
	for _, need := range []string{"id", "update_type", "before_path", "after_path"} {
		if _, ok := col[need]; !ok {
			missingCols = append(missingCols, need)
		}
	}
	if len(missingCols) > 0 {
		result.DetailRows = append(result.DetailRows, PropagationRow{
			ID: "?", UpdateType: "?", Result: "ERROR",
			Error: "Missing columns: " + strings.Join(missingCols, ", "),
		})
		return result, nil
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.PairsTotal++
			result.DetailRows = append(result.DetailRows, PropagationRow{
				ID: "?", UpdateType: "?", Result: "ERROR", Error: err.Error(),
			})
			continue
		}

		result.PairsTotal++
		field := func(name string) string {
			i := col[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		row := checkPair(field("id"), field("update_type"), field("before_path"), field("after_path"), baseDir)
		if row.Result == "PASS" {
			result.Passed++
		}
		result.DetailRows = append(result.DetailRows, row)
	}

	if result.PairsTotal > 0 {
		result.PassedPct = round2(100.0 * float64(result.Passed) / float64(result.PairsTotal))
	}
	return result, nil
}

func checkPair(id, updateType, beforePath, afterPath, baseDir string) PropagationRow {
	var errs []string
	if id == "" {
		errs = append(errs, "missing id")
	}
	if updateType == "" {
		errs = append(errs, "missing update_type")
	}
	if beforePath == "" {
		errs = append(errs, "missing before_path")
	}
	if afterPath == "" {
		errs = append(errs, "missing after_path")
	}

	beforeResolved := resolveExisting(beforePath, baseDir)
	afterResolved := resolveExisting(afterPath, baseDir)
	if beforePath != "" && !fileExists(beforeResolved) {
		errs = append(errs, "not found: "+beforeResolved)
	}
	if afterPath != "" && !fileExists(afterResolved) {
		errs = append(errs, "not found: "+afterResolved)
	}
	if len(errs) > 0 {
		return PropagationRow{ID: orQ(id), UpdateType: orQ(updateType), Result: "ERROR", Error: strings.Join(errs, "; ")}
	}

	before, err := ReadDocument(beforeResolved)
	if err != nil {
		return PropagationRow{ID: id, UpdateType: updateType, Result: "ERROR", Error: err.Error()}
	}
	after, err := ReadDocument(afterResolved)
	if err != nil {
		return PropagationRow{ID: id, UpdateType: updateType, Result: "ERROR", Error: err.Error()}
	}

	switch updateType {
	case UpdateVisionEdit:
		sVision := Ratio(Textify(before["Vision"]), Textify(after["Vision"]))
		sOutcomes := Ratio(Textify(before["Outcomes"]), Textify(after["Outcomes"]))
		sBenefits := Ratio(Textify(before["Benefits"]), Textify(after["Benefits"]))
		materiallyChanged := sVision < visionChangedSimTh
		downstreamChanged := sOutcomes < downstreamChangedSimTh || sBenefits < downstreamChangedSimTh
		return PropagationRow{
			ID: id, UpdateType: updateType,
			Result:  passFail(!materiallyChanged || downstreamChanged),
			Metric1: fmt.Sprintf("s_vision=%.3f", sVision),
			Metric2: fmt.Sprintf("s_outcomes=%.3f", sOutcomes),
			Metric3: fmt.Sprintf("s_benefits=%.3f", sBenefits),
		}

	case UpdateTasksEdit:
		sTasks := Ratio(Textify(before["Tasks"]), Textify(after["Tasks"]))
		sDeliv := Ratio(Textify(before["Deliverables"]), Textify(after["Deliverables"]))
		materiallyChanged := sTasks < tasksChangedSimTh
		downstreamChanged := sDeliv < deliverablesChangedSimTh
		return PropagationRow{
			ID: id, UpdateType: updateType,
			Result:  passFail(!materiallyChanged || downstreamChanged),
			Metric1: fmt.Sprintf("s_tasks=%.3f", sTasks),
			Metric2: fmt.Sprintf("s_deliverables=%.3f", sDeliv),
		}

	default:
		return PropagationRow{ID: orQ(id), UpdateType: orQ(updateType), Result: "ERROR", Error: "unknown update_type"}
	}
}

// resolveExisting tries a path as given, then relative to baseDir, then
// relative to baseDir's parent. Returns the first existing candidate, or the
// first candidate for a clearer "not found" message.
func resolveExisting(path, baseDir string) string {
	path = strings.TrimSpace(path)
	var candidates []string
	if filepath.IsAbs(path) {
		candidates = []string{path}
	} else {
		candidates = []string{
			filepath.Join(baseDir, path),
			filepath.Join(filepath.Dir(baseDir), path),
		}
	}
	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}
	return candidates[0]
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF"))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func orQ(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
