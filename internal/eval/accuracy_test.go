package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const completeDoc = `{
	"Vision": "Automate the launch process",
	"Outcomes": ["Faster launches"],
	"Benefits": ["Lower cost"],
	"Deliverables": ["Launch pipeline"],
	"Tasks": ["Build pipeline"]
}`

func TestCheckCompleteness(t *testing.T) {
	doc := Document{
		"Vision":       "v",
		"Outcomes":     []any{"o"},
		"Benefits":     []any{"b"},
		"Deliverables": []any{"d"},
		"Tasks":        []any{"t"},
	}
	ok, missing := CheckCompleteness(doc)
	assert.True(t, ok)
	assert.Empty(t, missing)

	// Empty values count as missing, same as absent keys.
	doc["Benefits"] = []any{}
	doc["Vision"] = ""
	delete(doc, "Tasks")
	ok, missing = CheckCompleteness(doc)
	assert.False(t, ok)
	assert.Equal(t, []string{"Vision", "Benefits", "Tasks"}, missing)
}

func TestRunCompleteness(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_complete.json", completeDoc)
	writeFile(t, dir, "b_missing.json", `{"Vision": "v", "Outcomes": ["o"]}`)
	writeFile(t, dir, "c_broken.json", `{not json`)
	writeFile(t, dir, "ignored.txt", "not a json file")

	result, err := RunCompleteness(dir)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalFiles)
	assert.Equal(t, 1, result.CompleteCount)
	assert.InDelta(t, 33.33, result.CompletenessPct, 0.01)

	require.Len(t, result.Rows, 3)
	assert.Equal(t, "OK", result.Rows[0].Status)
	assert.Equal(t, "MISSING", result.Rows[1].Status)
	assert.Equal(t, "Benefits,Deliverables,Tasks", result.Rows[1].MissingTags)
	assert.Equal(t, "ERROR", result.Rows[2].Status)
}

func TestRunCompletenessEmptyDir(t *testing.T) {
	result, err := RunCompleteness(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalFiles)
	assert.Equal(t, 0.0, result.CompletenessPct)
}

const beforeVisionDoc = `{
	"Vision": "Automate the product launch process end to end",
	"Outcomes": ["Faster launches", "Fewer manual errors"],
	"Benefits": ["Lower operating cost"],
	"Deliverables": ["Launch pipeline"],
	"Tasks": ["Build pipeline"]
}`

// Vision rewritten, downstream rewritten too: propagation worked.
const afterVisionPropagated = `{
	"Vision": "Move all client reporting onto a self-service analytics platform",
	"Outcomes": ["Clients build their own reports", "Analysts freed from ad-hoc requests"],
	"Benefits": ["Higher client retention"],
	"Deliverables": ["Analytics platform"],
	"Tasks": ["Build platform"]
}`

// Vision rewritten but downstream untouched: propagation failed.
const afterVisionStale = `{
	"Vision": "Move all client reporting onto a self-service analytics platform",
	"Outcomes": ["Faster launches", "Fewer manual errors"],
	"Benefits": ["Lower operating cost"],
	"Deliverables": ["Launch pipeline"],
	"Tasks": ["Build pipeline"]
}`

func TestRunPropagation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "before.json", beforeVisionDoc)
	writeFile(t, dir, "after_good.json", afterVisionPropagated)
	writeFile(t, dir, "after_stale.json", afterVisionStale)

	// BOM on the header, mixed-case column names, padded values: the reader
	// normalizes all of it.
	pairsCSV := writeFile(t, dir, "pairs.csv",
		"\uFEFFID,Update_Type,Before_Path,After_Path\n"+
			"v1, vision_edit ,before.json,after_good.json\n"+
			"v2,vision_edit,before.json,after_stale.json\n"+
			"v3,vision_edit,before.json,after_good.json\n"+
			"e1,vision_edit,missing.json,after_good.json\n"+
			"e2,teleport_edit,before.json,after_good.json\n")

	result, err := RunPropagation(pairsCSV)
	require.NoError(t, err)

	assert.Equal(t, 5, result.PairsTotal)
	assert.Equal(t, 2, result.Passed)
	assert.InDelta(t, 40.0, result.PassedPct, 0.01)

	require.Len(t, result.DetailRows, 5)
	assert.Equal(t, "PASS", result.DetailRows[0].Result)
	assert.Contains(t, result.DetailRows[0].Metric1, "s_vision=")

	assert.Equal(t, "FAIL", result.DetailRows[1].Result)

	assert.Equal(t, "ERROR", result.DetailRows[3].Result)
	assert.Contains(t, result.DetailRows[3].Error, "not found")

	assert.Equal(t, "ERROR", result.DetailRows[4].Result)
	assert.Equal(t, "unknown update_type", result.DetailRows[4].Error)
}

func TestRunPropagationUnchangedVisionAutoPasses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "before.json", beforeVisionDoc)
	// Identical documents: the edit was not material, so no downstream
	// movement is required.
	writeFile(t, dir, "after.json", beforeVisionDoc)
	pairsCSV := writeFile(t, dir, "pairs.csv",
		"id,update_type,before_path,after_path\nv1,vision_edit,before.json,after.json\n")

	result, err := RunPropagation(pairsCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, "PASS", result.DetailRows[0].Result)
}

func TestRunPropagationTasksEdit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "before.json", beforeVisionDoc)
	writeFile(t, dir, "after.json", `{
		"Vision": "Automate the product launch process end to end",
		"Outcomes": ["Faster launches", "Fewer manual errors"],
		"Benefits": ["Lower operating cost"],
		"Deliverables": ["Launch pipeline"],
		"Tasks": ["Design rollout checklist", "Run pilot launch", "Train release managers"]
	}`)
	pairsCSV := writeFile(t, dir, "pairs.csv",
		"id,update_type,before_path,after_path\nt1,tasks_edit,before.json,after.json\n")

	result, err := RunPropagation(pairsCSV)
	require.NoError(t, err)
	// Tasks changed materially but deliverables did not move.
	assert.Equal(t, "FAIL", result.DetailRows[0].Result)
	assert.Contains(t, result.DetailRows[0].Metric1, "s_tasks=")
	assert.Contains(t, result.DetailRows[0].Metric2, "s_deliverables=")
}

func TestRunPropagationMissingFile(t *testing.T) {
	result, err := RunPropagation(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.PairsTotal)
}

func TestRunPropagationMissingColumns(t *testing.T) {
	dir := t.TempDir()
	pairsCSV := writeFile(t, dir, "pairs.csv", "id,before_path\nx,y\n")

	result, err := RunPropagation(pairsCSV)
	require.NoError(t, err)
	assert.Equal(t, 0, result.PairsTotal)
	require.Len(t, result.DetailRows, 1)
	assert.Equal(t, "ERROR", result.DetailRows[0].Result)
	assert.Contains(t, result.DetailRows[0].Error, "Missing columns")
	assert.Contains(t, result.DetailRows[0].Error, "update_type")
}

func TestSaveAccuracyReports(t *testing.T) {
	dir := t.TempDir()
	comp := &CompletenessResult{
		TotalFiles:      2,
		CompleteCount:   1,
		CompletenessPct: 50.0,
		Rows: []CompletenessRow{
			{File: "a.json", Status: "OK"},
			{File: "b.json", Status: "MISSING", MissingTags: "Tasks"},
		},
	}
	prop := &PropagationResult{
		PairsTotal: 1, Passed: 1, PassedPct: 100.0,
		DetailRows: []PropagationRow{{ID: "v1", UpdateType: "vision_edit", Result: "PASS", Metric1: "s_vision=0.500"}},
	}
	require.NoError(t, SaveAccuracyReports(dir, comp, prop))

	compCSV, err := os.ReadFile(filepath.Join(dir, CompletenessReportName))
	require.NoError(t, err)
	assert.Contains(t, string(compCSV), "file,status,missing_tags,notes")
	assert.Contains(t, string(compCSV), "b.json,MISSING,Tasks")

	summary, err := os.ReadFile(filepath.Join(dir, AccuracySummaryName))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Completeness %: 50")
	assert.Contains(t, string(summary), "Pass %: 100")
}
