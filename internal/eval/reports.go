package eval

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Report file names written by SaveAccuracyReports.
const (
	CompletenessReportName = "accuracy_completeness_report.csv"
	PropagationReportName  = "accuracy_propagation_report.csv"
	AccuracySummaryName    = "accuracy_summary.txt"
)

// SaveAccuracyReports writes the completeness and propagation reports plus a
// plain-text summary into dir.
func SaveAccuracyReports(dir string, comp *CompletenessResult, prop *PropagationResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, CompletenessReportName),
		[]string{"file", "status", "missing_tags", "notes"},
		func(w *csv.Writer) error {
			for _, row := range comp.Rows {
				if err := w.Write([]string{row.File, row.Status, row.MissingTags, row.Notes}); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, PropagationReportName),
		[]string{"id", "update_type", "result", "error", "metric_1", "metric_2", "metric_3"},
		func(w *csv.Writer) error {
			for _, row := range prop.DetailRows {
				record := []string{row.ID, row.UpdateType, row.Result, row.Error, row.Metric1, row.Metric2, row.Metric3}
				if err := w.Write(record); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
		return err
	}

	summary := fmt.Sprintf(
		"=== Completeness ===\n"+
			"Files: %d\n"+
			"Complete: %d\n"+
			"Completeness %%: %g\n\n"+
			"=== Propagation ===\n"+
			"Pairs: %d\n"+
			"Passed: %d\n"+
			"Pass %%: %g\n",
		comp.TotalFiles, comp.CompleteCount, comp.CompletenessPct,
		prop.PairsTotal, prop.Passed, prop.PassedPct,
	)
	return os.WriteFile(filepath.Join(dir, AccuracySummaryName), []byte(summary), 0644)
}

func writeCSV(path string, header []string, writeRows func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := writeRows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
