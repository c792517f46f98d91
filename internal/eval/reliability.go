package eval

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// PromptCase is one vision statement in the reliability suite.
type PromptCase struct {
	ID       string
	Category string // "core" or "edge"
	Text     string
}

// CorePrompts are realistic vision statements; EdgePrompts stress the model
// with short, vague, very long and self-contradictory inputs.
var CorePrompts = []PromptCase{
	{"p1_normal", "core", "Transition from a manual to fully automated product launch process."},
	{"p2_normal", "core", "Transition the client service team away from administrative activities towards generating sales."},
	{"p3_normal", "core", "Consolidate disparate data sources into a single source of truth."},
}

var EdgePrompts = []PromptCase{
	{"p4_short", "edge", "Automate launch."},
	{"p5_vague", "edge", "Make things better for sales."},
	{"p6_long", "edge", "Our company operates across six regions with fragmented processes for product ideation, " +
		"market research, regulatory review, and coordinated release activities. We want to introduce " +
		"a unified operating model that standardizes gates, artifacts, and responsibilities across PM, " +
		"Engineering, QA, Legal, and Sales Enablement. The new process must integrate with our data " +
		"warehouse, automate compliance evidence capture, and support parallel pilot launches while " +
		"maintaining audit trails and risk sign-offs. Success criteria include shorter cycle time, " +
		"fewer defects, and better traceability."},
	{"p7_conflict", "edge", "Cut scope but deliver twice as many features next sprint."},
}

// Sampling temperatures and repeat count per (prompt, temperature) cell.
var DefaultTemps = []float64{0.0, 0.2, 0.7}

const DefaultRepeats = 5

// flatPlanInstruction forces the flat evaluation schema so repeated runs
// are directly comparable section by section.
const flatPlanInstruction = "Return ONLY valid JSON (no surrounding text, no backticks). " +
	"Required keys: vision (string), outcomes (array of strings), " +
	"benefits (array of strings), deliverables (array of strings), " +
	"tasks (array of strings). No extra keys, no comments.\n\n"

// ReliabilityConfig tunes a reliability run. Zero values use the defaults.
type ReliabilityConfig struct {
	OutputDir string
	Prompts   []PromptCase // default: core + edge
	Temps     []float64
	Repeats   int
}

// reliabilityHeader matches the summary CSV column order.
var reliabilityHeader = []string{
	"prompt_id", "category", "temperature", "model",
	"n_calls", "json_ok_rate", "schema_ok_rate",
	"lat_mean", "lat_p95", "lat_max",
	"tokens_in_mean", "tokens_out_mean", "est_cost_mean_gbp",
	"pairwise_pairs",
	"sim_vision_mean", "sim_vision_std",
	"sim_outcomes_mean", "sim_outcomes_std",
	"sim_benefits_mean", "sim_benefits_std",
	"sim_deliverables_mean", "sim_deliverables_std",
	"sim_tasks_mean", "sim_tasks_std",
}

// RunReliability calls the model repeatedly for every (prompt, temperature)
// cell, measures JSON validity, latency, token cost and output diversity,
// and writes one summary CSV plus per-cell raw run dumps into OutputDir.
// Returns the summary CSV path.
func RunReliability(ctx context.Context, caller *Caller, cfg ReliabilityConfig) (string, error) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "reliability"
	}
	if len(cfg.Prompts) == 0 {
		cfg.Prompts = append(append([]PromptCase{}, CorePrompts...), EdgePrompts...)
	}
	if len(cfg.Temps) == 0 {
		cfg.Temps = DefaultTemps
	}
	if cfg.Repeats == 0 {
		cfg.Repeats = DefaultRepeats
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	stamp := time.Now().UTC().Format("20060102T150405Z")
	csvPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("reliability_summary_%s.csv", stamp))

	type cellRow map[string]string
	var rows []cellRow

	for _, temp := range cfg.Temps {
		for _, prompt := range cfg.Prompts {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			records := make([]*CallRecord, 0, cfg.Repeats)
			parsed := make([]Document, 0, cfg.Repeats)
			for i := 0; i < cfg.Repeats; i++ {
				text, rec, _ := caller.Call(ctx, flatPlanInstruction+prompt.Text, temp,
					"reliability:"+prompt.ID)

				// A parse failure is a data point, not a run failure.
				var doc Document
				if json.Unmarshal([]byte(text), &doc) == nil {
					rec.JSONOK = true
					rec.SchemaOK = true
					parsed = append(parsed, doc)
				} else {
					parsed = append(parsed, nil)
				}
				records = append(records, rec)
			}

			lats := make([]float64, 0, len(records))
			var tokensIn, tokensOut, costs float64
			jsonOK := 0
			for _, rec := range records {
				lats = append(lats, rec.LatencyS)
				tokensIn += float64(rec.TokensIn)
				tokensOut += float64(rec.TokensOut)
				costs += rec.EstCost
				if rec.JSONOK {
					jsonOK++
				}
			}
			latSummary := SummarizeLatencies(lats)
			n := float64(len(records))
			sims := CompareBatch(parsed)

			row := cellRow{
				"prompt_id":         prompt.ID,
				"category":          prompt.Category,
				"temperature":       formatFloat(temp),
				"model":             caller.Model(),
				"n_calls":           strconv.Itoa(len(records)),
				"json_ok_rate":      formatFloat(round3(float64(jsonOK) / n)),
				"schema_ok_rate":    formatFloat(round3(float64(jsonOK) / n)),
				"lat_mean":          formatFloat(round3(latSummary.Mean)),
				"lat_p95":           formatFloat(round3(latSummary.P95)),
				"lat_max":           formatFloat(round3(latSummary.Max)),
				"tokens_in_mean":    formatFloat(round1(tokensIn / n)),
				"tokens_out_mean":   formatFloat(round1(tokensOut / n)),
				"est_cost_mean_gbp": formatFloat(round6(costs / n)),
				"pairwise_pairs":    strconv.Itoa(sims.Pairs),
			}
			writeSimColumns(row, "vision", sims.Vision)
			writeSimColumns(row, "outcomes", sims.Outcomes)
			writeSimColumns(row, "benefits", sims.Benefits)
			writeSimColumns(row, "deliverables", sims.Deliverables)
			writeSimColumns(row, "tasks", sims.Tasks)
			rows = append(rows, row)

			if err := dumpRuns(cfg.OutputDir, runID, prompt.ID, temp, records); err != nil {
				return "", err
			}
		}
	}

	err := writeCSV(csvPath, reliabilityHeader, func(w *csv.Writer) error {
		for _, row := range rows {
			record := make([]string, len(reliabilityHeader))
			for i, col := range reliabilityHeader {
				record[i] = row[col]
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return csvPath, nil
}

func writeSimColumns(row map[string]string, section string, stats Stats) {
	if !stats.Valid {
		row["sim_"+section+"_mean"] = ""
		row["sim_"+section+"_std"] = ""
		return
	}
	row["sim_"+section+"_mean"] = formatFloat(round3(stats.Mean))
	row["sim_"+section+"_std"] = formatFloat(round3(stats.Std))
}

// dumpRuns writes the raw per-call records for one (prompt, temperature)
// cell, keeping the appendix material the summary rounds away.
func dumpRuns(dir, runID, promptID string, temp float64, records []*CallRecord) error {
	payload := map[string]any{"run_id": runID, "records": records}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s_temp%s_runs.json", promptID, formatFloat(temp))
	return os.WriteFile(filepath.Join(dir, name), data, 0644)
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func round1(x float64) float64 {
	return float64(int(x*10+0.5)) / 10
}
