package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/eval"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Offline evaluation harness",
	Long: `Measure output quality, reliability, and capacity:

  accuracy     document completeness plus edit propagation consistency
  reliability  repeated generation across prompts and temperatures
  loadtest     concurrent generation requests against a running server`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var (
	accuracyPairs string
	accuracyOut   string
)

var evalAccuracyCmd = &cobra.Command{
	Use:   "accuracy <docs-dir>",
	Short: "Check document completeness and edit propagation",
	Long: `Check every exported plan document in docs-dir for the required sections,
and verify that upstream edits propagated downstream for each before/after
pair listed in the pairs CSV (columns: id, update_type, before_path,
after_path). Reports are written as CSVs plus a plain-text summary.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		docsDir := args[0]

		comp, err := eval.RunCompleteness(docsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: completeness check failed: %v\n", err)
			os.Exit(1)
		}
		prop, err := eval.RunPropagation(accuracyPairs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: propagation check failed: %v\n", err)
			os.Exit(1)
		}

		if err := eval.SaveAccuracyReports(accuracyOut, comp, prop); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write reports: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("\n%s\n", cyan("=== Completeness ==="))
		fmt.Printf("Files: %d, complete: %d (%.2f%%)\n", comp.TotalFiles, comp.CompleteCount, comp.CompletenessPct)
		for _, row := range comp.Rows {
			if row.Status != "OK" {
				fmt.Printf("  %s %s: %s\n", row.Status, row.File, row.MissingTags)
			}
		}

		fmt.Printf("\n%s\n", cyan("=== Propagation ==="))
		fmt.Printf("Pairs: %d, passed: %d (%.2f%%)\n", prop.PairsTotal, prop.Passed, prop.PassedPct)
		for _, row := range prop.DetailRows {
			if row.Result != "PASS" {
				fmt.Printf("  %s %s (%s): %s\n", row.Result, row.ID, row.UpdateType, row.Error)
			}
		}
		fmt.Printf("\nReports written to %s\n", accuracyOut)
	},
}

var (
	reliabilityOut     string
	reliabilityCore    bool
	reliabilityRepeats int
)

var evalReliabilityCmd = &cobra.Command{
	Use:   "reliability",
	Short: "Measure generation reliability and output diversity",
	Long: `Call the model repeatedly for a fixed suite of vision prompts across
several temperatures, measuring JSON validity, schema conformance, latency,
token cost, and pairwise output similarity. Writes a summary CSV, per-cell raw
run dumps, and an api_metrics.jsonl call log.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		caller, err := eval.NewCaller(newLLM(), cfg.Model, reliabilityOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		prompts := append(append([]eval.PromptCase{}, eval.CorePrompts...), eval.EdgePrompts...)
		if reliabilityCore {
			prompts = append([]eval.PromptCase{}, eval.CorePrompts...)
		}
		repeats := reliabilityRepeats
		if repeats == 0 {
			repeats = cfg.Eval.Repeats
		}

		csvPath, err := eval.RunReliability(ctx, caller, eval.ReliabilityConfig{
			OutputDir: reliabilityOut,
			Prompts:   prompts,
			Temps:     cfg.Eval.Temps,
			Repeats:   repeats,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: reliability run failed: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Summary written to %s\n", green("✓"), csvPath)
	},
}

var (
	loadtestURL    string
	loadtestOut    string
	loadtestVision string
	loadtestRate   float64
)

var evalLoadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Run concurrent generation requests against a server",
	Long: `Fire waves of concurrent plan generation requests at a running planweave
server and record latency and failure rate per concurrency level.

The server keeps every generated project; clean up afterwards with
planweave list / delete.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		client := &http.Client{}
		do := func(ctx context.Context) error {
			body, _ := json.Marshal(map[string]string{"vision": loadtestVision})
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, loadtestURL, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			return nil
		}

		ltCfg := eval.DefaultLoadTestConfig()
		ltCfg.Levels = cfg.Eval.LoadLevels
		ltCfg.Timeout = 120 * time.Second
		ltCfg.MaxStartsPerSec = loadtestRate

		rows, err := eval.RunLoadTest(ctx, do, ltCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: load test failed: %v\n", err)
			os.Exit(1)
		}
		if err := eval.WriteLoadTestCSV(loadtestOut, rows); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write results: %v\n", err)
			os.Exit(1)
		}

		for _, row := range rows {
			fmt.Printf("%3d users: avg %.2fs, p95 %.2fs, failures %.2f%%\n",
				row.ConcurrentUsers, row.AvgLatencyS, row.P95LatencyS, row.FailureRatePct)
		}
		fmt.Printf("Results written to %s\n", loadtestOut)
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.AddCommand(evalAccuracyCmd)
	evalCmd.AddCommand(evalReliabilityCmd)
	evalCmd.AddCommand(evalLoadtestCmd)

	evalAccuracyCmd.Flags().StringVar(&accuracyPairs, "pairs", "pairs.csv", "Before/after pairs CSV for the propagation check")
	evalAccuracyCmd.Flags().StringVar(&accuracyOut, "out", "accuracy_out", "Report output directory")

	evalReliabilityCmd.Flags().StringVar(&reliabilityOut, "out", "reliability_out", "Output directory")
	evalReliabilityCmd.Flags().BoolVar(&reliabilityCore, "core-only", false, "Skip the edge-case prompts")
	evalReliabilityCmd.Flags().IntVar(&reliabilityRepeats, "repeats", 0, "Runs per (prompt, temperature) cell (default from config)")

	evalLoadtestCmd.Flags().StringVar(&loadtestURL, "url", "http://localhost:8080/api/projects", "Generation endpoint")
	evalLoadtestCmd.Flags().StringVar(&loadtestOut, "out", "load_test_results.csv", "Results CSV path")
	evalLoadtestCmd.Flags().StringVar(&loadtestVision, "vision", "Transition from a manual to fully automated product launch process.", "Vision statement to submit")
	evalLoadtestCmd.Flags().Float64Var(&loadtestRate, "rate", 0, "Max request starts per second (0 = unlimited)")
}
