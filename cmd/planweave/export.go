package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/export"
	"github.com/planweave/planweave/internal/storage"
	"github.com/planweave/planweave/internal/types"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <project-id> <format>",
	Short: "Export a project document",
	Long: `Export a project in one of the supported formats:

  document    flat evaluation document (JSON)
  plan        full task schedule (CSV)
  comm        communication plan (Markdown)
  financial   financial plan (Markdown)

The communication and financial plans are model-generated; without an API key
they fall back to deterministic defaults derived from the plan itself.

Example:
  planweave export 3 plan --out project3_plan.csv
  planweave export 3 financial`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseProjectID(args[0])
		format := args[1]
		ctx := context.Background()

		store := openStore(ctx)
		defer store.Close()

		project, tree := loadProjectAndPlan(ctx, store, id)

		out := io.Writer(os.Stdout)
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			out = f
		}

		if err := writeExport(ctx, out, format, project, tree); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func writeExport(ctx context.Context, out io.Writer, format string, project *types.Project, tree *types.PlanTree) error {
	switch format {
	case "document":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(export.BuildFlatDocument(project, tree))
	case "plan":
		return export.WritePlanCSV(out, project, tree)
	case "comm":
		facts := export.BuildFacts(project)
		desc := export.BuildDescription(facts, tree)
		comm := export.GenerateCommPlan(ctx, exportLLM(), facts, desc)
		_, err := io.WriteString(out, export.RenderCommPlanMarkdown(comm, facts.ProjectName))
		return err
	case "financial":
		facts := export.BuildFacts(project)
		desc := export.BuildDescription(facts, tree)
		fin := export.BuildFinancialPlan(export.GenerateFinancialPlan(ctx, exportLLM(), desc), facts, tree)
		_, err := io.WriteString(out, export.RenderFinancialPlanMarkdown(fin, facts.ProjectName))
		return err
	default:
		return fmt.Errorf("unknown format %q (want document, plan, comm, or financial)", format)
	}
}

// exportLLM returns a generation client when one can be built, or nil so the
// document generators fall back to their defaults.
func exportLLM() export.Completer {
	if cfg.APIKey == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
		return nil
	}
	return newLLM()
}

func loadProjectAndPlan(ctx context.Context, store storage.Storage, id int64) (*types.Project, *types.PlanTree) {
	project, err := store.GetProject(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	tree, err := store.GetPlanTree(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load plan: %v\n", err)
		os.Exit(1)
	}
	return project, tree
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default stdout)")
}
