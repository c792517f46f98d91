package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var newName string

var newCmd = &cobra.Command{
	Use:   "new <vision>",
	Short: "Generate a project plan from a vision statement",
	Long: `Generate a complete project plan from a natural language vision statement.

The plan is a full hierarchy: outcomes, benefits per outcome, deliverables per
benefit, and tasks per deliverable with teams, durations, and dates. Similar
past projects and the team catalog are pulled from the vector store to ground
the generation when one is available.

Example:
  planweave new "Transition from a manual to fully automated launch process"
  planweave new --name "Launch Automation" "Automate the launch process"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		vision := strings.Join(args, " ")
		ctx := context.Background()

		store := openStore(ctx)
		defer store.Close()

		pl := newPlanner(store, newLLM())
		project, tree, err := pl.Generate(ctx, newName, vision)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("\n%s Created project %d: %s\n\n", green("✓"), project.ID, project.Name)
		printTree(tree)
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVar(&newName, "name", "", "Project name (default: the generated plan title)")
}
