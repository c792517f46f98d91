package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/types"
)

var showCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Display a project's plan tree",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseProjectID(args[0])
		ctx := context.Background()

		store := openStore(ctx)
		defer store.Close()

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

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n", cyan("=== "+project.Name+" ==="))
		fmt.Printf("Vision: %s\n", project.Vision)
		fmt.Printf("%s\n\n", gray(fmt.Sprintf("id %d, version %d", project.ID, project.Version)))
		printTree(tree)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store := openStore(ctx)
		defer store.Close()

		projects, err := store.ListProjects(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list projects: %v\n", err)
			os.Exit(1)
		}
		if len(projects) == 0 {
			fmt.Println("\nNo projects yet. Create one with: planweave new \"<vision>\"")
			return
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Println()
		for _, p := range projects {
			fmt.Printf("%d. %s\n", p.ID, p.Name)
			fmt.Printf("   %s %s\n", gray("├─"), p.Vision)
			fmt.Printf("   %s version %d\n", gray("└─"), p.Version)
		}
		fmt.Println()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project and its plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseProjectID(args[0])
		ctx := context.Background()

		store := openStore(ctx)
		defer store.Close()

		if err := store.DeleteProject(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Deleted project %d\n", green("✓"), id)
	},
}

// printTree renders the full hierarchy as an indented tree.
func printTree(tree *types.PlanTree) {
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	for i, outcome := range tree.Outcomes {
		fmt.Printf("%s Outcome %d: %s\n", cyan("●"), i+1, outcome.Description)
		for _, benefit := range outcome.Benefits {
			fmt.Printf("  %s Benefit: %s\n", gray("├─"), benefit.Description)
			for _, deliverable := range benefit.Deliverables {
				fmt.Printf("  %s  Deliverable: %s\n", gray("│"), deliverable.Description)
				for _, task := range deliverable.Tasks {
					dates := ""
					if task.StartDate != "" {
						dates = fmt.Sprintf(" (%s → %s)", task.StartDate, task.EndDate)
					}
					fmt.Printf("  %s    %s %s [%s, %dd]%s\n",
						gray("│"), gray("└─"), task.Name, task.ResponsibleTeam, task.Duration, dates)
				}
			}
		}
	}
	fmt.Println()
}

func parseProjectID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid project id %q\n", arg)
		os.Exit(1)
	}
	return id
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
}
