package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/gantt"
)

var ganttOut string

var ganttCmd = &cobra.Command{
	Use:   "gantt <project-id>",
	Short: "Render the project schedule as an SVG Gantt chart",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseProjectID(args[0])
		ctx := context.Background()

		store := openStore(ctx)
		defer store.Close()

		tasks, err := store.TasksForProject(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(tasks) == 0 {
			fmt.Fprintf(os.Stderr, "Error: project %d has no tasks\n", id)
			os.Exit(1)
		}

		rows := gantt.BuildRows(tasks, time.Now())
		svg := gantt.RenderSVG(rows)

		out := ganttOut
		if out == "" {
			out = fmt.Sprintf("project_%d_gantt.svg", id)
		}
		if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Wrote %s (%d tasks)\n", green("✓"), out, len(rows))
	},
}

func init() {
	rootCmd.AddCommand(ganttCmd)
	ganttCmd.Flags().StringVarP(&ganttOut, "out", "o", "", "Output file (default project_<id>_gantt.svg)")
}
