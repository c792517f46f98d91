package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/retrieval"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that planweave's dependencies are reachable",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		healthy := true
		fmt.Println()

		if cfg.APIKey == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
			fmt.Printf("%s ANTHROPIC_API_KEY not set; generation and model-written exports will fail\n", red("✗"))
			healthy = false
		} else {
			fmt.Printf("%s API key configured\n", green("✓"))
		}

		store, err := openStoreChecked(ctx)
		if err != nil {
			fmt.Printf("%s database %s: %v\n", red("✗"), cfg.DBPath, err)
			healthy = false
		} else {
			projects, err := store.ListProjects(ctx)
			if err != nil {
				fmt.Printf("%s database %s: %v\n", red("✗"), cfg.DBPath, err)
				healthy = false
			} else {
				fmt.Printf("%s database %s (%d projects)\n", green("✓"), cfg.DBPath, len(projects))
			}
			store.Close()
		}

		client, err := retrieval.NewClient(retrieval.Config{
			BaseURL: cfg.Retrieval.BaseURL,
			Timeout: cfg.Retrieval.Timeout(),
		})
		if err != nil {
			fmt.Printf("%s vector store config: %v\n", yellow("⚠"), err)
		} else if err := client.Ping(ctx); err != nil {
			fmt.Printf("%s vector store %s unreachable; plans will be generated ungrounded\n",
				yellow("⚠"), cfg.Retrieval.BaseURL)
		} else {
			fmt.Printf("%s vector store %s\n", green("✓"), cfg.Retrieval.BaseURL)
		}

		fmt.Println()
		if !healthy {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
