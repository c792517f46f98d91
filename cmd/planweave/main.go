// Command planweave turns a free-text vision statement into a hierarchical
// project plan and keeps the plan consistent as pieces of it are edited.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/ai"
	"github.com/planweave/planweave/internal/config"
	"github.com/planweave/planweave/internal/planner"
	"github.com/planweave/planweave/internal/retrieval"
	"github.com/planweave/planweave/internal/storage"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "planweave",
	Short: "AI-assisted project planning",
	Long: `Planweave generates a full project plan (outcomes, benefits,
deliverables, tasks) from a one-line vision statement, and regenerates the
whole tree whenever any part of it is edited so the plan stays coherent.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		return err
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default "+config.DefaultPath+")")
}

// openStore opens the SQLite plan store, exiting on failure. Callers own the
// returned store and must Close it.
func openStore(ctx context.Context) storage.Storage {
	store, err := openStoreChecked(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database %s: %v\n", cfg.DBPath, err)
		os.Exit(1)
	}
	return store
}

func openStoreChecked(ctx context.Context) (storage.Storage, error) {
	return storage.NewStorage(ctx, &storage.Config{Path: cfg.DBPath})
}

// newLLM builds the generation-service client, exiting when no API key is
// available.
func newLLM() *ai.Client {
	llm, err := ai.NewClient(&ai.Config{APIKey: cfg.APIKey, Model: cfg.Model})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return llm
}

// newRetriever builds the vector store client. Retrieval is best-effort
// grounding, so a misconfigured client degrades to nil rather than exiting.
func newRetriever() planner.Retriever {
	client, err := retrieval.NewClient(retrieval.Config{
		BaseURL: cfg.Retrieval.BaseURL,
		Timeout: cfg.Retrieval.Timeout(),
	})
	if err != nil {
		return nil
	}
	return client
}

func newPlanner(store storage.Storage, llm *ai.Client) *planner.Planner {
	return planner.New(store, llm, newRetriever(), planner.Config{
		Model: cfg.Model,
		TopK:  cfg.Retrieval.TopK,
	})
}
