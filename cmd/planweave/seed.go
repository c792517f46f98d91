package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/retrieval"
)

var seedCollection string

var seedCmd = &cobra.Command{
	Use:   "seed <dir>",
	Short: "Load grounding documents into the vector store",
	Long: `Upsert every *.json file under dir into a vector store collection.

Each file holds either a single document object or an array of them:

  {"id": "proj-001", "text": "...", "metadata": {"sector": "retail"}}

Documents without an id use the file name (plus an index for arrays), so
reseeding the same directory is idempotent.

Example:
  planweave seed ./seed/projects
  planweave seed --collection organizational_teams ./seed/teams`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := args[0]
		ctx := context.Background()

		client, err := retrieval.NewClient(retrieval.Config{
			BaseURL: cfg.Retrieval.BaseURL,
			Timeout: cfg.Retrieval.Timeout(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		docs, err := readSeedDocs(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(docs) == 0 {
			fmt.Fprintf(os.Stderr, "Error: no *.json documents found in %s\n", dir)
			os.Exit(1)
		}

		if err := client.Upsert(ctx, seedCollection, docs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: upsert failed: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Upserted %d documents into %q\n", green("✓"), len(docs), seedCollection)
	},
}

// readSeedDocs loads every *.json file under dir, accepting either a single
// document or an array per file, and fills in missing ids from file names.
func readSeedDocs(dir string) ([]retrieval.Document, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var docs []retrieval.Document
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(filepath.Base(path), ".json")

		var many []retrieval.Document
		if err := json.Unmarshal(data, &many); err == nil {
			for i := range many {
				if many[i].ID == "" {
					many[i].ID = fmt.Sprintf("%s-%d", base, i)
				}
			}
			docs = append(docs, many...)
			continue
		}

		var one retrieval.Document
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if one.ID == "" {
			one.ID = base
		}
		docs = append(docs, one)
	}
	return docs, nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedCollection, "collection", retrieval.CollectionProjects,
		"Target collection: projects or organizational_teams")
}
