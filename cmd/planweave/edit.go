package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/storage"
	"github.com/planweave/planweave/internal/types"
)

var (
	editField string
	editNode  int64
	editValue string
)

var editCmd = &cobra.Command{
	Use:   "edit <project-id>",
	Short: "Edit one field and reconcile the whole plan",
	Long: `Apply a single field edit and regenerate the rest of the tree so every
level stays consistent with the change.

The edit itself is saved immediately. If regeneration fails the edited field
keeps its new value and the rest of the tree is left untouched.

Example:
  planweave edit 3 --field vision --value "Automate the entire launch"
  planweave edit 3 --field benefits --node 17 --value "Cut handling time in half"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseProjectID(args[0])
		ctx := context.Background()

		edit := types.FieldEdit{
			Field:  types.EditedField(editField),
			NodeID: editNode,
			Value:  editValue,
		}
		if err := edit.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		store := openStore(ctx)
		defer store.Close()

		pl := newPlanner(store, newLLM())
		tree, version, err := pl.Reconcile(ctx, id, edit)
		if err != nil {
			if errors.Is(err, storage.ErrStaleVersion) {
				fmt.Fprintf(os.Stderr, "Error: the plan was modified concurrently; rerun the edit\n")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("\n%s Plan reconciled (version %d)\n\n", green("✓"), version)
		printTree(tree)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVar(&editField, "field", "", "Field to edit: vision, outcomes, benefits, or deliverables")
	editCmd.Flags().Int64Var(&editNode, "node", 0, "Node id for non-vision edits")
	editCmd.Flags().StringVar(&editValue, "value", "", "New value")
	editCmd.MarkFlagRequired("field")
	editCmd.MarkFlagRequired("value")
}
