// Package planner turns vision statements into hierarchical plan trees and
// keeps the tree consistent after edits. It owns the prompts, the parse and
// validation retry loop, and the transactional handoff to storage.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/planweave/planweave/internal/ai"
	"github.com/planweave/planweave/internal/retrieval"
	"github.com/planweave/planweave/internal/storage"
	"github.com/planweave/planweave/internal/types"
)

// maxParseRetries bounds how many times an unparseable or invalid model
// response is re-prompted before the operation fails.
const maxParseRetries = 2

// Completer is the slice of the generation client the planner needs.
type Completer interface {
	Complete(ctx context.Context, req ai.Request) (*ai.Response, error)
}

// Retriever fetches grounding documents from the vector store.
type Retriever interface {
	Query(ctx context.Context, collection, text string, topK int) (*retrieval.Result, error)
}

// Config holds planner tuning knobs.
type Config struct {
	// Model overrides the completion client's default model when non-empty.
	Model string
	// TopK is how many grounding documents to fetch per collection.
	// Zero uses the retrieval default.
	TopK int
}

// Planner generates and reconciles plan trees.
type Planner struct {
	store     storage.Storage
	llm       Completer
	retriever Retriever // nil disables retrieval grounding
	cfg       Config
}

// New creates a planner. retriever may be nil, in which case prompts carry
// no grounding documents.
func New(store storage.Storage, llm Completer, retriever Retriever, cfg Config) *Planner {
	return &Planner{
		store:     store,
		llm:       llm,
		retriever: retriever,
		cfg:       cfg,
	}
}

// Generate creates a project with a freshly generated plan tree. The project
// row is only written once a valid tree exists, so a generation failure
// leaves no half-created project behind. An empty name defaults to the
// generated tree title.
func (p *Planner) Generate(ctx context.Context, name, vision string) (*types.Project, *types.PlanTree, error) {
	if vision == "" {
		return nil, nil, fmt.Errorf("vision is required")
	}

	projectDocs, teamDocs := p.gatherContext(ctx, vision)
	prompt := buildGenerationPrompt(vision, projectDocs, teamDocs)

	tree, err := p.completeTree(ctx, prompt, "generation")
	if err != nil {
		return nil, nil, fmt.Errorf("plan generation failed: %w", err)
	}

	if name == "" {
		name = tree.Title
	}
	project, err := p.store.CreateProject(ctx, name, vision)
	if err != nil {
		return nil, nil, err
	}
	version, err := p.store.ReplacePlanTree(ctx, project.ID, storage.AnyVersion, tree)
	if err != nil {
		// Remove the project row again so a persist failure leaves no
		// orphan project without a tree.
		if delErr := p.store.DeleteProject(ctx, project.ID); delErr != nil {
			slog.Debug("failed to remove project after persist failure",
				"project_id", project.ID, "error", delErr)
		}
		return nil, nil, fmt.Errorf("failed to persist plan: %w", err)
	}
	project.Name = tree.Title
	project.Version = version

	stored, err := p.store.GetPlanTree(ctx, project.ID)
	if err != nil {
		return nil, nil, err
	}
	return project, stored, nil
}

// Reconcile applies a single field edit and regenerates the whole tree so
// every level stays consistent with the change. The field edit is persisted
// first and survives even when regeneration fails; the tree itself is only
// replaced by a valid regenerated tree, atomically, with an optimistic
// version check against concurrent reconciliations.
func (p *Planner) Reconcile(ctx context.Context, projectID int64, edit types.FieldEdit) (*types.PlanTree, int64, error) {
	if err := edit.Validate(); err != nil {
		return nil, 0, err
	}

	if err := p.store.ApplyFieldEdit(ctx, projectID, edit); err != nil {
		return nil, 0, err
	}

	project, err := p.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	current, err := p.store.GetPlanTree(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	treeJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to serialize current plan: %w", err)
	}

	prompt := buildReconcilePrompt(project.Vision, string(treeJSON), edit)
	tree, err := p.completeTree(ctx, prompt, "reconciliation")
	if err != nil {
		return nil, 0, fmt.Errorf("plan reconciliation failed (edit was saved): %w", err)
	}

	newVersion, err := p.store.ReplacePlanTree(ctx, projectID, project.Version, tree)
	if err != nil {
		return nil, 0, err
	}

	stored, err := p.store.GetPlanTree(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	return stored, newVersion, nil
}

// completeTree runs the prompt through the model and coerces the output into
// a valid plan tree, re-prompting with the failure reason on parse or
// validation errors.
func (p *Planner) completeTree(ctx context.Context, prompt, operation string) (*types.PlanTree, error) {
	var lastErr error
	attemptPrompt := prompt

	for attempt := 0; attempt <= maxParseRetries; attempt++ {
		resp, err := p.llm.Complete(ctx, ai.Request{
			Prompt:    attemptPrompt,
			Model:     p.cfg.Model,
			Operation: operation,
		})
		if err != nil {
			// Transport failures were already retried inside the client.
			return nil, err
		}
		slog.Debug("completion received",
			"operation", operation,
			"attempt", attempt,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
			"latency", resp.Latency)

		tree, parseFailure := ai.Parse[types.PlanTree](resp.Text, operation)
		if parseFailure != nil {
			lastErr = parseFailure
			attemptPrompt = buildRetryPrompt(prompt, parseFailure.Reason)
			continue
		}
		if err := tree.Validate(); err != nil {
			lastErr = err
			attemptPrompt = buildRetryPrompt(prompt, err.Error())
			continue
		}
		return &tree, nil
	}
	return nil, fmt.Errorf("no valid plan after %d attempts: %w", maxParseRetries+1, lastErr)
}

// gatherContext queries the vector store for similar projects and the team
// catalog. Retrieval failures degrade to an ungrounded prompt.
func (p *Planner) gatherContext(ctx context.Context, vision string) (projectDocs, teamDocs []string) {
	if p.retriever == nil {
		return nil, nil
	}
	if res, err := p.retriever.Query(ctx, retrieval.CollectionProjects, vision, p.cfg.TopK); err != nil {
		slog.Debug("project retrieval failed, continuing without grounding", "error", err)
	} else {
		projectDocs = res.Documents
	}
	if res, err := p.retriever.Query(ctx, retrieval.CollectionTeams, vision, p.cfg.TopK); err != nil {
		slog.Debug("team retrieval failed, continuing without grounding", "error", err)
	} else {
		teamDocs = res.Documents
	}
	return projectDocs, teamDocs
}
