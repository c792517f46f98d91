// Package storage defines the plan store interface and its SQLite backend.
package storage

import (
	"context"

	"github.com/planweave/planweave/internal/storage/sqlite"
	"github.com/planweave/planweave/internal/types"
)

// Sentinel errors surfaced by backends.
var (
	// ErrNotFound is returned when a project or plan node does not exist.
	ErrNotFound = sqlite.ErrNotFound
	// ErrStaleVersion is returned when a tree replacement carries an
	// expected version that no longer matches the stored one, i.e. another
	// reconciliation won the race.
	ErrStaleVersion = sqlite.ErrStaleVersion
)

// Storage is the plan store. A project owns exactly one plan tree; the tree
// is only ever replaced wholesale, inside one transaction, with a version
// check to reject concurrent reconciliations.
type Storage interface {
	// Projects
	CreateProject(ctx context.Context, name, vision string) (*types.Project, error)
	GetProject(ctx context.Context, id int64) (*types.Project, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	// Plan trees
	GetPlanTree(ctx context.Context, projectID int64) (*types.PlanTree, error)
	// ReplacePlanTree atomically deletes the project's subtree and recreates
	// it from tree, updating the project name from the tree title and
	// bumping the version. expectedVersion rejects stale writers; pass
	// AnyVersion to skip the check (first generation). Returns the new
	// version. On any error the stored tree is unchanged.
	ReplacePlanTree(ctx context.Context, projectID, expectedVersion int64, tree *types.PlanTree) (int64, error)
	// ApplyFieldEdit updates the single field named by the edit: the
	// project vision, or one node description by id. The node must belong
	// to the project.
	ApplyFieldEdit(ctx context.Context, projectID int64, edit types.FieldEdit) error

	// TasksForProject returns every task under the project, ordered by id.
	TasksForProject(ctx context.Context, projectID int64) ([]*types.Task, error)

	Close() error
}

// AnyVersion disables the optimistic version check in ReplacePlanTree.
const AnyVersion = sqlite.AnyVersion

// Config holds database configuration.
type Config struct {
	// Path is the SQLite database file path.
	// Special value ":memory:" creates an in-memory database (useful for tests).
	Path string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{Path: ".planweave/planweave.db"}
}

// NewStorage creates a new SQLite storage backend.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	return sqlite.New(cfg.Path)
}
