package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/planweave/planweave/internal/types"
)

// GetPlanTree assembles the project's full plan tree. The tree title is the
// project name. Node IDs are included so edits can address nodes.
func (s *Store) GetPlanTree(ctx context.Context, projectID int64) (*types.PlanTree, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	tree := &types.PlanTree{Title: project.Name}

	outcomeRows, err := s.db.QueryContext(ctx, `
		SELECT id, description FROM outcomes WHERE project_id = ? ORDER BY id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer outcomeRows.Close()

	outcomeIdx := map[int64]int{}
	for outcomeRows.Next() {
		var o types.Outcome
		if err := outcomeRows.Scan(&o.ID, &o.Description); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcomeIdx[o.ID] = len(tree.Outcomes)
		tree.Outcomes = append(tree.Outcomes, o)
	}
	if err := outcomeRows.Err(); err != nil {
		return nil, err
	}

	benefitRows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.outcome_id, b.description
		FROM benefits b JOIN outcomes o ON b.outcome_id = o.id
		WHERE o.project_id = ? ORDER BY b.id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query benefits: %w", err)
	}
	defer benefitRows.Close()

	// benefit id -> (outcome index, benefit index)
	type nodeRef struct{ parent, idx int }
	benefitIdx := map[int64]nodeRef{}
	for benefitRows.Next() {
		var b types.Benefit
		var outcomeID int64
		if err := benefitRows.Scan(&b.ID, &outcomeID, &b.Description); err != nil {
			return nil, fmt.Errorf("failed to scan benefit: %w", err)
		}
		oi, ok := outcomeIdx[outcomeID]
		if !ok {
			continue
		}
		benefitIdx[b.ID] = nodeRef{parent: oi, idx: len(tree.Outcomes[oi].Benefits)}
		tree.Outcomes[oi].Benefits = append(tree.Outcomes[oi].Benefits, b)
	}
	if err := benefitRows.Err(); err != nil {
		return nil, err
	}

	deliverableRows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.benefit_id, d.description
		FROM deliverables d
		JOIN benefits b ON d.benefit_id = b.id
		JOIN outcomes o ON b.outcome_id = o.id
		WHERE o.project_id = ? ORDER BY d.id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliverables: %w", err)
	}
	defer deliverableRows.Close()

	type deliverableRef struct{ outcome, benefit, idx int }
	deliverableIdx := map[int64]deliverableRef{}
	for deliverableRows.Next() {
		var d types.Deliverable
		var benefitID int64
		if err := deliverableRows.Scan(&d.ID, &benefitID, &d.Description); err != nil {
			return nil, fmt.Errorf("failed to scan deliverable: %w", err)
		}
		bref, ok := benefitIdx[benefitID]
		if !ok {
			continue
		}
		benefit := &tree.Outcomes[bref.parent].Benefits[bref.idx]
		deliverableIdx[d.ID] = deliverableRef{outcome: bref.parent, benefit: bref.idx, idx: len(benefit.Deliverables)}
		benefit.Deliverables = append(benefit.Deliverables, d)
	}
	if err := deliverableRows.Err(); err != nil {
		return nil, err
	}

	taskRows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.deliverable_id, t.name, t.responsible_team, t.duration, t.start_date, t.end_date
		FROM tasks t
		JOIN deliverables d ON t.deliverable_id = d.id
		JOIN benefits b ON d.benefit_id = b.id
		JOIN outcomes o ON b.outcome_id = o.id
		WHERE o.project_id = ? ORDER BY t.id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		task, deliverableID, err := scanTask(taskRows)
		if err != nil {
			return nil, err
		}
		dref, ok := deliverableIdx[deliverableID]
		if !ok {
			continue
		}
		deliverable := &tree.Outcomes[dref.outcome].Benefits[dref.benefit].Deliverables[dref.idx]
		deliverable.Tasks = append(deliverable.Tasks, *task)
	}
	return tree, taskRows.Err()
}

// ReplacePlanTree atomically swaps the project's plan tree for the given
// one. The whole operation runs in one IMMEDIATE transaction so concurrent
// readers never see a partially-deleted tree, and the version check
// serializes concurrent reconciliations: the loser gets ErrStaleVersion
// and no mutation.
func (s *Store) ReplacePlanTree(ctx context.Context, projectID, expectedVersion int64, tree *types.PlanTree) (int64, error) {
	if tree == nil {
		return 0, fmt.Errorf("tree is required")
	}
	if err := tree.Validate(); err != nil {
		return 0, err
	}

	// A dedicated connection lets us run BEGIN IMMEDIATE, which takes the
	// write lock up front; database/sql's BeginTx would use DEFERRED.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return 0, fmt.Errorf("failed to begin immediate transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Rollback with a fresh context so cleanup happens even if ctx
			// was canceled mid-replace.
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	var version int64
	err = conn.QueryRowContext(ctx, `SELECT version FROM projects WHERE id = ?`, projectID).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read project version: %w", err)
	}
	if expectedVersion != AnyVersion && version != expectedVersion {
		return 0, fmt.Errorf("project %d at version %d, expected %d: %w",
			projectID, version, expectedVersion, ErrStaleVersion)
	}

	// Cascading deletes take the whole subtree with the outcomes.
	if _, err := conn.ExecContext(ctx, `DELETE FROM outcomes WHERE project_id = ?`, projectID); err != nil {
		return 0, fmt.Errorf("failed to delete old subtree: %w", err)
	}

	for _, o := range tree.Outcomes {
		res, err := conn.ExecContext(ctx, `
			INSERT INTO outcomes (project_id, description) VALUES (?, ?)
		`, projectID, o.Description)
		if err != nil {
			return 0, fmt.Errorf("failed to insert outcome: %w", err)
		}
		outcomeID, _ := res.LastInsertId()

		for _, b := range o.Benefits {
			res, err := conn.ExecContext(ctx, `
				INSERT INTO benefits (outcome_id, description) VALUES (?, ?)
			`, outcomeID, b.Description)
			if err != nil {
				return 0, fmt.Errorf("failed to insert benefit: %w", err)
			}
			benefitID, _ := res.LastInsertId()

			for _, d := range b.Deliverables {
				res, err := conn.ExecContext(ctx, `
					INSERT INTO deliverables (benefit_id, description) VALUES (?, ?)
				`, benefitID, d.Description)
				if err != nil {
					return 0, fmt.Errorf("failed to insert deliverable: %w", err)
				}
				deliverableID, _ := res.LastInsertId()

				for _, t := range d.Tasks {
					team := t.ResponsibleTeam
					if team == "" {
						team = "Unassigned"
					}
					_, err := conn.ExecContext(ctx, `
						INSERT INTO tasks (deliverable_id, name, responsible_team, duration, start_date, end_date)
						VALUES (?, ?, ?, ?, ?, ?)
					`, deliverableID, t.Name, team, t.Duration, nullIfEmpty(t.StartDate), nullIfEmpty(t.EndDate))
					if err != nil {
						return 0, fmt.Errorf("failed to insert task: %w", err)
					}
				}
			}
		}
	}

	newVersion := version + 1
	if _, err := conn.ExecContext(ctx, `
		UPDATE projects SET name = ?, version = ? WHERE id = ?
	`, tree.Title, newVersion, projectID); err != nil {
		return 0, fmt.Errorf("failed to update project: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return newVersion, nil
}

// ApplyFieldEdit updates the single field named by the edit. Node edits are
// scoped to the project so an id from another project's tree is rejected as
// not found.
func (s *Store) ApplyFieldEdit(ctx context.Context, projectID int64, edit types.FieldEdit) error {
	if err := edit.Validate(); err != nil {
		return err
	}

	var res sql.Result
	var err error
	switch edit.Field {
	case types.FieldVision:
		res, err = s.db.ExecContext(ctx, `
			UPDATE projects SET vision = ? WHERE id = ?
		`, edit.Value, projectID)
	case types.FieldOutcome:
		res, err = s.db.ExecContext(ctx, `
			UPDATE outcomes SET description = ? WHERE id = ? AND project_id = ?
		`, edit.Value, edit.NodeID, projectID)
	case types.FieldBenefit:
		res, err = s.db.ExecContext(ctx, `
			UPDATE benefits SET description = ?
			WHERE id = ? AND outcome_id IN (SELECT id FROM outcomes WHERE project_id = ?)
		`, edit.Value, edit.NodeID, projectID)
	case types.FieldDeliverable:
		res, err = s.db.ExecContext(ctx, `
			UPDATE deliverables SET description = ?
			WHERE id = ? AND benefit_id IN (
				SELECT b.id FROM benefits b
				JOIN outcomes o ON b.outcome_id = o.id
				WHERE o.project_id = ?
			)
		`, edit.Value, edit.NodeID, projectID)
	default:
		return fmt.Errorf("unknown edited field: %q", edit.Field)
	}
	if err != nil {
		return fmt.Errorf("failed to apply %s edit: %w", edit.Field, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TasksForProject returns every task under the project, ordered by id.
func (s *Store) TasksForProject(ctx context.Context, projectID int64) ([]*types.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.deliverable_id, t.name, t.responsible_team, t.duration, t.start_date, t.end_date
		FROM tasks t
		JOIN deliverables d ON t.deliverable_id = d.id
		JOIN benefits b ON d.benefit_id = b.id
		JOIN outcomes o ON b.outcome_id = o.id
		WHERE o.project_id = ? ORDER BY t.id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*types.Task
	for rows.Next() {
		task, _, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(rows *sql.Rows) (*types.Task, int64, error) {
	var t types.Task
	var deliverableID sql.NullInt64
	var startDate, endDate sql.NullString
	if err := rows.Scan(&t.ID, &deliverableID, &t.Name, &t.ResponsibleTeam, &t.Duration, &startDate, &endDate); err != nil {
		return nil, 0, fmt.Errorf("failed to scan task: %w", err)
	}
	if startDate.Valid {
		t.StartDate = startDate.String
	}
	if endDate.Valid {
		t.EndDate = endDate.String
	}
	return &t, deliverableID.Int64, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
