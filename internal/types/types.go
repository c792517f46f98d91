// Package types defines the plan tree schema shared by the planner,
// storage, and evaluation packages.
package types

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the wire format for task dates.
const DateFormat = "2006-01-02"

// Project is the root of a plan tree. Exactly one tree exists per project;
// the tree is replaced wholesale on every reconciliation, and Version is
// bumped on each replacement so concurrent edits can be detected.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Vision    string    `json:"vision"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// PlanTree is the nested plan document produced and consumed by the
// generation service. It mirrors the strict JSON schema sent in prompts.
type PlanTree struct {
	Title    string    `json:"title"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is a desired final result of the project.
type Outcome struct {
	ID          int64     `json:"id,omitempty"`
	Description string    `json:"description"`
	Benefits    []Benefit `json:"benefits"`
}

// Benefit is value realized from an outcome.
type Benefit struct {
	ID           int64         `json:"id,omitempty"`
	Description  string        `json:"description"`
	Deliverables []Deliverable `json:"deliverables"`
}

// Deliverable is a tangible output that realizes a benefit.
type Deliverable struct {
	ID          int64  `json:"id,omitempty"`
	Description string `json:"description"`
	Tasks       []Task `json:"tasks"`
}

// Task is a unit of work under a deliverable. Duration is in days and must
// be positive. Dates are optional; when absent a duration-derived estimate
// is used for display only and never persisted.
type Task struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"name"`
	ResponsibleTeam string `json:"responsible_team"`
	Duration        int    `json:"duration"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
}

// ValidationError reports a schema violation in a plan tree. Path locates
// the offending node, e.g. "outcomes[1].benefits[0].deliverables[2].tasks[0]".
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid plan: %s", e.Reason)
	}
	return fmt.Sprintf("invalid plan at %s: %s", e.Path, e.Reason)
}

// Validate checks the tree against the plan schema: required keys, list
// types, positive durations, and date ordering. It is the single validation
// step used by both the generator and the reconciler; a tree that fails
// here must never be persisted.
func (p *PlanTree) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Path: "title", Reason: "title is required"}
	}
	if len(p.Outcomes) == 0 {
		return &ValidationError{Path: "outcomes", Reason: "at least one outcome is required"}
	}
	for i, o := range p.Outcomes {
		opath := fmt.Sprintf("outcomes[%d]", i)
		if strings.TrimSpace(o.Description) == "" {
			return &ValidationError{Path: opath, Reason: "description is required"}
		}
		for j, b := range o.Benefits {
			bpath := fmt.Sprintf("%s.benefits[%d]", opath, j)
			if strings.TrimSpace(b.Description) == "" {
				return &ValidationError{Path: bpath, Reason: "description is required"}
			}
			for k, d := range b.Deliverables {
				dpath := fmt.Sprintf("%s.deliverables[%d]", bpath, k)
				if strings.TrimSpace(d.Description) == "" {
					return &ValidationError{Path: dpath, Reason: "description is required"}
				}
				for l, t := range d.Tasks {
					tpath := fmt.Sprintf("%s.tasks[%d]", dpath, l)
					if err := t.Validate(); err != nil {
						if verr, ok := err.(*ValidationError); ok {
							verr.Path = tpath
							return verr
						}
						return err
					}
				}
			}
		}
	}
	return nil
}

// Validate checks a single task's fields.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Reason: "task name is required"}
	}
	if t.Duration <= 0 {
		return &ValidationError{Reason: fmt.Sprintf("duration must be positive (got %d)", t.Duration)}
	}
	var start, end time.Time
	var err error
	if t.StartDate != "" {
		if start, err = time.Parse(DateFormat, t.StartDate); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("start_date %q is not YYYY-MM-DD", t.StartDate)}
		}
	}
	if t.EndDate != "" {
		if end, err = time.Parse(DateFormat, t.EndDate); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("end_date %q is not YYYY-MM-DD", t.EndDate)}
		}
	}
	if t.StartDate != "" && t.EndDate != "" && end.Before(start) {
		return &ValidationError{Reason: fmt.Sprintf("end_date %s precedes start_date %s", t.EndDate, t.StartDate)}
	}
	return nil
}

// CountNodes returns the total number of outcome, benefit, deliverable,
// and task nodes in the tree. Used for logging and plan-size checks.
func (p *PlanTree) CountNodes() (outcomes, benefits, deliverables, tasks int) {
	outcomes = len(p.Outcomes)
	for _, o := range p.Outcomes {
		benefits += len(o.Benefits)
		for _, b := range o.Benefits {
			deliverables += len(b.Deliverables)
			for _, d := range b.Deliverables {
				tasks += len(d.Tasks)
			}
		}
	}
	return
}

// EditedField names the single plan field a user edit targets.
type EditedField string

const (
	FieldVision      EditedField = "vision"
	FieldOutcome     EditedField = "outcomes"
	FieldBenefit     EditedField = "benefits"
	FieldDeliverable EditedField = "deliverables"
)

// IsValid checks if the edited field value is one the reconciler accepts.
func (f EditedField) IsValid() bool {
	switch f {
	case FieldVision, FieldOutcome, FieldBenefit, FieldDeliverable:
		return true
	}
	return false
}

// FieldEdit is a single leaf edit applied ahead of reconciliation. For
// FieldVision, NodeID is ignored and Value replaces the project vision.
// For the other fields, Value replaces the description of the node with
// the given ID.
type FieldEdit struct {
	Field  EditedField `json:"edited_field"`
	NodeID int64       `json:"id,omitempty"`
	Value  string      `json:"value"`
}

// Validate checks the edit names a known field and carries a value.
func (e *FieldEdit) Validate() error {
	if !e.Field.IsValid() {
		return fmt.Errorf("unknown edited field: %q", e.Field)
	}
	if strings.TrimSpace(e.Value) == "" {
		return fmt.Errorf("edit value is required")
	}
	if e.Field != FieldVision && e.NodeID <= 0 {
		return fmt.Errorf("node id is required for %s edits", e.Field)
	}
	return nil
}
