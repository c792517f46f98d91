// Package export produces the project's supporting documents: the
// communications plan and the financial plan (LLM-generated JSON normalized
// against hand-authored defaults), plus flat plan exports for the evaluation
// harness.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/planweave/planweave/internal/ai"
	"github.com/planweave/planweave/internal/types"
)

// Completer is the slice of the generation client document exports need.
type Completer interface {
	Complete(ctx context.Context, req ai.Request) (*ai.Response, error)
}

// Facts are the project attributes woven into document text. The governance
// roles default to their titles until a project carries real assignments.
type Facts struct {
	ProjectName        string
	Vision             string
	ExecutiveSponsor   string
	ProjectManager     string
	BoardCadence       string
	HighlightFrequency string
}

// BuildFacts derives document facts from a project.
func BuildFacts(project *types.Project) Facts {
	name := project.Name
	if name == "" {
		name = "Project"
	}
	return Facts{
		ProjectName:        name,
		Vision:             project.Vision,
		ExecutiveSponsor:   "Executive Sponsor",
		ProjectManager:     "Project Manager",
		BoardCadence:       "Monthly",
		HighlightFrequency: "Weekly",
	}
}

// BuildDescription flattens a project and its plan into the prose context
// the document prompts work from.
func BuildDescription(facts Facts, tree *types.PlanTree) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", facts.ProjectName)
	if facts.Vision != "" {
		fmt.Fprintf(&b, "Vision: %s\n", facts.Vision)
	}
	if tree == nil {
		return b.String()
	}

	teams := make(map[string]struct{})
	for _, outcome := range tree.Outcomes {
		fmt.Fprintf(&b, "Outcome: %s\n", outcome.Description)
		for _, benefit := range outcome.Benefits {
			fmt.Fprintf(&b, "  Benefit: %s\n", benefit.Description)
			for _, deliverable := range benefit.Deliverables {
				fmt.Fprintf(&b, "    Deliverable: %s\n", deliverable.Description)
				for _, task := range deliverable.Tasks {
					if task.ResponsibleTeam != "" {
						teams[task.ResponsibleTeam] = struct{}{}
					}
				}
			}
		}
	}
	if len(teams) > 0 {
		names := make([]string, 0, len(teams))
		for t := range teams {
			names = append(names, t)
		}
		fmt.Fprintf(&b, "Teams involved: %s\n", strings.Join(sortedStrings(names), ", "))
	}
	return b.String()
}
