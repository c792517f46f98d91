package planner

import (
	"fmt"
	"strings"

	"github.com/planweave/planweave/internal/types"
)

// planSchema is embedded in every prompt so the model always sees the exact
// shape we parse. Dates are optional; duration is working days.
const planSchema = `{
  "title": "string - short project name",
  "outcomes": [
    {
      "description": "string - a strategic outcome the project achieves",
      "benefits": [
        {
          "description": "string - a measurable benefit of the outcome",
          "deliverables": [
            {
              "description": "string - a concrete deliverable producing the benefit",
              "tasks": [
                {
                  "name": "string - actionable task name",
                  "responsible_team": "string - team that owns the task",
                  "duration": "integer - working days, must be > 0",
                  "start_date": "string - YYYY-MM-DD, optional",
                  "end_date": "string - YYYY-MM-DD, optional"
                }
              ]
            }
          ]
        }
      ]
    }
  ]
}`

// buildGenerationPrompt asks for a fresh plan tree from a vision statement.
// projectDocs and teamDocs come from the vector store and may be empty.
func buildGenerationPrompt(vision string, projectDocs, teamDocs []string) string {
	var b strings.Builder

	b.WriteString("You are an experienced project manager. Turn the vision statement below into a complete hierarchical project plan.\n\n")
	fmt.Fprintf(&b, "Vision statement:\n%s\n\n", vision)

	if len(projectDocs) > 0 {
		b.WriteString("Similar past projects for reference (do not copy, use for grounding):\n")
		for _, doc := range projectDocs {
			fmt.Fprintf(&b, "- %s\n", doc)
		}
		b.WriteString("\n")
	}
	if len(teamDocs) > 0 {
		b.WriteString("Teams available in the organization. Assign responsible_team only from these:\n")
		for _, doc := range teamDocs {
			fmt.Fprintf(&b, "- %s\n", doc)
		}
		b.WriteString("\n")
	}

	b.WriteString("Requirements:\n")
	b.WriteString("- 2 to 4 outcomes, each with 1 to 3 benefits\n")
	b.WriteString("- every benefit has at least one deliverable, every deliverable at least one task\n")
	b.WriteString("- every task has a responsible_team and a positive duration in working days\n\n")

	fmt.Fprintf(&b, "Return ONLY a JSON object matching this schema, with no commentary:\n%s\n", planSchema)
	return b.String()
}

// buildReconcilePrompt asks the model to regenerate the whole tree after a
// single field changed, so downstream levels stay consistent with the edit.
func buildReconcilePrompt(vision, treeJSON string, edit types.FieldEdit) string {
	var b strings.Builder

	b.WriteString("You are an experienced project manager maintaining a hierarchical project plan.\n\n")
	fmt.Fprintf(&b, "Project vision:\n%s\n\n", vision)
	fmt.Fprintf(&b, "Current plan:\n%s\n\n", treeJSON)

	switch edit.Field {
	case types.FieldVision:
		fmt.Fprintf(&b, "The project vision was just changed to:\n%s\n\n", edit.Value)
		b.WriteString("Regenerate the entire plan so that every outcome, benefit, deliverable and task reflects the new vision. Keep anything that is still valid.\n\n")
	default:
		fmt.Fprintf(&b, "The %s node with id %d was just changed to:\n%s\n\n",
			nodeNoun(edit.Field), edit.NodeID, edit.Value)
		b.WriteString("Regenerate the entire plan so that all levels are consistent with this change. Propagate the change downward and adjust sibling or parent descriptions only where the edit makes them wrong. Keep everything that is still valid unchanged.\n\n")
	}

	fmt.Fprintf(&b, "Return ONLY a JSON object matching this schema, with no commentary:\n%s\n", planSchema)
	return b.String()
}

// buildRetryPrompt wraps the original prompt after an unparseable response.
func buildRetryPrompt(original, parseErr string) string {
	return fmt.Sprintf("Your previous response was not valid JSON (%s). %s", parseErr, original)
}

func nodeNoun(f types.EditedField) string {
	switch f {
	case types.FieldOutcome:
		return "outcome"
	case types.FieldBenefit:
		return "benefit"
	case types.FieldDeliverable:
		return "deliverable"
	default:
		return string(f)
	}
}
