package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/planweave/planweave/internal/types"
)

// RenderCommPlanMarkdown renders the communications plan as a markdown
// document with the stakeholder table.
func RenderCommPlanMarkdown(plan *CommPlan, projectName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Communication Plan – %s\n\n", projectName)

	b.WriteString("## Summary\n\n")
	objective := plan.Objective
	if objective == "" {
		objective = "Ensure alignment and timely decisions across stakeholders."
	}
	b.WriteString(objective + "\n\n")

	if len(plan.Stakeholders) > 0 {
		b.WriteString("## Stakeholders\n\n")
		header := []string{"Name", "Role", "CommunicationMethod", "Frequency",
			"Responsible", "Priority", "PreferredDeliveryMethod", "CommunicationGoal"}
		writeMarkdownRow(&b, header)
		writeMarkdownSeparator(&b, len(header))
		for _, s := range plan.Stakeholders {
			writeMarkdownRow(&b, []string{s.Name, s.Role, s.CommunicationMethod, s.Frequency,
				s.Responsible, s.Priority, s.PreferredDeliveryMethod, s.CommunicationGoal})
		}
		b.WriteString("\n")
	}

	if len(plan.Channels) > 0 {
		b.WriteString("## Channels\n\n")
		for _, ch := range plan.Channels {
			fmt.Fprintf(&b, "- %s\n", ch)
		}
		b.WriteString("\n")
	}

	if plan.Notes != "" {
		b.WriteString("## Notes\n\n" + plan.Notes + "\n")
	}
	return b.String()
}

// RenderFinancialPlanMarkdown renders the financial plan document.
func RenderFinancialPlanMarkdown(plan *FinancialPlan, projectName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Financial Plan – %s\n\n", projectName)

	b.WriteString("## Summary\n\n" + plan.Summary + "\n\n")
	writeMarkdownTableSection(&b, "Stages", plan.Stages)
	writeMarkdownTableSection(&b, "Expenses", plan.Expenses)
	writeMarkdownTableSection(&b, "Cashflow – Monthly Phasing", plan.Cashflow)
	writeMarkdownTableSection(&b, "Tolerance", plan.Tolerance)
	b.WriteString("## Governance\n\n" + plan.Governance + "\n")
	return b.String()
}

func writeMarkdownTableSection(b *strings.Builder, title string, rows [][]string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(rows) == 0 {
		b.WriteString("_No data._\n\n")
		return
	}
	writeMarkdownRow(b, rows[0])
	writeMarkdownSeparator(b, len(rows[0]))
	for _, row := range rows[1:] {
		writeMarkdownRow(b, row)
	}
	b.WriteString("\n")
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", "\\|")
	}
	fmt.Fprintf(b, "| %s |\n", strings.Join(escaped, " | "))
}

func writeMarkdownSeparator(b *strings.Builder, n int) {
	cells := make([]string, n)
	for i := range cells {
		cells[i] = "---"
	}
	fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
}

// WriteTableCSV writes a header-plus-rows table as CSV.
func WriteTableCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePlanCSV flattens the full plan tree into one CSV, a row per task,
// with empty task columns for childless deliverables.
func WritePlanCSV(w io.Writer, project *types.Project, tree *types.PlanTree) error {
	rows := [][]string{{"outcome", "benefit", "deliverable", "task", "responsible_team", "duration_days", "start_date", "end_date"}}
	for _, outcome := range tree.Outcomes {
		for _, benefit := range outcome.Benefits {
			for _, deliverable := range benefit.Deliverables {
				if len(deliverable.Tasks) == 0 {
					rows = append(rows, []string{outcome.Description, benefit.Description, deliverable.Description, "", "", "", "", ""})
					continue
				}
				for _, task := range deliverable.Tasks {
					rows = append(rows, []string{
						outcome.Description, benefit.Description, deliverable.Description,
						task.Name, task.ResponsibleTeam, fmt.Sprintf("%d", task.Duration),
						task.StartDate, task.EndDate,
					})
				}
			}
		}
	}
	return WriteTableCSV(w, rows)
}

// BuildFlatDocument flattens a project into the tagged document shape the
// evaluation harness checks: each section is a list of description strings.
func BuildFlatDocument(project *types.Project, tree *types.PlanTree) map[string]any {
	var outcomes, benefits, deliverables, tasks []string
	if tree != nil {
		for _, outcome := range tree.Outcomes {
			outcomes = append(outcomes, outcome.Description)
			for _, benefit := range outcome.Benefits {
				benefits = append(benefits, benefit.Description)
				for _, deliverable := range benefit.Deliverables {
					deliverables = append(deliverables, deliverable.Description)
					for _, task := range deliverable.Tasks {
						tasks = append(tasks, task.Name)
					}
				}
			}
		}
	}
	return map[string]any{
		"Vision":       project.Vision,
		"Outcomes":     outcomes,
		"Benefits":     benefits,
		"Deliverables": deliverables,
		"Tasks":        tasks,
	}
}
