package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/internal/ai"
	"github.com/planweave/planweave/internal/types"
)

type stubCompleter struct {
	text string
	err  error
}

func (s *stubCompleter) Complete(ctx context.Context, req ai.Request) (*ai.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ai.Response{Text: s.text}, nil
}

func sampleTree() *types.PlanTree {
	return &types.PlanTree{
		Title: "Launch Automation",
		Outcomes: []types.Outcome{
			{
				Description: "Launches run without manual steps",
				Benefits: []types.Benefit{
					{
						Description: "Faster time to market",
						Deliverables: []types.Deliverable{
							{
								Description: "Release pipeline",
								Tasks: []types.Task{
									{Name: "Build pipeline", ResponsibleTeam: "Platform", Duration: 10,
										StartDate: "2025-03-01", EndDate: "2025-03-15"},
									{Name: "Migrate services", ResponsibleTeam: "Apps", Duration: 20,
										StartDate: "2025-03-10", EndDate: "2025-05-20"},
								},
							},
						},
					},
				},
			},
		},
	}
}

func sampleProject() *types.Project {
	return &types.Project{ID: 7, Name: "Launch Automation", Vision: "Automate every launch"}
}

func TestNormalizePriority(t *testing.T) {
	assert.Equal(t, "High", normalizePriority("high"))
	assert.Equal(t, "High", normalizePriority(" HIGH "))
	assert.Equal(t, "Low", normalizePriority("low"))
	assert.Equal(t, "Medium", normalizePriority("medium"))
	assert.Equal(t, "Medium", normalizePriority("urgent"))
	assert.Equal(t, "Medium", normalizePriority(""))
}

func TestNormalizeCommPlan(t *testing.T) {
	obj := map[string]any{
		"Objective": "  Keep everyone aligned  ",
		"Stakeholders": []any{
			map[string]any{"Stakeholder": "CFO", "Role": "Finance", "Priority": "h"},
			"not a stakeholder object",
		},
		"Channels": []any{"Email", "Slack"},
	}
	plan := NormalizeCommPlan(obj, "Launch Automation")

	assert.Equal(t, "Keep everyone aligned", plan.Objective)
	require.Len(t, plan.Stakeholders, 1)
	s := plan.Stakeholders[0]
	assert.Equal(t, "CFO", s.Name) // "Stakeholder" key accepted as Name
	assert.Equal(t, "High", s.Priority)
	assert.Equal(t, "Status Email", s.CommunicationMethod)
	assert.Equal(t, "Weekly", s.Frequency)
	assert.Equal(t, "Project Manager", s.Responsible)
	assert.Equal(t, []string{"Email", "Slack"}, plan.Channels)
}

func TestNormalizeCommPlanFallsBackToDefault(t *testing.T) {
	for _, obj := range []map[string]any{
		nil,
		{},
		{"Stakeholders": []any{}},
		{"Stakeholders": "a string, not a list"},
	} {
		plan := NormalizeCommPlan(obj, "Launch Automation")
		require.Len(t, plan.Stakeholders, 4)
		assert.Equal(t, "Project Manager", plan.Stakeholders[0].Name)
		assert.Contains(t, plan.Objective, "Launch Automation")
		assert.Contains(t, plan.Notes, "default plan")
	}
}

func TestGenerateCommPlanFailureUsesDefault(t *testing.T) {
	facts := BuildFacts(sampleProject())
	plan := GenerateCommPlan(context.Background(), &stubCompleter{err: errors.New("down")}, facts, "desc")
	assert.Contains(t, plan.Notes, "default plan")

	plan = GenerateCommPlan(context.Background(), &stubCompleter{text: "total gibberish"}, facts, "desc")
	assert.Contains(t, plan.Notes, "default plan")
}

func TestGenerateCommPlanParsesFencedAnswer(t *testing.T) {
	facts := BuildFacts(sampleProject())
	answer := "```json\n{\"Objective\": \"Align\", \"Stakeholders\": [{\"Name\": \"PMO\", \"Role\": \"Oversight\"}]}\n```"
	plan := GenerateCommPlan(context.Background(), &stubCompleter{text: answer}, facts, "desc")
	require.Len(t, plan.Stakeholders, 1)
	assert.Equal(t, "PMO", plan.Stakeholders[0].Name)
	assert.Equal(t, "Align", plan.Objective)
}

func TestRowsFromAny(t *testing.T) {
	t.Run("list of objects", func(t *testing.T) {
		rows := RowsFromAny([]any{
			map[string]any{"name": "Initiation", "cost": "£5000"},
			map[string]any{"name": "Delivery", "cost": "£20000"},
		})
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"cost", "name"}, rows[0])
		assert.Equal(t, []string{"£5000", "Initiation"}, rows[1])
	})

	t.Run("list of lists", func(t *testing.T) {
		rows := RowsFromAny([]any{[]any{"a", "b"}, []any{"c", float64(2)}})
		assert.Equal(t, [][]string{{"a", "b"}, {"c", "2"}}, rows)
	})

	t.Run("flat object", func(t *testing.T) {
		rows := RowsFromAny(map[string]any{"initial_investment": "£100000", "break_even_point": "month 9"})
		assert.Equal(t, [][]string{
			{"Field", "Value"},
			{"break_even_point", "month 9"},
			{"initial_investment", "£100000"},
		}, rows)
	})

	t.Run("stringified JSON", func(t *testing.T) {
		rows := RowsFromAny("```json\n{\"a\": \"1\"}\n```")
		assert.Equal(t, [][]string{{"Field", "Value"}, {"a", "1"}}, rows)
	})

	t.Run("plain text string", func(t *testing.T) {
		rows := RowsFromAny("just a sentence")
		assert.Equal(t, [][]string{{"Text"}, {"just a sentence"}}, rows)
	})

	t.Run("unusable shapes", func(t *testing.T) {
		assert.Nil(t, RowsFromAny(nil))
		assert.Nil(t, RowsFromAny(""))
		assert.Nil(t, RowsFromAny([]any{}))
		assert.Nil(t, RowsFromAny(float64(5)))
	})
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"£123,456", 123456, true},
		{"£10000", 10000, true},
		{"$1,000.50", 1000.50, true},
		{"2500", 2500, true},
		{" £ 7,000 ", 7000, true},
		{"ten pounds", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMoney(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestFormatMoneyGBP(t *testing.T) {
	assert.Equal(t, "£0", FormatMoneyGBP(0))
	assert.Equal(t, "£999", FormatMoneyGBP(999))
	assert.Equal(t, "£1,000", FormatMoneyGBP(1000))
	assert.Equal(t, "£123,457", FormatMoneyGBP(123456.7))
	assert.Equal(t, "£1,234,567", FormatMoneyGBP(1234567))
}

func TestBuildFinancialPlanFromModelOutput(t *testing.T) {
	aiFin := map[string]any{
		"summary": "A phased investment plan.",
		"stages": []any{
			map[string]any{"name": "Initiation", "duration": "2 weeks", "cost": "£10,000"},
		},
		"expenses": []any{
			map[string]any{"category": "Licences", "cost": "£30,000"},
			map[string]any{"category": "Training", "cost": "£6,000"},
		},
	}
	facts := BuildFacts(sampleProject())
	plan := BuildFinancialPlan(aiFin, facts, sampleTree())

	assert.Equal(t, "A phased investment plan.", plan.Summary)
	require.GreaterOrEqual(t, len(plan.Stages), 2)
	assert.Contains(t, plan.Stages[0], "name")

	// £36,000 spread over the Mar-May 2025 schedule months.
	require.Len(t, plan.Cashflow, 4)
	assert.Equal(t, []string{"month", "planned_outflow"}, plan.Cashflow[0])
	assert.Equal(t, "Mar 2025", plan.Cashflow[1][0])
	assert.Equal(t, "£12,000", plan.Cashflow[1][1])

	assert.Equal(t, "10%", plan.Tolerance[1][1])
	assert.Contains(t, plan.Governance, "Executive Sponsor")
}

func TestBuildFinancialPlanDefaults(t *testing.T) {
	facts := BuildFacts(sampleProject())
	plan := BuildFinancialPlan(nil, facts, sampleTree())

	assert.Contains(t, plan.Summary, "Launch Automation")

	// Stages derived from outcomes with summed task days.
	require.Len(t, plan.Stages, 2)
	assert.Equal(t, []string{"Launches run without manual steps", "30 days", "TBC"}, plan.Stages[1])

	// Expenses priced from deliverables: 2 tasks at the nominal rate.
	require.Len(t, plan.Expenses, 2)
	assert.Equal(t, []string{"Release pipeline", "£10,000"}, plan.Expenses[1])

	// That total flows into the cashflow phasing.
	require.Len(t, plan.Cashflow, 4)
	total := 0.0
	for _, row := range plan.Cashflow[1:] {
		v, ok := ParseMoney(row[1])
		require.True(t, ok)
		total += v
	}
	assert.InDelta(t, 10000, total, 2.0)
}

func TestBuildDescription(t *testing.T) {
	desc := BuildDescription(BuildFacts(sampleProject()), sampleTree())
	assert.Contains(t, desc, "Project: Launch Automation")
	assert.Contains(t, desc, "Vision: Automate every launch")
	assert.Contains(t, desc, "Outcome: Launches run without manual steps")
	assert.Contains(t, desc, "Teams involved: Apps, Platform")
}

func TestRenderCommPlanMarkdown(t *testing.T) {
	out := RenderCommPlanMarkdown(DefaultCommPlan("Launch Automation"), "Launch Automation")
	assert.Contains(t, out, "# Communication Plan – Launch Automation")
	assert.Contains(t, out, "| Name | Role |")
	assert.Contains(t, out, "| Project Manager | Delivery Lead |")
	assert.Contains(t, out, "- MS Teams")
}

func TestRenderFinancialPlanMarkdown(t *testing.T) {
	plan := BuildFinancialPlan(nil, BuildFacts(sampleProject()), sampleTree())
	out := RenderFinancialPlanMarkdown(plan, "Launch Automation")
	assert.Contains(t, out, "# Financial Plan – Launch Automation")
	assert.Contains(t, out, "## Cashflow – Monthly Phasing")
	assert.Contains(t, out, "| time_tolerance | 10% |")
	assert.Contains(t, out, "## Governance")
}

func TestWritePlanCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlanCSV(&buf, sampleProject(), sampleTree()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "outcome,benefit,deliverable,task,responsible_team,duration_days,start_date,end_date", lines[0])
	assert.Contains(t, lines[1], "Build pipeline")
	assert.Contains(t, lines[2], "2025-05-20")
}

func TestBuildFlatDocument(t *testing.T) {
	doc := BuildFlatDocument(sampleProject(), sampleTree())
	assert.Equal(t, "Automate every launch", doc["Vision"])
	assert.Equal(t, []string{"Launches run without manual steps"}, doc["Outcomes"])
	assert.Equal(t, []string{"Faster time to market"}, doc["Benefits"])
	assert.Equal(t, []string{"Release pipeline"}, doc["Deliverables"])
	assert.Equal(t, []string{"Build pipeline", "Migrate services"}, doc["Tasks"])
}
