package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/planweave/planweave/internal/ai"
	"github.com/planweave/planweave/internal/types"
)

// FinancialPlan is the normalized financial document: a summary, four
// tables, and a governance paragraph.
type FinancialPlan struct {
	Summary    string
	Stages     [][]string
	Expenses   [][]string
	Cashflow   [][]string
	Tolerance  [][]string
	Governance string
}

// nominalTaskCostGBP prices a deliverable when the model supplies no expense
// table, so the cashflow phasing still has something to spread.
const nominalTaskCostGBP = 5000.0

func financialPlanPrompt(desc string) string {
	return fmt.Sprintf(`You are a senior financial planner following the PRINCE2 methodology.
Based on the project description below, create a detailed Financial Plan JSON.
<desc>%s</desc>

Generate a JSON object with the exact keys: "summary", "stages", "expenses", "cashflow", "tolerance", and "governance".

Follow these detailed instructions for each key:
1. summary: Write a 2-3 sentence overview of the project's financial objectives. A single string of text.
2. stages: A list of 4-6 project stages. For each stage, provide a "name", "duration", and estimated "cost".
3. expenses: A list of 5-7 key expense items, each with a "category" and a "cost".
   Example: { "category": "Staff Training", "cost": "£10000" }
4. cashflow: A dictionary of key financial metrics: "initial_investment", "monthly_outflow", "expected_return_on_investment_roi", and "break_even_point".
5. tolerance: A dictionary defining deviation limits for "time_tolerance", "cost_tolerance", and "quality_tolerance".
6. governance: A 2-3 sentence paragraph describing the project's financial governance, including review frequency and change control. A single string of text, NOT a dictionary.

Use the currency "£". Return ONLY the JSON object.`, desc)
}

// GenerateFinancialPlan asks the model for the raw financial JSON. A failed
// call or parse returns nil; BuildFinancialPlan fills every section from
// defaults in that case.
func GenerateFinancialPlan(ctx context.Context, llm Completer, desc string) map[string]any {
	if llm == nil {
		return nil
	}
	temp := 0.3
	resp, err := llm.Complete(ctx, ai.Request{
		Prompt:      financialPlanPrompt(desc),
		Temperature: &temp,
		Operation:   "financial plan",
	})
	if err != nil {
		return nil
	}
	obj, parseFailure := ai.Parse[map[string]any](resp.Text, "financial plan")
	if parseFailure != nil {
		return nil
	}
	return obj
}

// BuildFinancialPlan assembles the document from whatever shape the model
// returned, deriving any missing section from the plan tree. Tolerances are
// fixed policy, not model output.
func BuildFinancialPlan(aiFin map[string]any, facts Facts, tree *types.PlanTree) *FinancialPlan {
	plan := &FinancialPlan{
		Summary:  summaryText(aiFin, facts),
		Stages:   normalizeStages(valueOf(aiFin, "stages"), tree),
		Expenses: expensesTable(aiFin, tree),
		Tolerance: [][]string{
			{"Field", "Value"},
			{"time_tolerance", "10%"},
			{"cost_tolerance", "15%"},
			{"quality_tolerance", "5%"},
		},
		Governance: fmt.Sprintf("Executive Sponsor: %s; PM: %s. Board cadence: %s; highlights: %s.",
			facts.ExecutiveSponsor, facts.ProjectManager, facts.BoardCadence, facts.HighlightFrequency),
	}

	var totalCost float64
	for _, row := range plan.Expenses[1:] {
		if len(row) > 1 {
			if v, ok := ParseMoney(row[1]); ok {
				totalCost += v
			}
		}
	}
	plan.Cashflow = cashflowTable(tree, totalCost)
	return plan
}

func summaryText(aiFin map[string]any, facts Facts) string {
	switch s := valueOf(aiFin, "summary").(type) {
	case string:
		if s != "" {
			return s
		}
	case map[string]any:
		if t := firstNonEmpty(stringField(s, "Text"), stringField(s, "text")); t != "" {
			return t
		}
	}
	return fmt.Sprintf("The financial plan for %s covers stages, costs, monthly phasing, "+
		"tolerances and governance. Values below include sensible defaults where "+
		"generated data was unavailable.", facts.ProjectName)
}

// normalizeStages accepts whatever table shape the model produced, falling
// back to one stage per outcome with duration summed from its tasks.
func normalizeStages(data any, tree *types.PlanTree) [][]string {
	if rows := RowsFromAny(data); rows != nil {
		return rows
	}

	rows := [][]string{{"name", "duration", "cost"}}
	if tree == nil {
		return append(rows, []string{"Delivery", "6 weeks", "TBC"})
	}
	for _, outcome := range tree.Outcomes {
		days := 0
		for _, benefit := range outcome.Benefits {
			for _, deliverable := range benefit.Deliverables {
				for _, task := range deliverable.Tasks {
					days += task.Duration
				}
			}
		}
		if days == 0 {
			days = 14
		}
		rows = append(rows, []string{outcome.Description, fmt.Sprintf("%d days", days), "TBC"})
	}
	return rows
}

func expensesTable(aiFin map[string]any, tree *types.PlanTree) [][]string {
	expensesObj := valueOf(aiFin, "expenses")
	if expensesObj == nil {
		expensesObj = valueOf(aiFin, "costs")
	}
	if expensesObj == nil {
		expensesObj = valueOf(aiFin, "Costs")
	}
	if list, ok := expensesObj.([]any); ok && len(list) > 0 {
		if _, ok := list[0].(map[string]any); ok {
			if rows := RowsFromAny(list); rows != nil {
				return rows
			}
		}
	}

	rows := [][]string{{"category", "cost"}}
	for _, e := range ExpensesFromDeliverables(tree) {
		rows = append(rows, []string{e[0], e[1]})
	}
	return rows
}

// ExpensesFromDeliverables prices each deliverable at a nominal per-task
// rate, giving the expense table deterministic content when the model
// supplies none.
func ExpensesFromDeliverables(tree *types.PlanTree) [][2]string {
	var out [][2]string
	if tree == nil {
		return out
	}
	for _, outcome := range tree.Outcomes {
		for _, benefit := range outcome.Benefits {
			for _, deliverable := range benefit.Deliverables {
				taskCount := len(deliverable.Tasks)
				if taskCount == 0 {
					taskCount = 1
				}
				cost := nominalTaskCostGBP * float64(taskCount)
				out = append(out, [2]string{deliverable.Description, FormatMoneyGBP(cost)})
			}
		}
	}
	return out
}

// cashflowTable spreads the total cost evenly over the schedule months.
func cashflowTable(tree *types.PlanTree, totalCost float64) [][]string {
	months := scheduleMonths(tree)
	perMonth := 0.0
	if len(months) > 0 && totalCost > 0 {
		perMonth = totalCost / float64(len(months))
	}
	rows := [][]string{{"month", "planned_outflow"}}
	for _, m := range months {
		rows = append(rows, []string{m.Format("Jan 2006"), FormatMoneyGBP(perMonth)})
	}
	return rows
}

// scheduleMonths returns the first of each month from the earliest task
// start to the latest task end, defaulting to a six month window from now
// when the plan carries no dates.
func scheduleMonths(tree *types.PlanTree) []time.Time {
	var minStart, maxEnd time.Time
	if tree != nil {
		for _, outcome := range tree.Outcomes {
			for _, benefit := range outcome.Benefits {
				for _, deliverable := range benefit.Deliverables {
					for _, task := range deliverable.Tasks {
						if s, err := time.Parse(types.DateFormat, task.StartDate); err == nil {
							if minStart.IsZero() || s.Before(minStart) {
								minStart = s
							}
						}
						if e, err := time.Parse(types.DateFormat, task.EndDate); err == nil {
							if maxEnd.IsZero() || e.After(maxEnd) {
								maxEnd = e
							}
						}
					}
				}
			}
		}
	}
	if minStart.IsZero() {
		minStart = time.Now()
	}
	if maxEnd.IsZero() || maxEnd.Before(minStart) {
		maxEnd = minStart.AddDate(0, 5, 0)
	}

	var months []time.Time
	cur := time.Date(minStart.Year(), minStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(maxEnd.Year(), maxEnd.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		months = append(months, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// ParseMoney reads money-like strings: "£123,456", "$1,000.50", "2500".
func ParseMoney(s string) (float64, bool) {
	cleaned := strings.NewReplacer("£", "", "$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatMoneyGBP renders a value as "£12,345" with thousands grouping.
func FormatMoneyGBP(v float64) string {
	n := int64(v + 0.5)
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := "£" + strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

func valueOf(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}
