package gantt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/internal/types"
)

func TestDurationToDays(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"10 days", 10},
		{"1 day", 1},
		{"2 weeks", 14},
		{"1 Week", 7},
		{"5", 5},
		{"", 7},
		{"soon", 7},
		{"a few days", 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DurationToDays(tt.in), tt.in)
	}
}

func TestBuildRowsDatedTasksKeepDates(t *testing.T) {
	today := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	tasks := []*types.Task{
		{Name: "Kickoff", Duration: 5, StartDate: "2025-02-01", EndDate: "2025-02-10"},
	}
	rows := BuildRows(tasks, today)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-02-01", rows[0].Start.Format(types.DateFormat))
	assert.Equal(t, "2025-02-10", rows[0].End.Format(types.DateFormat))
}

func TestBuildRowsRollingSchedule(t *testing.T) {
	today := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	tasks := []*types.Task{
		{Name: "First", Duration: 10},
		{Name: "Second", Duration: 4},
	}
	rows := BuildRows(tasks, today)
	require.Len(t, rows, 2)

	// First task runs from today for its duration.
	assert.Equal(t, today, rows[0].Start)
	assert.Equal(t, today.AddDate(0, 0, 10), rows[0].End)

	// Second starts the day after the first ends.
	assert.Equal(t, rows[0].End.AddDate(0, 0, 1), rows[1].Start)
	assert.Equal(t, rows[1].Start.AddDate(0, 0, 4), rows[1].End)
}

func TestBuildRowsGuaranteesPositiveSpan(t *testing.T) {
	today := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	tasks := []*types.Task{
		{Name: "Instant", Duration: 3, StartDate: "2025-02-01", EndDate: "2025-02-01"},
		{Name: "", Duration: 0},
	}
	rows := BuildRows(tasks, today)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].End.After(rows[0].Start))
	assert.True(t, rows[1].End.After(rows[1].Start))
	assert.Equal(t, "Untitled Task", rows[1].Task)
	assert.Equal(t, "Unassigned", rows[1].Team)
}

func TestTaskMap(t *testing.T) {
	rows := []Row{{Task: "Build pipeline"}, {Task: "Migrate services"}}
	m := TaskMap(rows)
	assert.Equal(t, map[string]string{
		"Task 1": "Build pipeline",
		"Task 2": "Migrate services",
	}, m)
}

func TestRenderSVG(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{Task: "Build", Team: "Platform", Start: start, End: start.AddDate(0, 0, 20)},
		{Task: "Migrate", Team: "Apps", Start: start.AddDate(0, 0, 21), End: start.AddDate(0, 2, 0)},
	}
	svg := RenderSVG(rows)

	assert.True(t, strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg"`))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	// Month gridline labels across the schedule span.
	assert.Contains(t, svg, "Mar 2025")
	assert.Contains(t, svg, "Apr 2025")
	assert.Contains(t, svg, "May 2025")
	// One numbered label and one bar per row.
	assert.Contains(t, svg, "Task 1")
	assert.Contains(t, svg, "Task 2")
	assert.Equal(t, 2, strings.Count(svg, `rx="3"`))
}

func TestRenderSVGEmpty(t *testing.T) {
	assert.Equal(t, "", RenderSVG(nil))
}
