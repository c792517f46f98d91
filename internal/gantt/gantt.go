// Package gantt renders a project schedule as an SVG Gantt chart. Tasks
// without explicit dates are laid out on a rolling schedule derived from
// their durations.
package gantt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/planweave/planweave/internal/types"
)

// Row is one scheduled bar on the chart.
type Row struct {
	Task  string
	Team  string
	Start time.Time
	End   time.Time
}

// palette cycles across bars.
var palette = []string{
	"#4A90E2", "#50E3C2", "#F5A623", "#D0021B", "#7B61FF", "#417505",
	"#B8E986", "#F8E71C", "#BD10E0", "#7ED321", "#9013FE", "#F56A79",
}

// DurationToDays parses duration phrases like "10 days", "3 weeks" or a
// bare number of days. Unparseable input gets the default of one week.
func DurationToDays(s string) int {
	const defaultDays = 7
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultDays
	}
	fields := strings.Fields(s)
	num, err := strconv.Atoi(fields[0])
	if err != nil {
		return defaultDays
	}
	if len(fields) > 1 && strings.Contains(strings.ToLower(fields[1]), "week") {
		return num * 7
	}
	return num
}

// BuildRows schedules tasks for charting. Fully dated tasks keep their
// dates; the rest start where the previous task ended and span their
// duration. Every bar is guaranteed at least one day wide.
func BuildRows(tasks []*types.Task, today time.Time) []Row {
	rows := make([]Row, 0, len(tasks))
	rolling := today
	for _, t := range tasks {
		var start, end time.Time
		startDate, startErr := time.Parse(types.DateFormat, t.StartDate)
		endDate, endErr := time.Parse(types.DateFormat, t.EndDate)

		if startErr == nil && endErr == nil {
			start, end = startDate, endDate
		} else {
			days := t.Duration
			if days < 1 {
				days = 1
			}
			if startErr == nil {
				start = startDate
			} else {
				start = rolling
			}
			end = start.AddDate(0, 0, days)
			rolling = end.AddDate(0, 0, 1)
		}
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}

		name := t.Name
		if name == "" {
			name = "Untitled Task"
		}
		team := t.ResponsibleTeam
		if team == "" {
			team = "Unassigned"
		}
		rows = append(rows, Row{Task: name, Team: team, Start: start, End: end})
	}
	return rows
}

// TaskMap maps chart labels ("Task 1", "Task 2", ...) to task names, for
// the legend next to the chart.
func TaskMap(rows []Row) map[string]string {
	out := make(map[string]string, len(rows))
	for i, r := range rows {
		out[fmt.Sprintf("Task %d", i+1)] = r.Task
	}
	return out
}

// RenderSVG draws the rows as an SVG document: dashed month gridlines with
// labels, one colored bar per task, numbered task labels down the left.
// Returns "" for an empty schedule.
func RenderSVG(rows []Row) string {
	if len(rows) == 0 {
		return ""
	}

	startMin, endMax := rows[0].Start, rows[0].End
	for _, r := range rows[1:] {
		if r.Start.Before(startMin) {
			startMin = r.Start
		}
		if r.End.After(endMax) {
			endMax = r.End
		}
	}
	totalDays := int(endMax.Sub(startMin).Hours() / 24)
	if totalDays < 1 {
		totalDays = 1
	}

	const (
		width       = 1100
		left        = 140
		right       = 20
		top         = 40
		bottom      = 20
		rowHeight   = 28
		barHeight   = 14
		headerSpace = 20
	)
	height := 90 + rowHeight*len(rows)

	xFor := func(d time.Time) int {
		days := int(d.Sub(startMin).Hours() / 24)
		return left + days*(width-left-right)/totalDays
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, width, height)
	b.WriteString(`<rect width="100%" height="100%" fill="#f8f9fb"/>`)

	// Month gridlines from the first of the starting month.
	cur := time.Date(startMin.Year(), startMin.Month(), 1, 0, 0, 0, 0, startMin.Location())
	for !cur.After(endMax) {
		x := xFor(cur)
		fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#ddd" stroke-dasharray="3,3"/>`,
			x, top, x, height-bottom)
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" fill="#666">%s</text>`,
			x+4, top-8, cur.Format("Jan 2006"))
		cur = cur.AddDate(0, 1, 0)
	}

	for i, r := range rows {
		y := top + headerSpace + i*rowHeight
		x1, x2 := xFor(r.Start), xFor(r.End)
		barWidth := x2 - x1
		if barWidth < 2 {
			barWidth = 2
		}
		color := palette[i%len(palette)]
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="#333" stroke-width="1" rx="3" ry="3"/>`,
			x1, y, barWidth, barHeight, color)
		fmt.Fprintf(&b, `<text x="10" y="%d" font-size="12" fill="#333">Task %d</text>`, y+12, i+1)
	}

	b.WriteString("</svg>")
	return b.String()
}
