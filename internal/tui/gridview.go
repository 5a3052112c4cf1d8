package tui

import (
	"fmt"
	"strings"

	"github.com/oleanders/weeklog/internal/grid"
	"github.com/oleanders/weeklog/internal/session"
	"github.com/oleanders/weeklog/internal/timevalue"
)

const (
	labelWidth = 34
	cellWidth  = 7
)

// rowLabel is the left-hand column: project, task and activity joined
// with the display names the service sent along.
func rowLabel(r grid.Row) string {
	parts := []string{}
	if r.ProjectName != "" {
		parts = append(parts, r.ProjectName)
	} else if r.Project != "" {
		parts = append(parts, r.Project)
	}
	if r.TaskName != "" {
		parts = append(parts, r.TaskName)
	} else if r.Task != "" {
		parts = append(parts, r.Task)
	}
	if r.ActivityName != "" {
		parts = append(parts, r.ActivityName)
	} else if r.ActivityType != "" {
		parts = append(parts, r.ActivityType)
	}
	if len(parts) == 0 {
		return "(new row)"
	}
	return strings.Join(parts, " / ")
}

func pad(s string, width int) string {
	if len(s) > width {
		return s[:width-1] + "…"
	}
	return s + strings.Repeat(" ", width-len(s))
}

func cell(r grid.Row, day int) string {
	h := r.DailyHours[day]
	if h == 0 {
		return "·"
	}
	s := timevalue.Format(h)
	if r.Billable[day] == 1 {
		s += "*"
	}
	if r.Notes[day] != "" {
		s += "'"
	}
	return s
}

func renderGrid(s *session.Session, cur gridCursor, editing bool, editValue string) string {
	var sb strings.Builder

	week := s.Week()
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Week %s", week.String())))
	sb.WriteString("\n")
	sb.WriteString(renderDocLine(s))
	sb.WriteString("\n\n")

	// Header row: day names and dates.
	sb.WriteString(headerStyle.Render(pad("", labelWidth)))
	for d := 0; d < grid.DaysPerWeek; d++ {
		day := week.Day(d)
		sb.WriteString(headerStyle.Render(pad(day.Format("Mon 2"), cellWidth)))
	}
	sb.WriteString(headerStyle.Render(pad("Total", cellWidth)))
	sb.WriteString("\n")

	rows := s.Rows()
	totals := s.Totals()

	for i, r := range rows {
		prefix := "  "
		if i == cur.row {
			prefix = "> "
		}
		label := pad(prefix+rowLabel(r), labelWidth)
		if i == cur.row {
			label = selectedStyle.Render(label)
		}
		sb.WriteString(label)

		for d := 0; d < grid.DaysPerWeek; d++ {
			var text string
			if editing && i == cur.row && d == cur.col {
				text = editValue + "▏"
			} else {
				text = cell(r, d)
			}
			padded := pad(text, cellWidth)
			if i == cur.row && d == cur.col {
				padded = highlightStyle.Render(padded)
			}
			sb.WriteString(padded)
		}

		sb.WriteString(totalStyle.Render(pad(timevalue.Format(totals.PerRow[i]), cellWidth)))
		sb.WriteString("\n")
	}

	if len(rows) == 0 {
		sb.WriteString(dimStyle.Render("  No entries this week. Press + to add a row or c to copy last week."))
		sb.WriteString("\n")
	}

	// Totals row.
	sb.WriteString(totalStyle.Render(pad("  Total", labelWidth)))
	for d := 0; d < grid.DaysPerWeek; d++ {
		text := "·"
		if totals.PerDay[d] > 0 {
			text = timevalue.Format(totals.PerDay[d])
		}
		sb.WriteString(totalStyle.Render(pad(text, cellWidth)))
	}
	sb.WriteString(totalStyle.Render(pad(timevalue.Format(totals.Week), cellWidth)))
	sb.WriteString("\n")

	sb.WriteString(dimStyle.Render(fmt.Sprintf("  billable %s  ·  non-billable %s",
		timevalue.Format(totals.Billable), timevalue.Format(totals.NonBillable))))
	sb.WriteString("\n")

	return sb.String()
}

func renderDocLine(s *session.Session) string {
	emp := s.Employee()
	who := emp.EmployeeName
	if who == "" {
		who = emp.Name
	}

	doc := s.Doc()
	var state string
	switch {
	case doc == nil:
		state = dimStyle.Render("unsaved")
	case doc.Docstatus.Editable():
		state = fmt.Sprintf("%s %s", doc.Name, successStyle.Render(doc.Status))
	default:
		state = fmt.Sprintf("%s %s", doc.Name, readOnlyStyle.Render(doc.Status+" (read-only)"))
	}

	line := fmt.Sprintf("%s  ·  %s", who, state)
	if doc != nil {
		if action := doc.Docstatus.Action(); action != "" {
			line += dimStyle.Render("  ·  available: " + action)
		}
	}
	if s.Dirty() {
		line += "  " + warningStyle.Render("● unsaved changes")
	}
	return line
}
