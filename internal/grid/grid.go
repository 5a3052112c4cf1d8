// Package grid holds the in-memory weekly timesheet grid: the week window,
// the grouping of flat time-log entries into rows, totals, validation, the
// copy-previous-week merge and the dirty predicate. Everything here is pure
// and operates on values; persistence and transport live elsewhere.
package grid

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// DaysPerWeek is the fixed span of a week window.
const DaysPerWeek = 7

// DefaultStartHour is the time of day assigned to outgoing entries. A cell
// only records a duration, so flattening anchors every entry at 09:00.
const DefaultStartHour = 9

// Week is a fixed 7-day window anchored on a Monday.
type Week struct {
	Start time.Time
}

// WeekOf returns the week window containing t, anchored on Monday at
// midnight in t's location.
func WeekOf(t time.Time) Week {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // ISO: Sunday is day 7
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
	return Week{Start: monday}
}

// End returns the last day of the window (start + 6 days).
func (w Week) End() time.Time {
	return w.Start.AddDate(0, 0, DaysPerWeek-1)
}

// Day returns the date of day index d within the window.
func (w Week) Day(d int) time.Time {
	return w.Start.AddDate(0, 0, d)
}

// Previous returns the window one week earlier.
func (w Week) Previous() Week {
	return Week{Start: w.Start.AddDate(0, 0, -DaysPerWeek)}
}

// Next returns the window one week later.
func (w Week) Next() Week {
	return Week{Start: w.Start.AddDate(0, 0, DaysPerWeek)}
}

func (w Week) String() string {
	return fmt.Sprintf("%s to %s", w.Start.Format("2006-01-02"), w.End().Format("2006-01-02"))
}

// Entry is one flat time-log record as held by the timesheet service.
type Entry struct {
	Timesheet    string
	Docstatus    int
	Project      string
	ProjectName  string
	Task         string
	TaskName     string
	ActivityType string
	ActivityName string
	Hours        float64
	IsBillable   bool
	BillingHours float64
	FromTime     time.Time
	ToTime       time.Time
	Description  string
}

// Row is one (project, task, activity) group spanning all seven days.
type Row struct {
	Project      string
	ProjectName  string
	Task         string
	TaskName     string
	ActivityType string
	ActivityName string
	IsBillable   bool
	DailyHours   [DaysPerWeek]float64
	Notes        [DaysPerWeek]string
	Billable     [DaysPerWeek]int
	OrderIndex   int
}

// Key is the grouping identity of the row.
func (r Row) Key() string {
	return r.Project + "-" + r.Task + "-" + r.ActivityType
}

// Total sums the row's hours across the week.
func (r Row) Total() float64 {
	var total float64
	for _, h := range r.DailyHours {
		total += h
	}
	return total
}

// Blank reports whether the row is an untouched placeholder: no project or
// activity selected and no hours entered. Blank rows are exempt from
// validation and are never flattened.
func (r Row) Blank() bool {
	return r.Project == "" && r.ActivityType == "" && r.Total() == 0
}

// Group folds flat entries into grid rows keyed by (project, task,
// activity). Entries from cancelled documents are skipped; entries whose
// day falls outside the window are dropped. Row order follows the first
// occurrence of each key in the input.
func Group(entries []Entry, week Week, logger *slog.Logger) []Row {
	if logger == nil {
		logger = slog.Default()
	}

	index := make(map[string]int)
	var rows []Row

	for _, e := range entries {
		if e.Docstatus == 2 {
			// Cancelled documents keep their history but contribute no hours.
			continue
		}

		key := e.Project + "-" + e.Task + "-" + e.ActivityType
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, Row{
				Project:      e.Project,
				ProjectName:  e.ProjectName,
				Task:         e.Task,
				TaskName:     e.TaskName,
				ActivityType: e.ActivityType,
				ActivityName: e.ActivityName,
				IsBillable:   e.IsBillable,
				OrderIndex:   i,
			})
		}

		day := dayIndex(e.FromTime, week)
		if day < 0 || day >= DaysPerWeek {
			logger.Debug("entry outside week window, dropped",
				"timesheet", e.Timesheet, "from", e.FromTime, "week", week.String())
			continue
		}

		rows[i].DailyHours[day] += e.Hours
		if e.Description != "" {
			rows[i].Notes[day] = e.Description
		}
		if e.IsBillable {
			rows[i].Billable[day] = 1
		} else {
			rows[i].Billable[day] = 0
		}
	}

	return rows
}

func dayIndex(t time.Time, week Week) int {
	return int(math.Floor(t.Sub(week.Start).Hours() / 24))
}

// Flatten turns grid rows back into outgoing time-log entries. Only cells
// with hours > 0 are emitted; blank rows and rows missing both selections
// are skipped. Each entry starts at DefaultStartHour on its day and ends
// hours later.
func Flatten(rows []Row, week Week) []Entry {
	var entries []Entry

	for _, r := range rows {
		if r.Project == "" && r.ActivityType == "" {
			continue
		}

		for day, hours := range r.DailyHours {
			if hours <= 0 {
				continue
			}

			start := week.Day(day).Add(DefaultStartHour * time.Hour)
			end := start.Add(time.Duration(hours * float64(time.Hour)))

			billing := 0.0
			if r.Billable[day] == 1 {
				billing = hours
			}

			entries = append(entries, Entry{
				Project:      r.Project,
				Task:         r.Task,
				ActivityType: r.ActivityType,
				Hours:        hours,
				IsBillable:   r.Billable[day] == 1,
				BillingHours: billing,
				FromTime:     start,
				ToTime:       end,
				Description:  r.Notes[day],
			})
		}
	}

	return entries
}
