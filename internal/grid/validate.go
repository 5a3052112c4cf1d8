package grid

import "fmt"

// Hour thresholds that trigger warnings rather than errors.
const (
	excessiveDayHours  = 12
	excessiveWeekHours = 60
)

// Result carries the outcome of validating a grid. Errors block saving;
// warnings are surfaced alongside a successful save.
type Result struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the grid may be saved.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Validate inspects the grid before a save. Rows with neither project nor
// activity are placeholders and are skipped entirely.
func Validate(rows []Row) Result {
	var res Result
	var weekTotal float64

	for _, row := range rows {
		if row.Project == "" && row.ActivityType == "" {
			continue
		}

		if row.Project == "" {
			res.Errors = append(res.Errors, "project is required for all time entries")
			continue
		}
		if row.ActivityType == "" {
			res.Errors = append(res.Errors, "activity type is required for all time entries")
			continue
		}

		var rowTotal float64
		entered := 0
		for day, hours := range row.DailyHours {
			if hours <= 0 {
				continue
			}
			entered++
			rowTotal += hours
			if hours > excessiveDayHours {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("day %d: %s hours seems excessive, please verify", day+1, formatHours(hours)))
			}
		}

		if entered == 0 {
			res.Errors = append(res.Errors, "at least one time entry is required for each row with project/activity")
			continue
		}

		weekTotal += rowTotal
	}

	if weekTotal > excessiveWeekHours {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("total weekly hours (%.2f) exceeds %d, please verify", weekTotal, excessiveWeekHours))
	}

	if weekTotal == 0 {
		res.Errors = append(res.Errors, "please enter at least one time entry")
	}

	return res
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.2f", h)
}
