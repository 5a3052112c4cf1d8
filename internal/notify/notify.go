// Package notify sends desktop reminders about the week's timesheet.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/oleanders/weeklog/internal/grid"
	"github.com/oleanders/weeklog/internal/lifecycle"
	"github.com/oleanders/weeklog/internal/timevalue"
)

// WeekReminder nudges the user when the current week still needs
// attention: nothing logged yet, or logged but not submitted.
func WeekReminder(week grid.Week, totals grid.Totals, doc *lifecycle.Document) error {
	var body string
	switch {
	case doc != nil && doc.Docstatus == lifecycle.Submitted:
		return nil
	case totals.Week == 0:
		body = fmt.Sprintf("No hours logged for %s yet.", week.String())
	case doc == nil:
		body = fmt.Sprintf("%s hours logged for %s but not saved to a timesheet.",
			timevalue.Format(totals.Week), week.String())
	default:
		body = fmt.Sprintf("Timesheet %s has %s hours and is still a draft. Submit it?",
			doc.Name, timevalue.Format(totals.Week))
	}

	if err := beeep.Notify("Weekly timesheet", body, ""); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}
