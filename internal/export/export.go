// Package export renders a week's time logs as an iCalendar feed so
// logged hours can be overlaid on a regular calendar.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/oleanders/weeklog/internal/grid"
)

// WriteWeek encodes the grid's entries as VEVENTs, one per non-empty
// cell. Entries carry the same 09:00 anchor used when saving.
func WriteWeek(w io.Writer, rows []grid.Row, week grid.Week, calendarName string) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//weeklog//weeklog//EN")
	if calendarName != "" {
		cal.Props.SetText("X-WR-CALNAME", calendarName)
	}

	now := time.Now().UTC()
	for i, e := range grid.Flatten(rows, week) {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, eventUID(e, week, i))
		event.Props.SetDateTime(ical.PropDateTimeStamp, now)
		event.Props.SetDateTime(ical.PropDateTimeStart, e.FromTime)
		event.Props.SetDateTime(ical.PropDateTimeEnd, e.ToTime)
		event.Props.SetText(ical.PropSummary, eventSummary(e))
		if e.Description != "" {
			event.Props.SetText(ical.PropDescription, e.Description)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

func eventSummary(e grid.Entry) string {
	parts := []string{}
	if e.Project != "" {
		parts = append(parts, e.Project)
	}
	if e.Task != "" {
		parts = append(parts, e.Task)
	}
	if e.ActivityType != "" {
		parts = append(parts, e.ActivityType)
	}
	return strings.Join(parts, " / ")
}

func eventUID(e grid.Entry, week grid.Week, i int) string {
	return fmt.Sprintf("%s-%d-%s@weeklog", week.Start.Format("20060102"), i, e.FromTime.Format("20060102T150405"))
}
