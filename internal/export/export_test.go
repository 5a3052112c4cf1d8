package export

import (
	"bytes"
	"io"
	"testing"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/oleanders/weeklog/internal/grid"
)

func TestWriteWeek(t *testing.T) {
	week := grid.Week{Start: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}
	row := grid.Row{Project: "PROJ-0001", ActivityType: "Development"}
	row.DailyHours[0] = 2
	row.DailyHours[3] = 1.5
	row.Notes[0] = "standup prep"

	var buf bytes.Buffer
	if err := WriteWeek(&buf, []grid.Row{row}, week, "Timesheet"); err != nil {
		t.Fatalf("WriteWeek: %v", err)
	}

	dec := ical.NewDecoder(&buf)
	cal, err := dec.Decode()
	if err != nil && err != io.EOF {
		t.Fatalf("decoding output: %v", err)
	}

	var events []ical.Event
	for _, c := range cal.Children {
		if c.Name == ical.CompEvent {
			events = append(events, ical.Event{Component: c})
		}
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	start, err := events[0].DateTimeStart(time.UTC)
	if err != nil {
		t.Fatalf("DateTimeStart: %v", err)
	}
	want := week.Start.Add(9 * time.Hour)
	if !start.Equal(want) {
		t.Errorf("event start = %v, want %v", start, want)
	}

	end, err := events[0].DateTimeEnd(time.UTC)
	if err != nil {
		t.Fatalf("DateTimeEnd: %v", err)
	}
	if end.Sub(start) != 2*time.Hour {
		t.Errorf("event duration = %v, want 2h", end.Sub(start))
	}

	summary, _ := events[0].Props.Text(ical.PropSummary)
	if summary != "PROJ-0001 / Development" {
		t.Errorf("summary = %q", summary)
	}
}

func TestWriteWeekSkipsEmptyRows(t *testing.T) {
	week := grid.Week{Start: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}

	var buf bytes.Buffer
	err := WriteWeek(&buf, []grid.Row{{}}, week, "")
	if err != nil {
		t.Fatalf("WriteWeek: %v", err)
	}

	dec := ical.NewDecoder(&buf)
	cal, err := dec.Decode()
	if err != nil && err != io.EOF {
		t.Fatalf("decoding output: %v", err)
	}
	for _, c := range cal.Children {
		if c.Name == ical.CompEvent {
			t.Fatal("blank row produced an event")
		}
	}
}
