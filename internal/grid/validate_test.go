package grid

import (
	"strings"
	"testing"
)

func TestValidateEmptyGrid(t *testing.T) {
	res := Validate([]Row{{}, {}})
	if res.Valid() {
		t.Fatal("empty grid must not be valid")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("got %d errors, want exactly 1: %v", len(res.Errors), res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("got %d warnings, want 0: %v", len(res.Warnings), res.Warnings)
	}
	if !strings.Contains(res.Errors[0], "at least one time entry") {
		t.Errorf("unexpected error text %q", res.Errors[0])
	}
}

func TestValidateMissingActivity(t *testing.T) {
	row := Row{Project: "P1"}
	row.DailyHours[0] = 4

	res := Validate([]Row{row})
	if res.Valid() {
		t.Fatal("project without activity must be an error")
	}
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "activity type is required") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing activity error not reported: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("missing activity must be an error, not a warning: %v", res.Warnings)
	}
}

func TestValidateMissingProject(t *testing.T) {
	row := Row{ActivityType: "A1"}
	row.DailyHours[2] = 2

	res := Validate([]Row{row})
	if res.Valid() {
		t.Fatal("activity without project must be an error")
	}
}

func TestValidateRowWithoutHours(t *testing.T) {
	res := Validate([]Row{{Project: "P1", ActivityType: "A1"}})
	if res.Valid() {
		t.Fatal("row with selections but no hours must be an error")
	}
}

func TestValidateExcessiveDayWarns(t *testing.T) {
	row := Row{Project: "P1", ActivityType: "A1"}
	row.DailyHours[3] = 13

	res := Validate([]Row{row})
	if !res.Valid() {
		t.Fatalf("excessive hours must warn, not block: %v", res.Errors)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "excessive") {
		t.Errorf("expected one excessive-day warning, got %v", res.Warnings)
	}
}

func TestValidateExcessiveWeekWarns(t *testing.T) {
	var rows []Row
	for i := 0; i < 7; i++ {
		row := Row{Project: "P1", ActivityType: "A1", Task: string(rune('a' + i))}
		for d := range row.DailyHours {
			row.DailyHours[d] = 10
		}
		rows = append(rows, row)
	}

	res := Validate(rows)
	if !res.Valid() {
		t.Fatalf("week total over 60 must warn, not block: %v", res.Errors)
	}
	weekWarned := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "total weekly hours") {
			weekWarned = true
		}
	}
	if !weekWarned {
		t.Errorf("expected weekly-total warning, got %v", res.Warnings)
	}
}

func TestValidateHappyPath(t *testing.T) {
	row := Row{Project: "P1", ActivityType: "A1"}
	row.DailyHours[0] = 8
	row.DailyHours[1] = 8

	res := Validate([]Row{row, {}})
	if !res.Valid() {
		t.Fatalf("valid grid rejected: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}
