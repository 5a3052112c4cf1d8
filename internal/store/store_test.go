package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/oleanders/weeklog/internal/api"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func saveReq(name string) api.SaveRequest {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return api.SaveRequest{
		Employee:      "EMP-0001",
		StartDate:     "2026-03-02",
		TimesheetName: name,
		TimeLogs: []api.TimeLog{{
			Project:      "PROJ-0001",
			ActivityType: "Development",
			Hours:        8,
			IsBillable:   true,
			BillingHours: 8,
			FromTime:     start.Add(9 * time.Hour),
			ToTime:       start.Add(17 * time.Hour),
		}},
	}
}

func TestSaveWeekCreatesDraft(t *testing.T) {
	db := testDB(t)

	resp, err := db.SaveWeek(saveReq(""))
	if err != nil {
		t.Fatalf("SaveWeek: %v", err)
	}
	if resp.Name != "TS-00001" {
		t.Errorf("name = %q, want TS-00001", resp.Name)
	}
	if resp.Docstatus != 0 || resp.Status != "Draft" {
		t.Errorf("new timesheet not a draft: %+v", resp)
	}
	if resp.TotalHours != 8 || resp.TotalBillableHours != 8 {
		t.Errorf("totals = %v / %v", resp.TotalHours, resp.TotalBillableHours)
	}

	logs, err := db.WeekTimesheets("EMP-0001", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("WeekTimesheets: %v", err)
	}
	if len(logs) != 1 || logs[0].Timesheet != "TS-00001" {
		t.Fatalf("stored logs = %+v", logs)
	}
}

func TestSaveWeekRewritesDraftInPlace(t *testing.T) {
	db := testDB(t)

	first, err := db.SaveWeek(saveReq(""))
	if err != nil {
		t.Fatalf("initial save: %v", err)
	}

	req := saveReq(first.Name)
	req.TimeLogs[0].Hours = 4
	req.TimeLogs[0].BillingHours = 4
	resp, err := db.SaveWeek(req)
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if resp.Name != first.Name {
		t.Errorf("resave changed identity: %q -> %q", first.Name, resp.Name)
	}

	logs, err := db.WeekTimesheets("EMP-0001", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("WeekTimesheets: %v", err)
	}
	if len(logs) != 1 || logs[0].Hours != 4 {
		t.Fatalf("logs after resave = %+v", logs)
	}
}

func TestSaveWeekRejectsSubmitted(t *testing.T) {
	db := testDB(t)

	resp, err := db.SaveWeek(saveReq(""))
	if err != nil {
		t.Fatalf("SaveWeek: %v", err)
	}
	if _, err := db.SubmitTimesheet(resp.Name); err != nil {
		t.Fatalf("SubmitTimesheet: %v", err)
	}

	_, err = db.SaveWeek(saveReq(resp.Name))
	if !errors.Is(err, ErrSubmittedLocked) {
		t.Fatalf("save on submitted = %v, want ErrSubmittedLocked", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	db := testDB(t)

	resp, err := db.SaveWeek(saveReq(""))
	if err != nil {
		t.Fatalf("SaveWeek: %v", err)
	}

	// Cancel requires a submitted document.
	if _, err := db.CancelTimesheet(resp.Name); err == nil {
		t.Fatal("cancel on draft must fail")
	}

	sub, err := db.SubmitTimesheet(resp.Name)
	if err != nil {
		t.Fatalf("SubmitTimesheet: %v", err)
	}
	if sub.Docstatus != 1 || sub.Status != "Submitted" {
		t.Errorf("after submit: %+v", sub)
	}

	// Submit is not repeatable.
	if _, err := db.SubmitTimesheet(resp.Name); err == nil {
		t.Fatal("double submit must fail")
	}

	can, err := db.CancelTimesheet(resp.Name)
	if err != nil {
		t.Fatalf("CancelTimesheet: %v", err)
	}
	if can.Docstatus != 2 {
		t.Errorf("after cancel: %+v", can)
	}
}

func TestAmendCreatesNewDraft(t *testing.T) {
	db := testDB(t)

	resp, err := db.SaveWeek(saveReq(""))
	if err != nil {
		t.Fatalf("SaveWeek: %v", err)
	}

	// Amend requires a cancelled document.
	if _, err := db.AmendTimesheet(resp.Name); err == nil {
		t.Fatal("amend on draft must fail")
	}

	if _, err := db.SubmitTimesheet(resp.Name); err != nil {
		t.Fatalf("SubmitTimesheet: %v", err)
	}
	if _, err := db.CancelTimesheet(resp.Name); err != nil {
		t.Fatalf("CancelTimesheet: %v", err)
	}

	amended, err := db.AmendTimesheet(resp.Name)
	if err != nil {
		t.Fatalf("AmendTimesheet: %v", err)
	}
	if amended.Name != resp.Name+"-1" {
		t.Errorf("amendment name = %q, want %q", amended.Name, resp.Name+"-1")
	}
	if amended.Docstatus != 0 || amended.Status != "Draft" {
		t.Errorf("amendment not a draft: %+v", amended)
	}

	ts, err := db.GetTimesheet(amended.Name)
	if err != nil {
		t.Fatalf("GetTimesheet: %v", err)
	}
	if ts.AmendedFrom != resp.Name {
		t.Errorf("amended_from = %q, want %q", ts.AmendedFrom, resp.Name)
	}

	// The copied logs belong to the new document.
	logs, err := db.WeekTimesheets("EMP-0001", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("WeekTimesheets: %v", err)
	}
	found := false
	for _, l := range logs {
		if l.Timesheet == amended.Name && l.Hours == 8 {
			found = true
		}
	}
	if !found {
		t.Errorf("amendment did not copy time logs: %+v", logs)
	}
}

func TestNamingSkipsAmendmentSuffixes(t *testing.T) {
	db := testDB(t)

	first, err := db.SaveWeek(saveReq(""))
	if err != nil {
		t.Fatalf("SaveWeek: %v", err)
	}
	if _, err := db.SubmitTimesheet(first.Name); err != nil {
		t.Fatalf("SubmitTimesheet: %v", err)
	}
	if _, err := db.CancelTimesheet(first.Name); err != nil {
		t.Fatalf("CancelTimesheet: %v", err)
	}
	if _, err := db.AmendTimesheet(first.Name); err != nil {
		t.Fatalf("AmendTimesheet: %v", err)
	}

	second, err := db.SaveWeek(saveReq(""))
	if err != nil {
		t.Fatalf("second SaveWeek: %v", err)
	}
	if second.Name != "TS-00002" {
		t.Errorf("second base name = %q, want TS-00002", second.Name)
	}
}

func TestActivityCostFallback(t *testing.T) {
	db := testDB(t)
	if err := db.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	// No per-employee record: activity defaults apply.
	cost, err := db.ActivityCost("EMP-0001", "Development")
	if err != nil {
		t.Fatalf("ActivityCost: %v", err)
	}
	if cost.BillingRate != 100 {
		t.Errorf("fallback billing rate = %v, want 100", cost.BillingRate)
	}

	_, err = db.Exec(`INSERT INTO activity_costs (employee, activity_type, billing_rate, costing_rate)
		VALUES ('EMP-0001', 'Development', 150, 80)`)
	if err != nil {
		t.Fatalf("inserting cost record: %v", err)
	}

	cost, err = db.ActivityCost("EMP-0001", "Development")
	if err != nil {
		t.Fatalf("ActivityCost: %v", err)
	}
	if cost.BillingRate != 150 {
		t.Errorf("employee billing rate = %v, want 150", cost.BillingRate)
	}

	// Unknown activity resolves to zero rates, not an error.
	cost, err = db.ActivityCost("EMP-0001", "Unknown")
	if err != nil {
		t.Fatalf("ActivityCost: %v", err)
	}
	if cost.BillingRate != 0 || cost.CostingRate != 0 {
		t.Errorf("unknown activity rates = %+v, want zeros", cost)
	}
}

func TestCatalogFilters(t *testing.T) {
	db := testDB(t)
	if err := db.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	_, err := db.Exec(`INSERT INTO projects (name, project_name, status) VALUES ('PROJ-9', 'Done', 'Completed')`)
	if err != nil {
		t.Fatalf("inserting project: %v", err)
	}
	_, err = db.Exec(`INSERT INTO activity_types (name, disabled) VALUES ('Retired', 1)`)
	if err != nil {
		t.Fatalf("inserting activity: %v", err)
	}

	projects, err := db.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	for _, p := range projects {
		if p.Status != "Open" {
			t.Errorf("closed project leaked into picker: %+v", p)
		}
	}

	types, err := db.ListActivityTypes()
	if err != nil {
		t.Fatalf("ListActivityTypes: %v", err)
	}
	for _, a := range types {
		if a.Name == "Retired" {
			t.Error("disabled activity leaked into picker")
		}
	}
}
