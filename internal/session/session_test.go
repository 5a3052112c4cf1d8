package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oleanders/weeklog/internal/api"
	"github.com/oleanders/weeklog/internal/grid"
	"github.com/oleanders/weeklog/internal/lifecycle"
)

var testWeek = grid.Week{Start: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}

// fakeService is an in-memory stand-in for the remote boundary.
type fakeService struct {
	weeks       map[string]*api.WeekData // keyed by start date
	saveCalls   int
	submitCalls int
	saveErr     error
	lastSave    api.SaveRequest
}

func newFakeService() *fakeService {
	return &fakeService{weeks: make(map[string]*api.WeekData)}
}

func (f *fakeService) FetchWeek(_ context.Context, employee string, start time.Time) (*api.WeekData, error) {
	if w, ok := f.weeks[start.Format(api.DateOnly)]; ok {
		return w, nil
	}
	return &api.WeekData{
		Employee: api.Employee{Name: "EMP-0001", EmployeeName: "Test Person"},
		DateRange: api.DateRange{
			StartDate: start.Format(api.DateOnly),
			EndDate:   start.AddDate(0, 0, 6).Format(api.DateOnly),
		},
	}, nil
}

func (f *fakeService) SaveWeek(_ context.Context, req api.SaveRequest) (*api.SaveResponse, error) {
	f.saveCalls++
	f.lastSave = req
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	name := req.TimesheetName
	if name == "" {
		name = "TS-00001"
	}
	return &api.SaveResponse{Name: name, Status: "Draft", Docstatus: 0}, nil
}

func (f *fakeService) Submit(_ context.Context, name string) (*api.ActionResponse, error) {
	f.submitCalls++
	return &api.ActionResponse{Message: "submitted", Status: "Submitted", Docstatus: 1}, nil
}

func (f *fakeService) Cancel(_ context.Context, name string) (*api.ActionResponse, error) {
	return &api.ActionResponse{Status: "Cancelled", Docstatus: 2}, nil
}

func (f *fakeService) Amend(_ context.Context, name string) (*api.AmendResponse, error) {
	return &api.AmendResponse{Name: name + "-1", StartDate: "2026-03-02", Status: "Draft", Docstatus: 0}, nil
}

func timeLog(ts string, docstatus int, project, activity string, day int, hours float64) api.TimeLog {
	return api.TimeLog{
		Timesheet:    ts,
		Docstatus:    docstatus,
		Project:      project,
		ActivityType: activity,
		Hours:        hours,
		FromTime:     testWeek.Day(day).Add(9 * time.Hour),
	}
}

func editableRow() grid.Row {
	row := grid.Row{Project: "P1", ActivityType: "A1"}
	row.DailyHours[0] = 8
	return row
}

func TestFetchInstall(t *testing.T) {
	svc := newFakeService()
	svc.weeks["2026-03-02"] = &api.WeekData{
		Employee: api.Employee{Name: "EMP-0001"},
		Timesheets: []api.TimeLog{
			timeLog("TS-9", 2, "P1", "A1", 0, 8), // cancelled amendment source
			timeLog("TS-9-1", 0, "P1", "A1", 0, 6),
		},
	}

	s := New(svc, "EMP-0001", testWeek, nil)
	snap, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !s.Install(snap) {
		t.Fatal("fresh snapshot rejected as stale")
	}

	if len(s.Rows()) != 1 {
		t.Fatalf("got %d rows, want 1", len(s.Rows()))
	}
	if s.Rows()[0].DailyHours[0] != 6 {
		t.Errorf("cancelled hours included: %v", s.Rows()[0].DailyHours[0])
	}
	if s.Doc() == nil || s.Doc().Name != "TS-9-1" {
		t.Errorf("picked doc = %+v, want draft TS-9-1", s.Doc())
	}
	if s.Dirty() {
		t.Error("freshly installed week must not be dirty")
	}
}

func TestInstallDiscardsStaleSnapshot(t *testing.T) {
	svc := newFakeService()
	s := New(svc, "EMP-0001", testWeek, nil)

	snap, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if err := s.Navigate(testWeek.Next()); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if s.Install(snap) {
		t.Error("snapshot for the previous week must be discarded after navigation")
	}
}

func TestSaveValidationBlocks(t *testing.T) {
	svc := newFakeService()
	s := New(svc, "EMP-0001", testWeek, nil)

	row := grid.Row{Project: "P1"} // activity missing
	row.DailyHours[0] = 4
	if err := s.SetRows([]grid.Row{row}); err != nil {
		t.Fatalf("SetRows: %v", err)
	}

	res, err := s.Save(context.Background())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Save error = %v, want ErrValidation", err)
	}
	if len(res.Errors) == 0 {
		t.Error("validation errors not returned")
	}
	if svc.saveCalls != 0 {
		t.Error("invalid grid must never reach the service")
	}
}

func TestSaveSuccess(t *testing.T) {
	svc := newFakeService()
	s := New(svc, "EMP-0001", testWeek, nil)

	if err := s.SetRows([]grid.Row{editableRow()}); err != nil {
		t.Fatalf("SetRows: %v", err)
	}
	if !s.Dirty() {
		t.Fatal("meaningful edit must mark the session dirty")
	}

	if _, err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Doc() == nil || s.Doc().Name != "TS-00001" {
		t.Errorf("doc after save = %+v", s.Doc())
	}
	if s.Dirty() {
		t.Error("save must clear the dirty flag")
	}
	if len(svc.lastSave.TimeLogs) != 1 {
		t.Fatalf("flattened %d logs, want 1", len(svc.lastSave.TimeLogs))
	}
	if svc.lastSave.TimeLogs[0].Hours != 8 {
		t.Errorf("flattened hours = %v", svc.lastSave.TimeLogs[0].Hours)
	}
}

func TestSaveRemoteFailureKeepsState(t *testing.T) {
	svc := newFakeService()
	svc.saveErr = errors.New("boom")
	s := New(svc, "EMP-0001", testWeek, nil)

	if err := s.SetRows([]grid.Row{editableRow()}); err != nil {
		t.Fatalf("SetRows: %v", err)
	}
	if _, err := s.Save(context.Background()); err == nil {
		t.Fatal("expected remote error")
	}
	if !s.Dirty() {
		t.Error("failed save must leave the dirty flag set for retry")
	}
	if s.Doc() != nil {
		t.Error("failed save must not invent a document")
	}
}

func TestSubmitRequiresDocument(t *testing.T) {
	svc := newFakeService()
	s := New(svc, "EMP-0001", testWeek, nil)

	_, err := s.Submit(context.Background())
	if !errors.Is(err, ErrNoDocument) {
		t.Fatalf("Submit error = %v, want ErrNoDocument", err)
	}
	if svc.submitCalls != 0 {
		t.Error("submit without a document must not call the service")
	}
}

func TestSubmitValidationBlocks(t *testing.T) {
	svc := newFakeService()
	s := New(svc, "EMP-0001", testWeek, nil)

	if err := s.SetRows([]grid.Row{editableRow()}); err != nil {
		t.Fatalf("SetRows: %v", err)
	}
	if _, err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Break the draft after saving: activity cleared, grid no longer valid.
	row := grid.Row{Project: "P1"}
	row.DailyHours[0] = 4
	if err := s.SetRows([]grid.Row{row}); err != nil {
		t.Fatalf("SetRows: %v", err)
	}

	res, err := s.Submit(context.Background())
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Submit error = %v, want ErrValidation", err)
	}
	if len(res.Errors) == 0 {
		t.Error("blocking errors not returned")
	}
	if svc.submitCalls != 0 {
		t.Error("invalid grid must never reach the service")
	}
	if s.Docstatus() != lifecycle.Draft {
		t.Errorf("docstatus = %v, want still Draft", s.Docstatus())
	}
}

func TestSubmitThenCancelThenAmend(t *testing.T) {
	svc := newFakeService()
	s := New(svc, "EMP-0001", testWeek, nil)

	if err := s.SetRows([]grid.Row{editableRow()}); err != nil {
		t.Fatalf("SetRows: %v", err)
	}
	if _, err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Cancel before submit is invalid.
	if err := s.Cancel(context.Background()); !errors.Is(err, lifecycle.ErrNotSubmitted) {
		t.Fatalf("Cancel on draft = %v, want ErrNotSubmitted", err)
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if s.Editable() {
		t.Error("submitted timesheet must be read-only")
	}
	if err := s.SetRows([]grid.Row{editableRow()}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("edit on submitted = %v, want ErrReadOnly", err)
	}

	if err := s.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if s.Docstatus() != lifecycle.Cancelled {
		t.Errorf("docstatus = %v, want Cancelled", s.Docstatus())
	}

	if err := s.Amend(context.Background()); err != nil {
		t.Fatalf("Amend: %v", err)
	}
	if s.Doc().Name != "TS-00001-1" {
		t.Errorf("amended doc = %q, want new identity TS-00001-1", s.Doc().Name)
	}
	if !s.Editable() {
		t.Error("amended draft must be editable again")
	}
}

func TestCopyPreviousWeek(t *testing.T) {
	svc := newFakeService()
	prev := testWeek.Previous()
	prevLog := api.TimeLog{
		Timesheet:    "TS-OLD",
		Project:      "P1",
		ActivityType: "A1",
		Hours:        4,
		FromTime:     prev.Day(2).Add(9 * time.Hour),
	}
	svc.weeks[prev.Start.Format(api.DateOnly)] = &api.WeekData{
		Employee:   api.Employee{Name: "EMP-0001"},
		Timesheets: []api.TimeLog{prevLog},
	}

	s := New(svc, "EMP-0001", testWeek, nil)
	existing := grid.Row{Project: "P2", ActivityType: "A2"}
	existing.DailyHours[0] = 1
	if err := s.SetRows([]grid.Row{existing}); err != nil {
		t.Fatalf("SetRows: %v", err)
	}

	copied, err := s.CopyPreviousWeek(context.Background())
	if err != nil {
		t.Fatalf("CopyPreviousWeek: %v", err)
	}
	if len(copied) != 1 || copied[0].DailyHours[2] != 4 {
		t.Fatalf("preview rows = %+v", copied)
	}

	if err := s.ApplyCopy(copied); err != nil {
		t.Fatalf("ApplyCopy: %v", err)
	}
	if len(s.Rows()) != 2 {
		t.Fatalf("got %d rows after copy, want 2 (no merging)", len(s.Rows()))
	}
	if !s.Dirty() {
		t.Error("applied copy must mark the session dirty")
	}
}

func TestCopyPreviousWeekNoData(t *testing.T) {
	svc := newFakeService()
	s := New(svc, "EMP-0001", testWeek, nil)

	_, err := s.CopyPreviousWeek(context.Background())
	if !errors.Is(err, ErrNoSourceData) {
		t.Fatalf("error = %v, want ErrNoSourceData", err)
	}
}

func TestNavigationGuard(t *testing.T) {
	svc := newFakeService()
	s := New(svc, "EMP-0001", testWeek, nil)

	if err := s.SetRows([]grid.Row{editableRow()}); err != nil {
		t.Fatalf("SetRows: %v", err)
	}

	if err := s.Navigate(testWeek.Next()); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("Navigate with edits = %v, want ErrUnsavedChanges", err)
	}

	s.DiscardChanges()
	if err := s.Navigate(testWeek.Next()); err != nil {
		t.Fatalf("Navigate after discard: %v", err)
	}
	if s.Doc() != nil || len(s.Rows()) != 0 {
		t.Error("navigation must reset rows and document")
	}
}
