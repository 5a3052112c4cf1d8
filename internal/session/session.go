// Package session tracks one editing session of the weekly grid: the
// active employee and week, the grid rows, the current document and the
// dirty flag. It orchestrates every round-trip to the timesheet service
// and guards the document lifecycle; front ends stay dumb.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oleanders/weeklog/internal/api"
	"github.com/oleanders/weeklog/internal/grid"
	"github.com/oleanders/weeklog/internal/lifecycle"
)

var (
	// ErrNoDocument guides the user to save before submitting; it is not a
	// remote failure and no remote call is made.
	ErrNoDocument = errors.New("no saved timesheet for this week, save it first")

	// ErrUnsavedChanges blocks navigation while meaningful edits are
	// pending; callers confirm with the user and DiscardChanges.
	ErrUnsavedChanges = errors.New("unsaved changes")

	// ErrNoSourceData distinguishes "previous week is empty" from a
	// successful copy of nothing.
	ErrNoSourceData = errors.New("no timesheet data found for the previous week")

	// ErrReadOnly rejects edits to a submitted or cancelled timesheet.
	ErrReadOnly = errors.New("timesheet is read-only")

	// ErrValidation wraps blocking validation errors on save.
	ErrValidation = errors.New("validation failed")
)

// Service is the remote timesheet boundary. *api.Client satisfies it; the
// tests use an in-memory fake.
type Service interface {
	FetchWeek(ctx context.Context, employee string, start time.Time) (*api.WeekData, error)
	SaveWeek(ctx context.Context, req api.SaveRequest) (*api.SaveResponse, error)
	Submit(ctx context.Context, name string) (*api.ActionResponse, error)
	Cancel(ctx context.Context, name string) (*api.ActionResponse, error)
	Amend(ctx context.Context, name string) (*api.AmendResponse, error)
}

// Snapshot is one fetched week, tagged with the view it was requested
// for. Install discards snapshots whose tag no longer matches, so a slow
// response can never clobber a week the user has navigated away from.
type Snapshot struct {
	Employee      api.Employee
	Week          grid.Week
	Rows          []grid.Row
	Projects      []api.Project
	ActivityTypes []api.ActivityType
	Doc           *lifecycle.Document

	tagEmployee string
	tagWeek     time.Time
}

type Session struct {
	svc    Service
	logger *slog.Logger

	employee      string
	employeeInfo  api.Employee
	week          grid.Week
	rows          []grid.Row
	projects      []api.Project
	activityTypes []api.ActivityType
	doc           *lifecycle.Document
	dirty         bool
}

func New(svc Service, employee string, week grid.Week, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		svc:      svc,
		logger:   logger,
		employee: employee,
		week:     week,
	}
}

func (s *Session) Week() grid.Week                   { return s.week }
func (s *Session) Rows() []grid.Row                  { return s.rows }
func (s *Session) Projects() []api.Project           { return s.projects }
func (s *Session) ActivityTypes() []api.ActivityType { return s.activityTypes }
func (s *Session) Employee() api.Employee            { return s.employeeInfo }
func (s *Session) Dirty() bool                       { return s.dirty }

// Doc returns the tracked document, nil when the week has never been
// saved.
func (s *Session) Doc() *lifecycle.Document { return s.doc }

// Docstatus is Draft when no document exists yet.
func (s *Session) Docstatus() lifecycle.Docstatus {
	if s.doc == nil {
		return lifecycle.Draft
	}
	return s.doc.Docstatus
}

// Editable reports whether grid edits are currently allowed.
func (s *Session) Editable() bool {
	return s.Docstatus().Editable()
}

// SetRows replaces the grid after an edit. Edits to a read-only document
// are rejected and never raise the dirty flag.
func (s *Session) SetRows(rows []grid.Row) error {
	if !s.Editable() {
		return ErrReadOnly
	}
	s.rows = rows
	s.dirty = grid.Dirty(rows)
	return nil
}

// Totals recomputes the grid aggregates.
func (s *Session) Totals() grid.Totals {
	return grid.Calculate(s.rows)
}

// Validate runs the pre-save checks on the current grid.
func (s *Session) Validate() grid.Result {
	return grid.Validate(s.rows)
}

// DiscardChanges drops unsaved edits so navigation can proceed.
func (s *Session) DiscardChanges() {
	s.dirty = false
}

// Navigate moves the session to another week. Pending meaningful edits
// block it until the caller confirms and discards them.
func (s *Session) Navigate(week grid.Week) error {
	if s.dirty {
		return ErrUnsavedChanges
	}
	s.week = week
	s.rows = nil
	s.doc = nil
	return nil
}

// SetEmployee switches the employee under the same navigation guard.
func (s *Session) SetEmployee(employee string) error {
	if s.dirty {
		return ErrUnsavedChanges
	}
	s.employee = employee
	s.rows = nil
	s.doc = nil
	return nil
}

// Fetch loads the current week from the service and groups it into rows.
// The result is only a proposal until Install accepts it.
func (s *Session) Fetch(ctx context.Context) (*Snapshot, error) {
	employee, week := s.employee, s.week

	data, err := s.svc.FetchWeek(ctx, employee, week.Start)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Employee:      data.Employee,
		Week:          week,
		Projects:      data.Projects,
		ActivityTypes: data.ActivityTypes,
		Rows:          grid.Group(toEntries(data.Timesheets), week, s.logger),
		Doc:           pickDocument(data.Timesheets),
		tagEmployee:   employee,
		tagWeek:       week.Start,
	}
	return snap, nil
}

// Install applies a fetched snapshot. It reports false and leaves the
// session untouched when the snapshot is stale.
func (s *Session) Install(snap *Snapshot) bool {
	if snap.tagEmployee != s.employee || !snap.tagWeek.Equal(s.week.Start) {
		s.logger.Debug("discarding stale week response",
			"for", snap.tagWeek, "current", s.week.Start)
		return false
	}

	s.employeeInfo = snap.Employee
	if s.employee == "" {
		s.employee = snap.Employee.Name
	}
	s.projects = snap.Projects
	s.activityTypes = snap.ActivityTypes
	s.rows = snap.Rows
	s.doc = snap.Doc
	s.dirty = false
	return true
}

// Save validates, flattens and persists the grid. The returned Result
// carries warnings to surface alongside a successful save; on
// ErrValidation it carries the blocking errors instead. Remote failures
// leave the session untouched so the user can retry.
func (s *Session) Save(ctx context.Context) (grid.Result, error) {
	if s.doc != nil {
		if err := s.doc.Docstatus.CheckSave(); err != nil {
			return grid.Result{}, err
		}
	}

	res := grid.Validate(s.rows)
	if !res.Valid() {
		return res, ErrValidation
	}

	req := api.SaveRequest{
		Employee:  s.employee,
		StartDate: s.week.Start.Format(api.DateOnly),
		TimeLogs:  toTimeLogs(grid.Flatten(s.rows, s.week)),
	}
	if s.doc != nil {
		req.TimesheetName = s.doc.Name
	}

	saved, err := s.svc.SaveWeek(ctx, req)
	if err != nil {
		return res, err
	}

	s.doc = &lifecycle.Document{
		Name:      saved.Name,
		Status:    saved.Status,
		Docstatus: lifecycle.Docstatus(saved.Docstatus),
		Modified:  time.Now(),
	}
	s.dirty = false
	s.logger.Info("timesheet saved", "name", saved.Name, "hours", saved.TotalHours)
	return res, nil
}

// Submit promotes the saved draft. With no saved document it fails with
// guidance rather than calling the service, and a grid that would not
// validate blocks the transition the same way it blocks a save.
func (s *Session) Submit(ctx context.Context) (grid.Result, error) {
	if s.doc == nil {
		return grid.Result{}, ErrNoDocument
	}
	if err := s.doc.Docstatus.CheckSubmit(); err != nil {
		return grid.Result{}, err
	}

	res := grid.Validate(s.rows)
	if !res.Valid() {
		return res, ErrValidation
	}

	resp, err := s.svc.Submit(ctx, s.doc.Name)
	if err != nil {
		return res, err
	}

	s.doc.Status = resp.Status
	s.doc.Docstatus = lifecycle.Docstatus(resp.Docstatus)
	s.dirty = false
	s.logger.Info("timesheet submitted", "name", s.doc.Name)
	return res, nil
}

// Cancel revokes a submitted timesheet. Irreversible for that document.
func (s *Session) Cancel(ctx context.Context) error {
	if s.doc == nil {
		return ErrNoDocument
	}
	if err := s.doc.Docstatus.CheckCancel(); err != nil {
		return err
	}

	resp, err := s.svc.Cancel(ctx, s.doc.Name)
	if err != nil {
		return err
	}

	s.doc.Status = resp.Status
	s.doc.Docstatus = lifecycle.Docstatus(resp.Docstatus)
	s.logger.Info("timesheet cancelled", "name", s.doc.Name)
	return nil
}

// Amend derives a fresh draft from the cancelled document and re-points
// the session at the new identity, fully editable again.
func (s *Session) Amend(ctx context.Context) error {
	if s.doc == nil {
		return ErrNoDocument
	}
	if err := s.doc.Docstatus.CheckAmend(); err != nil {
		return err
	}

	resp, err := s.svc.Amend(ctx, s.doc.Name)
	if err != nil {
		return err
	}

	s.doc = &lifecycle.Document{
		Name:      resp.Name,
		Status:    resp.Status,
		Docstatus: lifecycle.Docstatus(resp.Docstatus),
		Modified:  time.Now(),
	}
	s.dirty = false
	s.logger.Info("timesheet amended", "name", resp.Name)
	return nil
}

// CopyPreviousWeek fetches and groups the prior week as a preview. An
// empty prior week is reported as ErrNoSourceData, not an empty copy.
func (s *Session) CopyPreviousWeek(ctx context.Context) ([]grid.Row, error) {
	prev := s.week.Previous()

	data, err := s.svc.FetchWeek(ctx, s.employee, prev.Start)
	if err != nil {
		return nil, err
	}
	if len(data.Timesheets) == 0 {
		return nil, fmt.Errorf("%w (%s)", ErrNoSourceData, prev.String())
	}

	rows := grid.Group(toEntries(data.Timesheets), prev, s.logger)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w (%s)", ErrNoSourceData, prev.String())
	}
	return rows, nil
}

// ApplyCopy appends previewed rows onto the current grid without merging.
func (s *Session) ApplyCopy(copied []grid.Row) error {
	return s.SetRows(grid.ApplyCopy(s.rows, copied))
}

// pickDocument resolves the current document from the flat fetch rows,
// which repeat the parent timesheet's fields on every log.
func pickDocument(logs []api.TimeLog) *lifecycle.Document {
	seen := make(map[string]bool)
	var docs []lifecycle.Document
	for _, l := range logs {
		if l.Timesheet == "" || seen[l.Timesheet] {
			continue
		}
		seen[l.Timesheet] = true
		docs = append(docs, lifecycle.Document{
			Name:      l.Timesheet,
			Status:    l.Status,
			Docstatus: lifecycle.Docstatus(l.Docstatus),
			Modified:  l.Modified,
		})
	}

	doc, ok := lifecycle.PickCurrent(docs)
	if !ok {
		return nil
	}
	return &doc
}

func toEntries(logs []api.TimeLog) []grid.Entry {
	entries := make([]grid.Entry, 0, len(logs))
	for _, l := range logs {
		if l.Hours == 0 && l.Project == "" && l.ActivityType == "" {
			// A timesheet fetched with no logs joins as one empty row.
			continue
		}
		entries = append(entries, grid.Entry{
			Timesheet:    l.Timesheet,
			Docstatus:    l.Docstatus,
			Project:      l.Project,
			ProjectName:  l.ProjectName,
			Task:         l.Task,
			TaskName:     l.TaskName,
			ActivityType: l.ActivityType,
			ActivityName: l.ActivityName,
			Hours:        l.Hours,
			IsBillable:   l.IsBillable,
			BillingHours: l.BillingHours,
			FromTime:     l.FromTime,
			ToTime:       l.ToTime,
			Description:  l.Description,
		})
	}
	return entries
}

func toTimeLogs(entries []grid.Entry) []api.TimeLog {
	logs := make([]api.TimeLog, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, api.TimeLog{
			Project:      e.Project,
			Task:         e.Task,
			ActivityType: e.ActivityType,
			Hours:        e.Hours,
			IsBillable:   e.IsBillable,
			BillingHours: e.BillingHours,
			FromTime:     e.FromTime,
			ToTime:       e.ToTime,
			Description:  e.Description,
		})
	}
	return logs
}
