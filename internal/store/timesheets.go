package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oleanders/weeklog/internal/api"
)

// Timesheet is one stored timesheet document.
type Timesheet struct {
	Name        string
	Employee    string
	StartDate   string
	EndDate     string
	Status      string
	Docstatus   int
	AmendedFrom string
	Modified    time.Time
}

// GetTimesheet loads one timesheet document by name.
func (db *DB) GetTimesheet(name string) (*Timesheet, error) {
	var ts Timesheet
	var amendedFrom sql.NullString
	err := db.QueryRow(`
		SELECT name, employee, start_date, end_date, status, docstatus, amended_from, modified
		FROM timesheets WHERE name = ?`, name).Scan(
		&ts.Name, &ts.Employee, &ts.StartDate, &ts.EndDate,
		&ts.Status, &ts.Docstatus, &amendedFrom, &ts.Modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("timesheet %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading timesheet: %w", err)
	}
	ts.AmendedFrom = amendedFrom.String
	return &ts, nil
}

// WeekTimesheets returns every time log belonging to the employee's
// timesheets for the given week, across all document states. Names for
// projects, tasks and activities are joined in so the caller never has
// to resolve them separately.
func (db *DB) WeekTimesheets(employee string, start time.Time) ([]api.TimeLog, error) {
	rows, err := db.Query(`
		SELECT ts.name, ts.status, ts.docstatus, ts.modified,
			tl.project, COALESCE(p.project_name, tl.project),
			tl.task, COALESCE(t.subject, tl.task),
			tl.activity_type,
			tl.from_time, tl.to_time, tl.hours,
			tl.is_billable, tl.billing_hours, tl.description
		FROM time_logs tl
		JOIN timesheets ts ON tl.parent = ts.name
		LEFT JOIN projects p ON tl.project = p.name
		LEFT JOIN tasks t ON tl.task = t.name
		WHERE ts.employee = ? AND ts.start_date = ?
		ORDER BY ts.name, tl.id`,
		employee, start.Format(api.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("querying week time logs: %w", err)
	}
	defer rows.Close()

	var logs []api.TimeLog
	for rows.Next() {
		var tl api.TimeLog
		var billable int
		if err := rows.Scan(
			&tl.Timesheet, &tl.Status, &tl.Docstatus, &tl.Modified,
			&tl.Project, &tl.ProjectName,
			&tl.Task, &tl.TaskName,
			&tl.ActivityType,
			&tl.FromTime, &tl.ToTime, &tl.Hours,
			&billable, &tl.BillingHours, &tl.Description); err != nil {
			return nil, fmt.Errorf("scanning time log: %w", err)
		}
		tl.IsBillable = billable != 0
		tl.ActivityName = tl.ActivityType
		logs = append(logs, tl)
	}

	return logs, rows.Err()
}

// SaveWeek replaces a week's time logs in one transaction. With no
// timesheet name a new draft document is created; with a name the
// existing document's logs are rewritten in place, but only while it is
// still a draft.
func (db *DB) SaveWeek(req api.SaveRequest) (*api.SaveResponse, error) {
	start, err := time.Parse(api.DateOnly, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start date: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	name := req.TimesheetName
	if name != "" {
		var docstatus int
		err := tx.QueryRow(`SELECT docstatus FROM timesheets WHERE name = ?`, name).Scan(&docstatus)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("timesheet %s: %w", name, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("loading timesheet: %w", err)
		}
		if docstatus != 0 {
			return nil, ErrSubmittedLocked
		}

		if _, err := tx.Exec(`DELETE FROM time_logs WHERE parent = ?`, name); err != nil {
			return nil, fmt.Errorf("clearing time logs: %w", err)
		}
		if _, err := tx.Exec(`UPDATE timesheets SET modified = ? WHERE name = ?`, time.Now().UTC(), name); err != nil {
			return nil, fmt.Errorf("touching timesheet: %w", err)
		}
	} else {
		name, err = nextTimesheetName(tx)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(`
			INSERT INTO timesheets (name, employee, start_date, end_date, status, docstatus, modified)
			VALUES (?, ?, ?, ?, 'Draft', 0, ?)`,
			name, req.Employee, req.StartDate,
			start.AddDate(0, 0, 6).Format(api.DateOnly), time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("creating timesheet: %w", err)
		}
	}

	var total, billable float64
	for _, tl := range req.TimeLogs {
		_, err := tx.Exec(`
			INSERT INTO time_logs (parent, project, task, activity_type,
				from_time, to_time, hours, is_billable, billing_hours, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			name, tl.Project, tl.Task, tl.ActivityType,
			tl.FromTime, tl.ToTime, tl.Hours,
			boolToInt(tl.IsBillable), tl.BillingHours, tl.Description)
		if err != nil {
			return nil, fmt.Errorf("inserting time log: %w", err)
		}
		total += tl.Hours
		billable += tl.BillingHours
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing save: %w", err)
	}

	return &api.SaveResponse{
		Name:               name,
		TotalHours:         total,
		TotalBillableHours: billable,
		Status:             "Draft",
		Docstatus:          0,
	}, nil
}

// SubmitTimesheet moves a draft to submitted.
func (db *DB) SubmitTimesheet(name string) (*api.ActionResponse, error) {
	return db.transition(name, 0, 1, "Submitted")
}

// CancelTimesheet moves a submitted document to cancelled.
func (db *DB) CancelTimesheet(name string) (*api.ActionResponse, error) {
	return db.transition(name, 1, 2, "Cancelled")
}

func (db *DB) transition(name string, from, to int, status string) (*api.ActionResponse, error) {
	ts, err := db.GetTimesheet(name)
	if err != nil {
		return nil, err
	}
	if ts.Docstatus != from {
		return nil, fmt.Errorf("timesheet %s is %s, cannot move to %s", name, ts.Status, status)
	}

	_, err = db.Exec(`UPDATE timesheets SET docstatus = ?, status = ?, modified = ? WHERE name = ?`,
		to, status, time.Now().UTC(), name)
	if err != nil {
		return nil, fmt.Errorf("updating timesheet: %w", err)
	}

	return &api.ActionResponse{Status: status, Docstatus: to}, nil
}

// AmendTimesheet creates a fresh draft from a cancelled document,
// copying its time logs and recording the lineage. The new document
// gets its own identity: the source name plus an amendment counter.
func (db *DB) AmendTimesheet(name string) (*api.AmendResponse, error) {
	src, err := db.GetTimesheet(name)
	if err != nil {
		return nil, err
	}
	if src.Docstatus != 2 {
		return nil, fmt.Errorf("timesheet %s is %s, only cancelled timesheets can be amended", name, src.Status)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	newName, err := nextAmendmentName(tx, name)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(`
		INSERT INTO timesheets (name, employee, start_date, end_date, status, docstatus, amended_from, modified)
		VALUES (?, ?, ?, ?, 'Draft', 0, ?, ?)`,
		newName, src.Employee, src.StartDate, src.EndDate, name, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("creating amendment: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO time_logs (parent, project, task, activity_type,
			from_time, to_time, hours, is_billable, billing_hours, description)
		SELECT ?, project, task, activity_type,
			from_time, to_time, hours, is_billable, billing_hours, description
		FROM time_logs WHERE parent = ?`, newName, name)
	if err != nil {
		return nil, fmt.Errorf("copying time logs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing amendment: %w", err)
	}

	return &api.AmendResponse{
		Name:      newName,
		StartDate: src.StartDate,
		Status:    "Draft",
		Docstatus: 0,
	}, nil
}

// nextTimesheetName allocates the next TS-NNNNN base name. Amendment
// suffixes are ignored so an amended series never collides with a new
// document.
func nextTimesheetName(tx *sql.Tx) (string, error) {
	rows, err := tx.Query(`SELECT name FROM timesheets WHERE name LIKE 'TS-%'`)
	if err != nil {
		return "", fmt.Errorf("listing timesheet names: %w", err)
	}
	defer rows.Close()

	max := 0
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", fmt.Errorf("scanning timesheet name: %w", err)
		}
		base := strings.TrimPrefix(name, "TS-")
		if i := strings.IndexByte(base, '-'); i >= 0 {
			base = base[:i]
		}
		if n, err := strconv.Atoi(base); err == nil && n > max {
			max = n
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("TS-%05d", max+1), nil
}

// nextAmendmentName returns source-N where N counts prior amendments of
// the same root document.
func nextAmendmentName(tx *sql.Tx, source string) (string, error) {
	root := source
	if i := strings.Index(strings.TrimPrefix(root, "TS-"), "-"); i >= 0 {
		root = root[:len("TS-")+i]
	}

	var count int
	err := tx.QueryRow(`SELECT COUNT(*) FROM timesheets WHERE name LIKE ? AND name != ?`,
		root+"-%", root).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("counting amendments: %w", err)
	}

	return fmt.Sprintf("%s-%d", root, count+1), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
