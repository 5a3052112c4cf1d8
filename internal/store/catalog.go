package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/oleanders/weeklog/internal/api"
)

// GetEmployee loads one employee record.
func (db *DB) GetEmployee(name string) (*api.Employee, error) {
	var e api.Employee
	err := db.QueryRow(`
		SELECT name, employee_name, company, department
		FROM employees WHERE name = ?`, name).Scan(
		&e.Name, &e.EmployeeName, &e.Company, &e.Department)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading employee: %w", err)
	}
	return &e, nil
}

// ListProjects returns the open projects available in the picker.
func (db *DB) ListProjects() ([]api.Project, error) {
	rows, err := db.Query(`
		SELECT name, project_name, status FROM projects
		WHERE status = 'Open' ORDER BY project_name`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []api.Project
	for rows.Next() {
		var p api.Project
		if err := rows.Scan(&p.Name, &p.ProjectName, &p.Status); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListActivityTypes returns the enabled activity types.
func (db *DB) ListActivityTypes() ([]api.ActivityType, error) {
	rows, err := db.Query(`
		SELECT name, billing_rate, costing_rate FROM activity_types
		WHERE disabled = 0 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing activity types: %w", err)
	}
	defer rows.Close()

	var types []api.ActivityType
	for rows.Next() {
		var a api.ActivityType
		if err := rows.Scan(&a.Name, &a.BillingRate, &a.CostingRate); err != nil {
			return nil, fmt.Errorf("scanning activity type: %w", err)
		}
		a.ActivityName = a.Name
		types = append(types, a)
	}
	return types, rows.Err()
}

// TasksForProject returns the open tasks under a project.
func (db *DB) TasksForProject(project string) ([]api.Task, error) {
	rows, err := db.Query(`
		SELECT name, subject, status, priority FROM tasks
		WHERE project = ? AND status = 'Open' ORDER BY subject`, project)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []api.Task
	for rows.Next() {
		var t api.Task
		if err := rows.Scan(&t.Name, &t.Subject, &t.Status, &t.Priority); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ActivityCost resolves the billing and costing rates for an employee
// and activity. An employee-specific cost record wins; otherwise the
// activity type's default rates apply.
func (db *DB) ActivityCost(employee, activityType string) (*api.ActivityCost, error) {
	var cost api.ActivityCost
	err := db.QueryRow(`
		SELECT billing_rate, costing_rate FROM activity_costs
		WHERE employee = ? AND activity_type = ?
		ORDER BY id DESC LIMIT 1`, employee, activityType).Scan(
		&cost.BillingRate, &cost.CostingRate)
	if err == nil {
		return &cost, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("loading activity cost: %w", err)
	}

	err = db.QueryRow(`
		SELECT billing_rate, costing_rate FROM activity_types
		WHERE name = ?`, activityType).Scan(&cost.BillingRate, &cost.CostingRate)
	if errors.Is(err, sql.ErrNoRows) {
		return &api.ActivityCost{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading activity type rates: %w", err)
	}
	return &cost, nil
}

// Seed inserts a small demo catalog so a fresh database is usable
// immediately. Existing rows are left alone.
func (db *DB) Seed() error {
	seeds := []struct {
		query string
		args  []interface{}
	}{
		{`INSERT OR IGNORE INTO employees (name, employee_name, company, department)
			VALUES (?, ?, ?, ?)`,
			[]interface{}{"EMP-0001", "Default Employee", "Acme", "Engineering"}},
		{`INSERT OR IGNORE INTO projects (name, project_name, status) VALUES (?, ?, 'Open')`,
			[]interface{}{"PROJ-0001", "Internal"}},
		{`INSERT OR IGNORE INTO projects (name, project_name, status) VALUES (?, ?, 'Open')`,
			[]interface{}{"PROJ-0002", "Client Work"}},
		{`INSERT OR IGNORE INTO tasks (name, project, subject, status, priority)
			VALUES (?, ?, ?, 'Open', 'Medium')`,
			[]interface{}{"TASK-0001", "PROJ-0002", "Implementation"}},
		{`INSERT OR IGNORE INTO activity_types (name, disabled, billing_rate, costing_rate)
			VALUES (?, 0, ?, ?)`,
			[]interface{}{"Development", 100.0, 60.0}},
		{`INSERT OR IGNORE INTO activity_types (name, disabled, billing_rate, costing_rate)
			VALUES (?, 0, ?, ?)`,
			[]interface{}{"Meetings", 0.0, 60.0}},
	}

	for _, s := range seeds {
		if _, err := db.Exec(s.query, s.args...); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
	}
	return nil
}
