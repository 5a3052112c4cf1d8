// Package store is the sqlite persistence layer behind the timesheet
// service: employees, projects, activity types and timesheet documents
// with their child time logs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrSubmittedLocked rejects writes against a submitted document.
	ErrSubmittedLocked = errors.New("cannot modify a submitted timesheet, cancel and amend it instead")
)

type DB struct {
	*sql.DB
}

// Open opens (and migrates) the database at path. An empty path falls
// back to ~/.config/weeklog/weeklog.db.
func Open(path string) (*DB, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		dir := filepath.Join(home, ".config", "weeklog")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(dir, "weeklog.db")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	store := &DB{db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			name TEXT PRIMARY KEY,
			employee_name TEXT NOT NULL,
			company TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			name TEXT PRIMARY KEY,
			project_name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Open'
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			name TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			subject TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Open',
			priority TEXT NOT NULL DEFAULT 'Medium'
		)`,
		`CREATE TABLE IF NOT EXISTS activity_types (
			name TEXT PRIMARY KEY,
			disabled INTEGER NOT NULL DEFAULT 0,
			billing_rate REAL NOT NULL DEFAULT 0,
			costing_rate REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS activity_costs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			billing_rate REAL NOT NULL DEFAULT 0,
			costing_rate REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS timesheets (
			name TEXT PRIMARY KEY,
			employee TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Draft',
			docstatus INTEGER NOT NULL DEFAULT 0,
			amended_from TEXT,
			modified DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS time_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			parent TEXT NOT NULL REFERENCES timesheets(name),
			project TEXT NOT NULL DEFAULT '',
			task TEXT NOT NULL DEFAULT '',
			activity_type TEXT NOT NULL DEFAULT '',
			from_time DATETIME NOT NULL,
			to_time DATETIME NOT NULL,
			hours REAL NOT NULL,
			is_billable INTEGER NOT NULL DEFAULT 0,
			billing_hours REAL NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_timesheets_employee_week
			ON timesheets (employee, start_date, end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_time_logs_parent ON time_logs (parent)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	return nil
}
