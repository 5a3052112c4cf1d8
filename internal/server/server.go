// Package server exposes the timesheet store over HTTP. The routes
// mirror what the TUI client consumes: one week-shaped read, one
// week-shaped write and the document lifecycle actions.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oleanders/weeklog/internal/api"
	"github.com/oleanders/weeklog/internal/grid"
	"github.com/oleanders/weeklog/internal/store"
)

type Server struct {
	db              *store.DB
	defaultEmployee string
	logger          *slog.Logger
}

func New(db *store.DB, defaultEmployee string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{db: db, defaultEmployee: defaultEmployee, logger: logger}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/week", s.handleFetchWeek)
	mux.HandleFunc("POST /api/week", s.handleSaveWeek)
	mux.HandleFunc("POST /api/timesheets/{name}/submit", s.handleSubmit)
	mux.HandleFunc("POST /api/timesheets/{name}/cancel", s.handleCancel)
	mux.HandleFunc("POST /api/timesheets/{name}/amend", s.handleAmend)
	mux.HandleFunc("GET /api/projects/{name}/tasks", s.handleTasks)
	mux.HandleFunc("GET /api/activity-cost", s.handleActivityCost)
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func (s *Server) handleFetchWeek(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("start_date")
	start, err := time.Parse(api.DateOnly, startDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid start_date %q", startDate))
		return
	}
	week := grid.WeekOf(start)

	employee := r.URL.Query().Get("employee")
	if employee == "" {
		employee = s.defaultEmployee
	}

	emp, err := s.db.GetEmployee(employee)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	logs, err := s.db.WeekTimesheets(employee, week.Start)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	projects, err := s.db.ListProjects()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	types, err := s.db.ListActivityTypes()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.WeekData{
		Employee: *emp,
		DateRange: api.DateRange{
			StartDate: week.Start.Format(api.DateOnly),
			EndDate:   week.End().Format(api.DateOnly),
		},
		Timesheets:    logs,
		Projects:      projects,
		ActivityTypes: types,
	})
}

func (s *Server) handleSaveWeek(w http.ResponseWriter, r *http.Request) {
	var req api.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Employee == "" {
		req.Employee = s.defaultEmployee
	}
	if _, err := time.Parse(api.DateOnly, req.StartDate); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid start_date %q", req.StartDate))
		return
	}

	resp, err := s.db.SaveWeek(req)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.logger.Info("week saved", "timesheet", resp.Name, "employee", req.Employee, "hours", resp.TotalHours)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	resp, err := s.db.SubmitTimesheet(name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	resp.Message = fmt.Sprintf("timesheet %s submitted", name)
	s.logger.Info("timesheet submitted", "timesheet", name)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	resp, err := s.db.CancelTimesheet(name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	resp.Message = fmt.Sprintf("timesheet %s cancelled", name)
	s.logger.Info("timesheet cancelled", "timesheet", name)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAmend(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	resp, err := s.db.AmendTimesheet(name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.logger.Info("timesheet amended", "source", name, "timesheet", resp.Name)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.db.TasksForProject(r.PathValue("name"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if tasks == nil {
		tasks = []api.Task{}
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleActivityCost(w http.ResponseWriter, r *http.Request) {
	employee := r.URL.Query().Get("employee")
	activity := r.URL.Query().Get("activity_type")
	if activity == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("activity_type is required"))
		return
	}
	if employee == "" {
		employee = s.defaultEmployee
	}

	cost, err := s.db.ActivityCost(employee, activity)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cost)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrSubmittedLocked):
		s.writeError(w, http.StatusConflict, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}
