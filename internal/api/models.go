package api

import "time"

// DateOnly is the wire format for calendar dates.
const DateOnly = "2006-01-02"

type Employee struct {
	Name         string `json:"name"`
	EmployeeName string `json:"employee_name"`
	Company      string `json:"company"`
	Department   string `json:"department"`
}

type Project struct {
	Name        string `json:"name"`
	ProjectName string `json:"project_name"`
	Status      string `json:"status"`
}

type Task struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

type ActivityType struct {
	Name         string  `json:"name"`
	ActivityName string  `json:"activity_name"`
	BillingRate  float64 `json:"billing_rate"`
	CostingRate  float64 `json:"costing_rate"`
}

type ActivityCost struct {
	BillingRate float64 `json:"billing_rate"`
	CostingRate float64 `json:"costing_rate"`
}

// TimeLog is one flat time-log record. On fetch it carries its parent
// timesheet's identity and lifecycle fields; on save those are empty.
type TimeLog struct {
	Timesheet    string    `json:"timesheet,omitempty"`
	Status       string    `json:"status,omitempty"`
	Docstatus    int       `json:"docstatus"`
	Modified     time.Time `json:"modified,omitempty"`
	Project      string    `json:"project"`
	ProjectName  string    `json:"project_name,omitempty"`
	Task         string    `json:"task"`
	TaskName     string    `json:"task_name,omitempty"`
	ActivityType string    `json:"activity_type"`
	ActivityName string    `json:"activity_name,omitempty"`
	Hours        float64   `json:"hours"`
	IsBillable   bool      `json:"is_billable"`
	BillingHours float64   `json:"billing_hours"`
	FromTime     time.Time `json:"from_time"`
	ToTime       time.Time `json:"to_time"`
	Description  string    `json:"description"`
}

type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// WeekData is the fetch_week response: everything needed to render one
// employee's week.
type WeekData struct {
	Employee      Employee       `json:"employee"`
	DateRange     DateRange      `json:"date_range"`
	Timesheets    []TimeLog      `json:"timesheets"`
	Projects      []Project      `json:"projects"`
	ActivityTypes []ActivityType `json:"activity_types"`
}

type SaveRequest struct {
	Employee      string    `json:"employee"`
	StartDate     string    `json:"start_date"`
	TimeLogs      []TimeLog `json:"time_logs"`
	TimesheetName string    `json:"timesheet_name,omitempty"`
}

type SaveResponse struct {
	Name               string  `json:"name"`
	TotalHours         float64 `json:"total_hours"`
	TotalBillableHours float64 `json:"total_billable_hours"`
	Status             string  `json:"status"`
	Docstatus          int     `json:"docstatus"`
}

type ActionResponse struct {
	Message   string `json:"message,omitempty"`
	Status    string `json:"status"`
	Docstatus int    `json:"docstatus"`
}

type AmendResponse struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	Status    string `json:"status"`
	Docstatus int    `json:"docstatus"`
}
