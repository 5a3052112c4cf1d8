// Package api is the HTTP client for the weekly timesheet service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8391"

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("timesheet API request", "method", method, "path", path)

	var resp *http.Response
	maxRetries := 3
	requestStart := time.Now()
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			// The previous attempt consumed the body.
			fresh, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rebuilding request body: %w", err)
			}
			req.Body = fresh
		}
		resp, err = c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries {
				c.logger.Error("API request transport error", "method", method, "path", path, "error", err, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("sending request: %w", err)
			}
			c.logger.Debug("API request transport error, retrying", "method", method, "path", path, "attempt", attempt+1, "error", err)
			time.Sleep(backoff(attempt))
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				c.logger.Error("API request failed after retries", "method", method, "path", path, "status", resp.StatusCode, "attempts", maxRetries+1, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("API returned status %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.logger.Debug("API request retryable error", "method", method, "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			time.Sleep(backoff(attempt))
			continue
		}
		break
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("timesheet API response", "method", method, "path", path, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(requestStart))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("API request failed", "method", method, "path", path, "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, serviceError(respBody))
	}

	return respBody, nil
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// serviceError extracts the service's error text from a JSON error body,
// falling back to the raw body.
func serviceError(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return string(body)
}

// FetchWeek loads everything needed to render one employee's week. An
// empty employee lets the service resolve the caller's default.
func (c *Client) FetchWeek(ctx context.Context, employee string, start time.Time) (*WeekData, error) {
	q := url.Values{}
	q.Set("start_date", start.Format(DateOnly))
	if employee != "" {
		q.Set("employee", employee)
	}

	data, err := c.doRequest(ctx, http.MethodGet, "/api/week?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching week: %w", err)
	}

	var week WeekData
	if err := json.Unmarshal(data, &week); err != nil {
		return nil, fmt.Errorf("parsing week response: %w", err)
	}

	return &week, nil
}

// SaveWeek persists a week's flattened time logs, creating a timesheet
// document on first save and updating it in place afterwards.
func (c *Client) SaveWeek(ctx context.Context, req SaveRequest) (*SaveResponse, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/week", req)
	if err != nil {
		return nil, fmt.Errorf("saving week: %w", err)
	}

	var saved SaveResponse
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("parsing save response: %w", err)
	}

	return &saved, nil
}

func (c *Client) Submit(ctx context.Context, name string) (*ActionResponse, error) {
	return c.action(ctx, name, "submit")
}

func (c *Client) Cancel(ctx context.Context, name string) (*ActionResponse, error) {
	return c.action(ctx, name, "cancel")
}

func (c *Client) action(ctx context.Context, name, verb string) (*ActionResponse, error) {
	path := fmt.Sprintf("/api/timesheets/%s/%s", url.PathEscape(name), verb)
	data, err := c.doRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s timesheet: %w", verb, err)
	}

	var resp ActionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", verb, err)
	}

	return &resp, nil
}

// Amend creates a fresh draft from a cancelled timesheet and returns the
// new document identity.
func (c *Client) Amend(ctx context.Context, name string) (*AmendResponse, error) {
	path := fmt.Sprintf("/api/timesheets/%s/amend", url.PathEscape(name))
	data, err := c.doRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, fmt.Errorf("amending timesheet: %w", err)
	}

	var resp AmendResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing amend response: %w", err)
	}

	return &resp, nil
}

// TasksForProject lists open tasks under a project for the task picker.
func (c *Client) TasksForProject(ctx context.Context, project string) ([]Task, error) {
	path := fmt.Sprintf("/api/projects/%s/tasks", url.PathEscape(project))
	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parsing tasks response: %w", err)
	}

	return tasks, nil
}

// GetActivityCost resolves the billing/costing rates for an employee and
// activity type, falling back to the activity's defaults.
func (c *Client) GetActivityCost(ctx context.Context, employee, activityType string) (*ActivityCost, error) {
	q := url.Values{}
	q.Set("employee", employee)
	q.Set("activity_type", activityType)

	data, err := c.doRequest(ctx, http.MethodGet, "/api/activity-cost?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching activity cost: %w", err)
	}

	var cost ActivityCost
	if err := json.Unmarshal(data, &cost); err != nil {
		return nil, fmt.Errorf("parsing activity cost response: %w", err)
	}

	return &cost, nil
}
