package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.todoist.com/rest/v2"

// Doer executes HTTP requests. Production code uses *http.Client; tests
// inject a fixture transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is an HTTP-level rejection from the Todoist API, as opposed to
// a transport fault.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("todoist API returned %d: %s", e.Code, e.Body)
}

// Client is a minimal Todoist REST v2 client authenticated with a bearer
// token.
type Client struct {
	baseURL string
	token   string
	http    Doer
}

// NewClient creates a client for the given API token.
func NewClient(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithDoer creates a client with an injected transport.
func NewClientWithDoer(token string, doer Doer) *Client {
	c := NewClient(token)
	c.http = doer
	return c
}

// RemoteTask is a task record as returned by the Todoist REST API.
type RemoteTask struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Due         *Due     `json:"due,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	URL         string   `json:"url,omitempty"`
	IsCompleted bool     `json:"is_completed,omitempty"`
}

// Due is the due object attached to a Todoist task.
type Due struct {
	Date     string `json:"date"`
	Datetime string `json:"datetime,omitempty"`
}

// Project is a Todoist project record.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskPayload is the creation/update body for a Todoist task.
type TaskPayload struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode todoist request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("todoist request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode todoist response: %w", err)
	}
	return nil
}

// Tasks fetches all active tasks. Repeated calls have no remote side effects.
func (c *Client) Tasks(ctx context.Context) ([]RemoteTask, error) {
	var tasks []RemoteTask
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Projects fetches all projects. Also used as the cheap reachability check at
// connect time.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateTask creates a remote task and returns the remote record with its
// assigned ID and URL.
func (c *Client) CreateTask(ctx context.Context, payload TaskPayload) (RemoteTask, error) {
	var created RemoteTask
	if err := c.do(ctx, http.MethodPost, "/tasks", payload, &created); err != nil {
		return RemoteTask{}, err
	}
	return created, nil
}

// UpdateTask updates an existing remote task.
func (c *Client) UpdateTask(ctx context.Context, id string, payload TaskPayload) error {
	return c.do(ctx, http.MethodPost, "/tasks/"+id, payload, nil)
}

// CloseTask marks a remote task complete.
func (c *Client) CloseTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/tasks/"+id+"/close", nil, nil)
}
