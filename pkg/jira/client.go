package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// searchFields is the field list requested from the search endpoint.
const searchFields = "summary,description,status,priority,assignee,created,updated,components,labels,issuetype,project"

// Doer executes HTTP requests; tests inject a fixture transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is an HTTP-level rejection from the Jira API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jira API returned %d: %s", e.Code, e.Body)
}

// Client is a minimal Jira REST v2 client using basic auth.
type Client struct {
	baseURL  string
	username string
	token    string
	http     Doer
}

// NewClient creates a client for the given site and credentials.
func NewClient(baseURL, username, token string) *Client {
	return &Client{
		baseURL:  baseURL,
		username: username,
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithDoer creates a client with an injected transport.
func NewClientWithDoer(baseURL, username, token string, doer Doer) *Client {
	c := NewClient(baseURL, username, token)
	c.http = doer
	return c
}

// Named is a Jira object referenced by display name.
type Named struct {
	Name string `json:"name"`
}

// User is a Jira account reference.
type User struct {
	DisplayName string `json:"displayName"`
}

// IssueFields is the subset of issue fields the integration reads.
type IssueFields struct {
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Status      *Named   `json:"status,omitempty"`
	Priority    *Named   `json:"priority,omitempty"`
	IssueType   *Named   `json:"issuetype,omitempty"`
	Assignee    *User    `json:"assignee,omitempty"`
	Project     *Named   `json:"project,omitempty"`
	Components  []Named  `json:"components,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Created     string   `json:"created,omitempty"`
	Updated     string   `json:"updated,omitempty"`
}

// Issue is one Jira issue as returned by the search endpoint.
type Issue struct {
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssuePayload is the creation/update body for an issue.
type IssuePayload struct {
	Fields PayloadFields `json:"fields"`
}

// ProjectRef identifies a project by its key.
type ProjectRef struct {
	Key string `json:"key"`
}

// PayloadFields mirrors the writable issue fields.
type PayloadFields struct {
	Project     *ProjectRef `json:"project,omitempty"`
	Summary     string      `json:"summary"`
	Description string      `json:"description,omitempty"`
	IssueType   *Named      `json:"issuetype,omitempty"`
	Priority    *Named      `json:"priority,omitempty"`
	Labels      []string    `json:"labels,omitempty"`
}

// CreatedIssue is the response to an issue creation.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// Transition is one workflow transition available on an issue.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   Named  `json:"to"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode jira request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jira request failed: %w", err)
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
		return fmt.Errorf("failed to decode jira response: %w", err)
	}
	return nil
}

// Myself is the cheap reachability and auth check used at connect time.
func (c *Client) Myself(ctx context.Context) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/myself", nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Search runs a JQL query and returns the matching issues. Repeated calls
// have no remote side effects.
func (c *Client) Search(ctx context.Context, jql string) ([]Issue, error) {
	path := fmt.Sprintf("/rest/api/2/search?jql=%s&maxResults=100&fields=%s",
		url.QueryEscape(jql), url.QueryEscape(searchFields))

	var result struct {
		Issues []Issue `json:"issues"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Issues, nil
}

// CreateIssue creates an issue and returns its assigned key.
func (c *Client) CreateIssue(ctx context.Context, payload IssuePayload) (CreatedIssue, error) {
	var created CreatedIssue
	if err := c.do(ctx, http.MethodPost, "/rest/api/2/issue", payload, &created); err != nil {
		return CreatedIssue{}, err
	}
	return created, nil
}

// UpdateIssue updates the writable fields of an issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, payload IssuePayload) error {
	return c.do(ctx, http.MethodPut, "/rest/api/2/issue/"+key, payload, nil)
}

// Transitions lists the workflow transitions available on an issue.
func (c *Client) Transitions(ctx context.Context, key string) ([]Transition, error) {
	var result struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+key+"/transitions", nil, &result); err != nil {
		return nil, err
	}
	return result.Transitions, nil
}

// DoTransition moves an issue through the named transition.
func (c *Client) DoTransition(ctx context.Context, key, transitionID string) error {
	body := map[string]interface{}{
		"transition": map[string]string{"id": transitionID},
	}
	return c.do(ctx, http.MethodPost, "/rest/api/2/issue/"+key+"/transitions", body, nil)
}
