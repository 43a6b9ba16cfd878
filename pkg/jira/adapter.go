package jira

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
	"github.com/harrisonrobin/clarity/pkg/sync"
)

// Name identifies this provider in task sources and the sync ledger.
const Name = "jira"

// Adapter is the Jira provider. Connections are scoped to one project and
// one JQL query; the transport is injectable for tests.
type Adapter struct {
	client     *Client
	connected  bool
	baseURL    string
	projectKey string
	jql        string
	state      sync.StateStore
	newClient  func(baseURL, username, token string) *Client
}

// NewAdapter creates the adapter and restores any persisted connection.
func NewAdapter(state sync.StateStore) *Adapter {
	a := &Adapter{state: state, newClient: NewClient}
	a.restore()
	return a
}

// NewAdapterWithClient creates an adapter whose connections use the given
// client constructor. Used to back the adapter with a fixture transport.
func NewAdapterWithClient(state sync.StateStore, newClient func(baseURL, username, token string) *Client) *Adapter {
	a := &Adapter{state: state, newClient: newClient}
	a.restore()
	return a
}

func (a *Adapter) restore() {
	if a.state == nil {
		return
	}
	connected, creds, err := a.state.LoadConnection(Name)
	if err != nil {
		log.Printf("Warning: could not restore jira connection: %v", err)
		return
	}
	if connected && creds["baseUrl"] != "" && creds["token"] != "" {
		a.applyCredentials(creds)
		a.connected = true
	}
}

func (a *Adapter) applyCredentials(creds sync.Credentials) {
	a.baseURL = strings.TrimRight(strings.TrimSpace(creds["baseUrl"]), "/")
	a.projectKey = strings.TrimSpace(creds["projectKey"])
	a.jql = strings.TrimSpace(creds["jql"])
	if a.jql == "" && a.projectKey != "" {
		a.jql = fmt.Sprintf("project = %q AND resolution = Unresolved", a.projectKey)
	}
	a.client = a.newClient(a.baseURL, strings.TrimSpace(creds["username"]), strings.TrimSpace(creds["token"]))
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Connected() bool { return a.connected }

// Connect validates the site URL and credentials with one authenticated
// round-trip. Rejected credentials are a validation failure, not an error.
func (a *Adapter) Connect(ctx context.Context, creds sync.Credentials) (sync.ConnectResult, error) {
	baseURL := strings.TrimSpace(creds["baseUrl"])
	username := strings.TrimSpace(creds["username"])
	token := strings.TrimSpace(creds["token"])
	projectKey := strings.TrimSpace(creds["projectKey"])

	switch {
	case baseURL == "" || !strings.HasPrefix(baseURL, "http"):
		return sync.ConnectResult{Message: "Jira site URL is missing or invalid"}, nil
	case username == "" || token == "":
		return sync.ConnectResult{Message: "Jira email and API token are required"}, nil
	case projectKey == "":
		return sync.ConnectResult{Message: "Jira project key is required"}, nil
	}

	a.applyCredentials(creds)
	if _, err := a.client.Myself(ctx); err != nil {
		a.client = nil
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return sync.ConnectResult{Message: "Jira rejected the credentials"}, nil
		}
		return sync.ConnectResult{}, err
	}

	a.connected = true
	if a.state != nil {
		saved := sync.Credentials{
			"baseUrl":    a.baseURL,
			"username":   username,
			"token":      token,
			"projectKey": a.projectKey,
			"jql":        a.jql,
		}
		if err := a.state.SaveConnection(Name, true, saved); err != nil {
			log.Printf("Warning: could not persist jira connection: %v", err)
		}
	}
	return sync.ConnectResult{Success: true, Message: "Jira connected"}, nil
}

// FetchTasks searches the connected project for unresolved issues and
// normalizes them.
func (a *Adapter) FetchTasks(ctx context.Context) ([]model.Task, error) {
	if !a.connected {
		return nil, fmt.Errorf("jira is not connected")
	}

	issues, err := a.client.Search(ctx, a.jql)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tasks := make([]model.Task, 0, len(issues))
	for _, issue := range issues {
		if task, ok := Normalize(issue, a.baseURL, now); ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// CreateRemote creates a Jira issue for a local task.
func (a *Adapter) CreateRemote(ctx context.Context, task model.Task) (sync.WriteResult, error) {
	if !a.connected {
		return sync.WriteResult{}, fmt.Errorf("jira is not connected")
	}
	created, err := a.client.CreateIssue(ctx, FromTask(task, a.projectKey))
	if err != nil {
		return sync.WriteResult{}, err
	}
	return sync.WriteResult{
		Success:     true,
		Message:     "issue created in Jira",
		ExternalID:  created.Key,
		ExternalURL: a.baseURL + "/browse/" + created.Key,
	}, nil
}

// UpdateRemote pushes local edits to the Jira counterpart.
func (a *Adapter) UpdateRemote(ctx context.Context, task model.Task) (sync.WriteResult, error) {
	if !a.connected {
		return sync.WriteResult{}, fmt.Errorf("jira is not connected")
	}
	if task.ExternalID == "" {
		return sync.WriteResult{Message: "task has no external id"}, nil
	}
	payload := FromTask(task, a.projectKey)
	payload.Fields.Project = nil
	payload.Fields.IssueType = nil
	if err := a.client.UpdateIssue(ctx, task.ExternalID, payload); err != nil {
		return sync.WriteResult{}, err
	}
	return sync.WriteResult{Success: true, Message: "issue updated in Jira"}, nil
}

// CompleteRemote resolves the Jira counterpart through its workflow. The
// transition is found by its target status, since workflow names vary per
// project.
func (a *Adapter) CompleteRemote(ctx context.Context, task model.Task) (sync.WriteResult, error) {
	if !a.connected {
		return sync.WriteResult{}, fmt.Errorf("jira is not connected")
	}
	if task.ExternalID == "" {
		return sync.WriteResult{Message: "task has no external id"}, nil
	}

	transitions, err := a.client.Transitions(ctx, task.ExternalID)
	if err != nil {
		return sync.WriteResult{}, err
	}
	for _, tr := range transitions {
		if IsCompleted(tr.To.Name) {
			if err := a.client.DoTransition(ctx, task.ExternalID, tr.ID); err != nil {
				return sync.WriteResult{}, err
			}
			return sync.WriteResult{Success: true, Message: "issue resolved in Jira"}, nil
		}
	}
	return sync.WriteResult{Message: "no completing transition available"}, nil
}

// Disconnect clears credentials. Removing this provider's local tasks is the
// orchestrator's job.
func (a *Adapter) Disconnect() error {
	a.client = nil
	a.connected = false
	if a.state != nil {
		return a.state.ClearConnection(Name)
	}
	return nil
}
