package todoist

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
const Name = "todoist"

const minTokenLength = 10

// Adapter is the Todoist provider. The transport is injectable so the same
// normalization path runs against fixtures in tests.
type Adapter struct {
	client    *Client
	connected bool
	state     sync.StateStore
	newClient func(token string) *Client
}

// NewAdapter creates the adapter and restores any persisted connection.
func NewAdapter(state sync.StateStore) *Adapter {
	a := &Adapter{state: state, newClient: NewClient}
	a.restore()
	return a
}

// NewAdapterWithClient creates an adapter whose connections use the given
// client constructor. Used to back the adapter with a fixture transport.
func NewAdapterWithClient(state sync.StateStore, newClient func(token string) *Client) *Adapter {
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
		log.Printf("Warning: could not restore todoist connection: %v", err)
		return
	}
	if connected && creds["token"] != "" {
		a.client = a.newClient(creds["token"])
		a.connected = true
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Connected() bool { return a.connected }

// Connect validates the API token with one cheap round-trip. A rejected token
// is a validation failure, not an error; only transport faults are errors.
func (a *Adapter) Connect(ctx context.Context, creds sync.Credentials) (sync.ConnectResult, error) {
	token := strings.TrimSpace(creds["token"])
	if len(token) < minTokenLength {
		return sync.ConnectResult{Message: "API token is missing or too short"}, nil
	}

	client := a.newClient(token)
	if _, err := client.Projects(ctx); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return sync.ConnectResult{Message: "Todoist rejected the API token"}, nil
		}
		return sync.ConnectResult{}, err
	}

	a.client = client
	a.connected = true
	if a.state != nil {
		if err := a.state.SaveConnection(Name, true, sync.Credentials{"token": token}); err != nil {
			log.Printf("Warning: could not persist todoist connection: %v", err)
		}
	}
	return sync.ConnectResult{Success: true, Message: "Todoist connected"}, nil
}

// FetchTasks retrieves all active tasks, with their projects for enrichment,
// and normalizes them. Labels ride along on each task record.
func (a *Adapter) FetchTasks(ctx context.Context) ([]model.Task, error) {
	if !a.connected {
		return nil, fmt.Errorf("todoist is not connected")
	}

	remoteTasks, err := a.client.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := a.client.Projects(ctx)
	if err != nil {
		return nil, err
	}

	projectNames := make(map[string]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
	}

	now := time.Now()
	tasks := make([]model.Task, 0, len(remoteTasks))
	for _, raw := range remoteTasks {
		if task, ok := Normalize(raw, projectNames, now); ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// CreateRemote creates a Todoist counterpart for a local task.
func (a *Adapter) CreateRemote(ctx context.Context, task model.Task) (sync.WriteResult, error) {
	if !a.connected {
		return sync.WriteResult{}, fmt.Errorf("todoist is not connected")
	}
	created, err := a.client.CreateTask(ctx, FromTask(task))
	if err != nil {
		return sync.WriteResult{}, err
	}
	return sync.WriteResult{
		Success:     true,
		Message:     "task created in Todoist",
		ExternalID:  created.ID,
		ExternalURL: created.URL,
	}, nil
}

// UpdateRemote pushes local edits to the Todoist counterpart.
func (a *Adapter) UpdateRemote(ctx context.Context, task model.Task) (sync.WriteResult, error) {
	if !a.connected {
		return sync.WriteResult{}, fmt.Errorf("todoist is not connected")
	}
	if task.ExternalID == "" {
		return sync.WriteResult{Message: "task has no external id"}, nil
	}
	if err := a.client.UpdateTask(ctx, task.ExternalID, FromTask(task)); err != nil {
		return sync.WriteResult{}, err
	}
	return sync.WriteResult{Success: true, Message: "task updated in Todoist"}, nil
}

// CompleteRemote closes the Todoist counterpart.
func (a *Adapter) CompleteRemote(ctx context.Context, task model.Task) (sync.WriteResult, error) {
	if !a.connected {
		return sync.WriteResult{}, fmt.Errorf("todoist is not connected")
	}
	if task.ExternalID == "" {
		return sync.WriteResult{Message: "task has no external id"}, nil
	}
	if err := a.client.CloseTask(ctx, task.ExternalID); err != nil {
		return sync.WriteResult{}, err
	}
	return sync.WriteResult{Success: true, Message: "task closed in Todoist"}, nil
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
