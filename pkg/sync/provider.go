package sync

import (
	"context"

	"github.com/harrisonrobin/clarity/pkg/model"
)

// Credentials holds the per-service credential fields supplied at connect
// time. Each adapter validates the fields it needs.
type Credentials map[string]string

// ConnectResult reports the outcome of a connection attempt. Expected
// validation failures come back as Success=false, not as an error.
type ConnectResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteResult is returned by an adapter's write path. On success it carries
// the remote-assigned identifier and URL so they can be stamped onto the task.
type WriteResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	ExternalID  string `json:"externalId,omitempty"`
	ExternalURL string `json:"externalUrl,omitempty"`
}

// Provider is the contract every integration adapter satisfies. FetchTasks
// retrieves all remote records in the adapter's scope and returns them
// normalized; malformed records are filtered out rather than reported.
type Provider interface {
	Name() string
	Connected() bool
	Connect(ctx context.Context, creds Credentials) (ConnectResult, error)
	Disconnect() error
	FetchTasks(ctx context.Context) ([]model.Task, error)
}

// TaskCreator is implemented by adapters that can create remote records from
// local tasks.
type TaskCreator interface {
	CreateRemote(ctx context.Context, task model.Task) (WriteResult, error)
}

// TaskUpdater is implemented by adapters that can push field updates to the
// remote counterpart of a task.
type TaskUpdater interface {
	UpdateRemote(ctx context.Context, task model.Task) (WriteResult, error)
}

// TaskCompleter is implemented by adapters with a dedicated close operation.
// The calendar adapter has none; completion stays local for its tasks.
type TaskCompleter interface {
	CompleteRemote(ctx context.Context, task model.Task) (WriteResult, error)
}

// StateStore persists per-provider connection state so adapters survive a
// restart. Implemented by pkg/store.
type StateStore interface {
	SaveConnection(service string, connected bool, creds Credentials) error
	LoadConnection(service string) (connected bool, creds Credentials, err error)
	ClearConnection(service string) error
}
