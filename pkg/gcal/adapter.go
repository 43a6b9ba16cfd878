package gcal

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
	"github.com/harrisonrobin/clarity/pkg/sync"
)

// Name identifies this provider in task sources and the sync ledger.
const Name = "google-calendar"

// Transport is the fetch side of a calendar connection. The feed transport
// reads a public iCal feed through relays; the API transport uses the
// Calendar API with a stored token.
type Transport interface {
	FetchEvents(ctx context.Context) ([]Event, error)
}

// EventCreator is the optional write side; only the API transport has one.
type EventCreator interface {
	CreateEvent(ctx context.Context, event Event) (id, url string, err error)
}

// Adapter is the Google Calendar provider. Reachability of a feed URL is not
// validated at connect time; the first sync finds out.
type Adapter struct {
	transport    Transport
	connected    bool
	calendarName string
	state        sync.StateStore
}

// NewAdapter creates the adapter and restores any persisted connection.
func NewAdapter(state sync.StateStore) *Adapter {
	a := &Adapter{state: state}
	a.restore()
	return a
}

// NewAdapterWithTransport creates a connected adapter over a fixed transport.
// Used to back the adapter with fixtures in tests.
func NewAdapterWithTransport(state sync.StateStore, transport Transport, calendarName string) *Adapter {
	return &Adapter{state: state, transport: transport, connected: true, calendarName: calendarName}
}

func (a *Adapter) restore() {
	if a.state == nil {
		return
	}
	connected, creds, err := a.state.LoadConnection(Name)
	if err != nil {
		log.Printf("Warning: could not restore calendar connection: %v", err)
		return
	}
	if !connected {
		return
	}
	if _, err := a.connectTransport(context.Background(), creds); err != nil {
		log.Printf("Warning: could not restore calendar transport: %v", err)
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Connected() bool { return a.connected }

// Connect accepts either a shared-calendar URL (or bare calendar address)
// under "url", or a stored OAuth token under "token" with an optional
// "calendarId". The feed variant defers its reachability check to the first
// sync, since feed URLs cannot be validated until fetched.
func (a *Adapter) Connect(ctx context.Context, creds sync.Credentials) (sync.ConnectResult, error) {
	result, err := a.connectTransport(ctx, creds)
	if err != nil || !result.Success {
		return result, err
	}
	if a.state != nil {
		if err := a.state.SaveConnection(Name, true, creds); err != nil {
			log.Printf("Warning: could not persist calendar connection: %v", err)
		}
	}
	return result, nil
}

func (a *Adapter) connectTransport(ctx context.Context, creds sync.Credentials) (sync.ConnectResult, error) {
	name := creds["name"]
	if name == "" {
		name = "Google Calendar"
	}

	if token := strings.TrimSpace(creds["token"]); token != "" {
		transport, err := NewAPITransport(ctx, token, creds["calendarId"])
		if err != nil {
			return sync.ConnectResult{Message: err.Error()}, nil
		}
		a.transport = transport
		a.connected = true
		a.calendarName = name
		return sync.ConnectResult{Success: true, Message: "Google Calendar connected through the API"}, nil
	}

	raw := strings.TrimSpace(creds["url"])
	if raw == "" {
		return sync.ConnectResult{Message: "a calendar URL or token is required"}, nil
	}
	calendarID, ok := ExtractCalendarID(raw)
	if !ok {
		return sync.ConnectResult{Message: "not a valid calendar URL"}, nil
	}

	feedURL := raw
	if !strings.Contains(raw, "ical") {
		feedURL = BuildFeedURL(calendarID)
	}
	a.transport = NewFeedTransport(feedURL)
	a.connected = true
	a.calendarName = name
	return sync.ConnectResult{Success: true, Message: "Google Calendar connected, sync to pull events"}, nil
}

// FetchTasks fetches the event window and normalizes it.
func (a *Adapter) FetchTasks(ctx context.Context) ([]model.Task, error) {
	if !a.connected || a.transport == nil {
		return nil, fmt.Errorf("google calendar is not connected")
	}

	events, err := a.transport.FetchEvents(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tasks := make([]model.Task, 0, len(events))
	for _, event := range events {
		if task, ok := Normalize(event, a.calendarName, now); ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// CreateRemote creates a calendar event for a local task. The write path
// exists only on the API transport; a feed connection reports a failure
// result rather than an error.
func (a *Adapter) CreateRemote(ctx context.Context, task model.Task) (sync.WriteResult, error) {
	if !a.connected || a.transport == nil {
		return sync.WriteResult{}, fmt.Errorf("google calendar is not connected")
	}
	creator, ok := a.transport.(EventCreator)
	if !ok {
		return sync.WriteResult{Message: "calendar writes require an API connection"}, nil
	}

	id, url, err := creator.CreateEvent(ctx, FromTask(task, time.Now()))
	if err != nil {
		return sync.WriteResult{}, err
	}
	return sync.WriteResult{
		Success:     true,
		Message:     "event created in Google Calendar",
		ExternalID:  id,
		ExternalURL: url,
	}, nil
}

// Disconnect clears the transport and persisted credentials.
func (a *Adapter) Disconnect() error {
	a.transport = nil
	a.connected = false
	a.calendarName = ""
	if a.state != nil {
		return a.state.ClearConnection(Name)
	}
	return nil
}
