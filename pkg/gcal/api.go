package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// apiWindow is the fetch scope of the API transport: today through +30 days.
const apiWindow = 30 * 24 * time.Hour

// APITransport fetches and creates events through the Google Calendar API
// using a stored OAuth token. There is no interactive flow; the token is the
// bearer credential the user supplies.
type APITransport struct {
	srv        *calendar.Service
	calendarID string
}

// NewAPITransport builds the transport from a JSON-encoded oauth2 token.
// calendarID defaults to the primary calendar.
func NewAPITransport(ctx context.Context, tokenJSON, calendarID string) (*APITransport, error) {
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenJSON), &token); err != nil {
		return nil, fmt.Errorf("failed to decode calendar token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("calendar token has no access token")
	}

	srv, err := calendar.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(&token)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &APITransport{srv: srv, calendarID: calendarID}, nil
}

// FetchEvents lists upcoming events in the fetch window.
func (t *APITransport) FetchEvents(ctx context.Context) ([]Event, error) {
	now := time.Now()
	list, err := t.srv.Events.List(t.calendarID).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.Add(apiWindow).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}

	events := make([]Event, 0, len(list.Items))
	for _, item := range list.Items {
		events = append(events, fromAPIEvent(item))
	}
	return events, nil
}

// CreateEvent inserts an event and returns its remote ID and link.
func (t *APITransport) CreateEvent(ctx context.Context, event Event) (string, string, error) {
	apiEvent := &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Start:       &calendar.EventDateTime{DateTime: event.Start.UTC().Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: event.End.UTC().Format(time.RFC3339)},
	}
	created, err := t.srv.Events.Insert(t.calendarID, apiEvent).Context(ctx).Do()
	if err != nil {
		return "", "", err
	}
	return created.Id, created.HtmlLink, nil
}

func fromAPIEvent(item *calendar.Event) Event {
	event := Event{
		UID:         item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		URL:         item.HtmlLink,
	}
	if item.Start != nil {
		event.Start, event.AllDay = parseAPITime(item.Start)
	}
	if item.End != nil {
		event.End, _ = parseAPITime(item.End)
	}
	if t, err := time.Parse(time.RFC3339, item.Created); err == nil {
		event.Created = t
	}
	if t, err := time.Parse(time.RFC3339, item.Updated); err == nil {
		event.Updated = t
	}
	return event
}

func parseAPITime(edt *calendar.EventDateTime) (time.Time, bool) {
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t, false
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
