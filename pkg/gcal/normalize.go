package gcal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrisonrobin/clarity/pkg/model"
)

// staleWindow is how far in the past an event may end before it is dropped
// from the import.
const staleWindow = 30 * 24 * time.Hour

// ClassifyQuadrant places an event by how soon it starts. Imminent events are
// both urgent and important; within a day an event with a location (somewhere
// to be) stays urgent-important, one without is merely urgent; anything
// further out is important but not urgent.
func ClassifyQuadrant(start time.Time, hasLocation bool, now time.Time) model.Quadrant {
	until := start.Sub(now)
	switch {
	case until <= 2*time.Hour:
		return model.QuadrantUrgentImportant
	case until <= 24*time.Hour:
		if hasLocation {
			return model.QuadrantUrgentImportant
		}
		return model.QuadrantUrgent
	default:
		return model.QuadrantImportant
	}
}

// EventType buckets an event by its wording.
func EventType(event Event) string {
	text := strings.ToLower(event.Summary + " " + event.Description)
	switch {
	case strings.Contains(text, "meeting") || strings.Contains(text, "standup") || strings.Contains(text, "1:1"):
		return "meeting"
	case strings.Contains(text, "focus") || strings.Contains(text, "work") || strings.Contains(text, "study"):
		return "focus"
	case strings.Contains(text, "travel") || strings.Contains(text, "flight") || strings.Contains(text, "trip"):
		return "travel"
	case strings.Contains(text, "doctor") || strings.Contains(text, "gym") || strings.Contains(text, "lunch") || strings.Contains(text, "dinner"):
		return "personal"
	default:
		return "general"
	}
}

// inferContexts annotates the event with location and wording based context
// tags. Best-effort only.
func inferContexts(event Event) []string {
	text := strings.ToLower(event.Summary + " " + event.Description + " " + event.Location)
	var contexts []string
	add := func(ctx string) {
		for _, existing := range contexts {
			if existing == ctx {
				return
			}
		}
		contexts = append(contexts, ctx)
	}

	if event.Location != "" {
		switch {
		case strings.Contains(text, "office") || strings.Contains(text, "conference"):
			add("@meeting")
		case strings.Contains(text, "home"):
			add("@home")
		default:
			add("@errands")
		}
	} else if strings.Contains(text, "zoom") || strings.Contains(text, "meet") || strings.Contains(text, "teams") {
		add("@online")
	}

	switch EventType(event) {
	case "meeting":
		add("@meeting")
	case "focus":
		add("@deep-work")
	case "travel":
		add("@travel")
	case "personal":
		add("@personal")
	}
	return contexts
}

// buildDescription appends location and duration lines to the event body.
func buildDescription(event Event) string {
	var lines []string
	if event.Location != "" {
		lines = append(lines, "Location: "+event.Location)
	}
	if !event.Start.IsZero() && !event.End.IsZero() && event.End.After(event.Start) {
		lines = append(lines, "Duration: "+formatDuration(event.End.Sub(event.Start)))
	}

	if len(lines) == 0 {
		return event.Description
	}
	meta := strings.Join(lines, "\n")
	if event.Description == "" {
		return meta
	}
	return event.Description + "\n\n" + meta
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// Normalize maps one calendar event to the canonical shape. Events without a
// summary, or that ended more than thirty days ago, are reported as not ok.
func Normalize(event Event, calendarName string, now time.Time) (model.Task, bool) {
	if strings.TrimSpace(event.Summary) == "" {
		return model.Task{}, false
	}
	if !event.End.IsZero() && event.End.Before(now.Add(-staleWindow)) {
		return model.Task{}, false
	}

	createdAt := event.Created
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := event.Updated
	if updatedAt.IsZero() {
		updatedAt = now
	}
	start := event.Start

	// Feeds are not obliged to carry a UID. Mint one so each event keeps a
	// distinct id and the task still carries an external id.
	uid := event.UID
	if uid == "" {
		uid = "evt-" + uuid.NewString()
	}

	externalURL := event.URL
	if externalURL == "" && event.UID != "" {
		externalURL = "https://calendar.google.com/calendar/event?eid=" + event.UID
	}

	raw := model.RawData(event)
	if raw != nil {
		raw["calendar"] = calendarName
		raw["eventType"] = EventType(event)
	}

	task := model.Task{
		ID:           "calendar-" + uid,
		Name:         event.Summary,
		Description:  buildDescription(event),
		Quadrant:     ClassifyQuadrant(start, event.Location != "", now),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		DueDate:      &start,
		Contexts:     inferContexts(event),
		Source:       Name,
		ExternalID:   uid,
		ExternalURL:  externalURL,
		OriginalData: raw,
	}
	return task, true
}

// FromTask builds the event payload for the create-only write path. A task
// without a due date becomes an hour-long event starting an hour from now.
func FromTask(task model.Task, now time.Time) Event {
	start := now.Add(time.Hour)
	if task.DueDate != nil && !task.DueDate.IsZero() {
		start = *task.DueDate
	}
	return Event{
		Summary:     task.Name,
		Description: task.Description,
		Start:       start,
		End:         start.Add(time.Hour),
	}
}
