package gcal

import (
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
)

func TestClassifyQuadrant(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		start       time.Time
		hasLocation bool
		want        model.Quadrant
	}{
		{"starting within two hours", now.Add(time.Hour), false, model.QuadrantUrgentImportant},
		{"today with a location", now.Add(8 * time.Hour), true, model.QuadrantUrgentImportant},
		{"today without a location", now.Add(8 * time.Hour), false, model.QuadrantUrgent},
		{"later this week", now.Add(72 * time.Hour), true, model.QuadrantImportant},
	}
	for _, tt := range tests {
		if got := ClassifyQuadrant(tt.start, tt.hasLocation, now); got != tt.want {
			t.Errorf("%s: Expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	event := Event{
		UID:         "abc123",
		Summary:     "Team standup",
		Description: "status round",
		Location:    "Conference Room B",
		Start:       now.Add(90 * time.Minute),
		End:         now.Add(150 * time.Minute),
		Created:     now.Add(-48 * time.Hour),
		Updated:     now.Add(-time.Hour),
	}

	task, ok := Normalize(event, "Work", now)
	if !ok {
		t.Fatal("Expected event to normalize")
	}
	if task.ID != "calendar-abc123" {
		t.Errorf("Expected ID calendar-abc123, got %s", task.ID)
	}
	if task.Source != Name || task.ExternalID != "abc123" {
		t.Errorf("Expected source google-calendar/abc123, got %s/%s", task.Source, task.ExternalID)
	}
	if task.Quadrant != model.QuadrantUrgentImportant {
		t.Errorf("Expected urgent-important for imminent event, got %s", task.Quadrant)
	}
	if task.DueDate == nil || !task.DueDate.Equal(event.Start) {
		t.Errorf("Expected due date %v, got %v", event.Start, task.DueDate)
	}
	if !strings.Contains(task.Description, "Location: Conference Room B") {
		t.Errorf("Expected location line in description, got %q", task.Description)
	}
	if !strings.Contains(task.Description, "Duration: 1h") {
		t.Errorf("Expected duration line in description, got %q", task.Description)
	}
	if !strings.Contains(task.ExternalURL, "abc123") {
		t.Errorf("Expected fallback event URL, got %q", task.ExternalURL)
	}
	if task.OriginalData["calendar"] != "Work" || task.OriginalData["eventType"] != "meeting" {
		t.Errorf("Expected calendar and eventType in raw data, got %v", task.OriginalData)
	}
}

func TestNormalizeMintsIDForEventWithoutUID(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := Event{Summary: "Dentist", Start: now.Add(time.Hour)}
	second := Event{Summary: "Gym", Start: now.Add(2 * time.Hour)}

	taskA, ok := Normalize(first, "Personal", now)
	if !ok {
		t.Fatal("Expected event to normalize")
	}
	taskB, ok := Normalize(second, "Personal", now)
	if !ok {
		t.Fatal("Expected event to normalize")
	}

	if taskA.ExternalID == "" || taskB.ExternalID == "" {
		t.Errorf("Expected minted external ids, got %q and %q", taskA.ExternalID, taskB.ExternalID)
	}
	if taskA.ID == "calendar-" || taskA.ID == taskB.ID {
		t.Errorf("Expected distinct ids, got %q and %q", taskA.ID, taskB.ID)
	}
	if taskA.ExternalURL != "" {
		t.Errorf("Expected no event URL without a real UID, got %q", taskA.ExternalURL)
	}
}

func TestNormalizeDropsStaleAndUntitled(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	stale := Event{UID: "old", Summary: "Ancient meeting", End: now.Add(-31 * 24 * time.Hour)}
	if _, ok := Normalize(stale, "Work", now); ok {
		t.Error("Expected event ended over thirty days ago to be dropped")
	}

	untitled := Event{UID: "blank", Start: now}
	if _, ok := Normalize(untitled, "Work", now); ok {
		t.Error("Expected summary-less event to be dropped")
	}
}

func TestInferContexts(t *testing.T) {
	event := Event{Summary: "Sprint meeting", Location: "Office 3"}
	contexts := inferContexts(event)

	found := false
	for _, ctx := range contexts {
		if ctx == "@meeting" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected @meeting, got %v", contexts)
	}

	online := inferContexts(Event{Summary: "Design review", Description: "zoom link inside"})
	foundOnline := false
	for _, ctx := range online {
		if ctx == "@online" {
			foundOnline = true
		}
	}
	if !foundOnline {
		t.Errorf("Expected @online for zoom event, got %v", online)
	}
}

func TestFromTask(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)
	task := model.Task{Name: "Dentist", DueDate: &due}

	event := FromTask(task, now)
	if !event.Start.Equal(due) {
		t.Errorf("Expected start at due date, got %v", event.Start)
	}
	if event.End.Sub(event.Start) != time.Hour {
		t.Errorf("Expected one-hour event, got %v", event.End.Sub(event.Start))
	}

	noDue := FromTask(model.Task{Name: "Sometime"}, now)
	if !noDue.Start.Equal(now.Add(time.Hour)) {
		t.Errorf("Expected start an hour from now, got %v", noDue.Start)
	}
}
