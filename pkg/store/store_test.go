package store

import (
	"errors"
	"testing"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
	"github.com/harrisonrobin/clarity/pkg/sync"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTaskRoundTrip(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	task := model.NewTask("Buy milk", model.QuadrantUrgent, now)
	task.Contexts = []string{"@errands"}
	task.OriginalData = map[string]interface{}{"project_name": "Groceries"}
	if err := s.SaveTask(task); err != nil {
		t.Fatalf("SaveTask failed: %v", err)
	}

	got, err := s.Task(task.ID)
	if err != nil {
		t.Fatalf("Task failed: %v", err)
	}
	if got.Name != "Buy milk" || got.Quadrant != model.QuadrantUrgent {
		t.Errorf("Unexpected task: %+v", got)
	}
	if len(got.Contexts) != 1 || got.Contexts[0] != "@errands" {
		t.Errorf("Expected serialized contexts, got %v", got.Contexts)
	}
	if got.OriginalData["project_name"] != "Groceries" {
		t.Errorf("Expected serialized raw data, got %v", got.OriginalData)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("Expected CreatedAt preserved as %v, got %v", now, got.CreatedAt)
	}
}

func TestTaskNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Task("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTask("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on delete, got %v", err)
	}
}

func TestApplyImportReplacesSourceTasks(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	stale := model.Task{ID: "todoist-old", Name: "Stale", Source: "todoist", CreatedAt: now, UpdatedAt: now}
	manual := model.NewTask("Keep me", model.QuadrantNeither, now)
	superseded := model.Task{ID: "calendar-1", Name: "Standup", Source: "google-calendar", CreatedAt: now, UpdatedAt: now}
	for _, task := range []model.Task{stale, manual, superseded} {
		if err := s.SaveTask(task); err != nil {
			t.Fatalf("SaveTask failed: %v", err)
		}
	}

	merged := manual
	merged.AddExternalSource(model.ExternalSource{Source: "todoist", ID: "9", SyncedAt: now})
	plan := sync.ImportPlan{
		Inserts: []model.Task{
			{ID: "todoist-1", Name: "Fresh", Source: "todoist", CreatedAt: now, UpdatedAt: now},
		},
		Updates: []model.Task{merged},
		Deletes: []string{"calendar-1"},
	}
	if err := s.ApplyImport("todoist", plan); err != nil {
		t.Fatalf("ApplyImport failed: %v", err)
	}

	tasks, err := s.Tasks()
	if err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}
	byID := map[string]model.Task{}
	for _, task := range tasks {
		byID[task.ID] = task
	}
	if _, ok := byID["todoist-old"]; ok {
		t.Error("Expected stale provider task removed")
	}
	if _, ok := byID["calendar-1"]; ok {
		t.Error("Expected superseded task removed")
	}
	if _, ok := byID["todoist-1"]; !ok {
		t.Error("Expected fresh task inserted")
	}
	kept, ok := byID[manual.ID]
	if !ok {
		t.Fatal("Expected manual task kept")
	}
	if len(kept.ExternalSources) != 1 || kept.ExternalSources[0].Source != "todoist" {
		t.Errorf("Expected merged external link, got %+v", kept.ExternalSources)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	project := model.NewProject("Home", now)
	if err := s.SaveProject(project); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}
	inProject := model.NewTask("Fix tap", model.QuadrantNeither, now)
	inProject.ProjectID = project.ID
	outside := model.NewTask("Buy milk", model.QuadrantNeither, now)
	for _, task := range []model.Task{inProject, outside} {
		if err := s.SaveTask(task); err != nil {
			t.Fatalf("SaveTask failed: %v", err)
		}
	}

	if err := s.DeleteProject(project.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := s.Task(inProject.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected project task deleted, got %v", err)
	}
	if _, err := s.Task(outside.ID); err != nil {
		t.Errorf("Expected unrelated task kept, got %v", err)
	}

	if err := s.DeleteProject("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConnectionStateRoundTrip(t *testing.T) {
	s := openTestStore(t)

	connected, creds, err := s.LoadConnection("todoist")
	if err != nil {
		t.Fatalf("LoadConnection failed: %v", err)
	}
	if connected || creds != nil {
		t.Errorf("Expected empty state for unknown service, got %v %v", connected, creds)
	}

	if err := s.SaveConnection("todoist", true, sync.Credentials{"token": "abc"}); err != nil {
		t.Fatalf("SaveConnection failed: %v", err)
	}
	connected, creds, err = s.LoadConnection("todoist")
	if err != nil {
		t.Fatalf("LoadConnection failed: %v", err)
	}
	if !connected || creds["token"] != "abc" {
		t.Errorf("Expected persisted connection, got %v %v", connected, creds)
	}

	if err := s.ClearConnection("todoist"); err != nil {
		t.Fatalf("ClearConnection failed: %v", err)
	}
	connected, _, _ = s.LoadConnection("todoist")
	if connected {
		t.Error("Expected connection cleared")
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	entries := []model.SyncEntry{
		{Service: "todoist", Action: model.ActionSyncSuccess, Timestamp: now, Data: map[string]interface{}{"count": 2.0}},
		{Service: "jira", Action: model.ActionConnected, Timestamp: now.Add(-time.Hour)},
	}
	if err := s.SaveHistory(entries); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}

	got, err := s.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].Service != "todoist" || got[1].Service != "jira" {
		t.Errorf("Expected newest-first order preserved, got %s then %s", got[0].Service, got[1].Service)
	}
	if got[0].Data["count"] != 2.0 {
		t.Errorf("Expected serialized data, got %v", got[0].Data)
	}

	// A later save fully replaces the previous history.
	if err := s.SaveHistory(entries[:1]); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}
	got, _ = s.LoadHistory()
	if len(got) != 1 {
		t.Errorf("Expected history replaced, got %d entries", len(got))
	}
}

func TestSettingsExportRedactsSecrets(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveConnection("jira", true, sync.Credentials{
		"baseUrl":  "https://example.atlassian.net",
		"username": "you@example.com",
		"token":    "super-secret",
	}); err != nil {
		t.Fatalf("SaveConnection failed: %v", err)
	}

	export, err := s.ExportSettings()
	if err != nil {
		t.Fatalf("ExportSettings failed: %v", err)
	}
	if len(export.Connections) != 1 {
		t.Fatalf("Expected 1 connection, got %d", len(export.Connections))
	}
	settings := export.Connections[0].Settings
	if settings["token"] != "[REDACTED]" {
		t.Errorf("Expected token redacted, got %q", settings["token"])
	}
	if settings["baseUrl"] != "https://example.atlassian.net" {
		t.Errorf("Expected non-secret fields kept, got %q", settings["baseUrl"])
	}
}

func TestSettingsImportDropsRedactedValues(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveConnection("jira", true, sync.Credentials{
		"baseUrl": "https://example.atlassian.net",
		"token":   "super-secret",
	}); err != nil {
		t.Fatalf("SaveConnection failed: %v", err)
	}

	export, err := s.ExportSettings()
	if err != nil {
		t.Fatalf("ExportSettings failed: %v", err)
	}
	export.Connections[0].Settings["baseUrl"] = "https://other.atlassian.net"
	if err := s.ImportSettings(export); err != nil {
		t.Fatalf("ImportSettings failed: %v", err)
	}

	_, creds, err := s.LoadConnection("jira")
	if err != nil {
		t.Fatalf("LoadConnection failed: %v", err)
	}
	if creds["token"] != "super-secret" {
		t.Errorf("Expected stored token to survive round trip, got %q", creds["token"])
	}
	if creds["baseUrl"] != "https://other.atlassian.net" {
		t.Errorf("Expected imported field applied, got %q", creds["baseUrl"])
	}
}
