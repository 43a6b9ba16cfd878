package duewatch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
)

// Entry is one watched task with an upcoming due date.
type Entry struct {
	TaskID string    `json:"task_id"`
	Name   string    `json:"name"`
	Due    time.Time `json:"due"`
}

// Table tracks tasks with future due dates so that newly overdue ones can be
// reported exactly once. It persists as a JSON file and only writes when its
// contents changed.
type Table struct {
	Entries map[string]Entry `json:"entries"`
	Path    string           `json:"-"`
	dirty   bool
}

// NewTable loads the watch table from dataDir, creating an empty one if the
// file does not exist yet.
func NewTable(dataDir string) (*Table, error) {
	path := filepath.Join(dataDir, "due_watch.json")

	t := &Table{
		Path:    path,
		Entries: make(map[string]Entry),
	}

	if _, err := os.Stat(path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(t)
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	dir := filepath.Dir(t.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(t)
	if err == nil {
		t.dirty = false
	}
	return err
}

// Track reconciles the table against the current task collection: open tasks
// with a due date are watched, everything else falls out of the table.
func (t *Table) Track(tasks []model.Task) {
	current := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if task.Completed || task.DueDate == nil || task.DueDate.IsZero() {
			continue
		}
		current[task.ID] = true
		t.Update(task.ID, task.Name, *task.DueDate)
	}
	for id := range t.Entries {
		if !current[id] {
			t.Remove(id)
		}
	}
}

// Update adds or refreshes a watched task. A zero due date removes it.
func (t *Table) Update(taskID, name string, due time.Time) {
	if due.IsZero() {
		t.Remove(taskID)
		return
	}
	old, exists := t.Entries[taskID]
	if !exists || !old.Due.Equal(due) || old.Name != name {
		t.Entries[taskID] = Entry{
			TaskID: taskID,
			Name:   name,
			Due:    due,
		}
		t.dirty = true
	}
}

func (t *Table) Remove(taskID string) {
	if _, exists := t.Entries[taskID]; exists {
		delete(t.Entries, taskID)
		t.dirty = true
	}
}

// Sweep returns entries whose due date has passed and removes them, so each
// task is reported overdue once.
func (t *Table) Sweep(now time.Time) []Entry {
	var swept []Entry
	for id, entry := range t.Entries {
		if entry.Due.Before(now) {
			swept = append(swept, entry)
			delete(t.Entries, id)
			t.dirty = true
		}
	}
	return swept
}
