package todoist

import (
	"strings"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
)

// dueSoonWindow is how close a due date has to be for a task to count as
// urgent.
const dueSoonWindow = 48 * time.Hour

// ClassifyQuadrant places a Todoist task in the matrix. Priority 3 and 4
// (P2/P1) count as important; a due date within two days counts as urgent.
func ClassifyQuadrant(priority int, due *time.Time, now time.Time) model.Quadrant {
	urgent := due != nil && !due.IsZero() && due.Sub(now) <= dueSoonWindow
	important := priority >= 3

	switch {
	case urgent && important:
		return model.QuadrantUrgentImportant
	case important:
		return model.QuadrantImportant
	case urgent:
		return model.QuadrantUrgent
	default:
		return model.QuadrantNeither
	}
}

// labelContexts turns Todoist labels into context tags.
func labelContexts(labels []string) []string {
	var contexts []string
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		contexts = append(contexts, "@"+strings.ToLower(label))
	}
	return contexts
}

// parseDue extracts the due time from a Todoist due object, preferring the
// full datetime over the date-only form.
func parseDue(due *Due) *time.Time {
	if due == nil {
		return nil
	}
	if due.Datetime != "" {
		if t, err := time.Parse(time.RFC3339, due.Datetime); err == nil {
			return &t
		}
	}
	if due.Date != "" {
		if t, err := time.Parse("2006-01-02", due.Date); err == nil {
			return &t
		}
	}
	return nil
}

// Normalize maps one Todoist task to the canonical shape. Records without a
// title are reported as not ok and dropped by the caller.
func Normalize(raw RemoteTask, projectNames map[string]string, now time.Time) (model.Task, bool) {
	if strings.TrimSpace(raw.Content) == "" {
		return model.Task{}, false
	}

	createdAt := now
	if t, err := time.Parse(time.RFC3339, raw.CreatedAt); err == nil {
		createdAt = t
	}
	due := parseDue(raw.Due)

	task := model.Task{
		ID:           "todoist-" + raw.ID,
		Name:         raw.Content,
		Description:  raw.Description,
		Quadrant:     ClassifyQuadrant(raw.Priority, due, now),
		Completed:    raw.IsCompleted,
		CreatedAt:    createdAt,
		UpdatedAt:    now,
		DueDate:      due,
		Contexts:     labelContexts(raw.Labels),
		Source:       Name,
		ExternalID:   raw.ID,
		ExternalURL:  raw.URL,
		OriginalData: model.RawData(raw),
	}
	if name, ok := projectNames[raw.ProjectID]; ok && name != "" {
		task.OriginalData["project_name"] = name
	}
	return task, true
}

// FromTask builds the Todoist write payload for a local task, the inverse of
// Normalize.
func FromTask(task model.Task) TaskPayload {
	payload := TaskPayload{
		Content:     task.Name,
		Description: task.Description,
		Priority:    quadrantPriority(task.Quadrant),
	}
	if task.DueDate != nil && !task.DueDate.IsZero() {
		payload.DueDate = task.DueDate.Format("2006-01-02")
	}
	for _, ctx := range task.Contexts {
		label := strings.TrimPrefix(ctx, "@")
		if label != "" {
			payload.Labels = append(payload.Labels, label)
		}
	}
	return payload
}

func quadrantPriority(q model.Quadrant) int {
	switch q {
	case model.QuadrantUrgentImportant:
		return 4
	case model.QuadrantImportant:
		return 3
	case model.QuadrantUrgent:
		return 2
	default:
		return 1
	}
}
