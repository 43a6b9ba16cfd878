package model

import (
	"time"

	"github.com/google/uuid"
)

// Quadrant is the urgency/importance classification of a task.
type Quadrant string

const (
	QuadrantUrgentImportant Quadrant = "urgent-important"
	QuadrantImportant       Quadrant = "important"
	QuadrantUrgent          Quadrant = "urgent"
	QuadrantNeither         Quadrant = "neither"
)

// Valid reports whether q is one of the four fixed quadrants.
func (q Quadrant) Valid() bool {
	switch q {
	case QuadrantUrgentImportant, QuadrantImportant, QuadrantUrgent, QuadrantNeither:
		return true
	}
	return false
}

// SourceManual marks tasks created locally rather than imported from a provider.
const SourceManual = "manual"

// ExternalSource is a supplementary link attached to a manual task that was
// found to duplicate an externally-sourced one. It never replaces Task.Source.
type ExternalSource struct {
	Source   string    `json:"source"`
	ID       string    `json:"id"`
	URL      string    `json:"url,omitempty"`
	SyncedAt time.Time `json:"syncedAt"`
}

// Task is the canonical unit shared by the matrix and every provider adapter.
type Task struct {
	ID          string     `gorm:"primarykey" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description,omitempty"`
	Quadrant    Quadrant   `json:"quadrant"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime:false" json:"updatedAt"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ProjectID   string     `gorm:"index" json:"projectId,omitempty"`

	// Source is "manual" or a provider name; a task belongs to exactly one.
	Source      string `gorm:"index" json:"source"`
	ExternalID  string `json:"externalId,omitempty"`
	ExternalURL string `json:"externalUrl,omitempty"`

	ExternalSources []ExternalSource `gorm:"serializer:json" json:"externalSources,omitempty"`
	Contexts        []string         `gorm:"serializer:json" json:"contexts,omitempty"`

	// OriginalData preserves the provider's raw record verbatim for display
	// and round-trip conversion.
	OriginalData map[string]interface{} `gorm:"serializer:json" json:"originalData,omitempty"`
}

// NewTask creates a manual task placed in the given quadrant.
func NewTask(name string, quadrant Quadrant, now time.Time) Task {
	if !quadrant.Valid() {
		quadrant = QuadrantNeither
	}
	return Task{
		ID:        uuid.NewString(),
		Name:      name,
		Quadrant:  quadrant,
		Source:    SourceManual,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch refreshes UpdatedAt after any field mutation.
func (t *Task) Touch(now time.Time) {
	t.UpdatedAt = now
}

// Complete marks the task done. CompletedAt is set exactly once, on the
// false-to-true transition.
func (t *Task) Complete(now time.Time) {
	if t.Completed {
		return
	}
	t.Completed = true
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// LastModified returns UpdatedAt, falling back to CreatedAt. Used when
// comparing conflicting tasks.
func (t *Task) LastModified() time.Time {
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

// AddContext appends a context tag, suppressing duplicates.
func (t *Task) AddContext(ctx string) {
	for _, existing := range t.Contexts {
		if existing == ctx {
			return
		}
	}
	t.Contexts = append(t.Contexts, ctx)
}

// AddExternalSource appends a supplementary origin record, deduplicated by
// provider. The latest sync wins for an already-linked provider.
func (t *Task) AddExternalSource(src ExternalSource) {
	for i, existing := range t.ExternalSources {
		if existing.Source == src.Source {
			t.ExternalSources[i] = src
			return
		}
	}
	t.ExternalSources = append(t.ExternalSources, src)
}
