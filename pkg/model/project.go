package model

import (
	"time"

	"github.com/google/uuid"
)

// Project groups tasks. Tasks point at it via ProjectID; the project itself
// holds no task list. Deleting a project deletes its tasks.
type Project struct {
	ID        string    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
}

// NewProject creates a project with a fresh identifier.
func NewProject(name string, now time.Time) Project {
	return Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
	}
}
