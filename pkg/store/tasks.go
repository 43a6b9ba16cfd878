package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/harrisonrobin/clarity/pkg/model"
	"github.com/harrisonrobin/clarity/pkg/sync"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Tasks returns every task, newest first.
func (s *Store) Tasks() ([]model.Task, error) {
	var tasks []model.Task
	if err := s.db.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return tasks, nil
}

// Task returns one task by id.
func (s *Store) Task(id string) (model.Task, error) {
	var task model.Task
	err := s.db.First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to load task %s: %w", id, err)
	}
	return task, nil
}

// SaveTask inserts or fully replaces a task.
func (s *Store) SaveTask(task model.Task) error {
	if err := s.db.Save(&task).Error; err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	return nil
}

// DeleteTask removes one task by id.
func (s *Store) DeleteTask(id string) error {
	result := s.db.Delete(&model.Task{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteTasksBySource removes every task owned by a provider.
func (s *Store) DeleteTasksBySource(source string) error {
	if err := s.db.Delete(&model.Task{}, "source = ?", source).Error; err != nil {
		return fmt.Errorf("failed to delete %s tasks: %w", source, err)
	}
	return nil
}

// ApplyImport replaces a provider's task set with the resolved plan in one
// transaction: the provider's old tasks go first, then superseded duplicates,
// then merge updates and the fresh inserts.
func (s *Store) ApplyImport(service string, plan sync.ImportPlan) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Task{}, "source = ?", service).Error; err != nil {
			return err
		}
		if len(plan.Deletes) > 0 {
			if err := tx.Delete(&model.Task{}, "id IN ?", plan.Deletes).Error; err != nil {
				return err
			}
		}
		for _, task := range plan.Updates {
			if err := tx.Save(&task).Error; err != nil {
				return err
			}
		}
		for _, task := range plan.Inserts {
			if err := tx.Save(&task).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to apply %s import: %w", service, err)
	}
	return nil
}
