package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/harrisonrobin/clarity/pkg/model"
)

// Projects returns every project, oldest first.
func (s *Store) Projects() ([]model.Project, error) {
	var projects []model.Project
	if err := s.db.Order("created_at ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	return projects, nil
}

// SaveProject inserts or replaces a project.
func (s *Store) SaveProject(project model.Project) error {
	if err := s.db.Save(&project).Error; err != nil {
		return fmt.Errorf("failed to save project %s: %w", project.ID, err)
	}
	return nil
}

// DeleteProject removes a project and every task assigned to it, in one
// transaction.
func (s *Store) DeleteProject(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&model.Project{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return tx.Delete(&model.Task{}, "project_id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}
	return nil
}
