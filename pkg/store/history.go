package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/harrisonrobin/clarity/pkg/model"
)

// SaveHistory replaces the persisted sync history with the given entries.
// Entries arrive newest first and are inserted in that order, so sequence
// numbers ascend from newest to oldest and LoadHistory can restore the order.
func (s *Store) SaveHistory(entries []model.SyncEntry) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.SyncEntry{}).Error; err != nil {
			return err
		}
		for _, entry := range entries {
			entry.Seq = 0
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save sync history: %w", err)
	}
	return nil
}

// LoadHistory returns the persisted sync history, newest first.
func (s *Store) LoadHistory() ([]model.SyncEntry, error) {
	var entries []model.SyncEntry
	if err := s.db.Order("seq ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load sync history: %w", err)
	}
	return entries, nil
}
