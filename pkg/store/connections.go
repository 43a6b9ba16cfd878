package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/harrisonrobin/clarity/pkg/sync"
)

// Connection is one provider's persisted connection state. Credentials are
// kept verbatim so adapters can restore a session across restarts; they are
// redacted on the way out of any export surface.
type Connection struct {
	Service     string           `gorm:"primarykey" json:"service"`
	Connected   bool             `json:"connected"`
	Credentials sync.Credentials `gorm:"serializer:json" json:"credentials"`
}

// SaveConnection records a provider's connection state and credentials.
func (s *Store) SaveConnection(service string, connected bool, creds sync.Credentials) error {
	conn := Connection{Service: service, Connected: connected, Credentials: creds}
	if err := s.db.Save(&conn).Error; err != nil {
		return fmt.Errorf("failed to save %s connection: %w", service, err)
	}
	return nil
}

// LoadConnection returns a provider's persisted connection state. A service
// never connected reports disconnected with no credentials.
func (s *Store) LoadConnection(service string) (bool, sync.Credentials, error) {
	var conn Connection
	err := s.db.First(&conn, "service = ?", service).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to load %s connection: %w", service, err)
	}
	return conn.Connected, conn.Credentials, nil
}

// ClearConnection removes a provider's persisted connection state.
func (s *Store) ClearConnection(service string) error {
	if err := s.db.Delete(&Connection{}, "service = ?", service).Error; err != nil {
		return fmt.Errorf("failed to clear %s connection: %w", service, err)
	}
	return nil
}

// Connections returns every persisted connection record.
func (s *Store) Connections() ([]Connection, error) {
	var conns []Connection
	if err := s.db.Order("service ASC").Find(&conns).Error; err != nil {
		return nil, fmt.Errorf("failed to load connections: %w", err)
	}
	return conns, nil
}
