package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/clarity/pkg/sync"
)

// redactedPlaceholder replaces credential values in exports.
const redactedPlaceholder = "[REDACTED]"

// ExportedConnection is one provider's connection state with credentials
// redacted for export.
type ExportedConnection struct {
	Service   string           `json:"service"`
	Connected bool             `json:"connected"`
	Settings  sync.Credentials `json:"settings"`
}

// SettingsExport is the portable settings bundle.
type SettingsExport struct {
	ExportedAt  time.Time            `json:"exportedAt"`
	Connections []ExportedConnection `json:"connections"`
}

func isSecretField(field string) bool {
	low := strings.ToLower(field)
	return strings.Contains(low, "token") || strings.Contains(low, "password") || strings.Contains(low, "secret")
}

// ExportSettings returns every provider connection with secret fields
// replaced by the redaction placeholder. Credentials never leave the store
// in the clear.
func (s *Store) ExportSettings() (SettingsExport, error) {
	conns, err := s.Connections()
	if err != nil {
		return SettingsExport{}, err
	}

	export := SettingsExport{ExportedAt: time.Now()}
	for _, conn := range conns {
		redacted := make(sync.Credentials, len(conn.Credentials))
		for field, value := range conn.Credentials {
			if isSecretField(field) && value != "" {
				redacted[field] = redactedPlaceholder
			} else {
				redacted[field] = value
			}
		}
		export.Connections = append(export.Connections, ExportedConnection{
			Service:   conn.Service,
			Connected: conn.Connected,
			Settings:  redacted,
		})
	}
	return export, nil
}

// ImportSettings merges an exported bundle back in. Redacted placeholders are
// dropped so a round trip keeps the stored credential instead of overwriting
// it with the placeholder.
func (s *Store) ImportSettings(export SettingsExport) error {
	for _, incoming := range export.Connections {
		_, existing, err := s.LoadConnection(incoming.Service)
		if err != nil {
			return err
		}

		merged := make(sync.Credentials, len(incoming.Settings))
		for field, value := range existing {
			merged[field] = value
		}
		for field, value := range incoming.Settings {
			if value == redactedPlaceholder {
				continue
			}
			merged[field] = value
		}

		if err := s.SaveConnection(incoming.Service, incoming.Connected, merged); err != nil {
			return fmt.Errorf("failed to import %s settings: %w", incoming.Service, err)
		}
	}
	return nil
}
