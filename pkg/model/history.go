package model

import "time"

// Sync history actions.
const (
	ActionConnected        = "connected"
	ActionConnectionFailed = "connection_failed"
	ActionSyncSuccess      = "sync_success"
	ActionSyncFailed       = "sync_failed"
	ActionTaskCreated      = "task_created"
	ActionTaskUpdated      = "task_updated"
	ActionTaskCompleted    = "task_completed"
	ActionDisconnected     = "disconnected"
)

// SyncEntry is one record in the bounded sync history ledger.
type SyncEntry struct {
	Seq       uint                   `gorm:"primarykey" json:"-"`
	Service   string                 `json:"service"`
	Action    string                 `json:"action"`
	Timestamp time.Time              `gorm:"autoCreateTime:false" json:"timestamp"`
	Data      map[string]interface{} `gorm:"serializer:json" json:"data,omitempty"`
}
