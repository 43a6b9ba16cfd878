package sync

import (
	"log"
	"sync"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
)

// LedgerSize is the number of history entries retained; older entries are
// silently dropped.
const LedgerSize = 100

// Ledger is the bounded, append-only history of connect/sync/disconnect
// events, newest first. Entries are mirrored to the persister after every
// append; a persistence failure is logged, never raised.
type Ledger struct {
	mu      sync.Mutex
	entries []model.SyncEntry
	persist func([]model.SyncEntry) error
}

// NewLedger creates a ledger seeded with previously persisted entries
// (expected newest-first). persist may be nil for an in-memory ledger.
func NewLedger(seed []model.SyncEntry, persist func([]model.SyncEntry) error) *Ledger {
	if len(seed) > LedgerSize {
		seed = seed[:LedgerSize]
	}
	return &Ledger{
		entries: append([]model.SyncEntry(nil), seed...),
		persist: persist,
	}
}

// Record appends an event at the head of the ledger.
func (l *Ledger) Record(service, action string, data map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := model.SyncEntry{
		Service:   service,
		Action:    action,
		Timestamp: time.Now(),
		Data:      data,
	}
	l.entries = append([]model.SyncEntry{entry}, l.entries...)
	if len(l.entries) > LedgerSize {
		l.entries = l.entries[:LedgerSize]
	}

	if l.persist != nil {
		if err := l.persist(append([]model.SyncEntry(nil), l.entries...)); err != nil {
			log.Printf("Warning: failed to persist sync history: %v", err)
		}
	}
}

// Entries returns a copy of the ledger, newest first.
func (l *Ledger) Entries() []model.SyncEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.SyncEntry(nil), l.entries...)
}

// LastSync returns the timestamp of the most recent successful sync for the
// given service, or the zero time if it never synced.
func (l *Ledger) LastSync(service string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.entries {
		if entry.Service == service && entry.Action == model.ActionSyncSuccess {
			return entry.Timestamp
		}
	}
	return time.Time{}
}

// Stats aggregates sync outcomes recorded in the ledger.
type Stats struct {
	TotalSyncs      int            `json:"totalSyncs"`
	SuccessfulSyncs int            `json:"successfulSyncs"`
	FailedSyncs     int            `json:"failedSyncs"`
	TasksBySource   map[string]int `json:"tasksBySource"`
}

// Stats counts sync successes and failures. TasksBySource is left for the
// caller to fill from the task collection.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := Stats{TasksBySource: make(map[string]int)}
	for _, entry := range l.entries {
		switch entry.Action {
		case model.ActionSyncSuccess:
			stats.SuccessfulSyncs++
			stats.TotalSyncs++
		case model.ActionSyncFailed:
			stats.FailedSyncs++
			stats.TotalSyncs++
		}
	}
	return stats
}
