package sync

import (
	"fmt"
	"testing"

	"github.com/harrisonrobin/clarity/pkg/model"
)

func TestLedgerBounded(t *testing.T) {
	ledger := NewLedger(nil, nil)
	for i := 0; i < 150; i++ {
		ledger.Record("todoist", model.ActionSyncSuccess, map[string]interface{}{"n": i})
	}

	entries := ledger.Entries()
	if len(entries) != LedgerSize {
		t.Fatalf("Expected %d entries, got %d", LedgerSize, len(entries))
	}
	// Newest first: the head must be the last recorded event.
	if entries[0].Data["n"] != 149 {
		t.Errorf("Expected newest entry n=149, got %v", entries[0].Data["n"])
	}
	if entries[LedgerSize-1].Data["n"] != 150-LedgerSize {
		t.Errorf("Expected oldest entry n=%d, got %v", 150-LedgerSize, entries[LedgerSize-1].Data["n"])
	}
}

func TestLedgerPersistCalledPerRecord(t *testing.T) {
	calls := 0
	var lastLen int
	ledger := NewLedger(nil, func(entries []model.SyncEntry) error {
		calls++
		lastLen = len(entries)
		return nil
	})

	ledger.Record("jira", model.ActionConnected, nil)
	ledger.Record("jira", model.ActionSyncFailed, nil)

	if calls != 2 {
		t.Errorf("Expected 2 persist calls, got %d", calls)
	}
	if lastLen != 2 {
		t.Errorf("Expected 2 persisted entries, got %d", lastLen)
	}
}

func TestLedgerPersistFailureDoesNotDropEntry(t *testing.T) {
	ledger := NewLedger(nil, func([]model.SyncEntry) error {
		return fmt.Errorf("disk full")
	})
	ledger.Record("todoist", model.ActionSyncSuccess, nil)

	if len(ledger.Entries()) != 1 {
		t.Errorf("Expected entry retained despite persist failure, got %d entries", len(ledger.Entries()))
	}
}

func TestLedgerLastSync(t *testing.T) {
	ledger := NewLedger(nil, nil)
	if !ledger.LastSync("todoist").IsZero() {
		t.Error("Expected zero time before any sync")
	}

	ledger.Record("todoist", model.ActionSyncSuccess, nil)
	ledger.Record("todoist", model.ActionSyncFailed, nil)
	ledger.Record("jira", model.ActionSyncSuccess, nil)

	if ledger.LastSync("todoist").IsZero() {
		t.Error("Expected non-zero last sync for todoist")
	}
	if !ledger.LastSync("google-calendar").IsZero() {
		t.Error("Expected zero time for a service that never synced")
	}
}

func TestLedgerStats(t *testing.T) {
	ledger := NewLedger(nil, nil)
	ledger.Record("todoist", model.ActionSyncSuccess, nil)
	ledger.Record("todoist", model.ActionSyncSuccess, nil)
	ledger.Record("jira", model.ActionSyncFailed, nil)
	ledger.Record("jira", model.ActionConnected, nil)

	stats := ledger.Stats()
	if stats.TotalSyncs != 3 {
		t.Errorf("Expected 3 total syncs, got %d", stats.TotalSyncs)
	}
	if stats.SuccessfulSyncs != 2 {
		t.Errorf("Expected 2 successful syncs, got %d", stats.SuccessfulSyncs)
	}
	if stats.FailedSyncs != 1 {
		t.Errorf("Expected 1 failed sync, got %d", stats.FailedSyncs)
	}
}

func TestLedgerSeedTruncated(t *testing.T) {
	seed := make([]model.SyncEntry, 120)
	ledger := NewLedger(seed, nil)
	if len(ledger.Entries()) != LedgerSize {
		t.Errorf("Expected seed truncated to %d, got %d", LedgerSize, len(ledger.Entries()))
	}
}
