package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
)

var (
	// ErrUnknownService is returned for a provider name with no adapter.
	ErrUnknownService = errors.New("unknown service")
	// ErrNotConnected is returned when an operation requires a connected
	// provider.
	ErrNotConnected = errors.New("service is not connected")
)

// Store is the slice of the local store the orchestrator needs. ApplyImport
// must apply the whole plan atomically so a reader never observes a partially
// replaced provider task set.
type Store interface {
	Tasks() ([]model.Task, error)
	SaveTask(task model.Task) error
	DeleteTasksBySource(source string) error
	ApplyImport(service string, plan ImportPlan) error
}

// ImportPlan is the resolved outcome of one sync cycle. The store removes
// every task owned by the syncing provider, deletes superseded duplicates,
// applies merge updates and inserts the fresh set, in one transaction.
type ImportPlan struct {
	Inserts []model.Task
	Updates []model.Task
	Deletes []string
}

// SyncSummary reports the outcome of syncing one provider.
type SyncSummary struct {
	Service string `json:"service"`
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

// PushResult reports the outcome of pushing one local mutation to one
// provider.
type PushResult struct {
	Service string `json:"service"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ServiceStatus describes one provider for status display.
type ServiceStatus struct {
	Name      string     `json:"name"`
	Connected bool       `json:"connected"`
	LastSync  *time.Time `json:"lastSync,omitempty"`
}

// Manager coordinates the provider adapters: it runs sync cycles, resolves
// conflicts against the local collection, pushes local mutations back out and
// keeps the history ledger. Providers are handed in at construction; there is
// no ambient registry.
type Manager struct {
	store     Store
	ledger    *Ledger
	providers map[string]Provider
	order     []string

	// syncMu serializes sync cycles: at most one sync is in flight at a
	// time, auto-sync ticks included.
	syncMu sync.Mutex

	autoMu   sync.Mutex
	autoStop chan struct{}
}

// NewManager wires the orchestrator from an explicit provider list. Provider
// order is preserved for SyncAll and push fan-out.
func NewManager(store Store, ledger *Ledger, providers ...Provider) *Manager {
	m := &Manager{
		store:     store,
		ledger:    ledger,
		providers: make(map[string]Provider, len(providers)),
	}
	for _, p := range providers {
		m.providers[p.Name()] = p
		m.order = append(m.order, p.Name())
	}
	return m
}

// Ledger exposes the sync history.
func (m *Manager) Ledger() *Ledger {
	return m.ledger
}

// ConnectService validates and stores credentials for a provider. Calling it
// while connected re-validates and overwrites the stored credentials.
func (m *Manager) ConnectService(ctx context.Context, service string, creds Credentials) (ConnectResult, error) {
	p, ok := m.providers[service]
	if !ok {
		return ConnectResult{}, fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	result, err := p.Connect(ctx, creds)
	if err != nil {
		m.ledger.Record(service, model.ActionConnectionFailed, map[string]interface{}{"error": err.Error()})
		return ConnectResult{}, fmt.Errorf("connect %s: %w", service, err)
	}
	if result.Success {
		m.ledger.Record(service, model.ActionConnected, map[string]interface{}{"message": result.Message})
	}
	return result, nil
}

// SyncService runs one sync cycle for a provider: fetch and normalize, resolve
// each record against the pre-import snapshot, then replace the provider's
// tasks with the resolved set. A fetch failure leaves the local collection
// untouched and is both logged and returned.
func (m *Manager) SyncService(ctx context.Context, service string) (SyncSummary, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	return m.syncLocked(ctx, service)
}

func (m *Manager) syncLocked(ctx context.Context, service string) (SyncSummary, error) {
	p, ok := m.providers[service]
	if !ok {
		return SyncSummary{Service: service}, fmt.Errorf("%w: %s", ErrUnknownService, service)
	}
	if !p.Connected() {
		return SyncSummary{Service: service}, fmt.Errorf("%w: %s", ErrNotConnected, service)
	}

	incoming, err := p.FetchTasks(ctx)
	if err != nil {
		m.ledger.Record(service, model.ActionSyncFailed, map[string]interface{}{"error": err.Error()})
		return SyncSummary{Service: service}, fmt.Errorf("sync %s: %w", service, err)
	}

	snapshot, err := m.store.Tasks()
	if err != nil {
		m.ledger.Record(service, model.ActionSyncFailed, map[string]interface{}{"error": err.Error()})
		return SyncSummary{Service: service}, fmt.Errorf("sync %s: %w", service, err)
	}

	now := time.Now()
	plan := BuildPlan(incoming, snapshot, now)
	if err := m.store.ApplyImport(service, plan); err != nil {
		m.ledger.Record(service, model.ActionSyncFailed, map[string]interface{}{"error": err.Error()})
		return SyncSummary{Service: service}, fmt.Errorf("sync %s: %w", service, err)
	}

	m.ledger.Record(service, model.ActionSyncSuccess, map[string]interface{}{
		"count":     len(incoming),
		"timestamp": now,
	})
	return SyncSummary{Service: service, Success: true, Count: len(incoming)}, nil
}

// BuildPlan resolves every incoming task against the snapshot and accumulates
// the import plan. Resolution sees only the snapshot, never earlier plan
// entries, which keeps the result independent of record order.
func BuildPlan(incoming []model.Task, snapshot []model.Task, now time.Time) ImportPlan {
	var plan ImportPlan
	updates := make(map[string]model.Task)
	seen := make(map[string]bool)

	for _, task := range incoming {
		// One local task per (provider, externalId) pair.
		if task.ExternalID != "" {
			key := task.Source + "\x00" + task.ExternalID
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		InferContexts(&task, now)

		switch r := Resolve(task, snapshot, now); r.Action {
		case ResolutionInsert:
			plan.Inserts = append(plan.Inserts, r.Task)
		case ResolutionMerge:
			updates[r.ExistingID] = r.Task
		case ResolutionSupersede:
			plan.Inserts = append(plan.Inserts, r.Task)
			plan.Deletes = append(plan.Deletes, r.ExistingID)
		case ResolutionDiscard:
		}
	}

	for _, task := range updates {
		plan.Updates = append(plan.Updates, task)
	}
	return plan
}

// SyncAll syncs every connected provider in registration order. One
// provider's failure does not abort the others.
func (m *Manager) SyncAll(ctx context.Context) []SyncSummary {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	var results []SyncSummary
	for _, name := range m.order {
		if !m.providers[name].Connected() {
			continue
		}
		summary, err := m.syncLocked(ctx, name)
		if err != nil {
			summary.Error = err.Error()
		}
		results = append(results, summary)
	}
	return results
}

// CreateExternalTask pushes a locally created task to the target providers
// (default: every connected provider with a create capability). On the first
// success per provider the remote identifiers are stamped onto the task and
// saved. Failures are collected and returned; the local task is never rolled
// back.
func (m *Manager) CreateExternalTask(ctx context.Context, task *model.Task, targets ...string) []PushResult {
	if len(targets) == 0 {
		targets = m.order
	}

	var results []PushResult
	for _, name := range targets {
		p, ok := m.providers[name]
		if !ok || !p.Connected() {
			continue
		}
		creator, ok := p.(TaskCreator)
		if !ok {
			continue
		}

		result, err := creator.CreateRemote(ctx, *task)
		if err != nil {
			results = append(results, PushResult{Service: name, Message: err.Error()})
			continue
		}
		if result.Success {
			task.ExternalID = result.ExternalID
			task.ExternalURL = result.ExternalURL
			task.Source = name
			if err := m.store.SaveTask(*task); err != nil {
				log.Printf("Warning: failed to save external link for task %s: %v", task.ID, err)
			}
			m.ledger.Record(name, model.ActionTaskCreated, map[string]interface{}{
				"taskId":     task.ID,
				"externalId": task.ExternalID,
			})
		}
		results = append(results, PushResult{Service: name, Success: result.Success, Message: result.Message})
	}
	return results
}

// UpdateExternalTask pushes a local edit to the task's owning provider. It is
// a no-op for manual tasks and for providers without an update capability;
// the local edit always stands regardless of the push outcome.
func (m *Manager) UpdateExternalTask(ctx context.Context, task model.Task) []PushResult {
	return m.pushToOwner(ctx, task, model.ActionTaskUpdated, func(p Provider) (WriteResult, error, bool) {
		updater, ok := p.(TaskUpdater)
		if !ok {
			return WriteResult{}, nil, false
		}
		result, err := updater.UpdateRemote(ctx, task)
		return result, err, true
	})
}

// CompleteExternalTask propagates a local completion to the owning provider's
// close operation, when it has one.
func (m *Manager) CompleteExternalTask(ctx context.Context, task model.Task) []PushResult {
	return m.pushToOwner(ctx, task, model.ActionTaskCompleted, func(p Provider) (WriteResult, error, bool) {
		completer, ok := p.(TaskCompleter)
		if !ok {
			return WriteResult{}, nil, false
		}
		result, err := completer.CompleteRemote(ctx, task)
		return result, err, true
	})
}

func (m *Manager) pushToOwner(ctx context.Context, task model.Task, action string, push func(Provider) (WriteResult, error, bool)) []PushResult {
	if task.Source == "" || task.Source == model.SourceManual {
		return nil
	}
	p, ok := m.providers[task.Source]
	if !ok || !p.Connected() {
		return nil
	}

	result, err, capable := push(p)
	if !capable {
		return nil
	}
	if err != nil {
		return []PushResult{{Service: task.Source, Message: err.Error()}}
	}

	m.ledger.Record(task.Source, action, map[string]interface{}{
		"taskId":     task.ID,
		"externalId": task.ExternalID,
		"success":    result.Success,
	})
	return []PushResult{{Service: task.Source, Success: result.Success, Message: result.Message}}
}

// DisconnectService clears the provider's credentials and deletes every local
// task it owns. The cascade is deliberate: provider-owned tasks exist only as
// mirrors of the remote system.
func (m *Manager) DisconnectService(service string) error {
	p, ok := m.providers[service]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	if err := p.Disconnect(); err != nil {
		return fmt.Errorf("disconnect %s: %w", service, err)
	}
	if err := m.store.DeleteTasksBySource(service); err != nil {
		return fmt.Errorf("disconnect %s: %w", service, err)
	}
	m.ledger.Record(service, model.ActionDisconnected, nil)

	// With no connected providers left there is nothing for the timer to do.
	if m.connectedCount() == 0 {
		m.StopAutoSync()
	}
	return nil
}

func (m *Manager) connectedCount() int {
	n := 0
	for _, name := range m.order {
		if m.providers[name].Connected() {
			n++
		}
	}
	return n
}

// ConnectedServices lists every registered provider with its connection state
// and last successful sync time.
func (m *Manager) ConnectedServices() []ServiceStatus {
	var services []ServiceStatus
	for _, name := range m.order {
		status := ServiceStatus{Name: name, Connected: m.providers[name].Connected()}
		if last := m.ledger.LastSync(name); !last.IsZero() {
			t := last
			status.LastSync = &t
		}
		services = append(services, status)
	}
	return services
}

// SyncStats aggregates ledger outcomes and counts provider-owned tasks by
// source.
func (m *Manager) SyncStats() (Stats, error) {
	stats := m.ledger.Stats()
	tasks, err := m.store.Tasks()
	if err != nil {
		return stats, err
	}
	for _, task := range tasks {
		if task.Source != "" && task.Source != model.SourceManual {
			stats.TasksBySource[task.Source]++
		}
	}
	return stats, nil
}

// StartAutoSync launches a recurring SyncAll at the given interval. The
// manager owns the timer; StartAutoSync replaces a running one.
func (m *Manager) StartAutoSync(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid auto-sync interval: %s", interval)
	}

	m.autoMu.Lock()
	defer m.autoMu.Unlock()
	if m.autoStop != nil {
		close(m.autoStop)
	}
	stop := make(chan struct{})
	m.autoStop = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, summary := range m.SyncAll(context.Background()) {
					if !summary.Success {
						log.Printf("Auto-sync: %s failed: %s", summary.Service, summary.Error)
					}
				}
			case <-stop:
				return
			}
		}
	}()
	return nil
}

// StopAutoSync cancels the auto-sync timer if one is running.
func (m *Manager) StopAutoSync() {
	m.autoMu.Lock()
	defer m.autoMu.Unlock()
	if m.autoStop != nil {
		close(m.autoStop)
		m.autoStop = nil
	}
}
