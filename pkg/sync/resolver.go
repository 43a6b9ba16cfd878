package sync

import (
	"strings"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
)

// ResolutionAction says what the import pass should do with an incoming task.
type ResolutionAction int

const (
	// ResolutionInsert inserts the incoming task as-is.
	ResolutionInsert ResolutionAction = iota
	// ResolutionMerge updates an existing manual task with a supplementary
	// external link; the incoming task is not inserted.
	ResolutionMerge
	// ResolutionSupersede inserts the incoming task and deletes the older
	// externally-sourced duplicate it replaces.
	ResolutionSupersede
	// ResolutionDiscard drops the incoming task; the existing one is newer.
	ResolutionDiscard
)

// Resolution is the outcome of resolving one incoming task.
type Resolution struct {
	Action ResolutionAction
	// Task is the task to insert (Insert, Supersede) or the updated form of
	// the existing task (Merge). Unset for Discard.
	Task model.Task
	// ExistingID identifies the matched local task for Merge, Supersede and
	// Discard.
	ExistingID string
}

// Resolve decides whether an incoming normalized task is inserted, merged
// into an existing task, or discarded. It is a pure function: existing must
// be the pre-import snapshot of the local collection so that resolution is
// order-independent across the records of one sync.
//
// Two tasks are candidate-duplicates when their names match case-insensitively
// and their sources differ. A manual task always wins, keeping its fields and
// gaining a supplementary external link. Between two external sources the more
// recently updated task wins wholesale.
func Resolve(incoming model.Task, existing []model.Task, now time.Time) Resolution {
	match := findDuplicate(incoming, existing)
	if match == nil {
		return Resolution{Action: ResolutionInsert, Task: incoming}
	}

	if match.Source == model.SourceManual {
		merged := *match
		merged.AddExternalSource(model.ExternalSource{
			Source:   incoming.Source,
			ID:       incoming.ExternalID,
			URL:      incoming.ExternalURL,
			SyncedAt: now,
		})
		return Resolution{Action: ResolutionMerge, Task: merged, ExistingID: match.ID}
	}

	if incoming.LastModified().After(match.LastModified()) {
		return Resolution{Action: ResolutionSupersede, Task: incoming, ExistingID: match.ID}
	}
	return Resolution{Action: ResolutionDiscard, ExistingID: match.ID}
}

func findDuplicate(incoming model.Task, existing []model.Task) *model.Task {
	for i := range existing {
		if existing[i].Source == incoming.Source {
			continue
		}
		if strings.EqualFold(existing[i].Name, incoming.Name) {
			return &existing[i]
		}
	}
	return nil
}
