package sync

import (
	"testing"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
)

func TestInferContexts(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(3 * time.Hour)

	task := model.Task{
		Name:        "Call dentist",
		Description: "pick up the referral form after",
		DueDate:     &due,
	}
	InferContexts(&task, now)

	want := map[string]bool{"@phone": true, "@errands": true, "@urgent": true}
	for _, ctx := range task.Contexts {
		if !want[ctx] {
			t.Errorf("Unexpected context %s", ctx)
		}
		delete(want, ctx)
	}
	for missing := range want {
		t.Errorf("Expected context %s, got %v", missing, task.Contexts)
	}
}

func TestInferContextsKeepsExisting(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	task := model.Task{Name: "Review the design doc", Contexts: []string{"@online"}}
	InferContexts(&task, now)

	seen := map[string]int{}
	for _, ctx := range task.Contexts {
		seen[ctx]++
	}
	if seen["@online"] != 1 {
		t.Errorf("Expected @online exactly once, got %d", seen["@online"])
	}
	if seen["@docs"] != 1 {
		t.Errorf("Expected @docs from 'doc' keyword, got %v", task.Contexts)
	}
}

func TestInferContextsNoDueDateNoUrgent(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	task := model.Task{Name: "Water plants"}
	InferContexts(&task, now)

	for _, ctx := range task.Contexts {
		if ctx == "@urgent" {
			t.Error("Expected no @urgent without a due date")
		}
	}
}
