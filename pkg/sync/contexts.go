package sync

import (
	"strings"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
)

// contextKeywords maps a context tag to the words that suggest it. Matching
// is best-effort; the tags annotate, they never classify.
var contextKeywords = map[string][]string{
	"@phone":   {"call", "phone", "dial"},
	"@meeting": {"meeting", "standup", "sync-up", "1:1"},
	"@errands": {"visit", "pick up", "drop off", "errand", "trip"},
	"@online":  {"email", "online", "web", "review"},
	"@dev":     {"code", "coding", "bug", "deploy", "dev", "test"},
	"@docs":    {"write", "doc", "report", "draft", "spec"},
}

// InferContexts annotates a task with free-text context tags derived from its
// name and description, plus an urgency tag when the due date is within a day.
// Existing contexts are kept; duplicates are suppressed.
func InferContexts(task *model.Task, now time.Time) {
	text := strings.ToLower(task.Name + " " + task.Description)

	for context, words := range contextKeywords {
		for _, word := range words {
			if strings.Contains(text, word) {
				task.AddContext(context)
				break
			}
		}
	}

	if task.DueDate != nil && !task.DueDate.IsZero() {
		if task.DueDate.Sub(now) <= 24*time.Hour {
			task.AddContext("@urgent")
		}
	}
}
