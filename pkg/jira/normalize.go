package jira

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/clarity/pkg/model"
)

// jiraTimeLayout is the timestamp format used in issue fields.
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

var completedStatuses = map[string]bool{
	"done":     true,
	"resolved": true,
	"closed":   true,
	"complete": true,
}

func isHighPriority(priority string) bool {
	switch strings.ToLower(priority) {
	case "high", "major":
		return true
	}
	return false
}

func isCriticalPriority(priority string) bool {
	switch strings.ToLower(priority) {
	case "blocker", "critical":
		return true
	}
	return false
}

// ClassifyQuadrant maps issue type, priority, and workflow status onto a
// priority quadrant. Bugs and critical work are both urgent and important,
// high-priority planned work is important, and anything still open is at
// least urgent.
func ClassifyQuadrant(issueType, priority, status string) model.Quadrant {
	lowStatus := strings.ToLower(status)
	inProgress := lowStatus == "in progress"

	switch {
	case strings.EqualFold(issueType, "Bug") || isCriticalPriority(priority):
		return model.QuadrantUrgentImportant
	case inProgress && isHighPriority(priority):
		return model.QuadrantUrgentImportant
	case isHighPriority(priority):
		return model.QuadrantImportant
	case lowStatus == "to do" || inProgress:
		return model.QuadrantUrgent
	default:
		return model.QuadrantNeither
	}
}

// IsCompleted reports whether a workflow status counts as done.
func IsCompleted(status string) bool {
	return completedStatuses[strings.ToLower(status)]
}

func issueContexts(issue Issue) []string {
	var contexts []string
	add := func(c string) {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			return
		}
		tag := "@" + strings.ReplaceAll(c, " ", "-")
		for _, existing := range contexts {
			if existing == tag {
				return
			}
		}
		contexts = append(contexts, tag)
	}

	if issue.Fields.IssueType != nil {
		switch strings.ToLower(issue.Fields.IssueType.Name) {
		case "bug":
			add("bugfix")
		case "story", "epic":
			add("dev")
		case "sub-task", "subtask":
			add("subtask")
		default:
			add("task")
		}
	}
	if issue.Fields.Status != nil {
		switch strings.ToLower(issue.Fields.Status.Name) {
		case "in progress":
			add("in-progress")
		case "code review", "review", "in review":
			add("review")
		case "testing", "qa":
			add("testing")
		}
	}
	if issue.Fields.Priority != nil && isCriticalPriority(issue.Fields.Priority.Name) {
		add("urgent")
	}
	for _, component := range issue.Fields.Components {
		add(component.Name)
	}
	for _, label := range issue.Fields.Labels {
		add(label)
	}
	if issue.Fields.Assignee != nil {
		add(issue.Fields.Assignee.DisplayName)
	}
	return contexts
}

func buildDescription(issue Issue) string {
	var lines []string
	if issue.Fields.Description != "" {
		lines = append(lines, issue.Fields.Description)
	}
	if issue.Fields.IssueType != nil {
		lines = append(lines, "Type: "+issue.Fields.IssueType.Name)
	}
	if issue.Fields.Status != nil {
		lines = append(lines, "Status: "+issue.Fields.Status.Name)
	}
	if issue.Fields.Priority != nil {
		lines = append(lines, "Priority: "+issue.Fields.Priority.Name)
	}
	if issue.Fields.Assignee != nil {
		lines = append(lines, "Assignee: "+issue.Fields.Assignee.DisplayName)
	}
	if len(issue.Fields.Components) > 0 {
		names := make([]string, 0, len(issue.Fields.Components))
		for _, c := range issue.Fields.Components {
			names = append(names, c.Name)
		}
		lines = append(lines, "Components: "+strings.Join(names, ", "))
	}
	return strings.Join(lines, "\n")
}

func parseIssueTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	if t, err := time.Parse(jiraTimeLayout, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return fallback
}

// Normalize converts a Jira issue into the internal task shape. Issues
// without a summary are skipped.
func Normalize(issue Issue, baseURL string, now time.Time) (model.Task, bool) {
	if strings.TrimSpace(issue.Fields.Summary) == "" {
		return model.Task{}, false
	}

	var status, priority, issueType string
	if issue.Fields.Status != nil {
		status = issue.Fields.Status.Name
	}
	if issue.Fields.Priority != nil {
		priority = issue.Fields.Priority.Name
	}
	if issue.Fields.IssueType != nil {
		issueType = issue.Fields.IssueType.Name
	}

	task := model.Task{
		ID:           "jira-" + issue.Key,
		Name:         fmt.Sprintf("[%s] %s", issue.Key, issue.Fields.Summary),
		Description:  buildDescription(issue),
		Quadrant:     ClassifyQuadrant(issueType, priority, status),
		Completed:    IsCompleted(status),
		CreatedAt:    parseIssueTime(issue.Fields.Created, now),
		UpdatedAt:    parseIssueTime(issue.Fields.Updated, now),
		Source:       Name,
		ExternalID:   issue.Key,
		ExternalURL:  strings.TrimRight(baseURL, "/") + "/browse/" + issue.Key,
		Contexts:     issueContexts(issue),
		OriginalData: model.RawData(issue),
	}
	if task.Completed {
		completedAt := task.UpdatedAt
		task.CompletedAt = &completedAt
	}
	return task, true
}

func quadrantPriority(q model.Quadrant) string {
	switch q {
	case model.QuadrantUrgentImportant:
		return "High"
	case model.QuadrantImportant:
		return "Medium"
	case model.QuadrantUrgent:
		return "Low"
	default:
		return "Lowest"
	}
}

// FromTask builds the creation payload for a task pushed to Jira.
func FromTask(task model.Task, projectKey string) IssuePayload {
	var labels []string
	for _, c := range task.Contexts {
		labels = append(labels, strings.TrimPrefix(c, "@"))
	}
	return IssuePayload{
		Fields: PayloadFields{
			Project:     &ProjectRef{Key: projectKey},
			Summary:     task.Name,
			Description: task.Description,
			IssueType:   &Named{Name: "Task"},
			Priority:    &Named{Name: quadrantPriority(task.Quadrant)},
			Labels:      labels,
		},
	}
}
