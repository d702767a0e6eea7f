// Package tasks holds the task list and every operation allowed on it.
package tasks

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for due dates
const DateLayout = "2006-01-02"

// Priority represents a task priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities lists all valid priority values, lowest first
var ValidPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority converts a string to a Priority, ignoring case
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", &ValidationError{Field: "priority", Reason: "must be low, medium, or high"}
	}
	return p, nil
}

// Valid reports whether p is one of ValidPriorities
func (p Priority) Valid() bool {
	return p.rank() > 0
}

// rank orders priorities by severity; unknown values rank 0
func (p Priority) rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Task is a single to-do item
type Task struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	DueDate     string   `json:"dueDate"`
	Completed   bool     `json:"completed"`
}

// Due parses the due date. ok is false when the stored date is not a
// valid calendar date.
func (t Task) Due() (due time.Time, ok bool) {
	d, err := time.Parse(DateLayout, t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// matches reports whether query occurs in the title or description, ignoring case
func (t Task) matches(query string) bool {
	return strings.Contains(strings.ToLower(t.Title), query) ||
		strings.Contains(strings.ToLower(t.Description), query)
}

func (t Task) String() string {
	return fmt.Sprintf("%d %q (%s, due %s)", t.ID, t.Title, t.Priority, t.DueDate)
}

// TaskUpdate describes a partial update. Nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *Priority
	DueDate     *string
	Completed   *bool
}

func (u TaskUpdate) empty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil &&
		u.DueDate == nil && u.Completed == nil
}

// SortKey names a sort order
type SortKey string

const (
	SortByPriority SortKey = "priority"
	SortByDueDate  SortKey = "dueDate"
)

// ParseSortKey accepts "priority", "dueDate", or "due"
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "priority":
		return SortByPriority, nil
	case "duedate", "due":
		return SortByDueDate, nil
	default:
		return "", &ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown sort key %q", s)}
	}
}
