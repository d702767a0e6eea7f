package tasks

import (
	"strings"
	"time"
)

// Filter returns the tasks whose completed flag equals completed, in stored order
func (s *TaskStore) Filter(completed bool) []Task {
	return s.where(func(t Task) bool { return t.Completed == completed })
}

// Search returns tasks whose title or description contains query,
// ignoring case. An empty query matches every task.
func (s *TaskStore) Search(query string) []Task {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.List()
	}
	return s.where(func(t Task) bool { return t.matches(q) })
}

// DueBetween returns tasks due on or after from and before to, compared
// as calendar dates. Tasks with unparseable due dates are never included.
func (s *TaskStore) DueBetween(from, to time.Time) []Task {
	start, end := dateOnly(from), dateOnly(to)
	return s.where(func(t Task) bool {
		due, ok := t.Due()
		return ok && !due.Before(start) && due.Before(end)
	})
}

// Overdue returns pending tasks due before today
func (s *TaskStore) Overdue(today time.Time) []Task {
	start := dateOnly(today)
	return s.where(func(t Task) bool {
		due, ok := t.Due()
		return ok && !t.Completed && due.Before(start)
	})
}

func (s *TaskStore) where(keep func(Task) bool) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Task{}
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// dateOnly drops the clock time, keeping the calendar date of t in its
// own location, as a UTC midnight comparable with Task.Due
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// comparePriority orders high before medium before low. Unknown
// priorities sort last.
func comparePriority(a, b Task) int {
	return b.Priority.rank() - a.Priority.rank()
}

// compareDueDate orders by ascending due date. Unparseable dates sort
// after every valid date and keep their relative order.
func compareDueDate(a, b Task) int {
	ad, aok := a.Due()
	bd, bok := b.Due()

	switch {
	case aok && bok:
		return ad.Compare(bd)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return 0
	}
}
