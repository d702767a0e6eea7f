package commands

import (
	"time"

	"tasklist/tasks"
)

func init() {
	Register(&Command{
		Name:        "/today",
		Description: "List pending tasks due today",
		Handler: func(s *Shell, args []string) bool {
			today := s.now()
			s.renderMatches("Tasks due today", pending(s.store.DueBetween(today, today.AddDate(0, 0, 1))))
			return false
		},
	})

	Register(&Command{
		Name:        "/week",
		Description: "List pending tasks due this week (Monday through Sunday)",
		Handler: func(s *Shell, args []string) bool {
			weekStart := startOfWeek(s.now())
			weekEnd := weekStart.AddDate(0, 0, 7)

			s.renderMatches("Tasks due this week", pending(s.store.DueBetween(weekStart, weekEnd)))
			return false
		},
	})

	Register(&Command{
		Name:        "/overdue",
		Description: "List pending tasks whose due date has passed",
		Handler: func(s *Shell, args []string) bool {
			s.renderMatches("Overdue tasks", s.store.Overdue(s.now()))
			return false
		},
	})
}

// startOfWeek returns the Monday of the week containing the given time
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday is day 7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

func pending(list []tasks.Task) []tasks.Task {
	out := list[:0]
	for _, t := range list {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}
