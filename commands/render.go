package commands

import (
	"fmt"
	"strconv"
	"strings"

	"tasklist/tasks"
)

// renderTasks prints tasks, one per line, with descriptions indented below
func (s *Shell) renderTasks(list []tasks.Task) {
	if len(list) == 0 {
		s.println("  No tasks yet. Add one with /add <priority> <YYYY-MM-DD> <title>")
		return
	}

	for _, t := range list {
		s.printf("  %s\n", formatTask(t))
		if t.Description != "" {
			s.printf("        %s\n", t.Description)
		}
	}
}

// renderMatches prints a labelled, possibly empty, subset of tasks
func (s *Shell) renderMatches(label string, list []tasks.Task) {
	s.printf("%s:\n", label)
	if len(list) == 0 {
		s.println("  No matching tasks")
		return
	}
	s.renderTasks(list)
}

func formatTask(t tasks.Task) string {
	status := "[ ]"
	if t.Completed {
		status = "[✓]"
	}
	return fmt.Sprintf("%s [%d] %s (%s, due %s)", status, t.ID, t.Title, t.Priority, t.DueDate)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id: %s", arg)
	}
	return id, nil
}
