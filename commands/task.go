package commands

import (
	"fmt"
	"slices"
	"strings"

	"tasklist/tasks"
)

func init() {
	Register(&Command{
		Name:        "/add",
		Description: "Add a task",
		Params: []Param{
			{Name: "priority", Type: ParamTypeString, Description: "Task priority: low, medium, or high", Required: true},
			{Name: "due_date", Type: ParamTypeString, Description: "Due date in YYYY-MM-DD format", Required: true},
			{Name: "title", Type: ParamTypeString, Description: "The task title", Required: true},
			{Name: "description", Type: ParamTypeString, Description: "Optional longer description", Required: false, Prefix: "|"},
		},
		Handler: func(s *Shell, args []string) bool {
			if len(args) < 3 {
				s.println("Usage: /add <priority> <YYYY-MM-DD> <title> [| description]")
				return false
			}

			priority, err := tasks.ParsePriority(args[0])
			if s.failed(err) {
				return false
			}

			title, description, _ := strings.Cut(strings.Join(args[2:], " "), "|")
			task, err := s.store.Add(title, strings.TrimSpace(description), priority, args[1])
			if s.failed(err) {
				return false
			}

			s.printf("Created task: %s (ID: %d)\n", task.Title, task.ID)
			return false
		},
	})

	Register(&Command{
		Name:        "/tasks",
		Description: "List all tasks with their IDs. Use this to find a task's ID when you have the name.",
		Handler: func(s *Shell, args []string) bool {
			list := s.store.List()

			s.println("Tasks:")
			s.renderTasks(list)
			s.rendered = true
			return false
		},
	})

	Register(&Command{
		Name:        "/done",
		Description: "Toggle a task between done and not done",
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task to toggle", Required: true},
		},
		Handler: func(s *Shell, args []string) bool {
			if len(args) == 0 {
				s.println("Usage: /done <task-id>")
				return false
			}

			id, err := parseID(args[0])
			if s.failed(err) {
				return false
			}

			task, err := s.store.ToggleCompletion(id)
			if s.failed(err) {
				return false
			}

			if task.Completed {
				s.printf("Marked task %d as done ✓\n", task.ID)
			} else {
				s.printf("Marked task %d as not done\n", task.ID)
			}
			return false
		},
	})

	Register(&Command{
		Name:        "/delete",
		Description: "Delete a task",
		Destructive: true,
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task to delete", Required: true},
		},
		Handler: func(s *Shell, args []string) bool {
			if len(args) == 0 {
				s.println("Usage: /delete <task-id>")
				return false
			}

			id, err := parseID(args[0])
			if s.failed(err) {
				return false
			}

			removed, err := s.store.Delete(id)
			if s.failed(err) {
				return false
			}

			if !removed {
				s.printf("No task with ID %d\n", id)
				return false
			}
			s.printf("Deleted task: %d\n", id)
			return false
		},
	})

	Register(&Command{
		Name:        "/edit",
		Description: "Change fields of a task, either one field and its value or several field=value pairs",
		Params: []Param{
			{Name: "task_id", Type: ParamTypeString, Description: "The ID of the task to edit", Required: true},
			{Name: "field", Type: ParamTypeString, Description: "Field to change: title, description, priority, or due. To change several at once pass pairs like title=Pay rent priority=high and leave value empty", Required: true},
			{Name: "value", Type: ParamTypeString, Description: "The new value; dates use YYYY-MM-DD", Required: false},
		},
		Handler: func(s *Shell, args []string) bool {
			if len(args) < 2 {
				s.println("Usage: /edit <task-id> <title|description|priority|due> <value>")
				s.println("       /edit <task-id> <field>=<value> [<field>=<value> ...]")
				return false
			}

			id, err := parseID(args[0])
			if s.failed(err) {
				return false
			}

			update, fields, err := parseEdit(args[1:])
			if s.failed(err) {
				return false
			}

			task, err := s.store.Update(id, update)
			if s.failed(err) {
				return false
			}

			s.printf("Updated %s of task %d\n", strings.Join(fields, ", "), task.ID)
			return false
		},
	})

	Register(&Command{
		Name:        "/filter",
		Description: "List tasks that are done or pending",
		Params: []Param{
			{Name: "status", Type: ParamTypeString, Description: "Either done or pending", Required: true},
		},
		Handler: func(s *Shell, args []string) bool {
			if len(args) == 0 {
				s.println("Usage: /filter <done|pending>")
				return false
			}

			switch strings.ToLower(args[0]) {
			case "done", "completed":
				s.renderMatches("Done tasks", s.store.Filter(true))
			case "pending", "open", "incomplete":
				s.renderMatches("Pending tasks", s.store.Filter(false))
			default:
				s.println("Error: status must be done or pending")
			}
			return false
		},
	})

	Register(&Command{
		Name:        "/sort",
		Description: "Reorder the task list by priority (high first) or due date (earliest first)",
		Params: []Param{
			{Name: "key", Type: ParamTypeString, Description: "Either priority or due", Required: true},
		},
		Handler: func(s *Shell, args []string) bool {
			if len(args) == 0 {
				s.println("Usage: /sort <priority|due>")
				return false
			}

			key, err := tasks.ParseSortKey(args[0])
			if s.failed(err) {
				return false
			}

			sorted, err := s.store.Sort(key)
			if s.failed(err) {
				return false
			}

			s.printf("Tasks by %s:\n", key)
			s.renderTasks(sorted)
			s.rendered = true
			return false
		},
	})

	Register(&Command{
		Name:        "/search",
		Description: "Find tasks whose title or description contains the query",
		Params: []Param{
			{Name: "query", Type: ParamTypeString, Description: "Text to look for, case-insensitive", Required: false},
		},
		Handler: func(s *Shell, args []string) bool {
			query := strings.Join(args, " ")
			s.renderMatches(fmt.Sprintf("Tasks matching %q", query), s.store.Search(query))
			return false
		},
	})
}

var editFields = map[string]string{
	"title":       "title",
	"description": "description",
	"desc":        "description",
	"priority":    "priority",
	"due":         "due",
	"duedate":     "due",
}

// parseEdit reads either "<field> <value...>" or a list of field=value
// pairs, where a value runs until the next known field= token. It
// returns the update and the fields it sets, in order.
func parseEdit(args []string) (tasks.TaskUpdate, []string, error) {
	var u tasks.TaskUpdate

	key, _, isPair := strings.Cut(args[0], "=")
	if _, known := editFields[strings.ToLower(key)]; !isPair || !known {
		field := strings.ToLower(args[0])
		if err := setField(&u, field, strings.Join(args[1:], " ")); err != nil {
			return u, nil, err
		}
		return u, []string{editFields[field]}, nil
	}

	type pair struct {
		field string
		value []string
	}
	var pairs []pair
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if field, known := editFields[strings.ToLower(key)]; ok && known {
			pairs = append(pairs, pair{field: field})
			if value != "" {
				pairs[len(pairs)-1].value = []string{value}
			}
			continue
		}
		last := &pairs[len(pairs)-1]
		last.value = append(last.value, arg)
	}

	var fields []string
	for _, p := range pairs {
		if err := setField(&u, p.field, strings.Join(p.value, " ")); err != nil {
			return u, nil, err
		}
		if !slices.Contains(fields, p.field) {
			fields = append(fields, p.field)
		}
	}
	return u, fields, nil
}

// setField sets one /edit field on u
func setField(u *tasks.TaskUpdate, field, value string) error {
	switch editFields[field] {
	case "title":
		u.Title = &value
	case "description":
		u.Description = &value
	case "priority":
		p, err := tasks.ParsePriority(value)
		if err != nil {
			return err
		}
		u.Priority = &p
	case "due":
		u.DueDate = &value
	default:
		return fmt.Errorf("unknown field %q (use title, description, priority, or due)", field)
	}
	return nil
}
