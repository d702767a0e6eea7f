package tasks

import (
	"strings"
	"time"
)

func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", &ValidationError{Field: "title", Reason: "is required"}
	}
	return trimmed, nil
}

func validateDueDate(dueDate string) (string, error) {
	trimmed := strings.TrimSpace(dueDate)
	if trimmed == "" {
		return "", &ValidationError{Field: "dueDate", Reason: "is required"}
	}
	if _, err := time.Parse(DateLayout, trimmed); err != nil {
		return "", &ValidationError{Field: "dueDate", Reason: "must be a date in YYYY-MM-DD format"}
	}
	return trimmed, nil
}

func validatePriority(p Priority) (Priority, error) {
	return ParsePriority(string(p))
}

// applyUpdate returns t with the supplied fields of u applied. t is not
// modified, so a validation failure leaves nothing half-applied.
func applyUpdate(t Task, u TaskUpdate) (Task, error) {
	if u.Title != nil {
		title, err := validateTitle(*u.Title)
		if err != nil {
			return Task{}, err
		}
		t.Title = title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Priority != nil {
		p, err := validatePriority(*u.Priority)
		if err != nil {
			return Task{}, err
		}
		t.Priority = p
	}
	if u.DueDate != nil {
		due, err := validateDueDate(*u.DueDate)
		if err != nil {
			return Task{}, err
		}
		t.DueDate = due
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
	return t, nil
}
