package tasks

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddCreatesFullyFormedTask(t *testing.T) {
	store, backend := newTestStore(t)

	task, err := store.Add("  Write report  ", "", PriorityHigh, "2024-03-01")
	if err != nil {
		t.Fatalf("Failed to add task: %v", err)
	}

	want := Task{
		ID:          testEpoch.UnixMilli(),
		Title:       "Write report",
		Description: "",
		Priority:    PriorityHigh,
		DueDate:     "2024-03-01",
		Completed:   false,
	}
	if diff := cmp.Diff(want, task); diff != "" {
		t.Errorf("Add() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]Task{want}, store.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	if backend.writes != 1 {
		t.Errorf("Expected 1 write, got %d", backend.writes)
	}
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		priority Priority
		due      string
		field    string
	}{
		{"empty title", "", PriorityLow, "2024-01-01", "title"},
		{"blank title", "   ", PriorityLow, "2024-01-01", "title"},
		{"empty due date", "Task", PriorityLow, "", "dueDate"},
		{"unparseable due date", "Task", PriorityLow, "next tuesday", "dueDate"},
		{"empty priority", "Task", "", "2024-01-01", "priority"},
		{"unknown priority", "Task", "urgent", "2024-01-01", "priority"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, backend := newTestStore(t)

			_, err := store.Add(tc.title, "", tc.priority, tc.due)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Expected validation error, got %v", err)
			}

			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Errorf("Expected error on field %q, got %v", tc.field, err)
			}

			if store.Len() != 0 {
				t.Errorf("Rejected add should leave store empty, got %d tasks", store.Len())
			}
			if backend.writes != 0 {
				t.Errorf("Rejected add should not persist, got %d writes", backend.writes)
			}
		})
	}
}

func TestAddPriorityIgnoresCase(t *testing.T) {
	store, _ := newTestStore(t)

	task := mustAdd(t, store, "Task", "", "HIGH", "2024-01-01")
	if task.Priority != PriorityHigh {
		t.Errorf("Expected high, got %q", task.Priority)
	}
}

func TestAddIDsAreUniqueAndIncreasing(t *testing.T) {
	// A frozen clock forces every id to collide with the timestamp
	store, _ := newTestStore(t)

	seen := make(map[int64]bool)
	var last int64
	for i := 0; i < 50; i++ {
		task := mustAdd(t, store, "Task", "", PriorityLow, "2024-01-01")
		if seen[task.ID] {
			t.Fatalf("Duplicate id %d", task.ID)
		}
		if task.ID <= last {
			t.Fatalf("Expected increasing ids, got %d after %d", task.ID, last)
		}
		seen[task.ID] = true
		last = task.ID
	}
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	store, backend := newTestStore(t)
	mustAdd(t, store, "A", "", PriorityLow, "2024-01-01")
	mustAdd(t, store, "B", "", PriorityLow, "2024-01-02")

	before := store.List()
	writes := backend.writes

	removed, err := store.Delete(42)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if removed {
		t.Error("Expected no removal for unknown id")
	}

	if diff := cmp.Diff(before, store.List()); diff != "" {
		t.Errorf("Collection changed (-before +after):\n%s", diff)
	}
	if backend.writes != writes {
		t.Errorf("No-op delete should not persist")
	}
}

func TestDeleteMiddlePreservesOrder(t *testing.T) {
	store, _ := newTestStore(t)
	first := mustAdd(t, store, "First", "", PriorityLow, "2024-01-01")
	middle := mustAdd(t, store, "Middle", "", PriorityLow, "2024-01-01")
	last := mustAdd(t, store, "Last", "", PriorityLow, "2024-01-01")

	removed, err := store.Delete(middle.ID)
	if err != nil || !removed {
		t.Fatalf("Expected removal, got removed=%v err=%v", removed, err)
	}

	if diff := cmp.Diff([]Task{first, last}, store.List()); diff != "" {
		t.Errorf("Remaining tasks mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.Get(middle.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected deleted task to be gone, got %v", err)
	}
}

func TestUpdateChangesOnlySuppliedFields(t *testing.T) {
	store, _ := newTestStore(t)
	task := mustAdd(t, store, "Write report", "quarterly", PriorityLow, "2024-03-01")

	updated, err := store.Update(task.ID, TaskUpdate{Priority: ptr(PriorityHigh)})
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	want := task
	want.Priority = PriorityHigh
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Errorf("Update() mismatch (-want +got):\n%s", diff)
	}

	got, _ := store.Get(task.ID)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stored task mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateAllFields(t *testing.T) {
	store, _ := newTestStore(t)
	task := mustAdd(t, store, "Old", "old", PriorityLow, "2024-03-01")

	updated, err := store.Update(task.ID, TaskUpdate{
		Title:       ptr("New"),
		Description: ptr(""),
		Priority:    ptr(PriorityMedium),
		DueDate:     ptr("2024-04-01"),
		Completed:   ptr(true),
	})
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}

	want := Task{ID: task.ID, Title: "New", Priority: PriorityMedium, DueDate: "2024-04-01", Completed: true}
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Errorf("Update() mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	store, backend := newTestStore(t)
	mustAdd(t, store, "A", "", PriorityLow, "2024-01-01")
	writes := backend.writes

	_, err := store.Update(7, TaskUpdate{Title: ptr("B")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if backend.writes != writes {
		t.Error("Not-found update should not persist")
	}
}

func TestUpdateValidationLeavesTaskUnchanged(t *testing.T) {
	store, backend := newTestStore(t)
	task := mustAdd(t, store, "A", "", PriorityLow, "2024-01-01")
	writes := backend.writes

	// Valid title followed by an invalid due date must not half-apply
	_, err := store.Update(task.ID, TaskUpdate{Title: ptr("B"), DueDate: ptr("")})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}

	got, _ := store.Get(task.ID)
	if diff := cmp.Diff(task, got); diff != "" {
		t.Errorf("Task changed after rejected update (-want +got):\n%s", diff)
	}
	if backend.writes != writes {
		t.Error("Rejected update should not persist")
	}
}

func TestUpdateWithNoFields(t *testing.T) {
	store, backend := newTestStore(t)
	task := mustAdd(t, store, "A", "", PriorityLow, "2024-01-01")
	writes := backend.writes

	got, err := store.Update(task.ID, TaskUpdate{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(task, got); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}
	if backend.writes != writes {
		t.Error("Empty update should not persist")
	}
}

func TestToggleCompletionTwice(t *testing.T) {
	store, _ := newTestStore(t)
	task := mustAdd(t, store, "A", "", PriorityLow, "2024-01-01")

	once, err := store.ToggleCompletion(task.ID)
	if err != nil {
		t.Fatalf("Failed to toggle: %v", err)
	}
	if !once.Completed {
		t.Error("Expected completed after first toggle")
	}

	twice, err := store.ToggleCompletion(task.ID)
	if err != nil {
		t.Fatalf("Failed to toggle: %v", err)
	}
	if twice.Completed != task.Completed {
		t.Errorf("Expected completed=%v after two toggles, got %v", task.Completed, twice.Completed)
	}
}

func TestToggleCompletionUnknownID(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.ToggleCompletion(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	store, backend := newTestStore(t)
	backend.failWrites = true

	task, err := store.Add("Offline task", "", PriorityMedium, "2024-01-01")

	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected PersistenceError, got %v", err)
	}
	if pe.Op != "write" || pe.Key != DefaultKey {
		t.Errorf("Unexpected error details: %+v", pe)
	}
	if !errors.Is(err, errBackendDown) {
		t.Errorf("Expected error to wrap backend error, got %v", err)
	}

	// The task is kept in memory and the result is usable
	if task.Title != "Offline task" {
		t.Errorf("Expected returned task despite persistence failure, got %+v", task)
	}
	if _, err := store.Get(task.ID); err != nil {
		t.Errorf("Expected task in memory, got %v", err)
	}

	// Once the backend recovers, the next write carries the whole collection
	backend.failWrites = false
	if _, err := store.ToggleCompletion(task.ID); err != nil {
		t.Fatalf("Failed to toggle: %v", err)
	}

	reloaded := NewTaskStore(backend, WithLogger(quietLogger()))
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	if diff := cmp.Diff(store.List(), reloaded.List()); diff != "" {
		t.Errorf("Reloaded collection mismatch (-want +got):\n%s", diff)
	}
}

func TestObserverNotifiedAfterMutations(t *testing.T) {
	var calls [][]Task
	store, _ := newTestStore(t, WithObserver(func(tasks []Task) {
		calls = append(calls, tasks)
	}))

	// Load notifies with the initial state
	if len(calls) != 1 || len(calls[0]) != 0 {
		t.Fatalf("Expected one initial notification, got %v", calls)
	}

	task := mustAdd(t, store, "A", "", PriorityLow, "2024-01-01")
	store.ToggleCompletion(task.ID)
	store.Update(task.ID, TaskUpdate{Title: ptr("B")})
	store.Sort(SortByPriority)
	store.Delete(task.ID)

	// Reads and no-ops do not notify
	store.Filter(true)
	store.Search("b")
	store.Delete(task.ID)

	if len(calls) != 6 {
		t.Fatalf("Expected 6 notifications, got %d", len(calls))
	}
	if got := calls[3][0].Title; got != "B" {
		t.Errorf("Expected snapshot with updated title, got %q", got)
	}
	if len(calls[5]) != 0 {
		t.Errorf("Expected empty snapshot after delete, got %v", calls[5])
	}
}

func TestObserverReceivesCopies(t *testing.T) {
	var last []Task
	store, _ := newTestStore(t, WithObserver(func(tasks []Task) { last = tasks }))
	task := mustAdd(t, store, "A", "", PriorityLow, "2024-01-01")

	last[0].Title = "mutated"

	got, _ := store.Get(task.ID)
	if got.Title != "A" {
		t.Errorf("Observer snapshot aliases the store, title is %q", got.Title)
	}
}

func TestObserverNotifiedOnPersistenceFailure(t *testing.T) {
	notified := 0
	store, backend := newTestStore(t, WithObserver(func([]Task) { notified++ }))
	backend.failWrites = true
	notified = 0

	store.Add("A", "", PriorityLow, "2024-01-01")
	if notified != 1 {
		t.Errorf("Expected observer to see in-memory state, got %d notifications", notified)
	}
}
