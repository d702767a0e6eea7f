package tasks

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"tasklist/storage"
)

var errBackendDown = errors.New("backend unavailable")

// fakeBackend wraps a MemoryStore, counts writes and can be told to fail
type fakeBackend struct {
	*storage.MemoryStore
	writes     int
	failReads  bool
	failWrites bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{MemoryStore: storage.NewMemoryStore()}
}

func (f *fakeBackend) Read(key string) (string, bool, error) {
	if f.failReads {
		return "", false, errBackendDown
	}
	return f.MemoryStore.Read(key)
}

func (f *fakeBackend) Write(key, value string) error {
	if f.failWrites {
		return errBackendDown
	}
	f.writes++
	return f.MemoryStore.Write(key, value)
}

var testEpoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testEpoch }

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// newTestStore creates a loaded store over a fresh fake backend
func newTestStore(t *testing.T, opts ...Option) (*TaskStore, *fakeBackend) {
	t.Helper()

	backend := newFakeBackend()
	opts = append([]Option{WithClock(fixedClock), WithLogger(quietLogger())}, opts...)
	store := NewTaskStore(backend, opts...)
	if err := store.Load(); err != nil {
		t.Fatalf("Failed to load store: %v", err)
	}
	return store, backend
}

// mustAdd adds a task and fails the test on error
func mustAdd(t *testing.T, s *TaskStore, title, description string, p Priority, due string) Task {
	t.Helper()

	task, err := s.Add(title, description, p, due)
	if err != nil {
		t.Fatalf("Failed to add %q: %v", title, err)
	}
	return task
}

func titles(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func ptr[T any](v T) *T { return &v }
