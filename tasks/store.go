package tasks

import (
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"tasklist/storage"
)

// DefaultKey is the storage slot holding the task collection
const DefaultKey = "tasks"

// corruptSuffix names the slot a malformed payload is copied to on load
const corruptSuffix = ".corrupt"

// backupSuffix names the slot that keeps a payload Load could not read,
// copied there before the first write replaces it
const backupSuffix = ".backup"

// Observer is notified with a snapshot of the collection after every
// mutating operation and after Load
type Observer func(tasks []Task)

// TaskStore owns the task collection. Every mutation writes the whole
// collection to the backend slot and then notifies the observer.
type TaskStore struct {
	backend  storage.Store
	key      string
	tasks    []Task
	lastID   int64
	now      func() time.Time
	observer Observer
	logger   *log.Logger
	mu       sync.RWMutex

	// unread is set while the slot may hold tasks Load failed to read
	unread bool
}

// Option configures a TaskStore
type Option func(*TaskStore)

// WithKey sets the storage slot name
func WithKey(key string) Option {
	return func(s *TaskStore) { s.key = key }
}

// WithObserver sets the observer called after mutations
func WithObserver(fn Observer) Option {
	return func(s *TaskStore) { s.observer = fn }
}

// WithClock overrides the clock used to derive task ids
func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) { s.now = now }
}

// WithLogger sets the logger used for persistence warnings
func WithLogger(l *log.Logger) Option {
	return func(s *TaskStore) { s.logger = l }
}

// NewTaskStore creates an empty store backed by backend. Call Load to
// read a previously persisted collection.
func NewTaskStore(backend storage.Store, opts ...Option) *TaskStore {
	s := &TaskStore{
		backend: backend,
		key:     DefaultKey,
		tasks:   []Task{},
		now:     time.Now,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetObserver replaces the observer
func (s *TaskStore) SetObserver(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Load replaces the in-memory collection with the persisted one.
//
// An absent slot loads as an empty collection. If the slot cannot be
// read, or holds data that is not a list of tasks with unique ids, the
// store falls back to an empty collection and returns the error; the
// store remains usable. Malformed data is copied to "<key>.corrupt"
// before it can be overwritten by the next mutation.
func (s *TaskStore) Load() error {
	s.mu.Lock()
	loadErr := s.load()
	snapshot := s.snapshot()
	s.mu.Unlock()

	s.notify(snapshot)
	return loadErr
}

func (s *TaskStore) load() error {
	s.tasks = []Task{}
	s.lastID = 0
	s.unread = false

	raw, ok, err := s.backend.Read(s.key)
	if err != nil {
		s.logger.Printf("Warning: could not read tasks, starting empty; the next change replaces slot %q: %v", s.key, err)
		s.unread = true
		return &PersistenceError{Op: "read", Key: s.key, Err: err}
	}
	if !ok {
		return nil
	}

	loaded, err := decodeTasks(raw)
	if err != nil {
		s.logger.Printf("Warning: stored tasks are malformed, starting empty: %v", err)
		if werr := s.backend.Write(s.key+corruptSuffix, raw); werr != nil {
			s.logger.Printf("Warning: could not back up malformed tasks: %v", werr)
		}
		return fmt.Errorf("%w: %v", ErrMalformedData, err)
	}

	s.tasks = loaded
	for _, t := range loaded {
		s.lastID = max(s.lastID, t.ID)
	}
	return nil
}

func decodeTasks(raw string) ([]Task, error) {
	var loaded []Task
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(loaded))
	for _, t := range loaded {
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate task id %d", t.ID)
		}
		seen[t.ID] = true
	}

	if loaded == nil {
		loaded = []Task{}
	}
	return loaded, nil
}

// persist writes the whole collection to the slot. Callers hold s.mu.
func (s *TaskStore) persist() error {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		return &PersistenceError{Op: "write", Key: s.key, Err: err}
	}

	if s.unread {
		s.backupUnread()
	}

	if err := s.backend.Write(s.key, string(data)); err != nil {
		s.logger.Printf("Warning: changes kept in memory only: %v", err)
		return &PersistenceError{Op: "write", Key: s.key, Err: err}
	}
	s.unread = false
	return nil
}

// backupUnread copies the slot Load could not read to key+backupSuffix
// before it is overwritten. Callers hold s.mu.
func (s *TaskStore) backupUnread() {
	raw, ok, err := s.backend.Read(s.key)
	if err != nil {
		s.logger.Printf("Warning: replacing tasks in slot %q that could not be read: %v", s.key, err)
		return
	}
	if !ok {
		return
	}
	if err := s.backend.Write(s.key+backupSuffix, raw); err != nil {
		s.logger.Printf("Warning: could not back up unread tasks: %v", err)
		return
	}
	s.logger.Printf("Warning: previous tasks in slot %q kept in %q", s.key, s.key+backupSuffix)
}

// snapshot copies the collection. Callers hold s.mu.
func (s *TaskStore) snapshot() []Task {
	return slices.Clone(s.tasks)
}

func (s *TaskStore) notify(snapshot []Task) {
	s.mu.RLock()
	observer := s.observer
	s.mu.RUnlock()

	if observer != nil {
		observer(snapshot)
	}
}

// nextID derives an id from the clock in milliseconds, bumped past the
// last issued id so ids stay unique and increasing. Callers hold s.mu.
func (s *TaskStore) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *TaskStore) indexOf(id int64) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}

// commit persists, snapshots and unlocks, then notifies the observer.
// Callers hold s.mu for writing.
func (s *TaskStore) commit() error {
	err := s.persist()
	snapshot := s.snapshot()
	s.mu.Unlock()

	s.notify(snapshot)
	return err
}

// Add creates a task and appends it to the collection. Title and due
// date are required, and priority must be low, medium, or high.
func (s *TaskStore) Add(title, description string, priority Priority, dueDate string) (Task, error) {
	title, err := validateTitle(title)
	if err != nil {
		return Task{}, err
	}
	priority, err = validatePriority(priority)
	if err != nil {
		return Task{}, err
	}
	dueDate, err = validateDueDate(dueDate)
	if err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	task := Task{
		ID:          s.nextID(),
		Title:       title,
		Description: description,
		Priority:    priority,
		DueDate:     dueDate,
		Completed:   false,
	}
	s.tasks = append(s.tasks, task)

	return task, s.commit()
}

// Delete removes the task with id. It reports whether a task was
// removed; deleting an unknown id is a no-op.
func (s *TaskStore) Delete(id int64) (bool, error) {
	s.mu.Lock()

	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)

	return true, s.commit()
}

// Update applies the supplied fields of u to the task with id
func (s *TaskStore) Update(id int64, u TaskUpdate) (Task, error) {
	s.mu.Lock()

	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, notFound(id)
	}
	if u.empty() {
		task := s.tasks[i]
		s.mu.Unlock()
		return task, nil
	}

	updated, err := applyUpdate(s.tasks[i], u)
	if err != nil {
		s.mu.Unlock()
		return Task{}, err
	}
	s.tasks[i] = updated

	return updated, s.commit()
}

// ToggleCompletion flips the completed flag of the task with id
func (s *TaskStore) ToggleCompletion(id int64) (Task, error) {
	s.mu.Lock()

	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, notFound(id)
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	task := s.tasks[i]

	return task, s.commit()
}

// Sort reorders the stored collection and returns the new order. Both
// orders are stable.
func (s *TaskStore) Sort(key SortKey) ([]Task, error) {
	var cmp func(a, b Task) int
	switch key {
	case SortByPriority:
		cmp = comparePriority
	case SortByDueDate:
		cmp = compareDueDate
	default:
		return nil, &ValidationError{Field: "sort", Reason: fmt.Sprintf("unknown sort key %q", key)}
	}

	s.mu.Lock()
	slices.SortStableFunc(s.tasks, cmp)
	sorted := s.snapshot()

	return sorted, s.commit()
}

// List returns a copy of the collection in stored order
func (s *TaskStore) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Get returns the task with id
func (s *TaskStore) Get(id int64) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, notFound(id)
	}
	return s.tasks[i], nil
}

// Len returns the number of tasks
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
