package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

// JSONStore implements Store using a JSON file holding one object of slots
type JSONStore struct {
	filename string
	slots    map[string]string
	closed   bool
	mu       sync.RWMutex
}

// CorruptSuffix is appended to the name of a store file that could not be
// parsed when it is moved aside
const CorruptSuffix = ".corrupt"

// NewJSONStore creates or opens a JSON-backed store. The file is created
// on the first write. A file that does not parse is renamed to
// filename+CorruptSuffix and the store starts with no slots.
func NewJSONStore(filename string) (*JSONStore, error) {
	store := &JSONStore{
		filename: filename,
		slots:    map[string]string{},
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		// A missing file, or a parent that is not a directory yet, means
		// nothing was saved
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return store, nil
		}
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	if err := store.load(data); err != nil {
		backup := filename + CorruptSuffix
		if rerr := os.Rename(filename, backup); rerr != nil {
			return nil, fmt.Errorf("failed to move aside unreadable store %s: %w", filename, rerr)
		}
		log.Printf("Warning: %s is not a valid store (%v), moved to %s", filename, err, backup)
	}

	return store, nil
}

func (s *JSONStore) load(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	slots := map[string]string{}
	if err := json.Unmarshal(data, &slots); err != nil {
		return err
	}
	s.slots = slots
	return nil
}

// save writes slots to a temp file in the same directory and renames it
// over the store file, so a failed save never leaves a truncated file.
func (s *JSONStore) save(slots map[string]string) error {
	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.filename)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.filename)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.filename); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Read returns the value stored under key
func (s *JSONStore) Read(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, ErrClosed
	}

	value, ok := s.slots[key]
	return value, ok, nil
}

// Write replaces the value under key and rewrites the file
func (s *JSONStore) Write(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	next := make(map[string]string, len(s.slots)+1)
	for k, v := range s.slots {
		next[k] = v
	}
	next[key] = value

	if err := s.save(next); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", key, err)
	}

	s.slots = next
	return nil
}

// Close closes the store
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
