package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Store persists finished sessions
type Store interface {
	// Save creates or replaces a session
	Save(ctx context.Context, d *Data) error

	// Get retrieves a session by ID
	Get(ctx context.Context, id string) (*Data, error)

	// List returns all sessions, newest start first
	List(ctx context.Context) ([]*Data, error)

	// Delete removes a session by ID
	Delete(ctx context.Context, id string) error
}

// JSONStore implements Store using a single JSON file.
type JSONStore struct {
	path     string
	sessions map[string]*Data
	mu       sync.RWMutex
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int     `json:"version"`
	UpdatedAt string  `json:"updated_at"`
	Sessions  []*Data `json:"sessions"`
}

const currentVersion = 1

// NewJSONStore opens the store at path. The file is created on first save.
func NewJSONStore(path string) (*JSONStore, error) {
	store := &JSONStore{
		path:     path,
		sessions: make(map[string]*Data),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("session: create store directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("session: load store: %w", err)
		}
	}

	return store, nil
}

// NewDefaultStore opens sessions.json under dataDir
func NewDefaultStore(dataDir string) (*JSONStore, error) {
	return NewJSONStore(filepath.Join(dataDir, "sessions.json"))
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	s.sessions = make(map[string]*Data, len(stored.Sessions))
	for _, d := range stored.Sessions {
		s.sessions[d.ID] = d
	}
	return nil
}

// save writes the store to disk. Caller holds mu.
func (s *JSONStore) save() error {
	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Sessions:  sortNewestFirst(s.sessions),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal store: %w", err)
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("session: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("session: rename temp file: %w", err)
	}
	return nil
}

// Save implements Store.
func (s *JSONStore) Save(_ context.Context, d *Data) error {
	if d.ID == "" {
		return ErrInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[d.ID] = d.Clone()
	return s.save()
}

// Get implements Store.
func (s *JSONStore) Get(_ context.Context, id string) (*Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d.Clone(), nil
}

// List implements Store.
func (s *JSONStore) List(_ context.Context) ([]*Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := sortNewestFirst(s.sessions)
	for i, d := range out {
		out[i] = d.Clone()
	}
	return out, nil
}

// Delete implements Store.
func (s *JSONStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.sessions, id)
	return s.save()
}

// Count returns the number of stored sessions
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Path returns the file path of the store.
func (s *JSONStore) Path() string {
	return s.path
}

func sortNewestFirst(m map[string]*Data) []*Data {
	out := make([]*Data, 0, len(m))
	for _, d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime > out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}
