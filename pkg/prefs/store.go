// Package prefs persists tool settings and front-end configuration as YAML.
package prefs

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store is a flat key/value settings file. Keys are dotted names such as
// "tools.placer.radius"; values are numbers. A missing file is an empty store.
type Store struct {
	path   string
	mu     sync.RWMutex
	values map[string]any
	dirty  bool
}

// Open reads the settings file at path
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]any)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prefs: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &s.values); err != nil {
		return nil, fmt.Errorf("prefs: parse %s: %w", path, err)
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	return s, nil
}

// Path returns the file the store saves to
func (s *Store) Path() string { return s.path }

// Float returns the value under key, or def when it is missing or not a number
func (s *Store) Float(key string, def float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch v := s.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// SetFloat stores a float value
func (s *Store) SetFloat(key string, value float64) {
	s.set(key, value)
}

// Int returns the value under key, or def when it is missing or not a whole number
func (s *Store) Int(key string, def int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch v := s.values[key].(type) {
	case int:
		return v
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	}
	return def
}

// SetInt stores an integer value
func (s *Store) SetInt(key string, value int) {
	s.set(key, value)
}

func (s *Store) set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.values[key]; ok && old == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Save writes the settings if anything changed. The file is replaced
// atomically so a crash never leaves it half written.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	raw, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("prefs: save %s: %w", s.path, err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.yaml")
	if err != nil {
		return fmt.Errorf("prefs: save %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("prefs: save %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("prefs: save %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("prefs: save %s: %w", s.path, err)
	}
	s.dirty = false
	return nil
}

// MemoryStore keeps settings for the lifetime of the process only
type MemoryStore struct {
	mu     sync.RWMutex
	floats map[string]float64
	ints   map[string]int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{floats: make(map[string]float64), ints: make(map[string]int)}
}

func (m *MemoryStore) Float(key string, def float64) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.floats[key]; ok {
		return v
	}
	return def
}

func (m *MemoryStore) SetFloat(key string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.floats[key] = value
}

func (m *MemoryStore) Int(key string, def int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.ints[key]; ok {
		return v
	}
	return def
}

func (m *MemoryStore) SetInt(key string, value int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ints[key] = value
}

// Save is a no-op
func (m *MemoryStore) Save() error { return nil }
