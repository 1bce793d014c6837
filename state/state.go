// Package state persists small key-value session state as YAML.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grovetools/launchsync/pkg/paths"
	"gopkg.in/yaml.v3"
)

// State is a generic map of key-value pairs.
type State map[string]interface{}

// Store reads and writes a state file.
type Store struct {
	Path string
}

// DefaultPath returns state.yml in the launchsync state directory.
func DefaultPath() string {
	return filepath.Join(paths.StateDir(), "state.yml")
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load loads the state from the state file.
// Returns an empty state if the file doesn't exist.
func (s *Store) Load() (State, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(State), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}

	if st == nil {
		st = make(State)
	}

	return st, nil
}

// Save saves the state to the state file.
func (s *Store) Save(st State) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.WriteFile(s.Path, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// Get retrieves a value from the state by key.
// Returns the value and true if found, nil and false otherwise.
func (s *Store) Get(key string) (interface{}, bool, error) {
	st, err := s.Load()
	if err != nil {
		return nil, false, err
	}

	val, ok := st[key]
	return val, ok, nil
}

// GetString is a convenience function to get a string value from state.
// Returns empty string if the key doesn't exist or the value is not a string.
func (s *Store) GetString(key string) (string, error) {
	val, ok, err := s.Get(key)
	if err != nil || !ok {
		return "", err
	}

	str, _ := val.(string)
	return str, nil
}

// Set sets a value in the state.
func (s *Store) Set(key string, value interface{}) error {
	st, err := s.Load()
	if err != nil {
		return err
	}

	st[key] = value
	return s.Save(st)
}

// Delete removes a key from the state.
func (s *Store) Delete(key string) error {
	st, err := s.Load()
	if err != nil {
		return err
	}

	delete(st, key)
	return s.Save(st)
}
