package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// StateFile persists State at a fixed path.
type StateFile struct {
	Path string
	mu   sync.Mutex
}

// DefaultStateFile returns the state file in the config directory.
func DefaultStateFile() (*StateFile, error) {
	path, err := GetStatePath()
	if err != nil {
		return nil, fmt.Errorf("failed to get state path: %w", err)
	}
	return &StateFile{Path: path}, nil
}

// Load reads the state. A missing file yields an empty State.
func (f *StateFile) Load() (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	state := NewState()
	if err := yaml.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if state.Version != 1 {
		return nil, fmt.Errorf("unsupported state version: %d (expected 1)", state.Version)
	}
	return state, nil
}

// Save writes the state atomically with user-only permissions.
func (f *StateFile) Save(state *State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if state.Version == 0 {
		state.Version = 1
	}
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	header := []byte("# SkyLog session state. Written by skylog; do not edit.\n\n")
	return writeAtomic(f.Path, append(header, data...))
}
