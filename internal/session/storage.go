package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Keys of the persisted client state.
const (
	KeyAccessToken = "access_token"
	KeyUser        = "user"
)

const (
	configDirName = "habit-garden"
	stateFileName = "state.json"
)

// Storage persists the client state as string key-value pairs.
// Only the Manager writes to it.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// FileStorage keeps the client state in a JSON file.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// DefaultStatePath returns ~/.config/habit-garden/state.json (or the platform equivalent).
func DefaultStatePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config dir: %w", err)
	}
	return filepath.Join(configDir, configDirName, stateFileName), nil
}

// NewFileStorage creates a FileStorage with a custom path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the file path where the state is stored.
func (s *FileStorage) Path() string {
	return s.path
}

// Get implements Storage.
func (s *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := state[key]
	return v, ok, nil
}

// Set implements Storage.
func (s *FileStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	state[key] = value
	return s.save(state)
}

// Delete implements Storage. The file is removed once it holds no keys.
func (s *FileStorage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		// An unreadable file is replaced rather than blocking logout.
		state = map[string]string{}
	}
	for _, k := range keys {
		delete(state, k)
	}

	if len(state) == 0 {
		err := os.Remove(s.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing state file: %w", err)
		}
		return nil
	}
	return s.save(state)
}

// load reads the state file. A missing file is an empty state.
func (s *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	state := map[string]string{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	return state, nil
}

// save writes the state, creating the parent directory if needed.
func (s *FileStorage) save(state map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}

// MemoryStorage is a process-local Storage.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get implements Storage.
func (s *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements Storage.
func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Delete implements Storage.
func (s *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.values, k)
	}
	s.mu.Unlock()
	return nil
}

// Ensure both stores implement Storage.
var (
	_ Storage = (*FileStorage)(nil)
	_ Storage = (*MemoryStorage)(nil)
)
