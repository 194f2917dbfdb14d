package gestalt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the whole tree in memory and persists it as one JSON
// document on every mutation. Suited to development and small deployments.
type FileStore struct {
	mu   sync.RWMutex
	root map[string]any
	path string
}

// NewFileStore creates a file-backed store at the given path
func NewFileStore(path string) *FileStore {
	return &FileStore{
		root: make(map[string]any),
		path: path,
	}
}

// Load reads the tree from disk (a missing file is an empty store)
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}

	root := make(map[string]any)
	if err := json.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse store: %w", err)
	}
	s.root = root
	return nil
}

// save writes the tree to disk; callers hold the lock
func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store dir: %w", err)
	}
	data, err := json.MarshalIndent(s.root, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}

// Get returns the record at path, or (nil, nil) when absent
func (s *FileStore) Get(ctx context.Context, path string) (Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := getNode(s.root, splitPath(path))
	if !ok {
		return nil, nil
	}
	m, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("path %s does not hold a record", path)
	}
	return copyValue(m), nil
}

// Post writes a record at path, replacing whatever was there
func (s *FileStore) Post(ctx context.Context, path string, payload Value) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("cannot post to the root path")
	}
	setNode(s.root, parts, copyValue(payload))
	if err := s.save(); err != nil {
		return nil, err
	}
	return copyValue(payload), nil
}

// Update deep-merges the payload into the record at path
func (s *FileStore) Update(ctx context.Context, path string, payload Value) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("cannot update the root path")
	}
	existing, _ := getNode(s.root, parts)
	base, _ := existing.(map[string]any)
	merged := merge(copyValue(base), copyValue(payload))
	setNode(s.root, parts, merged)
	if err := s.save(); err != nil {
		return nil, err
	}
	return copyValue(merged), nil
}

// Delete removes the record at path (absent path is a no-op)
func (s *FileStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("cannot delete the root path")
	}
	deleteNode(s.root, parts)
	return s.save()
}

// Sync fetches-or-initializes the record at path
func (s *FileStore) Sync(ctx context.Context, defaults Value, path string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("cannot sync the root path")
	}
	existing, ok := getNode(s.root, parts)
	if m, isMap := existing.(map[string]any); ok && isMap {
		// Stored data wins over defaults
		effective := merge(copyValue(defaults), copyValue(m))
		setNode(s.root, parts, effective)
		if err := s.save(); err != nil {
			return nil, err
		}
		return copyValue(effective), nil
	}
	setNode(s.root, parts, copyValue(defaults))
	if err := s.save(); err != nil {
		return nil, err
	}
	return copyValue(defaults), nil
}
