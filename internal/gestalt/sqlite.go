package gestalt

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the tree in SQLite, one row per top-level collection.
// The same hierarchical-path semantics as FileStore, durable across writes
// without rewriting the whole tree.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens or creates the store database
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS gestalt (
		root TEXT PRIMARY KEY,
		doc  TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// loadRoot reads one top-level collection; absent rows yield (nil, nil)
func (s *SQLiteStore) loadRoot(ctx context.Context, root string) (map[string]any, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM gestalt WHERE root = ?", root).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", root, err)
	}
	out := make(map[string]any)
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", root, err)
	}
	return out, nil
}

// storeRoot writes one top-level collection back
func (s *SQLiteStore) storeRoot(ctx context.Context, root string, doc map[string]any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", root, err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO gestalt (root, doc) VALUES (?, ?) ON CONFLICT(root) DO UPDATE SET doc = excluded.doc",
		root, string(data))
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", root, err)
	}
	return nil
}

// Get returns the record at path, or (nil, nil) when absent
func (s *SQLiteStore) Get(ctx context.Context, path string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("cannot get the root path")
	}
	tree, err := s.loadRoot(ctx, parts[0])
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, nil
	}
	node, ok := getNode(tree, parts[1:])
	if !ok {
		return nil, nil
	}
	m, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("path %s does not hold a record", path)
	}
	return m, nil
}

// Post writes a record at path, replacing whatever was there
func (s *SQLiteStore) Post(ctx context.Context, path string, payload Value) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("cannot post to the root path")
	}
	tree, err := s.loadRoot(ctx, parts[0])
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		tree = copyValue(payload)
	} else {
		if tree == nil {
			tree = make(map[string]any)
		}
		setNode(tree, parts[1:], copyValue(payload))
	}
	if err := s.storeRoot(ctx, parts[0], tree); err != nil {
		return nil, err
	}
	return copyValue(payload), nil
}

// Update deep-merges the payload into the record at path
func (s *SQLiteStore) Update(ctx context.Context, path string, payload Value) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("cannot update the root path")
	}
	tree, err := s.loadRoot(ctx, parts[0])
	if err != nil {
		return nil, err
	}
	if tree == nil {
		tree = make(map[string]any)
	}
	existing, _ := getNode(tree, parts[1:])
	base, _ := existing.(map[string]any)
	merged := merge(copyValue(base), copyValue(payload))
	if len(parts) == 1 {
		tree = merged
	} else {
		setNode(tree, parts[1:], merged)
	}
	if err := s.storeRoot(ctx, parts[0], tree); err != nil {
		return nil, err
	}
	return copyValue(merged), nil
}

// Delete removes the record at path (absent path is a no-op)
func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("cannot delete the root path")
	}
	if len(parts) == 1 {
		_, err := s.db.ExecContext(ctx, "DELETE FROM gestalt WHERE root = ?", parts[0])
		return err
	}
	tree, err := s.loadRoot(ctx, parts[0])
	if err != nil || tree == nil {
		return err
	}
	deleteNode(tree, parts[1:])
	return s.storeRoot(ctx, parts[0], tree)
}

// Sync fetches-or-initializes the record at path. The whole
// read-merge-write runs under the lock so concurrent syncs serialize.
func (s *SQLiteStore) Sync(ctx context.Context, defaults Value, path string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("cannot sync the root path")
	}
	tree, err := s.loadRoot(ctx, parts[0])
	if err != nil {
		return nil, err
	}
	if tree == nil {
		tree = make(map[string]any)
	}

	effective := copyValue(defaults)
	if existing, ok := getNode(tree, parts[1:]); ok {
		if m, isMap := existing.(map[string]any); isMap {
			// Stored data wins over defaults
			effective = merge(effective, copyValue(m))
		}
	}
	if len(parts) == 1 {
		tree = effective
	} else {
		setNode(tree, parts[1:], effective)
	}
	if err := s.storeRoot(ctx, parts[0], tree); err != nil {
		return nil, err
	}
	return copyValue(effective), nil
}
