package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EntryType identifies what kind of dispatch event this is
type EntryType string

const (
	EntryInterpreted EntryType = "interpreted" // A command invocation was detected
	EntryDenied      EntryType = "denied"      // Authorization denied the command
	EntryExecuted    EntryType = "executed"    // The command ran successfully
	EntryFailed      EntryType = "failed"      // The command's execute returned an error
	EntryPrompt      EntryType = "prompt"      // A prompt resolved or errored
)

// Entry is a single dispatch journal record
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Type      EntryType `json:"type"`
	Bot       string    `json:"bot,omitempty"`
	Client    string    `json:"client,omitempty"`
	Command   string    `json:"command,omitempty"`
	Author    string    `json:"author,omitempty"`
	Detail    string    `json:"detail,omitempty"` // denial reason, error text
}

// Journal appends dispatch events to state/journal.jsonl
type Journal struct {
	path string
	mu   sync.Mutex
}

// New creates a journal writer under the given state directory
func New(statePath string) *Journal {
	return &Journal{
		path: filepath.Join(statePath, "journal.jsonl"),
	}
}

// Log writes an entry to the journal
func (j *Journal) Log(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("failed to create journal dir: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	return nil
}

// Recent returns up to n of the most recent entries, oldest first
func (j *Journal) Recent(n int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip corrupt lines
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
