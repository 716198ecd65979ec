// Package faillog keeps a durable record of every identifier that could
// not be resolved, independent of the per-run change log. It survives
// across runs so unreachable DOIs can be triaged offline.
package faillog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one failed resolution attempt.
type Entry struct {
	DOI          string `json:"doi"`
	EntryID      string `json:"entry_id"`
	Publisher    string `json:"publisher"`
	ErrorMessage string `json:"error_message"`
	HTTPStatus   int    `json:"http_status,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// Log appends failure entries to a JSON array on disk. Writes are
// serialized so concurrent workers cannot corrupt the file.
type Log struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// Open prepares a failure log at the given path, creating parent
// directories as needed.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &Log{path: path, now: time.Now}, nil
}

// Append records one failed DOI. The publisher may be empty when unknown.
func (l *Log) Append(doi, entryID, publisher, errorMessage string, httpStatus int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.readLocked()
	if err != nil {
		return err
	}

	if doi == "" {
		doi = "N/A"
	}
	if publisher == "" {
		publisher = "Unknown"
	}

	entries = append(entries, Entry{
		DOI:          doi,
		EntryID:      entryID,
		Publisher:    publisher,
		ErrorMessage: errorMessage,
		HTTPStatus:   httpStatus,
		Timestamp:    l.now().Format("2006-01-02 15:04:05"),
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding failed-DOI log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("writing failed-DOI log: %w", err)
	}
	return nil
}

// Entries returns all logged failures, oldest first.
func (l *Log) Entries() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked()
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

func (l *Log) readLocked() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading failed-DOI log: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing failed-DOI log: %w", err)
	}
	return entries, nil
}
