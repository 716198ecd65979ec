// Package cache persists fetched BibTeX text keyed by DOI so repeat runs
// stay inside the courtesy limits of external services. Two backends share
// one interface: a file store (one JSON document per DOI) and a SQLite
// store for large bibliographies.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultExpiry is how long a cached fetch stays valid.
const DefaultExpiry = 30 * 24 * time.Hour

// Entry is one cached fetch result.
type Entry struct {
	DOI       string `json:"doi"`
	BibTeX    string `json:"bibtex"`
	Timestamp int64  `json:"timestamp"` // Unix seconds
}

// Store reads and writes cached fetch results. Get returns ok=false for
// both missing and expired entries.
type Store interface {
	Get(doi string) (bibtex string, ok bool, err error)
	Put(doi, bibtex string) error
	Close() error
}

// FileStore keeps one JSON file per DOI under a cache directory.
// Writes are serialized; concurrent reads are safe because entries are
// content-addressed by DOI.
type FileStore struct {
	dir    string
	expiry time.Duration
	now    func() time.Time

	mu sync.Mutex
}

// NewFileStore creates (if needed) the cache directory and returns a store
// with the given expiry. A zero expiry means DefaultExpiry.
func NewFileStore(dir string, expiry time.Duration) (*FileStore, error) {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &FileStore{dir: dir, expiry: expiry, now: time.Now}, nil
}

// path maps a DOI to its cache file, sanitizing path separators.
func (s *FileStore) path(doi string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(doi)
	return filepath.Join(s.dir, safe+".json")
}

// Get returns the cached BibTeX for a DOI if present and unexpired.
func (s *FileStore) Get(doi string) (string, bool, error) {
	data, err := os.ReadFile(s.path(doi))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry behaves like a miss; it will be rewritten.
		return "", false, nil
	}

	if s.expired(entry.Timestamp) {
		return "", false, nil
	}
	return entry.BibTeX, true, nil
}

// Put writes a fetch result for a DOI, overwriting any previous entry.
func (s *FileStore) Put(doi, bibtex string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{DOI: doi, BibTeX: bibtex, Timestamp: s.now().Unix()}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := os.WriteFile(s.path(doi), data, 0644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) expired(ts int64) bool {
	return s.now().Sub(time.Unix(ts, 0)) > s.expiry
}
