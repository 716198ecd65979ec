package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps cache entries in a single SQLite database. Preferable
// to the file store for bibliographies with thousands of identifiers.
type SQLiteStore struct {
	db     *sql.DB
	expiry time.Duration
	now    func() time.Time
}

// NewSQLiteStore opens (creating if needed) the cache database at path.
func NewSQLiteStore(path string, expiry time.Duration) (*SQLiteStore, error) {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	ddl := `CREATE TABLE IF NOT EXISTS fetch_cache (
  doi TEXT PRIMARY KEY,
  bibtex TEXT NOT NULL,
  timestamp INTEGER NOT NULL
)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return &SQLiteStore{db: db, expiry: expiry, now: time.Now}, nil
}

// Get returns the cached BibTeX for a DOI if present and unexpired.
func (s *SQLiteStore) Get(doi string) (string, bool, error) {
	var bibtex string
	var ts int64

	err := s.db.QueryRow(
		`SELECT bibtex, timestamp FROM fetch_cache WHERE doi = ?`, doi,
	).Scan(&bibtex, &ts)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying cache: %w", err)
	}

	if s.now().Sub(time.Unix(ts, 0)) > s.expiry {
		return "", false, nil
	}
	return bibtex, true, nil
}

// Put upserts a fetch result for a DOI.
func (s *SQLiteStore) Put(doi, bibtex string) error {
	_, err := s.db.Exec(
		`INSERT INTO fetch_cache (doi, bibtex, timestamp) VALUES (?, ?, ?)
		 ON CONFLICT(doi) DO UPDATE SET bibtex = excluded.bibtex, timestamp = excluded.timestamp`,
		doi, bibtex, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
