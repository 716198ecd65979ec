// Package corrections loads the manually curated DOI-correction table:
// known-bad identifiers remapped to replacements, marked permanently
// invalid, or flagged as pending research. Completion runs only read the
// table; the corrections subcommand edits and saves it.
package corrections

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bibfill/bibfill/internal/doi"
)

// Correction statuses.
const (
	StatusCorrected = "corrected"
	StatusInvalid   = "invalid"
	StatusPending   = "pending"
)

// Entry is one row of the correction table.
type Entry struct {
	OriginalDOI  string `json:"original_doi"`
	CorrectedDOI string `json:"corrected_doi,omitempty"`
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
}

// fileFormat matches the persisted JSON document.
type fileFormat struct {
	Corrections []Entry `json:"corrections"`
}

// Table is a loaded, read-only correction table keyed by normalized DOI.
type Table struct {
	entries map[string]Entry
}

// Load reads a correction table from a JSON file. A missing file yields an
// empty table, not an error.
func Load(path string) (*Table, error) {
	t := &Table{entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("reading corrections table: %w", err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing corrections table: %w", err)
	}

	for _, e := range f.Corrections {
		if e.OriginalDOI == "" {
			continue
		}
		t.entries[doi.Normalize(e.OriginalDOI)] = e
	}
	return t, nil
}

// Empty returns a table with no corrections.
func Empty() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Len returns the number of loaded corrections.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns all corrections, for display.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

// Set adds or replaces the correction for a DOI.
func (t *Table) Set(d string, e Entry) {
	e.OriginalDOI = doi.Normalize(d)
	t.entries[e.OriginalDOI] = e
}

// Save writes the table back to disk as JSON.
func (t *Table) Save(path string) error {
	data, err := json.MarshalIndent(fileFormat{Corrections: t.Entries()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding corrections table: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing corrections table: %w", err)
	}
	return nil
}

// Apply looks up a DOI in the table.
//
// Returns (corrected, applied, reason):
//   - unlisted DOI: (d, false, "")
//   - corrected:    (replacement, true, reason)
//   - invalid:      ("", true, reason); the DOI must not be fetched
//   - pending:      ("", true, reason); treated like invalid in
//     non-interactive runs, since the replacement is not yet known
func (t *Table) Apply(d string) (corrected string, applied bool, reason string) {
	entry, ok := t.entries[doi.Normalize(d)]
	if !ok {
		return d, false, ""
	}

	switch entry.Status {
	case StatusInvalid:
		return "", true, fmt.Sprintf("DOI marked as invalid in corrections table: %s", entry.Reason)
	case StatusCorrected:
		if entry.CorrectedDOI != "" {
			return entry.CorrectedDOI, true,
				fmt.Sprintf("DOI corrected: %s -> %s (%s)", d, entry.CorrectedDOI, entry.Reason)
		}
		return d, false, ""
	case StatusPending:
		return "", true, fmt.Sprintf("DOI correction pending research: %s", entry.Reason)
	default:
		return d, false, ""
	}
}
