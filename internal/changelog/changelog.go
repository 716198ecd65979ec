// Package changelog records every modification the pipeline makes to a
// bibliography and renders the ledger as a Markdown report.
package changelog

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Kind classifies a recorded change.
type Kind string

const (
	FieldAdded        Kind = "field_added"
	FieldUpdated      Kind = "field_updated"
	ArxivReplaced     Kind = "arxiv_replaced"
	TitleFormatted    Kind = "title_formatted"
	JournalNormalized Kind = "journal_normalized"
	Error             Kind = "error"
)

// Change is one recorded modification to an entry.
type Change struct {
	EntryID  string `json:"entry_id"`
	Kind     Kind   `json:"change_type"`
	Field    string `json:"field,omitempty"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty"`
	Source   string `json:"source,omitempty"`
	Reason   string `json:"reason,omitempty"`

	// ArxivID and DOI are set for arxiv_replaced changes.
	ArxivID string `json:"arxiv_id,omitempty"`
	DOI     string `json:"doi,omitempty"`
}

// Stats aggregates the ledger by change kind.
type Stats struct {
	TotalEntries       int
	EntriesModified    int
	ArxivReplaced      int
	FieldsAdded        int
	FieldsUpdated      int
	TitlesFormatted    int
	JournalsNormalized int
	Errors             int
}

// Ledger collects changes across a run. Safe for concurrent use so
// parallel workers can share one.
type Ledger struct {
	mu        sync.Mutex
	changes   []Change
	processed int
	now       func() time.Time
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{now: time.Now}
}

// EntryProcessed counts an entry toward the run total, modified or not.
func (l *Ledger) EntryProcessed(entryID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.processed++
}

// FieldAdded records a field newly filled in from a source.
func (l *Ledger) FieldAdded(entryID, field, value, source string) {
	l.add(Change{EntryID: entryID, Kind: FieldAdded, Field: field, NewValue: value, Source: source})
}

// FieldUpdated records a field whose value was replaced.
func (l *Ledger) FieldUpdated(entryID, field, oldValue, newValue, reason string) {
	l.add(Change{EntryID: entryID, Kind: FieldUpdated, Field: field,
		OldValue: oldValue, NewValue: newValue, Reason: reason})
}

// ArxivReplaced records a preprint swapped for its published version.
func (l *Ledger) ArxivReplaced(entryID, arxivID, publishedDOI, source string) {
	l.add(Change{EntryID: entryID, Kind: ArxivReplaced,
		ArxivID: arxivID, DOI: publishedDOI, Source: source})
}

// TitleFormatted records a title rewritten by the formatter.
func (l *Ledger) TitleFormatted(entryID, oldTitle, newTitle, formatType string) {
	l.add(Change{EntryID: entryID, Kind: TitleFormatted, Field: "title",
		OldValue: oldTitle, NewValue: newTitle, Reason: formatType})
}

// JournalNormalized records a venue name rewritten to its abbreviated or
// full form.
func (l *Ledger) JournalNormalized(entryID, oldName, newName, formatType string) {
	l.add(Change{EntryID: entryID, Kind: JournalNormalized, Field: "journal",
		OldValue: oldName, NewValue: newName, Reason: formatType})
}

// ErrorFor records a processing failure for an entry.
func (l *Ledger) ErrorFor(entryID, message string) {
	l.add(Change{EntryID: entryID, Kind: Error, Reason: message})
}

func (l *Ledger) add(c Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = append(l.changes, c)
}

// Changes returns a copy of all recorded changes in order.
func (l *Ledger) Changes() []Change {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Change, len(l.changes))
	copy(out, l.changes)
	return out
}

// EntryChanges returns the changes recorded for one entry.
func (l *Ledger) EntryChanges(entryID string) []Change {
	var out []Change
	for _, c := range l.Changes() {
		if c.EntryID == entryID {
			out = append(out, c)
		}
	}
	return out
}

// ModifiedEntries returns the sorted IDs of entries with at least one
// non-error change.
func (l *Ledger) ModifiedEntries() []string {
	seen := make(map[string]bool)
	for _, c := range l.Changes() {
		if c.Kind != Error {
			seen[c.EntryID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stats summarizes the ledger.
func (l *Ledger) Stats() Stats {
	s := Stats{EntriesModified: len(l.ModifiedEntries())}

	l.mu.Lock()
	s.TotalEntries = l.processed
	changes := l.changes
	for _, c := range changes {
		switch c.Kind {
		case FieldAdded:
			s.FieldsAdded++
		case FieldUpdated:
			s.FieldsUpdated++
		case ArxivReplaced:
			s.ArxivReplaced++
		case TitleFormatted:
			s.TitlesFormatted++
		case JournalNormalized:
			s.JournalsNormalized++
		case Error:
			s.Errors++
		}
	}
	l.mu.Unlock()
	return s
}

// WriteMarkdown renders the full change report.
func (l *Ledger) WriteMarkdown(w io.Writer) error {
	stats := l.Stats()
	modified := l.ModifiedEntries()
	changes := l.Changes()

	var b strings.Builder
	b.WriteString("# BibTeX Processing Change Log\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", l.now().Format("2006-01-02 15:04:05"))

	b.WriteString("## Summary Statistics\n\n")
	fmt.Fprintf(&b, "- **Total entries processed**: %d\n", stats.TotalEntries)
	fmt.Fprintf(&b, "- **Entries modified**: %d\n", stats.EntriesModified)
	fmt.Fprintf(&b, "- **arXiv entries replaced**: %d\n", stats.ArxivReplaced)
	fmt.Fprintf(&b, "- **Fields added**: %d\n", stats.FieldsAdded)
	fmt.Fprintf(&b, "- **Fields updated**: %d\n", stats.FieldsUpdated)
	fmt.Fprintf(&b, "- **Titles formatted**: %d\n", stats.TitlesFormatted)
	fmt.Fprintf(&b, "- **Journals normalized**: %d\n", stats.JournalsNormalized)
	fmt.Fprintf(&b, "- **Errors encountered**: %d\n\n", stats.Errors)

	writeKindSummary(&b, changes)

	b.WriteString("## Detailed Changes by Entry\n\n")
	for _, id := range modified {
		fmt.Fprintf(&b, "### `%s`\n\n", id)
		for _, c := range changes {
			if c.EntryID == id {
				writeChange(&b, c)
			}
		}
		b.WriteString("\n")
	}

	if stats.Errors > 0 {
		b.WriteString("## Errors\n\n")
		for _, c := range changes {
			if c.Kind == Error {
				fmt.Fprintf(&b, "- **%s**: %s\n", c.EntryID, c.Reason)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n*Generated by bibfill*\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveMarkdown writes the report to a file.
func (l *Ledger) SaveMarkdown(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating change log: %w", err)
	}
	if err := l.WriteMarkdown(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeKindSummary(b *strings.Builder, changes []Change) {
	counts := make(map[Kind]int)
	for _, c := range changes {
		counts[c.Kind]++
	}
	if len(counts) == 0 {
		return
	}

	kinds := make([]Kind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if counts[kinds[i]] != counts[kinds[j]] {
			return counts[kinds[i]] > counts[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})

	b.WriteString("## Changes by Type\n\n")
	for _, k := range kinds {
		fmt.Fprintf(b, "- **%s**: %d\n", kindTitle(k), counts[k])
	}
	b.WriteString("\n")
}

func writeChange(b *strings.Builder, c Change) {
	switch c.Kind {
	case FieldAdded:
		fmt.Fprintf(b, "- **Added field** `%s`\n", c.Field)
		fmt.Fprintf(b, "  - **Value**: %s\n", displayValue(c.NewValue))
		if c.Source != "" {
			fmt.Fprintf(b, "  - **Source**: %s\n", c.Source)
		}
	case FieldUpdated:
		fmt.Fprintf(b, "- **Updated field** `%s`\n", c.Field)
		fmt.Fprintf(b, "  - **Old**: %s\n", displayValue(c.OldValue))
		fmt.Fprintf(b, "  - **New**: %s\n", displayValue(c.NewValue))
		if c.Reason != "" {
			fmt.Fprintf(b, "  - **Reason**: %s\n", c.Reason)
		}
	case ArxivReplaced:
		b.WriteString("- **Replaced arXiv preprint with published version**\n")
		fmt.Fprintf(b, "  - **arXiv ID**: %s\n", c.ArxivID)
		fmt.Fprintf(b, "  - **Published DOI**: %s\n", c.DOI)
		if c.Source != "" {
			fmt.Fprintf(b, "  - **Source**: %s\n", c.Source)
		}
	case TitleFormatted:
		fmt.Fprintf(b, "- **Formatted title** (%s)\n", orUnknown(c.Reason))
		fmt.Fprintf(b, "  - **Old**: %s\n", displayValue(c.OldValue))
		fmt.Fprintf(b, "  - **New**: %s\n", displayValue(c.NewValue))
	case JournalNormalized:
		fmt.Fprintf(b, "- **Normalized journal name** (%s)\n", orUnknown(c.Reason))
		fmt.Fprintf(b, "  - **Old**: %s\n", displayValue(c.OldValue))
		fmt.Fprintf(b, "  - **New**: %s\n", displayValue(c.NewValue))
	case Error:
		fmt.Fprintf(b, "- **Error**: %s\n", c.Reason)
	}
}

const maxDisplayLen = 100

func displayValue(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	if v == "" {
		return "*Empty*"
	}
	if len(v) > maxDisplayLen {
		v = v[:maxDisplayLen] + "..."
	}
	v = strings.ReplaceAll(v, "|", "\\|")
	return "`" + v + "`"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func kindTitle(k Kind) string {
	words := strings.Split(string(k), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
