// Package bib converts between BibTeX text and ordered bibliographic
// records. Parsing is delegated to the nickng/bibtex grammar; writing uses
// a fixed field order so output stays stable across runs.
package bib

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nickng/bibtex"

	"github.com/bibfill/bibfill/internal/record"
)

// fieldOrder is the canonical emission order for well-known fields.
// Anything not listed is emitted afterwards, alphabetically.
var fieldOrder = []string{
	"author", "title", "journal", "booktitle", "year", "month",
	"volume", "number", "pages", "publisher", "organization",
	"address", "edition", "series", "doi", "issn", "isbn",
	"url", "eprint", "archiveprefix", "primaryclass",
	"keywords", "abstract", "note",
}

var fieldRank = func() map[string]int {
	m := make(map[string]int, len(fieldOrder))
	for i, f := range fieldOrder {
		m[f] = i
	}
	return m
}()

// ParseString parses BibTeX text into an ordered list of records.
func ParseString(text string) ([]*record.Record, error) {
	bt, err := bibtex.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parsing BibTeX: %w", err)
	}

	records := make([]*record.Record, 0, len(bt.Entries))
	for _, entry := range bt.Entries {
		records = append(records, fromEntry(entry))
	}
	return records, nil
}

// ParseOne parses BibTeX text and returns the first record, for fetched
// snippets that contain a single entry.
func ParseOne(text string) (*record.Record, error) {
	records, err := ParseString(text)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no entries found in BibTeX text")
	}
	return records[0], nil
}

// ParseFile reads and parses a .bib file.
func ParseFile(path string) ([]*record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseString(string(data))
}

func fromEntry(entry *bibtex.BibEntry) *record.Record {
	r := record.New(entry.CiteName, strings.ToLower(entry.Type))

	// The parser stores fields in a map; impose the canonical order so
	// parsed records are deterministic.
	names := make([]string, 0, len(entry.Fields))
	for name := range entry.Fields {
		names = append(names, strings.ToLower(name))
	}
	sortFields(names)

	for _, name := range names {
		for orig, value := range entry.Fields {
			if strings.ToLower(orig) == name {
				r.Set(name, strings.TrimSpace(value.String()))
				break
			}
		}
	}
	return r
}

func sortFields(names []string) {
	sort.Slice(names, func(i, j int) bool {
		ri, iOK := fieldRank[names[i]]
		rj, jOK := fieldRank[names[j]]
		switch {
		case iOK && jOK:
			return ri < rj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return names[i] < names[j]
		}
	})
}

// SortByID orders records by citation key, ascending. The sort is
// stable so duplicate keys keep their file order.
func SortByID(records []*record.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
}

// Format renders a single record as a BibTeX entry.
func Format(r *record.Record) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", r.Type, r.ID))

	names := append([]string(nil), r.FieldNames()...)
	sortFields(names)

	for _, name := range names {
		value := strings.TrimSpace(r.Get(name))
		if value == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("  %s = {%s},\n", name, value))
	}

	b.WriteString("}\n")
	return b.String()
}

// FormatList renders records in order, separated by blank lines.
func FormatList(records []*record.Record) string {
	entries := make([]string, 0, len(records))
	for _, r := range records {
		entries = append(entries, Format(r))
	}
	return strings.Join(entries, "\n")
}

// WriteFile serializes records to a .bib file.
func WriteFile(path string, records []*record.Record) error {
	if err := os.WriteFile(path, []byte(FormatList(records)), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
