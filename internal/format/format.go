// Package format standardizes BibTeX fields: title casing, author name
// order, journal abbreviations, and page ranges.
package format

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/bibfill/bibfill/internal/changelog"
	"github.com/bibfill/bibfill/internal/record"
)

// Author format types.
const (
	FirstLast = "first_last"
	LastFirst = "last_first"
)

// Page format types.
const (
	DoubleDash = "double_dash"
	SingleDash = "single_dash"
)

// Journal format types.
const (
	Abbreviation = "abbreviation"
	FullName     = "full"
)

// Options selects the target style for each field.
type Options struct {
	Title   string
	Author  string
	Journal string
	Pages   string
}

// DefaultOptions matches the default run configuration.
func DefaultOptions() Options {
	return Options{
		Title:   TitleCase,
		Author:  FirstLast,
		Journal: Abbreviation,
		Pages:   DoubleDash,
	}
}

// Styler formats fields using its word lists and journal table. The
// zero value is unusable; construct with NewStyler.
type Styler struct {
	// protected maps lowercased protected words to their canonical
	// casing.
	protected  map[string]string
	smallWords map[string]bool

	// journalAbbr maps full journal names to abbreviations.
	journalAbbr map[string]string
}

// NewStyler creates a Styler with the built-in word lists.
func NewStyler() *Styler {
	s := &Styler{
		protected:   make(map[string]string),
		smallWords:  make(map[string]bool),
		journalAbbr: make(map[string]string),
	}
	for _, w := range defaultProtectedWords {
		s.protected[strings.ToLower(w)] = w
	}
	for _, w := range defaultSmallWords {
		s.smallWords[w] = true
	}
	for full, abbr := range defaultJournalAbbr {
		s.journalAbbr[full] = abbr
	}
	return s
}

// LoadProtectedWords merges additional protected words from a JSON file
// with "acronyms", "organizations" and "proper_nouns" lists.
func (s *Styler) LoadProtectedWords(path string) error {
	var lists struct {
		Acronyms      []string `json:"acronyms"`
		Organizations []string `json:"organizations"`
		ProperNouns   []string `json:"proper_nouns"`
	}
	if err := readJSON(path, &lists); err != nil {
		return err
	}
	for _, group := range [][]string{lists.Acronyms, lists.Organizations, lists.ProperNouns} {
		for _, w := range group {
			s.protected[strings.ToLower(w)] = w
		}
	}
	return nil
}

// LoadSmallWords replaces the small-word list from a JSON file with
// "articles", "conjunctions" and "prepositions" lists.
func (s *Styler) LoadSmallWords(path string) error {
	var lists struct {
		Articles     []string `json:"articles"`
		Conjunctions []string `json:"conjunctions"`
		Prepositions []string `json:"prepositions"`
	}
	if err := readJSON(path, &lists); err != nil {
		return err
	}
	small := make(map[string]bool)
	for _, group := range [][]string{lists.Articles, lists.Conjunctions, lists.Prepositions} {
		for _, w := range group {
			small[strings.ToLower(w)] = true
		}
	}
	if len(small) > 0 {
		s.smallWords = small
	}
	return nil
}

// LoadJournalAbbreviations merges a full-name to abbreviation mapping
// from a JSON file.
func (s *Styler) LoadJournalAbbreviations(path string) error {
	var m map[string]string
	if err := readJSON(path, &m); err != nil {
		return err
	}
	for full, abbr := range m {
		s.journalAbbr[full] = abbr
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

var authorSplit = regexp.MustCompile(`(?i)\s+and\s+`)

// Authors reorders author names into "First Last" or "Last, First"
// form. Names are split on "and"; single-token names pass through.
func (s *Styler) Authors(authors, formatType string) string {
	if strings.TrimSpace(authors) == "" {
		return authors
	}

	parts := authorSplit.Split(authors, -1)
	formatted := make([]string, 0, len(parts))
	for _, author := range parts {
		author = strings.TrimSpace(author)
		if author == "" {
			continue
		}

		var first, last string
		if comma := strings.Index(author, ","); comma >= 0 {
			last = strings.TrimSpace(author[:comma])
			first = strings.TrimSpace(author[comma+1:])
		} else {
			words := strings.Fields(author)
			if len(words) == 1 {
				formatted = append(formatted, author)
				continue
			}
			last = words[len(words)-1]
			first = strings.Join(words[:len(words)-1], " ")
		}

		if formatType == LastFirst {
			formatted = append(formatted, strings.TrimSpace(last+", "+first))
		} else {
			formatted = append(formatted, strings.TrimSpace(first+" "+last))
		}
	}
	return strings.Join(formatted, " and ")
}

var dashRun = regexp.MustCompile(`[-\x{2013}\x{2014}]+`)

// Pages normalizes the dashes in a page range.
func (s *Styler) Pages(pages, formatType string) string {
	if strings.TrimSpace(pages) == "" {
		return pages
	}
	pages = strings.TrimSpace(pages)
	if formatType == SingleDash {
		return dashRun.ReplaceAllString(pages, "-")
	}
	return dashRun.ReplaceAllString(pages, "--")
}

// Journal rewrites a venue name to its abbreviated or full form using
// the journal table. Unknown venues pass through unchanged.
func (s *Styler) Journal(journal, formatType string) string {
	name := strings.TrimSpace(journal)
	if name == "" {
		return journal
	}

	mapping := s.journalAbbr
	if formatType == FullName {
		mapping = make(map[string]string, len(s.journalAbbr))
		for full, abbr := range s.journalAbbr {
			mapping[abbr] = full
		}
	}

	lower := strings.ToLower(name)
	for key, value := range mapping {
		if lower == strings.ToLower(key) {
			return value
		}
	}
	// Partial matches only count for keys long enough to be unambiguous.
	for key, value := range mapping {
		keyLower := strings.ToLower(key)
		if len(key) > 5 && (strings.Contains(lower, keyLower) || strings.Contains(keyLower, lower)) {
			return value
		}
	}
	return journal
}

// Standardize rewrites an entry's title, authors, venue and pages in
// place, recording each change in the ledger. It reports whether
// anything changed.
func (s *Styler) Standardize(r *record.Record, opts Options, ledger *changelog.Ledger) bool {
	modified := false

	if old := r.Get("title"); strings.TrimSpace(old) != "" {
		if updated := s.Title(old, opts.Title); updated != old {
			r.Set("title", updated)
			modified = true
			if ledger != nil {
				ledger.TitleFormatted(r.ID, old, updated, opts.Title)
			}
		}
	}

	if old := r.Get("author"); strings.TrimSpace(old) != "" {
		if updated := s.Authors(old, opts.Author); updated != old {
			r.Set("author", updated)
			modified = true
			if ledger != nil {
				ledger.FieldUpdated(r.ID, "author", old, updated, "formatting")
			}
		}
	}

	for _, field := range []string{"journal", "booktitle"} {
		old := r.Get(field)
		if strings.TrimSpace(old) == "" {
			continue
		}
		if updated := s.Journal(old, opts.Journal); updated != old {
			r.Set(field, updated)
			modified = true
			if ledger != nil {
				ledger.JournalNormalized(r.ID, old, updated, opts.Journal)
			}
		}
	}

	if old := r.Get("pages"); strings.TrimSpace(old) != "" {
		if updated := s.Pages(old, opts.Pages); updated != old {
			r.Set("pages", updated)
			modified = true
			if ledger != nil {
				ledger.FieldUpdated(r.ID, "pages", old, updated, "formatting")
			}
		}
	}

	// Collapse stray whitespace in every field.
	for _, name := range r.FieldNames() {
		old := r.Get(name)
		cleaned := strings.Join(strings.Fields(old), " ")
		if cleaned != old {
			r.Set(name, cleaned)
			modified = true
		}
	}

	return modified
}

// protectedByLength returns the canonical protected words, longest
// first, so longer phrases match before their substrings.
func (s *Styler) protectedByLength() []string {
	words := make([]string, 0, len(s.protected))
	for _, w := range s.protected {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return words
}
