package format

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bibfill/bibfill/internal/changelog"
	"github.com/bibfill/bibfill/internal/record"
)

func TestTitleCase(t *testing.T) {
	s := NewStyler()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			"small words lowercase",
			"a survey on deep learning for natural language processing",
			"A Survey on Deep Learning for Natural Language Processing",
		},
		{
			"protected acronym braced",
			"attention is all you need",
			"Attention Is All You Need",
		},
		{
			"known acronyms keep case",
			"the {IEEE} 802.11 standard",
			"The {IEEE} 802. 11 Standard",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Title(tt.title, TitleCase); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitleCaseProtectsAcronyms(t *testing.T) {
	s := NewStyler()
	got := s.Title("bert pre-training with ieee standards", TitleCase)

	if !strings.Contains(got, "{BERT}") {
		t.Errorf("Title() = %q, want BERT braced with canonical case", got)
	}
	if !strings.Contains(got, "{IEEE}") {
		t.Errorf("Title() = %q, want IEEE braced", got)
	}
}

func TestTitleCaseDetectsUnknownAcronyms(t *testing.T) {
	s := NewStyler()
	got := s.Title("the XYZQ protocol for IoT devices", TitleCase)

	if !strings.Contains(got, "{XYZQ}") {
		t.Errorf("Title() = %q, want all-caps token braced", got)
	}
	if !strings.Contains(got, "{IoT}") {
		t.Errorf("Title() = %q, want mixed-case acronym braced", got)
	}
}

func TestSentenceCase(t *testing.T) {
	s := NewStyler()
	got := s.Title("A Survey On Deep Learning For NLP", SentenceCase)

	if !strings.HasPrefix(got, "A survey on deep learning") {
		t.Errorf("Title() = %q, want sentence case", got)
	}
	if !strings.Contains(got, "{NLP}") {
		t.Errorf("Title() = %q, want NLP protected", got)
	}
}

func TestPreserve(t *testing.T) {
	s := NewStyler()

	got := s.Title("An ieee Approach", Preserve)
	if got != "An {ieee} Approach" {
		t.Errorf("Title(preserve) = %q", got)
	}

	// Already-braced titles pass through untouched.
	braced := "An {IEEE} Approach"
	if got := s.Title(braced, Preserve); got != braced {
		t.Errorf("Title(braced, preserve) = %q, want unchanged", got)
	}
}

func TestAuthors(t *testing.T) {
	s := NewStyler()

	tests := []struct {
		name       string
		authors    string
		formatType string
		want       string
	}{
		{
			"last-first to first-last",
			"Smith, John and Brown, Alice",
			FirstLast,
			"John Smith and Alice Brown",
		},
		{
			"first-last to last-first",
			"John Smith and Alice Brown",
			LastFirst,
			"Smith, John and Brown, Alice",
		},
		{
			"single author",
			"Smith, John",
			FirstLast,
			"John Smith",
		},
		{
			"three authors",
			"Smith, John and Brown, Alice and Wang, Li",
			FirstLast,
			"John Smith and Alice Brown and Li Wang",
		},
		{
			"mononym passes through",
			"Aristotle",
			LastFirst,
			"Aristotle",
		},
		{
			"case-insensitive separator",
			"Smith, John AND Brown, Alice",
			FirstLast,
			"John Smith and Alice Brown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Authors(tt.authors, tt.formatType); got != tt.want {
				t.Errorf("Authors() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPages(t *testing.T) {
	s := NewStyler()

	tests := []struct {
		pages      string
		formatType string
		want       string
	}{
		{"123-135", DoubleDash, "123--135"},
		{"123--135", DoubleDash, "123--135"},
		{"123–135", DoubleDash, "123--135"},
		{"123—135", DoubleDash, "123--135"},
		{"123--135", SingleDash, "123-135"},
		{"123", DoubleDash, "123"},
		{"", DoubleDash, ""},
	}
	for _, tt := range tests {
		if got := s.Pages(tt.pages, tt.formatType); got != tt.want {
			t.Errorf("Pages(%q, %s) = %q, want %q", tt.pages, tt.formatType, got, tt.want)
		}
	}
}

func TestJournal(t *testing.T) {
	s := NewStyler()

	full := "IEEE Transactions on Pattern Analysis and Machine Intelligence"
	abbr := "IEEE Trans. Pattern Anal. Mach. Intell."

	if got := s.Journal(full, Abbreviation); got != abbr {
		t.Errorf("Journal(full, abbreviation) = %q, want %q", got, abbr)
	}
	if got := s.Journal(abbr, FullName); got != full {
		t.Errorf("Journal(abbr, full) = %q, want %q", got, full)
	}
	if got := s.Journal(strings.ToLower(full), Abbreviation); got != abbr {
		t.Errorf("Journal(lowercased) = %q, want case-insensitive match", got)
	}
	if got := s.Journal("Unknown Journal of Nothing", Abbreviation); got != "Unknown Journal of Nothing" {
		t.Errorf("Journal(unknown) = %q, want original", got)
	}
}

func TestStandardize(t *testing.T) {
	s := NewStyler()
	ledger := changelog.New()

	r := record.New("smith2020", "article")
	r.Set("title", "a survey on deep learning")
	r.Set("author", "Smith, John and Brown, Alice")
	r.Set("journal", "IEEE Transactions on Pattern Analysis and Machine Intelligence")
	r.Set("pages", "123-135")
	r.Set("note", "  extra   spaces  ")

	if !s.Standardize(r, DefaultOptions(), ledger) {
		t.Fatal("Standardize() = false, want true")
	}

	if got := r.Get("title"); !strings.HasPrefix(got, "A Survey") {
		t.Errorf("title = %q", got)
	}
	if got := r.Get("author"); got != "John Smith and Alice Brown" {
		t.Errorf("author = %q", got)
	}
	if got := r.Get("journal"); got != "IEEE Trans. Pattern Anal. Mach. Intell." {
		t.Errorf("journal = %q", got)
	}
	if got := r.Get("pages"); got != "123--135" {
		t.Errorf("pages = %q", got)
	}
	if got := r.Get("note"); got != "extra spaces" {
		t.Errorf("note = %q, want whitespace collapsed", got)
	}

	stats := ledger.Stats()
	if stats.TitlesFormatted != 1 || stats.JournalsNormalized != 1 || stats.FieldsUpdated != 2 {
		t.Errorf("ledger stats = %+v", stats)
	}
}

func TestStandardizeNoChanges(t *testing.T) {
	s := NewStyler()
	r := record.New("x", "article")
	r.Set("pages", "1--10")

	if s.Standardize(r, DefaultOptions(), nil) {
		t.Error("Standardize() = true for an already-clean entry")
	}
}

func TestLoadWordLists(t *testing.T) {
	dir := t.TempDir()

	protected := filepath.Join(dir, "protected_words.json")
	if err := os.WriteFile(protected, []byte(`{"acronyms":["QUIC"],"proper_nouns":["Kubernetes"]}`), 0644); err != nil {
		t.Fatal(err)
	}
	abbr := filepath.Join(dir, "journal_abbr.json")
	if err := os.WriteFile(abbr, []byte(`{"Journal of Testing":"J. Test."}`), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewStyler()
	if err := s.LoadProtectedWords(protected); err != nil {
		t.Fatalf("LoadProtectedWords() error = %v", err)
	}
	if err := s.LoadJournalAbbreviations(abbr); err != nil {
		t.Fatalf("LoadJournalAbbreviations() error = %v", err)
	}

	if got := s.Title("the quic handshake", TitleCase); !strings.Contains(got, "{QUIC}") {
		t.Errorf("Title() = %q, want loaded word protected", got)
	}
	if got := s.Journal("Journal of Testing", Abbreviation); got != "J. Test." {
		t.Errorf("Journal() = %q, want loaded abbreviation", got)
	}
}
