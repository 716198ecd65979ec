package bib

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/bibfill/bibfill/internal/record"
)

const sampleBib = `@article{smith2023,
  author = {Smith, John and Doe, Jane},
  title = {A Test Paper},
  journal = {IEEE Transactions on Testing},
  year = {2023},
  doi = {10.1109/test.2023.123456},
}

@inproceedings{doe2022,
  author = {Doe, Jane},
  title = {Conference Findings},
  booktitle = {Proceedings of the Testing Conference},
  year = {2022},
}
`

func TestParseString(t *testing.T) {
	records, err := ParseString(sampleBib)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	first := records[0]
	if first.ID != "smith2023" {
		t.Errorf("ID = %q, want smith2023", first.ID)
	}
	if first.Type != "article" {
		t.Errorf("Type = %q, want article", first.Type)
	}
	if got := first.Get("doi"); got != "10.1109/test.2023.123456" {
		t.Errorf("doi = %q", got)
	}

	second := records[1]
	if second.Type != "inproceedings" {
		t.Errorf("Type = %q, want inproceedings", second.Type)
	}
	if !second.Has("booktitle") {
		t.Error("booktitle missing on inproceedings entry")
	}
}

func TestParseOne(t *testing.T) {
	r, err := ParseOne(`@article{x, title = {Only Entry}, year = {2020}}`)
	if err != nil {
		t.Fatalf("ParseOne() error = %v", err)
	}
	if r.Get("title") != "Only Entry" {
		t.Errorf("title = %q", r.Get("title"))
	}

	if _, err := ParseOne(""); err == nil {
		t.Error("ParseOne(empty) = nil error, want error")
	}
}

func TestFormatFieldOrder(t *testing.T) {
	r := record.New("x", "article")
	r.Set("doi", "10.1145/1")
	r.Set("title", "T")
	r.Set("author", "A")
	r.Set("zzz", "last")

	out := Format(r)
	authorIdx := strings.Index(out, "author")
	titleIdx := strings.Index(out, "title")
	doiIdx := strings.Index(out, "doi")
	zzzIdx := strings.Index(out, "zzz")

	if !(authorIdx < titleIdx && titleIdx < doiIdx && doiIdx < zzzIdx) {
		t.Errorf("field order wrong:\n%s", out)
	}
}

func TestFormatSkipsBlankFields(t *testing.T) {
	r := record.New("x", "article")
	r.Set("title", "T")
	r.Set("journal", "  ")

	out := Format(r)
	if strings.Contains(out, "journal") {
		t.Errorf("blank field emitted:\n%s", out)
	}
}

func TestRoundTripFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.bib")

	records, err := ParseString(sampleBib)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, records); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	again, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(again) != len(records) {
		t.Fatalf("round-trip entry count = %d, want %d", len(again), len(records))
	}
	for i := range again {
		if again[i].ID != records[i].ID {
			t.Errorf("entry %d ID = %q, want %q", i, again[i].ID, records[i].ID)
		}
		if again[i].Get("title") != records[i].Get("title") {
			t.Errorf("entry %d title mismatch", i)
		}
	}
}

func TestSortByID(t *testing.T) {
	records := []*record.Record{
		record.New("zhou2021", "article"),
		record.New("abel2019", "inproceedings"),
		record.New("miller2020", "article"),
	}
	SortByID(records)

	got := []string{records[0].ID, records[1].ID, records[2].ID}
	want := []string{"abel2019", "miller2020", "zhou2021"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
