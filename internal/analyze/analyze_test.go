package analyze

import (
	"strings"
	"testing"

	"github.com/bibfill/bibfill/internal/record"
)

func rec(id, entryType string, fields ...string) *record.Record {
	r := record.New(id, entryType)
	for i := 0; i+1 < len(fields); i += 2 {
		r.Set(fields[i], fields[i+1])
	}
	return r
}

func testRecords() []*record.Record {
	return []*record.Record{
		rec("a", "article", "year", "2021", "journal", "Nature"),
		rec("b", "article", "year", "2019", "journal", "Nature"),
		rec("c", "inproceedings", "year", "2021", "booktitle", "NeurIPS"),
		rec("d", "misc", "title", "No Venue Or Year"),
	}
}

func TestRecords(t *testing.T) {
	rep := Records(testRecords())

	if rep.Total != 4 {
		t.Fatalf("Total = %d, want 4", rep.Total)
	}

	wantTypes := []Count{{"article", 2}, {"inproceedings", 1}, {"misc", 1}}
	if len(rep.Types) != len(wantTypes) {
		t.Fatalf("Types = %v", rep.Types)
	}
	for i, want := range wantTypes {
		if rep.Types[i] != want {
			t.Errorf("Types[%d] = %v, want %v", i, rep.Types[i], want)
		}
	}

	wantYears := []Count{{"2021", 2}, {"2019", 1}, {"Unknown", 1}}
	for i, want := range wantYears {
		if rep.Years[i] != want {
			t.Errorf("Years[%d] = %v, want %v", i, rep.Years[i], want)
		}
	}

	if rep.Publications[0] != (Count{"Nature", 2}) {
		t.Errorf("Publications[0] = %v, want Nature x2", rep.Publications[0])
	}
}

func TestRecordsYearsSortNewestFirst(t *testing.T) {
	rep := Records([]*record.Record{
		rec("a", "article", "year", "1998"),
		rec("b", "article", "year", "2023"),
		rec("c", "article"),
		rec("d", "article", "year", "2005"),
	})

	got := make([]string, len(rep.Years))
	for i, c := range rep.Years {
		got[i] = c.Key
	}
	want := []string{"2023", "2005", "1998", "Unknown"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Years order = %v, want %v", got, want)
		}
	}
}

func TestRender(t *testing.T) {
	var sb strings.Builder
	Records(testRecords()).Render(&sb)
	out := sb.String()

	for _, want := range []string{
		"Analyzed 4 entries",
		"Reference Types:",
		"Publication Years:",
		"Publications:",
		"article",
		"Nature",
		"NeurIPS",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
