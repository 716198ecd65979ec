package validate

import (
	"strings"
	"testing"

	"github.com/bibfill/bibfill/internal/record"
)

func rec(fields map[string]string) *record.Record {
	r := &record.Record{ID: "test2020", Type: "article"}
	for k, v := range fields {
		r.Set(k, v)
	}
	return r
}

func TestCandidate(t *testing.T) {
	tests := []struct {
		name       string
		original   map[string]string
		candidate  map[string]string
		wantOK     bool
		wantFailed Check
	}{
		{
			name:      "identical records pass",
			original:  map[string]string{"title": "Deep Learning for Vision", "year": "2020", "doi": "10.1109/x.1"},
			candidate: map[string]string{"title": "Deep Learning for Vision", "year": "2020", "doi": "10.1109/x.1"},
			wantOK:    true,
		},
		{
			name:      "punctuation and case ignored in titles",
			original:  map[string]string{"title": "Attention Is All You Need"},
			candidate: map[string]string{"title": "attention is all you need."},
			wantOK:    true,
		},
		{
			name:       "unrelated title rejected",
			original:   map[string]string{"title": "Deep Learning for Vision"},
			candidate:  map[string]string{"title": "Quantum Error Correction Codes"},
			wantOK:     false,
			wantFailed: CheckTitle,
		},
		{
			name:       "candidate missing title rejected",
			original:   map[string]string{"title": "Deep Learning for Vision"},
			candidate:  map[string]string{"year": "2020"},
			wantOK:     false,
			wantFailed: CheckTitle,
		},
		{
			name:      "original missing title skips overlap check",
			original:  map[string]string{"year": "2020"},
			candidate: map[string]string{"title": "Anything At All", "year": "2020"},
			wantOK:    true,
		},
		{
			name:       "title-less candidate rejected even for title-less original",
			original:   map[string]string{"year": "2020", "doi": "10.1109/x.1"},
			candidate:  map[string]string{"year": "2020", "doi": "10.1109/x.1"},
			wantOK:     false,
			wantFailed: CheckTitle,
		},
		{
			name:      "year off by one tolerated",
			original:  map[string]string{"title": "Deep Learning for Vision", "year": "2020"},
			candidate: map[string]string{"title": "Deep Learning for Vision", "year": "2021"},
			wantOK:    true,
		},
		{
			name:       "year off by two rejected",
			original:   map[string]string{"title": "Deep Learning for Vision", "year": "2020"},
			candidate:  map[string]string{"title": "Deep Learning for Vision", "year": "2022"},
			wantOK:     false,
			wantFailed: CheckYear,
		},
		{
			name:      "non-numeric year skipped",
			original:  map[string]string{"title": "Deep Learning for Vision", "year": "in press"},
			candidate: map[string]string{"title": "Deep Learning for Vision", "year": "2020"},
			wantOK:    true,
		},
		{
			name:      "doi compared after normalization",
			original:  map[string]string{"title": "Deep Learning for Vision", "doi": "https://doi.org/10.1109/X.1"},
			candidate: map[string]string{"title": "Deep Learning for Vision", "doi": "10.1109/x.1"},
			wantOK:    true,
		},
		{
			name:       "different doi rejected",
			original:   map[string]string{"title": "Deep Learning for Vision", "doi": "10.1109/x.1"},
			candidate:  map[string]string{"title": "Deep Learning for Vision", "doi": "10.1145/y.2"},
			wantOK:     false,
			wantFailed: CheckDOI,
		},
		{
			name:      "missing doi on either side skipped",
			original:  map[string]string{"title": "Deep Learning for Vision", "doi": "10.1109/x.1"},
			candidate: map[string]string{"title": "Deep Learning for Vision"},
			wantOK:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidate(rec(tt.original), rec(tt.candidate))
			if got.OK != tt.wantOK {
				t.Fatalf("Candidate().OK = %v, want %v (detail: %s)", got.OK, tt.wantOK, got.Detail)
			}
			if !tt.wantOK {
				if got.Failed != tt.wantFailed {
					t.Errorf("Failed = %q, want %q", got.Failed, tt.wantFailed)
				}
				if got.Detail == "" {
					t.Error("rejection should carry a detail message")
				}
			}
		})
	}
}

func TestCandidateShortCircuits(t *testing.T) {
	// Both title and year are wrong; the title check runs first.
	original := rec(map[string]string{"title": "Deep Learning for Vision", "year": "2020"})
	candidate := rec(map[string]string{"title": "Quantum Error Correction", "year": "1999"})

	got := Candidate(original, candidate)
	if got.OK {
		t.Fatal("Candidate() accepted a mismatched record")
	}
	if got.Failed != CheckTitle {
		t.Errorf("Failed = %q, want the first check in order", got.Failed)
	}
	if !strings.Contains(got.Detail, "overlap") {
		t.Errorf("Detail = %q, want overlap explanation", got.Detail)
	}
}
