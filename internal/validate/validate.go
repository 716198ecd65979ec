// Package validate checks a fetched candidate record against the entry it
// is supposed to complete, so a bad search hit never overwrites good data.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bibfill/bibfill/internal/doi"
	"github.com/bibfill/bibfill/internal/record"
)

// MinTitleOverlap is the fraction of shared title words below which a
// candidate is rejected.
const MinTitleOverlap = 0.6

// Check names the individual validations, in the order they run.
type Check string

const (
	CheckTitle Check = "title"
	CheckYear  Check = "year"
	CheckDOI   Check = "doi"
)

// Result reports the outcome of validating one candidate. When OK is
// false, Failed names the first check that rejected it and Detail says
// why.
type Result struct {
	OK     bool
	Failed Check
	Detail string
}

func fail(c Check, format string, args ...interface{}) Result {
	return Result{Failed: c, Detail: fmt.Sprintf(format, args...)}
}

func ok() Result { return Result{OK: true} }

// Candidate validates a fetched record against the original entry. Checks
// run in order and stop at the first failure: title word overlap of at
// least MinTitleOverlap, publication year within one, and normalized DOI
// equality. The year and DOI checks are skipped when either side lacks
// the field; the candidate must always carry a title, even when the
// original has none to compare it against.
func Candidate(original, candidate *record.Record) Result {
	origTitle := original.Get("title")
	candTitle := candidate.Get("title")
	if origTitle != "" {
		if candTitle == "" {
			return fail(CheckTitle, "candidate has no title to compare")
		}
		if overlap := titleOverlap(origTitle, candTitle); overlap < MinTitleOverlap {
			return fail(CheckTitle, "title overlap %.2f below %.2f: %q vs %q",
				overlap, MinTitleOverlap, origTitle, candTitle)
		}
	} else if candTitle == "" {
		// With no title on either side there is nothing tying the
		// candidate to the entry at all.
		return fail(CheckTitle, "neither entry nor candidate has a title")
	}

	origYear, origOK := parseYear(original.Get("year"))
	candYear, candOK := parseYear(candidate.Get("year"))
	if origOK && candOK {
		diff := origYear - candYear
		if diff < 0 {
			diff = -diff
		}
		if diff > 1 {
			return fail(CheckYear, "year mismatch: %d vs %d", origYear, candYear)
		}
	}

	origDOI := doi.Normalize(original.Get("doi"))
	candDOI := doi.Normalize(candidate.Get("doi"))
	if origDOI != "" && candDOI != "" && !doi.Equal(origDOI, candDOI) {
		return fail(CheckDOI, "DOI mismatch: %s vs %s", origDOI, candDOI)
	}

	return ok()
}

func parseYear(s string) (int, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return y, true
}

// titleOverlap is the fraction of shared words relative to the shorter
// title, computed over lowercased words with punctuation stripped.
func titleOverlap(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	shared := 0
	for w := range wordsA {
		if wordsB[w] {
			shared++
		}
	}

	min := len(wordsA)
	if len(wordsB) < min {
		min = len(wordsB)
	}
	return float64(shared) / float64(min)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
		})
		if w != "" {
			set[w] = true
		}
	}
	return set
}
