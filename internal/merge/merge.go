// Package merge combines candidate records fetched from several sources
// into a single entry, field by field.
package merge

import (
	"regexp"
	"strings"

	"github.com/bibfill/bibfill/internal/record"
)

// fieldWeights ranks fields by how much a populated value contributes to
// an entry's completeness score.
var fieldWeights = map[string]int{
	"author":       10,
	"title":        10,
	"year":         9,
	"doi":          9,
	"journal":      8,
	"booktitle":    8,
	"abstract":     8,
	"volume":       7,
	"number":       7,
	"pages":        7,
	"keywords":     7,
	"publisher":    6,
	"organization": 6,
	"issn":         6,
	"isbn":         6,
	"edition":      6,
	"address":      5,
	"month":        5,
	"url":          5,
	"series":       5,
	"note":         4,
}

// typePriority orders entry types from most to least preferred when the
// sources disagree.
var typePriority = []string{
	"article", "inproceedings", "book", "incollection", "inbook",
	"proceedings", "conference", "techreport", "phdthesis",
	"mastersthesis", "unpublished", "misc",
}

var authorSep = regexp.MustCompile(`(?i)\s+and\s+`)

// Score rates how complete an entry is, from 0 to 100. Each populated
// weighted field contributes its weight, scaled up by a small bonus for
// longer values.
func Score(r *record.Record) float64 {
	var score, max float64
	for field, weight := range fieldWeights {
		max += float64(weight)
		v := strings.TrimSpace(r.Get(field))
		if v == "" {
			continue
		}
		lengthBonus := float64(len(v)) / 100
		if lengthBonus > 1 {
			lengthBonus = 1
		}
		score += float64(weight) * (0.7 + 0.3*lengthBonus)
	}
	if max == 0 {
		return 0
	}
	return score / max * 100
}

// Entries merges candidates from several sources into one record. The
// seed is the candidate from the highest-priority source, or the one with
// the best completeness score when no priority order is given. Every
// weighted field is then re-picked across all candidates: the fullest
// author list, range-bearing pages, and otherwise the most complete
// value. The original entry ID is always preserved, and MergedFrom
// records which sources contributed.
func Entries(candidates []record.SourceRecord, originalID string, sourcePriority []string) *record.SourceRecord {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) == 1 {
		merged := candidates[0].Record.Clone()
		merged.ID = originalID
		return &record.SourceRecord{
			Record:     merged,
			Source:     candidates[0].Source,
			MergedFrom: []string{candidates[0].Source},
		}
	}

	merged := seed(candidates, sourcePriority).Clone()
	merged.ID = originalID

	for field := range fieldWeights {
		var values []string
		for _, c := range candidates {
			if v := strings.TrimSpace(c.Record.Get(field)); v != "" {
				values = append(values, c.Record.Get(field))
			}
		}
		if len(values) == 0 {
			continue
		}

		switch field {
		case "author":
			merged.Set(field, bestAuthors(values))
		case "pages":
			merged.Set(field, bestPages(values))
		default:
			best := values[0]
			for _, v := range values[1:] {
				if moreComplete(v, best) {
					best = v
				}
			}
			merged.Set(field, best)
		}
	}

	merged.Type = bestType(candidates, merged.Type)

	mergedFrom := make([]string, 0, len(candidates))
	for _, c := range candidates {
		mergedFrom = append(mergedFrom, c.Source)
	}
	return &record.SourceRecord{Record: merged, Source: "merged", MergedFrom: mergedFrom}
}

// FieldSource reports which source supplied the merged value of a field,
// or "unknown" when no candidate matches it.
func FieldSource(field string, candidates []record.SourceRecord, mergedValue string) string {
	want := cleanValue(mergedValue)
	for _, c := range candidates {
		if cleanValue(c.Record.Get(field)) == want && c.Record.Has(field) {
			return c.Source
		}
	}
	return "unknown"
}

func seed(candidates []record.SourceRecord, sourcePriority []string) *record.Record {
	for _, source := range sourcePriority {
		for _, c := range candidates {
			if c.Source == source {
				return c.Record
			}
		}
	}
	if len(sourcePriority) > 0 {
		return candidates[0].Record
	}

	best := candidates[0].Record
	bestScore := Score(best)
	for _, c := range candidates[1:] {
		if s := Score(c.Record); s > bestScore {
			best, bestScore = c.Record, s
		}
	}
	return best
}

// bestAuthors picks the list naming the most authors, breaking ties by
// length.
func bestAuthors(values []string) string {
	best := values[0]
	bestCount := len(authorSep.Split(best, -1))
	for _, v := range values[1:] {
		count := len(authorSep.Split(v, -1))
		if count > bestCount || (count == bestCount && len(v) > len(best)) {
			best, bestCount = v, count
		}
	}
	return best
}

// bestPages prefers a page range over a bare count or single page, then
// the longest value.
func bestPages(values []string) string {
	var ranges []string
	for _, v := range values {
		// Some sources emit en-dash page ranges.
		if strings.ContainsAny(v, "-–") {
			ranges = append(ranges, v)
		}
	}
	pool := values
	if len(ranges) > 0 {
		pool = ranges
	}
	best := pool[0]
	for _, v := range pool[1:] {
		if len(v) > len(best) {
			best = v
		}
	}
	return best
}

// moreComplete reports whether a beats b: much longer values win
// outright, similar lengths fall back to word count.
func moreComplete(a, b string) bool {
	va := cleanValue(a)
	vb := cleanValue(b)
	if va == "" {
		return false
	}
	if vb == "" {
		return true
	}

	la, lb := len(va), len(vb)
	longer := la
	if lb > longer {
		longer = lb
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	if float64(diff) > float64(longer)*0.3 {
		return la > lb
	}

	return len(strings.Fields(va)) >= len(strings.Fields(vb))
}

func bestType(candidates []record.SourceRecord, fallback string) string {
	present := make(map[string]bool)
	for _, c := range candidates {
		if t := strings.ToLower(c.Record.Type); t != "" {
			present[t] = true
		}
	}
	for _, t := range typePriority {
		if present[t] {
			return t
		}
	}
	return fallback
}

func cleanValue(v string) string {
	v = strings.Join(strings.Fields(v), " ")
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '{' && v[len(v)-1] == '}') {
			v = strings.TrimSpace(v[1 : len(v)-1])
		}
	}
	return v
}
