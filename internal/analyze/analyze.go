// Package analyze summarizes a bibliography: entry type, publication
// year, and venue distributions.
package analyze

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bibfill/bibfill/internal/record"
)

// Count is one histogram bucket.
type Count struct {
	Key string
	N   int
}

// Report holds the distributions for one bibliography.
type Report struct {
	Total int

	// Types is sorted by entry type name.
	Types []Count
	// Years is sorted newest first; entries without a year are grouped
	// under "Unknown" at the end.
	Years []Count
	// Publications is sorted by frequency, most common first.
	Publications []Count
}

// Records builds a report from parsed entries.
func Records(records []*record.Record) *Report {
	types := make(map[string]int)
	years := make(map[string]int)
	pubs := make(map[string]int)

	for _, r := range records {
		types[r.Type]++

		year := r.Get("year")
		if year == "" {
			year = "Unknown"
		}
		years[year]++

		venue := r.Get("journal")
		if venue == "" {
			venue = r.Get("booktitle")
		}
		if venue == "" {
			venue = "Unknown"
		}
		pubs[venue]++
	}

	rep := &Report{Total: len(records)}

	rep.Types = counts(types)
	sort.Slice(rep.Types, func(i, j int) bool { return rep.Types[i].Key < rep.Types[j].Key })

	rep.Years = counts(years)
	sort.Slice(rep.Years, func(i, j int) bool {
		yi, errI := strconv.Atoi(rep.Years[i].Key)
		yj, errJ := strconv.Atoi(rep.Years[j].Key)
		switch {
		case errI == nil && errJ == nil:
			return yi > yj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return rep.Years[i].Key < rep.Years[j].Key
		}
	})

	rep.Publications = counts(pubs)
	sort.Slice(rep.Publications, func(i, j int) bool {
		if rep.Publications[i].N != rep.Publications[j].N {
			return rep.Publications[i].N > rep.Publications[j].N
		}
		return rep.Publications[i].Key < rep.Publications[j].Key
	})

	return rep
}

func counts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, n := range m {
		out = append(out, Count{Key: k, N: n})
	}
	return out
}

// Render writes the report as bordered tables.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Analyzed %d entries\n", r.Total)
	renderTable(w, "Reference Types", "Type", r.Types)
	renderTable(w, "Publication Years", "Year", r.Years)
	renderTable(w, "Publications", "Publication", r.Publications)
}

func renderTable(w io.Writer, title, keyHeader string, rows []Count) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(keyHeader, "Count")
	for _, c := range rows {
		t.Row(c.Key, strconv.Itoa(c.N))
	}
	fmt.Fprintf(w, "\n%s:\n%s\n", title, t)
}
