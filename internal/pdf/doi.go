// Package pdf pulls bibliographic identifiers out of paper PDFs and
// opens generated bibliographies in a viewer.
package pdf

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/bibfill/bibfill/internal/doi"
)

// maxScanPages bounds the DOI search; publishers stamp the DOI on the
// first page, occasionally the second.
const maxScanPages = 3

// ExtractDOI scans the opening pages of a paper PDF for a DOI.
// Returns "" when none is found; only an unreadable file is an error.
func ExtractDOI(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := maxScanPages
	if r.NumPage() < pages {
		pages = r.NumPage()
	}

	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if d := doi.FindInText(text); d != "" {
			return d, nil
		}
	}
	return "", nil
}

// ExtractTitle returns the first substantial line of the first page. A
// heuristic, but good enough to seed a title search when a PDF carries
// no DOI.
func ExtractTitle(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return "", nil
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 20 && !looksLikeHeader(line) {
			return line, nil
		}
	}
	return "", nil
}

// looksLikeHeader filters running heads and copyright lines that would
// otherwise be mistaken for a title.
func looksLikeHeader(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "copyright"):
		return true
	case strings.Contains(lower, "journal"):
		return true
	case strings.Contains(lower, "volume") && strings.Contains(lower, "issue"):
		return true
	case strings.Contains(lower, "proceedings of"):
		return true
	}
	return false
}
