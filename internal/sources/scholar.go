package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// titleOverlapGate is the minimum shared-word ratio between the search
// title and a Scholar hit before the hit is accepted. Scholar results are
// not identifier-addressed, so a looser 50% gate applies here; the general
// validator still applies its 60% gate downstream.
const titleOverlapGate = 0.5

var scholarYearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Scholar searches Google Scholar by title as the last-resort source.
// Results are scraped from the result page and synthesized into BibTeX.
type Scholar struct {
	client *Client

	// Overridable for tests.
	BaseURL string
}

// NewScholar creates the Google Scholar adapter.
func NewScholar(client *Client) *Scholar {
	return &Scholar{client: client, BaseURL: "https://scholar.google.com"}
}

func (a *Scholar) Name() string { return SourceScholar }

// Fetch searches for the request title, gates the first hit on word
// overlap, and synthesizes a BibTeX entry from the result metadata.
func (a *Scholar) Fetch(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", fetchErr(a.Name(), 0, ErrBadIdentifier, "no title to search with")
	}

	searchQuery := req.Title
	if req.Author != "" {
		searchQuery += " " + req.Author
	}

	resp, err := a.client.Get(ctx, a.BaseURL+"/scholar?q="+url.QueryEscape(searchQuery))
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "search request failed: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return "", fetchErr(a.Name(), 403, ErrForbidden, "search blocked (captcha or rate limit)")
	case http.StatusTooManyRequests:
		return "", fetchErr(a.Name(), 429, ErrRateLimited, "search throttled")
	default:
		return "", fetchErr(a.Name(), resp.StatusCode, statusSentinel(resp.StatusCode),
			"search request failed")
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "unparseable result page: %v", err)
	}

	result := doc.Find("div.gs_ri").First()
	if result.Length() == 0 {
		return "", fetchErr(a.Name(), 0, ErrNotFound, "no results for title")
	}

	hitTitle := strings.TrimSpace(result.Find("h3.gs_rt").Text())
	hitTitle = strings.TrimPrefix(hitTitle, "[PDF] ")
	hitTitle = strings.TrimPrefix(hitTitle, "[HTML] ")
	if hitTitle == "" {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "result missing title")
	}

	if overlap := TitleOverlap(req.Title, hitTitle); overlap < titleOverlapGate {
		return "", fetchErr(a.Name(), 0, ErrBadResponse,
			"result title mismatch (overlap %.0f%%)", overlap*100)
	}

	// The byline looks like "A Author, B Author - Venue Name, 2021 - publisher".
	byline := strings.TrimSpace(result.Find("div.gs_a").Text())
	authors, venue, year := parseScholarByline(byline)
	abstract := strings.TrimSpace(result.Find("div.gs_rs").Text())

	return synthesizeScholarBibtex(hitTitle, authors, venue, year, abstract), nil
}

// parseScholarByline splits a result byline into authors, venue, and year.
func parseScholarByline(byline string) (authors, venue, year string) {
	parts := strings.Split(byline, " - ")
	if len(parts) > 0 {
		authors = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		venuePart := strings.TrimSpace(parts[1])
		if m := scholarYearPattern.FindString(venuePart); m != "" {
			year = m
			venuePart = strings.TrimSpace(strings.TrimSuffix(venuePart, ", "+m))
		}
		venue = venuePart
	}
	return authors, venue, year
}

func synthesizeScholarBibtex(title, authors, venue, year, abstract string) string {
	entryType := "article"
	venueField := "journal"
	lowVenue := strings.ToLower(venue)
	if strings.Contains(lowVenue, "conference") || strings.Contains(lowVenue, "proceedings") {
		entryType = "inproceedings"
		venueField = "booktitle"
	}

	citeKey := scholarCiteKey(title, authors, year)

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, citeKey)
	fmt.Fprintf(&b, "  title = {%s},\n", title)
	if authors != "" {
		fmt.Fprintf(&b, "  author = {%s},\n", strings.ReplaceAll(authors, ", ", " and "))
	}
	if venue != "" {
		fmt.Fprintf(&b, "  %s = {%s},\n", venueField, venue)
	}
	if year != "" {
		fmt.Fprintf(&b, "  year = {%s},\n", year)
	}
	if abstract != "" {
		if len(abstract) > 500 {
			abstract = abstract[:497] + "..."
		}
		fmt.Fprintf(&b, "  abstract = {%s},\n", abstract)
	}
	b.WriteString("}\n")
	return b.String()
}

func scholarCiteKey(title, authors, year string) string {
	surname := "unknown"
	if authors != "" {
		first := strings.Split(authors, ",")[0]
		words := strings.Fields(first)
		if len(words) > 0 {
			surname = strings.ToLower(words[len(words)-1])
		}
	}
	firstWord := "paper"
	if words := strings.Fields(title); len(words) > 0 {
		firstWord = strings.ToLower(strings.Trim(words[0], ".,:;"))
	}
	return surname + year + firstWord
}

// TitleOverlap computes the shared-word ratio between two titles against
// the smaller word set, ignoring case.
func TitleOverlap(a, b string) float64 {
	wordsA := titleWordSet(a)
	wordsB := titleWordSet(b)
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

func titleWordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if w != "" {
			set[w] = true
		}
	}
	return set
}
