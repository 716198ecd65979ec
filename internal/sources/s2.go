package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bibfill/bibfill/internal/doi"
)

// SemanticScholar queries the Semantic Scholar Graph API. Its best use is
// mapping an arXiv preprint to its formally published version, but it also
// serves as a regular adapter by synthesizing BibTeX from paper metadata.
type SemanticScholar struct {
	client *Client
	apiKey string

	// Overridable for tests.
	BaseURL string
}

// NewSemanticScholar creates the adapter. The API key may be empty; the
// public tier applies then.
func NewSemanticScholar(client *Client, apiKey string) *SemanticScholar {
	return &SemanticScholar{
		client:  client,
		apiKey:  apiKey,
		BaseURL: "https://api.semanticscholar.org",
	}
}

func (a *SemanticScholar) Name() string { return SourceS2 }

// s2Paper is the subset of the Graph API paper response the adapter uses.
type s2Paper struct {
	Title            string   `json:"title"`
	Venue            string   `json:"venue"`
	Year             int      `json:"year"`
	PublicationTypes []string `json:"publicationTypes"`
	ExternalIDs      struct {
		DOI string `json:"DOI"`
	} `json:"externalIds"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

// PublishedHit describes a formally published version of a preprint.
type PublishedHit struct {
	DOI   string
	Title string
	Venue string
	Year  int
}

// Fetch looks up the paper for an arXiv identifier and synthesizes BibTeX
// from its metadata.
func (a *SemanticScholar) Fetch(ctx context.Context, req Request) (string, error) {
	arxivID := doi.ArxivIDFromDOI(req.DOI)
	if arxivID == "" {
		return "", fetchErr(a.Name(), 0, ErrBadIdentifier,
			"cannot derive arXiv ID from DOI %q", req.DOI)
	}

	paper, err := a.lookup(ctx, arxivID)
	if err != nil {
		return "", err
	}
	if paper.Title == "" {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "paper record missing title")
	}

	names := make([]string, 0, len(paper.Authors))
	for _, au := range paper.Authors {
		if n := strings.TrimSpace(au.Name); n != "" {
			names = append(names, n)
		}
	}

	entryType := "article"
	venueField := "journal"
	for _, t := range paper.PublicationTypes {
		if t == "Conference" {
			entryType = "inproceedings"
			venueField = "booktitle"
			break
		}
	}

	citeKey := "s2_" + strings.NewReplacer(".", "_", "/", "_").Replace(arxivID)

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, citeKey)
	fmt.Fprintf(&b, "  title = {%s},\n", paper.Title)
	if len(names) > 0 {
		fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(names, " and "))
	}
	if paper.Venue != "" {
		fmt.Fprintf(&b, "  %s = {%s},\n", venueField, paper.Venue)
	}
	if paper.Year > 0 {
		fmt.Fprintf(&b, "  year = {%d},\n", paper.Year)
	}
	if paper.ExternalIDs.DOI != "" {
		fmt.Fprintf(&b, "  doi = {%s},\n", paper.ExternalIDs.DOI)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// PublishedVersion reports the formally published version of an arXiv
// preprint, or nil when Semantic Scholar knows of none. A paper counts as
// published when it carries a DOI and a journal/conference publication
// type.
func (a *SemanticScholar) PublishedVersion(ctx context.Context, arxivID string) (*PublishedHit, error) {
	paper, err := a.lookup(ctx, doi.StripVersion(arxivID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if paper.ExternalIDs.DOI == "" {
		return nil, nil
	}
	published := false
	for _, t := range paper.PublicationTypes {
		if t == "JournalArticle" || t == "Conference" {
			published = true
			break
		}
	}
	if !published {
		return nil, nil
	}

	return &PublishedHit{
		DOI:   paper.ExternalIDs.DOI,
		Title: paper.Title,
		Venue: paper.Venue,
		Year:  paper.Year,
	}, nil
}

func (a *SemanticScholar) lookup(ctx context.Context, arxivID string) (*s2Paper, error) {
	fields := url.Values{
		"fields": {"externalIds,title,venue,year,publicationTypes,authors"},
	}
	reqURL := a.BaseURL + "/graph/v1/paper/arXiv:" + url.PathEscape(arxivID) + "?" + fields.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fetchErr(a.Name(), 0, ErrNetwork, "building request: %v", err)
	}
	if a.apiKey != "" {
		req.Header.Set("x-api-key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fetchErr(a.Name(), 0, ErrNetwork, "API request failed: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fetchErr(a.Name(), 404, ErrNotFound, "paper arXiv:%s not found", arxivID)
	default:
		return nil, fetchErr(a.Name(), resp.StatusCode, statusSentinel(resp.StatusCode),
			"API request failed")
	}

	var paper s2Paper
	if err := json.NewDecoder(resp.Body).Decode(&paper); err != nil {
		return nil, fetchErr(a.Name(), 0, ErrBadResponse, "unparseable paper response: %v", err)
	}
	return &paper, nil
}
