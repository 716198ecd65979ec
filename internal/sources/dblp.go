package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DBLP searches the DBLP publication index by title. DBLP is not
// identifier-addressed, so the adapter finds the best non-preprint hit and
// downloads its curated BibTeX record.
type DBLP struct {
	client *Client

	// Overridable for tests.
	BaseURL string
}

// NewDBLP creates the DBLP adapter.
func NewDBLP(client *Client) *DBLP {
	return &DBLP{client: client, BaseURL: "https://dblp.org"}
}

func (a *DBLP) Name() string { return SourceDBLP }

// dblpSearchResponse is the JSON shape of the publication search API.
type dblpSearchResponse struct {
	Result struct {
		Hits struct {
			Hit []struct {
				Info dblpInfo `json:"info"`
			} `json:"hit"`
		} `json:"hits"`
	} `json:"result"`
}

type dblpInfo struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Venue any    `json:"venue"`
	Year  string `json:"year"`
	Type  string `json:"type"`
	DOI   string `json:"doi"`
}

func (i dblpInfo) venueString() string {
	switch v := i.Venue.(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// Fetch searches by the request title and returns the BibTeX record of the
// first published (non-arXiv) hit whose title matches.
func (a *DBLP) Fetch(ctx context.Context, req Request) (string, error) {
	hit, err := a.search(ctx, req.Title)
	if err != nil {
		return "", err
	}
	if hit == nil {
		return "", fetchErr(a.Name(), 0, ErrNotFound, "no published match for title")
	}

	resp, err := a.client.Get(ctx, a.BaseURL+"/rec/"+hit.Key+".bib")
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "record download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fetchErr(a.Name(), resp.StatusCode, statusSentinel(resp.StatusCode),
			"record download failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "reading record: %v", err)
	}

	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "@") {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "record is not BibTeX")
	}
	return text, nil
}

// SearchDOI returns the DOI of the first published (non-arXiv) hit whose
// title matches, or "" when none exists. Used by the arXiv published-
// version detector.
func (a *DBLP) SearchDOI(ctx context.Context, title string) (string, error) {
	hit, err := a.search(ctx, title)
	if err != nil {
		return "", err
	}
	if hit == nil {
		return "", nil
	}
	return hit.DOI, nil
}

func (a *DBLP) search(ctx context.Context, title string) (*dblpInfo, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fetchErr(a.Name(), 0, ErrBadIdentifier, "no title to search with")
	}
	clean := bracePattern.ReplaceAllString(title, "")

	query := url.Values{
		"q":      {clean},
		"format": {"json"},
		"h":      {"5"},
	}
	resp, err := a.client.Get(ctx, a.BaseURL+"/search/publ/api?"+query.Encode())
	if err != nil {
		return nil, fetchErr(a.Name(), 0, ErrNetwork, "search failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetchErr(a.Name(), resp.StatusCode, statusSentinel(resp.StatusCode),
			"search failed")
	}

	var sr dblpSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fetchErr(a.Name(), 0, ErrBadResponse, "unparseable search response: %v", err)
	}

	want := strings.ToLower(clean)
	for _, h := range sr.Result.Hits.Hit {
		info := h.Info
		venue := strings.ToLower(info.venueString())
		if venue == "" || strings.Contains(venue, "arxiv") {
			continue
		}
		got := strings.ToLower(info.Title)
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return &info, nil
		}
	}
	return nil, nil
}
