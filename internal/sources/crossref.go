package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// CrossRef fetches BibTeX through the CrossRef content-negotiation API.
// It covers every registrant, so the orchestrator always tries it after
// the publisher-specific adapter.
type CrossRef struct {
	client *Client

	// Overridable for tests.
	BaseURL string
}

// NewCrossRef creates the CrossRef adapter.
func NewCrossRef(client *Client) *CrossRef {
	return &CrossRef{client: client, BaseURL: "https://api.crossref.org"}
}

func (a *CrossRef) Name() string { return SourceCrossRef }

// Fetch downloads the transform/application/x-bibtex rendering of a DOI.
func (a *CrossRef) Fetch(ctx context.Context, req Request) (string, error) {
	if req.DOI == "" {
		return "", fetchErr(a.Name(), 0, ErrBadIdentifier, "no DOI to resolve")
	}

	resp, err := a.client.Get(ctx, a.BaseURL+"/works/"+req.DOI+"/transform/application/x-bibtex")
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "API request failed: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fetchErr(a.Name(), 404, ErrNotFound, "DOI not in CrossRef database")
	case http.StatusForbidden:
		return "", fetchErr(a.Name(), 403, ErrForbidden, "access forbidden")
	default:
		return "", fetchErr(a.Name(), resp.StatusCode, statusSentinel(resp.StatusCode),
			"API request failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "reading response: %v", err)
	}

	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "@") {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "response is not BibTeX")
	}
	return text, nil
}

// crossrefWorksResponse is the subset of the works search response used
// for published-version lookup.
type crossrefWorksResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	DOI            string   `json:"DOI"`
	Title          []string `json:"title"`
	ContainerTitle []string `json:"container-title"`
	Type           string   `json:"type"`
}

var bracePattern = regexp.MustCompile(`[{}\\]`)

// SearchByTitle queries the works index for a formally published item
// matching the title. Preprints (posted-content) are filtered out. Returns
// the matching work's DOI, or "" when no convincing hit exists.
func (a *CrossRef) SearchByTitle(ctx context.Context, title string) (string, error) {
	clean := bracePattern.ReplaceAllString(title, "")

	query := url.Values{
		"query.title": {clean},
		"rows":        {"5"},
		"select":      {"DOI,title,container-title,type"},
	}
	resp, err := a.client.Get(ctx, a.BaseURL+"/works?"+query.Encode())
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "title search failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fetchErr(a.Name(), resp.StatusCode, statusSentinel(resp.StatusCode),
			"title search failed")
	}

	var works crossrefWorksResponse
	if err := json.NewDecoder(resp.Body).Decode(&works); err != nil {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "unparseable search response: %v", err)
	}

	want := strings.ToLower(clean)
	for _, item := range works.Message.Items {
		if len(item.Title) == 0 {
			continue
		}
		got := strings.ToLower(item.Title[0])
		if !strings.Contains(got, want) && !strings.Contains(want, got) {
			continue
		}
		if strings.Contains(item.Type, "posted-content") {
			continue
		}
		return item.DOI, nil
	}
	return "", nil
}
