package sources

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ACM fetches citations from the ACM Digital Library BibTeX export page.
type ACM struct {
	client *Client

	// Overridable for tests.
	BaseURL string
}

// NewACM creates the ACM Digital Library adapter.
func NewACM(client *Client) *ACM {
	return &ACM{client: client, BaseURL: "https://dl.acm.org"}
}

func (a *ACM) Name() string { return SourceACM }

// Fetch downloads the BibTeX export page for a DOI and extracts the
// embedded citation block.
func (a *ACM) Fetch(ctx context.Context, req Request) (string, error) {
	if req.DOI == "" {
		return "", fetchErr(a.Name(), 0, ErrBadIdentifier, "no DOI to resolve")
	}

	resp, err := a.client.Get(ctx, a.BaseURL+"/doi/"+req.DOI+"/bibtex")
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "BibTeX export request failed: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fetchErr(a.Name(), 404, ErrNotFound, "BibTeX page not found for DOI %s", req.DOI)
	case http.StatusForbidden:
		return "", fetchErr(a.Name(), 403, ErrForbidden,
			"BibTeX export forbidden (may require authentication)")
	default:
		return "", fetchErr(a.Name(), resp.StatusCode, statusSentinel(resp.StatusCode),
			"BibTeX export failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "reading export response: %v", err)
	}

	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "@") {
		return text, nil
	}

	// HTML page with the citation in a pre tag or citation div.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "unparseable export page: %v", err)
	}

	var found string
	doc.Find("pre, div.citation").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if strings.HasPrefix(t, "@") {
			found = t
			return false
		}
		return true
	})
	if found == "" {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "BibTeX content not found in export page")
	}
	return found, nil
}
