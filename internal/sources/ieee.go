package sources

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ieeeDocumentPattern = regexp.MustCompile(`/document/(\d+)`)

// IEEE fetches citations from IEEE Xplore. The DOI is resolved through
// doi.org to discover the Xplore article number, then the citation
// download endpoint is asked for BibTeX.
type IEEE struct {
	client *Client

	// Overridable for tests.
	DOIBase string
	CiteURL string
}

// NewIEEE creates the IEEE Xplore adapter.
func NewIEEE(client *Client) *IEEE {
	return &IEEE{
		client:  client,
		DOIBase: "https://doi.org",
		CiteURL: "https://ieeexplore.ieee.org/xpl/downloadCitations",
	}
}

func (a *IEEE) Name() string { return SourceIEEE }

// Fetch resolves an IEEE DOI to its article number and downloads the
// citation block.
func (a *IEEE) Fetch(ctx context.Context, req Request) (string, error) {
	if req.DOI == "" {
		return "", fetchErr(a.Name(), 0, ErrBadIdentifier, "no DOI to resolve")
	}

	resp, err := a.client.Get(ctx, a.DOIBase+"/"+req.DOI)
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "DOI resolution failed: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fetchErr(a.Name(), 404, ErrNotFound, "DOI not found at %s", a.DOIBase)
	default:
		return "", fetchErr(a.Name(), resp.StatusCode, statusSentinel(resp.StatusCode),
			"DOI resolution failed")
	}

	// The article number lives in the redirected document URL.
	finalURL := resp.Request.URL.String()
	m := ieeeDocumentPattern.FindStringSubmatch(finalURL)
	if m == nil {
		return "", fetchErr(a.Name(), 0, ErrBadIdentifier,
			"cannot extract article number from redirected URL %s", finalURL)
	}
	articleNum := m[1]

	form := url.Values{
		"recordIds":        {articleNum},
		"citations-format": {"citation-abstract"},
		"download-format":  {"download-bibtex"},
	}
	citeReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.CiteURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "building citation request: %v", err)
	}
	citeReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	citeResp, err := a.client.Do(citeReq)
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "citation download failed: %v", err)
	}
	defer citeResp.Body.Close()

	switch citeResp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fetchErr(a.Name(), 404, ErrNotFound, "article %s not found", articleNum)
	case http.StatusForbidden:
		return "", fetchErr(a.Name(), 403, ErrForbidden,
			"citation download forbidden (may require authentication)")
	default:
		return "", fetchErr(a.Name(), citeResp.StatusCode, statusSentinel(citeResp.StatusCode),
			"citation download failed")
	}

	body, err := io.ReadAll(io.LimitReader(citeResp.Body, 1<<20))
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "reading citation response: %v", err)
	}

	text := extractCitationBlock(string(body))
	if text == "" {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "no BibTeX found in citation response")
	}
	return text, nil
}

// extractCitationBlock pulls a BibTeX entry out of a response that may be
// plain text or HTML with the citation embedded in a pre/div block.
func extractCitationBlock(body string) string {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "@") {
		return trimmed
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("pre, div.citation, div.citation-text").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if strings.HasPrefix(text, "@") {
			found = text
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	// Some responses wrap the entry in <br>-separated markup; fall back
	// to locating the entry markers in the raw text.
	if at := strings.Index(trimmed, "@"); at >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > at {
			candidate := trimmed[at : end+1]
			if strings.Contains(candidate, "{") {
				return candidate
			}
		}
	}
	return ""
}
