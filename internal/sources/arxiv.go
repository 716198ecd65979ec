package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/bibfill/bibfill/internal/doi"
)

var arxivWhitespace = regexp.MustCompile(`\s+`)

// arxivFeed is the Atom feed returned by the arXiv export API.
type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// Arxiv fetches paper metadata from the arXiv export API. arXiv has no
// native BibTeX endpoint, so the adapter synthesizes an entry from the
// Atom feed's title, authors, year, and abstract.
type Arxiv struct {
	client *Client

	// Overridable for tests.
	BaseURL string
}

// NewArxiv creates the arXiv adapter.
func NewArxiv(client *Client) *Arxiv {
	return &Arxiv{client: client, BaseURL: "https://export.arxiv.org"}
}

func (a *Arxiv) Name() string { return SourceArxiv }

// Fetch queries the export API for the arXiv ID embedded in the request's
// DOI and synthesizes a BibTeX record from the feed entry.
func (a *Arxiv) Fetch(ctx context.Context, req Request) (string, error) {
	arxivID := doi.ArxivIDFromDOI(req.DOI)
	if arxivID == "" {
		return "", fetchErr(a.Name(), 0, ErrBadIdentifier,
			"cannot extract arXiv ID from DOI %q", req.DOI)
	}

	resp, err := a.client.Get(ctx, a.BaseURL+"/api/query?id_list="+url.QueryEscape(arxivID))
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "export API request failed: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fetchErr(a.Name(), 404, ErrNotFound, "article %s not found", arxivID)
	default:
		return "", fetchErr(a.Name(), resp.StatusCode, statusSentinel(resp.StatusCode),
			"export API failed")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "reading export response: %v", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "unparseable Atom feed: %v", err)
	}
	if len(feed.Entries) == 0 {
		return "", fetchErr(a.Name(), 0, ErrNotFound, "no entry in feed for %s", arxivID)
	}

	entry := feed.Entries[0]
	title := cleanFeedText(entry.Title)
	if title == "" {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "feed entry missing title")
	}
	if len(entry.Published) < 4 {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "feed entry missing publication date")
	}

	return synthesizeArxivBibtex(arxivID, req.DOI, entry), nil
}

// synthesizeArxivBibtex renders a feed entry as a BibTeX article pointing
// at the preprint.
func synthesizeArxivBibtex(arxivID, doiStr string, entry arxivEntry) string {
	names := make([]string, 0, len(entry.Authors))
	for _, au := range entry.Authors {
		if n := strings.TrimSpace(au.Name); n != "" {
			names = append(names, n)
		}
	}

	citeKey := "arxiv" + strings.NewReplacer(".", "_", "/", "_").Replace(arxivID)

	var b strings.Builder
	fmt.Fprintf(&b, "@article{%s,\n", citeKey)
	fmt.Fprintf(&b, "  title = {%s},\n", cleanFeedText(entry.Title))
	fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(names, " and "))
	fmt.Fprintf(&b, "  journal = {arXiv preprint arXiv:%s},\n", arxivID)
	fmt.Fprintf(&b, "  year = {%s},\n", entry.Published[:4])
	fmt.Fprintf(&b, "  eprint = {%s},\n", arxivID)
	fmt.Fprintf(&b, "  archiveprefix = {arXiv},\n")
	if doiStr != "" {
		fmt.Fprintf(&b, "  doi = {%s},\n", doiStr)
	}
	if summary := cleanFeedText(entry.Summary); summary != "" {
		fmt.Fprintf(&b, "  abstract = {%s},\n", summary)
	}
	b.WriteString("}\n")
	return b.String()
}

func cleanFeedText(s string) string {
	return arxivWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
