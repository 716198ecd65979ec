// Package sources implements one adapter per external bibliographic
// provider. Each adapter turns a DOI, arXiv ID, or title into raw BibTeX
// text or a typed failure; adapters perform network I/O only and never
// mutate shared state.
package sources

import "context"

// Source tags, used for merge provenance and priority ordering.
const (
	SourceIEEE        = "ieee"
	SourceIEEEBrowser = "ieee_browser"
	SourceACM         = "acm"
	SourceArxiv       = "arxiv"
	SourceCrossRef    = "crossref"
	SourceDBLP        = "dblp"
	SourceS2          = "semantic_scholar"
	SourceScholar     = "google_scholar"
)

// Request identifies the work an adapter should fetch. DOI is the primary
// key; Title and Author feed the search-based adapters.
type Request struct {
	DOI    string
	Title  string
	Author string
}

// Adapter fetches raw BibTeX text for a request from one external source.
type Adapter interface {
	// Name returns the adapter's source tag.
	Name() string

	// Fetch returns raw BibTeX text for the request, or a *FetchError
	// describing the proximate cause of failure.
	Fetch(ctx context.Context, req Request) (string, error)
}
