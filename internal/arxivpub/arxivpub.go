// Package arxivpub detects arXiv preprints and finds their formally
// published versions.
package arxivpub

import (
	"context"
	"strings"

	"github.com/bibfill/bibfill/internal/doi"
	"github.com/bibfill/bibfill/internal/record"
	"github.com/bibfill/bibfill/internal/sources"
)

// ArxivID extracts the arXiv identifier from an entry, checking the
// eprint and arxivid fields, the URL, and an arXiv-form DOI.
func ArxivID(r *record.Record) string {
	return doi.ExtractArxivID(r)
}

// IsPreprint reports whether an entry describes an arXiv preprint rather
// than a published paper.
func IsPreprint(r *record.Record) bool {
	if strings.EqualFold(r.Type, "misc") {
		return ArxivID(r) != ""
	}
	if strings.Contains(strings.ToLower(r.Get("archiveprefix")), "arxiv") {
		return true
	}
	journal := strings.ToLower(r.Get("journal"))
	publisher := strings.ToLower(r.Get("publisher"))
	return strings.Contains(journal, "arxiv") || strings.Contains(publisher, "arxiv")
}

// Hit is a discovered published version.
type Hit struct {
	DOI    string
	Source string
	BibTeX string
}

// Detector searches for published versions of preprints. Semantic
// Scholar is tried first since it indexes arXiv directly, then DBLP,
// then a CrossRef title search. Whichever search wins, the BibTeX comes
// from CrossRef's DOI transform.
type Detector struct {
	s2       *sources.SemanticScholar
	dblp     *sources.DBLP
	crossref *sources.CrossRef
}

// NewDetector creates a Detector over the given adapters.
func NewDetector(s2 *sources.SemanticScholar, dblp *sources.DBLP, crossref *sources.CrossRef) *Detector {
	return &Detector{s2: s2, dblp: dblp, crossref: crossref}
}

// FindPublished locates the published version of a preprint. It returns
// (nil, nil) when the entry is not a preprint, has no title, or no
// publication is found; search errors from individual sources are
// swallowed so the next source can try.
func (d *Detector) FindPublished(ctx context.Context, r *record.Record) (*Hit, error) {
	if !IsPreprint(r) {
		return nil, nil
	}
	title := strings.TrimSpace(r.Get("title"))
	if title == "" {
		return nil, nil
	}

	if id := ArxivID(r); id != "" && d.s2 != nil {
		if hit, err := d.s2.PublishedVersion(ctx, id); err == nil && hit != nil {
			if found := d.resolve(ctx, hit.DOI, sources.SourceS2); found != nil {
				return found, nil
			}
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if d.dblp != nil {
		if pubDOI, err := d.dblp.SearchDOI(ctx, title); err == nil && pubDOI != "" {
			if found := d.resolve(ctx, pubDOI, sources.SourceDBLP); found != nil {
				return found, nil
			}
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if d.crossref != nil {
		if pubDOI, err := d.crossref.SearchByTitle(ctx, title); err == nil && pubDOI != "" {
			if found := d.resolve(ctx, pubDOI, sources.SourceCrossRef); found != nil {
				return found, nil
			}
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, nil
}

func (d *Detector) resolve(ctx context.Context, pubDOI, source string) *Hit {
	if pubDOI == "" || d.crossref == nil {
		return nil
	}
	bib, err := d.crossref.Fetch(ctx, sources.Request{DOI: pubDOI})
	if err != nil {
		return nil
	}
	return &Hit{DOI: pubDOI, Source: source, BibTeX: bib}
}
