// Package doi extracts, normalizes, and verifies Digital Object Identifiers
// and arXiv identifiers for bibliographic records.
package doi

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/bibfill/bibfill/internal/record"
)

// Publisher identifies the registrant behind a DOI prefix.
type Publisher string

const (
	IEEE     Publisher = "IEEE"
	ACM      Publisher = "ACM"
	Springer Publisher = "Springer"
	Elsevier Publisher = "Elsevier"
	ArXiv    Publisher = "arXiv"
	Unknown  Publisher = "Unknown"
)

// publisherPrefixes maps DOI registrant prefixes to publishers. The mapping
// is total: any prefix not listed resolves to Unknown.
var publisherPrefixes = map[string]Publisher{
	"10.1109":  IEEE,
	"10.1145":  ACM,
	"10.1007":  Springer,
	"10.1016":  Elsevier,
	"10.48550": ArXiv,
}

var (
	// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
	doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

	doiURLPattern   = regexp.MustCompile(`doi\.org/(10\.\d+/[^\s]+)`)
	arxivURLPattern = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/([a-zA-Z-]+/\d+|\d+\.\d+)`)
	arxivDOIPattern = regexp.MustCompile(`(?i)^10\.48550/arXiv\.(.+)$`)
	arxivIDPattern  = regexp.MustCompile(`^(\d{4}\.\d{4,5}(v\d+)?|[a-zA-Z-]+(\.[A-Z]{2})?/\d{7})$`)
)

// Normalize strips scheme, host, and doi: prefixes from a DOI string and
// trims whitespace. Normalizing an already-normalized DOI is a no-op.
func Normalize(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://")
	doi = strings.TrimPrefix(doi, "http://")
	doi = strings.TrimPrefix(doi, "dx.doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.TrimSpace(doi)
}

// Equal reports whether two DOIs refer to the same object after
// normalization. Comparison is case-insensitive per the DOI handbook.
func Equal(a, b string) bool {
	return strings.EqualFold(Normalize(a), Normalize(b))
}

// IsValid performs structural validation on a normalized DOI.
func IsValid(doi string) bool {
	if len(doi) < 7 {
		return false
	}
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx > 3 && slashIdx < len(doi)-1
}

// IdentifyPublisher returns the publisher registered under a DOI's prefix,
// or Unknown for any prefix outside the table.
func IdentifyPublisher(doi string) Publisher {
	doi = Normalize(doi)
	for prefix, pub := range publisherPrefixes {
		if strings.HasPrefix(doi, prefix) {
			return pub
		}
	}
	return Unknown
}

// Extract derives a DOI from a record's doi or url fields. An arXiv URL is
// converted to its 10.48550/arXiv.<id> DOI form. Returns "" when no
// identifier can be derived.
func Extract(r *record.Record) string {
	if v := r.Get("doi"); strings.TrimSpace(v) != "" {
		return Normalize(v)
	}

	if url := r.Get("url"); url != "" {
		if m := doiURLPattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
		if m := arxivURLPattern.FindStringSubmatch(url); m != nil {
			return "10.48550/arXiv." + m[1]
		}
	}

	// eprint + archiveprefix identify an arXiv preprint
	if id := ExtractArxivID(r); id != "" {
		return "10.48550/arXiv." + id
	}

	return ""
}

// FindInText returns the first structurally valid DOI appearing in free
// text, with trailing punctuation stripped. Returns "" when none match.
func FindInText(text string) string {
	for _, m := range doiPattern.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:)")
		if IsValid(m) {
			return m
		}
	}
	return ""
}

// ExtractArxivID derives an arXiv identifier from a record's eprint,
// arxivid, url, or doi fields. Returns "" if none is found.
func ExtractArxivID(r *record.Record) string {
	if v := strings.TrimSpace(r.Get("eprint")); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.Get("arxivid")); v != "" {
		return v
	}
	if url := r.Get("url"); url != "" {
		if m := arxivURLPattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	if d := r.Get("doi"); d != "" {
		if m := arxivDOIPattern.FindStringSubmatch(Normalize(d)); m != nil {
			return m[1]
		}
	}
	return ""
}

// ArxivIDFromDOI extracts the arXiv identifier embedded in an arXiv DOI.
func ArxivIDFromDOI(doi string) string {
	if m := arxivDOIPattern.FindStringSubmatch(Normalize(doi)); m != nil {
		return m[1]
	}
	return ""
}

// IsValidArxivID performs structural validation of an arXiv identifier,
// accepting both modern (2410.03805, optionally versioned) and legacy
// (cs/0704001) forms.
func IsValidArxivID(id string) bool {
	return arxivIDPattern.MatchString(id)
}

// StripVersion removes a trailing vN version suffix from an arXiv ID.
func StripVersion(id string) string {
	return regexp.MustCompile(`v\d+$`).ReplaceAllString(id, "")
}

// Doer issues a single HTTP request. Satisfied by *http.Client and by the
// fallback-aware client in internal/sources.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Verify checks that a DOI resolves at doi.org using a HEAD request.
// Returns nil when the DOI exists; otherwise an error describing why it
// does not (malformed, not found, forbidden, or network failure) together
// with the HTTP status when one was received.
func Verify(ctx context.Context, client Doer, doi string) (status int, err error) {
	doi = Normalize(doi)
	if doi == "" {
		return 0, fmt.Errorf("empty DOI")
	}
	if !IsValid(doi) {
		return 0, fmt.Errorf("malformed DOI %q (must be 10.<prefix>/<suffix>)", doi)
	}

	// arXiv DOIs are not always registered at doi.org; structural
	// validation of the embedded ID is sufficient.
	if id := ArxivIDFromDOI(doi); id != "" {
		if !IsValidArxivID(id) {
			return 0, fmt.Errorf("malformed arXiv identifier %q", id)
		}
		return http.StatusOK, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "https://doi.org/"+doi, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("DOI resolution failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusFound:
		return resp.StatusCode, nil
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, fmt.Errorf("DOI not found in doi.org database (HTTP 404)")
	case resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, fmt.Errorf("access forbidden to DOI resource (HTTP 403)")
	default:
		return resp.StatusCode, fmt.Errorf("DOI resolution returned HTTP %d", resp.StatusCode)
	}
}
