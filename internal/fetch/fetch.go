// Package fetch wraps source adapters with the caching, DOI-correction
// and rate-limiting behavior shared by every lookup.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bibfill/bibfill/internal/cache"
	"github.com/bibfill/bibfill/internal/corrections"
	"github.com/bibfill/bibfill/internal/doi"
	"github.com/bibfill/bibfill/internal/sources"
)

// ErrSkippedDOI reports a DOI the correction table marks as invalid or
// still pending review. Lookups for such DOIs fail without any network
// traffic.
var ErrSkippedDOI = errors.New("DOI skipped by correction table")

const (
	// LiveInterval is the minimum spacing between live requests to a
	// single source.
	LiveInterval = 500 * time.Millisecond

	// CachedDelay is the pacing applied after a cache hit, short enough
	// to keep bulk runs fast but non-zero so mixed hit/miss batches do
	// not burst.
	CachedDelay = 200 * time.Millisecond
)

// Result is one completed lookup.
type Result struct {
	BibTeX string
	Source string

	// DOI is the identifier actually fetched, after any correction.
	DOI string

	FromCache bool

	// Corrected is set when the correction table substituted a
	// replacement DOI, with Reason explaining why.
	Corrected bool
	Reason    string
}

// Fetcher runs adapter lookups through the shared resilience layer.
type Fetcher struct {
	store cache.Store
	table *corrections.Table

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	liveInterval time.Duration
	sleep        func(time.Duration) // replaced in tests
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLiveInterval overrides the per-source spacing of live requests.
func WithLiveInterval(d time.Duration) Option {
	return func(f *Fetcher) { f.liveInterval = d }
}

// New creates a Fetcher. The cache store may be nil to disable caching,
// and the correction table may be nil to disable DOI substitution.
func New(store cache.Store, table *corrections.Table, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:        store,
		table:        table,
		limiters:     make(map[string]*rate.Limiter),
		liveInterval: LiveInterval,
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch resolves a request through one adapter. The correction table is
// consulted first, then the cache, and only then the live source. A
// successful live fetch with a DOI is written back to the cache.
func (f *Fetcher) Fetch(ctx context.Context, adapter sources.Adapter, req sources.Request) (*Result, error) {
	res := &Result{Source: adapter.Name()}

	d := doi.Normalize(req.DOI)
	if d != "" && f.table != nil {
		corrected, applied, reason := f.table.Apply(d)
		if applied {
			if corrected == "" {
				return nil, fmt.Errorf("%w: %s (%s)", ErrSkippedDOI, d, reason)
			}
			res.Corrected = true
			res.Reason = reason
			d = corrected
		}
	}
	req.DOI = d
	res.DOI = d

	if d != "" && f.store != nil {
		if bib, ok, err := f.store.Get(d); err == nil && ok {
			f.sleep(CachedDelay)
			res.BibTeX = bib
			res.FromCache = true
			return res, nil
		}
	}

	if err := f.limiter(adapter.Name()).Wait(ctx); err != nil {
		return nil, err
	}

	bib, err := adapter.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	res.BibTeX = bib

	if d != "" && f.store != nil {
		// A write failure only costs a future cache miss.
		_ = f.store.Put(d, bib)
	}
	return res, nil
}

func (f *Fetcher) limiter(source string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	lim, ok := f.limiters[source]
	if !ok {
		lim = rate.NewLimiter(rate.Every(f.liveInterval), 1)
		f.limiters[source] = lim
	}
	return lim
}
