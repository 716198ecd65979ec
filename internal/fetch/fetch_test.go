package fetch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bibfill/bibfill/internal/cache"
	"github.com/bibfill/bibfill/internal/corrections"
	"github.com/bibfill/bibfill/internal/sources"
)

type stubAdapter struct {
	name   string
	bibtex string
	err    error
	calls  int
	lastReq sources.Request
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Fetch(_ context.Context, req sources.Request) (string, error) {
	a.calls++
	a.lastReq = req
	return a.bibtex, a.err
}

func newTestFetcher(t *testing.T, table *corrections.Table) (*Fetcher, cache.Store) {
	t.Helper()
	store, err := cache.NewFileStore(filepath.Join(t.TempDir(), "cache"), cache.DefaultExpiry)
	if err != nil {
		t.Fatal(err)
	}
	f := New(store, table, WithLiveInterval(time.Microsecond))
	f.sleep = func(time.Duration) {}
	return f, store
}

func TestFetchCachesByDOI(t *testing.T) {
	f, _ := newTestFetcher(t, nil)
	a := &stubAdapter{name: "crossref", bibtex: "@article{x,\n  title={X},\n}"}

	first, err := f.Fetch(context.Background(), a, sources.Request{DOI: "10.1109/x.1"})
	if err != nil {
		t.Fatalf("first Fetch() error = %v", err)
	}
	if first.FromCache {
		t.Error("first fetch should be live")
	}

	second, err := f.Fetch(context.Background(), a, sources.Request{DOI: "10.1109/x.1"})
	if err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}
	if !second.FromCache {
		t.Error("second fetch should come from cache")
	}
	if second.BibTeX != first.BibTeX {
		t.Errorf("cached BibTeX = %q, want %q", second.BibTeX, first.BibTeX)
	}
	if a.calls != 1 {
		t.Errorf("adapter calls = %d, want 1", a.calls)
	}
}

func TestFetchNormalizesDOIForCacheKey(t *testing.T) {
	f, _ := newTestFetcher(t, nil)
	a := &stubAdapter{name: "crossref", bibtex: "@article{x,}"}

	if _, err := f.Fetch(context.Background(), a, sources.Request{DOI: "https://doi.org/10.1109/x.1"}); err != nil {
		t.Fatal(err)
	}
	res, err := f.Fetch(context.Background(), a, sources.Request{DOI: "10.1109/x.1"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.FromCache {
		t.Error("URL form and bare form should share a cache entry")
	}
}

func TestFetchAppliesCorrection(t *testing.T) {
	table := corrections.Empty()
	table.Set("10.1109/wrong", corrections.Entry{
		Status:       corrections.StatusCorrected,
		CorrectedDOI: "10.1109/right",
		Reason:       "publisher typo",
	})

	f, _ := newTestFetcher(t, table)
	a := &stubAdapter{name: "ieee", bibtex: "@article{x,}"}

	res, err := f.Fetch(context.Background(), a, sources.Request{DOI: "10.1109/wrong"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !res.Corrected {
		t.Error("result should be marked corrected")
	}
	if res.DOI != "10.1109/right" {
		t.Errorf("res.DOI = %q, want corrected DOI", res.DOI)
	}
	if a.lastReq.DOI != "10.1109/right" {
		t.Errorf("adapter saw DOI %q, want corrected DOI", a.lastReq.DOI)
	}
}

func TestFetchSkipsInvalidDOI(t *testing.T) {
	table := corrections.Empty()
	table.Set("10.1109/bogus", corrections.Entry{
		Status: corrections.StatusInvalid,
		Reason: "does not resolve",
	})

	f, _ := newTestFetcher(t, table)
	a := &stubAdapter{name: "ieee", bibtex: "@article{x,}"}

	_, err := f.Fetch(context.Background(), a, sources.Request{DOI: "10.1109/bogus"})
	if !errors.Is(err, ErrSkippedDOI) {
		t.Fatalf("error = %v, want ErrSkippedDOI", err)
	}
	if a.calls != 0 {
		t.Error("invalid DOI must not reach the adapter")
	}
}

func TestFetchSkipsPendingDOI(t *testing.T) {
	table := corrections.Empty()
	table.Set("10.1109/pending", corrections.Entry{
		Status: corrections.StatusPending,
		Reason: "awaiting review",
	})

	f, _ := newTestFetcher(t, table)
	a := &stubAdapter{name: "ieee", bibtex: "@article{x,}"}

	if _, err := f.Fetch(context.Background(), a, sources.Request{DOI: "10.1109/pending"}); !errors.Is(err, ErrSkippedDOI) {
		t.Fatalf("error = %v, want ErrSkippedDOI for pending correction", err)
	}
}

func TestFetchDoesNotCacheFailures(t *testing.T) {
	f, store := newTestFetcher(t, nil)
	a := &stubAdapter{name: "ieee", err: errors.New("boom")}

	if _, err := f.Fetch(context.Background(), a, sources.Request{DOI: "10.1109/x.1"}); err == nil {
		t.Fatal("Fetch() should propagate adapter error")
	}
	if _, ok, _ := store.Get("10.1109/x.1"); ok {
		t.Error("failed fetch must not populate the cache")
	}
}

func TestFetchWithoutDOISkipsCache(t *testing.T) {
	f, _ := newTestFetcher(t, nil)
	a := &stubAdapter{name: "google_scholar", bibtex: "@article{x,}"}

	for i := 0; i < 2; i++ {
		res, err := f.Fetch(context.Background(), a, sources.Request{Title: "Some Paper"})
		if err != nil {
			t.Fatal(err)
		}
		if res.FromCache {
			t.Error("title-only lookups are never cached")
		}
	}
	if a.calls != 2 {
		t.Errorf("adapter calls = %d, want 2", a.calls)
	}
}
