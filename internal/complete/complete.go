// Package complete orchestrates the completion of bibliography entries:
// resolving identifiers, fetching from the right sources, validating and
// merging the results.
package complete

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bibfill/bibfill/internal/arxivpub"
	"github.com/bibfill/bibfill/internal/bib"
	"github.com/bibfill/bibfill/internal/changelog"
	"github.com/bibfill/bibfill/internal/config"
	"github.com/bibfill/bibfill/internal/corrections"
	"github.com/bibfill/bibfill/internal/doi"
	"github.com/bibfill/bibfill/internal/faillog"
	"github.com/bibfill/bibfill/internal/fetch"
	"github.com/bibfill/bibfill/internal/merge"
	"github.com/bibfill/bibfill/internal/record"
	"github.com/bibfill/bibfill/internal/sources"
	"github.com/bibfill/bibfill/internal/validate"
)

// ParallelThreshold is the batch size above which parallel processing
// kicks in when enabled.
const ParallelThreshold = 10

// Outcome classifies how an entry fared.
type Outcome string

const (
	// Completed means at least one field was filled in.
	Completed Outcome = "completed"
	// AlreadyComplete means no important field was missing.
	AlreadyComplete Outcome = "already_complete"
	// Failed means no source produced usable data.
	Failed Outcome = "failed"
)

// EntryResult reports what happened to one entry.
type EntryResult struct {
	Index   int
	EntryID string
	Outcome Outcome

	DOI       string
	Publisher string

	// Source names the adapter that supplied the data, or "merged" when
	// several sources were combined.
	Source    string
	FromCache bool

	ArxivReplaced bool
	FieldsAdded   int
	StillMissing  []string

	// DOIInvalid marks entries whose DOI failed resolution against
	// doi.org, as opposed to failing at a source.
	DOIInvalid bool

	Err string
}

// Summary aggregates a run.
type Summary struct {
	Total                 int
	Completed             int
	AlreadyComplete       int
	Failed                int
	CacheHits             int
	DOIValidationFailures int
	FailedIDs             []string
}

// Deps wires a Completer. Fetcher and CrossRef are required; the other
// adapters and collaborators are optional and their steps are skipped
// when nil.
type Deps struct {
	Config      *config.Config
	Fetcher     *fetch.Fetcher
	Corrections *corrections.Table
	Failures    *faillog.Log
	Ledger      *changelog.Ledger
	Detector    *arxivpub.Detector

	// Verifier resolves DOIs against doi.org before fetching. nil
	// skips verification.
	Verifier doi.Doer

	// PDFExtract recovers a DOI from a local paper PDF. Consulted only
	// for entries that carry a file field but no extractable DOI.
	PDFExtract func(path string) (string, error)

	IEEE        sources.Adapter
	IEEEBrowser sources.Adapter
	ACM         sources.Adapter
	Arxiv       sources.Adapter
	CrossRef    sources.Adapter
	Scholar     sources.Adapter

	Logger *log.Logger
}

// Completer runs the completion pipeline over parsed entries.
type Completer struct {
	deps  Deps
	cfg   *config.Config
	sleep func(time.Duration) // replaced in tests
}

// New creates a Completer. A nil Config uses the defaults.
func New(deps Deps) *Completer {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	return &Completer{deps: deps, cfg: deps.Config, sleep: time.Sleep}
}

// All completes every record, replacing completed entries in the slice
// by index. Entries run in parallel when configured and the batch is
// large enough.
func (c *Completer) All(ctx context.Context, records []*record.Record) ([]EntryResult, Summary) {
	results := make([]EntryResult, len(records))

	if c.cfg.ParallelProcessing && len(records) > ParallelThreshold {
		c.runParallel(ctx, records, results)
	} else {
		for i := range records {
			updated, res := c.One(ctx, records[i])
			res.Index = i
			records[i] = updated
			results[i] = res

			if res.Outcome == Completed && !res.FromCache {
				c.sleep(c.cfg.Delay())
			}
		}
	}

	return results, summarize(results)
}

func (c *Completer) runParallel(ctx context.Context, records []*record.Record, results []EntryResult) {
	workers := c.cfg.MaxWorkers
	if workers > len(records) {
		workers = len(records)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				updated, res := c.One(ctx, records[i])
				res.Index = i
				records[i] = updated
				results[i] = res
			}
		}()
	}
	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// One runs the pipeline for a single entry and returns the updated
// record alongside the result. The input record is never mutated; the
// returned record is either the input or a completed replacement.
func (c *Completer) One(ctx context.Context, r *record.Record) (*record.Record, EntryResult) {
	res := EntryResult{EntryID: r.ID}
	logger := c.deps.Logger.With("entry", r.ID)

	if c.deps.Ledger != nil {
		c.deps.Ledger.EntryProcessed(r.ID)
	}

	// Swap preprints for their published version first so the rest of
	// the pipeline completes the published record.
	if c.cfg.ReplaceArxiv() && c.deps.Detector != nil && arxivpub.IsPreprint(r) {
		if replaced := c.replaceArxiv(ctx, r, logger); replaced != nil {
			r = replaced
			res.ArxivReplaced = true
		}
	}

	present, missing := r.Completeness()
	if len(missing) == 0 {
		if res.ArxivReplaced {
			res.Outcome = Completed
		} else {
			res.Outcome = AlreadyComplete
		}
		return r, res
	}
	logger.Debug("incomplete entry", "missing", strings.Join(missing, ","))

	d := doi.Extract(r)
	if d == "" && c.deps.PDFExtract != nil {
		if path := strings.TrimSpace(r.Get("file")); path != "" {
			if found, err := c.deps.PDFExtract(path); err == nil && found != "" {
				d = doi.Normalize(found)
				logger.Info("recovered DOI from PDF", "file", path, "doi", d)
				r = r.Clone()
				r.Set("doi", d)
				if c.deps.Ledger != nil {
					c.deps.Ledger.FieldAdded(r.ID, "doi", d, "pdf")
				}
			}
		}
	}
	if d == "" {
		return r, c.fail(r, res, "", "", "No DOI found in entry", 0)
	}

	if c.deps.Corrections != nil {
		corrected, applied, reason := c.deps.Corrections.Apply(d)
		if applied {
			if corrected == "" {
				return r, c.fail(r, res, d, "", reason, 0)
			}
			logger.Info("applied DOI correction", "doi", corrected)
			d = corrected
			// Validation and output must see the corrected DOI, not
			// the one the entry arrived with.
			old := r.Get("doi")
			r = r.Clone()
			r.Set("doi", d)
			if c.deps.Ledger != nil {
				c.deps.Ledger.FieldUpdated(r.ID, "doi", old, d, reason)
			}
		}
	}
	res.DOI = d

	publisher := doi.IdentifyPublisher(d)
	res.Publisher = string(publisher)

	if c.deps.Verifier != nil {
		if status, err := doi.Verify(ctx, c.deps.Verifier, d); err != nil {
			res.Err = fmt.Sprintf("DOI validation failed: %v", err)
			res.DOIInvalid = true
			res.Outcome = Failed
			c.logFailure(d, r.ID, string(publisher), res.Err, status)
			return r, res
		}
	}

	if c.cfg.MergeMultipleSources {
		return c.completeMerged(ctx, r, res, d, publisher, present, logger)
	}
	return c.completeFirstWin(ctx, r, res, d, publisher, logger)
}

// completeFirstWin walks the adapter chain and takes the first fetch
// that parses and validates.
func (c *Completer) completeFirstWin(ctx context.Context, r *record.Record, res EntryResult,
	d string, publisher doi.Publisher, logger *log.Logger) (*record.Record, EntryResult) {

	req := c.request(r, d)
	var attempts []string

	for _, adapter := range c.chain(publisher, req.Title) {
		fr, err := c.deps.Fetcher.Fetch(ctx, adapter, req)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s failed: %v", adapter.Name(), err))
			continue
		}

		fetched, err := bib.ParseOne(fr.BibTeX)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s returned unparseable BibTeX: %v", fr.Source, err))
			continue
		}

		// A rejected candidate does not end the entry; the next
		// adapter in the chain may still produce a valid one.
		if v := validate.Candidate(r, fetched); !v.OK {
			attempts = append(attempts, fmt.Sprintf("%s validation failed: %s", fr.Source, v.Detail))
			continue
		}

		logger.Info("fetched", "source", fr.Source, "cached", fr.FromCache)
		updated := r.Clone()
		added := c.fillMissing(updated, fetched, fr.Source)

		res.Source = fr.Source
		res.FromCache = fr.FromCache
		res.FieldsAdded = len(added)
		_, res.StillMissing = updated.Completeness()
		res.Outcome = Completed
		return updated, res
	}

	res.Err = strings.Join(attempts, "; ")
	if res.Err == "" {
		res.Err = "no applicable source"
	}
	res.Outcome = Failed
	c.logFailure(d, r.ID, string(publisher), res.Err, 0)
	return r, res
}

// completeMerged fetches from every applicable source and merges the
// validated candidates with the original entry.
func (c *Completer) completeMerged(ctx context.Context, r *record.Record, res EntryResult,
	d string, publisher doi.Publisher, present []string, logger *log.Logger) (*record.Record, EntryResult) {

	req := c.request(r, d)
	candidates := []record.SourceRecord{{Record: r, Source: "original"}}
	fromCache := true
	var attempts []string

	for _, adapter := range c.chain(publisher, "") {
		fr, err := c.deps.Fetcher.Fetch(ctx, adapter, req)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s failed: %v", adapter.Name(), err))
			continue
		}
		fetched, err := bib.ParseOne(fr.BibTeX)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s returned unparseable BibTeX", fr.Source))
			continue
		}
		if v := validate.Candidate(r, fetched); !v.OK {
			attempts = append(attempts, fmt.Sprintf("%s rejected: %s", fr.Source, v.Detail))
			continue
		}
		candidates = append(candidates, record.SourceRecord{Record: fetched, Source: fr.Source})
		fromCache = fromCache && fr.FromCache
	}

	if len(candidates) == 1 {
		res.Err = strings.Join(attempts, "; ")
		if res.Err == "" {
			res.Err = "no applicable source"
		}
		res.Outcome = Failed
		c.logFailure(d, r.ID, string(publisher), res.Err, 0)
		return r, res
	}

	merged := merge.Entries(candidates, r.ID, c.cfg.DataSourcePriority)
	logger.Info("merged sources", "count", len(candidates)-1)

	if c.deps.Ledger != nil {
		for _, name := range merged.Record.FieldNames() {
			if !r.Has(name) && merged.Record.Has(name) {
				c.deps.Ledger.FieldAdded(r.ID, name, merged.Record.Get(name), "multi_source")
			}
		}
	}

	newPresent, stillMissing := merged.Record.Completeness()
	res.Source = merged.Source
	res.FromCache = fromCache
	res.FieldsAdded = len(newPresent) - len(present)
	res.StillMissing = stillMissing
	res.Outcome = Completed
	return merged.Record, res
}

// chain orders the adapters for one entry: the publisher-specific
// scraper first, the browser fallback for IEEE, CrossRef always, and
// Google Scholar last when a title is available for searching.
func (c *Completer) chain(publisher doi.Publisher, title string) []sources.Adapter {
	var chain []sources.Adapter
	appendIf := func(a sources.Adapter) {
		if a != nil {
			chain = append(chain, a)
		}
	}

	switch publisher {
	case doi.IEEE:
		appendIf(c.deps.IEEE)
		if c.cfg.BrowserFallback {
			appendIf(c.deps.IEEEBrowser)
		}
	case doi.ACM:
		appendIf(c.deps.ACM)
	case doi.ArXiv:
		appendIf(c.deps.Arxiv)
	}

	appendIf(c.deps.CrossRef)
	if title != "" {
		appendIf(c.deps.Scholar)
	}
	return chain
}

func (c *Completer) request(r *record.Record, d string) sources.Request {
	author := r.Get("author")
	if idx := strings.Index(author, " and "); idx >= 0 {
		author = author[:idx]
	}
	return sources.Request{
		DOI:    d,
		Title:  strings.TrimSpace(r.Get("title")),
		Author: strings.TrimSpace(author),
	}
}

// replaceArxiv returns the published version of a preprint, or nil when
// none is found or it cannot be parsed.
func (c *Completer) replaceArxiv(ctx context.Context, r *record.Record, logger *log.Logger) *record.Record {
	hit, err := c.deps.Detector.FindPublished(ctx, r)
	if err != nil || hit == nil {
		return nil
	}

	published, err := bib.ParseOne(hit.BibTeX)
	if err != nil {
		logger.Warn("published version is unparseable", "doi", hit.DOI)
		return nil
	}
	published.ID = r.ID

	if c.deps.Ledger != nil {
		c.deps.Ledger.ArxivReplaced(r.ID, arxivpub.ArxivID(r), hit.DOI, hit.Source)
	}
	logger.Info("replaced preprint with published version", "doi", hit.DOI, "via", hit.Source)
	return published
}

// fillMissing copies fields present in src but absent in dst, recording
// each addition.
func (c *Completer) fillMissing(dst, src *record.Record, source string) []string {
	var added []string
	for _, f := range src.Fields {
		if strings.TrimSpace(f.Value) == "" || dst.Has(f.Name) {
			continue
		}
		dst.Set(f.Name, f.Value)
		added = append(added, f.Name)
		if c.deps.Ledger != nil {
			c.deps.Ledger.FieldAdded(dst.ID, f.Name, f.Value, source)
		}
	}
	return added
}

func (c *Completer) fail(r *record.Record, res EntryResult, d, publisher, msg string, status int) EntryResult {
	res.Outcome = Failed
	res.Err = msg
	c.logFailure(d, r.ID, publisher, msg, status)
	return res
}

func (c *Completer) logFailure(d, entryID, publisher, msg string, status int) {
	if c.deps.Failures != nil {
		// Failure-log write errors must not mask the fetch error.
		_ = c.deps.Failures.Append(d, entryID, publisher, msg, status)
	}
	if c.deps.Ledger != nil {
		c.deps.Ledger.ErrorFor(entryID, msg)
	}
}

func summarize(results []EntryResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case Completed:
			s.Completed++
		case AlreadyComplete:
			s.AlreadyComplete++
		case Failed:
			s.Failed++
			s.FailedIDs = append(s.FailedIDs, r.EntryID)
		}
		if r.FromCache {
			s.CacheHits++
		}
		if r.DOIInvalid {
			s.DOIValidationFailures++
		}
	}
	return s
}
