package main

import (
	"path/filepath"

	"github.com/bibfill/bibfill/internal/arxivpub"
	"github.com/bibfill/bibfill/internal/cache"
	"github.com/bibfill/bibfill/internal/changelog"
	"github.com/bibfill/bibfill/internal/complete"
	"github.com/bibfill/bibfill/internal/config"
	"github.com/bibfill/bibfill/internal/corrections"
	"github.com/bibfill/bibfill/internal/faillog"
	"github.com/bibfill/bibfill/internal/fetch"
	"github.com/bibfill/bibfill/internal/pdf"
	"github.com/bibfill/bibfill/internal/sources"
)

// mustBuildCompleter wires the full completion pipeline from
// configuration: HTTP client, cache, corrections, failure log, one
// adapter per source, and the preprint detector. The returned cleanup
// closes the cache store.
func mustBuildCompleter(cfg *config.Config) (*complete.Completer, *changelog.Ledger, func()) {
	global := mustLoadGlobal()

	var clientOpts []sources.ClientOption
	if global.UserAgent != "" {
		clientOpts = append(clientOpts, sources.WithUserAgent(global.UserAgent))
	}
	client := sources.NewClient(clientOpts...)

	var store cache.Store
	var err error
	if cfg.CacheBackend == "sqlite" {
		store, err = cache.NewSQLiteStore(filepath.Join(cfg.CacheDir, "cache.db"), cache.DefaultExpiry)
	} else {
		store, err = cache.NewFileStore(cfg.CacheDir, cache.DefaultExpiry)
	}
	if err != nil {
		exitWithError(ExitError, "opening cache: %v", err)
	}

	table, err := corrections.Load(cfg.CorrectionsFile)
	if err != nil {
		exitWithError(ExitConfigError, "loading DOI corrections: %v", err)
	}

	failures, err := faillog.Open(cfg.FailedDOIFile)
	if err != nil {
		exitWithError(ExitError, "opening failed-DOI log: %v", err)
	}

	crossref := sources.NewCrossRef(client)
	ledger := changelog.New()

	deps := complete.Deps{
		Config:      cfg,
		Fetcher:     fetch.New(store, table),
		Corrections: table,
		Failures:    failures,
		Ledger:      ledger,
		Detector: arxivpub.NewDetector(
			sources.NewSemanticScholar(client, global.S2APIKey),
			sources.NewDBLP(client),
			crossref,
		),
		Verifier:   client,
		PDFExtract: pdf.ExtractDOI,
		IEEE:       sources.NewIEEE(client),
		ACM:        sources.NewACM(client),
		Arxiv:      sources.NewArxiv(client),
		CrossRef:   crossref,
		Scholar:    sources.NewScholar(client),
		Logger:     logger,
	}

	if cfg.BrowserFallback {
		browser := sources.NewIEEEBrowser()
		browser.ExecPath = global.ChromePath
		deps.IEEEBrowser = browser
	}

	cleanup := func() { _ = store.Close() }
	return complete.New(deps), ledger, cleanup
}
