package sources

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// IEEEBrowser is the last-resort IEEE adapter: a headless browser drives
// the Xplore citation modal when the lightweight HTTP path is blocked.
// It carries a heavy runtime dependency (a Chrome installation), so it is
// only wired in when enabled by configuration, behind the same Adapter
// interface as every other source.
type IEEEBrowser struct {
	// Timeout bounds the whole browser session for one fetch.
	Timeout time.Duration

	// ExecPath optionally points at a specific Chrome binary.
	ExecPath string
}

// NewIEEEBrowser creates the browser-automation fallback adapter.
func NewIEEEBrowser() *IEEEBrowser {
	return &IEEEBrowser{Timeout: 60 * time.Second}
}

func (a *IEEEBrowser) Name() string { return SourceIEEEBrowser }

// Fetch resolves the DOI in a headless browser, opens the "Cite This"
// modal, selects the BibTeX tab, and reads the citation text. The browser
// is released on every exit path.
func (a *IEEEBrowser) Fetch(ctx context.Context, req Request) (string, error) {
	if req.DOI == "" {
		return "", fetchErr(a.Name(), 0, ErrBadIdentifier, "no DOI to resolve")
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := chromedp.DefaultExecAllocatorOptions[:]
	if a.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(a.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var currentURL string
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate("https://doi.org/"+req.DOI),
		chromedp.WaitReady("body"),
		chromedp.Location(&currentURL),
	); err != nil {
		return "", fetchErr(a.Name(), 0, ErrNetwork, "browser navigation failed: %v", err)
	}

	if !strings.Contains(currentURL, "ieeexplore.ieee.org") {
		return "", fetchErr(a.Name(), 0, ErrBadIdentifier,
			"DOI did not resolve to IEEE Xplore (got %s)", currentURL)
	}

	var citation string
	if err := chromedp.Run(browserCtx,
		chromedp.Click(`xpl-cite-this-modal button, button.cite-this-btn`, chromedp.ByQuery),
		chromedp.WaitVisible(`.citation-text, pre`, chromedp.ByQuery),
		chromedp.Text(`.citation-text, pre`, &citation, chromedp.ByQuery),
	); err != nil {
		return "", fetchErr(a.Name(), 0, ErrBadResponse,
			"could not extract citation from IEEE page: %v", err)
	}

	citation = strings.TrimSpace(citation)
	if !strings.HasPrefix(citation, "@") {
		return "", fetchErr(a.Name(), 0, ErrBadResponse, "citation text is not BibTeX")
	}
	return citation, nil
}
