package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibfill/bibfill/internal/cache"
	"github.com/bibfill/bibfill/internal/clipboard"
	"github.com/bibfill/bibfill/internal/corrections"
	"github.com/bibfill/bibfill/internal/doi"
	"github.com/bibfill/bibfill/internal/fetch"
	"github.com/bibfill/bibfill/internal/sources"
)

var fetchCopy bool

func init() {
	fetchCmd.Flags().BoolVar(&fetchCopy, "copy", false, "Also copy the BibTeX to the clipboard")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <doi>",
	Short: "Fetch BibTeX for a single DOI",
	Long: `Fetch the BibTeX entry for one DOI and print it.

The publisher's own site is tried first, then CrossRef. Results go
through the same cache and DOI-correction table as bulk completion.

Examples:
  bibfill fetch 10.1109/TPAMI.2016.2644615
  bibfill fetch 10.1145/3448016.3452838 --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	global := mustLoadGlobal()

	var clientOpts []sources.ClientOption
	if global.UserAgent != "" {
		clientOpts = append(clientOpts, sources.WithUserAgent(global.UserAgent))
	}
	client := sources.NewClient(clientOpts...)

	store, err := cache.NewFileStore(cfg.CacheDir, cache.DefaultExpiry)
	if err != nil {
		exitWithError(ExitError, "opening cache: %v", err)
	}
	defer store.Close()

	table, err := corrections.Load(cfg.CorrectionsFile)
	if err != nil {
		exitWithError(ExitConfigError, "loading DOI corrections: %v", err)
	}

	d := doi.Normalize(args[0])
	var chain []sources.Adapter
	switch doi.IdentifyPublisher(d) {
	case doi.IEEE:
		chain = append(chain, sources.NewIEEE(client))
	case doi.ACM:
		chain = append(chain, sources.NewACM(client))
	case doi.ArXiv:
		chain = append(chain, sources.NewArxiv(client))
	}
	chain = append(chain, sources.NewCrossRef(client))

	fetcher := fetch.New(store, table)
	req := sources.Request{DOI: d}

	var lastErr error
	for _, adapter := range chain {
		res, err := fetcher.Fetch(cmd.Context(), adapter, req)
		if err != nil {
			lastErr = err
			logger.Debug("source failed", "source", adapter.Name(), "err", err)
			continue
		}

		fmt.Println(res.BibTeX)
		if fetchCopy {
			if err := clipboard.Copy(res.BibTeX); err != nil {
				logger.Warn("could not copy to clipboard", "err", err)
			} else {
				logger.Info("copied to clipboard")
			}
		}
		return nil
	}

	exitWithError(ExitDataError, "could not fetch %s: %v", d, lastErr)
	return nil
}
