package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bibfill/bibfill/internal/complete"
)

var (
	completeOutput   string
	completeParallel bool
	completeWorkers  int
	completeNoMerge  bool
)

func init() {
	completeCmd.Flags().StringVarP(&completeOutput, "output", "o", "",
		"Output file (default: <input>_completed.bib)")
	completeCmd.Flags().BoolVar(&completeParallel, "parallel", false,
		"Process entries in parallel")
	completeCmd.Flags().IntVar(&completeWorkers, "workers", 0,
		"Worker count for parallel processing (default: from config)")
	completeCmd.Flags().BoolVar(&completeNoMerge, "no-merge", false,
		"Take the first validated source instead of merging all of them")
	rootCmd.AddCommand(completeCmd)
}

var completeCmd = &cobra.Command{
	Use:   "complete <file.bib>",
	Short: "Fill missing fields from online sources",
	Long: `Complete BibTeX entries by fetching missing fields from online sources.

Each incomplete entry is resolved by DOI against its publisher's site,
CrossRef, and Google Scholar, with results validated against the entry
before anything is merged in. arXiv preprints are replaced with their
published versions when one exists.

Examples:
  bibfill complete refs.bib
  bibfill complete refs.bib -o refs_full.bib
  bibfill complete refs.bib --parallel --workers 8`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if cmd.Flags().Changed("parallel") {
		cfg.ParallelProcessing = completeParallel
	}
	if completeWorkers > 0 {
		cfg.MaxWorkers = completeWorkers
	}
	if completeNoMerge {
		cfg.MergeMultipleSources = false
	}

	input := args[0]
	records := mustParseBib(input)
	logger.Info("loaded bibliography", "file", input, "entries", len(records))

	completer, ledger, cleanup := mustBuildCompleter(cfg)
	defer cleanup()

	results, summary := completer.All(cmd.Context(), records)

	output := derivedOutput(completeOutput, input, "_completed")
	mustWriteBib(output, records)

	if cfg.Logging.Enabled {
		if err := ledger.SaveMarkdown(cfg.Logging.OutputFile); err != nil {
			logger.Warn("could not write change log", "err", err)
		} else {
			logger.Info("change log written", "file", cfg.Logging.OutputFile)
		}
	}

	printSummary(results, summary, output)

	if summary.Completed == 0 && summary.Failed > 0 {
		exitWithError(ExitDataError, "no entries could be completed")
	}
	return nil
}

func printSummary(results []complete.EntryResult, summary complete.Summary, output string) {
	fmt.Printf("Processed %d entries: %d completed, %d already complete, %d failed\n",
		summary.Total, summary.Completed, summary.AlreadyComplete, summary.Failed)
	fmt.Printf("Cache hits: %d\n", summary.CacheHits)
	fmt.Printf("Output written to %s\n", output)

	if len(summary.FailedIDs) > 0 {
		fmt.Printf("\nFailed entries: %s\n", strings.Join(summary.FailedIDs, ", "))
		for _, res := range results {
			if res.Outcome == complete.Failed {
				fmt.Printf("  %s: %s\n", res.EntryID, res.Err)
			}
		}
	}
}
