package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibfill/bibfill/internal/faillog"
)

var failedClear bool

func init() {
	failedCmd.Flags().BoolVar(&failedClear, "clear", false, "Delete the failed-DOI log")
	rootCmd.AddCommand(failedCmd)
}

var failedCmd = &cobra.Command{
	Use:   "failed",
	Short: "Show DOIs that could not be resolved",
	Long: `Show the accumulated failed-DOI log: every identifier that no
source could resolve across runs, with the entry, publisher, and error.`,
	Args: cobra.NoArgs,
	RunE: runFailed,
}

func runFailed(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if failedClear {
		if err := os.Remove(cfg.FailedDOIFile); err != nil && !os.IsNotExist(err) {
			exitWithError(ExitError, "clearing failed-DOI log: %v", err)
		}
		fmt.Println("Failed-DOI log cleared.")
		return nil
	}

	failures, err := faillog.Open(cfg.FailedDOIFile)
	if err != nil {
		exitWithError(ExitError, "opening failed-DOI log: %v", err)
	}
	entries, err := failures.Entries()
	if err != nil {
		exitWithError(ExitDataError, "reading failed-DOI log: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No failed DOIs recorded.")
		return nil
	}

	for _, e := range entries {
		doi := e.DOI
		if doi == "" {
			doi = "(no DOI)"
		}
		fmt.Printf("%s  entry=%s", doi, e.EntryID)
		if e.Publisher != "" {
			fmt.Printf("  publisher=%s", e.Publisher)
		}
		if e.HTTPStatus != 0 {
			fmt.Printf("  status=%d", e.HTTPStatus)
		}
		fmt.Printf("\n    %s  (%s)\n", e.ErrorMessage, e.Timestamp)
	}
	fmt.Printf("\n%d failed DOIs. Fix with 'bibfill corrections add' or 'bibfill corrections invalidate'.\n", len(entries))
	return nil
}
