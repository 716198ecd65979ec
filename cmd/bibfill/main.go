// Package main provides the bibfill CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath string
	verbose    bool
	logger     *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibfill",
	Short: "Complete, format, and publish BibTeX bibliographies",
	Long: `bibfill completes BibTeX bibliographies from online sources.

Core features:
  - Fill missing fields from IEEE, ACM, arXiv, CrossRef, and Google Scholar
  - Replace arXiv preprints with their published versions
  - Merge data from multiple sources with field-level provenance
  - Standardize titles, authors, journals, and page ranges
  - Compile a formatted bibliography PDF via LaTeX

Fetched data is cached on disk so repeat runs stay fast and polite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional; API keys may come from the environment directly.
		_ = godotenv.Load()

		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json",
		"Run configuration file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = Version
}
