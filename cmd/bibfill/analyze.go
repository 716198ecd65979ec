package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bibfill/bibfill/internal/analyze"
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.bib>",
	Short: "Summarize entry types, years, and venues",
	Long: `Print distribution tables for a bibliography: entry types,
publication years (newest first), and venues by frequency.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records := mustParseBib(args[0])
		analyze.Records(records).Render(os.Stdout)
		return nil
	},
}
