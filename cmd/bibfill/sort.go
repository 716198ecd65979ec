package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibfill/bibfill/internal/bib"
)

var sortOutput string

func init() {
	sortCmd.Flags().StringVarP(&sortOutput, "output", "o", "",
		"Output file (default: <input>_sorted.bib)")
	rootCmd.AddCommand(sortCmd)
}

var sortCmd = &cobra.Command{
	Use:   "sort <file.bib>",
	Short: "Sort entries by citation key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		records := mustParseBib(input)

		bib.SortByID(records)

		output := derivedOutput(sortOutput, input, "_sorted")
		mustWriteBib(output, records)
		fmt.Printf("Sorted %d entries into %s\n", len(records), output)
		return nil
	},
}
