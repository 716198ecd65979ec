package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibfill/bibfill/internal/corrections"
)

var correctionReason string

func init() {
	correctionsAddCmd.Flags().StringVar(&correctionReason, "reason", "", "Why the DOI was corrected")
	correctionsInvalidateCmd.Flags().StringVar(&correctionReason, "reason", "", "Why the DOI is invalid")

	correctionsCmd.AddCommand(correctionsListCmd)
	correctionsCmd.AddCommand(correctionsAddCmd)
	correctionsCmd.AddCommand(correctionsInvalidateCmd)
	rootCmd.AddCommand(correctionsCmd)
}

var correctionsCmd = &cobra.Command{
	Use:   "corrections",
	Short: "Manage the DOI correction table",
	Long: `Manage the DOI correction table consulted before every fetch.

Corrected DOIs are substituted transparently; invalid DOIs are skipped
and land in the failed-DOI log instead of hammering sources that can
never answer.`,
}

var correctionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded DOI corrections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := mustLoadCorrections()
		entries := table.Entries()
		if len(entries) == 0 {
			fmt.Println("No DOI corrections recorded.")
			return nil
		}
		for _, e := range entries {
			switch e.Status {
			case corrections.StatusCorrected:
				fmt.Printf("%s -> %s (%s)\n", e.OriginalDOI, e.CorrectedDOI, e.Reason)
			default:
				fmt.Printf("%s [%s] %s\n", e.OriginalDOI, e.Status, e.Reason)
			}
		}
		return nil
	},
}

var correctionsAddCmd = &cobra.Command{
	Use:   "add <wrong-doi> <correct-doi>",
	Short: "Record a DOI substitution",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		table := mustLoadCorrections()
		table.Set(args[0], corrections.Entry{
			CorrectedDOI: args[1],
			Status:       corrections.StatusCorrected,
			Reason:       correctionReason,
		})
		if err := table.Save(cfg.CorrectionsFile); err != nil {
			exitWithError(ExitError, "saving corrections: %v", err)
		}
		fmt.Printf("Recorded correction %s -> %s\n", args[0], args[1])
		return nil
	},
}

var correctionsInvalidateCmd = &cobra.Command{
	Use:   "invalidate <doi>",
	Short: "Mark a DOI as invalid so it is never fetched",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		table := mustLoadCorrections()
		table.Set(args[0], corrections.Entry{
			Status: corrections.StatusInvalid,
			Reason: correctionReason,
		})
		if err := table.Save(cfg.CorrectionsFile); err != nil {
			exitWithError(ExitError, "saving corrections: %v", err)
		}
		fmt.Printf("Marked %s as invalid\n", args[0])
		return nil
	},
}

func mustLoadCorrections() *corrections.Table {
	cfg := mustLoadConfig()
	table, err := corrections.Load(cfg.CorrectionsFile)
	if err != nil {
		exitWithError(ExitConfigError, "loading DOI corrections: %v", err)
	}
	return table
}
