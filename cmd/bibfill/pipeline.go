package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bibfill/bibfill/internal/bib"
	"github.com/bibfill/bibfill/internal/format"
	"github.com/bibfill/bibfill/internal/pdfgen"
)

var (
	pipelineOutput string
	pipelineNoPDF  bool
)

func init() {
	pipelineCmd.Flags().StringVarP(&pipelineOutput, "output", "o", "",
		"Output file (default: <input>_completed.bib)")
	pipelineCmd.Flags().BoolVar(&pipelineNoPDF, "no-pdf", false,
		"Skip PDF generation even when enabled in config")
	rootCmd.AddCommand(pipelineCmd)
}

var pipelineCmd = &cobra.Command{
	Use:   "pipeline <file.bib>",
	Short: "Complete, format, sort, and optionally compile a PDF",
	Long: `Run the full workflow in one pass: complete entries from online
sources, standardize field formatting, sort by citation key, and compile
a bibliography PDF when pdf_output is enabled in the configuration.

Examples:
  bibfill pipeline refs.bib
  bibfill pipeline refs.bib -o final.bib --no-pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	input := args[0]
	records := mustParseBib(input)
	logger.Info("loaded bibliography", "file", input, "entries", len(records))

	completer, ledger, cleanup := mustBuildCompleter(cfg)
	defer cleanup()

	results, summary := completer.All(cmd.Context(), records)

	styler := format.NewStyler()
	opts := format.Options{
		Title:   cfg.TitleFormat,
		Author:  cfg.AuthorFormat,
		Journal: cfg.JournalFormat,
		Pages:   cfg.PageFormat,
	}
	for _, r := range records {
		styler.Standardize(r, opts, ledger)
	}

	bib.SortByID(records)

	output := derivedOutput(pipelineOutput, input, "_completed")
	mustWriteBib(output, records)

	if cfg.Logging.Enabled {
		if err := ledger.SaveMarkdown(cfg.Logging.OutputFile); err != nil {
			logger.Warn("could not write change log", "err", err)
		}
	}

	printSummary(results, summary, output)

	if cfg.PDFOutput.Enabled && !pipelineNoPDF {
		style, err := pdfgen.ParseStyle(cfg.CitationStyle)
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		gen := pdfgen.New(pdfgen.Options{Style: style}, logger)
		pdfPath := strings.TrimSuffix(output, filepath.Ext(output)) + ".pdf"
		if err := gen.Generate(cmd.Context(), output, pdfPath); err != nil {
			logger.Warn("PDF generation failed", "err", err)
		} else {
			fmt.Printf("PDF written to %s\n", pdfPath)
		}
	}
	return nil
}
