package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibfill/bibfill/internal/pdf"
	"github.com/bibfill/bibfill/internal/pdfgen"
)

var (
	pdfOutput  string
	pdfStyle   string
	pdfTitle   string
	pdfKeepTex bool
	pdfOpen    bool
)

func init() {
	pdfCmd.Flags().StringVarP(&pdfOutput, "output", "o", "references.pdf", "Output PDF file")
	pdfCmd.Flags().StringVar(&pdfStyle, "style", "", "Citation style: ieee, acm, apa, gb7714 (default: from config)")
	pdfCmd.Flags().StringVar(&pdfTitle, "title", "", "Document title")
	pdfCmd.Flags().BoolVar(&pdfKeepTex, "keep-tex", false, "Keep the generated .tex file next to the PDF")
	pdfCmd.Flags().BoolVar(&pdfOpen, "open", false, "Open the PDF when done")
	rootCmd.AddCommand(pdfCmd)

	rootCmd.AddCommand(extractDOICmd)
}

var pdfCmd = &cobra.Command{
	Use:   "pdf <file.bib>",
	Short: "Compile a formatted bibliography PDF via LaTeX",
	Long: `Compile a bibliography PDF from a BibTeX file.

Requires pdflatex and biber on PATH.

Examples:
  bibfill pdf refs.bib
  bibfill pdf refs.bib --style apa -o bibliography.pdf --keep-tex`,
	Args: cobra.ExactArgs(1),
	RunE: runPDF,
}

func runPDF(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	styleName := pdfStyle
	if styleName == "" {
		styleName = cfg.CitationStyle
	}
	style, err := pdfgen.ParseStyle(styleName)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	gen := pdfgen.New(pdfgen.Options{
		Style:   style,
		Title:   pdfTitle,
		KeepTeX: pdfKeepTex,
	}, logger)

	if err := gen.Generate(cmd.Context(), args[0], pdfOutput); err != nil {
		if errors.Is(err, pdfgen.ErrLaTeXNotFound) {
			exitWithError(ExitLaTeXError,
				"%v\n\nInstall LaTeX:\n  macOS:  brew install --cask mactex\n  Ubuntu: apt-get install texlive-full", err)
		}
		exitWithError(ExitLaTeXError, "%v", err)
	}
	fmt.Printf("PDF written to %s\n", pdfOutput)

	if pdfOpen {
		global := mustLoadGlobal()
		if err := pdf.NewOpener(global.PDFViewer).Open(pdfOutput); err != nil {
			logger.Warn("could not open PDF", "err", err)
		}
	}
	return nil
}

var extractDOICmd = &cobra.Command{
	Use:   "extract-doi <paper.pdf>",
	Short: "Extract the DOI from a paper PDF",
	Long: `Scan the first pages of a paper PDF for a DOI and print it.
Useful for building .bib entries from downloaded papers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := pdf.ExtractDOI(args[0])
		if err != nil {
			exitWithError(ExitDataError, "extracting DOI: %v", err)
		}
		if d == "" {
			if title, _ := pdf.ExtractTitle(args[0]); title != "" {
				exitWithError(ExitDataError, "no DOI found in %s (likely title: %q)", args[0], title)
			}
			exitWithError(ExitDataError, "no DOI found in %s", args[0])
		}
		fmt.Println(d)
		return nil
	},
}
