// Package pdfgen renders a formatted bibliography PDF from a BibTeX file
// by driving pdflatex and biber over an embedded LaTeX template.
package pdfgen

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"
)

//go:embed templates/*.tex
var templateFS embed.FS

// ErrLaTeXNotFound means pdflatex or biber is not on PATH.
var ErrLaTeXNotFound = errors.New("LaTeX toolchain not found (need pdflatex and biber)")

// Style selects the bibliography style baked into the generated document.
type Style string

const (
	StyleIEEE   Style = "ieee"
	StyleACM    Style = "acm"
	StyleAPA    Style = "apa"
	StyleGB7714 Style = "gb7714"
)

// ParseStyle resolves a user-supplied style name. "gb7714-2015" is
// accepted as an alias for gb7714.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ieee", "":
		return StyleIEEE, nil
	case "acm":
		return StyleACM, nil
	case "apa":
		return StyleAPA, nil
	case "gb7714", "gb7714-2015":
		return StyleGB7714, nil
	}
	return "", fmt.Errorf("unknown citation style %q (available: ieee, acm, apa, gb7714)", s)
}

// Options configures a Generator.
type Options struct {
	Style Style
	// Title is the document heading. Empty means "References".
	Title string
	// KeepTeX leaves the generated .tex file next to the output PDF.
	KeepTeX bool
}

// runner executes one external command in dir and returns its combined
// output. Replaced in tests.
type runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// Generator compiles BibTeX files into bibliography PDFs.
type Generator struct {
	opts   Options
	logger *log.Logger
	run    runner
}

// New creates a Generator. A nil logger discards output.
func New(opts Options, logger *log.Logger) *Generator {
	if opts.Style == "" {
		opts.Style = StyleIEEE
	}
	if opts.Title == "" {
		opts.Title = "References"
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Generator{opts: opts, logger: logger, run: runCommand}
}

func runCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// CheckToolchain verifies that pdflatex and biber are runnable.
func (g *Generator) CheckToolchain(ctx context.Context) error {
	for _, tool := range []string{"pdflatex", "biber"} {
		if _, err := g.run(ctx, "", tool, "--version"); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrLaTeXNotFound, tool, err)
		}
	}
	return nil
}

// RenderTeX fills the style template for the given bibliography file and
// returns the LaTeX source.
func (g *Generator) RenderTeX(bibFile string) (string, error) {
	abs, err := filepath.Abs(bibFile)
	if err != nil {
		return "", fmt.Errorf("resolving bibliography path: %w", err)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/"+string(g.opts.Style)+".tex")
	if err != nil {
		return "", fmt.Errorf("loading %s template: %w", g.opts.Style, err)
	}

	var sb strings.Builder
	err = tmpl.Execute(&sb, struct {
		BibFile string
		Title   string
	}{BibFile: abs, Title: g.opts.Title})
	if err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}
	return sb.String(), nil
}

// Generate compiles bibFile into outputPDF. Compilation runs in a
// scratch directory: pdflatex, biber, then two more pdflatex passes to
// settle references, matching how bibliographies are normally built.
// Intermediate pass failures are logged but only a missing final PDF is
// fatal, since pdflatex routinely exits nonzero on recoverable warnings.
func (g *Generator) Generate(ctx context.Context, bibFile, outputPDF string) error {
	if err := g.CheckToolchain(ctx); err != nil {
		return err
	}

	tex, err := g.RenderTeX(bibFile)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "bibfill-pdf-")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	const docName = "bibliography"
	texFile := filepath.Join(dir, docName+".tex")
	if err := os.WriteFile(texFile, []byte(tex), 0644); err != nil {
		return fmt.Errorf("writing LaTeX source: %w", err)
	}

	passes := []struct {
		desc string
		name string
		args []string
	}{
		{"pdflatex (pass 1)", "pdflatex", []string{"-interaction=nonstopmode", docName + ".tex"}},
		{"biber", "biber", []string{docName}},
		{"pdflatex (pass 2)", "pdflatex", []string{"-interaction=nonstopmode", docName + ".tex"}},
		{"pdflatex (pass 3)", "pdflatex", []string{"-interaction=nonstopmode", docName + ".tex"}},
	}
	for _, p := range passes {
		g.logger.Info("running " + p.desc)
		if out, err := g.run(ctx, dir, p.name, p.args...); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.logger.Warn(p.desc+" reported errors", "err", err, "output", tail(out, 1000))
		}
	}

	generated := filepath.Join(dir, docName+".pdf")
	if _, err := os.Stat(generated); err != nil {
		return fmt.Errorf("PDF was not generated, check the LaTeX log output")
	}

	if err := copyFile(generated, outputPDF); err != nil {
		return fmt.Errorf("writing %s: %w", outputPDF, err)
	}
	g.logger.Info("PDF generated", "path", outputPDF)

	if g.opts.KeepTeX {
		keep := strings.TrimSuffix(outputPDF, filepath.Ext(outputPDF)) + ".tex"
		if err := os.WriteFile(keep, []byte(tex), 0644); err != nil {
			return fmt.Errorf("saving LaTeX source: %w", err)
		}
		g.logger.Info("LaTeX source saved", "path", keep)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
