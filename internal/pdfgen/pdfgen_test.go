package pdfgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"ieee", StyleIEEE, false},
		{"IEEE", StyleIEEE, false},
		{"", StyleIEEE, false},
		{"acm", StyleACM, false},
		{"apa", StyleAPA, false},
		{"gb7714", StyleGB7714, false},
		{"gb7714-2015", StyleGB7714, false},
		{"chicago", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStyle(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStyle(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStyle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderTeX(t *testing.T) {
	g := New(Options{Style: StyleIEEE, Title: "My References"}, nil)
	tex, err := g.RenderTeX("refs.bib")
	if err != nil {
		t.Fatalf("RenderTeX: %v", err)
	}

	abs, _ := filepath.Abs("refs.bib")
	for _, want := range []string{
		`\addbibresource{` + abs + `}`,
		`\title{My References}`,
		"style=ieee",
		`\nocite{*}`,
	} {
		if !strings.Contains(tex, want) {
			t.Errorf("rendered TeX missing %q", want)
		}
	}
}

func TestRenderTeXAllStyles(t *testing.T) {
	wantStyle := map[Style]string{
		StyleIEEE:   "style=ieee",
		StyleACM:    "style=numeric-comp",
		StyleAPA:    "style=apa",
		StyleGB7714: "style=gb7714-2015",
	}
	for style, want := range wantStyle {
		g := New(Options{Style: style}, nil)
		tex, err := g.RenderTeX("refs.bib")
		if err != nil {
			t.Errorf("RenderTeX(%s): %v", style, err)
			continue
		}
		if !strings.Contains(tex, want) {
			t.Errorf("%s template missing %q", style, want)
		}
		if !strings.Contains(tex, `\title{References}`) {
			t.Errorf("%s template missing default title", style)
		}
	}
}

// fakeRunner records invocations and fabricates the PDF that the final
// pdflatex pass would leave behind.
type fakeRunner struct {
	commands    []string
	failVersion map[string]error // fail the --version probe
	failCompile map[string]error // fail the compilation pass
}

func (f *fakeRunner) run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	f.commands = append(f.commands, name+" "+strings.Join(args, " "))
	versionCheck := len(args) > 0 && args[0] == "--version"
	if versionCheck {
		if err, ok := f.failVersion[name]; ok {
			return []byte("simulated failure"), err
		}
	} else if err, ok := f.failCompile[name]; ok {
		return []byte("simulated failure"), err
	}
	if name == "pdflatex" && dir != "" {
		if err := os.WriteFile(filepath.Join(dir, "bibliography.pdf"), []byte("%PDF-1.5"), 0644); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func TestGenerateRunsCompilationSequence(t *testing.T) {
	dir := t.TempDir()
	bib := filepath.Join(dir, "refs.bib")
	if err := os.WriteFile(bib, []byte("@article{a, title={T}}"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "refs.pdf")

	fake := &fakeRunner{}
	g := New(Options{Style: StyleIEEE}, nil)
	g.run = fake.run

	if err := g.Generate(context.Background(), bib, out); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []string{
		"pdflatex --version",
		"biber --version",
		"pdflatex -interaction=nonstopmode bibliography.tex",
		"biber bibliography",
		"pdflatex -interaction=nonstopmode bibliography.tex",
		"pdflatex -interaction=nonstopmode bibliography.tex",
	}
	if len(fake.commands) != len(want) {
		t.Fatalf("ran %d commands, want %d: %v", len(fake.commands), len(want), fake.commands)
	}
	for i, cmd := range want {
		if fake.commands[i] != cmd {
			t.Errorf("command %d = %q, want %q", i, fake.commands[i], cmd)
		}
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output PDF missing: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("output is not a PDF: %q", data)
	}
}

func TestGenerateKeepTeX(t *testing.T) {
	dir := t.TempDir()
	bib := filepath.Join(dir, "refs.bib")
	if err := os.WriteFile(bib, []byte("@article{a, title={T}}"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "refs.pdf")

	g := New(Options{Style: StyleIEEE, KeepTeX: true}, nil)
	g.run = (&fakeRunner{}).run

	if err := g.Generate(context.Background(), bib, out); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tex, err := os.ReadFile(filepath.Join(dir, "refs.tex"))
	if err != nil {
		t.Fatalf("saved .tex missing: %v", err)
	}
	if !strings.Contains(string(tex), `\addbibresource{`) {
		t.Error("saved .tex does not look like the rendered template")
	}
}

func TestGenerateToolchainMissing(t *testing.T) {
	fake := &fakeRunner{failVersion: map[string]error{"pdflatex": errors.New("executable not found")}}
	g := New(Options{}, nil)
	g.run = fake.run

	err := g.Generate(context.Background(), "refs.bib", "refs.pdf")
	if !errors.Is(err, ErrLaTeXNotFound) {
		t.Fatalf("err = %v, want ErrLaTeXNotFound", err)
	}
}

func TestGenerateSurvivesNoisyPasses(t *testing.T) {
	// pdflatex exits nonzero on warnings; the PDF still appearing means
	// success.
	dir := t.TempDir()
	bib := filepath.Join(dir, "refs.bib")
	if err := os.WriteFile(bib, []byte("@article{a, title={T}}"), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "refs.pdf")

	fake := &fakeRunner{failCompile: map[string]error{"biber": errors.New("exit status 2")}}
	g := New(Options{}, nil)
	g.run = fake.run

	if err := g.Generate(context.Background(), bib, out); err != nil {
		t.Fatalf("Generate: %v", err)
	}
}
