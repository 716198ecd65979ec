// Package config handles run configuration and the global settings file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls a completion run. It is loaded from a JSON or YAML
// file and passed explicitly to whatever needs it.
type Config struct {
	// ArxivHandling is "replace_with_published" to swap preprints for
	// their published versions, or "keep" to leave them alone.
	ArxivHandling string `json:"arxiv_handling" yaml:"arxiv_handling"`

	// MergeMultipleSources fetches every applicable source per entry
	// and merges the results instead of stopping at the first success.
	MergeMultipleSources bool `json:"merge_multiple_sources" yaml:"merge_multiple_sources"`

	ParallelProcessing bool `json:"parallel_processing" yaml:"parallel_processing"`
	MaxWorkers         int  `json:"max_workers" yaml:"max_workers"`

	// RequestDelay is the pause between entries, in seconds.
	RequestDelay float64 `json:"request_delay" yaml:"request_delay"`

	// DataSourcePriority seeds the merger when sources disagree.
	DataSourcePriority []string `json:"data_source_priority" yaml:"data_source_priority"`

	TitleFormat   string `json:"title_format" yaml:"title_format"`
	JournalFormat string `json:"journal_format" yaml:"journal_format"`
	AuthorFormat  string `json:"author_format" yaml:"author_format"`
	PageFormat    string `json:"page_format" yaml:"page_format"`

	CitationStyle string `json:"citation_style" yaml:"citation_style"`

	PDFOutput PDFOutput `json:"pdf_output" yaml:"pdf_output"`
	Logging   Logging   `json:"logging" yaml:"logging"`

	// CacheDir holds fetched BibTeX between runs. CacheBackend selects
	// "file" or "sqlite".
	CacheDir     string `json:"cache_dir" yaml:"cache_dir"`
	CacheBackend string `json:"cache_backend" yaml:"cache_backend"`

	CorrectionsFile string `json:"corrections_file" yaml:"corrections_file"`
	FailedDOIFile   string `json:"failed_doi_file" yaml:"failed_doi_file"`

	// BrowserFallback enables the headless-browser IEEE adapter when
	// the plain HTTP one is blocked.
	BrowserFallback bool `json:"browser_fallback" yaml:"browser_fallback"`
}

// PDFOutput configures compiled-bibliography output.
type PDFOutput struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// Logging configures the change report.
type Logging struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	OutputFile string `json:"output_file" yaml:"output_file"`
}

// ArxivHandling values.
const (
	ArxivReplace = "replace_with_published"
	ArxivKeep    = "keep"
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ArxivHandling:        ArxivReplace,
		MergeMultipleSources: true,
		ParallelProcessing:   false,
		MaxWorkers:           5,
		RequestDelay:         1.0,
		DataSourcePriority:   []string{"doi_official", "dblp", "crossref"},
		TitleFormat:          "titlecase",
		JournalFormat:        "abbreviation",
		AuthorFormat:         "first_last",
		PageFormat:           "double_dash",
		CitationStyle:        "ieee",
		PDFOutput:            PDFOutput{Enabled: true},
		Logging:              Logging{Enabled: true, OutputFile: "changes_log.md"},
		CacheDir:             ".bibfill_cache",
		CacheBackend:         "file",
		CorrectionsFile:      "doi_corrections.json",
		FailedDOIFile:        "failed_dois.json",
	}
}

// LoadRun reads a run configuration, layering the file over the
// defaults. A missing file yields the defaults. The format follows the
// extension: .yml and .yaml parse as YAML, everything else as JSON.
func LoadRun(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	return cfg, nil
}

// Delay converts the configured request delay to a duration.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.RequestDelay * float64(time.Second))
}

// ReplaceArxiv reports whether preprints should be swapped for their
// published versions.
func (c *Config) ReplaceArxiv() bool {
	return c.ArxivHandling == ArxivReplace
}
