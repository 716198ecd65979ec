package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bibfill/bibfill/internal/bib"
	"github.com/bibfill/bibfill/internal/config"
	"github.com/bibfill/bibfill/internal/record"
)

// exitWithError writes an error to stderr and exits with the given code.
func exitWithError(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(code)
}

// mustLoadConfig loads the run configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.LoadRun(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustLoadGlobal loads the user-level configuration, exits on error.
func mustLoadGlobal() *config.GlobalConfig {
	global, err := config.LoadGlobal()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	return global
}

// mustParseBib parses a .bib file, exits on error or when it is empty.
func mustParseBib(path string) []*record.Record {
	records, err := bib.ParseFile(path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if len(records) == 0 {
		exitWithError(ExitDataError, "no entries found in %s", path)
	}
	return records
}

// mustWriteBib serializes records, exits on error.
func mustWriteBib(path string, records []*record.Record) {
	if err := bib.WriteFile(path, records); err != nil {
		exitWithError(ExitError, "%v", err)
	}
}

// derivedOutput returns the explicit output path when given, otherwise
// the input path with a suffix before the extension, e.g.
// refs.bib -> refs_completed.bib.
func derivedOutput(explicit, input, suffix string) string {
	if explicit != "" {
		return explicit
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}
