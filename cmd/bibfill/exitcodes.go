package main

// Exit codes shared by all subcommands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable or malformed config)
	ExitDataError   = 3 // Data error (malformed BibTeX, no entries)
	ExitLaTeXError  = 4 // LaTeX toolchain missing or compilation failure
)
