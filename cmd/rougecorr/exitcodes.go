package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing config, invalid batch file, no ROUGE installation)
	ExitDataError   = 3 // Data error (malformed score table, nothing to correlate)
	ExitPartial     = 4 // Batch finished but some jobs or runs failed
)
