package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable config, cache unavailable)
	ExitDataError   = 3 // Data error (malformed input file, unknown graph format)
	ExitNotFound    = 4 // Requested author, node or record not found
	ExitRemoteError = 5 // PubMed or ClinicalTrials.gov request failed
)
