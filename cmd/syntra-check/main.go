// Syntra-check verifies a Syntra SDK setup from the command line.
//
// Usage:
//
//	# Send a test error, message, and span through a DSN
//	syntra-check send --dsn syn://key@host/project
//
//	# Same, reading SYNTRA_* environment variables
//	SYNTRA_DSN=syn://key@host/project syntra-check send
//
//	# Inspect a DSN without sending anything
//	syntra-check dsn syn://key@host/project
package main

func main() {
	Execute()
}
