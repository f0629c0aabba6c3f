package probe

import "os"

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`capperchat probe
================

Sends canned chat queries to a running service and reports the intent
distribution, the tier that answered and the queries that resolved to an
unexpected intent.

Usage:
  go run ./cmd/chat-probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:3001")
  -rounds int
        Times each query is sent (default 1)
  -workers int
        Concurrent requests (default 4)
  -intent string
        Only run queries expected to resolve to this intent
  -timeout duration
        Per-request timeout (default 1m0s)
  -log-format string
        text or json (default "text")
  -verbose
        Log every response
  -help
        Show this help message

Examples:
  go run ./cmd/chat-probe -intent pricing -verbose
  go run ./cmd/chat-probe -rounds 5 -workers 16 -url http://localhost:8080
`)
}
