// mnemo: persistent memory for a personal AI assistant.
//
// A single-binary MCP server that gives an assistant durable memory —
// facts, events, conversation excerpts, nuggets, and profile cards —
// backed by a local SQLite database.
//
// Usage:
//
//	mnemo serve     # Start MCP server (stdio transport)
//	mnemo stats     # Show what the memory holds
//	mnemo export    # Dump a JSON snapshot
//	mnemo import    # Merge a JSON snapshot
//	mnemo update    # Update to the latest version
package main

import (
	"os"

	"github.com/mnemolab/mnemo/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
