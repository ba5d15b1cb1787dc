package cli

import (
	"fmt"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/mnemolab/mnemo/internal/server"
	"github.com/mnemolab/mnemo/internal/updater"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the memory server on stdio for an MCP host.

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "mnemo": {
        "command": "mnemo",
        "args": ["serve"]
      }
    }
  }`,
		Run: runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}

	s, cleanup, err := server.New(cfg)
	if err != nil {
		exitErr("create server", err)
	}
	defer cleanup()

	// Background version check. Prints to stderr so it doesn't
	// interfere with the MCP transport on stdout.
	go notifyUpdates()

	if err := mcpserver.ServeStdio(s); err != nil {
		exitErr("serve", err)
	}
}

// notifyUpdates runs a non-blocking version check and prints a notice
// to stderr when a newer release exists. Network failures stay silent.
func notifyUpdates() {
	result := updater.CheckVersion(server.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  Update available: v%s -> v%s\n"+
				"  Run: mnemo update\n"+
				"  Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}
