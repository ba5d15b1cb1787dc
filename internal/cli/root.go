// Package cli implements the mnemo command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mnemolab/mnemo/internal/config"
	"github.com/mnemolab/mnemo/internal/memory"
	"github.com/mnemolab/mnemo/internal/server"
)

var (
	configFlag string
	dbFlag     string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:     "mnemo",
	Short:   "Persistent memory engine for a personal AI assistant",
	Long:    "mnemo stores what an assistant learns about its user — facts, events,\nconversation excerpts, and proactive nuggets — in a local SQLite database\nand serves it back over MCP (stdio transport).",
	Version: server.Version,
}

func init() {
	// API keys for embedding providers commonly live in a .env next to
	// the binary. Missing file is the normal case.
	_ = godotenv.Load()

	RootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (default: <data-dir>/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dbFlag, "db", "d", "", "Database path (default: $MNEMO_DB_PATH or <data-dir>/memory.db)")
}

// loadConfig resolves the effective configuration: file, then
// environment, then command-line flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return cfg, err
	}
	if dbFlag != "" {
		cfg.DBPath = dbFlag
	}
	return cfg, nil
}

// openStore opens the memory store for commands that talk to the
// database directly, without going through the MCP server.
func openStore() (*memory.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return memory.New(cfg.Memory())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
