package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnemolab/mnemo/internal/server"
	"github.com/mnemolab/mnemo/internal/updater"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update mnemo to the latest release",
		Run:   runUpdate,
	}

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	fmt.Fprintf(os.Stderr, "Checking for updates...\n")

	result := updater.CheckVersion(server.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "Already at the latest version (v%s)\n", result.CurrentVersion)
		return
	}

	fmt.Fprintf(os.Stderr, "New version available: v%s -> v%s\n", result.CurrentVersion, result.LatestVersion)
	fmt.Fprintf(os.Stderr, "Downloading...\n")

	if err := updater.SelfUpdate(server.Version); err != nil {
		fmt.Fprintf(os.Stderr, "Update failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nYou can download manually from:\n  %s\n", result.ReleaseURL)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Updated to v%s. Restart mnemo to use the new version.\n", result.LatestVersion)
}
