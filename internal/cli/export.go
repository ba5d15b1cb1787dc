package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export all memories as JSON",
		Long:  "Dump every live fact, event, chunk, nugget, and profile card as one JSON snapshot. Writes to stdout unless a file is given.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	snap, err := s.Export(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		exitErr("encode snapshot", err)
	}

	if len(args) == 0 {
		fmt.Println(string(b))
		return
	}
	if err := os.WriteFile(args[0], append(b, '\n'), 0o644); err != nil {
		exitErr("write snapshot", err)
	}
	fmt.Fprintf(os.Stderr, "exported %d facts, %d events, %d chunks, %d nuggets, %d profiles to %s\n",
		len(snap.Facts), len(snap.Events), len(snap.Chunks), len(snap.Nuggets), len(snap.Profiles), args[0])
}
