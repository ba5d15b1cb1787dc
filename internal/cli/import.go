package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnemolab/mnemo/internal/memory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a JSON snapshot",
		Long:  "Merge a snapshot produced by `mnemo export` into the local store. Existing rows with the same id are overwritten; locally deleted rows are never resurrected. Reads stdin unless a file is given.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var in io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			exitErr("open snapshot", err)
		}
		defer f.Close()
		in = f
	}

	var snap memory.Snapshot
	if err := json.NewDecoder(in).Decode(&snap); err != nil {
		exitErr("decode snapshot", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	report, err := s.Import(cmd.Context(), &snap)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf("imported %d facts, %d events, %d chunks, %d nuggets, %d profiles (%d skipped)\n",
		report.Facts, report.Events, report.Chunks, report.Nuggets, report.Profiles, report.Skipped)
}
