// Package journal keeps an on-disk audit trail of fact ingestion. Every
// batch that goes through the conflict resolver leaves one JSON record
// under <data dir>/journal/, so a user can always answer "when did the
// assistant learn that". Records are append-only; the only mutation is
// pruning the oldest ones past a retention cap.
package journal

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mnemolab/mnemo/internal/memory"
)

const (
	// Dir is the subdirectory under the data dir where records live.
	Dir = "journal"
	// recordExt is the filename extension for journal records.
	recordExt = ".json"
)

// Record is one ingested batch.
type Record struct {
	ID string `json:"id"`
	At string `json:"at"`
	// Source labels where the batch came from, e.g. "mcp" or "import".
	Source     string                 `json:"source,omitempty"`
	Stored     int                    `json:"stored"`
	Replaced   int                    `json:"replaced"`
	Superseded int                    `json:"superseded"`
	Skipped    int                    `json:"skipped"`
	Outcomes   []memory.IngestOutcome `json:"outcomes,omitempty"`
}

// NewRecord builds a record from a resolver result.
func NewRecord(source string, res memory.IngestResult) *Record {
	return &Record{
		Source:     source,
		Stored:     res.Stored,
		Replaced:   res.Replaced,
		Superseded: res.Superseded,
		Skipped:    res.Skipped,
		Outcomes:   res.Outcomes,
	}
}

// Store defines the persistence interface for journal records.
type Store interface {
	Append(rec *Record) error
	Load(id string) (*Record, error)
	List() ([]Record, error)
	Prune(keep int) (int, error)
}

// FileStore implements Store on the local filesystem, one file per
// record. ULID filenames sort oldest first.
type FileStore struct {
	dir string

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewFileStore creates a filesystem-backed journal under dataDir.
func NewFileStore(dataDir string) *FileStore {
	// Monotonic entropy keeps IDs strictly increasing within a
	// millisecond, so filename order is append order.
	source := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &FileStore{
		dir:     filepath.Join(dataDir, Dir),
		entropy: ulid.Monotonic(source, 0),
	}
}

// Path returns the absolute path of a record's file.
func (fs *FileStore) Path(id string) string {
	return filepath.Join(fs.dir, id+recordExt)
}

// Append persists a record, assigning an ID and timestamp when unset.
func (fs *FileStore) Append(rec *Record) error {
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return fmt.Errorf("creating journal directory: %w", err)
	}
	if rec.ID == "" {
		rec.ID = fs.newID()
	}
	if rec.At == "" {
		rec.At = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling journal record: %w", err)
	}
	return os.WriteFile(fs.Path(rec.ID), data, 0o644)
}

// Load reads one record by ID.
func (fs *FileStore) Load(id string) (*Record, error) {
	data, err := os.ReadFile(fs.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("journal record %q not found", id)
		}
		return nil, fmt.Errorf("reading journal record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing journal record %q: %w", id, err)
	}
	return &rec, nil
}

// List returns all records, newest first. A missing journal directory
// is an empty journal, not an error. Unreadable records are skipped.
func (fs *FileStore) List() ([]Record, error) {
	ids, err := fs.ids()
	if err != nil {
		return nil, err
	}

	var result []Record
	for i := len(ids) - 1; i >= 0; i-- {
		rec, err := fs.Load(ids[i])
		if err != nil {
			continue
		}
		result = append(result, *rec)
	}
	return result, nil
}

// Prune removes the oldest records until at most keep remain. It
// returns the number removed. keep <= 0 leaves the journal untouched.
func (fs *FileStore) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	ids, err := fs.ids()
	if err != nil {
		return 0, err
	}
	if len(ids) <= keep {
		return 0, nil
	}

	removed := 0
	for _, id := range ids[:len(ids)-keep] {
		if err := os.Remove(fs.Path(id)); err != nil {
			return removed, fmt.Errorf("pruning journal record %q: %w", id, err)
		}
		removed++
	}
	return removed, nil
}

// ids returns record IDs sorted oldest first.
func (fs *FileStore) ids() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading journal directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, recordExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (fs *FileStore) newID() string {
	fs.idMu.Lock()
	defer fs.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), fs.entropy).String()
}
