// Package memory implements the persistent semantic memory engine for
// mnemo.
//
// It stores five kinds of knowledge about a user — facts, events, free-text
// chunks, nuggets, and profile cards — in SQLite, with an FTS5 index over
// chunk text. Retrieval is lexical/BM25-first; embedding vectors are stored
// opaquely for callers that have them. Write-time conflict resolution keeps
// a subject's single-valued attributes consistent as new, possibly
// contradictory, facts arrive.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds memory store configuration. All fields are plain values so a
// store can be constructed explicitly — the engine keeps no ambient state.
type Config struct {
	// DataDir is where the database file lives. Created if absent.
	DataDir string
	// DBPath overrides the default <DataDir>/memory.db location when set.
	DBPath string
	// PrimaryUser is the literal subject that identifies the primary user
	// in fact triples.
	PrimaryUser string
	// MaxSearchResults caps the result count of every search operation.
	MaxSearchResults int
}

// DefaultConfig returns the default configuration for the memory store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".mnemo"),
		PrimaryUser:      "user",
		MaxSearchResults: 20,
	}
}

func (c Config) dbPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "memory.db")
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent memory engine backed by SQLite + FTS5.
//
// The *sql.DB handle is the single shared resource: opened once, journaled
// in WAL mode so readers are not blocked by the writer, reused by every
// operation. Writes are single atomic statements; the engine makes no
// ordering promises across concurrent calls beyond SQLite's own isolation.
type Store struct {
	db  *sql.DB
	cfg Config

	idMu    sync.Mutex
	entropy *rand.Rand

	migrateMu sync.Mutex
	migrated  bool
}

// Open opens the backing database, creating the data directory and file if
// needed, and returns a ready handle. No schema work happens here — call
// Migrate before serving queries. A nil error means the handle is usable;
// any open or pragma failure is fatal and surfaced.
func Open(cfg Config) (*Store, error) {
	if cfg.PrimaryUser == "" {
		cfg.PrimaryUser = "user"
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 20
	}

	if dir := filepath.Dir(cfg.dbPath()); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("memory: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", cfg.dbPath())
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	return &Store{
		db:      db,
		cfg:     cfg,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// New opens the store and runs migrations — the common path for callers
// that don't need the two phases separately.
func New(cfg Config) (*Store, error) {
	s, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("memory: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// PrimaryUser returns the configured primary-user subject literal.
func (s *Store) PrimaryUser() string {
	return s.cfg.PrimaryUser
}

// newID returns a fresh ULID. The entropy source is not safe for
// concurrent use, hence the lock.
func (s *Store) newID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// clampMax normalizes a caller-requested result count: non-positive values
// fall back to def, and everything is capped by MaxSearchResults.
func (s *Store) clampMax(max, def int) int {
	if max <= 0 {
		max = def
	}
	if max > s.cfg.MaxSearchResults {
		max = s.cfg.MaxSearchResults
	}
	return max
}

// defaultPageSize bounds list pages when the caller does not set take.
const defaultPageSize = 50

func normalizePage(skip, take int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if take <= 0 {
		take = defaultPageSize
	}
	return skip, take
}

// ─── Shared helpers ──────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// Truncate shortens a string to max bytes with an ellipsis.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// escapeLike escapes LIKE wildcards so list filters match them literally.
// Escaped patterns must be used with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// likePattern builds a case-insensitive substring LIKE pattern for filter.
func likePattern(filter string) string {
	return "%" + escapeLike(strings.ToLower(filter)) + "%"
}

// isDuplicateColumn reports whether err is SQLite's complaint about an
// additive ALTER TABLE re-running against an already-upgraded database.
func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}
