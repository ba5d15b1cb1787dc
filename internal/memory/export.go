package memory

import (
	"context"
	"fmt"
)

// Snapshot is the serializable dump of every live entity in the store.
type Snapshot struct {
	Version    string        `json:"version"`
	ExportedAt string        `json:"exported_at"`
	Facts      []Fact        `json:"facts,omitempty"`
	Events     []Event       `json:"events,omitempty"`
	Chunks     []Chunk       `json:"chunks,omitempty"`
	Nuggets    []Nugget      `json:"nuggets,omitempty"`
	Profiles   []ProfileCard `json:"profiles,omitempty"`
}

// ImportReport counts rows merged from a snapshot.
type ImportReport struct {
	Facts    int `json:"facts"`
	Events   int `json:"events"`
	Chunks   int `json:"chunks"`
	Nuggets  int `json:"nuggets"`
	Profiles int `json:"profiles"`
	Skipped  int `json:"skipped"`
}

// Export dumps all non-deleted entities. Soft-deleted rows stay behind —
// a snapshot carries live knowledge, not audit history.
func (s *Store) Export(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Version: "1", ExportedAt: Now()}

	facts, _, err := s.ListFacts(ctx, "", 0, exportPageSize)
	if err != nil {
		return nil, fmt.Errorf("export facts: %w", err)
	}
	snap.Facts = facts

	events, _, err := s.ListEvents(ctx, "", 0, exportPageSize)
	if err != nil {
		return nil, fmt.Errorf("export events: %w", err)
	}
	snap.Events = events

	chunks, _, err := s.ListChunks(ctx, "", 0, exportPageSize)
	if err != nil {
		return nil, fmt.Errorf("export chunks: %w", err)
	}
	snap.Chunks = chunks

	nuggets, _, err := s.ListNuggets(ctx, "", 0, exportPageSize)
	if err != nil {
		return nil, fmt.Errorf("export nuggets: %w", err)
	}
	snap.Nuggets = nuggets

	profiles, _, err := s.ListProfiles(ctx, "", 0, exportPageSize)
	if err != nil {
		return nil, fmt.Errorf("export profiles: %w", err)
	}
	snap.Profiles = profiles

	return snap, nil
}

// exportPageSize is effectively unlimited for a personal store.
const exportPageSize = 1_000_000

// Import merges a snapshot by id (upsert). Rows whose id was soft-deleted
// in this store are skipped — an import never resurrects what the user
// deleted locally.
func (s *Store) Import(ctx context.Context, snap *Snapshot) (*ImportReport, error) {
	report := &ImportReport{}

	for _, f := range snap.Facts {
		if f.ID == "" {
			continue
		}
		local, err := s.fetchFact(ctx, f.ID, true)
		if err != nil {
			return report, err
		}
		if local != nil && local.Deleted {
			report.Skipped++
			continue
		}
		if _, err := s.StoreFact(ctx, f); err != nil {
			return report, fmt.Errorf("import fact %s: %w", f.ID, err)
		}
		report.Facts++
	}

	for _, e := range snap.Events {
		if e.ID == "" {
			continue
		}
		deleted, err := s.isTombstoned(ctx, "memory_events", "event_id", e.ID)
		if err != nil {
			return report, err
		}
		if deleted {
			report.Skipped++
			continue
		}
		if _, err := s.StoreEvent(ctx, e); err != nil {
			return report, fmt.Errorf("import event %s: %w", e.ID, err)
		}
		report.Events++
	}

	for _, c := range snap.Chunks {
		if c.ID == "" {
			continue
		}
		deleted, err := s.isTombstoned(ctx, "memory_chunks", "chunk_id", c.ID)
		if err != nil {
			return report, err
		}
		if deleted {
			report.Skipped++
			continue
		}
		if _, err := s.StoreChunk(ctx, c); err != nil {
			return report, fmt.Errorf("import chunk %s: %w", c.ID, err)
		}
		report.Chunks++
	}

	for _, n := range snap.Nuggets {
		if n.ID == "" {
			continue
		}
		deleted, err := s.isTombstoned(ctx, "memory_nuggets", "nugget_id", n.ID)
		if err != nil {
			return report, err
		}
		if deleted {
			report.Skipped++
			continue
		}
		if _, err := s.StoreNugget(ctx, n); err != nil {
			return report, fmt.Errorf("import nugget %s: %w", n.ID, err)
		}
		report.Nuggets++
	}

	for _, p := range snap.Profiles {
		if p.ID == "" {
			continue
		}
		deleted, err := s.isTombstoned(ctx, "profile_cards", "profile_id", p.ID)
		if err != nil {
			return report, err
		}
		if deleted {
			report.Skipped++
			continue
		}
		if _, err := s.StoreProfile(ctx, p); err != nil {
			return report, fmt.Errorf("import profile %s: %w", p.ID, err)
		}
		report.Profiles++
	}

	return report, nil
}

// isTombstoned reports whether the id exists locally as a soft-deleted
// row. The table and column names come from a fixed internal set, never
// from caller input.
func (s *Store) isTombstoned(ctx context.Context, table, idColumn, id string) (bool, error) {
	var deleted int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE `+idColumn+` = ? AND is_deleted = 1`, id,
	).Scan(&deleted)
	if err != nil {
		return false, fmt.Errorf("memory: tombstone check: %w", err)
	}
	return deleted > 0, nil
}
