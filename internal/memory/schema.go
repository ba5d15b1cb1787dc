package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Migrate creates or upgrades the on-disk schema. Safe to call on every
// process start: table/index/virtual-table creation is IF NOT EXISTS, the
// additive column migrations swallow "duplicate column name", and the FTS
// sync triggers are guarded by a sqlite_master lookup. Execution is
// serialized under a mutex and gated — after the first success, later
// calls return immediately. Any other DDL error is fatal and surfaced;
// there is no partial-schema recovery.
func (s *Store) Migrate(ctx context.Context) error {
	s.migrateMu.Lock()
	defer s.migrateMu.Unlock()
	if s.migrated {
		return nil
	}

	schema := `
		CREATE TABLE IF NOT EXISTS memory_facts (
			memory_id   TEXT PRIMARY KEY,
			profile_id  TEXT,
			subject     TEXT NOT NULL,
			predicate   TEXT NOT NULL,
			object      TEXT NOT NULL,
			confidence  REAL NOT NULL DEFAULT 0.9,
			sensitivity TEXT NOT NULL DEFAULT 'personal',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			is_deleted  INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_facts_subject ON memory_facts(subject, predicate);
		CREATE INDEX IF NOT EXISTS idx_facts_deleted ON memory_facts(is_deleted);
		CREATE INDEX IF NOT EXISTS idx_facts_updated ON memory_facts(updated_at DESC);

		CREATE TABLE IF NOT EXISTS memory_events (
			event_id    TEXT PRIMARY KEY,
			profile_id  TEXT,
			type        TEXT NOT NULL,
			title       TEXT NOT NULL,
			summary     TEXT,
			when_iso    TEXT,
			confidence  REAL NOT NULL DEFAULT 0.9,
			sensitivity TEXT NOT NULL DEFAULT 'personal',
			is_deleted  INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_events_type    ON memory_events(type);
		CREATE INDEX IF NOT EXISTS idx_events_deleted ON memory_events(is_deleted);

		CREATE TABLE IF NOT EXISTS memory_chunks (
			chunk_id    TEXT PRIMARY KEY,
			source_type TEXT NOT NULL,
			source_ref  TEXT,
			text        TEXT NOT NULL,
			when_iso    TEXT,
			sensitivity TEXT NOT NULL DEFAULT 'personal',
			is_deleted  INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_chunks_source  ON memory_chunks(source_type);
		CREATE INDEX IF NOT EXISTS idx_chunks_deleted ON memory_chunks(is_deleted);

		CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
			text,
			content='memory_chunks',
			content_rowid='rowid'
		);

		CREATE TABLE IF NOT EXISTS memory_nuggets (
			nugget_id    TEXT PRIMARY KEY,
			text         TEXT NOT NULL,
			tags         TEXT,
			weight       REAL NOT NULL DEFAULT 0.5,
			pin_level    INTEGER NOT NULL DEFAULT 0,
			sensitivity  TEXT NOT NULL DEFAULT 'medium',
			use_count    INTEGER NOT NULL DEFAULT 0,
			last_used_at TEXT,
			created_at   TEXT NOT NULL,
			is_deleted   INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_nuggets_deleted ON memory_nuggets(is_deleted);
		CREATE INDEX IF NOT EXISTS idx_nuggets_created ON memory_nuggets(created_at DESC);

		CREATE TABLE IF NOT EXISTS profile_cards (
			profile_id   TEXT PRIMARY KEY,
			kind         TEXT NOT NULL DEFAULT 'person',
			display_name TEXT NOT NULL,
			relationship TEXT,
			profile_json TEXT NOT NULL DEFAULT '{}',
			updated_at   TEXT NOT NULL,
			is_deleted   INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_profiles_kind    ON profile_cards(kind);
		CREATE INDEX IF NOT EXISTS idx_profiles_deleted ON profile_cards(is_deleted);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	// Additive column migrations, in the order they shipped. Re-running
	// against an upgraded database complains "duplicate column name",
	// which is expected and swallowed. Everything else propagates.
	migrations := []string{
		`ALTER TABLE memory_facts ADD COLUMN source_ref TEXT`,
		`ALTER TABLE memory_events ADD COLUMN source_ref TEXT`,
		`ALTER TABLE memory_chunks ADD COLUMN embedding BLOB`,
		`ALTER TABLE memory_nuggets ADD COLUMN embedding BLOB`,
		`ALTER TABLE profile_cards ADD COLUMN aliases TEXT`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil && !isDuplicateColumn(err) {
			return fmt.Errorf("apply migration %q: %w", m, err)
		}
	}

	// FTS sync triggers keep the chunk shadow index consistent with every
	// insert/update/delete in the same unit of work (idempotent creation).
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='chunks_fts_insert'",
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		triggers := `
			CREATE TRIGGER chunks_fts_insert AFTER INSERT ON memory_chunks BEGIN
				INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
			END;

			CREATE TRIGGER chunks_fts_delete AFTER DELETE ON memory_chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
			END;

			CREATE TRIGGER chunks_fts_update AFTER UPDATE ON memory_chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
				INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
			END;
		`
		if _, err := s.db.ExecContext(ctx, triggers); err != nil {
			return fmt.Errorf("create fts triggers: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("check fts triggers: %w", err)
	}

	s.migrated = true
	return nil
}
