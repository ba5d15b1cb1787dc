package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const chunkFields = `chunk_id, source_type, source_ref, text, when_iso,
	sensitivity, is_deleted, embedding`

func scanChunk(row scanner) (Chunk, error) {
	var c Chunk
	var sensitivity string
	var deleted int
	var embedding []byte
	err := row.Scan(&c.ID, &c.SourceType, &c.SourceRef, &c.Text, &c.When,
		&sensitivity, &deleted, &embedding)
	if err != nil {
		return Chunk{}, err
	}
	c.Sensitivity = ParseSensitivity(sensitivity)
	c.Deleted = deleted != 0
	c.Embedding = decodeEmbedding(embedding)
	return c, nil
}

// StoreChunk upserts a free-text chunk by id. The FTS shadow index stays
// consistent through the schema's sync triggers, so insert and update are
// single statements here.
func (s *Store) StoreChunk(ctx context.Context, c Chunk) (Chunk, error) {
	if strings.TrimSpace(c.Text) == "" {
		return Chunk{}, fmt.Errorf("memory: chunk requires text")
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	if c.SourceType == "" {
		c.SourceType = "conversation"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_chunks (chunk_id, source_type, source_ref, text, when_iso,
			sensitivity, is_deleted, embedding)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			source_type = excluded.source_type,
			source_ref  = excluded.source_ref,
			text        = excluded.text,
			when_iso    = excluded.when_iso,
			sensitivity = excluded.sensitivity,
			is_deleted  = 0,
			embedding   = excluded.embedding`,
		c.ID, c.SourceType, c.SourceRef, c.Text, c.When,
		c.Sensitivity.String(), encodeEmbedding(c.Embedding),
	)
	if err != nil {
		return Chunk{}, fmt.Errorf("memory: store chunk: %w", err)
	}
	return c, nil
}

// DeleteChunk soft-deletes a chunk. The row stays in the FTS index —
// searches exclude it by joining back to the live table.
func (s *Store) DeleteChunk(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memory_chunks SET is_deleted = 1 WHERE chunk_id = ? AND is_deleted = 0`, id,
	)
	if err != nil {
		return fmt.Errorf("memory: delete chunk: %w", err)
	}
	return nil
}

// GetChunk returns an active chunk, or nil when the id is unknown or
// soft-deleted.
func (s *Store) GetChunk(ctx context.Context, id string) (*Chunk, error) {
	c, err := scanChunk(s.db.QueryRowContext(ctx,
		`SELECT `+chunkFields+` FROM memory_chunks WHERE chunk_id = ? AND is_deleted = 0`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get chunk: %w", err)
	}
	return &c, nil
}

// ListChunks returns a page of active chunks, most recent when_iso first,
// plus the filter's total count. The filter matches source type and text.
func (s *Store) ListChunks(ctx context.Context, filter string, skip, take int) ([]Chunk, int, error) {
	skip, take = normalizePage(skip, take)

	where := ` WHERE is_deleted = 0`
	var args []any
	if filter != "" {
		where += ` AND lower(source_type || ' ' || text) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(filter))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memory_chunks`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("memory: count chunks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkFields+` FROM memory_chunks`+where+
			` ORDER BY when_iso IS NULL, when_iso DESC LIMIT ? OFFSET ?`,
		append(args, take, skip)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("memory: list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, 0, err
		}
		chunks = append(chunks, c)
	}
	return chunks, total, rows.Err()
}

// SearchChunks runs a BM25 full-text search over chunk text. Keywords are
// quoted and OR-joined for broad recall; deleted and secret rows are
// excluded at the query level; ordering follows FTS5's native rank.
//
// FTS5 rank is unbounded and more-negative-is-better, so the raw scores
// of the returned batch are min-max renormalized to [0,1] via
// (worst-score)/(worst-best) — the best-ranked row always scores 1.0, and
// an all-equal batch scores 1.0 throughout. Normalization is per query
// batch, never globally calibrated: scores from different calls are not
// comparable.
func (s *Store) SearchChunks(ctx context.Context, query string, maxResults int) ([]ChunkMatch, error) {
	keywords := tokenize(query)
	if len(keywords) == 0 {
		return nil, nil
	}
	maxResults = s.clampMax(maxResults, 10)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixFields("c.", chunkFields)+`, fts.rank
		FROM chunks_fts fts
		JOIN memory_chunks c ON c.rowid = fts.rowid
		WHERE chunks_fts MATCH ? AND c.is_deleted = 0 AND c.sensitivity != 'secret'
		ORDER BY fts.rank
		LIMIT ?`,
		buildFTSQuery(keywords), maxResults,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: search chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []ChunkMatch
	var raw []float64
	for rows.Next() {
		var c Chunk
		var sensitivity string
		var deleted int
		var embedding []byte
		var rank float64
		if err := rows.Scan(&c.ID, &c.SourceType, &c.SourceRef, &c.Text, &c.When,
			&sensitivity, &deleted, &embedding, &rank); err != nil {
			return nil, err
		}
		c.Sensitivity = ParseSensitivity(sensitivity)
		c.Deleted = deleted != 0
		c.Embedding = decodeEmbedding(embedding)
		matches = append(matches, ChunkMatch{Chunk: c})
		raw = append(raw, rank)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	normalizeRanks(matches, raw)
	return matches, nil
}

// normalizeRanks rewrites raw FTS5 ranks into [0,1] scores in place.
func normalizeRanks(matches []ChunkMatch, raw []float64) {
	if len(matches) == 0 {
		return
	}
	best, worst := raw[0], raw[0]
	for _, r := range raw[1:] {
		if r < best {
			best = r
		}
		if r > worst {
			worst = r
		}
	}
	for i := range matches {
		if worst == best {
			matches[i].Score = 1.0
			continue
		}
		matches[i].Score = (worst - raw[i]) / (worst - best)
	}
}

// prefixFields qualifies a comma-separated column list with a table alias.
func prefixFields(prefix, fields string) string {
	cols := strings.Split(fields, ",")
	for i, c := range cols {
		cols[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
