package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const factFields = `memory_id, profile_id, subject, predicate, object,
	confidence, sensitivity, created_at, updated_at, source_ref, is_deleted`

func scanFact(row scanner) (Fact, error) {
	var f Fact
	var sensitivity string
	var deleted int
	err := row.Scan(&f.ID, &f.ProfileID, &f.Subject, &f.Predicate, &f.Object,
		&f.Confidence, &sensitivity, &f.CreatedAt, &f.UpdatedAt, &f.SourceRef, &deleted)
	if err != nil {
		return Fact{}, err
	}
	f.Sensitivity = ParseSensitivity(sensitivity)
	f.Deleted = deleted != 0
	return f, nil
}

// StoreFact upserts a fact by id. An empty id gets a fresh ULID and the
// current time as created_at. Writing the same id again replaces the
// mutable fields and bumps updated_at but preserves created_at — a second
// identical write is a no-op in effect. Conflict resolution does NOT run
// here; callers that want the skip/replace/supersede policy go through
// IngestFacts.
func (s *Store) StoreFact(ctx context.Context, f Fact) (Fact, error) {
	if strings.TrimSpace(f.Subject) == "" || strings.TrimSpace(f.Predicate) == "" {
		return Fact{}, fmt.Errorf("memory: fact requires subject and predicate")
	}
	if f.ID == "" {
		f.ID = s.newID()
	}
	now := Now()
	if f.CreatedAt == "" {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	f.Confidence = clamp01(f.Confidence)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_facts (memory_id, profile_id, subject, predicate, object,
			confidence, sensitivity, created_at, updated_at, source_ref, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(memory_id) DO UPDATE SET
			profile_id  = excluded.profile_id,
			subject     = excluded.subject,
			predicate   = excluded.predicate,
			object      = excluded.object,
			confidence  = excluded.confidence,
			sensitivity = excluded.sensitivity,
			updated_at  = excluded.updated_at,
			source_ref  = excluded.source_ref,
			is_deleted  = 0`,
		f.ID, f.ProfileID, f.Subject, f.Predicate, f.Object,
		f.Confidence, f.Sensitivity.String(), f.CreatedAt, f.UpdatedAt, f.SourceRef,
	)
	if err != nil {
		return Fact{}, fmt.Errorf("memory: store fact: %w", err)
	}
	return f, nil
}

// DeleteFact soft-deletes a fact. The row stays on disk for audit; every
// search and list query excludes it from here on.
func (s *Store) DeleteFact(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memory_facts SET is_deleted = 1, updated_at = ? WHERE memory_id = ? AND is_deleted = 0`,
		Now(), id,
	)
	if err != nil {
		return fmt.Errorf("memory: delete fact: %w", err)
	}
	return nil
}

// FindFactByID returns an active fact, or nil when the id is unknown or
// soft-deleted.
func (s *Store) FindFactByID(ctx context.Context, id string) (*Fact, error) {
	return s.fetchFact(ctx, id, false)
}

// fetchFact is the direct id lookup; includeDeleted serves audit paths.
func (s *Store) fetchFact(ctx context.Context, id string, includeDeleted bool) (*Fact, error) {
	query := `SELECT ` + factFields + ` FROM memory_facts WHERE memory_id = ?`
	if !includeDeleted {
		query += ` AND is_deleted = 0`
	}
	f, err := scanFact(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: fetch fact: %w", err)
	}
	return &f, nil
}

// FindMatchingFacts returns the active facts for a (subject, predicate)
// pair, matched case-insensitively, newest first. This is the conflict
// resolver's candidate lookup.
func (s *Store) FindMatchingFacts(ctx context.Context, subject, predicate string) ([]Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+factFields+`
		FROM memory_facts
		WHERE lower(subject) = lower(?) AND lower(predicate) = lower(?) AND is_deleted = 0
		ORDER BY updated_at DESC`,
		subject, predicate,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: find matching facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var facts []Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// ListFacts returns a page of active facts, newest update first, plus the
// total count for the filter independent of the page bounds. The filter is
// a case-insensitive substring match across subject, predicate, and object.
func (s *Store) ListFacts(ctx context.Context, filter string, skip, take int) ([]Fact, int, error) {
	skip, take = normalizePage(skip, take)

	where := ` WHERE is_deleted = 0`
	var args []any
	if filter != "" {
		where += ` AND lower(subject || ' ' || predicate || ' ' || object) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(filter))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memory_facts`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("memory: count facts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+factFields+` FROM memory_facts`+where+
			` ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		append(args, take, skip)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("memory: list facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var facts []Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, 0, err
		}
		facts = append(facts, f)
	}
	return facts, total, rows.Err()
}

// SearchFacts scores active, non-secret facts by keyword overlap: the
// query is tokenized, candidates are any rows containing at least one
// keyword as a substring, and each candidate scores matched/total
// keywords. Zero keywords (all stop words) is an empty result, not an
// error. Ties keep row order.
func (s *Store) SearchFacts(ctx context.Context, query string, maxResults int) ([]FactMatch, error) {
	keywords := tokenize(query)
	if len(keywords) == 0 {
		return nil, nil
	}
	maxResults = s.clampMax(maxResults, 10)

	sqlStr := `SELECT ` + factFields + `
		FROM memory_facts
		WHERE is_deleted = 0 AND sensitivity != 'secret' AND (`
	var args []any
	for i, k := range keywords {
		if i > 0 {
			sqlStr += " OR "
		}
		sqlStr += `lower(subject || ' ' || predicate || ' ' || object) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(k))
	}
	sqlStr += `)`

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: search facts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []FactMatch
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		hay := strings.ToLower(f.Subject + " " + f.Predicate + " " + f.Object)
		score := float64(keywordHits(hay, keywords)) / float64(len(keywords))
		matches = append(matches, FactMatch{Fact: f, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
