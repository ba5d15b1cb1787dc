package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const eventFields = `event_id, profile_id, type, title, summary, when_iso,
	confidence, sensitivity, source_ref, is_deleted`

func scanEvent(row scanner) (Event, error) {
	var e Event
	var sensitivity string
	var deleted int
	err := row.Scan(&e.ID, &e.ProfileID, &e.Type, &e.Title, &e.Summary, &e.When,
		&e.Confidence, &sensitivity, &e.SourceRef, &deleted)
	if err != nil {
		return Event{}, err
	}
	e.Sensitivity = ParseSensitivity(sensitivity)
	e.Deleted = deleted != 0
	return e, nil
}

// StoreEvent upserts an event by id. Events have no conflict layer —
// an existing id is overwritten outright.
func (s *Store) StoreEvent(ctx context.Context, e Event) (Event, error) {
	if strings.TrimSpace(e.Title) == "" {
		return Event{}, fmt.Errorf("memory: event requires a title")
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.Type == "" {
		e.Type = "note"
	}
	e.Confidence = clamp01(e.Confidence)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_events (event_id, profile_id, type, title, summary, when_iso,
			confidence, sensitivity, source_ref, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(event_id) DO UPDATE SET
			profile_id  = excluded.profile_id,
			type        = excluded.type,
			title       = excluded.title,
			summary     = excluded.summary,
			when_iso    = excluded.when_iso,
			confidence  = excluded.confidence,
			sensitivity = excluded.sensitivity,
			source_ref  = excluded.source_ref,
			is_deleted  = 0`,
		e.ID, e.ProfileID, e.Type, e.Title, e.Summary, e.When,
		e.Confidence, e.Sensitivity.String(), e.SourceRef,
	)
	if err != nil {
		return Event{}, fmt.Errorf("memory: store event: %w", err)
	}
	return e, nil
}

// DeleteEvent soft-deletes an event.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memory_events SET is_deleted = 1 WHERE event_id = ? AND is_deleted = 0`, id,
	)
	if err != nil {
		return fmt.Errorf("memory: delete event: %w", err)
	}
	return nil
}

// GetEvent returns an active event, or nil when the id is unknown or
// soft-deleted.
func (s *Store) GetEvent(ctx context.Context, id string) (*Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx,
		`SELECT `+eventFields+` FROM memory_events WHERE event_id = ? AND is_deleted = 0`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get event: %w", err)
	}
	return &e, nil
}

// ListEvents returns a page of active events ordered most-recent-when
// first (events without a timestamp sort last), plus the filter's total
// count. The filter matches type, title, and summary.
func (s *Store) ListEvents(ctx context.Context, filter string, skip, take int) ([]Event, int, error) {
	skip, take = normalizePage(skip, take)

	where := ` WHERE is_deleted = 0`
	var args []any
	if filter != "" {
		where += ` AND lower(type || ' ' || title || ' ' || ifnull(summary, '')) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(filter))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memory_events`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("memory: count events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventFields+` FROM memory_events`+where+
			` ORDER BY when_iso IS NULL, when_iso DESC LIMIT ? OFFSET ?`,
		append(args, take, skip)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("memory: list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

// SearchEvents scores active, non-secret events by keyword overlap across
// type, title, and summary — same contract as SearchFacts.
func (s *Store) SearchEvents(ctx context.Context, query string, maxResults int) ([]EventMatch, error) {
	keywords := tokenize(query)
	if len(keywords) == 0 {
		return nil, nil
	}
	maxResults = s.clampMax(maxResults, 10)

	sqlStr := `SELECT ` + eventFields + `
		FROM memory_events
		WHERE is_deleted = 0 AND sensitivity != 'secret' AND (`
	var args []any
	for i, k := range keywords {
		if i > 0 {
			sqlStr += " OR "
		}
		sqlStr += `lower(type || ' ' || title || ' ' || ifnull(summary, '')) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(k))
	}
	sqlStr += `)`

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: search events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []EventMatch
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		hay := strings.ToLower(e.Type + " " + e.Title + " " + derefString(e.Summary))
		score := float64(keywordHits(hay, keywords)) / float64(len(keywords))
		matches = append(matches, EventMatch{Event: e, Score: score})
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
