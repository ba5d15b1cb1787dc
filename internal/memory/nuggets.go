package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// greetingTags is the allow-list of tag categories eligible for greeting
// delivery. A nugget qualifies when its tag string contains at least one.
var greetingTags = []string{"identity", "preference", "active_project", "routine"}

const nuggetFields = `nugget_id, text, tags, weight, pin_level, sensitivity,
	use_count, last_used_at, created_at, is_deleted, embedding`

func scanNugget(row scanner) (Nugget, error) {
	var n Nugget
	var tags *string
	var sensitivity string
	var deleted int
	var embedding []byte
	err := row.Scan(&n.ID, &n.Text, &tags, &n.Weight, &n.PinLevel, &sensitivity,
		&n.UseCount, &n.LastUsedAt, &n.CreatedAt, &deleted, &embedding)
	if err != nil {
		return Nugget{}, err
	}
	n.Tags = derefString(tags)
	n.Sensitivity = ParseNuggetSensitivity(sensitivity)
	n.Deleted = deleted != 0
	n.Embedding = decodeEmbedding(embedding)
	return n, nil
}

// StoreNugget upserts a nugget by id. Use counters survive updates — a
// rewrite of the text does not reset how often the nugget has been
// delivered.
func (s *Store) StoreNugget(ctx context.Context, n Nugget) (Nugget, error) {
	if strings.TrimSpace(n.Text) == "" {
		return Nugget{}, fmt.Errorf("memory: nugget requires text")
	}
	if n.ID == "" {
		n.ID = s.newID()
	}
	if n.CreatedAt == "" {
		n.CreatedAt = Now()
	}
	n.Weight = clamp01(n.Weight)
	if n.PinLevel < 0 {
		n.PinLevel = 0
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_nuggets (nugget_id, text, tags, weight, pin_level, sensitivity,
			use_count, last_used_at, created_at, is_deleted, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(nugget_id) DO UPDATE SET
			text        = excluded.text,
			tags        = excluded.tags,
			weight      = excluded.weight,
			pin_level   = excluded.pin_level,
			sensitivity = excluded.sensitivity,
			is_deleted  = 0,
			embedding   = excluded.embedding`,
		n.ID, n.Text, nullableString(n.Tags), n.Weight, n.PinLevel, n.Sensitivity.String(),
		n.UseCount, n.LastUsedAt, n.CreatedAt, encodeEmbedding(n.Embedding),
	)
	if err != nil {
		return Nugget{}, fmt.Errorf("memory: store nugget: %w", err)
	}
	return n, nil
}

// DeleteNugget soft-deletes a nugget.
func (s *Store) DeleteNugget(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memory_nuggets SET is_deleted = 1 WHERE nugget_id = ? AND is_deleted = 0`, id,
	)
	if err != nil {
		return fmt.Errorf("memory: delete nugget: %w", err)
	}
	return nil
}

// GetNugget returns an active nugget, or nil when the id is unknown or
// soft-deleted.
func (s *Store) GetNugget(ctx context.Context, id string) (*Nugget, error) {
	n, err := scanNugget(s.db.QueryRowContext(ctx,
		`SELECT `+nuggetFields+` FROM memory_nuggets WHERE nugget_id = ? AND is_deleted = 0`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get nugget: %w", err)
	}
	return &n, nil
}

// ListNuggets returns a page of active nuggets, newest first, plus the
// filter's total count. The filter matches text and tags.
func (s *Store) ListNuggets(ctx context.Context, filter string, skip, take int) ([]Nugget, int, error) {
	skip, take = normalizePage(skip, take)

	where := ` WHERE is_deleted = 0`
	var args []any
	if filter != "" {
		where += ` AND lower(text || ' ' || ifnull(tags, '')) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(filter))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memory_nuggets`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("memory: count nuggets: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nuggetFields+` FROM memory_nuggets`+where+
			` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, take, skip)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("memory: list nuggets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var nuggets []Nugget
	for rows.Next() {
		n, err := scanNugget(rows)
		if err != nil {
			return nil, 0, err
		}
		nuggets = append(nuggets, n)
	}
	return nuggets, total, rows.Err()
}

// TouchNugget records a delivery: use_count increments and last_used_at
// becomes now. Decoupled from ranking so the rankers stay pure reads;
// callers touch only the nuggets they actually deliver.
func (s *Store) TouchNugget(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE memory_nuggets SET use_count = use_count + 1, last_used_at = ?
		 WHERE nugget_id = ? AND is_deleted = 0`,
		Now(), id,
	)
	if err != nil {
		return fmt.Errorf("memory: touch nugget: %w", err)
	}
	return nil
}

// GreetingNuggets ranks the nuggets suitable for opening a session: only
// low-sensitivity nuggets tagged with at least one greeting category,
// ordered by composite score, truncated to maxResults (default 2). Pure
// read — delivered nuggets are touched separately.
func (s *Store) GreetingNuggets(ctx context.Context, maxResults int) ([]NuggetMatch, error) {
	maxResults = s.clampMax(maxResults, 2)

	sqlStr := `SELECT ` + nuggetFields + `
		FROM memory_nuggets
		WHERE is_deleted = 0 AND sensitivity = 'low' AND (`
	var args []any
	for i, tag := range greetingTags {
		if i > 0 {
			sqlStr += " OR "
		}
		sqlStr += `ifnull(tags, '') LIKE ?`
		args = append(args, "%"+tag+"%")
	}
	sqlStr += `)`

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: greeting nuggets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	now := time.Now().UTC()
	var matches []NuggetMatch
	for rows.Next() {
		n, err := scanNugget(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, NuggetMatch{Nugget: n, Score: compositeScore(n, now)})
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

// SearchNuggets ranks query-relevant nuggets: keyword-filtered candidates
// scored by 0.4×keyword-hit-ratio + 0.6×composite score, truncated to
// maxResults (default 5). High-sensitivity nuggets never surface through
// search. Pure read, same touch contract as GreetingNuggets.
func (s *Store) SearchNuggets(ctx context.Context, query string, maxResults int) ([]NuggetMatch, error) {
	keywords := tokenize(query)
	if len(keywords) == 0 {
		return nil, nil
	}
	maxResults = s.clampMax(maxResults, 5)

	sqlStr := `SELECT ` + nuggetFields + `
		FROM memory_nuggets
		WHERE is_deleted = 0 AND sensitivity != 'high' AND (`
	var args []any
	for i, k := range keywords {
		if i > 0 {
			sqlStr += " OR "
		}
		sqlStr += `lower(text || ' ' || ifnull(tags, '')) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(k))
	}
	sqlStr += `)`

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: search nuggets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	now := time.Now().UTC()
	var matches []NuggetMatch
	for rows.Next() {
		n, err := scanNugget(rows)
		if err != nil {
			return nil, err
		}
		hay := strings.ToLower(n.Text + " " + n.Tags)
		hitRatio := float64(keywordHits(hay, keywords)) / float64(len(keywords))
		matches = append(matches, NuggetMatch{
			Nugget: n,
			Score:  0.4*hitRatio + 0.6*compositeScore(n, now),
		})
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

// compositeScore blends pin level, weight, recency of use, and usage
// frequency into one relevance number:
//
//	0.55 × min(pin,2)/2  +  0.25 × weight
//	  +  0.15 × exp(-daysSinceUse/14)   (0.1 flat if never used)
//	  +  0.05 × ln(1+useCount)/5
func compositeScore(n Nugget, now time.Time) float64 {
	pin := n.PinLevel
	if pin > 2 {
		pin = 2
	}
	score := 0.55*float64(pin)/2 + 0.25*n.Weight

	if n.LastUsedAt == nil {
		score += 0.1
	} else {
		// An unparsable timestamp decays from the sentinel minimum,
		// contributing ~0 rather than erroring.
		days := now.Sub(parseTime(*n.LastUsedAt)).Hours() / 24
		if days < 0 {
			days = 0
		}
		score += 0.15 * math.Exp(-days/14)
	}

	score += 0.05 * math.Log(1+float64(n.UseCount)) / 5
	return score
}
