package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const profileFields = `profile_id, kind, display_name, relationship,
	profile_json, updated_at, is_deleted, aliases`

func scanProfile(row scanner) (ProfileCard, error) {
	var p ProfileCard
	var kind, profileJSON string
	var aliases *string
	var deleted int
	err := row.Scan(&p.ID, &kind, &p.DisplayName, &p.Relationship,
		&profileJSON, &p.UpdatedAt, &deleted, &aliases)
	if err != nil {
		return ProfileCard{}, err
	}
	p.Kind = ParseProfileKind(kind)
	p.Deleted = deleted != 0
	p.Fields = parseProfileJSON(profileJSON)
	p.Aliases = parseAliases(aliases)
	return p, nil
}

// parseProfileJSON decodes the schemaless fields blob defensively: a
// corrupt blob degrades to an empty map, never an error.
func parseProfileJSON(blob string) map[string]any {
	fields := map[string]any{}
	if blob == "" {
		return fields
	}
	if err := json.Unmarshal([]byte(blob), &fields); err != nil {
		return map[string]any{}
	}
	return fields
}

// parseAliases decodes the alias list with the same degrade-to-empty
// contract as the fields blob.
func parseAliases(blob *string) []string {
	if blob == nil || *blob == "" {
		return nil
	}
	var aliases []string
	if err := json.Unmarshal([]byte(*blob), &aliases); err != nil {
		return nil
	}
	return aliases
}

// StoreProfile upserts a profile card by id. The store never enforces
// user-card uniqueness — one active kind="user" card is a convention the
// caller owns.
func (s *Store) StoreProfile(ctx context.Context, p ProfileCard) (ProfileCard, error) {
	if strings.TrimSpace(p.DisplayName) == "" {
		return ProfileCard{}, fmt.Errorf("memory: profile requires a display name")
	}
	if p.ID == "" {
		p.ID = s.newID()
	}
	p.UpdatedAt = Now()
	if p.Fields == nil {
		p.Fields = map[string]any{}
	}

	profileJSON, err := json.Marshal(p.Fields)
	if err != nil {
		return ProfileCard{}, fmt.Errorf("memory: encode profile fields: %w", err)
	}
	var aliases *string
	if len(p.Aliases) > 0 {
		b, err := json.Marshal(p.Aliases)
		if err != nil {
			return ProfileCard{}, fmt.Errorf("memory: encode aliases: %w", err)
		}
		aliases = nullableString(string(b))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profile_cards (profile_id, kind, display_name, relationship,
			profile_json, updated_at, is_deleted, aliases)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			kind         = excluded.kind,
			display_name = excluded.display_name,
			relationship = excluded.relationship,
			profile_json = excluded.profile_json,
			updated_at   = excluded.updated_at,
			is_deleted   = 0,
			aliases      = excluded.aliases`,
		p.ID, p.Kind.String(), p.DisplayName, p.Relationship,
		string(profileJSON), p.UpdatedAt, aliases,
	)
	if err != nil {
		return ProfileCard{}, fmt.Errorf("memory: store profile: %w", err)
	}
	return p, nil
}

// DeleteProfile soft-deletes a profile card.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE profile_cards SET is_deleted = 1, updated_at = ? WHERE profile_id = ? AND is_deleted = 0`,
		Now(), id,
	)
	if err != nil {
		return fmt.Errorf("memory: delete profile: %w", err)
	}
	return nil
}

// GetProfile returns an active profile card, or nil when the id is
// unknown or soft-deleted.
func (s *Store) GetProfile(ctx context.Context, id string) (*ProfileCard, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileFields+` FROM profile_cards WHERE profile_id = ? AND is_deleted = 0`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get profile: %w", err)
	}
	return &p, nil
}

// UserProfile returns the active kind="user" card, or nil when none
// exists. Should more than one exist, the most recently updated wins.
func (s *Store) UserProfile(ctx context.Context) (*ProfileCard, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx, `
		SELECT `+profileFields+` FROM profile_cards
		WHERE kind = 'user' AND is_deleted = 0
		ORDER BY updated_at DESC LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: user profile: %w", err)
	}
	return &p, nil
}

// ListProfiles returns a page of active profile cards, most recently
// updated first, plus the filter's total count. The filter matches
// display name and relationship.
func (s *Store) ListProfiles(ctx context.Context, filter string, skip, take int) ([]ProfileCard, int, error) {
	skip, take = normalizePage(skip, take)

	where := ` WHERE is_deleted = 0`
	var args []any
	if filter != "" {
		where += ` AND lower(display_name || ' ' || ifnull(relationship, '')) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(filter))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profile_cards`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("memory: count profiles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+profileFields+` FROM profile_cards`+where+
			` ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		append(args, take, skip)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("memory: list profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []ProfileCard
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		cards = append(cards, p)
	}
	return cards, total, rows.Err()
}

// SearchPersonProfiles scores active kind="person" cards by keyword
// overlap across display name, relationship, and aliases — the same
// lexical contract as SearchFacts.
func (s *Store) SearchPersonProfiles(ctx context.Context, query string, maxResults int) ([]ProfileMatch, error) {
	keywords := tokenize(query)
	if len(keywords) == 0 {
		return nil, nil
	}
	maxResults = s.clampMax(maxResults, 5)

	sqlStr := `SELECT ` + profileFields + `
		FROM profile_cards
		WHERE is_deleted = 0 AND kind = 'person' AND (`
	var args []any
	for i, k := range keywords {
		if i > 0 {
			sqlStr += " OR "
		}
		sqlStr += `lower(display_name || ' ' || ifnull(relationship, '') || ' ' || ifnull(aliases, '')) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(k))
	}
	sqlStr += `)`

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: search profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []ProfileMatch
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		hay := strings.ToLower(p.DisplayName + " " + derefString(p.Relationship) + " " + strings.Join(p.Aliases, " "))
		score := float64(keywordHits(hay, keywords)) / float64(len(keywords))
		matches = append(matches, ProfileMatch{ProfileCard: p, Score: score})
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
