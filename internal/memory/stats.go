package memory

import (
	"context"
	"strings"
)

// Stats holds live entity counts plus the coverage a caller would want to
// glance at: which subjects have facts and which tags nuggets carry.
type Stats struct {
	Facts      int      `json:"facts"`
	Events     int      `json:"events"`
	Chunks     int      `json:"chunks"`
	Nuggets    int      `json:"nuggets"`
	Profiles   int      `json:"profiles"`
	Subjects   []string `json:"subjects,omitempty"`
	NuggetTags []string `json:"nugget_tags,omitempty"`
}

// Stats returns aggregate counts over active rows. Per-table count
// failures degrade to zero rather than failing the whole report.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory_facts WHERE is_deleted = 0").Scan(&stats.Facts)
	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory_events WHERE is_deleted = 0").Scan(&stats.Events)
	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory_chunks WHERE is_deleted = 0").Scan(&stats.Chunks)
	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory_nuggets WHERE is_deleted = 0").Scan(&stats.Nuggets)
	_ = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM profile_cards WHERE is_deleted = 0").Scan(&stats.Profiles)

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT subject FROM memory_facts WHERE is_deleted = 0 ORDER BY subject")
	if err != nil {
		return stats, nil
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err == nil {
			stats.Subjects = append(stats.Subjects, subject)
		}
	}

	tagRows, err := s.db.QueryContext(ctx,
		"SELECT tags FROM memory_nuggets WHERE is_deleted = 0 AND tags IS NOT NULL")
	if err != nil {
		return stats, nil
	}
	defer func() { _ = tagRows.Close() }()

	seen := map[string]bool{}
	for tagRows.Next() {
		var tags string
		if err := tagRows.Scan(&tags); err != nil {
			continue
		}
		for _, tag := range strings.Split(tags, ";") {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			stats.NuggetTags = append(stats.NuggetTags, tag)
		}
	}

	return stats, nil
}
