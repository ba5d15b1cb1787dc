package memory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mnemolab/mnemo/internal/memory"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.New(memory.Config{
		DataDir:          t.TempDir(),
		PrimaryUser:      "user",
		MaxSearchResults: 20,
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ctx() context.Context { return context.Background() }

// ─── Open / Migrate ──────────────────────────────────────────────────────────

func TestNew_CreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	s, err := memory.New(memory.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, "memory.db")); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestOpen_DBPathOverridesDataDir(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "custom.db")
	s, err := memory.New(memory.Config{DBPath: dbPath})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database at override path: %v", err)
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	s, err := memory.Open(memory.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		if err := s.Migrate(ctx()); err != nil {
			t.Fatalf("Migrate() call %d error: %v", i+1, err)
		}
	}

	// The schema must be usable after repeated migration.
	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "pie"}); err != nil {
		t.Fatalf("StoreFact after repeated Migrate: %v", err)
	}
}

func TestMigrate_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := memory.New(memory.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "pie"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}
	s.Close()

	// Reopening an already-migrated database re-runs the additive
	// migrations, which must be swallowed, not fatal.
	s2, err := memory.New(memory.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	facts, total, err := s2.ListFacts(ctx(), "", 0, 10)
	if err != nil {
		t.Fatalf("ListFacts after reopen: %v", err)
	}
	if total != 1 || len(facts) != 1 {
		t.Fatalf("expected 1 fact after reopen, got %d (total %d)", len(facts), total)
	}
}

// ─── Fact store ──────────────────────────────────────────────────────────────

func TestStoreFact_AssignsIDAndTimestamps(t *testing.T) {
	s := newTestStore(t)

	f, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "pie"})
	if err != nil {
		t.Fatalf("StoreFact: %v", err)
	}
	if f.ID == "" {
		t.Error("expected generated id")
	}
	if f.CreatedAt == "" || f.UpdatedAt == "" {
		t.Error("expected timestamps to be set")
	}
}

func TestStoreFact_UpsertPreservesCreatedAt(t *testing.T) {
	s := newTestStore(t)

	f, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "pie"})
	if err != nil {
		t.Fatalf("StoreFact: %v", err)
	}

	// Second identical write: one logical row, identity unchanged.
	again, err := s.StoreFact(ctx(), f)
	if err != nil {
		t.Fatalf("second StoreFact: %v", err)
	}
	if again.ID != f.ID {
		t.Errorf("id changed on upsert: %s → %s", f.ID, again.ID)
	}

	got, err := s.FindFactByID(ctx(), f.ID)
	if err != nil {
		t.Fatalf("FindFactByID: %v", err)
	}
	if got == nil {
		t.Fatal("fact not found after upsert")
	}
	if got.CreatedAt != f.CreatedAt {
		t.Errorf("created_at changed on upsert: %s → %s", f.CreatedAt, got.CreatedAt)
	}

	_, total, err := s.ListFacts(ctx(), "", 0, 10)
	if err != nil {
		t.Fatalf("ListFacts: %v", err)
	}
	if total != 1 {
		t.Errorf("expected 1 logical row after double write, got %d", total)
	}
}

func TestStoreFact_RejectsEmptySubject(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.StoreFact(ctx(), memory.Fact{Predicate: "likes", Object: "pie"}); err == nil {
		t.Error("expected error for empty subject")
	}
}

func TestDeleteFact_SoftDeleteInvariant(t *testing.T) {
	s := newTestStore(t)

	f, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "pie"})
	if err != nil {
		t.Fatalf("StoreFact: %v", err)
	}
	if err := s.DeleteFact(ctx(), f.ID); err != nil {
		t.Fatalf("DeleteFact: %v", err)
	}

	if got, _ := s.FindFactByID(ctx(), f.ID); got != nil {
		t.Error("FindFactByID returned a deleted fact")
	}
	if _, total, _ := s.ListFacts(ctx(), "", 0, 10); total != 0 {
		t.Errorf("ListFacts counts deleted fact: total=%d", total)
	}
	matches, err := s.SearchFacts(ctx(), "pie", 10)
	if err != nil {
		t.Fatalf("SearchFacts: %v", err)
	}
	if len(matches) != 0 {
		t.Error("SearchFacts returned a deleted fact")
	}

	// The row itself must survive for audit.
	var count int
	err = s.DB().QueryRow(
		`SELECT COUNT(*) FROM memory_facts WHERE memory_id = ? AND is_deleted = 1`, f.ID,
	).Scan(&count)
	if err != nil || count != 1 {
		t.Errorf("expected tombstone row on disk, count=%d err=%v", count, err)
	}
}

func TestFindMatchingFacts_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "User", Predicate: "Likes", Object: "pie"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}

	facts, err := s.FindMatchingFacts(ctx(), "user", "likes")
	if err != nil {
		t.Fatalf("FindMatchingFacts: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected 1 match, got %d", len(facts))
	}
}

// ─── List pagination ─────────────────────────────────────────────────────────

func TestListFacts_PaginationTotals(t *testing.T) {
	s := newTestStore(t)

	for _, object := range []string{"pie", "cake", "tea", "jazz", "rain"} {
		if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes_" + object, Object: object}); err != nil {
			t.Fatalf("StoreFact: %v", err)
		}
	}

	page1, total1, err := s.ListFacts(ctx(), "", 0, 2)
	if err != nil {
		t.Fatalf("ListFacts page 1: %v", err)
	}
	page2, total2, err := s.ListFacts(ctx(), "", 2, 2)
	if err != nil {
		t.Fatalf("ListFacts page 2: %v", err)
	}

	if total1 != 5 || total2 != 5 {
		t.Errorf("total must be independent of skip/take: got %d and %d", total1, total2)
	}
	if len(page1) != 2 || len(page2) != 2 {
		t.Errorf("expected 2 items per page, got %d and %d", len(page1), len(page2))
	}
	if page1[0].ID == page2[0].ID {
		t.Error("pages overlap")
	}
}

func TestListFacts_FilterSubstringCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "Apple Pie"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}
	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "cake"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}

	facts, total, err := s.ListFacts(ctx(), "apple", 0, 10)
	if err != nil {
		t.Fatalf("ListFacts: %v", err)
	}
	if total != 1 || len(facts) != 1 {
		t.Fatalf("filter 'apple': expected 1, got %d (total %d)", len(facts), total)
	}
	if facts[0].Object != "Apple Pie" {
		t.Errorf("wrong fact matched: %q", facts[0].Object)
	}
}

func TestListFacts_FilterEscapesWildcards(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "note", Object: "100% done"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}
	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "note", Object: "fully done"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}

	_, total, err := s.ListFacts(ctx(), "100%", 0, 10)
	if err != nil {
		t.Fatalf("ListFacts: %v", err)
	}
	if total != 1 {
		t.Errorf("LIKE wildcard leaked: total=%d, want 1", total)
	}
}

// ─── Lexical search ──────────────────────────────────────────────────────────

func TestSearchFacts_ScoreIsOverlapRatio(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "apple pie"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}
	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "apple juice"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}

	matches, err := s.SearchFacts(ctx(), "apple pie", 10)
	if err != nil {
		t.Fatalf("SearchFacts: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Object != "apple pie" {
		t.Errorf("best match should be 'apple pie', got %q", matches[0].Object)
	}
	if matches[0].Score != 1.0 {
		t.Errorf("full overlap score = %v, want 1.0", matches[0].Score)
	}
	if matches[1].Score != 0.5 {
		t.Errorf("half overlap score = %v, want 0.5", matches[1].Score)
	}
}

func TestSearchFacts_StopWordOnlyQueryIsEmpty(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "the weather channel"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}

	matches, err := s.SearchFacts(ctx(), "what is the", 10)
	if err != nil {
		t.Fatalf("SearchFacts: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("stop-word query matched %d facts, want 0", len(matches))
	}
}

func TestSearchFacts_ExcludesSecret(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreFact(ctx(), memory.Fact{
		Subject: "user", Predicate: "password_hint", Object: "childhood pet",
		Sensitivity: memory.SensitivitySecret,
	}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}

	matches, err := s.SearchFacts(ctx(), "childhood pet", 10)
	if err != nil {
		t.Fatalf("SearchFacts: %v", err)
	}
	if len(matches) != 0 {
		t.Error("secret fact surfaced through search")
	}

	// Secret rows still browse and fetch normally.
	_, total, _ := s.ListFacts(ctx(), "", 0, 10)
	if total != 1 {
		t.Errorf("secret fact missing from list: total=%d", total)
	}
}

// ─── Events ──────────────────────────────────────────────────────────────────

func TestStoreEvent_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	when := "2026-03-14T09:00:00Z"
	summary := "Dentist appointment downtown"
	e, err := s.StoreEvent(ctx(), memory.Event{
		Type: "appointment", Title: "Dentist", Summary: &summary, When: &when, Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("StoreEvent: %v", err)
	}

	got, err := s.GetEvent(ctx(), e.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got == nil {
		t.Fatal("event not found")
	}
	if got.Title != "Dentist" || got.Summary == nil || *got.Summary != summary {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestDeleteEvent_HiddenFromSearchAndList(t *testing.T) {
	s := newTestStore(t)

	e, err := s.StoreEvent(ctx(), memory.Event{Type: "trip", Title: "Flight to Lisbon"})
	if err != nil {
		t.Fatalf("StoreEvent: %v", err)
	}
	if err := s.DeleteEvent(ctx(), e.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}

	if got, _ := s.GetEvent(ctx(), e.ID); got != nil {
		t.Error("GetEvent returned deleted event")
	}
	matches, _ := s.SearchEvents(ctx(), "lisbon flight", 10)
	if len(matches) != 0 {
		t.Error("SearchEvents returned deleted event")
	}
}

func TestSearchEvents_RanksByOverlap(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreEvent(ctx(), memory.Event{Type: "trip", Title: "Lisbon flight booked"}); err != nil {
		t.Fatalf("StoreEvent: %v", err)
	}
	if _, err := s.StoreEvent(ctx(), memory.Event{Type: "trip", Title: "Train tickets"}); err != nil {
		t.Fatalf("StoreEvent: %v", err)
	}

	matches, err := s.SearchEvents(ctx(), "lisbon flight", 10)
	if err != nil {
		t.Fatalf("SearchEvents: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Score != 1.0 {
		t.Errorf("score = %v, want 1.0", matches[0].Score)
	}
}

// ─── Chunks + BM25 ───────────────────────────────────────────────────────────

func TestStoreChunk_SearchableViaFTS(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreChunk(ctx(), memory.Chunk{
		SourceType: "conversation",
		Text:       "We talked about planting tomatoes on the balcony this spring.",
	}); err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}

	matches, err := s.SearchChunks(ctx(), "tomatoes balcony", 10)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Score != 1.0 {
		t.Errorf("single-result batch score = %v, want 1.0", matches[0].Score)
	}
}

func TestSearchChunks_NormalizedScoresBounded(t *testing.T) {
	s := newTestStore(t)

	texts := []string{
		"Coffee coffee coffee. The user drinks espresso coffee every morning.",
		"A single mention of coffee in a long note about gardening and the weather in spring.",
		"Morning routine includes coffee and a short walk before work.",
	}
	for _, text := range texts {
		if _, err := s.StoreChunk(ctx(), memory.Chunk{SourceType: "note", Text: text}); err != nil {
			t.Fatalf("StoreChunk: %v", err)
		}
	}

	matches, err := s.SearchChunks(ctx(), "coffee", 10)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}

	// Best native rank comes back first and must score exactly 1.0;
	// every score stays in [0,1].
	if matches[0].Score != 1.0 {
		t.Errorf("best score = %v, want 1.0", matches[0].Score)
	}
	for i, m := range matches {
		if m.Score < 0 || m.Score > 1 {
			t.Errorf("match %d score %v out of [0,1]", i, m.Score)
		}
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, matches[i].Score, matches[i-1].Score)
		}
	}
}

func TestSearchChunks_UpdateReindexes(t *testing.T) {
	s := newTestStore(t)

	c, err := s.StoreChunk(ctx(), memory.Chunk{SourceType: "note", Text: "Original text about sailing"})
	if err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}

	c.Text = "Rewritten note about woodworking"
	if _, err := s.StoreChunk(ctx(), c); err != nil {
		t.Fatalf("update chunk: %v", err)
	}

	if matches, _ := s.SearchChunks(ctx(), "sailing", 10); len(matches) != 0 {
		t.Error("stale FTS entry matched the old text")
	}
	matches, err := s.SearchChunks(ctx(), "woodworking", 10)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("expected updated text to match, got %d results", len(matches))
	}
}

func TestSearchChunks_DeleteDeindexes(t *testing.T) {
	s := newTestStore(t)

	c, err := s.StoreChunk(ctx(), memory.Chunk{SourceType: "note", Text: "Unique pottery wheel discussion"})
	if err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}
	if err := s.DeleteChunk(ctx(), c.ID); err != nil {
		t.Fatalf("DeleteChunk: %v", err)
	}

	if matches, _ := s.SearchChunks(ctx(), "pottery", 10); len(matches) != 0 {
		t.Error("deleted chunk surfaced through FTS search")
	}
}

func TestSearchChunks_ExcludesSecret(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreChunk(ctx(), memory.Chunk{
		SourceType:  "conversation",
		Text:        "The vault code discussion happened on Friday.",
		Sensitivity: memory.SensitivitySecret,
	}); err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}

	if matches, _ := s.SearchChunks(ctx(), "vault code", 10); len(matches) != 0 {
		t.Error("secret chunk surfaced through search")
	}
}

func TestStoreChunk_EmbeddingRoundTrip(t *testing.T) {
	s := newTestStore(t)

	vec := []float32{0.25, -1.5, 3.0}
	c, err := s.StoreChunk(ctx(), memory.Chunk{SourceType: "note", Text: "vector carrier", Embedding: vec})
	if err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}

	got, err := s.GetChunk(ctx(), c.ID)
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if got == nil || len(got.Embedding) != 3 {
		t.Fatalf("embedding lost: %+v", got)
	}
	for i := range vec {
		if got.Embedding[i] != vec[i] {
			t.Errorf("embedding[%d] = %v, want %v", i, got.Embedding[i], vec[i])
		}
	}
}

// ─── Profiles ────────────────────────────────────────────────────────────────

func TestStoreProfile_RoundTripWithFields(t *testing.T) {
	s := newTestStore(t)

	p, err := s.StoreProfile(ctx(), memory.ProfileCard{
		Kind:        memory.KindUser,
		DisplayName: "Alex",
		Aliases:     []string{"Al", "Lex"},
		Fields:      map[string]any{"city": "Lisbon"},
	})
	if err != nil {
		t.Fatalf("StoreProfile: %v", err)
	}

	got, err := s.GetProfile(ctx(), p.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got == nil {
		t.Fatal("profile not found")
	}
	if got.Kind != memory.KindUser || got.DisplayName != "Alex" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Fields["city"] != "Lisbon" {
		t.Errorf("fields blob lost: %v", got.Fields)
	}
	if len(got.Aliases) != 2 {
		t.Errorf("aliases lost: %v", got.Aliases)
	}
}

func TestUserProfile_NilWhenAbsent(t *testing.T) {
	s := newTestStore(t)

	got, err := s.UserProfile(ctx())
	if err != nil {
		t.Fatalf("UserProfile: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil user profile, got %+v", got)
	}
}

func TestGetProfile_CorruptJSONDegradesToEmptyFields(t *testing.T) {
	s := newTestStore(t)

	p, err := s.StoreProfile(ctx(), memory.ProfileCard{Kind: memory.KindPerson, DisplayName: "Maria"})
	if err != nil {
		t.Fatalf("StoreProfile: %v", err)
	}

	if _, err := s.DB().Exec(
		`UPDATE profile_cards SET profile_json = 'not json{{' WHERE profile_id = ?`, p.ID,
	); err != nil {
		t.Fatalf("corrupting blob: %v", err)
	}

	got, err := s.GetProfile(ctx(), p.ID)
	if err != nil {
		t.Fatalf("GetProfile on corrupt blob: %v", err)
	}
	if got == nil {
		t.Fatal("profile not found")
	}
	if got.Fields == nil || len(got.Fields) != 0 {
		t.Errorf("corrupt blob should degrade to empty fields, got %v", got.Fields)
	}
}

func TestSearchPersonProfiles_SkipsUserCard(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreProfile(ctx(), memory.ProfileCard{Kind: memory.KindUser, DisplayName: "Sam Porter"}); err != nil {
		t.Fatalf("StoreProfile user: %v", err)
	}
	rel := "sister"
	if _, err := s.StoreProfile(ctx(), memory.ProfileCard{
		Kind: memory.KindPerson, DisplayName: "Ana Porter", Relationship: &rel,
	}); err != nil {
		t.Fatalf("StoreProfile person: %v", err)
	}

	matches, err := s.SearchPersonProfiles(ctx(), "porter", 10)
	if err != nil {
		t.Fatalf("SearchPersonProfiles: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected only the person card, got %d", len(matches))
	}
	if matches[0].DisplayName != "Ana Porter" {
		t.Errorf("wrong card matched: %q", matches[0].DisplayName)
	}
}

// ─── Export / Import ─────────────────────────────────────────────────────────

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestStore(t)

	if _, err := src.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "pie"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}
	if _, err := src.StoreEvent(ctx(), memory.Event{Type: "trip", Title: "Lisbon"}); err != nil {
		t.Fatalf("StoreEvent: %v", err)
	}
	if _, err := src.StoreChunk(ctx(), memory.Chunk{SourceType: "note", Text: "exportable chunk"}); err != nil {
		t.Fatalf("StoreChunk: %v", err)
	}
	if _, err := src.StoreNugget(ctx(), memory.Nugget{Text: "User cycles to work", Tags: ";routine;"}); err != nil {
		t.Fatalf("StoreNugget: %v", err)
	}
	if _, err := src.StoreProfile(ctx(), memory.ProfileCard{Kind: memory.KindUser, DisplayName: "Alex"}); err != nil {
		t.Fatalf("StoreProfile: %v", err)
	}

	snap, err := src.Export(ctx())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := newTestStore(t)
	report, err := dst.Import(ctx(), snap)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Facts != 1 || report.Events != 1 || report.Chunks != 1 || report.Nuggets != 1 || report.Profiles != 1 {
		t.Errorf("import counts wrong: %+v", report)
	}

	stats, err := dst.Stats(ctx())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Facts != 1 || stats.Profiles != 1 {
		t.Errorf("imported store stats wrong: %+v", stats)
	}
}

func TestImport_NeverResurrectsLocalTombstones(t *testing.T) {
	s := newTestStore(t)

	f, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "pie"})
	if err != nil {
		t.Fatalf("StoreFact: %v", err)
	}
	if err := s.DeleteFact(ctx(), f.ID); err != nil {
		t.Fatalf("DeleteFact: %v", err)
	}

	report, err := s.Import(ctx(), &memory.Snapshot{Facts: []memory.Fact{f}})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if report.Skipped != 1 || report.Facts != 0 {
		t.Errorf("tombstoned fact should be skipped: %+v", report)
	}
	if got, _ := s.FindFactByID(ctx(), f.ID); got != nil {
		t.Error("import resurrected a deleted fact")
	}
}

// ─── Stats ───────────────────────────────────────────────────────────────────

func TestStats_CountsAndCoverage(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "user", Predicate: "likes", Object: "pie"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}
	if _, err := s.StoreFact(ctx(), memory.Fact{Subject: "ana", Predicate: "likes", Object: "tea"}); err != nil {
		t.Fatalf("StoreFact: %v", err)
	}
	if _, err := s.StoreNugget(ctx(), memory.Nugget{Text: "User cycles", Tags: ";routine;identity;"}); err != nil {
		t.Fatalf("StoreNugget: %v", err)
	}

	stats, err := s.Stats(ctx())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Facts != 2 || stats.Nuggets != 1 {
		t.Errorf("counts wrong: %+v", stats)
	}
	if len(stats.Subjects) != 2 {
		t.Errorf("subjects = %v, want 2 distinct", stats.Subjects)
	}
	if len(stats.NuggetTags) != 2 {
		t.Errorf("nugget tags = %v, want [routine identity]", stats.NuggetTags)
	}
}
