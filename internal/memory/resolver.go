package memory

import (
	"context"
	"strings"
)

// maxIngestBatch caps how many triples one IngestFacts call will process.
const maxIngestBatch = 10

// singleValuedPredicates name attributes that can hold only one current
// value per subject — a newer explicit statement replaces the old one in
// place, no confirmation step.
var singleValuedPredicates = map[string]bool{
	"name_is":     true,
	"is_named":    true,
	"lives_in":    true,
	"works_at":    true,
	"job_is":      true,
	"role_is":     true,
	"is":          true,
	"status_is":   true,
	"timezone_is": true,
	"birthday_is": true,
	"age_is":      true,
	"email_is":    true,
	"phone_is":    true,
}

// singleValuedPrefixes extend the set by prefix: any favorite_* or
// preferred_* attribute is single-valued.
var singleValuedPrefixes = []string{"favorite_", "preferred_"}

func isSingleValued(predicate string) bool {
	p := strings.ToLower(predicate)
	if singleValuedPredicates[p] {
		return true
	}
	for _, prefix := range singleValuedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// antonymPredicates maps a predicate to the predicates it semantically
// contradicts for the same object. An incoming (likes, pie) soft-deletes
// any active (hates, pie) for the same subject.
var antonymPredicates = map[string][]string{
	"likes":         {"dislikes", "hates"},
	"loves":         {"dislikes", "hates"},
	"dislikes":      {"likes", "loves"},
	"hates":         {"likes", "loves"},
	"supports":      {"opposes"},
	"opposes":       {"supports"},
	"uses":          {"stopped_using"},
	"stopped_using": {"uses"},
	"wants":         {"avoids"},
	"avoids":        {"wants"},
}

// IncomingFact is one triple offered to the conflict resolver. Sensitivity
// is the caller's classification; ProfileID and SourceRef travel through
// to the stored row unchanged.
type IncomingFact struct {
	Subject     string      `json:"subject"`
	Predicate   string      `json:"predicate"`
	Object      string      `json:"object"`
	Sensitivity Sensitivity `json:"sensitivity"`
	ProfileID   string      `json:"profile_id,omitempty"`
	SourceRef   string      `json:"source_ref,omitempty"`
}

// IngestOutcome records how one triple was routed.
type IngestOutcome struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Action    string `json:"action"` // stored | replaced | skipped
	FactID    string `json:"fact_id,omitempty"`
}

// IngestResult aggregates a batch's routing counters. Superseded counts
// soft-deleted antonym facts, which can co-occur with Stored.
type IngestResult struct {
	Stored             int             `json:"stored"`
	Replaced           int             `json:"replaced"`
	Superseded         int             `json:"superseded"`
	Skipped            int             `json:"skipped"`
	Outcomes           []IngestOutcome `json:"outcomes,omitempty"`
	ProvisionedProfile *ProfileCard    `json:"provisioned_profile,omitempty"`
}

// IngestFacts routes a batch of incoming triples through the write-time
// conflict policy. Each triple is evaluated independently, in order:
//
//  1. Exact duplicate — an active fact with the same (subject, predicate)
//     and a case-insensitively equal object: skip, no write.
//  2. Single-valued override — the predicate is single-valued and an
//     active fact holds a different object: update that row in place
//     (same id, new object, confidence 0.95, created_at preserved).
//  3. Antonym supersession — active facts with an antonym predicate and
//     the same object are soft-deleted. Runs independently of 2.
//  4. Fresh insert at confidence 0.90, or 0.95 when an antonym was just
//     superseded.
//
// Batches are capped at maxIngestBatch triples; entries with any empty
// field are dropped silently. Routing never errors — only storage
// failures surface. After the batch, a name assertion about the primary
// user may best-effort provision the user profile card.
func (s *Store) IngestFacts(ctx context.Context, incoming []IncomingFact) (*IngestResult, error) {
	if len(incoming) > maxIngestBatch {
		incoming = incoming[:maxIngestBatch]
	}

	result := &IngestResult{}
	for _, in := range incoming {
		in.Subject = strings.TrimSpace(in.Subject)
		in.Predicate = strings.TrimSpace(in.Predicate)
		in.Object = strings.TrimSpace(in.Object)
		if in.Subject == "" || in.Predicate == "" || in.Object == "" {
			continue
		}
		if err := s.resolveFact(ctx, in, result); err != nil {
			return result, err
		}
	}

	s.maybeProvisionUserProfile(ctx, incoming, result)
	return result, nil
}

func (s *Store) resolveFact(ctx context.Context, in IncomingFact, result *IngestResult) error {
	existing, err := s.FindMatchingFacts(ctx, in.Subject, in.Predicate)
	if err != nil {
		return err
	}

	// 1. Exact duplicate: the claim is already on record.
	for _, f := range existing {
		if strings.EqualFold(f.Object, in.Object) {
			result.Skipped++
			result.Outcomes = append(result.Outcomes, IngestOutcome{
				Subject: in.Subject, Predicate: in.Predicate, Object: in.Object,
				Action: "skipped", FactID: f.ID,
			})
			return nil
		}
	}

	// 2. Single-valued override: the newer statement wins in place.
	handled := false
	if isSingleValued(in.Predicate) && len(existing) > 0 {
		prev := existing[0]
		prev.Object = in.Object
		prev.Confidence = 0.95
		prev.Sensitivity = in.Sensitivity
		if _, err := s.StoreFact(ctx, prev); err != nil {
			return err
		}
		result.Replaced++
		result.Outcomes = append(result.Outcomes, IngestOutcome{
			Subject: in.Subject, Predicate: in.Predicate, Object: in.Object,
			Action: "replaced", FactID: prev.ID,
		})
		handled = true
	}

	// 3. Antonym supersession: contradicted claims about the same object
	// are retired. Independent of step 2.
	superseded := 0
	for _, ant := range antonymPredicates[strings.ToLower(in.Predicate)] {
		opposites, err := s.FindMatchingFacts(ctx, in.Subject, ant)
		if err != nil {
			return err
		}
		for _, f := range opposites {
			if strings.EqualFold(f.Object, in.Object) {
				if err := s.DeleteFact(ctx, f.ID); err != nil {
					return err
				}
				superseded++
			}
		}
	}
	result.Superseded += superseded

	if handled {
		return nil
	}

	// 4. Fresh insert. A supersession signals increased certainty.
	confidence := 0.90
	if superseded > 0 {
		confidence = 0.95
	}
	stored, err := s.StoreFact(ctx, Fact{
		ProfileID:   nullableString(in.ProfileID),
		Subject:     in.Subject,
		Predicate:   in.Predicate,
		Object:      in.Object,
		Confidence:  confidence,
		Sensitivity: in.Sensitivity,
		SourceRef:   nullableString(in.SourceRef),
	})
	if err != nil {
		return err
	}
	result.Stored++
	result.Outcomes = append(result.Outcomes, IngestOutcome{
		Subject: in.Subject, Predicate: in.Predicate, Object: in.Object,
		Action: "stored", FactID: stored.ID,
	})
	return nil
}

// namePredicates are the assertions that carry the primary user's name.
var namePredicates = map[string]bool{
	"name":           true,
	"name_is":        true,
	"is_named":       true,
	"goes_by":        true,
	"called":         true,
	"preferred_name": true,
}

// maybeProvisionUserProfile creates a kind="user" profile card when a
// batch asserts the primary user's name and no active user card exists.
// Best effort: failures are swallowed, and per-kind uniqueness stays the
// caller's responsibility — a concurrent writer may still race in a
// second card.
func (s *Store) maybeProvisionUserProfile(ctx context.Context, incoming []IncomingFact, result *IngestResult) {
	name := ""
	for _, in := range incoming {
		if strings.EqualFold(strings.TrimSpace(in.Subject), s.cfg.PrimaryUser) &&
			namePredicates[strings.ToLower(strings.TrimSpace(in.Predicate))] &&
			strings.TrimSpace(in.Object) != "" {
			name = strings.TrimSpace(in.Object)
			break
		}
	}
	if name == "" {
		return
	}

	existing, err := s.UserProfile(ctx)
	if err != nil || existing != nil {
		return
	}

	card, err := s.StoreProfile(ctx, ProfileCard{
		Kind:        KindUser,
		DisplayName: name,
		Fields:      map[string]any{},
	})
	if err != nil {
		return
	}
	result.ProvisionedProfile = &card
}
