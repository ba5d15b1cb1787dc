package memory

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// ─── Sensitivity tiers ───────────────────────────────────────────────────────

// Sensitivity classifies facts, events, and chunks. Secret rows never leave
// the store through search — they are excluded at the query level, not
// post-filtered. The zero value is the personal tier.
type Sensitivity int

const (
	SensitivityPersonal Sensitivity = iota
	SensitivityPublic
	SensitivitySecret
)

// String returns the stable storage encoding of the tier.
func (s Sensitivity) String() string {
	switch s {
	case SensitivityPublic:
		return "public"
	case SensitivitySecret:
		return "secret"
	default:
		return "personal"
	}
}

// ParseSensitivity maps a stored or caller-supplied string to a tier.
// Unrecognized values degrade to personal rather than erroring.
func ParseSensitivity(v string) Sensitivity {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "public":
		return SensitivityPublic
	case "secret":
		return SensitivitySecret
	default:
		return SensitivityPersonal
	}
}

// MarshalJSON encodes the tier as its string form.
func (s Sensitivity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a string tier, degrading unknown values to personal.
func (s *Sensitivity) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ParseSensitivity(v)
	return nil
}

// NuggetSensitivity is the separate low/medium/high tier used by nuggets.
// Only low-tier nuggets are eligible for greeting delivery. The zero value
// is medium.
type NuggetSensitivity int

const (
	NuggetMedium NuggetSensitivity = iota
	NuggetLow
	NuggetHigh
)

// String returns the stable storage encoding of the tier.
func (s NuggetSensitivity) String() string {
	switch s {
	case NuggetLow:
		return "low"
	case NuggetHigh:
		return "high"
	default:
		return "medium"
	}
}

// ParseNuggetSensitivity maps a string to a nugget tier, defaulting to
// medium for unrecognized values.
func ParseNuggetSensitivity(v string) NuggetSensitivity {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "low":
		return NuggetLow
	case "high":
		return NuggetHigh
	default:
		return NuggetMedium
	}
}

// MarshalJSON encodes the tier as its string form.
func (s NuggetSensitivity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a string tier, degrading unknown values to medium.
func (s *NuggetSensitivity) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ParseNuggetSensitivity(v)
	return nil
}

// ─── Profile kinds ───────────────────────────────────────────────────────────

// ProfileKind distinguishes the single primary-user card from the many
// person cards. The zero value is person.
type ProfileKind int

const (
	KindPerson ProfileKind = iota
	KindUser
)

// String returns the stable storage encoding of the kind.
func (k ProfileKind) String() string {
	if k == KindUser {
		return "user"
	}
	return "person"
}

// ParseProfileKind maps a string to a profile kind, defaulting to person.
func ParseProfileKind(v string) ProfileKind {
	if strings.TrimSpace(strings.ToLower(v)) == "user" {
		return KindUser
	}
	return KindPerson
}

// MarshalJSON encodes the kind as its string form.
func (k ProfileKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a string kind, degrading unknown values to person.
func (k *ProfileKind) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*k = ParseProfileKind(v)
	return nil
}

// ─── Entities ────────────────────────────────────────────────────────────────

// Fact is a subject–predicate–object triple representing a durable claim
// about a person. (subject, predicate) is the conflict-detection key.
type Fact struct {
	ID          string      `json:"id"`
	ProfileID   *string     `json:"profile_id,omitempty"`
	Subject     string      `json:"subject"`
	Predicate   string      `json:"predicate"`
	Object      string      `json:"object"`
	Confidence  float64     `json:"confidence"`
	Sensitivity Sensitivity `json:"sensitivity"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
	SourceRef   *string     `json:"source_ref,omitempty"`
	Deleted     bool        `json:"deleted,omitempty"`
}

// Event is a timestamped occurrence. Events have no conflict layer — they
// are overwritten by id only.
type Event struct {
	ID          string      `json:"id"`
	ProfileID   *string     `json:"profile_id,omitempty"`
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	Summary     *string     `json:"summary,omitempty"`
	When        *string     `json:"when,omitempty"`
	Confidence  float64     `json:"confidence"`
	Sensitivity Sensitivity `json:"sensitivity"`
	SourceRef   *string     `json:"source_ref,omitempty"`
	Deleted     bool        `json:"deleted,omitempty"`
}

// Chunk is a free-text fragment — a conversation turn or document excerpt.
// Chunk text is the only content in the full-text index.
type Chunk struct {
	ID          string      `json:"id"`
	SourceType  string      `json:"source_type"`
	SourceRef   *string     `json:"source_ref,omitempty"`
	Text        string      `json:"text"`
	When        *string     `json:"when,omitempty"`
	Sensitivity Sensitivity `json:"sensitivity"`
	Embedding   []float32   `json:"embedding,omitempty"`
	Deleted     bool        `json:"deleted,omitempty"`
}

// Nugget is a short, pre-composed personal-fact summary. Nuggets are ranked
// for context injection rather than keyword-matched like facts. Tags is a
// semicolon-delimited string, e.g. ";identity;preference;".
type Nugget struct {
	ID          string            `json:"id"`
	Text        string            `json:"text"`
	Tags        string            `json:"tags,omitempty"`
	Weight      float64           `json:"weight"`
	PinLevel    int               `json:"pin_level"`
	Sensitivity NuggetSensitivity `json:"sensitivity"`
	UseCount    int               `json:"use_count"`
	LastUsedAt  *string           `json:"last_used_at,omitempty"`
	CreatedAt   string            `json:"created_at"`
	Embedding   []float32         `json:"embedding,omitempty"`
	Deleted     bool              `json:"deleted,omitempty"`
}

// ProfileCard is an identity card for the primary user or a known person.
// Fields is a schemaless key-value document; it is parsed defensively and
// a corrupt blob degrades to an empty map, never an error. Exactly one
// active user card is meaningful at a time, but the store does not enforce
// that uniqueness — callers own it.
type ProfileCard struct {
	ID           string         `json:"id"`
	Kind         ProfileKind    `json:"kind"`
	DisplayName  string         `json:"display_name"`
	Relationship *string        `json:"relationship,omitempty"`
	Aliases      []string       `json:"aliases,omitempty"`
	Fields       map[string]any `json:"fields"`
	UpdatedAt    string         `json:"updated_at"`
	Deleted      bool           `json:"deleted,omitempty"`
}

// ─── Search results ──────────────────────────────────────────────────────────

// FactMatch pairs a fact with its lexical overlap score in [0,1].
type FactMatch struct {
	Fact
	Score float64 `json:"score"`
}

// EventMatch pairs an event with its lexical overlap score in [0,1].
type EventMatch struct {
	Event
	Score float64 `json:"score"`
}

// ChunkMatch pairs a chunk with its batch-normalized BM25 score in [0,1].
// Scores are comparable only within one call's result batch.
type ChunkMatch struct {
	Chunk
	Score float64 `json:"score"`
}

// NuggetMatch pairs a nugget with its composite or query-relevance score.
type NuggetMatch struct {
	Nugget
	Score float64 `json:"score"`
}

// ProfileMatch pairs a profile card with its lexical overlap score in [0,1].
type ProfileMatch struct {
	ProfileCard
	Score float64 `json:"score"`
}

// ─── Embedding blobs ─────────────────────────────────────────────────────────

// encodeEmbedding serializes a vector as little-endian float32 bytes.
// Empty vectors encode as nil, which stores as NULL.
func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeEmbedding deserializes a stored vector blob. A length not divisible
// by the element width is corrupt and yields nil, not an error.
func decodeEmbedding(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// ─── Time ────────────────────────────────────────────────────────────────────

// Now returns the current time in the canonical stored form: RFC 3339 UTC.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// parseTime parses a stored timestamp, trying the layouts that have ever
// been written. Unparsable values fail closed to the zero time — the
// sentinel minimum — rather than erroring.
func parseTime(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
