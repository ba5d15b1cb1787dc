package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemolab/mnemo/internal/journal"
	"github.com/mnemolab/mnemo/internal/memory"
	"github.com/mnemolab/mnemo/internal/triage"
)

// ─── StoreFactTool ──────────────────────────────────────────────────────────

// StoreFactTool handles the memory_store_fact MCP tool. Every write goes
// through the conflict resolver, so storing is really proposing: the
// engine decides whether the triple is new, a duplicate, or an override.
type StoreFactTool struct {
	store      *memory.Store
	classifier *triage.Classifier
	journal    journal.Store
}

// NewStoreFactTool creates a StoreFactTool. classifier and jrnl may be
// nil; sensitivity advice and audit records are then skipped.
func NewStoreFactTool(store *memory.Store, classifier *triage.Classifier, jrnl journal.Store) *StoreFactTool {
	return &StoreFactTool{store: store, classifier: classifier, journal: jrnl}
}

// Definition returns the MCP tool definition for memory_store_fact.
func (t *StoreFactTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_store_fact",
		mcp.WithDescription(
			"Remember one durable fact about a person as a subject-predicate-object triple. "+
				"The engine resolves conflicts automatically: duplicates are skipped, single-valued "+
				"attributes (name_is, lives_in, favorite_*) are replaced in place, and contradictions "+
				"(likes vs hates) supersede the old fact.",
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Who the fact is about, e.g. 'user' or a person's name"),
		),
		mcp.WithString("predicate",
			mcp.Required(),
			mcp.Description("The relation, e.g. likes, lives_in, name_is, works_at"),
		),
		mcp.WithString("object",
			mcp.Required(),
			mcp.Description("The value, e.g. 'apple pie', 'Lisbon', 'Samuel'"),
		),
		mcp.WithString("sensitivity",
			mcp.Description("personal (default), public, or secret. Secret facts never appear in search."),
		),
		mcp.WithString("profile_id",
			mcp.Description("Profile card this fact belongs to"),
		),
		mcp.WithString("source_ref",
			mcp.Description("Where the fact came from, e.g. a conversation id"),
		),
	)
}

// Handle processes the memory_store_fact tool call.
func (t *StoreFactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := memory.IncomingFact{
		Subject:     req.GetString("subject", ""),
		Predicate:   req.GetString("predicate", ""),
		Object:      req.GetString("object", ""),
		Sensitivity: memory.ParseSensitivity(req.GetString("sensitivity", "")),
		ProfileID:   req.GetString("profile_id", ""),
		SourceRef:   req.GetString("source_ref", ""),
	}
	if in.Subject == "" || in.Predicate == "" || in.Object == "" {
		return mcp.NewToolResultError("'subject', 'predicate' and 'object' are required"), nil
	}

	res, err := t.store.IngestFacts(ctx, []memory.IncomingFact{in})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store fact: %v", err)), nil
	}
	recordBatch(t.journal, res)

	var b strings.Builder
	b.WriteString(describeOutcomes(res))
	b.WriteString(sensitivityAdvice(t.classifier, in.Sensitivity,
		in.Subject+" "+in.Predicate+" "+in.Object))
	return mcp.NewToolResultText(b.String()), nil
}

// ─── StoreFactsTool ─────────────────────────────────────────────────────────

// StoreFactsTool handles the memory_store_facts MCP tool, the batch
// variant. Batches are capped by the engine; oversized batches are
// truncated, not rejected.
type StoreFactsTool struct {
	store      *memory.Store
	classifier *triage.Classifier
	journal    journal.Store
}

// NewStoreFactsTool creates a StoreFactsTool.
func NewStoreFactsTool(store *memory.Store, classifier *triage.Classifier, jrnl journal.Store) *StoreFactsTool {
	return &StoreFactsTool{store: store, classifier: classifier, journal: jrnl}
}

// Definition returns the MCP tool definition for memory_store_facts.
func (t *StoreFactsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_store_facts",
		mcp.WithDescription(
			"Remember a batch of facts (up to 10 per call) in one pass through the conflict "+
				"resolver. Use this after a conversation yields several claims at once.",
		),
		mcp.WithArray("facts",
			mcp.Required(),
			mcp.Description("Array of {subject, predicate, object, sensitivity?, profile_id?, source_ref?} objects"),
		),
	)
}

// Handle processes the memory_store_facts tool call.
func (t *StoreFactsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := req.GetArguments()["facts"].([]any)
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("'facts' must be a non-empty array"), nil
	}

	incoming := make([]memory.IncomingFact, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		incoming = append(incoming, memory.IncomingFact{
			Subject:     stringField(m, "subject"),
			Predicate:   stringField(m, "predicate"),
			Object:      stringField(m, "object"),
			Sensitivity: memory.ParseSensitivity(stringField(m, "sensitivity")),
			ProfileID:   stringField(m, "profile_id"),
			SourceRef:   stringField(m, "source_ref"),
		})
	}
	if len(incoming) == 0 {
		return mcp.NewToolResultError("'facts' contained no usable objects"), nil
	}

	res, err := t.store.IngestFacts(ctx, incoming)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store facts: %v", err)), nil
	}
	recordBatch(t.journal, res)

	return mcp.NewToolResultText(describeOutcomes(res)), nil
}

// ─── SearchFactsTool ────────────────────────────────────────────────────────

// SearchFactsTool handles the memory_search_facts MCP tool.
type SearchFactsTool struct {
	store *memory.Store
}

// NewSearchFactsTool creates a SearchFactsTool.
func NewSearchFactsTool(store *memory.Store) *SearchFactsTool {
	return &SearchFactsTool{store: store}
}

// Definition returns the MCP tool definition for memory_search_facts.
func (t *SearchFactsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_search_facts",
		mcp.WithDescription(
			"Search remembered facts by keyword overlap. Returns triples ranked by how many "+
				"query keywords they match. Secret facts are never returned.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language or keywords"),
		),
		mcp.WithNumber("max",
			mcp.Description("Max results (default 10)"),
		),
	)
}

// Handle processes the memory_search_facts tool call.
func (t *SearchFactsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	matches, err := t.store.SearchFacts(ctx, query, intArg(req, "max", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No facts match that query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d facts:\n\n", len(matches))
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] (%.2f) %s %s %s\n    id: %s | sensitivity: %s | confidence: %.2f\n",
			i+1, m.Score, m.Subject, m.Predicate, m.Object,
			m.ID, m.Sensitivity, m.Confidence)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ListFactsTool ──────────────────────────────────────────────────────────

// ListFactsTool handles the memory_list_facts MCP tool.
type ListFactsTool struct {
	store *memory.Store
}

// NewListFactsTool creates a ListFactsTool.
func NewListFactsTool(store *memory.Store) *ListFactsTool {
	return &ListFactsTool{store: store}
}

// Definition returns the MCP tool definition for memory_list_facts.
func (t *ListFactsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_list_facts",
		mcp.WithDescription(
			"List remembered facts, newest first, with an optional substring filter and pagination.",
		),
		mcp.WithString("filter",
			mcp.Description("Case-insensitive substring over subject, predicate, and object"),
		),
		mcp.WithNumber("skip",
			mcp.Description("Rows to skip (default 0)"),
		),
		mcp.WithNumber("take",
			mcp.Description("Rows to return (default 20)"),
		),
	)
}

// Handle processes the memory_list_facts tool call.
func (t *ListFactsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := req.GetString("filter", "")
	skip := intArg(req, "skip", 0)
	take := intArg(req, "take", 20)

	items, total, err := t.store.ListFacts(ctx, filter, skip, take)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("No facts stored."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Facts %d-%d of %d:\n\n", skip+1, skip+len(items), total)
	for _, f := range items {
		fmt.Fprintf(&b, "- %s %s %s (id: %s, %s)\n",
			f.Subject, f.Predicate, f.Object, f.ID, f.Sensitivity)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── DeleteFactTool ─────────────────────────────────────────────────────────

// DeleteFactTool handles the memory_delete_fact MCP tool.
type DeleteFactTool struct {
	store *memory.Store
}

// NewDeleteFactTool creates a DeleteFactTool.
func NewDeleteFactTool(store *memory.Store) *DeleteFactTool {
	return &DeleteFactTool{store: store}
}

// Definition returns the MCP tool definition for memory_delete_fact.
func (t *DeleteFactTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_delete_fact",
		mcp.WithDescription(
			"Forget a fact by id. The row is soft-deleted: hidden from every search and list, retained for audit.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Fact id to forget"),
		),
	)
}

// Handle processes the memory_delete_fact tool call.
func (t *DeleteFactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if err := t.store.DeleteFact(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete fact: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Fact %s forgotten", id)), nil
}

// ─── shared helpers ─────────────────────────────────────────────────────────

// describeOutcomes renders a resolver result for the caller.
func describeOutcomes(res *memory.IngestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resolved: %d stored, %d replaced, %d superseded, %d skipped\n",
		res.Stored, res.Replaced, res.Superseded, res.Skipped)
	for _, o := range res.Outcomes {
		fmt.Fprintf(&b, "- %s: %s %s %s\n", o.Action, o.Subject, o.Predicate, o.Object)
	}
	if res.ProvisionedProfile != nil {
		fmt.Fprintf(&b, "Provisioned user profile %q (id: %s)\n",
			res.ProvisionedProfile.DisplayName, res.ProvisionedProfile.ID)
	}
	return b.String()
}

// recordBatch appends the batch to the audit journal. Best effort: a
// journal failure never fails the ingest.
func recordBatch(jrnl journal.Store, res *memory.IngestResult) {
	if jrnl == nil || res == nil {
		return
	}
	_ = jrnl.Append(journal.NewRecord("mcp", *res))
}

// sensitivityAdvice reports when triage would classify the text stricter
// than the caller did. Advisory only; the caller's tier always stands.
func sensitivityAdvice(c *triage.Classifier, chosen memory.Sensitivity, text string) string {
	if c == nil {
		return ""
	}
	sugg := c.Suggest(text)
	if sugg.Level == memory.SensitivitySecret && chosen != memory.SensitivitySecret {
		return fmt.Sprintf("Note: this looks like secret material (signals: %s). Consider sensitivity=secret.\n",
			strings.Join(sugg.Matched, ", "))
	}
	return ""
}

// stringField reads a string out of a decoded JSON object.
func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}
