package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemolab/mnemo/internal/memory"
)

// ─── StoreNuggetTool ────────────────────────────────────────────────────────

// StoreNuggetTool handles the memory_store_nugget MCP tool.
type StoreNuggetTool struct {
	store *memory.Store
}

// NewStoreNuggetTool creates a StoreNuggetTool.
func NewStoreNuggetTool(store *memory.Store) *StoreNuggetTool {
	return &StoreNuggetTool{store: store}
}

// Definition returns the MCP tool definition for memory_store_nugget.
func (t *StoreNuggetTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_store_nugget",
		mcp.WithDescription(
			"Remember a nugget: a short, pre-composed summary of something worth re-surfacing, "+
				"like 'Prefers morning meetings' or 'Working on the kitchen renovation'. Nuggets are "+
				"ranked for context injection rather than keyword-matched.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The nugget text, one atomic statement"),
		),
		mcp.WithString("tags",
			mcp.Description("Semicolon-delimited tags, e.g. ';identity;preference;'. Greeting delivery requires identity, preference, active_project, or routine."),
		),
		mcp.WithNumber("weight",
			mcp.Description("Importance in [0,1] (default 0.5)"),
		),
		mcp.WithNumber("pin_level",
			mcp.Description("0 = unpinned, 1 = pinned, 2 = always surface (default 0)"),
		),
		mcp.WithString("sensitivity",
			mcp.Description("low, medium (default), or high. Only low nuggets may open a greeting; high nuggets never surface in search."),
		),
	)
}

// Handle processes the memory_store_nugget tool call.
func (t *StoreNuggetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}

	n, err := t.store.StoreNugget(ctx, memory.Nugget{
		Text:        text,
		Tags:        req.GetString("tags", ""),
		Weight:      floatArg(req, "weight", 0.5),
		PinLevel:    intArg(req, "pin_level", 0),
		Sensitivity: memory.ParseNuggetSensitivity(req.GetString("sensitivity", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store nugget: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Nugget remembered (id: %s)", n.ID)), nil
}

// ─── GreetingNuggetsTool ────────────────────────────────────────────────────

// GreetingNuggetsTool handles the memory_greeting_nuggets MCP tool.
// Delivery counts as use: every returned nugget is touched, so its
// recency and use count reflect that it was surfaced.
type GreetingNuggetsTool struct {
	store *memory.Store
}

// NewGreetingNuggetsTool creates a GreetingNuggetsTool.
func NewGreetingNuggetsTool(store *memory.Store) *GreetingNuggetsTool {
	return &GreetingNuggetsTool{store: store}
}

// Definition returns the MCP tool definition for memory_greeting_nuggets.
func (t *GreetingNuggetsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_greeting_nuggets",
		mcp.WithDescription(
			"Fetch the nuggets to open a session with: low-sensitivity, greeting-tagged, ranked by "+
				"pin level, weight, recency, and usage. Call once at the start of a conversation.",
		),
		mcp.WithNumber("max",
			mcp.Description("Max nuggets (default 2)"),
		),
	)
}

// Handle processes the memory_greeting_nuggets tool call.
func (t *GreetingNuggetsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	matches, err := t.store.GreetingNuggets(ctx, intArg(req, "max", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to rank nuggets: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No greeting nuggets available."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Greeting nuggets:\n\n")
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s (score %.2f)\n", m.Text, m.Score)
		// Best effort; a failed touch must not drop the nugget.
		_ = t.store.TouchNugget(ctx, m.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── SearchNuggetsTool ──────────────────────────────────────────────────────

// SearchNuggetsTool handles the memory_search_nuggets MCP tool. Ranking
// is a pure read: searching never touches the returned nuggets.
type SearchNuggetsTool struct {
	store *memory.Store
}

// NewSearchNuggetsTool creates a SearchNuggetsTool.
func NewSearchNuggetsTool(store *memory.Store) *SearchNuggetsTool {
	return &SearchNuggetsTool{store: store}
}

// Definition returns the MCP tool definition for memory_search_nuggets.
func (t *SearchNuggetsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_search_nuggets",
		mcp.WithDescription(
			"Find nuggets relevant to the current topic, blending keyword overlap with each "+
				"nugget's standing score. High-sensitivity nuggets are never returned.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language or keywords"),
		),
		mcp.WithNumber("max",
			mcp.Description("Max results (default 5)"),
		),
	)
}

// Handle processes the memory_search_nuggets tool call.
func (t *SearchNuggetsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	matches, err := t.store.SearchNuggets(ctx, query, intArg(req, "max", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No nuggets match that query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d nuggets:\n\n", len(matches))
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] (%.2f) %s\n    id: %s | tags: %s\n",
			i+1, m.Score, m.Text, m.ID, m.Tags)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── TouchNuggetTool ────────────────────────────────────────────────────────

// TouchNuggetTool handles the memory_touch_nugget MCP tool.
type TouchNuggetTool struct {
	store *memory.Store
}

// NewTouchNuggetTool creates a TouchNuggetTool.
func NewTouchNuggetTool(store *memory.Store) *TouchNuggetTool {
	return &TouchNuggetTool{store: store}
}

// Definition returns the MCP tool definition for memory_touch_nugget.
func (t *TouchNuggetTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_touch_nugget",
		mcp.WithDescription(
			"Mark a nugget as used right now, bumping its use count and recency. Call when you "+
				"actually surfaced the nugget to the user outside of a greeting.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Nugget id"),
		),
	)
}

// Handle processes the memory_touch_nugget tool call.
func (t *TouchNuggetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if err := t.store.TouchNugget(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to touch nugget: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Nugget %s touched", id)), nil
}

// ─── ListNuggetsTool ────────────────────────────────────────────────────────

// ListNuggetsTool handles the memory_list_nuggets MCP tool.
type ListNuggetsTool struct {
	store *memory.Store
}

// NewListNuggetsTool creates a ListNuggetsTool.
func NewListNuggetsTool(store *memory.Store) *ListNuggetsTool {
	return &ListNuggetsTool{store: store}
}

// Definition returns the MCP tool definition for memory_list_nuggets.
func (t *ListNuggetsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_list_nuggets",
		mcp.WithDescription(
			"List nuggets with an optional substring filter over text and tags, plus pagination.",
		),
		mcp.WithString("filter",
			mcp.Description("Case-insensitive substring"),
		),
		mcp.WithNumber("skip",
			mcp.Description("Rows to skip (default 0)"),
		),
		mcp.WithNumber("take",
			mcp.Description("Rows to return (default 20)"),
		),
	)
}

// Handle processes the memory_list_nuggets tool call.
func (t *ListNuggetsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := t.store.ListNuggets(ctx,
		req.GetString("filter", ""), intArg(req, "skip", 0), intArg(req, "take", 20))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("No nuggets stored."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Nuggets (%d total):\n\n", total)
	for _, n := range items {
		fmt.Fprintf(&b, "- %s (id: %s, pin %d, used %d)\n", n.Text, n.ID, n.PinLevel, n.UseCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── DeleteNuggetTool ───────────────────────────────────────────────────────

// DeleteNuggetTool handles the memory_delete_nugget MCP tool.
type DeleteNuggetTool struct {
	store *memory.Store
}

// NewDeleteNuggetTool creates a DeleteNuggetTool.
func NewDeleteNuggetTool(store *memory.Store) *DeleteNuggetTool {
	return &DeleteNuggetTool{store: store}
}

// Definition returns the MCP tool definition for memory_delete_nugget.
func (t *DeleteNuggetTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_delete_nugget",
		mcp.WithDescription("Forget a nugget by id (soft-delete)."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Nugget id to forget"),
		),
	)
}

// Handle processes the memory_delete_nugget tool call.
func (t *DeleteNuggetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if err := t.store.DeleteNugget(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete nugget: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Nugget %s forgotten", id)), nil
}
