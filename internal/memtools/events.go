package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemolab/mnemo/internal/memory"
)

// ─── StoreEventTool ─────────────────────────────────────────────────────────

// StoreEventTool handles the memory_store_event MCP tool. Events carry
// no conflict layer; the same id overwrites, a fresh call inserts.
type StoreEventTool struct {
	store *memory.Store
}

// NewStoreEventTool creates a StoreEventTool.
func NewStoreEventTool(store *memory.Store) *StoreEventTool {
	return &StoreEventTool{store: store}
}

// Definition returns the MCP tool definition for memory_store_event.
func (t *StoreEventTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_store_event",
		mcp.WithDescription(
			"Remember a dated occurrence in the user's life: an appointment, a trip, a milestone. "+
				"Use facts for durable claims and events for things that happened at a time.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short title, e.g. 'Dentist appointment'"),
		),
		mcp.WithString("type",
			mcp.Description("Category, e.g. appointment, trip, milestone (default: note)"),
		),
		mcp.WithString("summary",
			mcp.Description("Longer description"),
		),
		mcp.WithString("when",
			mcp.Description("When it happens or happened, ISO-8601 with offset"),
		),
		mcp.WithString("sensitivity",
			mcp.Description("personal (default), public, or secret"),
		),
		mcp.WithString("profile_id",
			mcp.Description("Profile card this event belongs to"),
		),
		mcp.WithString("source_ref",
			mcp.Description("Where the event came from"),
		),
	)
}

// Handle processes the memory_store_event tool call.
func (t *StoreEventTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	e, err := t.store.StoreEvent(ctx, memory.Event{
		Type:        req.GetString("type", ""),
		Title:       title,
		Summary:     optStr(req, "summary"),
		When:        optStr(req, "when"),
		Sensitivity: memory.ParseSensitivity(req.GetString("sensitivity", "")),
		ProfileID:   optStr(req, "profile_id"),
		SourceRef:   optStr(req, "source_ref"),
		Confidence:  1.0,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store event: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Event remembered: %q (id: %s)", e.Title, e.ID)), nil
}

// ─── SearchEventsTool ───────────────────────────────────────────────────────

// SearchEventsTool handles the memory_search_events MCP tool.
type SearchEventsTool struct {
	store *memory.Store
}

// NewSearchEventsTool creates a SearchEventsTool.
func NewSearchEventsTool(store *memory.Store) *SearchEventsTool {
	return &SearchEventsTool{store: store}
}

// Definition returns the MCP tool definition for memory_search_events.
func (t *SearchEventsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_search_events",
		mcp.WithDescription(
			"Search remembered events by keyword overlap over type, title, and summary.",
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

// Handle processes the memory_search_events tool call.
func (t *SearchEventsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	matches, err := t.store.SearchEvents(ctx, query, intArg(req, "max", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No events match that query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events:\n\n", len(matches))
	for i, m := range matches {
		when := "undated"
		if m.When != nil {
			when = *m.When
		}
		fmt.Fprintf(&b, "[%d] (%.2f) %s — %s\n    id: %s | when: %s\n",
			i+1, m.Score, m.Type, m.Title, m.ID, when)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ListEventsTool ─────────────────────────────────────────────────────────

// ListEventsTool handles the memory_list_events MCP tool.
type ListEventsTool struct {
	store *memory.Store
}

// NewListEventsTool creates a ListEventsTool.
func NewListEventsTool(store *memory.Store) *ListEventsTool {
	return &ListEventsTool{store: store}
}

// Definition returns the MCP tool definition for memory_list_events.
func (t *ListEventsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_list_events",
		mcp.WithDescription(
			"List remembered events, most recently dated first, with an optional substring filter and pagination.",
		),
		mcp.WithString("filter",
			mcp.Description("Case-insensitive substring over type, title, and summary"),
		),
		mcp.WithNumber("skip",
			mcp.Description("Rows to skip (default 0)"),
		),
		mcp.WithNumber("take",
			mcp.Description("Rows to return (default 20)"),
		),
	)
}

// Handle processes the memory_list_events tool call.
func (t *ListEventsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := t.store.ListEvents(ctx,
		req.GetString("filter", ""), intArg(req, "skip", 0), intArg(req, "take", 20))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("No events stored."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Events (%d total):\n\n", total)
	for _, e := range items {
		when := "undated"
		if e.When != nil {
			when = *e.When
		}
		fmt.Fprintf(&b, "- [%s] %s — %s (id: %s)\n", when, e.Type, e.Title, e.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── DeleteEventTool ────────────────────────────────────────────────────────

// DeleteEventTool handles the memory_delete_event MCP tool.
type DeleteEventTool struct {
	store *memory.Store
}

// NewDeleteEventTool creates a DeleteEventTool.
func NewDeleteEventTool(store *memory.Store) *DeleteEventTool {
	return &DeleteEventTool{store: store}
}

// Definition returns the MCP tool definition for memory_delete_event.
func (t *DeleteEventTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_delete_event",
		mcp.WithDescription("Forget an event by id (soft-delete)."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Event id to forget"),
		),
	)
}

// Handle processes the memory_delete_event tool call.
func (t *DeleteEventTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if err := t.store.DeleteEvent(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete event: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Event %s forgotten", id)), nil
}
