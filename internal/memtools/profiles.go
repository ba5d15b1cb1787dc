package memtools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemolab/mnemo/internal/memory"
)

// ─── StoreProfileTool ───────────────────────────────────────────────────────

// StoreProfileTool handles the memory_store_profile MCP tool.
type StoreProfileTool struct {
	store *memory.Store
}

// NewStoreProfileTool creates a StoreProfileTool.
func NewStoreProfileTool(store *memory.Store) *StoreProfileTool {
	return &StoreProfileTool{store: store}
}

// Definition returns the MCP tool definition for memory_store_profile.
func (t *StoreProfileTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_store_profile",
		mcp.WithDescription(
			"Create or update a profile card for the user or a person in their life. At most one "+
				"user card should be active; the store does not enforce that, so prefer updating the "+
				"existing user card over creating a second one.",
		),
		mcp.WithString("display_name",
			mcp.Required(),
			mcp.Description("The person's name as the user refers to them"),
		),
		mcp.WithString("kind",
			mcp.Description("person (default) or user"),
		),
		mcp.WithString("id",
			mcp.Description("Existing card id to update; omit to create"),
		),
		mcp.WithString("relationship",
			mcp.Description("Relationship to the user, e.g. sister, coworker"),
		),
		mcp.WithArray("aliases",
			mcp.Description("Other names the person goes by"),
		),
		mcp.WithObject("fields",
			mcp.Description("Free-form key-value details, e.g. {\"birthday\": \"March 3\"}"),
		),
	)
}

// Handle processes the memory_store_profile tool call.
func (t *StoreProfileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("display_name", "")
	if name == "" {
		return mcp.NewToolResultError("'display_name' is required"), nil
	}

	var aliases []string
	if raw, ok := req.GetArguments()["aliases"].([]any); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok && s != "" {
				aliases = append(aliases, s)
			}
		}
	}
	fields, _ := req.GetArguments()["fields"].(map[string]any)

	p, err := t.store.StoreProfile(ctx, memory.ProfileCard{
		ID:           req.GetString("id", ""),
		Kind:         memory.ParseProfileKind(req.GetString("kind", "")),
		DisplayName:  name,
		Relationship: optStr(req, "relationship"),
		Aliases:      aliases,
		Fields:       fields,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store profile: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Profile %q saved (id: %s, kind: %s)", p.DisplayName, p.ID, p.Kind)), nil
}

// ─── GetProfileTool ─────────────────────────────────────────────────────────

// GetProfileTool handles the memory_get_profile MCP tool. Without an id
// it returns the active user card.
type GetProfileTool struct {
	store *memory.Store
}

// NewGetProfileTool creates a GetProfileTool.
func NewGetProfileTool(store *memory.Store) *GetProfileTool {
	return &GetProfileTool{store: store}
}

// Definition returns the MCP tool definition for memory_get_profile.
func (t *GetProfileTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_get_profile",
		mcp.WithDescription(
			"Fetch a profile card as JSON. Omit the id to get the user's own card.",
		),
		mcp.WithString("id",
			mcp.Description("Card id; omit for the user card"),
		),
	)
}

// Handle processes the memory_get_profile tool call.
func (t *GetProfileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		card *memory.ProfileCard
		err  error
	)
	if id := req.GetString("id", ""); id != "" {
		card, err = t.store.GetProfile(ctx, id)
	} else {
		card, err = t.store.UserProfile(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load profile: %v", err)), nil
	}
	if card == nil {
		return mcp.NewToolResultText("No matching profile card."), nil
	}

	data, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode profile: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ─── ListProfilesTool ───────────────────────────────────────────────────────

// ListProfilesTool handles the memory_list_profiles MCP tool.
type ListProfilesTool struct {
	store *memory.Store
}

// NewListProfilesTool creates a ListProfilesTool.
func NewListProfilesTool(store *memory.Store) *ListProfilesTool {
	return &ListProfilesTool{store: store}
}

// Definition returns the MCP tool definition for memory_list_profiles.
func (t *ListProfilesTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_list_profiles",
		mcp.WithDescription(
			"List profile cards with an optional substring filter over name and relationship.",
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

// Handle processes the memory_list_profiles tool call.
func (t *ListProfilesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := t.store.ListProfiles(ctx,
		req.GetString("filter", ""), intArg(req, "skip", 0), intArg(req, "take", 20))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("No profile cards stored."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Profiles (%d total):\n\n", total)
	for _, p := range items {
		rel := ""
		if p.Relationship != nil {
			rel = " | " + *p.Relationship
		}
		fmt.Fprintf(&b, "- [%s] %s%s (id: %s)\n", p.Kind, p.DisplayName, rel, p.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── SearchProfilesTool ─────────────────────────────────────────────────────

// SearchProfilesTool handles the memory_search_profiles MCP tool. Only
// person cards are searched; the user card is fetched, not found.
type SearchProfilesTool struct {
	store *memory.Store
}

// NewSearchProfilesTool creates a SearchProfilesTool.
func NewSearchProfilesTool(store *memory.Store) *SearchProfilesTool {
	return &SearchProfilesTool{store: store}
}

// Definition returns the MCP tool definition for memory_search_profiles.
func (t *SearchProfilesTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_search_profiles",
		mcp.WithDescription(
			"Find person cards by name, alias, or relationship. Use when the user mentions "+
				"someone and you need their card.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Name or relationship keywords"),
		),
		mcp.WithNumber("max",
			mcp.Description("Max results (default 5)"),
		),
	)
}

// Handle processes the memory_search_profiles tool call.
func (t *SearchProfilesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	matches, err := t.store.SearchPersonProfiles(ctx, query, intArg(req, "max", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No person cards match that query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d person cards:\n\n", len(matches))
	for i, m := range matches {
		rel := ""
		if m.Relationship != nil {
			rel = " | " + *m.Relationship
		}
		fmt.Fprintf(&b, "[%d] (%.2f) %s%s (id: %s)\n", i+1, m.Score, m.DisplayName, rel, m.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── DeleteProfileTool ──────────────────────────────────────────────────────

// DeleteProfileTool handles the memory_delete_profile MCP tool.
type DeleteProfileTool struct {
	store *memory.Store
}

// NewDeleteProfileTool creates a DeleteProfileTool.
func NewDeleteProfileTool(store *memory.Store) *DeleteProfileTool {
	return &DeleteProfileTool{store: store}
}

// Definition returns the MCP tool definition for memory_delete_profile.
func (t *DeleteProfileTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_delete_profile",
		mcp.WithDescription("Forget a profile card by id (soft-delete)."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Card id to forget"),
		),
	)
}

// Handle processes the memory_delete_profile tool call.
func (t *DeleteProfileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if err := t.store.DeleteProfile(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete profile: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Profile %s forgotten", id)), nil
}
