package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemolab/mnemo/internal/embedding"
	"github.com/mnemolab/mnemo/internal/memory"
)

// ─── StoreChunkTool ─────────────────────────────────────────────────────────

// StoreChunkTool handles the memory_store_chunk MCP tool. When an
// embedder is configured the chunk is vectorized on write; embedding
// failures are tolerated and the chunk is stored without a vector.
type StoreChunkTool struct {
	store    *memory.Store
	embedder embedding.Embedder
}

// NewStoreChunkTool creates a StoreChunkTool. embedder may be nil.
func NewStoreChunkTool(store *memory.Store, embedder embedding.Embedder) *StoreChunkTool {
	return &StoreChunkTool{store: store, embedder: embedder}
}

// Definition returns the MCP tool definition for memory_store_chunk.
func (t *StoreChunkTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_store_chunk",
		mcp.WithDescription(
			"Remember a free-text fragment — a conversation excerpt or document passage — for "+
				"full-text retrieval later. Chunks are what BM25 search runs over.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The fragment text"),
		),
		mcp.WithString("source_type",
			mcp.Description("Where it came from, e.g. conversation, document, email (default: conversation)"),
		),
		mcp.WithString("source_ref",
			mcp.Description("Identifier of the source, e.g. a conversation id"),
		),
		mcp.WithString("when",
			mcp.Description("Timestamp of the fragment, ISO-8601 with offset"),
		),
		mcp.WithString("sensitivity",
			mcp.Description("personal (default), public, or secret. Secret chunks never surface in search."),
		),
	)
}

// Handle processes the memory_store_chunk tool call.
func (t *StoreChunkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}

	var vec []float32
	if t.embedder != nil {
		if v, err := t.embedder.Embed(ctx, text); err == nil {
			vec = v
		}
	}

	c, err := t.store.StoreChunk(ctx, memory.Chunk{
		SourceType:  req.GetString("source_type", ""),
		SourceRef:   optStr(req, "source_ref"),
		Text:        text,
		When:        optStr(req, "when"),
		Sensitivity: memory.ParseSensitivity(req.GetString("sensitivity", "")),
		Embedding:   vec,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store chunk: %v", err)), nil
	}

	note := ""
	if t.embedder != nil && len(c.Embedding) == 0 {
		note = " (embedding unavailable, stored without a vector)"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Chunk remembered (id: %s)%s", c.ID, note)), nil
}

// ─── SearchChunksTool ───────────────────────────────────────────────────────

// SearchChunksTool handles the memory_search_chunks MCP tool.
type SearchChunksTool struct {
	store *memory.Store
}

// NewSearchChunksTool creates a SearchChunksTool.
func NewSearchChunksTool(store *memory.Store) *SearchChunksTool {
	return &SearchChunksTool{store: store}
}

// Definition returns the MCP tool definition for memory_search_chunks.
func (t *SearchChunksTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_search_chunks",
		mcp.WithDescription(
			"Full-text search over remembered fragments, BM25-ranked. Scores are normalized to "+
				"[0,1] within the result batch; the best match always scores 1.0.",
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

// Handle processes the memory_search_chunks tool call.
func (t *SearchChunksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}

	matches, err := t.store.SearchChunks(ctx, query, intArg(req, "max", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No fragments match that query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d fragments:\n\n", len(matches))
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] (%.2f) %s\n    id: %s | source: %s\n",
			i+1, m.Score, memory.Truncate(m.Text, 300), m.ID, m.SourceType)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ListChunksTool ─────────────────────────────────────────────────────────

// ListChunksTool handles the memory_list_chunks MCP tool.
type ListChunksTool struct {
	store *memory.Store
}

// NewListChunksTool creates a ListChunksTool.
func NewListChunksTool(store *memory.Store) *ListChunksTool {
	return &ListChunksTool{store: store}
}

// Definition returns the MCP tool definition for memory_list_chunks.
func (t *ListChunksTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_list_chunks",
		mcp.WithDescription(
			"List remembered fragments with an optional substring filter and pagination.",
		),
		mcp.WithString("filter",
			mcp.Description("Case-insensitive substring over the fragment text"),
		),
		mcp.WithNumber("skip",
			mcp.Description("Rows to skip (default 0)"),
		),
		mcp.WithNumber("take",
			mcp.Description("Rows to return (default 20)"),
		),
	)
}

// Handle processes the memory_list_chunks tool call.
func (t *ListChunksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := t.store.ListChunks(ctx,
		req.GetString("filter", ""), intArg(req, "skip", 0), intArg(req, "take", 20))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if total == 0 {
		return mcp.NewToolResultText("No fragments stored."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fragments (%d total):\n\n", total)
	for _, c := range items {
		fmt.Fprintf(&b, "- [%s] %s (id: %s)\n",
			c.SourceType, memory.Truncate(c.Text, 120), c.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── DeleteChunkTool ────────────────────────────────────────────────────────

// DeleteChunkTool handles the memory_delete_chunk MCP tool.
type DeleteChunkTool struct {
	store *memory.Store
}

// NewDeleteChunkTool creates a DeleteChunkTool.
func NewDeleteChunkTool(store *memory.Store) *DeleteChunkTool {
	return &DeleteChunkTool{store: store}
}

// Definition returns the MCP tool definition for memory_delete_chunk.
func (t *DeleteChunkTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_delete_chunk",
		mcp.WithDescription("Forget a fragment by id (soft-delete, removed from the full-text index)."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Fragment id to forget"),
		),
	)
}

// Handle processes the memory_delete_chunk tool call.
func (t *DeleteChunkTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if err := t.store.DeleteChunk(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete chunk: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Fragment %s forgotten", id)), nil
}
