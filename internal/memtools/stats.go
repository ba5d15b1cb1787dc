package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemolab/mnemo/internal/memory"
)

// StatsTool handles the memory_stats MCP tool.
type StatsTool struct {
	store *memory.Store
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(store *memory.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for memory_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_stats",
		mcp.WithDescription(
			"Show what the memory holds: live counts per entity, the subjects facts cover, and the tags nuggets carry.",
		),
	)
}

// Handle processes the memory_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString("## Memory Statistics\n\n")
	fmt.Fprintf(&b, "- **Facts**: %d\n", stats.Facts)
	fmt.Fprintf(&b, "- **Events**: %d\n", stats.Events)
	fmt.Fprintf(&b, "- **Fragments**: %d\n", stats.Chunks)
	fmt.Fprintf(&b, "- **Nuggets**: %d\n", stats.Nuggets)
	fmt.Fprintf(&b, "- **Profiles**: %d\n", stats.Profiles)

	if len(stats.Subjects) > 0 {
		fmt.Fprintf(&b, "- **Subjects** (%d): %s\n", len(stats.Subjects), strings.Join(stats.Subjects, ", "))
	} else {
		b.WriteString("- **Subjects**: none\n")
	}
	if len(stats.NuggetTags) > 0 {
		fmt.Fprintf(&b, "- **Nugget tags** (%d): %s\n", len(stats.NuggetTags), strings.Join(stats.NuggetTags, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}
