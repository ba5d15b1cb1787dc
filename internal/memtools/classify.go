package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemolab/mnemo/internal/triage"
)

// ClassifyTool handles the memory_classify MCP tool. It is stateless:
// classification runs over the text alone, nothing is stored.
type ClassifyTool struct {
	classifier *triage.Classifier
}

// NewClassifyTool creates a ClassifyTool.
func NewClassifyTool(classifier *triage.Classifier) *ClassifyTool {
	return &ClassifyTool{classifier: classifier}
}

// Definition returns the MCP tool definition for memory_classify.
func (t *ClassifyTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_classify",
		mcp.WithDescription(
			"Suggest a sensitivity tier for a piece of text before storing it. Detects credentials, "+
				"identifiers, and personal markers. Advisory only: you choose the final tier.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text to classify"),
		),
	)
}

// Handle processes the memory_classify tool call.
func (t *ClassifyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}

	sugg := t.classifier.Suggest(text)

	var b strings.Builder
	fmt.Fprintf(&b, "Suggested sensitivity: %s (confidence %d%%)\n", sugg.Level, sugg.Confidence)
	if len(sugg.Matched) > 0 {
		fmt.Fprintf(&b, "Signals: %s\n", strings.Join(sugg.Matched, ", "))
	} else {
		b.WriteString("No sensitive signals detected.\n")
	}
	fmt.Fprintf(&b, "Nugget tier equivalent: %s\n", triage.NuggetTier(sugg.Level))
	return mcp.NewToolResultText(b.String()), nil
}
