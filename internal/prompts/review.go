package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the memory-review MCP prompt. It walks the
// stored facts with the user to catch stale or wrong claims.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("memory-review",
		mcp.WithPromptDescription(
			"Review stored memories with the user: list facts, flag likely-stale ones, "+
				"and forget or correct what the user says is wrong.",
		),
		mcp.WithArgument("filter",
			mcp.ArgumentDescription("Optional substring to narrow the review, e.g. a subject or topic"),
		),
	)
}

// Handle processes the memory-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	filter := ""
	if args := req.Params.Arguments; args != nil {
		filter = args["filter"]
	}

	instructions := "Let's review what you remember about me.\n\n" +
		"Please:\n" +
		"1. Run `memory_list_facts`"
	if filter != "" {
		instructions += " with filter='" + filter + "'"
	}
	instructions += " and show me the facts in plain language, grouped by subject\n" +
		"2. Point out anything that looks stale or contradictory (old jobs, past addresses, superseded preferences)\n" +
		"3. For each fact I say is wrong, run `memory_delete_fact` with its id\n" +
		"4. For each correction I give, run `memory_store_fact` — the engine handles the replacement\n" +
		"5. Finish with `memory_stats` so I can see the state of my memory"

	return &mcp.GetPromptResult{
		Description: "Review and clean up stored memories",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(instructions),
			},
		},
	}, nil
}
