// Package prompts implements the MCP prompt handlers for the memory
// server.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

// GreetingPrompt handles the memory-greeting MCP prompt. It instructs
// the host to open the session with what the memory already knows.
type GreetingPrompt struct{}

// NewGreetingPrompt creates a GreetingPrompt.
func NewGreetingPrompt() *GreetingPrompt {
	return &GreetingPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *GreetingPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("memory-greeting",
		mcp.WithPromptDescription(
			"Open a session using persistent memory: fetch the user's profile card and the "+
				"top greeting nuggets, then greet the user with that context.",
		),
		mcp.WithArgument("max_nuggets",
			mcp.ArgumentDescription("How many nuggets to surface (default 2)"),
		),
	)
}

// Handle processes the memory-greeting prompt request.
func (p *GreetingPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	maxNuggets := 2
	if args := req.Params.Arguments; args != nil {
		if v, ok := args["max_nuggets"]; ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				maxNuggets = n
			}
		}
	}

	return &mcp.GetPromptResult{
		Description: "Open the session with remembered context",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Start this session using what you remember about me.\n\n"+
						"Please:\n"+
						"1. Run `memory_get_profile` to load my profile card\n"+
						"2. Run `memory_greeting_nuggets` with max=%d\n"+
						"3. Greet me naturally, weaving in my name and the nuggets — "+
						"don't recite them as a list\n"+
						"4. If no profile exists yet, just say hello and ask my name; "+
						"store it with `memory_store_fact` (subject 'user', predicate 'name_is') when I answer",
					maxNuggets,
				)),
			},
		},
	}, nil
}
