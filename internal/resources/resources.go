// Package resources implements the MCP resource handlers for the memory
// server.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (memory://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mnemolab/mnemo/internal/memory"
)

// Handler manages the memory resource endpoints.
type Handler struct {
	store *memory.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *memory.Store) *Handler {
	return &Handler{store: store}
}

// ProfileResource returns the MCP resource definition for the user card.
func (h *Handler) ProfileResource() mcp.Resource {
	return mcp.NewResource(
		"memory://profile/user",
		"User Profile",
		mcp.WithResourceDescription("The active user profile card as JSON"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProfile returns the active user card as JSON.
func (h *Handler) HandleProfile(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	card, err := h.store.UserProfile(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if card == nil {
		return errorResource(req.Params.URI, "no user profile card exists yet"), nil
	}

	data, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling profile: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// StatsResource returns the MCP resource definition for store counters.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		"memory://stats",
		"Memory Statistics",
		mcp.WithResourceDescription("Live entity counts, fact subjects, and nugget tag coverage"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the store counters as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.store.Stats(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling stats: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
