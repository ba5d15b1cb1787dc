// Package memtools provides the MCP tool handlers for the memory engine.
//
// Each handler follows the same pattern:
// - A struct with its dependencies (memory.Store at minimum) injected
//   via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Handlers are thin adapters: validation and formatting live here, all
// retrieval and conflict logic lives in internal/memory. Engine errors
// become tool result errors, never Go errors — the Go error return is
// reserved for transport failures.
package memtools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// floatArg extracts a float argument from a tool request.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

// optStr returns a pointer to the named string argument, or nil when it
// is absent or empty. Optional text columns store NULL, not "".
func optStr(req mcp.CallToolRequest, key string) *string {
	v := req.GetString(key, "")
	if v == "" {
		return nil
	}
	return &v
}
