package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxmatrix/internal/matrix"
)

// StringArg returns args[name] trimmed, or "" when missing or not a string.
func StringArg(args map[string]any, name string) string {
	if v, ok := args[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// RequiredStringArg is StringArg that fails on empty values.
func RequiredStringArg(args map[string]any, name string) (string, error) {
	v := StringArg(args, name)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// QuadrantArg parses args[name] as a quadrant number. MCP clients send
// numbers as float64 and sometimes as strings; both are accepted.
func QuadrantArg(args map[string]any, name string) (matrix.Quadrant, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s is required", name)
	}
	q, err := matrix.ParseQuadrant(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be 1, 2, 3 or 4: %w", name, err)
	}
	return q, nil
}

// IntArg returns args[name] as an int, or def when missing or not a number.
func IntArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return def
	}
}

// BoolArg returns args[name], or def when missing or not a bool.
func BoolArg(args map[string]any, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}

// JSONResult encodes v as an indented JSON text result.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// TargetFromArgs extracts the quadrant and item ids a call addresses, for
// audit logging. Invalid values are ignored.
func TargetFromArgs(args map[string]any) (int, []string) {
	quadrant := 0
	for _, name := range []string{"quadrant", "to_quadrant"} {
		if v, ok := args[name]; ok {
			if q, err := matrix.ParseQuadrant(v); err == nil {
				quadrant = int(q)
				break
			}
		}
	}

	var ids []string
	for _, name := range []string{"id", "ids", "message_id", "message_ids"} {
		switch v := args[name].(type) {
		case string:
			if v != "" {
				ids = append(ids, v)
			}
		case []any:
			for _, e := range v {
				if s, ok := e.(string); ok && s != "" {
					ids = append(ids, s)
				}
			}
		}
	}
	return quadrant, ids
}
