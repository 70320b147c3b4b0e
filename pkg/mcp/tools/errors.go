package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// This is used to return actionable error information to the client
// as a successful tool result, ensuring error details are visible
// rather than being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable errors the caller can fix (invalid parameters,
// unknown ids). Store failures should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
//
// Example:
//
//	return NewErrorResultWithDetails(
//	    "validation_error",
//	    "probability must be between 0 and 100",
//	    map[string]any{"field": "probability"},
//	), nil
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// serviceErrorResult converts an error the caller can act on into a tool
// error result. It returns nil for anything else; the caller then returns
// the error itself.
func serviceErrorResult(err error, entity string) *mcp.CallToolResult {
	var valErr *apperrors.ValidationError
	if errors.As(err, &valErr) {
		return NewErrorResultWithDetails("validation_error", valErr.Message,
			map[string]any{"field": valErr.Field})
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult(entity+"_not_found", entity+" not found")
	case errors.Is(err, apperrors.ErrConflict):
		return NewErrorResult("conflict", "a referenced record does not exist or was changed")
	}
	return nil
}
