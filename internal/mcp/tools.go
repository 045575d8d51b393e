package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docsmithlabs/docsmith/internal/sections"
	"github.com/docsmithlabs/docsmith/internal/service"
	"github.com/docsmithlabs/docsmith/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeMaterialization  = -32001 // Source could not be materialized
	ErrorCodeUnknownSession   = -32002 // Session id does not resolve
	ErrorCodeMissingSelection = -32003 // A selected path is not present in the session
	ErrorCodeBadPattern       = -32004 // Malformed glob pattern
	ErrorCodeGeneration       = -32005 // Section generation failed
)

// handlePrepareSource handles the prepare_source tool invocation
func (s *Server) handlePrepareSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Input    types.Input `json:"input"`
		Include  []string    `json:"include"`
		Exclude  []string    `json:"exclude"`
		MaxFiles int         `json:"max_files"`
		MaxBytes int64       `json:"max_bytes"`
	}
	if err := decodeArguments(request, &params); err != nil {
		return nil, err
	}

	result, err := s.service.Prepare(ctx, service.PrepareRequest{
		Input:    params.Input,
		Include:  params.Include,
		Exclude:  params.Exclude,
		MaxFiles: params.MaxFiles,
		MaxBytes: params.MaxBytes,
	})
	if err != nil {
		return nil, mapError(err)
	}

	files := make([]map[string]interface{}, len(result.Files))
	for i, f := range result.Files {
		files[i] = map[string]interface{}{
			"path":    f.Path,
			"size":    f.Size,
			"preview": f.Preview,
		}
	}

	response := map[string]interface{}{
		"session_id":  result.SessionID,
		"file_count":  result.FileCount,
		"total_bytes": result.TotalBytes,
		"files":       files,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSummarizeSource handles the summarize_source tool invocation
func (s *Server) handleSummarizeSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		SessionID     string              `json:"session_id"`
		SelectedPaths []string            `json:"selected_paths"`
		Sections      []types.SectionSpec `json:"sections"`
		Constraints   types.Constraints   `json:"constraints"`
		Cleanup       bool                `json:"cleanup"`
	}
	if err := decodeArguments(request, &params); err != nil {
		return nil, err
	}

	result, err := s.service.Summarize(ctx, service.SummarizeRequest{
		SessionID:   params.SessionID,
		Selected:    params.SelectedPaths,
		Sections:    params.Sections,
		Constraints: params.Constraints,
		Cleanup:     params.Cleanup,
	})
	if err != nil {
		return nil, mapError(err)
	}

	response := map[string]interface{}{
		"sections": result.Sections,
		"provider": result.Provider,
		"model":    result.Model,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetSession handles the get_session tool invocation
func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := sessionIDArgument(request)
	if err != nil {
		return nil, err
	}

	root, err := s.service.Resolve(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	response := map[string]interface{}{
		"session_id": id,
		"root":       root,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCleanupSession handles the cleanup_session tool invocation
func (s *Server) handleCleanupSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := sessionIDArgument(request)
	if err != nil {
		return nil, err
	}

	if err := s.service.Cleanup(ctx, id); err != nil {
		return nil, mapError(err)
	}

	response := map[string]interface{}{
		"session_id": id,
		"removed":    true,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// decodeArguments round-trips the loosely typed argument map through JSON
// into a typed parameter struct.
func decodeArguments(request mcp.CallToolRequest, out interface{}) error {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return newMCPError(ErrorCodeInvalidParams, "invalid arguments", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return newMCPError(ErrorCodeInvalidParams, "invalid arguments", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return nil
}

func sessionIDArgument(request mcp.CallToolRequest) (string, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	id, ok := args["session_id"].(string)
	if !ok || id == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "session_id parameter is required", map[string]interface{}{
			"param":  "session_id",
			"reason": "missing or empty",
		})
	}
	return id, nil
}

// mapError translates pipeline errors into MCP protocol errors
func mapError(err error) error {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	case errors.Is(err, types.ErrBadPattern):
		return newMCPError(ErrorCodeBadPattern, err.Error(), nil)
	case errors.Is(err, types.ErrMaterialization):
		return newMCPError(ErrorCodeMaterialization, err.Error(), nil)
	case errors.Is(err, types.ErrUnknownSession):
		return newMCPError(ErrorCodeUnknownSession, err.Error(), nil)
	case errors.Is(err, types.ErrMissingSelection):
		return newMCPError(ErrorCodeMissingSelection, err.Error(), nil)
	case errors.Is(err, sections.ErrProviderFailed),
		errors.Is(err, sections.ErrNoProviderEnabled):
		return newMCPError(ErrorCodeGeneration, err.Error(), nil)
	default:
		return newMCPError(ErrorCodeInternalError, "internal error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}
