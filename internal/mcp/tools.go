package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codescout/codescout/internal/project"
	"github.com/codescout/codescout/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound    = -32001 // Path does not exist or is not a registered project
	ErrorCodeIndexingInProgress = -32002 // Another indexing run holds the collection
	ErrorCodeNoActiveProject    = -32003 // No project selected for search
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
	ErrorCodeEmbeddingFailed    = -32005 // Embedding provider failure
	ErrorCodeStoreUnavailable   = -32006 // Vector store unreachable
)

// handleRegisterProject handles the register_project tool invocation
func (s *Server) handleRegisterProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	p, err := s.svc.RegisterProject(ctx, path)
	if err != nil {
		return nil, mapServiceError(err, "register failed")
	}

	response := map[string]interface{}{
		"path":       p.Path,
		"name":       p.Name,
		"collection": p.CollectionID,
		"active":     true,
	}
	if sum := p.LastSummary; sum != nil {
		response["summary"] = summaryResponse(sum)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSetActiveProject handles the set_active_project tool invocation
func (s *Server) handleSetActiveProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	p, err := s.svc.SetActiveProject(ctx, path)
	if err != nil {
		return nil, mapServiceError(err, "set active failed")
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"path":       p.Path,
		"name":       p.Name,
		"collection": p.CollectionID,
		"active":     true,
	})), nil
}

// handleListProjects handles the list_projects tool invocation
func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := s.svc.ListProjects(ctx)
	if err != nil {
		return nil, mapServiceError(err, "list failed")
	}

	active := s.svc.ActiveProject()
	entries := make([]map[string]interface{}, 0, len(projects))
	for _, p := range projects {
		entries = append(entries, projectResponse(p, active != nil && active.Path == p.Path))
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"projects": entries,
		"count":    len(entries),
	})), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 0)
	if limit < 0 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	var results []types.Result
	var err error
	if projectPath := getStringDefault(args, "project", ""); projectPath != "" {
		results, err = s.svc.SearchProject(ctx, projectPath, query, limit)
	} else {
		results, err = s.svc.Search(ctx, query, limit)
	}
	if err != nil {
		return nil, mapServiceError(err, "search failed")
	}

	entries := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		entries = append(entries, map[string]interface{}{
			"rank":       r.Rank,
			"score":      r.Score,
			"file_path":  r.Chunk.FilePath,
			"language":   r.Chunk.Language,
			"start_line": r.Chunk.StartLine,
			"end_line":   r.Chunk.EndLine,
			"text":       r.Chunk.Text,
			"oversized":  r.Chunk.Oversized,
			"sources":    r.Sources,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"results": entries,
		"count":   len(entries),
	})), nil
}

// mapServiceError translates service sentinel errors to MCP error codes.
func mapServiceError(err error, message string) error {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrUnknownProject),
		errors.Is(err, types.ErrCollectionNotFound):
		code = ErrorCodeProjectNotFound
	case errors.Is(err, types.ErrIndexInProgress):
		code = ErrorCodeIndexingInProgress
	case errors.Is(err, types.ErrNoActiveProject):
		code = ErrorCodeNoActiveProject
	case errors.Is(err, types.ErrInvalidQuery):
		code = ErrorCodeEmptyQuery
	case errors.Is(err, types.ErrEmbedding):
		code = ErrorCodeEmbeddingFailed
	case errors.Is(err, types.ErrStoreConnection):
		code = ErrorCodeStoreUnavailable
	case errors.Is(err, types.ErrPermission):
		code = ErrorCodeInvalidParams
	}
	return newMCPError(code, message, map[string]interface{}{
		"error": err.Error(),
	})
}

func projectResponse(p *project.Project, active bool) map[string]interface{} {
	entry := map[string]interface{}{
		"path":       p.Path,
		"name":       p.Name,
		"collection": p.CollectionID,
		"active":     active,
	}
	if !p.LastIndexedAt.IsZero() {
		entry["last_indexed_at"] = p.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if p.LastSummary != nil {
		entry["summary"] = summaryResponse(p.LastSummary)
	}
	return entry
}

func summaryResponse(sum *types.IndexSummary) map[string]interface{} {
	response := map[string]interface{}{
		"run_id":           sum.RunID,
		"files_scanned":    sum.FilesScanned,
		"files_skipped":    sum.FilesSkipped,
		"chunks_created":   sum.ChunksCreated,
		"chunks_unchanged": sum.ChunksUnchanged,
		"chunks_deleted":   sum.ChunksDeleted,
		"chunks_skipped":   sum.ChunksSkipped,
		"duration_ms":      sum.Duration.Milliseconds(),
	}
	if len(sum.Errors) > 0 {
		errorCount := len(sum.Errors)
		if errorCount > 5 {
			response["errors"] = sum.Errors[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = sum.Errors
		}
	}
	return response
}

// Helper functions

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

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
