// Package mcp implements the Model Context Protocol (MCP) server for
// CodeScout.
//
// The MCP server exposes four tools to AI coding assistants:
//   - register_project: Index a source tree and register it for search
//   - set_active_project: Select which registered project search targets
//   - list_projects: List registered projects and their index summaries
//   - search_code: Search the active project with natural language queries
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server reads protocol messages from stdin and writes responses to
// stdout, so all logging goes to stderr.
//
// # Basic Usage
//
// The MCP server is started via the serve command:
//
//	codescout serve
//
// # Tool: register_project
//
// Index a source tree and make it searchable:
//
//	Request:
//	{
//	  "name": "register_project",
//	  "arguments": {"path": "/path/to/project"}
//	}
//
// The response carries the run summary: files scanned and skipped, chunks
// created, unchanged, and deleted. Registering the same path again
// re-indexes incrementally; unchanged chunks are never re-embedded.
//
// # Tool: search_code
//
// Search the active project:
//
//	Request:
//	{
//	  "name": "search_code",
//	  "arguments": {"query": "where are embeddings cached", "limit": 10}
//	}
//
// Results are ranked by cosine similarity, best first. Pass "project" to
// search a specific registered project without changing the active
// selection.
//
// # Error Codes
//
// Tool failures use JSON-RPC error codes: -32602 invalid params, -32001
// unknown project, -32002 indexing already in progress, -32003 no active
// project, -32004 empty query, -32005 embedding failure, -32006 store
// unavailable.
package mcp
