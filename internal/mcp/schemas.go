package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// registerProjectTool returns the tool definition for register_project
func registerProjectTool() mcp.Tool {
	return mcp.Tool{
		Name:        "register_project",
		Description: "Index a source tree and register it as a searchable project. Re-registering an existing project re-indexes it incrementally.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the project root directory",
				},
			},
			Required: []string{"path"},
		},
	}
}

// setActiveProjectTool returns the tool definition for set_active_project
func setActiveProjectTool() mcp.Tool {
	return mcp.Tool{
		Name:        "set_active_project",
		Description: "Select a previously registered project as the target for search_code",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of a registered project",
				},
			},
			Required: []string{"path"},
		},
	}
}

// listProjectsTool returns the tool definition for list_projects
func listProjectsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_projects",
		Description: "List all registered projects with their last indexing summaries",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search the active project's indexed code with a natural language query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"project": map[string]interface{}{
					"type":        "string",
					"description": "Registered project path to search instead of the active project",
				},
			},
			Required: []string{"query"},
		},
	}
}
