package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// prepareSourceTool returns the tool definition for prepare_source
func prepareSourceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "prepare_source",
		Description: "Materialize a source input (git repo, zip archive, or snippet) and index its files into a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"input": map[string]interface{}{
					"type":        "object",
					"description": "Tagged source input",
					"properties": map[string]interface{}{
						"kind": map[string]interface{}{
							"type":        "string",
							"description": "Input kind",
							"enum":        []string{"repo", "remote_zip", "local_zip", "snippet"},
						},
						"url": map[string]interface{}{
							"type":        "string",
							"description": "Repository or archive URL (repo, remote_zip)",
						},
						"ref": map[string]interface{}{
							"type":        "string",
							"description": "Branch or tag to clone (repo). Defaults to main",
						},
						"subdir": map[string]interface{}{
							"type":        "string",
							"description": "Subdirectory within the repo to use as the root (repo)",
						},
						"local_path": map[string]interface{}{
							"type":        "string",
							"description": "Path to a zip archive on disk (local_zip)",
						},
						"text": map[string]interface{}{
							"type":        "string",
							"description": "Inline source text (snippet)",
						},
					},
					"required": []string{"kind"},
				},
				"include": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns selecting files to index. Defaults to common source extensions",
					"items":       map[string]interface{}{"type": "string"},
				},
				"exclude": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns excluding files. Exclude wins over include",
					"items":       map[string]interface{}{"type": "string"},
				},
				"max_files": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of files to index",
					"default":     500,
				},
				"max_bytes": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum cumulative file size in bytes",
					"default":     20000000,
				},
			},
			Required: []string{"input"},
		},
	}
}

// summarizeSourceTool returns the tool definition for summarize_source
func summarizeSourceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "summarize_source",
		Description: "Generate documentation sections from files selected out of a prepared session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id returned by prepare_source",
				},
				"selected_paths": map[string]interface{}{
					"type":        "array",
					"description": "Relative paths (from the session index) to include in the bundle",
					"items":       map[string]interface{}{"type": "string"},
				},
				"sections": map[string]interface{}{
					"type":        "array",
					"description": "Requested output sections",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"id": map[string]interface{}{
								"type":        "string",
								"description": "Output key for this section",
							},
							"label": map[string]interface{}{
								"type":        "string",
								"description": "Human-readable label shown to the model",
							},
							"type": map[string]interface{}{
								"type":        "string",
								"description": "Section shape",
								"enum":        []string{"short_text", "markdown", "list"},
								"default":     "markdown",
							},
							"max_chars": map[string]interface{}{
								"type":        "integer",
								"description": "Character cap for short_text sections",
							},
							"item_type": map[string]interface{}{
								"type":        "string",
								"description": "Item kind hint for list sections",
							},
							"prompt_hint": map[string]interface{}{
								"type":        "string",
								"description": "Extra guidance passed to the model for this section",
							},
						},
						"required": []string{"id"},
					},
				},
				"constraints": map[string]interface{}{
					"type":        "object",
					"description": "Style constraints",
					"properties": map[string]interface{}{
						"audience":      map[string]interface{}{"type": "string"},
						"tone":          map[string]interface{}{"type": "string"},
						"reading_level": map[string]interface{}{"type": "string"},
						"max_tokens":    map[string]interface{}{"type": "integer"},
					},
				},
				"cleanup": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, destroy the session after a successful generation",
					"default":     false,
				},
			},
			Required: []string{"session_id", "selected_paths", "sections"},
		},
	}
}

// getSessionTool returns the tool definition for get_session
func getSessionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_session",
		Description: "Look up a prepared session and report its materialized root",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id returned by prepare_source",
				},
			},
			Required: []string{"session_id"},
		},
	}
}

// cleanupSessionTool returns the tool definition for cleanup_session
func cleanupSessionTool() mcp.Tool {
	return mcp.Tool{
		Name:        "cleanup_session",
		Description: "Remove a session record and its materialized files",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id returned by prepare_source",
				},
			},
			Required: []string{"session_id"},
		},
	}
}
