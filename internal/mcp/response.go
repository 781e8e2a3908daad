package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchResult is one ranked hit in a search response.
type SearchResult struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Line   int    `json:"line,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Score  int    `json:"score"`
	Detail string `json:"detail,omitempty"`
}

// SearchResponse is the search tool payload.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Partial bool           `json:"partial,omitempty"`
	// Related holds near-miss symbol names when the query matched nothing.
	Related  []string `json:"related,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// CompletionItem is one mention-completion candidate on the wire.
type CompletionItem struct {
	Label      string `json:"label"`
	Kind       string `json:"kind,omitempty"`
	InsertText string `json:"insert_text"`
	Detail     string `json:"detail,omitempty"`
}

// CompletionsResponse is the completions tool payload.
type CompletionsResponse struct {
	Mode     string           `json:"mode"` // "file", "symbol", or "idle"
	Items    []CompletionItem `json:"items"`
	Count    int              `json:"count"`
	Warnings []string         `json:"warnings,omitempty"`
}

// ContextFileInfo is one selected file in a context response.
type ContextFileInfo struct {
	Path   string `json:"path"`
	Score  int    `json:"score,omitempty"`
	Tokens int    `json:"tokens"`
}

// ContextResponse is the context tool payload.
type ContextResponse struct {
	Files       []ContextFileInfo `json:"files"`
	Text        string            `json:"text"`
	TotalTokens int               `json:"total_tokens"`
	Budget      int               `json:"budget"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// ProgressInfo mirrors the orchestrator progress counters.
type ProgressInfo struct {
	TotalFiles     int `json:"total_files"`
	ProcessedFiles int `json:"processed_files"`
	SymbolCount    int `json:"symbol_count"`
	Failed         int `json:"failed,omitempty"`
}

// IndexCounts mirrors the store table sizes.
type IndexCounts struct {
	Files   int `json:"files"`
	Symbols int `json:"symbols"`
	Imports int `json:"imports"`
}

// WatcherInfo reports file-watcher activity when the watcher is running.
type WatcherInfo struct {
	WatchedDirs int   `json:"watched_dirs"`
	EventsSeen  int64 `json:"events_seen"`
	Batches     int64 `json:"batches"`
	Errors      int64 `json:"errors,omitempty"`
}

// StatusResponse is the status tool payload.
type StatusResponse struct {
	State    string       `json:"state"`
	Progress ProgressInfo `json:"progress"`
	Index    IndexCounts  `json:"index"`
	Watcher  *WatcherInfo `json:"watcher,omitempty"`
}

// createJSONResponse marshals data as compact JSON into a text result.
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse reports a tool failure inside the result object.
// Per the MCP specification tool errors set IsError on the result rather
// than becoming protocol-level errors; a protocol error would hide the
// failure from the model and block self-correction.
func createErrorResponse(operation string, err error, suggestions ...string) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}
	if len(suggestions) > 0 {
		errorData["suggestions"] = suggestions
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}

// warningStrings renders unknown-field warnings for a response.
func warningStrings(fields []UnknownField) []string {
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = fmt.Sprintf("unknown parameter %q ignored", f.Name)
	}
	return out
}
