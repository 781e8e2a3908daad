package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/wci/internal/config"
	"github.com/standardbeagle/wci/internal/types"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

// newTestServer indexes a small TypeScript workspace and returns a
// server ready for direct handler calls, no transport involved.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	writeTestFile(t, root, "src/db.ts",
		"export class Database {\n  find(id: string) {\n    return null;\n  }\n}\n")
	writeTestFile(t, root, "src/user_service.ts",
		"import { Database } from './db';\n\nexport class UserService {\n  constructor(private db: Database) {}\n}\n\nexport function createUserService(db: Database): UserService {\n  return new UserService(db);\n}\n")
	writeTestFile(t, root, "src/app.ts",
		"import { createUserService } from './user_service';\n\nexport function main(): void {\n  createUserService(null);\n}\n")

	cfg := config.Default()
	cfg.Project.Root = root

	s, err := NewServer(cfg, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	_, err = s.orch.RebuildAll(context.Background())
	require.NoError(t, err)
	return s
}

func toolArgs(args string) *mcp.CallToolRequest {
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: []byte(args)}}
}

func decodeInto(t *testing.T, res *mcp.CallToolResult, out interface{}) {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	require.NoError(t, json.Unmarshal([]byte(text.Text), out))
}

func TestHandleSearchFindsFileByFuzzyName(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearch(context.Background(), toolArgs(`{"pattern": "userserv"}`))
	require.NoError(t, err)

	var resp SearchResponse
	decodeInto(t, res, &resp)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "src/user_service.ts", resp.Results[0].Path)
	assert.Empty(t, resp.Results[0].Kind, "file results carry no symbol kind")
	assert.False(t, resp.Partial)
}

func TestHandleSearchSymbolsWithKindFilter(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearch(context.Background(),
		toolArgs(`{"pattern": "user", "mode": "symbol", "kinds": "class"}`))
	require.NoError(t, err)

	var resp SearchResponse
	decodeInto(t, res, &resp)
	require.NotEmpty(t, resp.Results)
	names := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		assert.Equal(t, "class", r.Kind)
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "UserService")
	assert.NotContains(t, names, "createUserService")
}

func TestHandleSearchKindPrefixResolvesWithWarning(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearch(context.Background(),
		toolArgs(`{"pattern": "service", "mode": "symbol", "kinds": "funct"}`))
	require.NoError(t, err)

	var resp SearchResponse
	decodeInto(t, res, &resp)
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.Equal(t, "function", r.Kind)
	}
	assert.Contains(t, strings.Join(resp.Warnings, " "), "interpreted as")
}

func TestHandleSearchKindsIgnoredInFileMode(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearch(context.Background(),
		toolArgs(`{"pattern": "user", "kinds": "class"}`))
	require.NoError(t, err)

	var resp SearchResponse
	decodeInto(t, res, &resp)
	require.NotEmpty(t, resp.Results)
	assert.Contains(t, strings.Join(resp.Warnings, " "), "symbol mode only")
}

func TestHandleSearchLegacyAliasesEndToEnd(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearch(context.Background(),
		toolArgs(`{"query": "ts", "max_results": 1}`))
	require.NoError(t, err)

	var resp SearchResponse
	decodeInto(t, res, &resp)
	assert.Len(t, resp.Results, 1)
	assert.Empty(t, resp.Warnings, "recognized aliases are not warnings")
}

func TestHandleSearchUnknownParameterWarns(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearch(context.Background(),
		toolArgs(`{"pattern": "user", "bogus": true}`))
	require.NoError(t, err)

	var resp SearchResponse
	decodeInto(t, res, &resp)
	assert.Contains(t, strings.Join(resp.Warnings, " "), `"bogus"`)
}

func TestHandleSearchMissingPatternIsError(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearch(context.Background(), toolArgs(`{}`))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)

	var resp map[string]interface{}
	decodeInto(t, res, &resp)
	assert.Equal(t, false, resp["success"])
	assert.Contains(t, resp["error"], "pattern")
}

func TestHandleSearchUnknownModeIsError(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearch(context.Background(),
		toolArgs(`{"pattern": "x", "mode": "regex"}`))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)
}

func TestHandleSearchZeroSymbolResultsSuggestRelated(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearch(context.Background(),
		toolArgs(`{"pattern": "UserServices", "mode": "symbol"}`))
	require.NoError(t, err)

	var resp SearchResponse
	decodeInto(t, res, &resp)
	assert.Empty(t, resp.Results)
	assert.Contains(t, resp.Related, "UserService")
}

func TestHandleCompletionsFileMention(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleCompletions(context.Background(),
		toolArgs(`{"text": "look at @src/us"}`))
	require.NoError(t, err)

	var resp CompletionsResponse
	decodeInto(t, res, &resp)
	assert.Equal(t, "file", resp.Mode)
	require.NotEmpty(t, resp.Items)
	assert.Equal(t, "@src/user_service.ts", resp.Items[0].InsertText)
	assert.Equal(t, "src/user_service.ts", resp.Items[0].Detail)
	assert.Equal(t, len(resp.Items), resp.Count)
}

func TestHandleCompletionsSymbolMention(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleCompletions(context.Background(),
		toolArgs(`{"text": "see @#User"}`))
	require.NoError(t, err)

	var resp CompletionsResponse
	decodeInto(t, res, &resp)
	assert.Equal(t, "symbol", resp.Mode)
	require.NotEmpty(t, resp.Items)
	assert.Equal(t, "UserService", resp.Items[0].Label)
	assert.Equal(t, "@#UserService", resp.Items[0].InsertText)
	assert.Contains(t, resp.Items[0].Detail, "src/user_service.ts:")
}

func TestHandleCompletionsLegacyCursorAlias(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleCompletions(context.Background(),
		toolArgs(`{"input": "@db stuff", "position": 3}`))
	require.NoError(t, err)

	var resp CompletionsResponse
	decodeInto(t, res, &resp)
	assert.Equal(t, "file", resp.Mode)
	require.NotEmpty(t, resp.Items)
	assert.Equal(t, "@src/db.ts", resp.Items[0].InsertText)
}

func TestHandleCompletionsIdleWithoutMention(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleCompletions(context.Background(),
		toolArgs(`{"text": "no mention here"}`))
	require.NoError(t, err)

	var resp CompletionsResponse
	decodeInto(t, res, &resp)
	assert.Equal(t, "idle", resp.Mode)
	assert.Zero(t, resp.Count)
}

func TestHandleContextMentionRendersFirst(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleContext(context.Background(),
		toolArgs(`{"current_file": "src/app.ts", "mentions": [{"path": "src/user_service.ts"}], "token_budget": 500}`))
	require.NoError(t, err)

	var resp ContextResponse
	decodeInto(t, res, &resp)
	require.NotEmpty(t, resp.Files)
	assert.Equal(t, "src/user_service.ts", resp.Files[0].Path)
	assert.Contains(t, resp.Text, "class UserService")
	assert.Equal(t, 500, resp.Budget)
	assert.Positive(t, resp.TotalTokens)
	assert.LessOrEqual(t, resp.TotalTokens, resp.Budget)
}

func TestHandleContextRanksCurrentFileFirst(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleContext(context.Background(),
		toolArgs(`{"current_file": "src/app.ts"}`))
	require.NoError(t, err)

	var resp ContextResponse
	decodeInto(t, res, &resp)
	assert.Equal(t, types.DefaultContextTokenBudget, resp.Budget)
	require.Len(t, resp.Files, 3)
	assert.Equal(t, "src/app.ts", resp.Files[0].Path)
	assert.Equal(t, "src/user_service.ts", resp.Files[1].Path, "direct import outranks siblings")
	assert.Equal(t, "src/db.ts", resp.Files[2].Path)
	assert.Contains(t, resp.Text, "=== File: src/app.ts ===")
}

func TestHandleContextUnindexedCurrentFileWarns(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleContext(context.Background(),
		toolArgs(`{"current_file": "src/nope.ts"}`))
	require.NoError(t, err)

	var resp ContextResponse
	decodeInto(t, res, &resp)
	assert.Contains(t, strings.Join(resp.Warnings, " "), "not indexed")
}

func TestHandleStatusReportsReadyIndex(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleStatus(context.Background(), toolArgs(`{}`))
	require.NoError(t, err)

	var resp StatusResponse
	decodeInto(t, res, &resp)
	assert.Equal(t, "ready", resp.State)
	assert.Equal(t, 3, resp.Index.Files)
	assert.Positive(t, resp.Index.Symbols)
	assert.Equal(t, 3, resp.Progress.ProcessedFiles)
	assert.Zero(t, resp.Progress.Failed)
	assert.Nil(t, resp.Watcher, "watcher stats only appear once watching starts")
}

func TestHandleInfoOverviewListsTools(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleInfo(context.Background(), toolArgs(`{}`))
	require.NoError(t, err)

	var resp map[string]interface{}
	decodeInto(t, res, &resp)
	tools, ok := resp["tools"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, tools, "search")
	assert.Contains(t, tools, "context")
}

func TestHandleInfoVersion(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleInfo(context.Background(), toolArgs(`{"tool": "version"}`))
	require.NoError(t, err)

	var resp map[string]interface{}
	decodeInto(t, res, &resp)
	assert.Contains(t, resp["server_version"], "Workspace Code Index")
	assert.NotEmpty(t, resp["go_version"])
	assert.NotEmpty(t, resp["capabilities"])
}

func TestHandleInfoUnknownToolIsError(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleInfo(context.Background(), toolArgs(`{"tool": "frobnicate"}`))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)
}

func TestGuardTurnsPanicIntoErrorResponse(t *testing.T) {
	s := newTestServer(t)

	res, err := s.guard("boom", func() (*mcp.CallToolResult, error) {
		panic("kaput")
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)

	var resp map[string]interface{}
	decodeInto(t, res, &resp)
	assert.Contains(t, resp["error"], "internal error")
}
