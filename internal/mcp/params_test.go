package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchParamsLegacyAliases(t *testing.T) {
	var p SearchParams
	err := json.Unmarshal([]byte(`{"query": "user", "max_results": 5, "symbol_types": "func"}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "user", p.Pattern)
	assert.Equal(t, 5, p.Max)
	assert.Equal(t, "func", p.Kinds)
	assert.Empty(t, p.Warnings)
}

func TestSearchParamsCanonicalWinsOverAlias(t *testing.T) {
	var p SearchParams
	err := json.Unmarshal([]byte(`{"pattern": "keep", "query": "drop"}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "keep", p.Pattern)
}

func TestSearchParamsUnknownFieldBecomesWarning(t *testing.T) {
	var p SearchParams
	err := json.Unmarshal([]byte(`{"pattern": "user", "bogus": true, "limit": 3}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "user", p.Pattern)
	require.Len(t, p.Warnings, 2)
	names := []string{p.Warnings[0].Name, p.Warnings[1].Name}
	assert.Contains(t, names, "bogus")
	assert.Contains(t, names, "limit")
}

func TestSearchParamsMalformedJSON(t *testing.T) {
	var p SearchParams
	err := json.Unmarshal([]byte(`{"pattern": `), &p)
	assert.Error(t, err)
}

func TestCompletionParamsCursorDefaultsToSentinel(t *testing.T) {
	var p CompletionParams
	err := json.Unmarshal([]byte(`{"text": "see @src/app"}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "see @src/app", p.Text)
	assert.Equal(t, -1, p.Cursor, "absent cursor should mean end of text")
}

func TestCompletionParamsExplicitZeroCursorKept(t *testing.T) {
	var p CompletionParams
	err := json.Unmarshal([]byte(`{"text": "@abc", "cursor": 0}`), &p)
	require.NoError(t, err)

	assert.Equal(t, 0, p.Cursor)
}

func TestCompletionParamsLegacyAliases(t *testing.T) {
	var p CompletionParams
	err := json.Unmarshal([]byte(`{"input": "check @util", "position": 11}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "check @util", p.Text)
	assert.Equal(t, 11, p.Cursor)
}

func TestContextParamsLegacyAliases(t *testing.T) {
	var p ContextParams
	err := json.Unmarshal([]byte(`{"file": "src/app.ts", "recent": ["src/db.ts"], "budget": 900}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "src/app.ts", p.CurrentFile)
	assert.Equal(t, []string{"src/db.ts"}, p.RecentFiles)
	assert.Equal(t, 900, p.TokenBudget)
}

func TestContextParamsMentions(t *testing.T) {
	var p ContextParams
	err := json.Unmarshal([]byte(`{"mentions": [{"path": "src/user.ts", "name": "getUser", "line": 12}]}`), &p)
	require.NoError(t, err)

	require.Len(t, p.Mentions, 1)
	assert.Equal(t, "src/user.ts", p.Mentions[0].Path)
	assert.Equal(t, "getUser", p.Mentions[0].Name)
	assert.Equal(t, 12, p.Mentions[0].Line)
}

func TestInfoParamsUnknownFieldWarning(t *testing.T) {
	var p InfoParams
	err := json.Unmarshal([]byte(`{"tool": "search", "verbose": 1}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "search", p.Tool)
	require.Len(t, p.Warnings, 1)
	assert.Equal(t, "verbose", p.Warnings[0].Name)
}

func TestWarningStringsMentionFieldName(t *testing.T) {
	got := warningStrings([]UnknownField{{Name: "bogus", Value: true}})
	require.Len(t, got, 1)
	assert.Contains(t, got[0], `"bogus"`)
}
