package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/wci/internal/mention"
	"github.com/standardbeagle/wci/internal/relevance"
	"github.com/standardbeagle/wci/internal/search"
	"github.com/standardbeagle/wci/internal/types"
	"github.com/standardbeagle/wci/internal/version"
)

// suggestionSampleLimit bounds the distinct symbol names fed to the
// related-name suggester on a zero-result query.
const suggestionSampleLimit = 2000

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.guard("search", func() (*mcp.CallToolResult, error) {
		var params SearchParams
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
				return createErrorResponse("search", fmt.Errorf("invalid parameters: %w", err),
					`use {"pattern": "user", "mode": "symbol"}`)
			}
		}

		if strings.TrimSpace(params.Pattern) == "" {
			return createErrorResponse("search", errors.New("pattern is required"),
				`pass the text to match, e.g. {"pattern": "config"}`,
				"use 'info search' for the full parameter list")
		}

		var mode search.Mode
		switch strings.ToLower(strings.TrimSpace(params.Mode)) {
		case "", "file", "files":
			mode = search.ModeFile
		case "symbol", "symbols":
			mode = search.ModeSymbol
		default:
			return createErrorResponse("search", fmt.Errorf("unknown mode %q", params.Mode),
				"mode must be 'file' or 'symbol'")
		}

		warnings := warningStrings(params.Warnings)

		kindFilter, kindWarnings := s.kinds.ResolveAll(params.Kinds)
		warnings = append(warnings, kindWarnings...)
		if len(kindFilter) > 0 && mode == search.ModeFile {
			warnings = append(warnings, "kind filters apply to symbol mode only")
			kindFilter = nil
		}

		langFilter, langWarnings := parseLanguages(params.Languages)
		warnings = append(warnings, langWarnings...)

		opts := search.Options{
			MaxResults: params.Max,
			Kinds:      kindFilter,
			Languages:  langFilter,
		}

		var results []types.SearchResult
		var partial bool
		if mode == search.ModeSymbol {
			results, partial = s.engine.SearchSymbols(ctx, params.Pattern, opts)
		} else {
			results, partial = s.engine.SearchFiles(ctx, params.Pattern, opts)
		}

		resp := &SearchResponse{
			Results:  make([]SearchResult, len(results)),
			Total:    len(results),
			Partial:  partial,
			Warnings: warnings,
		}
		for i, r := range results {
			resp.Results[i] = SearchResult{
				Name:   r.Name,
				Path:   r.Path,
				Line:   r.Line,
				Kind:   kindString(r.Kind),
				Score:  r.Score,
				Detail: r.Detail,
			}
		}

		if len(results) == 0 && mode == search.ModeSymbol {
			resp.Related = s.related.Suggest(params.Pattern, s.symbolNameSample(), 5)
		}

		return createJSONResponse(resp)
	})
}

func (s *Server) handleCompletions(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.guard("completions", func() (*mcp.CallToolResult, error) {
		params := CompletionParams{Cursor: -1}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
				return createErrorResponse("completions", fmt.Errorf("invalid parameters: %w", err),
					`use {"text": "look at @src/ma", "cursor": 15}`)
			}
		}

		cursor := params.Cursor
		if cursor < 0 || cursor > len(params.Text) {
			cursor = len(params.Text)
		}

		// Sessions carry per-input dismissal state; a stateless tool call
		// gets a fresh one each time.
		sess := mention.NewSession(s.engine)
		items := sess.CompletionsFor(ctx, params.Text, cursor)

		resp := &CompletionsResponse{
			Mode:     sess.State().String(),
			Items:    make([]CompletionItem, len(items)),
			Count:    len(items),
			Warnings: warningStrings(params.Warnings),
		}
		for i, item := range items {
			resp.Items[i] = CompletionItem{
				Label:      item.Label,
				Kind:       kindString(item.Kind),
				InsertText: item.InsertText,
				Detail:     item.Detail,
			}
		}
		return createJSONResponse(resp)
	})
}

func (s *Server) handleContext(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.guard("context", func() (*mcp.CallToolResult, error) {
		var params ContextParams
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
				return createErrorResponse("context", fmt.Errorf("invalid parameters: %w", err),
					`use {"current_file": "src/app.ts", "token_budget": 2000}`)
			}
		}

		warnings := warningStrings(params.Warnings)
		if params.CurrentFile != "" {
			if _, ok := s.store.GetFile(params.CurrentFile); !ok {
				warnings = append(warnings, fmt.Sprintf("current_file %q is not indexed", params.CurrentFile))
			}
		}

		creq := relevance.Request{
			CurrentFile:    params.CurrentFile,
			RecentlyEdited: params.RecentFiles,
			TokenBudget:    params.TokenBudget,
		}
		for _, m := range params.Mentions {
			creq.Mentions = append(creq.Mentions, relevance.Mention{
				Path: m.Path,
				Name: m.Name,
				Line: m.Line,
			})
		}

		result := s.builder.BuildContext(creq)

		budget := params.TokenBudget
		if budget <= 0 {
			budget = types.DefaultContextTokenBudget
		}

		resp := &ContextResponse{
			Files:    make([]ContextFileInfo, len(result.Files)),
			Text:     result.RenderedText,
			Budget:   budget,
			Warnings: warnings,
		}
		for i, f := range result.Files {
			resp.Files[i] = ContextFileInfo{
				Path:   f.Path,
				Score:  f.Score,
				Tokens: f.TokenEstimate,
			}
			resp.TotalTokens += f.TokenEstimate
		}
		return createJSONResponse(resp)
	})
}

func (s *Server) handleStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.guard("status", func() (*mcp.CallToolResult, error) {
		snap := s.orch.Progress()
		stats := s.store.Stats()

		resp := &StatusResponse{
			State: s.orch.State().String(),
			Progress: ProgressInfo{
				TotalFiles:     snap.TotalFiles,
				ProcessedFiles: snap.ProcessedFiles,
				SymbolCount:    snap.SymbolCount,
				Failed:         snap.Failed,
			},
			Index: IndexCounts{
				Files:   stats.FileCount,
				Symbols: stats.SymbolCount,
				Imports: stats.ImportCount,
			},
		}

		if w := s.activeWatcher(); w != nil {
			ws := w.Stats()
			resp.Watcher = &WatcherInfo{
				WatchedDirs: ws.WatchedDirs,
				EventsSeen:  ws.EventsSeen,
				Batches:     ws.Batches,
				Errors:      ws.Errors,
			}
		}
		return createJSONResponse(resp)
	})
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.guard("info", func() (*mcp.CallToolResult, error) {
		var params InfoParams
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
				return createErrorResponse("info", fmt.Errorf("invalid parameters: %w", err),
					`use {"tool": "search"}`)
			}
		}

		switch strings.ToLower(strings.TrimSpace(params.Tool)) {
		case "", "overview":
			return createJSONResponse(map[string]interface{}{
				"name": "wci-mcp-server",
				"tools": map[string]string{
					"search":      "Fuzzy file and symbol search over the in-memory index",
					"completions": "@-mention completion for a chat input box",
					"context":     "Token-budgeted context packing for an AI prompt",
					"status":      "Index state, progress, and watcher activity",
					"info":        "This help - pass a tool name for details",
				},
				"note": "Unknown parameters never fail a call; they come back in the response warnings.",
			})

		case "search":
			return createJSONResponse(map[string]interface{}{
				"name":        "search",
				"description": "Fuzzy search over indexed files and symbols, ranked by match tier.",
				"parameters": map[string]string{
					"pattern":   "REQUIRED: text to match (legacy alias: query)",
					"mode":      "'file' (default) or 'symbol'",
					"max":       "result cap (default 50; legacy alias: max_results)",
					"kinds":     "symbol-kind filter, comma-separated; aliases like 'func' resolve with a warning (legacy alias: symbol_types)",
					"languages": "language filter: csharp, typescript, javascript, python, go",
				},
				"examples": []string{
					`{"pattern": "userserv"}`,
					`{"pattern": "handle", "mode": "symbol", "kinds": "function,method"}`,
					`{"pattern": "parse", "mode": "symbol", "languages": ["go"], "max": 10}`,
				},
				"zero_results": "Symbol queries that match nothing return a 'related' list of close names.",
			})

		case "completions":
			return createJSONResponse(map[string]interface{}{
				"name":        "completions",
				"description": "Completion candidates for the @-mention under the cursor. '@word' completes file names, '@#word' completes symbol names.",
				"parameters": map[string]string{
					"text":   "REQUIRED: full input text (legacy alias: input)",
					"cursor": "byte offset of the cursor, defaults to end of text (legacy alias: position)",
				},
				"examples": []string{
					`{"text": "fix the bug in @src/us"}`,
					`{"text": "where is @#getUser", "cursor": 18}`,
				},
			})

		case "context":
			return createJSONResponse(map[string]interface{}{
				"name":        "context",
				"description": "Selects and renders workspace files for an AI prompt within a token budget. Mentioned files render first, then files ranked by import distance, recency, and directory proximity.",
				"parameters": map[string]string{
					"current_file": "active file path (legacy alias: file)",
					"recent_files": "recently edited paths, most recent first (legacy alias: recent)",
					"token_budget": "budget for the rendered text, default 8000 (legacy alias: budget)",
					"mentions":     "committed @-mentions: [{\"path\": \"src/a.ts\", \"name\": \"render\"}]",
				},
			})

		case "status":
			return createJSONResponse(map[string]interface{}{
				"name":        "status",
				"description": "Index lifecycle state (not-started, scanning, indexing, ready, updating, cancelled), progress counters, table sizes, and watcher statistics.",
				"parameters":  map[string]string{},
			})

		case "version":
			return createJSONResponse(map[string]interface{}{
				"server_name":    "wci-mcp-server",
				"server_version": version.FullInfo(),
				"go_version":     runtime.Version(),
				"platform":       runtime.GOOS + "/" + runtime.GOARCH,
				"capabilities": []string{
					"stdio_transport",
					"fuzzy_file_search",
					"fuzzy_symbol_search",
					"mention_completion",
					"context_packing",
					"incremental_watch",
				},
			})

		case "info":
			return createJSONResponse(map[string]interface{}{
				"name":        "info",
				"description": "Describes a tool. Without arguments, lists every tool.",
				"parameters":  map[string]string{"tool": "tool name or 'version'"},
			})

		default:
			return createErrorResponse("info", fmt.Errorf("unknown tool %q", params.Tool),
				"valid names: search, completions, context, status, info, version")
		}
	})
}

// symbolNameSample collects distinct indexed symbol names for the
// suggester, bounded so a huge index degrades suggestion quality rather
// than scan time.
func (s *Server) symbolNameSample() []string {
	names := make([]string, 0, 256)
	seen := make(map[string]bool)
	s.store.VisitSymbols(func(sym *types.SymbolEntry) bool {
		if !seen[sym.Name] {
			seen[sym.Name] = true
			names = append(names, sym.Name)
		}
		return len(names) < suggestionSampleLimit
	})
	return names
}

func kindString(k types.SymbolKind) string {
	if k == types.KindNone {
		return ""
	}
	return k.String()
}

func parseLanguages(names []string) ([]types.LanguageID, []string) {
	var langs []types.LanguageID
	var warnings []string
	for _, name := range names {
		if id := types.ParseLanguage(name); id != types.LangNone {
			langs = append(langs, id)
		} else {
			warnings = append(warnings, fmt.Sprintf("unknown language %q ignored", name))
		}
	}
	return langs, warnings
}
