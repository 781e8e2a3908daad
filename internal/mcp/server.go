// Package mcp serves the index over the Model Context Protocol. The
// server speaks stdio, owns the store and orchestrator, builds the
// initial index in the background, and optionally follows the workspace
// with the file watcher. Tool calls answer from the store in whatever
// state it currently is; nothing waits for indexing to finish.
package mcp

import (
	"context"
	"fmt"
	rdebug "runtime/debug"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/wci/internal/config"
	"github.com/standardbeagle/wci/internal/debug"
	wcierrors "github.com/standardbeagle/wci/internal/errors"
	"github.com/standardbeagle/wci/internal/indexing"
	"github.com/standardbeagle/wci/internal/relevance"
	"github.com/standardbeagle/wci/internal/search"
	"github.com/standardbeagle/wci/internal/semantic"
	"github.com/standardbeagle/wci/internal/store"
	"github.com/standardbeagle/wci/internal/types"
	"github.com/standardbeagle/wci/internal/version"
	"github.com/standardbeagle/wci/internal/watch"
)

// Server exposes search, completion, context, and status tools over MCP.
type Server struct {
	cfg     *config.Config
	store   *store.Store
	orch    *indexing.Orchestrator
	engine  *search.Engine
	builder *relevance.Builder
	kinds   *semantic.KindResolver
	related *semantic.Suggester

	server *mcp.Server
	diag   *DiagnosticLogger

	followWatch bool
	runCtx      context.Context
	runCancel   context.CancelFunc
	wg          sync.WaitGroup

	mu      sync.Mutex
	watcher *watch.Watcher
}

// NewServer wires the index components behind an MCP tool surface.
// With followWatch set, Start keeps the index current through the file
// watcher after the initial build.
func NewServer(cfg *config.Config, followWatch bool) (*Server, error) {
	st := store.New()
	s := &Server{
		cfg:         cfg,
		store:       st,
		orch:        indexing.New(cfg, st),
		engine:      search.New(st),
		builder:     relevance.NewBuilder(st),
		kinds:       semantic.NewKindResolver(),
		related:     semantic.NewSuggester(),
		diag:        NewDiagnosticLogger(true),
		followWatch: followWatch,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "wci-mcp-server",
		Version: version.Info(),
	}, nil)
	s.registerTools()

	s.diag.Printf("server initialized, workspace root %s", cfg.Project.Root)
	return s, nil
}

// Start builds the index in the background and serves MCP over stdio
// until ctx ends or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	// Stdout carries the protocol stream from here on.
	debug.SetMCPMode(true)

	runCtx, cancel := context.WithCancel(ctx)
	s.runCtx, s.runCancel = runCtx, cancel

	s.wg.Add(1)
	go s.buildIndex(runCtx)

	s.diag.Printf("serving on stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Shutdown stops background work and releases the watcher and log file.
func (s *Server) Shutdown(ctx context.Context) error {
	s.diag.Printf("shutting down")

	if s.runCancel != nil {
		s.runCancel()
	}
	s.orch.Cancel()
	s.wg.Wait()

	errs := wcierrors.NewMultiError(nil)
	if w := s.activeWatcher(); w != nil {
		errs.Append(w.Stop())
	}
	errs.Append(s.diag.Close())
	return errs.ErrOrNil()
}

// buildIndex runs the initial rebuild, then hands the workspace to the
// watcher when following is enabled.
func (s *Server) buildIndex(ctx context.Context) {
	defer s.wg.Done()

	stats, err := s.orch.RebuildAll(ctx)
	if err != nil {
		s.diag.Errorf("initial index build: %v", err)
		return
	}
	s.diag.Printf("index ready: %d files, %d symbols, %d imports",
		stats.FileCount, stats.SymbolCount, stats.ImportCount)

	if !s.followWatch || ctx.Err() != nil {
		return
	}

	w, err := watch.New(s.cfg, s.orch.Detector(), s.applyEvents)
	if err != nil {
		s.diag.Errorf("watcher init: %v", err)
		return
	}
	if err := w.Start(ctx); err != nil {
		s.diag.Errorf("watcher start: %v", err)
		return
	}

	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	s.diag.Printf("watching %d directories", w.Stats().WatchedDirs)
}

func (s *Server) applyEvents(events []types.FileEvent) {
	stats, err := s.orch.ApplyChanges(s.runCtx, events)
	if err != nil {
		s.diag.Errorf("incremental update: %v", err)
		return
	}
	s.diag.Printf("applied %d changes, index now %d files / %d symbols",
		len(events), stats.FileCount, stats.SymbolCount)
}

func (s *Server) activeWatcher() *watch.Watcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watcher
}

// guard runs one tool handler with panic isolation. A crashed handler
// becomes an IsError result instead of taking the transport down.
func (s *Server) guard(operation string, fn func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.diag.Errorf("panic in %s: %v\n%s", operation, r, rdebug.Stack())
			result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r),
				"retry the call; if it keeps failing check the diagnostic log "+s.diag.Path())
		}
	}()
	return fn()
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "info",
		Description: "🔍 Get help and examples for any tool - start here! Use 'info' for an overview or pass a tool name for specifics.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tool": {
					Type:        "string",
					Description: "Tool name to describe ('search', 'completions', 'context', 'status', 'version')",
				},
			},
		},
	}, s.handleInfo)

	s.server.AddTool(&mcp.Tool{
		Name:        "search",
		Description: "Fuzzy search over indexed files and symbols. Ranked by match tier (prefix > word boundary > substring > subsequence), answers in milliseconds from memory.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"pattern": {
					Type:        "string",
					Description: "Search pattern (required)",
				},
				"mode": {
					Type:        "string",
					Description: "'file' matches file names (default), 'symbol' matches symbol names",
				},
				"max": {
					Type:        "integer",
					Description: "Maximum results (default 50)",
				},
				"kinds": {
					Type:        "string",
					Description: "Comma-separated symbol kinds for symbol mode: class, interface, struct, enum, function, method, property, field, constant. Aliases like 'func', 'fn', 'cls' resolve with a warning.",
				},
				"languages": {
					Type:        "array",
					Description: "Restrict to languages: csharp, typescript, javascript, python, go",
					Items:       &jsonschema.Schema{Type: "string"},
				},
			},
			Required: []string{"pattern"},
		},
	}, s.handleSearch)

	s.server.AddTool(&mcp.Tool{
		Name:        "completions",
		Description: "@-mention completion for a chat input. Finds the mention under the cursor and returns ranked file candidates (@path) or symbol candidates (@#name).",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"text": {
					Type:        "string",
					Description: "Full input text",
				},
				"cursor": {
					Type:        "integer",
					Description: "Cursor byte offset in text (defaults to end of text)",
				},
			},
			Required: []string{"text"},
		},
	}, s.handleCompletions)

	s.server.AddTool(&mcp.Tool{
		Name:        "context",
		Description: "Build token-budgeted file context for an AI prompt: explicitly mentioned files first, then files ranked by import distance to the current file and recent edits.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"current_file": {
					Type:        "string",
					Description: "Workspace-relative path of the active file",
				},
				"recent_files": {
					Type:        "array",
					Description: "Recently edited files, most recent first",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"token_budget": {
					Type:        "integer",
					Description: "Token budget for the rendered context (default 8000)",
				},
				"mentions": {
					Type:        "array",
					Description: "Committed @-mentions: {path, name?, line?}",
					Items:       &jsonschema.Schema{Type: "object"},
				},
			},
		},
	}, s.handleContext)

	s.server.AddTool(&mcp.Tool{
		Name:        "status",
		Description: "Index lifecycle state, progress counters, table sizes, and watcher activity.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleStatus)
}
