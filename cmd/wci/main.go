package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/standardbeagle/wci/internal/config"
	"github.com/standardbeagle/wci/internal/debug"
	wcierrors "github.com/standardbeagle/wci/internal/errors"
	"github.com/standardbeagle/wci/internal/indexing"
	"github.com/standardbeagle/wci/internal/mcp"
	"github.com/standardbeagle/wci/internal/relevance"
	"github.com/standardbeagle/wci/internal/search"
	"github.com/standardbeagle/wci/internal/semantic"
	"github.com/standardbeagle/wci/internal/store"
	"github.com/standardbeagle/wci/internal/types"
	"github.com/standardbeagle/wci/internal/version"
	"github.com/standardbeagle/wci/internal/watch"

	"github.com/urfave/cli/v2"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadWithRoot(c.String("config"), c.String("root"))
	if err != nil {
		return nil, wcierrors.NewConfigError("config", c.String("config"), err)
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, wcierrors.NewConfigError("root", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if workers := c.Int("workers"); workers > 0 {
		cfg.Performance.Workers = workers
	}

	return cfg, nil
}

// workspace bundles the pieces every index-backed command needs.
type workspace struct {
	cfg   *config.Config
	store *store.Store
	orch  *indexing.Orchestrator
}

func buildWorkspace(c *cli.Context) (*workspace, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}
	st := store.New()
	return &workspace{cfg: cfg, store: st, orch: indexing.New(cfg, st)}, nil
}

func (w *workspace) rebuild(ctx context.Context) (types.IndexStats, error) {
	stats, err := w.orch.RebuildAll(ctx)
	if err != nil {
		return stats, wcierrors.NewIndexingError("rebuild", err)
	}
	return stats, nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "wci",
		Usage:                  "Workspace code index for AI chat surfaces",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Explicit config file path (default: .wci.kdl discovery)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Workspace root directory to index (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Index only files matching glob patterns (e.g., --include 'src/**/*.ts')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/fixtures/**')",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Indexing worker count (0 = one per CPU)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug output to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Build the index once and print summary statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: indexCommand,
			},
			{
				Name:    "search",
				Aliases: []string{"s"},
				Usage:   "Fuzzy search for files or symbols",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Search mode: file or symbol",
						Value:   "file",
					},
					&cli.IntFlag{
						Name:    "max",
						Aliases: []string{"n"},
						Usage:   "Max number of results (0 = config default)",
					},
					&cli.StringFlag{
						Name:    "kinds",
						Aliases: []string{"k"},
						Usage:   "Symbol kind filter, comma-separated (e.g., 'function,method')",
					},
					&cli.StringSliceFlag{
						Name:  "language",
						Usage: "Language filter (csharp, typescript, javascript, python, go)",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: searchCommand,
			},
			{
				Name:  "context",
				Usage: "Pack workspace context for an AI prompt within a token budget",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Active file the context is built around",
					},
					&cli.StringSliceFlag{
						Name:  "recent",
						Usage: "Recently edited file, most recent first (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "mention",
						Usage: "Mentioned file or symbol as 'path' or 'path#symbol' (repeatable)",
					},
					&cli.IntFlag{
						Name:    "budget",
						Aliases: []string{"b"},
						Usage:   "Token budget (0 = config default)",
					},
					&cli.BoolFlag{
						Name:  "manifest",
						Usage: "Print the selected files instead of the rendered text",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: contextCommand,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List indexed files",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Show language, size, and symbol count per file",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: listCommand,
			},
			{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Build the index and follow file changes until interrupted",
				Action:  watchCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Start MCP (Model Context Protocol) server with stdio transport",
				Action: mcpCommand,
			},
			{
				Name:   "version",
				Usage:  "Show detailed version information",
				Action: versionCommand,
			},
		},
		Action: func(c *cli.Context) error {
			// MCP clients launch the bare binary with a pipe on stdin.
			if isMCPMode() {
				return mcpCommand(c)
			}
			return cli.ShowAppHelp(c)
		},
	}
}

func indexCommand(c *cli.Context) error {
	ws, err := buildWorkspace(c)
	if err != nil {
		return err
	}

	start := time.Now()
	stats, err := ws.rebuild(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	failed := ws.orch.Progress().Failed

	if c.Bool("json") {
		return printJSON(map[string]interface{}{
			"files":      stats.FileCount,
			"symbols":    stats.SymbolCount,
			"imports":    stats.ImportCount,
			"failed":     failed,
			"elapsed_ms": elapsed.Milliseconds(),
		})
	}

	fmt.Printf("Indexed %d files, %d symbols, %d imports in %v\n",
		stats.FileCount, stats.SymbolCount, stats.ImportCount, elapsed.Round(time.Millisecond))
	if failed > 0 {
		fmt.Printf("%d files failed and were skipped\n", failed)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: wci search <pattern>")
	}
	pattern := c.Args().First()

	var mode search.Mode
	switch strings.ToLower(c.String("mode")) {
	case "file", "files":
		mode = search.ModeFile
	case "symbol", "symbols":
		mode = search.ModeSymbol
	default:
		return fmt.Errorf("unknown mode %q: use 'file' or 'symbol'", c.String("mode"))
	}

	ws, err := buildWorkspace(c)
	if err != nil {
		return err
	}
	if _, err := ws.rebuild(context.Background()); err != nil {
		return err
	}

	kinds, kindWarnings := semantic.NewKindResolver().ResolveAll(c.String("kinds"))
	for _, w := range kindWarnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	var languages []types.LanguageID
	for _, name := range c.StringSlice("language") {
		if id := types.ParseLanguage(name); id != types.LangNone {
			languages = append(languages, id)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: unknown language %q ignored\n", name)
		}
	}

	maxResults := c.Int("max")
	if maxResults <= 0 {
		maxResults = ws.cfg.Search.MaxResults
	}
	opts := search.Options{MaxResults: maxResults, Kinds: kinds, Languages: languages}

	engine := search.New(ws.store)
	var results []types.SearchResult
	var partial bool
	if mode == search.ModeSymbol {
		results, partial = engine.SearchSymbols(context.Background(), pattern, opts)
	} else {
		results, partial = engine.SearchFiles(context.Background(), pattern, opts)
	}
	if partial {
		fmt.Fprintln(os.Stderr, "Warning: results truncated by the search deadline")
	}

	if c.Bool("json") {
		type resultJSON struct {
			Name  string `json:"name"`
			Path  string `json:"path"`
			Line  int    `json:"line,omitempty"`
			Kind  string `json:"kind,omitempty"`
			Score int    `json:"score"`
		}
		out := make([]resultJSON, len(results))
		for i, r := range results {
			out[i] = resultJSON{Name: r.Name, Path: r.Path, Line: r.Line, Score: r.Score}
			if r.Kind != types.KindNone {
				out[i].Kind = r.Kind.String()
			}
		}
		return printJSON(map[string]interface{}{"results": out, "total": len(out)})
	}

	if len(results) == 0 {
		fmt.Printf("No matches for %q\n", pattern)
		if mode == search.ModeSymbol {
			if related := relatedSymbolNames(ws.store, pattern); len(related) > 0 {
				fmt.Printf("Related: %s\n", strings.Join(related, ", "))
			}
		}
		return nil
	}

	for _, r := range results {
		if mode == search.ModeSymbol {
			fmt.Printf("%s:%d: %s %s\n", r.Path, r.Line, r.Kind, r.Name)
		} else {
			fmt.Println(r.Path)
		}
	}
	return nil
}

// relatedSymbolNames offers near-miss names for a query that matched
// nothing, same as the MCP search tool does.
func relatedSymbolNames(st *store.Store, pattern string) []string {
	names := make([]string, 0, 256)
	seen := make(map[string]bool)
	st.VisitSymbols(func(sym *types.SymbolEntry) bool {
		if !seen[sym.Name] {
			seen[sym.Name] = true
			names = append(names, sym.Name)
		}
		return len(names) < 2000
	})
	return semantic.NewSuggester().Suggest(pattern, names, 5)
}

func contextCommand(c *cli.Context) error {
	ws, err := buildWorkspace(c)
	if err != nil {
		return err
	}
	if _, err := ws.rebuild(context.Background()); err != nil {
		return err
	}

	req := relevance.Request{
		CurrentFile:    c.String("file"),
		RecentlyEdited: c.StringSlice("recent"),
		TokenBudget:    c.Int("budget"),
	}
	if req.TokenBudget <= 0 {
		req.TokenBudget = ws.cfg.Context.TokenBudget
	}
	for _, m := range c.StringSlice("mention") {
		path, name, _ := strings.Cut(m, "#")
		req.Mentions = append(req.Mentions, relevance.Mention{Path: path, Name: name})
	}

	result := relevance.NewBuilder(ws.store).BuildContext(req)

	totalTokens := 0
	for _, f := range result.Files {
		totalTokens += f.TokenEstimate
	}

	if c.Bool("json") {
		type fileJSON struct {
			Path   string `json:"path"`
			Score  int    `json:"score,omitempty"`
			Tokens int    `json:"tokens"`
		}
		files := make([]fileJSON, len(result.Files))
		for i, f := range result.Files {
			files[i] = fileJSON{Path: f.Path, Score: f.Score, Tokens: f.TokenEstimate}
		}
		return printJSON(map[string]interface{}{
			"files":        files,
			"total_tokens": totalTokens,
			"budget":       req.TokenBudget,
			"text":         result.RenderedText,
		})
	}

	if len(result.Files) == 0 {
		fmt.Fprintln(os.Stderr, "No context selected; pass --file, --recent, or --mention")
		return nil
	}

	if c.Bool("manifest") {
		for _, f := range result.Files {
			fmt.Printf("%s (~%d tokens)\n", f.Path, f.TokenEstimate)
		}
		fmt.Printf("Total: ~%d of %d tokens\n", totalTokens, req.TokenBudget)
		return nil
	}

	fmt.Println(result.RenderedText)
	return nil
}

func listCommand(c *cli.Context) error {
	ws, err := buildWorkspace(c)
	if err != nil {
		return err
	}
	if _, err := ws.rebuild(context.Background()); err != nil {
		return err
	}

	files := ws.store.AllFiles()
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	if c.Bool("json") {
		type fileJSON struct {
			Path     string `json:"path"`
			Language string `json:"language"`
			Size     int64  `json:"size"`
			Symbols  int    `json:"symbols"`
		}
		out := make([]fileJSON, len(files))
		for i, f := range files {
			out[i] = fileJSON{
				Path:     f.Path,
				Language: f.Language.String(),
				Size:     f.SizeBytes,
				Symbols:  len(ws.store.SymbolsByFile(f.Path)),
			}
		}
		return printJSON(map[string]interface{}{"files": out, "total": len(out)})
	}

	for _, f := range files {
		if c.Bool("verbose") {
			fmt.Printf("%s  %s  %d bytes  %d symbols\n",
				f.Path, f.Language, f.SizeBytes, len(ws.store.SymbolsByFile(f.Path)))
		} else {
			fmt.Println(f.Path)
		}
	}
	fmt.Printf("%d files\n", len(files))
	return nil
}

func watchCommand(c *cli.Context) error {
	ws, err := buildWorkspace(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	stats, err := ws.rebuild(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d files, %d symbols in %v\n",
		stats.FileCount, stats.SymbolCount, time.Since(start).Round(time.Millisecond))

	watcher, err := watch.New(ws.cfg, ws.orch.Detector(), func(events []types.FileEvent) {
		updated, err := ws.orch.ApplyChanges(ctx, events)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: update failed: %v\n", err)
			return
		}
		fmt.Printf("%s  %d changes applied, index now %d files, %d symbols\n",
			time.Now().Format("15:04:05"), len(events), updated.FileCount, updated.SymbolCount)
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("Watching %d directories, Ctrl-C to stop\n", watcher.Stats().WatchedDirs)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	if err := watcher.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: watcher stop: %v\n", err)
	}
	final := ws.store.Stats()
	fmt.Printf("Stopped. Index holds %d files, %d symbols\n", final.FileCount, final.SymbolCount)
	return nil
}

func mcpCommand(c *cli.Context) error {
	// Enable MCP mode before anything can print to stdout
	debug.SetMCPMode(true)

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return debug.Fatal("failed to load config: %v", err)
	}

	server, err := mcp.NewServer(cfg, true)
	if err != nil {
		return debug.Fatal("failed to create MCP server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(ctx)
	}()

	select {
	case err := <-errChan:
		shutdownMCP(server)
		return err
	case sig := <-sigChan:
		debug.LogMCP("received signal %v, shutting down", sig)
		cancel()

		select {
		case err := <-errChan:
			shutdownMCP(server)
			return err
		case <-time.After(2 * time.Second):
			// Break the stdio read loop so the transport can exit.
			os.Stdin.Close()
			select {
			case <-errChan:
			case <-time.After(500 * time.Millisecond):
			}
			shutdownMCP(server)
			return nil
		}
	}
}

func shutdownMCP(server *mcp.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		debug.LogMCP("shutdown error: %v", err)
	}
}

func versionCommand(c *cli.Context) error {
	fmt.Println(version.FullInfo())
	return nil
}

// isMCPMode reports whether the bare binary was launched by an MCP
// client rather than a person at a terminal.
func isMCPMode() bool {
	if v := os.Getenv("WCI_MCP_MODE"); v == "1" || v == "true" {
		return true
	}

	// Pipes and redirects on stdin mean JSON-RPC, not keystrokes.
	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		return true
	}

	if len(os.Args) > 0 {
		arg0 := strings.ToLower(filepath.Base(os.Args[0]))
		if strings.Contains(arg0, "mcp") || strings.Contains(arg0, "server") {
			return true
		}
	}

	return false
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
