package relevance

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/standardbeagle/wci/internal/debug"
	"github.com/standardbeagle/wci/internal/store"
	"github.com/standardbeagle/wci/internal/types"
)

// Mention is one committed @-reference from the chat input.
type Mention struct {
	Path string
	Name string // symbol name, empty for plain file mentions
	Line int    // symbol line when known; resolved from the index when 0
}

// Request describes one context build.
type Request struct {
	CurrentFile    string
	RecentlyEdited []string
	Mentions       []Mention
	TokenBudget    int
}

// Result carries the selected files in render order and the
// concatenated labeled sections.
type Result struct {
	Files        []types.ContextFile
	RenderedText string
}

// Builder assembles the rendered context block sent ahead of an AI
// prompt: explicit mentions first, then relevance-ranked files, all
// within one token budget.
type Builder struct {
	scorer *Scorer
	store  *store.Store
	read   func(path string) ([]byte, error)
}

func NewBuilder(st *store.Store) *Builder {
	return &Builder{scorer: New(st), store: st, read: os.ReadFile}
}

// SetReader replaces the content source, for callers that serve unsaved
// editor buffers instead of on-disk files.
func (b *Builder) SetReader(read func(path string) ([]byte, error)) {
	b.read = read
}

// BuildContext selects and renders context for one prompt. Mentioned
// files render whole (subject to the per-file character ceiling);
// mentioned symbols render a surrounding line window. Ranked files fill
// whatever budget the mentions leave. Unreadable files are skipped and
// logged, never fatal.
func (b *Builder) BuildContext(req Request) Result {
	budget := req.TokenBudget
	if budget <= 0 {
		budget = types.DefaultContextTokenBudget
	}

	var sections []string
	var files []types.ContextFile
	rendered := make(map[string]bool)
	total := 0

	for _, m := range req.Mentions {
		key := types.PathKey(m.Path)
		if rendered[key] {
			continue
		}
		entry, ok := b.store.GetFile(m.Path)
		if !ok {
			debug.LogContext("mention %q not indexed, skipped", m.Path)
			continue
		}
		content, err := b.read(readPath(entry))
		if err != nil {
			debug.LogContext("mention %q unreadable: %v", m.Path, err)
			continue
		}
		section := b.renderMention(m, entry, string(content))
		cost := len(section) / types.TokenEstimateDivisor
		if total+cost > budget {
			break
		}
		total += cost
		rendered[key] = true
		sections = append(sections, section)
		files = append(files, types.ContextFile{Path: entry.Path, TokenEstimate: cost})
	}

	if remaining := budget - total; remaining > 0 {
		for _, cf := range b.scorer.Rank(req.CurrentFile, req.RecentlyEdited, remaining) {
			key := types.PathKey(cf.Path)
			if rendered[key] {
				continue
			}
			entry, ok := b.store.GetFile(cf.Path)
			if !ok {
				continue
			}
			content, err := b.read(readPath(entry))
			if err != nil {
				debug.LogContext("context file %q unreadable: %v", cf.Path, err)
				continue
			}
			sections = append(sections, renderFile(entry.Path, string(content)))
			rendered[key] = true
			files = append(files, cf)
			total += cf.TokenEstimate
		}
	}

	debug.LogContext("built context: %d sections, ~%d tokens of %d", len(sections), total, budget)
	return Result{Files: files, RenderedText: strings.Join(sections, "\n")}
}

func readPath(entry types.FileEntry) string {
	if entry.AbsPath != "" {
		return entry.AbsPath
	}
	return entry.Path
}

func (b *Builder) renderMention(m Mention, entry types.FileEntry, content string) string {
	if m.Name == "" {
		return renderFile(entry.Path, content)
	}
	line := m.Line
	if line <= 0 {
		line = b.findSymbolLine(m)
	}
	if line <= 0 {
		return renderFile(entry.Path, content)
	}
	window := symbolWindow(content, line)
	return fmt.Sprintf("=== Symbol: %s (%s:%d) ===\n%s\n", m.Name, entry.Path, line, window)
}

func (b *Builder) findSymbolLine(m Mention) int {
	key := types.PathKey(m.Path)
	for _, sym := range b.store.FindSymbolsByName(m.Name) {
		if types.PathKey(sym.FilePath) == key {
			return sym.Line
		}
	}
	return 0
}

func renderFile(path, content string) string {
	trimmed, truncated := truncateChars(content, types.ContextFileCharLimit)
	label := path
	if truncated {
		label += " (truncated)"
	}
	return fmt.Sprintf("=== File: %s ===\n%s\n", label, trimmed)
}

// symbolWindow returns the lines around line, clamped to the file.
func symbolWindow(content string, line int) string {
	lines := strings.Split(content, "\n")
	if line > len(lines) {
		line = len(lines)
	}
	start := line - types.SymbolWindowLines
	if start < 1 {
		start = 1
	}
	end := line + types.SymbolWindowLines
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n")
}

// truncateChars cuts s at limit without splitting a rune.
func truncateChars(s string, limit int) (string, bool) {
	if len(s) <= limit {
		return s, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
