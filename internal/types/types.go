package types

import (
	"path/filepath"
	"strings"
	"time"
)

// Common system-wide constants
const (
	// File size limits
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB per file - standard ceiling for indexing
	// Rationale: Files above 10MB are almost always generated
	// code, bundled output, or data files. They stay visible in
	// file search but are never parsed for symbols.

	// Binary detection
	BinaryPreCheckBytes = 512 // Bytes read for binary sniffing before full read
	// Rationale: A NUL byte in the first 512 bytes identifies
	// binaries reliably enough without loading the whole file.

	// Change detection
	HashPrefixBytes = 256 * 1024 // Content prefix hashed for change detection
	// Rationale: Hashing a bounded prefix keeps incremental
	// update cost flat for large files. The file length is
	// folded into the hash so truncation and appends are
	// still detected.

	// Extraction limits
	DefaultMaxSymbolsPerFile = 10000 // Symbols recorded per file before extraction stops
	// Rationale: Generated and minified sources can match
	// thousands of rules. The cap bounds memory per file
	// without failing the file outright.

	DefaultMaxSignatureLen   = 500 // Characters kept from a symbol's declaration line
	DefaultMaxImportsPerFile = 500 // Import statements recorded per file

	DefaultLineMatchBudget = 100 * time.Millisecond // Per-line pattern budget during extraction
	// Rationale: A rule table gone quadratic on a pathological
	// line must cost at most one line, never the file.

	// Search limits
	DefaultFileSearchDeadline   = 10 * time.Millisecond // File-mode query budget
	DefaultSymbolSearchDeadline = 20 * time.Millisecond // Symbol-mode query budget
	// Rationale: Interactive search runs on every keystroke.
	// Past the deadline the partial result set scored so far
	// is returned rather than an error.

	DefaultMaxSearchResults = 50 // Ranked results returned per query

	// Context packing limits
	DefaultContextTokenBudget = 8000   // Token budget when the caller does not supply one
	ContextFileCharLimit      = 100000 // Hard per-file character ceiling in rendered context
	SymbolWindowLines         = 20     // Lines kept on each side of a mentioned symbol
	TokenEstimateDivisor      = 4      // Estimated bytes per token
	// Rationale: sizeBytes/4 approximates tokenizer output for
	// source text closely enough for budget packing; exact
	// counts would require the consumer's tokenizer.
)

// LanguageID identifies the extraction strategy for a file.
type LanguageID uint8

const (
	LangNone LanguageID = iota // recorded but never parsed
	LangCSharp
	LangTypeScript
	LangJavaScript
	LangPython
	LangGo
)

func (l LanguageID) String() string {
	switch l {
	case LangCSharp:
		return "csharp"
	case LangTypeScript:
		return "typescript"
	case LangJavaScript:
		return "javascript"
	case LangPython:
		return "python"
	case LangGo:
		return "go"
	default:
		return "none"
	}
}

// ParseLanguage resolves a language name or common alias to a LanguageID.
func ParseLanguage(s string) LanguageID {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csharp", "c#", "cs":
		return LangCSharp
	case "typescript", "ts":
		return LangTypeScript
	case "javascript", "js":
		return LangJavaScript
	case "python", "py":
		return LangPython
	case "go", "golang":
		return LangGo
	default:
		return LangNone
	}
}

// SymbolKind classifies an extracted symbol.
type SymbolKind uint8

const (
	KindNone SymbolKind = iota
	KindClass
	KindInterface
	KindStruct
	KindEnum
	KindFunction
	KindMethod
	KindProperty
	KindField
	KindConstant
)

func (k SymbolKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindProperty:
		return "property"
	case KindField:
		return "field"
	case KindConstant:
		return "constant"
	default:
		return "none"
	}
}

// Structural reports whether the kind opens a parent scope during extraction.
func (k SymbolKind) Structural() bool {
	switch k {
	case KindClass, KindInterface, KindStruct, KindEnum:
		return true
	default:
		return false
	}
}

// Visibility is the declared access level of a symbol, when the language
// expresses one on the declaration line.
type Visibility uint8

const (
	VisibilityNone Visibility = iota
	VisibilityPublic
	VisibilityPrivate
	VisibilityProtected
	VisibilityInternal
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityPrivate:
		return "private"
	case VisibilityProtected:
		return "protected"
	case VisibilityInternal:
		return "internal"
	default:
		return ""
	}
}

// ImportKind distinguishes workspace-resolved imports from everything else.
type ImportKind uint8

const (
	ImportExternal ImportKind = iota
	ImportInternal
)

func (k ImportKind) String() string {
	if k == ImportInternal {
		return "internal"
	}
	return "external"
}

// FileEntry is the per-file record in the index.
//
// Path is workspace-relative with forward slashes and is the table key,
// compared case-insensitively. ContentHash covers a bounded prefix of the
// content plus the file length and exists only for change detection.
type FileEntry struct {
	Path        string
	AbsPath     string
	Language    LanguageID
	SizeBytes   int64
	ModTime     time.Time
	ContentHash uint64
	Folder      int // workspace folder index for multi-root workspaces
}

// SymbolEntry is one extracted symbol. Line is 1-based, Column 0-based,
// both valid for the file version identified by the owning FileEntry's
// ContentHash. Parent is a name back-reference, never a pointer: extraction
// of different files runs concurrently and owns no cross-file graph.
type SymbolEntry struct {
	Name       string
	Kind       SymbolKind
	FilePath   string
	Line       int
	Column     int
	Signature  string
	Parent     string
	Visibility Visibility
}

// ImportReference records one import statement of a file. ResolvedPath is
// set only when the imported specifier maps to a file inside the workspace.
type ImportReference struct {
	ImporterPath string
	ImportedPath string
	Kind         ImportKind
	ResolvedPath string
}

// SearchResult is a transient ranked hit, produced per query and never
// stored.
type SearchResult struct {
	Name   string
	Score  int
	Path   string
	Line   int // 0 for file results
	Kind   SymbolKind
	Detail string
}

// CompletionItem is one mention-completion candidate.
type CompletionItem struct {
	Label      string
	Kind       SymbolKind // KindNone for file items
	InsertText string
	Detail     string
}

// ContextFile is one file selected for AI context, with the estimated
// token cost used during budget packing.
type ContextFile struct {
	Path          string
	Score         int
	TokenEstimate int
}

// ChangeKind is the watcher-reported change class for one path.
type ChangeKind uint8

const (
	ChangeModified ChangeKind = iota
	ChangeCreated
	ChangeDeleted
	ChangeRenamed
)

func (c ChangeKind) String() string {
	switch c {
	case ChangeCreated:
		return "created"
	case ChangeDeleted:
		return "deleted"
	case ChangeRenamed:
		return "renamed"
	default:
		return "modified"
	}
}

// FileEvent is one debounced watcher event. OldPath is set for renames
// only.
type FileEvent struct {
	Kind    ChangeKind
	Path    string
	OldPath string
}

// IndexStats summarizes the store contents after a rebuild or update.
type IndexStats struct {
	FileCount   int
	SymbolCount int
	ImportCount int
}

// NormalizePath converts an OS path to the canonical workspace-relative
// form used as a table key: forward slashes, cleaned, no leading "./".
func NormalizePath(path string) string {
	p := filepath.ToSlash(filepath.Clean(path))
	return strings.TrimPrefix(p, "./")
}

// PathKey is the case-insensitive lookup key for a normalized path.
func PathKey(path string) string {
	return strings.ToLower(NormalizePath(path))
}

// EstimateTokens applies the fixed size-to-token heuristic used for
// context budget packing.
func EstimateTokens(sizeBytes int64) int {
	return int(sizeBytes / TokenEstimateDivisor)
}
