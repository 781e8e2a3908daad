// Package lang decides which files enter the index and which extraction
// strategy applies to them. Detection is pure path/size classification and
// is safe to call from any goroutine without locking.
package lang

import (
	"bytes"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/wci/internal/types"
)

// Decision is the indexing disposition for one path.
type Decision uint8

const (
	// Skip means the file never enters the index.
	Skip Decision = iota
	// Index means the file is recorded and parsed for symbols/imports.
	Index
	// RecordOnly means the file is recorded for file search but never
	// parsed (oversized files and unknown-but-textual extensions).
	RecordOnly
)

func (d Decision) String() string {
	switch d {
	case Index:
		return "index"
	case RecordOnly:
		return "record-only"
	default:
		return "skip"
	}
}

// excludedSegments are directory names rejected regardless of configured
// globs. The glob list from config extends this set, never replaces it.
var excludedSegments = map[string]struct{}{
	".git":          {},
	".svn":          {},
	".hg":           {},
	"node_modules":  {},
	"vendor":        {},
	"__pycache__":   {},
	"obj":           {},
	"dist":          {},
	"target":        {},
	".cache":        {},
	".next":         {},
	".venv":         {},
	"venv":          {},
	"site-packages": {},
}

// binaryExtensions identify content that is never source text.
var binaryExtensions = map[string]struct{}{
	// executables and libraries
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".a": {}, ".o": {},
	".obj": {}, ".pdb": {}, ".wasm": {}, ".class": {}, ".pyc": {}, ".pyd": {},
	// archives
	".zip": {}, ".tar": {}, ".gz": {}, ".tgz": {}, ".bz2": {}, ".xz": {},
	".7z": {}, ".rar": {}, ".jar": {}, ".war": {},
	// images
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".ico": {}, ".bmp": {},
	".webp": {}, ".avif": {}, ".tiff": {}, ".psd": {},
	// audio/video
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".mkv": {}, ".wav": {},
	".flac": {}, ".ogg": {}, ".webm": {}, ".wma": {}, ".m4a": {},
	// fonts
	".woff": {}, ".woff2": {}, ".ttf": {}, ".otf": {}, ".eot": {},
	// documents and data
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".ppt": {}, ".pptx": {}, ".db": {}, ".sqlite": {}, ".sqlite3": {},
}

// languageByExtension maps source extensions to extraction strategies.
var languageByExtension = map[string]types.LanguageID{
	".cs":  types.LangCSharp,
	".ts":  types.LangTypeScript,
	".tsx": types.LangTypeScript,
	".mts": types.LangTypeScript,
	".cts": types.LangTypeScript,
	".js":  types.LangJavaScript,
	".jsx": types.LangJavaScript,
	".mjs": types.LangJavaScript,
	".cjs": types.LangJavaScript,
	".py":  types.LangPython,
	".pyw": types.LangPython,
	".pyi": types.LangPython,
	".go":  types.LangGo,
}

// Detector classifies workspace paths. Immutable after construction.
type Detector struct {
	excludeGlobs []string
	includeGlobs []string
	maxFileSize  int64
}

// NewDetector builds a detector from configured include/exclude globs and
// the file size ceiling. Invalid glob patterns are dropped silently; the
// built-in segment exclusions always apply.
func NewDetector(include, exclude []string, maxFileSize int64) *Detector {
	if maxFileSize <= 0 {
		maxFileSize = types.DefaultMaxFileSize
	}

	valid := func(patterns []string) []string {
		out := make([]string, 0, len(patterns))
		for _, p := range patterns {
			if doublestar.ValidatePattern(p) {
				out = append(out, p)
			}
		}
		return out
	}

	return &Detector{
		excludeGlobs: valid(exclude),
		includeGlobs: valid(include),
		maxFileSize:  maxFileSize,
	}
}

// Detect maps a path to its extraction language, or LangNone for files the
// index records without parsing.
func (d *Detector) Detect(filePath string) types.LanguageID {
	ext := strings.ToLower(path.Ext(types.NormalizePath(filePath)))
	return languageByExtension[ext]
}

// ShouldIndex applies the detection order: excluded directory segments and
// configured globs first, then binary extensions, then the size ceiling.
// Oversized files and unknown extensions stay visible in file search as
// RecordOnly entries.
func (d *Detector) ShouldIndex(relPath string, size int64) Decision {
	rel := types.NormalizePath(relPath)

	for _, segment := range strings.Split(rel, "/") {
		if _, excluded := excludedSegments[segment]; excluded {
			return Skip
		}
	}

	for _, pattern := range d.excludeGlobs {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return Skip
		}
	}

	if len(d.includeGlobs) > 0 {
		included := false
		for _, pattern := range d.includeGlobs {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				included = true
				break
			}
		}
		if !included {
			return Skip
		}
	}

	ext := strings.ToLower(path.Ext(rel))
	if _, binary := binaryExtensions[ext]; binary {
		return Skip
	}

	if size > d.maxFileSize {
		return RecordOnly
	}

	if _, known := languageByExtension[ext]; !known {
		return RecordOnly
	}

	return Index
}

// MaxFileSize returns the configured size ceiling.
func (d *Detector) MaxFileSize() int64 {
	return d.maxFileSize
}

// ExcludesDir reports whether a directory should be pruned from a walk
// entirely, so scanners and watchers never descend into it.
func (d *Detector) ExcludesDir(relPath string) bool {
	rel := types.NormalizePath(relPath)
	for _, segment := range strings.Split(rel, "/") {
		if _, excluded := excludedSegments[segment]; excluded {
			return true
		}
	}
	// A directory is prunable when the configured globs exclude everything
	// beneath it
	for _, pattern := range d.excludeGlobs {
		if strings.HasSuffix(pattern, "/**") {
			if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/**"), rel); ok {
				return true
			}
			if ok, _ := doublestar.Match(pattern, rel+"/"); ok {
				return true
			}
		}
	}
	return false
}

// IsBinaryContent sniffs a content prefix for NUL bytes, the cheap signal
// that an extension-based check missed a binary.
func IsBinaryContent(prefix []byte) bool {
	if len(prefix) > types.BinaryPreCheckBytes {
		prefix = prefix[:types.BinaryPreCheckBytes]
	}
	return bytes.IndexByte(prefix, 0) >= 0
}
