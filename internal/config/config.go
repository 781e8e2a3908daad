package config

import (
	"os"
	"runtime"
	"time"

	"github.com/standardbeagle/wci/internal/types"
)

type Config struct {
	Version     int
	Project     Project
	Index       Index
	Performance Performance
	Search      Search
	Context     Context
	Include     []string
	Exclude     []string
}

type Project struct {
	Root    string
	Name    string
	Folders []string // additional workspace roots for multi-root workspaces
}

type Index struct {
	MaxFileSize       int64
	MaxSymbolsPerFile int
	MaxImportsPerFile int
	MaxSignatureLen   int
}

type Performance struct {
	Workers         int // 0 = auto-detect (NumCPU)
	LineMatchBudget time.Duration
	HeapSoftLimitMB int // heap size that triggers the recovery pass during rebuild
	WatchDebounce   time.Duration
}

type Search struct {
	MaxResults     int
	FileDeadline   time.Duration
	SymbolDeadline time.Duration
}

type Context struct {
	TokenBudget   int
	FileCharLimit int
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot loads configuration by merging the global ~/.wci.kdl with a
// project-root .wci.kdl. The project config wins for scalar settings; the
// exclusion lists of both are combined. A non-empty path names an explicit
// config file and replaces the project-root discovery.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	var projectConfig *Config
	if path != "" {
		cfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		projectConfig = cfg
	} else if kdlCfg, err := LoadKDL(searchDir); err == nil && kdlCfg != nil {
		projectConfig = kdlCfg
	} else if err != nil {
		return nil, err
	}

	switch {
	case baseConfig != nil && projectConfig != nil:
		return mergeConfigs(baseConfig, projectConfig), nil
	case projectConfig != nil:
		return projectConfig, nil
	case baseConfig != nil:
		baseConfig.Project.Root = searchDir
		return baseConfig, nil
	}

	cfg := Default()
	if rootDir != "" {
		cfg.Project.Root = rootDir
	}
	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

// Default returns the built-in configuration with every limit at its
// documented default and the standard exclusion set.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return &Config{
		Version: 1,
		Project: Project{
			Root: cwd,
		},
		Index: Index{
			MaxFileSize:       types.DefaultMaxFileSize,
			MaxSymbolsPerFile: types.DefaultMaxSymbolsPerFile,
			MaxImportsPerFile: types.DefaultMaxImportsPerFile,
			MaxSignatureLen:   types.DefaultMaxSignatureLen,
		},
		Performance: Performance{
			Workers:         runtime.NumCPU(),
			LineMatchBudget: types.DefaultLineMatchBudget,
			HeapSoftLimitMB: 500,
			WatchDebounce:   200 * time.Millisecond,
		},
		Search: Search{
			MaxResults:     types.DefaultMaxSearchResults,
			FileDeadline:   types.DefaultFileSearchDeadline,
			SymbolDeadline: types.DefaultSymbolSearchDeadline,
		},
		Context: Context{
			TokenBudget:   types.DefaultContextTokenBudget,
			FileCharLimit: types.ContextFileCharLimit,
		},
		Include: []string{},
		Exclude: defaultExclusions(),
	}
}

// mergeConfigs merges a base config with a project config.
// Project config takes precedence, but base exclusions are preserved.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		excludeMap := make(map[string]bool)
		for _, pattern := range base.Exclude {
			excludeMap[pattern] = true
		}
		for _, pattern := range project.Exclude {
			excludeMap[pattern] = true
		}

		merged.Exclude = make([]string, 0, len(excludeMap))
		for pattern := range excludeMap {
			merged.Exclude = append(merged.Exclude, pattern)
		}
	}

	// Project include patterns replace base patterns only when present
	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	return &merged
}

// AllFolders returns every workspace root: the primary root followed by
// any additional configured folders.
func (c *Config) AllFolders() []string {
	folders := make([]string, 0, 1+len(c.Project.Folders))
	folders = append(folders, c.Project.Root)
	folders = append(folders, c.Project.Folders...)
	return folders
}

// WorkerCount resolves the configured worker count, auto-detecting from the
// CPU count when unset.
func (c *Config) WorkerCount() int {
	if c.Performance.Workers > 0 {
		return c.Performance.Workers
	}
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return n
}

// EnrichExclusionsWithBuildArtifacts detects build output directories from
// language manifests at the project root and adds them to the exclusion list.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}

	detector := NewBuildArtifactDetector(c.Project.Root)
	detectedPatterns := detector.DetectOutputDirectories()

	if len(detectedPatterns) > 0 {
		c.Exclude = append(c.Exclude, detectedPatterns...)
		c.Exclude = DeduplicatePatterns(c.Exclude)
	}
}

func defaultExclusions() []string {
	return []string{
		// Git metadata (never indexable)
		"**/.git/**",

		// Hidden directories (catch-all for dot directories)
		"**/.*/**",

		// Package managers & dependencies
		"**/node_modules/**",
		"**/vendor/**",
		"**/bower_components/**",
		"**/jspm_packages/**",
		"**/venv/**",
		"**/.venv/**",
		"**/site-packages/**",
		"**/Pods/**",

		// Build artifacts & output
		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/target/**", // Rust, Java
		"**/bin/**",
		"**/obj/**", // .NET
		"**/*.min.js",
		"**/*.min.css",
		"**/*.bundle.js",
		"**/*.chunk.js",
		"**/*.min.map",

		// Python compiled files
		"**/__pycache__/**",
		"**/*.pyc",
		"**/.pytest_cache/**",
		"**/.mypy_cache/**",

		// Cache directories
		"**/.cache/**",
		"**/.next/**",
		"**/.nuxt/**",
		"**/.parcel-cache/**",
		"**/.turbo/**",

		// Coverage artifacts
		"**/coverage/**",
		"**/.nyc_output/**",
		"**/htmlcov/**",

		// Editor temp files
		"**/*.swp",
		"**/*.swo",
		"**/*~",

		// OS files
		"**/Thumbs.db",
		"**/desktop.ini",
		"**/.DS_Store",

		// Logs
		"**/logs/**",
		"**/*.log",
	}
}
