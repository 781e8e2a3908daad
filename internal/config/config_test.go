package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, int64(10*1024*1024), cfg.Index.MaxFileSize)
	assert.Equal(t, 10000, cfg.Index.MaxSymbolsPerFile)
	assert.Equal(t, 500, cfg.Index.MaxImportsPerFile)
	assert.Equal(t, 500, cfg.Index.MaxSignatureLen)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, 10*time.Millisecond, cfg.Search.FileDeadline)
	assert.Equal(t, 20*time.Millisecond, cfg.Search.SymbolDeadline)
	assert.NotEmpty(t, cfg.Exclude)
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
}

func TestParseKDLOverrides(t *testing.T) {
	content := `
project {
    name "demo"
}
index {
    max_file_size "2MB"
    max_symbols_per_file 100
}
search {
    max_results 10
    file_deadline_ms 5
}
performance {
    workers 2
    watch_debounce_ms 50
}
context {
    token_budget 4000
}
`
	cfg, err := parseKDL(content)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, int64(2*1024*1024), cfg.Index.MaxFileSize)
	assert.Equal(t, 100, cfg.Index.MaxSymbolsPerFile)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 5*time.Millisecond, cfg.Search.FileDeadline)
	assert.Equal(t, 2, cfg.Performance.Workers)
	assert.Equal(t, 50*time.Millisecond, cfg.Performance.WatchDebounce)
	assert.Equal(t, 4000, cfg.Context.TokenBudget)
}

func TestParseKDLExcludeBlockReplacesDefaults(t *testing.T) {
	content := `
exclude {
    "**/generated/**"
}
`
	cfg, err := parseKDL(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"**/generated/**"}, cfg.Exclude)
}

func TestMergeConfigsCombinesExclusions(t *testing.T) {
	base := Default()
	base.Exclude = []string{"**/a/**", "**/b/**"}
	project := Default()
	project.Exclude = []string{"**/b/**", "**/c/**"}
	project.Search.MaxResults = 5

	merged := mergeConfigs(base, project)

	assert.Equal(t, 5, merged.Search.MaxResults)
	assert.Len(t, merged.Exclude, 3)
	assert.Contains(t, merged.Exclude, "**/a/**")
	assert.Contains(t, merged.Exclude, "**/c/**")
}

func TestLoadKDLMissingFile(t *testing.T) {
	cfg, err := LoadKDL(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadFileExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.kdl")
	err := os.WriteFile(path, []byte("search {\n    max_results 7\n}\n"), 0644)
	require.NoError(t, err)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.MaxResults)
	assert.Equal(t, dir, cfg.Project.Root, "root defaults to the config file's directory")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.kdl"))
	assert.Error(t, err)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"10MB", 10 * 1024 * 1024},
		{"500KB", 500 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"123", 123},
		{"42B", 42},
	}

	for _, test := range tests {
		got, err := parseSize(test.input)
		require.NoError(t, err, test.input)
		assert.Equal(t, test.expected, got, test.input)
	}

	_, err := parseSize("not-a-size")
	assert.Error(t, err)
}

func TestBuildArtifactDetectorTsconfig(t *testing.T) {
	root := t.TempDir()
	err := os.WriteFile(filepath.Join(root, "tsconfig.json"),
		[]byte(`{"compilerOptions": {"outDir": "./build-ts"}}`), 0644)
	require.NoError(t, err)

	patterns := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.Contains(t, patterns, "**/build-ts/**")
}

func TestBuildArtifactDetectorCargo(t *testing.T) {
	root := t.TempDir()
	err := os.WriteFile(filepath.Join(root, "Cargo.toml"),
		[]byte("[build]\ntarget-dir = \"custom-target\"\n"), 0644)
	require.NoError(t, err)

	patterns := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.Contains(t, patterns, "**/custom-target/**")
}

func TestBuildArtifactDetectorVite(t *testing.T) {
	root := t.TempDir()
	err := os.WriteFile(filepath.Join(root, "vite.config.ts"),
		[]byte("export default defineConfig({\n  build: { outDir: 'out' },\n})\n"), 0644)
	require.NoError(t, err)

	patterns := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.Contains(t, patterns, "**/out/**")
}

func TestBuildArtifactDetectorEmptyRoot(t *testing.T) {
	patterns := NewBuildArtifactDetector(t.TempDir()).DetectOutputDirectories()
	assert.Empty(t, patterns)
}

func TestCleanOutputDir(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"dist", "dist"},
		{"./dist", "dist"},
		{"dist/", "dist"},
		{"", ""},
		{".", ""},
		{"..", ""},
		{"di*st", ""},
	}

	for _, test := range tests {
		if got := cleanOutputDir(test.input); got != test.expected {
			t.Errorf("cleanOutputDir(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}
