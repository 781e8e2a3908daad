// Build artifact detection from language-specific configuration files.
// Parses package.json, tsconfig.json, vite.config.*, Cargo.toml, and
// pyproject.toml to find output directories that should never be indexed.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds language-specific build output directories
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a new build artifact detector
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories scans for build configuration files and extracts
// output directories as glob patterns to exclude (e.g. "**/dist/**").
func (d *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string

	patterns = append(patterns, d.detectTypeScriptOutputs()...)
	patterns = append(patterns, d.detectNodeOutputs()...)
	patterns = append(patterns, d.detectViteOutputs()...)
	patterns = append(patterns, d.detectRustOutputs()...)
	patterns = append(patterns, d.detectPythonOutputs()...)

	return DeduplicatePatterns(patterns)
}

// detectTypeScriptOutputs reads compilerOptions.outDir from tsconfig.json
func (d *BuildArtifactDetector) detectTypeScriptOutputs() []string {
	data, err := os.ReadFile(filepath.Join(d.projectRoot, "tsconfig.json"))
	if err != nil {
		return nil
	}

	var tsconfig struct {
		CompilerOptions struct {
			OutDir string `json:"outDir"`
		} `json:"compilerOptions"`
	}
	if json.Unmarshal(data, &tsconfig) != nil {
		return nil
	}

	if dir := cleanOutputDir(tsconfig.CompilerOptions.OutDir); dir != "" {
		return []string{"**/" + dir + "/**"}
	}
	return nil
}

// detectNodeOutputs scans package.json build scripts for --outDir flags
func (d *BuildArtifactDetector) detectNodeOutputs() []string {
	data, err := os.ReadFile(filepath.Join(d.projectRoot, "package.json"))
	if err != nil {
		return nil
	}

	var pkg struct {
		Scripts map[string]string `json:"scripts"`
	}
	if json.Unmarshal(data, &pkg) != nil {
		return nil
	}

	var patterns []string
	for _, script := range pkg.Scripts {
		parts := strings.Fields(script)
		for i, part := range parts {
			if (part == "--outDir" || part == "-outDir") && i+1 < len(parts) {
				if dir := cleanOutputDir(strings.Trim(parts[i+1], `"'`)); dir != "" {
					patterns = append(patterns, "**/"+dir+"/**")
				}
			}
		}
	}
	return patterns
}

var viteOutDir = regexp.MustCompile(`\boutDir\s*:\s*['"]([^'"]+)['"]`)

// detectViteOutputs scans vite.config.* for a custom build.outDir. Vite
// configs are executable code, so only a literal string value is
// recognized.
func (d *BuildArtifactDetector) detectViteOutputs() []string {
	var patterns []string
	for _, name := range []string{"vite.config.js", "vite.config.ts", "vite.config.mjs", "vite.config.mts"} {
		data, err := os.ReadFile(filepath.Join(d.projectRoot, name))
		if err != nil {
			continue
		}
		m := viteOutDir.FindSubmatch(data)
		if m == nil {
			continue
		}
		if dir := cleanOutputDir(string(m[1])); dir != "" {
			patterns = append(patterns, "**/"+dir+"/**")
		}
	}
	return patterns
}

// detectRustOutputs reads a custom target directory from Cargo.toml
func (d *BuildArtifactDetector) detectRustOutputs() []string {
	data, err := os.ReadFile(filepath.Join(d.projectRoot, "Cargo.toml"))
	if err != nil {
		return nil
	}

	var cargo struct {
		Build struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"build"`
	}
	if toml.Unmarshal(data, &cargo) != nil {
		return nil
	}

	if dir := cleanOutputDir(cargo.Build.TargetDir); dir != "" {
		return []string{"**/" + dir + "/**"}
	}
	// target/ itself is in the default exclusions
	return nil
}

// detectPythonOutputs reads build target directories from pyproject.toml
func (d *BuildArtifactDetector) detectPythonOutputs() []string {
	data, err := os.ReadFile(filepath.Join(d.projectRoot, "pyproject.toml"))
	if err != nil {
		return nil
	}

	var pyproject struct {
		Tool struct {
			Poetry struct {
				Build struct {
					TargetDir string `toml:"target-dir"`
				} `toml:"build"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if toml.Unmarshal(data, &pyproject) != nil {
		return nil
	}

	if dir := cleanOutputDir(pyproject.Tool.Poetry.Build.TargetDir); dir != "" {
		return []string{"**/" + dir + "/**"}
	}
	return nil
}

// cleanOutputDir normalizes a manifest-declared output path to a bare
// directory name usable in a glob, rejecting anything suspicious.
func cleanOutputDir(dir string) string {
	dir = strings.TrimSpace(dir)
	dir = strings.TrimPrefix(dir, "./")
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || dir == "." || dir == ".." || strings.ContainsAny(dir, "*?[") {
		return ""
	}
	return dir
}

// DeduplicatePatterns removes duplicate exclusion patterns
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
