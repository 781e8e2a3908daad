package imports

import (
	"testing"

	"github.com/standardbeagle/wci/internal/types"
)

type pathSet map[string]bool

func (s pathSet) Has(p string) bool { return s[p] }

func mustScanner(t *testing.T, lang types.LanguageID) Scanner {
	t.Helper()
	sc, ok := For(lang, 0)
	if !ok {
		t.Fatalf("no import scanner for language %s", lang)
	}
	return sc
}

func findRef(refs []types.ImportReference, raw string) (types.ImportReference, bool) {
	for _, r := range refs {
		if r.ImportedPath == raw {
			return r, true
		}
	}
	return types.ImportReference{}, false
}

func TestForUnsupportedLanguage(t *testing.T) {
	if _, ok := For(types.LangNone, 0); ok {
		t.Error("expected no scanner for LangNone")
	}
}

func TestTypeScriptImports(t *testing.T) {
	files := pathSet{
		"src/app/util.ts":              true,
		"src/lib/helpers.ts":           true,
		"src/app/components/index.tsx": true,
		"src/app/data.json":            true,
	}
	src := `import { format } from "./util";
import * as helpers from "../lib/helpers";
import Components from "./components";
import data from "./data.json";
import React from "react";
import "./missing";
export { format } from "./util";
const fs = require("fs");
`
	sc := mustScanner(t, types.LangTypeScript)
	refs := sc.Scan("src/app/main.ts", src, files)

	tests := []struct {
		raw      string
		kind     types.ImportKind
		resolved string
	}{
		{"./util", types.ImportInternal, "src/app/util.ts"},
		{"../lib/helpers", types.ImportInternal, "src/lib/helpers.ts"},
		{"./components", types.ImportInternal, "src/app/components/index.tsx"},
		{"./data.json", types.ImportInternal, "src/app/data.json"},
		{"react", types.ImportExternal, ""},
		{"./missing", types.ImportExternal, ""},
		{"fs", types.ImportExternal, ""},
	}
	for _, tt := range tests {
		ref, ok := findRef(refs, tt.raw)
		if !ok {
			t.Errorf("import %q not detected", tt.raw)
			continue
		}
		if ref.Kind != tt.kind {
			t.Errorf("%s: kind = %d, want %d", tt.raw, ref.Kind, tt.kind)
		}
		if ref.ResolvedPath != tt.resolved {
			t.Errorf("%s: resolved = %q, want %q", tt.raw, ref.ResolvedPath, tt.resolved)
		}
	}

	// The re-export of ./util is a second reference to the same path.
	count := 0
	for _, r := range refs {
		if r.ImportedPath == "./util" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("./util referenced %d times, want 2", count)
	}
}

func TestImportEscapingWorkspaceStaysExternal(t *testing.T) {
	files := pathSet{"util.ts": true}
	sc := mustScanner(t, types.LangTypeScript)
	refs := sc.Scan("main.ts", `import x from "../../outside";`, files)
	if len(refs) != 1 {
		t.Fatalf("detected %d imports, want 1", len(refs))
	}
	if refs[0].Kind != types.ImportExternal {
		t.Error("import escaping the workspace resolved as internal")
	}
}

func TestPythonImports(t *testing.T) {
	files := pathSet{
		"utils.py":         true,
		"pkg/__init__.py":  true,
		"pkg/models.py":    true,
		"pkg/db/client.py": true,
	}
	src := `import os
import utils
import json, sys
from . import helpers
from .models import User
from .db.client import Client
from collections import OrderedDict
`
	sc := mustScanner(t, types.LangPython)
	refs := sc.Scan("pkg/main.py", src, files)

	tests := []struct {
		raw      string
		kind     types.ImportKind
		resolved string
	}{
		{"os", types.ImportExternal, ""},
		{"utils", types.ImportInternal, "utils.py"},
		{"json", types.ImportExternal, ""},
		{"sys", types.ImportExternal, ""},
		{".", types.ImportInternal, "pkg/__init__.py"},
		{".models", types.ImportInternal, "pkg/models.py"},
		{".db.client", types.ImportInternal, "pkg/db/client.py"},
		{"collections", types.ImportExternal, ""},
	}
	for _, tt := range tests {
		ref, ok := findRef(refs, tt.raw)
		if !ok {
			t.Errorf("import %q not detected", tt.raw)
			continue
		}
		if ref.Kind != tt.kind {
			t.Errorf("%s: kind = %d, want %d", tt.raw, ref.Kind, tt.kind)
		}
		if ref.ResolvedPath != tt.resolved {
			t.Errorf("%s: resolved = %q, want %q", tt.raw, ref.ResolvedPath, tt.resolved)
		}
	}
}

func TestCSharpImports(t *testing.T) {
	files := pathSet{
		"App/Services.cs": true,
		"App/Models.cs":   true,
	}
	src := `using System;
using System.Text;
using App.Services;
using static App.Models;
using Alias = App.Services;
using var stream = File.OpenRead(path);
`
	sc := mustScanner(t, types.LangCSharp)
	refs := sc.Scan("App/Program.cs", src, files)

	tests := []struct {
		raw      string
		kind     types.ImportKind
		resolved string
	}{
		{"System", types.ImportExternal, ""},
		{"System.Text", types.ImportExternal, ""},
		{"App.Services", types.ImportInternal, "App/Services.cs"},
		{"App.Models", types.ImportInternal, "App/Models.cs"},
	}
	for _, tt := range tests {
		ref, ok := findRef(refs, tt.raw)
		if !ok {
			t.Errorf("using %q not detected", tt.raw)
			continue
		}
		if ref.Kind != tt.kind {
			t.Errorf("%s: kind = %d, want %d", tt.raw, ref.Kind, tt.kind)
		}
		if ref.ResolvedPath != tt.resolved {
			t.Errorf("%s: resolved = %q, want %q", tt.raw, ref.ResolvedPath, tt.resolved)
		}
	}

	if _, ok := findRef(refs, "var"); ok {
		t.Error("using-declaration statement detected as import")
	}
	aliasCount := 0
	for _, r := range refs {
		if r.ImportedPath == "App.Services" {
			aliasCount++
		}
	}
	if aliasCount != 2 {
		t.Errorf("App.Services referenced %d times, want 2 (direct + alias)", aliasCount)
	}
}

func TestGoImports(t *testing.T) {
	files := pathSet{
		"internal/store/store.go": true,
		"internal/lang/lang.go":   true,
	}
	src := "package main\n" +
		"\n" +
		"import \"fmt\"\n" +
		"\n" +
		"import (\n" +
		"\t\"os\"\n" +
		"\t\"github.com/standardbeagle/wci/internal/store\"\n" +
		"\tlangpkg \"github.com/standardbeagle/wci/internal/lang\"\n" +
		")\n"

	sc := mustScanner(t, types.LangGo)
	refs := sc.Scan("cmd/wci/main.go", src, files)

	tests := []struct {
		raw      string
		kind     types.ImportKind
		resolved string
	}{
		{"fmt", types.ImportExternal, ""},
		{"os", types.ImportExternal, ""},
		{"github.com/standardbeagle/wci/internal/store", types.ImportInternal, "internal/store/store.go"},
		{"github.com/standardbeagle/wci/internal/lang", types.ImportInternal, "internal/lang/lang.go"},
	}
	for _, tt := range tests {
		ref, ok := findRef(refs, tt.raw)
		if !ok {
			t.Errorf("import %q not detected", tt.raw)
			continue
		}
		if ref.Kind != tt.kind {
			t.Errorf("%s: kind = %d, want %d", tt.raw, ref.Kind, tt.kind)
		}
		if ref.ResolvedPath != tt.resolved {
			t.Errorf("%s: resolved = %q, want %q", tt.raw, ref.ResolvedPath, tt.resolved)
		}
	}
}

func TestImportLimit(t *testing.T) {
	files := pathSet{}
	src := ""
	for i := 0; i < 20; i++ {
		src += "import \"pkg" + string(rune('a'+i)) + "\";\n"
	}
	sc, _ := For(types.LangTypeScript, 5)
	refs := sc.Scan("main.ts", src, files)
	if len(refs) != 5 {
		t.Errorf("recorded %d imports, want limit of 5", len(refs))
	}
}

func TestImporterSideOfReference(t *testing.T) {
	files := pathSet{"b.py": true}
	sc := mustScanner(t, types.LangPython)
	refs := sc.Scan("a.py", "import b\n", files)
	if len(refs) != 1 {
		t.Fatalf("detected %d imports, want 1", len(refs))
	}
	if refs[0].ImporterPath != "a.py" {
		t.Errorf("importer = %q, want a.py", refs[0].ImporterPath)
	}
}
