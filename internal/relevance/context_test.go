package relevance

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/standardbeagle/wci/internal/store"
	"github.com/standardbeagle/wci/internal/types"
)

func fakeReader(contents map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		if text, ok := contents[path]; ok {
			return []byte(text), nil
		}
		return nil, os.ErrNotExist
	}
}

func numberedLines(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "l%d\n", i)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func newTestBuilder() (*Builder, map[string]string) {
	st := seedGraph()
	st.ReplaceSymbols("app/main.cs", []types.SymbolEntry{
		{Name: "Handle", Kind: types.KindMethod, FilePath: "app/main.cs", Line: 50},
	})
	contents := map[string]string{
		"app/main.cs":    numberedLines(100),
		"lib/dep.cs":     "class Dep {}",
		"app/util.cs":    "class Util {}",
		"cli/caller.cs":  "class Caller {}",
		"docs/readme.md": "# readme",
	}
	b := NewBuilder(st)
	b.SetReader(fakeReader(contents))
	return b, contents
}

func TestBuildContextRendersRankedFiles(t *testing.T) {
	b, _ := newTestBuilder()
	res := b.BuildContext(Request{
		CurrentFile:    "app/main.cs",
		RecentlyEdited: []string{"lib/dep.cs"},
		TokenBudget:    100000,
	})
	if len(res.Files) == 0 || res.Files[0].Path != "app/main.cs" {
		t.Fatalf("files = %v, want app/main.cs first", res.Files)
	}
	if !strings.Contains(res.RenderedText, "=== File: app/main.cs ===") {
		t.Error("missing labeled section for the current file")
	}
	if !strings.Contains(res.RenderedText, "class Dep {}") {
		t.Error("missing imported file content")
	}
	first := strings.Index(res.RenderedText, "app/main.cs")
	second := strings.Index(res.RenderedText, "lib/dep.cs")
	if first == -1 || second == -1 || first > second {
		t.Error("sections not in rank order")
	}
}

func TestBuildContextFileMention(t *testing.T) {
	b, _ := newTestBuilder()
	res := b.BuildContext(Request{
		CurrentFile: "app/main.cs",
		Mentions: []Mention{
			{Path: "docs/readme.md"},
			{Path: "docs/readme.md"},
		},
		TokenBudget: 100000,
	})
	if len(res.Files) == 0 || res.Files[0].Path != "docs/readme.md" {
		t.Fatalf("files = %v, want the mention first", res.Files)
	}
	if strings.Count(res.RenderedText, "=== File: docs/readme.md ===") != 1 {
		t.Error("duplicate mention rendered twice")
	}
	if !strings.Contains(res.RenderedText, "# readme") {
		t.Error("mention content missing")
	}
}

func TestBuildContextSymbolWindow(t *testing.T) {
	b, _ := newTestBuilder()
	res := b.BuildContext(Request{
		Mentions:    []Mention{{Path: "app/main.cs", Name: "Handle"}},
		TokenBudget: 100000,
	})
	if !strings.Contains(res.RenderedText, "=== Symbol: Handle (app/main.cs:50) ===") {
		t.Fatalf("missing symbol header in %q", res.RenderedText)
	}
	for _, line := range []string{"l30\n", "l50\n", "l69\n"} {
		if !strings.Contains(res.RenderedText, line) {
			t.Errorf("window missing %q", line)
		}
	}
	if strings.Contains(res.RenderedText, "l29\n") || strings.Contains(res.RenderedText, "l71\n") {
		t.Error("window extends past 20 lines from the symbol")
	}
}

func TestBuildContextPerFileCeiling(t *testing.T) {
	st := store.New()
	st.CommitFile(types.FileEntry{Path: "big/gen.cs", Language: types.LangCSharp, SizeBytes: 150000}, nil, nil)
	b := NewBuilder(st)
	b.SetReader(fakeReader(map[string]string{"big/gen.cs": strings.Repeat("a", 150000)}))

	res := b.BuildContext(Request{CurrentFile: "big/gen.cs", TokenBudget: 100000})
	if !strings.Contains(res.RenderedText, "=== File: big/gen.cs (truncated) ===") {
		t.Fatal("missing truncation label")
	}
	if len(res.RenderedText) > types.ContextFileCharLimit+100 {
		t.Errorf("rendered %d chars, ceiling is %d", len(res.RenderedText), types.ContextFileCharLimit)
	}
}

func TestBuildContextUnreadableFileSkipped(t *testing.T) {
	b, contents := newTestBuilder()
	delete(contents, "lib/dep.cs")
	res := b.BuildContext(Request{
		CurrentFile:    "app/main.cs",
		RecentlyEdited: []string{"lib/dep.cs"},
		TokenBudget:    100000,
	})
	if strings.Contains(res.RenderedText, "lib/dep.cs") {
		t.Error("unreadable file rendered")
	}
	if !strings.Contains(res.RenderedText, "=== File: app/main.cs ===") {
		t.Error("readable files dropped alongside the unreadable one")
	}
}

func TestBuildContextTinyBudget(t *testing.T) {
	b, _ := newTestBuilder()
	res := b.BuildContext(Request{
		CurrentFile: "app/main.cs",
		Mentions:    []Mention{{Path: "docs/readme.md"}},
		TokenBudget: 1,
	})
	if len(res.Files) != 0 || res.RenderedText != "" {
		t.Errorf("tiny budget produced %d files, text %q", len(res.Files), res.RenderedText)
	}
}
