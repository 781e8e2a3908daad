package semantic

import "testing"

func TestSplitName(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"myFileName", []string{"my", "file", "name"}},
		{"FileExplorerViewModel", []string{"file", "explorer", "view", "model"}},
		{"my_file-name.ext", []string{"my", "file", "name", "ext"}},
		{"SCREAMING_SNAKE", []string{"screaming", "snake"}},
		{"parseJSON", []string{"parse", "json"}},
		{"HTTPServer2Go", []string{"http", "server", "2", "go"}},
		{"v2Handler", []string{"v", "2", "handler"}},
		{"abc", []string{"abc"}},
		{"", nil},
		{"__", nil},
	}
	for _, tt := range tests {
		got := SplitName(tt.name)
		if len(got) != len(tt.want) {
			t.Errorf("SplitName(%q) = %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitName(%q)[%d] = %q, want %q", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}
