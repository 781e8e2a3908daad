package semantic

import "testing"

func TestSuggestRanksCloseNamesFirst(t *testing.T) {
	s := NewSuggester()
	candidates := []string{"Launch", "SearchEngine", "Parse", "Search", "Search"}
	got := s.Suggest("Serach", candidates, 5)
	if len(got) == 0 || got[0] != "Search" {
		t.Fatalf("Suggest(Serach) = %v, want Search first", got)
	}
	for _, name := range got {
		if name == "Launch" || name == "Parse" {
			t.Errorf("dissimilar name %q suggested", name)
		}
	}
	seen := make(map[string]int)
	for _, name := range got {
		seen[name]++
	}
	if seen["Search"] != 1 {
		t.Errorf("Search suggested %d times, want once", seen["Search"])
	}
}

func TestSuggestSkipsTheQueryItself(t *testing.T) {
	s := NewSuggester()
	got := s.Suggest("Search", []string{"search", "Searcher"}, 5)
	for _, name := range got {
		if name == "search" {
			t.Errorf("suggested the query back: %v", got)
		}
	}
}

func TestSuggestStemOverlapBoost(t *testing.T) {
	s := NewSuggester()
	got := s.Suggest("validation", []string{"validate_input", "render_frame"}, 5)
	found := false
	for _, name := range got {
		if name == "validate_input" {
			found = true
		}
		if name == "render_frame" {
			t.Error("render_frame suggested for validation")
		}
	}
	if !found {
		t.Errorf("validate_input missing from %v", got)
	}
}

func TestSuggestHonorsMax(t *testing.T) {
	s := NewSuggester()
	candidates := []string{"handler", "handlers", "handle", "handled"}
	got := s.Suggest("handlr", candidates, 2)
	if len(got) > 2 {
		t.Errorf("got %d suggestions, want at most 2", len(got))
	}
}

func TestSuggestEmptyQuery(t *testing.T) {
	s := NewSuggester()
	if got := s.Suggest("", []string{"anything"}, 5); got != nil {
		t.Errorf("Suggest(\"\") = %v, want nil", got)
	}
}
