package semantic

import "testing"

func TestStemJoinsInflections(t *testing.T) {
	s := NewStemmer(3)
	forms := []string{"authenticate", "authentication", "authenticating"}
	root := s.Stem(forms[0])
	for _, f := range forms[1:] {
		if got := s.Stem(f); got != root {
			t.Errorf("Stem(%q) = %q, Stem(%q) = %q, want equal roots", f, got, forms[0], root)
		}
	}
	if s.Stem("validate") != s.Stem("validation") {
		t.Errorf("validate/validation stems differ: %q vs %q", s.Stem("validate"), s.Stem("validation"))
	}
	if got := s.Stem("running"); got != "run" {
		t.Errorf("Stem(running) = %q, want run", got)
	}
}

func TestStemMinLengthGuard(t *testing.T) {
	s := NewStemmer(3)
	for _, w := range []string{"go", "id", "ui"} {
		if got := s.Stem(w); got != w {
			t.Errorf("Stem(%q) = %q, want unchanged", w, got)
		}
	}
}

func TestStemExclusions(t *testing.T) {
	s := NewStemmer(3, "testing")
	if got := s.Stem("testing"); got != "testing" {
		t.Errorf("excluded word stemmed to %q", got)
	}
	if got := s.Stem("Testing"); got != "testing" {
		t.Errorf("exclusion is not case-insensitive: %q", got)
	}
	unguarded := NewStemmer(3)
	if got := unguarded.Stem("testing"); got != "test" {
		t.Errorf("Stem(testing) = %q, want test", got)
	}
}

func TestStemAllPreservesOrder(t *testing.T) {
	s := NewStemmer(3)
	got := s.StemAll([]string{"running", "go", "validation"})
	if len(got) != 3 || got[0] != "run" || got[1] != "go" {
		t.Errorf("StemAll = %v", got)
	}
}
