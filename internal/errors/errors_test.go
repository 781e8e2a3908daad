package errors

import (
	stderrors "errors"
	"io/fs"
	"testing"
)

func TestIndexingErrorBuilder(t *testing.T) {
	underlying := stderrors.New("disk gone")
	err := NewIndexingError("rebuild", underlying).
		WithFile("src/main.cs").
		WithRecoverable(true)

	if !err.IsRecoverable() {
		t.Error("expected recoverable")
	}
	if err.FilePath != "src/main.cs" {
		t.Errorf("expected file path, got %q", err.FilePath)
	}
	if !stderrors.Is(err, underlying) {
		t.Error("Unwrap should expose the underlying error")
	}
}

func TestFileErrorClassifiesPermission(t *testing.T) {
	err := NewFileError("read", "secret.cs", fs.ErrPermission)
	if err.Type != ErrorTypePermission {
		t.Errorf("expected permission type, got %v", err.Type)
	}

	err = NewFileError("read", "gone.cs", fs.ErrNotExist)
	if err.Type != ErrorTypeFileNotFound {
		t.Errorf("expected file_not_found type, got %v", err.Type)
	}
}

func TestExtractionErrorMessage(t *testing.T) {
	err := NewExtractionError("a.py", "python", 12, stderrors.New("pattern budget exceeded"))
	want := "extraction error at a.py:12 (python): pattern budget exceeded"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestMultiError(t *testing.T) {
	me := NewMultiError([]error{nil, stderrors.New("one"), nil})
	if len(me.Errors) != 1 {
		t.Fatalf("expected 1 error after filtering, got %d", len(me.Errors))
	}

	me.Append(nil)
	me.Append(stderrors.New("two"))
	if len(me.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(me.Errors))
	}

	empty := NewMultiError(nil)
	if empty.ErrOrNil() != nil {
		t.Error("empty MultiError should collapse to nil")
	}
	if me.ErrOrNil() == nil {
		t.Error("non-empty MultiError should not collapse to nil")
	}
}
