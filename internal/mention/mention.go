// Package mention parses chat input for @-triggered file and symbol
// references and produces ranked completion candidates. State is
// re-derived from the full (text, cursor) pair on every keystroke, so
// paste, backspace, and cursor jumps all land in the right mode without
// per-event bookkeeping.
package mention

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/standardbeagle/wci/internal/debug"
	"github.com/standardbeagle/wci/internal/search"
	"github.com/standardbeagle/wci/internal/types"
)

// State is the completion mode of the input session.
type State uint8

const (
	Idle State = iota
	FileMode
	SymbolMode
)

func (s State) String() string {
	switch s {
	case FileMode:
		return "file"
	case SymbolMode:
		return "symbol"
	default:
		return "idle"
	}
}

// Session tracks one chat input box. Not safe for concurrent use; each
// input surface owns its own Session.
type Session struct {
	engine *search.Engine

	text    string
	cursor  int
	state   State
	trigger int // byte offset of the @, -1 when idle
	query   string

	dismissed int // trigger offset cancelled by the user, -1 when clear
}

func NewSession(engine *search.Engine) *Session {
	return &Session{engine: engine, trigger: -1, dismissed: -1}
}

// Update re-parses the input after a keystroke and returns the new
// state. The trigger is the @ starting the word under the cursor; an @
// with a non-space character before it (user@email.com) never
// triggers. A cancelled trigger stays dismissed until the trigger
// itself changes.
func (s *Session) Update(text string, cursor int) State {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	s.text = text
	s.cursor = cursor

	state, trigger, query := derive(text, cursor)
	if s.dismissed != -1 {
		if trigger == s.dismissed {
			state, trigger, query = Idle, -1, ""
		} else {
			s.dismissed = -1
		}
	}
	s.state, s.trigger, s.query = state, trigger, query
	return s.state
}

// derive finds the word containing the cursor; the word triggers
// completion only when its first character is @.
func derive(text string, cursor int) (State, int, string) {
	start := cursor
	for start > 0 {
		r, n := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsSpace(r) {
			break
		}
		start -= n
	}
	if start >= cursor || text[start] != '@' {
		return Idle, -1, ""
	}
	rest := text[start+1 : cursor]
	if strings.HasPrefix(rest, "#") {
		return SymbolMode, start, rest[1:]
	}
	return FileMode, start, rest
}

func (s *Session) State() State { return s.state }

func (s *Session) Query() string { return s.query }

func (s *Session) Trigger() int { return s.trigger }

// Cancel dismisses the current trigger. The session stays idle for
// this trigger offset; a new trigger re-arms completion.
func (s *Session) Cancel() {
	if s.state == Idle {
		return
	}
	s.dismissed = s.trigger
	s.state, s.trigger, s.query = Idle, -1, ""
}

// Completions produces ranked candidates for the current query, nil
// when idle. File items insert @path tags; symbol items insert @#name
// tags with a path:line detail.
func (s *Session) Completions(ctx context.Context) []types.CompletionItem {
	switch s.state {
	case FileMode:
		results, _ := s.engine.SearchFiles(ctx, s.query, search.Options{})
		items := make([]types.CompletionItem, len(results))
		for i, r := range results {
			items[i] = types.CompletionItem{
				Label:      r.Name,
				Kind:       types.KindNone,
				InsertText: "@" + r.Path,
				Detail:     r.Path,
			}
		}
		debug.LogMention("file query %q: %d items", s.query, len(items))
		return items
	case SymbolMode:
		results, _ := s.engine.SearchSymbols(ctx, s.query, search.Options{})
		items := make([]types.CompletionItem, len(results))
		for i, r := range results {
			items[i] = types.CompletionItem{
				Label:      r.Name,
				Kind:       r.Kind,
				InsertText: "@#" + r.Name,
				Detail:     fmt.Sprintf("%s:%d", r.Path, r.Line),
			}
		}
		debug.LogMention("symbol query %q: %d items", s.query, len(items))
		return items
	default:
		return nil
	}
}

// CompletionsFor is the one-call form: update then complete.
func (s *Session) CompletionsFor(ctx context.Context, text string, cursor int) []types.CompletionItem {
	s.Update(text, cursor)
	return s.Completions(ctx)
}

// Commit replaces the trigger-through-cursor span with the item's tag
// plus one trailing space and returns the rewritten input and new
// cursor position. The session goes idle; the caller renders the tag
// as an atomic unit.
func (s *Session) Commit(item types.CompletionItem) (string, int) {
	if s.state == Idle {
		return s.text, s.cursor
	}
	text := s.text[:s.trigger] + item.InsertText + " " + s.text[s.cursor:]
	cursor := s.trigger + len(item.InsertText) + 1
	s.dismissed = -1
	s.Update(text, cursor)
	return text, cursor
}
