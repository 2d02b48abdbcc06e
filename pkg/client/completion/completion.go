// Package completion implements cycling tab completion over nicknames,
// channels and commands. It holds no state of its own: every call takes
// the previous State and returns the next one.
package completion

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// State is one completion session. The zero value is Inactive.
type State struct {
	Active       bool
	Matches      []string // rendered candidates, suffix included
	Index        int
	OriginalText string
	Start        int // byte offset of the completed word
	OriginalWord string
}

// Inactive is the state before any completion
var Inactive = State{}

// Options are the candidate sources
type Options struct {
	Users    []string
	Channels []string
	Commands []string // without the leading slash
}

// Result is the completed text and the state to pass to the next call
type Result struct {
	Text  string
	State State
}

// expected is the text this state produced last time
func (s State) expected() string {
	end := s.Start + len(s.OriginalWord)
	return s.OriginalText[:s.Start] + s.Matches[s.Index] + s.OriginalText[end:]
}

func (s State) valid() bool {
	return s.Active && len(s.Matches) > 0 && s.Index >= 0 && s.Index < len(s.Matches) &&
		s.Start >= 0 && s.Start+len(s.OriginalWord) <= len(s.OriginalText)
}

// Complete starts a session or advances the current one. It returns false
// when there is nothing to complete, or when an active session no longer
// matches text because it was edited; the caller must then reset to
// Inactive before calling again.
func Complete(state State, text string, opts Options) (Result, bool) {
	if state.Active {
		if !state.valid() || text != state.expected() {
			return Result{}, false
		}
		next := state
		next.Index = (state.Index + 1) % len(state.Matches)
		return Result{Text: next.expected(), State: next}, true
	}

	start := wordStart(text)
	word := text[start:]
	if word == "" {
		return Result{}, false
	}

	matches := candidates(word, strings.TrimSpace(text[:start]) == "", opts)
	if len(matches) == 0 {
		return Result{}, false
	}

	next := State{
		Active:       true,
		Matches:      matches,
		Index:        0,
		OriginalText: text,
		Start:        start,
		OriginalWord: word,
	}
	return Result{Text: next.expected(), State: next}, true
}

// Next is Complete with the reset-and-retry the caller would otherwise do
// when a stale session is detected
func Next(state State, text string, opts Options) (Result, bool) {
	res, ok := Complete(state, text, opts)
	if !ok && state.Active {
		return Complete(Inactive, text, opts)
	}
	return res, ok
}

// wordStart returns the byte offset of the trailing non-whitespace run
func wordStart(text string) int {
	i := len(text)
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:i])
		if unicode.IsSpace(r) {
			break
		}
		i -= size
	}
	return i
}

func candidates(word string, atMessageStart bool, opts Options) []string {
	switch word[0] {
	case '/':
		names := prefixMatches(word[1:], opts.Commands)
		sort.Strings(names)
		return render(names, "/", " ")
	case '#':
		return render(sortFold(prefixMatches(word, opts.Channels)), "", " ")
	default:
		suffix := " "
		if atMessageStart {
			suffix = ": "
		}
		return render(sortFold(prefixMatches(word, opts.Users)), "", suffix)
	}
}

// prefixMatches returns the distinct items with a case-insensitive prefix
// match on prefix, excluding an exact match
func prefixMatches(prefix string, items []string) []string {
	lower := strings.ToLower(prefix)
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		l := strings.ToLower(item)
		if l == lower || !strings.HasPrefix(l, lower) || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func sortFold(items []string) []string {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i]) < strings.ToLower(items[j])
	})
	return items
}

func render(items []string, prefix, suffix string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = prefix + item + suffix
	}
	return out
}
