package protocol

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitLongLine splits text into fragments of at most max bytes, cutting
// only between UTF-8 sequences. Text that already fits is returned as the
// only fragment. Longer text is broken at the last whitespace run inside
// each window, or hard at the limit when the window has none. Fragments
// after the first have their leading whitespace removed, so joining
// single-spaced text back with one space reproduces it. Bytes are never
// rewritten, invalid UTF-8 included.
func SplitLongLine(text string, max int) []string {
	if max <= 0 {
		max = MaxLineLength
	}
	if len(text) <= max {
		return []string{text}
	}

	var fragments []string
	rest := text
	for len(rest) > max {
		cut := breakPoint(rest, max)
		fragments = append(fragments, rest[:cut])
		rest = strings.TrimLeftFunc(rest[cut:], unicode.IsSpace)
	}
	if rest != "" {
		fragments = append(fragments, rest)
	}

	return fragments
}

// breakPoint returns the byte offset where the next fragment ends.
// len(s) > max.
func breakPoint(s string, max int) int {
	// limit is the last rune boundary within the window
	limit := 0
	for limit < len(s) {
		_, size := utf8.DecodeRuneInString(s[limit:])
		if limit+size > max {
			break
		}
		limit += size
	}
	if limit == 0 {
		// A single sequence wider than the window still has to go out whole
		_, size := utf8.DecodeRuneInString(s)
		return size
	}

	// A space starting right after the window is also a clean break.
	last := -1
	for i := 0; i <= limit && i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			last = i
		}
		i += size
	}
	if last < 0 {
		return limit
	}

	start := last
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:start])
		if !unicode.IsSpace(r) {
			break
		}
		start -= size
	}
	if start == 0 {
		return limit
	}
	return start
}
