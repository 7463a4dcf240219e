package javaprint

import (
	"bytes"
	"regexp"
	"strings"
)

// tabWidth is the number of spaces a tab expands to.
const tabWidth = 4

// FilterOptions selects the source transformations applied before rendering.
type FilterOptions struct {
	RemoveJavadoc      bool
	RemoveComments     bool
	CollapseBlankLines bool
	HideInitComponents bool
	HideMain           bool
	TabsToSpaces       bool
	LineNumbers        bool
}

// FilterResult is the filtered source.
type FilterResult struct {
	Text string

	// LineNumbers holds the original line number of each line of Text, or 0
	// for a line with no source counterpart. Nil unless requested.
	LineNumbers []int

	// MaxLineNumber is the last line number of the unfiltered source.
	MaxLineNumber int
}

// ApplyFilters transforms Java source according to opts. Filters run in a
// fixed order: comments, hidden method bodies, blank lines, then tabs.
// CRLF line endings are normalized to LF.
func ApplyFilters(content string, opts FilterOptions) FilterResult {
	t := newTrackedText(content)
	maxLine := t.lastLine()

	switch {
	case opts.RemoveComments:
		t = stripComments(t, opts.RemoveJavadoc)
	case opts.RemoveJavadoc:
		t = stripJavadoc(t)
	}
	if opts.HideInitComponents {
		t = hideMethodBodies(t, initComponentsSignature, "initComponents()")
	}
	if opts.HideMain {
		t = hideMethodBodies(t, mainSignature, "main()")
	}
	if opts.CollapseBlankLines {
		t = collapseBlankLines(t)
	}
	if opts.TabsToSpaces {
		t = expandTabs(t)
	}

	res := FilterResult{Text: string(t.text), MaxLineNumber: maxLine}
	if opts.LineNumbers {
		res.LineNumbers = t.lineNumbers()
	}
	return res
}

// trackedText is source text where every byte remembers the 1-based line it
// came from. Filters build a new trackedText instead of editing in place.
type trackedText struct {
	text  []byte
	lines []int
}

func newTrackedText(s string) trackedText {
	t := trackedText{
		text:  make([]byte, 0, len(s)),
		lines: make([]int, 0, len(s)),
	}
	line := 1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			continue
		}
		t.text = append(t.text, c)
		t.lines = append(t.lines, line)
		if c == '\n' {
			line++
		}
	}
	return t
}

func (t trackedText) lastLine() int {
	if len(t.lines) == 0 {
		return 1
	}
	return t.lines[len(t.lines)-1]
}

// copyRange appends src[from:to] keeping origins.
func (t *trackedText) copyRange(src trackedText, from, to int) {
	t.text = append(t.text, src.text[from:to]...)
	t.lines = append(t.lines, src.lines[from:to]...)
}

// insert appends s with every byte attributed to line.
func (t *trackedText) insert(s string, line int) {
	t.text = append(t.text, s...)
	for range len(s) {
		t.lines = append(t.lines, line)
	}
}

// lineNumbers returns the origin of the first byte of each output line. A
// trailing empty segment after the final newline gets 0.
func (t trackedText) lineNumbers() []int {
	nums := make([]int, 0, bytes.Count(t.text, []byte{'\n'})+1)
	start := 0
	for i, c := range t.text {
		if c == '\n' {
			nums = append(nums, t.lines[start])
			start = i + 1
		}
	}
	if start < len(t.text) {
		nums = append(nums, t.lines[start])
	} else {
		nums = append(nums, 0)
	}
	return nums
}

// Java lexical elements that can hide comment or brace characters.
type tokenKind int

const (
	tokenNone tokenKind = iota
	tokenString
	tokenChar
	tokenTextBlock
	tokenLineComment
	tokenBlockComment
	tokenJavadoc
)

// scanToken reports the literal or comment starting at i and the index just
// past its end. For tokenNone, end is i. Unterminated tokens run to the end
// of their line (literals) or of the text (block comments).
func scanToken(b []byte, i int) (tokenKind, int) {
	switch {
	case bytes.HasPrefix(b[i:], []byte(`"""`)):
		return tokenTextBlock, scanQuoted(b, i+3, `"""`, false)
	case b[i] == '"':
		return tokenString, scanQuoted(b, i+1, `"`, true)
	case b[i] == '\'':
		return tokenChar, scanQuoted(b, i+1, `'`, true)
	case bytes.HasPrefix(b[i:], []byte("//")):
		end := bytes.IndexByte(b[i:], '\n')
		if end < 0 {
			return tokenLineComment, len(b)
		}
		return tokenLineComment, i + end
	case bytes.HasPrefix(b[i:], []byte("/*")):
		kind := tokenBlockComment
		if bytes.HasPrefix(b[i:], []byte("/**")) && !bytes.HasPrefix(b[i:], []byte("/**/")) {
			kind = tokenJavadoc
		}
		end := bytes.Index(b[i+2:], []byte("*/"))
		if end < 0 {
			return kind, len(b)
		}
		return kind, i + 2 + end + 2
	}
	return tokenNone, i
}

// scanQuoted returns the index just past the closing quote, honoring
// backslash escapes.
func scanQuoted(b []byte, i int, quote string, stopAtNewline bool) int {
	for i < len(b) {
		switch {
		case b[i] == '\\':
			i += 2
			continue
		case stopAtNewline && b[i] == '\n':
			return i
		case bytes.HasPrefix(b[i:], []byte(quote)):
			return i + len(quote)
		}
		i++
	}
	return len(b)
}

// removeTokens drops the comments for which drop returns true.
func removeTokens(t trackedText, drop func(tokenKind) bool) trackedText {
	out := trackedText{
		text:  make([]byte, 0, len(t.text)),
		lines: make([]int, 0, len(t.text)),
	}
	i := 0
	for i < len(t.text) {
		kind, end := scanToken(t.text, i)
		if kind == tokenNone {
			out.copyRange(t, i, i+1)
			i++
			continue
		}
		if !drop(kind) {
			out.copyRange(t, i, end)
		}
		i = end
	}
	return out
}

func stripComments(t trackedText, removeJavadoc bool) trackedText {
	return removeTokens(t, func(k tokenKind) bool {
		switch k {
		case tokenLineComment, tokenBlockComment:
			return true
		case tokenJavadoc:
			return removeJavadoc
		}
		return false
	})
}

func stripJavadoc(t trackedText) trackedText {
	return removeTokens(t, func(k tokenKind) bool { return k == tokenJavadoc })
}

var (
	initComponentsSignature = regexp.MustCompile(`\Aprivate\s+void\s+initComponents\s*\(\s*\)`)
	mainSignature           = regexp.MustCompile(`\A(?:(?:public|static|final)\s+)*static\s+(?:(?:public|final)\s+)*void\s+main\s*\(\s*(?:final\s+)?String\s*(?:\[\s*\]|\.\.\.)?\s*\w+\s*(?:\[\s*\])?\s*\)`)
)

// hideMethodBodies replaces the body of every method whose declaration
// matches sig with a one-line placeholder comment. Matches inside comments
// or literals are ignored, as are declarations without a balanced body.
func hideMethodBodies(t trackedText, sig *regexp.Regexp, label string) trackedText {
	out := trackedText{
		text:  make([]byte, 0, len(t.text)),
		lines: make([]int, 0, len(t.text)),
	}
	b := t.text
	i := 0
	for i < len(b) {
		if kind, end := scanToken(b, i); kind != tokenNone {
			out.copyRange(t, i, end)
			i = end
			continue
		}
		if isIdentByte(b[i]) && (i == 0 || !isIdentByte(b[i-1])) {
			if loc := sig.FindIndex(b[i:]); loc != nil {
				if open, closing, ok := methodBody(b, i+loc[1]); ok {
					writePlaceholder(&out, t, i, open, closing, label)
					i = closing + 1
					continue
				}
			}
		}
		out.copyRange(t, i, i+1)
		i++
	}
	return out
}

// methodBody finds the braces of the body that follows a declaration ending
// at i. A ';' before the opening brace means there is no body.
func methodBody(b []byte, i int) (open, closing int, ok bool) {
	for i < len(b) && b[i] != '{' {
		if b[i] == ';' {
			return 0, 0, false
		}
		if kind, end := scanToken(b, i); kind != tokenNone {
			i = end
			continue
		}
		i++
	}
	if i >= len(b) {
		return 0, 0, false
	}
	open = i
	depth := 0
	for i < len(b) {
		if kind, end := scanToken(b, i); kind != tokenNone {
			i = end
			continue
		}
		switch b[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return open, i, true
			}
		}
		i++
	}
	return 0, 0, false
}

// writePlaceholder emits the declaration from start to the opening brace,
// then a collapsed body. The comment line is attributed to the first body
// line and the closing brace keeps its own line.
func writePlaceholder(out *trackedText, t trackedText, start, open, closing int, label string) {
	declEnd := open
	for declEnd > start && isSpace(t.text[declEnd-1]) {
		declEnd--
	}
	out.copyRange(t, start, declEnd)

	indent := lineIndent(t.text, start)
	openLine := t.lines[open]
	closeLine := t.lines[closing]
	out.insert(" {\n", openLine)
	out.insert(indent+"    // "+label+" hidden\n", min(openLine+1, closeLine))
	out.insert(indent+"}", closeLine)
}

// lineIndent returns the leading whitespace of the line containing i.
func lineIndent(b []byte, i int) string {
	start := bytes.LastIndexByte(b[:i], '\n') + 1
	end := start
	for end < i && (b[end] == ' ' || b[end] == '\t') {
		end++
	}
	return string(b[start:end])
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

// collapseBlankLines reduces every run of whitespace-only lines to a single
// empty line.
func collapseBlankLines(t trackedText) trackedText {
	type segment struct {
		start, end int // content, excluding the newline at end
		blank      bool
	}

	var kept []segment
	prevBlank := false
	start := 0
	for {
		end := bytes.IndexByte(t.text[start:], '\n')
		last := end < 0
		if last {
			end = len(t.text)
		} else {
			end += start
		}

		blank := len(bytes.TrimSpace(t.text[start:end])) == 0
		if !blank || !prevBlank {
			kept = append(kept, segment{start: start, end: end, blank: blank})
		}
		prevBlank = blank

		if last {
			break
		}
		start = end + 1
	}

	out := trackedText{
		text:  make([]byte, 0, len(t.text)),
		lines: make([]int, 0, len(t.text)),
	}
	for i, seg := range kept {
		if !seg.blank {
			out.copyRange(t, seg.start, seg.end)
		}
		// Every segment but the last ends with a newline.
		if i < len(kept)-1 {
			out.copyRange(t, seg.end, seg.end+1)
		}
	}
	return out
}

func expandTabs(t trackedText) trackedText {
	if bytes.IndexByte(t.text, '\t') < 0 {
		return t
	}
	spaces := strings.Repeat(" ", tabWidth)
	out := trackedText{
		text:  make([]byte, 0, len(t.text)),
		lines: make([]int, 0, len(t.text)),
	}
	for i, c := range t.text {
		if c == '\t' {
			out.insert(spaces, t.lines[i])
			continue
		}
		out.copyRange(t, i, i+1)
	}
	return out
}
