package javaprint

import (
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Highlighter turns source code into HTML markup made of class-annotated
// spans. The markup is not wrapped in pre or code elements.
type Highlighter interface {
	ID() string
	Highlight(code string) (string, error)
}

// chromaHighlighter highlights Java with chroma and emits chroma's standard
// short class names, matching the CSS written by themeCSS.
type chromaHighlighter struct {
	lexer chroma.Lexer
}

var _ Highlighter = (*chromaHighlighter)(nil)

func newChromaHighlighter() *chromaHighlighter {
	l := lexers.Get("java")
	if l == nil {
		l = lexers.Fallback
	}
	return &chromaHighlighter{lexer: chroma.Coalesce(l)}
}

func (h *chromaHighlighter) ID() string { return DefaultHighlighter }

func (h *chromaHighlighter) Highlight(code string) (string, error) {
	it, err := h.lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}

	var sb strings.Builder
	sb.Grow(len(code) * 2)
	for tok := it(); tok != chroma.EOF; tok = it() {
		text := html.EscapeString(tok.Value)
		class := tokenClass(tok.Type)
		if class == "" {
			sb.WriteString(text)
			continue
		}
		sb.WriteString(`<span class="`)
		sb.WriteString(class)
		sb.WriteString(`">`)
		sb.WriteString(text)
		sb.WriteString(`</span>`)
	}
	return sb.String(), nil
}

// tokenClass returns the CSS class for a token type, falling back to its
// sub-category and category.
func tokenClass(t chroma.TokenType) string {
	for _, tt := range []chroma.TokenType{t, t.SubCategory(), t.Category()} {
		if class, ok := chroma.StandardTypes[tt]; ok && class != "" {
			return class
		}
	}
	return ""
}

// highlighterFor returns the highlighter registered under id. Only chroma
// is available, so every id resolves to it.
func highlighterFor(string) Highlighter {
	return sharedHighlighter
}

var sharedHighlighter Highlighter = newChromaHighlighter()
