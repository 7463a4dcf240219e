package javaprint

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/alnah/go-javaprint/internal/assets"
)

// Fallback page colors when a chroma style does not define them.
const (
	themeBackground   = "#ffffff"
	themeDefaultColor = "#111111"
)

// ThemeStyle is a resolved highlighting theme.
type ThemeStyle struct {
	ID         string
	CSS        string
	Background string
	Color      string
}

// RenderContext holds the per-job rendering resources shared by every file.
type RenderContext struct {
	Theme       ThemeStyle
	Highlighter Highlighter
	FontCSS     string
	FontStack   string
	BaseCSS     string
}

// ContextBuilder resolves render contexts from settings. Theme and font
// stylesheets are built once per id and cached for the builder's lifetime.
type ContextBuilder struct {
	catalog *assets.Catalog
	loader  assets.AssetLoader

	mu     sync.Mutex
	themes map[string]ThemeStyle
	fonts  map[string]string
	base   string
}

// NewContextBuilder creates a builder. A nil catalog uses the embedded one;
// a nil loader uses embedded assets only, so no fonts are inlined.
func NewContextBuilder(catalog *assets.Catalog, loader assets.AssetLoader) (*ContextBuilder, error) {
	if catalog == nil {
		c, err := assets.DefaultCatalog()
		if err != nil {
			return nil, err
		}
		catalog = c
	}
	if loader == nil {
		loader = assets.NewEmbeddedLoader()
	}
	return &ContextBuilder{
		catalog: catalog,
		loader:  loader,
		themes:  make(map[string]ThemeStyle),
		fonts:   make(map[string]string),
	}, nil
}

// Catalog returns the catalog used to resolve ids.
func (b *ContextBuilder) Catalog() *assets.Catalog {
	return b.catalog
}

// Build returns the render context for s.
func (b *ContextBuilder) Build(s *RenderSettings) (*RenderContext, error) {
	base, err := b.baseCSS()
	if err != nil {
		return nil, err
	}
	theme, err := b.theme(s.Theme)
	if err != nil {
		return nil, err
	}
	font := b.catalog.Font(s.FontFamily)
	fontCSS, err := b.fontCSS(font)
	if err != nil {
		return nil, err
	}
	return &RenderContext{
		Theme:       theme,
		Highlighter: highlighterFor(s.Highlighter),
		FontCSS:     fontCSS,
		FontStack:   font.Stack,
		BaseCSS:     base,
	}, nil
}

func (b *ContextBuilder) baseCSS() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.base != "" {
		return b.base, nil
	}
	css, err := b.loader.LoadStyle(assets.BaseStyleName)
	if err != nil {
		return "", fmt.Errorf("loading base stylesheet: %w", err)
	}
	b.base = css
	return css, nil
}

func (b *ContextBuilder) theme(id string) (ThemeStyle, error) {
	t := b.catalog.Theme(id)

	b.mu.Lock()
	defer b.mu.Unlock()
	if cached, ok := b.themes[t.ID]; ok {
		return cached, nil
	}

	style := styles.Get(t.Style)
	var sb strings.Builder
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&sb, style); err != nil {
		return ThemeStyle{}, fmt.Errorf("%w: %s: %v", ErrThemeCSS, t.ID, err)
	}

	ts := ThemeStyle{
		ID:         t.ID,
		CSS:        sb.String(),
		Background: themeBackground,
		Color:      themeDefaultColor,
	}
	if fg := style.Get(chroma.Background).Colour; fg.IsSet() {
		ts.Color = fg.String()
	}
	b.themes[t.ID] = ts
	return ts, nil
}

// fontCSS inlines the font's woff2 files as base64 @font-face rules. Files
// the loader cannot find are skipped and the stack's fallbacks apply.
func (b *ContextBuilder) fontCSS(font assets.Font) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cached, ok := b.fonts[font.ID]; ok {
		return cached, nil
	}

	var rules []string
	for _, f := range font.Files {
		data, err := b.loader.LoadFont(f.Name)
		if errors.Is(err, assets.ErrFontNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrFontCSS, font.ID, err)
		}
		rules = append(rules, fmt.Sprintf(
			`@font-face { font-family: "%s"; font-style: normal; font-weight: %d; src: url(data:font/woff2;base64,%s) format("woff2"); font-display: swap; }`,
			font.Label, f.Weight, base64.StdEncoding.EncodeToString(data)))
	}
	css := strings.Join(rules, "\n")
	b.fonts[font.ID] = css
	return css, nil
}
