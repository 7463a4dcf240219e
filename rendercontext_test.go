package javaprint

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-javaprint/internal/assets"
)

func TestContextBuilder_Defaults(t *testing.T) {
	t.Parallel()

	b, err := NewContextBuilder(nil, nil)
	if err != nil {
		t.Fatalf("NewContextBuilder() error: %v", err)
	}
	rc, err := b.Build(DefaultSettings())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if rc.Theme.ID != DefaultTheme {
		t.Errorf("Theme.ID = %q, want %q", rc.Theme.ID, DefaultTheme)
	}
	if !strings.Contains(rc.Theme.CSS, ".chroma") {
		t.Error("theme CSS should target .chroma classes")
	}
	if rc.Theme.Background != "#ffffff" || rc.Theme.Color == "" {
		t.Errorf("theme colors = %q/%q", rc.Theme.Background, rc.Theme.Color)
	}
	if rc.FontCSS != "" {
		t.Error("embedded assets carry no fonts, FontCSS should be empty")
	}
	if !strings.HasPrefix(rc.FontStack, `"JetBrains Mono"`) {
		t.Errorf("FontStack = %q", rc.FontStack)
	}
	if rc.BaseCSS == "" {
		t.Error("BaseCSS should not be empty")
	}
	if rc.Highlighter.ID() != DefaultHighlighter {
		t.Errorf("Highlighter = %q", rc.Highlighter.ID())
	}
}

func TestContextBuilder_CachesPerID(t *testing.T) {
	t.Parallel()

	b, err := NewContextBuilder(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, theme := range []string{"vs", "vs", "unknown", DefaultTheme} {
		s := DefaultSettings()
		s.Theme = theme
		if _, err := b.Build(s); err != nil {
			t.Fatalf("Build(%q) error: %v", theme, err)
		}
	}
	if len(b.themes) != 2 {
		t.Errorf("cached %d themes, want 2", len(b.themes))
	}
	if len(b.fonts) != 1 {
		t.Errorf("cached %d fonts, want 1", len(b.fonts))
	}
}

func TestContextBuilder_FontFromDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "fonts"), 0o755); err != nil {
		t.Fatal(err)
	}
	font := []byte("wOF2 fake font")
	if err := os.WriteFile(filepath.Join(dir, "fonts", "fira-code-latin-400-normal.woff2"), font, 0o600); err != nil {
		t.Fatal(err)
	}

	loader, err := assets.NewAssetResolver(dir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error: %v", err)
	}
	b, err := NewContextBuilder(nil, loader)
	if err != nil {
		t.Fatal(err)
	}

	s := DefaultSettings()
	s.FontFamily = "fira-code"
	rc, err := b.Build(s)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if n := strings.Count(rc.FontCSS, "@font-face"); n != 1 {
		t.Errorf("FontCSS has %d rules, want 1 (missing weights skipped)", n)
	}
	for _, want := range []string{
		`font-family: "Fira Code"`,
		"font-weight: 400",
		base64.StdEncoding.EncodeToString(font),
	} {
		if !strings.Contains(rc.FontCSS, want) {
			t.Errorf("FontCSS missing %q", want)
		}
	}
}

func TestContextBuilder_Catalog(t *testing.T) {
	t.Parallel()

	c, err := assets.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewContextBuilder(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.Catalog() != c {
		t.Error("Catalog() should return the catalog given to the builder")
	}
}
