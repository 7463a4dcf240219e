package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadStyle_BaseStyle(t *testing.T) {
	t.Parallel()

	css, err := NewEmbeddedLoader().LoadStyle(BaseStyleName)
	if err != nil {
		t.Fatalf("LoadStyle(%q) error: %v", BaseStyleName, err)
	}
	for _, want := range []string{".line-numbers .line-number", "print-color-adjust"} {
		if !strings.Contains(css, want) {
			t.Errorf("base style should contain %q", want)
		}
	}
}

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog() error: %v", err)
	}

	if got := c.Themes[0].ID; got != "atom-one-light" {
		t.Errorf("default theme = %q, want atom-one-light", got)
	}
	if got := c.Fonts[0].ID; got != "jetbrains-mono" {
		t.Errorf("default font = %q, want jetbrains-mono", got)
	}
	if len(c.Themes) != 5 {
		t.Errorf("len(Themes) = %d, want 5", len(c.Themes))
	}
	if len(c.Fonts) != 5 {
		t.Errorf("len(Fonts) = %d, want 5", len(c.Fonts))
	}
	for _, f := range c.Fonts {
		if len(f.Files) != 2 {
			t.Errorf("font %q has %d files, want 2", f.ID, len(f.Files))
		}
		if !strings.HasSuffix(f.Stack, "monospace") {
			t.Errorf("font %q stack should end with monospace: %q", f.ID, f.Stack)
		}
	}

	again, _ := DefaultCatalog()
	if again != c {
		t.Error("DefaultCatalog() should return the shared instance")
	}
}

func TestCatalog_LookupFallsBackToDefault(t *testing.T) {
	t.Parallel()

	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog() error: %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "known theme", got: c.Theme("vs").Style, want: "vs"},
		{name: "unknown theme", got: c.Theme("solarized").ID, want: "atom-one-light"},
		{name: "empty theme", got: c.Theme("").ID, want: "atom-one-light"},
		{name: "known font", got: c.Font("fira-code").Label, want: "Fira Code"},
		{name: "unknown font", got: c.Font("comic-sans").ID, want: "jetbrains-mono"},
		{name: "legacy highlighter id", got: c.Highlighter("highlightjs").ID, want: "chroma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty document", yaml: ""},
		{name: "missing fonts", yaml: "themes:\n  - {id: a, label: A, style: vs}\nhighlighters:\n  - {id: chroma, label: Chroma}\n"},
		{name: "unknown field", yaml: "themes: []\nfonts: []\nhighlighters: []\nextra: 1\n"},
		{name: "font name with extension", yaml: "themes:\n  - {id: a, label: A, style: vs}\nfonts:\n  - id: f\n    label: F\n    stack: monospace\n    files:\n      - {weight: 400, name: f.woff2}\nhighlighters:\n  - {id: chroma, label: Chroma}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseCatalog([]byte(tt.yaml))
			if !errors.Is(err, ErrCatalog) {
				t.Errorf("ParseCatalog() error = %v, want ErrCatalog", err)
			}
		})
	}
}
