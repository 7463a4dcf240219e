package assets

import (
	"errors"
	"fmt"

	"github.com/alnah/go-javaprint/internal/yamlutil"
)

// Theme maps a user-facing theme id to a chroma style.
type Theme struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Style string `yaml:"style" json:"-"`
}

// FontFile is one woff2 face of a font family.
type FontFile struct {
	Weight int    `yaml:"weight"`
	Name   string `yaml:"name"`
}

// Font describes a monospace family and its CSS fallback stack.
type Font struct {
	ID    string     `yaml:"id" json:"id"`
	Label string     `yaml:"label" json:"label"`
	Stack string     `yaml:"stack" json:"-"`
	Files []FontFile `yaml:"files" json:"-"`
}

// Highlighter identifies a syntax highlighter implementation.
type Highlighter struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Catalog lists the selectable themes, fonts and highlighters.
// The first entry of each list is the default.
type Catalog struct {
	Themes       []Theme       `yaml:"themes" json:"themes"`
	Fonts        []Font        `yaml:"fonts" json:"fonts"`
	Highlighters []Highlighter `yaml:"highlighters" json:"highlighters"`
}

// ParseCatalog parses and checks a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	c, err := yamlutil.Decode[Catalog](data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}
	return c, nil
}

// Validate requires every list to be non-empty and every font file name to
// be a bare asset name.
func (c *Catalog) Validate() error {
	if len(c.Themes) == 0 || len(c.Fonts) == 0 || len(c.Highlighters) == 0 {
		return errors.New("themes, fonts and highlighters must not be empty")
	}
	for _, f := range c.Fonts {
		for _, file := range f.Files {
			if err := ValidateAssetName(file.Name); err != nil {
				return fmt.Errorf("font %q: %w", f.ID, err)
			}
		}
	}
	return nil
}

// Theme returns the theme with the given id, or the default theme.
func (c *Catalog) Theme(id string) Theme {
	for _, t := range c.Themes {
		if t.ID == id {
			return t
		}
	}
	return c.Themes[0]
}

// Font returns the font with the given id, or the default font.
func (c *Catalog) Font(id string) Font {
	for _, f := range c.Fonts {
		if f.ID == id {
			return f
		}
	}
	return c.Fonts[0]
}

// Highlighter returns the highlighter with the given id, or the default.
func (c *Catalog) Highlighter(id string) Highlighter {
	for _, h := range c.Highlighters {
		if h.ID == id {
			return h
		}
	}
	return c.Highlighters[0]
}
