package javaprint

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/alnah/go-javaprint/internal/assets"
)

// Output modes.
const (
	OutputSingle     = "single"
	OutputPerProject = "per-project"
)

// Setting bounds and defaults.
const (
	MinFontSize     = 9.0
	MaxFontSize     = 18.0
	DefaultFontSize = 12.0

	MinLineHeight     = 1.2
	MaxLineHeight     = 2.0
	DefaultLineHeight = 1.5

	MinProjectLevel     = 1
	MaxProjectLevel     = 3
	DefaultProjectLevel = 1

	DefaultPageBreakMultiple = 1

	DefaultTheme       = "atom-one-light"
	DefaultFont        = "jetbrains-mono"
	DefaultHighlighter = "chroma"
)

// RenderSettings is a validated snapshot of the user's rendering choices.
// Build it with ParseSettings or DefaultSettings; it is not modified after.
type RenderSettings struct {
	FontSize           float64  `json:"fontSize"`
	LineHeight         float64  `json:"lineHeight"`
	ProjectLevel       int      `json:"projectLevel"`
	PageBreakMultiple  int      `json:"pageBreakMultiple"`
	TabsToSpaces       bool     `json:"tabsToSpaces"`
	ShowProjectHeader  bool     `json:"showProjectHeader"`
	ShowFileHeader     bool     `json:"showFileHeader"`
	ShowFilePath       bool     `json:"showFilePath"`
	ShowPageNumbers    bool     `json:"showPageNumbers"`
	ShowLineNumbers    bool     `json:"showLineNumbers"`
	RemoveJavadoc      bool     `json:"removeJavadoc"`
	RemoveComments     bool     `json:"removeComments"`
	CollapseBlankLines bool     `json:"collapseBlankLines"`
	HideInitComponents bool     `json:"hideInitComponents"`
	HideMain           bool     `json:"hideMain"`
	Theme              string   `json:"theme"`
	FontFamily         string   `json:"fontFamily"`
	Highlighter        string   `json:"highlighter"`
	OutputMode         string   `json:"outputMode"`
	IncludedFiles      []string `json:"includedFiles"` // nil means every file
}

// DefaultSettings returns the settings used when the client sends none.
func DefaultSettings() *RenderSettings {
	return &RenderSettings{
		FontSize:           DefaultFontSize,
		LineHeight:         DefaultLineHeight,
		ProjectLevel:       DefaultProjectLevel,
		PageBreakMultiple:  DefaultPageBreakMultiple,
		TabsToSpaces:       true,
		ShowProjectHeader:  true,
		ShowFileHeader:     true,
		ShowFilePath:       false,
		ShowPageNumbers:    true,
		ShowLineNumbers:    false,
		RemoveJavadoc:      false,
		RemoveComments:     false,
		CollapseBlankLines: true,
		HideInitComponents: true,
		HideMain:           true,
		Theme:              DefaultTheme,
		FontFamily:         DefaultFont,
		Highlighter:        DefaultHighlighter,
		OutputMode:         OutputPerProject,
	}
}

// ParseSettings builds settings from a JSON object. It never fails: invalid
// JSON is treated as an empty object and every field that is missing, of the
// wrong type or out of range falls back to its default or is clamped.
func ParseSettings(payload string) *RenderSettings {
	s := DefaultSettings()

	var raw map[string]any
	if strings.TrimSpace(payload) != "" {
		if err := json.Unmarshal([]byte(payload), &raw); err != nil {
			raw = nil
		}
	}

	s.FontSize = clampFloat(raw["fontSize"], MinFontSize, MaxFontSize, DefaultFontSize)
	s.LineHeight = clampFloat(raw["lineHeight"], MinLineHeight, MaxLineHeight, DefaultLineHeight)
	s.ProjectLevel = clampInt(raw["projectLevel"], MinProjectLevel, MaxProjectLevel, DefaultProjectLevel)
	s.PageBreakMultiple = breakMultiple(raw["pageBreakMultiple"])

	s.TabsToSpaces = toBool(raw["tabsToSpaces"], s.TabsToSpaces)
	s.ShowProjectHeader = toBool(raw["showProjectHeader"], s.ShowProjectHeader)
	s.ShowFileHeader = toBool(raw["showFileHeader"], s.ShowFileHeader)
	s.ShowPageNumbers = toBool(raw["showPageNumbers"], s.ShowPageNumbers)
	s.ShowLineNumbers = toBool(raw["showLineNumbers"], s.ShowLineNumbers)
	s.RemoveJavadoc = toBool(raw["removeJavadoc"], s.RemoveJavadoc)
	s.RemoveComments = toBool(raw["removeComments"], s.RemoveComments)
	s.CollapseBlankLines = toBool(raw["collapseBlankLines"], s.CollapseBlankLines)
	s.HideInitComponents = toBool(raw["hideInitComponents"], s.HideInitComponents)
	s.HideMain = toBool(raw["hideMain"], s.HideMain)
	if s.ShowFileHeader {
		s.ShowFilePath = toBool(raw["showFilePath"], s.ShowFilePath)
	}

	if mode, _ := raw["outputMode"].(string); mode == OutputSingle || mode == OutputPerProject {
		s.OutputMode = mode
	}

	font := raw["fontFamily"]
	if font == nil {
		font = raw["font"]
	}
	if c, err := assets.DefaultCatalog(); err == nil {
		s.Theme = c.Theme(toString(raw["theme"])).ID
		s.FontFamily = c.Font(toString(font)).ID
		s.Highlighter = c.Highlighter(toString(raw["highlighter"])).ID
	}

	s.IncludedFiles = toStringSlice(raw["includedFiles"])
	return s
}

// FilterOptions returns the source filters selected by s.
func (s *RenderSettings) FilterOptions() FilterOptions {
	return FilterOptions{
		RemoveJavadoc:      s.RemoveJavadoc,
		RemoveComments:     s.RemoveComments,
		CollapseBlankLines: s.CollapseBlankLines,
		HideInitComponents: s.HideInitComponents,
		HideMain:           s.HideMain,
		TabsToSpaces:       s.TabsToSpaces,
		LineNumbers:        s.ShowLineNumbers,
	}
}

// toNumber accepts JSON numbers and numeric strings.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func clampFloat(v any, lo, hi, fallback float64) float64 {
	f, ok := toNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return math.Min(math.Max(f, lo), hi)
}

// toInt parses an integer prefix, so "2.7" and "2px" both yield 2. Values
// beyond the int32 range saturate, so a huge input still clamps to the top
// of its range instead of falling back.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(math.Max(math.MinInt32, math.Min(math.MaxInt32, math.Trunc(n)))), true
	case string:
		s := strings.TrimSpace(n)
		end := 0
		for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
			end++
		}
		i, err := strconv.ParseInt(s[:end], 10, 32)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

func clampInt(v any, lo, hi, fallback int) int {
	i, ok := toInt(v)
	if !ok {
		return fallback
	}
	return min(max(i, lo), hi)
}

func breakMultiple(v any) int {
	i, ok := toInt(v)
	if !ok {
		return DefaultPageBreakMultiple
	}
	switch i {
	case 1, 2, 4, 8:
		return i
	}
	return DefaultPageBreakMultiple
}

func toBool(v any, fallback bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(b) {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return fallback
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

// toStringSlice keeps the string elements of a JSON array. A non-array
// yields nil; an array without strings yields an empty, non-nil slice.
func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
