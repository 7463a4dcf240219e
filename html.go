package javaprint

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// fileDocument is the input of buildFileHTML.
type fileDocument struct {
	Highlighted   string
	LineNumbers   []int
	MaxLineNumber int
	Settings      *RenderSettings
	Context       *RenderContext
}

// buildFileHTML returns a self-contained HTML page for one source file.
func buildFileHTML(doc fileDocument) string {
	s := doc.Settings
	rc := doc.Context

	body := doc.Highlighted
	codeClass := "chroma language-java"
	if s.ShowLineNumbers {
		body = numberLines(splitHighlightedLines(doc.Highlighted), doc.LineNumbers)
		codeClass += " line-numbers"
	}

	fontSize := formatNumber(s.FontSize)
	lineHeight := formatNumber(s.LineHeight)

	var sb strings.Builder
	sb.Grow(len(body) + len(rc.FontCSS) + len(rc.Theme.CSS) + 2048)
	sb.WriteString("<!doctype html>\n<html>\n<head>\n<meta charset=\"utf-8\" />\n<style>\n")
	sb.WriteString(rc.BaseCSS)
	sb.WriteString("\n")
	sb.WriteString(rc.FontCSS)
	sb.WriteString("\n")
	sb.WriteString(rc.Theme.CSS)
	fmt.Fprintf(&sb, `
body {
  background: %s;
  color: %s;
  font-family: %s;
  font-size: %spx;
  line-height: %s;
}
pre, code, .chroma {
  font-family: %s;
  font-size: %spx;
}
.line-numbers {
  --line-number-width: %dch;
}
`, rc.Theme.Background, rc.Theme.Color, rc.FontStack, fontSize, lineHeight, rc.FontStack, fontSize, digits(doc.MaxLineNumber))
	sb.WriteString("</style>\n</head>\n<body>\n<pre class=\"chroma\"><code class=\"")
	sb.WriteString(codeClass)
	sb.WriteString("\">")
	sb.WriteString(body)
	sb.WriteString("</code></pre>\n</body>\n</html>\n")
	return sb.String()
}

// numberLines wraps each highlighted line with its gutter number. A final
// empty line left by a trailing newline is dropped.
func numberLines(lines []string, numbers []int) string {
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	var sb strings.Builder
	for i, line := range lines {
		label := ""
		if i < len(numbers) && numbers[i] > 0 {
			label = strconv.Itoa(numbers[i])
		}
		if line == "" {
			line = "&nbsp;"
		}
		sb.WriteString(`<span class="code-line"><span class="line-number">`)
		sb.WriteString(label)
		sb.WriteString(`</span><span class="line-content">`)
		sb.WriteString(line)
		sb.WriteString(`</span></span>`)
	}
	return sb.String()
}

// digits returns the gutter width for n, at least 1.
func digits(n int) int {
	if n < 1 {
		return 1
	}
	return len(strconv.Itoa(n))
}

// formatNumber prints settings values without trailing zeros.
func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

type openTag struct {
	name string
	open string
}

var tagNamePattern = regexp.MustCompile(`^<\s*/?\s*([a-zA-Z0-9-]+)`)

// splitHighlightedLines splits highlighted markup on newlines so that every
// line is well formed on its own: tags still open at a line break are closed
// at the end of the line and re-opened at the start of the next one.
func splitHighlightedLines(markup string) []string {
	var (
		lines   []string
		current strings.Builder
		open    []openTag
	)

	i := 0
	for i < len(markup) {
		if markup[i] == '<' {
			end := strings.IndexByte(markup[i:], '>')
			if end < 0 {
				current.WriteString(markup[i:])
				break
			}
			tag := markup[i : i+end+1]
			m := tagNamePattern.FindStringSubmatch(tag)
			closing := strings.HasPrefix(strings.TrimLeft(tag[1:], " \t"), "/")
			selfClosing := strings.HasSuffix(strings.TrimRight(tag[:len(tag)-1], " \t"), "/")
			if m != nil {
				switch {
				case closing:
					for j := len(open) - 1; j >= 0; j-- {
						if open[j].name == m[1] {
							open = append(open[:j], open[j+1:]...)
							break
						}
					}
				case !selfClosing:
					open = append(open, openTag{name: m[1], open: tag})
				}
			}
			current.WriteString(tag)
			i += end + 1
			continue
		}

		next := strings.IndexByte(markup[i:], '<')
		text := markup[i:]
		if next >= 0 {
			text = markup[i : i+next]
		}
		parts := strings.Split(text, "\n")
		for p, part := range parts {
			current.WriteString(part)
			if p == len(parts)-1 {
				break
			}
			for j := len(open) - 1; j >= 0; j-- {
				current.WriteString("</" + open[j].name + ">")
			}
			lines = append(lines, current.String())
			current.Reset()
			for _, t := range open {
				current.WriteString(t.open)
			}
		}
		i += len(text)
	}

	return append(lines, current.String())
}

// Header and footer templates are rendered by Chrome outside the page, so
// they carry their own font CSS and inline styles.

// buildHeaderTemplate returns the page header, or "" when neither the
// project nor the file header is shown.
func buildHeaderTemplate(s *RenderSettings, rc *RenderContext, projectName string, file SourceFile) string {
	if !s.ShowProjectHeader && !s.ShowFileHeader {
		return ""
	}
	left := ""
	if s.ShowProjectHeader {
		left = html.EscapeString(projectName)
	}
	showPath := s.ShowFileHeader && s.ShowFilePath
	right := ""
	if s.ShowFileHeader {
		name := file.Name
		if showPath && file.Path != "" {
			name = file.Path
		}
		right = html.EscapeString(name)
	}
	rightStyle := "flex:2 1 66.6667%; min-width:0; overflow:hidden; text-overflow:ellipsis; white-space:nowrap; text-align:right;"
	if showPath {
		rightStyle = "flex:2 1 66.6667%; min-width:0; white-space:normal; overflow-wrap:anywhere; word-break:break-word; text-align:right;"
	}

	var sb strings.Builder
	writeTemplateStyle(&sb, rc.FontCSS)
	fmt.Fprintf(&sb, `<div style='width:100%%; font-family:%s; font-size:%spx; line-height:%s; letter-spacing:-0.05em; padding:7mm 14mm; box-sizing:border-box;'>`,
		rc.FontStack, formatNumber(math.Max(8, s.FontSize-1)), formatNumber(s.LineHeight))
	sb.WriteString(`<div style="display:flex; justify-content:space-between; gap:12px; width:100%;">`)
	fmt.Fprintf(&sb, `<span style="flex:1 1 33.3333%%; min-width:0; overflow:hidden; text-overflow:ellipsis; white-space:nowrap;">%s</span>`, left)
	fmt.Fprintf(&sb, `<span style="%s">%s</span>`, rightStyle, right)
	sb.WriteString(`</div></div>`)
	return sb.String()
}

// buildFooterTemplate returns the "Page N of M" footer, or "" when page
// numbers are off.
func buildFooterTemplate(s *RenderSettings, rc *RenderContext) string {
	if !s.ShowPageNumbers {
		return ""
	}
	var sb strings.Builder
	writeTemplateStyle(&sb, rc.FontCSS)
	fmt.Fprintf(&sb, `<div style='width:100%%; font-family:%s; font-size:%spx; line-height:%s; padding:7mm 14mm; box-sizing:border-box;'>`,
		rc.FontStack, formatNumber(s.FontSize), formatNumber(s.LineHeight))
	sb.WriteString(`<div style="width:100%; text-align:center;">Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`)
	sb.WriteString(`</div>`)
	return sb.String()
}

func writeTemplateStyle(sb *strings.Builder, fontCSS string) {
	if fontCSS == "" {
		return
	}
	sb.WriteString("<style>")
	sb.WriteString(fontCSS)
	sb.WriteString("</style>")
}
