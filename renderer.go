package javaprint

import (
	"context"
	"fmt"
)

// Page margins in millimetres.
const (
	marginSideMM  = 14
	marginPlainMM = 18
	marginBandMM  = 25 // top or bottom edge carrying a header or footer
)

// SourceFile is one Java source file read from an upload.
type SourceFile struct {
	Name    string // base name
	Path    string // path inside the archive, nested archives joined with "/"
	Content string
}

// Project is a named group of source files, ordered for rendering.
type Project struct {
	Name  string
	Files []SourceFile
}

// FileRenderer renders single source files to PDF with fixed settings.
// It is safe for concurrent use when its engine is.
type FileRenderer struct {
	engine   PDFEngine
	settings *RenderSettings
	context  *RenderContext
}

// NewFileRenderer creates a renderer for one job.
func NewFileRenderer(engine PDFEngine, settings *RenderSettings, rc *RenderContext) *FileRenderer {
	return &FileRenderer{engine: engine, settings: settings, context: rc}
}

// Render filters, highlights and prints file. projectName is shown in the
// page header.
func (r *FileRenderer) Render(ctx context.Context, file SourceFile, projectName string) ([]byte, error) {
	filtered := ApplyFilters(file.Content, r.settings.FilterOptions())

	highlighted, err := r.context.Highlighter.Highlight(filtered.Text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Path, err)
	}

	html := buildFileHTML(fileDocument{
		Highlighted:   highlighted,
		LineNumbers:   filtered.LineNumbers,
		MaxLineNumber: filtered.MaxLineNumber,
		Settings:      r.settings,
		Context:       r.context,
	})
	opts := pageOptionsFor(
		buildHeaderTemplate(r.settings, r.context, projectName, file),
		buildFooterTemplate(r.settings, r.context),
	)

	data, err := r.engine.PrintPDF(ctx, html, opts)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", file.Path, err)
	}
	return data, nil
}

// pageOptionsFor widens the top and bottom margins for a header or footer.
func pageOptionsFor(header, footer string) PageOptions {
	m := Margins{Top: marginPlainMM, Right: marginSideMM, Bottom: marginPlainMM, Left: marginSideMM}
	if header != "" {
		m.Top = marginBandMM
	}
	if footer != "" {
		m.Bottom = marginBandMM
	}
	return PageOptions{HeaderTemplate: header, FooterTemplate: footer, Margins: m}
}
