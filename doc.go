// Package javaprint prints Java sources to PDF using headless Chrome.
//
// # Quick Start
//
// Create an engine and a pipeline, render projects, and close the engine when
// done:
//
//	engine := javaprint.NewRodEngine()
//	defer engine.Close()
//
//	contexts, err := javaprint.NewContextBuilder(nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pipeline := javaprint.NewPipeline(engine, contexts)
//
//	settings := javaprint.ParseSettings(`{"outputMode":"single","theme":"vs"}`)
//	art, err := pipeline.Run(ctx, projects, settings, "homework.zip", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(art.Filename, art.Data, 0644)
//
// # Rendering Pipeline
//
// Every source file goes through these stages:
//
//  1. Source filtering (comments, javadoc, blank lines, hidden method bodies, tabs)
//  2. Syntax highlighting via chroma
//  3. HTML assembly (base stylesheet, theme, inlined fonts, line numbers)
//  4. PDF rendering via headless Chrome (go-rod) with header and footer bands
//
// Files are rendered concurrently, then merged per project. In single output
// mode every project starts on a page index aligned to
// RenderSettings.PageBreakMultiple; otherwise each project becomes its own
// PDF inside a zip archive.
//
// # Settings
//
// ParseSettings never fails. Unknown keys are ignored, out-of-range numbers
// are clamped and unknown theme, font or highlighter ids fall back to the
// defaults, so any client payload yields a complete RenderSettings.
//
// # Fonts
//
// Stylesheets and the theme and font catalog are embedded. Font files are
// not: point an assets.AssetResolver at a directory holding fonts/<name>.woff2
// and pass it to NewContextBuilder to inline them in every page.
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers, use WithNoSandbox(true). Use WithBrowserBin to specify a
// custom Chrome binary.
package javaprint
