// Package assets provides the stylesheet, theme/font catalog and font files
// used to render source files to PDF.
//
// Assets are read from two layers: the stylesheet compiled into the binary,
// and an optional directory named by FONT_DIR laid out as
//
//	{basePath}/
//	├── styles/{name}.css
//	└── fonts/{name}.woff2
//
// Font binaries are not embedded. Missing font files are skipped and the
// browser falls back to the next family in the font stack.
//
// Asset names are bare identifiers; directory reads go through os.Root so
// a symlink cannot reach outside basePath.
package assets
