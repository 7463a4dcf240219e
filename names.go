package javaprint

import (
	"path"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename keeps the base name of name and replaces every character
// outside [a-zA-Z0-9._-] with '_'. An empty result yields fallback.
func SanitizeFilename(name, fallback string) string {
	base := baseName(name)
	if base == "" {
		base = fallback
	}
	cleaned := unsafeFilenameChars.ReplaceAllString(base, "_")
	if cleaned == "" {
		return fallback
	}
	return cleaned
}

// BaseNameWithoutExtension sanitizes name after dropping its extension.
func BaseNameWithoutExtension(name, fallback string) string {
	base := baseName(name)
	if ext := path.Ext(base); ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return SanitizeFilename(base, fallback)
}

// baseName handles both slash styles since uploads may come from Windows.
func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimRight(name, "/")
	if name == "" {
		return ""
	}
	return path.Base(name)
}
