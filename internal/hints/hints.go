// Package hints provides actionable error hints for common startup and
// rendering failures. Hints are formatted as "\n  hint: <text>" for
// appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-javaprint/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserLaunch returns hints for a Chromium that failed to start,
// given the engine's sandbox setting and browser binary.
func ForBrowserLaunch(noSandbox bool, bin string) string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != ""

	if (inCI || IsInContainer()) && !noSandbox {
		hints = append(hints, "set CHROMIUM_NO_SANDBOX=true in Docker/CI")
	}
	if bin == "" {
		hints = append(hints, "set CHROMIUM_BIN to use an installed Chromium")
	}

	return formatHints(hints)
}

// ForConfigNotFound returns a hint for a missing configuration file.
func ForConfigNotFound() string {
	return format("check the --config path, or omit it to use defaults and environment variables")
}

// ForFontDir returns a hint for an unusable font directory.
func ForFontDir() string {
	return format("FONT_DIR must be a readable directory containing fonts/")
}

// ForListen returns a hint for an address that could not be bound.
func ForListen() string {
	return format("is the port in use? set PORT or --port")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
