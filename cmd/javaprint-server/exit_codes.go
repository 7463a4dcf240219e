package main

import (
	"errors"
	"os"

	"github.com/alnah/go-javaprint/internal/assets"
	"github.com/alnah/go-javaprint/internal/config"
	"github.com/alnah/go-javaprint/internal/hints"
)

// Exit codes for javaprint-server.
const (
	ExitSuccess = 0 // Clean shutdown
	ExitGeneral = 1 // Listen failure or unexpected error
	ExitUsage   = 2 // Invalid flags or configuration
	ExitIO      = 3 // Font directory missing or unreadable
)

// exitCodeFor returns the exit code for an error returned by run.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidConfig) {
		return ExitUsage
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, assets.ErrInvalidBasePath) {
		return ExitIO
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for an error returned by run.
func hintFor(err error) string {
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound()
	case errors.Is(err, assets.ErrInvalidBasePath):
		return hints.ForFontDir()
	case errors.Is(err, errListen):
		return hints.ForListen()
	}
	return ""
}
