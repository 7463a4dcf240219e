package javaprint

import (
	"errors"
	"net/http"
)

// Sentinel errors for library operations.
var (
	ErrHighlight      = errors.New("syntax highlighting failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrEngineClosed   = errors.New("PDF engine is closed")

	// Merge errors.
	ErrInvalidPDF    = errors.New("invalid PDF document")
	ErrPDFMerge      = errors.New("PDF merge failed")
	ErrEmptyDocument = errors.New("document has no pages")

	// Render context errors.
	ErrThemeCSS = errors.New("theme stylesheet generation failed")
	ErrFontCSS  = errors.New("font stylesheet generation failed")

	// Packaging errors.
	ErrPackage = errors.New("packaging output failed")
)

// UserError is a failure caused by the client's input. Its message is safe
// to show to the user and Status is the HTTP status to answer with.
type UserError struct {
	Status  int
	Message string
}

// NewUserError returns a UserError. A zero status defaults to 400.
func NewUserError(status int, message string) *UserError {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return &UserError{Status: status, Message: message}
}

func (e *UserError) Error() string {
	return e.Message
}

// AsUserError reports whether err wraps a UserError and returns it.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
