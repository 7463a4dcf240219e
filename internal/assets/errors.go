package assets

import "errors"

// Sentinel errors for asset operations.
var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrFontNotFound     = errors.New("font not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
	// ErrInvalidBasePath means FONT_DIR is not a readable directory.
	ErrInvalidBasePath = errors.New("invalid base path")
	ErrAssetRead       = errors.New("failed to read asset")
	ErrCatalog         = errors.New("invalid asset catalog")
)
