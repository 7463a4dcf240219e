package assets

import "sync"

// BaseStyleName is the embedded stylesheet applied to every rendered file.
const BaseStyleName = "code"

var (
	catalogOnce sync.Once
	catalog     *Catalog
	catalogErr  error
)

// DefaultCatalog returns the embedded theme and font catalog.
// The catalog is parsed once and shared; callers must not modify it.
func DefaultCatalog() (*Catalog, error) {
	catalogOnce.Do(func() {
		catalog, catalogErr = ParseCatalog(catalogYAML)
	})
	return catalog, catalogErr
}
