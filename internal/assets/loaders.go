package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed styles/*.css
var embedded embed.FS

//go:embed catalog.yaml
var catalogYAML []byte

// AssetLoader loads stylesheets and font files by bare name.
type AssetLoader interface {
	// LoadStyle returns styles/{name}.css or ErrStyleNotFound.
	LoadStyle(name string) (string, error)
	// LoadFont returns fonts/{name}.woff2 or ErrFontNotFound.
	LoadFont(name string) ([]byte, error)
}

// kind is one family of asset files under a base directory.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	fontKind  = kind{dir: "fonts", ext: ".woff2", notFound: ErrFontNotFound}
)

// ValidateAssetName rejects names that could select another directory or
// extension.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// fsLoader reads assets from a file system laid out as styles/ and fonts/.
type fsLoader struct {
	open func() (fs.FS, func(), error)
}

func (l *fsLoader) read(k kind, name string) ([]byte, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}
	fsys, done, err := l.open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	defer done()

	data, err := fs.ReadFile(fsys, k.dir+"/"+name+k.ext)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %q", k.notFound, name)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return data, nil
}

func (l *fsLoader) LoadStyle(name string) (string, error) {
	data, err := l.read(styleKind, name)
	return string(data), err
}

func (l *fsLoader) LoadFont(name string) ([]byte, error) {
	return l.read(fontKind, name)
}

// NewEmbeddedLoader returns a loader over the assets compiled into the
// binary. Only stylesheets are embedded, so every font is ErrFontNotFound.
func NewEmbeddedLoader() AssetLoader {
	return &fsLoader{open: func() (fs.FS, func(), error) {
		return embedded, func() {}, nil
	}}
}

// NewFilesystemLoader returns a loader rooted at basePath. Reads cannot
// leave the directory, including through symlinks. Returns
// ErrInvalidBasePath unless basePath is a readable directory.
func NewFilesystemLoader(basePath string) (AssetLoader, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, abs)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &fsLoader{open: func() (fs.FS, func(), error) {
		root, err := os.OpenRoot(abs)
		if err != nil {
			return nil, nil, err
		}
		return root.FS(), func() { _ = root.Close() }, nil
	}}, nil
}

// AssetResolver layers a custom directory over the embedded assets. A
// custom asset wins; only a not-found error falls through to the embedded
// copy.
type AssetResolver struct {
	layers []AssetLoader
}

var _ AssetLoader = (*AssetResolver)(nil)

// NewAssetResolver creates a resolver. An empty customBasePath means
// embedded assets only.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	r := &AssetResolver{}
	if customBasePath != "" {
		custom, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.layers = append(r.layers, custom)
	}
	r.layers = append(r.layers, NewEmbeddedLoader())
	return r, nil
}

// Layered reports whether a custom directory is in use.
func (r *AssetResolver) Layered() bool {
	return len(r.layers) > 1
}

func (r *AssetResolver) LoadStyle(name string) (string, error) {
	return firstFound(r.layers, func(l AssetLoader) (string, error) { return l.LoadStyle(name) })
}

func (r *AssetResolver) LoadFont(name string) ([]byte, error) {
	return firstFound(r.layers, func(l AssetLoader) ([]byte, error) { return l.LoadFont(name) })
}

// firstFound returns the first layer's result that is not a not-found error.
func firstFound[T any](layers []AssetLoader, load func(AssetLoader) (T, error)) (T, error) {
	var (
		zero T
		err  error
	)
	for _, l := range layers {
		var v T
		v, err = load(l)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrStyleNotFound) && !errors.Is(err, ErrFontNotFound) {
			return zero, err
		}
	}
	return zero, err
}
