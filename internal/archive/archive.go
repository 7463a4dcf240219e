// Package archive saves uploaded zip files and reads Java projects from them.
package archive

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/zip"

	javaprint "github.com/alnah/go-javaprint"
	"github.com/alnah/go-javaprint/internal/fileutil"
)

// Default limits.
const (
	DefaultMaxZipBytes   = 50 << 20
	DefaultMaxTotalBytes = 50 << 20
	DefaultMaxFileBytes  = 2 << 20
	DefaultMaxUmzBytes   = 10 << 20
	DefaultMaxFileCount  = 2000
)

// User-facing messages.
const (
	msgZipTooLarge     = "Zip file exceeds the allowed size."
	msgInvalidZip      = "The uploaded file is not a valid zip archive."
	msgJavaTooLarge    = "A Java file exceeds the allowed size."
	msgUmzTooLarge     = "An embedded .umz file exceeds the allowed size."
	msgTooManyFiles    = "Too many Java files in the zip."
	msgTotalTooLarge   = "Total Java source size exceeds the allowed limit."
	msgNoSelectedFiles = "No selected .java files found."
)

const defaultUploadName = "upload.zip"

// Limits bounds what an upload may contain. Non-positive values disable the
// corresponding check.
type Limits struct {
	MaxZipBytes   int64
	MaxTotalBytes int64
	MaxFileBytes  int64
	MaxUmzBytes   int64
	MaxFileCount  int
}

// DefaultLimits returns the default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxZipBytes:   DefaultMaxZipBytes,
		MaxTotalBytes: DefaultMaxTotalBytes,
		MaxFileBytes:  DefaultMaxFileBytes,
		MaxUmzBytes:   DefaultMaxUmzBytes,
		MaxFileCount:  DefaultMaxFileCount,
	}
}

// Upload is a zip file saved in its own temporary directory.
type Upload struct {
	TempDir      string
	ZipPath      string
	OriginalName string
}

// Cleanup removes the upload's temporary directory.
func (u *Upload) Cleanup() error {
	if u == nil || u.TempDir == "" {
		return nil
	}
	return os.RemoveAll(u.TempDir)
}

// Save copies r into a new temporary directory named with tempPrefix. An
// upload larger than limits.MaxZipBytes is a 413 user error and leaves
// nothing behind.
func Save(r io.Reader, originalName string, limits Limits, tempPrefix string) (*Upload, error) {
	if originalName == "" {
		originalName = defaultUploadName
	}
	dir, cleanup, err := fileutil.TempDir(tempPrefix)
	if err != nil {
		return nil, err
	}

	zipPath := filepath.Join(dir, javaprint.SanitizeFilename(originalName, defaultUploadName))
	f, err := os.Create(zipPath) // #nosec G304 -- sanitized name in our temp dir
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating upload file: %w", err)
	}

	_, copyErr := fileutil.CopyLimited(f, r, limits.MaxZipBytes)
	closeErr := f.Close()
	if copyErr != nil {
		cleanup()
		if errors.Is(copyErr, fileutil.ErrTooLarge) {
			return nil, javaprint.NewUserError(http.StatusRequestEntityTooLarge, msgZipTooLarge)
		}
		return nil, fmt.Errorf("saving upload: %w", copyErr)
	}
	if closeErr != nil {
		cleanup()
		return nil, fmt.Errorf("saving upload: %w", closeErr)
	}

	return &Upload{TempDir: dir, ZipPath: zipPath, OriginalName: originalName}, nil
}

// ReadProjects reads the .java files of the zip at zipPath and groups them
// into projects named after the path segment at level (clamped to [1,3]).
//
// Directories, absolute paths, paths containing "..", __MACOSX folders and
// dotfiles are ignored, as are files with fewer than level+1 path segments.
// Nested .umz archives contribute their .java files under the combined path;
// a corrupt .umz is skipped. When include is not nil only the listed paths
// are read.
//
// Projects are sorted by name and files by name then path, ignoring case.
func ReadProjects(zipPath string, limits Limits, level int, include []string) ([]javaprint.Project, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, javaprint.NewUserError(http.StatusBadRequest, msgInvalidZip)
	}
	defer func() { _ = zr.Close() }()

	level = min(max(level, 1), 3)
	x := &extractor{
		limits:   limits,
		projects: make(map[string][]javaprint.SourceFile),
	}
	if include != nil {
		x.include = make(map[string]bool, len(include))
		for _, p := range include {
			x.include[p] = true
		}
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, ok := cleanEntryName(f.Name)
		if !ok {
			continue
		}
		segments := strings.Split(name, "/")
		if len(segments) < level+1 {
			continue
		}
		project := segments[level-1]

		lower := strings.ToLower(name)
		switch {
		case strings.HasSuffix(lower, ".java"):
			if err := x.addJava(f, project, name); err != nil {
				return nil, err
			}
		case strings.HasSuffix(lower, ".umz"):
			if err := x.addUmz(f, project, name); err != nil {
				return nil, err
			}
		}
	}

	if x.fileCount == 0 {
		if include != nil {
			return nil, javaprint.NewUserError(http.StatusUnprocessableEntity, msgNoSelectedFiles)
		}
		return nil, javaprint.NewUserError(http.StatusUnprocessableEntity,
			fmt.Sprintf("No .java files found at project level %d.", level))
	}
	return x.sorted(), nil
}

// extractor accumulates files and enforces limits across one upload.
type extractor struct {
	limits     Limits
	include    map[string]bool
	projects   map[string][]javaprint.SourceFile
	fileCount  int
	totalBytes int64
}

func (x *extractor) selected(p string) bool {
	return x.include == nil || x.include[p]
}

func (x *extractor) addJava(f *zip.File, project, name string) error {
	if !x.selected(name) {
		return nil
	}
	content, err := x.readJava(f)
	if err != nil {
		return err
	}
	return x.add(project, name, content)
}

func (x *extractor) addUmz(f *zip.File, project, name string) error {
	if exceeds(int64(f.UncompressedSize64), x.limits.MaxUmzBytes) {
		return javaprint.NewUserError(http.StatusRequestEntityTooLarge, msgUmzTooLarge)
	}
	data, err := readEntry(f, x.limits.MaxUmzBytes, msgUmzTooLarge)
	if err != nil {
		return err
	}

	nested, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil
	}
	for _, nf := range nested.File {
		if nf.FileInfo().IsDir() {
			continue
		}
		nestedName, ok := cleanEntryName(nf.Name)
		if !ok || !strings.HasSuffix(strings.ToLower(nestedName), ".java") {
			continue
		}
		combined := name + "/" + nestedName
		if !x.selected(combined) {
			continue
		}
		content, err := x.readJava(nf)
		if err != nil {
			return err
		}
		if err := x.add(project, combined, content); err != nil {
			return err
		}
	}
	return nil
}

func (x *extractor) readJava(f *zip.File) (string, error) {
	if exceeds(int64(f.UncompressedSize64), x.limits.MaxFileBytes) {
		return "", javaprint.NewUserError(http.StatusRequestEntityTooLarge, msgJavaTooLarge)
	}
	data, err := readEntry(f, x.limits.MaxFileBytes, msgJavaTooLarge)
	if err != nil {
		return "", err
	}
	x.totalBytes += int64(len(data))
	if exceeds(x.totalBytes, x.limits.MaxTotalBytes) {
		return "", javaprint.NewUserError(http.StatusRequestEntityTooLarge, msgTotalTooLarge)
	}
	return string(data), nil
}

func (x *extractor) add(project, name, content string) error {
	x.fileCount++
	if x.limits.MaxFileCount > 0 && x.fileCount > x.limits.MaxFileCount {
		return javaprint.NewUserError(http.StatusRequestEntityTooLarge, msgTooManyFiles)
	}
	x.projects[project] = append(x.projects[project], javaprint.SourceFile{
		Name:    path.Base(name),
		Path:    name,
		Content: content,
	})
	return nil
}

func (x *extractor) sorted() []javaprint.Project {
	projects := make([]javaprint.Project, 0, len(x.projects))
	for name, files := range x.projects {
		slices.SortStableFunc(files, func(a, b javaprint.SourceFile) int {
			return cmp.Or(compareFold(a.Name, b.Name), compareFold(a.Path, b.Path))
		})
		projects = append(projects, javaprint.Project{Name: name, Files: files})
	}
	slices.SortFunc(projects, func(a, b javaprint.Project) int {
		return cmp.Or(compareFold(a.Name, b.Name), strings.Compare(a.Name, b.Name))
	})
	return projects
}

// readEntry reads f fully, failing with a 413 user error past limit bytes.
// The declared size is not trusted.
func readEntry(f *zip.File, limit int64, tooLarge string) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, javaprint.NewUserError(http.StatusBadRequest, msgInvalidZip)
	}
	defer func() { _ = rc.Close() }()

	var buf bytes.Buffer
	if _, err := fileutil.CopyLimited(&buf, rc, limit); err != nil {
		if errors.Is(err, fileutil.ErrTooLarge) {
			return nil, javaprint.NewUserError(http.StatusRequestEntityTooLarge, tooLarge)
		}
		return nil, javaprint.NewUserError(http.StatusBadRequest, msgInvalidZip)
	}
	return buf.Bytes(), nil
}

// cleanEntryName normalizes separators and reports whether the entry should
// be considered at all.
func cleanEntryName(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return "", false
	}
	var segments []string
	for _, s := range strings.Split(name, "/") {
		if s == "" {
			continue
		}
		if strings.EqualFold(s, "__MACOSX") {
			return "", false
		}
		segments = append(segments, s)
	}
	if len(segments) == 0 || strings.HasPrefix(segments[len(segments)-1], ".") {
		return "", false
	}
	return strings.Join(segments, "/"), true
}

func exceeds(n, limit int64) bool {
	return limit > 0 && n > limit
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
