package javaprint

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/Geek0x0/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PageSize is a page size in PDF points.
type PageSize struct {
	Width, Height float64
}

// A4 is the padding page size used when no page size is known.
var A4 = PageSize{Width: 595.28, Height: 841.89}

// AppendResult describes the pages added by AppendPages.
type AppendResult struct {
	PageCount int
	// PageSize is the size of the first appended page, nil when none were.
	PageSize *PageSize
}

// Document accumulates PDF parts and merges them into one file on Bytes.
// It is not safe for concurrent use.
type Document struct {
	parts [][]byte
	pages int
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// PageCount returns the number of pages appended so far.
func (d *Document) PageCount() int {
	return d.pages
}

// AppendPages adds every page of src, in order, to the end of d.
func (d *Document) AppendPages(src []byte) (AppendResult, error) {
	count, size, err := inspectPDF(src)
	if err != nil {
		return AppendResult{}, err
	}
	if count == 0 {
		return AppendResult{}, nil
	}
	d.parts = append(d.parts, src)
	d.pages += count
	return AppendResult{PageCount: count, PageSize: size}, nil
}

// InsertPadding appends blank pages so that pageCount becomes a multiple of
// multiple. It does nothing when multiple <= 1, pageCount is 0 or already
// aligned. A nil size falls back to A4. It returns the pages added.
//
// The blank pages are inserted after the last page of the most recently
// appended part, so padding needs at least one appended part.
func (d *Document) InsertPadding(pageCount int, size *PageSize, multiple int) (int, error) {
	if multiple <= 1 || pageCount <= 0 {
		return 0, nil
	}
	rem := pageCount % multiple
	if rem == 0 {
		return 0, nil
	}
	if len(d.parts) == 0 {
		return 0, ErrEmptyDocument
	}
	if size == nil {
		size = &A4
	}

	blanks := multiple - rem
	last := len(d.parts) - 1
	padded, err := appendBlankPages(d.parts[last], blanks, *size)
	if err != nil {
		return 0, err
	}
	d.parts[last] = padded
	d.pages += blanks
	return blanks, nil
}

// appendBlankPages inserts count blank pages of size after the last page of
// src. pdfcpu inserts one page per selected page, so each blank is its own
// pass over the growing file.
func appendBlankPages(src []byte, count int, size PageSize) ([]byte, error) {
	pageConf := &pdfcpu.PageConfiguration{
		PageDim: &types.Dim{Width: size.Width, Height: size.Height},
		InpUnit: types.POINTS,
	}
	for range count {
		var out bytes.Buffer
		if err := api.InsertPages(bytes.NewReader(src), &out, []string{"l"}, false, pageConf, mergeConfig()); err != nil {
			return nil, fmt.Errorf("%w: insert blank page: %v", ErrPDFMerge, err)
		}
		src = out.Bytes()
	}
	return src, nil
}

// Bytes merges the parts into one PDF. A document with a single part returns
// that part unchanged.
func (d *Document) Bytes() ([]byte, error) {
	switch len(d.parts) {
	case 0:
		return nil, ErrEmptyDocument
	case 1:
		return d.parts[0], nil
	}

	readers := make([]io.ReadSeeker, len(d.parts))
	for i, p := range d.parts {
		readers[i] = bytes.NewReader(p)
	}
	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, mergeConfig()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFMerge, err)
	}
	return out.Bytes(), nil
}

var disableConfigDir sync.Once

// mergeConfig returns a relaxed pdfcpu configuration. pdfcpu would otherwise
// create a config directory under the user's home on first use.
func mergeConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// inspectPDF returns the page count and the first page's MediaBox size.
func inspectPDF(src []byte) (count int, size *PageSize, err error) {
	defer func() {
		if r := recover(); r != nil {
			count, size, err = 0, nil, fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	count = r.NumPage()
	if count <= 0 {
		return 0, nil, nil
	}
	return count, mediaBoxSize(r.Page(1)), nil
}

// mediaBoxSize reads the page's MediaBox, walking up the page tree for an
// inherited one. It returns nil when no usable box exists.
func mediaBoxSize(p pdf.Page) *PageSize {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.IsNull() || box.Len() != 4 {
			continue
		}
		w := box.Index(2).Float64() - box.Index(0).Float64()
		h := box.Index(3).Float64() - box.Index(1).Float64()
		if w <= 0 || h <= 0 {
			return nil
		}
		return &PageSize{Width: w, Height: h}
	}
	return nil
}
