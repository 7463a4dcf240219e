package javaprint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/alnah/go-javaprint/internal/workpool"
)

// Output content types.
const (
	ContentTypePDF = "application/pdf"
	ContentTypeZip = "application/zip"
)

// Fallback names for uploads and projects whose names sanitize to nothing.
const (
	fallbackDownloadName = "download"
	fallbackProjectName  = "project"
)

// DefaultConcurrency is the number of files rendered at once.
const DefaultConcurrency = 2

// Artifact is a finished render, ready to be sent to the client.
type Artifact struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ProgressFunc receives the number of rendered files out of total.
type ProgressFunc func(completed, total int)

// Pipeline renders projects into a single PDF or a zip of per-project PDFs.
type Pipeline struct {
	engine      PDFEngine
	contexts    *ContextBuilder
	concurrency int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithConcurrency sets how many files are rendered at once. Values below 1
// are ignored.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n >= 1 {
			p.concurrency = n
		}
	}
}

// NewPipeline creates a pipeline printing through engine.
func NewPipeline(engine PDFEngine, contexts *ContextBuilder, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		engine:      engine,
		contexts:    contexts,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Concurrency returns the per-job render parallelism.
func (p *Pipeline) Concurrency() int {
	return p.concurrency
}

// renderTask is one file scheduled for rendering.
type renderTask struct {
	project int
	file    SourceFile
}

// Run renders every file of projects and packages the result according to
// settings.OutputMode. uploadName names the output. progress, if not nil,
// is called after each rendered file. The first failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, projects []Project, settings *RenderSettings, uploadName string, progress ProgressFunc) (art *Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			art, err = nil, fmt.Errorf("%w: panic during render: %v", ErrPDFGeneration, r)
		}
	}()

	rc, err := p.contexts.Build(settings)
	if err != nil {
		return nil, err
	}
	renderer := NewFileRenderer(p.engine, settings, rc)

	var tasks []renderTask
	for i, proj := range projects {
		for _, f := range proj.Files {
			tasks = append(tasks, renderTask{project: i, file: f})
		}
	}

	var opts []workpool.Option
	if progress != nil {
		opts = append(opts, workpool.WithOnComplete(progress))
	}
	pdfs, err := workpool.Map(ctx, tasks, p.concurrency, func(ctx context.Context, _ int, t renderTask) ([]byte, error) {
		return renderer.Render(ctx, t.file, projects[t.project].Name)
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Regroup rendered files by project, keeping file order.
	grouped := make([][][]byte, len(projects))
	for i, t := range tasks {
		grouped[t.project] = append(grouped[t.project], pdfs[i])
	}

	base := BaseNameWithoutExtension(uploadName, fallbackDownloadName)
	if settings.OutputMode == OutputSingle {
		data, err := mergeSingle(grouped, settings.PageBreakMultiple)
		if err != nil {
			return nil, err
		}
		return &Artifact{Data: data, Filename: base + ".pdf", ContentType: ContentTypePDF}, nil
	}

	data, err := packageProjects(projects, grouped)
	if err != nil {
		return nil, err
	}
	return &Artifact{Data: data, Filename: base + ".zip", ContentType: ContentTypeZip}, nil
}

// mergeSingle merges all projects into one PDF. Blank pages are inserted
// after every project but the last so that each project starts on a page
// index aligned to multiple.
func mergeSingle(grouped [][][]byte, multiple int) ([]byte, error) {
	doc := NewDocument()
	for i, files := range grouped {
		pages, size, err := appendAll(doc, files)
		if err != nil {
			return nil, err
		}
		if i < len(grouped)-1 {
			if _, err := doc.InsertPadding(pages, size, multiple); err != nil {
				return nil, err
			}
		}
	}
	return doc.Bytes()
}

// appendAll appends files to doc and returns the pages added and the first
// known page size.
func appendAll(doc *Document, files [][]byte) (int, *PageSize, error) {
	var (
		pages int
		size  *PageSize
	)
	for _, f := range files {
		res, err := doc.AppendPages(f)
		if err != nil {
			return 0, nil, err
		}
		pages += res.PageCount
		if size == nil {
			size = res.PageSize
		}
	}
	return pages, size, nil
}

// packageProjects merges each project separately and zips the PDFs. Names
// that collide after sanitizing get a numeric suffix.
func packageProjects(projects []Project, grouped [][][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	used := make(map[string]int, len(projects))
	now := time.Now()
	for i, proj := range projects {
		doc := NewDocument()
		if _, _, err := appendAll(doc, grouped[i]); err != nil {
			return nil, err
		}
		data, err := doc.Bytes()
		if err != nil {
			return nil, fmt.Errorf("project %q: %w", proj.Name, err)
		}

		name := SanitizeFilename(proj.Name, fallbackProjectName)
		used[name]++
		if n := used[name]; n > 1 {
			name += "-" + strconv.Itoa(n)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name + ".pdf",
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPackage, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPackage, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackage, err)
	}
	return buf.Bytes(), nil
}
