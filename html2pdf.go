package javaprint

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-javaprint/internal/fileutil"
	"github.com/alnah/go-javaprint/internal/hints"
	"github.com/alnah/go-javaprint/internal/process"
)

// PDFEngine converts a self-contained HTML document to PDF bytes.
type PDFEngine interface {
	PrintPDF(ctx context.Context, html string, opts PageOptions) ([]byte, error)
}

// Margins are page margins in millimetres.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// PageOptions configures one PDF print. Empty templates disable the
// corresponding header or footer.
type PageOptions struct {
	HeaderTemplate string
	FooterTemplate string
	Margins        Margins
}

// A4 paper in inches.
const (
	paperWidthInches  = 210 / mmPerInch
	paperHeightInches = 297 / mmPerInch
	mmPerInch         = 25.4
)

// DefaultRenderTimeout bounds the page load of a single render.
const DefaultRenderTimeout = 60 * time.Second

// Compile-time interface check.
var _ PDFEngine = (*RodEngine)(nil)

// RodEngine prints PDFs with a headless Chromium shared by all callers.
// The browser is launched on first use; concurrent first callers wait for
// the same launch, and a failed launch is retried by the next caller. Each
// print opens and closes its own page.
type RodEngine struct {
	bin       string
	noSandbox bool
	timeout   time.Duration

	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	launching *launchCall
	closed    bool
}

type launchCall struct {
	done    chan struct{}
	browser *rod.Browser
	err     error
}

// EngineOption configures a RodEngine.
type EngineOption func(*RodEngine)

// WithBrowserBin uses a pre-installed Chromium instead of rod's download.
func WithBrowserBin(path string) EngineOption {
	return func(e *RodEngine) {
		e.bin = path
	}
}

// WithNoSandbox disables the Chromium sandbox, required in most containers.
func WithNoSandbox(noSandbox bool) EngineOption {
	return func(e *RodEngine) {
		e.noSandbox = noSandbox
	}
}

// WithRenderTimeout bounds each page load. Non-positive values are ignored.
func WithRenderTimeout(d time.Duration) EngineOption {
	return func(e *RodEngine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewRodEngine creates an engine. No browser is started until the first print.
func NewRodEngine(opts ...EngineOption) *RodEngine {
	e := &RodEngine{timeout: DefaultRenderTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ensureBrowser returns the shared browser, launching it if needed.
func (e *RodEngine) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrEngineClosed
	}
	if e.browser != nil {
		b := e.browser
		e.mu.Unlock()
		return b, nil
	}
	if call := e.launching; call != nil {
		e.mu.Unlock()
		select {
		case <-call.done:
			return call.browser, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &launchCall{done: make(chan struct{})}
	e.launching = call
	e.mu.Unlock()

	b, l, err := e.launch()

	e.mu.Lock()
	e.launching = nil
	if err == nil && e.closed {
		_ = b.Close()
		l.Kill()
		b, err = nil, ErrEngineClosed
	}
	if err == nil {
		e.browser, e.launcher = b, l
	}
	call.browser, call.err = b, err
	close(call.done)
	e.mu.Unlock()
	return b, err
}

func (e *RodEngine) launch() (*rod.Browser, *launcher.Launcher, error) {
	l := launcher.New()
	if e.bin != "" {
		l = l.Bin(e.bin)
	}
	if e.noSandbox {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v%s", ErrBrowserConnect, err, hints.ForBrowserLaunch(e.noSandbox, e.bin))
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return b, l, nil
}

// Close shuts the browser down and kills any Chromium helpers left behind.
// Prints after Close fail with ErrEngineClosed.
func (e *RodEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	if e.browser == nil {
		return nil
	}
	err := e.browser.Close()
	pid := e.launcher.PID()
	e.launcher.Kill()
	process.KillTree(pid)
	e.browser, e.launcher = nil, nil
	return err
}

// PrintPDF loads html from a temporary file and prints it.
func (e *RodEngine) PrintPDF(ctx context.Context, html string, opts PageOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	defer cleanup()

	browser, err := e.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	p := page.Context(ctx).Timeout(e.timeout)
	if err := p.WaitLoad(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	reader, err := p.PDF(buildPrintOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// buildPrintOptions maps PageOptions onto Chrome's print parameters.
func buildPrintOptions(opts PageOptions) *proto.PagePrintToPDF {
	p := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(opts.Margins.Top / mmPerInch),
		MarginRight:     floatPtr(opts.Margins.Right / mmPerInch),
		MarginBottom:    floatPtr(opts.Margins.Bottom / mmPerInch),
		MarginLeft:      floatPtr(opts.Margins.Left / mmPerInch),
		PrintBackground: true,
	}
	if opts.HeaderTemplate == "" && opts.FooterTemplate == "" {
		return p
	}
	p.DisplayHeaderFooter = true
	p.HeaderTemplate = orEmptyTemplate(opts.HeaderTemplate)
	p.FooterTemplate = orEmptyTemplate(opts.FooterTemplate)
	return p
}

func orEmptyTemplate(t string) string {
	if t == "" {
		return "<div></div>"
	}
	return t
}

func floatPtr(v float64) *float64 {
	return &v
}
