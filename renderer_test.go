package javaprint

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// captureEngine records the last document it was asked to print.
type captureEngine struct {
	html string
	opts PageOptions
	err  error
}

func (e *captureEngine) PrintPDF(_ context.Context, html string, opts PageOptions) ([]byte, error) {
	e.html, e.opts = html, opts
	if e.err != nil {
		return nil, e.err
	}
	return blankPDF(1, A4), nil
}

func newTestRenderer(t *testing.T, eng PDFEngine, s *RenderSettings) *FileRenderer {
	t.Helper()
	b, err := NewContextBuilder(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	rc, err := b.Build(s)
	if err != nil {
		t.Fatal(err)
	}
	return NewFileRenderer(eng, s, rc)
}

var rendererFile = SourceFile{
	Name:    "Main.java",
	Path:    "alice/src/Main.java",
	Content: "/** Entry. */\npublic class Main {\n    int answer = 42;\n}\n",
}

func TestFileRenderer_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		configure     func(*RenderSettings)
		wantHeader    []string
		wantNoHeader  bool
		wantNoFooter  bool
		wantTop       float64
		wantBottom    float64
		wantInBody    string
		wantNotInBody string
	}{
		{
			name:       "defaults",
			configure:  func(*RenderSettings) {},
			wantHeader: []string{"alice", "Main.java"},
			wantTop:    marginBandMM,
			wantBottom: marginBandMM,
			wantInBody: "answer",
		},
		{
			name: "file path in header",
			configure: func(s *RenderSettings) {
				s.ShowFilePath = true
			},
			wantHeader: []string{"alice/src/Main.java"},
			wantTop:    marginBandMM,
			wantBottom: marginBandMM,
		},
		{
			name: "no bands",
			configure: func(s *RenderSettings) {
				s.ShowProjectHeader = false
				s.ShowFileHeader = false
				s.ShowPageNumbers = false
			},
			wantNoHeader: true,
			wantNoFooter: true,
			wantTop:      marginPlainMM,
			wantBottom:   marginPlainMM,
		},
		{
			name: "javadoc removed",
			configure: func(s *RenderSettings) {
				s.RemoveJavadoc = true
			},
			wantHeader:    []string{"alice"},
			wantTop:       marginBandMM,
			wantBottom:    marginBandMM,
			wantNotInBody: "Entry.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := DefaultSettings()
			tt.configure(s)
			eng := &captureEngine{}
			r := newTestRenderer(t, eng, s)

			data, err := r.Render(context.Background(), rendererFile, "alice")
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}
			if !strings.HasPrefix(string(data), "%PDF") {
				t.Error("Render() should return the engine's PDF")
			}

			if tt.wantNoHeader != (eng.opts.HeaderTemplate == "") {
				t.Errorf("HeaderTemplate = %q", eng.opts.HeaderTemplate)
			}
			for _, want := range tt.wantHeader {
				if !strings.Contains(eng.opts.HeaderTemplate, want) {
					t.Errorf("header should contain %q", want)
				}
			}
			if tt.wantNoFooter != (eng.opts.FooterTemplate == "") {
				t.Errorf("FooterTemplate = %q", eng.opts.FooterTemplate)
			}
			m := eng.opts.Margins
			if m.Top != tt.wantTop || m.Bottom != tt.wantBottom || m.Left != marginSideMM || m.Right != marginSideMM {
				t.Errorf("Margins = %+v", m)
			}
			if tt.wantInBody != "" && !strings.Contains(eng.html, tt.wantInBody) {
				t.Errorf("document should contain %q", tt.wantInBody)
			}
			if tt.wantNotInBody != "" && strings.Contains(eng.html, tt.wantNotInBody) {
				t.Errorf("document should not contain %q", tt.wantNotInBody)
			}
		})
	}
}

func TestFileRenderer_EngineError(t *testing.T) {
	t.Parallel()

	eng := &captureEngine{err: ErrPDFGeneration}
	r := newTestRenderer(t, eng, DefaultSettings())

	_, err := r.Render(context.Background(), rendererFile, "alice")
	if !errors.Is(err, ErrPDFGeneration) {
		t.Fatalf("Render() error = %v, want %v", err, ErrPDFGeneration)
	}
	if !strings.Contains(err.Error(), rendererFile.Path) {
		t.Errorf("error %q should name the file", err)
	}
}
