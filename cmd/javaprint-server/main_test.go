package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	flag "github.com/spf13/pflag"

	javaprint "github.com/alnah/go-javaprint"
	"github.com/alnah/go-javaprint/internal/assets"
	"github.com/alnah/go-javaprint/internal/config"
)

// a4Page is a one-page blank A4 PDF.
var a4Page = func() []byte {
	data, err := os.ReadFile(filepath.Join("testdata", "a4.pdf"))
	if err != nil {
		panic(err)
	}
	return data
}()

type fakeEngine struct {
	closed atomic.Bool
}

func (e *fakeEngine) PrintPDF(context.Context, string, javaprint.PageOptions) ([]byte, error) {
	return a4Page, nil
}

func (e *fakeEngine) Close() error {
	e.closed.Store(true)
	return nil
}

func testDeps(eng *fakeEngine) (*Dependencies, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Dependencies{
		Stdout: &stdout,
		Stderr: &stderr,
		NewEngine: func(...javaprint.EngineOption) engine {
			return eng
		},
	}, &stdout, &stderr
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    serverFlags
		wantErr error
	}{
		{
			name: "no flags",
			args: []string{"javaprint-server"},
		},
		{
			name: "all flags",
			args: []string{"javaprint-server", "--config", "srv.yaml", "--host", "0.0.0.0", "-p", "8080", "-v"},
			want: serverFlags{config: "srv.yaml", host: "0.0.0.0", port: 8080, verbose: true},
		},
		{
			name: "short config",
			args: []string{"/usr/local/bin/javaprint-server", "-c", "a.yaml", "--version"},
			want: serverFlags{config: "a.yaml", version: true},
		},
		{
			name:    "unknown flag",
			args:    []string{"javaprint-server", "--workers", "3"},
			wantErr: ErrUsage,
		},
		{
			name:    "bad port",
			args:    []string{"javaprint-server", "--port", "http"},
			wantErr: ErrUsage,
		},
		{
			name:    "positional argument",
			args:    []string{"javaprint-server", "extra"},
			wantErr: ErrUsage,
		},
		{
			name:    "help",
			args:    []string{"javaprint-server", "--help"},
			wantErr: flag.ErrHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stderr bytes.Buffer
			got, fs, err := parseFlags(tt.args, &stderr)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseFlags() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags() error: %v", err)
			}
			if *got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", *got, tt.want)
			}
			if fs.Lookup("host") == nil || fs.Lookup("port") == nil {
				t.Error("host and port flags must be registered for config binding")
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", fmt.Errorf("%w: bad", ErrUsage), ExitUsage},
		{"config missing", fmt.Errorf("%w: x.yaml", config.ErrConfigNotFound), ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"config invalid", fmt.Errorf("%w: Port", config.ErrInvalidConfig), ExitUsage},
		{"font dir", fmt.Errorf("font directory: %w", assets.ErrInvalidBasePath), ExitIO},
		{"not exist", os.ErrNotExist, ExitIO},
		{"other", errors.New("address in use"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun_EarlyExits(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "absent.yaml")
	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantStdout string
	}{
		{name: "version", args: []string{"javaprint-server", "--version"}, wantStdout: "javaprint-server dev\n"},
		{name: "help", args: []string{"javaprint-server", "-h"}},
		{name: "bad flag", args: []string{"javaprint-server", "--nope"}, wantErr: ErrUsage},
		{name: "missing config", args: []string{"javaprint-server", "--config", missing}, wantErr: config.ErrConfigNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			eng := &fakeEngine{}
			deps, stdout, _ := testDeps(eng)
			err := run(context.Background(), tt.args, deps)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("run() error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("run() error = %v, want %v", err, tt.wantErr)
			}
			if stdout.String() != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantStdout)
			}
		})
	}
}

func TestRun_ServesUntilCanceled(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	cfgPath := filepath.Join(t.TempDir(), "javaprint.yaml")
	if err := os.WriteFile(cfgPath, []byte("max_active_jobs: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	eng := &fakeEngine{}
	deps, _, stderr := testDeps(eng)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"javaprint-server", "--config", cfgPath, "--host", "127.0.0.1", "--port", fmt.Sprint(port)}, deps)
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/health", port)
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("health status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never answered: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
	if !eng.closed.Load() {
		t.Error("engine not closed on shutdown")
	}
	if !strings.Contains(stderr.String(), "Shutting down server") {
		t.Errorf("stderr = %q, want shutdown message", stderr.String())
	}
}

func TestHintFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config missing", fmt.Errorf("%w: x.yaml", config.ErrConfigNotFound), "--config"},
		{"font dir", fmt.Errorf("font directory: %w", assets.ErrInvalidBasePath), "FONT_DIR"},
		{"listen", fmt.Errorf("%w on :80: %w", errListen, os.ErrPermission), "PORT"},
		{"other", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := hintFor(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("hintFor() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("hintFor() = %q, want mention of %q", got, tt.want)
			}
		})
	}
}
