package hints

// ForBrowserLaunch tests are not parallel: they use t.Setenv and swap the
// package-level IsInContainer.

import (
	"strings"
	"testing"
)

func withContainer(t *testing.T, in bool) {
	t.Helper()
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })
	IsInContainer = func() bool { return in }
}

func clearCI(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI"} {
		t.Setenv(key, "")
	}
}

func TestForBrowserLaunch(t *testing.T) {
	tests := []struct {
		name        string
		ci          bool
		container   bool
		noSandbox   bool
		bin         string
		wantSandbox bool
		wantBin     bool
	}{
		{name: "ci", ci: true, wantSandbox: true, wantBin: true},
		{name: "docker", container: true, wantSandbox: true, wantBin: true},
		{name: "sandbox already off", container: true, noSandbox: true, wantBin: true},
		{name: "binary configured", bin: "/usr/bin/chromium"},
		{name: "docker with binary", container: true, bin: "/usr/bin/chromium", wantSandbox: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCI(t)
			if tt.ci {
				t.Setenv("CI", "true")
			}
			withContainer(t, tt.container)

			hint := ForBrowserLaunch(tt.noSandbox, tt.bin)

			if got := strings.Contains(hint, "CHROMIUM_NO_SANDBOX"); got != tt.wantSandbox {
				t.Errorf("sandbox hint present = %v, want %v (%q)", got, tt.wantSandbox, hint)
			}
			if got := strings.Contains(hint, "CHROMIUM_BIN"); got != tt.wantBin {
				t.Errorf("binary hint present = %v, want %v (%q)", got, tt.wantBin, hint)
			}
			if tt.wantSandbox && tt.wantBin && strings.Count(hint, "hint:") != 1 {
				t.Errorf("hints should be joined on one line: %q", hint)
			}
			if !tt.wantSandbox && !tt.wantBin && hint != "" {
				t.Errorf("ForBrowserLaunch() = %q, want empty", hint)
			}
		})
	}
}

func TestStaticHints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hint string
		want string
	}{
		{"config", ForConfigNotFound(), "--config"},
		{"font dir", ForFontDir(), "FONT_DIR"},
		{"listen", ForListen(), "PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if !strings.HasPrefix(tt.hint, "\n  hint: ") {
				t.Errorf("hint %q missing prefix", tt.hint)
			}
			if !strings.Contains(tt.hint, tt.want) {
				t.Errorf("hint %q should mention %q", tt.hint, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	if got := format(""); got != "" {
		t.Errorf("format(\"\") = %q, want empty", got)
	}
	if got := formatHints(nil); got != "" {
		t.Errorf("formatHints(nil) = %q, want empty", got)
	}
	if got := formatHints([]string{"a", "b"}); got != "\n  hint: a; b" {
		t.Errorf("formatHints() = %q", got)
	}
}
