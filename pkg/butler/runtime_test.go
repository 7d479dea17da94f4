package butler

import (
	"os"
	"path/filepath"
	"testing"

	rberrors "github.com/rubyelders/rb/pkg/errors"
)

// sandbox is a home directory with a rubies dir and a project dir.
type sandbox struct {
	home    string
	rubies  string
	project string
}

func newSandbox(t *testing.T, versions ...string) sandbox {
	t.Helper()
	home := t.TempDir()
	s := sandbox{
		home:    home,
		rubies:  filepath.Join(home, ".rubies"),
		project: filepath.Join(home, "work", "app"),
	}
	for _, dir := range []string{s.rubies, s.project} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for _, v := range versions {
		writeExecutable(t, filepath.Join(s.rubies, "ruby-"+v, "bin"), "ruby", "#!/bin/sh\necho ruby "+v+"\n")
	}
	return s
}

func (s sandbox) options() Options {
	return Options{RubiesDir: s.rubies, CurrentDir: s.project, HomeDir: s.home}
}

func writeExecutable(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverSelection(t *testing.T) {
	s := newSandbox(t, "3.1.0", "3.2.5", "3.3.1")

	tests := []struct {
		name      string
		requested string
		want      string
		wantCode  rberrors.Code
	}{
		{name: "latest by default", want: "3.3.1"},
		{name: "explicit request", requested: "3.2.5", want: "3.2.5"},
		{name: "request not installed", requested: "9.9.9", wantCode: rberrors.ErrCodeNoSuitableRuby},
		{name: "request malformed", requested: "three", wantCode: rberrors.ErrCodeInvalidVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := s.options()
			opts.RequestedVersion = tt.requested

			rt, err := Discover(opts)
			if tt.wantCode != "" {
				if !rberrors.Is(err, tt.wantCode) {
					t.Fatalf("Discover() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if got := rt.Ruby().Version.String(); got != tt.want {
				t.Errorf("selected %s, want %s", got, tt.want)
			}
			if len(rt.Installations()) != 3 {
				t.Errorf("Installations() = %d entries, want 3", len(rt.Installations()))
			}
			if rt.Bundler() != nil {
				t.Error("no Gemfile, so no bundler runtime expected")
			}
			if rt.GemSource() != "user-gems" || len(rt.GemDirs()) != 2 {
				t.Errorf("gem source = %s dirs = %v", rt.GemSource(), rt.GemDirs())
			}
		})
	}
}

func TestDiscoverNotFoundInAvailableSet(t *testing.T) {
	s := newSandbox(t, "3.1.0", "3.2.5", "3.3.1")
	opts := s.options()
	opts.RequestedVersion = "9.9.9"

	_, err := Discover(opts)
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := rberrors.UserMessage(err); got != "requested Ruby 9.9.9 not found in available set" {
		t.Errorf("message = %q", got)
	}
}

func TestDiscoverNoInstallations(t *testing.T) {
	s := newSandbox(t)
	if _, err := Discover(s.options()); !rberrors.Is(err, rberrors.ErrCodeNoSuitableRuby) {
		t.Errorf("empty rubies dir: error = %v, want NO_SUITABLE_RUBY", err)
	}

	opts := s.options()
	opts.RubiesDir = filepath.Join(s.home, "nope")
	if _, err := Discover(opts); !rberrors.Is(err, rberrors.ErrCodeRubiesDirNotFound) {
		t.Errorf("missing rubies dir: error = %v, want RUBIES_DIR_NOT_FOUND", err)
	}
}

func TestDiscoverBundlerProject(t *testing.T) {
	s := newSandbox(t, "3.1.0", "3.2.5", "3.3.1")
	writeFile(t, s.project, "Gemfile", "source 'https://rubygems.org'\nruby '3.1.0'\n")
	nested := filepath.Join(s.project, "lib", "tasks")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	opts := s.options()
	opts.CurrentDir = nested

	rt, err := Discover(opts)
	if err != nil {
		t.Fatal(err)
	}
	if rt.Bundler() == nil || rt.Bundler().Root != s.project {
		t.Fatalf("Bundler() = %+v, want root %s", rt.Bundler(), s.project)
	}
	if got := rt.Ruby().Version.String(); got != "3.1.0" {
		t.Errorf("selected %s, want 3.1.0 from Gemfile", got)
	}
	if rt.GemSource() != "bundler-isolation" || len(rt.GemDirs()) != 0 {
		t.Errorf("gem source = %s dirs = %v, want isolation", rt.GemSource(), rt.GemDirs())
	}

	// The pin file overrides the Gemfile.
	writeFile(t, s.project, ".ruby-version", "3.2.5\n")
	rt, err = Discover(opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := rt.Ruby().Version.String(); got != "3.2.5" {
		t.Errorf("selected %s, want 3.2.5 from .ruby-version", got)
	}

	// An explicit request beats both.
	opts.RequestedVersion = "3.3.1"
	rt, err = Discover(opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := rt.Ruby().Version.String(); got != "3.3.1" {
		t.Errorf("selected %s, want requested 3.3.1", got)
	}
}

func TestDiscoverRequiredVersionMissingFallsBackToLatest(t *testing.T) {
	s := newSandbox(t, "3.2.5", "3.3.1")
	writeFile(t, s.project, "Gemfile", "ruby '2.7.8'\n")

	rt, err := Discover(s.options())
	if err != nil {
		t.Fatal(err)
	}
	if got := rt.Ruby().Version.String(); got != "3.3.1" {
		t.Errorf("selected %s, want latest 3.3.1", got)
	}
}

func TestDiscoverNoBundler(t *testing.T) {
	s := newSandbox(t, "3.2.5", "3.3.1")
	writeFile(t, s.project, "Gemfile", "ruby '3.2.5'\n")

	opts := s.options()
	opts.NoBundler = true

	rt, err := Discover(opts)
	if err != nil {
		t.Fatal(err)
	}
	if rt.Bundler() != nil {
		t.Error("NoBundler should skip project detection")
	}
	if got := rt.Ruby().Version.String(); got != "3.3.1" {
		t.Errorf("selected %s, want latest", got)
	}
	if rt.GemSource() != "user-gems" {
		t.Errorf("gem source = %s, want user-gems", rt.GemSource())
	}
}

func TestDiscoverCustomGemBaseWinsInProject(t *testing.T) {
	s := newSandbox(t, "3.3.1")
	writeFile(t, s.project, "Gemfile", "gem 'rake'\n")

	opts := s.options()
	opts.GemBase = filepath.Join(s.home, "custom-gems")

	rt, err := Discover(opts)
	if err != nil {
		t.Fatal(err)
	}
	if rt.GemSource() != "custom-base" {
		t.Errorf("gem source = %s, want custom-base", rt.GemSource())
	}
	if want := filepath.Join(opts.GemBase, "ruby", "3.3.0"); rt.Gems().GemHome() != want {
		t.Errorf("GemHome() = %q, want %q", rt.Gems().GemHome(), want)
	}
}
