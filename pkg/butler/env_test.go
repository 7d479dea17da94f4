package butler

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rubyelders/rb/pkg/bundler"
	rberrors "github.com/rubyelders/rb/pkg/errors"
	"github.com/rubyelders/rb/pkg/gems"
	"github.com/rubyelders/rb/pkg/ruby"
)

func testRuby(root string) ruby.Runtime {
	return ruby.NewRuntime(ruby.CRuby, ruby.MustParseVersion("3.3.7"), root)
}

func TestEnvVarsRubyOnly(t *testing.T) {
	rt := New(testRuby("/rubies/ruby-3.3.7"), nil, nil)

	vars := rt.EnvVars("", false)
	if got, want := vars[EnvPath], filepath.Join("/rubies/ruby-3.3.7", "bin"); got != want {
		t.Errorf("PATH = %q, want %q", got, want)
	}
	for _, key := range []string{EnvGemHome, EnvGemPath, EnvBundleGemfile, EnvBundleAppConfig} {
		if _, ok := vars[key]; ok {
			t.Errorf("%s should not be set", key)
		}
	}
}

func TestEnvVarsWithGems(t *testing.T) {
	cfg := &gems.PathConfig{
		GemDirs:    []string{"/home/u/.gem/ruby/3.3.0", "/rubies/ruby-3.3.7/lib/ruby/gems/3.3.0", "/home/u/.gem/ruby/3.3.0"},
		GemBinDirs: []string{"/home/u/.gem/ruby/3.3.0/bin"},
	}
	rt := New(testRuby("/rubies/ruby-3.3.7"), cfg, nil)

	vars := rt.EnvVars("/usr/bin", true)
	home, ok := vars[EnvGemHome]
	if !ok {
		t.Fatal("GEM_HOME missing")
	}
	gemPath, ok := vars[EnvGemPath]
	if !ok {
		t.Fatal("GEM_PATH missing")
	}
	if home != cfg.GemDirs[0] {
		t.Errorf("GEM_HOME = %q", home)
	}
	if !strings.HasPrefix(gemPath, home) {
		t.Errorf("GEM_PATH %q does not start with GEM_HOME %q", gemPath, home)
	}

	// Duplicates are removed, order kept.
	want := []string{cfg.GemDirs[0], cfg.GemDirs[1]}
	if got := strings.Split(gemPath, PathListSeparator()); !slices.Equal(got, want) {
		t.Errorf("GEM_PATH entries = %v, want %v", got, want)
	}
}

func TestEnvVarsIsolationSetsNoGemVars(t *testing.T) {
	rt := New(testRuby("/rubies/ruby-3.3.7"), &gems.PathConfig{}, nil)
	vars := rt.EnvVars("", false)
	_, hasHome := vars[EnvGemHome]
	_, hasPath := vars[EnvGemPath]
	if hasHome || hasPath {
		t.Errorf("empty gem config must set neither GEM_HOME nor GEM_PATH: %v", vars)
	}
}

func TestBuildPathRoundTrip(t *testing.T) {
	cfg := &gems.PathConfig{
		GemDirs:    []string{"/g/a", "/g/b"},
		GemBinDirs: []string{"/g/a/bin", "/g/b/bin"},
	}
	rt := New(testRuby("/r"), cfg, nil)
	sep := PathListSeparator()

	existing := []string{"/usr/local/bin", "/usr/bin", "/bin"}
	composed := rt.BuildPath(strings.Join(existing, sep), true)

	want := append(rt.BinDirs(), existing...)
	if got := strings.Split(composed, sep); !slices.Equal(got, want) {
		t.Errorf("split PATH = %v, want %v", got, want)
	}

	// Gem executables shadow the interpreter's.
	bins := rt.BinDirs()
	if bins[len(bins)-1] != filepath.Join("/r", "bin") {
		t.Errorf("ruby bin dir should come last: %v", bins)
	}
}

func TestBuildPathWithoutExisting(t *testing.T) {
	rt := New(testRuby("/r"), nil, nil)
	sep := PathListSeparator()

	for _, tc := range []struct {
		existing string
		ok       bool
	}{{"", false}, {"", true}} {
		got := rt.BuildPath(tc.existing, tc.ok)
		if strings.HasSuffix(got, sep) || strings.HasPrefix(got, sep) {
			t.Errorf("BuildPath(%q, %v) = %q has a dangling separator", tc.existing, tc.ok, got)
		}
		if got != filepath.Join("/r", "bin") {
			t.Errorf("BuildPath(%q, %v) = %q", tc.existing, tc.ok, got)
		}
	}
}

func TestBundlerVariablesAndVendorBin(t *testing.T) {
	project := t.TempDir()
	b := bundler.New(project, ruby.MustParseVersion("3.3.7"))
	rt := New(testRuby("/r"), &gems.PathConfig{}, b)

	vars := rt.EnvVars("", false)
	if vars[EnvBundleGemfile] != b.GemfilePath() {
		t.Errorf("BUNDLE_GEMFILE = %q", vars[EnvBundleGemfile])
	}
	if vars[EnvBundleAppConfig] != b.AppConfigDir() {
		t.Errorf("BUNDLE_APP_CONFIG = %q", vars[EnvBundleAppConfig])
	}
	if slices.Contains(rt.BinDirs(), b.BinDir()) {
		t.Error("vendor bin must not be on PATH before the project is configured")
	}

	if err := os.MkdirAll(b.VendorDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if bins := rt.BinDirs(); bins[0] != b.BinDir() {
		t.Errorf("BinDirs()[0] = %q, want vendor bin %q", bins[0], b.BinDir())
	}
}

func TestEnvironOverridesParent(t *testing.T) {
	t.Setenv("PATH", "/parent/bin")
	t.Setenv("GEM_HOME", "/stale")

	cfg := &gems.PathConfig{GemDirs: []string{"/fresh"}, GemBinDirs: []string{"/fresh/bin"}}
	rt := New(testRuby("/r"), cfg, nil)

	env := rt.Environ()
	lookup := func(key string) (string, int) {
		var val string
		n := 0
		for _, kv := range env {
			if k, v, _ := strings.Cut(kv, "="); k == key {
				val, n = v, n+1
			}
		}
		return val, n
	}

	if v, n := lookup("GEM_HOME"); v != "/fresh" || n != 1 {
		t.Errorf("GEM_HOME = %q (%d entries)", v, n)
	}
	path, n := lookup("PATH")
	if n != 1 || !strings.HasSuffix(path, PathListSeparator()+"/parent/bin") {
		t.Errorf("PATH = %q (%d entries)", path, n)
	}
}

func TestLookPath(t *testing.T) {
	if isWindows() {
		t.Skip("uses POSIX executable bits")
	}
	rubyRoot := t.TempDir()
	gemBin := t.TempDir()
	writeExecutable(t, filepath.Join(rubyRoot, "bin"), "rake", "#!/bin/sh\n")
	shadow := writeExecutable(t, gemBin, "rake", "#!/bin/sh\n")
	writeFile(t, gemBin, "notexec", "")

	t.Setenv("PATH", "")
	rt := New(testRuby(rubyRoot), &gems.PathConfig{GemDirs: []string{"/g"}, GemBinDirs: []string{gemBin}}, nil)

	got, err := rt.LookPath("rake")
	if err != nil {
		t.Fatal(err)
	}
	if got != shadow {
		t.Errorf("LookPath(rake) = %q, want gem bin %q", got, shadow)
	}

	if _, err := rt.LookPath("notexec"); !rberrors.Is(err, rberrors.ErrCodeCommandNotFound) {
		t.Errorf("non-executable file: error = %v", err)
	}
	if _, err := rt.LookPath("missing"); !rberrors.Is(err, rberrors.ErrCodeCommandNotFound) {
		t.Errorf("missing: error = %v", err)
	}
	if got, err := rt.LookPath(shadow); err != nil || got != shadow {
		t.Errorf("absolute path: %q, %v", got, err)
	}
}
