package bundler

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	rberrors "github.com/rubyelders/rb/pkg/errors"
	"github.com/rubyelders/rb/pkg/ruby"
)

// fakeBundle imitates the bundle subcommands rb drives. `check` passes
// once `install` has left a marker in the project.
const fakeBundle = `#!/bin/sh
echo "$*" >> "$BUNDLE_LOG"
case "$1" in
  config) exit 0 ;;
  check) [ -f .installed ] && exit 0; exit 1 ;;
  lock) echo "Writing lockfile to Gemfile.lock"; exit 0 ;;
  install)
    echo "Fetching gem metadata from https://rubygems.org/"
    echo "warning: platform mismatch" >&2
    echo "Installing rake 13.2.1"
    touch .installed
    exit 0 ;;
esac
exit 99
`

const failingBundle = `#!/bin/sh
case "$1" in
  config) exit 0 ;;
  check) exit 1 ;;
  install)
    echo "Fetching gem metadata"
    echo "An error occurred while installing nokogiri, and Bundler cannot continue." >&2
    echo "Failed to build gem native extension." >&2
    exit 5 ;;
esac
exit 0
`

// chattyBundle fails install after writing lines far longer than a
// default bufio.Scanner token to both streams.
const chattyBundle = `#!/bin/sh
case "$1" in
  config) exit 0 ;;
  check) exit 1 ;;
  install)
    awk 'BEGIN { for (i = 0; i < 300000; i++) printf "x"; printf "\n" }' >&2
    awk 'BEGIN { for (i = 0; i < 100000; i++) printf "y"; printf "\n" }'
    echo "Installing rake 13.2.1"
    echo "Gem::Ext::BuildError: failed" >&2
    exit 1 ;;
esac
exit 0
`

// fakeEnv is an Environment whose PATH is a single temp bin dir.
type fakeEnv struct {
	bin string
	log string
}

func (e fakeEnv) Environ() []string {
	return append(os.Environ(), "BUNDLE_LOG="+e.log)
}

func (e fakeEnv) LookPath(name string) (string, error) {
	path := filepath.Join(e.bin, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Mode()&0o111 == 0 {
		return "", exec.ErrNotFound
	}
	return path, nil
}

func (e fakeEnv) calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(e.log)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func newFakeEnv(t *testing.T, script string) fakeEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake bundle is a POSIX shell script")
	}
	bin := t.TempDir()
	if script != "" {
		if err := os.WriteFile(filepath.Join(bin, "bundle"), []byte(script), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return fakeEnv{bin: bin, log: filepath.Join(t.TempDir(), "bundle.log")}
}

func newProject(t *testing.T) *Runtime {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "Gemfile", "source 'https://rubygems.org'\ngem 'rake'\n")
	r := New(root, ruby.MustParseVersion("3.3.7"))
	r.Stderr = &bytes.Buffer{}
	return r
}

func TestSynchronizeIsIdempotent(t *testing.T) {
	env := newFakeEnv(t, fakeBundle)
	r := newProject(t)
	ctx := context.Background()

	var lines []string
	result, err := r.Synchronize(ctx, env, func(line string) { lines = append(lines, line) })
	if err != nil {
		t.Fatalf("first Synchronize() error = %v", err)
	}
	if result != Synchronized {
		t.Errorf("first Synchronize() = %v, want %v", result, Synchronized)
	}
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "Installing rake") {
		t.Errorf("streamed lines = %q", lines)
	}
	if got := r.Stderr.(*bytes.Buffer).String(); !strings.Contains(got, "platform mismatch") {
		t.Errorf("stderr echo = %q", got)
	}

	result, err = r.Synchronize(ctx, env, nil)
	if err != nil {
		t.Fatalf("second Synchronize() error = %v", err)
	}
	if result != AlreadySynced {
		t.Errorf("second Synchronize() = %v, want %v", result, AlreadySynced)
	}

	calls := env.calls(t)
	wantPrefix := []string{
		"config path --local " + r.VendorDir(),
		"check",
		"install",
		"config path --local " + r.VendorDir(),
		"check",
		"lock --local",
	}
	if len(calls) < len(wantPrefix) {
		t.Fatalf("bundle calls = %q", calls)
	}
	for i, want := range wantPrefix {
		if calls[i] != want {
			t.Errorf("call %d = %q, want %q", i, calls[i], want)
		}
	}
}

func TestCheckSync(t *testing.T) {
	env := newFakeEnv(t, fakeBundle)
	r := newProject(t)
	ctx := context.Background()

	synced, err := r.CheckSync(ctx, env)
	if err != nil || synced {
		t.Fatalf("CheckSync() = %v, %v; want false, nil", synced, err)
	}

	writeFile(t, r.Root, ".installed", "")
	synced, err = r.CheckSync(ctx, env)
	if err != nil || !synced {
		t.Fatalf("CheckSync() = %v, %v; want true, nil", synced, err)
	}

	// In sync means a quiet lockfile refresh follows the check.
	calls := env.calls(t)
	if last := calls[len(calls)-1]; last != "lock --local" {
		t.Errorf("last call = %q, want lock --local", last)
	}
}

func TestInstallFailureCarriesStderr(t *testing.T) {
	env := newFakeEnv(t, failingBundle)
	r := newProject(t)

	_, err := r.Synchronize(context.Background(), env, nil)
	if err == nil {
		t.Fatal("Synchronize() should fail")
	}
	if !rberrors.Is(err, rberrors.ErrCodeExecutionFailed) {
		t.Errorf("code = %v, want %v", rberrors.GetCode(err), rberrors.ErrCodeExecutionFailed)
	}
	msg := rberrors.UserMessage(err)
	for _, want := range []string{"Bundle install failed (exit code: 5)", "Error details:", "native extension"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestInstallSurvivesLongLines(t *testing.T) {
	env := newFakeEnv(t, chattyBundle)
	r := newProject(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var lines []string
	err := r.InstallDependencies(ctx, env, func(line string) { lines = append(lines, line) })
	if ctx.Err() != nil {
		t.Fatalf("InstallDependencies() hung until the deadline: %v", err)
	}
	if !rberrors.Is(err, rberrors.ErrCodeExecutionFailed) {
		t.Fatalf("error = %v, want EXECUTION_FAILED", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d stdout lines, want 2", len(lines))
	}
	if len(lines[0]) != 100000 || lines[1] != "Installing rake 13.2.1" {
		t.Errorf("stdout lines = %d bytes, %q", len(lines[0]), lines[1])
	}

	msg := rberrors.UserMessage(err)
	if !strings.Contains(msg, "exit code: 1") || !strings.Contains(msg, "Gem::Ext::BuildError") {
		t.Errorf("message missing status or stderr tail: %.200q", msg)
	}
	if len(msg) > maxErrorDetails+200 {
		t.Errorf("message is %d bytes, want the stderr tail bounded", len(msg))
	}
	if echoed := r.Stderr.(*bytes.Buffer).Len(); echoed < 300000 {
		t.Errorf("stderr echoed %d bytes, want the whole stream", echoed)
	}
}

func TestLastBytes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "...def"},
		{"aé", 1, "..."},
	}
	for _, tt := range tests {
		if got := lastBytes(tt.in, tt.n); got != tt.want {
			t.Errorf("lastBytes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestBundlerMissing(t *testing.T) {
	env := newFakeEnv(t, "")
	r := newProject(t)
	ctx := context.Background()

	checks := []struct {
		name string
		run  func() error
	}{
		{"check", func() error { _, err := r.CheckSync(ctx, env); return err }},
		{"config", func() error { return r.ConfigureLocalPath(ctx, env) }},
		{"install", func() error { return r.InstallDependencies(ctx, env, nil) }},
		{"sync", func() error { _, err := r.Synchronize(ctx, env, nil); return err }},
	}
	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !rberrors.Is(err, rberrors.ErrCodeBundlerNotFound) {
				t.Fatalf("error = %v, want BUNDLER_NOT_FOUND", err)
			}
			if rberrors.UserMessage(err) != BundlerMissingMessage {
				t.Errorf("message = %q", rberrors.UserMessage(err))
			}
		})
	}
}

func TestConfigureLocalPathFailure(t *testing.T) {
	env := newFakeEnv(t, "#!/bin/sh\nexit 3\n")
	r := newProject(t)

	err := r.ConfigureLocalPath(context.Background(), env)
	if !rberrors.Is(err, rberrors.ErrCodeExecutionFailed) {
		t.Fatalf("error = %v, want EXECUTION_FAILED", err)
	}
	if !strings.Contains(err.Error(), "exit code: 3") {
		t.Errorf("error = %v", err)
	}
}

func TestSyncResultString(t *testing.T) {
	if AlreadySynced.String() != "already-synced" || Synchronized.String() != "synchronized" {
		t.Error("unexpected SyncResult names")
	}
}
