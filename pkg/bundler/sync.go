package bundler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	rberrors "github.com/rubyelders/rb/pkg/errors"
	"github.com/rubyelders/rb/pkg/observability"
)

const bundleProgram = "bundle"

// BundlerMissingMessage is reported whenever bundle cannot be found.
const BundlerMissingMessage = "Bundler executable not found. Please install bundler with: gem install bundler"

// SyncResult is the outcome of Synchronize.
type SyncResult int

const (
	// AlreadySynced means bundle check passed and nothing was installed.
	AlreadySynced SyncResult = iota
	// Synchronized means bundle install ran and succeeded.
	Synchronized
)

func (s SyncResult) String() string {
	switch s {
	case AlreadySynced:
		return "already-synced"
	case Synchronized:
		return "synchronized"
	default:
		return "unknown"
	}
}

// LineHandler receives bundle output one line at a time, without the
// trailing newline.
type LineHandler func(line string)

// Synchronize brings the vendor tree in line with the Gemfile. If bundle
// check passes the lockfile is refreshed and AlreadySynced is returned;
// otherwise bundle install runs. Failures are returned as they are; there
// is no retry.
func (r *Runtime) Synchronize(ctx context.Context, env Environment, handler LineHandler) (SyncResult, error) {
	start := time.Now()
	observability.Sync().OnSyncStart(ctx, r.Root)

	result, err := r.synchronize(ctx, env, handler)

	outcome := result.String()
	if err != nil {
		outcome = ""
	}
	observability.Sync().OnSyncComplete(ctx, r.Root, outcome, time.Since(start), err)
	return result, err
}

func (r *Runtime) synchronize(ctx context.Context, env Environment, handler LineHandler) (SyncResult, error) {
	synced, err := r.CheckSync(ctx, env)
	if err != nil {
		return AlreadySynced, err
	}
	if synced {
		r.logger().Debug("bundler environment already synchronized", "root", r.Root)
		if err := r.updateLockfile(ctx, env, handler); err != nil {
			return AlreadySynced, err
		}
		return AlreadySynced, nil
	}

	r.logger().Debug("bundler environment requires synchronization", "root", r.Root)
	if err := r.InstallDependencies(ctx, env, handler); err != nil {
		return Synchronized, err
	}
	return Synchronized, nil
}

// CheckSync points bundler at the vendor directory and runs bundle check.
// It reports true on exit 0 and false on any other exit. When in sync the
// lockfile is refreshed quietly; a failure there is ignored.
func (r *Runtime) CheckSync(ctx context.Context, env Environment) (bool, error) {
	if err := r.ConfigureLocalPath(ctx, env); err != nil {
		return false, err
	}

	cmd, err := r.bundle(ctx, env, "check")
	if err != nil {
		return false, err
	}
	code, err := r.run(ctx, cmd)
	if err != nil {
		return false, err
	}

	synced := code == 0
	r.logger().Debug("bundle check", "synced", synced, "exit_code", code)

	if synced {
		r.updateLockfileQuietly(ctx, env)
	}
	return synced, nil
}

// ConfigureLocalPath runs `bundle config path --local <vendor>`.
func (r *Runtime) ConfigureLocalPath(ctx context.Context, env Environment) error {
	r.logger().Debug("configuring bundle path", "vendor", r.VendorDir())

	cmd, err := r.bundle(ctx, env, "config", "path", "--local", r.VendorDir())
	if err != nil {
		return err
	}
	code, err := r.run(ctx, cmd)
	if err != nil {
		return err
	}
	if code != 0 {
		return rberrors.New(rberrors.ErrCodeExecutionFailed, "Failed to configure bundle path (exit code: %d)", code)
	}
	return nil
}

// InstallDependencies runs bundle install. Stdout lines go to handler as
// they arrive. Stderr lines are echoed to r.Stderr and collected so a
// failure carries them in its message.
func (r *Runtime) InstallDependencies(ctx context.Context, env Environment, handler LineHandler) error {
	cmd, err := r.bundle(ctx, env, "install")
	if err != nil {
		return err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return rberrors.Wrap(rberrors.ErrCodeIO, err, "bundle install stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return rberrors.Wrap(rberrors.ErrCodeIO, err, "bundle install stderr")
	}

	start := time.Now()
	observability.Exec().OnCommandStart(ctx, bundleProgram, cmd.Args[1:])
	if err := cmd.Start(); err != nil {
		err = spawnError(err)
		observability.Exec().OnCommandComplete(ctx, bundleProgram, -1, time.Since(start), err)
		return err
	}

	var (
		wg      sync.WaitGroup
		details strings.Builder
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := readLines(stderr, func(line string) {
			fmt.Fprintln(r.stderr(), line)
			details.WriteString(line)
			details.WriteByte('\n')
		})
		if err != nil {
			r.logger().Debug("reading bundle install stderr", "err", err)
		}
	}()

	err = readLines(stdout, func(line string) {
		if handler != nil {
			handler(line)
		}
	})
	if err != nil {
		r.logger().Debug("reading bundle install stdout", "err", err)
	}
	wg.Wait()

	code, err := exitStatus(ctx, cmd.Wait())
	observability.Exec().OnCommandComplete(ctx, bundleProgram, code, time.Since(start), err)
	if err != nil {
		return err
	}
	if code != 0 {
		msg := fmt.Sprintf("Bundle install failed (exit code: %d)", code)
		if tail := lastBytes(strings.TrimSpace(details.String()), maxErrorDetails); tail != "" {
			msg += ". Error details: " + tail
		}
		return rberrors.New(rberrors.ErrCodeExecutionFailed, "%s", msg)
	}
	r.logger().Debug("bundle install completed", "root", r.Root)
	return nil
}

// maxErrorDetails bounds how much of bundle's stderr ends up in an error
// message.
const maxErrorDetails = 8 << 10

// readLines calls fn for every line of r regardless of its length, then
// drains r so the writing process never blocks on a full pipe.
func readLines(r io.Reader, fn func(string)) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			fn(strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			_, _ = io.Copy(io.Discard, r)
			return err
		}
	}
}

// lastBytes returns the final n bytes of s, cut on a rune boundary.
func lastBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return "..." + s[start:]
}

// updateLockfile runs `bundle lock --local`, streaming its stdout to
// handler and its stderr to r.Stderr.
func (r *Runtime) updateLockfile(ctx context.Context, env Environment, handler LineHandler) error {
	cmd, err := r.bundle(ctx, env, "lock", "--local")
	if err != nil {
		return err
	}
	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = r.stderr()

	code, err := r.run(ctx, cmd)
	if err != nil {
		return err
	}
	if handler != nil {
		for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
			if line != "" {
				handler(line)
			}
		}
	}
	if code != 0 {
		return rberrors.New(rberrors.ErrCodeExecutionFailed, "Bundle lock failed (exit code: %d)", code)
	}
	return nil
}

func (r *Runtime) updateLockfileQuietly(ctx context.Context, env Environment) {
	cmd, err := r.bundle(ctx, env, "lock", "--local")
	if err != nil {
		return
	}
	code, err := r.run(ctx, cmd)
	if err != nil || code != 0 {
		r.logger().Debug("bundle lock failed, continuing", "exit_code", code, "err", err)
	}
}

// bundle builds a bundle invocation rooted at the project, resolved and
// environed through env.
func (r *Runtime) bundle(ctx context.Context, env Environment, args ...string) (*exec.Cmd, error) {
	path, err := env.LookPath(bundleProgram)
	if err != nil {
		return nil, rberrors.Wrap(rberrors.ErrCodeBundlerNotFound, err, "%s", BundlerMissingMessage)
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Root
	cmd.Env = env.Environ()
	return cmd, nil
}

// run executes cmd to completion. A nonzero exit is reported through the
// code, not the error.
func (r *Runtime) run(ctx context.Context, cmd *exec.Cmd) (int, error) {
	start := time.Now()
	observability.Exec().OnCommandStart(ctx, bundleProgram, cmd.Args[1:])
	code, err := exitStatus(ctx, cmd.Run())
	observability.Exec().OnCommandComplete(ctx, bundleProgram, code, time.Since(start), err)
	return code, err
}

func exitStatus(ctx context.Context, err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return rberrors.ProcessExitCode(exitErr.ProcessState), nil
	}
	return -1, spawnError(err)
}

func spawnError(err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return rberrors.Wrap(rberrors.ErrCodeBundlerNotFound, err, "%s", BundlerMissingMessage)
	}
	return rberrors.Wrap(rberrors.ErrCodeIO, err, "run bundle")
}
