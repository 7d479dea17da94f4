package butler

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	rberrors "github.com/rubyelders/rb/pkg/errors"
	"github.com/rubyelders/rb/pkg/observability"
)

// Command is a program to run inside a Runtime. Build it with
// Runtime.Command, adjust the exported fields, then call Run or Cmd.
type Command struct {
	Program string
	Args    []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra variables layered over the composed environment.
	Env map[string]string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	rt *Runtime
}

// Command returns a command that runs program with args in r.
func (r *Runtime) Command(program string, args ...string) *Command {
	return &Command{Program: program, Args: args, rt: r}
}

// CommandExists reports whether program would resolve for execution.
func (r *Runtime) CommandExists(program string) bool {
	_, err := r.Command(program).Resolve()
	return err == nil
}

// UsesBundleExec reports whether the command goes through `bundle exec`:
// true inside a bundler project unless the program is bundler itself.
func (c *Command) UsesBundleExec() bool {
	if c.rt.bundler == nil {
		return false
	}
	base := strings.TrimSuffix(filepath.Base(c.Program), filepath.Ext(c.Program))
	return base != "bundle" && base != "bundler"
}

// Resolve returns the path of the executable that will actually be
// spawned: the program itself, or bundle under indirection.
func (c *Command) Resolve() (string, error) {
	if err := rberrors.ValidateProgramName(c.Program); err != nil {
		return "", err
	}
	target := c.Program
	switch {
	case c.UsesBundleExec():
		target = "bundle"
	case c.Dir != "" && !filepath.IsAbs(target) && hasSeparator(target):
		// exec resolves relative paths against Dir, so lookup must too.
		abs, err := filepath.Abs(filepath.Join(c.Dir, target))
		if err != nil {
			return "", rberrors.Wrap(rberrors.ErrCodeIO, err, "resolve %s", target)
		}
		target = abs
	}
	return c.rt.LookPath(target)
}

// Argv returns the arguments after the executable.
func (c *Command) Argv() []string {
	if !c.UsesBundleExec() {
		return c.Args
	}
	return append([]string{"exec", c.Program}, c.Args...)
}

// Cmd builds the process. Under indirection bundle must resolve; the
// program itself is left for bundle to find.
func (c *Command) Cmd(ctx context.Context) (*exec.Cmd, error) {
	path, err := c.Resolve()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, path, c.Argv()...)
	cmd.Dir = c.Dir
	vars := c.rt.composed()
	for k, v := range c.Env {
		vars[k] = v
	}
	cmd.Env = mergeEnv(os.Environ(), vars)
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	return cmd, nil
}

// Run runs the command to completion. A nonzero exit is returned as
// *rberrors.ExitError carrying the child's status.
func (c *Command) Run(ctx context.Context) error {
	cmd, err := c.Cmd(ctx)
	if err != nil {
		return err
	}

	c.rt.logger.Debug("running command", "path", cmd.Path, "args", cmd.Args[1:], "bundle_exec", c.UsesBundleExec())

	start := time.Now()
	observability.Exec().OnCommandStart(ctx, c.Program, c.Args)
	err = cmd.Run()
	code := 0
	if cmd.ProcessState != nil {
		code = rberrors.ProcessExitCode(cmd.ProcessState)
	}
	observability.Exec().OnCommandComplete(ctx, c.Program, code, time.Since(start), err)

	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &rberrors.ExitError{Program: c.Program, Code: rberrors.ProcessExitCode(exitErr.ProcessState)}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return rberrors.Wrap(rberrors.ErrCodeCommandNotFound, err, "command not found: %s", c.Program)
	}
	return rberrors.Wrap(rberrors.ErrCodeExecutionFailed, err, "run %s", c.Program)
}
