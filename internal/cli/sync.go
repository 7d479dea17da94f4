package cli

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rubyelders/rb/pkg/bundler"
	"github.com/rubyelders/rb/pkg/butler"
	rberrors "github.com/rubyelders/rb/pkg/errors"
)

func (c *CLI) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Install the project's gems into .rb/vendor",
		Long: `Bring the bundler project's vendored gems in line with its Gemfile.

rb points bundler at .rb/vendor/bundler, runs bundle check, and runs
bundle install only when something is missing. When everything is already
installed the lockfile is refreshed with bundle lock --local.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			b := rt.Bundler()
			if b == nil {
				if c.config.NoBundler.Value {
					return rberrors.New(rberrors.ErrCodeNoBundlerProject, "bundler is disabled (%s)", c.config.NoBundler.Source)
				}
				return rberrors.New(rberrors.ErrCodeNoBundlerProject, "no Gemfile found in %s or any parent directory", rt.CurrentDir())
			}

			result, err := c.synchronize(cmd.Context(), rt)
			if err != nil {
				printError("Synchronization failed: %s", rberrors.UserMessage(err))
				for _, hint := range syncHints(err) {
					printDetail("%s", hint)
				}
				return reported(err)
			}

			switch result {
			case bundler.AlreadySynced:
				printSuccess("Bundle already in sync")
			case bundler.Synchronized:
				printSuccess("Bundle synchronized")
			}
			printPath(b.RubyVendorDir())
			return nil
		},
	}
}

// synchronize runs bundler's synchronization for rt, with a spinner when
// stderr is a terminal and plain bundle output otherwise.
func (c *CLI) synchronize(ctx context.Context, rt *butler.Runtime) (bundler.SyncResult, error) {
	b := rt.Bundler()
	prog := newProgress(c.Logger)

	var handler bundler.LineHandler
	var spin *Spinner
	if isTerminal(stderr) {
		b.Stderr = io.Discard
		spin = newSpinnerWithContext(ctx, "Checking bundle")
		spin.Start()
		handler = func(line string) {
			c.Logger.Debug(line)
			spin.Status(truncate(line, 60))
		}
	} else {
		b.Stderr = stderr
		handler = func(line string) {
			io.WriteString(stderr, StyleDim.Render(line)+"\n")
		}
	}

	result, err := b.Synchronize(ctx, rt, handler)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return result, err
	}
	prog.done("Bundle " + result.String())
	return result, nil
}

// syncHints suggests what to do about a failed synchronization, matched on
// the error text since bundler reports everything through its output.
func syncHints(err error) []string {
	if rberrors.Is(err, rberrors.ErrCodeBundlerNotFound) {
		return []string{
			"Install bundler for the selected Ruby: rb exec gem install bundler",
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "native extension") || strings.Contains(msg, "extconf"):
		return []string{
			"A gem failed to compile its native extension.",
			"Install a C compiler and the development headers the gem needs, then run `rb sync` again.",
		}
	case strings.Contains(msg, "permission denied") || strings.Contains(msg, "eacces"):
		return []string{
			"bundle could not write somewhere it needed to.",
			"Check the permissions of the project's .rb directory.",
		}
	case strings.Contains(msg, "could not find gem") || strings.Contains(msg, "could not reach"):
		return []string{
			"A gem or its source could not be resolved.",
			"Check the Gemfile and your network connection.",
		}
	}
	return []string{"Run `rb -vv sync` to see every bundle invocation."}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
