package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/rubyelders/rb/pkg/butler"
)

func (c *CLI) execCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "exec <program> [args...]",
		Aliases: []string{"x"},
		Short:   "Run a program with the composed Ruby environment",
		Long: `Run a program with PATH, GEM_HOME and GEM_PATH composed for the selected
Ruby. Inside a bundler project the bundle is synchronized first and the
program runs through bundle exec.

rb exits with the program's exit code, or 127 if it cannot be found.`,
		Example: `  rb exec ruby -v
  rb x rspec spec/models
  rb -r 3.2.4 exec irb`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			return c.execute(cmd.Context(), rt, args, "")
		},
	}
	// Everything after the program name belongs to the program.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// execute synchronizes the bundle when rt is a bundler project, then runs
// argv in dir with the terminal attached.
func (c *CLI) execute(ctx context.Context, rt *butler.Runtime, argv []string, dir string) error {
	if rt.Bundler() != nil {
		if _, err := c.synchronize(ctx, rt); err != nil {
			return err
		}
	}

	command := rt.Command(argv[0], argv[1:]...)
	command.Dir = dir
	command.Stdin = os.Stdin
	command.Stdout = stdout
	command.Stderr = stderr
	return command.Run(ctx)
}
