package cli

import (
	"os"

	"github.com/spf13/cobra"

	rberrors "github.com/rubyelders/rb/pkg/errors"
	"github.com/rubyelders/rb/pkg/project"
)

func (c *CLI) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create an rbproject.toml",
		Long: `Create an rbproject.toml with a sample script in dir (default: the current
directory). An existing file is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return rberrors.New(rberrors.ErrCodeInvalidInput, "not a directory: %s", dir)
			}

			path, err := project.CreateDefault(dir)
			if err != nil {
				return err
			}
			printSuccess("Created %s", path)
			printNextStep("Edit the scripts, then list them with", "rb run")
			return nil
		},
	}
}
