package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rubyelders/rb/pkg/buildinfo"
)

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(stdout, StyleTitle.Render(appName)+" "+StyleValue.Render(buildinfo.Version))
			fmt.Fprintln(stdout, StyleDim.Render(buildinfo.String()))
			return nil
		},
	}
}
