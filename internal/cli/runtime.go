package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rberrors "github.com/rubyelders/rb/pkg/errors"
	"github.com/rubyelders/rb/pkg/gems"
	"github.com/rubyelders/rb/pkg/ruby"
)

func (c *CLI) runtimeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "runtime",
		Aliases: []string{"rt"},
		Short:   "List installed Rubies and show which one is selected",
		Long: `List every ruby-X.Y.Z directory under the rubies dir, newest first,
with the gem home rb would use for it. The selected interpreter is marked;
below the table its gem and bin directories are shown in PATH order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runRuntime()
		},
	}
}

func (c *CLI) runRuntime() error {
	cfg := c.config
	rubies, err := ruby.Discover(cfg.RubiesDir.Value)
	if err != nil {
		return err
	}
	if len(rubies) == 0 {
		return rberrors.New(rberrors.ErrCodeNoSuitableRuby, "no Ruby installations found in %s", cfg.RubiesDir.Value)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return rberrors.Wrap(rberrors.ErrCodeIO, err, "determine home directory")
	}

	rt, selectErr := c.runtime()
	var selected ruby.Version
	if selectErr == nil {
		selected = rt.Ruby().Version
	}

	rows := make([][]string, 0, len(rubies))
	for _, r := range rubies {
		mark := ""
		if selectErr == nil && r.Version.Equal(selected) {
			mark = iconSelected
		}
		gemConfig, _ := gems.NewChain(false).Detect(gems.Context{
			Ruby:          r,
			CustomGemBase: cfg.ExplicitGemBase(),
			HomeDir:       home,
		})
		rows = append(rows, []string{mark, r.Version.String(), r.Root, gemConfig.GemHome()})
	}

	fmt.Fprintln(stdout, StyleTitle.Render("Ruby installations")+" "+StyleDim.Render(cfg.RubiesDir.Value))
	fmt.Fprintln(stdout, renderTable(
		[]string{"", "Version", "Install dir", "Gem home"},
		rows,
		func(row int) bool { return rows[row][0] != "" },
	))

	if selectErr != nil {
		printWarning("%s", rberrors.UserMessage(selectErr))
		return nil
	}

	printNewline()
	printSection("Selected " + rt.Ruby().VersionName())
	printKeyValue("Source", cfg.RubyVersion.Source.String())
	printKeyValue("Executable", rt.Ruby().Executable())
	printKeyValue("Gem source", rt.GemSource())
	printList("Gem dirs", rt.GemDirs())
	printList("Bin dirs", rt.BinDirs())
	return nil
}
