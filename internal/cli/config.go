package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rubyelders/rb/pkg/config"
)

func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration and where each value came from",
		Long: `Show every setting rb resolved together with its source. Sources are,
from highest to lowest priority: CLI argument, config file, environment,
default. A Ruby version nobody asked for is shown as auto-resolved once
discovery has picked one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.runtime(); err != nil {
				c.Logger.Debug("ruby not resolved", "err", err)
			}
			showConfig(c.config)
			return nil
		},
	}
}

func showConfig(cfg *config.TrackedConfig) {
	version := cfg.RubyVersion.Value
	if version == "" {
		version = "latest"
	}
	rows := [][]string{
		{"rubies-dir", cfg.RubiesDir.Value, cfg.RubiesDir.Source.String()},
		{"ruby-version", version, cfg.RubyVersion.Source.String()},
		{"gem-home", cfg.GemHome.Value, cfg.GemHome.Source.String()},
		{"no-bundler", strconv.FormatBool(cfg.NoBundler.Value), cfg.NoBundler.Source.String()},
		{"work-dir", cfg.WorkDir.Value, cfg.WorkDir.Source.String()},
	}
	fmt.Fprintln(stdout, StyleTitle.Render("Configuration"))
	fmt.Fprintln(stdout, renderTable([]string{"Setting", "Value", "Source"}, rows, nil))

	if cfg.File != "" {
		printKeyValue("Config file", cfg.File)
	} else {
		printKeyValue("Config file", StyleDim.Render("none found"))
	}
	for _, key := range cfg.UnknownKeys {
		printWarning("Unknown key %q in %s", key, cfg.File)
	}
}
