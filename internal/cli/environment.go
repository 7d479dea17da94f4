package cli

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rubyelders/rb/pkg/butler"
	rberrors "github.com/rubyelders/rb/pkg/errors"
)

func (c *CLI) environmentCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "environment",
		Aliases: []string{"env"},
		Short:   "Show the environment rb composes for commands",
		Long: `Show the selected Ruby, the gem configuration, the bundler project
(if any), the rbproject.toml scripts (if any) and the variables rb sets for
child processes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			return c.showEnvironment(rt)
		},
	}
}

func (c *CLI) showEnvironment(rt *butler.Runtime) error {
	selected := rt.Ruby()
	printSection("Ruby")
	printKeyValue("Version", selected.Version.String())
	printKeyValue("Source", c.config.RubyVersion.Source.String())
	printKeyValue("Root", selected.Root)
	printKeyValue("Executable", selected.Executable())
	printNewline()

	printSection("Gems")
	printKeyValue("Detector", rt.GemSource())
	if home := rt.Gems().GemHome(); home != "" {
		printKeyValue("Gem home", home)
	} else {
		printKeyValue("Gem home", StyleDim.Render("managed by bundler"))
	}
	printList("Gem dirs", rt.GemDirs())
	printNewline()

	if b := rt.Bundler(); b != nil {
		printSection("Bundler project")
		printKeyValue("Root", b.Root)
		printKeyValue("Gemfile", b.GemfilePath())
		printKeyValue("App config", b.AppConfigDir())
		printKeyValue("Vendor", b.RubyVendorDir())
		if v, ok := b.RubyVersion(); ok {
			printKeyValue("Requires", v.String())
		} else {
			printKeyValue("Requires", StyleDim.Render("any"))
		}
		printKeyValue("Configured", yesNo(b.IsConfigured()))
		declared, err := b.DeclaredGems()
		if err != nil {
			c.Logger.Debug("cannot list gems", "err", err)
		}
		printList("Gems", declared)
		printNewline()
	}

	proj, err := c.project(rt.CurrentDir())
	switch {
	case err == nil:
		printSection("Project")
		printKeyValue("File", proj.Path())
		if proj.Metadata.Name != "" {
			printKeyValue("Name", proj.Metadata.Name)
		}
		if proj.Metadata.Description != "" {
			printKeyValue("Description", proj.Metadata.Description)
		}
		printList("Scripts", proj.ScriptNames())
		printNewline()
	case rberrors.Is(err, rberrors.ErrCodeNoProject):
	default:
		printWarning("%s", rberrors.UserMessage(err))
	}

	printSection("Variables")
	vars := rt.EnvVars(os.LookupEnv(butler.EnvPath))
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if k == butler.EnvPath || k == butler.EnvGemPath {
			printList(k, strings.Split(vars[k], butler.PathListSeparator()))
			continue
		}
		printKeyValue(k, vars[k])
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
