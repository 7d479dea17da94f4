package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rubyelders/rb/pkg/project"
	"github.com/rubyelders/rb/pkg/ruby"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for rb.

Completions cover commands and flags, the installed Ruby versions for
--ruby, and the scripts of the nearest rbproject.toml for rb run.

To load completions:

Bash:
  $ source <(rb completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ rb completion bash > /etc/bash_completion.d/rb
  # macOS:
  $ rb completion bash > $(brew --prefix)/etc/bash_completion.d/rb

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ rb completion zsh > "${fpath[1]}/_rb"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ rb completion fish | source

  # To load completions for each session, execute once:
  $ rb completion fish > ~/.config/fish/completions/rb.fish

PowerShell:
  PS> rb completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> rb completion powershell > rb.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}

// =============================================================================
// Dynamic Completion
// =============================================================================

// Completion requests carry their own flags, so these resolve the
// configuration from the flags cobra parsed for the request.

// completeRubyVersions offers the installed versions for --ruby.
func (c *CLI) completeRubyVersions(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	rubies, err := ruby.Discover(cfg.RubiesDir.Value)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	versions := make([]string, 0, len(rubies))
	for _, r := range rubies {
		versions = append(versions, r.Version.String()+"\t"+r.Root)
	}
	return versions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveKeepOrder
}

// completeScripts offers script names for the first argument of rb run.
// Later arguments are handed to the script, so files complete as usual.
func (c *CLI) completeScripts(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	dir := cfg.WorkDir.Value
	if dir == "" {
		dir, _ = os.Getwd()
	}
	proj, err := c.project(dir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return scriptCompletions(proj), cobra.ShellCompDirectiveNoFileComp
}

// scriptCompletions pairs each script name with its description, or its
// command when it has none.
func scriptCompletions(p *project.Runtime) []string {
	entries := scriptEntries(p)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		desc := e.Description
		if desc == "" {
			desc = e.Command
		}
		out = append(out, e.Name+"\t"+desc)
	}
	return out
}
