package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	rberrors "github.com/rubyelders/rb/pkg/errors"
	"github.com/rubyelders/rb/pkg/project"
)

func (c *CLI) runCommand() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "run [script] [args...]",
		Short: "Run a script defined in rbproject.toml",
		Long: `Run a named script from the nearest rbproject.toml. Without a name the
available scripts are listed; --pick chooses one interactively.

Scripts run from the project directory with the same environment as
rb exec. $VARIABLES in the script expand against that environment, and
extra arguments are appended to the script's command.`,
		Example: `  rb run
  rb run test
  rb run test spec/models/user_spec.rb
  rb run --pick`,
		ValidArgsFunction: c.completeScripts,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return rberrors.Wrap(rberrors.ErrCodeIO, err, "determine working directory")
			}
			proj, err := c.project(cwd)
			if err != nil {
				return err
			}

			if pick {
				if !isTerminal(os.Stdin) || !isTerminal(stdout) {
					return rberrors.New(rberrors.ErrCodeInvalidInput, "--pick needs an interactive terminal")
				}
				name, err := pickScript(proj)
				if err != nil {
					return rberrors.Wrap(rberrors.ErrCodeInternal, err, "script picker failed")
				}
				if name == "" {
					return nil
				}
				args = append([]string{name}, args...)
			}

			if len(args) == 0 {
				listScripts(proj)
				return nil
			}

			def, err := proj.Script(args[0])
			if err != nil {
				return err
			}
			rt, err := c.runtime()
			if err != nil {
				return err
			}
			argv, err := def.Argv(envLookup(rt.Environ()))
			if err != nil {
				return err
			}
			argv = append(argv, args[1:]...)
			c.Logger.Info("running script", "name", args[0], "argv", argv)
			return c.execute(cmd.Context(), rt, argv, proj.Root)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVarP(&pick, "pick", "p", false, "choose a script interactively")
	return cmd
}

// listScripts prints the project's scripts as a table.
func listScripts(p *project.Runtime) {
	entries := scriptEntries(p)
	if len(entries) == 0 {
		printInfo("No scripts defined in %s", p.Path())
		printNextStep("Add one under [scripts]", `test = "rspec"`)
		return
	}

	title := "Scripts"
	if p.Metadata.Name != "" {
		title = p.Metadata.Name + " scripts"
	}
	fmt.Fprintln(stdout, StyleTitle.Render(title)+" "+StyleDim.Render(p.Path()))

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, e.Command, e.Description})
	}
	fmt.Fprintln(stdout, renderTable([]string{"Script", "Command", "Description"}, rows, nil))
	printNextStep("Run one", "rb run <script>")
}

// envLookup returns a variable lookup over a KEY=VALUE list, the form
// exec.Cmd takes its environment in. Later entries win.
func envLookup(environ []string) func(string) string {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return func(name string) string { return vars[name] }
}
