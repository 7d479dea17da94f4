// Package cli implements the rb command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/rubyelders/rb/pkg/buildinfo"
	"github.com/rubyelders/rb/pkg/butler"
	"github.com/rubyelders/rb/pkg/config"
	rberrors "github.com/rubyelders/rb/pkg/errors"
	"github.com/rubyelders/rb/pkg/observability"
	"github.com/rubyelders/rb/pkg/project"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "rb"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel

	// LogNone sits above every level rb logs at.
	LogNone = log.FatalLevel + 1
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	flags  globalFlags
	config *config.TrackedConfig
}

// globalFlags are the persistent flags every command accepts.
type globalFlags struct {
	rubiesDir string
	ruby      string
	gemHome   string
	noBundler bool
	workDir   string
	config    string
	project   string
	verbose   int
	logLevel  string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "rb runs commands against the right Ruby",
		Long: `rb discovers Ruby installations, picks the one your project asks for
(.ruby-version, then the Gemfile's ruby directive, then the latest) and runs
commands with PATH, GEM_HOME and GEM_PATH composed for it. Inside a bundler
project gems are vendored under .rb/ and commands go through bundle exec.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	f := root.PersistentFlags()
	f.StringVarP(&c.flags.rubiesDir, "rubies-dir", "R", "", "directory holding ruby-X.Y.Z installations (default ~/.rubies)")
	f.StringVarP(&c.flags.ruby, "ruby", "r", "", "use this Ruby version instead of detecting one")
	f.StringVarP(&c.flags.gemHome, "gem-home", "G", "", "base directory for installed gems (default ~/.gem)")
	f.BoolVarP(&c.flags.noBundler, "no-bundler", "B", false, "ignore any Gemfile")
	f.StringVarP(&c.flags.workDir, "work-dir", "C", "", "run as if rb was started in this directory")
	f.StringVarP(&c.flags.config, "config", "c", "", "path to rb.toml")
	f.StringVarP(&c.flags.project, "project", "P", "", "path to rbproject.toml")
	f.CountVarP(&c.flags.verbose, "verbose", "v", "increase log output (-v info, -vv debug)")
	f.StringVar(&c.flags.logLevel, "log-level", "", "log level: none, info or debug")

	_ = root.RegisterFlagCompletionFunc("ruby", c.completeRubyVersions)
	_ = root.RegisterFlagCompletionFunc("log-level", cobra.FixedCompletions(
		[]string{"none", "info", "debug"}, cobra.ShellCompDirectiveNoFileComp))

	// Register all subcommands
	root.AddCommand(c.runtimeCommand())
	root.AddCommand(c.environmentCommand())
	root.AddCommand(c.execCommand())
	root.AddCommand(c.syncCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Setup
// =============================================================================

// setup runs before every command: it settles the log level, resolves the
// configuration and moves into the work dir.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	level, err := parseLogLevel(c.flags.verbose, c.flags.logLevel)
	if err != nil {
		return err
	}
	c.SetLogLevel(level)

	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	for _, key := range cfg.UnknownKeys {
		c.Logger.Warn("unknown config key", "key", key, "file", cfg.File)
	}

	if cfg.WorkDirChanged() {
		if err := os.Chdir(cfg.WorkDir.Value); err != nil {
			return rberrors.Wrap(rberrors.ErrCodeIO, err, "cannot change to work dir %s", cfg.WorkDir.Value)
		}
		c.Logger.Debug("changed work dir", "dir", cfg.WorkDir.Value, "source", cfg.WorkDir.Source)
	}

	observability.SetExecHooks(logExecHooks{logger: c.Logger})
	observability.SetSyncHooks(logSyncHooks{logger: c.Logger})

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// loadConfig merges flags, the config file, RB_* variables and defaults.
// Only flags the user actually passed form the CLI layer.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.TrackedConfig, error) {
	flags := cmd.Flags()
	var layer config.RbConfig
	if flags.Changed("rubies-dir") {
		layer.RubiesDir = &c.flags.rubiesDir
	}
	if flags.Changed("ruby") {
		layer.RubyVersion = &c.flags.ruby
	}
	if flags.Changed("gem-home") {
		layer.GemHome = &c.flags.gemHome
	}
	if flags.Changed("no-bundler") {
		layer.NoBundler = &c.flags.noBundler
	}
	if flags.Changed("work-dir") {
		layer.WorkDir = &c.flags.workDir
	}

	cfg, err := config.Resolve(config.ResolveOptions{CLI: layer, ConfigPath: c.flags.config})
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		c.Logger.Debug("loaded config", "file", cfg.File)
	}
	c.config = cfg
	return cfg, nil
}

// =============================================================================
// Runtime Factory
// =============================================================================

// runtime discovers installations and composes the environment. It is
// re-run on every call; nothing is cached between commands.
func (c *CLI) runtime() (*butler.Runtime, error) {
	cfg := c.config
	rt, err := butler.Discover(butler.Options{
		RubiesDir:        cfg.RubiesDir.Value,
		RequestedVersion: cfg.RubyVersion.Value,
		GemBase:          cfg.ExplicitGemBase(),
		NoBundler:        cfg.NoBundler.Value,
		Logger:           c.Logger,
	})
	if err != nil {
		return nil, err
	}
	cfg.MarkResolved(rt.Ruby().Version.String())
	return rt, nil
}

// project loads the project file named by --project, or the nearest
// rbproject.toml above dir.
func (c *CLI) project(dir string) (*project.Runtime, error) {
	if c.flags.project != "" {
		return project.Load(c.flags.project)
	}
	return project.Find(dir)
}

// parseLogLevel maps -v and --log-level to a logger level. The verbosity
// count wins when both are given.
func parseLogLevel(verbose int, name string) (log.Level, error) {
	switch {
	case verbose >= 2:
		return LogDebug, nil
	case verbose == 1:
		return LogInfo, nil
	}
	switch name {
	case "":
		return LogWarn, nil
	case "none":
		return LogNone, nil
	case "info":
		return LogInfo, nil
	case "debug":
		return LogDebug, nil
	}
	return LogWarn, rberrors.New(rberrors.ErrCodeInvalidInput, "unknown log level %q (want none, info or debug)", name)
}
