// Package butler composes the environment rb runs commands in.
//
// [Discover] goes from a rubies directory and a working directory to a
// [Runtime]. Along the way it:
//
//   - discovers installed interpreters
//   - detects a bundler project by walking up from the working directory
//   - selects an interpreter (explicit request, then the project's pinned
//     version, then the latest)
//   - runs the gem path detector chain
//
// The resulting Runtime is read-only. It knows how to build PATH, GEM_HOME
// and GEM_PATH, how to find executables on that PATH, and how to run a
// program with `bundle exec` when the project calls for it.
package butler

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/rubyelders/rb/pkg/bundler"
	rberrors "github.com/rubyelders/rb/pkg/errors"
	"github.com/rubyelders/rb/pkg/gems"
	"github.com/rubyelders/rb/pkg/ruby"
)

// Options controls Discover.
type Options struct {
	// RubiesDir holds ruby-X.Y.Z installation directories.
	RubiesDir string

	// RequestedVersion, when set, must name an installed interpreter.
	RequestedVersion string

	// GemBase overrides where gems are installed. Empty selects the
	// user gems layout (or bundler isolation inside a project).
	GemBase string

	// NoBundler skips bundler project detection.
	NoBundler bool

	// CurrentDir is where project detection starts. Defaults to the
	// process working directory.
	CurrentDir string

	// HomeDir is the base for ~/.gem. Defaults to the user's home.
	HomeDir string

	Logger *log.Logger
}

// Runtime is a fully resolved environment.
type Runtime struct {
	ruby      ruby.Runtime
	gems      *gems.PathConfig
	gemSource string
	bundler   *bundler.Runtime

	rubiesDir  string
	rubies     []ruby.Runtime
	requested  string
	currentDir string

	logger *log.Logger
}

// New assembles a runtime from parts that were resolved elsewhere.
// gemConfig and bundlerRT may be nil.
func New(selected ruby.Runtime, gemConfig *gems.PathConfig, bundlerRT *bundler.Runtime) *Runtime {
	return &Runtime{
		ruby:    selected,
		gems:    gemConfig,
		bundler: bundlerRT,
		rubies:  []ruby.Runtime{selected},
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
}

// Discover resolves the runtime for opts.
func Discover(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	currentDir := opts.CurrentDir
	if currentDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, rberrors.Wrap(rberrors.ErrCodeIO, err, "determine working directory")
		}
		currentDir = wd
	}
	homeDir := opts.HomeDir
	if homeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, rberrors.Wrap(rberrors.ErrCodeIO, err, "determine home directory")
		}
		homeDir = home
	}

	rubies, err := ruby.Discover(opts.RubiesDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered rubies", "dir", opts.RubiesDir, "count", len(rubies))
	if len(rubies) == 0 {
		return nil, rberrors.New(rberrors.ErrCodeNoSuitableRuby, "no Ruby installations found in %s", opts.RubiesDir)
	}

	var (
		projectRoot string
		inProject   bool
	)
	if opts.NoBundler {
		logger.Debug("bundler detection disabled")
	} else {
		projectRoot, inProject = bundler.Detect(currentDir)
		if inProject {
			logger.Info("bundler project detected", "root", projectRoot)
		}
	}

	selected, err := selectRuby(rubies, opts.RequestedVersion, projectRoot, inProject, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("selected ruby", "version", selected.Version, "root", selected.Root)

	var bundlerRT *bundler.Runtime
	if inProject {
		bundlerRT = bundler.New(projectRoot, selected.Version)
		bundlerRT.Logger = logger
	}

	gemConfig, from := gems.NewChain(inProject).Detect(gems.Context{
		CurrentDir:    currentDir,
		Ruby:          selected,
		CustomGemBase: opts.GemBase,
		HomeDir:       homeDir,
	})
	logger.Debug("gem configuration", "detector", from, "gem_home", gemConfig.GemHome(), "dirs", len(gemConfig.GemDirs))

	return &Runtime{
		ruby:       selected,
		gems:       gemConfig,
		gemSource:  from,
		bundler:    bundlerRT,
		rubiesDir:  opts.RubiesDir,
		rubies:     rubies,
		requested:  opts.RequestedVersion,
		currentDir: currentDir,
		logger:     logger,
	}, nil
}

func selectRuby(rubies []ruby.Runtime, requested, projectRoot string, inProject bool, logger *log.Logger) (ruby.Runtime, error) {
	latest, _ := ruby.Latest(rubies)

	if requested != "" {
		v, err := ruby.ParseVersion(requested)
		if err != nil {
			return ruby.Runtime{}, err
		}
		rt, ok := ruby.Find(rubies, v)
		if !ok {
			return ruby.Runtime{}, rberrors.New(rberrors.ErrCodeNoSuitableRuby,
				"requested Ruby %s not found in available set", v)
		}
		return rt, nil
	}

	if inProject {
		want, ok := ruby.NewBundlerDetector(logger).Detect(projectRoot)
		if !ok {
			return latest, nil
		}
		if rt, found := ruby.Find(rubies, want); found {
			return rt, nil
		}
		logger.Warn("required ruby is not installed, using latest",
			"required", want, "using", latest.Version)
	}
	return latest, nil
}

// Ruby returns the selected interpreter.
func (r *Runtime) Ruby() ruby.Runtime { return r.ruby }

// Gems returns the gem path configuration. It is nil when none was
// computed and empty under bundler isolation.
func (r *Runtime) Gems() *gems.PathConfig { return r.gems }

// GemSource names the gem path detector that produced Gems.
func (r *Runtime) GemSource() string { return r.gemSource }

// Bundler returns the bundler project, or nil outside one.
func (r *Runtime) Bundler() *bundler.Runtime { return r.bundler }

// RubiesDir returns the directory installations were discovered in.
func (r *Runtime) RubiesDir() string { return r.rubiesDir }

// Installations returns every discovered interpreter, latest first.
func (r *Runtime) Installations() []ruby.Runtime { return r.rubies }

// RequestedVersion returns the version the caller asked for, if any.
func (r *Runtime) RequestedVersion() string { return r.requested }

// CurrentDir returns the directory project detection started from.
func (r *Runtime) CurrentDir() string { return r.currentDir }
