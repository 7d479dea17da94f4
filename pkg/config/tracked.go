package config

import (
	"os"
	"path/filepath"
	"runtime"

	rberrors "github.com/rubyelders/rb/pkg/errors"
)

// Source says where a setting came from.
type Source int

const (
	SourceDefault Source = iota
	SourceEnvironment
	SourceConfigFile
	SourceCLI
	SourceAutoResolved
	SourceUnresolved
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceEnvironment:
		return "environment"
	case SourceConfigFile:
		return "config file"
	case SourceCLI:
		return "CLI argument"
	case SourceAutoResolved:
		return "auto-resolved"
	case SourceUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// IsExplicit reports whether the user set the value somewhere.
func (s Source) IsExplicit() bool {
	return s == SourceEnvironment || s == SourceConfigFile || s == SourceCLI
}

// Value is a setting together with its source.
type Value[T any] struct {
	Value  T
	Source Source
}

// TrackedConfig is the merged configuration.
type TrackedConfig struct {
	RubiesDir   Value[string]
	RubyVersion Value[string]
	GemHome     Value[string]
	NoBundler   Value[bool]
	WorkDir     Value[string]

	// File is the config file that was loaded, empty if none.
	File string

	// UnknownKeys lists keys in File that rb does not understand.
	UnknownKeys []string
}

// ResolveOptions are the inputs to Resolve.
type ResolveOptions struct {
	// CLI holds values from command-line flags.
	CLI RbConfig

	// ConfigPath is the --config flag.
	ConfigPath string

	// Environ replaces the process environment when non-nil.
	Environ map[string]string

	// HomeDir defaults to the user's home directory.
	HomeDir string

	// CurrentDir is the default work dir. Defaults to os.Getwd.
	CurrentDir string
}

// Resolve merges every layer. Precedence is CLI, then config file, then
// environment, then defaults.
func Resolve(opts ResolveOptions) (*TrackedConfig, error) {
	home := opts.HomeDir
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, rberrors.Wrap(rberrors.ErrCodeIO, err, "determine home directory")
		}
		home = h
	}
	cwd := opts.CurrentDir
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, rberrors.Wrap(rberrors.ErrCodeIO, err, "determine working directory")
		}
		cwd = wd
	}

	envCfg, err := ParseEnv(opts.Environ)
	if err != nil {
		return nil, err
	}

	locs := DefaultLocations(opts.ConfigPath, envCfg.Config, home, runtime.GOOS == "windows")
	if opts.Environ != nil {
		locs.XDGConfigHome = opts.Environ["XDG_CONFIG_HOME"]
		locs.AppData = opts.Environ["APPDATA"]
	}

	var (
		fileCfg RbConfig
		file    string
		unknown []string
	)
	if path, ok := Locate(locs); ok {
		fileCfg, unknown, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
		file = path
	}

	layers := []layer{
		{opts.CLI, SourceCLI},
		{fileCfg, SourceConfigFile},
		{envCfg.Layer(), SourceEnvironment},
	}

	tc := &TrackedConfig{
		RubiesDir:   pick(layers, func(c RbConfig) *string { return c.RubiesDir }, filepath.Join(home, ".rubies")),
		RubyVersion: pick(layers, func(c RbConfig) *string { return c.RubyVersion }, ""),
		GemHome:     pick(layers, func(c RbConfig) *string { return c.GemHome }, filepath.Join(home, ".gem")),
		NoBundler:   pick(layers, func(c RbConfig) *bool { return c.NoBundler }, false),
		WorkDir:     pick(layers, func(c RbConfig) *string { return c.WorkDir }, cwd),
		File:        file,
		UnknownKeys: unknown,
	}
	if tc.RubyVersion.Source == SourceDefault {
		tc.RubyVersion.Source = SourceUnresolved
	}
	return tc, nil
}

// MarkResolved records the version discovery picked when none was
// requested.
func (c *TrackedConfig) MarkResolved(version string) {
	if c.RubyVersion.Source == SourceUnresolved {
		c.RubyVersion = Value[string]{Value: version, Source: SourceAutoResolved}
	}
}

// ExplicitGemBase returns the gem base only when the user configured one.
// The default ~/.gem is left to the user gems detector.
func (c *TrackedConfig) ExplicitGemBase() string {
	if c.GemHome.Source.IsExplicit() {
		return c.GemHome.Value
	}
	return ""
}

// WorkDirChanged reports whether the work dir differs from the default.
func (c *TrackedConfig) WorkDirChanged() bool {
	return c.WorkDir.Source.IsExplicit()
}

type layer struct {
	cfg    RbConfig
	source Source
}

func pick[T any](layers []layer, field func(RbConfig) *T, def T) Value[T] {
	for _, l := range layers {
		if v := field(l.cfg); v != nil {
			return Value[T]{Value: *v, Source: l.source}
		}
	}
	return Value[T]{Value: def, Source: SourceDefault}
}
