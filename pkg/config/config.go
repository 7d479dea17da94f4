// Package config resolves rb's settings from command-line flags, the
// rb.toml file, RB_* environment variables and built-in defaults, in that
// order of precedence, and remembers where each value came from.
package config

import (
	"errors"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	rberrors "github.com/rubyelders/rb/pkg/errors"
)

// RbConfig is one layer of settings. Nil fields are unset in that layer.
type RbConfig struct {
	RubiesDir   *string `toml:"rubies-dir"`
	RubyVersion *string `toml:"ruby-version"`
	GemHome     *string `toml:"gem-home"`
	NoBundler   *bool   `toml:"no-bundler"`
	WorkDir     *string `toml:"work-dir"`
}

// EnvConfig is the environment variable layer.
type EnvConfig struct {
	RubiesDir   *string `env:"RB_RUBIES_DIR"`
	RubyVersion *string `env:"RB_RUBY_VERSION"`
	GemHome     *string `env:"RB_GEM_HOME"`
	NoBundler   *bool   `env:"RB_NO_BUNDLER"`
	WorkDir     *string `env:"RB_WORK_DIR"`

	// Config points at a config file, below --config in priority.
	Config *string `env:"RB_CONFIG"`
}

// Layer returns the settings part of the environment layer.
func (e EnvConfig) Layer() RbConfig {
	return RbConfig{
		RubiesDir:   e.RubiesDir,
		RubyVersion: e.RubyVersion,
		GemHome:     e.GemHome,
		NoBundler:   e.NoBundler,
		WorkDir:     e.WorkDir,
	}
}

// ParseEnv reads RB_* variables from environ, or from the process
// environment when environ is nil.
func ParseEnv(environ map[string]string) (EnvConfig, error) {
	var cfg EnvConfig
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return EnvConfig{}, rberrors.Wrap(rberrors.ErrCodeInvalidConfig, err, "invalid RB_* environment variable")
	}
	return cfg, nil
}

// LoadFile reads a TOML config file. It also returns keys it did not
// recognize so callers can warn about typos.
func LoadFile(path string) (RbConfig, []string, error) {
	var cfg RbConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RbConfig{}, nil, rberrors.Wrap(rberrors.ErrCodeIO, err, "config file not found: %s", path)
		}
		return RbConfig{}, nil, rberrors.Wrap(rberrors.ErrCodeInvalidConfig, err, "Failed to parse %s", path)
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return cfg, unknown, nil
}
