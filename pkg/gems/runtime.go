// Package gems computes where RubyGems installs and looks up gems for a
// selected interpreter.
//
// The result of the detector chain is a [PathConfig]: an ordered list of
// gem directories (the first acts as GEM_HOME) and the bin directories
// that go in front of the interpreter on PATH. Chains are assembled by the
// caller with [NewChain]; which detectors participate depends on whether
// the working directory belongs to a bundler project.
package gems

import (
	"path/filepath"

	"github.com/rubyelders/rb/pkg/ruby"
)

// Runtime is the gem layout under one base directory for one Ruby ABI.
type Runtime struct {
	GemHome string // <base>/ruby/<major>.<minor>.0
	GemBin  string // GemHome/bin
}

// ForBaseDir returns the gem layout rooted at base for interpreter version v.
func ForBaseDir(base string, v ruby.Version) Runtime {
	home := filepath.Join(base, "ruby", v.ABI())
	return Runtime{
		GemHome: home,
		GemBin:  filepath.Join(home, "bin"),
	}
}

// PathConfig is the gem search configuration produced by a detector.
// Order matters: earlier entries win in both GEM_PATH and PATH.
type PathConfig struct {
	GemDirs    []string
	GemBinDirs []string
}

// GemHome returns the first gem directory, or "" for an empty config.
func (c *PathConfig) GemHome() string {
	if c == nil || len(c.GemDirs) == 0 {
		return ""
	}
	return c.GemDirs[0]
}

// IsEmpty reports whether the config carries no gem directories, which is
// how bundler isolation is expressed.
func (c *PathConfig) IsEmpty() bool {
	return c == nil || len(c.GemDirs) == 0
}
