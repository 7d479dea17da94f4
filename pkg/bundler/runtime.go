// Package bundler models a bundler-managed project: where its Gemfile
// lives, where rb vendors its gems, and how to drive `bundle` to bring the
// vendor tree in line with the Gemfile.
//
// Nothing here is cached. IsConfigured, RubyVersion and DeclaredGems read
// the filesystem on every call, so two calls may disagree if the project
// changes in between.
package bundler

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/rubyelders/rb/pkg/ruby"
)

const (
	// AppConfigDirName is the per-project directory rb hands to bundler
	// as BUNDLE_APP_CONFIG.
	AppConfigDirName = ".rb"
)

// Environment is the composed process environment bundle runs in.
// butler.Runtime implements it.
type Environment interface {
	// Environ returns the full environment for a child process.
	Environ() []string

	// LookPath resolves an executable against the composed PATH.
	LookPath(name string) (string, error)
}

// Runtime is a detected bundler project.
type Runtime struct {
	// Root is the directory holding the Gemfile.
	Root string

	// Stderr receives bundle's stderr while installing. Nil means os.Stderr.
	Stderr io.Writer

	// Logger receives debug output. Nil discards.
	Logger *log.Logger

	// ruby is the selected interpreter; the vendor tree is keyed on its ABI.
	ruby ruby.Version
}

// New returns the runtime for the project at root, vendoring for the
// given interpreter version.
func New(root string, selected ruby.Version) *Runtime {
	return &Runtime{Root: root, ruby: selected}
}

// SelectedRuby returns the interpreter version the vendor tree is keyed on.
func (r *Runtime) SelectedRuby() ruby.Version { return r.ruby }

// GemfilePath returns <root>/Gemfile.
func (r *Runtime) GemfilePath() string {
	return filepath.Join(r.Root, ruby.GemfileName)
}

// AppConfigDir returns <root>/.rb.
func (r *Runtime) AppConfigDir() string {
	return filepath.Join(r.Root, AppConfigDirName)
}

// VendorDir returns <root>/.rb/vendor/bundler.
func (r *Runtime) VendorDir() string {
	return filepath.Join(r.AppConfigDir(), "vendor", "bundler")
}

// RubyVendorDir returns the ABI-specific gem directory bundler installs
// into, <vendor>/ruby/<major>.<minor>.0.
func (r *Runtime) RubyVendorDir() string {
	return filepath.Join(r.VendorDir(), "ruby", r.ruby.ABI())
}

// BinDir returns the vendored gems' executable directory.
func (r *Runtime) BinDir() string {
	return filepath.Join(r.RubyVendorDir(), "bin")
}

// IsConfigured reports whether the vendor directory exists right now.
func (r *Runtime) IsConfigured() bool {
	info, err := os.Stat(r.VendorDir())
	configured := err == nil && info.IsDir()
	r.logger().Debug("bundler vendor state", "dir", r.VendorDir(), "configured", configured)
	return configured
}

// RubyVersion returns the version the project asks for: .ruby-version
// first, then the Gemfile's ruby declaration.
func (r *Runtime) RubyVersion() (ruby.Version, bool) {
	return ruby.NewBundlerDetector(r.Logger).Detect(r.Root)
}

// DeclaredGems lists the gems named in the Gemfile, in file order.
func (r *Runtime) DeclaredGems() ([]string, error) {
	gf, err := ruby.ReadGemfile(r.GemfilePath())
	if err != nil {
		return nil, err
	}
	return gf.Gems, nil
}

// Detect walks up from startDir looking for a Gemfile and returns the
// directory that holds it.
func Detect(startDir string) (string, bool) {
	dir := filepath.Clean(startDir)
	for {
		// A Gemfile that is a directory or cannot be stat'ed is a miss.
		info, err := os.Stat(filepath.Join(dir, ruby.GemfileName))
		if err == nil && info.Mode().IsRegular() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (r *Runtime) logger() *log.Logger {
	if r.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return r.Logger
}

func (r *Runtime) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}
