package gems

import (
	"fmt"
	"path/filepath"

	"github.com/rubyelders/rb/pkg/ruby"
)

// Context is the input every PathDetector sees.
type Context struct {
	CurrentDir    string
	Ruby          ruby.Runtime
	CustomGemBase string // empty when no override was requested
	HomeDir       string
}

// PathDetector produces a gem configuration for a context, or reports
// false when it does not apply.
type PathDetector interface {
	Detect(ctx Context) (*PathConfig, bool)
	Name() string
}

// CustomBaseDetector applies when the user pointed rb at a gem base
// explicitly. It always wins when present.
type CustomBaseDetector struct{}

func (CustomBaseDetector) Name() string { return "custom-base" }

func (CustomBaseDetector) Detect(ctx Context) (*PathConfig, bool) {
	if ctx.CustomGemBase == "" {
		return nil, false
	}
	rt := ForBaseDir(ctx.CustomGemBase, ctx.Ruby.Version)
	return &PathConfig{
		GemDirs:    []string{rt.GemHome},
		GemBinDirs: []string{rt.GemBin},
	}, true
}

// BundlerIsolationDetector hands gem resolution to bundler by returning an
// empty config, so GEM_HOME is not pointed at the user's gems.
//
// It matches unconditionally. Only add it to chains built for bundler
// projects.
type BundlerIsolationDetector struct{}

func (BundlerIsolationDetector) Name() string { return "bundler-isolation" }

func (BundlerIsolationDetector) Detect(Context) (*PathConfig, bool) {
	return &PathConfig{}, true
}

// UserGemsDetector is the fallback: ~/.gem/ruby/<abi> first, then the
// interpreter's own gem directory.
type UserGemsDetector struct{}

func (UserGemsDetector) Name() string { return "user-gems" }

func (UserGemsDetector) Detect(ctx Context) (*PathConfig, bool) {
	user := ForBaseDir(filepath.Join(ctx.HomeDir, ".gem"), ctx.Ruby.Version)
	lib := ctx.Ruby.LibDir()
	return &PathConfig{
		GemDirs:    []string{user.GemHome, lib},
		GemBinDirs: []string{user.GemBin, filepath.Join(lib, "bin")},
	}, true
}

// CompositeDetector runs detectors in order and returns the first match.
// It never comes back empty-handed: if the chain is exhausted the user
// gems detector is consulted directly.
type CompositeDetector struct {
	Detectors []PathDetector
}

// NewChain returns the standard chain. Bundler projects get the isolation
// detector between the custom base and the user gems fallback.
func NewChain(bundlerProject bool) *CompositeDetector {
	detectors := []PathDetector{CustomBaseDetector{}}
	if bundlerProject {
		detectors = append(detectors, BundlerIsolationDetector{})
	}
	detectors = append(detectors, UserGemsDetector{})
	return &CompositeDetector{Detectors: detectors}
}

// Detect returns the winning config and the name of the detector that
// produced it.
func (c *CompositeDetector) Detect(ctx Context) (*PathConfig, string) {
	for _, d := range c.Detectors {
		if cfg, ok := d.Detect(ctx); ok {
			return cfg, d.Name()
		}
	}
	fallback := UserGemsDetector{}
	cfg, ok := fallback.Detect(ctx)
	if !ok {
		panic(fmt.Sprintf("gems: %s detector returned no configuration", fallback.Name()))
	}
	return cfg, fallback.Name()
}
