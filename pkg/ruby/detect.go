package ruby

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// PinFileName is the per-directory version pin file.
const PinFileName = ".ruby-version"

// VersionDetector extracts a required Ruby version from a project
// directory. Detect reports false when the detector has nothing to say;
// it never fails.
type VersionDetector interface {
	Detect(dir string) (Version, bool)
	Name() string
}

// =============================================================================
// Composite
// =============================================================================

// CompositeDetector tries detectors in order and returns the first match.
// The order is part of the contract and is fixed by the caller.
type CompositeDetector struct {
	Detectors []VersionDetector
	Logger    *log.Logger
}

// NewCompositeDetector creates a chain from detectors in the given order.
// A nil logger discards output.
func NewCompositeDetector(logger *log.Logger, detectors ...VersionDetector) *CompositeDetector {
	return &CompositeDetector{Detectors: detectors, Logger: orDiscard(logger)}
}

// NewBundlerDetector returns the chain used for bundler projects: the pin
// file wins over the Gemfile declaration.
func NewBundlerDetector(logger *log.Logger) *CompositeDetector {
	logger = orDiscard(logger)
	return NewCompositeDetector(logger,
		&PinFileDetector{Logger: logger},
		&GemfileDetector{Logger: logger},
	)
}

// Detect returns the first version any detector finds in dir.
func (c *CompositeDetector) Detect(dir string) (Version, bool) {
	logger := orDiscard(c.Logger)
	for _, d := range c.Detectors {
		logger.Debug("trying version detector", "detector", d.Name(), "dir", dir)
		if v, ok := d.Detect(dir); ok {
			logger.Debug("version detected", "detector", d.Name(), "version", v)
			return v, true
		}
	}
	logger.Debug("no ruby version requirement found", "dir", dir)
	return Version{}, false
}

// Name implements VersionDetector so chains can nest.
func (c *CompositeDetector) Name() string { return "composite" }

// =============================================================================
// Pin File
// =============================================================================

// PinFileDetector reads .ruby-version.
type PinFileDetector struct {
	Logger *log.Logger
}

func (d *PinFileDetector) Name() string { return PinFileName }

func (d *PinFileDetector) Detect(dir string) (Version, bool) {
	logger := orDiscard(d.Logger)
	path := filepath.Join(dir, PinFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("cannot read version file", "path", path, "err", err)
		}
		return Version{}, false
	}

	raw := strings.TrimSpace(string(data))
	v, err := ParseVersion(raw)
	if err != nil {
		logger.Warn("ignoring malformed version file", "path", path, "content", raw)
		return Version{}, false
	}
	return v, true
}

// =============================================================================
// Gemfile
// =============================================================================

// GemfileDetector reads the `ruby '<version>'` declaration of a Gemfile.
// Only the first declaration counts; if it does not parse, the detector
// reports no match rather than looking further down the file.
type GemfileDetector struct {
	Logger *log.Logger
}

func (d *GemfileDetector) Name() string { return GemfileName }

func (d *GemfileDetector) Detect(dir string) (Version, bool) {
	logger := orDiscard(d.Logger)
	path := filepath.Join(dir, GemfileName)

	gf, err := ReadGemfile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("cannot read Gemfile", "path", path, "err", err)
		}
		return Version{}, false
	}
	if gf.Ruby == "" {
		return Version{}, false
	}

	v, err := ParseVersion(gf.Ruby)
	if err != nil {
		logger.Warn("ignoring unparsable ruby declaration", "path", path, "version", gf.Ruby)
		return Version{}, false
	}
	return v, true
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return l
}
