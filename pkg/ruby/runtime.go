package ruby

import (
	"path/filepath"
	"runtime"
)

// Kind identifies a Ruby implementation.
type Kind int

const (
	// CRuby is the reference implementation (MRI).
	CRuby Kind = iota
)

// String returns the display name of the implementation.
func (k Kind) String() string {
	switch k {
	case CRuby:
		return "CRuby"
	default:
		return "unknown"
	}
}

// Runtime is one installed interpreter found by Discover.
type Runtime struct {
	Kind    Kind
	Version Version
	Root    string // installation directory, e.g. ~/.rubies/ruby-3.3.1
}

// NewRuntime creates a Runtime. Discover is the normal constructor; this
// exists for callers that already know where an interpreter lives.
func NewRuntime(kind Kind, version Version, root string) Runtime {
	return Runtime{Kind: kind, Version: version, Root: root}
}

// VersionName returns "<kind>-<version>", e.g. "CRuby-3.2.1".
func (r Runtime) VersionName() string {
	return r.Kind.String() + "-" + r.Version.String()
}

// BinDir returns the directory holding the interpreter's executables.
func (r Runtime) BinDir() string {
	return filepath.Join(r.Root, "bin")
}

// Executable returns the path of the ruby binary, with .exe on Windows.
func (r Runtime) Executable() string {
	return filepath.Join(r.BinDir(), "ruby"+exeSuffix())
}

// LibDir returns the interpreter's bundled gem directory,
// root/lib/ruby/gems/<major>.<minor>.0.
func (r Runtime) LibDir() string {
	return filepath.Join(r.Root, "lib", "ruby", "gems", r.Version.ABI())
}

func exeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
