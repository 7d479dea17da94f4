package ruby

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	rberrors "github.com/rubyelders/rb/pkg/errors"
)

// Version is a strict semantic version: MAJOR.MINOR.PATCH with an optional
// -prerelease and +build suffix. A leading "v", missing components and
// leading zeros are all rejected.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
	Build      string
}

// NewVersion returns a release version without prerelease or build data.
func NewVersion(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// ParseVersion parses s as a strict semantic version.
func ParseVersion(s string) (Version, error) {
	core, build, hasBuild := strings.Cut(s, "+")
	v := "v" + core

	if core == "" || !semver.IsValid(v) || semver.Canonical(v) != v {
		return Version{}, rberrors.New(rberrors.ErrCodeInvalidVersion, "invalid version %q", s)
	}
	if hasBuild && !semver.IsValid(v+"+"+build) {
		return Version{}, rberrors.New(rberrors.ErrCodeInvalidVersion, "invalid build metadata in %q", s)
	}

	nums, pre, _ := strings.Cut(core, "-")
	parts := strings.Split(nums, ".")
	out := Version{Prerelease: pre, Build: build}
	for i, dst := range []*int{&out.Major, &out.Minor, &out.Patch} {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return Version{}, rberrors.Wrap(rberrors.ErrCodeInvalidVersion, err, "invalid version %q", s)
		}
		*dst = n
	}
	return out, nil
}

// MustParseVersion is like ParseVersion but panics on error.
// Intended for tests and package-level constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String formats the version without a leading "v".
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Compare returns -1, 0 or +1 following semver precedence. Build metadata
// does not take part in the ordering.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.semver(), other.semver())
}

// Equal reports whether v and other have the same precedence.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// ABI returns the "major.minor.0" form Ruby uses for library and gem
// directories, independent of the installed patch level.
func (v Version) ABI() string {
	return fmt.Sprintf("%d.%d.0", v.Major, v.Minor)
}

func (v Version) semver() string {
	s := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}
