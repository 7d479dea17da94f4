package ruby

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	rberrors "github.com/rubyelders/rb/pkg/errors"
)

// runtimeDirPattern matches installation directories such as ruby-3.2.5.
var runtimeDirPattern = regexp.MustCompile(`^ruby-(\d+)\.(\d+)\.(\d+)$`)

// Discover returns every Ruby installation directly under root, sorted by
// version with the latest first.
//
// Entries that are not directories, do not match ruby-X.Y.Z, or carry an
// unparsable version are skipped silently. A missing root fails with
// ErrCodeRubiesDirNotFound; any other read failure with ErrCodeIO.
func Discover(root string) ([]Runtime, error) {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, rberrors.Wrap(rberrors.ErrCodeRubiesDirNotFound, err, "rubies directory not found: %s", root)
		}
		return nil, rberrors.Wrap(rberrors.ErrCodeIO, err, "stat %s", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, rberrors.Wrap(rberrors.ErrCodeIO, err, "read rubies directory %s", root)
	}

	var out []Runtime
	for _, entry := range entries {
		// Type check first: a plain file named ruby-3.2.1 is not an installation.
		if !entry.IsDir() {
			continue
		}
		m := runtimeDirPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		version, err := ParseVersion(m[1] + "." + m[2] + "." + m[3])
		if err != nil {
			continue
		}
		out = append(out, Runtime{
			Kind:    CRuby,
			Version: version,
			Root:    filepath.Join(root, entry.Name()),
		})
	}

	slices.SortStableFunc(out, func(a, b Runtime) int {
		return b.Version.Compare(a.Version)
	})
	return out, nil
}

// Latest returns the runtime with the highest version.
func Latest(rubies []Runtime) (Runtime, bool) {
	if len(rubies) == 0 {
		return Runtime{}, false
	}
	best := rubies[0]
	for _, r := range rubies[1:] {
		if r.Version.Compare(best.Version) > 0 {
			best = r
		}
	}
	return best, true
}

// Find returns the runtime whose version equals v.
func Find(rubies []Runtime, v Version) (Runtime, bool) {
	for _, r := range rubies {
		if r.Version.Equal(v) {
			return r, true
		}
	}
	return Runtime{}, false
}
