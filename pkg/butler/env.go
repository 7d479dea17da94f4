package butler

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	rberrors "github.com/rubyelders/rb/pkg/errors"
)

// Environment variable names rb produces.
const (
	EnvPath            = "PATH"
	EnvGemHome         = "GEM_HOME"
	EnvGemPath         = "GEM_PATH"
	EnvBundleGemfile   = "BUNDLE_GEMFILE"
	EnvBundleAppConfig = "BUNDLE_APP_CONFIG"
)

// PathListSeparator returns the PATH separator for the host platform.
func PathListSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

// BinDirs returns executable directories in PATH priority order: the
// bundler vendor bin when the project is configured, then gem bin dirs,
// then the interpreter's bin dir.
func (r *Runtime) BinDirs() []string {
	var dirs []string
	if r.bundler != nil && r.bundler.IsConfigured() {
		dirs = append(dirs, r.bundler.BinDir())
	}
	if r.gems != nil {
		dirs = append(dirs, r.gems.GemBinDirs...)
	}
	return append(dirs, r.ruby.BinDir())
}

// GemDirs returns the gem directories of the active configuration.
func (r *Runtime) GemDirs() []string {
	if r.gems == nil {
		return nil
	}
	return slices.Clone(r.gems.GemDirs)
}

// BuildPath prepends BinDirs to existing. When ok is false, or existing is
// empty, the result holds the bin dirs alone with no trailing separator.
func (r *Runtime) BuildPath(existing string, ok bool) string {
	parts := r.BinDirs()
	if ok && existing != "" {
		parts = append(parts, existing)
	}
	return strings.Join(parts, PathListSeparator())
}

// EnvVars returns the variables rb sets for child processes. PATH is
// always present. GEM_HOME and GEM_PATH are set together or not at all;
// an empty gem configuration (bundler isolation) sets neither.
func (r *Runtime) EnvVars(existingPath string, ok bool) map[string]string {
	vars := map[string]string{
		EnvPath: r.BuildPath(existingPath, ok),
	}

	if home := r.gems.GemHome(); home != "" {
		gemPath := []string{home}
		for _, dir := range r.gems.GemDirs {
			if !slices.Contains(gemPath, dir) {
				gemPath = append(gemPath, dir)
			}
		}
		vars[EnvGemHome] = home
		vars[EnvGemPath] = strings.Join(gemPath, PathListSeparator())
	}

	if r.bundler != nil {
		vars[EnvBundleGemfile] = r.bundler.GemfilePath()
		vars[EnvBundleAppConfig] = r.bundler.AppConfigDir()
	}
	return vars
}

// Environ returns os.Environ with the composed variables applied on top.
// It implements bundler.Environment.
func (r *Runtime) Environ() []string {
	return mergeEnv(os.Environ(), r.composed())
}

func (r *Runtime) composed() map[string]string {
	existing, ok := os.LookupEnv(EnvPath)
	return r.EnvVars(existing, ok)
}

// mergeEnv overlays vars on base, replacing existing keys in place and
// appending new ones in sorted order.
func mergeEnv(base []string, vars map[string]string) []string {
	out := make([]string, 0, len(base)+len(vars))
	seen := make(map[string]bool, len(vars))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		v, ok := lookupKey(vars, key)
		if !ok {
			out = append(out, kv)
			continue
		}
		// Duplicate keys in base collapse into one entry.
		if !seen[normKey(key)] {
			out = append(out, key+"="+v)
			seen[normKey(key)] = true
		}
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		if !seen[normKey(k)] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		out = append(out, k+"="+vars[k])
	}
	return out
}

// Variable names are case-insensitive on Windows.
func normKey(key string) string {
	if runtime.GOOS == "windows" {
		return strings.ToUpper(key)
	}
	return key
}

func lookupKey(vars map[string]string, key string) (string, bool) {
	for k, v := range vars {
		if normKey(k) == normKey(key) {
			return v, true
		}
	}
	return "", false
}

// LookPath searches the composed PATH for name. Names containing a path
// separator are checked directly. It implements bundler.Environment.
func (r *Runtime) LookPath(name string) (string, error) {
	return lookPath(name, r.BuildPath(os.LookupEnv(EnvPath)))
}

func lookPath(name, path string) (string, error) {
	if hasSeparator(name) {
		if found, ok := findExecutable(name); ok {
			return found, nil
		}
		return "", rberrors.Wrap(rberrors.ErrCodeCommandNotFound, exec.ErrNotFound, "command not found: %s", name)
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		if found, ok := findExecutable(filepath.Join(dir, name)); ok {
			return found, nil
		}
	}
	return "", rberrors.Wrap(rberrors.ErrCodeCommandNotFound, exec.ErrNotFound, "command not found: %s", name)
}

func hasSeparator(name string) bool {
	return strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator)
}

// findExecutable checks candidate and, on Windows, candidate with each
// PATHEXT extension.
func findExecutable(candidate string) (string, bool) {
	if runtime.GOOS != "windows" {
		return candidate, isExecutable(candidate)
	}
	if filepath.Ext(candidate) != "" && isExecutable(candidate) {
		return candidate, true
	}
	for _, ext := range pathExts() {
		if isExecutable(candidate + ext) {
			return candidate + ext, true
		}
	}
	return "", false
}

func pathExts() []string {
	raw := os.Getenv("PATHEXT")
	if raw == "" {
		return []string{".com", ".exe", ".bat", ".cmd"}
	}
	var exts []string
	for _, e := range strings.Split(strings.ToLower(raw), ";") {
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}
