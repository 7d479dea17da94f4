// Package project loads rbproject.toml, the file that declares named
// scripts for `rb run`.
//
//	[project]
//	name = "Billing"
//	description = "Invoices and payments"
//
//	[scripts]
//	test = "rspec"
//	lint = { command = "rubocop", description = "Check style" }
package project

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	rberrors "github.com/rubyelders/rb/pkg/errors"
)

// FileName is the project file rb looks for.
const FileName = "rbproject.toml"

// DefaultTemplate is what `rb init` writes.
const DefaultTemplate = `[project]
name = "Butler project template"
description = "Please fill in"

[scripts]
ruby-version = "ruby -v"
`

// Metadata is the [project] table.
type Metadata struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// Runtime is a loaded project file.
type Runtime struct {
	Root     string
	Metadata Metadata
	Scripts  map[string]ScriptDefinition
}

type fileFormat struct {
	Project Metadata       `toml:"project"`
	Scripts map[string]any `toml:"scripts"`
}

// Load parses the project file at path.
func Load(path string) (*Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, rberrors.Wrap(rberrors.ErrCodeNoProject, err, "no %s at %s", FileName, filepath.Dir(path))
		}
		return nil, rberrors.Wrap(rberrors.ErrCodeIO, err, "read %s", path)
	}

	var raw fileFormat
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, rberrors.Wrap(rberrors.ErrCodeInvalidProject, err, "Failed to parse %s", FileName)
	}

	scripts := make(map[string]ScriptDefinition, len(raw.Scripts))
	for name, value := range raw.Scripts {
		if err := rberrors.ValidateScriptName(name); err != nil {
			return nil, err
		}
		var def ScriptDefinition
		if err := def.UnmarshalTOML(value); err != nil {
			return nil, rberrors.Wrap(rberrors.ErrCodeInvalidProject, err, "script %q in %s", name, path)
		}
		scripts[name] = def
	}

	return &Runtime{
		Root:     filepath.Dir(path),
		Metadata: raw.Project,
		Scripts:  scripts,
	}, nil
}

// Detect walks up from startDir and returns the path of the nearest
// project file.
func Detect(startDir string) (string, bool) {
	dir := filepath.Clean(startDir)
	for {
		path := filepath.Join(dir, FileName)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Find detects and loads the nearest project file. It returns
// ErrCodeNoProject when there is none.
func Find(startDir string) (*Runtime, error) {
	path, ok := Detect(startDir)
	if !ok {
		return nil, rberrors.New(rberrors.ErrCodeNoProject, "no %s found from %s", FileName, startDir)
	}
	return Load(path)
}

// Path returns the location of the project file.
func (r *Runtime) Path() string {
	return filepath.Join(r.Root, FileName)
}

// ScriptNames returns script names in sorted order.
func (r *Runtime) ScriptNames() []string {
	names := make([]string, 0, len(r.Scripts))
	for name := range r.Scripts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Script returns the named script.
func (r *Runtime) Script(name string) (ScriptDefinition, error) {
	def, ok := r.Scripts[name]
	if !ok {
		return ScriptDefinition{}, rberrors.New(rberrors.ErrCodeScriptNotFound, "script %q not found in %s", name, r.Path())
	}
	return def, nil
}

// HasScript reports whether the named script exists.
func (r *Runtime) HasScript(name string) bool {
	_, ok := r.Scripts[name]
	return ok
}

// CreateDefault writes DefaultTemplate into dir. It never overwrites an
// existing file.
func CreateDefault(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", rberrors.New(rberrors.ErrCodeProjectExists,
				"%s already exists in this directory; delete it first to recreate it", FileName)
		}
		return "", rberrors.Wrap(rberrors.ErrCodeIO, err, "Failed to create %s", FileName)
	}
	if _, err := f.WriteString(DefaultTemplate); err != nil {
		f.Close()
		return "", rberrors.Wrap(rberrors.ErrCodeIO, err, "Failed to write %s", FileName)
	}
	if err := f.Close(); err != nil {
		return "", rberrors.Wrap(rberrors.ErrCodeIO, err, "Failed to write %s", FileName)
	}
	return path, nil
}
