package config

import (
	"os"
	"path/filepath"
)

// FileName is the config file name inside a config directory.
const FileName = "rb.toml"

// Locations holds everything Locate consults. Fill it with
// DefaultLocations and override fields in tests.
type Locations struct {
	Explicit      string // --config
	EnvConfig     string // RB_CONFIG
	XDGConfigHome string
	AppData       string
	Home          string
	Windows       bool
}

// DefaultLocations reads the process environment.
func DefaultLocations(explicit string, envConfig *string, home string, windows bool) Locations {
	l := Locations{
		Explicit:      explicit,
		XDGConfigHome: os.Getenv("XDG_CONFIG_HOME"),
		AppData:       os.Getenv("APPDATA"),
		Home:          home,
		Windows:       windows,
	}
	if envConfig != nil {
		l.EnvConfig = *envConfig
	}
	return l
}

// Candidates returns the config file paths to try, in priority order.
func (l Locations) Candidates() []string {
	var paths []string
	add := func(p string) {
		if p != "" {
			paths = append(paths, p)
		}
	}

	add(l.Explicit)
	add(l.EnvConfig)
	if l.XDGConfigHome != "" {
		add(filepath.Join(l.XDGConfigHome, "rb", FileName))
	}
	if l.Windows {
		if l.AppData != "" {
			add(filepath.Join(l.AppData, "rb", FileName))
		}
	} else if l.Home != "" {
		add(filepath.Join(l.Home, ".config", "rb", FileName))
	}
	if l.Home != "" {
		add(filepath.Join(l.Home, ".rb.toml"))
	}
	return paths
}

// Locate returns the first candidate that exists as a regular file.
func Locate(l Locations) (string, bool) {
	for _, p := range l.Candidates() {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}
