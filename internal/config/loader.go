package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvPath names a config file that takes precedence over the standard
// locations.
const EnvPath = "MASKERASER_CONFIG"

// Loader finds and reads the configuration file.
type Loader struct {
	Version      string // "dev" builds also look in the working directory
	OverridePath string // set at link time
}

func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Load parses the first config file found. Without one it returns the
// defaults.
func (l *Loader) Load() (*Config, error) {
	path := l.GetConfigPath()
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// candidates lists config locations in lookup order.
func (l *Loader) candidates() []string {
	paths := []string{l.OverridePath, os.Getenv(EnvPath)}
	if l.Version == "dev" {
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, ".maskeraserrc"))
		}
	}
	return append(paths, DefaultPath())
}

// GetConfigPath returns the first existing config file, or "".
func (l *Loader) GetConfigPath() string {
	for _, p := range l.candidates() {
		if p == "" {
			continue
		}
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// DefaultPath is $XDG_CONFIG_HOME/maskeraser/config.rc, falling back to
// ~/.config. `config save` writes here when no file exists yet.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "maskeraser", "config.rc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "maskeraser", "config.rc")
}
