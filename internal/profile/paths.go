// Package profile manages the per-profile directory tree under ~/.msgr.
// A profile holds everything local to one account: the persisted session,
// logs, and the instance lock.
package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.msgr.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".msgr")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// SessionPath returns the persisted session file for a profile.
func SessionPath(name string) string {
	return filepath.Join(Dir(name), "session.json")
}

// LockPath returns the lock file path for a profile.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with owner-only permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
