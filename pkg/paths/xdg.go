// Package paths provides XDG-compliant path resolution for launchsync.
//
// Resolution order:
// 1. LAUNCHSYNC_HOME (portable root) → $LAUNCHSYNC_HOME/{config,state,run}
// 2. XDG env vars → $XDG_*_HOME/launchsync
// 3. Platform defaults → ~/.config/launchsync, ~/.local/state/launchsync
package paths

import (
	"os"
	"path/filepath"
)

const appName = "launchsync"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("LAUNCHSYNC_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("LAUNCHSYNC_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the global configuration directory.
// Used for the global launchsync.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the state directory.
// Used for the current project state, logs and the pid file.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// LogDir returns the directory for file log sinks.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// TempRoot returns the directory that holds per-sketch temp folders.
// LAUNCHSYNC_TEMP_ROOT overrides the system temp dir.
func TempRoot() string {
	if dir := os.Getenv("LAUNCHSYNC_TEMP_ROOT"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// RuntimeDir returns the runtime directory for the API socket.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir (macOS).
func RuntimeDir() string {
	if home := os.Getenv("LAUNCHSYNC_HOME"); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return StateDir()
}

// SocketPath returns the path to the watch session's unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "launchsync.sock")
}

// PidFilePath returns the path to the watch session's PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "launchsync.pid")
}

// EnsureDirs creates all launchsync directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
