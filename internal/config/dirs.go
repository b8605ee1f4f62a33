// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gpudrv-cli/pkg/platform"
)

// userBase locates one kind of per-user directory on each OS.
type userBase struct {
	// windowsEnv falls back to %USERPROFILE%\AppData\<windowsDir>.
	windowsEnv string
	windowsDir string
	// xdgEnv falls back to ~/<xdgDir>.
	xdgEnv string
	xdgDir string
}

var (
	configBase = userBase{windowsEnv: "APPDATA", windowsDir: "Roaming", xdgEnv: "XDG_CONFIG_HOME", xdgDir: ".config"}
	dataBase   = userBase{windowsEnv: "LOCALAPPDATA", windowsDir: "Local", xdgEnv: "XDG_DATA_HOME", xdgDir: filepath.Join(".local", "share")}
)

// appDir returns <base>/gpudrv for the running OS. macOS keeps both kinds
// under ~/Library/Application Support.
func (b userBase) appDir() (string, error) {
	if runtime.GOOS == platform.Windows {
		base := os.Getenv(b.windowsEnv)
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", b.windowsDir)
		}
		return filepath.Join(base, AppName), nil
	}
	if runtime.GOOS != platform.Darwin {
		if base := os.Getenv(b.xdgEnv); base != "" {
			return filepath.Join(base, AppName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if runtime.GOOS == platform.Darwin {
		return filepath.Join(home, "Library", "Application Support", AppName), nil
	}
	return filepath.Join(home, b.xdgDir, AppName), nil
}

// ConfigDir returns the gpudrv configuration directory: %APPDATA% on
// Windows, ~/Library/Application Support on macOS and $XDG_CONFIG_HOME
// (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	return configBase.appDir()
}

// DefaultDataDir returns the platform data directory for gpudrv:
// %LOCALAPPDATA% on Windows, ~/Library/Application Support on macOS and
// $XDG_DATA_HOME (default ~/.local/share) elsewhere.
func DefaultDataDir() (string, error) {
	if dataDirOverride != "" {
		return dataDirOverride, nil
	}
	return dataBase.appDir()
}
