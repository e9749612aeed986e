// Package paths resolves where travelbrag keeps its configuration, its
// database, and its backups.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "travelbrag"

// File and directory names inside the resolved directories.
const (
	ConfigFileName   = "travelbrag.toml"
	DatabaseFileName = "travelogue.sqlite3"
	BackupDirName    = "backups"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "TRAVELBRAG_CONFIG_DIR"
	EnvDataDir   = "TRAVELBRAG_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/travelbrag (fallback ~/.config/travelbrag)
// macOS:   ~/Library/Application Support/travelbrag
// Windows: %APPDATA%/travelbrag
func DefaultConfigDir() (string, error) {
	return platformAppDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/travelbrag (fallback ~/.local/share/travelbrag)
// macOS and Windows share the configuration directory.
func DefaultDataDir() (string, error) {
	return platformAppDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// platformAppDir applies the XDG variable and home fallback on Linux and
// os.UserConfigDir elsewhere.
func platformAppDir(xdgVar, homeFallback string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeFallback, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > TRAVELBRAG_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > data_dir config value > TRAVELBRAG_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// Layout is a resolved pair of directories.
type Layout struct {
	ConfigDir string
	DataDir   string
}

// ConfigFile returns the path of travelbrag.toml.
func (l Layout) ConfigFile() string {
	return filepath.Join(l.ConfigDir, ConfigFileName)
}

// DatabasePath returns the path of the live database file.
func (l Layout) DatabasePath() string {
	return filepath.Join(l.DataDir, DatabaseFileName)
}

// BackupDir returns the directory holding timestamped backups.
func (l Layout) BackupDir() string {
	return filepath.Join(l.DataDir, BackupDirName)
}

// Ensure creates both directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.ConfigDir, l.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
