// Package config loads travelbrag.toml from the configuration directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/travelbrag/internal/paths"
	"github.com/mesh-intelligence/travelbrag/pkg/types"
)

const (
	configFileName = "travelbrag"
	configFileType = "toml"
)

// Config keys.
const (
	KeyGeoNamesUsername = "geonames.username"
	KeyHome             = "home"
	KeyBackupURL        = "backup"
	KeyColours          = "colours"
	KeyDataDir          = "data_dir"
	KeyBackupsMax       = "backups.max"
	KeyBackupsOnStartup = "backups.on_startup"
	KeyExportGeoJSON    = "export.geojson"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
)

// defaultConfigTOML is written to travelbrag.toml on first run.
const defaultConfigTOML = `# travelbrag configuration

# ISO 3166-1 alpha-2 code of your home country
home = ""

# Page opened to remind you to back up after a session that changed data
backup = ""

# Data directory (optional; overridable by --data-dir)
# data_dir = ""

[geonames]
username = ""

[backups]
max = 5
on_startup = true

[export]
# GeoJSON file written at shutdown; leave empty to disable
geojson = ""

[log]
level = "normal"
format = "text"

# Marker colours for the GeoJSON export: hex colour = travellers
[colours]
`

// Load reads travelbrag.toml from configDir, creating the directory and a
// default file on first run, and returns the validated Config.
func Load(configDir string) (types.Config, error) {
	v, err := open(configDir)
	if err != nil {
		return types.Config{}, err
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config %s: %w", v.ConfigFileUsed(), err)
	}
	return cfg, nil
}

// SetGeoNamesUsername stores username in travelbrag.toml, keeping every
// other setting.
func SetGeoNamesUsername(configDir, username string) error {
	v, err := open(configDir)
	if err != nil {
		return err
	}
	v.Set(KeyGeoNamesUsername, username)
	if err := v.WriteConfigAs(filepath.Join(configDir, paths.ConfigFileName)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func open(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackupsMax, types.DefaultMaxBackups)
	v.SetDefault(KeyBackupsOnStartup, true)
	v.SetDefault(KeyLogLevel, types.DefaultLogLevel)
	v.SetDefault(KeyLogFormat, types.DefaultLogFormat)
}

// ensureDefaultConfigFile creates travelbrag.toml if it does not exist.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, paths.ConfigFileName)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigTOML), 0o644)
}
