package types

import "errors"

// Config holds the settings read from travelbrag.toml.
type Config struct {
	GeoNames  GeoNamesConfig      `mapstructure:"geonames"`
	Home      string              `mapstructure:"home"`   // ISO 3166-1 alpha-2 home country.
	BackupURL string              `mapstructure:"backup"` // Opened by the operator when the store was modified.
	Colours   map[string][]string `mapstructure:"colours"`
	DataDir   string              `mapstructure:"data_dir"`
	Backups   BackupConfig        `mapstructure:"backups"`
	Export    ExportConfig        `mapstructure:"export"`
	Log       LogConfig           `mapstructure:"log"`
}

// GeoNamesConfig holds the GeoNames account used by city search.
type GeoNamesConfig struct {
	Username string `mapstructure:"username"`
}

// BackupConfig controls the startup backup and rotation.
type BackupConfig struct {
	Max       int  `mapstructure:"max"`        // Retained timestamped backups; 0 keeps all.
	OnStartup bool `mapstructure:"on_startup"` // Create a backup after a healthy startup.
}

// ExportConfig controls the GeoJSON export run at shutdown.
type ExportConfig struct {
	GeoJSON string `mapstructure:"geojson"` // Output path; empty disables the export.
}

// LogConfig selects the logger level and format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults used when a key is absent from travelbrag.toml.
const (
	DefaultMaxBackups = 5
	DefaultLogLevel   = "normal"
	DefaultLogFormat  = "text"
)

// Config validation errors.
var (
	ErrMaxBackupsNegative = errors.New("backups.max must not be negative")
	ErrLogFormatUnknown   = errors.New("unknown log format")
	ErrLogLevelUnknown    = errors.New("unknown log level")
)

var knownLogFormats = map[string]bool{
	"":     true,
	"text": true,
	"json": true,
}

var knownLogLevels = map[string]bool{
	"":        true,
	"quiet":   true,
	"normal":  true,
	"verbose": true,
	"debug":   true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backups.Max < 0 {
		return ErrMaxBackupsNegative
	}
	if !knownLogFormats[c.Log.Format] {
		return ErrLogFormatUnknown
	}
	if !knownLogLevels[c.Log.Level] {
		return ErrLogLevelUnknown
	}
	return nil
}
