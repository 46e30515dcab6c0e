package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/maloquacious/contacts/internal/logger"
	"github.com/maloquacious/contacts/internal/store"
)

// Config holds the settings read from flags, environment and contacts.yaml.
type Config struct {
	DataFile        string    `yaml:"data_file" mapstructure:"data_file"`
	Backend         string    `yaml:"backend" mapstructure:"backend"`
	PreserveCorrupt bool      `yaml:"preserve_corrupt" mapstructure:"preserve_corrupt"`
	Log             LogConfig `yaml:"log" mapstructure:"log"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	Color bool   `yaml:"color" mapstructure:"color"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendFile,
		Log: LogConfig{
			Level: "warn",
			Color: true,
		},
	}
}

// NewViper returns a viper instance with defaults, search paths and the
// CONTACTS_ environment prefix configured.
func NewViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("data_file", def.DataFile)
	v.SetDefault("backend", def.Backend)
	v.SetDefault("preserve_corrupt", def.PreserveCorrupt)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.color", def.Log.Color)

	// No SetConfigType, or viper also matches the extensionless contacts binary.
	v.SetConfigName("contacts")
	v.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "contacts"))
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "contacts"))
	}

	v.SetEnvPrefix("CONTACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration into a Config. If path is set it must exist;
// otherwise a missing contacts.yaml is ignored.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.DataFile == "" {
		cfg.DataFile = store.GetDataPath(store.GetStorePath(), cfg.Backend)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("config: backend %q is invalid (must be %s or %s)", c.Backend, BackendFile, BackendSQLite)
	}
	if strings.TrimSpace(c.DataFile) == "" {
		return fmt.Errorf("config: data_file is required")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
