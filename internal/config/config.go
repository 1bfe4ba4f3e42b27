// Package config loads bankdm settings from an optional YAML file with a
// .env overlay, mirroring how the warehouse jobs have always been pointed
// at their database.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names recognized by the overlay.
const (
	EnvDatabase = "BANKDM_DB"
	EnvDataDir  = "BANKDM_DATA_DIR"
)

// Config holds the runtime settings of the warehouse jobs.
type Config struct {
	// Database is the path to the SQLite database file.
	Database string `yaml:"database"`

	// DataDir is the default directory of source CSV extracts.
	DataDir string `yaml:"data_dir"`

	// LocalCurrencyCodes classifies accounts as local-currency for the
	// F101 split. Defaults to the ruble codes.
	LocalCurrencyCodes []string `yaml:"local_currency_codes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database:           "bankdm.db",
		DataDir:            "data",
		LocalCurrencyCodes: []string{"810", "643"},
	}
}

// Load builds a Config: defaults, then the YAML file at path (if path is
// non-empty the file must exist; otherwise a missing file is fine), then
// environment variables, with a .env file loaded into the environment
// first if one is present in the working directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	// Missing .env is not an error; it is an optional overlay.
	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvDatabase); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}

	if len(cfg.LocalCurrencyCodes) == 0 {
		cfg.LocalCurrencyCodes = Default().LocalCurrencyCodes
	}
	return cfg, nil
}
