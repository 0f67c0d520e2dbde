package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danielpatrickdp/stagegate/internal/oracle"
)

// #region config

// Config bundles the runtime settings for the coach REPL.
type Config struct {
	DBPath        string
	Locale        string
	OracleEnabled bool
	Oracle        oracle.Config
}

// DefaultConfig returns the built-in defaults; the oracle sub-config already
// carries its environment overlay.
func DefaultConfig() Config {
	return Config{
		DBPath:        "stagegate.db",
		Locale:        "en",
		OracleEnabled: true,
		Oracle:        oracle.DefaultConfig(),
	}
}

// #endregion config

// #region file-config

// coach config.toml key mapping to runtime settings.
type fileConfig struct {
	DBPath               string `toml:"db_path"`
	Locale               string `toml:"locale"`
	OracleEnabled        bool   `toml:"oracle_enabled"`
	OracleURL            string `toml:"oracle_url"`
	OracleAPIKey         string `toml:"oracle_api_key"`
	OracleModel          string `toml:"oracle_model"`
	OracleTimeoutSeconds int    `toml:"oracle_timeout_seconds"`
	OracleRetries        int    `toml:"oracle_retries"`
}

// loadConfig overlays a TOML file onto the defaults. Only keys actually
// present in the file override; absent keys keep their default.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load coach config: %w", err)
	}

	if meta.IsDefined("db_path") {
		cfg.DBPath = strings.TrimSpace(raw.DBPath)
	}
	if meta.IsDefined("locale") {
		cfg.Locale = strings.TrimSpace(raw.Locale)
	}
	if meta.IsDefined("oracle_enabled") {
		cfg.OracleEnabled = raw.OracleEnabled
	}
	if meta.IsDefined("oracle_url") {
		cfg.Oracle.URL = strings.TrimSpace(raw.OracleURL)
	}
	if meta.IsDefined("oracle_api_key") {
		cfg.Oracle.APIKey = strings.TrimSpace(raw.OracleAPIKey)
	}
	if meta.IsDefined("oracle_model") {
		cfg.Oracle.Model = strings.TrimSpace(raw.OracleModel)
	}
	if meta.IsDefined("oracle_timeout_seconds") {
		cfg.Oracle.Timeout = time.Duration(raw.OracleTimeoutSeconds) * time.Second
	}
	if meta.IsDefined("oracle_retries") {
		cfg.Oracle.Retries = raw.OracleRetries
	}

	return cfg, nil
}

// #endregion file-config
