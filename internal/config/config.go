// Package config loads kinobot settings from a JSON file, .env files and
// the environment, in increasing order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	LogFile       string `json:"log_file"`
	MaxConcurrent int    `json:"max_concurrent"`
	Telegram      struct {
		Token string `json:"token"`
	} `json:"telegram"`
	Kinopoisk struct {
		APIKey         string `json:"api_key"`
		BaseURL        string `json:"base_url"`
		TimeoutSeconds int    `json:"timeout_seconds"`
		Retries        int    `json:"retries"`
		RetryDelayMs   int    `json:"retry_delay_ms"`
	} `json:"kinopoisk"`
	History struct {
		Path          string `json:"path"`
		RetentionDays int    `json:"retention_days"`
		PruneSchedule string `json:"prune_schedule"`
	} `json:"history"`
}

// DefaultPath returns ~/.kinobot/config.json.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".kinobot", "config.json")
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".kinobot"),
		LogLevel:      "info",
		MaxConcurrent: 4,
	}
	cfg.Kinopoisk.BaseURL = "https://api.kinopoisk.dev/v1.4"
	cfg.Kinopoisk.TimeoutSeconds = 40
	cfg.Kinopoisk.Retries = 2
	cfg.History.PruneSchedule = "@daily"
	return cfg
}

// Load reads the config at path, writing defaults there if it does not
// exist. .env files in the working directory and next to the config file
// are loaded into the environment, then environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	} else {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	loadDotEnv(".env", filepath.Join(filepath.Dir(path), ".env"))
	applyEnv(cfg)

	return cfg, nil
}

// loadDotEnv loads each existing file. godotenv never overrides variables
// that are already set.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("failed to load .env file", "path", p, "error", err)
		}
	}
}

func applyEnv(cfg *Config) {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if key := os.Getenv("KINOPOISK_API_KEY"); key != "" {
		cfg.Kinopoisk.APIKey = key
	}
	if level := os.Getenv("KINOBOT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if dir := os.Getenv("KINOBOT_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
}

// HistoryPath returns the history database path, defaulting to
// history.db inside the data directory.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.DataDir, "history.db")
}

// Validate checks the settings required to run the bot.
func (c *Config) Validate() error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required (or set TELEGRAM_BOT_TOKEN)"))
	}
	if c.Kinopoisk.APIKey == "" {
		errs = append(errs, errors.New("kinopoisk.api_key is required (or set KINOPOISK_API_KEY)"))
	}
	if strings.TrimSpace(c.Kinopoisk.BaseURL) == "" {
		errs = append(errs, errors.New("kinopoisk.base_url must not be empty"))
	}
	if c.Kinopoisk.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("kinopoisk.timeout_seconds must be positive, got %d", c.Kinopoisk.TimeoutSeconds))
	}
	if c.Kinopoisk.Retries < 0 {
		errs = append(errs, fmt.Errorf("kinopoisk.retries must not be negative, got %d", c.Kinopoisk.Retries))
	}
	if c.History.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("history.retention_days must not be negative, got %d", c.History.RetentionDays))
	}
	return errors.Join(errs...)
}

// Save writes cfg to path atomically.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func writeDefaults(path string, cfg *Config) error {
	if err := Save(path, cfg); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// ToMap converts cfg into a nested map using its JSON field names.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListValues returns every setting as a flat dot-separated map.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue returns one effective setting by its dot-separated key.
// Secrets are masked.
func GetValue(cfg *Config, key string) (any, error) {
	values, err := ListValues(cfg, true)
	if err != nil {
		return nil, err
	}
	v, ok := values[strings.TrimSpace(key)]
	if !ok {
		return nil, fmt.Errorf("unknown config key %q", key)
	}
	return v, nil
}
