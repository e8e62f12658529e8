// Package config loads facet configuration from defaults, an optional YAML
// config file, and FACET_* environment variables, in that order of
// precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// ModelConfig describes the external language model. An empty APIKey is not
// an error: the server runs in demo mode without one.
type ModelConfig struct {
	APIKey  string `yaml:"api_key"`
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// StorageConfig names the directory holding the profile document and the
// exchange database.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type AuthConfig struct {
	Token string `yaml:"token"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RateLimitConfig caps requests per client per minute. Zero disables the
// limiter.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{Port: 4600},
		Model: ModelConfig{
			Name:    "gpt-4o-mini",
			Timeout: "60s",
		},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "facet")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".facet"
	}
	return filepath.Join(home, ".local", "share", "facet")
}

// Load reads configuration: `.env` (if present), then the YAML config file
// named by FACET_CONFIG or at $XDG_CONFIG_HOME/facet/config.yaml, then
// FACET_* environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadWith(configFilePath(), os.Getenv)
}

func configFilePath() string {
	if p := os.Getenv("FACET_CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "facet", "config.yaml")
}

func loadWith(path string, getenv func(string) string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// No config file is fine; defaults plus env apply.
		case err != nil:
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	return cfg, nil
}

// ProfilePath is where the profile document lives inside the data dir.
func (c Config) ProfilePath() string {
	return filepath.Join(c.Storage.DataDir, "profile.json")
}
