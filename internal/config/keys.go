package config

import (
	"fmt"
	"strconv"
)

// keySpec binds one environment variable to a config field.
type keySpec struct {
	env   string
	apply func(cfg *Config, v string) error
}

var specs = []keySpec{
	{env: "FACET_SERVER_PORT", apply: intField(func(c *Config, v int) { c.Server.Port = v })},
	{env: "FACET_MODEL_API_KEY", apply: strField(func(c *Config, v string) { c.Model.APIKey = v })},
	{env: "FACET_MODEL_NAME", apply: strField(func(c *Config, v string) { c.Model.Name = v })},
	{env: "FACET_MODEL_BASE_URL", apply: strField(func(c *Config, v string) { c.Model.BaseURL = v })},
	{env: "FACET_MODEL_TIMEOUT", apply: strField(func(c *Config, v string) { c.Model.Timeout = v })},
	{env: "FACET_STORAGE_DATA_DIR", apply: strField(func(c *Config, v string) { c.Storage.DataDir = v })},
	{env: "FACET_AUTH_TOKEN", apply: strField(func(c *Config, v string) { c.Auth.Token = v })},
	{env: "FACET_LOG_LEVEL", apply: strField(func(c *Config, v string) { c.Log.Level = v })},
	{env: "FACET_LOG_FORMAT", apply: strField(func(c *Config, v string) { c.Log.Format = v })},
	{env: "FACET_RATE_LIMIT_RPM", apply: intField(func(c *Config, v int) { c.RateLimit.RequestsPerMinute = v })},
}

func strField(set func(*Config, string)) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		set(cfg, v)
		return nil
	}
}

func intField(set func(*Config, int)) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("expected integer, got %q", v)
		}
		set(cfg, n)
		return nil
	}
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	for _, s := range specs {
		v := getenv(s.env)
		if v == "" {
			continue
		}
		if err := s.apply(cfg, v); err != nil {
			return fmt.Errorf("%s: %w", s.env, err)
		}
	}
	return nil
}
