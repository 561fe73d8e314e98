package config

import (
	"fmt"
	"os"

	configLoader "github.com/andiksetyawan/config"
)

// Load reads the process environment, plus envPath when that file exists.
func Load(envPath string) (*AppConfig, error) {
	cfg := &AppConfig{}
	loader := configLoader.New()
	if _, err := os.Stat(envPath); err == nil {
		loader = configLoader.New(
			configLoader.WithEnvPath(envPath),
		)
	}

	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings the selected backend needs.
func (c *AppConfig) Validate() error {
	switch c.Store.Backend {
	case "rest":
		if c.Store.URL == "" {
			return fmt.Errorf("VITE_SUPABASE_URL is required for the rest backend")
		}
		if c.Store.Key == "" {
			return fmt.Errorf("VITE_SUPABASE_PUBLISHABLE_KEY is required for the rest backend")
		}
	case "sql":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want rest or sql)", c.Store.Backend)
	}

	switch c.Schema.Source {
	case "file":
	case "database":
		if c.Store.Backend != "sql" {
			return fmt.Errorf("SCHEMA_SOURCE=database requires STORE_BACKEND=sql")
		}
	default:
		return fmt.Errorf("unknown SCHEMA_SOURCE %q (want file or database)", c.Schema.Source)
	}

	if c.Store.Concurrency < 1 {
		return fmt.Errorf("STORE_CONCURRENCY must be at least 1")
	}

	return nil
}
