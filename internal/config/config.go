package config

import "time"

type AppConfig struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Store    StoreConfig
	Schema   SchemaConfig   `envPrefix:"SCHEMA_"`
	Backup   BackupConfig   `envPrefix:"BACKUP_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Log      LogConfig      `envPrefix:"LOG_"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"3000"`
}

// StoreConfig keeps the variable names the web frontend already uses for the
// hosted store, so one .env serves both.
type StoreConfig struct {
	URL string `env:"VITE_SUPABASE_URL"`
	Key string `env:"VITE_SUPABASE_PUBLISHABLE_KEY"`

	// "rest" talks to the hosted REST endpoint, "sql" to Database directly.
	Backend string `env:"STORE_BACKEND" envDefault:"rest"`

	Concurrency int           `env:"STORE_CONCURRENCY" envDefault:"4"`
	RateLimit   float64       `env:"STORE_RATE_LIMIT" envDefault:"10"`
	Timeout     time.Duration `env:"STORE_TIMEOUT" envDefault:"30s"`
}

type SchemaConfig struct {
	Path string `env:"PATH" envDefault:"supabase/schema.sql"`

	// "file" parses Path, "database" reads information_schema (sql backend only).
	Source string `env:"SOURCE" envDefault:"file"`
}

type BackupConfig struct {
	Dir string `env:"DIR" envDefault:"backups"`

	Schedule string `env:"SCHEDULE" envDefault:"0 3 * * *"`

	RunOnStart bool `env:"RUN_ON_START" envDefault:"false"`
}

type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"3306"`
	User     string `env:"USER" envDefault:"root"`
	Password string `env:"PASSWORD" envDefault:"password"`
	Name     string `env:"NAME" envDefault:"app"`
}

type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}
