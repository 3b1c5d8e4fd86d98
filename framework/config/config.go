// Package config loads the typed application configuration from the
// environment, reading a .env file first when one exists.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Log       LogConfig
	Generator GeneratorConfig
	Schedule  ScheduleConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	URL   string
	Port  string
}

// DBConfig selects the storage backend. Driver "memory" uses the in-process
// store and opens no database.
type DBConfig struct {
	Driver string // sqlite3 | mysql | postgres | memory
	DSN    string
}

// InMemory reports whether the in-process store is selected.
func (c DBConfig) InMemory() bool { return c.Driver == "memory" }

type LogConfig struct {
	Level  string // debug | info | warn | error
	Format string // json | console
}

type GeneratorConfig struct {
	// Concurrent plans and registers entity builders in parallel.
	Concurrent bool
}

type ScheduleConfig struct {
	// SchemaRefresh is a cron spec for re-running schema configuration.
	// Empty runs it once at boot only.
	SchemaRefresh string
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "GoAutoCrud"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
			URL:   env("APP_URL", "http://localhost"),
			Port:  env("APP_PORT", "8000"),
		},
		DB: DBConfig{
			Driver: env("DB_DRIVER", "sqlite3"),
			DSN:    env("DB_DSN", "file:autocrud.db?cache=shared"),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "console"),
		},
		Generator: GeneratorConfig{
			Concurrent: envBool("AUTOCRUD_CONCURRENT", false),
		},
		Schedule: ScheduleConfig{
			SchemaRefresh: env("AUTOCRUD_SCHEMA_REFRESH", ""),
		},
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
