package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"
)

// Ledger drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config represents the service configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Log       LogConfig
	Ledger    LedgerConfig
	Catalog   CatalogConfig
	Telemetry TelemetryConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int `env:"SERVER_PORT"             envDefault:"2811"`
	ReadTimeout     int `env:"SERVER_READ_TIMEOUT"     envDefault:"30"`
	WriteTimeout    int `env:"SERVER_WRITE_TIMEOUT"    envDefault:"30"`
	ShutdownTimeout int `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level       string `env:"LOG_LEVEL"       envDefault:"info"`
	Development bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// LedgerConfig selects and configures the storage backend.
type LedgerConfig struct {
	Driver      string        `env:"LEDGER_DRIVER"  envDefault:"sqlite"`
	SQLitePath  string        `env:"SQLITE_PATH"    envDefault:"data/models.db"`
	PostgresDSN string        `env:"POSTGRES_DSN"`
	RedisAddr   string        `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisDB     int           `env:"REDIS_DB"       envDefault:"0"`
	Timeout     time.Duration `env:"LEDGER_TIMEOUT" envDefault:"5s"`
}

// CatalogConfig contains price catalog settings.
type CatalogConfig struct {
	File            string        `env:"CATALOG_FILE"`
	RefreshInterval time.Duration `env:"CATALOG_REFRESH_INTERVAL" envDefault:"0s"`
}

// TelemetryConfig contains tracing exporter settings.
type TelemetryConfig struct {
	ServiceName      string `env:"OTEL_SERVICE_NAME"      envDefault:"tokenmeter"`
	ExporterType     string `env:"OTEL_EXPORTER_TYPE"     envDefault:"none"`
	ExporterEndpoint string `env:"OTEL_EXPORTER_ENDPOINT" envDefault:"localhost:4317"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*LogConfig
	*LedgerConfig
	*CatalogConfig
	*TelemetryConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Log,
		&cfg.Ledger,
		&cfg.Catalog,
		&cfg.Telemetry,
	}
}
