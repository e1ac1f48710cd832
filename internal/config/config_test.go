package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/davidbz/tokenmeter/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		// Clear environment
		os.Clearenv()

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify defaults
		require.Equal(t, 2811, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 30, cfg.Server.WriteTimeout)
		require.Equal(t, config.DriverSQLite, cfg.Ledger.Driver)
		require.Equal(t, "data/models.db", cfg.Ledger.SQLitePath)
		require.Equal(t, 5*time.Second, cfg.Ledger.Timeout)
		require.Empty(t, cfg.Ledger.PostgresDSN)
		require.Empty(t, cfg.Catalog.File)
		require.Zero(t, cfg.Catalog.RefreshInterval)
		require.Equal(t, "none", cfg.Telemetry.ExporterType)
		require.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		// Set environment variables using t.Setenv for automatic cleanup
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("LEDGER_DRIVER", "postgres")
		t.Setenv("POSTGRES_DSN", "postgres://localhost/tokenmeter")
		t.Setenv("LEDGER_TIMEOUT", "250ms")
		t.Setenv("CATALOG_FILE", "/etc/tokenmeter/prices.yaml")
		t.Setenv("CATALOG_REFRESH_INTERVAL", "1m")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

		cfg := config.Load()

		require.NotNil(t, cfg)

		// Verify loaded values
		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, config.DriverPostgres, cfg.Ledger.Driver)
		require.Equal(t, "postgres://localhost/tokenmeter", cfg.Ledger.PostgresDSN)
		require.Equal(t, 250*time.Millisecond, cfg.Ledger.Timeout)
		require.Equal(t, "/etc/tokenmeter/prices.yaml", cfg.Catalog.File)
		require.Equal(t, time.Minute, cfg.Catalog.RefreshInterval)
		require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("should fan out sub-configs", func(t *testing.T) {
		os.Clearenv()

		cfg := config.Load()
		deps := config.ParseDependenciesConfig(cfg)

		require.Same(t, &cfg.Ledger, deps.LedgerConfig)
		require.Same(t, &cfg.Server, deps.ServerConfig)
	})
}
