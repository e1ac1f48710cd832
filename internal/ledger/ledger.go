// Package ledger opens the configured storage backend.
package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidbz/tokenmeter/internal/config"
	"github.com/davidbz/tokenmeter/internal/domain"
	"github.com/davidbz/tokenmeter/internal/ledger/memory"
	"github.com/davidbz/tokenmeter/internal/ledger/postgres"
	"github.com/davidbz/tokenmeter/internal/ledger/redis"
	"github.com/davidbz/tokenmeter/internal/ledger/sqlite"
	"github.com/davidbz/tokenmeter/internal/observability"
)

// Open connects to the backend selected by cfg.Driver and returns it wrapped
// in a Guard.
func Open(ctx context.Context, cfg *config.LedgerConfig) (*Guard, error) {
	store, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	observability.FromContext(ctx).Info("ledger opened", zap.String("driver", cfg.Driver))

	return NewGuard(store, cfg.Timeout), nil
}

func open(ctx context.Context, cfg *config.LedgerConfig) (domain.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		store, err := sqlite.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite ledger: %w", err)
		}
		return store, nil

	case config.DriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required for the %s driver", config.DriverPostgres)
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		store := postgres.NewStore(pool, pool.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil

	case config.DriverRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return redis.NewStore(client), nil

	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
}
