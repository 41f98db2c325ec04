package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/payflow/pkg/backoff"
)

// Config holds the PostgreSQL pool settings backing the durable pending
// operation store.
type Config struct {
	ConnectionString  string        `env:"PAYFLOW_PG_URL,required"`
	MaxOpenConns      int32         `env:"PAYFLOW_PG_MAX_OPEN_CONNS" envDefault:"10"`
	MinIdleConns      int32         `env:"PAYFLOW_PG_MIN_IDLE_CONNS" envDefault:"2"`
	HealthCheckPeriod time.Duration `env:"PAYFLOW_PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PAYFLOW_PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PAYFLOW_PG_MAX_CONN_LIFETIME" envDefault:"30m"`
	RetryAttempts     int           `env:"PAYFLOW_PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval     time.Duration `env:"PAYFLOW_PG_RETRY_INTERVAL" envDefault:"2s"`
}

// Connect establishes a verified PostgreSQL connection pool. Each attempt
// is pinged before the pool is handed out; failed attempts retry with
// exponential backoff until the attempt budget runs out.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.ConnectionString == "" {
		return nil, ErrEmptyConnectionString
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConfig, err)
	}
	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MinIdleConns
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	retry := backoff.Exponential{InitialInterval: cfg.RetryInterval}

	var lastErr error
	for attempt := 1; attempt <= max(cfg.RetryAttempts, 1); attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenConnection, ctx.Err())
		case <-time.After(retry.NextInterval(attempt)):
		}
	}

	return nil, errors.Join(ErrFailedToOpenConnection, lastErr)
}

// Healthcheck adapts a connected pool to the func(ctx) error shape used by
// readiness probes.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
