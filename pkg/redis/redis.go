package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/payflow/pkg/backoff"
)

// Config holds the Redis connection settings. The URL carries credentials
// and database selection in the standard redis:// format.
type Config struct {
	ConnectionURL  string        `env:"PAYFLOW_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"PAYFLOW_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"PAYFLOW_REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"PAYFLOW_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// Connect establishes a verified Redis connection. Each attempt is pinged
// before the client is handed out; failed attempts retry with exponential
// backoff until the attempt budget or the connect timeout runs out.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConnString, err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	retry := backoff.Exponential{InitialInterval: cfg.RetryInterval}

	var lastErr error
	for attempt := 1; attempt <= max(cfg.RetryAttempts, 1); attempt++ {
		client := redis.NewClient(opt)
		pingErr := client.Ping(ctx).Err()
		if pingErr == nil {
			return client, nil
		}
		lastErr = pingErr
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-time.After(retry.NextInterval(attempt)):
		}
	}

	return nil, errors.Join(ErrNotReady, lastErr)
}

// Healthcheck adapts a connected client to the func(ctx) error shape used
// by readiness probes.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
