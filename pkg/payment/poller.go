package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/payflow/pkg/backoff"
)

// PollerConfig holds the tunable polling constants. The defaults mirror a
// human waiting on-screen: fast fixed cadence while the backend answers,
// exponential backoff only when the transport itself fails.
type PollerConfig struct {
	BaseInterval         time.Duration `env:"PAYFLOW_PAYMENT_POLL_INTERVAL" envDefault:"3s"`
	MaxTransportInterval time.Duration `env:"PAYFLOW_PAYMENT_MAX_BACKOFF" envDefault:"24s"`
	MaxAttempts          int           `env:"PAYFLOW_PAYMENT_MAX_ATTEMPTS" envDefault:"60"`
}

// DefaultPollerConfig returns the polling constants used when no
// configuration is supplied.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		BaseInterval:         3 * time.Second,
		MaxTransportInterval: 24 * time.Second,
		MaxAttempts:          60,
	}
}

// Poller awaits the terminal status of a payment transaction.
type Poller struct {
	gateway   Gateway
	cfg       PollerConfig
	transport backoff.Strategy
	log       *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// PollerOption configures optional poller settings.
type PollerOption func(*Poller)

// WithPollerLogger sets the structured logger.
func WithPollerLogger(log *slog.Logger) PollerOption {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}

// WithPollerSleep overrides the delay function, mainly for tests that must
// not wait in real time.
func WithPollerSleep(sleep func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *Poller) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// NewPoller creates a poller. Panics if gateway is nil to fail fast during
// initialization. Zero config fields fall back to the defaults.
func NewPoller(gateway Gateway, cfg PollerConfig, opts ...PollerOption) *Poller {
	if gateway == nil {
		panic("payment: Gateway is required")
	}

	defaults := DefaultPollerConfig()
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = defaults.BaseInterval
	}
	if cfg.MaxTransportInterval <= 0 {
		cfg.MaxTransportInterval = defaults.MaxTransportInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}

	p := &Poller{
		gateway: gateway,
		cfg:     cfg,
		transport: backoff.Exponential{
			InitialInterval: cfg.BaseInterval,
			MaxInterval:     cfg.MaxTransportInterval,
			Multiplier:      2,
		},
		log:   slog.Default(),
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Await polls the transaction until it reaches a terminal state or the
// attempt budget runs out.
//
// Pending answers keep the fixed base cadence. Transport failures switch to
// exponential backoff, doubling up to the ceiling, and any successful status
// query resets the backoff. Exhausting the budget while still pending yields
// ErrPaymentTimedOut: the outcome is unknown, which is deliberately distinct
// from ErrPaymentFailed. Context cancellation stops the loop without
// touching any persisted state, so resumption stays possible.
func (p *Poller) Await(ctx context.Context, transactionID string) (*StatusResponse, error) {
	var transportFailures int
	var lastTransportErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		resp, err := p.gateway.TransactionStatus(ctx, transactionID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			transportFailures++
			lastTransportErr = err
			delay := p.transport.NextInterval(transportFailures)
			p.log.WarnContext(ctx, "payment status query failed, backing off",
				slog.String("transaction_id", transactionID),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.Any("error", err))

			if attempt == p.cfg.MaxAttempts {
				break
			}
			if err := p.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		// A successful query resets the transport backoff.
		transportFailures = 0
		lastTransportErr = nil

		switch resp.Status {
		case StatusCompleted:
			p.log.InfoContext(ctx, "payment completed",
				slog.String("transaction_id", transactionID),
				slog.Int("attempts", attempt))
			return resp, nil

		case StatusFailed:
			p.log.InfoContext(ctx, "payment failed",
				slog.String("transaction_id", transactionID),
				slog.String("reason", resp.FailureReason))
			return nil, &FailedError{TransactionID: transactionID, Reason: resp.FailureReason}

		case StatusPending:
			if attempt == p.cfg.MaxAttempts {
				break
			}
			if err := p.sleep(ctx, p.cfg.BaseInterval); err != nil {
				return nil, err
			}

		default:
			// Unknown statuses are treated as pending rather than
			// inventing a terminal outcome.
			if attempt == p.cfg.MaxAttempts {
				break
			}
			if err := p.sleep(ctx, p.cfg.BaseInterval); err != nil {
				return nil, err
			}
		}
	}

	if lastTransportErr != nil {
		return nil, errors.Join(ErrGatewayUnavailable, lastTransportErr)
	}

	p.log.WarnContext(ctx, "payment polling exhausted attempt budget",
		slog.String("transaction_id", transactionID),
		slog.Int("max_attempts", p.cfg.MaxAttempts))
	return nil, ErrPaymentTimedOut
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
