package engine

import (
	"errors"
	"time"

	"github.com/dmitrymomot/payflow/pkg/config"
	"github.com/dmitrymomot/payflow/pkg/payment"
	"github.com/dmitrymomot/payflow/pkg/subscription"
)

// Config aggregates the tunables of every stage the engine drives. All
// fields can be set from the environment; see LoadConfig.
type Config struct {
	Poller     payment.PollerConfig
	Reconciler subscription.ReconcilerConfig

	// SwitchSettleDelay is the pause between cancelling the old
	// subscription and purchasing the new plan during a switch.
	SwitchSettleDelay time.Duration `env:"PAYFLOW_SWITCH_SETTLE_DELAY" envDefault:"2s"`

	// UpdateBufferSize is the per-subscriber channel buffer for session
	// updates.
	UpdateBufferSize int `env:"PAYFLOW_UPDATE_BUFFER_SIZE" envDefault:"8"`
}

// DefaultConfig returns the constants used when no configuration is
// supplied.
func DefaultConfig() Config {
	return Config{
		Poller:            payment.DefaultPollerConfig(),
		Reconciler:        subscription.DefaultReconcilerConfig(),
		SwitchSettleDelay: 2 * time.Second,
		UpdateBufferSize:  8,
	}
}

// LoadConfig reads the engine configuration from the environment. A .env
// file in the working directory is loaded first when present; a missing
// file is not an error.
func LoadConfig() (Config, error) {
	cfg, err := config.Load[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrFailedToParseConfig, err)
	}
	return cfg, nil
}
