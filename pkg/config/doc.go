// Package config loads typed configuration structs from the environment.
//
// Config types declare their variables with `env` and `envDefault` tags;
// Load parses and caches one value per type so independently constructed
// components see consistent settings.
//
//	type PollerConfig struct {
//		BaseInterval time.Duration `env:"PAYFLOW_PAYMENT_POLL_INTERVAL" envDefault:"3s"`
//	}
//
//	cfg, err := config.Load[PollerConfig]()
package config
