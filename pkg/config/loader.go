package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cache   = make(map[string]any)
	cacheMu sync.Mutex

	dotenvOnce sync.Once
)

// Load parses environment variables into a fresh value of T and caches the
// result per type, so every caller of the same config type observes the
// same values for the process lifetime.
//
// A .env file in the working directory is loaded once before the first
// parse; a missing file is the normal production case and is not an error.
func Load[T any]() (T, error) {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	var cfg T
	key := typeName[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		return cached.(T), nil
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}

	cache[key] = cfg
	return cfg, nil
}

// MustLoad works like Load but panics on failure. Meant for configuration
// the process cannot start without.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

func typeName[T any]() string {
	t := reflect.TypeOf(*new(T))
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
