package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/payflow/pkg/config"
)

type sampleConfig struct {
	Endpoint string        `env:"SAMPLE_ENDPOINT" envDefault:"https://api.example.com"`
	Timeout  time.Duration `env:"SAMPLE_TIMEOUT" envDefault:"10s"`
	Retries  int           `env:"SAMPLE_RETRIES" envDefault:"3"`
}

type overriddenConfig struct {
	Value string `env:"OVERRIDDEN_VALUE" envDefault:"default"`
}

type cachedConfig struct {
	Value string `env:"CACHED_VALUE" envDefault:"first"`
}

type brokenConfig struct {
	Count int `env:"BROKEN_COUNT"`
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load[sampleConfig]()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retries)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("OVERRIDDEN_VALUE", "from-env")

	cfg, err := config.Load[overriddenConfig]()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Value)
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("CACHED_VALUE", "first")

	first, err := config.Load[cachedConfig]()
	require.NoError(t, err)
	assert.Equal(t, "first", first.Value)

	// Later environment changes do not affect an already loaded type.
	t.Setenv("CACHED_VALUE", "second")
	again, err := config.Load[cachedConfig]()
	require.NoError(t, err)
	assert.Equal(t, "first", again.Value)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("BROKEN_COUNT", "not-a-number")

	_, err := config.Load[brokenConfig]()
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Setenv("BROKEN_COUNT", "still-not-a-number")

	assert.Panics(t, func() {
		type mustBroken struct {
			Count int `env:"BROKEN_COUNT"`
		}
		_ = config.MustLoad[mustBroken]()
	})
}
