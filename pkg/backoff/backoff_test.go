package backoff_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/payflow/pkg/backoff"
)

func TestExponential_NextInterval(t *testing.T) {
	t.Parallel()

	strategy := backoff.Exponential{
		InitialInterval: 3 * time.Second,
		MaxInterval:     24 * time.Second,
		Multiplier:      2,
	}

	assert.Equal(t, 3*time.Second, strategy.NextInterval(1))
	assert.Equal(t, 6*time.Second, strategy.NextInterval(2))
	assert.Equal(t, 12*time.Second, strategy.NextInterval(3))
	assert.Equal(t, 24*time.Second, strategy.NextInterval(4))
	// Ceiling holds once reached.
	assert.Equal(t, 24*time.Second, strategy.NextInterval(5))
	assert.Equal(t, 24*time.Second, strategy.NextInterval(10))
}

func TestExponential_Defaults(t *testing.T) {
	t.Parallel()

	strategy := backoff.Exponential{}

	assert.Equal(t, time.Duration(0), strategy.NextInterval(0))
	assert.Equal(t, time.Duration(0), strategy.NextInterval(-1))
	assert.Equal(t, time.Second, strategy.NextInterval(1))
	assert.Equal(t, 2*time.Second, strategy.NextInterval(2))
	assert.Equal(t, 30*time.Second, strategy.NextInterval(20))
}

func TestExponential_Jitter(t *testing.T) {
	t.Parallel()

	strategy := backoff.Exponential{
		InitialInterval: 10 * time.Second,
		MaxInterval:     time.Minute,
		Multiplier:      2,
		JitterFactor:    0.1,
	}

	for range 100 {
		interval := strategy.NextInterval(1)
		assert.GreaterOrEqual(t, interval, 9*time.Second)
		assert.LessOrEqual(t, interval, 11*time.Second)
	}
}

func TestFixed_NextInterval(t *testing.T) {
	t.Parallel()

	strategy := backoff.Fixed{Interval: time.Second}

	assert.Equal(t, time.Duration(0), strategy.NextInterval(0))
	assert.Equal(t, time.Second, strategy.NextInterval(1))
	assert.Equal(t, time.Second, strategy.NextInterval(7))
}
