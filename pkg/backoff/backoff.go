package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy calculates the delay before a retry attempt.
// Implementations must be safe for concurrent use.
type Strategy interface {
	// NextInterval returns the delay for the given attempt number.
	// Attempt starts at 1 for the first retry.
	NextInterval(attempt int) time.Duration
}

// Exponential doubles (or multiplies) the delay on every attempt up to a
// ceiling. Used for transport-level failures where the remote side may be
// struggling and hammering it makes recovery slower.
type Exponential struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// NextInterval computes min(InitialInterval * Multiplier^(attempt-1), MaxInterval)
// with optional jitter applied before capping.
func (e Exponential) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}

	ceiling := e.MaxInterval
	if ceiling == 0 {
		ceiling = 30 * time.Second
	}

	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))

	// Zero jitter is allowed for deterministic behavior in tests.
	if e.JitterFactor > 0 {
		randomJitter := (rand.Float64()*2 - 1) * e.JitterFactor
		interval = interval * (1 + randomJitter)
	}

	if interval > float64(ceiling) {
		interval = float64(ceiling)
	}

	return time.Duration(interval)
}

// Fixed returns the same delay on every attempt. Appropriate for
// human-on-screen polling where the caller wants a steady cadence.
type Fixed struct {
	Interval time.Duration
}

// NextInterval always returns the configured interval.
func (f Fixed) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}
