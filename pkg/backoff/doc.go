// Package backoff provides retry delay strategies for polling loops.
//
// Two strategies are included: Fixed, which keeps a steady cadence while a
// user is actively waiting on-screen, and Exponential, which backs off with
// an optional jitter when the remote side is failing at the transport level.
//
// Usage:
//
//	strategy := backoff.Exponential{
//		InitialInterval: 3 * time.Second,
//		MaxInterval:     24 * time.Second,
//		Multiplier:      2,
//	}
//
//	for attempt := 1; attempt <= maxAttempts; attempt++ {
//		if err := query(ctx); err == nil {
//			break
//		}
//		time.Sleep(strategy.NextInterval(attempt))
//	}
package backoff
