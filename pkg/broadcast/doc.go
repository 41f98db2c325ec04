// Package broadcast provides a minimal non-blocking publish/subscribe hub.
//
// The reconciliation flow publishes session updates through a Hub instead of
// writing to shared mutable state; interested consumers subscribe and react.
// Publishing never blocks: a subscriber whose buffer is full simply misses
// the message, which is acceptable because every update carries the full
// authoritative subscription snapshot rather than a delta.
//
//	hub := broadcast.NewHub[subscription.Update](8)
//	updates, cancel := hub.Subscribe(ctx)
//	defer cancel()
//	for update := range updates {
//		render(update)
//	}
package broadcast
