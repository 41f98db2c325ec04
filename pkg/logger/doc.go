// Package logger builds structured slog loggers for the purchase engine.
//
// New returns a logger whose handler injects attributes extracted from the
// context of each call, so flow-scoped values such as the owning identity
// travel on every record without explicit plumbing. The attr helpers keep
// attribute keys consistent across components.
//
//	log := logger.New(
//		logger.WithProduction("payflow"),
//		logger.WithContextValue("owner_id", ownerKey),
//	)
package logger
