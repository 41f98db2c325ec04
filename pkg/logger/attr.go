package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// OwnerID records the purchasing identity under the key "owner_id".
func OwnerID(id string) slog.Attr {
	return slog.String("owner_id", id)
}

// TransactionID records the payment transaction under the key
// "transaction_id".
func TransactionID(id string) slog.Attr {
	return slog.String("transaction_id", id)
}

// PlanID records the plan identifier under the key "plan_id".
func PlanID(id string) slog.Attr {
	return slog.String("plan_id", id)
}

// Attempt records a 1-based retry attempt under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Amount records a monetary amount in minor units under the key "amount".
func Amount(v int64) slog.Attr {
	return slog.Int64("amount", v)
}

// Outcome records a flow outcome under the key "outcome".
func Outcome(v string) slog.Attr {
	return slog.String("outcome", v)
}
