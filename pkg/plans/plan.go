package plans

// Money represents a monetary amount in the smallest currency unit.
// For example, 9.99 USD would be Amount: 999, Currency: "USD".
type Money struct {
	Amount   int64  `yaml:"amount" json:"amount"`
	Currency string `yaml:"currency" json:"currency"`
}

// BillingInterval represents the billing frequency for a plan.
type BillingInterval string

const (
	BillingIntervalNone    BillingInterval = "none" // free or trial plans with no recurring charge
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// Plan describes a purchasable subscription plan. Plans are immutable
// reference data loaded from a catalog; the engine never mutates them.
type Plan struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Price       Money           `yaml:"price" json:"price"`
	Interval    BillingInterval `yaml:"interval" json:"interval"`
	Features    []string        `yaml:"features,omitempty" json:"features,omitempty"`
}

// IsFree reports whether the plan carries no charge.
func (p Plan) IsFree() bool {
	return p.Price.Amount == 0
}
