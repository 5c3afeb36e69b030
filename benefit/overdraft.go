/*
overdraft.go - Overdraft policy: how far negative a balance may go

PURPOSE:
  Each benefit type tolerates a different amount of overdraft, expressed
  as a fraction of the allocation. Medical claims may overdraw up to 50%
  of the allocation; glasses only 10%. Types without an explicit rate get
  the default.

  The policy is an injected value, not a global: construct one from
  config (config.Config.OverdraftPolicy) or use DefaultOverdraftPolicy,
  and hand it to the Ledger and AlertEngine. This keeps overdraft rules
  testable and swappable per deployment.

LIMIT MATH:
  limit = -(allocation * rate)

  The limit is always <= 0. A debit may land ON the limit (boundary
  inclusive) but not below it, unless the override or emergency flag is
  set.

SEE ALSO:
  - ledger.go: Enforces the limit on debits
  - alerts.go: Uses the limit for severity classification
  - ../config/config.go: Builds a policy from TOML
*/
package benefit

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OverdraftPolicy maps benefit-type names (lowercased) to overdraft rates.
type OverdraftPolicy struct {
	rates       map[string]decimal.Decimal
	defaultRate decimal.Decimal
}

// NewOverdraftPolicy builds a policy from explicit rates. Rates are
// fractions of allocation (0.5 = may overdraw half the allocation).
func NewOverdraftPolicy(rates map[string]float64, defaultRate float64) OverdraftPolicy {
	p := OverdraftPolicy{
		rates:       make(map[string]decimal.Decimal, len(rates)),
		defaultRate: decimal.NewFromFloat(defaultRate),
	}
	for name, rate := range rates {
		p.rates[strings.ToLower(name)] = decimal.NewFromFloat(rate)
	}
	return p
}

// DefaultOverdraftPolicy returns the standard deployment rates.
func DefaultOverdraftPolicy() OverdraftPolicy {
	return NewOverdraftPolicy(map[string]float64{
		"medical":   0.50,
		"dental":    0.20,
		"maternity": 0.30,
		"glasses":   0.10,
	}, 0.25)
}

// Rate returns the overdraft rate for a benefit-type name.
func (p OverdraftPolicy) Rate(benefitTypeName string) decimal.Decimal {
	if r, ok := p.rates[strings.ToLower(benefitTypeName)]; ok {
		return r
	}
	return p.defaultRate
}

// Limit returns the most-negative balance allowed for the benefit type
// given its allocation. Always <= 0.
func (p OverdraftPolicy) Limit(benefitTypeName string, allocation decimal.Decimal) decimal.Decimal {
	return allocation.Mul(p.Rate(benefitTypeName)).Neg()
}

// Breakdown describes a balance's standing against its overdraft limit.
type OverdraftBreakdown struct {
	Limit      decimal.Decimal `json:"limit"`
	AmountOver decimal.Decimal `json:"amount_over"` // positive when balance is below the limit
	Headroom   decimal.Decimal `json:"headroom"`    // how much further the balance could fall
}

// Breakdown computes the overdraft standing for a current balance.
func (p OverdraftPolicy) Breakdown(benefitTypeName string, allocation, balance decimal.Decimal) OverdraftBreakdown {
	limit := p.Limit(benefitTypeName, allocation)
	bd := OverdraftBreakdown{Limit: limit}
	if balance.LessThan(limit) {
		bd.AmountOver = limit.Sub(balance)
		bd.Headroom = decimal.Zero
	} else {
		bd.AmountOver = decimal.Zero
		bd.Headroom = balance.Sub(limit)
	}
	return bd
}
