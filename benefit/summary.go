/*
summary.go - Per-employee balance summaries

PURPOSE:
  Read-side view of one employee's standing across all benefit types for
  a year: allocation, current balance, usage. Feeds the balance endpoint
  and ops tooling. Cached per (employee, year); invalidated by every
  ledger mutation and reconciliation run touching that employee.
*/
package benefit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/benefit-ledger/cache"
)

// BalanceSummaryLine is one benefit type's standing for an employee.
type BalanceSummaryLine struct {
	BenefitTypeID   BenefitTypeID   `json:"benefit_type_id"`
	BenefitTypeName string          `json:"benefit_type_name"`
	Allocation      decimal.Decimal `json:"allocation"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	UsedAmount      decimal.Decimal `json:"used_amount"`
	UsagePercent    decimal.Decimal `json:"usage_percent"`
}

// BalanceSummary is an employee's full standing for a year.
type BalanceSummary struct {
	EmployeeID   EmployeeID           `json:"employee_id"`
	EmployeeName string               `json:"employee_name,omitempty"`
	Year         int                  `json:"year"`
	Lines        []BalanceSummaryLine `json:"lines"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

// SummaryReader builds cached balance summaries.
type SummaryReader struct {
	Store Store
	Cache cache.Cache
	TTL   time.Duration

	Now func() time.Time
}

func NewSummaryReader(store Store, c cache.Cache) *SummaryReader {
	return &SummaryReader{Store: store, Cache: c, TTL: DefaultAlertTTL, Now: time.Now}
}

// Summary returns the employee's standing for the year.
func (sr *SummaryReader) Summary(ctx context.Context, employeeID EmployeeID, year int) (BalanceSummary, error) {
	key := SummaryCacheKey(employeeID, year)
	if sr.Cache != nil {
		if raw, ok, err := sr.Cache.Get(ctx, key); err == nil && ok {
			var s BalanceSummary
			if json.Unmarshal(raw, &s) == nil {
				return s, nil
			}
		}
	}

	emp, err := sr.Store.GetEmployee(ctx, employeeID)
	if err != nil {
		return BalanceSummary{}, err
	}
	balances, err := sr.Store.BalancesForEmployee(ctx, employeeID, year)
	if err != nil {
		return BalanceSummary{}, err
	}

	hundred := decimal.NewFromInt(100)
	summary := BalanceSummary{
		EmployeeID:   employeeID,
		EmployeeName: emp.Name,
		Year:         year,
		Lines:        []BalanceSummaryLine{},
		GeneratedAt:  sr.now(),
	}

	for _, bal := range balances {
		budget, err := sr.Store.GetBudget(ctx, bal.BudgetID)
		if err != nil {
			return BalanceSummary{}, err
		}
		bt, err := sr.Store.GetBenefitType(ctx, budget.BenefitTypeID)
		if err != nil {
			return BalanceSummary{}, err
		}

		used := budget.Allocation.Sub(bal.CurrentBalance)
		usagePct := decimal.Zero
		if budget.Allocation.IsPositive() {
			usagePct = used.Div(budget.Allocation).Mul(hundred).Round(2)
		}

		summary.Lines = append(summary.Lines, BalanceSummaryLine{
			BenefitTypeID:   budget.BenefitTypeID,
			BenefitTypeName: bt.Name,
			Allocation:      budget.Allocation,
			CurrentBalance:  bal.CurrentBalance,
			UsedAmount:      used,
			UsagePercent:    usagePct,
		})
	}

	if sr.Cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			ttl := sr.TTL
			if ttl <= 0 {
				ttl = DefaultAlertTTL
			}
			_ = sr.Cache.Put(ctx, key, raw, ttl)
		}
	}
	return summary, nil
}

func (sr *SummaryReader) now() time.Time {
	if sr.Now != nil {
		return sr.Now()
	}
	return time.Now()
}
