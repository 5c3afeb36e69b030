/*
alerts.go - Low-balance and overdraft alerting

PURPOSE:
  Derives alerts from current balances so admins can see who is running
  out of benefit budget. Pure read path: scans every balance in a year,
  classifies severity, and caches the result for a short TTL.

SEVERITY LADDER (most severe first):
  critical_overdraft_exceeded  balance below the type's overdraft limit
  critical_overdrawn           balance negative but within the limit
  critical                     remaining <= 5% of allocation
  high                         remaining <= 10%
  warning                      remaining <= 20% (also the fallback)

INCLUSION RULE:
  A balance is included when remainingPercent <= thresholdPercent OR the
  balance is overdrawn - overdrawn balances always surface, even below
  the requested threshold.

CACHING:
  Reports are cached per (threshold, year) for a short TTL (default five
  minutes). Every ledger mutation and reconciliation run invalidates the
  year's alert keys, so staleness is bounded by the TTL even when
  invalidation is lost.

SEE ALSO:
  - overdraft.go: Limit and breakdown math
  - ledger.go: Cache key helpers and invalidation
*/
package benefit

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/benefit-ledger/cache"
)

// DefaultAlertTTL bounds how stale a cached alert report may be.
const DefaultAlertTTL = 5 * time.Minute

// =============================================================================
// SEVERITY
// =============================================================================

type Severity string

const (
	SeverityOverdraftExceeded Severity = "critical_overdraft_exceeded"
	SeverityOverdrawn         Severity = "critical_overdrawn"
	SeverityCritical          Severity = "critical"
	SeverityHigh              Severity = "high"
	SeverityWarning           Severity = "warning"
)

var severityRank = map[Severity]int{
	SeverityOverdraftExceeded: 0,
	SeverityOverdrawn:         1,
	SeverityCritical:          2,
	SeverityHigh:              3,
	SeverityWarning:           4,
}

// =============================================================================
// ALERTS
// =============================================================================

// Alert is one low-balance or overdrawn finding.
type Alert struct {
	EmployeeID       EmployeeID         `json:"employee_id"`
	EmployeeName     string             `json:"employee_name,omitempty"`
	BenefitTypeID    BenefitTypeID      `json:"benefit_type_id"`
	BenefitTypeName  string             `json:"benefit_type_name,omitempty"`
	Year             int                `json:"year"`
	Allocation       decimal.Decimal    `json:"allocation"`
	CurrentBalance   decimal.Decimal    `json:"current_balance"`
	UsedAmount       decimal.Decimal    `json:"used_amount"`
	RemainingPercent decimal.Decimal    `json:"remaining_percent"`
	Severity         Severity           `json:"severity"`
	Overdraft        OverdraftBreakdown `json:"overdraft"`
}

// AlertReport is the cached result of one scan.
type AlertReport struct {
	Alerts           []Alert   `json:"alerts"`
	TotalAlerts      int       `json:"total_alerts"`
	ThresholdPercent float64   `json:"threshold_percent"`
	Year             int       `json:"year"`
	GeneratedAt      time.Time `json:"generated_at"`

	// FromCache reports whether this result was served from cache.
	FromCache bool `json:"-"`
}

// =============================================================================
// ALERT ENGINE
// =============================================================================

type AlertEngine struct {
	Store     Store
	Overdraft OverdraftPolicy
	Cache     cache.Cache
	TTL       time.Duration

	Now func() time.Time
}

func NewAlertEngine(store Store, overdraft OverdraftPolicy, c cache.Cache) *AlertEngine {
	return &AlertEngine{Store: store, Overdraft: overdraft, Cache: c, TTL: DefaultAlertTTL, Now: time.Now}
}

// LowBalanceAlerts scans the year's balances and returns everything at or
// below thresholdPercent remaining, plus every overdrawn balance.
func (ae *AlertEngine) LowBalanceAlerts(ctx context.Context, thresholdPercent float64, year int) (AlertReport, error) {
	key := AlertCacheKey(year, thresholdPercent)
	if ae.Cache != nil {
		if raw, ok, err := ae.Cache.Get(ctx, key); err == nil && ok {
			var report AlertReport
			if json.Unmarshal(raw, &report) == nil {
				report.FromCache = true
				return report, nil
			}
		}
	}

	report, err := ae.scan(ctx, thresholdPercent, year)
	if err != nil {
		return AlertReport{}, err
	}

	if ae.Cache != nil {
		if raw, err := json.Marshal(report); err == nil {
			_ = ae.Cache.Put(ctx, key, raw, ae.ttl())
		}
	}
	return report, nil
}

func (ae *AlertEngine) scan(ctx context.Context, thresholdPercent float64, year int) (AlertReport, error) {
	balances, err := ae.Store.BalancesForYear(ctx, year)
	if err != nil {
		return AlertReport{}, err
	}

	threshold := decimal.NewFromFloat(thresholdPercent)
	hundred := decimal.NewFromInt(100)

	budgets := make(map[BudgetID]BenefitBudget)
	types := make(map[BenefitTypeID]BenefitType)

	alerts := []Alert{}
	for _, bal := range balances {
		budget, ok := budgets[bal.BudgetID]
		if !ok {
			if budget, err = ae.Store.GetBudget(ctx, bal.BudgetID); err != nil {
				return AlertReport{}, err
			}
			budgets[bal.BudgetID] = budget
		}
		bt, ok := types[budget.BenefitTypeID]
		if !ok {
			if bt, err = ae.Store.GetBenefitType(ctx, budget.BenefitTypeID); err != nil {
				return AlertReport{}, err
			}
			types[budget.BenefitTypeID] = bt
		}

		if !budget.Allocation.IsPositive() {
			continue // nothing meaningful to alert on
		}

		used := budget.Allocation.Sub(bal.CurrentBalance)
		remaining := hundred.Sub(used.Div(budget.Allocation).Mul(hundred))
		overdrawn := bal.CurrentBalance.IsNegative()

		if remaining.GreaterThan(threshold) && !overdrawn {
			continue
		}

		breakdown := ae.Overdraft.Breakdown(bt.Name, budget.Allocation, bal.CurrentBalance)

		alert := Alert{
			EmployeeID:       bal.EmployeeID,
			BenefitTypeID:    budget.BenefitTypeID,
			BenefitTypeName:  bt.Name,
			Year:             year,
			Allocation:       budget.Allocation,
			CurrentBalance:   bal.CurrentBalance,
			UsedAmount:       used,
			RemainingPercent: remaining.Round(2),
			Severity:         classify(remaining, bal.CurrentBalance, breakdown.Limit),
			Overdraft:        breakdown,
		}
		if emp, err := ae.Store.GetEmployee(ctx, bal.EmployeeID); err == nil {
			alert.EmployeeName = emp.Name
		}
		alerts = append(alerts, alert)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := severityRank[alerts[i].Severity], severityRank[alerts[j].Severity]
		if ri != rj {
			return ri < rj
		}
		return alerts[i].RemainingPercent.LessThan(alerts[j].RemainingPercent)
	})

	return AlertReport{
		Alerts:           alerts,
		TotalAlerts:      len(alerts),
		ThresholdPercent: thresholdPercent,
		Year:             year,
		GeneratedAt:      ae.now(),
	}, nil
}

// classify picks the most severe applicable bucket.
func classify(remaining, balance, limit decimal.Decimal) Severity {
	switch {
	case balance.LessThan(limit):
		return SeverityOverdraftExceeded
	case balance.IsNegative():
		return SeverityOverdrawn
	case remaining.LessThanOrEqual(decimal.NewFromInt(5)):
		return SeverityCritical
	case remaining.LessThanOrEqual(decimal.NewFromInt(10)):
		return SeverityHigh
	default:
		return SeverityWarning
	}
}

func (ae *AlertEngine) ttl() time.Duration {
	if ae.TTL > 0 {
		return ae.TTL
	}
	return DefaultAlertTTL
}

func (ae *AlertEngine) now() time.Time {
	if ae.Now != nil {
		return ae.Now()
	}
	return time.Now()
}
