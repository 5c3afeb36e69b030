/*
reconcile.go - Recalculation of balances against claims history

PURPOSE:
  Over time, stored balances can drift from what the claims history says
  they should be (imported data, historical bugs, out-of-band edits).
  Reconciliation recomputes the expected balance for each (employee,
  budget) pair:

    expected = allocation - sum(approved claims for employee/type/year)

  and compares it to the stored balance with a currency-rounding epsilon
  of 0.01. Differences beyond the epsilon are reported as discrepancies -
  they are expected under normal operation, not errors.

CORRECTIVE WRITES:
  Corrections are routed through the ledger append path: a synthetic
  "reconciliation" transaction records the delta, then the balance is set
  to the expected value. The ledger invariant

    current_balance == allocation - sum(debits) + sum(credits)

  therefore holds after every reconciliation run, and the correction
  itself is auditable.

ATOMICITY:
  One store transaction per call; alert/summary caches for every touched
  employee are invalidated after commit.

SEE ALSO:
  - ledger.go: NextTransactionID and the cache key helpers
  - claims.go: How approved claims reach the ledger in the first place
*/
package benefit

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/benefit-ledger/cache"
)

// Epsilon below which a stored and recalculated balance are considered
// equal (currency rounding tolerance).
var reconcileEpsilon = decimal.NewFromFloat(0.01)

// =============================================================================
// RECONCILIATION ENGINE
// =============================================================================

type ReconciliationEngine struct {
	Store TxStore
	Cache cache.Cache

	Now func() time.Time
}

func NewReconciliationEngine(store TxStore, c cache.Cache) *ReconciliationEngine {
	return &ReconciliationEngine{Store: store, Cache: c, Now: time.Now}
}

// Discrepancy records one balance that drifted from its claims history.
type Discrepancy struct {
	EmployeeID        EmployeeID      `json:"employee_id"`
	BenefitTypeID     BenefitTypeID   `json:"benefit_type_id"`
	OldBalance        decimal.Decimal `json:"old_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"` // calculated - old
}

// ReconcileResult summarizes one recalculation run.
type ReconcileResult struct {
	RecalculatedEmployees int           `json:"recalculated_employees"`
	RecalculatedBalances  int           `json:"recalculated_balances"`
	Discrepancies         []Discrepancy `json:"discrepancies"`
}

// Recalculate recomputes balances for the year. employeeIDs and
// benefitTypeIDs restrict the scope; nil means all. Balances are
// corrected to the recalculated value via synthetic reconciliation
// transactions; discrepancies beyond the epsilon are reported either way.
func (re *ReconciliationEngine) Recalculate(ctx context.Context, year int, employeeIDs []EmployeeID, benefitTypeIDs []BenefitTypeID) (ReconcileResult, error) {
	result := ReconcileResult{Discrepancies: []Discrepancy{}}
	var touched []EmployeeID

	err := re.Store.WithTx(ctx, func(s Store) error {
		budgets, err := s.BudgetsForYear(ctx, year)
		if err != nil {
			return err
		}
		budgets = filterBudgetTypes(budgets, benefitTypeIDs)
		if len(budgets) == 0 {
			return nil
		}

		employees, err := s.ListEmployees(ctx, employeeIDs)
		if err != nil {
			return err
		}
		singleID, err := s.SingleStatusID(ctx)
		if err != nil {
			return err
		}

		byType := groupByBenefitType(budgets)
		now := re.now()

		for _, emp := range employees {
			empTouched := false

			for typeID, typeBudgets := range byType {
				budget, ok := MatchBudget(typeBudgets, emp, singleID)
				if !ok {
					continue
				}

				claimed, err := s.ApprovedClaimsTotal(ctx, emp.ID, typeID, year)
				if err != nil {
					return err
				}
				expected := budget.Allocation.Sub(claimed)

				bal, err := getOrCreateBalance(ctx, s, emp.ID, budget, now)
				if err != nil {
					return err
				}
				stored := bal.CurrentBalance

				result.RecalculatedBalances++
				empTouched = true

				diff := expected.Sub(stored)
				if diff.Abs().LessThanOrEqual(reconcileEpsilon) {
					continue // within currency rounding; nothing to correct
				}

				result.Discrepancies = append(result.Discrepancies, Discrepancy{
					EmployeeID:        emp.ID,
					BenefitTypeID:     typeID,
					OldBalance:        stored,
					CalculatedBalance: expected,
					Difference:        diff,
				})

				if err := re.correct(ctx, s, bal, typeID, year, stored, expected, now); err != nil {
					return err
				}
			}

			if empTouched {
				result.RecalculatedEmployees++
				touched = append(touched, emp.ID)
			}
		}
		return nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	re.invalidateCaches(ctx, touched, year)
	return result, nil
}

// correct writes the balance to its expected value and appends the
// synthetic transaction that explains the delta.
func (re *ReconciliationEngine) correct(ctx context.Context, s Store, bal EmployeeBenefitBalance, typeID BenefitTypeID, year int, stored, expected decimal.Decimal, now time.Time) error {
	diff := expected.Sub(stored)

	txType := TxCredit
	if diff.IsNegative() {
		txType = TxDebit
	}

	txID, err := NextTransactionID(ctx, s, now)
	if err != nil {
		return err
	}
	if err := s.UpdateBalanceAmount(ctx, bal.ID, expected, now); err != nil {
		return err
	}
	return s.AppendTransaction(ctx, BalanceTransaction{
		ID:            txID,
		BalanceID:     bal.ID,
		EmployeeID:    bal.EmployeeID,
		BenefitTypeID: typeID,
		Year:          year,
		Type:          txType,
		Amount:        diff.Abs(),
		BalanceBefore: stored,
		BalanceAfter:  expected,
		ReferenceType: RefReconciliation,
		Description:   "balance reconciliation against claims history",
		CreatedAt:     now,
	})
}

func (re *ReconciliationEngine) invalidateCaches(ctx context.Context, employees []EmployeeID, year int) {
	if re.Cache == nil {
		return
	}
	for _, id := range employees {
		_ = re.Cache.Invalidate(ctx, SummaryCacheKey(id, year))
	}
	_ = re.Cache.InvalidatePrefix(ctx, AlertCachePrefix(year))
}

func (re *ReconciliationEngine) now() time.Time {
	if re.Now != nil {
		return re.Now()
	}
	return time.Now()
}

func filterBudgetTypes(budgets []BenefitBudget, typeIDs []BenefitTypeID) []BenefitBudget {
	if len(typeIDs) == 0 {
		return budgets
	}
	want := make(map[BenefitTypeID]bool, len(typeIDs))
	for _, id := range typeIDs {
		want[id] = true
	}
	out := budgets[:0:0]
	for _, b := range budgets {
		if want[b.BenefitTypeID] {
			out = append(out, b)
		}
	}
	return out
}
