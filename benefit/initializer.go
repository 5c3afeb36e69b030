/*
initializer.go - Bulk balance creation for a year or cohort

PURPOSE:
  At the start of a benefit year (or when a cohort joins), every eligible
  (employee, budget) pair gets a balance row seeded at the budget's
  allocation. Already-initialized pairs are skipped, which makes the
  operation idempotent: running it twice changes nothing after the first
  successful run.

ELIGIBILITY:
  Uses the same MatchBudget precedence as the ledger path (eligibility.go)
  so initialization and transaction application can never disagree about
  who is entitled to what.

ATOMICITY:
  The whole call runs inside one store transaction; any failure rolls
  back every balance created by the call.

SEE ALSO:
  - eligibility.go: Shared precedence logic
  - ledger.go: Seeds individual balances lazily on first transaction
*/
package benefit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// INITIALIZER
// =============================================================================

// Initializer bulk-creates balance rows for a year.
type Initializer struct {
	Store TxStore

	Now func() time.Time
}

func NewInitializer(store TxStore) *Initializer {
	return &Initializer{Store: store, Now: time.Now}
}

// InitializeResult reports what one call created.
type InitializeResult struct {
	InitializedCount int `json:"initialized_count"`
	Year             int `json:"year"`
}

// Initialize creates balance rows for every eligible (employee, budget)
// pair in the year that does not already have one. employeeIDs restricts
// the cohort; nil or empty means every employee in the directory.
//
// Preconditions: the year must have budgets (ErrNoBudgetsForYear) and the
// target employee set must be non-empty (ErrNoEmployees).
func (bi *Initializer) Initialize(ctx context.Context, year int, employeeIDs []EmployeeID) (InitializeResult, error) {
	result := InitializeResult{Year: year}

	err := bi.Store.WithTx(ctx, func(s Store) error {
		budgets, err := s.BudgetsForYear(ctx, year)
		if err != nil {
			return err
		}
		if len(budgets) == 0 {
			return ErrNoBudgetsForYear
		}

		employees, err := s.ListEmployees(ctx, employeeIDs)
		if err != nil {
			return err
		}
		if len(employees) == 0 {
			return ErrNoEmployees
		}

		singleID, err := s.SingleStatusID(ctx)
		if err != nil {
			return err
		}

		byType := groupByBenefitType(budgets)
		now := bi.now()

		for _, emp := range employees {
			for _, typeBudgets := range byType {
				budget, ok := MatchBudget(typeBudgets, emp, singleID)
				if !ok {
					continue // not entitled to this benefit type
				}

				if _, err := s.GetBalance(ctx, emp.ID, budget.ID); err == nil {
					continue // already initialized, never overwritten
				} else if !IsNotFound(err) {
					return err
				}

				bal := EmployeeBenefitBalance{
					ID:             BalanceID(uuid.NewString()),
					EmployeeID:     emp.ID,
					BudgetID:       budget.ID,
					CurrentBalance: budget.Allocation,
					CreatedAt:      now,
					UpdatedAt:      now,
				}
				if err := s.CreateBalance(ctx, bal); err != nil {
					return err
				}
				result.InitializedCount++
			}
		}
		return nil
	})
	if err != nil {
		return InitializeResult{Year: year}, err
	}
	return result, nil
}

func (bi *Initializer) now() time.Time {
	if bi.Now != nil {
		return bi.Now()
	}
	return time.Now()
}

func groupByBenefitType(budgets []BenefitBudget) map[BenefitTypeID][]BenefitBudget {
	byType := make(map[BenefitTypeID][]BenefitBudget)
	for _, b := range budgets {
		byType[b.BenefitTypeID] = append(byType[b.BenefitTypeID], b)
	}
	return byType
}
