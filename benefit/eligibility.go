/*
eligibility.go - Which budget applies to which employee

PURPOSE:
  Budgets are keyed (benefit type, level, marriage status or wildcard,
  year). Given an employee, exactly one budget should apply. This file
  holds the single source of that precedence logic; the ledger and the
  initializer both resolve through it so the policy cannot drift.

RESOLUTION ORDER (first match wins):
  1. Supervisor: always the wildcard budget for the level, regardless of
     the employee's marriage status.
  2. Staff, female: the budget whose marriage status is the "single"
     status, regardless of the employee's ACTUAL marriage status. This is
     a documented business rule, not a bug.
  3. Staff, male: the budget matching the employee's marriage status.
  4. Any other level (or unspecified gender): the budget matching the
     employee's marriage status, falling back to the wildcard budget.

  No match -> ErrBudgetNotFound ("no entitlement", not a fault). The
  administrative invariant that no two budgets match the same employee is
  not enforced at write time; when data violates it, the first match in
  the order above wins deterministically.

SEE ALSO:
  - ledger.go: Resolves before every apply
  - initializer.go: Resolves when seeding balances
*/
package benefit

import "context"

// =============================================================================
// RESOLVER
// =============================================================================

// EligibilityResolver determines the single applicable budget for an
// employee, benefit type and year.
type EligibilityResolver struct {
	Budgets   BudgetStore
	Directory Directory
}

func NewEligibilityResolver(budgets BudgetStore, dir Directory) *EligibilityResolver {
	return &EligibilityResolver{Budgets: budgets, Directory: dir}
}

// Resolve loads the year's budgets for the benefit type and picks the one
// the employee is entitled to. Returns *NoBudgetError (wrapping
// ErrBudgetNotFound) when nothing matches.
func (r *EligibilityResolver) Resolve(ctx context.Context, emp Employee, benefitTypeID BenefitTypeID, year int) (BenefitBudget, error) {
	budgets, err := r.Budgets.BudgetsFor(ctx, benefitTypeID, year)
	if err != nil {
		return BenefitBudget{}, err
	}
	singleID, err := r.Directory.SingleStatusID(ctx)
	if err != nil {
		return BenefitBudget{}, err
	}

	if b, ok := MatchBudget(budgets, emp, singleID); ok {
		return b, nil
	}
	return BenefitBudget{}, &NoBudgetError{EmployeeID: emp.ID, BenefitTypeID: benefitTypeID, Year: year}
}

// =============================================================================
// MATCHING - Pure precedence logic, shared with the initializer
// =============================================================================

// MatchBudget applies the resolution order to an in-memory budget set.
// All budgets must belong to the same benefit type and year; the caller
// filters. singleID is the directory's "single" marriage-status id.
func MatchBudget(budgets []BenefitBudget, emp Employee, singleID string) (BenefitBudget, bool) {
	levelBudgets := budgets[:0:0]
	for _, b := range budgets {
		if b.Level == emp.Level {
			levelBudgets = append(levelBudgets, b)
		}
	}
	if len(levelBudgets) == 0 {
		return BenefitBudget{}, false
	}

	switch {
	case emp.Level == LevelSupervisor:
		return findWildcard(levelBudgets)

	case emp.Level == LevelStaff && emp.Gender == GenderFemale:
		// Forced to the single-status budget regardless of actual status.
		return findStatus(levelBudgets, singleID)

	case emp.Level == LevelStaff && emp.Gender == GenderMale:
		if emp.MarriageStatusID == nil {
			return BenefitBudget{}, false
		}
		return findStatus(levelBudgets, *emp.MarriageStatusID)

	default:
		// Any other level, or staff with unspecified gender: exact status
		// match, else the wildcard budget.
		if emp.MarriageStatusID != nil {
			if b, ok := findStatus(levelBudgets, *emp.MarriageStatusID); ok {
				return b, true
			}
		}
		return findWildcard(levelBudgets)
	}
}

func findWildcard(budgets []BenefitBudget) (BenefitBudget, bool) {
	for _, b := range budgets {
		if b.IsWildcard() {
			return b, true
		}
	}
	return BenefitBudget{}, false
}

func findStatus(budgets []BenefitBudget, statusID string) (BenefitBudget, bool) {
	for _, b := range budgets {
		if b.MarriageStatusID != nil && *b.MarriageStatusID == statusID {
			return b, true
		}
	}
	return BenefitBudget{}, false
}
