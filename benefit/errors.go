/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As; the HTTP layer maps these
  to status codes.

ERROR CATEGORIES:
  1. Not-found errors - Missing directory/budget data ("no entitlement",
     not a system fault)
  2. Precondition errors - Initialization prerequisites not met
  3. Business-rule rejections - Overdraft limit exceeded
  4. Concurrency errors - Transaction serialization failures, retryable

USAGE:
  if errors.Is(err, benefit.ErrOverdraftExceeded) {
      var od *benefit.OverdraftExceededError
      errors.As(err, &od)
      // od.Shortage tells the caller how far over the limit it went
  }

SEE ALSO:
  - ledger.go: Produces OverdraftExceededError
  - initializer.go: Produces ErrNoBudgetsForYear / ErrNoEmployees
*/
package benefit

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when the directory has no such employee.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrBenefitTypeNotFound is returned when a benefit type id is unknown.
	ErrBenefitTypeNotFound = errors.New("benefit type not found")

	// ErrBudgetNotFound is returned when no budget matches an employee for a
	// benefit type and year. Callers must treat this as "no benefit
	// entitlement", not a system error.
	ErrBudgetNotFound = errors.New("no matching benefit budget")

	// ErrBalanceNotFound is returned when a balance row does not exist.
	ErrBalanceNotFound = errors.New("balance not found")

	// ErrNoBudgetsForYear is returned by initialization when the year has no
	// budgets configured at all.
	ErrNoBudgetsForYear = errors.New("no budgets configured for year")

	// ErrNoEmployees is returned by initialization when the target employee
	// set is empty.
	ErrNoEmployees = errors.New("no employees to initialize")

	// ErrOverdraftExceeded is returned when a debit would push a balance
	// below the benefit type's overdraft limit.
	ErrOverdraftExceeded = errors.New("overdraft limit exceeded")

	// ErrConcurrencyConflict is returned when a serialized transaction could
	// not commit. Safe to retry the whole operation.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrDuplicateTransactionID is returned when a generated ledger id
	// collides. The generator retries past these.
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")

	// ErrInvalidAmount is returned for zero or negative transaction amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OverdraftExceededError reports how far past the limit a debit would land.
// Shortage is the positive distance between the overdraft limit and the
// would-be balance; it is what the employee would need covered to proceed.
type OverdraftExceededError struct {
	EmployeeID    EmployeeID
	BenefitTypeID BenefitTypeID
	Year          int
	Requested     decimal.Decimal
	BalanceAfter  decimal.Decimal
	Limit         decimal.Decimal
	Shortage      decimal.Decimal
}

func (e *OverdraftExceededError) Error() string {
	return fmt.Sprintf("overdraft limit exceeded for %s/%s/%d: requested %s would leave %s, limit %s (short %s)",
		e.EmployeeID, e.BenefitTypeID, e.Year,
		e.Requested, e.BalanceAfter, e.Limit, e.Shortage)
}

func (e *OverdraftExceededError) Unwrap() error { return ErrOverdraftExceeded }

// NoBudgetError reports which lookup failed to match a budget.
type NoBudgetError struct {
	EmployeeID    EmployeeID
	BenefitTypeID BenefitTypeID
	Year          int
}

func (e *NoBudgetError) Error() string {
	return fmt.Sprintf("no matching benefit budget for employee %s, benefit type %s, year %d",
		e.EmployeeID, e.BenefitTypeID, e.Year)
}

func (e *NoBudgetError) Unwrap() error { return ErrBudgetNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsNotFound returns true if the error indicates missing data rather than
// a fault.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrBenefitTypeNotFound) ||
		errors.Is(err, ErrBudgetNotFound) ||
		errors.Is(err, ErrBalanceNotFound)
}

// IsClientError returns true if the error is due to the request itself:
// a precondition or business rule, not a system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrOverdraftExceeded) ||
		errors.Is(err, ErrNoBudgetsForYear) ||
		errors.Is(err, ErrNoEmployees) ||
		errors.Is(err, ErrInvalidAmount)
}
