/*
store.go - Persistence interfaces for budgets, balances and transactions

PURPOSE:
  Defines the interface between the ledger engine and the database.
  Different implementations can use SQLite, PostgreSQL, or in-memory
  storage; the engine only speaks these interfaces.

KEY INTERFACES:
  Directory:        Employee/marriage-status lookups (external collaborator,
                    read-only to the ledger)
  BudgetStore:      Budget and benefit-type records
  BalanceStore:     Current-balance rows
  TransactionStore: Append-only ledger entries
  ClaimStore:       Claims read model used by reconciliation
  TxStore:          Atomic execution of a closure against all of the above

APPEND-ONLY CONTRACT:
  TransactionStore has AppendTransaction and reads. No update, no delete.
  Corrections are new transactions.

ATOMICITY:
  Every ledger-mutating operation (apply, initialize, recalculate) runs
  inside TxStore.WithTx. Concurrent debits against the same balance row
  must serialize; implementations provide row-level locking or a
  serializable transaction. WithTx returns ErrConcurrencyConflict when
  serialization fails, and callers may retry the whole operation.

SEE ALSO:
  - store/memory.go: In-memory implementation for tests
  - ../store/sqlite/sqlite.go: Durable implementation
*/
package benefit

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DIRECTORY - External employee/org data, read-only to the ledger
// =============================================================================

type Directory interface {
	// GetEmployee returns ErrEmployeeNotFound when absent.
	GetEmployee(ctx context.Context, id EmployeeID) (Employee, error)

	// ListEmployees returns all employees, or only the given ids when the
	// slice is non-empty. Unknown ids are skipped, not errors.
	ListEmployees(ctx context.Context, ids []EmployeeID) ([]Employee, error)

	// SingleStatusID returns the marriage-status id marked Single. The
	// female-staff eligibility rule forces this status.
	SingleStatusID(ctx context.Context) (string, error)
}

// =============================================================================
// BUDGETS AND BENEFIT TYPES
// =============================================================================

type BudgetStore interface {
	SaveBudget(ctx context.Context, b BenefitBudget) error

	// GetBudget returns ErrBudgetNotFound when absent.
	GetBudget(ctx context.Context, id BudgetID) (BenefitBudget, error)

	// BudgetsForYear returns every budget for the year, all benefit types.
	BudgetsForYear(ctx context.Context, year int) ([]BenefitBudget, error)

	// BudgetsFor returns the budgets for one benefit type and year.
	BudgetsFor(ctx context.Context, benefitTypeID BenefitTypeID, year int) ([]BenefitBudget, error)

	SaveBenefitType(ctx context.Context, bt BenefitType) error

	// GetBenefitType returns ErrBenefitTypeNotFound when absent.
	GetBenefitType(ctx context.Context, id BenefitTypeID) (BenefitType, error)
}

// =============================================================================
// BALANCES
// =============================================================================

type BalanceStore interface {
	// GetBalance returns ErrBalanceNotFound when no row exists for the pair.
	GetBalance(ctx context.Context, employeeID EmployeeID, budgetID BudgetID) (EmployeeBenefitBalance, error)

	CreateBalance(ctx context.Context, b EmployeeBenefitBalance) error

	// UpdateBalanceAmount overwrites CurrentBalance for one row. Only the
	// ledger and the reconciliation correction path call this.
	UpdateBalanceAmount(ctx context.Context, id BalanceID, amount decimal.Decimal, at time.Time) error

	// BalancesForYear returns every balance whose budget belongs to the year.
	BalancesForYear(ctx context.Context, year int) ([]EmployeeBenefitBalance, error)

	// BalancesForEmployee returns the employee's balances for the year.
	BalancesForEmployee(ctx context.Context, employeeID EmployeeID, year int) ([]EmployeeBenefitBalance, error)
}

// =============================================================================
// TRANSACTIONS - Append-only
// =============================================================================

type TransactionStore interface {
	// AppendTransaction persists a ledger entry. Returns
	// ErrDuplicateTransactionID if the id already exists.
	AppendTransaction(ctx context.Context, tx BalanceTransaction) error

	// TransactionsFor returns entries for (employee, benefit type, year),
	// oldest first.
	TransactionsFor(ctx context.Context, employeeID EmployeeID, benefitTypeID BenefitTypeID, year int) ([]BalanceTransaction, error)

	// TransactionsByEmployee returns all of an employee's entries, newest
	// first.
	TransactionsByEmployee(ctx context.Context, employeeID EmployeeID) ([]BalanceTransaction, error)

	// CountTransactionsOnDay returns how many entries were created on the
	// given calendar day (UTC). Seeds the per-day id sequence.
	CountTransactionsOnDay(ctx context.Context, day time.Time) (int, error)

	// TransactionIDExists checks a candidate id for collision.
	TransactionIDExists(ctx context.Context, id TransactionID) (bool, error)
}

// =============================================================================
// CLAIMS - Read model for reconciliation
// =============================================================================

type ClaimStore interface {
	// SaveClaim upserts the read-model copy of an external claim.
	SaveClaim(ctx context.Context, c Claim) error

	// ApprovedClaimsTotal sums approved claim amounts for
	// (employee, benefit type, year).
	ApprovedClaimsTotal(ctx context.Context, employeeID EmployeeID, benefitTypeID BenefitTypeID, year int) (decimal.Decimal, error)
}

// =============================================================================
// COMPOSITE STORE
// =============================================================================

// Store bundles everything the engine reads and writes.
type Store interface {
	Directory

	// SaveEmployee and SaveMarriageStatus exist for admin/ops seeding; the
	// ledger itself never writes directory data.
	SaveEmployee(ctx context.Context, e Employee) error
	SaveMarriageStatus(ctx context.Context, ms MarriageStatus) error

	BudgetStore
	BalanceStore
	TransactionStore
	ClaimStore
}

// TxStore executes a closure atomically against a transaction-scoped Store.
type TxStore interface {
	Store

	// WithTx runs fn inside one transaction. If fn returns an error the
	// transaction is rolled back and the error returned unchanged.
	WithTx(ctx context.Context, fn func(Store) error) error
}
