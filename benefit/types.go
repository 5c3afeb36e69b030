/*
Package benefit provides the core benefit balance ledger engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  per-employee benefit budgets as a ledger: eligibility resolution,
  transaction application with overdraft policy, bulk balance
  initialization, reconciliation against claims history, and derived
  low-balance alerting.

KEY CONCEPTS IN THIS FILE (types.go):
  - BenefitBudget: An eligibility rule plus a monetary allocation
  - EmployeeBenefitBalance: The live remaining amount for one employee
    against one budget
  - BalanceTransaction: An immutable ledger entry recording a debit/credit
  - Employee/Budget/Balance IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified, only compensated
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Type Safety: Strong typing for IDs prevents mixing employee/budget IDs
  4. Auditability: Every transaction carries before/after balances, a
     reference, and the acting user

USAGE:
  budget := benefit.BenefitBudget{
      BenefitTypeID: "bt-medical",
      Level:         benefit.LevelStaff,
      Year:          2025,
      Allocation:    decimal.NewFromInt(1_000_000),
  }

SEE ALSO:
  - eligibility.go: Which budget applies to which employee
  - ledger.go: Transaction application and overdraft enforcement
  - store.go: Persistence interfaces
*/
package benefit

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type BenefitTypeID string
type BudgetID string
type BalanceID string
type TransactionID string

// =============================================================================
// EMPLOYEE - Owned by an external directory, read-only to the ledger
// =============================================================================

// EmployeeLevel is the organizational level used for budget eligibility.
type EmployeeLevel string

const (
	LevelStaff      EmployeeLevel = "staff"
	LevelSupervisor EmployeeLevel = "supervisor"
	LevelManager    EmployeeLevel = "manager"
	LevelDirector   EmployeeLevel = "director"
)

type Gender string

const (
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
	GenderUnspecified Gender = ""
)

// Employee is the directory record the ledger resolves eligibility from.
// Immutable for ledger purposes.
type Employee struct {
	ID               EmployeeID `json:"id"`
	Name             string     `json:"name"`
	Level            EmployeeLevel `json:"level"`
	MarriageStatusID *string    `json:"marriage_status_id,omitempty"`
	Gender           Gender     `json:"gender"`
}

// MarriageStatus is a directory lookup row. Single marks the status the
// female-staff eligibility rule forces (see eligibility.go).
type MarriageStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Single bool   `json:"single"`
}

// BenefitType names a benefit category (medical, glasses, ...). The name
// keys the overdraft rate table.
type BenefitType struct {
	ID   BenefitTypeID `json:"id"`
	Name string        `json:"name"`
}

// =============================================================================
// BUDGET - Eligibility rule plus allocation
// =============================================================================

// BenefitBudget is an administrative rule: employees of Level with
// MarriageStatusID (nil = wildcard, matches anyone) get Allocation for
// BenefitTypeID in Year. Multiple budgets may exist per
// (benefit-type, level, year) distinguished by marriage status; at most one
// must match any given employee.
type BenefitBudget struct {
	ID               BudgetID        `json:"id"`
	BenefitTypeID    BenefitTypeID   `json:"benefit_type_id"`
	Level            EmployeeLevel   `json:"level"`
	MarriageStatusID *string         `json:"marriage_status_id,omitempty"`
	Year             int             `json:"year"`
	Allocation       decimal.Decimal `json:"allocation"`
	CreatedAt        time.Time       `json:"created_at"`
}

// IsWildcard reports whether this budget matches any marriage status.
func (b BenefitBudget) IsWildcard() bool { return b.MarriageStatusID == nil }

// =============================================================================
// BALANCE - One row per (employee, budget)
// =============================================================================

// EmployeeBenefitBalance is the single source of truth for "how much is
// left right now". Created at allocation value, mutated only through the
// ledger or a reconciliation correction (which itself goes through the
// ledger append path).
type EmployeeBenefitBalance struct {
	ID             BalanceID       `json:"id"`
	EmployeeID     EmployeeID      `json:"employee_id"`
	BudgetID       BudgetID        `json:"budget_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// =============================================================================
// TRANSACTION - Immutable ledger entry
// =============================================================================

type TransactionType string

const (
	TxDebit  TransactionType = "debit"
	TxCredit TransactionType = "credit"
)

// ReferenceType records what caused a transaction.
type ReferenceType string

const (
	RefClaim          ReferenceType = "claim"
	RefAdjustment     ReferenceType = "adjustment"
	RefReconciliation ReferenceType = "reconciliation"
)

// BalanceTransaction is an append-only ledger entry. Never updated or
// deleted after creation; corrections are new transactions, not edits.
//
// BalanceID is the authoritative link to the balance row. EmployeeID,
// BenefitTypeID and Year are denormalized for historical queries.
type BalanceTransaction struct {
	ID            TransactionID   `json:"id"`
	BalanceID     BalanceID       `json:"balance_id"`
	EmployeeID    EmployeeID      `json:"employee_id"`
	BenefitTypeID BenefitTypeID   `json:"benefit_type_id"`
	Year          int             `json:"year"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"` // always positive; Type carries the sign
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceType ReferenceType   `json:"reference_type"`
	ReferenceID   *string         `json:"reference_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	ProcessedBy   *string         `json:"processed_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`

	// Display data resolved at apply time. Not persisted.
	BenefitTypeName string `json:"benefit_type_name,omitempty"`
	ProcessedByName string `json:"processed_by_name,omitempty"`
}

// Signed returns the transaction's effect on the balance.
func (t BalanceTransaction) Signed() decimal.Decimal {
	if t.Type == TxDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// =============================================================================
// CLAIM - Read model for reconciliation
// =============================================================================

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

// Claim mirrors the external claim workflow's record. The ledger never
// owns claim lifecycle; it only sums approved claims during reconciliation
// and reacts to lifecycle events (see claims.go).
type Claim struct {
	ID            string          `json:"id"`
	EmployeeID    EmployeeID      `json:"employee_id"`
	BenefitTypeID BenefitTypeID   `json:"benefit_type_id"`
	Year          int             `json:"year"`
	Amount        decimal.Decimal `json:"amount"`
	Status        ClaimStatus     `json:"status"`
	IsEmergency   bool            `json:"is_emergency"`
}

// =============================================================================
// HELPERS
// =============================================================================

// MustDecimal parses s into a decimal, returning zero on malformed input.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
