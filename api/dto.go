/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  domain model from the external contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Done in handlers; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/meridian/benefit-ledger/benefit"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ApplyTransactionRequest posts one debit/credit to the ledger.
type ApplyTransactionRequest struct {
	EmployeeID        string          `json:"employee_id"`
	BenefitTypeID     string          `json:"benefit_type_id"`
	Year              int             `json:"year"`
	Type              string          `json:"type"` // debit|credit
	Amount            decimal.Decimal `json:"amount"`
	ReferenceType     string          `json:"reference_type"`
	ReferenceID       *string         `json:"reference_id,omitempty"`
	Description       string          `json:"description,omitempty"`
	ActorID           *string         `json:"actor_id,omitempty"`
	OverrideOverdraft bool            `json:"override_overdraft,omitempty"`
	IsEmergency       bool            `json:"is_emergency,omitempty"`
}

// InitializeRequest seeds balances for a year/cohort.
type InitializeRequest struct {
	Year        int      `json:"year"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

// RecalculateRequest scopes a reconciliation run.
type RecalculateRequest struct {
	Year           int      `json:"year"`
	EmployeeIDs    []string `json:"employee_ids,omitempty"`
	BenefitTypeIDs []string `json:"benefit_type_ids,omitempty"`
}

// CreateBudgetRequest creates one eligibility-rule-plus-allocation row.
type CreateBudgetRequest struct {
	ID               string          `json:"id"`
	BenefitTypeID    string          `json:"benefit_type_id"`
	Level            string          `json:"level"`
	MarriageStatusID *string         `json:"marriage_status_id,omitempty"` // omit for wildcard
	Year             int             `json:"year"`
	Allocation       decimal.Decimal `json:"allocation"`
}

// CreateEmployeeRequest registers a directory record.
type CreateEmployeeRequest struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Level            string  `json:"level"`
	MarriageStatusID *string `json:"marriage_status_id,omitempty"`
	Gender           string  `json:"gender,omitempty"`
}

// CreateBenefitTypeRequest registers a benefit category.
type CreateBenefitTypeRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateMarriageStatusRequest registers a marriage-status lookup row.
type CreateMarriageStatusRequest struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Single bool   `json:"single,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// OverdraftErrorResponse extends the envelope with the shortage the
// caller needs to decide on a retry with override/emergency flags.
type OverdraftErrorResponse struct {
	Error        string          `json:"error"`
	Shortage     decimal.Decimal `json:"shortage"`
	Limit        decimal.Decimal `json:"limit"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// ClaimEventResponse reports the transactions a claim event produced.
type ClaimEventResponse struct {
	Applied      []benefit.BalanceTransaction `json:"applied"`
	Transactions int                          `json:"transactions"`
}
