/*
claims.go - Claim lifecycle integration

PURPOSE:
  The external claim workflow notifies the ledger on claim state changes.
  Only claims in "approved" status ever touch balances:

    created  (claim approved)          debit the claim amount
    updated  (approved amount changed) credit the old amount, then debit
                                       the new amount - two transactions,
                                       never a single delta, so the audit
                                       trail stays complete
    deleted  (approved claim removed)  credit the claim amount back

ERROR HANDLING:
  Failures are logged with full context (claim id, action, employee,
  amount, status) and re-raised. The claim workflow decides whether to
  roll the claim itself back; the ledger guarantees only that no partial
  balance change happened.

SEE ALSO:
  - ledger.go: The Apply path every event maps onto
  - reconcile.go: Safety net when claim history and balances drift
*/
package benefit

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLAIM EVENTS
// =============================================================================

type ClaimAction string

const (
	ClaimCreated ClaimAction = "created"
	ClaimUpdated ClaimAction = "updated"
	ClaimDeleted ClaimAction = "deleted"
)

// ClaimEvent is what the claim workflow delivers on each state change.
type ClaimEvent struct {
	Action ClaimAction `json:"action"`
	Claim  Claim       `json:"claim"`

	// PreviousAmount is required for "updated" events.
	PreviousAmount *decimal.Decimal `json:"previous_amount,omitempty"`

	// ActorID is the user who triggered the change, when known.
	ActorID *string `json:"actor_id,omitempty"`

	// OverrideOverdraft comes from claim metadata; IsEmergency rides on the
	// claim itself.
	OverrideOverdraft bool `json:"override_overdraft,omitempty"`
}

// =============================================================================
// PROCESSOR
// =============================================================================

// ClaimProcessor maps claim lifecycle events onto ledger transactions.
type ClaimProcessor struct {
	Ledger *Ledger
}

func NewClaimProcessor(ledger *Ledger) *ClaimProcessor {
	return &ClaimProcessor{Ledger: ledger}
}

// HandleEvent applies the balance effect of one claim event and returns
// the transactions it produced. Events for non-approved claims are
// no-ops.
func (p *ClaimProcessor) HandleEvent(ctx context.Context, ev ClaimEvent) ([]BalanceTransaction, error) {
	if ev.Claim.Status != ClaimApproved {
		return nil, nil // pending/rejected claims have no balance effect
	}

	txs, err := p.handle(ctx, ev)
	if err != nil {
		log.Printf("[Claims] %s failed: claim=%s employee=%s amount=%s status=%s: %v",
			ev.Action, ev.Claim.ID, ev.Claim.EmployeeID, ev.Claim.Amount, ev.Claim.Status, err)
		return nil, err
	}
	return txs, nil
}

func (p *ClaimProcessor) handle(ctx context.Context, ev ClaimEvent) ([]BalanceTransaction, error) {
	switch ev.Action {
	case ClaimCreated:
		tx, err := p.apply(ctx, ev, TxDebit, ev.Claim.Amount,
			fmt.Sprintf("claim %s approved", ev.Claim.ID))
		if err != nil {
			return nil, err
		}
		return []BalanceTransaction{tx}, nil

	case ClaimUpdated:
		if ev.PreviousAmount == nil {
			return nil, fmt.Errorf("claim %s: updated event missing previous amount", ev.Claim.ID)
		}
		// Two separate transactions, not a delta: the credit restores the
		// old amount, the debit consumes the new one.
		credit, err := p.apply(ctx, ev, TxCredit, *ev.PreviousAmount,
			fmt.Sprintf("claim %s amount change: restore previous", ev.Claim.ID))
		if err != nil {
			return nil, err
		}
		debit, err := p.apply(ctx, ev, TxDebit, ev.Claim.Amount,
			fmt.Sprintf("claim %s amount change: apply new", ev.Claim.ID))
		if err != nil {
			return []BalanceTransaction{credit}, err
		}
		return []BalanceTransaction{credit, debit}, nil

	case ClaimDeleted:
		tx, err := p.apply(ctx, ev, TxCredit, ev.Claim.Amount,
			fmt.Sprintf("claim %s deleted, amount restored", ev.Claim.ID))
		if err != nil {
			return nil, err
		}
		return []BalanceTransaction{tx}, nil

	default:
		return nil, fmt.Errorf("unknown claim action %q", ev.Action)
	}
}

func (p *ClaimProcessor) apply(ctx context.Context, ev ClaimEvent, txType TransactionType, amount decimal.Decimal, desc string) (BalanceTransaction, error) {
	refID := ev.Claim.ID
	return p.Ledger.Apply(ctx, ApplyInput{
		EmployeeID:        ev.Claim.EmployeeID,
		BenefitTypeID:     ev.Claim.BenefitTypeID,
		Year:              ev.Claim.Year,
		Type:              txType,
		Amount:            amount,
		ReferenceType:     RefClaim,
		ReferenceID:       &refID,
		Description:       desc,
		ActorID:           ev.ActorID,
		OverrideOverdraft: ev.OverrideOverdraft,
		IsEmergency:       ev.Claim.IsEmergency,
	})
}
