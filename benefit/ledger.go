/*
ledger.go - Transaction application with overdraft policy

PURPOSE:
  The Ledger is the only writer of balances. Every approved claim, manual
  adjustment, claim reversal and reconciliation correction flows through
  Apply, which atomically:

  1. Resolves the employee's budget (eligibility.go)
  2. Fetches or seeds the balance row
  3. Computes balance_after
  4. Enforces the overdraft floor on debits (overdraft.go)
  5. Writes the new balance AND appends an immutable transaction
  6. Invalidates cached alert/summary data (advisory, fire-and-forget)

ATOMICITY:
  Steps 1-5 run inside one store transaction. A crash between 5 and 6 may
  leave stale cache (acceptable - cache is advisory) but can never leave a
  balance updated without its transaction record or vice versa.

TRANSACTION IDS:
  TXN-YYYYMMDD-NNN - date-sequenced, zero-padded to three digits,
  collision-checked against the store inside the same transaction.

OVERDRAFT:
  Debits may take a balance negative down to -(allocation * rate). The
  boundary is inclusive: landing exactly on the limit succeeds. The
  override and emergency flags bypass the floor entirely.

SEE ALSO:
  - claims.go: Maps claim lifecycle events onto Apply calls
  - reconcile.go: Routes corrective writes through the same append path
*/
package benefit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian/benefit-ledger/cache"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger applies debit/credit transactions to employee benefit balances.
type Ledger struct {
	Store     TxStore
	Overdraft OverdraftPolicy
	Cache     cache.Cache

	// Now is overridable for tests.
	Now func() time.Time
}

func NewLedger(store TxStore, overdraft OverdraftPolicy, c cache.Cache) *Ledger {
	return &Ledger{Store: store, Overdraft: overdraft, Cache: c, Now: time.Now}
}

// ApplyInput carries everything needed to post one ledger entry.
type ApplyInput struct {
	EmployeeID    EmployeeID
	BenefitTypeID BenefitTypeID
	Year          int
	Type          TransactionType
	Amount        decimal.Decimal // positive; Type carries the sign
	ReferenceType ReferenceType
	ReferenceID   *string
	Description   string
	ActorID       *string

	// OverrideOverdraft and IsEmergency each bypass the overdraft floor.
	OverrideOverdraft bool
	IsEmergency       bool
}

// Apply posts a single transaction atomically and returns the full record
// including before/after balances and resolved display data.
//
// Failure modes: ErrEmployeeNotFound, ErrBenefitTypeNotFound,
// *NoBudgetError, ErrInvalidAmount, *OverdraftExceededError,
// ErrConcurrencyConflict. On any failure no state changes.
func (l *Ledger) Apply(ctx context.Context, in ApplyInput) (BalanceTransaction, error) {
	if !in.Amount.IsPositive() {
		return BalanceTransaction{}, fmt.Errorf("%w: %s", ErrInvalidAmount, in.Amount)
	}
	if in.Type != TxDebit && in.Type != TxCredit {
		return BalanceTransaction{}, fmt.Errorf("unknown transaction type %q", in.Type)
	}

	var out BalanceTransaction
	err := l.Store.WithTx(ctx, func(s Store) error {
		rec, err := l.applyInTx(ctx, s, in)
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return BalanceTransaction{}, err
	}

	// Cache is advisory; invalidation failures never surface.
	l.invalidateCaches(ctx, in.EmployeeID, in.Year)
	return out, nil
}

func (l *Ledger) applyInTx(ctx context.Context, s Store, in ApplyInput) (BalanceTransaction, error) {
	emp, err := s.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return BalanceTransaction{}, err
	}
	bt, err := s.GetBenefitType(ctx, in.BenefitTypeID)
	if err != nil {
		return BalanceTransaction{}, err
	}

	budget, err := resolveInStore(ctx, s, emp, in.BenefitTypeID, in.Year)
	if err != nil {
		return BalanceTransaction{}, err
	}

	now := l.now()

	bal, err := getOrCreateBalance(ctx, s, emp.ID, budget, now)
	if err != nil {
		return BalanceTransaction{}, err
	}

	before := bal.CurrentBalance
	var after decimal.Decimal
	if in.Type == TxDebit {
		after = before.Sub(in.Amount)
	} else {
		after = before.Add(in.Amount)
	}

	if in.Type == TxDebit && !in.OverrideOverdraft && !in.IsEmergency {
		limit := l.Overdraft.Limit(bt.Name, budget.Allocation)
		if after.LessThan(limit) {
			return BalanceTransaction{}, &OverdraftExceededError{
				EmployeeID:    emp.ID,
				BenefitTypeID: in.BenefitTypeID,
				Year:          in.Year,
				Requested:     in.Amount,
				BalanceAfter:  after,
				Limit:         limit,
				Shortage:      limit.Sub(after),
			}
		}
	}

	txID, err := NextTransactionID(ctx, s, now)
	if err != nil {
		return BalanceTransaction{}, err
	}

	if err := s.UpdateBalanceAmount(ctx, bal.ID, after, now); err != nil {
		return BalanceTransaction{}, err
	}

	rec := BalanceTransaction{
		ID:            txID,
		BalanceID:     bal.ID,
		EmployeeID:    emp.ID,
		BenefitTypeID: in.BenefitTypeID,
		Year:          in.Year,
		Type:          in.Type,
		Amount:        in.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Description:   in.Description,
		ProcessedBy:   in.ActorID,
		CreatedAt:     now,
	}
	if err := s.AppendTransaction(ctx, rec); err != nil {
		return BalanceTransaction{}, err
	}

	// Display data for the caller; not persisted.
	rec.BenefitTypeName = bt.Name
	if in.ActorID != nil {
		if actor, err := s.GetEmployee(ctx, EmployeeID(*in.ActorID)); err == nil {
			rec.ProcessedByName = actor.Name
		}
	}
	return rec, nil
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Ledger) invalidateCaches(ctx context.Context, employeeID EmployeeID, year int) {
	if l.Cache == nil {
		return
	}
	_ = l.Cache.Invalidate(ctx, SummaryCacheKey(employeeID, year))
	_ = l.Cache.InvalidatePrefix(ctx, AlertCachePrefix(year))
}

// =============================================================================
// SHARED HELPERS - Used by ledger, initializer and reconciliation
// =============================================================================

// resolveInStore runs eligibility resolution against a (possibly
// transaction-scoped) store.
func resolveInStore(ctx context.Context, s Store, emp Employee, benefitTypeID BenefitTypeID, year int) (BenefitBudget, error) {
	resolver := EligibilityResolver{Budgets: s, Directory: s}
	return resolver.Resolve(ctx, emp, benefitTypeID, year)
}

// getOrCreateBalance fetches the balance row for (employee, budget),
// seeding it at the budget's allocation when absent.
func getOrCreateBalance(ctx context.Context, s Store, employeeID EmployeeID, budget BenefitBudget, now time.Time) (EmployeeBenefitBalance, error) {
	bal, err := s.GetBalance(ctx, employeeID, budget.ID)
	if err == nil {
		return bal, nil
	}
	if !errors.Is(err, ErrBalanceNotFound) {
		return EmployeeBenefitBalance{}, err
	}

	bal = EmployeeBenefitBalance{
		ID:             BalanceID(uuid.NewString()),
		EmployeeID:     employeeID,
		BudgetID:       budget.ID,
		CurrentBalance: budget.Allocation,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.CreateBalance(ctx, bal); err != nil {
		return EmployeeBenefitBalance{}, err
	}
	return bal, nil
}

// NextTransactionID generates the next TXN-YYYYMMDD-NNN id for the day,
// collision-checking against the store. Must run inside the same
// transaction as the append so the sequence cannot race.
func NextTransactionID(ctx context.Context, s TransactionStore, now time.Time) (TransactionID, error) {
	day := now.UTC()
	count, err := s.CountTransactionsOnDay(ctx, day)
	if err != nil {
		return "", err
	}

	for seq := count + 1; seq <= count+1000; seq++ {
		id := TransactionID(fmt.Sprintf("TXN-%s-%03d", day.Format("20060102"), seq))
		exists, err := s.TransactionIDExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", ErrDuplicateTransactionID
}

// =============================================================================
// CACHE KEYS
// =============================================================================

// AlertCachePrefix covers every threshold variant for a year.
func AlertCachePrefix(year int) string { return fmt.Sprintf("alerts:%d", year) }

// AlertCacheKey keys one alert report.
func AlertCacheKey(year int, thresholdPercent float64) string {
	return fmt.Sprintf("alerts:%d:%g", year, thresholdPercent)
}

// SummaryCacheKey keys one employee's balance summary for a year.
func SummaryCacheKey(employeeID EmployeeID, year int) string {
	return fmt.Sprintf("summary:%s:%d", employeeID, year)
}
