package benefit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/benefit-ledger/benefit"
)

// =============================================================================
// BASIC APPLY TESTS
// =============================================================================

func TestLedger_Debit_SeedsAndReducesBalance(t *testing.T) {
	// GIVEN: A married male staff member with no balance row yet
	//        (medical staff/married allocation: 1,500,000)
	// WHEN: Applying a 300,000 debit
	// THEN: The balance is seeded at the allocation and reduced, and the
	//       record carries before/after and display data

	ledger, m, _ := newTestLedger(t)
	ctx := context.Background()

	tx, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "300000"))
	require.NoError(t, err)

	assert.Equal(t, benefit.TxDebit, tx.Type)
	assert.True(t, tx.BalanceBefore.Equal(dec("1500000")))
	assert.True(t, tx.BalanceAfter.Equal(dec("1200000")))
	assert.Equal(t, "Medical", tx.BenefitTypeName)
	assert.Equal(t, benefit.TransactionID("TXN-20250615-001"), tx.ID)

	bal, err := m.GetBalance(ctx, empStaffMaleMarried, "b-med-staff-married")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("1200000")))
}

func TestLedger_Credit_IncreasesBalance(t *testing.T) {
	// GIVEN: A balance already reduced by a debit
	// WHEN: Applying a credit
	// THEN: The balance goes back up, even above the allocation

	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "300000"))
	require.NoError(t, err)

	in := debitInput(empStaffMaleMarried, "500000")
	in.Type = benefit.TxCredit
	tx, err := ledger.Apply(ctx, in)

	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(dec("1700000")))
}

func TestLedger_TransactionIDs_SequencePerDay(t *testing.T) {
	// GIVEN: Two transactions on the same day
	// WHEN: Both are applied
	// THEN: Ids are date-sequenced and zero-padded

	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	tx1, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "1000"))
	require.NoError(t, err)
	tx2, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "2000"))
	require.NoError(t, err)

	assert.Equal(t, benefit.TransactionID("TXN-20250615-001"), tx1.ID)
	assert.Equal(t, benefit.TransactionID("TXN-20250615-002"), tx2.ID)
}

func TestLedger_InvalidAmount_Rejected(t *testing.T) {
	// GIVEN: A zero and a negative amount
	// WHEN: Applying
	// THEN: ErrInvalidAmount, nothing written

	ledger, m, _ := newTestLedger(t)
	ctx := context.Background()

	in := debitInput(empStaffMaleMarried, "0")
	_, err := ledger.Apply(ctx, in)
	assert.ErrorIs(t, err, benefit.ErrInvalidAmount)

	in.Amount = dec("-50")
	_, err = ledger.Apply(ctx, in)
	assert.ErrorIs(t, err, benefit.ErrInvalidAmount)

	txs, err := m.TransactionsByEmployee(ctx, empStaffMaleMarried)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestLedger_UnknownEmployee_NotFound(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	_, err := ledger.Apply(context.Background(), debitInput("emp-ghost", "100"))
	assert.ErrorIs(t, err, benefit.ErrEmployeeNotFound)
}

func TestLedger_NoEntitlement_NoBudgetError(t *testing.T) {
	// GIVEN: A male staff member with no marriage status (no entitlement)
	// WHEN: Applying a debit
	// THEN: NoBudgetError; no balance row is created

	ledger, m, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Apply(ctx, debitInput(empStaffMaleNoStatus, "100"))
	assert.ErrorIs(t, err, benefit.ErrBudgetNotFound)

	balances, err := m.BalancesForEmployee(ctx, empStaffMaleNoStatus, testYear)
	require.NoError(t, err)
	assert.Empty(t, balances)
}

// =============================================================================
// OVERDRAFT TESTS
// =============================================================================

func TestLedger_Overdraft_BoundaryInclusive(t *testing.T) {
	// GIVEN: Medical allocation 1,500,000, rate 0.50 -> limit -750,000
	// WHEN: Debiting 2,250,000 from a fresh balance
	// THEN: After lands exactly ON the limit; the debit succeeds

	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	tx, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "2250000"))

	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(dec("-750000")))
}

func TestLedger_Overdraft_SequentialDebitsToTheFloor(t *testing.T) {
	// GIVEN: Glasses allocation 1,000,000, rate 0.10 -> limit -100,000
	// WHEN: Debiting 600,000 then 500,000, then one more rupiah
	// THEN: The first two succeed (the second lands exactly on the limit),
	//       the third is rejected

	ledger, m, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, m.SaveBudget(ctx, benefit.BenefitBudget{
		ID: "b-glass-big", BenefitTypeID: typeGlasses, Level: benefit.LevelSupervisor,
		Year: testYear, Allocation: dec("1000000"),
	}))

	in := benefit.ApplyInput{
		EmployeeID: empSupervisor, BenefitTypeID: typeGlasses, Year: testYear,
		Type: benefit.TxDebit, Amount: dec("600000"), ReferenceType: benefit.RefClaim,
	}
	tx, err := ledger.Apply(ctx, in)
	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(dec("400000")))

	in.Amount = dec("500000")
	tx, err = ledger.Apply(ctx, in)
	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(dec("-100000")), "landing on the limit is allowed")

	in.Amount = dec("1")
	_, err = ledger.Apply(ctx, in)
	var od *benefit.OverdraftExceededError
	require.ErrorAs(t, err, &od)
	assert.True(t, od.Shortage.Equal(dec("1")))
}

func TestLedger_Overdraft_BelowLimitRejected_NoStateChange(t *testing.T) {
	// GIVEN: The same -750,000 limit
	// WHEN: Debiting one cent past it
	// THEN: OverdraftExceededError with the exact shortage, and NEITHER the
	//       balance nor the transaction log changes

	ledger, m, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "2250000.01"))

	var od *benefit.OverdraftExceededError
	require.ErrorAs(t, err, &od)
	assert.True(t, od.Limit.Equal(dec("-750000")))
	assert.True(t, od.BalanceAfter.Equal(dec("-750000.01")))
	assert.True(t, od.Shortage.Equal(dec("0.01")))
	assert.ErrorIs(t, err, benefit.ErrOverdraftExceeded)

	// Rejection happened before the balance row was persisted, so the
	// rollback leaves no trace at all.
	balances, err := m.BalancesForEmployee(ctx, empStaffMaleMarried, testYear)
	require.NoError(t, err)
	assert.Empty(t, balances)

	txs, err := m.TransactionsByEmployee(ctx, empStaffMaleMarried)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestLedger_Overdraft_RejectionKeepsExistingBalance(t *testing.T) {
	// GIVEN: A balance already at 100,000 after a prior debit
	// WHEN: A debit that would blow past the limit is rejected
	// THEN: The stored balance is untouched

	ledger, m, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "1400000"))
	require.NoError(t, err)

	_, err = ledger.Apply(ctx, debitInput(empStaffMaleMarried, "900000"))
	require.ErrorIs(t, err, benefit.ErrOverdraftExceeded)

	bal, err := m.GetBalance(ctx, empStaffMaleMarried, "b-med-staff-married")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("100000")))
}

func TestLedger_Overdraft_OverrideBypassesLimit(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	in := debitInput(empStaffMaleMarried, "3000000")
	in.OverrideOverdraft = true
	tx, err := ledger.Apply(ctx, in)

	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(dec("-1500000")))
}

func TestLedger_Overdraft_EmergencyBypassesLimit(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	in := debitInput(empStaffMaleMarried, "3000000")
	in.IsEmergency = true
	tx, err := ledger.Apply(ctx, in)

	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(dec("-1500000")))
}

func TestLedger_Overdraft_CreditsNeverChecked(t *testing.T) {
	// GIVEN: A balance already at the overdraft limit
	// WHEN: Applying a credit
	// THEN: It succeeds; the floor only applies to debits

	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "2250000"))
	require.NoError(t, err)

	in := debitInput(empStaffMaleMarried, "50000")
	in.Type = benefit.TxCredit
	tx, err := ledger.Apply(ctx, in)

	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(dec("-700000")))
}

// =============================================================================
// LEDGER INVARIANT
// =============================================================================

func TestLedger_Invariant_BalanceEqualsAllocationMinusNetDebits(t *testing.T) {
	// GIVEN: A mix of debits and credits
	// WHEN: Summing the signed transaction history
	// THEN: current == allocation - sum(debits) + sum(credits)

	ledger, m, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "400000"))
	require.NoError(t, err)
	_, err = ledger.Apply(ctx, debitInput(empStaffMaleMarried, "250000"))
	require.NoError(t, err)
	credit := debitInput(empStaffMaleMarried, "100000")
	credit.Type = benefit.TxCredit
	_, err = ledger.Apply(ctx, credit)
	require.NoError(t, err)

	txs, err := m.TransactionsFor(ctx, empStaffMaleMarried, typeMedical, testYear)
	require.NoError(t, err)

	running := dec("1500000")
	for _, tx := range txs {
		running = running.Add(tx.Signed())
	}

	bal, err := m.GetBalance(ctx, empStaffMaleMarried, "b-med-staff-married")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(running), "balance %s != replayed %s", bal.CurrentBalance, running)
	assert.True(t, bal.CurrentBalance.Equal(dec("950000")))
}

// =============================================================================
// CACHE INVALIDATION
// =============================================================================

func TestLedger_Apply_InvalidatesSummaryAndAlertCaches(t *testing.T) {
	// GIVEN: Warm summary and alert cache entries for the year
	// WHEN: A transaction is applied
	// THEN: Both are dropped so the next read rebuilds

	ledger, _, c := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, benefit.SummaryCacheKey(empStaffMaleMarried, testYear), []byte("x"), time.Minute))
	require.NoError(t, c.Put(ctx, benefit.AlertCacheKey(testYear, 20), []byte("x"), time.Minute))
	require.NoError(t, c.Put(ctx, benefit.AlertCacheKey(testYear, 10), []byte("x"), time.Minute))

	_, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "100"))
	require.NoError(t, err)

	_, ok, _ := c.Get(ctx, benefit.SummaryCacheKey(empStaffMaleMarried, testYear))
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, benefit.AlertCacheKey(testYear, 20))
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, benefit.AlertCacheKey(testYear, 10))
	assert.False(t, ok)
}
