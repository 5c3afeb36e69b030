package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/benefit-ledger/benefit"
	"github.com/meridian/benefit-ledger/benefit/store"
)

func seedBalance(t *testing.T, m *store.Memory) benefit.EmployeeBenefitBalance {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, m.SaveEmployee(ctx, benefit.Employee{ID: "emp-1", Name: "Test", Level: benefit.LevelStaff}))
	require.NoError(t, m.SaveBudget(ctx, benefit.BenefitBudget{
		ID: "bud-1", BenefitTypeID: "bt-1", Level: benefit.LevelStaff, Year: 2025,
		Allocation: benefit.MustDecimal("1000"),
	}))

	bal := benefit.EmployeeBenefitBalance{
		ID: "bal-1", EmployeeID: "emp-1", BudgetID: "bud-1",
		CurrentBalance: benefit.MustDecimal("1000"),
	}
	require.NoError(t, m.CreateBalance(ctx, bal))
	return bal
}

func TestMemory_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A balance and a transaction appended inside WithTx
	// WHEN: The closure returns an error after both writes
	// THEN: Neither write survives

	m := store.NewMemory()
	bal := seedBalance(t, m)
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(s benefit.Store) error {
		if err := s.UpdateBalanceAmount(ctx, bal.ID, benefit.MustDecimal("1"), time.Now()); err != nil {
			return err
		}
		if err := s.AppendTransaction(ctx, benefit.BalanceTransaction{
			ID: "TXN-20250101-001", BalanceID: bal.ID, EmployeeID: "emp-1",
			BenefitTypeID: "bt-1", Year: 2025, Type: benefit.TxDebit,
			Amount: benefit.MustDecimal("999"), CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := m.GetBalance(ctx, "emp-1", "bud-1")
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(benefit.MustDecimal("1000")))

	exists, err := m.TransactionIDExists(ctx, "TXN-20250101-001")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemory_WithTx_CommitsOnSuccess(t *testing.T) {
	m := store.NewMemory()
	bal := seedBalance(t, m)
	ctx := context.Background()

	err := m.WithTx(ctx, func(s benefit.Store) error {
		return s.UpdateBalanceAmount(ctx, bal.ID, benefit.MustDecimal("250"), time.Now())
	})
	require.NoError(t, err)

	got, err := m.GetBalance(ctx, "emp-1", "bud-1")
	require.NoError(t, err)
	assert.True(t, got.CurrentBalance.Equal(benefit.MustDecimal("250")))
}

func TestMemory_AppendTransaction_RejectsDuplicateID(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	tx := benefit.BalanceTransaction{
		ID: "TXN-20250101-001", EmployeeID: "emp-1", BenefitTypeID: "bt-1",
		Year: 2025, Type: benefit.TxDebit, Amount: benefit.MustDecimal("1"),
		CreatedAt: time.Now(),
	}
	require.NoError(t, m.AppendTransaction(ctx, tx))

	err := m.AppendTransaction(ctx, tx)
	assert.ErrorIs(t, err, benefit.ErrDuplicateTransactionID)
}

func TestMemory_CountTransactionsOnDay(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	day := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)
	for i, id := range []benefit.TransactionID{"TXN-20250310-001", "TXN-20250310-002"} {
		require.NoError(t, m.AppendTransaction(ctx, benefit.BalanceTransaction{
			ID: id, EmployeeID: "emp-1", BenefitTypeID: "bt-1", Year: 2025,
			Type: benefit.TxDebit, Amount: benefit.MustDecimal("1"),
			CreatedAt: day.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, m.AppendTransaction(ctx, benefit.BalanceTransaction{
		ID: "TXN-20250311-001", EmployeeID: "emp-1", BenefitTypeID: "bt-1", Year: 2025,
		Type: benefit.TxDebit, Amount: benefit.MustDecimal("1"),
		CreatedAt: day.Add(24 * time.Hour),
	}))

	count, err := m.CountTransactionsOnDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemory_ApprovedClaimsTotal_FiltersStatusAndScope(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	claims := []benefit.Claim{
		{ID: "c1", EmployeeID: "emp-1", BenefitTypeID: "bt-1", Year: 2025, Amount: benefit.MustDecimal("100"), Status: benefit.ClaimApproved},
		{ID: "c2", EmployeeID: "emp-1", BenefitTypeID: "bt-1", Year: 2025, Amount: benefit.MustDecimal("50"), Status: benefit.ClaimApproved},
		{ID: "c3", EmployeeID: "emp-1", BenefitTypeID: "bt-1", Year: 2025, Amount: benefit.MustDecimal("999"), Status: benefit.ClaimPending},
		{ID: "c4", EmployeeID: "emp-1", BenefitTypeID: "bt-1", Year: 2024, Amount: benefit.MustDecimal("999"), Status: benefit.ClaimApproved},
		{ID: "c5", EmployeeID: "emp-2", BenefitTypeID: "bt-1", Year: 2025, Amount: benefit.MustDecimal("999"), Status: benefit.ClaimApproved},
	}
	for _, c := range claims {
		require.NoError(t, m.SaveClaim(ctx, c))
	}

	total, err := m.ApprovedClaimsTotal(ctx, "emp-1", "bt-1", 2025)
	require.NoError(t, err)
	assert.True(t, total.Equal(benefit.MustDecimal("150")))
}
