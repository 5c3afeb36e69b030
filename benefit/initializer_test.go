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
// INITIALIZATION TESTS
// =============================================================================

func TestInitializer_CreatesBalancesForEligiblePairs(t *testing.T) {
	// GIVEN: The standard cast and medical+glasses budgets for 2025
	// WHEN: Initializing the whole directory
	// THEN: One balance per eligible (employee, benefit type) pair, seeded
	//       at the resolved budget's allocation
	//
	// Eligible pairs:
	//   staff-m-married:  medical (married) + glasses (married)  = 2
	//   staff-f-married:  medical (single)  + glasses (single)   = 2
	//   staff-m-nostatus: none (male staff needs an exact status) = 0
	//   supervisor:       medical wildcard only                   = 1
	//   manager:          medical (manager/married) only          = 1

	m := newSeededStore(t)
	ctx := context.Background()

	init := benefit.NewInitializer(m)
	init.Now = func() time.Time { return fixedNow }

	result, err := init.Initialize(ctx, testYear, nil)
	require.NoError(t, err)

	assert.Equal(t, 6, result.InitializedCount)
	assert.Equal(t, testYear, result.Year)

	bal, err := m.GetBalance(ctx, empStaffFemaleMarried, "b-med-staff-single")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("1000000")))

	bal, err = m.GetBalance(ctx, empSupervisor, "b-med-super")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("2000000")))

	balances, err := m.BalancesForEmployee(ctx, empStaffMaleNoStatus, testYear)
	require.NoError(t, err)
	assert.Empty(t, balances, "no entitlement means no balance row")
}

func TestInitializer_Idempotent_NeverOverwritesSpentBalances(t *testing.T) {
	// GIVEN: An initialized year with a partially spent balance
	// WHEN: Initializing again
	// THEN: Count is zero and the spent balance is untouched

	m := newSeededStore(t)
	ctx := context.Background()

	init := benefit.NewInitializer(m)
	first, err := init.Initialize(ctx, testYear, nil)
	require.NoError(t, err)
	require.Equal(t, 6, first.InitializedCount)

	ledger := benefit.NewLedger(m, benefit.DefaultOverdraftPolicy(), nil)
	_, err = ledger.Apply(ctx, debitInput(empStaffMaleMarried, "600000"))
	require.NoError(t, err)

	second, err := init.Initialize(ctx, testYear, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.InitializedCount)

	bal, err := m.GetBalance(ctx, empStaffMaleMarried, "b-med-staff-married")
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(dec("900000")))
}

func TestInitializer_CohortRestriction(t *testing.T) {
	// GIVEN: A one-employee cohort
	// WHEN: Initializing
	// THEN: Only that employee's balances are created

	m := newSeededStore(t)
	ctx := context.Background()

	init := benefit.NewInitializer(m)
	result, err := init.Initialize(ctx, testYear, []benefit.EmployeeID{empSupervisor})
	require.NoError(t, err)

	assert.Equal(t, 1, result.InitializedCount)

	balances, err := m.BalancesForEmployee(ctx, empStaffMaleMarried, testYear)
	require.NoError(t, err)
	assert.Empty(t, balances)
}

func TestInitializer_NoBudgetsForYear(t *testing.T) {
	m := newSeededStore(t)

	init := benefit.NewInitializer(m)
	_, err := init.Initialize(context.Background(), 2031, nil)

	assert.ErrorIs(t, err, benefit.ErrNoBudgetsForYear)
}

func TestInitializer_NoEmployeesInCohort(t *testing.T) {
	m := newSeededStore(t)

	init := benefit.NewInitializer(m)
	_, err := init.Initialize(context.Background(), testYear, []benefit.EmployeeID{"emp-ghost"})

	assert.ErrorIs(t, err, benefit.ErrNoEmployees)
}
