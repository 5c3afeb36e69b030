package benefit_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian/benefit-ledger/benefit"
	"github.com/meridian/benefit-ledger/benefit/store"
	"github.com/meridian/benefit-ledger/cache"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const (
	statusSingle  = "ms-single"
	statusMarried = "ms-married"

	typeMedical = benefit.BenefitTypeID("bt-medical")
	typeGlasses = benefit.BenefitTypeID("bt-glasses")

	empStaffMaleMarried     = benefit.EmployeeID("emp-staff-m-married")
	empStaffFemaleMarried   = benefit.EmployeeID("emp-staff-f-married")
	empStaffMaleNoStatus    = benefit.EmployeeID("emp-staff-m-nostatus")
	empSupervisor           = benefit.EmployeeID("emp-super")
	empManagerMarried       = benefit.EmployeeID("emp-mgr-married")
)

// testYear is the budget year every fixture uses.
const testYear = 2025

// fixedNow keeps transaction ids deterministic across a test.
var fixedNow = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

func strptr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return benefit.MustDecimal(s) }

// newSeededStore builds a memory store with the standard cast:
//
//	Employees:
//	  emp-staff-m-married    staff, male, married
//	  emp-staff-f-married    staff, female, married
//	  emp-staff-m-nostatus   staff, male, no marriage status
//	  emp-super              supervisor, married
//	  emp-mgr-married        manager, married
//
//	Medical budgets (year 2025):
//	  staff/single 1,000,000 | staff/married 1,500,000
//	  supervisor/* 2,000,000 | manager/married 1,800,000 | manager/* 1,600,000
//
//	Glasses budgets (year 2025):
//	  staff/single 500,000 | staff/married 500,000
func newSeededStore(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	require.NoError(t, m.SaveMarriageStatus(ctx, benefit.MarriageStatus{ID: statusSingle, Name: "Single", Single: true}))
	require.NoError(t, m.SaveMarriageStatus(ctx, benefit.MarriageStatus{ID: statusMarried, Name: "Married"}))

	require.NoError(t, m.SaveBenefitType(ctx, benefit.BenefitType{ID: typeMedical, Name: "Medical"}))
	require.NoError(t, m.SaveBenefitType(ctx, benefit.BenefitType{ID: typeGlasses, Name: "Glasses"}))

	employees := []benefit.Employee{
		{ID: empStaffMaleMarried, Name: "Arif Wicaksono", Level: benefit.LevelStaff, Gender: benefit.GenderMale, MarriageStatusID: strptr(statusMarried)},
		{ID: empStaffFemaleMarried, Name: "Dewi Lestari", Level: benefit.LevelStaff, Gender: benefit.GenderFemale, MarriageStatusID: strptr(statusMarried)},
		{ID: empStaffMaleNoStatus, Name: "Bima Santoso", Level: benefit.LevelStaff, Gender: benefit.GenderMale},
		{ID: empSupervisor, Name: "Ratna Sari", Level: benefit.LevelSupervisor, Gender: benefit.GenderFemale, MarriageStatusID: strptr(statusMarried)},
		{ID: empManagerMarried, Name: "Hendra Gunawan", Level: benefit.LevelManager, Gender: benefit.GenderMale, MarriageStatusID: strptr(statusMarried)},
	}
	for _, e := range employees {
		require.NoError(t, m.SaveEmployee(ctx, e))
	}

	budgets := []benefit.BenefitBudget{
		{ID: "b-med-staff-single", BenefitTypeID: typeMedical, Level: benefit.LevelStaff, MarriageStatusID: strptr(statusSingle), Year: testYear, Allocation: dec("1000000")},
		{ID: "b-med-staff-married", BenefitTypeID: typeMedical, Level: benefit.LevelStaff, MarriageStatusID: strptr(statusMarried), Year: testYear, Allocation: dec("1500000")},
		{ID: "b-med-super", BenefitTypeID: typeMedical, Level: benefit.LevelSupervisor, Year: testYear, Allocation: dec("2000000")},
		{ID: "b-med-mgr-married", BenefitTypeID: typeMedical, Level: benefit.LevelManager, MarriageStatusID: strptr(statusMarried), Year: testYear, Allocation: dec("1800000")},
		{ID: "b-med-mgr-wild", BenefitTypeID: typeMedical, Level: benefit.LevelManager, Year: testYear, Allocation: dec("1600000")},
		{ID: "b-glass-staff-single", BenefitTypeID: typeGlasses, Level: benefit.LevelStaff, MarriageStatusID: strptr(statusSingle), Year: testYear, Allocation: dec("500000")},
		{ID: "b-glass-staff-married", BenefitTypeID: typeGlasses, Level: benefit.LevelStaff, MarriageStatusID: strptr(statusMarried), Year: testYear, Allocation: dec("500000")},
	}
	for _, b := range budgets {
		require.NoError(t, m.SaveBudget(ctx, b))
	}

	return m
}

func newTestLedger(t *testing.T) (*benefit.Ledger, *store.Memory, *cache.Memory) {
	t.Helper()
	m := newSeededStore(t)
	c := cache.NewMemory()
	ledger := benefit.NewLedger(m, benefit.DefaultOverdraftPolicy(), c)
	ledger.Now = func() time.Time { return fixedNow }
	return ledger, m, c
}

// newWarmCache returns a memory cache pre-populated with summary and
// alert entries for the standard cast, for invalidation assertions.
func newWarmCache(t *testing.T, ctx context.Context) *cache.Memory {
	t.Helper()
	c := cache.NewMemory()
	require.NoError(t, c.Put(ctx, benefit.SummaryCacheKey(empStaffMaleMarried, testYear), []byte("x"), time.Minute))
	require.NoError(t, c.Put(ctx, benefit.AlertCacheKey(testYear, 20), []byte("x"), time.Minute))
	return c
}

func debitInput(employee benefit.EmployeeID, amount string) benefit.ApplyInput {
	return benefit.ApplyInput{
		EmployeeID:    employee,
		BenefitTypeID: typeMedical,
		Year:          testYear,
		Type:          benefit.TxDebit,
		Amount:        dec(amount),
		ReferenceType: benefit.RefClaim,
		Description:   "test claim",
	}
}
