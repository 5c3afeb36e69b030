package benefit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/benefit-ledger/benefit"
	"github.com/meridian/benefit-ledger/benefit/store"
	"github.com/meridian/benefit-ledger/cache"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newAlertFixture initializes balances and spends them down so two
// employees sit in interesting places:
//
//	staff-m-married medical: 225,000 of 1,500,000 left (15% remaining)
//	supervisor medical:      untouched (100% remaining)
func newAlertFixture(t *testing.T) (*benefit.AlertEngine, *store.Memory, *cache.Memory) {
	t.Helper()
	m := newSeededStore(t)
	ctx := context.Background()

	init := benefit.NewInitializer(m)
	_, err := init.Initialize(ctx, testYear, nil)
	require.NoError(t, err)

	ledger := benefit.NewLedger(m, benefit.DefaultOverdraftPolicy(), nil)
	_, err = ledger.Apply(ctx, debitInput(empStaffMaleMarried, "1275000"))
	require.NoError(t, err)

	c := cache.NewMemory()
	engine := benefit.NewAlertEngine(m, benefit.DefaultOverdraftPolicy(), c)
	engine.Now = func() time.Time { return fixedNow }
	return engine, m, c
}

func findAlert(report benefit.AlertReport, emp benefit.EmployeeID, bt benefit.BenefitTypeID) (benefit.Alert, bool) {
	for _, a := range report.Alerts {
		if a.EmployeeID == emp && a.BenefitTypeID == bt {
			return a, true
		}
	}
	return benefit.Alert{}, false
}

// =============================================================================
// THRESHOLD AND SEVERITY TESTS
// =============================================================================

func TestAlerts_FifteenPercentRemaining_IncludedAsWarning(t *testing.T) {
	// GIVEN: A medical balance at 15% remaining
	// WHEN: Scanning with a 20% threshold
	// THEN: The balance is included, severity "warning" (high starts at 10)

	engine, _, _ := newAlertFixture(t)

	report, err := engine.LowBalanceAlerts(context.Background(), 20, testYear)
	require.NoError(t, err)

	a, ok := findAlert(report, empStaffMaleMarried, typeMedical)
	require.True(t, ok)
	assert.Equal(t, benefit.SeverityWarning, a.Severity)
	assert.True(t, a.RemainingPercent.Equal(dec("15")))
	assert.True(t, a.CurrentBalance.Equal(dec("225000")))
	assert.True(t, a.UsedAmount.Equal(dec("1275000")))
}

func TestAlerts_TenPercentRemaining_HighSeverity(t *testing.T) {
	// GIVEN: A medical balance at exactly 10% remaining
	// WHEN: Scanning with a 20% threshold
	// THEN: Severity is "high" (boundary inclusive)

	engine, m, _ := newAlertFixture(t)
	ctx := context.Background()

	ledger := benefit.NewLedger(m, benefit.DefaultOverdraftPolicy(), nil)
	_, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "75000"))
	require.NoError(t, err) // 225,000 - 75,000 = 150,000 of 1,500,000 = 10%

	report, err := engine.LowBalanceAlerts(ctx, 20, testYear)
	require.NoError(t, err)

	a, ok := findAlert(report, empStaffMaleMarried, typeMedical)
	require.True(t, ok)
	assert.Equal(t, benefit.SeverityHigh, a.Severity)
}

func TestAlerts_HealthyBalances_Excluded(t *testing.T) {
	// GIVEN: The supervisor's untouched balance
	// WHEN: Scanning with a 20% threshold
	// THEN: It does not appear

	engine, _, _ := newAlertFixture(t)

	report, err := engine.LowBalanceAlerts(context.Background(), 20, testYear)
	require.NoError(t, err)

	_, ok := findAlert(report, empSupervisor, typeMedical)
	assert.False(t, ok)
}

func TestAlerts_Overdrawn_IncludedRegardlessOfThreshold(t *testing.T) {
	// GIVEN: An overdrawn balance (within the overdraft limit)
	// WHEN: Scanning with an absurdly low threshold
	// THEN: It is still reported, severity critical_overdrawn

	engine, m, _ := newAlertFixture(t)
	ctx := context.Background()

	ledger := benefit.NewLedger(m, benefit.DefaultOverdraftPolicy(), nil)
	_, err := ledger.Apply(ctx, debitInput(empStaffMaleMarried, "325000"))
	require.NoError(t, err) // 225,000 - 325,000 = -100,000, limit -750,000

	report, err := engine.LowBalanceAlerts(ctx, 1, testYear)
	require.NoError(t, err)

	a, ok := findAlert(report, empStaffMaleMarried, typeMedical)
	require.True(t, ok)
	assert.Equal(t, benefit.SeverityOverdrawn, a.Severity)
	assert.True(t, a.CurrentBalance.Equal(dec("-100000")))
	assert.True(t, a.Overdraft.Headroom.Equal(dec("650000")))
	assert.True(t, a.Overdraft.AmountOver.IsZero())
}

func TestAlerts_BeyondOverdraftLimit_MostSevere(t *testing.T) {
	// GIVEN: A balance pushed below the overdraft limit via override
	// WHEN: Scanning
	// THEN: Severity is critical_overdraft_exceeded and the alert sorts
	//       first

	engine, m, _ := newAlertFixture(t)
	ctx := context.Background()

	ledger := benefit.NewLedger(m, benefit.DefaultOverdraftPolicy(), nil)
	in := debitInput(empStaffMaleMarried, "1100000")
	in.OverrideOverdraft = true
	_, err := ledger.Apply(ctx, in)
	require.NoError(t, err) // 225,000 - 1,100,000 = -875,000, limit -750,000

	// A second, merely-low balance so ordering is observable.
	_, err = ledger.Apply(ctx, benefit.ApplyInput{
		EmployeeID: empStaffFemaleMarried, BenefitTypeID: typeGlasses, Year: testYear,
		Type: benefit.TxDebit, Amount: dec("450000"), ReferenceType: benefit.RefClaim,
	})
	require.NoError(t, err) // glasses 500,000 -> 50,000 = 10% remaining

	report, err := engine.LowBalanceAlerts(ctx, 20, testYear)
	require.NoError(t, err)
	require.GreaterOrEqual(t, report.TotalAlerts, 2)

	first := report.Alerts[0]
	assert.Equal(t, benefit.SeverityOverdraftExceeded, first.Severity)
	assert.Equal(t, empStaffMaleMarried, first.EmployeeID)
	assert.True(t, first.Overdraft.AmountOver.Equal(dec("125000")))
}

func TestAlerts_CriticalBuckets(t *testing.T) {
	// GIVEN: A balance at exactly 5% remaining
	// WHEN: Scanning
	// THEN: Severity is critical (boundary inclusive)

	m := newSeededStore(t)
	ctx := context.Background()

	init := benefit.NewInitializer(m)
	_, err := init.Initialize(ctx, testYear, []benefit.EmployeeID{empStaffMaleMarried})
	require.NoError(t, err)

	ledger := benefit.NewLedger(m, benefit.DefaultOverdraftPolicy(), nil)
	_, err = ledger.Apply(ctx, debitInput(empStaffMaleMarried, "1425000"))
	require.NoError(t, err) // 75,000 of 1,500,000 = 5%

	engine := benefit.NewAlertEngine(m, benefit.DefaultOverdraftPolicy(), nil)
	report, err := engine.LowBalanceAlerts(ctx, 20, testYear)
	require.NoError(t, err)

	a, ok := findAlert(report, empStaffMaleMarried, typeMedical)
	require.True(t, ok)
	assert.Equal(t, benefit.SeverityCritical, a.Severity)
}

// =============================================================================
// CACHING TESTS
// =============================================================================

func TestAlerts_SecondScanServedFromCache(t *testing.T) {
	// GIVEN: A completed scan
	// WHEN: Repeating it with the same threshold and year
	// THEN: The cached report is returned

	engine, _, _ := newAlertFixture(t)
	ctx := context.Background()

	first, err := engine.LowBalanceAlerts(ctx, 20, testYear)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := engine.LowBalanceAlerts(ctx, 20, testYear)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.TotalAlerts, second.TotalAlerts)
}

func TestAlerts_DifferentThreshold_SeparateCacheEntry(t *testing.T) {
	engine, _, _ := newAlertFixture(t)
	ctx := context.Background()

	_, err := engine.LowBalanceAlerts(ctx, 20, testYear)
	require.NoError(t, err)

	other, err := engine.LowBalanceAlerts(ctx, 10, testYear)
	require.NoError(t, err)
	assert.False(t, other.FromCache)
}

func TestAlerts_CacheExpiresAfterTTL(t *testing.T) {
	// GIVEN: A cached report with the default five-minute TTL
	// WHEN: Six minutes pass
	// THEN: The next scan recomputes

	engine, _, c := newAlertFixture(t)
	ctx := context.Background()

	now := fixedNow
	c.Now = func() time.Time { return now }

	_, err := engine.LowBalanceAlerts(ctx, 20, testYear)
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)

	report, err := engine.LowBalanceAlerts(ctx, 20, testYear)
	require.NoError(t, err)
	assert.False(t, report.FromCache)
}
