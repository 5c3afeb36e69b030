// Package store provides benefit.Store implementations.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian/benefit-ledger/benefit"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	employees    map[benefit.EmployeeID]benefit.Employee
	statuses     map[string]benefit.MarriageStatus
	benefitTypes map[benefit.BenefitTypeID]benefit.BenefitType
	budgets      map[benefit.BudgetID]benefit.BenefitBudget
	balances     map[balanceKey]benefit.EmployeeBenefitBalance
	balanceIDs   map[benefit.BalanceID]balanceKey
	transactions []benefit.BalanceTransaction
	txIDs        map[benefit.TransactionID]bool
	claims       map[string]benefit.Claim
}

type balanceKey struct {
	EmployeeID benefit.EmployeeID
	BudgetID   benefit.BudgetID
}

func NewMemory() *Memory {
	return &Memory{
		employees:    make(map[benefit.EmployeeID]benefit.Employee),
		statuses:     make(map[string]benefit.MarriageStatus),
		benefitTypes: make(map[benefit.BenefitTypeID]benefit.BenefitType),
		budgets:      make(map[benefit.BudgetID]benefit.BenefitBudget),
		balances:     make(map[balanceKey]benefit.EmployeeBenefitBalance),
		balanceIDs:   make(map[benefit.BalanceID]balanceKey),
		txIDs:        make(map[benefit.TransactionID]bool),
		claims:       make(map[string]benefit.Claim),
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, e benefit.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id benefit.EmployeeID) (benefit.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEmployeeLocked(id)
}

func (m *Memory) getEmployeeLocked(id benefit.EmployeeID) (benefit.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return benefit.Employee{}, benefit.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *Memory) ListEmployees(_ context.Context, ids []benefit.EmployeeID) ([]benefit.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEmployeesLocked(ids)
}

func (m *Memory) listEmployeesLocked(ids []benefit.EmployeeID) ([]benefit.Employee, error) {
	var out []benefit.Employee
	if len(ids) == 0 {
		for _, e := range m.employees {
			out = append(out, e)
		}
	} else {
		for _, id := range ids {
			if e, ok := m.employees[id]; ok {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveMarriageStatus(_ context.Context, ms benefit.MarriageStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[ms.ID] = ms
	return nil
}

func (m *Memory) SingleStatusID(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.singleStatusIDLocked()
}

func (m *Memory) singleStatusIDLocked() (string, error) {
	for _, ms := range m.statuses {
		if ms.Single {
			return ms.ID, nil
		}
	}
	return "", errors.New("no single marriage status configured")
}

// =============================================================================
// BUDGETS AND BENEFIT TYPES
// =============================================================================

func (m *Memory) SaveBenefitType(_ context.Context, bt benefit.BenefitType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.benefitTypes[bt.ID] = bt
	return nil
}

func (m *Memory) GetBenefitType(_ context.Context, id benefit.BenefitTypeID) (benefit.BenefitType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBenefitTypeLocked(id)
}

func (m *Memory) getBenefitTypeLocked(id benefit.BenefitTypeID) (benefit.BenefitType, error) {
	bt, ok := m.benefitTypes[id]
	if !ok {
		return benefit.BenefitType{}, benefit.ErrBenefitTypeNotFound
	}
	return bt, nil
}

func (m *Memory) SaveBudget(_ context.Context, b benefit.BenefitBudget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[b.ID] = b
	return nil
}

func (m *Memory) GetBudget(_ context.Context, id benefit.BudgetID) (benefit.BenefitBudget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBudgetLocked(id)
}

func (m *Memory) getBudgetLocked(id benefit.BudgetID) (benefit.BenefitBudget, error) {
	b, ok := m.budgets[id]
	if !ok {
		return benefit.BenefitBudget{}, benefit.ErrBudgetNotFound
	}
	return b, nil
}

func (m *Memory) BudgetsForYear(_ context.Context, year int) ([]benefit.BenefitBudget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.budgetsLocked(func(b benefit.BenefitBudget) bool { return b.Year == year }), nil
}

func (m *Memory) BudgetsFor(_ context.Context, typeID benefit.BenefitTypeID, year int) ([]benefit.BenefitBudget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.budgetsLocked(func(b benefit.BenefitBudget) bool {
		return b.BenefitTypeID == typeID && b.Year == year
	}), nil
}

func (m *Memory) budgetsLocked(keep func(benefit.BenefitBudget) bool) []benefit.BenefitBudget {
	var out []benefit.BenefitBudget
	for _, b := range m.budgets {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// =============================================================================
// BALANCES
// =============================================================================

func (m *Memory) GetBalance(_ context.Context, employeeID benefit.EmployeeID, budgetID benefit.BudgetID) (benefit.EmployeeBenefitBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getBalanceLocked(employeeID, budgetID)
}

func (m *Memory) getBalanceLocked(employeeID benefit.EmployeeID, budgetID benefit.BudgetID) (benefit.EmployeeBenefitBalance, error) {
	b, ok := m.balances[balanceKey{employeeID, budgetID}]
	if !ok {
		return benefit.EmployeeBenefitBalance{}, benefit.ErrBalanceNotFound
	}
	return b, nil
}

func (m *Memory) CreateBalance(_ context.Context, b benefit.EmployeeBenefitBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createBalanceLocked(b)
}

func (m *Memory) createBalanceLocked(b benefit.EmployeeBenefitBalance) error {
	k := balanceKey{b.EmployeeID, b.BudgetID}
	if _, exists := m.balances[k]; exists {
		return errors.New("balance already exists")
	}
	m.balances[k] = b
	m.balanceIDs[b.ID] = k
	return nil
}

func (m *Memory) UpdateBalanceAmount(_ context.Context, id benefit.BalanceID, amount decimal.Decimal, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateBalanceAmountLocked(id, amount, at)
}

func (m *Memory) updateBalanceAmountLocked(id benefit.BalanceID, amount decimal.Decimal, at time.Time) error {
	k, ok := m.balanceIDs[id]
	if !ok {
		return benefit.ErrBalanceNotFound
	}
	b := m.balances[k]
	b.CurrentBalance = amount
	b.UpdatedAt = at
	m.balances[k] = b
	return nil
}

func (m *Memory) BalancesForYear(_ context.Context, year int) ([]benefit.EmployeeBenefitBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balancesLocked(func(b benefit.EmployeeBenefitBalance) bool {
		budget, ok := m.budgets[b.BudgetID]
		return ok && budget.Year == year
	}), nil
}

func (m *Memory) BalancesForEmployee(_ context.Context, employeeID benefit.EmployeeID, year int) ([]benefit.EmployeeBenefitBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balancesLocked(func(b benefit.EmployeeBenefitBalance) bool {
		budget, ok := m.budgets[b.BudgetID]
		return ok && budget.Year == year && b.EmployeeID == employeeID
	}), nil
}

func (m *Memory) balancesLocked(keep func(benefit.EmployeeBenefitBalance) bool) []benefit.EmployeeBenefitBalance {
	var out []benefit.EmployeeBenefitBalance
	for _, b := range m.balances {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		return out[i].BudgetID < out[j].BudgetID
	})
	return out
}

// =============================================================================
// TRANSACTIONS - Append-only
// =============================================================================

func (m *Memory) AppendTransaction(_ context.Context, tx benefit.BalanceTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendTransactionLocked(tx)
}

func (m *Memory) appendTransactionLocked(tx benefit.BalanceTransaction) error {
	if m.txIDs[tx.ID] {
		return benefit.ErrDuplicateTransactionID
	}
	// Display fields are apply-time only; the stored record drops them the
	// way a database schema would.
	tx.BenefitTypeName = ""
	tx.ProcessedByName = ""
	m.transactions = append(m.transactions, tx)
	m.txIDs[tx.ID] = true
	return nil
}

func (m *Memory) TransactionsFor(_ context.Context, employeeID benefit.EmployeeID, typeID benefit.BenefitTypeID, year int) ([]benefit.BalanceTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []benefit.BalanceTransaction
	for _, tx := range m.transactions {
		if tx.EmployeeID == employeeID && tx.BenefitTypeID == typeID && tx.Year == year {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *Memory) TransactionsByEmployee(_ context.Context, employeeID benefit.EmployeeID) ([]benefit.BalanceTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []benefit.BalanceTransaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].EmployeeID == employeeID {
			out = append(out, m.transactions[i])
		}
	}
	return out, nil
}

func (m *Memory) CountTransactionsOnDay(_ context.Context, day time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countTransactionsOnDayLocked(day), nil
}

func (m *Memory) countTransactionsOnDayLocked(day time.Time) int {
	y, mo, d := day.UTC().Date()
	count := 0
	for _, tx := range m.transactions {
		ty, tmo, td := tx.CreatedAt.UTC().Date()
		if ty == y && tmo == mo && td == d {
			count++
		}
	}
	return count
}

func (m *Memory) TransactionIDExists(_ context.Context, id benefit.TransactionID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.txIDs[id], nil
}

// =============================================================================
// CLAIMS
// =============================================================================

func (m *Memory) SaveClaim(_ context.Context, c benefit.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[c.ID] = c
	return nil
}

func (m *Memory) ApprovedClaimsTotal(_ context.Context, employeeID benefit.EmployeeID, typeID benefit.BenefitTypeID, year int) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.approvedClaimsTotalLocked(employeeID, typeID, year), nil
}

func (m *Memory) approvedClaimsTotalLocked(employeeID benefit.EmployeeID, typeID benefit.BenefitTypeID, year int) decimal.Decimal {
	total := decimal.Zero
	for _, c := range m.claims {
		if c.Status == benefit.ClaimApproved && c.EmployeeID == employeeID &&
			c.BenefitTypeID == typeID && c.Year == year {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// =============================================================================
// TRANSACTIONAL VIEW
// =============================================================================

// WithTx executes fn holding the store lock. For the memory store,
// atomicity is simulated with a snapshot + rollback on error - exactly
// the all-or-nothing contract the SQLite store gets from BEGIN/COMMIT.
func (m *Memory) WithTx(_ context.Context, fn func(benefit.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&memView{m: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	balances     map[balanceKey]benefit.EmployeeBenefitBalance
	balanceIDs   map[benefit.BalanceID]balanceKey
	transactions []benefit.BalanceTransaction
	txIDs        map[benefit.TransactionID]bool
	budgets      map[benefit.BudgetID]benefit.BenefitBudget
	claims       map[string]benefit.Claim
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		balances:     make(map[balanceKey]benefit.EmployeeBenefitBalance, len(m.balances)),
		balanceIDs:   make(map[benefit.BalanceID]balanceKey, len(m.balanceIDs)),
		transactions: append([]benefit.BalanceTransaction{}, m.transactions...),
		txIDs:        make(map[benefit.TransactionID]bool, len(m.txIDs)),
		budgets:      make(map[benefit.BudgetID]benefit.BenefitBudget, len(m.budgets)),
		claims:       make(map[string]benefit.Claim, len(m.claims)),
	}
	for k, v := range m.balances {
		s.balances[k] = v
	}
	for k, v := range m.balanceIDs {
		s.balanceIDs[k] = v
	}
	for k, v := range m.txIDs {
		s.txIDs[k] = v
	}
	for k, v := range m.budgets {
		s.budgets[k] = v
	}
	for k, v := range m.claims {
		s.claims[k] = v
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.balances = s.balances
	m.balanceIDs = s.balanceIDs
	m.transactions = s.transactions
	m.txIDs = s.txIDs
	m.budgets = s.budgets
	m.claims = s.claims
}

// memView is the transaction-scoped store handed to WithTx closures. The
// parent already holds the write lock, so it calls the locked variants
// directly.
type memView struct {
	m *Memory
}

func (v *memView) SaveEmployee(_ context.Context, e benefit.Employee) error {
	v.m.employees[e.ID] = e
	return nil
}

func (v *memView) GetEmployee(_ context.Context, id benefit.EmployeeID) (benefit.Employee, error) {
	return v.m.getEmployeeLocked(id)
}

func (v *memView) ListEmployees(_ context.Context, ids []benefit.EmployeeID) ([]benefit.Employee, error) {
	return v.m.listEmployeesLocked(ids)
}

func (v *memView) SaveMarriageStatus(_ context.Context, ms benefit.MarriageStatus) error {
	v.m.statuses[ms.ID] = ms
	return nil
}

func (v *memView) SingleStatusID(_ context.Context) (string, error) {
	return v.m.singleStatusIDLocked()
}

func (v *memView) SaveBenefitType(_ context.Context, bt benefit.BenefitType) error {
	v.m.benefitTypes[bt.ID] = bt
	return nil
}

func (v *memView) GetBenefitType(_ context.Context, id benefit.BenefitTypeID) (benefit.BenefitType, error) {
	return v.m.getBenefitTypeLocked(id)
}

func (v *memView) SaveBudget(_ context.Context, b benefit.BenefitBudget) error {
	v.m.budgets[b.ID] = b
	return nil
}

func (v *memView) GetBudget(_ context.Context, id benefit.BudgetID) (benefit.BenefitBudget, error) {
	return v.m.getBudgetLocked(id)
}

func (v *memView) BudgetsForYear(_ context.Context, year int) ([]benefit.BenefitBudget, error) {
	return v.m.budgetsLocked(func(b benefit.BenefitBudget) bool { return b.Year == year }), nil
}

func (v *memView) BudgetsFor(_ context.Context, typeID benefit.BenefitTypeID, year int) ([]benefit.BenefitBudget, error) {
	return v.m.budgetsLocked(func(b benefit.BenefitBudget) bool {
		return b.BenefitTypeID == typeID && b.Year == year
	}), nil
}

func (v *memView) GetBalance(_ context.Context, employeeID benefit.EmployeeID, budgetID benefit.BudgetID) (benefit.EmployeeBenefitBalance, error) {
	return v.m.getBalanceLocked(employeeID, budgetID)
}

func (v *memView) CreateBalance(_ context.Context, b benefit.EmployeeBenefitBalance) error {
	return v.m.createBalanceLocked(b)
}

func (v *memView) UpdateBalanceAmount(_ context.Context, id benefit.BalanceID, amount decimal.Decimal, at time.Time) error {
	return v.m.updateBalanceAmountLocked(id, amount, at)
}

func (v *memView) BalancesForYear(_ context.Context, year int) ([]benefit.EmployeeBenefitBalance, error) {
	return v.m.balancesLocked(func(b benefit.EmployeeBenefitBalance) bool {
		budget, ok := v.m.budgets[b.BudgetID]
		return ok && budget.Year == year
	}), nil
}

func (v *memView) BalancesForEmployee(_ context.Context, employeeID benefit.EmployeeID, year int) ([]benefit.EmployeeBenefitBalance, error) {
	return v.m.balancesLocked(func(b benefit.EmployeeBenefitBalance) bool {
		budget, ok := v.m.budgets[b.BudgetID]
		return ok && budget.Year == year && b.EmployeeID == employeeID
	}), nil
}

func (v *memView) AppendTransaction(_ context.Context, tx benefit.BalanceTransaction) error {
	return v.m.appendTransactionLocked(tx)
}

func (v *memView) TransactionsFor(_ context.Context, employeeID benefit.EmployeeID, typeID benefit.BenefitTypeID, year int) ([]benefit.BalanceTransaction, error) {
	var out []benefit.BalanceTransaction
	for _, tx := range v.m.transactions {
		if tx.EmployeeID == employeeID && tx.BenefitTypeID == typeID && tx.Year == year {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (v *memView) TransactionsByEmployee(_ context.Context, employeeID benefit.EmployeeID) ([]benefit.BalanceTransaction, error) {
	var out []benefit.BalanceTransaction
	for i := len(v.m.transactions) - 1; i >= 0; i-- {
		if v.m.transactions[i].EmployeeID == employeeID {
			out = append(out, v.m.transactions[i])
		}
	}
	return out, nil
}

func (v *memView) CountTransactionsOnDay(_ context.Context, day time.Time) (int, error) {
	return v.m.countTransactionsOnDayLocked(day), nil
}

func (v *memView) TransactionIDExists(_ context.Context, id benefit.TransactionID) (bool, error) {
	return v.m.txIDs[id], nil
}

func (v *memView) SaveClaim(_ context.Context, c benefit.Claim) error {
	v.m.claims[c.ID] = c
	return nil
}

func (v *memView) ApprovedClaimsTotal(_ context.Context, employeeID benefit.EmployeeID, typeID benefit.BenefitTypeID, year int) (decimal.Decimal, error) {
	return v.m.approvedClaimsTotalLocked(employeeID, typeID, year), nil
}
