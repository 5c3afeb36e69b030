/*
Package sqlite provides a SQLite-backed implementation of benefit.TxStore.

PURPOSE:
  Durable storage for budgets, balances and the append-only transaction
  ledger. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for the transactions table.
  Corrections are new transactions.

KEY TABLES:
  benefit_types:     Benefit categories (medical, glasses, ...)
  marriage_statuses: Directory lookup; `single` marks the forced status
  employees:         Directory records (level, status, gender)
  budgets:           Eligibility rule + allocation per year
  balances:          One row per (employee, budget), UNIQUE enforced
  transactions:      Immutable ledger, balance_id foreign key
  claims:            Read model for reconciliation

MONEY:
  Amounts are stored as TEXT and parsed with shopspring/decimal. No
  floating point touches a monetary value.

CONCURRENCY:
  WithTx serializes mutating work behind a mutex and a database
  transaction; SQLite transactions are serializable, which gives the
  read-modify-write on a balance row the row-locking semantics the
  ledger requires. All ledger mutations go through WithTx. SQLITE_BUSY
  surfaces as benefit.ErrConcurrencyConflict so callers know a retry of
  the whole operation is safe.

WAL MODE:
  Opened with WAL so readers do not block behind the single writer.

USAGE:
  st, err := sqlite.New("./data/benefits.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
  ledger := benefit.NewLedger(st, benefit.DefaultOverdraftPolicy(), cache.NewMemory())

SEE ALSO:
  - benefit/store.go: Interface definitions
  - benefit/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/meridian/benefit-ledger/benefit"
)

const dayFormat = "2006-01-02"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn implements benefit.Store against a DB or a transaction.
type conn struct {
	q queryer
}

// Store implements benefit.TxStore using SQLite.
type Store struct {
	conn
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database (tests).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The migration and WithTx assume a single connection; SQLite is a
	// single-writer database anyway.
	db.SetMaxOpenConns(1)

	s := &Store{conn: conn{q: db}, db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS benefit_types (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS marriage_statuses (
		id     TEXT PRIMARY KEY,
		name   TEXT NOT NULL,
		single INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS employees (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		level              TEXT NOT NULL,
		marriage_status_id TEXT,
		gender             TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS budgets (
		id                 TEXT PRIMARY KEY,
		benefit_type_id    TEXT NOT NULL,
		level              TEXT NOT NULL,
		marriage_status_id TEXT,
		year               INTEGER NOT NULL,
		allocation         TEXT NOT NULL,
		created_at         TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_budgets_type_year
		ON budgets(benefit_type_id, year);
	CREATE INDEX IF NOT EXISTS idx_budgets_year
		ON budgets(year);

	CREATE TABLE IF NOT EXISTS balances (
		id              TEXT PRIMARY KEY,
		employee_id     TEXT NOT NULL,
		budget_id       TEXT NOT NULL REFERENCES budgets(id),
		current_balance TEXT NOT NULL,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		UNIQUE(employee_id, budget_id)
	);

	CREATE INDEX IF NOT EXISTS idx_balances_employee
		ON balances(employee_id);

	-- Append-only ledger. balance_id is the authoritative link; the
	-- employee/type/year columns are denormalized for history queries.
	CREATE TABLE IF NOT EXISTS transactions (
		id              TEXT PRIMARY KEY,
		balance_id      TEXT NOT NULL REFERENCES balances(id),
		employee_id     TEXT NOT NULL,
		benefit_type_id TEXT NOT NULL,
		year            INTEGER NOT NULL,
		tx_type         TEXT NOT NULL,
		amount          TEXT NOT NULL,
		balance_before  TEXT NOT NULL,
		balance_after   TEXT NOT NULL,
		reference_type  TEXT NOT NULL,
		reference_id    TEXT,
		description     TEXT,
		processed_by    TEXT,
		created_at      TEXT NOT NULL,
		created_day     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_employee_type_year
		ON transactions(employee_id, benefit_type_id, year);
	CREATE INDEX IF NOT EXISTS idx_transactions_day
		ON transactions(created_day);
	CREATE INDEX IF NOT EXISTS idx_transactions_employee_created
		ON transactions(employee_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_balance
		ON transactions(balance_id);

	CREATE TABLE IF NOT EXISTS claims (
		id              TEXT PRIMARY KEY,
		employee_id     TEXT NOT NULL,
		benefit_type_id TEXT NOT NULL,
		year            INTEGER NOT NULL,
		amount          TEXT NOT NULL,
		status          TEXT NOT NULL,
		is_emergency    INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_claims_lookup
		ON claims(employee_id, benefit_type_id, year, status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL EXECUTION
// =============================================================================

// WithTx runs fn inside one serializable transaction. The mutex keeps
// mutating operations ordered even before they hit the database lock.
func (s *Store) WithTx(ctx context.Context, fn func(benefit.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapBusy(err)
	}
	if err := fn(&conn{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapBusy(err)
	}
	return nil
}

// wrapBusy maps SQLITE_BUSY onto the retryable sentinel.
func wrapBusy(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %v", benefit.ErrConcurrencyConflict, err)
	}
	return err
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (c *conn) SaveEmployee(ctx context.Context, e benefit.Employee) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO employees (id, name, level, marriage_status_id, gender)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, level=excluded.level,
			marriage_status_id=excluded.marriage_status_id, gender=excluded.gender`,
		e.ID, e.Name, e.Level, e.MarriageStatusID, e.Gender)
	return err
}

func (c *conn) GetEmployee(ctx context.Context, id benefit.EmployeeID) (benefit.Employee, error) {
	row := c.q.QueryRowContext(ctx, `
		SELECT id, name, level, marriage_status_id, gender
		  FROM employees WHERE id = ?`, id)
	return scanEmployee(row)
}

func (c *conn) ListEmployees(ctx context.Context, ids []benefit.EmployeeID) ([]benefit.Employee, error) {
	query := `SELECT id, name, level, marriage_status_id, gender FROM employees`
	var args []any
	if len(ids) > 0 {
		query += ` WHERE id IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` ORDER BY id`

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []benefit.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (c *conn) SaveMarriageStatus(ctx context.Context, ms benefit.MarriageStatus) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO marriage_statuses (id, name, single) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, single=excluded.single`,
		ms.ID, ms.Name, ms.Single)
	return err
}

func (c *conn) SingleStatusID(ctx context.Context) (string, error) {
	var id string
	err := c.q.QueryRowContext(ctx,
		`SELECT id FROM marriage_statuses WHERE single = 1 LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errors.New("no single marriage status configured")
	}
	return id, err
}

// =============================================================================
// BUDGETS AND BENEFIT TYPES
// =============================================================================

func (c *conn) SaveBenefitType(ctx context.Context, bt benefit.BenefitType) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO benefit_types (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name`,
		bt.ID, bt.Name)
	return err
}

func (c *conn) GetBenefitType(ctx context.Context, id benefit.BenefitTypeID) (benefit.BenefitType, error) {
	var bt benefit.BenefitType
	err := c.q.QueryRowContext(ctx,
		`SELECT id, name FROM benefit_types WHERE id = ?`, id).Scan(&bt.ID, &bt.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return benefit.BenefitType{}, benefit.ErrBenefitTypeNotFound
	}
	return bt, err
}

func (c *conn) SaveBudget(ctx context.Context, b benefit.BenefitBudget) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO budgets (id, benefit_type_id, level, marriage_status_id, year, allocation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			benefit_type_id=excluded.benefit_type_id, level=excluded.level,
			marriage_status_id=excluded.marriage_status_id, year=excluded.year,
			allocation=excluded.allocation`,
		b.ID, b.BenefitTypeID, b.Level, b.MarriageStatusID, b.Year,
		b.Allocation.String(), b.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (c *conn) GetBudget(ctx context.Context, id benefit.BudgetID) (benefit.BenefitBudget, error) {
	row := c.q.QueryRowContext(ctx, `
		SELECT id, benefit_type_id, level, marriage_status_id, year, allocation, created_at
		  FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return benefit.BenefitBudget{}, benefit.ErrBudgetNotFound
	}
	return b, err
}

func (c *conn) BudgetsForYear(ctx context.Context, year int) ([]benefit.BenefitBudget, error) {
	return c.queryBudgets(ctx, `
		SELECT id, benefit_type_id, level, marriage_status_id, year, allocation, created_at
		  FROM budgets WHERE year = ? ORDER BY id`, year)
}

func (c *conn) BudgetsFor(ctx context.Context, typeID benefit.BenefitTypeID, year int) ([]benefit.BenefitBudget, error) {
	return c.queryBudgets(ctx, `
		SELECT id, benefit_type_id, level, marriage_status_id, year, allocation, created_at
		  FROM budgets WHERE benefit_type_id = ? AND year = ? ORDER BY id`, typeID, year)
}

func (c *conn) queryBudgets(ctx context.Context, query string, args ...any) ([]benefit.BenefitBudget, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []benefit.BenefitBudget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// =============================================================================
// BALANCES
// =============================================================================

func (c *conn) GetBalance(ctx context.Context, employeeID benefit.EmployeeID, budgetID benefit.BudgetID) (benefit.EmployeeBenefitBalance, error) {
	row := c.q.QueryRowContext(ctx, `
		SELECT id, employee_id, budget_id, current_balance, created_at, updated_at
		  FROM balances WHERE employee_id = ? AND budget_id = ?`, employeeID, budgetID)
	b, err := scanBalance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return benefit.EmployeeBenefitBalance{}, benefit.ErrBalanceNotFound
	}
	return b, err
}

func (c *conn) CreateBalance(ctx context.Context, b benefit.EmployeeBenefitBalance) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO balances (id, employee_id, budget_id, current_balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.EmployeeID, b.BudgetID, b.CurrentBalance.String(),
		b.CreatedAt.UTC().Format(time.RFC3339), b.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

func (c *conn) UpdateBalanceAmount(ctx context.Context, id benefit.BalanceID, amount decimal.Decimal, at time.Time) error {
	res, err := c.q.ExecContext(ctx, `
		UPDATE balances SET current_balance = ?, updated_at = ? WHERE id = ?`,
		amount.String(), at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return benefit.ErrBalanceNotFound
	}
	return nil
}

func (c *conn) BalancesForYear(ctx context.Context, year int) ([]benefit.EmployeeBenefitBalance, error) {
	return c.queryBalances(ctx, `
		SELECT b.id, b.employee_id, b.budget_id, b.current_balance, b.created_at, b.updated_at
		  FROM balances b JOIN budgets g ON g.id = b.budget_id
		 WHERE g.year = ?
		 ORDER BY b.employee_id, b.budget_id`, year)
}

func (c *conn) BalancesForEmployee(ctx context.Context, employeeID benefit.EmployeeID, year int) ([]benefit.EmployeeBenefitBalance, error) {
	return c.queryBalances(ctx, `
		SELECT b.id, b.employee_id, b.budget_id, b.current_balance, b.created_at, b.updated_at
		  FROM balances b JOIN budgets g ON g.id = b.budget_id
		 WHERE g.year = ? AND b.employee_id = ?
		 ORDER BY b.budget_id`, year, employeeID)
}

func (c *conn) queryBalances(ctx context.Context, query string, args ...any) ([]benefit.EmployeeBenefitBalance, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []benefit.EmployeeBenefitBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONS - Append-only: no UPDATE, no DELETE
// =============================================================================

func (c *conn) AppendTransaction(ctx context.Context, tx benefit.BalanceTransaction) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO transactions
		(id, balance_id, employee_id, benefit_type_id, year, tx_type, amount,
		 balance_before, balance_after, reference_type, reference_id,
		 description, processed_by, created_at, created_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.BalanceID, tx.EmployeeID, tx.BenefitTypeID, tx.Year,
		tx.Type, tx.Amount.String(), tx.BalanceBefore.String(), tx.BalanceAfter.String(),
		tx.ReferenceType, tx.ReferenceID, tx.Description, tx.ProcessedBy,
		tx.CreatedAt.UTC().Format(time.RFC3339Nano), tx.CreatedAt.UTC().Format(dayFormat))
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return benefit.ErrDuplicateTransactionID
	}
	return err
}

func (c *conn) TransactionsFor(ctx context.Context, employeeID benefit.EmployeeID, typeID benefit.BenefitTypeID, year int) ([]benefit.BalanceTransaction, error) {
	return c.queryTransactions(ctx, `
		SELECT id, balance_id, employee_id, benefit_type_id, year, tx_type, amount,
		       balance_before, balance_after, reference_type, reference_id,
		       description, processed_by, created_at
		  FROM transactions
		 WHERE employee_id = ? AND benefit_type_id = ? AND year = ?
		 ORDER BY created_at ASC, id ASC`, employeeID, typeID, year)
}

func (c *conn) TransactionsByEmployee(ctx context.Context, employeeID benefit.EmployeeID) ([]benefit.BalanceTransaction, error) {
	return c.queryTransactions(ctx, `
		SELECT id, balance_id, employee_id, benefit_type_id, year, tx_type, amount,
		       balance_before, balance_after, reference_type, reference_id,
		       description, processed_by, created_at
		  FROM transactions
		 WHERE employee_id = ?
		 ORDER BY created_at DESC, id DESC`, employeeID)
}

func (c *conn) CountTransactionsOnDay(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := c.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE created_day = ?`,
		day.UTC().Format(dayFormat)).Scan(&count)
	return count, err
}

func (c *conn) TransactionIDExists(ctx context.Context, id benefit.TransactionID) (bool, error) {
	var exists bool
	err := c.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

func (c *conn) queryTransactions(ctx context.Context, query string, args ...any) ([]benefit.BalanceTransaction, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []benefit.BalanceTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// =============================================================================
// CLAIMS
// =============================================================================

func (c *conn) SaveClaim(ctx context.Context, cl benefit.Claim) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO claims (id, employee_id, benefit_type_id, year, amount, status, is_emergency)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id=excluded.employee_id, benefit_type_id=excluded.benefit_type_id,
			year=excluded.year, amount=excluded.amount, status=excluded.status,
			is_emergency=excluded.is_emergency`,
		cl.ID, cl.EmployeeID, cl.BenefitTypeID, cl.Year, cl.Amount.String(), cl.Status, cl.IsEmergency)
	return err
}

func (c *conn) ApprovedClaimsTotal(ctx context.Context, employeeID benefit.EmployeeID, typeID benefit.BenefitTypeID, year int) (decimal.Decimal, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT amount FROM claims
		 WHERE employee_id = ? AND benefit_type_id = ? AND year = ? AND status = ?`,
		employeeID, typeID, year, benefit.ClaimApproved)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, err
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("malformed claim amount %q: %w", raw, err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(r rowScanner) (benefit.Employee, error) {
	var e benefit.Employee
	var status sql.NullString
	err := r.Scan(&e.ID, &e.Name, &e.Level, &status, &e.Gender)
	if errors.Is(err, sql.ErrNoRows) {
		return benefit.Employee{}, benefit.ErrEmployeeNotFound
	}
	if err != nil {
		return benefit.Employee{}, err
	}
	if status.Valid {
		e.MarriageStatusID = &status.String
	}
	return e, nil
}

func scanBudget(r rowScanner) (benefit.BenefitBudget, error) {
	var b benefit.BenefitBudget
	var status sql.NullString
	var allocation, createdAt string
	if err := r.Scan(&b.ID, &b.BenefitTypeID, &b.Level, &status, &b.Year, &allocation, &createdAt); err != nil {
		return benefit.BenefitBudget{}, err
	}
	if status.Valid {
		b.MarriageStatusID = &status.String
	}
	var err error
	if b.Allocation, err = decimal.NewFromString(allocation); err != nil {
		return benefit.BenefitBudget{}, fmt.Errorf("malformed allocation %q: %w", allocation, err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return b, nil
}

func scanBalance(r rowScanner) (benefit.EmployeeBenefitBalance, error) {
	var b benefit.EmployeeBenefitBalance
	var balance, createdAt, updatedAt string
	if err := r.Scan(&b.ID, &b.EmployeeID, &b.BudgetID, &balance, &createdAt, &updatedAt); err != nil {
		return benefit.EmployeeBenefitBalance{}, err
	}
	var err error
	if b.CurrentBalance, err = decimal.NewFromString(balance); err != nil {
		return benefit.EmployeeBenefitBalance{}, fmt.Errorf("malformed balance %q: %w", balance, err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return b, nil
}

func scanTransaction(r rowScanner) (benefit.BalanceTransaction, error) {
	var tx benefit.BalanceTransaction
	var amount, before, after, createdAt string
	var refID, processedBy, description sql.NullString
	if err := r.Scan(&tx.ID, &tx.BalanceID, &tx.EmployeeID, &tx.BenefitTypeID, &tx.Year,
		&tx.Type, &amount, &before, &after, &tx.ReferenceType, &refID,
		&description, &processedBy, &createdAt); err != nil {
		return benefit.BalanceTransaction{}, err
	}
	var err error
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return benefit.BalanceTransaction{}, fmt.Errorf("malformed amount %q: %w", amount, err)
	}
	if tx.BalanceBefore, err = decimal.NewFromString(before); err != nil {
		return benefit.BalanceTransaction{}, fmt.Errorf("malformed balance_before %q: %w", before, err)
	}
	if tx.BalanceAfter, err = decimal.NewFromString(after); err != nil {
		return benefit.BalanceTransaction{}, fmt.Errorf("malformed balance_after %q: %w", after, err)
	}
	if refID.Valid {
		tx.ReferenceID = &refID.String
	}
	if processedBy.Valid {
		tx.ProcessedBy = &processedBy.String
	}
	tx.Description = description.String
	tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return tx, nil
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	out := "?"
	for i := 1; i < n; i++ {
		out += ",?"
	}
	return out
}
