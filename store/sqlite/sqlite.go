/*
Package sqlite provides the SQLite-backed store for contracts and rates.

PURPOSE:
  Implements persistence for the two record sets the engine reads and
  writes: ContractEntry rows (create, update by id, delete by id, filtered
  listing) and per-operator RateEntry rows. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  contracts:  One row per contract entry, derived fields included.
              Decimals are stored as TEXT to avoid float drift.
  rates:      Operator rate overrides, UNIQUE(operator, sub_category).

REPLACE-ALL RATE SAVES:
  An operator's rate settings are saved wholesale: delete all existing rows
  for the operator, insert the new set. ReplaceRates runs both steps inside
  ONE SQL transaction, so no reader ever observes an operator with zero
  effective rates mid-save.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and there is a single writer at a time.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/commission.db")
  defer store.Close()

SEE ALSO:
  - contract/: the Entry type persisted here
  - commission/rates.go: RateSnapshot built from ListRates output
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/contract"
	"github.com/warp/commission-engine/product"
)

// ErrNotFound is returned when a contract id does not exist.
var ErrNotFound = errors.New("contract not found")

// Store implements contract and rate persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store backed by the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		supervisor TEXT NOT NULL,
		customer TEXT NOT NULL,
		policy_number TEXT,
		category TEXT NOT NULL,
		sub_category TEXT NOT NULL,
		status TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		start_at TEXT,
		policed_at TEXT,
		received_at TEXT,
		payment_frequency TEXT NOT NULL,
		duration_years INTEGER NOT NULL,
		net_premium TEXT NOT NULL,
		gross_premium TEXT NOT NULL,
		reserve_active BOOLEAN NOT NULL DEFAULT FALSE,
		reserve_percent TEXT NOT NULL DEFAULT '0',
		note TEXT,
		net_yearly TEXT NOT NULL,
		gross_yearly TEXT NOT NULL,
		valuation_sum TEXT NOT NULL,
		rate TEXT NOT NULL,
		commission TEXT NOT NULL,
		reserve TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_owner
		ON contracts(owner);
	CREATE INDEX IF NOT EXISTS idx_contracts_category
		ON contracts(category);
	-- Hot path: owner-filtered listings ordered by submission date
	CREATE INDEX IF NOT EXISTS idx_contracts_owner_submitted
		ON contracts(owner, submitted_at DESC);

	CREATE TABLE IF NOT EXISTS rates (
		operator TEXT NOT NULL,
		sub_category TEXT NOT NULL,
		rate TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (operator, sub_category)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

const contractColumns = `id, owner, supervisor, customer, policy_number,
	category, sub_category, status, submitted_at, start_at, policed_at,
	received_at, payment_frequency, duration_years, net_premium,
	gross_premium, reserve_active, reserve_percent, note, net_yearly,
	gross_yearly, valuation_sum, rate, commission, reserve`

// SaveContract inserts or fully replaces a contract row. The entry must
// already carry its derived fields; the store never computes anything.
func (s *Store) SaveContract(ctx context.Context, e contract.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO contracts (` + contractColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			supervisor = excluded.supervisor,
			customer = excluded.customer,
			policy_number = excluded.policy_number,
			category = excluded.category,
			sub_category = excluded.sub_category,
			status = excluded.status,
			submitted_at = excluded.submitted_at,
			start_at = excluded.start_at,
			policed_at = excluded.policed_at,
			received_at = excluded.received_at,
			payment_frequency = excluded.payment_frequency,
			duration_years = excluded.duration_years,
			net_premium = excluded.net_premium,
			gross_premium = excluded.gross_premium,
			reserve_active = excluded.reserve_active,
			reserve_percent = excluded.reserve_percent,
			note = excluded.note,
			net_yearly = excluded.net_yearly,
			gross_yearly = excluded.gross_yearly,
			valuation_sum = excluded.valuation_sum,
			rate = excluded.rate,
			commission = excluded.commission,
			reserve = excluded.reserve,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		e.ID, string(e.Owner), string(e.Supervisor), e.Customer, e.PolicyNumber,
		string(e.Selection.Category), string(e.Selection.Sub), string(e.Status),
		e.SubmittedAt.Format(time.RFC3339),
		nullTime(e.StartAt), nullTime(e.PolicedAt), nullTime(e.ReceivedAt),
		string(e.Frequency), e.DurationYears,
		e.NetPremium.String(), e.GrossPremium.String(),
		e.ReserveActive, e.ReservePercent.String(), e.Note,
		e.Derived.NetYearly.String(), e.Derived.GrossYearly.String(),
		e.Derived.ValuationSum.String(), e.Derived.Rate.String(),
		e.Derived.Commission.String(), e.Derived.Reserve.String(),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

// GetContract retrieves a contract by id. Returns ErrNotFound for a
// missing row.
func (s *Store) GetContract(ctx context.Context, id string) (contract.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id)

	e, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return contract.Entry{}, ErrNotFound
	}
	return e, err
}

// DeleteContract removes a contract by id.
func (s *Store) DeleteContract(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM contracts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Filter narrows a contract listing. Zero-valued fields do not filter.
type Filter struct {
	Owner    commission.OperatorID
	Category product.Category
	From     *time.Time // submission date range, inclusive
	To       *time.Time
}

// ListContracts returns contracts matching the filter, ordered by
// submission date ascending then insertion order (stable for aggregation).
func (s *Store) ListContracts(ctx context.Context, f Filter) ([]contract.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + contractColumns + ` FROM contracts WHERE 1=1`
	var args []any

	if f.Owner != "" {
		query += " AND owner = ?"
		args = append(args, string(f.Owner))
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, string(f.Category))
	}
	if f.From != nil {
		query += " AND submitted_at >= ?"
		args = append(args, f.From.Format(time.RFC3339))
	}
	if f.To != nil {
		query += " AND submitted_at <= ?"
		args = append(args, f.To.Format(time.RFC3339))
	}
	query += " ORDER BY submitted_at ASC, created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	var entries []contract.Entry
	for rows.Next() {
		e, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContract(row scanner) (contract.Entry, error) {
	var (
		e                                        contract.Entry
		owner, supervisor, category, subCategory string
		status, frequency, submittedAt           string
		startAt, policedAt, receivedAt           sql.NullString
		policyNumber, note                       sql.NullString
		netPremium, grossPremium, reservePercent string
		netYearly, grossYearly, valuationSum     string
		rate, commissionAmt, reserve             string
	)

	err := row.Scan(
		&e.ID, &owner, &supervisor, &e.Customer, &policyNumber,
		&category, &subCategory, &status, &submittedAt,
		&startAt, &policedAt, &receivedAt,
		&frequency, &e.DurationYears, &netPremium, &grossPremium,
		&e.ReserveActive, &reservePercent, &note,
		&netYearly, &grossYearly, &valuationSum,
		&rate, &commissionAmt, &reserve,
	)
	if err != nil {
		return e, err
	}

	e.Owner = commission.OperatorID(owner)
	e.Supervisor = commission.OperatorID(supervisor)
	e.PolicyNumber = policyNumber.String
	e.Note = note.String
	e.Status = contract.Status(status)
	e.Frequency = product.PaymentFrequency(frequency)

	// The category column is informational; the selection is rebuilt from
	// the sub-category so the owning-category invariant holds even for
	// rows written by older schema versions.
	sel, ok := product.Select(product.SubCategory(subCategory))
	if !ok {
		return e, fmt.Errorf("contract %s: unknown sub-category %q", e.ID, subCategory)
	}
	e.Selection = sel

	e.SubmittedAt, err = time.Parse(time.RFC3339, submittedAt)
	if err != nil {
		return e, fmt.Errorf("contract %s: bad submitted_at: %w", e.ID, err)
	}
	e.StartAt = parseTimePtr(startAt)
	e.PolicedAt = parseTimePtr(policedAt)
	e.ReceivedAt = parseTimePtr(receivedAt)

	e.NetPremium = mustDecimal(netPremium)
	e.GrossPremium = mustDecimal(grossPremium)
	e.ReservePercent = mustDecimal(reservePercent)
	e.Derived = contract.Derived{
		NetYearly:    mustDecimal(netYearly),
		GrossYearly:  mustDecimal(grossYearly),
		ValuationSum: mustDecimal(valuationSum),
		Rate:         mustDecimal(rate),
		Commission:   mustDecimal(commissionAmt),
		Reserve:      mustDecimal(reserve),
	}

	return e, nil
}

// =============================================================================
// RATE STORE
// =============================================================================

// ListRates returns the operator's stored rate overrides.
func (s *Store) ListRates(ctx context.Context, op commission.OperatorID) ([]commission.RateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT operator, sub_category, rate FROM rates WHERE operator = ? ORDER BY sub_category",
		string(op))
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	defer rows.Close()

	var entries []commission.RateEntry
	for rows.Next() {
		var operator, sub, rate string
		if err := rows.Scan(&operator, &sub, &rate); err != nil {
			return nil, err
		}
		entries = append(entries, commission.RateEntry{
			Operator: commission.OperatorID(operator),
			Sub:      product.SubCategory(sub),
			Rate:     mustDecimal(rate),
		})
	}
	return entries, rows.Err()
}

// ReplaceRates replaces the operator's whole rate set in one SQL
// transaction: delete-then-insert with no window where the operator has
// zero effective rates.
func (s *Store) ReplaceRates(ctx context.Context, op commission.OperatorID, entries []commission.RateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM rates WHERE operator = ?", string(op)); err != nil {
		return fmt.Errorf("failed to clear rates: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO rates (operator, sub_category, rate, updated_at) VALUES (?, ?, ?, ?)",
			string(op), string(e.Sub), e.Rate.String(), now)
		if err != nil {
			return fmt.Errorf("failed to insert rate for %s: %w", e.Sub, err)
		}
	}

	return tx.Commit()
}

// SnapshotRates builds the resolver input for one operator.
func (s *Store) SnapshotRates(ctx context.Context, op commission.OperatorID) (commission.RateSnapshot, error) {
	entries, err := s.ListRates(ctx, op)
	if err != nil {
		return commission.RateSnapshot{}, err
	}
	return commission.NewRateSnapshot(entries), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
