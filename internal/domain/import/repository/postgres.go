package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultMatchWindowDays is how far apart, in days, an imported record and
// an existing transaction may be dated and still match on amount.
const DefaultMatchWindowDays = 7

// Querier is the subset of pgx shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is satisfied by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresLedger implements LedgerStore, AccountService and RuleService.
type PostgresLedger struct {
	db          DB
	logger      *slog.Logger
	matchWindow int
}

// NewPostgresLedger creates a ledger over db. A non-positive matchWindow
// uses DefaultMatchWindowDays.
func NewPostgresLedger(db DB, logger *slog.Logger, matchWindow int) *PostgresLedger {
	if matchWindow <= 0 {
		matchWindow = DefaultMatchWindowDays
	}
	return &PostgresLedger{db: db, logger: logger, matchWindow: matchWindow}
}

const transactionColumns = `
	t.id, t.account_id, t.date, t.amount, COALESCE(p.name, ''), COALESCE(t.imported_payee, ''),
	t.notes, t.category_id, COALESCE(t.financial_id, ''), t.cleared, t.reconciled`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(
		&t.ID, &t.AccountID, &t.Date, &t.Amount, &t.PayeeName, &t.ImportedPayee,
		&t.Notes, &t.CategoryID, &t.FinancialID, &t.Cleared, &t.Reconciled,
	)
	return t, err
}

func (r *PostgresLedger) queryTransactions(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// FindMatchingTransactions looks for an existing transaction per candidate:
// first by financial id, then by amount within the date window, preferring
// rows whose payee resembles the candidate's. Ties go to the lowest id.
func (r *PostgresLedger) FindMatchingTransactions(ctx context.Context, accountID *uuid.UUID, candidates []MatchCandidate) ([]MatchResult, error) {
	byFinancialID := `
		SELECT` + transactionColumns + `
		FROM transactions t
		LEFT JOIN payees p ON p.id = t.payee_id
		WHERE t.account_id = $1 AND t.financial_id = $2 AND NOT t.tombstone
		ORDER BY t.id
	`
	byAmount := `
		SELECT` + transactionColumns + `
		FROM transactions t
		LEFT JOIN payees p ON p.id = t.payee_id
		WHERE t.account_id = $1 AND t.amount = $2 AND t.date BETWEEN $3 AND $4 AND NOT t.tombstone
		ORDER BY t.id
	`

	claimed := make(map[uuid.UUID]bool)
	var results []MatchResult

	for _, c := range candidates {
		account := accountID
		if c.AccountID != nil {
			account = c.AccountID
		}
		if account == nil {
			continue
		}

		var match *Transaction
		if c.FinancialID != "" {
			existing, err := r.queryTransactions(ctx, byFinancialID, *account, c.FinancialID)
			if err != nil {
				return nil, fmt.Errorf("failed to match by financial id: %w", err)
			}
			match = pickMatch(existing, claimed, c)
		}
		if match == nil {
			window := time.Duration(r.matchWindow) * 24 * time.Hour
			existing, err := r.queryTransactions(ctx, byAmount, *account, c.Amount, c.Date.Add(-window), c.Date.Add(window))
			if err != nil {
				return nil, fmt.Errorf("failed to match by amount: %w", err)
			}
			match = pickMatch(existing, claimed, c)
		}
		if match == nil {
			continue
		}

		claimed[match.ID] = true
		results = append(results, MatchResult{
			TransientID: c.TransientID,
			Existing:    *match,
			Ignored:     match.Reconciled || unchanged(c, *match),
		})
	}
	return results, nil
}

// pickMatch returns the first unclaimed row whose payee resembles the
// candidate's, or else the first unclaimed row. rows are ordered by id.
func pickMatch(rows []Transaction, claimed map[uuid.UUID]bool, c MatchCandidate) *Transaction {
	var fallback *Transaction
	for i := range rows {
		if claimed[rows[i].ID] {
			continue
		}
		if samePayee(c, rows[i]) {
			return &rows[i]
		}
		if fallback == nil {
			fallback = &rows[i]
		}
	}
	return fallback
}

func samePayee(c MatchCandidate, t Transaction) bool {
	for _, incoming := range []string{c.ImportedPayee, c.PayeeName} {
		if incoming == "" {
			continue
		}
		for _, existing := range []string{t.ImportedPayee, t.PayeeName} {
			if existing == "" {
				continue
			}
			if fuzzy.MatchNormalizedFold(incoming, existing) || fuzzy.MatchNormalizedFold(existing, incoming) {
				return true
			}
		}
	}
	return false
}

// unchanged reports whether merging c into t would change nothing.
func unchanged(c MatchCandidate, t Transaction) bool {
	if !c.Date.Equal(t.Date) || c.Amount != t.Amount {
		return false
	}
	if c.FinancialID != "" && c.FinancialID != t.FinancialID {
		return false
	}
	if c.ImportedPayee != "" && c.ImportedPayee != t.ImportedPayee {
		return false
	}
	if c.Notes != "" && (t.Notes == nil || *t.Notes != c.Notes) {
		return false
	}
	if c.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *c.CategoryID) {
		return false
	}
	return true
}

// BatchUpdateTransactions applies the batch in one database transaction.
func (r *PostgresLedger) BatchUpdateTransactions(ctx context.Context, batch BatchUpdate) (BatchResult, error) {
	var result BatchResult

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		for _, add := range batch.Added {
			id, added, err := r.insertTransaction(ctx, tx, add)
			if err != nil {
				return err
			}
			if !added {
				result.Skipped++
				continue
			}
			result.Added = append(result.Added, id)
		}

		for _, upd := range batch.Updated {
			if err := r.updateTransaction(ctx, tx, upd); err != nil {
				return err
			}
			result.Updated = append(result.Updated, upd.ID)
		}

		if len(batch.Deleted) > 0 {
			query := `UPDATE transactions SET tombstone = true WHERE id = ANY($1) AND NOT tombstone`
			tag, err := tx.Exec(ctx, query, batch.Deleted)
			if err != nil {
				return fmt.Errorf("failed to delete transactions: %w", err)
			}
			result.Deleted = int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}

	result.Changed = len(result.Added) > 0 || len(result.Updated) > 0 || result.Deleted > 0
	return result, nil
}

func (r *PostgresLedger) insertTransaction(ctx context.Context, tx pgx.Tx, t NewTransaction) (uuid.UUID, bool, error) {
	if !t.ForceAdd && t.FinancialID != "" && t.AccountID != nil {
		var exists bool
		query := `
			SELECT EXISTS (
				SELECT 1 FROM transactions
				WHERE account_id = $1 AND financial_id = $2 AND NOT tombstone
			)
		`
		if err := tx.QueryRow(ctx, query, *t.AccountID, t.FinancialID).Scan(&exists); err != nil {
			return uuid.Nil, false, fmt.Errorf("failed to check financial id: %w", err)
		}
		if exists {
			r.logger.Debug("skipping duplicate transaction", "financial_id", t.FinancialID)
			return uuid.Nil, false, nil
		}
	}

	payeeID, err := upsertPayee(ctx, tx, t.PayeeName)
	if err != nil {
		return uuid.Nil, false, err
	}

	query := `
		INSERT INTO transactions (
			account_id, date, amount, payee_id, imported_payee, notes, category_id, financial_id, cleared
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''), $9)
		RETURNING id
	`
	var id uuid.UUID
	err = tx.QueryRow(ctx, query,
		t.AccountID, t.Date, t.Amount, payeeID, t.ImportedPayee, t.Notes, t.CategoryID, t.FinancialID, t.Cleared,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return id, true, nil
}

func (r *PostgresLedger) updateTransaction(ctx context.Context, tx pgx.Tx, t TransactionUpdate) error {
	query := `
		UPDATE transactions SET
			date = $2,
			amount = $3,
			imported_payee = COALESCE(NULLIF($4, ''), imported_payee),
			notes = COALESCE(notes, $5),
			category_id = COALESCE(category_id, $6),
			financial_id = COALESCE(NULLIF($7, ''), financial_id),
			cleared = cleared OR $8
		WHERE id = $1 AND NOT tombstone
	`
	tag, err := tx.Exec(ctx, query, t.ID, t.Date, t.Amount, t.ImportedPayee, t.Notes, t.CategoryID, t.FinancialID, t.Cleared)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not found", t.ID)
	}
	return nil
}

// upsertPayee returns the id of the payee named name, creating it when
// needed. An empty name yields nil.
func upsertPayee(ctx context.Context, q Querier, name string) (*uuid.UUID, error) {
	if name == "" {
		return nil, nil
	}

	var id uuid.UUID
	query := `SELECT id FROM payees WHERE lower(name) = lower($1) AND NOT tombstone ORDER BY id LIMIT 1`
	err := q.QueryRow(ctx, query, name).Scan(&id)
	if err == nil {
		return &id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to find payee: %w", err)
	}

	if err := q.QueryRow(ctx, `INSERT INTO payees (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to create payee: %w", err)
	}
	return &id, nil
}

func (r *PostgresLedger) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Warn("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAccounts lists non-deleted accounts.
func (r *PostgresLedger) GetAccounts(ctx context.Context, filter AccountFilter) ([]Account, error) {
	query := `
		SELECT id, name, COALESCE(external_id, ''), offbudget, closed
		FROM accounts
		WHERE NOT tombstone
		  AND ($1 OR NOT closed)
		  AND ($2 = '' OR external_id = $2)
		ORDER BY name, id
	`
	rows, err := r.db.Query(ctx, query, filter.IncludeClosed, filter.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.ExternalID, &a.OffBudget, &a.Closed); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *PostgresLedger) GetPayeeByName(ctx context.Context, name string) (*Payee, error) {
	query := `
		SELECT id, name, transfer_acct
		FROM payees
		WHERE lower(name) = lower($1) AND NOT tombstone
		ORDER BY id
		LIMIT 1
	`
	var p Payee
	err := r.db.QueryRow(ctx, query, name).Scan(&p.ID, &p.Name, &p.TransferAccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payee: %w", err)
	}
	return &p, nil
}

func (r *PostgresLedger) GetLastTransactionAccount(ctx context.Context, payeeID uuid.UUID) (*uuid.UUID, error) {
	query := `
		SELECT account_id
		FROM transactions
		WHERE payee_id = $1 AND account_id IS NOT NULL AND NOT tombstone
		ORDER BY date DESC, id DESC
		LIMIT 1
	`
	var accountID *uuid.UUID
	err := r.db.QueryRow(ctx, query, payeeID).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last transaction: %w", err)
	}
	return accountID, nil
}

func (r *PostgresLedger) GetCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM categories WHERE NOT tombstone ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PostgresLedger) SetAccountExternalID(ctx context.Context, accountID uuid.UUID, externalID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET external_id = $2, updated_at = now() WHERE id = $1 AND NOT tombstone`, accountID, externalID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", accountID)
	}
	return nil
}

// CreateAccount inserts an account. A non-zero initial balance is recorded
// as a cleared "Starting Balance" transaction.
func (r *PostgresLedger) CreateAccount(ctx context.Context, account NewAccount) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		query := `INSERT INTO accounts (name, offbudget) VALUES ($1, $2) RETURNING id`
		if err := tx.QueryRow(ctx, query, account.Name, account.OffBudget).Scan(&id); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		if account.InitialBalance == 0 {
			return nil
		}
		_, _, err := r.insertTransaction(ctx, tx, NewTransaction{
			AccountID: &id,
			Date:      time.Now().UTC().Truncate(24 * time.Hour),
			Amount:    account.InitialBalance,
			PayeeName: "Starting Balance",
			Cleared:   true,
			ForceAdd:  true,
		})
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *PostgresLedger) CreateRule(ctx context.Context, rule Rule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode rule conditions: %w", err)
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return fmt.Errorf("failed to encode rule actions: %w", err)
	}

	query := `
		INSERT INTO rules (name, stage, conditions_op, conditions, actions)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query, rule.Name, rule.Stage, rule.ConditionsOp, conditions, actions); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}
