package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gkpcrackers/storefront/internal/domain/wallet"
)

const (
	getBalanceSQL = `SELECT wallet_balance FROM profiles WHERE id = $1`

	// The balance update predicates on sufficient funds for debits, so a
	// concurrent overdraw affects zero rows instead of violating the
	// non-negative check.
	creditBalanceSQL = `UPDATE profiles SET wallet_balance = wallet_balance + $2 WHERE id = $1`
	debitBalanceSQL  = `UPDATE profiles SET wallet_balance = wallet_balance - $2
		WHERE id = $1 AND wallet_balance >= $2`

	insertTransactionSQL = `INSERT INTO wallet_transactions
		(user_id, order_id, amount, transaction_type, description)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5)
		RETURNING id, created_at`

	listTransactionsSQL = `SELECT id, user_id, COALESCE(order_id::text, ''), amount,
		transaction_type, description, created_at
		FROM wallet_transactions WHERE user_id = $1 ORDER BY created_at DESC`

	totalLiabilitySQL = `SELECT COALESCE(SUM(wallet_balance), 0) FROM profiles`
)

var _ wallet.Repository = (*WalletRepository)(nil)

// WalletRepository is the authoritative wallet ledger backed by PostgreSQL.
// Every balance mutation writes a ledger row and adjusts the profile
// balance inside one transaction.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository returns a WalletRepository that uses the given pool.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Balance reads the stored balance for a user.
func (r *WalletRepository) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, getBalanceSQL, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return balance, fmt.Errorf("balance for unknown user %q: %w", userID, err)
		}
		return balance, fmt.Errorf("reading balance for user %q: %w", userID, err)
	}
	return balance, nil
}

// Apply atomically writes the ledger row and adjusts the balance. Debits
// that exceed the stored balance return wallet.ErrInsufficientBalance and
// leave both the ledger and the balance untouched.
func (r *WalletRepository) Apply(ctx context.Context, t *wallet.Transaction) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning wallet transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	balanceSQL := creditBalanceSQL
	if t.Type == wallet.Debit {
		balanceSQL = debitBalanceSQL
	}
	tag, err := tx.Exec(ctx, balanceSQL, t.UserID, t.Amount)
	if err != nil {
		return fmt.Errorf("adjusting balance for user %q: %w", t.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		if t.Type == wallet.Debit {
			return wallet.ErrInsufficientBalance
		}
		return fmt.Errorf("adjusting balance: user %q not found", t.UserID)
	}

	err = tx.QueryRow(ctx, insertTransactionSQL,
		t.UserID, t.OrderID, t.Amount, string(t.Type), t.Description,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording wallet transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing wallet transaction: %w", err)
	}
	return nil
}

// ListTransactions returns a user's ledger history, newest first.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID string) ([]wallet.Transaction, error) {
	rows, err := r.pool.Query(ctx, listTransactionsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (wallet.Transaction, error) {
		var (
			t   wallet.Transaction
			typ string
		)
		err := row.Scan(&t.ID, &t.UserID, &t.OrderID, &t.Amount, &typ, &t.Description, &t.CreatedAt)
		t.Type = wallet.TransactionType(typ)
		return t, err
	})
}

// TotalLiability sums every profile's wallet balance, the figure shown on
// the admin wallet panel.
func (r *WalletRepository) TotalLiability(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, totalLiabilitySQL).Scan(&total); err != nil {
		return total, fmt.Errorf("summing wallet balances: %w", err)
	}
	return total, nil
}
