// Package wallet bridges order placement and the authoritative per-user
// credit ledger. The balance lives in the database; code in this package
// never adjusts a displayed balance locally — it requests a mutation and
// re-reads the stored balance afterwards.
package wallet

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes ledger entries.
type TransactionType string

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

// Sentinel errors for wallet operations.
var (
	// ErrInsufficientBalance is returned when a debit exceeds the stored
	// balance. The repository enforces this inside the same transaction
	// that writes the ledger row, so concurrent debits cannot overdraw.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	// ErrNonPositiveAmount is returned for zero or negative amounts.
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// Transaction is one ledger entry. Amount is always positive; Type carries
// the direction.
type Transaction struct {
	ID          string
	UserID      string
	OrderID     string
	Amount      decimal.Decimal
	Type        TransactionType
	Description string
	CreatedAt   time.Time
}

// Repository is the authoritative ledger. Apply must atomically write the
// transaction row and adjust the profile balance, rejecting overdrafts.
type Repository interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	Apply(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]Transaction, error)
	TotalLiability(ctx context.Context) (decimal.Decimal, error)
}

// Ledger wraps the repository with the client-side guards the storefront
// needs: positive amounts only, debits capped at the known balance.
type Ledger struct {
	repo Repository
}

// NewLedger creates a Ledger over the given repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Balance re-reads the stored balance. This is the only way callers learn
// the balance; there is no cached copy to drift.
func (l *Ledger) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return l.repo.Balance(ctx, userID)
}

// ApplyDiscount debits amount from the user's wallet, recording the order
// it paid for. It is invoked at most once per order and never retried
// automatically; the caller reports a failure and leaves reconciliation to
// the next Balance read.
func (l *Ledger) ApplyDiscount(ctx context.Context, userID, orderID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return l.repo.Apply(ctx, &Transaction{
		UserID:      userID,
		OrderID:     orderID,
		Amount:      amount,
		Type:        Debit,
		Description: "Wallet discount for order " + orderID,
	})
}

// AdminAdjust credits or debits a user's wallet from the back office.
// Debits beyond the stored balance are rejected by the repository.
func (l *Ledger) AdminAdjust(ctx context.Context, userID string, amount decimal.Decimal, typ TransactionType, description string) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if description == "" {
		description = "Admin " + string(typ)
	}
	return l.repo.Apply(ctx, &Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        typ,
		Description: description,
	})
}

// Transactions lists a user's ledger history, newest first.
func (l *Ledger) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	return l.repo.ListTransactions(ctx, userID)
}
