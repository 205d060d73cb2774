package order

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrEmptyCart is returned when submission is attempted with no line items.
// It is raised before any network call.
var ErrEmptyCart = errors.New("cart is empty")

// ValidationError indicates a missing or malformed customer field. It is
// user-correctable and scoped to a single field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// MinimumOrderNotMetError indicates the subtotal is below the
// classification-specific floor. Shortfall is exactly Threshold - Subtotal
// so the UI can prompt the user to add that much more.
type MinimumOrderNotMetError struct {
	Threshold decimal.Decimal
	Subtotal  decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *MinimumOrderNotMetError) Error() string {
	return fmt.Sprintf("minimum order value %s not met: add %s more", e.Threshold, e.Shortfall)
}

// PersistenceError indicates the order or its items failed to write. The
// cart is left intact so the user can retry. When the order row committed
// but the items insert failed, Partial is true: the store is in a
// partial-failure state that is surfaced rather than rolled back here.
type PersistenceError struct {
	Partial bool
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Partial {
		return fmt.Sprintf("order saved but items failed: %v", e.Err)
	}
	return fmt.Sprintf("saving order: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// WalletDeductionError is non-fatal: the order has already been committed
// when the deduction fails. It is surfaced as a warning and the balance is
// left to reconcile from the source of truth on the next read.
type WalletDeductionError struct {
	OrderNumber string
	Err         error
}

func (e *WalletDeductionError) Error() string {
	return fmt.Sprintf("wallet deduction failed for order %s: %v", e.OrderNumber, e.Err)
}

func (e *WalletDeductionError) Unwrap() error { return e.Err }

// InvalidTransitionError indicates an illegal status change request.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")
