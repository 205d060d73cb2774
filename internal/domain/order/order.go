package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gkpcrackers/storefront/internal/domain/profile"
)

// Status is the order lifecycle state. Orders move forward through the
// chain pending -> confirmed -> processing -> shipped -> delivered;
// cancelled is an absorbing terminal state reachable from any non-terminal
// status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// next maps each status to its forward successor in the fulfilment chain.
var next = map[Status]Status{
	StatusPending:    StatusConfirmed,
	StatusConfirmed:  StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from s to target: one
// step forward along the chain, or to cancelled from any non-terminal
// state.
func (s Status) CanTransition(target Status) bool {
	if s.Terminal() {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	return next[s] == target
}

// CustomerDetails is the point-in-time contact snapshot captured at
// submission. It is a copy, not a live reference to the profile.
type CustomerDetails struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes,omitempty"`
}

// Order is a placed order. Amounts satisfy
// FinalAmount = Subtotal - WalletDiscount with
// WalletDiscount <= min(wallet balance at placement, Subtotal).
// The storefront never mutates an order after creation; status transitions
// belong to the admin surface.
type Order struct {
	ID             string
	OrderNumber    string
	CustomerID     string
	Customer       CustomerDetails
	TotalItems     int
	Subtotal       decimal.Decimal
	WalletDiscount decimal.Decimal
	FinalAmount    decimal.Decimal
	Classification profile.Classification
	Status         Status
	CreatedAt      time.Time
	Items          []Item
}

// Item is a child row of an order: a snapshot of the product at the moment
// of placement, intentionally decoupled from the live catalog so historical
// orders stay stable when prices change later.
type Item struct {
	ID          string
	OrderID     string
	ProductName string
	ProductCode string
	Quantity    int
	UnitPrice   decimal.Decimal
	MRP         decimal.Decimal
	LineTotal   decimal.Decimal
}

// ListFilter narrows admin order listings. A zero filter lists everything.
type ListFilter struct {
	Status Status
}

// Repository defines persistence operations for orders. Create must write
// the order and its items in one database transaction and assign
// OrderNumber from the order-number sequence before returning.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	ListItems(ctx context.Context, orderID string) ([]Item, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) error
}
