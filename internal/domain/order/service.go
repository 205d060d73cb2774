package order

import (
	"context"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gkpcrackers/storefront/internal/domain/cart"
	"github.com/gkpcrackers/storefront/internal/domain/profile"
	"github.com/gkpcrackers/storefront/internal/domain/settings"
	"github.com/gkpcrackers/storefront/internal/domain/wallet"
)

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	SessionID string
	Customer  CustomerDetails
	UseWallet bool
}

// PlaceOrderResult holds the outcome of a successfully placed order.
// Warning is non-nil when the order committed but the wallet deduction
// failed; the order stands and the balance reconciles on the next read.
type PlaceOrderResult struct {
	Order         *Order
	Warning       error
	WalletBalance decimal.Decimal
}

// EstimateResult is the WhatsApp handoff payload: the itemized message and
// the deep link that opens it in a chat with the store.
type EstimateResult struct {
	Message        string
	WhatsAppURL    string
	TotalItems     int
	Subtotal       decimal.Decimal
	Savings        decimal.Decimal
	WalletDiscount decimal.Decimal
	FinalAmount    decimal.Decimal
}

// Service composes orders: it validates customer details, totals the cart,
// enforces the minimum-order floor, applies the wallet discount, and either
// persists the order or serializes it for manual WhatsApp fulfilment.
type Service struct {
	carts    cart.Store
	orders   Repository
	ledger   *wallet.Ledger
	settings settings.Repository
}

// NewService creates an order Service with the required dependencies.
func NewService(carts cart.Store, orders Repository, ledger *wallet.Ledger, cfg settings.Repository) *Service {
	return &Service{
		carts:    carts,
		orders:   orders,
		ledger:   ledger,
		settings: cfg,
	}
}

// validated holds the outcome of the shared validation/totaling pipeline.
type validated struct {
	cart     *cart.Cart
	cfg      *settings.Settings
	subtotal decimal.Decimal
	discount decimal.Decimal
	final    decimal.Decimal
	balance  decimal.Decimal
}

// prepare runs the steps shared by order placement and the WhatsApp
// estimate: field validation, cart load, minimum-order gate, and wallet
// discount computation. All validation happens before any write.
func (s *Service) prepare(ctx context.Context, sessionID string, details CustomerDetails, useWallet bool, prof *profile.Profile) (*validated, error) {
	if strings.TrimSpace(details.Name) == "" {
		return nil, &ValidationError{Field: "name"}
	}
	if strings.TrimSpace(details.Phone) == "" {
		return nil, &ValidationError{Field: "phone"}
	}
	if strings.TrimSpace(details.Address) == "" {
		return nil, &ValidationError{Field: "address"}
	}

	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	subtotal := c.TotalAmount()
	dealer := prof != nil && prof.PricingClass() == profile.Dealer
	threshold := cfg.MinOrderFor(dealer)
	if subtotal.LessThan(threshold) {
		return nil, &MinimumOrderNotMetError{
			Threshold: threshold,
			Subtotal:  subtotal,
			Shortfall: threshold.Sub(subtotal),
		}
	}

	// Wallet discount = min(balance, subtotal) when opted in, else zero.
	discount := decimal.Zero
	balance := decimal.Zero
	if useWallet && cfg.EnableWallet && prof != nil {
		balance, err = s.ledger.Balance(ctx, prof.ID)
		if err != nil {
			return nil, err
		}
		discount = decimal.Min(balance, subtotal)
	}

	return &validated{
		cart:     c,
		cfg:      cfg,
		subtotal: subtotal,
		discount: discount,
		final:    subtotal.Sub(discount),
		balance:  balance,
	}, nil
}

// PlaceOrder validates, totals, persists, and settles an order. The order
// row and its items are written first; only then is the wallet deduction
// issued, referencing the new order. A deduction failure does not fail the
// order: it is logged, returned as a warning, and left to reconcile against
// the authoritative balance.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest, prof *profile.Profile) (*PlaceOrderResult, error) {
	v, err := s.prepare(ctx, req.SessionID, req.Customer, req.UseWallet, prof)
	if err != nil {
		return nil, err
	}

	class := profile.Retail
	customerID := ""
	if prof != nil {
		class = prof.PricingClass()
		customerID = prof.ID
	}

	o := &Order{
		CustomerID: customerID,
		Customer: CustomerDetails{
			Name:    strings.TrimSpace(req.Customer.Name),
			Phone:   strings.TrimSpace(req.Customer.Phone),
			Address: strings.TrimSpace(req.Customer.Address),
			Notes:   strings.TrimSpace(req.Customer.Notes),
		},
		TotalItems:     v.cart.TotalItems(),
		Subtotal:       v.subtotal,
		WalletDiscount: v.discount,
		FinalAmount:    v.final,
		Classification: class,
		Status:         StatusPending,
		Items:          snapshotItems(v.cart),
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	result := &PlaceOrderResult{Order: o, WalletBalance: v.balance}

	if v.discount.IsPositive() && prof != nil {
		if err := s.ledger.ApplyDiscount(ctx, prof.ID, o.ID, v.discount); err != nil {
			// Order is already committed; surface a warning, never a failure.
			zctx.From(ctx).Warn("wallet deduction failed",
				zap.String("order_number", o.OrderNumber),
				zap.Error(err),
			)
			result.Warning = &WalletDeductionError{OrderNumber: o.OrderNumber, Err: err}
		}
		// Re-read the authoritative balance rather than trusting local math.
		if balance, err := s.ledger.Balance(ctx, prof.ID); err == nil {
			result.WalletBalance = balance
		} else {
			zctx.From(ctx).Warn("wallet balance refresh failed", zap.Error(err))
		}
	}

	if err := s.carts.Clear(ctx, req.SessionID); err != nil {
		zctx.From(ctx).Warn("clearing cart after order", zap.Error(err))
	}

	return result, nil
}

// ComposeEstimate runs the same validation and totaling as PlaceOrder but
// skips persistence: it serializes the cart, customer details, and computed
// totals into a human-readable message and a wa.me deep link. The business
// takes no online payment, so orders are confirmed manually over chat.
func (s *Service) ComposeEstimate(ctx context.Context, req PlaceOrderRequest, prof *profile.Profile) (*EstimateResult, error) {
	v, err := s.prepare(ctx, req.SessionID, req.Customer, req.UseWallet, prof)
	if err != nil {
		return nil, err
	}

	msg := FormatEstimateMessage(v.cart, req.Customer, v.discount)

	return &EstimateResult{
		Message:        msg,
		WhatsAppURL:    WhatsAppLink(v.cfg.StoreWhatsApp, msg),
		TotalItems:     v.cart.TotalItems(),
		Subtotal:       v.subtotal,
		Savings:        v.cart.TotalSavings(),
		WalletDiscount: v.discount,
		FinalAmount:    v.final,
	}, nil
}

// UpdateStatus applies an admin status transition after checking it against
// the lifecycle rules.
func (s *Service) UpdateStatus(ctx context.Context, id string, target Status) error {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !target.Valid() || !o.Status.CanTransition(target) {
		return &InvalidTransitionError{From: o.Status, To: target}
	}
	return s.orders.UpdateStatus(ctx, id, o.Status, target)
}

// snapshotItems copies cart lines into order item snapshots.
func snapshotItems(c *cart.Cart) []Item {
	items := make([]Item, len(c.Items))
	for i, li := range c.Items {
		items[i] = Item{
			ProductName: li.Name,
			ProductCode: li.ProductCode,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			MRP:         li.MRP,
			LineTotal:   li.LineTotal(),
		}
	}
	return items
}
