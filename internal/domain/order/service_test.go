package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkpcrackers/storefront/internal/domain/cart"
	"github.com/gkpcrackers/storefront/internal/domain/profile"
	"github.com/gkpcrackers/storefront/internal/domain/settings"
	"github.com/gkpcrackers/storefront/internal/domain/wallet"
)

// --- Mock implementations ---

type mockCartStore struct {
	carts   map[string]*cart.Cart
	loadErr error
	saveErr error
	cleared []string
}

func newCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[string]*cart.Cart)}
}

func (m *mockCartStore) Load(_ context.Context, sessionID string) (*cart.Cart, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if c, ok := m.carts[sessionID]; ok {
		return c, nil
	}
	return &cart.Cart{}, nil
}

func (m *mockCartStore) Save(_ context.Context, sessionID string, c *cart.Cart) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.carts[sessionID] = c
	return nil
}

func (m *mockCartStore) Clear(_ context.Context, sessionID string) error {
	m.cleared = append(m.cleared, sessionID)
	delete(m.carts, sessionID)
	return nil
}

type mockOrderRepo struct {
	Repository
	lastOrder *Order
	createErr error
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	o.ID = "order-1"
	o.OrderNumber = "GKP-20260101-0001"
	m.lastOrder = o
	return nil
}

type mockWalletRepo struct {
	balance  decimal.Decimal
	applyErr error
	applied  []*wallet.Transaction
}

func (m *mockWalletRepo) Balance(_ context.Context, _ string) (decimal.Decimal, error) {
	return m.balance, nil
}

func (m *mockWalletRepo) Apply(_ context.Context, tx *wallet.Transaction) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied = append(m.applied, tx)
	m.balance = m.balance.Sub(tx.Amount)
	return nil
}

func (m *mockWalletRepo) ListTransactions(_ context.Context, _ string) ([]wallet.Transaction, error) {
	return nil, nil
}

func (m *mockWalletRepo) TotalLiability(_ context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type mockSettingsRepo struct {
	cfg settings.Settings
}

func (m *mockSettingsRepo) Load(_ context.Context) (*settings.Settings, error) {
	cfg := m.cfg
	return &cfg, nil
}

func (m *mockSettingsRepo) Save(_ context.Context, _ *settings.Settings) error {
	return nil
}

// --- Helpers ---

func testLine(id string, price int64, qty int) cart.LineItem {
	return cart.LineItem{
		ProductID:   id,
		ProductCode: "CODE-" + id,
		Name:        "Item " + id,
		UnitPrice:   decimal.NewFromInt(price),
		MRP:         decimal.NewFromInt(price * 2),
		Quantity:    qty,
	}
}

func cartWith(lines ...cart.LineItem) *cart.Cart {
	return &cart.Cart{Items: lines}
}

type fixture struct {
	carts    *mockCartStore
	orders   *mockOrderRepo
	wallets  *mockWalletRepo
	settings *mockSettingsRepo
	svc      *Service
}

func newFixture(c *cart.Cart) *fixture {
	f := &fixture{
		carts:    newCartStore(),
		orders:   &mockOrderRepo{},
		wallets:  &mockWalletRepo{},
		settings: &mockSettingsRepo{cfg: settings.Defaults()},
	}
	if c != nil {
		f.carts.carts["s1"] = c
	}
	f.svc = NewService(f.carts, f.orders, wallet.NewLedger(f.wallets), f.settings)
	return f
}

var validCustomer = CustomerDetails{
	Name:    "Asha",
	Phone:   "+91 90000 00000",
	Address: "1 Market Road",
}

func dealerProfile(verified bool) *profile.Profile {
	return &profile.Profile{
		ID:             "u1",
		Classification: profile.Dealer,
		Verified:       verified,
	}
}

func retailProfile() *profile.Profile {
	return &profile.Profile{ID: "u1", Classification: profile.Retail}
}

// --- Tests ---

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer,
	}, nil)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_ValidatesCustomerFields(t *testing.T) {
	tests := []struct {
		name     string
		customer CustomerDetails
		field    string
	}{
		{"missing name", CustomerDetails{Phone: "1", Address: "a"}, "name"},
		{"blank name", CustomerDetails{Name: "   ", Phone: "1", Address: "a"}, "name"},
		{"missing phone", CustomerDetails{Name: "n", Address: "a"}, "phone"},
		{"missing address", CustomerDetails{Name: "n", Phone: "1"}, "address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(cartWith(testLine("p1", 600, 1)))

			_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
				SessionID: "s1", Customer: tt.customer,
			}, nil)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestPlaceOrder_MinimumOrderShortfall(t *testing.T) {
	// Retail floor defaults to 500; a 2 x 60 cart is 380 short.
	f := newFixture(cartWith(testLine("p1", 60, 2)))

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer,
	}, nil)

	var minErr *MinimumOrderNotMetError
	require.ErrorAs(t, err, &minErr)
	assert.True(t, minErr.Threshold.Equal(decimal.NewFromInt(500)))
	assert.True(t, minErr.Subtotal.Equal(decimal.NewFromInt(120)))
	assert.True(t, minErr.Shortfall.Equal(decimal.NewFromInt(380)))
}

func TestPlaceOrder_DealerFloorForVerifiedDealer(t *testing.T) {
	// Dealer floor defaults to 1000; 600 passes retail but not dealer.
	f := newFixture(cartWith(testLine("p1", 600, 1)))

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer,
	}, dealerProfile(true))

	var minErr *MinimumOrderNotMetError
	require.ErrorAs(t, err, &minErr)
	assert.True(t, minErr.Threshold.Equal(decimal.NewFromInt(1000)))
}

func TestPlaceOrder_UnverifiedDealerGetsRetailFloor(t *testing.T) {
	f := newFixture(cartWith(testLine("p1", 600, 1)))

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer,
	}, dealerProfile(false))

	require.NoError(t, err)
	assert.Equal(t, profile.Retail, result.Order.Classification)
}

func TestPlaceOrder_NoWallet(t *testing.T) {
	f := newFixture(cartWith(testLine("p1", 300, 2)))

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer,
	}, nil)

	require.NoError(t, err)
	o := result.Order
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 2, o.TotalItems)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(600)))
	assert.True(t, o.WalletDiscount.IsZero())
	assert.True(t, o.FinalAmount.Equal(decimal.NewFromInt(600)))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "CODE-p1", o.Items[0].ProductCode)
	assert.True(t, o.Items[0].LineTotal.Equal(decimal.NewFromInt(600)))

	// The cart is cleared only after the order committed.
	assert.Equal(t, []string{"s1"}, f.carts.cleared)
}

func TestPlaceOrder_WalletCoversPartOfOrder(t *testing.T) {
	// Balance 100 against a 600 order: full balance is consumed.
	f := newFixture(cartWith(testLine("p1", 600, 1)))
	f.wallets.balance = decimal.NewFromInt(100)

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer, UseWallet: true,
	}, retailProfile())

	require.NoError(t, err)
	assert.True(t, result.Order.WalletDiscount.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.Order.FinalAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, result.WalletBalance.IsZero())
	require.Len(t, f.wallets.applied, 1)
	assert.Equal(t, wallet.Debit, f.wallets.applied[0].Type)
	assert.Equal(t, "order-1", f.wallets.applied[0].OrderID)
}

func TestPlaceOrder_WalletCappedAtSubtotal(t *testing.T) {
	// Balance 1500 against a 600 order: discount caps at the subtotal and
	// the rest of the balance survives.
	f := newFixture(cartWith(testLine("p1", 600, 1)))
	f.wallets.balance = decimal.NewFromInt(1500)

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer, UseWallet: true,
	}, retailProfile())

	require.NoError(t, err)
	assert.True(t, result.Order.WalletDiscount.Equal(decimal.NewFromInt(600)))
	assert.True(t, result.Order.FinalAmount.IsZero())
	assert.True(t, result.WalletBalance.Equal(decimal.NewFromInt(900)))
}

func TestPlaceOrder_WalletIgnoredWhenNotOptedIn(t *testing.T) {
	f := newFixture(cartWith(testLine("p1", 600, 1)))
	f.wallets.balance = decimal.NewFromInt(100)

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer, UseWallet: false,
	}, retailProfile())

	require.NoError(t, err)
	assert.True(t, result.Order.WalletDiscount.IsZero())
	assert.Empty(t, f.wallets.applied)
}

func TestPlaceOrder_WalletDisabledBySettings(t *testing.T) {
	f := newFixture(cartWith(testLine("p1", 600, 1)))
	f.wallets.balance = decimal.NewFromInt(100)
	f.settings.cfg.EnableWallet = false

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer, UseWallet: true,
	}, retailProfile())

	require.NoError(t, err)
	assert.True(t, result.Order.WalletDiscount.IsZero())
}

func TestPlaceOrder_DeductionFailureIsWarningNotError(t *testing.T) {
	f := newFixture(cartWith(testLine("p1", 600, 1)))
	f.wallets.balance = decimal.NewFromInt(100)
	f.wallets.applyErr = errors.New("ledger unavailable")

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer, UseWallet: true,
	}, retailProfile())

	require.NoError(t, err)
	require.NotNil(t, result.Warning)
	var dErr *WalletDeductionError
	require.ErrorAs(t, result.Warning, &dErr)
	assert.Equal(t, "GKP-20260101-0001", dErr.OrderNumber)
	// The order still stands; the balance reported is the authoritative
	// re-read, untouched by the failed deduction.
	assert.NotNil(t, f.orders.lastOrder)
	assert.True(t, result.WalletBalance.Equal(decimal.NewFromInt(100)))
}

func TestPlaceOrder_PersistenceFailureKeepsCart(t *testing.T) {
	f := newFixture(cartWith(testLine("p1", 600, 1)))
	f.orders.createErr = errors.New("db down")

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer,
	}, nil)

	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Empty(t, f.carts.cleared)
}

func TestPlaceOrder_TrimsCustomerFields(t *testing.T) {
	f := newFixture(cartWith(testLine("p1", 600, 1)))

	result, err := f.svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		SessionID: "s1",
		Customer: CustomerDetails{
			Name:    "  Asha  ",
			Phone:   " +91 90000 00000 ",
			Address: " 1 Market Road ",
		},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Asha", result.Order.Customer.Name)
	assert.Equal(t, "+91 90000 00000", result.Order.Customer.Phone)
	assert.Equal(t, "1 Market Road", result.Order.Customer.Address)
}

func TestComposeEstimate_DoesNotPersistOrClear(t *testing.T) {
	f := newFixture(cartWith(testLine("p1", 300, 2)))

	est, err := f.svc.ComposeEstimate(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer,
	}, nil)

	require.NoError(t, err)
	assert.Nil(t, f.orders.lastOrder)
	assert.Empty(t, f.carts.cleared)
	assert.True(t, est.Subtotal.Equal(decimal.NewFromInt(600)))
	assert.True(t, est.FinalAmount.Equal(decimal.NewFromInt(600)))
	assert.Contains(t, est.WhatsAppURL, "https://wa.me/")
}

func TestComposeEstimate_SharesValidationWithPlacement(t *testing.T) {
	f := newFixture(cartWith(testLine("p1", 60, 1)))

	_, err := f.svc.ComposeEstimate(context.Background(), PlaceOrderRequest{
		SessionID: "s1", Customer: validCustomer,
	}, nil)

	var minErr *MinimumOrderNotMetError
	require.ErrorAs(t, err, &minErr)
}
